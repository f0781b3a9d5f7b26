package usecase_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"app/internal/domain/model"
	repo "app/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

// =====================
// TxManager / TxRepos mocks
// =====================

// TxManagerMock は WithinTx の中で渡す repos を固定して unit テストを回す
type TxManagerMock struct {
	mock.Mock
	Repos repo.TxRepos
}

func (m *TxManagerMock) WithinTx(ctx context.Context, fn func(r repo.TxRepos) error) error {
	// 呼ばれた事実だけ記録（ctxの具体値は問わない）
	m.Called(ctx)
	return fn(m.Repos)
}

type TxReposMock struct {
	orders       repo.OrderRepository
	orderItems   repo.OrderItemRepository
	orderHistory repo.OrderHistoryRepository
	carts        repo.CartRepository
	cartItems    repo.CartItemRepository
	inventory    repo.InventoryRepository
	products     repo.ProductRepository
	paymentTxs   repo.PaymentTxRepository
	enrollments  repo.EnrollmentRepository
	courses      repo.CourseRepository
}

func (r *TxReposMock) Orders() repo.OrderRepository              { return r.orders }
func (r *TxReposMock) OrderItems() repo.OrderItemRepository      { return r.orderItems }
func (r *TxReposMock) OrderHistory() repo.OrderHistoryRepository { return r.orderHistory }
func (r *TxReposMock) Carts() repo.CartRepository                { return r.carts }
func (r *TxReposMock) CartItems() repo.CartItemRepository        { return r.cartItems }
func (r *TxReposMock) Inventory() repo.InventoryRepository       { return r.inventory }
func (r *TxReposMock) Products() repo.ProductRepository          { return r.products }
func (r *TxReposMock) PaymentTxs() repo.PaymentTxRepository      { return r.paymentTxs }
func (r *TxReposMock) Enrollments() repo.EnrollmentRepository    { return r.enrollments }
func (r *TxReposMock) Courses() repo.CourseRepository            { return r.courses }

// =====================
// Repository mocks
// =====================

type OrderRepoMock struct{ mock.Mock }

func (m *OrderRepoMock) FindByID(ctx context.Context, orderID int64) (model.Order, error) {
	args := m.Called(ctx, orderID)
	o, _ := args.Get(0).(model.Order)
	return o, args.Error(1)
}

func (m *OrderRepoMock) ListByUserID(ctx context.Context, userID int64, page int, limit int) ([]model.Order, int64, error) {
	args := m.Called(ctx, userID, page, limit)
	orders, _ := args.Get(0).([]model.Order)
	return orders, args.Get(1).(int64), args.Error(2)
}

func (m *OrderRepoMock) Create(ctx context.Context, order model.Order) (int64, error) {
	args := m.Called(ctx, order)
	return args.Get(0).(int64), args.Error(1)
}

func (m *OrderRepoMock) Update(ctx context.Context, order model.Order) error {
	args := m.Called(ctx, order)
	return args.Error(0)
}

func (m *OrderRepoMock) ListAdmin(ctx context.Context, f repo.AdminOrderListFilter) ([]model.Order, int64, error) {
	args := m.Called(ctx, f)
	orders, _ := args.Get(0).([]model.Order)
	return orders, args.Get(1).(int64), args.Error(2)
}

type OrderItemRepoMock struct{ mock.Mock }

func (m *OrderItemRepoMock) CreateBulk(ctx context.Context, orderID int64, items []model.OrderItem) error {
	args := m.Called(ctx, orderID, items)
	return args.Error(0)
}

func (m *OrderItemRepoMock) ListByOrderID(ctx context.Context, orderID int64) ([]model.OrderItem, error) {
	args := m.Called(ctx, orderID)
	items, _ := args.Get(0).([]model.OrderItem)
	return items, args.Error(1)
}

type OrderHistoryRepoMock struct{ mock.Mock }

func (m *OrderHistoryRepoMock) Append(ctx context.Context, entry model.OrderStatusHistory) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

func (m *OrderHistoryRepoMock) ListByOrderID(ctx context.Context, orderID int64) ([]model.OrderStatusHistory, error) {
	args := m.Called(ctx, orderID)
	entries, _ := args.Get(0).([]model.OrderStatusHistory)
	return entries, args.Error(1)
}

type InventoryRepoMock struct{ mock.Mock }

func (m *InventoryRepoMock) DecreaseStockIfEnough(ctx context.Context, productID int64, qty int64) (bool, error) {
	args := m.Called(ctx, productID, qty)
	return args.Bool(0), args.Error(1)
}

func (m *InventoryRepoMock) IncreaseStock(ctx context.Context, productID int64, qty int64) error {
	args := m.Called(ctx, productID, qty)
	return args.Error(0)
}

type ProductRepoMock struct{ mock.Mock }

func (m *ProductRepoMock) ListPublic(ctx context.Context, q repo.ProductListQuery) ([]model.Product, int64, error) {
	args := m.Called(ctx, q)
	products, _ := args.Get(0).([]model.Product)
	return products, args.Get(1).(int64), args.Error(2)
}

func (m *ProductRepoMock) FindByID(ctx context.Context, id int64) (model.Product, error) {
	args := m.Called(ctx, id)
	p, _ := args.Get(0).(model.Product)
	return p, args.Error(1)
}

type CartRepoMock struct{ mock.Mock }

func (m *CartRepoMock) GetOrCreateActiveByUserID(ctx context.Context, userID int64) (model.Cart, error) {
	args := m.Called(ctx, userID)
	c, _ := args.Get(0).(model.Cart)
	return c, args.Error(1)
}

func (m *CartRepoMock) FindActiveByUserID(ctx context.Context, userID int64) (model.Cart, error) {
	args := m.Called(ctx, userID)
	c, _ := args.Get(0).(model.Cart)
	return c, args.Error(1)
}

func (m *CartRepoMock) UpdateStatus(ctx context.Context, cartID int64, status model.CartStatus) error {
	args := m.Called(ctx, cartID, status)
	return args.Error(0)
}

func (m *CartRepoMock) Clear(ctx context.Context, cartID int64) error {
	args := m.Called(ctx, cartID)
	return args.Error(0)
}

type CartItemRepoMock struct{ mock.Mock }

func (m *CartItemRepoMock) ListByCartID(ctx context.Context, cartID int64) ([]model.CartItem, error) {
	args := m.Called(ctx, cartID)
	items, _ := args.Get(0).([]model.CartItem)
	return items, args.Error(1)
}

func (m *CartItemRepoMock) UpsertByCartAndProduct(ctx context.Context, cartID int64, item model.CartItem) error {
	args := m.Called(ctx, cartID, item)
	return args.Error(0)
}

func (m *CartItemRepoMock) UpdateItem(ctx context.Context, cartItemID int64, qty int64, isGift bool, giftWrap bool, giftMessage string) error {
	args := m.Called(ctx, cartItemID, qty, isGift, giftWrap, giftMessage)
	return args.Error(0)
}

func (m *CartItemRepoMock) DeleteByID(ctx context.Context, cartItemID int64) error {
	args := m.Called(ctx, cartItemID)
	return args.Error(0)
}

func (m *CartItemRepoMock) FindByID(ctx context.Context, cartItemID int64) (model.CartItem, error) {
	args := m.Called(ctx, cartItemID)
	it, _ := args.Get(0).(model.CartItem)
	return it, args.Error(1)
}

func (m *CartItemRepoMock) IsOwnedByUser(ctx context.Context, cartItemID int64, userID int64) (bool, error) {
	args := m.Called(ctx, cartItemID, userID)
	return args.Bool(0), args.Error(1)
}

type PaymentTxRepoMock struct{ mock.Mock }

func (m *PaymentTxRepoMock) Create(ctx context.Context, tx model.PaymentTx) (int64, error) {
	args := m.Called(ctx, tx)
	return args.Get(0).(int64), args.Error(1)
}

func (m *PaymentTxRepoMock) FindByTxnID(ctx context.Context, txnID string) (model.PaymentTx, error) {
	args := m.Called(ctx, txnID)
	tx, _ := args.Get(0).(model.PaymentTx)
	return tx, args.Error(1)
}

func (m *PaymentTxRepoMock) UpdateCallbackResult(ctx context.Context, txnID string, status model.GatewayStatus, providerTxnID string, mode string, rawPayload string) error {
	args := m.Called(ctx, txnID, status, providerTxnID, mode, rawPayload)
	return args.Error(0)
}

type EnrollmentRepoMock struct{ mock.Mock }

func (m *EnrollmentRepoMock) FindByUserAndCourse(ctx context.Context, userID int64, courseID int64) (model.CourseEnrollment, error) {
	args := m.Called(ctx, userID, courseID)
	e, _ := args.Get(0).(model.CourseEnrollment)
	return e, args.Error(1)
}

func (m *EnrollmentRepoMock) Upsert(ctx context.Context, e model.CourseEnrollment) error {
	args := m.Called(ctx, e)
	return args.Error(0)
}

func (m *EnrollmentRepoMock) UpdateStatus(ctx context.Context, enrollmentID int64, status model.EnrollmentStatus) error {
	args := m.Called(ctx, enrollmentID, status)
	return args.Error(0)
}

type CourseRepoMock struct{ mock.Mock }

func (m *CourseRepoMock) ListPublic(ctx context.Context, page int, limit int) ([]model.Course, int64, error) {
	args := m.Called(ctx, page, limit)
	courses, _ := args.Get(0).([]model.Course)
	return courses, args.Get(1).(int64), args.Error(2)
}

func (m *CourseRepoMock) FindByID(ctx context.Context, courseID int64) (model.Course, error) {
	args := m.Called(ctx, courseID)
	c, _ := args.Get(0).(model.Course)
	return c, args.Error(1)
}

func (m *CourseRepoMock) ListLessonsByCourseID(ctx context.Context, courseID int64) ([]model.Lesson, error) {
	args := m.Called(ctx, courseID)
	lessons, _ := args.Get(0).([]model.Lesson)
	return lessons, args.Error(1)
}

type UserRepoMock struct{ mock.Mock }

func (m *UserRepoMock) Create(ctx context.Context, user *model.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *UserRepoMock) FindByID(ctx context.Context, userID int64) (*model.User, error) {
	args := m.Called(ctx, userID)
	u, _ := args.Get(0).(*model.User)
	return u, args.Error(1)
}

func (m *UserRepoMock) FindByPhone(ctx context.Context, phone string) (*model.User, error) {
	args := m.Called(ctx, phone)
	u, _ := args.Get(0).(*model.User)
	return u, args.Error(1)
}

func (m *UserRepoMock) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	args := m.Called(ctx, email)
	u, _ := args.Get(0).(*model.User)
	return u, args.Error(1)
}

func (m *UserRepoMock) Update(ctx context.Context, user *model.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

type AuditRepoMock struct{ mock.Mock }

func (m *AuditRepoMock) Create(ctx context.Context, log model.AuditLog) error {
	args := m.Called(ctx, log)
	return args.Error(0)
}

func (m *AuditRepoMock) List(ctx context.Context, filter repo.AuditLogFilter) ([]model.AuditLog, error) {
	args := m.Called(ctx, filter)
	logs, _ := args.Get(0).([]model.AuditLog)
	return logs, args.Error(1)
}

// =====================
// OTP向けのインメモリOtpStore（mock.Mockより状態遷移が追いやすい）
// =====================

type MemOtpStore struct {
	Records map[string]repo.OtpRecord
}

func NewMemOtpStore() *MemOtpStore {
	return &MemOtpStore{Records: map[string]repo.OtpRecord{}}
}

func (s *MemOtpStore) Put(_ context.Context, key string, rec repo.OtpRecord, _ time.Duration) error {
	s.Records[key] = rec
	return nil
}

func (s *MemOtpStore) Get(_ context.Context, key string) (repo.OtpRecord, error) {
	rec, ok := s.Records[key]
	if !ok {
		return repo.OtpRecord{}, repo.ErrNotFound
	}
	return rec, nil
}

func (s *MemOtpStore) Update(_ context.Context, key string, rec repo.OtpRecord) error {
	if _, ok := s.Records[key]; !ok {
		return repo.ErrNotFound
	}
	s.Records[key] = rec
	return nil
}

func (s *MemOtpStore) Delete(_ context.Context, key string) error {
	delete(s.Records, key)
	return nil
}

// =====================
// Helper: error contains（HTTPErrorの実装詳細に依存しない）
// =====================

func assertErrContains(t *testing.T, err error, wantSubstr string) {
	t.Helper()
	if assert.Error(t, err) {
		assert.True(t, strings.Contains(err.Error(), wantSubstr), "err=%q want contains %q", err.Error(), wantSubstr)
	}
}
