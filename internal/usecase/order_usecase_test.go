package usecase_test

import (
	"context"
	"testing"
	"time"

	"app/internal/domain/model"
	repo "app/internal/repository"
	"app/internal/usecase"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func newOrderTx() (*TxManagerMock, *OrderRepoMock, *OrderItemRepoMock, *OrderHistoryRepoMock, *CartRepoMock, *InventoryRepoMock, *ProductRepoMock) {
	tx := new(TxManagerMock)
	orders := new(OrderRepoMock)
	items := new(OrderItemRepoMock)
	history := new(OrderHistoryRepoMock)
	carts := new(CartRepoMock)
	inventory := new(InventoryRepoMock)
	products := new(ProductRepoMock)

	tx.Repos = &TxReposMock{
		orders:       orders,
		orderItems:   items,
		orderHistory: history,
		carts:        carts,
		inventory:    inventory,
		products:     products,
	}
	tx.On("WithinTx", mock.Anything).Return(nil)

	return tx, orders, items, history, carts, inventory, products
}

func TestOrderUsecase_Checkout_EmptyCart(t *testing.T) {
	tx, _, _, _, _, _, _ := newOrderTx()
	uc := usecase.NewOrderUsecase(tx)

	_, err := uc.Checkout(context.Background(), 1, usecase.CheckoutInput{})
	assertErrContains(t, err, "cart empty")
}

func TestOrderUsecase_Checkout_InvalidPayment(t *testing.T) {
	tx, _, _, _, _, _, _ := newOrderTx()
	uc := usecase.NewOrderUsecase(tx)

	_, err := uc.Checkout(context.Background(), 1, usecase.CheckoutInput{
		Items:   []usecase.CheckoutItemInput{{ProductID: 5, Quantity: 1}},
		Payment: "UPI",
	})
	assertErrContains(t, err, "payment must be one of: COD, ONLINE")
}

// 数量は在庫まで黙って丸める（10個希望・在庫4 → 4個で注文成立）
func TestOrderUsecase_Checkout_ClampsQuantityToStock(t *testing.T) {
	tx, orders, items, history, carts, inventory, products := newOrderTx()

	products.On("FindByID", mock.Anything, int64(5)).Return(model.Product{ID: 5, Name: "pen", Price: 100, Stock: 4, IsActive: true}, nil)
	inventory.On("DecreaseStockIfEnough", mock.Anything, int64(5), int64(4)).Return(true, nil)
	orders.On("Create", mock.Anything, mock.Anything).Return(int64(77), nil)
	items.On("CreateBulk", mock.Anything, int64(77), mock.Anything).Return(nil)
	history.On("Append", mock.Anything, mock.Anything).Return(nil)
	carts.On("FindActiveByUserID", mock.Anything, int64(1)).Return(model.Cart{}, repo.ErrNotFound)

	uc := usecase.NewOrderUsecase(tx)

	out, err := uc.Checkout(context.Background(), 1, usecase.CheckoutInput{
		Items: []usecase.CheckoutItemInput{{ProductID: 5, Quantity: 10}},
	})
	assert.NoError(t, err)
	assert.Equal(t, int64(77), out.ID)
	assert.Equal(t, 1, len(out.Items))
	assert.Equal(t, int64(4), out.Items[0].Quantity)
	assert.Equal(t, int64(400), out.Subtotal)

	inventory.AssertExpectations(t)
}

// 在庫0はエラーで、注文は作られない
func TestOrderUsecase_Checkout_OutOfStock_NoOrder(t *testing.T) {
	tx, orders, _, _, _, _, products := newOrderTx()

	products.On("FindByID", mock.Anything, int64(5)).Return(model.Product{ID: 5, Price: 100, Stock: 0, IsActive: true}, nil)

	uc := usecase.NewOrderUsecase(tx)

	_, err := uc.Checkout(context.Background(), 1, usecase.CheckoutInput{
		Items: []usecase.CheckoutItemInput{{ProductID: 5, Quantity: 1}},
	})
	assertErrContains(t, err, "out of stock")

	orders.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

// 条件付き減算が3回とも競合したら409
func TestOrderUsecase_Checkout_ConcurrentConflict(t *testing.T) {
	tx, orders, _, _, _, inventory, products := newOrderTx()

	products.On("FindByID", mock.Anything, int64(5)).Return(model.Product{ID: 5, Price: 100, Stock: 2, IsActive: true}, nil)
	inventory.On("DecreaseStockIfEnough", mock.Anything, int64(5), int64(2)).Return(false, nil)

	uc := usecase.NewOrderUsecase(tx)

	_, err := uc.Checkout(context.Background(), 1, usecase.CheckoutInput{
		Items: []usecase.CheckoutItemInput{{ProductID: 5, Quantity: 2}},
	})
	assertErrContains(t, err, "out of stock")

	inventory.AssertNumberOfCalls(t, "DecreaseStockIfEnough", 3)
	orders.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

// 合計 = subtotal - discount + shipping + giftWrap（送料はリクエスト値を信用）
func TestOrderUsecase_Checkout_TotalWithRequestShipping(t *testing.T) {
	tx, orders, items, history, carts, inventory, products := newOrderTx()

	products.On("FindByID", mock.Anything, int64(5)).Return(model.Product{ID: 5, Price: 1500, Stock: 10, IsActive: true}, nil)
	inventory.On("DecreaseStockIfEnough", mock.Anything, int64(5), int64(1)).Return(true, nil)

	var created model.Order
	orders.On("Create", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		created = args.Get(1).(model.Order)
	}).Return(int64(78), nil)
	items.On("CreateBulk", mock.Anything, int64(78), mock.Anything).Return(nil)
	history.On("Append", mock.Anything, mock.Anything).Return(nil)
	carts.On("FindActiveByUserID", mock.Anything, int64(1)).Return(model.Cart{}, repo.ErrNotFound)

	uc := usecase.NewOrderUsecase(tx)

	out, err := uc.Checkout(context.Background(), 1, usecase.CheckoutInput{
		Items:    []usecase.CheckoutItemInput{{ProductID: 5, Quantity: 1}},
		Shipping: 99,
	})
	assert.NoError(t, err)
	assert.Equal(t, int64(1599), out.Total)
	assert.Equal(t, model.PaymentStatusPending, created.PaymentStatus)
	assert.Equal(t, model.FulfilmentStatusPlaced, created.FulfilmentStatus)
}

// 割引が大きすぎても合計は0で止まる
func TestOrderUsecase_Checkout_TotalNeverNegative(t *testing.T) {
	tx, orders, items, history, carts, inventory, products := newOrderTx()

	products.On("FindByID", mock.Anything, int64(5)).Return(model.Product{ID: 5, Price: 100, Stock: 10, IsActive: true}, nil)
	inventory.On("DecreaseStockIfEnough", mock.Anything, int64(5), int64(1)).Return(true, nil)
	orders.On("Create", mock.Anything, mock.Anything).Return(int64(79), nil)
	items.On("CreateBulk", mock.Anything, int64(79), mock.Anything).Return(nil)
	history.On("Append", mock.Anything, mock.Anything).Return(nil)
	carts.On("FindActiveByUserID", mock.Anything, int64(1)).Return(model.Cart{}, repo.ErrNotFound)

	uc := usecase.NewOrderUsecase(tx)

	out, err := uc.Checkout(context.Background(), 1, usecase.CheckoutInput{
		Items:    []usecase.CheckoutItemInput{{ProductID: 5, Quantity: 1}},
		Discount: 500,
	})
	assert.NoError(t, err)
	assert.Equal(t, int64(0), out.Total)
}

// ギフト包装単価はリクエストの値をそのまま焼き込む
func TestOrderUsecase_Checkout_GiftWrapFromRequest(t *testing.T) {
	tx, orders, items, history, carts, inventory, products := newOrderTx()

	products.On("FindByID", mock.Anything, int64(5)).Return(model.Product{ID: 5, Price: 200, Stock: 10, IsActive: true}, nil)
	inventory.On("DecreaseStockIfEnough", mock.Anything, int64(5), int64(2)).Return(true, nil)
	orders.On("Create", mock.Anything, mock.Anything).Return(int64(80), nil)
	items.On("CreateBulk", mock.Anything, int64(80), mock.Anything).Return(nil)
	history.On("Append", mock.Anything, mock.Anything).Return(nil)
	carts.On("FindActiveByUserID", mock.Anything, int64(1)).Return(model.Cart{}, repo.ErrNotFound)

	uc := usecase.NewOrderUsecase(tx)

	out, err := uc.Checkout(context.Background(), 1, usecase.CheckoutInput{
		Items: []usecase.CheckoutItemInput{{ProductID: 5, Quantity: 2, IsGift: true, GiftWrap: true, GiftWrapUnitPrice: 30}},
	})
	assert.NoError(t, err)
	assert.Equal(t, int64(60), out.GiftWrapTotal)
	assert.Equal(t, int64(460), out.Total)
}

// =====================
// MarkPaid / MarkFailed
// =====================

func TestOrderUsecase_MarkPaid_MovesPlacedToConfirmed(t *testing.T) {
	tx, orders, _, history, _, _, _ := newOrderTx()

	orders.On("FindByID", mock.Anything, int64(7)).Return(model.Order{
		ID: 7, UserID: 1,
		PaymentStatus:    model.PaymentStatusPending,
		FulfilmentStatus: model.FulfilmentStatusPlaced,
	}, nil)
	orders.On("Update", mock.Anything, mock.Anything).Return(nil)
	history.On("Append", mock.Anything, mock.Anything).Return(nil)

	uc := usecase.NewOrderUsecase(tx)

	o, err := uc.MarkPaid(context.Background(), 7, usecase.PaymentMeta{
		Method: model.PaymentMethodOnline, Provider: "payu", TxnID: "t1", PaidAt: time.Now(),
	})
	assert.NoError(t, err)
	assert.Equal(t, model.PaymentStatusPaid, o.PaymentStatus)
	assert.Equal(t, model.FulfilmentStatusConfirmed, o.FulfilmentStatus)
	assert.NotNil(t, o.PaidAt)
}

// 既にPAIDなら何もしない（履歴も増やさない）
func TestOrderUsecase_MarkPaid_Idempotent(t *testing.T) {
	tx, orders, _, history, _, _, _ := newOrderTx()

	orders.On("FindByID", mock.Anything, int64(7)).Return(model.Order{
		ID: 7, UserID: 1,
		PaymentStatus:    model.PaymentStatusPaid,
		FulfilmentStatus: model.FulfilmentStatusConfirmed,
	}, nil)

	uc := usecase.NewOrderUsecase(tx)

	o, err := uc.MarkPaid(context.Background(), 7, usecase.PaymentMeta{Provider: "payu", TxnID: "t1", PaidAt: time.Now()})
	assert.NoError(t, err)
	assert.Equal(t, model.PaymentStatusPaid, o.PaymentStatus)

	orders.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
	history.AssertNotCalled(t, "Append", mock.Anything, mock.Anything)
}

// 先に進んだ配送ステータスは戻さない
func TestOrderUsecase_MarkPaid_DoesNotRegressFulfilment(t *testing.T) {
	tx, orders, _, history, _, _, _ := newOrderTx()

	orders.On("FindByID", mock.Anything, int64(7)).Return(model.Order{
		ID: 7, UserID: 1,
		PaymentStatus:    model.PaymentStatusPending,
		FulfilmentStatus: model.FulfilmentStatusShipped,
	}, nil)
	orders.On("Update", mock.Anything, mock.Anything).Return(nil)
	history.On("Append", mock.Anything, mock.Anything).Return(nil)

	uc := usecase.NewOrderUsecase(tx)

	o, err := uc.MarkPaid(context.Background(), 7, usecase.PaymentMeta{Provider: "payu", TxnID: "t1", PaidAt: time.Now()})
	assert.NoError(t, err)
	assert.Equal(t, model.PaymentStatusPaid, o.PaymentStatus)
	assert.Equal(t, model.FulfilmentStatusShipped, o.FulfilmentStatus)
}

// 失敗は支払いステータスだけ倒す
func TestOrderUsecase_MarkFailed_LeavesFulfilment(t *testing.T) {
	tx, orders, _, history, _, _, _ := newOrderTx()

	orders.On("FindByID", mock.Anything, int64(7)).Return(model.Order{
		ID: 7, UserID: 1,
		PaymentStatus:    model.PaymentStatusPending,
		FulfilmentStatus: model.FulfilmentStatusPlaced,
	}, nil)
	orders.On("Update", mock.Anything, mock.Anything).Return(nil)
	history.On("Append", mock.Anything, mock.Anything).Return(nil)

	uc := usecase.NewOrderUsecase(tx)

	o, err := uc.MarkFailed(context.Background(), 7, usecase.PaymentMeta{Provider: "payu", TxnID: "t1"})
	assert.NoError(t, err)
	assert.Equal(t, model.PaymentStatusFailed, o.PaymentStatus)
	assert.Equal(t, model.FulfilmentStatusPlaced, o.FulfilmentStatus)
}

// =====================
// GetMyOrderDetail
// =====================

func TestOrderUsecase_GetMyOrderDetail_OtherUsersOrderIsNotFound(t *testing.T) {
	tx, orders, _, _, _, _, _ := newOrderTx()

	orders.On("FindByID", mock.Anything, int64(7)).Return(model.Order{ID: 7, UserID: 2}, nil)

	uc := usecase.NewOrderUsecase(tx)

	_, err := uc.GetMyOrderDetail(context.Background(), 1, 7)
	assertErrContains(t, err, "not found")
}

func TestOrderUsecase_MarkFailed_DoesNotDemotePaidOrder(t *testing.T) {
	tx, orders, _, history, _, _, _ := newOrderTx()

	orders.On("FindByID", mock.Anything, int64(7)).Return(model.Order{
		ID: 7, UserID: 1,
		PaymentStatus:    model.PaymentStatusPaid,
		FulfilmentStatus: model.FulfilmentStatusConfirmed,
	}, nil)

	uc := usecase.NewOrderUsecase(tx)

	o, err := uc.MarkFailed(context.Background(), 7, usecase.PaymentMeta{Provider: "payu", TxnID: "t2"})
	assert.NoError(t, err)
	assert.Equal(t, model.PaymentStatusPaid, o.PaymentStatus)

	orders.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
	history.AssertNotCalled(t, "Append", mock.Anything, mock.Anything)
}
