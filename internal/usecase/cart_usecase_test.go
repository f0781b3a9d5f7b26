package usecase_test

import (
	"context"
	"testing"

	"app/internal/config"
	"app/internal/domain/model"
	repo "app/internal/repository"
	"app/internal/usecase"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func cartConfig() config.Config {
	return config.Config{
		FreeShippingThreshold: 1499,
		FlatShippingFee:       99,
		GiftWrapFee:           30,
		GiftEnabled:           true,
		GiftWrapEnabled:       true,
	}
}

func TestCartUsecase_AddToCart_InvalidQuantity(t *testing.T) {
	uc := usecase.NewCartUsecase(cartConfig(), new(CartRepoMock), new(CartItemRepoMock), new(ProductRepoMock))

	_, err := uc.AddToCart(context.Background(), 1, usecase.AddCartInput{ProductID: 1, Quantity: 0})
	assertErrContains(t, err, "quantity must be 1-50")

	_, err = uc.AddToCart(context.Background(), 1, usecase.AddCartInput{ProductID: 1, Quantity: 51})
	assertErrContains(t, err, "quantity must be 1-50")
}

// カート追加は在庫超過を丸めずに拒否する
func TestCartUsecase_AddToCart_RejectsOverStock(t *testing.T) {
	carts := new(CartRepoMock)
	items := new(CartItemRepoMock)
	products := new(ProductRepoMock)

	carts.On("GetOrCreateActiveByUserID", mock.Anything, int64(1)).Return(model.Cart{ID: 10, UserID: 1}, nil)
	products.On("FindByID", mock.Anything, int64(5)).Return(model.Product{ID: 5, Name: "pen", Price: 100, Stock: 4, IsActive: true}, nil)
	items.On("ListByCartID", mock.Anything, int64(10)).Return([]model.CartItem{}, nil)

	uc := usecase.NewCartUsecase(cartConfig(), carts, items, products)

	_, err := uc.AddToCart(context.Background(), 1, usecase.AddCartInput{ProductID: 5, Quantity: 5})
	assertErrContains(t, err, "out of stock: only 4 available")

	// 拒否なのでupsertは呼ばれない
	items.AssertNotCalled(t, "UpsertByCartAndProduct", mock.Anything, mock.Anything, mock.Anything)
}

// 同一商品はマージ後の数量で在庫を見る
func TestCartUsecase_AddToCart_MergedQuantityOverStock(t *testing.T) {
	carts := new(CartRepoMock)
	items := new(CartItemRepoMock)
	products := new(ProductRepoMock)

	carts.On("GetOrCreateActiveByUserID", mock.Anything, int64(1)).Return(model.Cart{ID: 10, UserID: 1}, nil)
	products.On("FindByID", mock.Anything, int64(5)).Return(model.Product{ID: 5, Price: 100, Stock: 4, IsActive: true}, nil)
	items.On("ListByCartID", mock.Anything, int64(10)).Return([]model.CartItem{
		{ID: 1, CartID: 10, ProductID: 5, Quantity: 3},
	}, nil)

	uc := usecase.NewCartUsecase(cartConfig(), carts, items, products)

	_, err := uc.AddToCart(context.Background(), 1, usecase.AddCartInput{ProductID: 5, Quantity: 2})
	assertErrContains(t, err, "out of stock: only 4 available")
}

// 送料: 閾値以下は99、超えたら無料
func TestCartUsecase_Shipping_AtThreshold(t *testing.T) {
	carts := new(CartRepoMock)
	items := new(CartItemRepoMock)
	products := new(ProductRepoMock)

	carts.On("GetOrCreateActiveByUserID", mock.Anything, int64(1)).Return(model.Cart{ID: 10, UserID: 1}, nil)
	products.On("FindByID", mock.Anything, int64(5)).Return(model.Product{ID: 5, Name: "book", Price: 1499, MRP: 1799, Stock: 10, IsActive: true}, nil)

	// 1回目: マージ確認（空） / 2回目: レスポンス組み立て
	items.On("ListByCartID", mock.Anything, int64(10)).Return([]model.CartItem{}, nil).Once()
	items.On("UpsertByCartAndProduct", mock.Anything, int64(10), mock.Anything).Return(nil)
	items.On("ListByCartID", mock.Anything, int64(10)).Return([]model.CartItem{
		{ID: 1, CartID: 10, ProductID: 5, Quantity: 1},
	}, nil).Once()

	uc := usecase.NewCartUsecase(cartConfig(), carts, items, products)

	out, err := uc.AddToCart(context.Background(), 1, usecase.AddCartInput{ProductID: 5, Quantity: 1})
	assert.NoError(t, err)
	assert.Equal(t, int64(1499), out.Subtotal)
	assert.Equal(t, int64(99), out.Shipping) // 1499ちょうどは有料
	assert.Equal(t, int64(1598), out.Total)
}

func TestCartUsecase_Shipping_OverThresholdFree(t *testing.T) {
	carts := new(CartRepoMock)
	items := new(CartItemRepoMock)
	products := new(ProductRepoMock)

	carts.On("GetOrCreateActiveByUserID", mock.Anything, int64(1)).Return(model.Cart{ID: 10, UserID: 1}, nil)
	products.On("FindByID", mock.Anything, int64(5)).Return(model.Product{ID: 5, Price: 1500, Stock: 10, IsActive: true}, nil)

	items.On("ListByCartID", mock.Anything, int64(10)).Return([]model.CartItem{}, nil).Once()
	items.On("UpsertByCartAndProduct", mock.Anything, int64(10), mock.Anything).Return(nil)
	items.On("ListByCartID", mock.Anything, int64(10)).Return([]model.CartItem{
		{ID: 1, CartID: 10, ProductID: 5, Quantity: 1},
	}, nil).Once()

	uc := usecase.NewCartUsecase(cartConfig(), carts, items, products)

	out, err := uc.AddToCart(context.Background(), 1, usecase.AddCartInput{ProductID: 5, Quantity: 1})
	assert.NoError(t, err)
	assert.Equal(t, int64(0), out.Shipping)
	assert.Equal(t, int64(1500), out.Total)
}

// ギフト包装は数量分かかる
func TestCartUsecase_GiftWrapFee(t *testing.T) {
	carts := new(CartRepoMock)
	items := new(CartItemRepoMock)
	products := new(ProductRepoMock)

	carts.On("GetOrCreateActiveByUserID", mock.Anything, int64(1)).Return(model.Cart{ID: 10, UserID: 1}, nil)
	products.On("FindByID", mock.Anything, int64(5)).Return(model.Product{ID: 5, Price: 1000, Stock: 10, IsActive: true}, nil)

	items.On("ListByCartID", mock.Anything, int64(10)).Return([]model.CartItem{}, nil).Once()
	items.On("UpsertByCartAndProduct", mock.Anything, int64(10), mock.Anything).Return(nil)
	items.On("ListByCartID", mock.Anything, int64(10)).Return([]model.CartItem{
		{ID: 1, CartID: 10, ProductID: 5, Quantity: 2, IsGift: true, GiftWrap: true},
	}, nil).Once()

	uc := usecase.NewCartUsecase(cartConfig(), carts, items, products)

	out, err := uc.AddToCart(context.Background(), 1, usecase.AddCartInput{ProductID: 5, Quantity: 2, IsGift: true, GiftWrap: true})
	assert.NoError(t, err)
	assert.Equal(t, int64(2000), out.Subtotal)
	assert.Equal(t, int64(60), out.GiftWrapTotal)
	// 2000 > 1499 なので送料無料
	assert.Equal(t, int64(2060), out.Total)
}

// ギフト機能OFFなら包装料は載らない
func TestCartUsecase_GiftWrapFee_DisabledByConfig(t *testing.T) {
	cfg := cartConfig()
	cfg.GiftWrapEnabled = false

	carts := new(CartRepoMock)
	items := new(CartItemRepoMock)
	products := new(ProductRepoMock)

	carts.On("GetOrCreateActiveByUserID", mock.Anything, int64(1)).Return(model.Cart{ID: 10, UserID: 1}, nil)
	products.On("FindByID", mock.Anything, int64(5)).Return(model.Product{ID: 5, Price: 1000, Stock: 10, IsActive: true}, nil)

	items.On("ListByCartID", mock.Anything, int64(10)).Return([]model.CartItem{}, nil).Once()
	items.On("UpsertByCartAndProduct", mock.Anything, int64(10), mock.Anything).Return(nil)
	items.On("ListByCartID", mock.Anything, int64(10)).Return([]model.CartItem{
		{ID: 1, CartID: 10, ProductID: 5, Quantity: 1, IsGift: true, GiftWrap: true},
	}, nil).Once()

	uc := usecase.NewCartUsecase(cfg, carts, items, products)

	out, err := uc.AddToCart(context.Background(), 1, usecase.AddCartInput{ProductID: 5, Quantity: 1, IsGift: true, GiftWrap: true})
	assert.NoError(t, err)
	assert.Equal(t, int64(0), out.GiftWrapTotal)
}

// 非公開になった商品は合計から外れる
func TestCartUsecase_GetCart_SkipsInactiveProduct(t *testing.T) {
	carts := new(CartRepoMock)
	items := new(CartItemRepoMock)
	products := new(ProductRepoMock)

	carts.On("GetOrCreateActiveByUserID", mock.Anything, int64(1)).Return(model.Cart{ID: 10, UserID: 1}, nil)
	items.On("ListByCartID", mock.Anything, int64(10)).Return([]model.CartItem{
		{ID: 1, CartID: 10, ProductID: 5, Quantity: 1},
		{ID: 2, CartID: 10, ProductID: 6, Quantity: 1},
	}, nil)
	products.On("FindByID", mock.Anything, int64(5)).Return(model.Product{ID: 5, Price: 500, Stock: 10, IsActive: true}, nil)
	products.On("FindByID", mock.Anything, int64(6)).Return(model.Product{}, repo.ErrNotFound)

	uc := usecase.NewCartUsecase(cartConfig(), carts, items, products)

	out, err := uc.GetCart(context.Background(), 1)
	assert.NoError(t, err)
	assert.Equal(t, 1, len(out.Items))
	assert.Equal(t, int64(500), out.Subtotal)
}

func TestCartUsecase_UpdateCartItem_NotOwned(t *testing.T) {
	items := new(CartItemRepoMock)
	items.On("IsOwnedByUser", mock.Anything, int64(3), int64(1)).Return(false, nil)

	uc := usecase.NewCartUsecase(cartConfig(), new(CartRepoMock), items, new(ProductRepoMock))

	_, err := uc.UpdateCartItem(context.Background(), 1, 3, usecase.UpdateCartItemInput{Quantity: 2})
	assertErrContains(t, err, "not found")
}

// 商品参照の一時エラーは行を黙って落とさずエラーにする
func TestCartUsecase_GetCart_ProductLookupFailureSurfaces(t *testing.T) {
	carts := new(CartRepoMock)
	items := new(CartItemRepoMock)
	products := new(ProductRepoMock)

	carts.On("GetOrCreateActiveByUserID", mock.Anything, int64(1)).Return(model.Cart{ID: 10, UserID: 1}, nil)
	items.On("ListByCartID", mock.Anything, int64(10)).Return([]model.CartItem{
		{ID: 1, CartID: 10, ProductID: 5, Quantity: 2},
	}, nil)
	products.On("FindByID", mock.Anything, int64(5)).Return(model.Product{}, assert.AnError)

	uc := usecase.NewCartUsecase(cartConfig(), carts, items, products)

	_, err := uc.GetCart(context.Background(), 1)
	assertErrContains(t, err, "db error")
}

// 非公開化された商品（ErrNotFound含む）だけが合計から外れる
func TestCartUsecase_GetCart_MissingProductIsDropped(t *testing.T) {
	carts := new(CartRepoMock)
	items := new(CartItemRepoMock)
	products := new(ProductRepoMock)

	carts.On("GetOrCreateActiveByUserID", mock.Anything, int64(1)).Return(model.Cart{ID: 10, UserID: 1}, nil)
	items.On("ListByCartID", mock.Anything, int64(10)).Return([]model.CartItem{
		{ID: 1, CartID: 10, ProductID: 5, Quantity: 2},
		{ID: 2, CartID: 10, ProductID: 6, Quantity: 1},
	}, nil)
	products.On("FindByID", mock.Anything, int64(5)).Return(model.Product{}, repo.ErrNotFound)
	products.On("FindByID", mock.Anything, int64(6)).Return(model.Product{ID: 6, Name: "pen", Price: 100, Stock: 9, IsActive: true}, nil)

	uc := usecase.NewCartUsecase(cartConfig(), carts, items, products)

	out, err := uc.GetCart(context.Background(), 1)
	assert.NoError(t, err)
	assert.Equal(t, 1, len(out.Items))
	assert.Equal(t, int64(100), out.Subtotal)
}
