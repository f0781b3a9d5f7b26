package usecase

import (
	"context"
	"fmt"
	"net/http"

	"app/internal/config"
	"app/internal/domain/model"
	repo "app/internal/repository"
)

const (
	cartMinQty = 1
	cartMaxQty = 50
)

// CartUsecase は /cart の業務ロジック。
// ここで出す合計は表示用で、チェックアウト時にOrderUsecaseが改めて計算し直す。
type CartUsecase struct {
	cfg          config.Config
	cartRepo     repo.CartRepository
	cartItemRepo repo.CartItemRepository
	productRepo  repo.ProductRepository
}

func NewCartUsecase(
	cfg config.Config,
	cartRepo repo.CartRepository,
	cartItemRepo repo.CartItemRepository,
	productRepo repo.ProductRepository,
) *CartUsecase {
	return &CartUsecase{
		cfg:          cfg,
		cartRepo:     cartRepo,
		cartItemRepo: cartItemRepo,
		productRepo:  productRepo,
	}
}

type CartItemResponse struct {
	ID           int64  `json:"id"`
	ProductID    int64  `json:"product_id"`
	Name         string `json:"name"`
	Price        int64  `json:"price"`
	MRP          int64  `json:"mrp"`
	Quantity     int64  `json:"quantity"`
	IsGift       bool   `json:"is_gift"`
	GiftWrap     bool   `json:"gift_wrap"`
	GiftWrapFee  int64  `json:"gift_wrap_fee"`
	GiftMessage  string `json:"gift_message"`
}

type CartResponse struct {
	Items         []CartItemResponse `json:"items"`
	Subtotal      int64              `json:"subtotal"`
	Shipping      int64              `json:"shipping"`
	GiftWrapTotal int64              `json:"gift_wrap_total"`
	Total         int64              `json:"total"`
}

type AddCartInput struct {
	ProductID   int64
	Quantity    int64
	IsGift      bool
	GiftWrap    bool
	GiftMessage string
}

type UpdateCartItemInput struct {
	Quantity    int64
	IsGift      bool
	GiftWrap    bool
	GiftMessage string
}

// GetCart はカート取得（無ければACTIVEを作って空を返す）。
func (u *CartUsecase) GetCart(ctx context.Context, userID int64) (CartResponse, error) {
	if userID <= 0 {
		return CartResponse{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}

	cart, err := u.cartRepo.GetOrCreateActiveByUserID(ctx, userID)
	if err != nil {
		return CartResponse{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	return u.buildCartResponse(ctx, cart.ID)
}

// AddToCart はカートに追加（同一商品は数量加算）。
// 追加は在庫超過を黙って丸めず、必ずエラーで返す（チェックアウトとは方針が違う）。
func (u *CartUsecase) AddToCart(ctx context.Context, userID int64, in AddCartInput) (CartResponse, error) {
	if userID <= 0 {
		return CartResponse{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if in.ProductID <= 0 {
		return CartResponse{}, NewHTTPError(http.StatusBadRequest, "invalid product_id")
	}
	if in.Quantity < cartMinQty || in.Quantity > cartMaxQty {
		return CartResponse{}, NewHTTPError(http.StatusBadRequest, "quantity must be 1-50")
	}

	// ACTIVEカート取得（無ければ作成）
	cart, err := u.cartRepo.GetOrCreateActiveByUserID(ctx, userID)
	if err != nil {
		return CartResponse{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	// 商品チェック（公開のみ）
	p, err := u.productRepo.FindByID(ctx, in.ProductID)
	if err == repo.ErrNotFound {
		return CartResponse{}, NewHTTPError(http.StatusBadRequest, "invalid product")
	}
	if err != nil {
		return CartResponse{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	if !p.IsActive {
		return CartResponse{}, NewHTTPError(http.StatusBadRequest, "invalid product")
	}

	// 既存数量を調べてマージ後の数量で在庫を見る
	items, err := u.cartItemRepo.ListByCartID(ctx, cart.ID)
	if err != nil {
		return CartResponse{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	var existingQty int64 = 0
	for _, it := range items {
		if it.ProductID == in.ProductID {
			existingQty = it.Quantity
			break
		}
	}

	newQty := existingQty + in.Quantity
	if newQty > cartMaxQty {
		return CartResponse{}, NewHTTPError(http.StatusBadRequest, "quantity must be 1-50")
	}
	if newQty > p.Stock {
		return CartResponse{}, NewHTTPError(http.StatusBadRequest, fmt.Sprintf("out of stock: only %d available", p.Stock))
	}

	if err := u.cartItemRepo.UpsertByCartAndProduct(ctx, cart.ID, model.CartItem{
		ProductID:   in.ProductID,
		Quantity:    in.Quantity,
		IsGift:      in.IsGift,
		GiftWrap:    in.GiftWrap,
		GiftMessage: in.GiftMessage,
	}); err != nil {
		return CartResponse{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	return u.buildCartResponse(ctx, cart.ID)
}

// 数量・ギフト指定の変更（所有チェック＋在庫チェック）。
func (u *CartUsecase) UpdateCartItem(ctx context.Context, userID int64, cartItemID int64, in UpdateCartItemInput) (CartResponse, error) {
	if userID <= 0 {
		return CartResponse{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if cartItemID <= 0 {
		return CartResponse{}, NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	if in.Quantity < cartMinQty || in.Quantity > cartMaxQty {
		return CartResponse{}, NewHTTPError(http.StatusBadRequest, "quantity must be 1-50")
	}

	owned, err := u.cartItemRepo.IsOwnedByUser(ctx, cartItemID, userID)
	if err != nil {
		return CartResponse{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	if !owned {
		return CartResponse{}, NewHTTPError(http.StatusNotFound, "not found")
	}

	item, err := u.cartItemRepo.FindByID(ctx, cartItemID)
	if err == repo.ErrNotFound {
		return CartResponse{}, NewHTTPError(http.StatusNotFound, "not found")
	}
	if err != nil {
		return CartResponse{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	//商品の在庫チェック
	p, err := u.productRepo.FindByID(ctx, item.ProductID)
	if err == repo.ErrNotFound {
		return CartResponse{}, NewHTTPError(http.StatusBadRequest, "invalid product")
	}
	if err != nil {
		return CartResponse{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	if !p.IsActive {
		return CartResponse{}, NewHTTPError(http.StatusBadRequest, "invalid product")
	}
	if in.Quantity > p.Stock {
		return CartResponse{}, NewHTTPError(http.StatusBadRequest, fmt.Sprintf("out of stock: only %d available", p.Stock))
	}

	if err := u.cartItemRepo.UpdateItem(ctx, cartItemID, in.Quantity, in.IsGift, in.GiftWrap, in.GiftMessage); err != nil {
		if err == repo.ErrNotFound {
			return CartResponse{}, NewHTTPError(http.StatusNotFound, "not found")
		}
		return CartResponse{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	//ACTIVEカートを取得して返却
	cart, err := u.cartRepo.FindActiveByUserID(ctx, userID)
	if err != nil {
		return CartResponse{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return u.buildCartResponse(ctx, cart.ID)
}

// 明細削除
func (u *CartUsecase) DeleteCartItem(ctx context.Context, userID int64, cartItemID int64) (CartResponse, error) {
	if userID <= 0 {
		return CartResponse{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if cartItemID <= 0 {
		return CartResponse{}, NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	owned, err := u.cartItemRepo.IsOwnedByUser(ctx, cartItemID, userID)
	if err != nil {
		return CartResponse{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	if !owned {
		return CartResponse{}, NewHTTPError(http.StatusNotFound, "not found")
	}

	if err := u.cartItemRepo.DeleteByID(ctx, cartItemID); err != nil {
		if err == repo.ErrNotFound {
			return CartResponse{}, NewHTTPError(http.StatusNotFound, "not found")
		}
		return CartResponse{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	cart, err := u.cartRepo.FindActiveByUserID(ctx, userID)
	if err != nil {
		return CartResponse{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return u.buildCartResponse(ctx, cart.ID)
}

// 現在のカタログ価格で合計を組み立てる。
// 非公開になった商品は明細から外す。送料は合計が閾値を超えたら無料、空カートは0円。
func (u *CartUsecase) buildCartResponse(ctx context.Context, cartID int64) (CartResponse, error) {
	items, err := u.cartItemRepo.ListByCartID(ctx, cartID)
	if err != nil {
		return CartResponse{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	respItems := make([]CartItemResponse, 0, len(items))
	var subtotal int64 = 0
	var giftWrapTotal int64 = 0

	for _, it := range items {
		p, err := u.productRepo.FindByID(ctx, it.ProductID)
		if err == repo.ErrNotFound {
			continue
		}
		if err != nil {
			return CartResponse{}, NewHTTPError(http.StatusInternalServerError, "db error")
		}
		if !p.IsActive {
			continue
		}

		var wrapFee int64 = 0
		if it.IsGift && it.GiftWrap && u.cfg.GiftEnabled && u.cfg.GiftWrapEnabled {
			wrapFee = u.cfg.GiftWrapFee
		}

		respItems = append(respItems, CartItemResponse{
			ID:          it.ID,
			ProductID:   it.ProductID,
			Name:        p.Name,
			Price:       p.Price,
			MRP:         p.MRP,
			Quantity:    it.Quantity,
			IsGift:      it.IsGift,
			GiftWrap:    it.GiftWrap,
			GiftWrapFee: wrapFee,
			GiftMessage: it.GiftMessage,
		})

		subtotal += p.Price * it.Quantity
		giftWrapTotal += wrapFee * it.Quantity
	}

	var shipping int64 = 0
	if len(respItems) > 0 && subtotal <= u.cfg.FreeShippingThreshold {
		shipping = u.cfg.FlatShippingFee
	}

	return CartResponse{
		Items:         respItems,
		Subtotal:      subtotal,
		Shipping:      shipping,
		GiftWrapTotal: giftWrapTotal,
		Total:         subtotal + shipping + giftWrapTotal,
	}, nil
}
