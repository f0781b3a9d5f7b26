package repository

import (
	"context"

	"app/internal/domain/model"
)

type CartItemRepository interface {
	ListByCartID(ctx context.Context, cartID int64) ([]model.CartItem, error)
	// 同一商品は数量をプラス。ギフト系フラグは上書き。
	UpsertByCartAndProduct(ctx context.Context, cartID int64, item model.CartItem) error
	UpdateItem(ctx context.Context, cartItemID int64, qty int64, isGift bool, giftWrap bool, giftMessage string) error
	DeleteByID(ctx context.Context, cartItemID int64) error
	FindByID(ctx context.Context, cartItemID int64) (model.CartItem, error)
	IsOwnedByUser(ctx context.Context, cartItemID int64, userID int64) (bool, error)
}
