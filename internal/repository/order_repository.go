package repository

import (
	"context"
	"time"

	"app/internal/domain/model"
)

type AdminOrderListFilter struct {
	Page             int
	Limit            int
	PaymentStatus    string
	FulfilmentStatus string
	UserID           *int64
	From             *time.Time
	To               *time.Time
}

type OrderRepository interface {
	FindByID(ctx context.Context, orderID int64) (model.Order, error)
	ListByUserID(ctx context.Context, userID int64, page int, limit int) ([]model.Order, int64, error)
	Create(ctx context.Context, order model.Order) (int64, error)

	//ステータス・支払い情報・追跡情報をまとめて保存（明細と金額は不変）
	Update(ctx context.Context, order model.Order) error

	//管理者用の注文一覧
	ListAdmin(ctx context.Context, f AdminOrderListFilter) ([]model.Order, int64, error)
}
