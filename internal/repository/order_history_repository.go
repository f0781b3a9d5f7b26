package repository

import (
	"context"

	"app/internal/domain/model"
)

// 追記のみ。更新・削除のメソッドは作らない。
type OrderHistoryRepository interface {
	Append(ctx context.Context, entry model.OrderStatusHistory) error
	ListByOrderID(ctx context.Context, orderID int64) ([]model.OrderStatusHistory, error)
}
