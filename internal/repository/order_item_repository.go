package repository

import (
	"context"

	"app/internal/domain/model"
)

// 明細は確定時に一括で書く。行の後からの編集はない。
type OrderItemRepository interface {
	CreateBulk(ctx context.Context, orderID int64, items []model.OrderItem) error
	ListByOrderID(ctx context.Context, orderID int64) ([]model.OrderItem, error)
}
