package model

import "time"

type OrderAction string

const (
	OrderActionCreated         OrderAction = "ORDER_CREATED"
	OrderActionPaymentSuccess  OrderAction = "PAYMENT_SUCCESS"
	OrderActionPaymentFailed   OrderAction = "PAYMENT_FAILED"
	OrderActionStatusUpdated   OrderAction = "STATUS_UPDATED"
	OrderActionTrackingUpdated OrderAction = "TRACKING_UPDATED"
)

// 注文の監査証跡。追記のみで、更新・並べ替えは禁止。
type OrderStatusHistory struct {
	ID      int64 `gorm:"primaryKey;autoIncrement" json:"id"`
	OrderID int64 `gorm:"not null;index" json:"order_id"`

	//操作したユーザー（本人・管理者・コールバック処理）のID。0はシステム。
	ActorUserID int64 `gorm:"not null" json:"actor_user_id"`

	Action OrderAction `gorm:"type:varchar(50);not null" json:"action"`

	//遷移後のステータスのスナップショット。
	PaymentStatus    PaymentStatus    `gorm:"type:varchar(20);not null" json:"payment_status"`
	FulfilmentStatus FulfilmentStatus `gorm:"type:varchar(20);not null" json:"fulfilment_status"`

	Note      string    `gorm:"type:varchar(1000)" json:"note"`
	CreatedAt time.Time `gorm:"not null;index" json:"created_at"`
}
