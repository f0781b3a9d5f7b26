package model

import "time"

// 支払いステータスと配送ステータスは別軸。
// キャンセルだけは両軸に効く（order_usecase参照）。
type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "PENDING"
	PaymentStatusPaid      PaymentStatus = "PAID"
	PaymentStatusFailed    PaymentStatus = "FAILED"
	PaymentStatusCancelled PaymentStatus = "CANCELLED"
)

type FulfilmentStatus string

const (
	FulfilmentStatusPlaced    FulfilmentStatus = "PLACED"
	FulfilmentStatusConfirmed FulfilmentStatus = "CONFIRMED"
	FulfilmentStatusShipped   FulfilmentStatus = "SHIPPED"
	FulfilmentStatusDelivered FulfilmentStatus = "DELIVERED"
	FulfilmentStatusCancelled FulfilmentStatus = "CANCELLED"
)

type PaymentMethod string

const (
	PaymentMethodCOD           PaymentMethod = "COD"
	PaymentMethodOnlinePending PaymentMethod = "ONLINE_PENDING"
	PaymentMethodOnline        PaymentMethod = "ONLINE"
)

// 注文に焼き込む配送先スナップショット。
type ShippingAddress struct {
	Name       string `gorm:"type:varchar(255)" json:"name"`
	Phone      string `gorm:"type:varchar(30)" json:"phone"`
	Email      string `gorm:"type:varchar(255)" json:"email"`
	Line1      string `gorm:"type:varchar(255)" json:"line1"`
	Line2      string `gorm:"type:varchar(255)" json:"line2"`
	City       string `gorm:"type:varchar(255)" json:"city"`
	State      string `gorm:"type:varchar(100)" json:"state"`
	PostalCode string `gorm:"type:varchar(20)" json:"postal_code"`
}

// チェックアウト時点のスナップショット。作成後は金額・明細を変更しない。
type Order struct {
	ID               int64            `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID           int64            `gorm:"not null;index" json:"user_id"`
	PaymentStatus    PaymentStatus    `gorm:"type:varchar(20);not null;index" json:"payment_status"`
	FulfilmentStatus FulfilmentStatus `gorm:"type:varchar(20);not null;index" json:"fulfilment_status"`

	Subtotal      int64 `gorm:"not null" json:"subtotal"`
	Discount      int64 `gorm:"not null;default:0" json:"discount"`
	ShippingFee   int64 `gorm:"not null;default:0" json:"shipping_fee"`
	GiftWrapTotal int64 `gorm:"not null;default:0" json:"gift_wrap_total"`
	TotalPrice    int64 `gorm:"not null" json:"total_price"`

	PaymentMethod   PaymentMethod `gorm:"type:varchar(20);not null" json:"payment_method"`
	PaymentProvider string        `gorm:"type:varchar(50)" json:"payment_provider"`
	PaymentTxnID    string        `gorm:"type:varchar(100);index" json:"payment_txn_id"`
	PaidAt          *time.Time    `json:"paid_at"`

	ShippingAddress ShippingAddress `gorm:"embedded;embeddedPrefix:ship_" json:"shipping_address"`
	Notes           string          `gorm:"type:varchar(1000)" json:"notes"`

	Courier     string `gorm:"type:varchar(100)" json:"courier"`
	TrackingID  string `gorm:"type:varchar(100)" json:"tracking_id"`
	TrackingURL string `gorm:"type:varchar(500)" json:"tracking_url"`

	CreatedAt time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime" json:"updated_at"`
}
