package model

import "time"

type PaymentPurpose string

const (
	PaymentPurposeShopOrder PaymentPurpose = "SHOP_ORDER"
	PaymentPurposeCourseBuy PaymentPurpose = "COURSE_BUY"
)

type GatewayStatus string

const (
	GatewayStatusPending GatewayStatus = "PENDING"
	//ゲートウェイの表記そのまま（小文字）。
	GatewayStatusSuccess GatewayStatus = "success"
	GatewayStatusFailure GatewayStatus = "failure"
)

// 支払い試行1回につき1行。注文とは1:N（リトライで増える）。
// 状態とコールバックの生ペイロード以外は作成後に触らない。
type PaymentTx struct {
	ID      int64          `gorm:"primaryKey;autoIncrement" json:"id"`
	TxnID   string         `gorm:"type:varchar(100);uniqueIndex;not null" json:"txn_id"`
	Purpose PaymentPurpose `gorm:"type:varchar(20);not null" json:"purpose"`

	OrderID  *int64 `gorm:"index" json:"order_id"`
	CourseID *int64 `gorm:"index" json:"course_id"`
	UserID   int64  `gorm:"not null;index" json:"user_id"`

	Amount int64 `gorm:"not null" json:"amount"`

	GatewayStatus GatewayStatus `gorm:"type:varchar(20);not null;index" json:"gateway_status"`

	//コールバックで1度だけ書く。
	ProviderTxnID string `gorm:"type:varchar(100)" json:"provider_txn_id"`
	PaymentMode   string `gorm:"type:varchar(50)" json:"payment_mode"`
	RawPayload    string `gorm:"type:text" json:"-"`

	CreatedAt time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime" json:"updated_at"`
}
