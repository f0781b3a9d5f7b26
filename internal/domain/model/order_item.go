package model

import "time"

// 注文明細。価格は注文時点のスナップショット。
type OrderItem struct {
	ID                   int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	OrderID              int64     `gorm:"not null;index" json:"order_id"`
	ProductID            int64     `gorm:"not null;index" json:"product_id"`
	ProductNameSnapshot  string    `gorm:"type:varchar(255);not null" json:"product_name_snapshot"`
	UnitPriceSnapshot    int64     `gorm:"not null" json:"unit_price_snapshot"`
	MRPSnapshot          int64     `gorm:"column:mrp_snapshot;not null" json:"mrp_snapshot"`
	ImageURLSnapshot     string    `gorm:"type:varchar(500)" json:"image_url_snapshot"`
	CategoryNameSnapshot string    `gorm:"type:varchar(255)" json:"category_name_snapshot"`
	Quantity             int64     `gorm:"not null" json:"quantity"`
	IsGift               bool      `gorm:"not null;default:false" json:"is_gift"`
	GiftWrap             bool      `gorm:"not null;default:false" json:"gift_wrap"`
	GiftWrapUnitPrice    int64     `gorm:"not null;default:0" json:"gift_wrap_unit_price"`
	GiftMessage          string    `gorm:"type:varchar(500)" json:"gift_message"`
	CreatedAt            time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
}
