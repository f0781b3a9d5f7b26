package model

import "time"

// カートの明細。
// 合計は都度再計算するので金額はここに持たない。
type CartItem struct {
	ID          int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	CartID      int64     `gorm:"not null;index" json:"cart_id"`
	ProductID   int64     `gorm:"not null;index" json:"product_id"`
	Quantity    int64     `gorm:"not null" json:"quantity"`
	IsGift      bool      `gorm:"not null;default:false" json:"is_gift"`
	GiftWrap    bool      `gorm:"not null;default:false" json:"gift_wrap"`
	GiftMessage string    `gorm:"type:varchar(500)" json:"gift_message"`
	CreatedAt   time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time `gorm:"not null;autoUpdateTime" json:"updated_at"`
}
