package model

import "time"

type Role string

const (
	RoleUser  Role = "USER"
	RoleAdmin Role = "ADMIN"
)

// OTP認証で作られるユーザー。
// ログインに使ったidentifierをチャネルごとの列に入れる。
// Phoneは正規化済み（数字のみ・下10桁）。どちらの列も空でなければ一意。
type User struct {
	ID          int64  `gorm:"primaryKey;autoIncrement" json:"id"`
	Phone       string `gorm:"type:varchar(20);not null;uniqueIndex:uniq_users_phone,where:phone <> ''" json:"phone"`
	Email       string `gorm:"type:varchar(255);uniqueIndex:uniq_users_email,where:email <> ''" json:"email"`
	Name        string `gorm:"type:varchar(255)" json:"name"`
	Role        Role   `gorm:"type:varchar(20);not null;default:'USER'" json:"role"`
	IsActive    bool   `gorm:"not null;default:true" json:"is_active"`
	LastLoginAt *time.Time `json:"last_login_at"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}
