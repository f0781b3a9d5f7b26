package model

import "time"

type EnrollmentStatus string

const (
	EnrollmentStatusActive  EnrollmentStatus = "ACTIVE"
	EnrollmentStatusExpired EnrollmentStatus = "EXPIRED"
)

// (user_id, course_id) で一意。再購入はupsertで同じ行を上書きする。
type CourseEnrollment struct {
	ID       int64            `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID   int64            `gorm:"not null;uniqueIndex:uniq_user_course" json:"user_id"`
	CourseID int64            `gorm:"not null;uniqueIndex:uniq_user_course" json:"course_id"`
	Status   EnrollmentStatus `gorm:"type:varchar(20);not null" json:"status"`

	PurchasedAt time.Time `gorm:"not null" json:"purchased_at"`
	ExpiresAt   time.Time `gorm:"not null;index" json:"expires_at"`

	//支払いサマリ（無料付与のときは空）。
	AmountPaid      int64  `gorm:"not null;default:0" json:"amount_paid"`
	PaymentTxnID    string `gorm:"type:varchar(100)" json:"payment_txn_id"`
	PaymentProvider string `gorm:"type:varchar(50)" json:"payment_provider"`

	CreatedAt time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime" json:"updated_at"`
}
