package model

import (
	"time"

	"gorm.io/gorm"
)

type Course struct {
	ID          int64          `gorm:"primaryKey;autoIncrement" json:"id"`
	Title       string         `gorm:"type:varchar(255);not null" json:"title"`
	Description string         `gorm:"type:text" json:"description"`
	Price       int64          `gorm:"not null" json:"price"`
	IsActive    bool           `gorm:"not null;default:false" json:"is_active"`
	CreatedAt   time.Time      `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time      `gorm:"not null;autoUpdateTime" json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
}

// 講座のレッスン。IsFreePreviewは未購入でも視聴可。
type Lesson struct {
	ID            int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	CourseID      int64     `gorm:"not null;index" json:"course_id"`
	Title         string    `gorm:"type:varchar(255);not null" json:"title"`
	VideoURL      string    `gorm:"type:varchar(500)" json:"video_url"`
	DurationSec   int64     `gorm:"not null;default:0" json:"duration_sec"`
	IsFreePreview bool      `gorm:"not null;default:false" json:"is_free_preview"`
	Position      int64     `gorm:"not null;default:0" json:"position"`
	CreatedAt     time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
}
