package models

import (
	"time"

	"gorm.io/gorm"
)

// MenuItem is a catalog entry consumed by order validation as a
// price/availability lookup. Orders capture its name and price at
// submission time rather than referencing it live.
type MenuItem struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	Name        string         `gorm:"not null" json:"name"`
	Price       float64        `gorm:"not null;check:price >= 0" json:"price"`
	Category    string         `gorm:"not null;index" json:"category"`
	Available   bool           `gorm:"not null;default:true" json:"available"`
	Description string         `json:"description"`
	ImageS3Key  *string        `json:"image_s3_key"`                 // nullable, S3 key for uploaded image
	ImageURL    *string        `gorm:"-" json:"image_url,omitempty"` // computed field, presigned URL for image
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName specifies the table name for the MenuItem model
func (MenuItem) TableName() string {
	return "menu_items"
}
