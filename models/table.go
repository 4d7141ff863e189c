package models

import (
	"time"

	"gorm.io/gorm"
)

// Table occupancy states
const (
	TableFree     = "free"
	TableOccupied = "occupied"
)

// Table represents a physical dining table with occupancy status.
// Status is mutated only through the session lifecycle: opening a session
// marks the table occupied, closing it frees the table again.
type Table struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	TableNumber int            `gorm:"uniqueIndex;not null;check:table_number >= 1" json:"table_number"`
	Status      string         `gorm:"not null;default:'free'" json:"status"` // free, occupied
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName specifies the table name for the Table model
func (Table) TableName() string {
	return "tables"
}
