package models

import (
	"time"

	"gorm.io/gorm"
)

// Session states
const (
	SessionOpen   = "open"
	SessionClosed = "closed"
)

// TableSession is one continuous period a table is in use, from opening to
// settlement. At most one open session may exist per table at any time;
// once closed a session is immutable and a new one must be opened instead.
type TableSession struct {
	ID         uint           `gorm:"primaryKey" json:"id"`
	TableID    uint           `gorm:"not null;index" json:"table_id"`
	Table      Table          `gorm:"foreignKey:TableID" json:"table,omitempty"`
	OpenedByID uint           `gorm:"not null;index" json:"opened_by_id"`
	OpenedBy   User           `gorm:"foreignKey:OpenedByID" json:"opened_by,omitempty"`
	StartTime  time.Time      `gorm:"not null" json:"start_time"`
	EndTime    *time.Time     `json:"end_time"`
	Status     string         `gorm:"not null;default:'open';index" json:"status"` // open, closed
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
	DeletedAt  gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName specifies the table name for the TableSession model
func (TableSession) TableName() string {
	return "table_sessions"
}
