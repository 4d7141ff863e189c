package models

import (
	"time"

	"gorm.io/gorm"
)

// Invoice payment states
const (
	InvoiceUnpaid = "unpaid"
	InvoicePaid   = "paid"
)

// Invoice is the billable summary of a session's orders. The order set and
// total are a snapshot taken when the invoice is created: orders submitted
// afterwards are not retroactively included and require a new invoice.
// Once paid, an invoice is immutable.
type Invoice struct {
	ID            uint           `gorm:"primaryKey" json:"id"`
	SessionID     uint           `gorm:"not null;index" json:"session_id"`
	Session       TableSession   `gorm:"foreignKey:SessionID" json:"session,omitempty"`
	Orders        []Order        `gorm:"many2many:invoice_orders" json:"orders,omitempty"`
	TotalAmount   float64        `gorm:"not null;check:total_amount >= 0" json:"total_amount"`
	Tax           float64        `gorm:"not null;default:0;check:tax >= 0" json:"tax"`
	Discount      float64        `gorm:"not null;default:0;check:discount >= 0" json:"discount"`
	FinalAmount   float64        `gorm:"not null" json:"final_amount"`
	PaymentStatus string         `gorm:"not null;default:'unpaid'" json:"payment_status"` // unpaid, paid
	CreatedByID   uint           `gorm:"not null;index" json:"created_by_id"`
	CreatedBy     User           `gorm:"foreignKey:CreatedByID" json:"created_by,omitempty"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName specifies the table name for the Invoice model
func (Invoice) TableName() string {
	return "invoices"
}

// BeforeSave derives the final amount on every persist
func (i *Invoice) BeforeSave(tx *gorm.DB) error {
	i.FinalAmount = i.TotalAmount + i.Tax - i.Discount
	return nil
}
