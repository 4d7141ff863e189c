package models

import (
	"time"

	"gorm.io/gorm"
)

// Payment methods
const (
	PaymentCash = "cash"
	PaymentCard = "card"
	PaymentQR   = "qr"
)

// ValidPaymentMethods is the closed set of accepted payment methods
var ValidPaymentMethods = map[string]bool{
	PaymentCash: true,
	PaymentCard: true,
	PaymentQR:   true,
}

// Payment records funds received against one invoice. Exactly one payment
// is ever created per invoice, and only while the invoice is unpaid.
type Payment struct {
	ID            uint           `gorm:"primaryKey" json:"id"`
	InvoiceID     uint           `gorm:"not null;index" json:"invoice_id"`
	Invoice       Invoice        `gorm:"foreignKey:InvoiceID" json:"invoice,omitempty"`
	Method        string         `gorm:"not null" json:"method"` // cash, card, qr
	Amount        float64        `gorm:"not null;check:amount >= 0" json:"amount"`
	ProcessedByID uint           `gorm:"not null;index" json:"processed_by_id"`
	ProcessedBy   User           `gorm:"foreignKey:ProcessedByID" json:"processed_by,omitempty"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName specifies the table name for the Payment model
func (Payment) TableName() string {
	return "payments"
}
