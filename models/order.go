package models

import (
	"time"

	"gorm.io/gorm"
)

// Order workflow states
const (
	OrderPending   = "pending"
	OrderPreparing = "preparing"
	OrderReady     = "ready"
	OrderServed    = "served"
)

// Order is one kitchen ticket: a batch of line items submitted together
// under an open table session.
type Order struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	SessionID   uint           `gorm:"not null;index:idx_orders_session_created" json:"session_id"`
	Session     TableSession   `gorm:"foreignKey:SessionID" json:"session,omitempty"`
	Items       []OrderItem    `gorm:"foreignKey:OrderID" json:"items"`
	Status      string         `gorm:"not null;default:'pending';index" json:"status"` // pending, preparing, ready, served
	TotalAmount float64        `gorm:"not null;default:0" json:"total_amount"`
	CreatedByID uint           `gorm:"not null;index" json:"created_by_id"`
	CreatedBy   User           `gorm:"foreignKey:CreatedByID" json:"created_by,omitempty"`
	CreatedAt   time.Time      `gorm:"index:idx_orders_session_created" json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
}

// OrderItem is a single line of an order. Name and price are captured from
// the menu item at submission time, so later menu edits never change an
// existing order.
type OrderItem struct {
	ID         uint     `gorm:"primaryKey" json:"id"`
	OrderID    uint     `gorm:"not null;index" json:"order_id"`
	MenuItemID uint     `gorm:"not null" json:"menu_item_id"`
	Name       string   `gorm:"not null" json:"name"`
	Qty        int      `gorm:"not null;check:qty >= 1" json:"qty"`
	Price      float64  `gorm:"not null;check:price >= 0" json:"price"`
}

// TableName specifies the table name for the Order model
func (Order) TableName() string {
	return "orders"
}

// TableName specifies the table name for the OrderItem model
func (OrderItem) TableName() string {
	return "order_items"
}

// BeforeSave recomputes the order total from its line items whenever the
// order is persisted with items attached. The total is never accepted from
// the caller.
func (o *Order) BeforeSave(tx *gorm.DB) error {
	if len(o.Items) == 0 {
		return nil
	}
	total := 0.0
	for _, item := range o.Items {
		total += float64(item.Qty) * item.Price
	}
	o.TotalAmount = total
	return nil
}
