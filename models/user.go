package models

import (
	"time"

	"gorm.io/gorm"
)

// Staff roles. Every user holds exactly one role, which gates which
// operations and event groups they may use.
const (
	RoleAdmin   = "admin"
	RoleManager = "manager"
	RoleWaiter  = "waiter"
	RoleKitchen = "kitchen"
	RoleCashier = "cashier"
)

// ValidRoles is the closed set of roles accepted at registration
var ValidRoles = map[string]bool{
	RoleAdmin:   true,
	RoleManager: true,
	RoleWaiter:  true,
	RoleKitchen: true,
	RoleCashier: true,
}

// User represents a staff member (waiter, kitchen, cashier, manager or admin)
type User struct {
	ID           uint           `gorm:"primaryKey" json:"id"`
	Name         string         `gorm:"not null" json:"name"`
	Email        string         `gorm:"uniqueIndex;not null" json:"email"`
	PasswordHash string         `gorm:"not null" json:"-"` // bcrypt hash, never serialized
	Role         string         `gorm:"not null;default:'waiter'" json:"role"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName specifies the table name for the User model
func (User) TableName() string {
	return "users"
}
