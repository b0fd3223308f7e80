package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// UserRole determines which price point a user pays for a service.
type UserRole string

const (
	RoleMember   UserRole = "MEMBER"
	RoleReseller UserRole = "RESELLER"
	RoleStaff    UserRole = "STAFF"
	RoleAdmin    UserRole = "ADMIN"
)

// ResellerPricing reports whether the role is charged the reseller price
// instead of the standard sale price.
func (r UserRole) ResellerPricing() bool {
	switch r {
	case RoleReseller, RoleStaff, RoleAdmin:
		return true
	}
	return false
}

// UserStatus gates login and API access.
type UserStatus string

const (
	UserActive    UserStatus = "ACTIVE"
	UserSuspended UserStatus = "SUSPENDED"
)

// User maps to the `users` table. Balance is a fixed-point decimal and is
// mutated only through the repository's locked credit/debit helpers inside a
// transaction, never assigned directly by handlers.
type User struct {
	ID        uint            `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	Username  string          `gorm:"column:username;size:100;uniqueIndex" json:"username"`
	Role      UserRole        `gorm:"column:role;size:20;default:'MEMBER'" json:"role"`
	Balance   decimal.Decimal `gorm:"column:balance;type:decimal(18,4);default:0" json:"balance"`
	Status    UserStatus      `gorm:"column:status;size:20;default:'ACTIVE'" json:"status"`
	APIKey    string          `gorm:"column:api_key;size:64;uniqueIndex" json:"-"`
	CreatedAt time.Time       `gorm:"column:created_at" json:"created_at"`
	UpdatedAt time.Time       `gorm:"column:updated_at" json:"updated_at"`
}

func (User) TableName() string {
	return "users"
}
