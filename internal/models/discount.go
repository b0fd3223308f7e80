package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// DiscountKind selects how a voucher reduces a transaction total.
type DiscountKind string

const (
	DiscountPercent DiscountKind = "PERCENT"
	DiscountFixed   DiscountKind = "FIXED"
)

// Discount maps to the `discounts` table: a voucher applied at order placement.
type Discount struct {
	ID        uint            `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	Code      string          `gorm:"column:code;size:100;uniqueIndex" json:"code"`
	Kind      DiscountKind    `gorm:"column:kind;size:20;default:'PERCENT'" json:"kind"`
	Amount    decimal.Decimal `gorm:"column:amount;type:decimal(18,4)" json:"amount"`
	MinTotal  decimal.Decimal `gorm:"column:min_total;type:decimal(18,4);default:0" json:"min_total"`
	MaxTotal  decimal.Decimal `gorm:"column:max_total;type:decimal(18,4);default:0" json:"max_total"`
	UsageCap  int             `gorm:"column:usage_cap;default:0" json:"usage_cap"`
	Used      int             `gorm:"column:used;default:0" json:"used"`
	ExpiresAt *time.Time      `gorm:"column:expires_at" json:"expires_at"`
	CreatedAt time.Time       `gorm:"column:created_at" json:"created_at"`
}

func (Discount) TableName() string {
	return "discounts"
}

// Expired reports whether the voucher is past its expiry, if one is set.
func (d *Discount) Expired(now time.Time) bool {
	return d.ExpiresAt != nil && now.After(*d.ExpiresAt)
}

// Exhausted reports whether the voucher's usage cap is consumed.
func (d *Discount) Exhausted() bool {
	return d.UsageCap > 0 && d.Used >= d.UsageCap
}

// Apply returns the total after the voucher. Percent vouchers reduce by
// amount%, fixed vouchers subtract amount; the result never goes below zero.
func (d *Discount) Apply(total decimal.Decimal) decimal.Decimal {
	var reduced decimal.Decimal
	switch d.Kind {
	case DiscountFixed:
		reduced = total.Sub(d.Amount)
	default:
		hundred := decimal.NewFromInt(100)
		reduced = total.Sub(total.Mul(d.Amount).Div(hundred))
	}
	if reduced.IsNegative() {
		return decimal.Zero
	}
	return reduced
}
