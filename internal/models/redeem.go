package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// RedeemCode maps to the `redeem_codes` table. Quota is the maximum number of
// successful claims across all users; Used counts consumed claims.
type RedeemCode struct {
	ID        uint            `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	Code      string          `gorm:"column:code;size:100;uniqueIndex" json:"code"`
	Amount    decimal.Decimal `gorm:"column:amount;type:decimal(18,4)" json:"amount"`
	Quota     int             `gorm:"column:quota" json:"quota"`
	Used      int             `gorm:"column:used;default:0" json:"used"`
	ExpiresAt *time.Time      `gorm:"column:expires_at" json:"expires_at"`
	CreatedAt time.Time       `gorm:"column:created_at" json:"created_at"`
}

func (RedeemCode) TableName() string {
	return "redeem_codes"
}

// Expired reports whether the code is past its expiry, if one is set.
func (r *RedeemCode) Expired(now time.Time) bool {
	return r.ExpiresAt != nil && now.After(*r.ExpiresAt)
}

// RedeemUsed maps to the `redeem_used` table. The composite unique index makes
// a second claim by the same user fail at the database even under races.
type RedeemUsed struct {
	ID        uint      `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	CodeID    uint      `gorm:"column:code_id;uniqueIndex:idx_redeem_user_code" json:"code_id"`
	UserID    uint      `gorm:"column:user_id;uniqueIndex:idx_redeem_user_code" json:"user_id"`
	CreatedAt time.Time `gorm:"column:created_at" json:"created_at"`
}

func (RedeemUsed) TableName() string {
	return "redeem_used"
}
