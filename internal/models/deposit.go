package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// DepositStatus has exactly one non-terminal member. PAYMENT is the credited
// success state; CANCELED is a gateway-reported cancellation; ERROR is a
// lookup failure (e.g. the gateway no longer knows the transaction). The two
// failure states stay distinct on purpose.
type DepositStatus string

const (
	DepositPending  DepositStatus = "PENDING"
	DepositPayment  DepositStatus = "PAYMENT"
	DepositCanceled DepositStatus = "CANCELED"
	DepositError    DepositStatus = "ERROR"
)

// Terminal reports whether the status is final. A deposit transitions out of
// PENDING at most once; the transition that lands on PAYMENT credits the user.
func (s DepositStatus) Terminal() bool {
	return s != DepositPending && s != ""
}

// DepositDetail replaces the source's opaque detail_transaction blob with a
// tagged union keyed by the gateway provider. Only the fields for the tagged
// provider are populated.
type DepositDetail struct {
	Provider  GatewayProvider `json:"provider"`
	GatewayID uint            `json:"gateway_id"`

	// CRYPTOPAY
	TrackUUID string `json:"track_uuid,omitempty"`

	// PAYPAL
	PayPalOrderID string `json:"paypal_order_id,omitempty"`
}

func (d DepositDetail) Value() (driver.Value, error) {
	b, err := json.Marshal(d)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (d *DepositDetail) Scan(src interface{}) error {
	switch v := src.(type) {
	case []byte:
		return json.Unmarshal(v, d)
	case string:
		return json.Unmarshal([]byte(v), d)
	case nil:
		*d = DepositDetail{}
		return nil
	default:
		return fmt.Errorf("unsupported deposit detail type %T", src)
	}
}

// Reference returns the gateway-side transaction identifier for the tagged
// provider.
func (d DepositDetail) Reference() string {
	switch d.Provider {
	case GatewayCryptoPay:
		return d.TrackUUID
	case GatewayPayPal:
		return d.PayPalOrderID
	}
	return ""
}

// Deposit maps to the `deposits` table. Provider and TxRef mirror the detail
// union into indexable columns; the composite unique index holds at most one
// deposit per gateway transaction, so one real payment can never back two
// credited rows.
type Deposit struct {
	ID        uint            `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	UserID    uint            `gorm:"column:user_id;index" json:"user_id"`
	Amount    decimal.Decimal `gorm:"column:amount;type:decimal(18,4)" json:"amount"`
	Status    DepositStatus   `gorm:"column:status;size:20;default:'PENDING'" json:"status"`
	Provider  GatewayProvider `gorm:"column:provider;size:30;uniqueIndex:idx_deposit_txn" json:"provider"`
	TxRef     string          `gorm:"column:tx_ref;size:100;uniqueIndex:idx_deposit_txn" json:"tx_ref"`
	Detail    DepositDetail   `gorm:"column:detail;type:text" json:"detail"`
	CreatedAt time.Time       `gorm:"column:created_at" json:"created_at"`
	UpdatedAt time.Time       `gorm:"column:updated_at" json:"updated_at"`
}

func (Deposit) TableName() string {
	return "deposits"
}
