package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// GatewayProvider identifies a payment gateway protocol.
type GatewayProvider string

const (
	GatewayCryptoPay GatewayProvider = "CRYPTOPAY"
	GatewayPayPal    GatewayProvider = "PAYPAL"
)

// GatewayConfig is the tagged union stored in payment_gateways.api_config.
// Exactly one of the per-provider sections is populated, matching Provider.
type GatewayConfig struct {
	Provider GatewayProvider `json:"provider"`

	CryptoPay *CryptoPayConfig `json:"cryptopay,omitempty"`
	PayPal    *PayPalConfig    `json:"paypal,omitempty"`
}

// CryptoPayConfig holds credentials for the signed-status-poll crypto gateway.
type CryptoPayConfig struct {
	MerchantID string `json:"merchant_id"`
	APIKey     string `json:"api_key"`
	BaseURL    string `json:"base_url,omitempty"`
}

// PayPalConfig holds credentials for the PayPal-style order API.
type PayPalConfig struct {
	ClientID string `json:"client_id"`
	Secret   string `json:"secret"`
	BaseURL  string `json:"base_url,omitempty"`
}

func (c GatewayConfig) Value() (driver.Value, error) {
	b, err := json.Marshal(c)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (c *GatewayConfig) Scan(src interface{}) error {
	switch v := src.(type) {
	case []byte:
		return json.Unmarshal(v, c)
	case string:
		return json.Unmarshal([]byte(v), c)
	case nil:
		*c = GatewayConfig{}
		return nil
	default:
		return fmt.Errorf("unsupported gateway config type %T", src)
	}
}

// PaymentGateway maps to the `payment_gateways` table.
type PaymentGateway struct {
	ID       uint            `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	Name     string          `gorm:"column:name;size:200" json:"name"`
	Provider GatewayProvider `gorm:"column:provider;size:30" json:"provider"`
	Config   GatewayConfig   `gorm:"column:api_config;type:text" json:"-"`
	Active   bool            `gorm:"column:active;default:true" json:"active"`
}

func (PaymentGateway) TableName() string {
	return "payment_gateways"
}
