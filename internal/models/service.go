package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// ServiceType mirrors the order-form variants a service can require.
type ServiceType string

const (
	ServiceDefault        ServiceType = "DEFAULT"
	ServiceCustomComments ServiceType = "CUSTOM_COMMENTS"
	ServiceMentions       ServiceType = "MENTIONS"
	ServicePackage        ServiceType = "PACKAGE"
	ServiceSubscriptions  ServiceType = "SUBSCRIPTIONS"
)

// Service maps to the `services` table. The three price points are per 1000
// units: PriceAPI is what the upstream provider charges, PriceSale what a
// member pays, PriceReseller what reseller-tier users pay.
type Service struct {
	ID           uint            `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	CategoryID   uint            `gorm:"column:category_id;index" json:"category_id"`
	Name         string          `gorm:"column:name;size:300" json:"name"`
	Type         ServiceType     `gorm:"column:type;size:30;default:'DEFAULT'" json:"type"`
	Min          int             `gorm:"column:min" json:"min"`
	Max          int             `gorm:"column:max" json:"max"`
	PriceAPI     decimal.Decimal `gorm:"column:price_api;type:decimal(18,4)" json:"price_api"`
	PriceSale    decimal.Decimal `gorm:"column:price_sale;type:decimal(18,4)" json:"price_sale"`
	PriceRes     decimal.Decimal `gorm:"column:price_reseller;type:decimal(18,4)" json:"price_reseller"`
	Refill       bool            `gorm:"column:refill;default:false" json:"refill"`
	Active       bool            `gorm:"column:active;default:true" json:"active"`
	ProviderID   *uint           `gorm:"column:provider_id" json:"provider_id"`
	ProviderSID  string          `gorm:"column:provider_sid;size:50" json:"provider_sid"`
	CreatedAt    time.Time       `gorm:"column:created_at" json:"created_at"`
	UpdatedAt    time.Time       `gorm:"column:updated_at" json:"updated_at"`
}

func (Service) TableName() string {
	return "services"
}

// PriceFor returns the per-1000 price for the given role.
func (s *Service) PriceFor(role UserRole) decimal.Decimal {
	if role.ResellerPricing() {
		return s.PriceRes
	}
	return s.PriceSale
}

// Dispatchable reports whether orders for this service are forwarded to an
// upstream provider.
func (s *Service) Dispatchable() bool {
	return s.ProviderID != nil && s.ProviderSID != ""
}

// Category maps to the `categories` table.
type Category struct {
	ID     uint   `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	Name   string `gorm:"column:name;size:300" json:"name"`
	Active bool   `gorm:"column:active;default:true" json:"active"`
}

func (Category) TableName() string {
	return "categories"
}

// Provider maps to the `providers` table: an upstream SMM panel that fulfills
// dispatched orders.
type Provider struct {
	ID     uint   `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	Name   string `gorm:"column:name;size:200" json:"name"`
	APIURL string `gorm:"column:api_url;size:500" json:"api_url"`
	APIKey string `gorm:"column:api_key;size:200" json:"-"`
	Active bool   `gorm:"column:active;default:true" json:"active"`
}

func (Provider) TableName() string {
	return "providers"
}
