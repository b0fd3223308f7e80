package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderStatus is the unified order vocabulary. The source mixed COMPLETED and
// SUCCESS for the same terminal state; SUCCESS is folded into COMPLETED here.
type OrderStatus string

const (
	OrderPending    OrderStatus = "PENDING"
	OrderProcessing OrderStatus = "PROCESSING"
	OrderCompleted  OrderStatus = "COMPLETED"
	OrderPartial    OrderStatus = "PARTIAL"
	OrderCanceled   OrderStatus = "CANCELED"
	OrderError      OrderStatus = "ERROR"
)

// Terminal reports whether the status is final; terminal orders are never
// touched by the sync cron.
func (s OrderStatus) Terminal() bool {
	switch s {
	case OrderCompleted, OrderPartial, OrderCanceled, OrderError:
		return true
	}
	return false
}

// Order maps to the `orders` table. The three price columns are snapshots
// copied from the service at placement time so later price edits don't alter
// order history. Charge is the amount actually debited from the user.
type Order struct {
	ID         uint            `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	Invoice    string          `gorm:"column:invoice;size:30;uniqueIndex" json:"invoice"`
	UserID     uint            `gorm:"column:user_id;index" json:"user_id"`
	ServiceID  uint            `gorm:"column:service_id;index" json:"service_id"`
	ProviderID *uint           `gorm:"column:provider_id" json:"provider_id"`
	PID        string          `gorm:"column:pid;size:50;index" json:"pid"`
	Link       string          `gorm:"column:link;size:1000" json:"link"`
	Quantity   int             `gorm:"column:quantity" json:"quantity"`
	Comments   string          `gorm:"column:comments;type:text" json:"comments"`
	PriceAPI   decimal.Decimal `gorm:"column:price_api;type:decimal(18,4)" json:"price_api"`
	PriceSale  decimal.Decimal `gorm:"column:price_sale;type:decimal(18,4)" json:"price_sale"`
	PriceRes   decimal.Decimal `gorm:"column:price_reseller;type:decimal(18,4)" json:"price_reseller"`
	Charge     decimal.Decimal `gorm:"column:charge;type:decimal(18,4)" json:"charge"`
	Status     OrderStatus     `gorm:"column:status;size:20;default:'PENDING'" json:"status"`
	Refill     bool            `gorm:"column:refill;default:false" json:"refill"`
	Runs       int             `gorm:"column:runs;default:0" json:"runs"`
	Interval   int             `gorm:"column:run_interval;default:0" json:"interval"`
	StartCount int             `gorm:"column:start_count;default:0" json:"start_count"`
	Remains    int             `gorm:"column:remains;default:0" json:"remains"`
	CreatedAt  time.Time       `gorm:"column:created_at" json:"created_at"`
	UpdatedAt  time.Time       `gorm:"column:updated_at" json:"updated_at"`
}

func (Order) TableName() string {
	return "orders"
}
