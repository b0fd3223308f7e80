package order

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"smmpanel/internal/config"
	"smmpanel/internal/models"
	"smmpanel/internal/notify"
	"smmpanel/internal/provider"
	"smmpanel/internal/repository"
)

var (
	// ErrServiceNotFound is returned for unknown or inactive services.
	ErrServiceNotFound = errors.New("service not found")
	// ErrInvalidDiscount is returned when a supplied voucher code cannot be
	// applied (unknown, expired, exhausted, or out of its amount bounds).
	ErrInvalidDiscount = errors.New("invalid discount code")
	// ErrNoComments is returned for comment-type services without comments.
	ErrNoComments = errors.New("comments required for this service")
)

// ErrQuantityOutOfRange reports a quantity outside the service bounds.
type ErrQuantityOutOfRange struct {
	Quantity, Min, Max int
}

func (e *ErrQuantityOutOfRange) Error() string {
	return fmt.Sprintf("quantity %d outside allowed range [%d, %d]", e.Quantity, e.Min, e.Max)
}

// PlaceRequest carries one order placement.
type PlaceRequest struct {
	UserID    uint
	ServiceID uint
	Link      string
	Quantity  int
	// Comments is the newline-delimited custom comment list; for
	// CUSTOM_COMMENTS services its line count becomes the quantity.
	Comments string
	Runs     int
	Interval int
	// DiscountCode optionally applies a voucher to the total.
	DiscountCode string
	// Dispatch enables upstream forwarding for provider-bound services. The
	// API passthrough add path places orders without dispatching.
	Dispatch bool
}

// Repos bundles the repositories the placement flow needs.
type Repos struct {
	Users     *repository.UserRepository
	Services  *repository.ServiceRepository
	Orders    *repository.OrderRepository
	Providers *repository.ProviderRepository
	Discounts *repository.DiscountRepository
}

// Service implements the order placement flow: bounds validation, role-based
// pricing, provider dispatch, and the atomic order-insert + balance-debit.
type Service struct {
	db       *gorm.DB
	repos    *Repos
	upstream provider.Client
	cfg      config.OrderConfig
	notifier notify.Publisher
	logger   *zap.Logger
}

func NewService(db *gorm.DB, repos *Repos, upstream provider.Client, cfg config.OrderConfig, notifier notify.Publisher, logger *zap.Logger) *Service {
	return &Service{
		db:       db,
		repos:    repos,
		upstream: upstream,
		cfg:      cfg,
		notifier: notifier,
		logger:   logger,
	}
}

// Place validates the request, computes the charge, optionally dispatches
// upstream, then inserts the order and debits the balance in one transaction.
func (s *Service) Place(req PlaceRequest) (*models.Order, error) {
	user, err := s.repos.Users.FindByID(req.UserID)
	if err != nil {
		return nil, err
	}

	svc, err := s.repos.Services.FindByID(req.ServiceID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrServiceNotFound
		}
		return nil, err
	}
	if !svc.Active {
		return nil, ErrServiceNotFound
	}

	quantity := req.Quantity
	comments := strings.TrimSpace(req.Comments)
	if svc.Type == models.ServiceCustomComments {
		if comments == "" {
			return nil, ErrNoComments
		}
		quantity = countLines(comments)
	}
	if quantity < svc.Min || quantity > svc.Max {
		return nil, &ErrQuantityOutOfRange{Quantity: quantity, Min: svc.Min, Max: svc.Max}
	}

	// total = price_per_1000 / 1000 * quantity, decimal all the way.
	price := svc.PriceFor(user.Role)
	total := price.Mul(decimal.NewFromInt(int64(quantity))).Div(decimal.NewFromInt(1000))

	var discount *models.Discount
	if req.DiscountCode != "" {
		discount, err = s.validDiscount(req.DiscountCode, total)
		if err != nil {
			return nil, err
		}
		total = discount.Apply(total)
	}

	order := &models.Order{
		UserID:    user.ID,
		ServiceID: svc.ID,
		Link:      req.Link,
		Quantity:  quantity,
		Comments:  comments,
		PriceAPI:  svc.PriceAPI,
		PriceSale: svc.PriceSale,
		PriceRes:  svc.PriceRes,
		Charge:    total,
		Status:    models.OrderPending,
		Refill:    svc.Refill,
		Runs:      req.Runs,
		Interval:  req.Interval,
		Remains:   quantity,
	}

	// Unfundable orders must never reach the provider; the locked re-check
	// inside the transaction below stays authoritative.
	if user.Balance.LessThan(total) {
		return nil, &repository.ErrInsufficientBalance{Required: total, Current: user.Balance}
	}

	if req.Dispatch && svc.Dispatchable() {
		if err := s.dispatch(order, svc); err != nil {
			return nil, err
		}
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := s.repos.Users.Debit(tx, user.ID, total); err != nil {
			return err
		}
		if discount != nil {
			if err := s.repos.Discounts.MarkUsedTx(tx, discount.ID); err != nil {
				return err
			}
		}
		return s.insertWithInvoice(tx, order)
	})
	if err != nil {
		if order.PID != "" {
			// Dispatched upstream but not persisted locally; needs operator
			// attention, the provider side cannot be rolled back from here.
			s.logger.Error("order dispatched but not persisted",
				zap.String("pid", order.PID), zap.Uint("user_id", user.ID), zap.Error(err))
		}
		return nil, err
	}

	s.notifier.Publish(notify.Event{
		Kind:    notify.EventOrderPlaced,
		UserID:  user.ID,
		Amount:  total,
		Message: fmt.Sprintf("order %s (service %d, qty %d)", order.Invoice, svc.ID, quantity),
	})
	return order, nil
}

// dispatch forwards the order upstream. A rejection reported by the provider
// always fails the placement with the provider's message; a transport failure
// follows the configured policy.
func (s *Service) dispatch(order *models.Order, svc *models.Service) error {
	prov, err := s.repos.Providers.FindByID(*svc.ProviderID)
	if err != nil {
		return fmt.Errorf("provider lookup failed: %w", err)
	}

	pid, err := s.upstream.Add(prov, provider.AddRequest{
		ServiceSID: svc.ProviderSID,
		Link:       order.Link,
		Quantity:   order.Quantity,
		Comments:   order.Comments,
		Runs:       order.Runs,
		Interval:   order.Interval,
	})
	if err != nil {
		var provErr *provider.Error
		if errors.As(err, &provErr) {
			return provErr
		}
		if s.cfg.DispatchPolicy == config.DispatchAccept {
			s.logger.Warn("provider dispatch failed, accepting order as pending",
				zap.Uint("provider_id", prov.ID), zap.Error(err))
			return nil
		}
		return fmt.Errorf("provider dispatch failed: %w", err)
	}

	order.ProviderID = &prov.ID
	order.PID = pid
	order.Status = models.OrderProcessing
	return nil
}

// insertWithInvoice inserts the order, regenerating the invoice number on a
// duplicate-key collision. Three attempts; the 5-digit random suffix makes a
// third collision within one day vanishingly unlikely.
func (s *Service) insertWithInvoice(tx *gorm.DB, order *models.Order) error {
	var err error
	for attempt := 0; attempt < 3; attempt++ {
		order.Invoice = NewInvoice(s.cfg.InvoicePrefix, time.Now())
		err = s.repos.Orders.CreateTx(tx, order)
		if err == nil || !repository.IsDuplicateKey(err) {
			return err
		}
		order.ID = 0
	}
	return fmt.Errorf("invoice generation exhausted retries: %w", err)
}

func (s *Service) validDiscount(code string, total decimal.Decimal) (*models.Discount, error) {
	d, err := s.repos.Discounts.FindByCode(code)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidDiscount
		}
		return nil, err
	}
	if d.Expired(time.Now()) || d.Exhausted() {
		return nil, ErrInvalidDiscount
	}
	if total.LessThan(d.MinTotal) {
		return nil, ErrInvalidDiscount
	}
	if d.MaxTotal.IsPositive() && total.GreaterThan(d.MaxTotal) {
		return nil, ErrInvalidDiscount
	}
	return d, nil
}

func countLines(text string) int {
	count := 0
	for _, line := range strings.Split(text, "\n") {
		if strings.TrimSpace(line) != "" {
			count++
		}
	}
	return count
}
