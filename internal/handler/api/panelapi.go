package api

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"smmpanel/internal/models"
	"smmpanel/internal/order"
	"smmpanel/internal/repository"
)

// PanelHandler implements the external API passthrough: one endpoint that
// emulates the conventional SMM-panel API (key + action) over this panel's
// own data. The add path never dispatches upstream.
type PanelHandler struct {
	users    *repository.UserRepository
	services *repository.ServiceRepository
	orders   *repository.OrderRepository
	placer   *order.Service
	logger   *zap.Logger
}

func NewPanelHandler(users *repository.UserRepository, services *repository.ServiceRepository, orders *repository.OrderRepository, placer *order.Service, logger *zap.Logger) *PanelHandler {
	return &PanelHandler{
		users:    users,
		services: services,
		orders:   orders,
		placer:   placer,
		logger:   logger,
	}
}

// Handle dispatches on the `action` field.
func (h *PanelHandler) Handle(c echo.Context) error {
	body, err := parseBody(c)
	if err != nil {
		return badRequest(c, ErrInvalidParameters)
	}

	key := body["key"]
	if key == "" {
		return apiError(c, http.StatusUnauthorized, ErrInvalidAPIKey)
	}
	user, err := h.users.FindByAPIKey(key)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apiError(c, http.StatusUnauthorized, ErrInvalidAPIKey)
		}
		h.logger.Error("api key lookup failed", zap.Error(err))
		return apiError(c, http.StatusInternalServerError, ErrInternalServer)
	}
	if user.Status != models.UserActive {
		return apiError(c, http.StatusUnauthorized, ErrInvalidAPIKey)
	}

	switch body["action"] {
	case "services":
		return h.listServices(c, user)
	case "add":
		return h.addOrder(c, user, body)
	case "status":
		return h.orderStatus(c, user, body)
	case "balance":
		return h.balance(c, user)
	default:
		return badRequest(c, ErrInvalidAction)
	}
}

type serviceEntry struct {
	Service  uint   `json:"service"`
	Name     string `json:"name"`
	Type     string `json:"type"`
	Category uint   `json:"category"`
	Rate     string `json:"rate"`
	Min      int    `json:"min"`
	Max      int    `json:"max"`
	Refill   bool   `json:"refill"`
}

func (h *PanelHandler) listServices(c echo.Context, user *models.User) error {
	services, err := h.services.FindActive()
	if err != nil {
		h.logger.Error("service list failed", zap.Error(err))
		return apiError(c, http.StatusInternalServerError, ErrInternalServer)
	}

	entries := make([]serviceEntry, 0, len(services))
	for i := range services {
		s := &services[i]
		entries = append(entries, serviceEntry{
			Service:  s.ID,
			Name:     s.Name,
			Type:     string(s.Type),
			Category: s.CategoryID,
			Rate:     s.PriceFor(user.Role).StringFixed(4),
			Min:      s.Min,
			Max:      s.Max,
			Refill:   s.Refill,
		})
	}
	return c.JSON(http.StatusOK, entries)
}

func (h *PanelHandler) addOrder(c echo.Context, user *models.User, body map[string]string) error {
	serviceID, ok := uintField(body, "service")
	if !ok {
		return badRequest(c, ErrInvalidParameters)
	}
	link := body["link"]
	if link == "" {
		return badRequest(c, ErrInvalidParameters)
	}
	quantity, hasQuantity := intField(body, "quantity")
	comments := body["comments"]
	if !hasQuantity && comments == "" {
		return badRequest(c, ErrInvalidParameters)
	}
	runs, _ := intField(body, "runs")
	interval, _ := intField(body, "interval")

	placed, err := h.placer.Place(order.PlaceRequest{
		UserID:    user.ID,
		ServiceID: serviceID,
		Link:      link,
		Quantity:  quantity,
		Comments:  comments,
		Runs:      runs,
		Interval:  interval,
		Dispatch:  false,
	})
	if err != nil {
		return h.placeError(c, err)
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"order": placed.ID,
	})
}

func (h *PanelHandler) placeError(c echo.Context, err error) error {
	var qtyErr *order.ErrQuantityOutOfRange
	switch {
	case errors.Is(err, order.ErrServiceNotFound):
		return badRequest(c, ErrInvalidService)
	case errors.As(err, &qtyErr):
		return badRequest(c, ErrInvalidQuantity)
	case errors.Is(err, order.ErrNoComments), errors.Is(err, order.ErrInvalidDiscount):
		return badRequest(c, ErrInvalidParameters)
	case repository.IsInsufficientBalance(err):
		return badRequest(c, ErrInsufficientBalance)
	default:
		h.logger.Error("order placement failed", zap.Error(err))
		return apiError(c, http.StatusInternalServerError, ErrInternalServer)
	}
}

func (h *PanelHandler) orderStatus(c echo.Context, user *models.User, body map[string]string) error {
	orderID, ok := uintField(body, "order")
	if !ok {
		return badRequest(c, ErrInvalidOrder)
	}

	// Scoped to the key's owner: one key can never read another user's order.
	o, err := h.orders.FindByIDForUser(orderID, user.ID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apiError(c, http.StatusNotFound, ErrOrderNotFound)
		}
		h.logger.Error("order status lookup failed", zap.Error(err))
		return apiError(c, http.StatusInternalServerError, ErrInternalServer)
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"charge":      o.Charge.StringFixed(4),
		"start_count": o.StartCount,
		"status":      o.Status,
		"remains":     o.Remains,
	})
}

func (h *PanelHandler) balance(c echo.Context, user *models.User) error {
	return c.JSON(http.StatusOK, map[string]interface{}{
		"balance":  user.Balance.StringFixed(2),
		"currency": "USD",
	})
}
