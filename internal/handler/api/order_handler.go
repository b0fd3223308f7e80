package api

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"smmpanel/internal/middleware"
	"smmpanel/internal/models"
	"smmpanel/internal/order"
	"smmpanel/internal/provider"
	"smmpanel/internal/repository"
)

// OrderHandler is the panel's own order-creation endpoint. Unlike the
// passthrough add action, this path dispatches provider-bound services
// upstream.
type OrderHandler struct {
	placer *order.Service
	logger *zap.Logger
}

func NewOrderHandler(placer *order.Service, logger *zap.Logger) *OrderHandler {
	return &OrderHandler{placer: placer, logger: logger}
}

type createOrderRequest struct {
	UserID       uint   `json:"user_id" form:"user_id"`
	ServiceID    uint   `json:"service_id" form:"service_id"`
	Link         string `json:"link" form:"link"`
	Quantity     int    `json:"quantity" form:"quantity"`
	Comments     string `json:"comments" form:"comments"`
	Runs         int    `json:"runs" form:"runs"`
	Interval     int    `json:"interval" form:"interval"`
	DiscountCode string `json:"discount_code" form:"discount_code"`
}

// Create places an order for the authenticated user. Staff and admins may
// place on behalf of another user via user_id.
func (h *OrderHandler) Create(c echo.Context) error {
	auth := middleware.AuthUser(c)

	var req createOrderRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, ErrInvalidParameters)
	}
	if req.ServiceID == 0 || req.Link == "" {
		return badRequest(c, ErrInvalidParameters)
	}

	userID := auth.ID
	if req.UserID != 0 && req.UserID != auth.ID {
		if auth.Role != models.RoleAdmin && auth.Role != models.RoleStaff {
			return apiError(c, http.StatusForbidden, ErrInvalidParameters)
		}
		userID = req.UserID
	}

	placed, err := h.placer.Place(order.PlaceRequest{
		UserID:       userID,
		ServiceID:    req.ServiceID,
		Link:         req.Link,
		Quantity:     req.Quantity,
		Comments:     req.Comments,
		Runs:         req.Runs,
		Interval:     req.Interval,
		DiscountCode: req.DiscountCode,
		Dispatch:     true,
	})
	if err != nil {
		return h.createError(c, err)
	}

	return c.JSON(http.StatusCreated, map[string]interface{}{
		"id":      placed.ID,
		"invoice": placed.Invoice,
		"pid":     placed.PID,
		"status":  placed.Status,
		"total":   placed.Charge.StringFixed(4),
	})
}

func (h *OrderHandler) createError(c echo.Context, err error) error {
	// Provider rejections surface their message verbatim; balance shortfalls
	// report the figures; the rest maps to the shared vocabulary.
	var provErr *provider.Error
	if errors.As(err, &provErr) {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": provErr.Message})
	}
	var qtyErr *order.ErrQuantityOutOfRange
	if errors.As(err, &qtyErr) {
		return c.JSON(http.StatusBadRequest, map[string]interface{}{
			"error": ErrInvalidQuantity,
			"min":   qtyErr.Min,
			"max":   qtyErr.Max,
		})
	}
	var balErr *repository.ErrInsufficientBalance
	if errors.As(err, &balErr) {
		return c.JSON(http.StatusBadRequest, map[string]interface{}{
			"error":    ErrInsufficientBalance,
			"required": balErr.Required.StringFixed(4),
			"current":  balErr.Current.StringFixed(4),
		})
	}
	ph := PanelHandler{logger: h.logger}
	return ph.placeError(c, err)
}
