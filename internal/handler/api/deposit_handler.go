package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"smmpanel/internal/deposit"
	"smmpanel/internal/middleware"
	"smmpanel/internal/models"
	"smmpanel/internal/repository"

	"github.com/shopspring/decimal"
)

// DepositHandler exposes deposit creation and the on-demand status check.
type DepositHandler struct {
	deposits   *repository.DepositRepository
	gateways   *repository.GatewayRepository
	reconciler *deposit.Reconciler
	logger     *zap.Logger
}

func NewDepositHandler(deposits *repository.DepositRepository, gateways *repository.GatewayRepository, reconciler *deposit.Reconciler, logger *zap.Logger) *DepositHandler {
	return &DepositHandler{
		deposits:   deposits,
		gateways:   gateways,
		reconciler: reconciler,
		logger:     logger,
	}
}

type createDepositRequest struct {
	Amount        string `json:"amount" form:"amount"`
	GatewayID     uint   `json:"gateway_id" form:"gateway_id"`
	TrackUUID     string `json:"track_uuid" form:"track_uuid"`
	PayPalOrderID string `json:"paypal_order_id" form:"paypal_order_id"`
}

// Create records a PENDING deposit awaiting gateway confirmation.
func (h *DepositHandler) Create(c echo.Context) error {
	auth := middleware.AuthUser(c)

	var req createDepositRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, ErrInvalidParameters)
	}
	amount, err := decimal.NewFromString(req.Amount)
	if err != nil || !amount.IsPositive() {
		return badRequest(c, ErrInvalidParameters)
	}

	gw, err := h.gateways.FindByID(req.GatewayID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apiError(c, http.StatusNotFound, ErrInvalidParameters)
		}
		h.logger.Error("gateway lookup failed", zap.Error(err))
		return apiError(c, http.StatusInternalServerError, ErrInternalServer)
	}

	detail := models.DepositDetail{Provider: gw.Provider, GatewayID: gw.ID}
	switch gw.Provider {
	case models.GatewayCryptoPay:
		if req.TrackUUID == "" {
			return badRequest(c, ErrInvalidParameters)
		}
		detail.TrackUUID = req.TrackUUID
	case models.GatewayPayPal:
		if req.PayPalOrderID == "" {
			return badRequest(c, ErrInvalidParameters)
		}
		detail.PayPalOrderID = req.PayPalOrderID
	}

	dep := &models.Deposit{
		UserID:   auth.ID,
		Amount:   amount,
		Status:   models.DepositPending,
		Provider: gw.Provider,
		TxRef:    detail.Reference(),
		Detail:   detail,
	}
	if err := h.deposits.Create(dep); err != nil {
		if repository.IsDuplicateKey(err) {
			// A deposit for this gateway transaction already exists.
			return apiError(c, http.StatusConflict, ErrDuplicateTransaction)
		}
		h.logger.Error("deposit create failed", zap.Error(err))
		return apiError(c, http.StatusInternalServerError, ErrInternalServer)
	}

	return c.JSON(http.StatusCreated, map[string]interface{}{
		"id":     dep.ID,
		"amount": dep.Amount.StringFixed(2),
		"status": dep.Status,
	})
}

// Check reconciles one deposit on demand and returns the resolved status.
// The lookup is scoped to the key's owner; staff and admins may check any.
func (h *DepositHandler) Check(c echo.Context) error {
	auth := middleware.AuthUser(c)

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return badRequest(c, ErrInvalidParameters)
	}

	var dep *models.Deposit
	if auth.Role == models.RoleAdmin || auth.Role == models.RoleStaff {
		dep, err = h.deposits.FindByID(uint(id))
	} else {
		dep, err = h.deposits.FindByIDForUser(uint(id), auth.ID)
	}
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apiError(c, http.StatusNotFound, ErrInvalidParameters)
		}
		h.logger.Error("deposit lookup failed", zap.Error(err))
		return apiError(c, http.StatusInternalServerError, ErrInternalServer)
	}

	res, err := h.reconciler.Reconcile(c.Request().Context(), dep)
	if err != nil {
		// Poll failure leaves the deposit PENDING; report the stored status.
		h.logger.Warn("on-demand reconcile failed", zap.Uint("deposit_id", dep.ID), zap.Error(err))
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"id":      res.DepositID,
		"status":  res.After,
		"updated": res.Updated,
	})
}
