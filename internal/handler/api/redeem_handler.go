package api

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"smmpanel/internal/middleware"
	"smmpanel/internal/redeem"
)

// RedeemHandler exposes redeem code claims.
type RedeemHandler struct {
	claims *redeem.Service
	logger *zap.Logger
}

func NewRedeemHandler(claims *redeem.Service, logger *zap.Logger) *RedeemHandler {
	return &RedeemHandler{claims: claims, logger: logger}
}

type claimRequest struct {
	Code string `json:"code" form:"code"`
}

// Claim redeems a code for the authenticated user.
func (h *RedeemHandler) Claim(c echo.Context) error {
	auth := middleware.AuthUser(c)

	var req claimRequest
	if err := c.Bind(&req); err != nil || req.Code == "" {
		return badRequest(c, ErrInvalidParameters)
	}

	amount, err := h.claims.Claim(auth.ID, req.Code)
	if err != nil {
		switch {
		case errors.Is(err, redeem.ErrCodeNotFound):
			return c.JSON(http.StatusNotFound, map[string]string{"error": "code_not_found"})
		case errors.Is(err, redeem.ErrCodeExpired):
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "code_expired"})
		case errors.Is(err, redeem.ErrQuotaExhausted):
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "code_exhausted"})
		case errors.Is(err, redeem.ErrAlreadyRedeemed):
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "code_already_used"})
		default:
			h.logger.Error("redeem claim failed", zap.Error(err))
			return apiError(c, http.StatusInternalServerError, ErrInternalServer)
		}
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"credited": amount.StringFixed(2),
	})
}
