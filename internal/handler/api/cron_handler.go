package api

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"smmpanel/internal/deposit"
	"smmpanel/internal/order"
)

// CronHandler exposes the sweep jobs over HTTP so an external scheduler can
// drive them; the same logic runs on the in-process cron.
type CronHandler struct {
	reconciler *deposit.Reconciler
	syncer     *order.Syncer
	batch      int
	logger     *zap.Logger
}

func NewCronHandler(reconciler *deposit.Reconciler, syncer *order.Syncer, batch int, logger *zap.Logger) *CronHandler {
	if batch <= 0 {
		batch = 200
	}
	return &CronHandler{reconciler: reconciler, syncer: syncer, batch: batch, logger: logger}
}

// SweepDeposits reconciles all pending deposits and reports per-deposit
// before/after statuses.
func (h *CronHandler) SweepDeposits(c echo.Context) error {
	summary, err := h.reconciler.Sweep(c.Request().Context(), h.batch)
	if err != nil {
		h.logger.Error("deposit sweep failed", zap.Error(err))
		return apiError(c, http.StatusInternalServerError, ErrInternalServer)
	}
	return c.JSON(http.StatusOK, summary)
}

// SyncOrders progresses dispatched orders against the upstream provider.
func (h *CronHandler) SyncOrders(c echo.Context) error {
	summary, err := h.syncer.SyncOpen(h.batch)
	if err != nil {
		h.logger.Error("order sync failed", zap.Error(err))
		return apiError(c, http.StatusInternalServerError, ErrInternalServer)
	}
	return c.JSON(http.StatusOK, summary)
}
