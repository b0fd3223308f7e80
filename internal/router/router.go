package router

import (
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"smmpanel/internal/config"
	"smmpanel/internal/deposit"
	"smmpanel/internal/handler/api"
	"smmpanel/internal/middleware"
	"smmpanel/internal/order"
	"smmpanel/internal/redeem"
	"smmpanel/internal/repository"
)

// Deps bundles the shared services the routes are built from.
type Deps struct {
	DB         *gorm.DB
	Users      *repository.UserRepository
	Services   *repository.ServiceRepository
	Orders     *repository.OrderRepository
	Deposits   *repository.DepositRepository
	Gateways   *repository.GatewayRepository
	Placer     *order.Service
	Syncer     *order.Syncer
	Reconciler *deposit.Reconciler
	Redeemer   *redeem.Service
}

// Setup configures all routes for the Echo server.
func Setup(e *echo.Echo, deps *Deps, cfg *config.Config, logger *zap.Logger) {
	// Global middleware
	e.Use(echomw.Recover())
	e.Use(middleware.CORS())

	// Handlers
	panelHandler := api.NewPanelHandler(deps.Users, deps.Services, deps.Orders, deps.Placer, logger)
	orderHandler := api.NewOrderHandler(deps.Placer, logger)
	depositHandler := api.NewDepositHandler(deps.Deposits, deps.Gateways, deps.Reconciler, logger)
	redeemHandler := api.NewRedeemHandler(deps.Redeemer, logger)
	cronHandler := api.NewCronHandler(deps.Reconciler, deps.Syncer, cfg.Cron.SweepBatch, logger)

	// External API passthrough: key travels in the body, no middleware auth.
	e.POST("/api/v2", panelHandler.Handle)

	// Panel API, Token-header authenticated.
	apiGroup := e.Group("/api")
	apiGroup.Use(middleware.KeyAuth(deps.Users))
	apiGroup.POST("/orders", orderHandler.Create)
	apiGroup.POST("/deposits", depositHandler.Create)
	apiGroup.GET("/deposits/:id/check", depositHandler.Check)
	apiGroup.POST("/deposits/:id/check", depositHandler.Check)
	apiGroup.POST("/redeem", redeemHandler.Claim)

	// Sweep endpoints for an external scheduler, shared-secret guarded.
	cronGroup := e.Group("/cron")
	cronGroup.Use(middleware.CronSecret(cfg.Cron.Secret))
	cronGroup.GET("/deposits", cronHandler.SweepDeposits)
	cronGroup.POST("/deposits", cronHandler.SweepDeposits)
	cronGroup.GET("/orders", cronHandler.SyncOrders)
	cronGroup.POST("/orders", cronHandler.SyncOrders)

	// Health check
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(200, map[string]string{"status": "ok"})
	})
}
