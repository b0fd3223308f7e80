package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"smmpanel/internal/bootstrap"
	"smmpanel/internal/config"
	cronpkg "smmpanel/internal/cron"
	"smmpanel/internal/deposit"
	"smmpanel/internal/notify"
	"smmpanel/internal/order"
	"smmpanel/internal/payment"
	"smmpanel/internal/pkg/httpclient"
	"smmpanel/internal/pkg/telegram"
	"smmpanel/internal/provider"
	"smmpanel/internal/redeem"
	"smmpanel/internal/repository"
	"smmpanel/internal/router"
)

func main() {
	// --- Logger ---
	logger, err := zap.NewProduction()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	// --- Config ---
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load config", zap.Error(err))
	}

	// --- Database ---
	db, err := config.NewDatabase(&cfg.Database)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	if err := bootstrap.MigrateAndSeed(db); err != nil {
		logger.Fatal("Failed to bootstrap database schema", zap.Error(err))
	}

	// --- Repositories ---
	users := repository.NewUserRepository(db)
	services := repository.NewServiceRepository(db)
	orders := repository.NewOrderRepository(db)
	deposits := repository.NewDepositRepository(db)
	gateways := repository.NewGatewayRepository(db)
	providers := repository.NewProviderRepository(db)
	redeems := repository.NewRedeemRepository(db)
	discounts := repository.NewDiscountRepository(db)

	// --- Notifications (best-effort, post-commit) ---
	var notifier notify.Publisher
	if cfg.Notify.TelegramToken != "" && cfg.Notify.TelegramAdmin != "" {
		botAPI := telegram.NewBotAPI(cfg.Notify.TelegramToken)
		notifier = notify.NewTelegramPublisher(botAPI, cfg.Notify.TelegramAdmin, logger)
	} else {
		notifier = notify.NewLogPublisher(logger)
	}

	// --- Reconcile lock (Redis with in-memory fallback) ---
	lock, lockErr := deposit.NewLock(cfg.Redis.Addr, cfg.Redis.Pass, cfg.Redis.DB, time.Minute)
	if lockErr != nil {
		logger.Warn("Redis unavailable for reconcile lock, using in-memory fallback", zap.Error(lockErr))
	}

	// --- Domain services ---
	upstream := provider.NewAPIClient(httpclient.New())
	placer := order.NewService(db, &order.Repos{
		Users:     users,
		Services:  services,
		Orders:    orders,
		Providers: providers,
		Discounts: discounts,
	}, upstream, cfg.Order, notifier, logger)
	syncer := order.NewSyncer(orders, services, providers, upstream, logger)
	reconciler := deposit.NewReconciler(db, &deposit.Repos{
		Users:    users,
		Deposits: deposits,
		Gateways: gateways,
	}, payment.NewGateway, lock, notifier, logger)
	redeemer := redeem.NewService(db, users, redeems)

	// --- Echo ---
	e := echo.New()
	e.HideBanner = true

	router.Setup(e, &router.Deps{
		DB:         db,
		Users:      users,
		Services:   services,
		Orders:     orders,
		Deposits:   deposits,
		Gateways:   gateways,
		Placer:     placer,
		Syncer:     syncer,
		Reconciler: reconciler,
		Redeemer:   redeemer,
	}, cfg, logger)

	// --- Cron Scheduler ---
	scheduler := cronpkg.New(cfg, reconciler, syncer, logger)
	scheduler.Start()

	// --- Start Server ---
	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	go func() {
		logger.Info("Starting panel server", zap.String("addr", addr))
		if err := e.Start(addr); err != nil {
			logger.Info("Server stopped", zap.Error(err))
		}
	}()

	// --- Graceful Shutdown ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down...")

	// Stop cron
	ctx := scheduler.Stop()
	<-ctx.Done()

	// Stop HTTP server
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server exited")
}
