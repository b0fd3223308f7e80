package cron

import (
	"context"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"smmpanel/internal/config"
	"smmpanel/internal/deposit"
	"smmpanel/internal/order"
)

// Scheduler runs the periodic reconciliation jobs in-process. The HTTP sweep
// endpoints call the same Reconciler and Syncer, so both triggers share one
// state machine.
type Scheduler struct {
	cron       *cron.Cron
	cfg        *config.Config
	reconciler *deposit.Reconciler
	syncer     *order.Syncer
	logger     *zap.Logger
}

// New creates a new cron scheduler.
func New(cfg *config.Config, reconciler *deposit.Reconciler, syncer *order.Syncer, logger *zap.Logger) *Scheduler {
	return &Scheduler{
		cron:       cron.New(cron.WithSeconds()),
		cfg:        cfg,
		reconciler: reconciler,
		syncer:     syncer,
		logger:     logger,
	}
}

// Start registers and starts all cron jobs.
func (s *Scheduler) Start() {
	s.logger.Info("Starting cron scheduler...")

	// Pending-deposit sweep - every 2 minutes
	s.cron.AddFunc("0 */2 * * * *", func() {
		s.logger.Debug("Running: deposit sweep")
		summary, err := s.reconciler.Sweep(context.Background(), s.cfg.Cron.SweepBatch)
		if err != nil {
			s.logger.Error("Deposit sweep failed", zap.Error(err))
			return
		}
		if summary.Updated > 0 {
			s.logger.Info("Deposit sweep finished",
				zap.Int("processed", summary.Processed),
				zap.Int("updated", summary.Updated))
		}
	})

	// Dispatched-order progress sync - every 5 minutes
	s.cron.AddFunc("0 */5 * * * *", func() {
		s.logger.Debug("Running: order sync")
		summary, err := s.syncer.SyncOpen(s.cfg.Cron.SweepBatch)
		if err != nil {
			s.logger.Error("Order sync failed", zap.Error(err))
			return
		}
		if summary.Updated > 0 {
			s.logger.Info("Order sync finished",
				zap.Int("processed", summary.Processed),
				zap.Int("updated", summary.Updated))
		}
	})

	s.cron.Start()
}

// Stop stops the scheduler and returns a context that is done once running
// jobs finish.
func (s *Scheduler) Stop() context.Context {
	s.logger.Info("Stopping cron scheduler...")
	return s.cron.Stop()
}
