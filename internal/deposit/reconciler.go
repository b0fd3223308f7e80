package deposit

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"smmpanel/internal/models"
	"smmpanel/internal/notify"
	"smmpanel/internal/payment"
	"smmpanel/internal/repository"
)

// Repos bundles the repositories the reconciliation flow needs.
type Repos struct {
	Users    *repository.UserRepository
	Deposits *repository.DepositRepository
	Gateways *repository.GatewayRepository
}

// Result records one deposit's reconciliation outcome.
type Result struct {
	DepositID uint                 `json:"deposit_id"`
	Before    models.DepositStatus `json:"before"`
	After     models.DepositStatus `json:"after"`
	Updated   bool                 `json:"updated"`
}

// Summary aggregates one sweep pass.
type Summary struct {
	Processed int      `json:"processed"`
	Updated   int      `json:"updated"`
	Results   []Result `json:"results"`
}

// Reconciler owns the deposit state machine. The cron sweep and the on-demand
// endpoint both go through Reconcile, so the gateway status mapping and the
// terminal-transition rules exist exactly once.
type Reconciler struct {
	db       *gorm.DB
	repos    *Repos
	factory  payment.Factory
	lock     Lock
	notifier notify.Publisher
	logger   *zap.Logger
}

func NewReconciler(db *gorm.DB, repos *Repos, factory payment.Factory, lock Lock, notifier notify.Publisher, logger *zap.Logger) *Reconciler {
	return &Reconciler{
		db:       db,
		repos:    repos,
		factory:  factory,
		lock:     lock,
		notifier: notifier,
		logger:   logger,
	}
}

// Reconcile polls the originating gateway for the deposit's true status and,
// if it maps to a terminal state, applies the transition. The credit and the
// status write share one transaction, and the transition re-checks PENDING
// inside that transaction, so re-polls and concurrent triggers can never
// credit twice.
func (r *Reconciler) Reconcile(ctx context.Context, dep *models.Deposit) (Result, error) {
	result := Result{DepositID: dep.ID, Before: dep.Status, After: dep.Status}
	if dep.Status.Terminal() {
		return result, nil
	}

	acquired, err := r.lock.TryAcquire(ctx, dep.ID)
	if err != nil {
		r.logger.Warn("reconcile lock unavailable", zap.Uint("deposit_id", dep.ID), zap.Error(err))
	} else if !acquired {
		return result, nil
	} else {
		defer r.lock.Release(ctx, dep.ID)
	}

	gw, err := r.repos.Gateways.FindByID(dep.Detail.GatewayID)
	if err != nil {
		return result, fmt.Errorf("gateway %d lookup failed: %w", dep.Detail.GatewayID, err)
	}
	gateway, err := r.factory(gw)
	if err != nil {
		return result, err
	}

	status, err := gateway.CheckStatus(dep)
	if err != nil {
		// Transport trouble: leave the deposit PENDING for the next pass.
		return result, fmt.Errorf("status poll failed for deposit %d: %w", dep.ID, err)
	}
	if !status.Terminal() {
		return result, nil
	}

	err = r.db.Transaction(func(tx *gorm.DB) error {
		ok, err := r.repos.Deposits.TransitionTx(tx, dep.ID, status)
		if err != nil {
			return err
		}
		if !ok {
			// A concurrent reconciliation already committed a terminal state;
			// report what actually got stored, not the stale snapshot.
			var stored models.Deposit
			if err := tx.Select("status").First(&stored, dep.ID).Error; err != nil {
				return err
			}
			status = stored.Status
			return nil
		}
		result.Updated = true
		if status == models.DepositPayment {
			return r.repos.Users.Credit(tx, dep.UserID, dep.Amount)
		}
		return nil
	})
	if err != nil {
		result.Updated = false
		return result, err
	}

	result.After = status
	if result.Updated {
		r.publish(dep, status)
	}
	return result, nil
}

// ReconcileByID loads and reconciles a single deposit.
func (r *Reconciler) ReconcileByID(ctx context.Context, depositID uint) (Result, error) {
	dep, err := r.repos.Deposits.FindByID(depositID)
	if err != nil {
		return Result{DepositID: depositID}, err
	}
	return r.Reconcile(ctx, dep)
}

// Sweep reconciles all pending deposits in one pass. Individual failures are
// logged and skipped so one broken gateway doesn't starve the rest.
func (r *Reconciler) Sweep(ctx context.Context, batch int) (*Summary, error) {
	pending, err := r.repos.Deposits.FindPending(batch)
	if err != nil {
		return nil, err
	}

	summary := &Summary{Results: make([]Result, 0, len(pending))}
	for i := range pending {
		res, err := r.Reconcile(ctx, &pending[i])
		if err != nil {
			r.logger.Warn("deposit reconcile failed",
				zap.Uint("deposit_id", pending[i].ID), zap.Error(err))
		}
		summary.Processed++
		if res.Updated {
			summary.Updated++
		}
		summary.Results = append(summary.Results, res)
	}
	return summary, nil
}

func (r *Reconciler) publish(dep *models.Deposit, status models.DepositStatus) {
	kind := notify.EventDepositFailed
	if status == models.DepositPayment {
		kind = notify.EventDepositCredited
	}
	r.notifier.Publish(notify.Event{
		Kind:    kind,
		UserID:  dep.UserID,
		Amount:  dep.Amount,
		Message: fmt.Sprintf("deposit #%d via %s: %s", dep.ID, dep.Detail.Provider, status),
	})
}
