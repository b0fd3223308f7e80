package order

import (
	"go.uber.org/zap"

	"smmpanel/internal/models"
	"smmpanel/internal/provider"
	"smmpanel/internal/repository"
)

// SyncResult records one order's progress sync.
type SyncResult struct {
	OrderID uint               `json:"order_id"`
	Before  models.OrderStatus `json:"before"`
	After   models.OrderStatus `json:"after"`
	Updated bool               `json:"updated"`
}

// SyncSummary aggregates one sync pass. Dispatched counts orders that were
// accepted without a provider id at placement time and got forwarded on this
// pass.
type SyncSummary struct {
	Processed  int          `json:"processed"`
	Updated    int          `json:"updated"`
	Dispatched int          `json:"dispatched"`
	Results    []SyncResult `json:"results"`
}

// Syncer polls the upstream provider for dispatched orders and records their
// start count, remains, and status. Shared by the cron job and the HTTP sweep
// endpoint.
type Syncer struct {
	orders    *repository.OrderRepository
	services  *repository.ServiceRepository
	providers *repository.ProviderRepository
	upstream  provider.Client
	logger    *zap.Logger
}

func NewSyncer(orders *repository.OrderRepository, services *repository.ServiceRepository, providers *repository.ProviderRepository, upstream provider.Client, logger *zap.Logger) *Syncer {
	return &Syncer{orders: orders, services: services, providers: providers, upstream: upstream, logger: logger}
}

// SyncOpen first retries orders left undispatched by the accept policy, then
// progresses all non-terminal dispatched orders, at most batch rows each.
// Provider failures are logged and skipped; the order stays as-is for the
// next pass.
func (s *Syncer) SyncOpen(batch int) (*SyncSummary, error) {
	summary := &SyncSummary{}
	s.redispatch(batch, summary)

	open, err := s.orders.FindDispatchedOpen(batch)
	if err != nil {
		return nil, err
	}

	summary.Results = make([]SyncResult, 0, len(open))
	for i := range open {
		o := &open[i]
		res := SyncResult{OrderID: o.ID, Before: o.Status, After: o.Status}
		summary.Processed++

		if o.ProviderID == nil {
			summary.Results = append(summary.Results, res)
			continue
		}
		prov, err := s.providers.FindByID(*o.ProviderID)
		if err != nil {
			s.logger.Warn("order sync: provider lookup failed",
				zap.Uint("order_id", o.ID), zap.Error(err))
			summary.Results = append(summary.Results, res)
			continue
		}

		status, err := s.upstream.Status(prov, o.PID)
		if err != nil {
			s.logger.Warn("order sync: status poll failed",
				zap.Uint("order_id", o.ID), zap.Error(err))
			summary.Results = append(summary.Results, res)
			continue
		}

		if status.Status != o.Status || status.StartCount != o.StartCount || status.Remains != o.Remains {
			if err := s.orders.UpdateProgress(o.ID, status.Status, status.StartCount, status.Remains); err != nil {
				s.logger.Warn("order sync: update failed",
					zap.Uint("order_id", o.ID), zap.Error(err))
				summary.Results = append(summary.Results, res)
				continue
			}
			res.After = status.Status
			res.Updated = true
			summary.Updated++
		}
		summary.Results = append(summary.Results, res)
	}
	return summary, nil
}

// redispatch forwards orders that were debited under the accept policy but
// never reached the provider.
func (s *Syncer) redispatch(batch int, summary *SyncSummary) {
	stuck, err := s.orders.FindUndispatched(batch)
	if err != nil {
		s.logger.Warn("order sync: undispatched lookup failed", zap.Error(err))
		return
	}

	for i := range stuck {
		o := &stuck[i]
		svc, err := s.services.FindByID(o.ServiceID)
		if err != nil {
			s.logger.Warn("order sync: service lookup failed",
				zap.Uint("order_id", o.ID), zap.Error(err))
			continue
		}
		if !svc.Dispatchable() {
			continue
		}
		prov, err := s.providers.FindByID(*svc.ProviderID)
		if err != nil {
			s.logger.Warn("order sync: provider lookup failed",
				zap.Uint("order_id", o.ID), zap.Error(err))
			continue
		}

		pid, err := s.upstream.Add(prov, provider.AddRequest{
			ServiceSID: svc.ProviderSID,
			Link:       o.Link,
			Quantity:   o.Quantity,
			Comments:   o.Comments,
			Runs:       o.Runs,
			Interval:   o.Interval,
		})
		if err != nil {
			s.logger.Warn("order sync: redispatch failed",
				zap.Uint("order_id", o.ID), zap.Error(err))
			continue
		}
		if err := s.orders.MarkDispatched(o.ID, prov.ID, pid); err != nil {
			s.logger.Error("order sync: dispatched but not recorded",
				zap.Uint("order_id", o.ID), zap.String("pid", pid), zap.Error(err))
			continue
		}
		summary.Dispatched++
	}
}
