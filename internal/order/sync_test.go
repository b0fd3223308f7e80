package order

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"smmpanel/internal/config"
	"smmpanel/internal/models"
	"smmpanel/internal/provider"
	"smmpanel/internal/repository"
)

func newTestSyncer(t *testing.T, db *gorm.DB, upstream provider.Client) *Syncer {
	t.Helper()
	return NewSyncer(
		repository.NewOrderRepository(db),
		repository.NewServiceRepository(db),
		repository.NewProviderRepository(db),
		upstream, zap.NewNop(),
	)
}

func TestSyncRedispatchesAcceptedOrders(t *testing.T) {
	db := setupDB(t)
	upstream := &stubProvider{err: errors.New("connection refused")}
	svc := newTestService(t, db, upstream, config.DispatchAccept)
	user := seedUser(t, db, "10.00", models.RoleMember)

	prov := &models.Provider{Name: "upstream", APIURL: "https://up.example/api/v2", APIKey: "k", Active: true}
	require.NoError(t, db.Create(prov).Error)
	service := seedService(t, db, func(s *models.Service) {
		s.ProviderID = &prov.ID
		s.ProviderSID = "42"
	})

	// Transport failure under the accept policy: debited, but never forwarded.
	placed, err := svc.Place(PlaceRequest{
		UserID:    user.ID,
		ServiceID: service.ID,
		Link:      "https://example.com/p/1",
		Quantity:  1000,
		Dispatch:  true,
	})
	require.NoError(t, err)
	require.Empty(t, placed.PID)
	require.Equal(t, models.OrderPending, placed.Status)

	// The provider recovers; the next sync pass forwards the order.
	upstream.err = nil
	upstream.pid = "888001"
	syncer := newTestSyncer(t, db, upstream)

	summary, err := syncer.SyncOpen(100)
	require.NoError(t, err)
	require.Equal(t, 1, summary.Dispatched)

	var stored models.Order
	require.NoError(t, db.First(&stored, placed.ID).Error)
	require.Equal(t, "888001", stored.PID)
	require.Equal(t, models.OrderProcessing, stored.Status)
	require.NotNil(t, stored.ProviderID)
	require.Equal(t, prov.ID, *stored.ProviderID)

	// Once forwarded, later passes leave it to the progress sync.
	summary, err = syncer.SyncOpen(100)
	require.NoError(t, err)
	require.Zero(t, summary.Dispatched)
}

func TestSyncSkipsOrdersWithoutProvider(t *testing.T) {
	db := setupDB(t)
	upstream := &stubProvider{pid: "888001"}
	svc := newTestService(t, db, upstream, config.DispatchReject)
	user := seedUser(t, db, "10.00", models.RoleMember)
	service := seedService(t, db, nil)

	// Plain local order, no provider binding.
	_, err := svc.Place(PlaceRequest{
		UserID:    user.ID,
		ServiceID: service.ID,
		Link:      "https://example.com/p/1",
		Quantity:  1000,
	})
	require.NoError(t, err)

	syncer := newTestSyncer(t, db, upstream)
	summary, err := syncer.SyncOpen(100)
	require.NoError(t, err)
	require.Zero(t, summary.Dispatched)
	require.Zero(t, summary.Processed)
	require.Zero(t, upstream.calls)
}

func TestSyncProgressesDispatchedOrder(t *testing.T) {
	db := setupDB(t)
	upstream := &stubProvider{pid: "777001"}
	svc := newTestService(t, db, upstream, config.DispatchReject)
	user := seedUser(t, db, "10.00", models.RoleMember)

	prov := &models.Provider{Name: "upstream", APIURL: "https://up.example/api/v2", APIKey: "k", Active: true}
	require.NoError(t, db.Create(prov).Error)
	service := seedService(t, db, func(s *models.Service) {
		s.ProviderID = &prov.ID
		s.ProviderSID = "42"
	})

	placed, err := svc.Place(PlaceRequest{
		UserID:    user.ID,
		ServiceID: service.ID,
		Link:      "https://example.com/p/1",
		Quantity:  1000,
		Dispatch:  true,
	})
	require.NoError(t, err)
	require.Equal(t, models.OrderProcessing, placed.Status)

	upstream.status = models.OrderCompleted
	upstream.start = 150
	upstream.remains = 0

	syncer := newTestSyncer(t, db, upstream)
	summary, err := syncer.SyncOpen(100)
	require.NoError(t, err)
	require.Equal(t, 1, summary.Processed)
	require.Equal(t, 1, summary.Updated)

	var stored models.Order
	require.NoError(t, db.First(&stored, placed.ID).Error)
	require.Equal(t, models.OrderCompleted, stored.Status)
	require.Equal(t, 150, stored.StartCount)
	require.Zero(t, stored.Remains)

	// Terminal orders are never polled again.
	summary, err = syncer.SyncOpen(100)
	require.NoError(t, err)
	require.Zero(t, summary.Processed)
}
