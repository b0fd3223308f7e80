package order

import (
	"errors"
	"fmt"
	"regexp"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"smmpanel/internal/config"
	"smmpanel/internal/models"
	"smmpanel/internal/notify"
	"smmpanel/internal/provider"
	"smmpanel/internal/repository"
)

func setupDB(t *testing.T) *gorm.DB {
	t.Helper()
	// Per-test in-memory database to avoid cross-test interference.
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.User{}, &models.Service{}, &models.Provider{},
		&models.Order{}, &models.Discount{},
	))
	return db
}

// stubProvider scripts the upstream response for dispatch and sync tests.
type stubProvider struct {
	pid   string
	err   error
	calls int

	status  models.OrderStatus
	start   int
	remains int
}

func (s *stubProvider) Add(p *models.Provider, req provider.AddRequest) (string, error) {
	s.calls++
	if s.err != nil {
		return "", s.err
	}
	return s.pid, nil
}

func (s *stubProvider) Status(p *models.Provider, pid string) (*provider.StatusResult, error) {
	status := s.status
	if status == "" {
		status = models.OrderProcessing
	}
	return &provider.StatusResult{Status: status, StartCount: s.start, Remains: s.remains}, nil
}

func newTestService(t *testing.T, db *gorm.DB, upstream provider.Client, policy config.DispatchPolicy) *Service {
	t.Helper()
	repos := &Repos{
		Users:     repository.NewUserRepository(db),
		Services:  repository.NewServiceRepository(db),
		Orders:    repository.NewOrderRepository(db),
		Providers: repository.NewProviderRepository(db),
		Discounts: repository.NewDiscountRepository(db),
	}
	cfg := config.OrderConfig{InvoicePrefix: "INV", DispatchPolicy: policy}
	return NewService(db, repos, upstream, cfg, notify.NewLogPublisher(zap.NewNop()), zap.NewNop())
}

func dec(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	require.NoError(t, err)
	return d
}

func seedUser(t *testing.T, db *gorm.DB, balance string, role models.UserRole) *models.User {
	t.Helper()
	user := &models.User{
		Username: fmt.Sprintf("u-%s-%s", t.Name(), role),
		Role:     role,
		Balance:  dec(t, balance),
		Status:   models.UserActive,
		APIKey:   fmt.Sprintf("key-%s-%s", t.Name(), role),
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

func seedService(t *testing.T, db *gorm.DB, mutate func(*models.Service)) *models.Service {
	t.Helper()
	svc := &models.Service{
		Name:      "Followers",
		Type:      models.ServiceDefault,
		Min:       100,
		Max:       10000,
		PriceAPI:  dec(t, "0.30"),
		PriceSale: dec(t, "0.50"),
		PriceRes:  dec(t, "0.40"),
		Active:    true,
	}
	if mutate != nil {
		mutate(svc)
	}
	require.NoError(t, db.Create(svc).Error)
	return svc
}

func balanceOf(t *testing.T, db *gorm.DB, userID uint) decimal.Decimal {
	t.Helper()
	var user models.User
	require.NoError(t, db.First(&user, userID).Error)
	return user.Balance
}

func TestPlaceChargesExactly(t *testing.T) {
	db := setupDB(t)
	svc := newTestService(t, db, &stubProvider{}, config.DispatchReject)
	user := seedUser(t, db, "10.00", models.RoleMember)
	service := seedService(t, db, nil)

	placed, err := svc.Place(PlaceRequest{
		UserID:    user.ID,
		ServiceID: service.ID,
		Link:      "https://example.com/p/1",
		Quantity:  1000,
	})
	require.NoError(t, err)
	require.True(t, placed.Charge.Equal(dec(t, "0.50")), "charge = %s", placed.Charge)
	require.Equal(t, models.OrderPending, placed.Status)
	require.True(t, balanceOf(t, db, user.ID).Equal(dec(t, "9.50")))

	// Snapshots copied from the service at placement time.
	require.True(t, placed.PriceSale.Equal(service.PriceSale))
	require.True(t, placed.PriceAPI.Equal(service.PriceAPI))
	require.True(t, placed.PriceRes.Equal(service.PriceRes))
}

func TestPlaceResellerPricing(t *testing.T) {
	db := setupDB(t)
	svc := newTestService(t, db, &stubProvider{}, config.DispatchReject)
	user := seedUser(t, db, "10.00", models.RoleReseller)
	service := seedService(t, db, nil)

	placed, err := svc.Place(PlaceRequest{
		UserID:    user.ID,
		ServiceID: service.ID,
		Link:      "https://example.com/p/1",
		Quantity:  1000,
	})
	require.NoError(t, err)
	require.True(t, placed.Charge.Equal(dec(t, "0.40")))
	require.True(t, balanceOf(t, db, user.ID).Equal(dec(t, "9.60")))
}

func TestPlaceManyOrdersNoDrift(t *testing.T) {
	db := setupDB(t)
	svc := newTestService(t, db, &stubProvider{}, config.DispatchReject)
	user := seedUser(t, db, "10.00", models.RoleMember)
	service := seedService(t, db, func(s *models.Service) {
		s.Min = 1
		s.PriceSale = dec(t, "0.33")
	})

	// 100 orders of 100 units at 0.33/1000 = 0.033 each. Decimal arithmetic
	// must land on exactly 6.70, with no float drift.
	for i := 0; i < 100; i++ {
		_, err := svc.Place(PlaceRequest{
			UserID:    user.ID,
			ServiceID: service.ID,
			Link:      "https://example.com/p/1",
			Quantity:  100,
		})
		require.NoError(t, err)
	}
	require.True(t, balanceOf(t, db, user.ID).Equal(dec(t, "6.70")),
		"balance = %s", balanceOf(t, db, user.ID))
}

func TestPlaceQuantityBounds(t *testing.T) {
	db := setupDB(t)
	svc := newTestService(t, db, &stubProvider{}, config.DispatchReject)
	user := seedUser(t, db, "10.00", models.RoleMember)
	service := seedService(t, db, nil)

	for _, quantity := range []int{99, 10001, 0, -5} {
		_, err := svc.Place(PlaceRequest{
			UserID:    user.ID,
			ServiceID: service.ID,
			Link:      "https://example.com/p/1",
			Quantity:  quantity,
		})
		var qtyErr *ErrQuantityOutOfRange
		require.ErrorAs(t, err, &qtyErr, "quantity %d", quantity)
		require.Equal(t, 100, qtyErr.Min)
		require.Equal(t, 10000, qtyErr.Max)
	}

	// No state mutation on rejection.
	require.True(t, balanceOf(t, db, user.ID).Equal(dec(t, "10.00")))
	var count int64
	require.NoError(t, db.Model(&models.Order{}).Count(&count).Error)
	require.Zero(t, count)
}

func TestPlaceInsufficientBalance(t *testing.T) {
	db := setupDB(t)
	svc := newTestService(t, db, &stubProvider{}, config.DispatchReject)
	user := seedUser(t, db, "0.25", models.RoleMember)
	service := seedService(t, db, nil)

	_, err := svc.Place(PlaceRequest{
		UserID:    user.ID,
		ServiceID: service.ID,
		Link:      "https://example.com/p/1",
		Quantity:  1000,
	})
	var balErr *repository.ErrInsufficientBalance
	require.ErrorAs(t, err, &balErr)
	require.True(t, balErr.Required.Equal(dec(t, "0.50")))
	require.True(t, balErr.Current.Equal(dec(t, "0.25")))

	require.True(t, balanceOf(t, db, user.ID).Equal(dec(t, "0.25")))
	var count int64
	require.NoError(t, db.Model(&models.Order{}).Count(&count).Error)
	require.Zero(t, count)
}

func TestPlaceUnknownService(t *testing.T) {
	db := setupDB(t)
	svc := newTestService(t, db, &stubProvider{}, config.DispatchReject)
	user := seedUser(t, db, "10.00", models.RoleMember)

	_, err := svc.Place(PlaceRequest{
		UserID:    user.ID,
		ServiceID: 9999,
		Link:      "https://example.com/p/1",
		Quantity:  1000,
	})
	require.ErrorIs(t, err, ErrServiceNotFound)
}

func TestPlaceCustomCommentsQuantity(t *testing.T) {
	db := setupDB(t)
	svc := newTestService(t, db, &stubProvider{}, config.DispatchReject)
	user := seedUser(t, db, "10.00", models.RoleMember)
	service := seedService(t, db, func(s *models.Service) {
		s.Type = models.ServiceCustomComments
		s.Min = 1
		s.Max = 10
	})

	placed, err := svc.Place(PlaceRequest{
		UserID:    user.ID,
		ServiceID: service.ID,
		Link:      "https://example.com/p/1",
		Comments:  "first\nsecond\n\nthird\n",
	})
	require.NoError(t, err)
	require.Equal(t, 3, placed.Quantity)
	// 0.50/1000 * 3
	require.True(t, placed.Charge.Equal(dec(t, "0.0015")), "charge = %s", placed.Charge)

	_, err = svc.Place(PlaceRequest{
		UserID:    user.ID,
		ServiceID: service.ID,
		Link:      "https://example.com/p/1",
	})
	require.ErrorIs(t, err, ErrNoComments)
}

func TestPlaceDispatchSuccess(t *testing.T) {
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
	require.Equal(t, "777001", placed.PID)
	require.Equal(t, models.OrderProcessing, placed.Status)
	require.Equal(t, 1, upstream.calls)
}

func TestPlaceDispatchRequiresFunds(t *testing.T) {
	db := setupDB(t)
	upstream := &stubProvider{pid: "777001"}
	svc := newTestService(t, db, upstream, config.DispatchReject)
	user := seedUser(t, db, "0.01", models.RoleMember)

	prov := &models.Provider{Name: "upstream", APIURL: "https://up.example/api/v2", APIKey: "k", Active: true}
	require.NoError(t, db.Create(prov).Error)
	service := seedService(t, db, func(s *models.Service) {
		s.ProviderID = &prov.ID
		s.ProviderSID = "42"
	})

	// An order the balance cannot cover must be rejected before anything is
	// forwarded upstream.
	_, err := svc.Place(PlaceRequest{
		UserID:    user.ID,
		ServiceID: service.ID,
		Link:      "https://example.com/p/1",
		Quantity:  1000,
		Dispatch:  true,
	})
	var balErr *repository.ErrInsufficientBalance
	require.ErrorAs(t, err, &balErr)
	require.Zero(t, upstream.calls)
	require.True(t, balanceOf(t, db, user.ID).Equal(dec(t, "0.01")))
}

func TestPlaceDispatchProviderErrorRejects(t *testing.T) {
	db := setupDB(t)
	upstream := &stubProvider{err: &provider.Error{Message: "not enough funds"}}
	// Even the accept policy never swallows an explicit provider rejection.
	svc := newTestService(t, db, upstream, config.DispatchAccept)
	user := seedUser(t, db, "10.00", models.RoleMember)

	prov := &models.Provider{Name: "upstream", APIURL: "https://up.example/api/v2", APIKey: "k", Active: true}
	require.NoError(t, db.Create(prov).Error)
	service := seedService(t, db, func(s *models.Service) {
		s.ProviderID = &prov.ID
		s.ProviderSID = "42"
	})

	_, err := svc.Place(PlaceRequest{
		UserID:    user.ID,
		ServiceID: service.ID,
		Link:      "https://example.com/p/1",
		Quantity:  1000,
		Dispatch:  true,
	})
	var provErr *provider.Error
	require.ErrorAs(t, err, &provErr)
	require.Equal(t, "not enough funds", provErr.Message)

	require.True(t, balanceOf(t, db, user.ID).Equal(dec(t, "10.00")))
	var count int64
	require.NoError(t, db.Model(&models.Order{}).Count(&count).Error)
	require.Zero(t, count)
}

func TestPlaceDispatchTransportFailurePolicy(t *testing.T) {
	transportErr := errors.New("connection refused")

	t.Run("reject", func(t *testing.T) {
		db := setupDB(t)
		svc := newTestService(t, db, &stubProvider{err: transportErr}, config.DispatchReject)
		user := seedUser(t, db, "10.00", models.RoleMember)
		prov := &models.Provider{Name: "upstream", APIURL: "https://up.example/api/v2", APIKey: "k", Active: true}
		require.NoError(t, db.Create(prov).Error)
		service := seedService(t, db, func(s *models.Service) {
			s.ProviderID = &prov.ID
			s.ProviderSID = "42"
		})

		_, err := svc.Place(PlaceRequest{
			UserID:    user.ID,
			ServiceID: service.ID,
			Link:      "https://example.com/p/1",
			Quantity:  1000,
			Dispatch:  true,
		})
		require.Error(t, err)
		require.True(t, balanceOf(t, db, user.ID).Equal(dec(t, "10.00")))
	})

	t.Run("accept", func(t *testing.T) {
		db := setupDB(t)
		svc := newTestService(t, db, &stubProvider{err: transportErr}, config.DispatchAccept)
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
		require.Empty(t, placed.PID)
		require.Equal(t, models.OrderPending, placed.Status)
		require.True(t, balanceOf(t, db, user.ID).Equal(dec(t, "9.50")))
	})
}

func TestPlaceWithFixedDiscount(t *testing.T) {
	db := setupDB(t)
	svc := newTestService(t, db, &stubProvider{}, config.DispatchReject)
	user := seedUser(t, db, "10.00", models.RoleMember)
	service := seedService(t, db, nil)

	require.NoError(t, db.Create(&models.Discount{
		Code:     "TENOFF",
		Kind:     models.DiscountFixed,
		Amount:   dec(t, "0.10"),
		UsageCap: 1,
	}).Error)

	placed, err := svc.Place(PlaceRequest{
		UserID:       user.ID,
		ServiceID:    service.ID,
		Link:         "https://example.com/p/1",
		Quantity:     1000,
		DiscountCode: "TENOFF",
	})
	require.NoError(t, err)
	require.True(t, placed.Charge.Equal(dec(t, "0.40")))
	require.True(t, balanceOf(t, db, user.ID).Equal(dec(t, "9.60")))

	// Cap of one: second use is rejected with no state change.
	_, err = svc.Place(PlaceRequest{
		UserID:       user.ID,
		ServiceID:    service.ID,
		Link:         "https://example.com/p/1",
		Quantity:     1000,
		DiscountCode: "TENOFF",
	})
	require.ErrorIs(t, err, ErrInvalidDiscount)
	require.True(t, balanceOf(t, db, user.ID).Equal(dec(t, "9.60")))
}

func TestInvoiceFormat(t *testing.T) {
	db := setupDB(t)
	svc := newTestService(t, db, &stubProvider{}, config.DispatchReject)
	user := seedUser(t, db, "10.00", models.RoleMember)
	service := seedService(t, db, nil)

	placed, err := svc.Place(PlaceRequest{
		UserID:    user.ID,
		ServiceID: service.ID,
		Link:      "https://example.com/p/1",
		Quantity:  1000,
	})
	require.NoError(t, err)
	require.Regexp(t, regexp.MustCompile(`^INV\d{6}\d{5}$`), placed.Invoice)
}
