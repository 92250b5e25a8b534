package checkout

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/ZiadAmrAbdElmonaam/embabi-store-next-sub000/internal/domain"
	"github.com/ZiadAmrAbdElmonaam/embabi-store-next-sub000/pkg/common"
)

// fakeSettings stands in for the sys_config-backed settings manager.
type fakeSettings struct {
	maintenance bool
	shippingFee float64
}

func (f *fakeSettings) GetBool(category, name string) bool {
	if category == "checkout" && name == "maintenance_mode" {
		return f.maintenance
	}
	return false
}

func (f *fakeSettings) GetFloat64(category, name string) float64 {
	if category == "checkout" && name == "shipping_fee" {
		return f.shippingFee
	}
	return 0
}

// fakeGateway records intent calls and optionally fails them.
type fakeGateway struct {
	calls int32
	fail  bool
}

func (f *fakeGateway) CreateIntent(ctx context.Context, orderID int64, amount float64) (string, error) {
	atomic.AddInt32(&f.calls, 1)
	if f.fail {
		return "", fmt.Errorf("gateway unreachable")
	}
	return fmt.Sprintf("intent-%d", orderID), nil
}

// fakeBus records published events. Publishes may come from concurrent
// checkouts, so access goes through the mutex.
type fakeBus struct {
	mu     sync.Mutex
	events []OrderCreatedEvent
}

func (f *fakeBus) Publish(topic string, args ...interface{}) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, a := range args {
		if ev, ok := a.(OrderCreatedEvent); ok {
			f.events = append(f.events, ev)
		}
	}
}

func (f *fakeBus) published() []OrderCreatedEvent {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]OrderCreatedEvent, len(f.events))
	copy(out, f.events)
	return out
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	// single connection: keeps the shared in-memory db alive and serializes
	// concurrent transactions the way row locks would on postgres
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(domain.Tables...))
	return db
}

type testEnv struct {
	db       *gorm.DB
	svc      *Service
	settings *fakeSettings
	gateway  *fakeGateway
	bus      *fakeBus
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db := newTestDB(t)
	settings := &fakeSettings{shippingFee: 50}
	gateway := &fakeGateway{}
	bus := &fakeBus{}
	svc := NewService(db, NewGormCatalogRepository(db), settings, gateway, bus, 5*time.Second)
	return &testEnv{db: db, svc: svc, settings: settings, gateway: gateway, bus: bus}
}

func (e *testEnv) seedSimple(t *testing.T, name string, price float64, stock int, variants ...domain.ColorVariant) *domain.Product {
	t.Helper()
	p := &domain.Product{
		ID:       common.UUIDint64(),
		Name:     name,
		Type:     domain.ProductTypeSimple,
		Price:    price,
		Stock:    stock,
		Variants: variants,
	}
	require.NoError(t, e.db.Create(p).Error)
	return p
}

func (e *testEnv) seedStorage(t *testing.T, name string, tiers ...domain.Storage) *domain.Product {
	t.Helper()
	p := &domain.Product{
		ID:       common.UUIDint64(),
		Name:     name,
		Type:     domain.ProductTypeStorage,
		Storages: tiers,
	}
	require.NoError(t, e.db.Create(p).Error)
	return p
}

func (e *testEnv) seedCoupon(t *testing.T, c *domain.Coupon) *domain.Coupon {
	t.Helper()
	if c.ID == 0 {
		c.ID = common.UUIDint64()
	}
	require.NoError(t, e.db.Create(c).Error)
	return c
}

func shippingFixture() ShippingInfo {
	return ShippingInfo{
		Name:    "Ziad A.",
		Phone:   "01000000000",
		Address: "12 Tahrir St",
		City:    "Cairo",
	}
}

func cashOrder(lines ...CartLine) PlaceOrderRequest {
	return PlaceOrderRequest{
		Lines:         lines,
		Shipping:      shippingFixture(),
		PaymentMethod: domain.PaymentMethodCash,
	}
}

func (e *testEnv) productStock(t *testing.T, id int64) int {
	t.Helper()
	var p domain.Product
	require.NoError(t, e.db.First(&p, id).Error)
	return p.Stock
}

func (e *testEnv) variantQty(t *testing.T, id int64) int {
	t.Helper()
	var v domain.ColorVariant
	require.NoError(t, e.db.First(&v, id).Error)
	return v.Quantity
}

func (e *testEnv) storageStock(t *testing.T, id int64) int {
	t.Helper()
	var s domain.Storage
	require.NoError(t, e.db.First(&s, id).Error)
	return s.Stock
}

func (e *testEnv) unitStock(t *testing.T, id int64) int {
	t.Helper()
	var u domain.StorageUnit
	require.NoError(t, e.db.First(&u, id).Error)
	return u.Stock
}

func (e *testEnv) orderCount(t *testing.T) int64 {
	t.Helper()
	var n int64
	require.NoError(t, e.db.Model(&domain.Order{}).Count(&n).Error)
	return n
}

func (e *testEnv) itemCount(t *testing.T) int64 {
	t.Helper()
	var n int64
	require.NoError(t, e.db.Model(&domain.OrderItem{}).Count(&n).Error)
	return n
}

func ptrF(v float64) *float64 { return &v }

func ptrI(v int) *int { return &v }

func ptrT(v time.Time) *time.Time { return &v }
