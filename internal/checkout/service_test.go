package checkout

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/ZiadAmrAbdElmonaam/embabi-store-next-sub000/internal/domain"
)

func TestPlaceOrderCashEndToEnd(t *testing.T) {
	env := newTestEnv(t)
	p := env.seedSimple(t, "USB Charger", 100, 5)

	result, err := env.svc.PlaceOrder(context.Background(), 7,
		cashOrder(CartLine{ProductID: p.ID, Quantity: 2, Price: 100}))
	require.NoError(t, err)

	assert.Equal(t, 250.0, result.Total) // 2*100 + 50 shipping
	assert.Equal(t, domain.OrderStatusPending, result.Status)
	assert.Equal(t, 3, env.productStock(t, p.ID))

	var order domain.Order
	require.NoError(t, env.db.Preload("Items").First(&order, result.OrderID).Error)
	assert.Equal(t, int64(7), order.UserID)
	assert.Equal(t, domain.PaymentStatusPending, order.PaymentStatus)
	require.Len(t, order.Items, 1)
	assert.Equal(t, 100.0, order.Items[0].Price)
	assert.Equal(t, domain.OrderItemActive, order.Items[0].Status)

	// handoff published, gateway untouched for cash
	events := env.bus.published()
	require.Len(t, events, 1)
	assert.Equal(t, result.OrderID, events[0].OrderID)
	assert.Zero(t, atomic.LoadInt32(&env.gateway.calls))
}

func TestPlaceOrderStorageUnitEndToEnd(t *testing.T) {
	env := newTestEnv(t)
	p := env.seedStorage(t, "Phone X", domain.Storage{
		Size: "128GB", Price: 500, Stock: 1,
		Units: []domain.StorageUnit{{
			Color: "Black", Stock: 1,
			TaxStatus: domain.TaxStatusPaid, TaxType: domain.TaxTypeFixed, TaxAmount: 50,
		}},
	})
	var storage domain.Storage
	require.NoError(t, env.db.Preload("Units").Where("product_id = ?", p.ID).First(&storage).Error)
	unit := storage.Units[0]

	req := cashOrder(CartLine{ProductID: p.ID, Quantity: 1, StorageID: &storage.ID, Color: "Black"})
	result, err := env.svc.PlaceOrder(context.Background(), 7, req)
	require.NoError(t, err)

	var item domain.OrderItem
	require.NoError(t, env.db.Where("order_id = ?", result.OrderID).First(&item).Error)
	assert.Equal(t, 550.0, item.Price)
	require.NotNil(t, item.UnitID)
	assert.Equal(t, unit.ID, *item.UnitID)

	assert.Equal(t, 0, env.unitStock(t, unit.ID))
	assert.Equal(t, 0, env.storageStock(t, storage.ID))

	// identical follow-up must fail on stock
	_, err = env.svc.PlaceOrder(context.Background(), 7, req)
	require.Error(t, err)
	assert.True(t, IsStage(err, StageStock))
}

func TestPlaceOrderColoredDecrementsBothCounters(t *testing.T) {
	env := newTestEnv(t)
	p := env.seedSimple(t, "Case", 40, 7,
		domain.ColorVariant{Color: "Black", Quantity: 4},
		domain.ColorVariant{Color: "Red", Quantity: 3})
	var variant domain.ColorVariant
	require.NoError(t, env.db.Where("product_id = ? AND color = ?", p.ID, "Black").First(&variant).Error)

	_, err := env.svc.PlaceOrder(context.Background(), 7,
		cashOrder(CartLine{ProductID: p.ID, Quantity: 3, Color: "Black"}))
	require.NoError(t, err)

	// variant and aggregate move together, by the same amount
	assert.Equal(t, 1, env.variantQty(t, variant.ID))
	assert.Equal(t, 4, env.productStock(t, p.ID))
}

func TestPlaceOrderAtomicRollback(t *testing.T) {
	env := newTestEnv(t)
	// two lines against the same counter pass the snapshot check separately
	// but cannot both be debited; the whole attempt must vanish
	p := env.seedSimple(t, "Charger", 100, 5)

	_, err := env.svc.PlaceOrder(context.Background(), 7, cashOrder(
		CartLine{ProductID: p.ID, Quantity: 3},
		CartLine{ProductID: p.ID, Quantity: 3},
	))
	require.Error(t, err)
	assert.True(t, IsStage(err, StageStock))

	assert.Equal(t, 5, env.productStock(t, p.ID))
	assert.Zero(t, env.orderCount(t))
	assert.Zero(t, env.itemCount(t))
	assert.Empty(t, env.bus.published())
}

func TestPlaceOrderNoOversellUnderConcurrency(t *testing.T) {
	env := newTestEnv(t)
	p := env.seedSimple(t, "Hot Deal", 10, 5)

	var success, stockFail int32
	g := new(errgroup.Group)
	for i := 0; i < 10; i++ {
		userID := int64(100 + i)
		g.Go(func() error {
			_, err := env.svc.PlaceOrder(context.Background(), userID,
				cashOrder(CartLine{ProductID: p.ID, Quantity: 1}))
			switch {
			case err == nil:
				atomic.AddInt32(&success, 1)
			case IsStage(err, StageStock):
				atomic.AddInt32(&stockFail, 1)
			default:
				return err
			}
			return nil
		})
	}
	require.NoError(t, g.Wait())

	assert.Equal(t, int32(5), success)
	assert.Equal(t, int32(5), stockFail)
	assert.Equal(t, 0, env.productStock(t, p.ID))
	assert.Equal(t, int64(5), env.orderCount(t))
}

func TestPlaceOrderWithCoupon(t *testing.T) {
	env := newTestEnv(t)
	p := env.seedSimple(t, "Charger", 100, 5)
	coupon := env.seedCoupon(t, &domain.Coupon{
		Code: "SAVE10", Type: domain.CouponTypePercentage, Value: 10, IsEnabled: true,
	})

	req := cashOrder(CartLine{ProductID: p.ID, Quantity: 2})
	req.CouponID = &coupon.ID
	result, err := env.svc.PlaceOrder(context.Background(), 7, req)
	require.NoError(t, err)

	assert.Equal(t, 20.0, result.DiscountAmount)
	assert.Equal(t, 230.0, result.Total) // 200 + 50 - 20

	var stored domain.Coupon
	require.NoError(t, env.db.First(&stored, coupon.ID).Error)
	assert.Equal(t, 1, stored.UsedCount)

	var order domain.Order
	require.NoError(t, env.db.First(&order, result.OrderID).Error)
	require.NotNil(t, order.CouponID)
	assert.Equal(t, coupon.ID, *order.CouponID)
}

func TestPlaceOrderCouponUserLimit(t *testing.T) {
	env := newTestEnv(t)
	p := env.seedSimple(t, "Charger", 100, 50)
	coupon := env.seedCoupon(t, &domain.Coupon{
		Code: "ONCE", Type: domain.CouponTypeFixed, Value: 30, IsEnabled: true, UserLimit: ptrI(1),
	})

	order := func() (*PlaceOrderResult, error) {
		req := cashOrder(CartLine{ProductID: p.ID, Quantity: 1})
		req.CouponID = &coupon.ID
		return env.svc.PlaceOrder(context.Background(), 7, req)
	}

	_, err := order()
	require.NoError(t, err)

	_, err = order()
	require.Error(t, err)
	assert.True(t, IsStage(err, StageCoupon))

	// a different user still can redeem
	req := cashOrder(CartLine{ProductID: p.ID, Quantity: 1})
	req.CouponID = &coupon.ID
	_, err = env.svc.PlaceOrder(context.Background(), 8, req)
	require.NoError(t, err)
}

func TestPlaceOrderCouponUserLimitRace(t *testing.T) {
	env := newTestEnv(t)
	p := env.seedSimple(t, "Charger", 100, 50)
	coupon := env.seedCoupon(t, &domain.Coupon{
		Code: "ONCE", Type: domain.CouponTypeFixed, Value: 30, IsEnabled: true, UserLimit: ptrI(1),
	})

	var success int32
	g := new(errgroup.Group)
	for i := 0; i < 2; i++ {
		g.Go(func() error {
			req := cashOrder(CartLine{ProductID: p.ID, Quantity: 1})
			req.CouponID = &coupon.ID
			_, err := env.svc.PlaceOrder(context.Background(), 7, req)
			if err == nil {
				atomic.AddInt32(&success, 1)
				return nil
			}
			if IsStage(err, StageCoupon) {
				return nil
			}
			return err
		})
	}
	require.NoError(t, g.Wait())

	assert.Equal(t, int32(1), success)
	var stored domain.Coupon
	require.NoError(t, env.db.First(&stored, coupon.ID).Error)
	assert.Equal(t, 1, stored.UsedCount)
}

func TestPlaceOrderCouponMinimumSoftAtCheckout(t *testing.T) {
	env := newTestEnv(t)
	p := env.seedSimple(t, "Cable", 50, 10)
	coupon := env.seedCoupon(t, &domain.Coupon{
		Code: "BIG", Type: domain.CouponTypePercentage, Value: 20, IsEnabled: true,
		MinimumOrderAmount: ptrF(500),
	})

	// apply step hard-rejects
	_, err := env.svc.ApplyCoupon(context.Background(), 7, "BIG", 100)
	require.Error(t, err)
	assert.True(t, IsStage(err, StageCoupon))

	// checkout proceeds with zero discount
	req := cashOrder(CartLine{ProductID: p.ID, Quantity: 2})
	req.CouponID = &coupon.ID
	result, err := env.svc.PlaceOrder(context.Background(), 7, req)
	require.NoError(t, err)
	assert.Equal(t, 0.0, result.DiscountAmount)
	assert.Equal(t, 150.0, result.Total)
}

func TestPlaceOrderPriceFrozenAfterCatalogEdit(t *testing.T) {
	env := newTestEnv(t)
	p := env.seedSimple(t, "Charger", 100, 5)

	result, err := env.svc.PlaceOrder(context.Background(), 7,
		cashOrder(CartLine{ProductID: p.ID, Quantity: 1}))
	require.NoError(t, err)

	require.NoError(t, env.db.Model(&domain.Product{}).
		Where("id = ?", p.ID).Update("price", 999).Error)

	var item domain.OrderItem
	require.NoError(t, env.db.Where("order_id = ?", result.OrderID).First(&item).Error)
	assert.Equal(t, 100.0, item.Price)
}

func TestPlaceOrderMaintenanceShortCircuit(t *testing.T) {
	env := newTestEnv(t)
	env.settings.maintenance = true
	p := env.seedSimple(t, "Charger", 100, 5)

	_, err := env.svc.PlaceOrder(context.Background(), 7,
		cashOrder(CartLine{ProductID: p.ID, Quantity: 1}))
	require.Error(t, err)
	assert.True(t, IsStage(err, StageMaintenance))
	assert.Equal(t, 5, env.productStock(t, p.ID))
}

func TestPlaceOrderInputRejections(t *testing.T) {
	env := newTestEnv(t)

	cases := []struct {
		name string
		req  PlaceOrderRequest
	}{
		{"empty cart", PlaceOrderRequest{Shipping: shippingFixture(), PaymentMethod: domain.PaymentMethodCash}},
		{"zero quantity", cashOrder(CartLine{ProductID: 1, Quantity: 0})},
		{"missing shipping", PlaceOrderRequest{
			Lines:         []CartLine{{ProductID: 1, Quantity: 1}},
			PaymentMethod: domain.PaymentMethodCash,
		}},
		{"bad payment method", PlaceOrderRequest{
			Lines:         []CartLine{{ProductID: 1, Quantity: 1}},
			Shipping:      shippingFixture(),
			PaymentMethod: "wire",
		}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := env.svc.PlaceOrder(context.Background(), 7, tc.req)
			require.Error(t, err)
			assert.True(t, IsStage(err, StageInput))
		})
	}
}

func TestPlaceOrderOnlinePayment(t *testing.T) {
	t.Run("intent created", func(t *testing.T) {
		env := newTestEnv(t)
		p := env.seedSimple(t, "Charger", 100, 5)

		req := cashOrder(CartLine{ProductID: p.ID, Quantity: 1})
		req.PaymentMethod = domain.PaymentMethodOnline
		result, err := env.svc.PlaceOrder(context.Background(), 7, req)
		require.NoError(t, err)

		assert.Equal(t, domain.OrderStatusProcessing, result.Status)
		assert.True(t, result.PaymentStarted)
		assert.Equal(t, int32(1), atomic.LoadInt32(&env.gateway.calls))
	})

	t.Run("gateway failure keeps the order", func(t *testing.T) {
		env := newTestEnv(t)
		env.gateway.fail = true
		p := env.seedSimple(t, "Charger", 100, 5)

		req := cashOrder(CartLine{ProductID: p.ID, Quantity: 1})
		req.PaymentMethod = domain.PaymentMethodOnline
		result, err := env.svc.PlaceOrder(context.Background(), 7, req)
		require.NoError(t, err)

		assert.False(t, result.PaymentStarted)
		assert.NotEmpty(t, result.PaymentNote)
		assert.Equal(t, int64(1), env.orderCount(t))
		assert.Equal(t, 4, env.productStock(t, p.ID))
	})
}

func TestApplyCoupon(t *testing.T) {
	env := newTestEnv(t)
	env.seedCoupon(t, &domain.Coupon{
		Code: "SAVE10", Type: domain.CouponTypePercentage, Value: 10, IsEnabled: true,
	})

	quote, err := env.svc.ApplyCoupon(context.Background(), 7, "SAVE10", 300)
	require.NoError(t, err)
	assert.Equal(t, 30.0, quote.Discount)

	_, err = env.svc.ApplyCoupon(context.Background(), 7, "NOPE", 300)
	require.Error(t, err)
	assert.True(t, IsStage(err, StageCoupon))
}

func TestPlaceOrderCommitTimeout(t *testing.T) {
	env := newTestEnv(t)
	p := env.seedSimple(t, "Charger", 100, 5)
	// a commit budget that has already elapsed must fail closed
	env.svc.commitTimeout = time.Nanosecond

	_, err := env.svc.PlaceOrder(context.Background(), 7,
		cashOrder(CartLine{ProductID: p.ID, Quantity: 1}))
	require.Error(t, err)
	assert.Zero(t, env.orderCount(t))
	assert.Equal(t, 5, env.productStock(t, p.ID))
}
