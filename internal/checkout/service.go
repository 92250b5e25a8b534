package checkout

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/ZiadAmrAbdElmonaam/embabi-store-next-sub000/internal/domain"
)

// TopicOrderCreated is published on the event bus after every committed
// order. Subscribers run outside the transaction; their failures never roll
// the order back.
const TopicOrderCreated = "checkout.order.created"

// OrderCreatedEvent is the post-commit handoff payload.
type OrderCreatedEvent struct {
	OrderID       int64
	UserID        int64
	Total         float64
	PaymentMethod string
}

// SettingsReader exposes the site settings the checkout path consults. The
// maintenance flag short-circuits order placement before any catalog read.
type SettingsReader interface {
	GetBool(category, name string) bool
	GetFloat64(category, name string) float64
}

// PaymentGateway creates a payment intent for a committed order. The real
// gateway redirect flow lives outside this service.
type PaymentGateway interface {
	CreateIntent(ctx context.Context, orderID int64, amount float64) (string, error)
}

// EventPublisher is the slice of the event bus the service needs.
type EventPublisher interface {
	Publish(topic string, args ...interface{})
}

// Service is the order placement and inventory reconciliation engine. All
// cross-request coordination happens through the relational store's own
// locking inside the commit transaction; the service itself holds no mutable
// state shared between requests.
type Service struct {
	db            *gorm.DB
	catalog       CatalogRepository
	settings      SettingsReader
	payments      PaymentGateway
	bus           EventPublisher
	commitTimeout time.Duration
}

func NewService(db *gorm.DB, catalog CatalogRepository, settings SettingsReader,
	payments PaymentGateway, bus EventPublisher, commitTimeout time.Duration) *Service {
	if commitTimeout <= 0 {
		commitTimeout = 5 * time.Second
	}
	return &Service{
		db:            db,
		catalog:       catalog,
		settings:      settings,
		payments:      payments,
		bus:           bus,
		commitTimeout: commitTimeout,
	}
}

// PlaceOrder runs the whole checkout pipeline for one user: maintenance
// gate, input validation, catalog snapshot, stock/price plan, coupon
// re-validation, the atomic commit, then the post-commit handoff.
func (s *Service) PlaceOrder(ctx context.Context, userID int64, req PlaceOrderRequest) (*PlaceOrderResult, error) {
	if s.settings.GetBool("checkout", "maintenance_mode") {
		return nil, errMaintenance()
	}
	if cerr := req.validate(); cerr != nil {
		return nil, cerr
	}

	snap, err := s.catalog.LoadSnapshot(ctx, distinctProductIDs(req.Lines))
	if err != nil {
		return nil, errCommit(err)
	}

	now := time.Now()
	plan, cerr := BuildPlan(snap, req.Lines, now)
	if cerr != nil {
		return nil, cerr
	}

	// Fast-fail coupon check before the transaction. The commit re-runs the
	// same rules under a row lock, so a race here only costs a rollback.
	var coupon *domain.Coupon
	if req.CouponID != nil {
		coupon, err = s.catalog.GetCoupon(ctx, *req.CouponID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errCoupon("COUPON_NOT_FOUND", "coupon does not exist")
		}
		if err != nil {
			return nil, errCommit(err)
		}
		prior, err := s.catalog.CountCouponOrders(ctx, coupon.ID, userID)
		if err != nil {
			return nil, errCommit(err)
		}
		if _, cerr := EvaluateCoupon(coupon, plan.Subtotal, prior, now, CouponAtCommit); cerr != nil {
			return nil, cerr
		}
	}

	shipping := s.shippingFee()
	order, err := s.commit(ctx, userID, req, plan, coupon, shipping, now)
	if err != nil {
		var ce *Error
		if errors.As(err, &ce) {
			return nil, ce
		}
		zap.L().Error("order commit failed",
			zap.Int64("user_id", userID),
			zap.Error(err))
		return nil, errCommit(err)
	}

	zap.L().Info("order committed",
		zap.Int64("order_id", order.ID),
		zap.Int64("user_id", userID),
		zap.Float64("total", order.Total),
		zap.String("payment_method", order.PaymentMethod))

	result := &PlaceOrderResult{
		OrderID:        order.ID,
		Total:          order.Total,
		DiscountAmount: order.DiscountAmount,
		Status:         order.Status,
		PaymentStarted: true,
	}

	if s.bus != nil {
		s.bus.Publish(TopicOrderCreated, OrderCreatedEvent{
			OrderID:       order.ID,
			UserID:        order.UserID,
			Total:         order.Total,
			PaymentMethod: order.PaymentMethod,
		})
	}

	// Payment intent creation is deliberately outside the transaction: the
	// order is a committed fact by now, and a gateway failure only degrades
	// the response to "pay on delivery or retry".
	if order.PaymentMethod == domain.PaymentMethodOnline && s.payments != nil {
		if _, perr := s.payments.CreateIntent(ctx, order.ID, order.Total); perr != nil {
			zap.L().Error("payment intent creation failed after commit",
				zap.Int64("order_id", order.ID),
				zap.Error(perr))
			result.PaymentStarted = false
			result.PaymentNote = "payment could not be started; the order was recorded, pay on delivery or retry payment"
		}
	}

	return result, nil
}

// ApplyCoupon is the pre-checkout verification step. It shares EvaluateCoupon
// with the commit path but hard-rejects every rule, including the minimum
// order amount.
func (s *Service) ApplyCoupon(ctx context.Context, userID int64, code string, subtotal float64) (*CouponQuote, error) {
	coupon, err := s.catalog.GetCouponByCode(ctx, code)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errCoupon("COUPON_NOT_FOUND", "coupon does not exist")
	}
	if err != nil {
		return nil, errCommit(err)
	}
	prior, err := s.catalog.CountCouponOrders(ctx, coupon.ID, userID)
	if err != nil {
		return nil, errCommit(err)
	}
	discount, cerr := EvaluateCoupon(coupon, subtotal, prior, time.Now(), CouponAtApply)
	if cerr != nil {
		return nil, cerr
	}
	return &CouponQuote{CouponID: coupon.ID, Code: coupon.Code, Discount: discount}, nil
}

// CouponQuote is the result of the apply-coupon step, carried by the client
// into checkout and re-verified at commit time.
type CouponQuote struct {
	CouponID int64   `json:"coupon_id,string"`
	Code     string  `json:"code"`
	Discount float64 `json:"discount"`
}

func (s *Service) shippingFee() float64 {
	return s.settings.GetFloat64("checkout", "shipping_fee")
}
