package checkout

import (
	"time"

	"github.com/ZiadAmrAbdElmonaam/embabi-store-next-sub000/internal/domain"
)

// CouponMode selects which side of the two-step coupon flow is evaluating:
// the pre-checkout apply step or the commit-time re-validation. Both share
// this one rule set; the only behavioural difference is the unmet minimum
// order amount, which hard-rejects at apply time but silently yields a zero
// discount at commit time so a coupon technicality never blocks a checkout
// already in flight.
type CouponMode int

const (
	CouponAtApply CouponMode = iota
	CouponAtCommit
)

// EvaluateCoupon runs the coupon rule set against one subtotal and the
// user's prior redemption count, returning the discount amount. The discount
// is capped at the subtotal so an order total can never go negative.
func EvaluateCoupon(coupon *domain.Coupon, subtotal float64, priorUses int64, now time.Time, mode CouponMode) (float64, *Error) {
	if !coupon.IsEnabled {
		return 0, errCoupon("COUPON_DISABLED", "coupon is no longer active")
	}
	if coupon.EndDate != nil && coupon.EndDate.Before(now) {
		return 0, errCoupon("COUPON_EXPIRED", "coupon has expired")
	}
	if coupon.UserLimit != nil && priorUses >= int64(*coupon.UserLimit) {
		return 0, errCoupon("COUPON_LIMIT_REACHED", "coupon usage limit reached for this account")
	}
	if coupon.MinimumOrderAmount != nil && subtotal < *coupon.MinimumOrderAmount {
		if mode == CouponAtApply {
			return 0, errCoupon("COUPON_MINIMUM_NOT_MET", "order subtotal is below the coupon minimum")
		}
		return 0, nil
	}

	var discount float64
	switch coupon.Type {
	case domain.CouponTypePercentage:
		discount = subtotal * coupon.Value / 100
	case domain.CouponTypeFixed:
		discount = coupon.Value
	default:
		return 0, errCoupon("COUPON_INVALID", "coupon has an unknown discount type")
	}
	if discount > subtotal {
		discount = subtotal
	}
	return discount, nil
}
