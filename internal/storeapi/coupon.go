package storeapi

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
)

type applyCouponPayload struct {
	Code     string  `json:"code" form:"code"`
	Subtotal float64 `json:"subtotal" form:"subtotal"`
}

// applyCoupon is the pre-checkout verification step. The quote it returns is
// carried into checkout and re-verified inside the commit transaction, so a
// stale quote can never redeem a coupon past its limits.
func (s *Server) applyCoupon(c echo.Context) error {
	var payload applyCouponPayload
	if err := c.Bind(&payload); err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "unable to parse coupon request", err.Error())
	}
	payload.Code = strings.TrimSpace(payload.Code)
	if payload.Code == "" {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "coupon code is required", nil)
	}
	if payload.Subtotal <= 0 {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "subtotal must be positive", nil)
	}

	quote, err := s.app.Checkout().ApplyCoupon(c.Request().Context(), currentUserID(c), payload.Code, payload.Subtotal)
	if err != nil {
		return failCheckout(c, err)
	}
	return ok(c, quote)
}
