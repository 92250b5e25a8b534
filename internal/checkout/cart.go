package checkout

import (
	"strings"

	"github.com/ZiadAmrAbdElmonaam/embabi-store-next-sub000/internal/domain"
)

// CartLine is one already-reconciled cart entry as submitted at checkout.
// Price is the client's belief and is advisory only; the authoritative unit
// price is re-derived server side.
type CartLine struct {
	ProductID int64   `json:"product_id,string"`
	Quantity  int     `json:"quantity"`
	Price     float64 `json:"price"`
	Color     string  `json:"color"`
	StorageID *int64  `json:"storage_id,string,omitempty"`
}

// ShippingInfo is the delivery record captured with the order.
type ShippingInfo struct {
	Name    string `json:"name"`
	Phone   string `json:"phone"`
	Address string `json:"address"`
	City    string `json:"city"`
	Notes   string `json:"notes"`
}

// PlaceOrderRequest is the full checkout submission for one user.
type PlaceOrderRequest struct {
	Lines          []CartLine   `json:"lines"`
	Shipping       ShippingInfo `json:"shipping"`
	PaymentMethod  string       `json:"payment_method"`
	CouponID       *int64       `json:"coupon_id,string,omitempty"`
	DiscountAmount float64      `json:"discount_amount"`
}

// PlaceOrderResult reports a committed order. PaymentStarted is false when an
// online payment intent could not be created after the commit; the order
// itself stands regardless.
type PlaceOrderResult struct {
	OrderID        int64   `json:"order_id,string"`
	Total          float64 `json:"total"`
	DiscountAmount float64 `json:"discount_amount"`
	Status         string  `json:"status"`
	PaymentStarted bool    `json:"payment_started"`
	PaymentNote    string  `json:"payment_note,omitempty"`
}

func (r *PlaceOrderRequest) validate() *Error {
	if len(r.Lines) == 0 {
		return errInput("cart is empty")
	}
	for _, ln := range r.Lines {
		if ln.ProductID == 0 {
			return errInput("cart line missing product id")
		}
		if ln.Quantity < 1 {
			return errInput("cart line quantity must be at least 1")
		}
	}
	if strings.TrimSpace(r.Shipping.Name) == "" ||
		strings.TrimSpace(r.Shipping.Phone) == "" ||
		strings.TrimSpace(r.Shipping.Address) == "" ||
		strings.TrimSpace(r.Shipping.City) == "" {
		return errInput("shipping name, phone, address and city are required")
	}
	switch r.PaymentMethod {
	case domain.PaymentMethodCash, domain.PaymentMethodOnline:
	default:
		return errInput("payment method must be cash or online")
	}
	return nil
}
