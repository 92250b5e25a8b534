package payment

import (
	"context"
	"fmt"
	"time"

	"github.com/guonaihong/gout"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// HTTPGateway creates payment intents against the external gateway the
// storefront redirects shoppers to. The order is already committed when this
// is called; any failure here degrades the response, never the order.
type HTTPGateway struct {
	intentURL string
	apiKey    string
	// SurchargePercent is the gateway's online-payment surcharge. It is
	// charged on top of the order total by the gateway and is not part of
	// the order record.
	SurchargePercent float64
}

func NewHTTPGateway(intentURL, apiKey string, surchargePercent float64) *HTTPGateway {
	return &HTTPGateway{
		intentURL:        intentURL,
		apiKey:           apiKey,
		SurchargePercent: surchargePercent,
	}
}

type intentResponse struct {
	IntentID string `json:"intent_id"`
	Status   string `json:"status"`
}

// CreateIntent registers the committed order with the gateway and returns
// the intent id the storefront redirects with.
func (g *HTTPGateway) CreateIntent(ctx context.Context, orderID int64, amount float64) (string, error) {
	if g.intentURL == "" {
		return "", errors.New("payment gateway is not configured")
	}

	charge := amount + amount*g.SurchargePercent/100
	var resp intentResponse
	err := gout.POST(g.intentURL).
		WithContext(ctx).
		SetTimeout(10 * time.Second).
		SetHeader(gout.H{"Authorization": "Bearer " + g.apiKey}).
		SetJSON(gout.H{
			"reference": fmt.Sprintf("order-%d", orderID),
			"amount":    charge,
			"currency":  "EGP",
		}).
		BindJSON(&resp).
		Do()
	if err != nil {
		return "", errors.Wrap(err, "create payment intent")
	}
	if resp.IntentID == "" {
		return "", errors.Errorf("gateway returned no intent id (status %q)", resp.Status)
	}

	zap.L().Info("payment intent created",
		zap.Int64("order_id", orderID),
		zap.String("intent_id", resp.IntentID),
		zap.Float64("charge", charge))
	return resp.IntentID, nil
}
