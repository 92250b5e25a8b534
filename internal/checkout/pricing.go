package checkout

import (
	"time"

	"github.com/ZiadAmrAbdElmonaam/embabi-store-next-sub000/internal/domain"
)

// saleActive reports whether a percentage sale is configured and its end date
// is strictly in the future at evaluation time.
func saleActive(pct *float64, end *time.Time, now time.Time) bool {
	return pct != nil && *pct > 0 && end != nil && end.After(now)
}

func applySale(base float64, pct *float64, end *time.Time, now time.Time) float64 {
	if saleActive(pct, end, now) {
		return base - base*(*pct)/100
	}
	return base
}

// ResolveSimplePrice returns the base and effective unit price of a SIMPLE
// product at now.
func ResolveSimplePrice(p *domain.Product, now time.Time) (base, effective float64) {
	base = p.Price
	effective = applySale(base, p.SalePercentage, p.SaleEndDate, now)
	return base, effective
}

// ResolveStoragePrice returns the base and effective unit price of a Storage
// tier, optionally qualified by a tax-bearing unit. Tax for a tax-PAID unit
// is added on top of the sale-adjusted price, never the original base.
func ResolveStoragePrice(s *domain.Storage, u *domain.StorageUnit, now time.Time) (base, effective float64) {
	base = s.Price
	effective = applySale(base, s.SalePercentage, s.SaleEndDate, now)
	if u != nil && u.TaxStatus == domain.TaxStatusPaid {
		switch u.TaxType {
		case domain.TaxTypeFixed:
			effective += u.TaxAmount
		case domain.TaxTypePercentage:
			effective += effective * u.TaxPercentage / 100
		}
	}
	return base, effective
}
