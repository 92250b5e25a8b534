package checkout

import (
	"context"

	"go.uber.org/zap"

	"github.com/ZiadAmrAbdElmonaam/embabi-store-next-sub000/internal/domain"
)

// AuditStockCounters recomputes the variant and unit sums and compares them
// to the denormalized product/storage aggregates the commit transaction
// maintains. Read-only: drift is logged for the operator, never silently
// repaired. Returns the number of drifting counters found.
func (s *Service) AuditStockCounters(ctx context.Context) (int, error) {
	drift := 0

	var products []domain.Product
	err := s.db.WithContext(ctx).
		Preload("Variants").
		Where("type = ?", domain.ProductTypeSimple).
		Find(&products).Error
	if err != nil {
		return 0, err
	}
	for i := range products {
		p := &products[i]
		if len(p.Variants) == 0 {
			continue
		}
		sum := 0
		for _, v := range p.Variants {
			sum += v.Quantity
		}
		if sum != p.Stock {
			drift++
			zap.L().Warn("product stock drifts from variant sum",
				zap.Int64("product_id", p.ID),
				zap.Int("stock", p.Stock),
				zap.Int("variant_sum", sum))
		}
	}

	var storages []domain.Storage
	if err := s.db.WithContext(ctx).Preload("Units").Find(&storages).Error; err != nil {
		return drift, err
	}
	for i := range storages {
		st := &storages[i]
		if len(st.Units) == 0 {
			continue
		}
		sum := 0
		for _, u := range st.Units {
			sum += u.Stock
		}
		if sum != st.Stock {
			drift++
			zap.L().Warn("storage stock drifts from unit sum",
				zap.Int64("storage_id", st.ID),
				zap.Int64("product_id", st.ProductID),
				zap.Int("stock", st.Stock),
				zap.Int("unit_sum", sum))
		}
	}

	return drift, nil
}
