package checkout

import (
	"context"

	"gorm.io/gorm"

	"github.com/ZiadAmrAbdElmonaam/embabi-store-next-sub000/internal/domain"
)

// Snapshot is one consistent view of every catalog record a cart references,
// loaded in a single read pass before validation. Stock figures in it are a
// point-in-time read; the commit transaction re-checks them authoritatively.
type Snapshot struct {
	products map[int64]*domain.Product
}

// Product returns the snapshot record for id, or nil when the cart referenced
// an unknown product.
func (s *Snapshot) Product(id int64) *domain.Product {
	return s.products[id]
}

// CatalogRepository loads catalog records for checkout validation.
type CatalogRepository interface {
	// LoadSnapshot fetches every product in ids with its color variants and,
	// for STORAGE products, its storages and their units.
	LoadSnapshot(ctx context.Context, ids []int64) (*Snapshot, error)

	// GetCoupon retrieves a coupon by id.
	GetCoupon(ctx context.Context, id int64) (*domain.Coupon, error)

	// GetCouponByCode retrieves a coupon by its public code.
	GetCouponByCode(ctx context.Context, code string) (*domain.Coupon, error)

	// CountCouponOrders counts the user's prior non-cancelled orders that
	// reference the coupon.
	CountCouponOrders(ctx context.Context, couponID, userID int64) (int64, error)
}

// GormCatalogRepository is the GORM implementation of CatalogRepository.
type GormCatalogRepository struct {
	db *gorm.DB
}

func NewGormCatalogRepository(db *gorm.DB) *GormCatalogRepository {
	return &GormCatalogRepository{db: db}
}

func (r *GormCatalogRepository) LoadSnapshot(ctx context.Context, ids []int64) (*Snapshot, error) {
	var products []*domain.Product
	err := r.db.WithContext(ctx).
		Preload("Variants").
		Preload("Storages").
		Preload("Storages.Units").
		Where("id IN ?", ids).
		Find(&products).Error
	if err != nil {
		return nil, err
	}
	snap := &Snapshot{products: make(map[int64]*domain.Product, len(products))}
	for _, p := range products {
		snap.products[p.ID] = p
	}
	return snap, nil
}

func (r *GormCatalogRepository) GetCoupon(ctx context.Context, id int64) (*domain.Coupon, error) {
	var coupon domain.Coupon
	if err := r.db.WithContext(ctx).First(&coupon, id).Error; err != nil {
		return nil, err
	}
	return &coupon, nil
}

func (r *GormCatalogRepository) GetCouponByCode(ctx context.Context, code string) (*domain.Coupon, error) {
	var coupon domain.Coupon
	if err := r.db.WithContext(ctx).Where("code = ?", code).First(&coupon).Error; err != nil {
		return nil, err
	}
	return &coupon, nil
}

func (r *GormCatalogRepository) CountCouponOrders(ctx context.Context, couponID, userID int64) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).
		Model(&domain.Order{}).
		Where("coupon_id = ? AND user_id = ? AND status <> ?", couponID, userID, domain.OrderStatusCancelled).
		Count(&total).Error
	return total, err
}

// distinctProductIDs collapses cart lines to the unique product id set so the
// snapshot is loaded once per product regardless of how many lines share it.
func distinctProductIDs(lines []CartLine) []int64 {
	seen := make(map[int64]struct{}, len(lines))
	ids := make([]int64, 0, len(lines))
	for _, ln := range lines {
		if _, ok := seen[ln.ProductID]; ok {
			continue
		}
		seen[ln.ProductID] = struct{}{}
		ids = append(ids, ln.ProductID)
	}
	return ids
}
