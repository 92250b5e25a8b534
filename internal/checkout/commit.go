package checkout

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/ZiadAmrAbdElmonaam/embabi-store-next-sub000/internal/domain"
	"github.com/ZiadAmrAbdElmonaam/embabi-store-next-sub000/pkg/common"
)

// commit executes the atomic unit: order row, order items, stock decrements
// at the resolved granularity, coupon usage. The whole unit runs under one
// transaction bounded by the commit timeout; on any failure nothing
// persists. Stock conditions are enforced by conditional updates whose
// zero-rows-affected result is the authoritative oversell guard; the plan's
// read-time check may be stale by now and that is expected.
func (s *Service) commit(ctx context.Context, userID int64, req PlaceOrderRequest,
	plan *Plan, coupon *domain.Coupon, shipping float64, now time.Time) (*domain.Order, error) {

	ctx, cancel := context.WithTimeout(ctx, s.commitTimeout)
	defer cancel()

	status := domain.OrderStatusPending
	if req.PaymentMethod == domain.PaymentMethodOnline {
		status = domain.OrderStatusProcessing
	}

	order := &domain.Order{
		ID:            common.UUIDint64(),
		UserID:        userID,
		Status:        status,
		PaymentStatus: domain.PaymentStatusPending,
		PaymentMethod: req.PaymentMethod,
		ShippingName:  req.Shipping.Name,
		ShippingPhone: req.Shipping.Phone,
		ShippingAddr:  req.Shipping.Address,
		ShippingCity:  req.Shipping.City,
		ShippingNotes: req.Shipping.Notes,
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var discount float64
		if coupon != nil {
			// Lock the coupon row so racing redemptions serialize, then
			// re-run the rule set on the locked state. The pre-transaction
			// check may have seen a count that another request has since
			// consumed.
			var locked domain.Coupon
			if err := lockForUpdate(tx).First(&locked, coupon.ID).Error; err != nil {
				return err
			}
			var prior int64
			if err := tx.Model(&domain.Order{}).
				Where("coupon_id = ? AND user_id = ? AND status <> ?",
					locked.ID, userID, domain.OrderStatusCancelled).
				Count(&prior).Error; err != nil {
				return err
			}
			d, cerr := EvaluateCoupon(&locked, plan.Subtotal, prior, now, CouponAtCommit)
			if cerr != nil {
				return cerr
			}
			discount = d
			order.CouponID = &locked.ID
		}

		order.DiscountAmount = discount
		order.Total = plan.Subtotal + shipping - discount
		if err := tx.Create(order).Error; err != nil {
			return err
		}

		for i := range plan.Lines {
			pl := &plan.Lines[i]
			item := &domain.OrderItem{
				ID:        common.UUIDint64(),
				OrderID:   order.ID,
				ProductID: pl.Product.ID,
				Quantity:  pl.Quantity,
				Price:     pl.UnitPrice,
				Color:     pl.Color,
				Status:    domain.OrderItemActive,
			}
			if pl.Storage != nil {
				item.StorageID = &pl.Storage.ID
			}
			if pl.Unit != nil {
				item.UnitID = &pl.Unit.ID
			}
			if err := tx.Create(item).Error; err != nil {
				return err
			}
			if err := debitLine(tx, pl); err != nil {
				return err
			}
		}

		if coupon != nil {
			if err := tx.Model(&domain.Coupon{}).
				Where("id = ?", coupon.ID).
				Update("used_count", gorm.Expr("used_count + 1")).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}

// lockForUpdate adds FOR UPDATE row locking on stores that support it.
// sqlite has a single writer per database and rejects the clause.
func lockForUpdate(tx *gorm.DB) *gorm.DB {
	if tx.Dialector.Name() == "sqlite" {
		return tx
	}
	return tx.Clauses(clause.Locking{Strength: "UPDATE"})
}

// debitLine decrements every stock counter a plan line touches, at the
// granularity its selection mode resolved to. Aggregate counters (product
// stock over variants, storage stock over units) are debited in the same
// transaction by the same amount rather than recomputed.
func debitLine(tx *gorm.DB, pl *PlanLine) error {
	switch pl.Mode {
	case SelectPlain:
		return debitCounter(tx, &domain.Product{}, "stock", pl.Product.ID, pl.Quantity,
			errInsufficientStock(pl.Product.Name, ""))

	case SelectColored:
		insufficient := errInsufficientStock(pl.Product.Name, pl.Color)
		if err := debitCounter(tx, &domain.ColorVariant{}, "quantity", pl.Variant.ID, pl.Quantity, insufficient); err != nil {
			return err
		}
		return debitCounter(tx, &domain.Product{}, "stock", pl.Product.ID, pl.Quantity, insufficient)

	case SelectStoragePlain:
		return debitCounter(tx, &domain.Storage{}, "stock", pl.Storage.ID, pl.Quantity,
			errInsufficientStock(pl.Product.Name, ""))

	case SelectStorageUnit:
		insufficient := errInsufficientStock(pl.Product.Name, pl.Color)
		if err := debitCounter(tx, &domain.StorageUnit{}, "stock", pl.Unit.ID, pl.Quantity, insufficient); err != nil {
			return err
		}
		return debitCounter(tx, &domain.Storage{}, "stock", pl.Storage.ID, pl.Quantity, insufficient)
	}
	return fmt.Errorf("unhandled selection mode %v", pl.Mode)
}

// debitCounter applies `col = col - qty` guarded by `col >= qty`. Zero rows
// affected means another transaction consumed the stock first; the caller's
// insufficient-stock rejection is returned and the surrounding transaction
// rolls back.
func debitCounter(tx *gorm.DB, model interface{}, column string, id int64, qty int, insufficient *Error) error {
	res := tx.Model(model).
		Where(fmt.Sprintf("id = ? AND %s >= ?", column), id, qty).
		Update(column, gorm.Expr(fmt.Sprintf("%s - ?", column), qty))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return insufficient
	}
	return nil
}

// creditCounter is the restock mirror of debitCounter, used when a
// pre-shipment order is cancelled.
func creditCounter(tx *gorm.DB, model interface{}, column string, id int64, qty int) error {
	return tx.Model(model).
		Where("id = ?", id).
		Update(column, gorm.Expr(fmt.Sprintf("%s + ?", column), qty)).Error
}
