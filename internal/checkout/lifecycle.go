package checkout

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/ZiadAmrAbdElmonaam/embabi-store-next-sub000/internal/domain"
)

// ErrOrderNotFound is returned by lifecycle operations for an unknown id or
// an order the caller does not own.
var ErrOrderNotFound = errors.New("order not found")

// ErrInvalidTransition is returned when a status change breaks the order
// state machine.
var ErrInvalidTransition = errors.New("invalid order status transition")

// nextStatuses defines the forward edges of the order state machine.
// CANCELLED is reachable from any state before SHIPPED and is handled by
// CancelOrder because it also restocks.
var nextStatuses = map[string][]string{
	domain.OrderStatusPending:    {domain.OrderStatusShipped},
	domain.OrderStatusProcessing: {domain.OrderStatusShipped},
	domain.OrderStatusShipped:    {domain.OrderStatusDelivered},
}

// UpdateOrderStatus advances an order along the fulfilment state machine.
// Cancellation goes through CancelOrder so the stock credits happen in the
// same transaction as the status flip.
func (s *Service) UpdateOrderStatus(ctx context.Context, orderID int64, next string) error {
	if next == domain.OrderStatusCancelled {
		return s.CancelOrder(ctx, orderID, 0)
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var order domain.Order
		if err := lockForUpdate(tx).First(&order, orderID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrOrderNotFound
			}
			return err
		}
		if !transitionAllowed(order.Status, next) {
			return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, order.Status, next)
		}
		return tx.Model(&domain.Order{}).Where("id = ?", orderID).
			Update("status", next).Error
	})
}

func transitionAllowed(current, next string) bool {
	for _, allowed := range nextStatuses[current] {
		if allowed == next {
			return true
		}
	}
	return false
}

// CancelOrder cancels a pre-shipment order and restocks every ACTIVE item at
// the granularity it was sold at, in one transaction. userID scopes the
// cancellation to the owner; pass 0 for an administrative cancel.
func (s *Service) CancelOrder(ctx context.Context, orderID, userID int64) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var order domain.Order
		q := lockForUpdate(tx)
		if userID != 0 {
			q = q.Where("user_id = ?", userID)
		}
		if err := q.First(&order, orderID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrOrderNotFound
			}
			return err
		}
		switch order.Status {
		case domain.OrderStatusPending, domain.OrderStatusProcessing:
		default:
			return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, order.Status, domain.OrderStatusCancelled)
		}

		var items []domain.OrderItem
		if err := tx.Where("order_id = ? AND status = ?", orderID, domain.OrderItemActive).
			Find(&items).Error; err != nil {
			return err
		}
		for i := range items {
			if err := restockItem(tx, &items[i]); err != nil {
				return err
			}
		}
		if err := tx.Model(&domain.OrderItem{}).
			Where("order_id = ?", orderID).
			Update("status", domain.OrderItemCancelled).Error; err != nil {
			return err
		}
		return tx.Model(&domain.Order{}).Where("id = ?", orderID).
			Updates(map[string]interface{}{
				"status":         domain.OrderStatusCancelled,
				"payment_status": domain.PaymentStatusCancelled,
			}).Error
	})
	if err == nil {
		zap.L().Info("order cancelled and restocked", zap.Int64("order_id", orderID))
	}
	return err
}

// restockItem credits back the counters an item debited at commit time,
// re-deriving the granularity from the selection identifiers frozen on the
// item row.
func restockItem(tx *gorm.DB, item *domain.OrderItem) error {
	switch {
	case item.UnitID != nil:
		if err := creditCounter(tx, &domain.StorageUnit{}, "stock", *item.UnitID, item.Quantity); err != nil {
			return err
		}
		return creditCounter(tx, &domain.Storage{}, "stock", *item.StorageID, item.Quantity)

	case item.StorageID != nil:
		return creditCounter(tx, &domain.Storage{}, "stock", *item.StorageID, item.Quantity)

	case item.Color != "":
		res := tx.Model(&domain.ColorVariant{}).
			Where("product_id = ? AND color = ?", item.ProductID, item.Color).
			Update("quantity", gorm.Expr("quantity + ?", item.Quantity))
		if res.Error != nil {
			return res.Error
		}
		return creditCounter(tx, &domain.Product{}, "stock", item.ProductID, item.Quantity)

	default:
		return creditCounter(tx, &domain.Product{}, "stock", item.ProductID, item.Quantity)
	}
}

// MarkPayment records the gateway callback verdict on a PROCESSING online
// order. It never touches stock; a failed payment leaves the order for the
// stale-order sweeper or a manual retry.
func (s *Service) MarkPayment(ctx context.Context, orderID int64, success bool, proof string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var order domain.Order
		if err := lockForUpdate(tx).First(&order, orderID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrOrderNotFound
			}
			return err
		}
		if order.PaymentMethod != domain.PaymentMethodOnline {
			return fmt.Errorf("%w: payment callback on %s order", ErrInvalidTransition, order.PaymentMethod)
		}
		// A late callback must not resurrect an order the sweeper already
		// cancelled and restocked.
		if order.Status != domain.OrderStatusProcessing {
			return fmt.Errorf("%w: payment callback on %s order", ErrInvalidTransition, order.Status)
		}
		status := domain.PaymentStatusFailed
		if success {
			status = domain.PaymentStatusSuccess
		}
		updates := map[string]interface{}{"payment_status": status}
		if proof != "" {
			updates["payment_proof"] = proof
		}
		return tx.Model(&domain.Order{}).Where("id = ?", orderID).Updates(updates).Error
	})
}

// SweepStaleOnlineOrders cancels and restocks PROCESSING online orders whose
// payment never arrived within the window. Run periodically by the
// scheduler.
func (s *Service) SweepStaleOnlineOrders(ctx context.Context, window time.Duration) (int, error) {
	cutoff := time.Now().Add(-window)
	var stale []domain.Order
	err := s.db.WithContext(ctx).
		Where("status = ? AND payment_method = ? AND payment_status = ? AND created_at < ?",
			domain.OrderStatusProcessing, domain.PaymentMethodOnline,
			domain.PaymentStatusPending, cutoff).
		Limit(200).
		Find(&stale).Error
	if err != nil {
		return 0, err
	}
	swept := 0
	for i := range stale {
		if err := s.CancelOrder(ctx, stale[i].ID, 0); err != nil {
			zap.L().Warn("stale order sweep failed",
				zap.Int64("order_id", stale[i].ID), zap.Error(err))
			continue
		}
		swept++
	}
	return swept, nil
}
