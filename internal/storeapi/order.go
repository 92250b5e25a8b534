package storeapi

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/ZiadAmrAbdElmonaam/embabi-store-next-sub000/internal/checkout"
	"github.com/ZiadAmrAbdElmonaam/embabi-store-next-sub000/internal/domain"
)

// createOrder is the single checkout operation: an already-reconciled cart,
// shipping record, payment method and an optional pre-verified coupon
// reference. Every client-claimed amount is advisory and re-derived server
// side.
func (s *Server) createOrder(c echo.Context) error {
	var req checkout.PlaceOrderRequest
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "unable to parse order", err.Error())
	}

	result, err := s.app.Checkout().PlaceOrder(c.Request().Context(), currentUserID(c), req)
	if err != nil {
		return failCheckout(c, err)
	}
	return created(c, result)
}

// failCheckout maps the checkout error taxonomy onto HTTP statuses. Commit
// stage details stay server-side; clients get the generic retryable message.
func failCheckout(c echo.Context, err error) error {
	var ce *checkout.Error
	if !errors.As(err, &ce) {
		zap.L().Error("checkout failed", zap.Error(err))
		return fail(c, http.StatusInternalServerError, "ORDER_FAILED", "order could not be placed, please retry", nil)
	}
	switch ce.Stage {
	case checkout.StageMaintenance:
		return fail(c, http.StatusServiceUnavailable, ce.Code, ce.Message, nil)
	case checkout.StageInput, checkout.StageCatalog, checkout.StageCoupon:
		return fail(c, http.StatusBadRequest, ce.Code, ce.Message, nil)
	case checkout.StageStock:
		return fail(c, http.StatusConflict, ce.Code, ce.Message, nil)
	default:
		zap.L().Error("checkout commit failed", zap.Error(ce))
		return fail(c, http.StatusInternalServerError, ce.Code, ce.Message, nil)
	}
}

func (s *Server) getOrder(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid order ID", nil)
	}
	var order domain.Order
	q := s.app.DB().Preload("Items").Where("id = ?", id)
	if !isAdmin(c) {
		q = q.Where("user_id = ?", currentUserID(c))
	}
	if err := q.First(&order).Error; err != nil {
		return fail(c, http.StatusNotFound, "NOT_FOUND", "Order not found", nil)
	}
	return ok(c, order)
}

func (s *Server) listOrders(c echo.Context) error {
	page, pageSize := parsePagination(c)

	db := s.app.DB().Model(&domain.Order{})
	if !isAdmin(c) {
		db = db.Where("user_id = ?", currentUserID(c))
	}
	if status := c.QueryParam("status"); status != "" {
		db = db.Where("status = ?", status)
	}

	var total int64
	if err := db.Count(&total).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query orders", nil)
	}
	var rows []domain.Order
	if err := db.Order("created_at DESC").
		Offset((page - 1) * pageSize).Limit(pageSize).
		Find(&rows).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query orders", nil)
	}
	return paged(c, rows, total, page, pageSize)
}

func (s *Server) cancelOrder(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid order ID", nil)
	}
	userID := currentUserID(c)
	if isAdmin(c) {
		userID = 0
	}
	switch err := s.app.Checkout().CancelOrder(c.Request().Context(), id, userID); {
	case errors.Is(err, checkout.ErrOrderNotFound):
		return fail(c, http.StatusNotFound, "NOT_FOUND", "Order not found", nil)
	case errors.Is(err, checkout.ErrInvalidTransition):
		return fail(c, http.StatusConflict, "INVALID_TRANSITION", "Order can no longer be cancelled", nil)
	case err != nil:
		zap.L().Error("order cancel failed", zap.Int64("order_id", id), zap.Error(err))
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to cancel order", nil)
	}
	return ok(c, echo.Map{"order_id": strconv.FormatInt(id, 10), "status": domain.OrderStatusCancelled})
}

type statusPayload struct {
	Status string `json:"status" form:"status"`
}

func (s *Server) updateOrderStatus(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid order ID", nil)
	}
	var payload statusPayload
	if err := c.Bind(&payload); err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unable to parse status", err.Error())
	}
	switch err := s.app.Checkout().UpdateOrderStatus(c.Request().Context(), id, payload.Status); {
	case errors.Is(err, checkout.ErrOrderNotFound):
		return fail(c, http.StatusNotFound, "NOT_FOUND", "Order not found", nil)
	case errors.Is(err, checkout.ErrInvalidTransition):
		return fail(c, http.StatusConflict, "INVALID_TRANSITION", err.Error(), nil)
	case err != nil:
		zap.L().Error("order status update failed", zap.Int64("order_id", id), zap.Error(err))
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to update order", nil)
	}
	return ok(c, echo.Map{"order_id": strconv.FormatInt(id, 10), "status": payload.Status})
}

type paymentPayload struct {
	Success bool   `json:"success" form:"success"`
	Proof   string `json:"proof" form:"proof"`
}

// markPayment records the gateway callback verdict on an online order.
func (s *Server) markPayment(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid order ID", nil)
	}
	var payload paymentPayload
	if err := c.Bind(&payload); err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unable to parse payment", err.Error())
	}
	switch err := s.app.Checkout().MarkPayment(c.Request().Context(), id, payload.Success, payload.Proof); {
	case errors.Is(err, checkout.ErrOrderNotFound):
		return fail(c, http.StatusNotFound, "NOT_FOUND", "Order not found", nil)
	case errors.Is(err, checkout.ErrInvalidTransition):
		return fail(c, http.StatusConflict, "INVALID_TRANSITION", err.Error(), nil)
	case err != nil:
		zap.L().Error("payment mark failed", zap.Int64("order_id", id), zap.Error(err))
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to record payment", nil)
	}
	return ok(c, echo.Map{"order_id": strconv.FormatInt(id, 10)})
}

func isAdmin(c echo.Context) bool {
	level, _ := c.Get(ctxUserLevel).(string)
	return level == "super" || level == "admin"
}
