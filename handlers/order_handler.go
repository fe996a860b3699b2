package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/pedrignacio/tu-kiosko/clients"
	"github.com/pedrignacio/tu-kiosko/models"
	"github.com/pedrignacio/tu-kiosko/orders"
	"github.com/pedrignacio/tu-kiosko/validators"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type PaymentCreator interface {
	CreatePayment(ctx context.Context, amount decimal.Decimal, orderID string) (json.RawMessage, error)
}

type OrderHandler struct {
	orders   orders.Store
	payments PaymentCreator
	logger   *zap.Logger
}

func NewOrderHandler(store orders.Store, payments PaymentCreator, logger *zap.Logger) *OrderHandler {
	return &OrderHandler{
		orders:   store,
		payments: payments,
		logger:   logger,
	}
}

// GetOrder handles GET /orders/{orderId}
func (h *OrderHandler) GetOrder(c *gin.Context) {
	order, ok := h.lookup(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, order)
}

// CreatePayment handles POST /sessions/{sessionId}/orders/{orderId}/payment
func (h *OrderHandler) CreatePayment(c *gin.Context) {
	if !validators.ValidateCommerceOrder(c.Param("orderId")) {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "INVALID_INPUT",
			Message: "Invalid order ID",
		})
		return
	}

	order, ok := h.lookup(c)
	if !ok {
		return
	}
	if order.SessionID != c.Param("sessionId") {
		c.JSON(http.StatusNotFound, models.ErrorResponse{
			Error:   "NOT_FOUND",
			Message: "Order not found",
		})
		return
	}

	session, err := h.payments.CreatePayment(c.Request.Context(), order.TotalAmount, order.OrderID)
	if err != nil {
		h.logger.Warn("payment session creation failed", zap.String("order_id", order.OrderID), zap.Error(err))
		status := http.StatusInternalServerError
		if errors.Is(err, clients.ErrPaymentFailed) {
			status = http.StatusBadGateway
		}
		c.JSON(status, models.ErrorResponse{
			Error:   "PAYMENT_FAILED",
			Message: "Could not start the payment",
			Details: err.Error(),
		})
		return
	}

	h.logger.Info("payment session created", zap.String("order_id", order.OrderID))
	c.Data(http.StatusOK, "application/json; charset=utf-8", session)
}

func (h *OrderHandler) lookup(c *gin.Context) (models.Order, bool) {
	order, err := h.orders.Get(c.Request.Context(), c.Param("orderId"))
	if errors.Is(err, orders.ErrNotFound) {
		c.JSON(http.StatusNotFound, models.ErrorResponse{
			Error:   "NOT_FOUND",
			Message: "Order not found",
		})
		return models.Order{}, false
	}
	if err != nil {
		h.logger.Error("order lookup failed", zap.String("order_id", c.Param("orderId")), zap.Error(err))
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "STORAGE_ERROR",
			Message: "Could not load order",
		})
		return models.Order{}, false
	}
	return order, true
}
