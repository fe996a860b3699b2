package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/pedrignacio/tu-kiosko/cart"
	"github.com/pedrignacio/tu-kiosko/checkout"
	"github.com/pedrignacio/tu-kiosko/metrics"
	"github.com/pedrignacio/tu-kiosko/models"
	"github.com/pedrignacio/tu-kiosko/validators"
	"go.uber.org/zap"
)

const catalogPath = "/products"

type CheckoutHandler struct {
	carts    *cart.Manager
	pipeline *checkout.Pipeline
	metrics  *metrics.Metrics
	logger   *zap.Logger
}

type placedOrder struct {
	models.Confirmation
	Warning string `json:"warning,omitempty"`
}

type checkoutSummary struct {
	models.Quote
	State checkout.State `json:"state"`
}

func NewCheckoutHandler(carts *cart.Manager, pipeline *checkout.Pipeline, m *metrics.Metrics, logger *zap.Logger) *CheckoutHandler {
	return &CheckoutHandler{
		carts:    carts,
		pipeline: pipeline,
		metrics:  m,
		logger:   logger,
	}
}

// GetSummary handles GET /sessions/{sessionId}/checkout
func (h *CheckoutHandler) GetSummary(c *gin.Context) {
	sessionID := c.Param("sessionId")
	store, err := h.carts.Get(c.Request.Context(), sessionID)
	if err != nil {
		sessionError(c, h.logger, err)
		return
	}

	quote, err := h.pipeline.Quote(store)
	if errors.Is(err, checkout.ErrEmptyCart) {
		emptyCart(c)
		return
	}

	c.JSON(http.StatusOK, checkoutSummary{
		Quote: quote,
		State: h.pipeline.State(sessionID),
	})
}

// Checkout handles POST /sessions/{sessionId}/checkout
func (h *CheckoutHandler) Checkout(c *gin.Context) {
	started := time.Now()
	sessionID := c.Param("sessionId")

	var form models.ShippingForm
	if err := c.ShouldBindJSON(&form); err != nil {
		bindError(c, err)
		return
	}

	store, err := h.carts.Get(c.Request.Context(), sessionID)
	if err != nil {
		sessionError(c, h.logger, err)
		return
	}

	order, err := h.pipeline.Submit(c.Request.Context(), sessionID, store, form)
	resp := placedOrder{Confirmation: order.Confirmation()}
	switch {
	case errors.Is(err, checkout.ErrCartNotCleared):
		h.logger.Warn("order placed with items left in cart", zap.String("session_id", sessionID), zap.Error(err))
		resp.Warning = "Your order was placed but some items are still in your cart"
	case err != nil:
		h.checkoutError(c, err, started)
		return
	}

	h.metrics.ObserveCheckout("completed", started)
	c.JSON(http.StatusCreated, resp)
}

// GetConfirmation handles GET /sessions/{sessionId}/confirmation
func (h *CheckoutHandler) GetConfirmation(c *gin.Context) {
	confirmation, ok := h.pipeline.LastConfirmation(c.Param("sessionId"))
	if !ok {
		c.JSON(http.StatusNotFound, models.ErrorResponse{
			Error:   "NOT_FOUND",
			Message: "No order information",
			Details: "Return to the home page to keep shopping",
		})
		return
	}
	c.JSON(http.StatusOK, confirmation)
}

func (h *CheckoutHandler) checkoutError(c *gin.Context, err error, started time.Time) {
	var fieldErr *validators.FieldError
	switch {
	case errors.Is(err, checkout.ErrEmptyCart):
		h.metrics.ObserveCheckout("empty_cart", started)
		emptyCart(c)
	case errors.As(err, &fieldErr):
		h.metrics.ObserveCheckout("invalid", started)
		c.JSON(http.StatusBadRequest, models.FieldErrorResponse{
			Error:   "VALIDATION_ERROR",
			Message: fieldErr.Message,
			Field:   fieldErr.Field,
		})
	case errors.Is(err, checkout.ErrCheckoutInProgress):
		h.metrics.ObserveCheckout("in_progress", started)
		c.JSON(http.StatusConflict, models.ErrorResponse{
			Error:   "CHECKOUT_IN_PROGRESS",
			Message: "An order is already being processed for this session",
		})
	case errors.Is(err, checkout.ErrSubmitFailed):
		h.metrics.ObserveCheckout("failed", started)
		c.JSON(http.StatusServiceUnavailable, models.ErrorResponse{
			Error:   "ORDER_FAILED",
			Message: "The order could not be placed; your cart was kept",
			Details: err.Error(),
		})
	default:
		h.metrics.ObserveCheckout("failed", started)
		h.logger.Error("unexpected checkout error", zap.Error(err))
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "INTERNAL_ERROR",
			Message: "Unexpected checkout error",
		})
	}
}

func emptyCart(c *gin.Context) {
	c.JSON(http.StatusConflict, models.EmptyCartResponse{
		Error:   "EMPTY_CART",
		Message: "Your cart is empty",
		Catalog: catalogPath,
	})
}
