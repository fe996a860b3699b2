package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/pedrignacio/tu-kiosko/cart"
	"github.com/pedrignacio/tu-kiosko/catalog"
	"github.com/pedrignacio/tu-kiosko/metrics"
	"github.com/pedrignacio/tu-kiosko/models"
	"go.uber.org/zap"
)

type CartHandler struct {
	carts   *cart.Manager
	catalog catalog.Source
	metrics *metrics.Metrics
	logger  *zap.Logger
}

func NewCartHandler(carts *cart.Manager, source catalog.Source, m *metrics.Metrics, logger *zap.Logger) *CartHandler {
	return &CartHandler{
		carts:   carts,
		catalog: source,
		metrics: m,
		logger:  logger,
	}
}

func (h *CartHandler) store(c *gin.Context) (*cart.Store, bool) {
	store, err := h.carts.Get(c.Request.Context(), c.Param("sessionId"))
	if err != nil {
		sessionError(c, h.logger, err)
		return nil, false
	}
	return store, true
}

// GetCart handles GET /sessions/{sessionId}/cart
func (h *CartHandler) GetCart(c *gin.Context) {
	store, ok := h.store(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, store.Snapshot())
}

// AddItem handles POST /sessions/{sessionId}/cart/items
func (h *CartHandler) AddItem(c *gin.Context) {
	var req models.AddItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	store, ok := h.store(c)
	if !ok {
		return
	}

	product, err := h.catalog.Get(c.Request.Context(), req.ProductID)
	if err != nil {
		catalogError(c, h.logger, err)
		return
	}

	err = store.AddItem(c.Request.Context(), product)
	h.metrics.ObserveCart("add", err)
	if err != nil {
		storageError(c, h.logger, err)
		return
	}

	h.logger.Debug("added item to cart", zap.String("session_id", c.Param("sessionId")), zap.String("product_id", product.ID))
	c.JSON(http.StatusOK, store.Snapshot())
}

// UpdateQuantity handles PATCH /sessions/{sessionId}/cart/items/{productId}
func (h *CartHandler) UpdateQuantity(c *gin.Context) {
	var req models.UpdateQuantityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	store, ok := h.store(c)
	if !ok {
		return
	}

	err := store.UpdateQuantity(c.Request.Context(), c.Param("productId"), *req.Quantity)
	h.metrics.ObserveCart("update", err)
	if err != nil {
		storageError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, store.Snapshot())
}

// RemoveItem handles DELETE /sessions/{sessionId}/cart/items/{productId}
func (h *CartHandler) RemoveItem(c *gin.Context) {
	store, ok := h.store(c)
	if !ok {
		return
	}

	err := store.RemoveItem(c.Request.Context(), c.Param("productId"))
	h.metrics.ObserveCart("remove", err)
	if err != nil {
		storageError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, store.Snapshot())
}

// ClearCart handles DELETE /sessions/{sessionId}/cart
func (h *CartHandler) ClearCart(c *gin.Context) {
	store, ok := h.store(c)
	if !ok {
		return
	}

	err := store.Clear(c.Request.Context())
	h.metrics.ObserveCart("clear", err)
	if err != nil {
		storageError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, store.Snapshot())
}
