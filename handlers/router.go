package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/pedrignacio/tu-kiosko/cart"
	"github.com/pedrignacio/tu-kiosko/catalog"
	"github.com/pedrignacio/tu-kiosko/checkout"
	"github.com/pedrignacio/tu-kiosko/favorites"
	"github.com/pedrignacio/tu-kiosko/metrics"
	"github.com/pedrignacio/tu-kiosko/orders"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

type Dependencies struct {
	Catalog   catalog.Source
	Carts     *cart.Manager
	Favorites *favorites.Manager
	Pipeline  *checkout.Pipeline
	Orders    orders.Store
	Payments  PaymentCreator
	Metrics   *metrics.Metrics
	Gatherer  prometheus.Gatherer
	Logger    *zap.Logger
}

// NewRouter wires the storefront API.
func NewRouter(deps Dependencies) *gin.Engine {
	router := newEngine(deps.Logger)

	productHandler := NewProductHandler(deps.Catalog, deps.Logger)
	cartHandler := NewCartHandler(deps.Carts, deps.Catalog, deps.Metrics, deps.Logger)
	favoritesHandler := NewFavoritesHandler(deps.Favorites, deps.Catalog, deps.Metrics, deps.Logger)
	checkoutHandler := NewCheckoutHandler(deps.Carts, deps.Pipeline, deps.Metrics, deps.Logger)
	orderHandler := NewOrderHandler(deps.Orders, deps.Payments, deps.Logger)

	// Catalog
	router.GET("/products", productHandler.ListProducts)
	router.POST("/products", productHandler.CreateProduct)
	router.GET("/products/:productId", productHandler.GetProduct)
	router.GET("/products/:productId/related", productHandler.RelatedProducts)

	session := router.Group("/sessions/:sessionId")

	// Cart
	session.GET("/cart", cartHandler.GetCart)
	session.DELETE("/cart", cartHandler.ClearCart)
	session.POST("/cart/items", cartHandler.AddItem)
	session.PATCH("/cart/items/:productId", cartHandler.UpdateQuantity)
	session.DELETE("/cart/items/:productId", cartHandler.RemoveItem)

	// Favorites
	session.GET("/favorites", favoritesHandler.ListFavorites)
	session.POST("/favorites", favoritesHandler.AddFavorite)
	session.DELETE("/favorites", favoritesHandler.ClearFavorites)
	session.GET("/favorites/:productId", favoritesHandler.GetFavorite)
	session.DELETE("/favorites/:productId", favoritesHandler.RemoveFavorite)

	// Checkout and orders
	session.GET("/checkout", checkoutHandler.GetSummary)
	session.POST("/checkout", checkoutHandler.Checkout)
	session.GET("/confirmation", checkoutHandler.GetConfirmation)
	session.POST("/orders/:orderId/payment", orderHandler.CreatePayment)
	router.GET("/orders/:orderId", orderHandler.GetOrder)

	if deps.Gatherer != nil {
		router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{})))
	}

	return router
}

// NewPaymentSimRouter serves the local payment provider stand-in.
func NewPaymentSimRouter(h *PaymentSimHandler, logger *zap.Logger) *gin.Engine {
	router := newEngine(logger)
	router.POST("/payment/create", h.CreatePayment)
	return router
}

func newEngine(logger *zap.Logger) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), requestLogger(logger))

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "OK"})
	})
	return router
}

func requestLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Debug("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
		)
	}
}
