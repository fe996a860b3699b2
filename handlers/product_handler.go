package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/pedrignacio/tu-kiosko/catalog"
	"github.com/pedrignacio/tu-kiosko/models"
	"go.uber.org/zap"
)

const defaultRelatedLimit = 4

// ProductCreator is implemented by catalogs that accept new products.
type ProductCreator interface {
	Create(ctx context.Context, p models.Product) (models.Product, error)
}

type ProductHandler struct {
	catalog catalog.Source
	creator ProductCreator
	logger  *zap.Logger
}

func NewProductHandler(source catalog.Source, logger *zap.Logger) *ProductHandler {
	h := &ProductHandler{
		catalog: source,
		logger:  logger,
	}
	if creator, ok := source.(ProductCreator); ok {
		h.creator = creator
	}
	return h
}

// ListProducts handles GET /products?category=
func (h *ProductHandler) ListProducts(c *gin.Context) {
	products, err := h.catalog.List(c.Request.Context(), c.Query("category"))
	if err != nil {
		catalogError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, products)
}

// GetProduct handles GET /products/{productId}
func (h *ProductHandler) GetProduct(c *gin.Context) {
	product, err := h.catalog.Get(c.Request.Context(), c.Param("productId"))
	if err != nil {
		catalogError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, product)
}

// RelatedProducts handles GET /products/{productId}/related
func (h *ProductHandler) RelatedProducts(c *gin.Context) {
	limit := defaultRelatedLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			c.JSON(http.StatusBadRequest, models.ErrorResponse{
				Error:   "INVALID_INPUT",
				Message: "Invalid limit",
				Details: "limit must be a positive integer",
			})
			return
		}
		limit = n
	}

	ctx := c.Request.Context()
	product, err := h.catalog.Get(ctx, c.Param("productId"))
	if err != nil {
		catalogError(c, h.logger, err)
		return
	}

	related, err := h.catalog.Related(ctx, product.Category, product.ID, limit)
	if err != nil {
		catalogError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, related)
}

// CreateProduct handles POST /products
func (h *ProductHandler) CreateProduct(c *gin.Context) {
	if h.creator == nil {
		c.JSON(http.StatusMethodNotAllowed, models.ErrorResponse{
			Error:   "READ_ONLY_CATALOG",
			Message: "The configured catalog does not accept new products",
		})
		return
	}

	var req models.CreateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "INVALID_INPUT",
			Message: "Invalid request body",
			Details: err.Error(),
		})
		return
	}

	product, err := h.creator.Create(c.Request.Context(), models.Product{
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
		Category:    req.Category,
		ImageURL:    req.ImageURL,
		Quantity:    req.Quantity,
	})
	if errors.Is(err, catalog.ErrInvalidProduct) {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "INVALID_INPUT",
			Message: "Invalid product fields",
			Details: "name and category are required; price and quantity must not be negative",
		})
		return
	}
	if err != nil {
		catalogError(c, h.logger, err)
		return
	}

	h.logger.Info("created product", zap.String("product_id", product.ID), zap.String("category", product.Category))
	c.JSON(http.StatusCreated, models.CreateProductResponse{ID: product.ID})
}

func catalogError(c *gin.Context, logger *zap.Logger, err error) {
	switch {
	case errors.Is(err, catalog.ErrNotFound):
		c.JSON(http.StatusNotFound, models.ErrorResponse{
			Error:   "NOT_FOUND",
			Message: "Product not found",
		})
	case errors.Is(err, catalog.ErrUnavailable):
		logger.Warn("catalog fetch failed", zap.Error(err))
		c.JSON(http.StatusBadGateway, models.ErrorResponse{
			Error:   "CATALOG_UNAVAILABLE",
			Message: "Could not load products",
			Details: err.Error(),
		})
	default:
		logger.Error("catalog error", zap.Error(err))
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "INTERNAL_ERROR",
			Message: "Unexpected catalog error",
		})
	}
}
