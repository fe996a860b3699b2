package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/pedrignacio/tu-kiosko/catalog"
	"github.com/pedrignacio/tu-kiosko/favorites"
	"github.com/pedrignacio/tu-kiosko/metrics"
	"github.com/pedrignacio/tu-kiosko/models"
	"go.uber.org/zap"
)

type FavoritesHandler struct {
	favorites *favorites.Manager
	catalog   catalog.Source
	metrics   *metrics.Metrics
	logger    *zap.Logger
}

func NewFavoritesHandler(favs *favorites.Manager, source catalog.Source, m *metrics.Metrics, logger *zap.Logger) *FavoritesHandler {
	return &FavoritesHandler{
		favorites: favs,
		catalog:   source,
		metrics:   m,
		logger:    logger,
	}
}

func (h *FavoritesHandler) store(c *gin.Context) (*favorites.Store, bool) {
	store, err := h.favorites.Get(c.Request.Context(), c.Param("sessionId"))
	if err != nil {
		sessionError(c, h.logger, err)
		return nil, false
	}
	return store, true
}

// ListFavorites handles GET /sessions/{sessionId}/favorites
func (h *FavoritesHandler) ListFavorites(c *gin.Context) {
	store, ok := h.store(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, models.Favorites{Favorites: store.List()})
}

// AddFavorite handles POST /sessions/{sessionId}/favorites
func (h *FavoritesHandler) AddFavorite(c *gin.Context) {
	var req models.AddFavoriteRequest
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

	err = store.Add(c.Request.Context(), product)
	if errors.Is(err, favorites.ErrAlreadyFavorite) {
		h.metrics.ObserveFavorite("add", nil)
		c.JSON(http.StatusConflict, models.ErrorResponse{
			Error:   "ALREADY_FAVORITE",
			Message: "This product is already in your favorites",
		})
		return
	}
	h.metrics.ObserveFavorite("add", err)
	if err != nil {
		storageError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusCreated, models.Favorites{Favorites: store.List()})
}

// GetFavorite handles GET /sessions/{sessionId}/favorites/{productId}
func (h *FavoritesHandler) GetFavorite(c *gin.Context) {
	store, ok := h.store(c)
	if !ok {
		return
	}
	productID := c.Param("productId")
	c.JSON(http.StatusOK, models.FavoriteStatus{
		ProductID: productID,
		Favorite:  store.IsFavorite(productID),
	})
}

// RemoveFavorite handles DELETE /sessions/{sessionId}/favorites/{productId}
func (h *FavoritesHandler) RemoveFavorite(c *gin.Context) {
	store, ok := h.store(c)
	if !ok {
		return
	}

	removed, err := store.Remove(c.Request.Context(), c.Param("productId"))
	h.metrics.ObserveFavorite("remove", err)
	if err != nil {
		storageError(c, h.logger, err)
		return
	}
	if removed {
		h.logger.Debug("removed favorite", zap.String("session_id", c.Param("sessionId")), zap.String("product_id", c.Param("productId")))
	}
	c.JSON(http.StatusOK, models.Favorites{Favorites: store.List()})
}

// ClearFavorites handles DELETE /sessions/{sessionId}/favorites
func (h *FavoritesHandler) ClearFavorites(c *gin.Context) {
	store, ok := h.store(c)
	if !ok {
		return
	}

	err := store.Clear(c.Request.Context())
	h.metrics.ObserveFavorite("clear", err)
	if err != nil {
		storageError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, models.Favorites{Favorites: store.List()})
}
