package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/pedrignacio/tu-kiosko/cart"
	"github.com/pedrignacio/tu-kiosko/favorites"
	"github.com/pedrignacio/tu-kiosko/models"
	"go.uber.org/zap"
)

func sessionError(c *gin.Context, logger *zap.Logger, err error) {
	if errors.Is(err, cart.ErrInvalidSession) || errors.Is(err, favorites.ErrInvalidSession) {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "INVALID_INPUT",
			Message: "Invalid session ID",
		})
		return
	}
	logger.Error("failed to open session state", zap.String("session_id", c.Param("sessionId")), zap.Error(err))
	c.JSON(http.StatusInternalServerError, models.ErrorResponse{
		Error:   "STORAGE_ERROR",
		Message: "Could not load session state",
		Details: err.Error(),
	})
}

func storageError(c *gin.Context, logger *zap.Logger, err error) {
	logger.Error("failed to persist session state", zap.String("session_id", c.Param("sessionId")), zap.Error(err))
	c.JSON(http.StatusInternalServerError, models.ErrorResponse{
		Error:   "STORAGE_ERROR",
		Message: "Could not save changes",
		Details: err.Error(),
	})
}

func bindError(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, models.ErrorResponse{
		Error:   "INVALID_INPUT",
		Message: "Invalid request body",
		Details: err.Error(),
	})
}
