package http

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/manalamro/chippy/internal/entity"
)

var (
	notFoundErrors = []error{
		entity.ErrProductNotFound,
		entity.ErrCartNotFound,
		entity.ErrCartItemNotFound,
		entity.ErrAddressNotFound,
		entity.ErrOrderNotFound,
	}
	validationErrors = []error{
		entity.ErrInvalidQuantity,
		entity.ErrEmptyCart,
		entity.ErrInvalidAddress,
		entity.ErrInvalidOrderStatus,
		entity.ErrInvalidPaymentStatus,
		entity.ErrNoStatusChange,
	}
)

// writeError maps domain errors onto status codes. Anything unrecognised is
// logged and answered with message only.
func writeError(c *gin.Context, err error, message string) {
	var (
		exceeded     *entity.StockExceededError
		insufficient *entity.InsufficientStockError
	)
	switch {
	case errors.As(err, &exceeded):
		c.JSON(http.StatusConflict, gin.H{
			"error":      exceeded.Error(),
			"product_id": exceeded.ProductID,
			"available":  exceeded.Available,
		})
	case errors.As(err, &insufficient):
		c.JSON(http.StatusConflict, gin.H{
			"error":      insufficient.Error(),
			"product":    insufficient.Title,
			"product_id": insufficient.ProductID,
			"available":  insufficient.Available,
		})
	case isAny(err, notFoundErrors):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case isAny(err, validationErrors):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, entity.ErrCartChanged):
		c.JSON(http.StatusConflict, gin.H{"error": entity.ErrCartChanged.Error()})
	case errors.Is(err, entity.ErrPaymentDeclined):
		c.JSON(http.StatusPaymentRequired, gin.H{"error": err.Error()})
	default:
		slog.Error(message, "path", c.Request.URL.Path, "err", err)
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": message})
	}
}

func writeBindError(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{
		"error":   "invalid request body",
		"details": err.Error(),
	})
}

func isAny(err error, targets []error) bool {
	for _, target := range targets {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
