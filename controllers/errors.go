package controllers

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"self-checkout/cart"
	"self-checkout/checkout"
	"self-checkout/database"
)

// respondError maps domain errors onto HTTP responses.
func respondError(c *gin.Context, err error) {
	var stockErr *cart.InsufficientStockError
	switch {
	case errors.As(err, &stockErr):
		c.JSON(http.StatusBadRequest, gin.H{
			"error":     stockErr.Error(),
			"requested": stockErr.Requested,
			"available": stockErr.Available,
		})
	case errors.Is(err, cart.ErrProductNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, database.ErrProductNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Product not found"})
	case errors.Is(err, cart.ErrItemNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Item not found in cart"})
	case errors.Is(err, checkout.ErrCartEmpty):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Cart is empty"})
	case errors.Is(err, checkout.ErrPaymentNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Payment not found"})
	case errors.Is(err, checkout.ErrPaymentAlreadyProcessed):
		c.JSON(http.StatusConflict, gin.H{"error": "Payment already processed"})
	case errors.Is(err, checkout.ErrPaymentCancelled):
		c.JSON(http.StatusConflict, gin.H{"error": "Payment was cancelled"})
	case errors.Is(err, cart.ErrInvalidQuantity),
		errors.Is(err, database.ErrInvalidQuantity),
		errors.Is(err, database.ErrInsufficientStock),
		errors.Is(err, database.ErrInvalidTheme):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		log.Printf("Request %s %s failed: %v", c.Request.Method, c.FullPath(), err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}
