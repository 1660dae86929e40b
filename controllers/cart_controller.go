package controllers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"self-checkout/cart"
	"self-checkout/middlewares"
	"self-checkout/models"
)

func (h *Handler) AddToCart(c *gin.Context) {
	defer recordOperation(c, "add")

	var req models.AddToCartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Quantity == 0 {
		req.Quantity = 1
	}

	lines, err := h.ledger.Add(req.SessionID, req.ProductID, req.Quantity)
	if err != nil {
		respondError(c, err)
		return
	}
	middlewares.RecordLinesAdded(len(lines))

	summary := h.ledger.Summary(req.SessionID)
	h.publisher.Publish(models.Event{
		Type:        models.EventCartUpdated,
		SessionID:   summary.SessionID,
		ProductID:   lines[0].ProductID,
		ProductName: lines[0].ProductName,
		Action:      "added",
		CartSize:    models.IntPtr(summary.TotalItems),
	})

	c.JSON(http.StatusOK, models.AddToCartResponse{
		Success:     true,
		Message:     fmt.Sprintf("Added %dx %s to cart", len(lines), lines[0].ProductName),
		CartSummary: summary,
		ItemsAdded:  lines,
	})
}

func (h *Handler) AddBatchToCart(c *gin.Context) {
	defer recordOperation(c, "add_batch")

	var req models.AddBatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	for i := range req.Items {
		if req.Items[i].Quantity == 0 {
			req.Items[i].Quantity = 1
		}
	}

	result := h.ledger.AddBatch(req.SessionID, req.Items)
	middlewares.RecordLinesAdded(len(result.Added))
	summary := h.ledger.Summary(req.SessionID)

	if result.Succeeded() {
		h.publisher.Publish(models.Event{
			Type:       models.EventBatchAdded,
			SessionID:  summary.SessionID,
			ItemsCount: models.IntPtr(len(result.Added)),
			CartSize:   models.IntPtr(summary.TotalItems),
		})
	}

	errs := result.Errors
	if errs == nil {
		errs = []string{}
	}
	c.JSON(http.StatusOK, models.AddBatchResponse{
		Success:     result.Succeeded(),
		ItemsAdded:  len(result.Added),
		Errors:      errs,
		CartSummary: summary,
	})
}

func (h *Handler) GetCart(c *gin.Context) {
	c.JSON(http.StatusOK, h.ledger.Summary(h.sessionFromQuery(c)))
}

func (h *Handler) ClearCart(c *gin.Context) {
	defer recordOperation(c, "clear")

	session := h.sessionFromQuery(c)
	removed := h.ledger.Clear(session)
	h.publisher.Publish(models.Event{Type: models.EventCartCleared, SessionID: session})

	c.JSON(http.StatusOK, gin.H{
		"message":      fmt.Sprintf("Cart cleared, %d items removed", removed),
		"cart_summary": h.ledger.Summary(session),
	})
}

func (h *Handler) RemoveFromCart(c *gin.Context) {
	defer recordOperation(c, "remove")

	session := h.sessionFromQuery(c)
	productID := c.Param("product_id")
	if !h.ledger.RemoveOne(session, productID) {
		respondError(c, cart.ErrItemNotFound)
		return
	}

	summary := h.ledger.Summary(session)
	h.publisher.Publish(models.Event{
		Type:      models.EventItemRemoved,
		SessionID: session,
		ProductID: productID,
		Action:    "removed",
		CartSize:  models.IntPtr(summary.TotalItems),
	})
	c.JSON(http.StatusOK, gin.H{
		"message":      "Item removed from cart",
		"cart_summary": summary,
	})
}
