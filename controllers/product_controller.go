package controllers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"self-checkout/database"
	"self-checkout/models"
)

const defaultSalesLimit = 50

func (h *Handler) ListProducts(c *gin.Context) {
	products, err := h.store.Products()
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, products)
}

func (h *Handler) GetProduct(c *gin.Context) {
	id := c.Param("product_id")
	product, err := h.store.Product(id)
	if err != nil {
		if errors.Is(err, database.ErrProductNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": fmt.Sprintf("Product %s not found", id)})
			return
		}
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, product)
}

func (h *Handler) LowStockProducts(c *gin.Context) {
	products, err := h.store.LowStockProducts()
	if err != nil {
		respondError(c, err)
		return
	}
	if products == nil {
		products = []models.Product{}
	}
	c.JSON(http.StatusOK, products)
}

func (h *Handler) Restock(c *gin.Context) {
	defer recordOperation(c, "restock")

	var req models.RestockRequest
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	id := c.Param("product_id")
	product, err := h.store.UpdateStock(id, req.Quantity, database.StockAdd)
	if err != nil {
		if errors.Is(err, database.ErrProductNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": fmt.Sprintf("Product %s not found", id)})
			return
		}
		respondError(c, err)
		return
	}

	h.publisher.Publish(models.Event{
		Type:        models.EventStockUpdate,
		ProductID:   product.ID,
		ProductName: product.Name,
		Action:      "restock",
	})
	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"message":   fmt.Sprintf("Restocked %d units of %s", req.Quantity, product.Name),
		"new_stock": product.Stock,
		"product":   product,
	})
}

func (h *Handler) ListSales(c *gin.Context) {
	limit := defaultSalesLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid limit"})
			return
		}
		limit = n
	}

	sales, err := h.store.Sales(limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, sales)
}

func (h *Handler) GetAnalytics(c *gin.Context) {
	analytics, err := h.store.Analytics(h.now())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, analytics)
}
