package controllers

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"self-checkout/models"
)

func (h *Handler) GetTheme(c *gin.Context) {
	theme, err := h.store.Theme()
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"theme": theme})
}

func (h *Handler) SetTheme(c *gin.Context) {
	var req models.ThemeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.store.SetTheme(req.Theme); err != nil {
		respondError(c, err)
		return
	}

	h.publisher.Publish(models.Event{Type: models.EventThemeChanged, Theme: req.Theme})
	c.JSON(http.StatusOK, gin.H{"success": true, "theme": req.Theme})
}

func (h *Handler) SystemStatus(c *gin.Context) {
	connections := 0
	if h.notifier != nil {
		connections = h.notifier.ClientCount()
	}
	c.JSON(http.StatusOK, gin.H{
		"status":             "running",
		"timestamp":          h.now().Format("2006-01-02T15:04:05.000000"),
		"active_connections": connections,
		"active_carts":       h.ledger.SessionCount(),
	})
}

func (h *Handler) ServeWS(c *gin.Context) {
	if err := h.notifier.ServeWS(c.Writer, c.Request); err != nil {
		log.Printf("[hub] WebSocket upgrade failed: %v", err)
	}
}
