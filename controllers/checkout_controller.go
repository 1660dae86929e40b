package controllers

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"self-checkout/models"
)

func (h *Handler) CheckoutCart(c *gin.Context) {
	defer recordOperation(c, "checkout")

	// body is optional; an empty one checks out the default session
	var req models.CheckoutRequest
	if c.Request.Body != nil && c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}
	if req.SessionID == "" {
		req.SessionID = h.sessionFromQuery(c)
	}

	payment, err := h.checkout.Checkout(req.SessionID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, payment)
}

func (h *Handler) ConfirmPayment(c *gin.Context) {
	defer recordOperation(c, "confirm")

	sale, err := h.checkout.Confirm(c.Param("payment_id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, sale)
}

func (h *Handler) GetPayment(c *gin.Context) {
	payment, err := h.checkout.Payment(c.Param("payment_id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, payment)
}

func (h *Handler) CancelPayment(c *gin.Context) {
	defer recordOperation(c, "cancel")

	payment, err := h.checkout.Cancel(c.Param("payment_id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Payment cancelled",
		"payment": payment,
	})
}
