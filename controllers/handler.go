package controllers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"self-checkout/cart"
	"self-checkout/checkout"
	"self-checkout/database"
	"self-checkout/events"
	"self-checkout/middlewares"
)

// Notifier is the real-time notification endpoint.
type Notifier interface {
	ServeWS(w http.ResponseWriter, r *http.Request) error
	ClientCount() int
}

type Handler struct {
	store     *database.Store
	ledger    *cart.Ledger
	checkout  *checkout.Service
	publisher events.Publisher
	notifier  Notifier
	now       func() time.Time
}

func NewHandler(store *database.Store, ledger *cart.Ledger, svc *checkout.Service, publisher events.Publisher, notifier Notifier) *Handler {
	if publisher == nil {
		publisher = events.Nop()
	}
	return &Handler{
		store:     store,
		ledger:    ledger,
		checkout:  svc,
		publisher: publisher,
		notifier:  notifier,
		now:       time.Now,
	}
}

// RegisterRoutes mounts every endpoint. Operator-only routes go through
// OperatorAuthMiddleware.
func (h *Handler) RegisterRoutes(r *gin.Engine, operatorSecret string) {
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	if h.notifier != nil {
		r.GET("/ws", h.ServeWS)
	}

	api := r.Group("/api")
	{
		api.POST("/add-to-cart", h.AddToCart)
		api.POST("/add-batch-to-cart", h.AddBatchToCart)
		api.GET("/cart", h.GetCart)
		api.DELETE("/cart", h.ClearCart)
		api.DELETE("/cart/:product_id", h.RemoveFromCart)

		api.POST("/checkout-cart", h.CheckoutCart)
		api.POST("/confirm-payment/:payment_id", h.ConfirmPayment)
		api.GET("/payments/:payment_id", h.GetPayment)

		api.GET("/products", h.ListProducts)
		api.GET("/products/low-stock", h.LowStockProducts)
		api.GET("/products/:product_id", h.GetProduct)
		api.GET("/sales", h.ListSales)
		api.GET("/analytics", h.GetAnalytics)
		api.GET("/theme", h.GetTheme)
		api.GET("/system-status", h.SystemStatus)
	}

	// 需要操作员认证的路由组
	operator := r.Group("/api")
	operator.Use(middlewares.OperatorAuthMiddleware(operatorSecret))
	{
		operator.POST("/restock/:product_id", h.Restock)
		operator.POST("/payments/:payment_id/cancel", h.CancelPayment)
		operator.POST("/theme", h.SetTheme)
	}
}

func recordOperation(c *gin.Context, operation string) {
	status := c.Writer.Status()
	middlewares.RecordCartOperation(operation, status >= 200 && status < 300)
}

func (h *Handler) sessionFromQuery(c *gin.Context) string {
	return c.DefaultQuery("session_id", h.ledger.DefaultSession())
}
