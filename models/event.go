package models

const (
	EventCartUpdated      = "cart_updated"
	EventBatchAdded       = "batch_added"
	EventCartCleared      = "cart_cleared"
	EventItemRemoved      = "item_removed"
	EventPaymentCreated   = "payment_created"
	EventPaymentCancelled = "payment_cancelled"
	EventSaleCompleted    = "sale_completed"
	EventStockUpdate      = "stock_update"
	EventThemeChanged     = "theme_changed"
)

// Event is a fire-and-forget notification. Only the fields relevant to Type
// are set.
type Event struct {
	Type        string `json:"type"`
	SessionID   string `json:"session_id,omitempty"`
	ProductID   string `json:"product_id,omitempty"`
	ProductName string `json:"product_name,omitempty"`
	Action      string `json:"action,omitempty"`
	CartSize    *int   `json:"cart_size,omitempty"`
	ItemsCount  *int   `json:"items_count,omitempty"`
	PaymentID   string `json:"payment_id,omitempty"`
	Sale        *Sale  `json:"sale,omitempty"`
	Theme       string `json:"theme,omitempty"`
}

func IntPtr(v int) *int {
	return &v
}
