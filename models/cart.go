package models

import "time"

// CartLine records one unit scanned into a session. Name and price are
// snapshots taken when the line was added.
type CartLine struct {
	LineID      string    `json:"id"`
	ProductID   string    `json:"product_id"`
	ProductName string    `json:"product_name"`
	UnitPrice   float64   `json:"price"`
	Category    string    `json:"category"`
	AddedAt     time.Time `json:"timestamp"`
	Source      string    `json:"scanner_source"`
}

type CartSession struct {
	SessionID   string
	Lines       []CartLine
	CreatedAt   time.Time
	LastUpdated *time.Time
}

type SummaryItem struct {
	ProductID   string  `json:"product_id"`
	ProductName string  `json:"product_name"`
	Price       float64 `json:"price"`
	Quantity    int     `json:"quantity"`
}

type CartSummary struct {
	SessionID   string        `json:"session_id"`
	Items       []SummaryItem `json:"items"`
	TotalItems  int           `json:"total_items"`
	UniqueItems int           `json:"unique_items"`
	LastUpdated *time.Time    `json:"last_updated"`
	CreatedAt   time.Time     `json:"created_at"`
}

// Subtotal sums price*quantity without intermediate rounding.
func (s CartSummary) Subtotal() float64 {
	var subtotal float64
	for _, item := range s.Items {
		subtotal += item.Price * float64(item.Quantity)
	}
	return subtotal
}

type AddToCartRequest struct {
	ProductID string `json:"product_id" binding:"required"`
	Quantity  int    `json:"quantity"`
	SessionID string `json:"session_id"`
}

type BatchItem struct {
	ProductID string `json:"product_id" binding:"required"`
	Quantity  int    `json:"quantity"`
}

type AddBatchRequest struct {
	Items     []BatchItem `json:"items" binding:"required,dive"`
	SessionID string      `json:"session_id"`
}

type AddToCartResponse struct {
	Success     bool        `json:"success"`
	Message     string      `json:"message"`
	CartSummary CartSummary `json:"cart_summary"`
	ItemsAdded  []CartLine  `json:"items_added"`
}

type AddBatchResponse struct {
	Success     bool        `json:"success"`
	ItemsAdded  int         `json:"items_added"`
	Errors      []string    `json:"errors"`
	CartSummary CartSummary `json:"cart_summary"`
}

type CheckoutRequest struct {
	SessionID string `json:"session_id"`
}
