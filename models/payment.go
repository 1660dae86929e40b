package models

import "time"

type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "pending"
	PaymentStatusCompleted PaymentStatus = "completed"
	PaymentStatusCancelled PaymentStatus = "cancelled"
)

type PaymentItem struct {
	ProductID   string  `json:"product_id"`
	ProductName string  `json:"product_name"`
	Quantity    int     `json:"quantity"`
	Price       float64 `json:"price"`
	Total       float64 `json:"total"`
}

type PendingPayment struct {
	PaymentID string        `json:"payment_id"`
	SessionID string        `json:"session_id"`
	Items     []PaymentItem `json:"items"`
	Subtotal  float64       `json:"subtotal"`
	Tax       float64       `json:"tax"`
	Total     float64       `json:"total"`
	Status    PaymentStatus `json:"status"`
	QRPayload string        `json:"qr_code"`
	CreatedAt time.Time     `json:"timestamp"`
}

type Sale struct {
	ID            string        `json:"id"`
	PaymentID     string        `json:"payment_id"`
	Items         []PaymentItem `json:"items"`
	Subtotal      float64       `json:"subtotal"`
	Tax           float64       `json:"tax"`
	Total         float64       `json:"total"`
	Timestamp     time.Time     `json:"timestamp"`
	PaymentMethod string        `json:"payment_method"`
	// SkippedStock lists product ids whose stock could not cover the sold
	// quantity at confirmation time.
	SkippedStock []string `json:"skipped_stock,omitempty"`
}

type TopProduct struct {
	ProductID    string  `json:"product_id"`
	ProductName  string  `json:"product_name"`
	QuantitySold int     `json:"quantity_sold"`
	Revenue      float64 `json:"revenue"`
}

type Analytics struct {
	TotalSales    int          `json:"total_sales"`
	TodaySales    int          `json:"today_sales"`
	TodayRevenue  float64      `json:"today_revenue"`
	TotalRevenue  float64      `json:"total_revenue"`
	TopProducts   []TopProduct `json:"top_products"`
	LowStockCount int          `json:"low_stock_count"`
}

type ThemeRequest struct {
	Theme string `json:"theme" binding:"required,oneof=light dark"`
}
