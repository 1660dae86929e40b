package models

// Product is a catalog entry. DetectorLabel is the raw detector class it was
// trained under; several products may not share an id but several labels may
// point at one product through aliases.
type Product struct {
	ID            string  `json:"id"`
	Name          string  `json:"name"`
	Price         float64 `json:"price"`
	Category      string  `json:"category"`
	Stock         int     `json:"stock"`
	Barcode       string  `json:"barcode,omitempty"`
	DetectorLabel string  `json:"yolo_class,omitempty"`
	MinStock      int     `json:"min_stock"`
	Description   string  `json:"description,omitempty"`
	Image         string  `json:"image,omitempty"`
}

// LowStock reports whether stock has reached the restock threshold.
func (p Product) LowStock() bool {
	return p.Stock <= p.MinStock
}

type RestockRequest struct {
	Quantity int `json:"quantity" form:"quantity" binding:"required,min=1"`
}
