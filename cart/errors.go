package cart

import (
	"errors"
	"fmt"

	"self-checkout/models"
)

var (
	ErrProductNotFound   = errors.New("product not found")
	ErrItemNotFound      = errors.New("item not found in cart")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrInvalidQuantity   = errors.New("quantity must be positive")
)

type ProductNotFoundError struct {
	ProductID string
}

func (e *ProductNotFoundError) Error() string {
	return fmt.Sprintf("Product %s not found", e.ProductID)
}

func (e *ProductNotFoundError) Is(target error) bool {
	return target == ErrProductNotFound
}

// InsufficientStockError rejects an add whose quantity exceeds the product's
// stock at call time.
type InsufficientStockError struct {
	Product   models.Product
	Requested int
	Available int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("Insufficient stock for %s", e.Product.Name)
}

func (e *InsufficientStockError) Is(target error) bool {
	return target == ErrInsufficientStock
}
