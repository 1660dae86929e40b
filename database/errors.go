package database

import "errors"

var (
	ErrProductNotFound         = errors.New("product not found")
	ErrInsufficientStock       = errors.New("insufficient stock")
	ErrInvalidQuantity         = errors.New("quantity must be positive")
	ErrPaymentNotFound         = errors.New("payment not found")
	ErrPaymentExists           = errors.New("payment already exists")
	ErrPaymentAlreadyProcessed = errors.New("payment already processed")
	ErrPaymentCancelled        = errors.New("payment was cancelled")
	ErrInvalidTheme            = errors.New("invalid theme")
)
