package entity

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidQuantity      = errors.New("quantity must be greater than zero")
	ErrProductNotFound      = errors.New("product not found")
	ErrCartNotFound         = errors.New("cart not found")
	ErrCartItemNotFound     = errors.New("cart item not found")
	ErrEmptyCart            = errors.New("cart is empty")
	ErrCartChanged          = errors.New("cart changed during checkout")
	ErrAddressNotFound      = errors.New("address not found")
	ErrInvalidAddress       = errors.New("full name, phone, street and city are required")
	ErrOrderNotFound        = errors.New("order not found")
	ErrInvalidOrderStatus   = errors.New("invalid order status")
	ErrInvalidPaymentStatus = errors.New("invalid payment status")
	ErrNoStatusChange       = errors.New("no fields to update")
	ErrPaymentDeclined      = errors.New("payment declined")
	ErrStockExceeded        = errors.New("stock exceeded")
	ErrInsufficientStock    = errors.New("insufficient stock")
	ErrVersionConflict      = errors.New("event stream version conflict")
)

// StockExceededError rejects a cart mutation that would hold more of a
// product than is known to be in stock.
type StockExceededError struct {
	ProductID string
	Available int
	Requested int
}

func (e *StockExceededError) Error() string {
	return fmt.Sprintf("only %d items available in stock", e.Available)
}

func (e *StockExceededError) Unwrap() error { return ErrStockExceeded }

// InsufficientStockError aborts an order placement. Title names the product
// to the buyer.
type InsufficientStockError struct {
	ProductID string
	Title     string
	Available int
	Requested int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("not enough stock for product: %s", e.Title)
}

func (e *InsufficientStockError) Unwrap() error { return ErrInsufficientStock }
