package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product represents a product in the store.
type Product struct {
	ID          string          `json:"id"`
	Title       string          `json:"title"`
	Slug        string          `json:"slug"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	ImageURL    string          `json:"image_url"`
	Category    string          `json:"category"`
	Stock       int             `json:"stock"`
}

// Snapshot captures the product as seen by a cart at add time.
func (p Product) Snapshot() ProductSnapshot {
	stock := p.Stock
	return ProductSnapshot{
		ID:    p.ID,
		Title: p.Title,
		Price: p.Price,
		Stock: &stock,
	}
}

// ProductSnapshot is the product state a cart line is built from. Stock is nil
// when the caller does not know it.
type ProductSnapshot struct {
	ID    string
	Title string
	Price decimal.Decimal
	Stock *int
}

// Address is a shipping address owned by a user.
type Address struct {
	ID        string `json:"id"`
	UserID    string `json:"-"`
	FullName  string `json:"full_name"`
	Phone     string `json:"phone"`
	Street    string `json:"street"`
	City      string `json:"city"`
	Notes     string `json:"notes"`
	IsDefault bool   `json:"is_default"`
}

// OrderItem is a line item within an order. It is a snapshot and never changes.
type OrderItem struct {
	OrderID   string          `json:"-"`
	ProductID string          `json:"product_id"`
	Title     string          `json:"title"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}

// Subtotal returns quantity times unit price.
func (i OrderItem) Subtotal() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// Order represents a customer order.
type Order struct {
	ID            string          `json:"id"`
	UserID        string          `json:"user_id"`
	AddressID     string          `json:"address_id"`
	Total         decimal.Decimal `json:"total"`
	Status        OrderStatus     `json:"status"`
	PaymentStatus PaymentStatus   `json:"payment_status"`
	TransactionID string          `json:"transaction_id"`
	CreatedAt     time.Time       `json:"created_at"`
	Address       *Address        `json:"address,omitempty"`
	Items         []OrderItem     `json:"items"`
}

// ItemsTotal sums the order's line subtotals.
func (o *Order) ItemsTotal() decimal.Decimal {
	total := decimal.Zero
	for _, item := range o.Items {
		total = total.Add(item.Subtotal())
	}
	return total
}

// --- Commands ---

// PaymentDetails is what the buyer submits at checkout. The mock gateway ignores it.
type PaymentDetails struct {
	Method     string `json:"method"`
	CardHolder string `json:"card_holder"`
	Last4      string `json:"last4"`
}

// PlaceOrder is a command to turn the caller's cart into an order.
type PlaceOrder struct {
	UserID    string         `json:"user_id"`
	AddressID string         `json:"address_id"`
	Payment   PaymentDetails `json:"payment"`
}

// PlaceOrderResult is returned once the order is committed.
type PlaceOrderResult struct {
	OrderID       string `json:"order_id"`
	TransactionID string `json:"transaction_id"`
}
