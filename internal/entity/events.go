package entity

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// EventStoreRecord represents an event stored in the database.
type EventStoreRecord struct {
	ID         string          `json:"id"`
	StreamID   string          `json:"stream_id"`
	StreamType string          `json:"stream_type"`
	Version    int             `json:"version"`
	EventType  string          `json:"event_type"`
	Payload    json.RawMessage `json:"payload"`
	CreatedAt  time.Time       `json:"created_at"`
}

// Event represents a domain event.
type Event interface {
	EventType() string
}

// OrderPlaced is emitted when an order is committed.
type OrderPlaced struct {
	OrderID       string          `json:"order_id"`
	UserID        string          `json:"user_id"`
	Items         []OrderItem     `json:"items"`
	Total         decimal.Decimal `json:"total"`
	TransactionID string          `json:"transaction_id"`
	PlacedAt      time.Time       `json:"placed_at"`
}

func (e OrderPlaced) EventType() string { return "OrderPlaced" }

// OrderStatusChanged is emitted when an administrator moves an order's
// status or payment status.
type OrderStatusChanged struct {
	OrderID       string        `json:"order_id"`
	Status        OrderStatus   `json:"status"`
	PaymentStatus PaymentStatus `json:"payment_status"`
	ChangedAt     time.Time     `json:"changed_at"`
}

func (e OrderStatusChanged) EventType() string { return "OrderStatusChanged" }
