package entity

import (
	"fmt"
	"strings"
)

type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusShipped    OrderStatus = "shipped"
	OrderStatusDelivered  OrderStatus = "delivered"
	OrderStatusCancelled  OrderStatus = "cancelled"
)

// OrderStatuses is the allow-list accepted by the admin status workflow.
var OrderStatuses = []OrderStatus{
	OrderStatusPending,
	OrderStatusProcessing,
	OrderStatusShipped,
	OrderStatusDelivered,
	OrderStatusCancelled,
}

type PaymentStatus string

const (
	PaymentStatusUnpaid   PaymentStatus = "unpaid"
	PaymentStatusPaid     PaymentStatus = "paid"
	PaymentStatusRefunded PaymentStatus = "refunded"
	PaymentStatusFailed   PaymentStatus = "failed"
)

var PaymentStatuses = []PaymentStatus{
	PaymentStatusUnpaid,
	PaymentStatusPaid,
	PaymentStatusRefunded,
	PaymentStatusFailed,
}

// ParseOrderStatus maps user input onto the allow-list.
func ParseOrderStatus(s string) (OrderStatus, error) {
	v := OrderStatus(strings.ToLower(strings.TrimSpace(s)))
	for _, allowed := range OrderStatuses {
		if v == allowed {
			return v, nil
		}
	}
	return "", fmt.Errorf("%w %q, allowed values: %s", ErrInvalidOrderStatus, s, joinStatuses(OrderStatuses))
}

// ParsePaymentStatus maps user input onto the allow-list.
func ParsePaymentStatus(s string) (PaymentStatus, error) {
	v := PaymentStatus(strings.ToLower(strings.TrimSpace(s)))
	for _, allowed := range PaymentStatuses {
		if v == allowed {
			return v, nil
		}
	}
	return "", fmt.Errorf("%w %q, allowed values: %s", ErrInvalidPaymentStatus, s, joinStatuses(PaymentStatuses))
}

func joinStatuses[T ~string](values []T) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = string(v)
	}
	return strings.Join(parts, ", ")
}

// PlacementState tracks how far an order placement got before it committed
// or rolled back.
type PlacementState int

const (
	PlacementStarted PlacementState = iota
	PlacementCartValidated
	PlacementAddressValidated
	PlacementPaymentAuthorized
	PlacementStockChecked
	PlacementOrderCreated
	PlacementItemsInserted
	PlacementStockDecremented
	PlacementCartCleared
	PlacementCommitted
	PlacementRolledBack
)

var placementStateNames = [...]string{
	"Started",
	"CartValidated",
	"AddressValidated",
	"PaymentAuthorized",
	"StockChecked",
	"OrderCreated",
	"ItemsInserted",
	"StockDecremented",
	"CartCleared",
	"Committed",
	"RolledBack",
}

func (s PlacementState) String() string {
	if s < 0 || int(s) >= len(placementStateNames) {
		return fmt.Sprintf("PlacementState(%d)", int(s))
	}
	return placementStateNames[s]
}

// Writing reports whether the step after s writes to the store. A placement
// that fails from such a state relies on rollback rather than on never having
// written.
func (s PlacementState) Writing() bool {
	return s >= PlacementStockChecked && s < PlacementCommitted
}
