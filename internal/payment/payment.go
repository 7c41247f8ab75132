// Package payment defines the port the checkout uses to take money and a mock
// gateway that approves everything.
package payment

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
	"github.com/manalamro/chippy/internal/entity"
	"github.com/shopspring/decimal"
)

// Authorization is a gateway's answer to a charge.
type Authorization struct {
	Success       bool   `json:"success"`
	TransactionID string `json:"transaction_id"`
}

// Gateway authorizes a charge for an order total.
type Gateway interface {
	Authorize(ctx context.Context, amount decimal.Decimal, details entity.PaymentDetails) (*Authorization, error)
}

// MockGateway approves every charge with a fresh txn_ id.
type MockGateway struct{}

func NewMockGateway() *MockGateway {
	return &MockGateway{}
}

func (g *MockGateway) Authorize(ctx context.Context, amount decimal.Decimal, details entity.PaymentDetails) (*Authorization, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	auth := &Authorization{Success: true, TransactionID: "txn_" + uuid.NewString()}
	slog.Debug("Payment: Authorized (mock)", "amount", amount.StringFixed(2), "transaction_id", auth.TransactionID)
	return auth, nil
}
