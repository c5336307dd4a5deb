package payments

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// RefundRequest describes a payout back to the customer.
type RefundRequest struct {
	BookingRef string
	Amount     decimal.Decimal
	Method     string // CREDIT_CARD, BANK_TRANSFER, VOUCHER
	Reference  string // cancellation or modification ID
}

// ChargeRequest describes an additional capture against the customer.
type ChargeRequest struct {
	BookingRef string
	Amount     decimal.Decimal
	Reference  string
}

// Gateway is the payment collaborator of the two workflows. The refund and
// capture calls happen BEFORE any state transition is recorded, so a gateway
// failure leaves the workflow state untouched and retriable.
type Gateway interface {
	Refund(ctx context.Context, req RefundRequest) (transactionID string, err error)
	Charge(ctx context.Context, req ChargeRequest) (transactionID string, err error)
	ConfirmCaptured(ctx context.Context, bookingRef, reference string) (bool, error)
}

// mockGateway simulates a payment provider. Every refund and charge
// succeeds and captures are acknowledged immediately.
type mockGateway struct{}

// NewMockGateway returns a gateway stand-in for development and tests.
func NewMockGateway() Gateway {
	return &mockGateway{}
}

func (g *mockGateway) Refund(ctx context.Context, req RefundRequest) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if !req.Amount.IsPositive() {
		return "", fmt.Errorf("refund amount must be positive, got %s", req.Amount)
	}
	return generateTransactionID("RFD"), nil
}

func (g *mockGateway) Charge(ctx context.Context, req ChargeRequest) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if !req.Amount.IsPositive() {
		return "", fmt.Errorf("charge amount must be positive, got %s", req.Amount)
	}
	return generateTransactionID("CHG"), nil
}

func (g *mockGateway) ConfirmCaptured(ctx context.Context, bookingRef, reference string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	return true, nil
}

// generateTransactionID generates a mock transaction ID
func generateTransactionID(prefix string) string {
	timestamp := time.Now().Unix()
	shortUUID := strings.ReplaceAll(uuid.New().String(), "-", "")[:8]
	return fmt.Sprintf("%s_%d_%s", prefix, timestamp, strings.ToUpper(shortUUID))
}
