package notifications

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// EventType identifies what happened to a booking
type EventType string

const (
	EventCancellationApproved  EventType = "cancellation.approved"
	EventCancellationRejected  EventType = "cancellation.rejected"
	EventRefundCompleted       EventType = "cancellation.refund_completed"
	EventRefundFailed          EventType = "cancellation.refund_failed"
	EventModificationApproved  EventType = "modification.approved"
	EventModificationCompleted EventType = "modification.completed"
)

// BookingEvent is the envelope written to the booking-events topic.
// Keyed by BookingID so consumers see one booking's events in order.
type BookingEvent struct {
	ID         uuid.UUID `json:"id"`
	Type       EventType `json:"type"`
	BookingID  uuid.UUID `json:"booking_id"`
	BookingRef string    `json:"booking_ref"`
	UserID     uuid.UUID `json:"user_id"`
	OccurredAt time.Time `json:"occurred_at"`

	// Set for cancellation events.
	CancellationID *uuid.UUID       `json:"cancellation_id,omitempty"`
	RefundAmount   *decimal.Decimal `json:"refund_amount,omitempty"`
	TransactionID  string           `json:"transaction_id,omitempty"`

	// Set for modification events.
	ModificationID   *uuid.UUID       `json:"modification_id,omitempty"`
	PriceDifference  *decimal.Decimal `json:"price_difference,omitempty"`
	ModificationType string           `json:"modification_type,omitempty"`
}
