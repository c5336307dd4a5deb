package modifications

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"tourly/internal/bookings"
	"tourly/internal/shared/apperr"
	"tourly/internal/users"
)

// BookingModification is the audit record of one change request. Original
// values are snapshotted at submission so the record stays readable after
// the booking itself has moved on.
type BookingModification struct {
	ID uuid.UUID `json:"id" gorm:"type:uuid;default:uuid_generate_v4();primaryKey"`

	BookingID uuid.UUID         `json:"booking_id" gorm:"type:uuid;not null;index"`
	Booking   *bookings.Booking `json:"booking,omitempty" gorm:"foreignKey:BookingID"`

	RequestedBy uuid.UUID   `json:"requested_by" gorm:"type:uuid;not null;index"`
	Requester   *users.User `json:"requester,omitempty" gorm:"foreignKey:RequestedBy"`

	Type   Type   `json:"modification_type" gorm:"column:modification_type;type:varchar(40);not null"`
	Reason string `json:"reason" gorm:"type:text"`

	// Original booking values at submission.
	OriginalStartDate   time.Time `json:"original_start_date" gorm:"not null"`
	OriginalNumAdults   int       `json:"original_num_adults" gorm:"not null"`
	OriginalNumChildren int       `json:"original_num_children" gorm:"not null"`
	OriginalScheduleID  uuid.UUID `json:"original_schedule_id" gorm:"type:uuid;not null"`

	// Requested values. Nil means the field is unchanged.
	NewStartDate   *time.Time `json:"new_start_date,omitempty"`
	NewNumAdults   *int       `json:"new_num_adults,omitempty"`
	NewNumChildren *int       `json:"new_num_children,omitempty"`
	NewScheduleID  *uuid.UUID `json:"new_schedule_id,omitempty" gorm:"type:uuid"`

	// Pricing snapshot, frozen at submission and refreshed on admin re-quote.
	OriginalAmount            decimal.Decimal `json:"original_amount" gorm:"type:numeric(10,2);not null"`
	NewAmount                 decimal.Decimal `json:"new_amount" gorm:"type:numeric(10,2);not null"`
	PriceDifference           decimal.Decimal `json:"price_difference" gorm:"type:numeric(10,2);not null"`
	ProcessingFee             decimal.Decimal `json:"processing_fee" gorm:"type:numeric(10,2);not null;default:0"`
	RequiresAdditionalPayment bool            `json:"requires_additional_payment" gorm:"default:false"`
	OffersRefund              bool            `json:"offers_refund" gorm:"default:false"`

	Status Status `json:"status" gorm:"type:varchar(20);not null;default:'REQUESTED';index"`

	// Admin decision trail.
	ProcessedBy *uuid.UUID `json:"processed_by,omitempty" gorm:"type:uuid"`
	ProcessedAt *time.Time `json:"processed_at,omitempty"`
	AdminNotes  string     `json:"admin_notes" gorm:"type:text"`

	// Payment trail for additional charges.
	PaymentTransactionID string     `json:"payment_transaction_id,omitempty"`
	PaymentCapturedAt    *time.Time `json:"payment_captured_at,omitempty"`

	CompletedBy *uuid.UUID `json:"completed_by,omitempty" gorm:"type:uuid"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`

	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

// TableName sets the table name for BookingModification
func (BookingModification) TableName() string {
	return "booking_modifications"
}

// TotalAdditionalAmount is what the customer still owes to proceed:
// positive difference plus the processing fee.
func (m *BookingModification) TotalAdditionalAmount() decimal.Decimal {
	if m.PriceDifference.IsPositive() {
		return m.PriceDifference.Add(m.ProcessingFee)
	}
	return m.ProcessingFee
}

// ApplyQuote stamps a pricing quote onto the record.
func (m *BookingModification) ApplyQuote(quote PricingQuote) {
	m.OriginalAmount = quote.OriginalAmount
	m.NewAmount = quote.NewAmount
	m.PriceDifference = quote.PriceDifference
	m.ProcessingFee = quote.ProcessingFee
	m.RequiresAdditionalPayment = quote.RequiresAdditionalPayment
	m.OffersRefund = quote.OffersRefund
	m.NewScheduleID = quote.NewScheduleID
}

// Approve moves the request to APPROVED. Requests without additional
// charges skip straight to PROCESSING since there is nothing to collect.
func (m *BookingModification) Approve(adminID uuid.UUID, notes string, now time.Time) error {
	if !m.Status.CanBeDecided() {
		return apperr.InvalidTransition(m.Status.String(), StatusApproved.String())
	}

	m.Status = StatusApproved
	m.ProcessedBy = &adminID
	m.ProcessedAt = &now
	m.AdminNotes = notes

	if !m.RequiresAdditionalPayment {
		m.Status = StatusProcessing
	}
	return nil
}

// Reject closes the request without touching the booking.
func (m *BookingModification) Reject(adminID uuid.UUID, notes string, now time.Time) error {
	if !m.Status.CanBeDecided() {
		return apperr.InvalidTransition(m.Status.String(), StatusRejected.String())
	}

	m.Status = StatusRejected
	m.ProcessedBy = &adminID
	m.ProcessedAt = &now
	m.AdminNotes = notes
	return nil
}

// CancelByCustomer withdraws the request. Allowed until processing starts.
func (m *BookingModification) CancelByCustomer(now time.Time) error {
	if !m.Status.CanBeCancelledByCustomer() {
		return apperr.InvalidTransition(m.Status.String(), StatusCancelled.String())
	}

	m.Status = StatusCancelled
	m.ProcessedAt = &now
	return nil
}

// AcceptCharges records the customer's acceptance of the additional amount
// and moves the request into processing. Only meaningful when payment is
// actually due.
func (m *BookingModification) AcceptCharges(transactionID string, now time.Time) error {
	if m.Status != StatusApproved {
		return apperr.InvalidTransition(m.Status.String(), StatusProcessing.String())
	}
	if !m.RequiresAdditionalPayment {
		return apperr.New(apperr.KindInvalidState, apperr.CodeInvalidTransition,
			"modification has no additional charges to accept")
	}

	m.Status = StatusProcessing
	m.PaymentTransactionID = transactionID
	m.PaymentCapturedAt = &now
	return nil
}

// Complete closes the request. The caller is responsible for verifying
// payment capture and applying the changes to the booking first. The
// completing admin is recorded separately from the approver in ProcessedBy.
func (m *BookingModification) Complete(adminID uuid.UUID, now time.Time) error {
	if m.Status != StatusProcessing {
		return apperr.InvalidTransition(m.Status.String(), StatusCompleted.String())
	}

	m.Status = StatusCompleted
	m.CompletedBy = &adminID
	m.CompletedAt = &now
	return nil
}

// CanBeRequoted reports whether the pricing snapshot may still change.
func (m *BookingModification) CanBeRequoted() bool {
	return m.Status.CanBeDecided()
}

// BookingChange translates the requested values into the booking update
// applied on completion.
func (m *BookingModification) BookingChange(tourDurationDays int) bookings.ModificationChange {
	change := bookings.ModificationChange{
		NumAdults:   m.NewNumAdults,
		NumChildren: m.NewNumChildren,
		ScheduleID:  m.NewScheduleID,
	}

	if m.NewStartDate != nil {
		start := *m.NewStartDate
		end := start.AddDate(0, 0, tourDurationDays)
		change.StartDate = &start
		change.EndDate = &end
	}

	if !m.NewAmount.Equal(m.OriginalAmount) {
		amount := m.NewAmount
		change.TotalAmount = &amount
	}

	return change
}

type ModificationListQuery struct {
	Page   int    `form:"page" binding:"omitempty,min=1"`
	Limit  int    `form:"limit" binding:"omitempty,min=1,max=100"`
	Status string `form:"status" binding:"omitempty,oneof=REQUESTED UNDER_REVIEW APPROVED REJECTED PROCESSING COMPLETED CANCELLED"`
}

// Statistics summarizes modification volume for an admin dashboard
type Statistics struct {
	TotalModifications     int64           `json:"total_modifications"`
	PendingModifications   int64           `json:"pending_modifications"`
	ApprovedModifications  int64           `json:"approved_modifications"`
	RejectedModifications  int64           `json:"rejected_modifications"`
	CompletedModifications int64           `json:"completed_modifications"`
	TotalAdditionalRevenue decimal.Decimal `json:"total_additional_revenue"`
}

// TypeStat is one row of the modification-type breakdown
type TypeStat struct {
	Type       Type    `json:"modification_type"`
	Count      int64   `json:"count"`
	Percentage float64 `json:"percentage"`
}
