package cancellation

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"tourly/internal/bookings"
	"tourly/internal/policies"
	"tourly/internal/shared/apperr"
	"tourly/internal/users"
)

// BookingCancellation is the full audit record of one cancellation request.
// Exactly one may exist per booking, enforced by a unique index.
type BookingCancellation struct {
	ID uuid.UUID `json:"id" gorm:"type:uuid;default:uuid_generate_v4();primaryKey"`

	BookingID uuid.UUID         `json:"booking_id" gorm:"type:uuid;uniqueIndex;not null"`
	Booking   *bookings.Booking `json:"booking,omitempty" gorm:"foreignKey:BookingID"`

	RequestedBy uuid.UUID   `json:"requested_by" gorm:"type:uuid;not null;index"`
	Requester   *users.User `json:"requester,omitempty" gorm:"foreignKey:RequestedBy"`

	// The policy applied at request time. Policies are deprecated, never
	// deleted, so this reference stays resolvable.
	PolicyID uuid.UUID                    `json:"policy_id" gorm:"type:uuid;not null"`
	Policy   *policies.CancellationPolicy `json:"policy,omitempty" gorm:"foreignKey:PolicyID"`

	Reason          Reason `json:"reason" gorm:"type:varchar(30);not null"`
	ReasonDetails   string `json:"reason_details" gorm:"type:text"`
	AdditionalNotes string `json:"additional_notes" gorm:"type:text"`

	// Financial snapshot, frozen at request time.
	OriginalAmount    decimal.Decimal `json:"original_amount" gorm:"type:numeric(10,2);not null"`
	RefundPercentage  decimal.Decimal `json:"refund_percentage" gorm:"type:numeric(5,2);not null"`
	RefundAmount      decimal.Decimal `json:"refund_amount" gorm:"type:numeric(10,2);not null"`
	CancellationFee   decimal.Decimal `json:"cancellation_fee" gorm:"type:numeric(10,2);not null;default:0"`
	ProcessingFee     decimal.Decimal `json:"processing_fee" gorm:"type:numeric(10,2);not null;default:0"`
	FinalRefundAmount decimal.Decimal `json:"final_refund_amount" gorm:"type:numeric(10,2);not null"`

	// Timing snapshot.
	HoursBeforeDeparture int       `json:"hours_before_departure" gorm:"not null"`
	DepartureDate        time.Time `json:"departure_date" gorm:"not null"`
	CancelledAt          time.Time `json:"cancelled_at" gorm:"not null"`

	Status       Status       `json:"status" gorm:"type:varchar(20);not null;default:'REQUESTED';index"`
	RefundStatus RefundStatus `json:"refund_status" gorm:"type:varchar(20);not null;default:'PENDING'"`

	// Admin decision trail.
	ProcessedBy *uuid.UUID `json:"processed_by,omitempty" gorm:"type:uuid"`
	ProcessedAt *time.Time `json:"processed_at,omitempty"`
	AdminNotes  string     `json:"admin_notes" gorm:"type:text"`

	// Emergency circumstances claimed on submission.
	IsMedicalEmergency bool `json:"is_medical_emergency" gorm:"default:false"`
	IsWeatherRelated   bool `json:"is_weather_related" gorm:"default:false"`
	IsForceMajeure     bool `json:"is_force_majeure" gorm:"default:false"`

	// Comma-separated document URLs supporting an exception claim.
	SupportingDocuments string `json:"supporting_documents,omitempty" gorm:"type:text"`

	// Refund execution trail.
	RefundTransactionID string     `json:"refund_transaction_id,omitempty"`
	RefundMethod        string     `json:"refund_method,omitempty"`
	RefundProcessedAt   *time.Time `json:"refund_processed_at,omitempty"`
	RefundFailureReason string     `json:"refund_failure_reason,omitempty" gorm:"type:text"`

	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

// TableName sets the table name for BookingCancellation
func (BookingCancellation) TableName() string {
	return "booking_cancellations"
}

// IsRefundEligible reports whether any money is actually owed
func (c *BookingCancellation) IsRefundEligible() bool {
	return c.FinalRefundAmount.IsPositive()
}

// IsEmergencyException reports whether any emergency circumstance was claimed
func (c *BookingCancellation) IsEmergencyException() bool {
	return c.IsMedicalEmergency || c.IsWeatherRelated || c.IsForceMajeure
}

// Approve moves the request to APPROVED and primes the refund side:
// PROCESSING when money is owed, NOT_APPLICABLE otherwise.
func (c *BookingCancellation) Approve(adminID uuid.UUID, notes string, now time.Time) error {
	if !c.Status.CanBeProcessed() {
		return apperr.InvalidTransition(c.Status.String(), StatusApproved.String())
	}

	c.Status = StatusApproved
	c.ProcessedBy = &adminID
	c.ProcessedAt = &now
	c.AdminNotes = notes

	if c.IsRefundEligible() {
		c.RefundStatus = RefundProcessing
	} else {
		c.RefundStatus = RefundNotApplicable
	}
	return nil
}

// Reject closes the request without cancelling the booking.
func (c *BookingCancellation) Reject(adminID uuid.UUID, notes string, now time.Time) error {
	if !c.Status.CanBeProcessed() {
		return apperr.InvalidTransition(c.Status.String(), StatusRejected.String())
	}

	c.Status = StatusRejected
	c.ProcessedBy = &adminID
	c.ProcessedAt = &now
	c.AdminNotes = notes
	c.RefundStatus = RefundNotApplicable
	return nil
}

// CompleteRefund records a successful payout and closes the request.
// Only valid from APPROVED with a refund in flight.
func (c *BookingCancellation) CompleteRefund(transactionID, method string, now time.Time) error {
	if c.Status != StatusApproved {
		return apperr.InvalidTransition(c.Status.String(), StatusCompleted.String())
	}
	if c.RefundStatus != RefundProcessing {
		return apperr.Newf(apperr.KindInvalidState, apperr.CodeRefundNotEligible,
			"refund is %s, not PROCESSING", c.RefundStatus)
	}

	c.RefundStatus = RefundCompleted
	c.RefundTransactionID = transactionID
	c.RefundMethod = method
	c.RefundProcessedAt = &now
	c.Status = StatusCompleted
	return nil
}

// FailRefund marks the payout as failed. The request stays APPROVED so the
// refund can be retried after the failure is resolved.
func (c *BookingCancellation) FailRefund(reason string) error {
	if c.Status != StatusApproved || c.RefundStatus != RefundProcessing {
		return apperr.Newf(apperr.KindInvalidState, apperr.CodeRefundNotEligible,
			"no refund in flight (status=%s refund=%s)", c.Status, c.RefundStatus)
	}

	c.RefundStatus = RefundFailed
	c.RefundFailureReason = reason
	return nil
}

// RetryRefund puts a failed payout back in flight.
func (c *BookingCancellation) RetryRefund() error {
	if c.Status != StatusApproved || c.RefundStatus != RefundFailed {
		return apperr.Newf(apperr.KindInvalidState, apperr.CodeRefundNotEligible,
			"only failed refunds can be retried (status=%s refund=%s)", c.Status, c.RefundStatus)
	}

	c.RefundStatus = RefundProcessing
	c.RefundFailureReason = ""
	return nil
}

type CancellationListQuery struct {
	Page   int    `form:"page" binding:"omitempty,min=1"`
	Limit  int    `form:"limit" binding:"omitempty,min=1,max=100"`
	Status string `form:"status" binding:"omitempty,oneof=REQUESTED UNDER_REVIEW APPROVED REJECTED COMPLETED"`
}

// Statistics summarizes cancellation volume for an admin dashboard
type Statistics struct {
	TotalCancellations    int64           `json:"total_cancellations"`
	PendingCancellations  int64           `json:"pending_cancellations"`
	ApprovedCancellations int64           `json:"approved_cancellations"`
	RejectedCancellations int64           `json:"rejected_cancellations"`
	CompletedRefunds      int64           `json:"completed_refunds"`
	TotalRefunded         decimal.Decimal `json:"total_refunded"`
}

// ReasonStat is one row of the cancellation-reason breakdown
type ReasonStat struct {
	Reason     Reason  `json:"reason"`
	Count      int64   `json:"count"`
	Percentage float64 `json:"percentage"`
}

// UserSummary profiles one customer's cancellation history
type UserSummary struct {
	TotalCancellations  int64           `json:"total_cancellations"`
	TotalRefundReceived decimal.Decimal `json:"total_refund_received"`
	IsFrequentCanceller bool            `json:"is_frequent_canceller"`
	IsAbusiveCanceller  bool            `json:"is_abusive_canceller"`
}
