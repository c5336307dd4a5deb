package cancellation

// Reason categorizes why a booking is being cancelled
type Reason string

const (
	ReasonPersonalEmergency  Reason = "PERSONAL_EMERGENCY"
	ReasonMedicalEmergency   Reason = "MEDICAL_EMERGENCY"
	ReasonWeatherConditions  Reason = "WEATHER_CONDITIONS"
	ReasonForceMajeure       Reason = "FORCE_MAJEURE"
	ReasonTravelRestrictions Reason = "TRAVEL_RESTRICTIONS"
	ReasonScheduleConflict   Reason = "SCHEDULE_CONFLICT"
	ReasonFinancialHardship  Reason = "FINANCIAL_DIFFICULTY"
	ReasonDissatisfaction    Reason = "DISSATISFACTION"
	ReasonDuplicateBooking   Reason = "DUPLICATE_BOOKING"
	ReasonTechnicalError     Reason = "TECHNICAL_ERROR"
	ReasonOther              Reason = "OTHER"
)

func (r Reason) IsValid() bool {
	switch r {
	case ReasonPersonalEmergency, ReasonMedicalEmergency, ReasonWeatherConditions,
		ReasonForceMajeure, ReasonTravelRestrictions, ReasonScheduleConflict,
		ReasonFinancialHardship, ReasonDissatisfaction, ReasonDuplicateBooking,
		ReasonTechnicalError, ReasonOther:
		return true
	}
	return false
}

func (r Reason) String() string {
	return string(r)
}

// Status is the review state of a cancellation request
type Status string

const (
	StatusRequested   Status = "REQUESTED"
	StatusUnderReview Status = "UNDER_REVIEW"
	StatusApproved    Status = "APPROVED"
	StatusRejected    Status = "REJECTED"
	StatusCompleted   Status = "COMPLETED"
)

func (s Status) IsValid() bool {
	switch s {
	case StatusRequested, StatusUnderReview, StatusApproved, StatusRejected, StatusCompleted:
		return true
	}
	return false
}

func (s Status) String() string {
	return string(s)
}

// CanBeProcessed reports whether an admin decision is still possible
func (s Status) CanBeProcessed() bool {
	return s == StatusRequested || s == StatusUnderReview
}

// IsTerminal reports whether no further transitions are possible
func (s Status) IsTerminal() bool {
	return s == StatusRejected || s == StatusCompleted
}

// RefundStatus tracks the money side independently of the review state
type RefundStatus string

const (
	RefundPending       RefundStatus = "PENDING"
	RefundProcessing    RefundStatus = "PROCESSING"
	RefundCompleted     RefundStatus = "COMPLETED"
	RefundFailed        RefundStatus = "FAILED"
	RefundNotApplicable RefundStatus = "NOT_APPLICABLE"
)

func (s RefundStatus) IsValid() bool {
	switch s {
	case RefundPending, RefundProcessing, RefundCompleted, RefundFailed, RefundNotApplicable:
		return true
	}
	return false
}

func (s RefundStatus) String() string {
	return string(s)
}
