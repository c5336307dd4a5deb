package modifications

// Type classifies what a modification changes about the booking
type Type string

const (
	TypeDateChange               Type = "DATE_CHANGE"
	TypeParticipantChange        Type = "PARTICIPANT_CHANGE"
	TypeDateAndParticipantChange Type = "DATE_AND_PARTICIPANT_CHANGE"
	TypeUpgradeTourPackage       Type = "UPGRADE_TOUR_PACKAGE"
	TypeAccommodationChange      Type = "ACCOMMODATION_CHANGE"
	TypeOther                    Type = "OTHER"
)

func (t Type) IsValid() bool {
	switch t {
	case TypeDateChange, TypeParticipantChange, TypeDateAndParticipantChange,
		TypeUpgradeTourPackage, TypeAccommodationChange, TypeOther:
		return true
	}
	return false
}

func (t Type) String() string {
	return string(t)
}

// ChangesDate reports whether this modification type moves the departure
func (t Type) ChangesDate() bool {
	return t == TypeDateChange || t == TypeDateAndParticipantChange
}

// ChangesParticipants reports whether this modification type changes headcount
func (t Type) ChangesParticipants() bool {
	return t == TypeParticipantChange || t == TypeDateAndParticipantChange
}

// IsManuallyPriced reports whether the price difference comes from the
// request rather than the pricer's own rules
func (t Type) IsManuallyPriced() bool {
	return t == TypeUpgradeTourPackage || t == TypeAccommodationChange || t == TypeOther
}

// Status is the workflow state of a modification request
type Status string

const (
	StatusRequested   Status = "REQUESTED"
	StatusUnderReview Status = "UNDER_REVIEW"
	StatusApproved    Status = "APPROVED"
	StatusRejected    Status = "REJECTED"
	StatusProcessing  Status = "PROCESSING"
	StatusCompleted   Status = "COMPLETED"
	StatusCancelled   Status = "CANCELLED"
)

func (s Status) IsValid() bool {
	switch s {
	case StatusRequested, StatusUnderReview, StatusApproved, StatusRejected,
		StatusProcessing, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

func (s Status) String() string {
	return string(s)
}

// IsActive reports whether the request still blocks new modifications on
// the same booking
func (s Status) IsActive() bool {
	switch s {
	case StatusRequested, StatusUnderReview, StatusApproved, StatusProcessing:
		return true
	}
	return false
}

// CanBeDecided reports whether an admin approve/reject is still possible
func (s Status) CanBeDecided() bool {
	return s == StatusRequested || s == StatusUnderReview
}

// CanBeCancelledByCustomer reports whether the requester may withdraw
func (s Status) CanBeCancelledByCustomer() bool {
	return s == StatusRequested || s == StatusUnderReview || s == StatusApproved
}

// IsTerminal reports whether no further transitions are possible
func (s Status) IsTerminal() bool {
	return s == StatusRejected || s == StatusCompleted || s == StatusCancelled
}
