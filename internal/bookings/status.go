package bookings

type Status string

const (
	StatusPending               Status = "PENDING"
	StatusConfirmed             Status = "CONFIRMED"
	StatusCancellationRequested Status = "CANCELLATION_REQUESTED"
	StatusCancelled             Status = "CANCELLED"
	StatusCompleted             Status = "COMPLETED"
)

// IsValid checks if the booking status is valid
func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusCancellationRequested, StatusCancelled, StatusCompleted:
		return true
	}
	return false
}

// String returns the string representation of Status
func (s Status) String() string {
	return string(s)
}

// CanBeCancelled checks if a booking with this status may open a cancellation
func (s Status) CanBeCancelled() bool {
	return s == StatusConfirmed
}

// CanBeModified checks if a booking with this status may open a modification
func (s Status) CanBeModified() bool {
	return s == StatusConfirmed
}

// IsActive checks if the booking still occupies seats
func (s Status) IsActive() bool {
	return s == StatusPending || s == StatusConfirmed || s == StatusCancellationRequested
}
