package bookings

import (
	"context"
	"time"

	"tourly/internal/shared/apperr"

	"github.com/google/uuid"
)

// Service interface defines the contract for booking reads and the
// completion actions the workflows delegate here.
type Service interface {
	GetBooking(ctx context.Context, bookingID uuid.UUID) (*Booking, error)
	GetBookingWithRelations(ctx context.Context, bookingID uuid.UUID) (*Booking, error)
	GetUserBookings(ctx context.Context, userID uuid.UUID, query BookingListQuery) ([]Booking, int64, error)

	// Completion actions, called only by the cancellation and modification
	// workflows. They validate the current status before writing.
	MarkCancellationRequested(ctx context.Context, bookingID uuid.UUID) error
	MarkCancelled(ctx context.Context, bookingID uuid.UUID) error
	RestoreConfirmed(ctx context.Context, bookingID uuid.UUID) error
	ApplyModification(ctx context.Context, bookingID uuid.UUID, change ModificationChange) error
}

// service implements the Service interface
type service struct {
	repo Repository
}

// NewService creates a new booking service instance
func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func (s *service) GetBooking(ctx context.Context, bookingID uuid.UUID) (*Booking, error) {
	return s.repo.GetByID(ctx, bookingID)
}

func (s *service) GetBookingWithRelations(ctx context.Context, bookingID uuid.UUID) (*Booking, error) {
	return s.repo.GetByIDWithRelations(ctx, bookingID)
}

func (s *service) GetUserBookings(ctx context.Context, userID uuid.UUID, query BookingListQuery) ([]Booking, int64, error) {
	return s.repo.GetByUserID(ctx, userID, query)
}

// MarkCancellationRequested flags the booking while its cancellation is open.
func (s *service) MarkCancellationRequested(ctx context.Context, bookingID uuid.UUID) error {
	booking, err := s.repo.GetByID(ctx, bookingID)
	if err != nil {
		return err
	}
	if !booking.Status.CanBeCancelled() {
		return apperr.Newf(apperr.KindInvalidState, apperr.CodeNotConfirmed,
			"booking %s cannot be cancelled in status %s", bookingID, booking.Status)
	}
	return s.repo.UpdateStatus(ctx, bookingID, StatusCancellationRequested, nil)
}

// MarkCancelled finalizes the booking once its cancellation is approved.
func (s *service) MarkCancelled(ctx context.Context, bookingID uuid.UUID) error {
	booking, err := s.repo.GetByID(ctx, bookingID)
	if err != nil {
		return err
	}
	if booking.Status == StatusCancelled {
		return apperr.Newf(apperr.KindInvalidState, apperr.CodeInvalidTransition,
			"booking %s is already cancelled", bookingID)
	}
	now := time.Now()
	return s.repo.UpdateStatus(ctx, bookingID, StatusCancelled, &now)
}

// RestoreConfirmed returns the booking to CONFIRMED after a rejected
// cancellation.
func (s *service) RestoreConfirmed(ctx context.Context, bookingID uuid.UUID) error {
	booking, err := s.repo.GetByID(ctx, bookingID)
	if err != nil {
		return err
	}
	if booking.Status != StatusCancellationRequested {
		return apperr.InvalidTransition(booking.Status.String(), StatusConfirmed.String())
	}
	return s.repo.UpdateStatus(ctx, bookingID, StatusConfirmed, nil)
}

// ApplyModification rewrites booking fields once a modification completes.
func (s *service) ApplyModification(ctx context.Context, bookingID uuid.UUID, change ModificationChange) error {
	booking, err := s.repo.GetByID(ctx, bookingID)
	if err != nil {
		return err
	}
	if !booking.Status.CanBeModified() {
		return apperr.Newf(apperr.KindInvalidState, apperr.CodeNotConfirmed,
			"booking %s cannot be modified in status %s", bookingID, booking.Status)
	}
	return s.repo.ApplyModification(ctx, bookingID, change)
}
