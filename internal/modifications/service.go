package modifications

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"tourly/internal/bookings"
	"tourly/internal/notifications"
	"tourly/internal/payments"
	"tourly/internal/shared/apperr"
	"tourly/internal/shared/config"
	"tourly/internal/shared/txn"
	"tourly/pkg/logger"
)

// Service interface defines the contract for the modification workflow
type Service interface {
	// Customer operations
	Submit(ctx context.Context, bookingID, userID uuid.UUID, req SubmitRequest) (*BookingModification, error)
	Quote(ctx context.Context, bookingID, userID uuid.UUID, req SubmitRequest) (*PricingQuote, error)
	GetModification(ctx context.Context, id uuid.UUID) (*BookingModification, error)
	GetUserModifications(ctx context.Context, userID uuid.UUID, query ModificationListQuery) ([]BookingModification, int64, error)
	GetBookingModifications(ctx context.Context, bookingID uuid.UUID) ([]BookingModification, error)
	CancelByCustomer(ctx context.Context, id, userID uuid.UUID) (*BookingModification, error)
	AcceptCharges(ctx context.Context, id, userID uuid.UUID) (*BookingModification, error)

	// Admin review operations
	Approve(ctx context.Context, id, adminID uuid.UUID, notes string) (*BookingModification, error)
	Reject(ctx context.Context, id, adminID uuid.UUID, notes string) (*BookingModification, error)
	Complete(ctx context.Context, id, adminID uuid.UUID) (*BookingModification, error)
	UpdateDetails(ctx context.Context, id uuid.UUID, req UpdateDetailsRequest) (*BookingModification, error)
	ListPending(ctx context.Context, query ModificationListQuery) ([]BookingModification, int64, error)
	ListByStatus(ctx context.Context, status Status, query ModificationListQuery) ([]BookingModification, int64, error)

	// Reporting
	GetStatistics(ctx context.Context, from, to time.Time) (*Statistics, error)
	GetTypeStats(ctx context.Context, from, to time.Time) ([]TypeStat, error)
}

// BookingService is the slice of the bookings API this workflow needs
type BookingService interface {
	GetBookingWithRelations(ctx context.Context, bookingID uuid.UUID) (*bookings.Booking, error)
	ApplyModification(ctx context.Context, bookingID uuid.UUID, change bookings.ModificationChange) error
}

// ScheduleAdjuster moves seat counts between departures on completion.
// Satisfied by tours.Repository.
type ScheduleAdjuster interface {
	AdjustBookedCount(ctx context.Context, scheduleID uuid.UUID, delta int) error
}

// SubmitRequest is the customer payload opening a modification
type SubmitRequest struct {
	Type           string     `json:"modification_type" binding:"required,oneof=DATE_CHANGE PARTICIPANT_CHANGE DATE_AND_PARTICIPANT_CHANGE UPGRADE_TOUR_PACKAGE ACCOMMODATION_CHANGE OTHER"`
	Reason         string     `json:"reason" binding:"required,min=10,max=500"`
	NewStartDate   *time.Time `json:"new_start_date"`
	NewNumAdults   *int       `json:"new_num_adults" binding:"omitempty,min=0"`
	NewNumChildren *int       `json:"new_num_children" binding:"omitempty,min=0"`

	// Required for manually priced types, ignored otherwise.
	PriceDifference *decimal.Decimal `json:"price_difference"`
}

func (r SubmitRequest) toPricingRequest() PricingRequest {
	return PricingRequest{
		Type:                  Type(r.Type),
		NewStartDate:          r.NewStartDate,
		NewNumAdults:          r.NewNumAdults,
		NewNumChildren:        r.NewNumChildren,
		ManualPriceDifference: r.PriceDifference,
	}
}

// UpdateDetailsRequest is the admin payload refreshing a request's proposed
// changes before a decision is made. The quote is recomputed.
type UpdateDetailsRequest struct {
	NewStartDate   *time.Time `json:"new_start_date"`
	NewNumAdults   *int       `json:"new_num_adults" binding:"omitempty,min=0"`
	NewNumChildren *int       `json:"new_num_children" binding:"omitempty,min=0"`

	PriceDifference *decimal.Decimal `json:"price_difference"`
	AdminNotes      string           `json:"admin_notes" binding:"max=2000"`
}

// service implements the Service interface
type service struct {
	repo           Repository
	tx             txn.Runner
	bookingService BookingService
	pricer         *Pricer
	schedules      ScheduleAdjuster
	gateway        payments.Gateway
	producer       notifications.EventProducer
	engineCfg      config.EngineConfig
	log            *logger.Logger
}

// NewService creates a new modification workflow service instance
func NewService(repo Repository, tx txn.Runner, bookingService BookingService, pricer *Pricer, schedules ScheduleAdjuster, gateway payments.Gateway, producer notifications.EventProducer, engineCfg config.EngineConfig, log *logger.Logger) Service {
	return &service{
		repo:           repo,
		tx:             tx,
		bookingService: bookingService,
		pricer:         pricer,
		schedules:      schedules,
		gateway:        gateway,
		producer:       producer,
		engineCfg:      engineCfg,
		log:            log,
	}
}

// Submit opens a modification request. The quote is computed and frozen
// here; admins may refresh it while the request awaits a decision.
func (s *service) Submit(ctx context.Context, bookingID, userID uuid.UUID, req SubmitRequest) (*BookingModification, error) {
	booking, err := s.bookingService.GetBookingWithRelations(ctx, bookingID)
	if err != nil {
		return nil, err
	}

	if booking.UserID != userID {
		return nil, apperr.New(apperr.KindPolicyViolation, apperr.CodeUnauthorizedRequester,
			"only the booking owner may request modification")
	}
	if err := s.checkSubmittable(ctx, booking); err != nil {
		return nil, err
	}
	if err := validateProposedChanges(booking, req); err != nil {
		return nil, err
	}

	quote, err := s.pricer.Price(ctx, booking, req.toPricingRequest())
	if err != nil {
		return nil, err
	}

	modification := &BookingModification{
		BookingID:           bookingID,
		RequestedBy:         userID,
		Type:                Type(req.Type),
		Reason:              req.Reason,
		OriginalStartDate:   booking.StartDate,
		OriginalNumAdults:   booking.NumAdults,
		OriginalNumChildren: booking.NumChildren,
		OriginalScheduleID:  booking.ScheduleID,
		NewStartDate:        req.NewStartDate,
		NewNumAdults:        req.NewNumAdults,
		NewNumChildren:      req.NewNumChildren,
		Status:              StatusRequested,
	}
	modification.ApplyQuote(quote)

	if err := s.repo.Create(ctx, modification); err != nil {
		return nil, err
	}

	s.log.LogModificationSubmitted(ctx, modification.ID.String(), bookingID.String(), userID.String())
	return modification, nil
}

// Quote prices a proposed modification without creating anything.
func (s *service) Quote(ctx context.Context, bookingID, userID uuid.UUID, req SubmitRequest) (*PricingQuote, error) {
	booking, err := s.bookingService.GetBookingWithRelations(ctx, bookingID)
	if err != nil {
		return nil, err
	}

	if booking.UserID != userID {
		return nil, apperr.New(apperr.KindPolicyViolation, apperr.CodeUnauthorizedRequester,
			"only the booking owner may quote a modification")
	}
	if err := validateProposedChanges(booking, req); err != nil {
		return nil, err
	}

	quote, err := s.pricer.Price(ctx, booking, req.toPricingRequest())
	if err != nil {
		return nil, err
	}
	return &quote, nil
}

func (s *service) GetModification(ctx context.Context, id uuid.UUID) (*BookingModification, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *service) GetUserModifications(ctx context.Context, userID uuid.UUID, query ModificationListQuery) ([]BookingModification, int64, error) {
	return s.repo.ListByUser(ctx, userID, query)
}

func (s *service) GetBookingModifications(ctx context.Context, bookingID uuid.UUID) ([]BookingModification, error) {
	return s.repo.ListByBooking(ctx, bookingID)
}

// CancelByCustomer withdraws the requester's own modification before it
// starts processing.
func (s *service) CancelByCustomer(ctx context.Context, id, userID uuid.UUID) (*BookingModification, error) {
	modification, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if modification.RequestedBy != userID {
		return nil, apperr.New(apperr.KindPolicyViolation, apperr.CodeUnauthorizedRequester,
			"only the requester may cancel a modification request")
	}
	if err := modification.CancelByCustomer(time.Now()); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, modification); err != nil {
		return nil, err
	}
	return modification, nil
}

// AcceptCharges collects the additional amount and moves the request into
// processing. The charge happens before any state is written, so a gateway
// failure leaves the modification APPROVED and retriable.
func (s *service) AcceptCharges(ctx context.Context, id, userID uuid.UUID) (*BookingModification, error) {
	modification, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if modification.RequestedBy != userID {
		return nil, apperr.New(apperr.KindPolicyViolation, apperr.CodeUnauthorizedRequester,
			"only the requester may accept additional charges")
	}
	if modification.Status != StatusApproved {
		return nil, apperr.InvalidTransition(modification.Status.String(), StatusProcessing.String())
	}
	if !modification.RequiresAdditionalPayment {
		return nil, apperr.New(apperr.KindInvalidState, apperr.CodeInvalidTransition,
			"modification has no additional charges to accept")
	}

	bookingRef := ""
	if modification.Booking != nil {
		bookingRef = modification.Booking.BookingRef
	}

	txID, err := s.gateway.Charge(ctx, payments.ChargeRequest{
		BookingRef: bookingRef,
		Amount:     modification.TotalAdditionalAmount(),
		Reference:  modification.ID.String(),
	})
	if err != nil {
		return nil, apperr.Wrap(apperr.KindExternalFailure, apperr.CodeExternalFailure,
			"payment gateway charge failed", err)
	}

	if err := modification.AcceptCharges(txID, time.Now()); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, modification); err != nil {
		return nil, err
	}
	return modification, nil
}

// Approve accepts the request. Free modifications skip straight to
// PROCESSING; ones with additional charges wait for the customer to accept.
func (s *service) Approve(ctx context.Context, id, adminID uuid.UUID, notes string) (*BookingModification, error) {
	modification, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := modification.Approve(adminID, notes, time.Now()); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, modification); err != nil {
		return nil, err
	}

	s.log.InfoWithContext(ctx, "modification approved", map[string]interface{}{
		"modification_id": id,
		"reviewer_id":     adminID,
	})
	s.publish(ctx, modification, notifications.EventModificationApproved, "")
	return modification, nil
}

// Reject closes the request without touching the booking.
func (s *service) Reject(ctx context.Context, id, adminID uuid.UUID, notes string) (*BookingModification, error) {
	modification, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := modification.Reject(adminID, notes, time.Now()); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, modification); err != nil {
		return nil, err
	}

	s.log.InfoWithContext(ctx, "modification rejected", map[string]interface{}{
		"modification_id": id,
		"reviewer_id":     adminID,
	})
	return modification, nil
}

// Complete applies the changes to the booking and closes the request.
// When additional payment was quoted, the capture must be confirmed first;
// an unpaid modification stays in PROCESSING.
func (s *service) Complete(ctx context.Context, id, adminID uuid.UUID) (*BookingModification, error) {
	modification, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if modification.Status != StatusProcessing {
		return nil, apperr.InvalidTransition(modification.Status.String(), StatusCompleted.String())
	}

	booking, err := s.bookingService.GetBookingWithRelations(ctx, modification.BookingID)
	if err != nil {
		return nil, err
	}

	if modification.RequiresAdditionalPayment {
		captured, err := s.gateway.ConfirmCaptured(ctx, booking.BookingRef, modification.ID.String())
		if err != nil {
			return nil, apperr.Wrap(apperr.KindExternalFailure, apperr.CodeExternalFailure,
				"payment capture check failed", err)
		}
		if !captured {
			return nil, apperr.New(apperr.KindInvalidState, apperr.CodePaymentNotCaptured,
				"additional payment has not been captured")
		}
	}

	if err := modification.Complete(adminID, time.Now()); err != nil {
		return nil, err
	}

	durationDays := 1
	if booking.Tour != nil {
		durationDays = booking.Tour.DurationDays
	}

	// The booking rewrite, the seat moves and the record write commit
	// together; a failure rolls all of them back so the request stays
	// PROCESSING and completion can be retried.
	err = s.tx.InTransaction(ctx, func(ctx context.Context) error {
		if err := s.bookingService.ApplyModification(ctx, modification.BookingID, modification.BookingChange(durationDays)); err != nil {
			return err
		}
		if err := s.moveSeats(ctx, modification, booking); err != nil {
			return err
		}
		return s.repo.Update(ctx, modification)
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, modification, notifications.EventModificationCompleted, booking.BookingRef)
	return modification, nil
}

// UpdateDetails refreshes the proposed changes and re-quotes while the
// request is still awaiting a decision.
func (s *service) UpdateDetails(ctx context.Context, id uuid.UUID, req UpdateDetailsRequest) (*BookingModification, error) {
	modification, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if !modification.CanBeRequoted() {
		return nil, apperr.Newf(apperr.KindInvalidState, apperr.CodeInvalidTransition,
			"modification in status %s can no longer be edited", modification.Status)
	}

	booking, err := s.bookingService.GetBookingWithRelations(ctx, modification.BookingID)
	if err != nil {
		return nil, err
	}

	if req.NewStartDate != nil {
		modification.NewStartDate = req.NewStartDate
	}
	if req.NewNumAdults != nil {
		modification.NewNumAdults = req.NewNumAdults
	}
	if req.NewNumChildren != nil {
		modification.NewNumChildren = req.NewNumChildren
	}
	if req.AdminNotes != "" {
		modification.AdminNotes = req.AdminNotes
	}

	pricingReq := PricingRequest{
		Type:                  modification.Type,
		NewStartDate:          modification.NewStartDate,
		NewNumAdults:          modification.NewNumAdults,
		NewNumChildren:        modification.NewNumChildren,
		ManualPriceDifference: req.PriceDifference,
	}
	if modification.Type.IsManuallyPriced() && req.PriceDifference == nil {
		diff := modification.PriceDifference
		pricingReq.ManualPriceDifference = &diff
	}

	quote, err := s.pricer.Price(ctx, booking, pricingReq)
	if err != nil {
		return nil, err
	}
	modification.ApplyQuote(quote)

	if err := s.repo.Update(ctx, modification); err != nil {
		return nil, err
	}
	return modification, nil
}

func (s *service) ListPending(ctx context.Context, query ModificationListQuery) ([]BookingModification, int64, error) {
	return s.repo.ListPending(ctx, query)
}

func (s *service) ListByStatus(ctx context.Context, status Status, query ModificationListQuery) ([]BookingModification, int64, error) {
	return s.repo.ListByStatus(ctx, status, query)
}

func (s *service) GetStatistics(ctx context.Context, from, to time.Time) (*Statistics, error) {
	return s.repo.GetStatistics(ctx, from, to)
}

func (s *service) GetTypeStats(ctx context.Context, from, to time.Time) ([]TypeStat, error) {
	return s.repo.GetTypeStats(ctx, from, to)
}

// checkSubmittable enforces the submission preconditions: the booking must
// be modifiable, carry no other active request, and be far enough from
// departure. The notice rule is independent of any cancellation policy.
func (s *service) checkSubmittable(ctx context.Context, booking *bookings.Booking) error {
	if !booking.Status.CanBeModified() {
		return apperr.Newf(apperr.KindInvalidState, apperr.CodeNotConfirmed,
			"booking in status %s cannot be modified", booking.Status)
	}

	active, err := s.repo.HasActivePending(ctx, booking.ID)
	if err != nil {
		return err
	}
	if active {
		return apperr.New(apperr.KindInvalidState, apperr.CodeDuplicateRequest,
			"an active modification request already exists for this booking")
	}

	hours := booking.HoursBeforeDeparture(time.Now())
	if hours < s.engineCfg.ModificationMinNoticeHours {
		return apperr.Newf(apperr.KindPolicyViolation, apperr.CodeInsufficientNotice,
			"modifications require at least %d hours notice, booking departs in %d",
			s.engineCfg.ModificationMinNoticeHours, hours)
	}
	return nil
}

// validateProposedChanges checks the request fields make sense for its type.
func validateProposedChanges(booking *bookings.Booking, req SubmitRequest) error {
	modType := Type(req.Type)

	if modType.ChangesDate() {
		if req.NewStartDate == nil {
			return apperr.New(apperr.KindValidation, apperr.CodeValidationFailed,
				"new start date is required for a date change")
		}
		if !req.NewStartDate.After(time.Now()) {
			return apperr.New(apperr.KindValidation, apperr.CodeValidationFailed,
				"new start date must be in the future")
		}
	}

	if modType.ChangesParticipants() {
		if req.NewNumAdults == nil && req.NewNumChildren == nil {
			return apperr.New(apperr.KindValidation, apperr.CodeValidationFailed,
				"a participant change must state new participant counts")
		}
		adults := booking.NumAdults
		children := booking.NumChildren
		if req.NewNumAdults != nil {
			adults = *req.NewNumAdults
		}
		if req.NewNumChildren != nil {
			children = *req.NewNumChildren
		}
		if adults+children < 1 {
			return apperr.New(apperr.KindValidation, apperr.CodeValidationFailed,
				"a booking must keep at least one participant")
		}
	}

	if modType.IsManuallyPriced() && req.PriceDifference == nil {
		return apperr.Newf(apperr.KindValidation, apperr.CodeValidationFailed,
			"modification type %s requires a price difference", modType)
	}
	return nil
}

// moveSeats releases the old departure's seats and claims them on the new
// one after a date change completes.
func (s *service) moveSeats(ctx context.Context, modification *BookingModification, booking *bookings.Booking) error {
	if modification.NewScheduleID == nil || *modification.NewScheduleID == modification.OriginalScheduleID {
		return nil
	}

	participants := booking.TotalParticipants()
	if err := s.schedules.AdjustBookedCount(ctx, modification.OriginalScheduleID, -participants); err != nil {
		return err
	}
	return s.schedules.AdjustBookedCount(ctx, *modification.NewScheduleID, participants)
}

// publish sends a booking event, logging instead of failing the workflow
// when the broker is unavailable.
func (s *service) publish(ctx context.Context, modification *BookingModification, eventType notifications.EventType, bookingRef string) {
	if s.producer == nil {
		return
	}
	event := &notifications.BookingEvent{
		Type:             eventType,
		BookingID:        modification.BookingID,
		BookingRef:       bookingRef,
		UserID:           modification.RequestedBy,
		ModificationID:   &modification.ID,
		PriceDifference:  &modification.PriceDifference,
		ModificationType: modification.Type.String(),
	}
	if err := s.producer.PublishBookingEvent(ctx, event); err != nil {
		s.log.ErrorWithContext(ctx, "failed to publish booking event", err, map[string]interface{}{
			"type":       event.Type,
			"booking_id": event.BookingID,
		})
	}
}
