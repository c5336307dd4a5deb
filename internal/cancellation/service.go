package cancellation

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"tourly/internal/bookings"
	"tourly/internal/notifications"
	"tourly/internal/payments"
	"tourly/internal/policies"
	"tourly/internal/shared/apperr"
	"tourly/internal/shared/config"
	"tourly/internal/shared/txn"
	"tourly/pkg/logger"
)

// Service interface defines the contract for the cancellation workflow
type Service interface {
	// Customer operations
	Submit(ctx context.Context, bookingID, userID uuid.UUID, req SubmitRequest) (*BookingCancellation, error)
	Quote(ctx context.Context, bookingID uuid.UUID, flags ExceptionFlags) (*RefundQuote, error)
	GetCancellation(ctx context.Context, id uuid.UUID) (*BookingCancellation, error)
	GetByBooking(ctx context.Context, bookingID uuid.UUID) (*BookingCancellation, error)
	GetUserCancellations(ctx context.Context, userID uuid.UUID, query CancellationListQuery) ([]BookingCancellation, int64, error)

	// Admin review operations
	Approve(ctx context.Context, id, adminID uuid.UUID, notes string) (*BookingCancellation, error)
	Reject(ctx context.Context, id, adminID uuid.UUID, notes string) (*BookingCancellation, error)
	ExpediteEmergency(ctx context.Context, id, adminID uuid.UUID) (*BookingCancellation, error)
	ListPending(ctx context.Context, query CancellationListQuery) ([]BookingCancellation, int64, error)
	ListByStatus(ctx context.Context, status Status, query CancellationListQuery) ([]BookingCancellation, int64, error)
	ListEmergency(ctx context.Context, query CancellationListQuery) ([]BookingCancellation, int64, error)

	// Refund execution
	CompleteRefund(ctx context.Context, id uuid.UUID, method string) (*BookingCancellation, error)
	FailRefund(ctx context.Context, id uuid.UUID, reason string) (*BookingCancellation, error)
	RetryRefund(ctx context.Context, id uuid.UUID) (*BookingCancellation, error)

	// Reporting
	GetStatistics(ctx context.Context, from, to time.Time) (*Statistics, error)
	GetReasonStats(ctx context.Context, from, to time.Time) ([]ReasonStat, error)
	GetUserSummary(ctx context.Context, userID uuid.UUID) (*UserSummary, error)
}

// BookingService is the slice of the bookings API this workflow needs
type BookingService interface {
	GetBookingWithRelations(ctx context.Context, bookingID uuid.UUID) (*bookings.Booking, error)
	MarkCancellationRequested(ctx context.Context, bookingID uuid.UUID) error
	MarkCancelled(ctx context.Context, bookingID uuid.UUID) error
	RestoreConfirmed(ctx context.Context, bookingID uuid.UUID) error
}

// PolicyResolver picks the policy applied to a booking's tour category
type PolicyResolver interface {
	ResolveForCategory(ctx context.Context, categoryID uuid.UUID) (*policies.CancellationPolicy, error)
}

// SubmitRequest is the customer payload opening a cancellation
type SubmitRequest struct {
	Reason              string         `json:"reason" binding:"required,oneof=PERSONAL_EMERGENCY MEDICAL_EMERGENCY WEATHER_CONDITIONS FORCE_MAJEURE TRAVEL_RESTRICTIONS SCHEDULE_CONFLICT FINANCIAL_DIFFICULTY DISSATISFACTION DUPLICATE_BOOKING TECHNICAL_ERROR OTHER"`
	ReasonDetails       string         `json:"reason_details" binding:"required,min=10,max=500"`
	AdditionalNotes     string         `json:"additional_notes" binding:"max=2000"`
	Exceptions          ExceptionFlags `json:"exceptions"`
	SupportingDocuments []string       `json:"supporting_documents" binding:"max=10"`
}

// service implements the Service interface
type service struct {
	repo           Repository
	tx             txn.Runner
	bookingService BookingService
	resolver       PolicyResolver
	gateway        payments.Gateway
	producer       notifications.EventProducer
	engineCfg      config.EngineConfig
	log            *logger.Logger
}

// NewService creates a new cancellation workflow service instance
func NewService(repo Repository, tx txn.Runner, bookingService BookingService, resolver PolicyResolver, gateway payments.Gateway, producer notifications.EventProducer, engineCfg config.EngineConfig, log *logger.Logger) Service {
	return &service{
		repo:           repo,
		tx:             tx,
		bookingService: bookingService,
		resolver:       resolver,
		gateway:        gateway,
		producer:       producer,
		engineCfg:      engineCfg,
		log:            log,
	}
}

// Submit opens a cancellation request. The refund is computed and frozen
// here; later review decisions never recompute it. Requests claiming an
// emergency exception skip straight to UNDER_REVIEW.
func (s *service) Submit(ctx context.Context, bookingID, userID uuid.UUID, req SubmitRequest) (*BookingCancellation, error) {
	booking, err := s.bookingService.GetBookingWithRelations(ctx, bookingID)
	if err != nil {
		return nil, err
	}

	if booking.UserID != userID {
		return nil, apperr.New(apperr.KindPolicyViolation, apperr.CodeUnauthorizedRequester,
			"only the booking owner may request cancellation")
	}
	if !booking.Status.CanBeCancelled() {
		return nil, apperr.Newf(apperr.KindInvalidState, apperr.CodeNotConfirmed,
			"booking in status %s cannot be cancelled", booking.Status)
	}

	exists, err := s.repo.ExistsForBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, apperr.New(apperr.KindInvalidState, apperr.CodeDuplicateRequest,
			"a cancellation request already exists for this booking")
	}

	policy, err := s.resolvePolicy(ctx, booking)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	hours := booking.HoursBeforeDeparture(now)
	quote := CalculateRefund(policy, booking.TotalAmount, hours, req.Exceptions)

	cancellation := &BookingCancellation{
		BookingID:            bookingID,
		RequestedBy:          userID,
		PolicyID:             policy.ID,
		Reason:               Reason(req.Reason),
		ReasonDetails:        req.ReasonDetails,
		AdditionalNotes:      req.AdditionalNotes,
		OriginalAmount:       booking.TotalAmount,
		RefundPercentage:     quote.RefundPercentage,
		RefundAmount:         quote.RefundAmount,
		CancellationFee:      quote.CancellationFee,
		ProcessingFee:        quote.ProcessingFee,
		FinalRefundAmount:    quote.FinalRefundAmount,
		HoursBeforeDeparture: hours,
		DepartureDate:        booking.StartDate,
		CancelledAt:          now,
		Status:               StatusRequested,
		RefundStatus:         RefundPending,
		IsMedicalEmergency:   req.Exceptions.MedicalEmergency,
		IsWeatherRelated:     req.Exceptions.WeatherRelated,
		IsForceMajeure:       req.Exceptions.ForceMajeure,
		SupportingDocuments:  strings.Join(req.SupportingDocuments, ","),
	}

	if cancellation.IsEmergencyException() {
		cancellation.Status = StatusUnderReview
	}

	err = s.tx.InTransaction(ctx, func(ctx context.Context) error {
		if err := s.repo.Create(ctx, cancellation); err != nil {
			return err
		}
		return s.bookingService.MarkCancellationRequested(ctx, bookingID)
	})
	if err != nil {
		return nil, err
	}

	s.log.LogCancellationSubmitted(ctx, cancellation.ID.String(), bookingID.String(), userID.String())
	return cancellation, nil
}

// Quote computes the refund a cancellation would yield right now, without
// creating anything.
func (s *service) Quote(ctx context.Context, bookingID uuid.UUID, flags ExceptionFlags) (*RefundQuote, error) {
	booking, err := s.bookingService.GetBookingWithRelations(ctx, bookingID)
	if err != nil {
		return nil, err
	}

	policy, err := s.resolvePolicy(ctx, booking)
	if err != nil {
		return nil, err
	}

	quote := CalculateRefund(policy, booking.TotalAmount, booking.HoursBeforeDeparture(time.Now()), flags)
	return &quote, nil
}

func (s *service) GetCancellation(ctx context.Context, id uuid.UUID) (*BookingCancellation, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *service) GetByBooking(ctx context.Context, bookingID uuid.UUID) (*BookingCancellation, error) {
	return s.repo.GetByBookingID(ctx, bookingID)
}

func (s *service) GetUserCancellations(ctx context.Context, userID uuid.UUID, query CancellationListQuery) ([]BookingCancellation, int64, error) {
	return s.repo.ListByUser(ctx, userID, query)
}

// Approve finalizes the cancellation: the booking is cancelled and the
// refund side moves to PROCESSING when money is owed.
func (s *service) Approve(ctx context.Context, id, adminID uuid.UUID, notes string) (*BookingCancellation, error) {
	cancellation, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := cancellation.Approve(adminID, notes, time.Now()); err != nil {
		return nil, err
	}

	err = s.tx.InTransaction(ctx, func(ctx context.Context) error {
		if err := s.bookingService.MarkCancelled(ctx, cancellation.BookingID); err != nil {
			return err
		}
		return s.repo.Update(ctx, cancellation)
	})
	if err != nil {
		return nil, err
	}

	s.log.LogCancellationDecided(ctx, id.String(), "approved", adminID.String())
	s.publish(ctx, &notifications.BookingEvent{
		Type:           notifications.EventCancellationApproved,
		BookingID:      cancellation.BookingID,
		UserID:         cancellation.RequestedBy,
		CancellationID: &cancellation.ID,
		RefundAmount:   &cancellation.FinalRefundAmount,
	})
	return cancellation, nil
}

// Reject closes the request and puts the booking back to CONFIRMED.
func (s *service) Reject(ctx context.Context, id, adminID uuid.UUID, notes string) (*BookingCancellation, error) {
	cancellation, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := cancellation.Reject(adminID, notes, time.Now()); err != nil {
		return nil, err
	}

	err = s.tx.InTransaction(ctx, func(ctx context.Context) error {
		if err := s.bookingService.RestoreConfirmed(ctx, cancellation.BookingID); err != nil {
			return err
		}
		return s.repo.Update(ctx, cancellation)
	})
	if err != nil {
		return nil, err
	}

	s.log.LogCancellationDecided(ctx, id.String(), "rejected", adminID.String())
	s.publish(ctx, &notifications.BookingEvent{
		Type:           notifications.EventCancellationRejected,
		BookingID:      cancellation.BookingID,
		UserID:         cancellation.RequestedBy,
		CancellationID: &cancellation.ID,
	})
	return cancellation, nil
}

// ExpediteEmergency auto-approves an emergency-exception request.
func (s *service) ExpediteEmergency(ctx context.Context, id, adminID uuid.UUID) (*BookingCancellation, error) {
	cancellation, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if !cancellation.IsEmergencyException() {
		return nil, apperr.New(apperr.KindValidation, apperr.CodeValidationFailed,
			"only emergency cancellations can be expedited")
	}

	return s.Approve(ctx, id, adminID, "Auto-approved emergency cancellation")
}

func (s *service) ListPending(ctx context.Context, query CancellationListQuery) ([]BookingCancellation, int64, error) {
	return s.repo.ListPending(ctx, query)
}

func (s *service) ListByStatus(ctx context.Context, status Status, query CancellationListQuery) ([]BookingCancellation, int64, error) {
	return s.repo.ListByStatus(ctx, status, query)
}

func (s *service) ListEmergency(ctx context.Context, query CancellationListQuery) ([]BookingCancellation, int64, error) {
	return s.repo.ListEmergency(ctx, query)
}

// CompleteRefund pays the customer and closes the request. The gateway call
// happens before any state is written, so a payout failure leaves the
// cancellation APPROVED/PROCESSING and retriable.
func (s *service) CompleteRefund(ctx context.Context, id uuid.UUID, method string) (*BookingCancellation, error) {
	cancellation, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if cancellation.Status != StatusApproved || cancellation.RefundStatus != RefundProcessing {
		return nil, apperr.Newf(apperr.KindInvalidState, apperr.CodeRefundNotEligible,
			"no refund in flight (status=%s refund=%s)", cancellation.Status, cancellation.RefundStatus)
	}

	bookingRef := ""
	if cancellation.Booking != nil {
		bookingRef = cancellation.Booking.BookingRef
	}

	txID, err := s.gateway.Refund(ctx, payments.RefundRequest{
		BookingRef: bookingRef,
		Amount:     cancellation.FinalRefundAmount,
		Method:     method,
		Reference:  cancellation.ID.String(),
	})
	if err != nil {
		s.log.LogRefundProcessed(ctx, id.String(), "", false)
		return nil, apperr.Wrap(apperr.KindExternalFailure, apperr.CodeExternalFailure,
			"refund gateway call failed", err)
	}

	if err := cancellation.CompleteRefund(txID, method, time.Now()); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, cancellation); err != nil {
		return nil, err
	}

	s.log.LogRefundProcessed(ctx, id.String(), txID, true)
	s.publish(ctx, &notifications.BookingEvent{
		Type:           notifications.EventRefundCompleted,
		BookingID:      cancellation.BookingID,
		UserID:         cancellation.RequestedBy,
		CancellationID: &cancellation.ID,
		RefundAmount:   &cancellation.FinalRefundAmount,
		TransactionID:  txID,
	})
	return cancellation, nil
}

// FailRefund records a payout failure. The cancellation stays APPROVED.
func (s *service) FailRefund(ctx context.Context, id uuid.UUID, reason string) (*BookingCancellation, error) {
	cancellation, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := cancellation.FailRefund(reason); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, cancellation); err != nil {
		return nil, err
	}

	s.publish(ctx, &notifications.BookingEvent{
		Type:           notifications.EventRefundFailed,
		BookingID:      cancellation.BookingID,
		UserID:         cancellation.RequestedBy,
		CancellationID: &cancellation.ID,
	})
	return cancellation, nil
}

// RetryRefund puts a failed payout back in flight for another attempt.
func (s *service) RetryRefund(ctx context.Context, id uuid.UUID) (*BookingCancellation, error) {
	cancellation, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := cancellation.RetryRefund(); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, cancellation); err != nil {
		return nil, err
	}
	return cancellation, nil
}

func (s *service) GetStatistics(ctx context.Context, from, to time.Time) (*Statistics, error) {
	return s.repo.GetStatistics(ctx, from, to)
}

func (s *service) GetReasonStats(ctx context.Context, from, to time.Time) ([]ReasonStat, error) {
	return s.repo.GetReasonStats(ctx, from, to)
}

// GetUserSummary profiles a customer's cancellation behavior against the
// configured frequency and abuse thresholds.
func (s *service) GetUserSummary(ctx context.Context, userID uuid.UUID) (*UserSummary, error) {
	total, refunded, err := s.repo.GetUserSummary(ctx, userID)
	if err != nil {
		return nil, err
	}

	windowStart := time.Now().AddDate(0, 0, -s.engineCfg.AbuseWindowDays)
	recent, err := s.repo.CountRecentByUser(ctx, userID, windowStart)
	if err != nil {
		return nil, err
	}

	return &UserSummary{
		TotalCancellations:  total,
		TotalRefundReceived: refunded,
		IsFrequentCanceller: total >= int64(s.engineCfg.FrequentCancellerThreshold),
		IsAbusiveCanceller:  recent > int64(s.engineCfg.AbuseCancellationLimit),
	}, nil
}

// resolvePolicy maps the booking's tour category to the applicable policy.
func (s *service) resolvePolicy(ctx context.Context, booking *bookings.Booking) (*policies.CancellationPolicy, error) {
	if booking.Tour == nil {
		return nil, apperr.Newf(apperr.KindNotFound, apperr.CodeTourNotFound,
			"booking %s has no tour attached", booking.ID)
	}
	return s.resolver.ResolveForCategory(ctx, booking.Tour.CategoryID)
}

// publish sends a booking event, logging instead of failing the workflow
// when the broker is unavailable.
func (s *service) publish(ctx context.Context, event *notifications.BookingEvent) {
	if s.producer == nil {
		return
	}
	if err := s.producer.PublishBookingEvent(ctx, event); err != nil {
		s.log.ErrorWithContext(ctx, "failed to publish booking event", err, map[string]interface{}{
			"type":       event.Type,
			"booking_id": event.BookingID,
		})
	}
}
