package cancellation

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"tourly/internal/bookings"
	"tourly/internal/notifications"
	"tourly/internal/payments"
	"tourly/internal/policies"
	"tourly/internal/shared/apperr"
	"tourly/internal/shared/config"
	"tourly/internal/tours"
	"tourly/pkg/logger"
)

type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) Create(ctx context.Context, cancellation *BookingCancellation) error {
	args := m.Called(ctx, cancellation)
	return args.Error(0)
}

func (m *MockRepository) GetByID(ctx context.Context, id uuid.UUID) (*BookingCancellation, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*BookingCancellation), args.Error(1)
}

func (m *MockRepository) GetByBookingID(ctx context.Context, bookingID uuid.UUID) (*BookingCancellation, error) {
	args := m.Called(ctx, bookingID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*BookingCancellation), args.Error(1)
}

func (m *MockRepository) ExistsForBooking(ctx context.Context, bookingID uuid.UUID) (bool, error) {
	args := m.Called(ctx, bookingID)
	return args.Bool(0), args.Error(1)
}

func (m *MockRepository) Update(ctx context.Context, cancellation *BookingCancellation) error {
	args := m.Called(ctx, cancellation)
	return args.Error(0)
}

func (m *MockRepository) ListByUser(ctx context.Context, userID uuid.UUID, query CancellationListQuery) ([]BookingCancellation, int64, error) {
	args := m.Called(ctx, userID, query)
	return args.Get(0).([]BookingCancellation), args.Get(1).(int64), args.Error(2)
}

func (m *MockRepository) ListByStatus(ctx context.Context, status Status, query CancellationListQuery) ([]BookingCancellation, int64, error) {
	args := m.Called(ctx, status, query)
	return args.Get(0).([]BookingCancellation), args.Get(1).(int64), args.Error(2)
}

func (m *MockRepository) ListPending(ctx context.Context, query CancellationListQuery) ([]BookingCancellation, int64, error) {
	args := m.Called(ctx, query)
	return args.Get(0).([]BookingCancellation), args.Get(1).(int64), args.Error(2)
}

func (m *MockRepository) ListEmergency(ctx context.Context, query CancellationListQuery) ([]BookingCancellation, int64, error) {
	args := m.Called(ctx, query)
	return args.Get(0).([]BookingCancellation), args.Get(1).(int64), args.Error(2)
}

func (m *MockRepository) CountRecentByUser(ctx context.Context, userID uuid.UUID, since time.Time) (int64, error) {
	args := m.Called(ctx, userID, since)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockRepository) GetStatistics(ctx context.Context, from, to time.Time) (*Statistics, error) {
	args := m.Called(ctx, from, to)
	return args.Get(0).(*Statistics), args.Error(1)
}

func (m *MockRepository) GetReasonStats(ctx context.Context, from, to time.Time) ([]ReasonStat, error) {
	args := m.Called(ctx, from, to)
	return args.Get(0).([]ReasonStat), args.Error(1)
}

func (m *MockRepository) GetUserSummary(ctx context.Context, userID uuid.UUID) (int64, decimal.Decimal, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(int64), args.Get(1).(decimal.Decimal), args.Error(2)
}

type MockBookingService struct {
	mock.Mock
}

func (m *MockBookingService) GetBookingWithRelations(ctx context.Context, bookingID uuid.UUID) (*bookings.Booking, error) {
	args := m.Called(ctx, bookingID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*bookings.Booking), args.Error(1)
}

func (m *MockBookingService) MarkCancellationRequested(ctx context.Context, bookingID uuid.UUID) error {
	args := m.Called(ctx, bookingID)
	return args.Error(0)
}

func (m *MockBookingService) MarkCancelled(ctx context.Context, bookingID uuid.UUID) error {
	args := m.Called(ctx, bookingID)
	return args.Error(0)
}

func (m *MockBookingService) RestoreConfirmed(ctx context.Context, bookingID uuid.UUID) error {
	args := m.Called(ctx, bookingID)
	return args.Error(0)
}

type MockPolicyResolver struct {
	mock.Mock
}

func (m *MockPolicyResolver) ResolveForCategory(ctx context.Context, categoryID uuid.UUID) (*policies.CancellationPolicy, error) {
	args := m.Called(ctx, categoryID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*policies.CancellationPolicy), args.Error(1)
}

type MockGateway struct {
	mock.Mock
}

func (m *MockGateway) Refund(ctx context.Context, req payments.RefundRequest) (string, error) {
	args := m.Called(ctx, req)
	return args.String(0), args.Error(1)
}

func (m *MockGateway) Charge(ctx context.Context, req payments.ChargeRequest) (string, error) {
	args := m.Called(ctx, req)
	return args.String(0), args.Error(1)
}

func (m *MockGateway) ConfirmCaptured(ctx context.Context, bookingRef, reference string) (bool, error) {
	args := m.Called(ctx, bookingRef, reference)
	return args.Bool(0), args.Error(1)
}

// txRunnerSpy stands in for txn.Runner: it relays the callback without a
// database and records whether calls happen inside the transaction scope.
type txRunnerSpy struct {
	calls int
	inTx  bool
}

func (r *txRunnerSpy) InTransaction(ctx context.Context, fn func(context.Context) error) error {
	r.calls++
	r.inTx = true
	defer func() { r.inTx = false }()
	return fn(ctx)
}

type serviceFixture struct {
	repo     *MockRepository
	tx       *txRunnerSpy
	bookings *MockBookingService
	resolver *MockPolicyResolver
	gateway  *MockGateway
	service  Service
}

func newServiceFixture() *serviceFixture {
	f := &serviceFixture{
		repo:     new(MockRepository),
		tx:       new(txRunnerSpy),
		bookings: new(MockBookingService),
		resolver: new(MockPolicyResolver),
		gateway:  new(MockGateway),
	}
	engineCfg := config.EngineConfig{
		FrequentCancellerThreshold: 5,
		AbuseWindowDays:            30,
		AbuseCancellationLimit:     3,
	}
	f.service = NewService(f.repo, f.tx, f.bookings, f.resolver, f.gateway,
		notifications.NewNoopProducer(), engineCfg, logger.GetDefault())
	return f
}

func bookingWithTour(total int64, departsIn time.Duration) *bookings.Booking {
	categoryID := uuid.New()
	return &bookings.Booking{
		ID:          uuid.New(),
		BookingRef:  "TRL-2026-0001",
		UserID:      uuid.New(),
		TourID:      uuid.New(),
		ScheduleID:  uuid.New(),
		StartDate:   time.Now().Add(departsIn),
		NumAdults:   2,
		TotalAmount: decimal.NewFromInt(total),
		Status:      bookings.StatusConfirmed,
		Tour: &tours.Tour{
			ID:         uuid.New(),
			CategoryID: categoryID,
		},
	}
}

func validSubmitRequest() SubmitRequest {
	return SubmitRequest{
		Reason:        string(ReasonScheduleConflict),
		ReasonDetails: "work trip got moved onto the departure week",
	}
}

func TestSubmit_FreezesQuoteOnRecord(t *testing.T) {
	f := newServiceFixture()
	booking := bookingWithTour(500, 60*time.Hour)
	policy := standardPolicy()
	policy.CancellationFee = decimal.NewFromInt(10)
	policy.ProcessingFee = decimal.NewFromInt(5)

	f.bookings.On("GetBookingWithRelations", mock.Anything, booking.ID).Return(booking, nil)
	f.repo.On("ExistsForBooking", mock.Anything, booking.ID).Return(false, nil)
	f.resolver.On("ResolveForCategory", mock.Anything, booking.Tour.CategoryID).Return(policy, nil)
	f.repo.On("Create", mock.Anything, mock.AnythingOfType("*cancellation.BookingCancellation")).Return(nil)
	f.bookings.On("MarkCancellationRequested", mock.Anything, booking.ID).Return(nil)

	cancellation, err := f.service.Submit(context.Background(), booking.ID, booking.UserID, validSubmitRequest())

	require.NoError(t, err)
	assert.Equal(t, StatusRequested, cancellation.Status)
	assert.Equal(t, RefundPending, cancellation.RefundStatus)
	// 60 hours puts the booking in the 50% tier, so 250 minus 15 in fees.
	assert.True(t, cancellation.RefundAmount.Equal(decimal.NewFromInt(250)))
	assert.True(t, cancellation.FinalRefundAmount.Equal(decimal.NewFromInt(235)))
	assert.Equal(t, policy.ID, cancellation.PolicyID)
	f.bookings.AssertExpectations(t)
}

func TestSubmit_ZeroRefundRequestsAreStillAccepted(t *testing.T) {
	f := newServiceFixture()
	booking := bookingWithTour(500, 4*time.Hour)
	policy := standardPolicy()

	f.bookings.On("GetBookingWithRelations", mock.Anything, booking.ID).Return(booking, nil)
	f.repo.On("ExistsForBooking", mock.Anything, booking.ID).Return(false, nil)
	f.resolver.On("ResolveForCategory", mock.Anything, booking.Tour.CategoryID).Return(policy, nil)
	f.repo.On("Create", mock.Anything, mock.AnythingOfType("*cancellation.BookingCancellation")).Return(nil)
	f.bookings.On("MarkCancellationRequested", mock.Anything, booking.ID).Return(nil)

	cancellation, err := f.service.Submit(context.Background(), booking.ID, booking.UserID, validSubmitRequest())

	require.NoError(t, err)
	assert.True(t, cancellation.FinalRefundAmount.IsZero())
}

func TestSubmit_EmergencyStartsUnderReview(t *testing.T) {
	f := newServiceFixture()
	booking := bookingWithTour(500, 60*time.Hour)
	policy := standardPolicy()

	f.bookings.On("GetBookingWithRelations", mock.Anything, booking.ID).Return(booking, nil)
	f.repo.On("ExistsForBooking", mock.Anything, booking.ID).Return(false, nil)
	f.resolver.On("ResolveForCategory", mock.Anything, booking.Tour.CategoryID).Return(policy, nil)
	f.repo.On("Create", mock.Anything, mock.AnythingOfType("*cancellation.BookingCancellation")).Return(nil)
	f.bookings.On("MarkCancellationRequested", mock.Anything, booking.ID).Return(nil)

	req := validSubmitRequest()
	req.Reason = string(ReasonMedicalEmergency)
	req.Exceptions = ExceptionFlags{MedicalEmergency: true}

	cancellation, err := f.service.Submit(context.Background(), booking.ID, booking.UserID, req)

	require.NoError(t, err)
	assert.Equal(t, StatusUnderReview, cancellation.Status)
	assert.True(t, cancellation.IsMedicalEmergency)
}

func TestSubmit_RejectsNonOwner(t *testing.T) {
	f := newServiceFixture()
	booking := bookingWithTour(500, 60*time.Hour)

	f.bookings.On("GetBookingWithRelations", mock.Anything, booking.ID).Return(booking, nil)

	_, err := f.service.Submit(context.Background(), booking.ID, uuid.New(), validSubmitRequest())

	assert.Equal(t, apperr.CodeUnauthorizedRequester, apperr.Code(err))
}

func TestSubmit_RejectsDuplicateRequest(t *testing.T) {
	f := newServiceFixture()
	booking := bookingWithTour(500, 60*time.Hour)

	f.bookings.On("GetBookingWithRelations", mock.Anything, booking.ID).Return(booking, nil)
	f.repo.On("ExistsForBooking", mock.Anything, booking.ID).Return(true, nil)

	_, err := f.service.Submit(context.Background(), booking.ID, booking.UserID, validSubmitRequest())

	assert.Equal(t, apperr.CodeDuplicateRequest, apperr.Code(err))
}

func TestSubmit_SurfacesMissingPolicy(t *testing.T) {
	f := newServiceFixture()
	booking := bookingWithTour(500, 60*time.Hour)

	f.bookings.On("GetBookingWithRelations", mock.Anything, booking.ID).Return(booking, nil)
	f.repo.On("ExistsForBooking", mock.Anything, booking.ID).Return(false, nil)
	f.resolver.On("ResolveForCategory", mock.Anything, booking.Tour.CategoryID).
		Return(nil, apperr.New(apperr.KindNotFound, apperr.CodePolicyNotFound, "no active policy"))

	_, err := f.service.Submit(context.Background(), booking.ID, booking.UserID, validSubmitRequest())

	assert.Equal(t, apperr.CodePolicyNotFound, apperr.Code(err))
	f.repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestApprove_CancelsBookingAndPrimesRefund(t *testing.T) {
	f := newServiceFixture()
	c := pendingCancellation(250)
	adminID := uuid.New()

	f.repo.On("GetByID", mock.Anything, c.ID).Return(c, nil)
	f.bookings.On("MarkCancelled", mock.Anything, c.BookingID).Return(nil)
	f.repo.On("Update", mock.Anything, c).Return(nil)

	approved, err := f.service.Approve(context.Background(), c.ID, adminID, "verified")

	require.NoError(t, err)
	assert.Equal(t, StatusApproved, approved.Status)
	assert.Equal(t, RefundProcessing, approved.RefundStatus)
	f.bookings.AssertExpectations(t)
}

func TestApprove_BookingAndRecordWritesShareTransaction(t *testing.T) {
	f := newServiceFixture()
	c := pendingCancellation(250)

	f.repo.On("GetByID", mock.Anything, c.ID).Return(c, nil)
	f.bookings.On("MarkCancelled", mock.Anything, c.BookingID).
		Run(func(args mock.Arguments) { assert.True(t, f.tx.inTx, "booking write must run inside the transaction") }).
		Return(nil)
	f.repo.On("Update", mock.Anything, c).
		Run(func(args mock.Arguments) { assert.True(t, f.tx.inTx, "record write must run inside the transaction") }).
		Return(errors.New("connection reset"))

	_, err := f.service.Approve(context.Background(), c.ID, uuid.New(), "verified")

	// With both writes sharing a transaction, the failed record write rolls
	// back the booking cancellation, so the request stays decidable and the
	// approval can be retried.
	require.Error(t, err)
	assert.Equal(t, 1, f.tx.calls)
}

func TestReject_RestoresBooking(t *testing.T) {
	f := newServiceFixture()
	c := pendingCancellation(250)

	f.repo.On("GetByID", mock.Anything, c.ID).Return(c, nil)
	f.bookings.On("RestoreConfirmed", mock.Anything, c.BookingID).Return(nil)
	f.repo.On("Update", mock.Anything, c).Return(nil)

	rejected, err := f.service.Reject(context.Background(), c.ID, uuid.New(), "insufficient documentation")

	require.NoError(t, err)
	assert.Equal(t, StatusRejected, rejected.Status)
	f.bookings.AssertCalled(t, "RestoreConfirmed", mock.Anything, c.BookingID)
}

func TestCompleteRefund_GatewayFailureLeavesStateUntouched(t *testing.T) {
	f := newServiceFixture()
	c := pendingCancellation(250)
	require.NoError(t, c.Approve(uuid.New(), "", time.Now()))

	f.repo.On("GetByID", mock.Anything, c.ID).Return(c, nil)
	f.gateway.On("Refund", mock.Anything, mock.AnythingOfType("payments.RefundRequest")).
		Return("", errors.New("provider unavailable"))

	_, err := f.service.CompleteRefund(context.Background(), c.ID, "BANK_TRANSFER")

	assert.True(t, apperr.IsRetryable(err))
	assert.Equal(t, StatusApproved, c.Status)
	assert.Equal(t, RefundProcessing, c.RefundStatus)
	f.repo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
}

func TestCompleteRefund_PaysOutAndCloses(t *testing.T) {
	f := newServiceFixture()
	c := pendingCancellation(250)
	require.NoError(t, c.Approve(uuid.New(), "", time.Now()))

	f.repo.On("GetByID", mock.Anything, c.ID).Return(c, nil)
	f.gateway.On("Refund", mock.Anything, mock.AnythingOfType("payments.RefundRequest")).
		Return("RFD_777", nil)
	f.repo.On("Update", mock.Anything, c).Return(nil)

	completed, err := f.service.CompleteRefund(context.Background(), c.ID, "BANK_TRANSFER")

	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, completed.Status)
	assert.Equal(t, "RFD_777", completed.RefundTransactionID)
}

func TestExpediteEmergency_OnlyForEmergencyRequests(t *testing.T) {
	f := newServiceFixture()
	c := pendingCancellation(250)

	f.repo.On("GetByID", mock.Anything, c.ID).Return(c, nil)

	_, err := f.service.ExpediteEmergency(context.Background(), c.ID, uuid.New())

	assert.Equal(t, apperr.CodeValidationFailed, apperr.Code(err))
}

func TestGetUserSummary_AppliesThresholds(t *testing.T) {
	f := newServiceFixture()
	userID := uuid.New()

	f.repo.On("GetUserSummary", mock.Anything, userID).Return(int64(6), decimal.NewFromInt(900), nil)
	f.repo.On("CountRecentByUser", mock.Anything, userID, mock.AnythingOfType("time.Time")).Return(int64(4), nil)

	summary, err := f.service.GetUserSummary(context.Background(), userID)

	require.NoError(t, err)
	assert.True(t, summary.IsFrequentCanceller)
	assert.True(t, summary.IsAbusiveCanceller)
	assert.True(t, summary.TotalRefundReceived.Equal(decimal.NewFromInt(900)))
}
