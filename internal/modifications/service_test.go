package modifications

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
	"tourly/internal/shared/apperr"
	"tourly/pkg/logger"
)

type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) Create(ctx context.Context, modification *BookingModification) error {
	args := m.Called(ctx, modification)
	return args.Error(0)
}

func (m *MockRepository) GetByID(ctx context.Context, id uuid.UUID) (*BookingModification, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*BookingModification), args.Error(1)
}

func (m *MockRepository) HasActivePending(ctx context.Context, bookingID uuid.UUID) (bool, error) {
	args := m.Called(ctx, bookingID)
	return args.Bool(0), args.Error(1)
}

func (m *MockRepository) Update(ctx context.Context, modification *BookingModification) error {
	args := m.Called(ctx, modification)
	return args.Error(0)
}

func (m *MockRepository) ListByUser(ctx context.Context, userID uuid.UUID, query ModificationListQuery) ([]BookingModification, int64, error) {
	args := m.Called(ctx, userID, query)
	return args.Get(0).([]BookingModification), args.Get(1).(int64), args.Error(2)
}

func (m *MockRepository) ListByBooking(ctx context.Context, bookingID uuid.UUID) ([]BookingModification, error) {
	args := m.Called(ctx, bookingID)
	return args.Get(0).([]BookingModification), args.Error(1)
}

func (m *MockRepository) ListByStatus(ctx context.Context, status Status, query ModificationListQuery) ([]BookingModification, int64, error) {
	args := m.Called(ctx, status, query)
	return args.Get(0).([]BookingModification), args.Get(1).(int64), args.Error(2)
}

func (m *MockRepository) ListPending(ctx context.Context, query ModificationListQuery) ([]BookingModification, int64, error) {
	args := m.Called(ctx, query)
	return args.Get(0).([]BookingModification), args.Get(1).(int64), args.Error(2)
}

func (m *MockRepository) GetStatistics(ctx context.Context, from, to time.Time) (*Statistics, error) {
	args := m.Called(ctx, from, to)
	return args.Get(0).(*Statistics), args.Error(1)
}

func (m *MockRepository) GetTypeStats(ctx context.Context, from, to time.Time) ([]TypeStat, error) {
	args := m.Called(ctx, from, to)
	return args.Get(0).([]TypeStat), args.Error(1)
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

func (m *MockBookingService) ApplyModification(ctx context.Context, bookingID uuid.UUID, change bookings.ModificationChange) error {
	args := m.Called(ctx, bookingID, change)
	return args.Error(0)
}

type MockScheduleAdjuster struct {
	mock.Mock
}

func (m *MockScheduleAdjuster) AdjustBookedCount(ctx context.Context, scheduleID uuid.UUID, delta int) error {
	args := m.Called(ctx, scheduleID, delta)
	return args.Error(0)
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
	repo      *MockRepository
	tx        *txRunnerSpy
	bookings  *MockBookingService
	schedules *MockScheduleAdjuster
	gateway   *MockGateway
	service   Service
}

func newServiceFixture() *serviceFixture {
	f := &serviceFixture{
		repo:      new(MockRepository),
		tx:        new(txRunnerSpy),
		bookings:  new(MockBookingService),
		schedules: new(MockScheduleAdjuster),
		gateway:   new(MockGateway),
	}
	pricer := NewPricer(new(MockRateLookup), engineConfig())
	f.service = NewService(f.repo, f.tx, f.bookings, pricer, f.schedules, f.gateway,
		notifications.NewNoopProducer(), engineConfig(), logger.GetDefault())
	return f
}

func TestSubmit_HappyPath(t *testing.T) {
	f := newServiceFixture()
	booking := confirmedBooking(2, 0, 500)
	userID := booking.UserID

	f.bookings.On("GetBookingWithRelations", mock.Anything, booking.ID).Return(booking, nil)
	f.repo.On("HasActivePending", mock.Anything, booking.ID).Return(false, nil)
	f.repo.On("Create", mock.Anything, mock.AnythingOfType("*modifications.BookingModification")).Return(nil)

	modification, err := f.service.Submit(context.Background(), booking.ID, userID, SubmitRequest{
		Type:         string(TypeParticipantChange),
		Reason:       "bringing two more friends along",
		NewNumAdults: intPtr(4),
	})

	require.NoError(t, err)
	assert.Equal(t, StatusRequested, modification.Status)
	assert.Equal(t, booking.StartDate, modification.OriginalStartDate)
	assert.Equal(t, 2, modification.OriginalNumAdults)
	assert.True(t, modification.PriceDifference.Equal(decimal.NewFromInt(200)))
	assert.True(t, modification.RequiresAdditionalPayment)
	f.repo.AssertExpectations(t)
}

func TestSubmit_RejectsNonOwner(t *testing.T) {
	f := newServiceFixture()
	booking := confirmedBooking(2, 0, 500)

	f.bookings.On("GetBookingWithRelations", mock.Anything, booking.ID).Return(booking, nil)

	_, err := f.service.Submit(context.Background(), booking.ID, uuid.New(), SubmitRequest{
		Type:         string(TypeParticipantChange),
		Reason:       "bringing two more friends along",
		NewNumAdults: intPtr(4),
	})

	assert.Equal(t, apperr.CodeUnauthorizedRequester, apperr.Code(err))
}

func TestSubmit_RejectsUnconfirmedBooking(t *testing.T) {
	f := newServiceFixture()
	booking := confirmedBooking(2, 0, 500)
	booking.Status = bookings.StatusCancelled

	f.bookings.On("GetBookingWithRelations", mock.Anything, booking.ID).Return(booking, nil)

	_, err := f.service.Submit(context.Background(), booking.ID, booking.UserID, SubmitRequest{
		Type:         string(TypeParticipantChange),
		Reason:       "bringing two more friends along",
		NewNumAdults: intPtr(4),
	})

	assert.Equal(t, apperr.CodeNotConfirmed, apperr.Code(err))
}

func TestSubmit_RejectsDuplicateActiveRequest(t *testing.T) {
	f := newServiceFixture()
	booking := confirmedBooking(2, 0, 500)

	f.bookings.On("GetBookingWithRelations", mock.Anything, booking.ID).Return(booking, nil)
	f.repo.On("HasActivePending", mock.Anything, booking.ID).Return(true, nil)

	_, err := f.service.Submit(context.Background(), booking.ID, booking.UserID, SubmitRequest{
		Type:         string(TypeParticipantChange),
		Reason:       "bringing two more friends along",
		NewNumAdults: intPtr(4),
	})

	assert.Equal(t, apperr.CodeDuplicateRequest, apperr.Code(err))
	f.repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestSubmit_RejectsInsufficientNotice(t *testing.T) {
	f := newServiceFixture()
	booking := confirmedBooking(2, 0, 500)
	booking.StartDate = time.Now().Add(24 * time.Hour)

	f.bookings.On("GetBookingWithRelations", mock.Anything, booking.ID).Return(booking, nil)
	f.repo.On("HasActivePending", mock.Anything, booking.ID).Return(false, nil)

	_, err := f.service.Submit(context.Background(), booking.ID, booking.UserID, SubmitRequest{
		Type:         string(TypeParticipantChange),
		Reason:       "bringing two more friends along",
		NewNumAdults: intPtr(4),
	})

	assert.Equal(t, apperr.CodeInsufficientNotice, apperr.Code(err))
}

func TestSubmit_RejectsEmptyBooking(t *testing.T) {
	f := newServiceFixture()
	booking := confirmedBooking(2, 0, 500)

	f.bookings.On("GetBookingWithRelations", mock.Anything, booking.ID).Return(booking, nil)
	f.repo.On("HasActivePending", mock.Anything, booking.ID).Return(false, nil)

	_, err := f.service.Submit(context.Background(), booking.ID, booking.UserID, SubmitRequest{
		Type:         string(TypeParticipantChange),
		Reason:       "nobody can make it anymore",
		NewNumAdults: intPtr(0),
	})

	assert.Equal(t, apperr.CodeValidationFailed, apperr.Code(err))
}

func TestAcceptCharges_GatewayFailureLeavesStateUntouched(t *testing.T) {
	f := newServiceFixture()
	m := requestedModification(200)
	require.NoError(t, m.Approve(uuid.New(), "", time.Now()))

	f.repo.On("GetByID", mock.Anything, m.ID).Return(m, nil)
	f.gateway.On("Charge", mock.Anything, mock.AnythingOfType("payments.ChargeRequest")).
		Return("", errors.New("card declined"))

	_, err := f.service.AcceptCharges(context.Background(), m.ID, m.RequestedBy)

	assert.True(t, apperr.IsRetryable(err))
	assert.Equal(t, StatusApproved, m.Status)
	f.repo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
}

func TestAcceptCharges_HappyPath(t *testing.T) {
	f := newServiceFixture()
	m := requestedModification(200)
	require.NoError(t, m.Approve(uuid.New(), "", time.Now()))

	f.repo.On("GetByID", mock.Anything, m.ID).Return(m, nil)
	f.gateway.On("Charge", mock.Anything, mock.AnythingOfType("payments.ChargeRequest")).
		Return("CHG_999", nil)
	f.repo.On("Update", mock.Anything, m).Return(nil)

	updated, err := f.service.AcceptCharges(context.Background(), m.ID, m.RequestedBy)

	require.NoError(t, err)
	assert.Equal(t, StatusProcessing, updated.Status)
	assert.Equal(t, "CHG_999", updated.PaymentTransactionID)
}

func TestComplete_RequiresCapturedPayment(t *testing.T) {
	f := newServiceFixture()
	booking := confirmedBooking(2, 0, 500)
	m := requestedModification(200)
	m.BookingID = booking.ID
	m.Status = StatusProcessing

	f.repo.On("GetByID", mock.Anything, m.ID).Return(m, nil)
	f.bookings.On("GetBookingWithRelations", mock.Anything, booking.ID).Return(booking, nil)
	f.gateway.On("ConfirmCaptured", mock.Anything, booking.BookingRef, m.ID.String()).Return(false, nil)

	_, err := f.service.Complete(context.Background(), m.ID, uuid.New())

	assert.Equal(t, apperr.CodePaymentNotCaptured, apperr.Code(err))
	assert.Equal(t, StatusProcessing, m.Status)
	f.bookings.AssertNotCalled(t, "ApplyModification", mock.Anything, mock.Anything, mock.Anything)
}

func TestComplete_AppliesChangesToBooking(t *testing.T) {
	f := newServiceFixture()
	booking := confirmedBooking(2, 0, 500)
	m := requestedModification(0)
	m.BookingID = booking.ID
	m.NewNumAdults = intPtr(1)
	m.Status = StatusProcessing

	f.repo.On("GetByID", mock.Anything, m.ID).Return(m, nil)
	f.bookings.On("GetBookingWithRelations", mock.Anything, booking.ID).Return(booking, nil)
	f.bookings.On("ApplyModification", mock.Anything, booking.ID, mock.AnythingOfType("bookings.ModificationChange")).Return(nil)
	f.repo.On("Update", mock.Anything, m).Return(nil)

	completed, err := f.service.Complete(context.Background(), m.ID, uuid.New())

	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, completed.Status)
	f.gateway.AssertNotCalled(t, "ConfirmCaptured", mock.Anything, mock.Anything, mock.Anything)
	f.bookings.AssertExpectations(t)
}

func TestComplete_DateChangeMovesSeats(t *testing.T) {
	f := newServiceFixture()
	booking := confirmedBooking(2, 1, 620)
	newScheduleID := uuid.New()

	m := requestedModification(0)
	m.BookingID = booking.ID
	m.Type = TypeDateChange
	m.OriginalScheduleID = booking.ScheduleID
	m.NewScheduleID = &newScheduleID
	m.Status = StatusProcessing

	f.repo.On("GetByID", mock.Anything, m.ID).Return(m, nil)
	f.bookings.On("GetBookingWithRelations", mock.Anything, booking.ID).Return(booking, nil)
	f.bookings.On("ApplyModification", mock.Anything, booking.ID, mock.AnythingOfType("bookings.ModificationChange")).Return(nil)
	f.schedules.On("AdjustBookedCount", mock.Anything, booking.ScheduleID, -3).Return(nil)
	f.schedules.On("AdjustBookedCount", mock.Anything, newScheduleID, 3).Return(nil)
	f.repo.On("Update", mock.Anything, m).Return(nil)

	_, err := f.service.Complete(context.Background(), m.ID, uuid.New())

	require.NoError(t, err)
	f.schedules.AssertExpectations(t)
}

func TestComplete_RecordsCompletingAdminSeparately(t *testing.T) {
	f := newServiceFixture()
	booking := confirmedBooking(2, 0, 500)
	approverID := uuid.New()
	completerID := uuid.New()

	m := requestedModification(0)
	m.BookingID = booking.ID
	require.NoError(t, m.Approve(approverID, "", time.Now()))
	require.Equal(t, StatusProcessing, m.Status)

	f.repo.On("GetByID", mock.Anything, m.ID).Return(m, nil)
	f.bookings.On("GetBookingWithRelations", mock.Anything, booking.ID).Return(booking, nil)
	f.bookings.On("ApplyModification", mock.Anything, booking.ID, mock.AnythingOfType("bookings.ModificationChange")).Return(nil)
	f.repo.On("Update", mock.Anything, m).Return(nil)

	completed, err := f.service.Complete(context.Background(), m.ID, completerID)

	require.NoError(t, err)
	require.NotNil(t, completed.ProcessedBy)
	require.NotNil(t, completed.CompletedBy)
	assert.Equal(t, approverID, *completed.ProcessedBy)
	assert.Equal(t, completerID, *completed.CompletedBy)
}

func TestComplete_BookingAndRecordWritesShareTransaction(t *testing.T) {
	f := newServiceFixture()
	booking := confirmedBooking(2, 1, 620)
	newScheduleID := uuid.New()

	m := requestedModification(0)
	m.BookingID = booking.ID
	m.Type = TypeDateChange
	m.OriginalScheduleID = booking.ScheduleID
	m.NewScheduleID = &newScheduleID
	m.Status = StatusProcessing

	f.repo.On("GetByID", mock.Anything, m.ID).Return(m, nil)
	f.bookings.On("GetBookingWithRelations", mock.Anything, booking.ID).Return(booking, nil)
	f.bookings.On("ApplyModification", mock.Anything, booking.ID, mock.AnythingOfType("bookings.ModificationChange")).
		Run(func(args mock.Arguments) { assert.True(t, f.tx.inTx, "booking rewrite must run inside the transaction") }).
		Return(nil)
	f.schedules.On("AdjustBookedCount", mock.Anything, booking.ScheduleID, -3).
		Run(func(args mock.Arguments) { assert.True(t, f.tx.inTx, "seat release must run inside the transaction") }).
		Return(nil)
	f.schedules.On("AdjustBookedCount", mock.Anything, newScheduleID, 3).Return(nil)
	f.repo.On("Update", mock.Anything, m).
		Run(func(args mock.Arguments) { assert.True(t, f.tx.inTx, "record write must run inside the transaction") }).
		Return(errors.New("connection reset"))

	_, err := f.service.Complete(context.Background(), m.ID, uuid.New())

	// With the writes sharing a transaction, a failed record write rolls
	// back the booking rewrite and the seat deltas, so a retry starts from
	// a clean PROCESSING state instead of double-moving seats.
	require.Error(t, err)
	assert.Equal(t, 1, f.tx.calls)
}

func TestCancelByCustomer_RejectsOtherUsers(t *testing.T) {
	f := newServiceFixture()
	m := requestedModification(200)

	f.repo.On("GetByID", mock.Anything, m.ID).Return(m, nil)

	_, err := f.service.CancelByCustomer(context.Background(), m.ID, uuid.New())

	assert.Equal(t, apperr.CodeUnauthorizedRequester, apperr.Code(err))
}

func TestUpdateDetails_RequotesWhileDecidable(t *testing.T) {
	f := newServiceFixture()
	booking := confirmedBooking(2, 0, 500)
	m := requestedModification(200)
	m.BookingID = booking.ID
	m.NewNumAdults = intPtr(4)

	f.repo.On("GetByID", mock.Anything, m.ID).Return(m, nil)
	f.bookings.On("GetBookingWithRelations", mock.Anything, booking.ID).Return(booking, nil)
	f.repo.On("Update", mock.Anything, m).Return(nil)

	updated, err := f.service.UpdateDetails(context.Background(), m.ID, UpdateDetailsRequest{
		NewNumAdults: intPtr(3),
	})

	require.NoError(t, err)
	assert.True(t, updated.PriceDifference.Equal(decimal.NewFromInt(100)),
		"got %s", updated.PriceDifference)
}

func TestUpdateDetails_LockedAfterDecision(t *testing.T) {
	f := newServiceFixture()
	m := requestedModification(200)
	m.Status = StatusApproved

	f.repo.On("GetByID", mock.Anything, m.ID).Return(m, nil)

	_, err := f.service.UpdateDetails(context.Background(), m.ID, UpdateDetailsRequest{})

	assert.Equal(t, apperr.CodeInvalidTransition, apperr.Code(err))
}
