package modifications

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"tourly/internal/bookings"
	"tourly/internal/shared/apperr"
	"tourly/internal/shared/config"
	"tourly/internal/tours"
)

type MockRateLookup struct {
	mock.Mock
}

func (m *MockRateLookup) GetScheduleByID(ctx context.Context, id uuid.UUID) (*tours.TourSchedule, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*tours.TourSchedule), args.Error(1)
}

func (m *MockRateLookup) GetScheduleByTourAndDate(ctx context.Context, tourID uuid.UUID, departure time.Time) (*tours.TourSchedule, error) {
	args := m.Called(ctx, tourID, departure)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*tours.TourSchedule), args.Error(1)
}

func engineConfig() config.EngineConfig {
	return config.EngineConfig{
		PerAdditionalPersonRate:    decimal.NewFromInt(100),
		PerRemovedPersonRefundRate: decimal.NewFromInt(80),
		ModificationProcessingFee:  decimal.NewFromInt(25),
		ModificationMinNoticeHours: 48,
	}
}

func confirmedBooking(adults, children int, total int64) *bookings.Booking {
	return &bookings.Booking{
		ID:          uuid.New(),
		TourID:      uuid.New(),
		ScheduleID:  uuid.New(),
		StartDate:   time.Now().AddDate(0, 0, 30),
		NumAdults:   adults,
		NumChildren: children,
		TotalAmount: decimal.NewFromInt(total),
		Status:      bookings.StatusConfirmed,
	}
}

func intPtr(v int) *int { return &v }

func TestPrice_AddingParticipants(t *testing.T) {
	pricer := NewPricer(new(MockRateLookup), engineConfig())
	booking := confirmedBooking(2, 0, 500)

	quote, err := pricer.Price(context.Background(), booking, PricingRequest{
		Type:         TypeParticipantChange,
		NewNumAdults: intPtr(4),
	})

	require.NoError(t, err)
	assert.True(t, quote.PriceDifference.Equal(decimal.NewFromInt(200)))
	assert.True(t, quote.NewAmount.Equal(decimal.NewFromInt(700)))
	assert.True(t, quote.TotalAdditionalAmount.Equal(decimal.NewFromInt(225)))
	assert.True(t, quote.RequiresAdditionalPayment)
	assert.False(t, quote.OffersRefund)
}

func TestPrice_RemovingParticipantsRefundsAtLowerRate(t *testing.T) {
	pricer := NewPricer(new(MockRateLookup), engineConfig())
	booking := confirmedBooking(2, 0, 500)

	quote, err := pricer.Price(context.Background(), booking, PricingRequest{
		Type:         TypeParticipantChange,
		NewNumAdults: intPtr(1),
	})

	require.NoError(t, err)
	assert.True(t, quote.PriceDifference.Equal(decimal.NewFromInt(-80)))
	assert.True(t, quote.NewAmount.Equal(decimal.NewFromInt(420)))
	assert.False(t, quote.RequiresAdditionalPayment)
	assert.True(t, quote.OffersRefund)

	// The refund side still owes the flat fee, nothing more.
	assert.True(t, quote.TotalAdditionalAmount.Equal(decimal.NewFromInt(25)))
}

func TestPrice_UnchangedCountsAreFree(t *testing.T) {
	pricer := NewPricer(new(MockRateLookup), engineConfig())
	booking := confirmedBooking(2, 1, 500)

	quote, err := pricer.Price(context.Background(), booking, PricingRequest{
		Type:         TypeParticipantChange,
		NewNumAdults: intPtr(2),
	})

	require.NoError(t, err)
	assert.True(t, quote.PriceDifference.IsZero())
	assert.False(t, quote.RequiresAdditionalPayment)
	assert.False(t, quote.OffersRefund)
}

func TestPrice_DateChangeRepricesAgainstNewDeparture(t *testing.T) {
	rates := new(MockRateLookup)
	pricer := NewPricer(rates, engineConfig())
	booking := confirmedBooking(2, 1, 620)

	newDate := time.Now().AddDate(0, 0, 60)
	newScheduleID := uuid.New()

	rates.On("GetScheduleByID", mock.Anything, booking.ScheduleID).Return(&tours.TourSchedule{
		ID:        booking.ScheduleID,
		AdultRate: decimal.NewFromInt(250),
		ChildRate: decimal.NewFromInt(120),
	}, nil)
	rates.On("GetScheduleByTourAndDate", mock.Anything, booking.TourID, newDate).Return(&tours.TourSchedule{
		ID:        newScheduleID,
		AdultRate: decimal.NewFromInt(270),
		ChildRate: decimal.NewFromInt(130),
	}, nil)

	quote, err := pricer.Price(context.Background(), booking, PricingRequest{
		Type:         TypeDateChange,
		NewStartDate: &newDate,
	})

	require.NoError(t, err)
	// 2 adults x 20 + 1 child x 10 = 50
	assert.True(t, quote.PriceDifference.Equal(decimal.NewFromInt(50)))
	require.NotNil(t, quote.NewScheduleID)
	assert.Equal(t, newScheduleID, *quote.NewScheduleID)
}

func TestPrice_DateChangeEqualRatesIsZero(t *testing.T) {
	rates := new(MockRateLookup)
	pricer := NewPricer(rates, engineConfig())
	booking := confirmedBooking(2, 0, 500)

	newDate := time.Now().AddDate(0, 0, 60)
	sameRates := &tours.TourSchedule{
		ID:        uuid.New(),
		AdultRate: decimal.NewFromInt(250),
		ChildRate: decimal.NewFromInt(120),
	}
	rates.On("GetScheduleByID", mock.Anything, booking.ScheduleID).Return(sameRates, nil)
	rates.On("GetScheduleByTourAndDate", mock.Anything, booking.TourID, newDate).Return(sameRates, nil)

	quote, err := pricer.Price(context.Background(), booking, PricingRequest{
		Type:         TypeDateChange,
		NewStartDate: &newDate,
	})

	require.NoError(t, err)
	assert.True(t, quote.PriceDifference.IsZero())
	assert.True(t, quote.TotalAdditionalAmount.Equal(decimal.NewFromInt(25)))
}

func TestPrice_DateAndParticipantChangeSums(t *testing.T) {
	rates := new(MockRateLookup)
	pricer := NewPricer(rates, engineConfig())
	booking := confirmedBooking(2, 0, 500)

	newDate := time.Now().AddDate(0, 0, 60)
	rates.On("GetScheduleByID", mock.Anything, booking.ScheduleID).Return(&tours.TourSchedule{
		ID:        booking.ScheduleID,
		AdultRate: decimal.NewFromInt(250),
		ChildRate: decimal.NewFromInt(120),
	}, nil)
	rates.On("GetScheduleByTourAndDate", mock.Anything, booking.TourID, newDate).Return(&tours.TourSchedule{
		ID:        uuid.New(),
		AdultRate: decimal.NewFromInt(260),
		ChildRate: decimal.NewFromInt(120),
	}, nil)

	quote, err := pricer.Price(context.Background(), booking, PricingRequest{
		Type:         TypeDateAndParticipantChange,
		NewStartDate: &newDate,
		NewNumAdults: intPtr(3),
	})

	require.NoError(t, err)
	// Date portion: 3 adults x 10 = 30. Participant portion: +1 x 100 = 100.
	assert.True(t, quote.PriceDifference.Equal(decimal.NewFromInt(130)),
		"got %s", quote.PriceDifference)
}

func TestPrice_ManualTypesUseSuppliedDifference(t *testing.T) {
	pricer := NewPricer(new(MockRateLookup), engineConfig())
	booking := confirmedBooking(2, 0, 500)

	diff := decimal.NewFromInt(150)
	quote, err := pricer.Price(context.Background(), booking, PricingRequest{
		Type:                  TypeUpgradeTourPackage,
		ManualPriceDifference: &diff,
	})

	require.NoError(t, err)
	assert.True(t, quote.PriceDifference.Equal(diff))
	assert.True(t, quote.TotalAdditionalAmount.Equal(decimal.NewFromInt(175)))
}

func TestPrice_ManualTypeWithoutDifferenceFails(t *testing.T) {
	pricer := NewPricer(new(MockRateLookup), engineConfig())
	booking := confirmedBooking(2, 0, 500)

	_, err := pricer.Price(context.Background(), booking, PricingRequest{Type: TypeOther})

	assert.Equal(t, apperr.CodeValidationFailed, apperr.Code(err))
}

func TestPrice_DateChangeWithoutDateFails(t *testing.T) {
	pricer := NewPricer(new(MockRateLookup), engineConfig())
	booking := confirmedBooking(2, 0, 500)

	_, err := pricer.Price(context.Background(), booking, PricingRequest{Type: TypeDateChange})

	assert.Equal(t, apperr.CodeValidationFailed, apperr.Code(err))
}
