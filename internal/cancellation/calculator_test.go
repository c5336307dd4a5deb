package cancellation

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"tourly/internal/policies"
)

func standardPolicy() *policies.CancellationPolicy {
	return &policies.CancellationPolicy{
		ID:                     uuid.New(),
		Name:                   "Standard Policy",
		PolicyType:             policies.TypeStandard,
		HoursFullRefund:        72,
		HoursPartialRefund:     48,
		HoursNoRefund:          24,
		FullRefundPercent:      decimal.NewFromInt(100),
		PartialRefundPercent:   decimal.NewFromInt(50),
		NoRefundPercent:        decimal.Zero,
		AllowsMedicalException: true,
		MinimumNoticeHours:     2,
		Status:                 policies.StatusActive,
	}
}

func TestCalculateRefund_TierSelection(t *testing.T) {
	policy := standardPolicy()
	amount := decimal.NewFromInt(500)

	tests := []struct {
		name        string
		hours       int
		wantPercent string
		wantFinal   string
	}{
		{"full refund tier", 100, "100", "500"},
		{"exactly at full boundary", 72, "100", "500"},
		{"partial refund tier", 60, "50", "250"},
		{"exactly at partial boundary", 48, "50", "250"},
		{"no refund tier", 30, "0", "0"},
		{"below all tiers", 10, "0", "0"},
		{"departure already passed", -5, "0", "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			quote := CalculateRefund(policy, amount, tt.hours, ExceptionFlags{})

			assert.True(t, quote.RefundPercentage.Equal(decimal.RequireFromString(tt.wantPercent)),
				"percentage: got %s want %s", quote.RefundPercentage, tt.wantPercent)
			assert.True(t, quote.FinalRefundAmount.Equal(decimal.RequireFromString(tt.wantFinal)),
				"final: got %s want %s", quote.FinalRefundAmount, tt.wantFinal)
		})
	}
}

func TestCalculateRefund_MinimumNoticeGate(t *testing.T) {
	policy := standardPolicy()
	policy.MinimumNoticeHours = 36

	// 30 hours is inside the no-refund tier but below minimum notice.
	quote := CalculateRefund(policy, decimal.NewFromInt(500), 30, ExceptionFlags{})

	assert.False(t, quote.Eligible)
	assert.True(t, quote.FinalRefundAmount.IsZero())
}

func TestCalculateRefund_FeesSubtracted(t *testing.T) {
	policy := standardPolicy()
	policy.CancellationFee = decimal.NewFromInt(10)
	policy.ProcessingFee = decimal.NewFromInt(5)

	quote := CalculateRefund(policy, decimal.NewFromInt(500), 60, ExceptionFlags{})

	assert.True(t, quote.RefundAmount.Equal(decimal.NewFromInt(250)))
	assert.True(t, quote.FinalRefundAmount.Equal(decimal.NewFromInt(235)))
}

func TestCalculateRefund_FeesNeverGoNegative(t *testing.T) {
	policy := standardPolicy()
	policy.CancellationFee = decimal.NewFromInt(40)

	// 50% of 50 = 25, minus a 40 fee would be negative.
	quote := CalculateRefund(policy, decimal.NewFromInt(50), 60, ExceptionFlags{})

	assert.True(t, quote.FinalRefundAmount.IsZero())
}

func TestCalculateRefund_RoundsHalfUpToCents(t *testing.T) {
	policy := standardPolicy()

	// 50% of 333.33 = 166.665, which rounds up to 166.67.
	quote := CalculateRefund(policy, decimal.RequireFromString("333.33"), 60, ExceptionFlags{})

	assert.Equal(t, "166.67", quote.RefundAmount.StringFixed(2))
}

func TestCalculateRefund_MedicalExceptionOverridesTier(t *testing.T) {
	policy := standardPolicy()

	// Too late for any refund, but the policy allows medical exceptions.
	quote := CalculateRefund(policy, decimal.NewFromInt(500), 10, ExceptionFlags{MedicalEmergency: true})

	assert.True(t, quote.ExceptionApplied)
	assert.True(t, quote.RefundPercentage.Equal(decimal.NewFromInt(100)))
	assert.True(t, quote.FinalRefundAmount.Equal(decimal.NewFromInt(500)))
}

func TestCalculateRefund_ExceptionNotAllowedByPolicy(t *testing.T) {
	policy := standardPolicy()
	policy.AllowsMedicalException = false

	quote := CalculateRefund(policy, decimal.NewFromInt(500), 10, ExceptionFlags{MedicalEmergency: true})

	assert.False(t, quote.ExceptionApplied)
	assert.True(t, quote.FinalRefundAmount.IsZero())
}

func TestCalculateRefund_ExceptionDoesNotLowerFullRefund(t *testing.T) {
	policy := standardPolicy()

	quote := CalculateRefund(policy, decimal.NewFromInt(500), 100, ExceptionFlags{MedicalEmergency: true})

	// Already at 100%, so the exception flag changes nothing.
	assert.False(t, quote.ExceptionApplied)
	assert.True(t, quote.RefundPercentage.Equal(decimal.NewFromInt(100)))
}

func TestCalculateRefund_WeatherAndForceMajeureFlags(t *testing.T) {
	policy := standardPolicy()
	policy.AllowsWeatherException = true
	policy.AllowsForceMajeureException = true

	for _, flags := range []ExceptionFlags{
		{WeatherRelated: true},
		{ForceMajeure: true},
	} {
		quote := CalculateRefund(policy, decimal.NewFromInt(200), 10, flags)
		assert.True(t, quote.ExceptionApplied, "flags %+v", flags)
		assert.True(t, quote.FinalRefundAmount.Equal(decimal.NewFromInt(200)))
	}
}
