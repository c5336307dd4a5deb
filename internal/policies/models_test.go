package policies

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tourly/internal/shared/apperr"
)

func validPolicy() *CancellationPolicy {
	return &CancellationPolicy{
		ID:                     uuid.New(),
		Name:                   "Standard Policy",
		PolicyType:             TypeStandard,
		HoursFullRefund:        72,
		HoursPartialRefund:     48,
		HoursNoRefund:          24,
		FullRefundPercent:      decimal.NewFromInt(100),
		PartialRefundPercent:   decimal.NewFromInt(50),
		NoRefundPercent:        decimal.NewFromInt(0),
		CancellationFee:        decimal.NewFromInt(10),
		ProcessingFee:          decimal.NewFromInt(5),
		AllowsMedicalException: true,
		MinimumNoticeHours:     2,
		Status:                 StatusActive,
		Priority:               1,
		CreatedBy:              uuid.New(),
	}
}

func TestValidate_AcceptsWellFormedPolicy(t *testing.T) {
	require.NoError(t, validPolicy().Validate())
}

func TestValidate_RejectsBadInput(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(p *CancellationPolicy)
	}{
		{
			name:   "unknown policy type",
			mutate: func(p *CancellationPolicy) { p.PolicyType = "LENIENT" },
		},
		{
			name:   "unknown status",
			mutate: func(p *CancellationPolicy) { p.Status = "ARCHIVED" },
		},
		{
			name:   "partial tier above full tier",
			mutate: func(p *CancellationPolicy) { p.HoursPartialRefund = 96 },
		},
		{
			name:   "no-refund tier above partial tier",
			mutate: func(p *CancellationPolicy) { p.HoursNoRefund = 60 },
		},
		{
			name:   "percentage above 100",
			mutate: func(p *CancellationPolicy) { p.FullRefundPercent = decimal.NewFromInt(120) },
		},
		{
			name:   "negative percentage",
			mutate: func(p *CancellationPolicy) { p.NoRefundPercent = decimal.NewFromInt(-5) },
		},
		{
			name: "percentages increasing across tiers",
			mutate: func(p *CancellationPolicy) {
				p.PartialRefundPercent = decimal.NewFromInt(50)
				p.FullRefundPercent = decimal.NewFromInt(25)
			},
		},
		{
			name:   "negative cancellation fee",
			mutate: func(p *CancellationPolicy) { p.CancellationFee = decimal.NewFromInt(-1) },
		},
		{
			name:   "negative minimum notice",
			mutate: func(p *CancellationPolicy) { p.MinimumNoticeHours = -1 },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			policy := validPolicy()
			tt.mutate(policy)

			err := policy.Validate()

			assert.Equal(t, apperr.CodeValidationFailed, apperr.Code(err))
		})
	}
}

func TestValidate_AllowsEqualTierBoundaries(t *testing.T) {
	policy := validPolicy()
	policy.HoursPartialRefund = policy.HoursFullRefund
	policy.PartialRefundPercent = policy.FullRefundPercent

	assert.NoError(t, policy.Validate())
}

func TestAllowsException(t *testing.T) {
	policy := validPolicy()
	policy.AllowsWeatherException = true

	assert.True(t, policy.AllowsException(ExceptionMedical))
	assert.True(t, policy.AllowsException(ExceptionWeather))
	assert.False(t, policy.AllowsException(ExceptionForceMajeure))
	assert.False(t, policy.AllowsException("UNKNOWN"))
}

func TestIsCategorySpecific(t *testing.T) {
	policy := validPolicy()
	assert.False(t, policy.IsCategorySpecific())

	categoryID := uuid.New()
	policy.CategoryID = &categoryID
	assert.True(t, policy.IsCategorySpecific())
}

func namedPolicy(name string, priority int, categoryID *uuid.UUID) CancellationPolicy {
	policy := validPolicy()
	policy.Name = name
	policy.Priority = priority
	policy.CategoryID = categoryID
	return *policy
}

func TestBestMatch_CategorySpecificBeatsGenericRegardlessOfPriority(t *testing.T) {
	categoryID := uuid.New()
	candidates := []CancellationPolicy{
		namedPolicy("generic high priority", 100, nil),
		namedPolicy("adventure low priority", 1, &categoryID),
	}

	best := BestMatch(candidates)

	require.NotNil(t, best)
	assert.Equal(t, "adventure low priority", best.Name)
}

func TestBestMatch_PriorityBreaksTiesWithinSpecificity(t *testing.T) {
	categoryID := uuid.New()

	t.Run("among category-specific", func(t *testing.T) {
		best := BestMatch([]CancellationPolicy{
			namedPolicy("peak season", 5, &categoryID),
			namedPolicy("promo override", 10, &categoryID),
		})
		require.NotNil(t, best)
		assert.Equal(t, "promo override", best.Name)
	})

	t.Run("among generic", func(t *testing.T) {
		best := BestMatch([]CancellationPolicy{
			namedPolicy("default", 1, nil),
			namedPolicy("seasonal default", 3, nil),
		})
		require.NotNil(t, best)
		assert.Equal(t, "seasonal default", best.Name)
	})
}

func TestBestMatch_FallsBackToGenericWhenNoSpecificCandidate(t *testing.T) {
	best := BestMatch([]CancellationPolicy{
		namedPolicy("default", 1, nil),
	})

	require.NotNil(t, best)
	assert.Equal(t, "default", best.Name)
}

func TestBestMatch_NilOnEmptyCandidates(t *testing.T) {
	assert.Nil(t, BestMatch(nil))
	assert.Nil(t, BestMatch([]CancellationPolicy{}))
}

func TestTakesPrecedenceOver(t *testing.T) {
	categoryID := uuid.New()
	specific := namedPolicy("specific", 1, &categoryID)
	generic := namedPolicy("generic", 50, nil)

	assert.True(t, specific.TakesPrecedenceOver(&generic))
	assert.False(t, generic.TakesPrecedenceOver(&specific))
}
