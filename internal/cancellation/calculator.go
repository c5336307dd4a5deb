package cancellation

import (
	"github.com/shopspring/decimal"

	"tourly/internal/policies"
)

// ExceptionFlags marks the emergency circumstances claimed by the requester.
type ExceptionFlags struct {
	MedicalEmergency bool `json:"medical_emergency"`
	WeatherRelated   bool `json:"weather_related"`
	ForceMajeure     bool `json:"force_majeure"`
}

// Any reports whether at least one emergency circumstance is claimed
func (f ExceptionFlags) Any() bool {
	return f.MedicalEmergency || f.WeatherRelated || f.ForceMajeure
}

// RefundQuote is the full breakdown of a refund calculation. It is a pure
// value: computing a quote never touches storage or the workflow state.
type RefundQuote struct {
	PolicyID             string          `json:"policy_id"`
	PolicyName           string          `json:"policy_name"`
	HoursBeforeDeparture int             `json:"hours_before_departure"`
	Eligible             bool            `json:"eligible"`
	ExceptionApplied     bool            `json:"exception_applied"`
	RefundPercentage     decimal.Decimal `json:"refund_percentage"`
	OriginalAmount       decimal.Decimal `json:"original_amount"`
	RefundAmount         decimal.Decimal `json:"refund_amount"`
	CancellationFee      decimal.Decimal `json:"cancellation_fee"`
	ProcessingFee        decimal.Decimal `json:"processing_fee"`
	FinalRefundAmount    decimal.Decimal `json:"final_refund_amount"`
}

var oneHundred = decimal.NewFromInt(100)

// CalculateRefund computes the refund for cancelling `originalAmount` worth
// of booking `hoursBeforeDeparture` hours ahead of the departure, under the
// given policy.
//
// The percentage is resolved in three steps: the minimum-notice gate zeroes
// it, the time tiers pick it, and an allowed emergency exception raises it
// to 100 (it never lowers a tier result). Fees are then subtracted from the
// rounded gross refund, floored at zero.
func CalculateRefund(policy *policies.CancellationPolicy, originalAmount decimal.Decimal, hoursBeforeDeparture int, flags ExceptionFlags) RefundQuote {
	quote := RefundQuote{
		PolicyID:             policy.ID.String(),
		PolicyName:           policy.Name,
		HoursBeforeDeparture: hoursBeforeDeparture,
		OriginalAmount:       originalAmount,
		CancellationFee:      policy.CancellationFee,
		ProcessingFee:        policy.ProcessingFee,
	}

	percent := refundPercent(policy, hoursBeforeDeparture)

	if exceptionAllowed(policy, flags) && percent.LessThan(oneHundred) {
		percent = oneHundred
		quote.ExceptionApplied = true
	}

	quote.RefundPercentage = percent
	quote.Eligible = percent.IsPositive()

	// Gross refund, rounded half-up to cents before fees come off.
	gross := originalAmount.Mul(percent).Div(oneHundred).Round(2)
	quote.RefundAmount = gross

	final := gross.Sub(policy.CancellationFee).Sub(policy.ProcessingFee)
	if final.IsNegative() {
		final = decimal.Zero
	}
	quote.FinalRefundAmount = final

	return quote
}

// refundPercent applies the minimum-notice gate and the time tiers.
// Negative hours mean the departure already passed and always yield zero.
func refundPercent(policy *policies.CancellationPolicy, hours int) decimal.Decimal {
	if hours < policy.MinimumNoticeHours || hours < 0 {
		return decimal.Zero
	}

	switch {
	case hours >= policy.HoursFullRefund:
		return policy.FullRefundPercent
	case hours >= policy.HoursPartialRefund:
		return policy.PartialRefundPercent
	case hours >= policy.HoursNoRefund:
		return policy.NoRefundPercent
	default:
		return decimal.Zero
	}
}

func exceptionAllowed(policy *policies.CancellationPolicy, flags ExceptionFlags) bool {
	switch {
	case flags.MedicalEmergency && policy.AllowsMedicalException:
		return true
	case flags.WeatherRelated && policy.AllowsWeatherException:
		return true
	case flags.ForceMajeure && policy.AllowsForceMajeureException:
		return true
	}
	return false
}
