package modifications

import (
	"context"
	"time"

	"tourly/internal/bookings"
	"tourly/internal/shared/apperr"
	"tourly/internal/shared/config"
	"tourly/internal/tours"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// RateLookup resolves per-departure rates for date changes. Satisfied by
// tours.Repository.
type RateLookup interface {
	GetScheduleByID(ctx context.Context, id uuid.UUID) (*tours.TourSchedule, error)
	GetScheduleByTourAndDate(ctx context.Context, tourID uuid.UUID, departure time.Time) (*tours.TourSchedule, error)
}

// PricingQuote is the full price breakdown of a proposed modification.
// RequiresAdditionalPayment and OffersRefund are mutually exclusive; both
// are false when the difference is exactly zero.
type PricingQuote struct {
	OriginalAmount            decimal.Decimal `json:"original_amount"`
	NewAmount                 decimal.Decimal `json:"new_amount"`
	PriceDifference           decimal.Decimal `json:"price_difference"`
	ProcessingFee             decimal.Decimal `json:"processing_fee"`
	TotalAdditionalAmount     decimal.Decimal `json:"total_additional_amount"`
	RequiresAdditionalPayment bool            `json:"requires_additional_payment"`
	OffersRefund              bool            `json:"offers_refund"`

	// Resolved for date changes so the workflow can move the booking to the
	// new departure on completion.
	NewScheduleID *uuid.UUID `json:"new_schedule_id,omitempty"`
}

// PricingRequest carries the proposed changes the pricer evaluates.
type PricingRequest struct {
	Type            Type
	NewStartDate    *time.Time
	NewNumAdults    *int
	NewNumChildren  *int

	// Admin-supplied difference for types the pricer has no rule for
	// (package upgrades, accommodation changes, OTHER).
	ManualPriceDifference *decimal.Decimal
}

// Pricer computes modification quotes. Stateless apart from its rate
// source and configured constants.
type Pricer struct {
	rates RateLookup
	cfg   config.EngineConfig
}

func NewPricer(rates RateLookup, cfg config.EngineConfig) *Pricer {
	return &Pricer{rates: rates, cfg: cfg}
}

// Price computes the quote for a proposed modification against the
// booking's current state. It never mutates anything.
func (p *Pricer) Price(ctx context.Context, booking *bookings.Booking, req PricingRequest) (PricingQuote, error) {
	quote := PricingQuote{
		OriginalAmount: booking.TotalAmount,
		ProcessingFee:  p.cfg.ModificationProcessingFee,
	}

	diff := decimal.Zero

	// Participant counts after the change. Date-only modifications keep the
	// original counts.
	effAdults := booking.NumAdults
	effChildren := booking.NumChildren
	if req.Type.ChangesParticipants() {
		if req.NewNumAdults != nil {
			effAdults = *req.NewNumAdults
		}
		if req.NewNumChildren != nil {
			effChildren = *req.NewNumChildren
		}
	}

	switch {
	case req.Type.IsManuallyPriced():
		if req.ManualPriceDifference == nil {
			return PricingQuote{}, apperr.Newf(apperr.KindValidation, apperr.CodeValidationFailed,
				"modification type %s requires a price difference", req.Type)
		}
		diff = *req.ManualPriceDifference

	default:
		if req.Type.ChangesDate() {
			if req.NewStartDate == nil {
				return PricingQuote{}, apperr.New(apperr.KindValidation, apperr.CodeValidationFailed,
					"new start date is required for a date change")
			}
			dateDiff, scheduleID, err := p.dateChangeDifference(ctx, booking, *req.NewStartDate, effAdults, effChildren)
			if err != nil {
				return PricingQuote{}, err
			}
			diff = diff.Add(dateDiff)
			quote.NewScheduleID = &scheduleID
		}

		if req.Type.ChangesParticipants() {
			diff = diff.Add(p.participantChangeDifference(booking, effAdults, effChildren))
		}
	}

	diff = diff.Round(2)

	quote.PriceDifference = diff
	quote.NewAmount = booking.TotalAmount.Add(diff)
	quote.RequiresAdditionalPayment = diff.IsPositive()
	quote.OffersRefund = diff.IsNegative()

	quote.TotalAdditionalAmount = quote.ProcessingFee
	if diff.IsPositive() {
		quote.TotalAdditionalAmount = diff.Add(quote.ProcessingFee)
	}

	return quote, nil
}

// dateChangeDifference reprices the booking against the rates of the new
// departure. Equal rates produce a zero difference.
func (p *Pricer) dateChangeDifference(ctx context.Context, booking *bookings.Booking, newDate time.Time, adults, children int) (decimal.Decimal, uuid.UUID, error) {
	current, err := p.rates.GetScheduleByID(ctx, booking.ScheduleID)
	if err != nil {
		return decimal.Zero, uuid.Nil, err
	}

	target, err := p.rates.GetScheduleByTourAndDate(ctx, booking.TourID, newDate)
	if err != nil {
		return decimal.Zero, uuid.Nil, err
	}

	adultDiff := target.AdultRate.Sub(current.AdultRate).Mul(decimal.NewFromInt(int64(adults)))
	childDiff := target.ChildRate.Sub(current.ChildRate).Mul(decimal.NewFromInt(int64(children)))

	return adultDiff.Add(childDiff), target.ID, nil
}

// participantChangeDifference prices a headcount delta. Additions are
// charged at the per-person rate; removals refund at the lower removal
// rate, so a round trip of add-then-remove is never free.
func (p *Pricer) participantChangeDifference(booking *bookings.Booking, adults, children int) decimal.Decimal {
	delta := (adults + children) - booking.TotalParticipants()
	if delta > 0 {
		return p.cfg.PerAdditionalPersonRate.Mul(decimal.NewFromInt(int64(delta)))
	}
	if delta < 0 {
		return p.cfg.PerRemovedPersonRefundRate.Mul(decimal.NewFromInt(int64(-delta))).Neg()
	}
	return decimal.Zero
}
