package policies

import (
	"time"

	"tourly/internal/shared/apperr"
	"tourly/internal/tours"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CancellationPolicy is a named, versioned rule set for refund calculation.
// Policies are created and edited by administrators, read-only to the engine,
// and deprecated rather than deleted.
type CancellationPolicy struct {
	ID          uuid.UUID `json:"id" gorm:"type:uuid;default:uuid_generate_v4();primaryKey"`
	Name        string    `json:"name" gorm:"uniqueIndex;not null;size:120"`
	Description string    `json:"description" gorm:"type:text"`
	PolicyType  Type      `json:"policy_type" gorm:"type:varchar(20);not null"`

	// Time-based refund tiers, hours before departure, descending.
	HoursFullRefund    int `json:"hours_full_refund" gorm:"not null;check:hours_full_refund >= 0"`
	HoursPartialRefund int `json:"hours_partial_refund" gorm:"not null;check:hours_partial_refund >= 0"`
	HoursNoRefund      int `json:"hours_no_refund" gorm:"not null;check:hours_no_refund >= 0"`

	// Refund percentages per tier, non-increasing in the same order.
	FullRefundPercent    decimal.Decimal `json:"full_refund_percent" gorm:"type:numeric(5,2);not null;default:100"`
	PartialRefundPercent decimal.Decimal `json:"partial_refund_percent" gorm:"type:numeric(5,2);not null;default:50"`
	NoRefundPercent      decimal.Decimal `json:"no_refund_percent" gorm:"type:numeric(5,2);not null;default:0"`

	// Fixed fees deducted from the raw refund.
	CancellationFee decimal.Decimal `json:"cancellation_fee" gorm:"type:numeric(10,2);not null;default:0"`
	ProcessingFee   decimal.Decimal `json:"processing_fee" gorm:"type:numeric(10,2);not null;default:0"`

	// Emergency exception allowances.
	AllowsMedicalException     bool `json:"allows_medical_exception" gorm:"default:false"`
	AllowsWeatherException     bool `json:"allows_weather_exception" gorm:"default:false"`
	AllowsForceMajeureException bool `json:"allows_force_majeure_exception" gorm:"default:false"`

	// Below this many hours before departure, the refund percentage is zero
	// regardless of tier.
	MinimumNoticeHours int `json:"minimum_notice_hours" gorm:"not null;default:1;check:minimum_notice_hours >= 0"`

	Status Status `json:"status" gorm:"type:varchar(20);not null;default:'ACTIVE';index"`

	// Optional category affinity; nil means the policy is generic.
	CategoryID *uuid.UUID      `json:"category_id,omitempty" gorm:"type:uuid;index"`
	Category   *tours.Category `json:"category,omitempty" gorm:"foreignKey:CategoryID"`

	// Higher priority wins within the same specificity tier.
	Priority int `json:"priority" gorm:"not null;default:1"`

	CreatedBy uuid.UUID `json:"created_by" gorm:"type:uuid;not null"`
	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

// Validate enforces the policy invariant: thresholds non-increasing,
// percentages in [0,100] and non-increasing in the same order.
func (p *CancellationPolicy) Validate() error {
	if !p.PolicyType.IsValid() {
		return apperr.Newf(apperr.KindValidation, apperr.CodeValidationFailed,
			"invalid policy type: %s", p.PolicyType)
	}
	if !p.Status.IsValid() {
		return apperr.Newf(apperr.KindValidation, apperr.CodeValidationFailed,
			"invalid policy status: %s", p.Status)
	}
	if p.HoursNoRefund < 0 || p.MinimumNoticeHours < 0 {
		return apperr.New(apperr.KindValidation, apperr.CodeValidationFailed,
			"hour thresholds must be non-negative")
	}
	if p.HoursFullRefund < p.HoursPartialRefund || p.HoursPartialRefund < p.HoursNoRefund {
		return apperr.Newf(apperr.KindValidation, apperr.CodeValidationFailed,
			"hour thresholds must be non-increasing: full=%d partial=%d none=%d",
			p.HoursFullRefund, p.HoursPartialRefund, p.HoursNoRefund)
	}

	hundred := decimal.NewFromInt(100)
	for _, pct := range []decimal.Decimal{p.FullRefundPercent, p.PartialRefundPercent, p.NoRefundPercent} {
		if pct.IsNegative() || pct.GreaterThan(hundred) {
			return apperr.Newf(apperr.KindValidation, apperr.CodeValidationFailed,
				"refund percentages must be within [0,100], got %s", pct)
		}
	}
	if p.FullRefundPercent.LessThan(p.PartialRefundPercent) ||
		p.PartialRefundPercent.LessThan(p.NoRefundPercent) {
		return apperr.New(apperr.KindValidation, apperr.CodeValidationFailed,
			"refund percentages must be non-increasing across tiers")
	}

	if p.CancellationFee.IsNegative() || p.ProcessingFee.IsNegative() {
		return apperr.New(apperr.KindValidation, apperr.CodeValidationFailed,
			"fees must be non-negative")
	}
	return nil
}

// IsCategorySpecific reports whether the policy is scoped to one category.
func (p *CancellationPolicy) IsCategorySpecific() bool {
	return p.CategoryID != nil
}

// TakesPrecedenceOver orders two applicable policies: a category-specific
// policy beats a generic one regardless of priority, then higher priority
// wins within the same tier.
func (p *CancellationPolicy) TakesPrecedenceOver(other *CancellationPolicy) bool {
	if p.IsCategorySpecific() != other.IsCategorySpecific() {
		return p.IsCategorySpecific()
	}
	return p.Priority > other.Priority
}

// BestMatch picks the winning policy from a set of applicable candidates,
// or nil when the set is empty.
func BestMatch(candidates []CancellationPolicy) *CancellationPolicy {
	var best *CancellationPolicy
	for i := range candidates {
		if best == nil || candidates[i].TakesPrecedenceOver(best) {
			best = &candidates[i]
		}
	}
	return best
}

// AllowsException reports whether the policy permits the given emergency
// exception type.
func (p *CancellationPolicy) AllowsException(e ExceptionType) bool {
	switch e {
	case ExceptionMedical:
		return p.AllowsMedicalException
	case ExceptionWeather:
		return p.AllowsWeatherException
	case ExceptionForceMajeure:
		return p.AllowsForceMajeureException
	}
	return false
}

type PolicyListQuery struct {
	Page   int    `form:"page" binding:"omitempty,min=1"`
	Limit  int    `form:"limit" binding:"omitempty,min=1,max=100"`
	Status string `form:"status" binding:"omitempty,oneof=ACTIVE INACTIVE DEPRECATED"`
	Type   string `form:"type" binding:"omitempty,oneof=STANDARD FLEXIBLE STRICT CUSTOM"`
}

// TableName specifies the table name for GORM
func (CancellationPolicy) TableName() string {
	return "cancellation_policies"
}
