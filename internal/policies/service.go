package policies

import (
	"context"
	"time"

	"tourly/internal/shared/apperr"
	"tourly/pkg/cache"
	"tourly/pkg/logger"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	policyCacheTTL       = 10 * time.Minute
	policyCacheKeyPrefix = "policy:active:"
)

// Service interface defines the contract for policy management and resolution
type Service interface {
	// Resolution (read path used by the workflows)
	ResolveForCategory(ctx context.Context, categoryID uuid.UUID) (*CancellationPolicy, error)

	// Admin management
	CreatePolicy(ctx context.Context, adminID uuid.UUID, req CreatePolicyRequest) (*CancellationPolicy, error)
	UpdatePolicy(ctx context.Context, policyID uuid.UUID, req UpdatePolicyRequest) (*CancellationPolicy, error)
	DeprecatePolicy(ctx context.Context, policyID uuid.UUID) (*CancellationPolicy, error)
	GetPolicy(ctx context.Context, policyID uuid.UUID) (*CancellationPolicy, error)
	ListPolicies(ctx context.Context, query PolicyListQuery) ([]CancellationPolicy, int64, error)
}

type service struct {
	repo  Repository
	cache cache.Service
	log   *logger.Logger
}

// NewService creates a new policy service instance
func NewService(repo Repository, cacheService cache.Service, log *logger.Logger) Service {
	return &service{
		repo:  repo,
		cache: cacheService,
		log:   log,
	}
}

// ResolveForCategory picks the single active policy for a tour category.
// Category-specific policies beat generic ones; within a specificity tier
// the highest priority wins. There is no built-in fallback: when nothing
// matches, the caller gets POLICY_NOT_FOUND and the workflow stops.
func (s *service) ResolveForCategory(ctx context.Context, categoryID uuid.UUID) (*CancellationPolicy, error) {
	if s.cache == nil {
		return s.repo.FindBestMatch(ctx, categoryID)
	}

	key := policyCacheKeyPrefix + categoryID.String()
	var policy CancellationPolicy
	err := s.cache.GetOrSet(ctx, key, policyCacheTTL, func() (interface{}, error) {
		return s.repo.FindBestMatch(ctx, categoryID)
	}, &policy)
	if err != nil {
		return nil, err
	}
	return &policy, nil
}

func (s *service) CreatePolicy(ctx context.Context, adminID uuid.UUID, req CreatePolicyRequest) (*CancellationPolicy, error) {
	if _, err := s.repo.GetByName(ctx, req.Name); err == nil {
		return nil, apperr.Newf(apperr.KindValidation, apperr.CodeValidationFailed,
			"policy with name %q already exists", req.Name)
	}

	policy := req.toPolicy(adminID)
	if err := policy.Validate(); err != nil {
		return nil, err
	}

	if err := s.repo.Create(ctx, policy); err != nil {
		return nil, err
	}

	s.invalidateResolutionCache(ctx)
	s.log.InfoWithContext(ctx, "Policy Created", map[string]interface{}{
		"policy_id": policy.ID,
		"name":      policy.Name,
		"type":      policy.PolicyType,
	})
	return policy, nil
}

func (s *service) UpdatePolicy(ctx context.Context, policyID uuid.UUID, req UpdatePolicyRequest) (*CancellationPolicy, error) {
	policy, err := s.repo.GetByID(ctx, policyID)
	if err != nil {
		return nil, err
	}
	if policy.Status == StatusDeprecated {
		return nil, apperr.New(apperr.KindInvalidState, apperr.CodeInvalidTransition,
			"deprecated policies cannot be edited")
	}

	req.applyTo(policy)
	if err := policy.Validate(); err != nil {
		return nil, err
	}

	if err := s.repo.Update(ctx, policy); err != nil {
		return nil, err
	}

	s.invalidateResolutionCache(ctx)
	return policy, nil
}

// DeprecatePolicy retires a policy. Deprecated policies stay in storage so
// historical cancellations keep their applied-policy reference.
func (s *service) DeprecatePolicy(ctx context.Context, policyID uuid.UUID) (*CancellationPolicy, error) {
	policy, err := s.repo.GetByID(ctx, policyID)
	if err != nil {
		return nil, err
	}
	if policy.Status == StatusDeprecated {
		return policy, nil
	}

	policy.Status = StatusDeprecated
	if err := s.repo.Update(ctx, policy); err != nil {
		return nil, err
	}

	s.invalidateResolutionCache(ctx)
	s.log.InfoWithContext(ctx, "Policy Deprecated", map[string]interface{}{
		"policy_id": policy.ID,
		"name":      policy.Name,
	})
	return policy, nil
}

func (s *service) GetPolicy(ctx context.Context, policyID uuid.UUID) (*CancellationPolicy, error) {
	return s.repo.GetByID(ctx, policyID)
}

func (s *service) ListPolicies(ctx context.Context, query PolicyListQuery) ([]CancellationPolicy, int64, error) {
	return s.repo.List(ctx, query)
}

// invalidateResolutionCache drops all cached resolutions after any write.
// Resolution keys are per-category, and a priority change on a generic
// policy can change the winner for every category.
func (s *service) invalidateResolutionCache(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.DeletePattern(ctx, policyCacheKeyPrefix+"*"); err != nil {
		s.log.WarnContext(ctx, "failed to invalidate policy cache", "error", err)
	}
}

// CreatePolicyRequest is the admin payload for a new policy
type CreatePolicyRequest struct {
	Name        string `json:"name" binding:"required,min=3,max=120"`
	Description string `json:"description" binding:"max=2000"`
	PolicyType  string `json:"policy_type" binding:"required,oneof=STANDARD FLEXIBLE STRICT CUSTOM"`

	HoursFullRefund    int `json:"hours_full_refund" binding:"min=0"`
	HoursPartialRefund int `json:"hours_partial_refund" binding:"min=0"`
	HoursNoRefund      int `json:"hours_no_refund" binding:"min=0"`

	FullRefundPercent    decimal.Decimal `json:"full_refund_percent"`
	PartialRefundPercent decimal.Decimal `json:"partial_refund_percent"`
	NoRefundPercent      decimal.Decimal `json:"no_refund_percent"`

	CancellationFee decimal.Decimal `json:"cancellation_fee"`
	ProcessingFee   decimal.Decimal `json:"processing_fee"`

	AllowsMedicalException      bool `json:"allows_medical_exception"`
	AllowsWeatherException      bool `json:"allows_weather_exception"`
	AllowsForceMajeureException bool `json:"allows_force_majeure_exception"`

	MinimumNoticeHours int        `json:"minimum_notice_hours" binding:"min=0"`
	CategoryID         *uuid.UUID `json:"category_id,omitempty"`
	Priority           int        `json:"priority" binding:"min=1"`
}

func (r CreatePolicyRequest) toPolicy(adminID uuid.UUID) *CancellationPolicy {
	return &CancellationPolicy{
		Name:                        r.Name,
		Description:                 r.Description,
		PolicyType:                  Type(r.PolicyType),
		HoursFullRefund:             r.HoursFullRefund,
		HoursPartialRefund:          r.HoursPartialRefund,
		HoursNoRefund:               r.HoursNoRefund,
		FullRefundPercent:           r.FullRefundPercent,
		PartialRefundPercent:        r.PartialRefundPercent,
		NoRefundPercent:             r.NoRefundPercent,
		CancellationFee:             r.CancellationFee,
		ProcessingFee:               r.ProcessingFee,
		AllowsMedicalException:      r.AllowsMedicalException,
		AllowsWeatherException:      r.AllowsWeatherException,
		AllowsForceMajeureException: r.AllowsForceMajeureException,
		MinimumNoticeHours:          r.MinimumNoticeHours,
		Status:                      StatusActive,
		CategoryID:                  r.CategoryID,
		Priority:                    r.Priority,
		CreatedBy:                   adminID,
	}
}

// UpdatePolicyRequest carries partial edits; nil fields are left untouched
type UpdatePolicyRequest struct {
	Description *string `json:"description,omitempty"`

	HoursFullRefund    *int `json:"hours_full_refund,omitempty"`
	HoursPartialRefund *int `json:"hours_partial_refund,omitempty"`
	HoursNoRefund      *int `json:"hours_no_refund,omitempty"`

	FullRefundPercent    *decimal.Decimal `json:"full_refund_percent,omitempty"`
	PartialRefundPercent *decimal.Decimal `json:"partial_refund_percent,omitempty"`
	NoRefundPercent      *decimal.Decimal `json:"no_refund_percent,omitempty"`

	CancellationFee *decimal.Decimal `json:"cancellation_fee,omitempty"`
	ProcessingFee   *decimal.Decimal `json:"processing_fee,omitempty"`

	AllowsMedicalException      *bool `json:"allows_medical_exception,omitempty"`
	AllowsWeatherException      *bool `json:"allows_weather_exception,omitempty"`
	AllowsForceMajeureException *bool `json:"allows_force_majeure_exception,omitempty"`

	MinimumNoticeHours *int    `json:"minimum_notice_hours,omitempty"`
	Status             *string `json:"status,omitempty" binding:"omitempty,oneof=ACTIVE INACTIVE"`
	Priority           *int    `json:"priority,omitempty" binding:"omitempty,min=1"`
}

func (r UpdatePolicyRequest) applyTo(p *CancellationPolicy) {
	if r.Description != nil {
		p.Description = *r.Description
	}
	if r.HoursFullRefund != nil {
		p.HoursFullRefund = *r.HoursFullRefund
	}
	if r.HoursPartialRefund != nil {
		p.HoursPartialRefund = *r.HoursPartialRefund
	}
	if r.HoursNoRefund != nil {
		p.HoursNoRefund = *r.HoursNoRefund
	}
	if r.FullRefundPercent != nil {
		p.FullRefundPercent = *r.FullRefundPercent
	}
	if r.PartialRefundPercent != nil {
		p.PartialRefundPercent = *r.PartialRefundPercent
	}
	if r.NoRefundPercent != nil {
		p.NoRefundPercent = *r.NoRefundPercent
	}
	if r.CancellationFee != nil {
		p.CancellationFee = *r.CancellationFee
	}
	if r.ProcessingFee != nil {
		p.ProcessingFee = *r.ProcessingFee
	}
	if r.AllowsMedicalException != nil {
		p.AllowsMedicalException = *r.AllowsMedicalException
	}
	if r.AllowsWeatherException != nil {
		p.AllowsWeatherException = *r.AllowsWeatherException
	}
	if r.AllowsForceMajeureException != nil {
		p.AllowsForceMajeureException = *r.AllowsForceMajeureException
	}
	if r.MinimumNoticeHours != nil {
		p.MinimumNoticeHours = *r.MinimumNoticeHours
	}
	if r.Status != nil {
		p.Status = Status(*r.Status)
	}
	if r.Priority != nil {
		p.Priority = *r.Priority
	}
}
