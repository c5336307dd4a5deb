package policies

import (
	"context"
	"errors"

	"tourly/internal/shared/apperr"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Repository interface {
	Create(ctx context.Context, policy *CancellationPolicy) error
	GetByID(ctx context.Context, id uuid.UUID) (*CancellationPolicy, error)
	GetByName(ctx context.Context, name string) (*CancellationPolicy, error)
	Update(ctx context.Context, policy *CancellationPolicy) error
	List(ctx context.Context, query PolicyListQuery) ([]CancellationPolicy, int64, error)
	FindBestMatch(ctx context.Context, categoryID uuid.UUID) (*CancellationPolicy, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, policy *CancellationPolicy) error {
	if err := r.db.WithContext(ctx).Create(policy).Error; err != nil {
		return apperr.Wrap(apperr.KindExternalFailure, apperr.CodeDatabaseError, "failed to create policy", err)
	}
	return nil
}

func (r *repository) GetByID(ctx context.Context, id uuid.UUID) (*CancellationPolicy, error) {
	var policy CancellationPolicy
	err := r.db.WithContext(ctx).Preload("Category").First(&policy, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound(apperr.CodePolicyNotFound, "policy", id)
		}
		return nil, apperr.Wrap(apperr.KindExternalFailure, apperr.CodeDatabaseError, "failed to get policy", err)
	}
	return &policy, nil
}

func (r *repository) GetByName(ctx context.Context, name string) (*CancellationPolicy, error) {
	var policy CancellationPolicy
	err := r.db.WithContext(ctx).First(&policy, "name = ?", name).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound(apperr.CodePolicyNotFound, "policy", name)
		}
		return nil, apperr.Wrap(apperr.KindExternalFailure, apperr.CodeDatabaseError, "failed to get policy", err)
	}
	return &policy, nil
}

func (r *repository) Update(ctx context.Context, policy *CancellationPolicy) error {
	if err := r.db.WithContext(ctx).Save(policy).Error; err != nil {
		return apperr.Wrap(apperr.KindExternalFailure, apperr.CodeDatabaseError, "failed to update policy", err)
	}
	return nil
}

func (r *repository) List(ctx context.Context, query PolicyListQuery) ([]CancellationPolicy, int64, error) {
	var policies []CancellationPolicy
	var total int64

	db := r.db.WithContext(ctx).Model(&CancellationPolicy{})
	if query.Status != "" {
		db = db.Where("status = ?", query.Status)
	}
	if query.Type != "" {
		db = db.Where("policy_type = ?", query.Type)
	}

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, apperr.Wrap(apperr.KindExternalFailure, apperr.CodeDatabaseError, "failed to count policies", err)
	}

	page := query.Page
	if page < 1 {
		page = 1
	}
	limit := query.Limit
	if limit < 1 {
		limit = 20
	}

	err := db.Preload("Category").
		Order("priority DESC, created_at DESC").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&policies).Error
	if err != nil {
		return nil, 0, apperr.Wrap(apperr.KindExternalFailure, apperr.CodeDatabaseError, "failed to list policies", err)
	}
	return policies, total, nil
}

// FindBestMatch returns the single applicable active policy for a category.
// The winner is picked by BestMatch so the precedence rule lives in one
// place: category-specific beats generic, then higher priority.
func (r *repository) FindBestMatch(ctx context.Context, categoryID uuid.UUID) (*CancellationPolicy, error) {
	var candidates []CancellationPolicy
	err := r.db.WithContext(ctx).
		Where("status = ?", StatusActive).
		Where("category_id = ? OR category_id IS NULL", categoryID).
		Find(&candidates).Error
	if err != nil {
		return nil, apperr.Wrap(apperr.KindExternalFailure, apperr.CodeDatabaseError, "failed to resolve policy", err)
	}

	best := BestMatch(candidates)
	if best == nil {
		return nil, apperr.Newf(apperr.KindNotFound, apperr.CodePolicyNotFound,
			"no active cancellation policy applies to category %s", categoryID)
	}
	return best, nil
}
