package bookings

import (
	"context"
	"errors"
	"time"

	"tourly/internal/shared/apperr"
	"tourly/internal/shared/txn"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type Repository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*Booking, error)
	GetByIDWithRelations(ctx context.Context, id uuid.UUID) (*Booking, error)
	GetByUserID(ctx context.Context, userID uuid.UUID, query BookingListQuery) ([]Booking, int64, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status Status, cancelledAt *time.Time) error
	ApplyModification(ctx context.Context, id uuid.UUID, change ModificationChange) error
}

// ModificationChange carries the booking fields a completed modification
// rewrites. Nil fields are untouched.
type ModificationChange struct {
	StartDate    *time.Time
	EndDate      *time.Time
	ScheduleID   *uuid.UUID
	NumAdults    *int
	NumChildren  *int
	TotalAmount  *decimal.Decimal
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

// conn picks up the transaction bound to ctx when the call runs inside a
// txn.Runner, so workflow transitions touching several tables stay atomic.
func (r *repository) conn(ctx context.Context) *gorm.DB {
	return txn.Conn(ctx, r.db).WithContext(ctx)
}

func (r *repository) GetByID(ctx context.Context, id uuid.UUID) (*Booking, error) {
	var booking Booking
	err := r.conn(ctx).Where("id = ?", id).First(&booking).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound(apperr.CodeBookingNotFound, "booking", id)
		}
		return nil, err
	}
	return &booking, nil
}

func (r *repository) GetByIDWithRelations(ctx context.Context, id uuid.UUID) (*Booking, error) {
	var booking Booking
	err := r.conn(ctx).
		Preload("User").
		Preload("Tour").
		Preload("Tour.Category").
		Where("id = ?", id).
		First(&booking).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound(apperr.CodeBookingNotFound, "booking", id)
		}
		return nil, err
	}
	return &booking, nil
}

func (r *repository) GetByUserID(ctx context.Context, userID uuid.UUID, query BookingListQuery) ([]Booking, int64, error) {
	var bookings []Booking
	var totalCount int64

	// Set defaults
	if query.Page <= 0 {
		query.Page = 1
	}
	if query.Limit <= 0 {
		query.Limit = 10
	}

	baseQuery := r.conn(ctx).
		Model(&Booking{}).
		Where("user_id = ?", userID)

	if query.Status != "" {
		baseQuery = baseQuery.Where("status = ?", query.Status)
	}

	if err := baseQuery.Count(&totalCount).Error; err != nil {
		return nil, 0, err
	}

	offset := (query.Page - 1) * query.Limit
	err := baseQuery.
		Preload("Tour").
		Order("created_at DESC").
		Offset(offset).
		Limit(query.Limit).
		Find(&bookings).Error

	return bookings, totalCount, err
}

func (r *repository) UpdateStatus(ctx context.Context, id uuid.UUID, status Status, cancelledAt *time.Time) error {
	updates := map[string]interface{}{
		"status":     status,
		"updated_at": time.Now(),
	}

	if cancelledAt != nil {
		updates["cancelled_at"] = *cancelledAt
	}

	return r.conn(ctx).
		Model(&Booking{}).
		Where("id = ?", id).
		Updates(updates).Error
}

// ApplyModification rewrites the booking fields a completed modification
// changed, in a single update.
func (r *repository) ApplyModification(ctx context.Context, id uuid.UUID, change ModificationChange) error {
	updates := map[string]interface{}{
		"updated_at": time.Now(),
	}

	if change.StartDate != nil {
		updates["start_date"] = *change.StartDate
	}
	if change.EndDate != nil {
		updates["end_date"] = *change.EndDate
	}
	if change.ScheduleID != nil {
		updates["schedule_id"] = *change.ScheduleID
	}
	if change.NumAdults != nil {
		updates["num_adults"] = *change.NumAdults
	}
	if change.NumChildren != nil {
		updates["num_children"] = *change.NumChildren
	}
	if change.TotalAmount != nil {
		updates["total_amount"] = *change.TotalAmount
	}

	return r.conn(ctx).
		Model(&Booking{}).
		Where("id = ?", id).
		Updates(updates).Error
}
