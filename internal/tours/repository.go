package tours

import (
	"context"
	"errors"
	"time"

	"tourly/internal/shared/apperr"
	"tourly/internal/shared/txn"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Repository interface {
	GetTourByID(ctx context.Context, id uuid.UUID) (*Tour, error)
	GetCategoryByID(ctx context.Context, id uuid.UUID) (*Category, error)
	GetScheduleByID(ctx context.Context, id uuid.UUID) (*TourSchedule, error)
	GetScheduleByTourAndDate(ctx context.Context, tourID uuid.UUID, departure time.Time) (*TourSchedule, error)
	ListSchedules(ctx context.Context, tourID uuid.UUID, from time.Time) ([]TourSchedule, error)
	AdjustBookedCount(ctx context.Context, scheduleID uuid.UUID, delta int) error
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

// conn picks up the transaction bound to ctx when the call runs inside a
// txn.Runner.
func (r *repository) conn(ctx context.Context) *gorm.DB {
	return txn.Conn(ctx, r.db).WithContext(ctx)
}

func (r *repository) GetTourByID(ctx context.Context, id uuid.UUID) (*Tour, error) {
	var tour Tour
	err := r.conn(ctx).
		Preload("Category").
		Where("id = ?", id).
		First(&tour).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound(apperr.CodeTourNotFound, "tour", id)
		}
		return nil, err
	}
	return &tour, nil
}

func (r *repository) GetCategoryByID(ctx context.Context, id uuid.UUID) (*Category, error) {
	var category Category
	err := r.conn(ctx).Where("id = ?", id).First(&category).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound(apperr.CodeCategoryNotFound, "category", id)
		}
		return nil, err
	}
	return &category, nil
}

func (r *repository) GetScheduleByID(ctx context.Context, id uuid.UUID) (*TourSchedule, error) {
	var schedule TourSchedule
	err := r.conn(ctx).Where("id = ?", id).First(&schedule).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound(apperr.CodeScheduleNotFound, "tour schedule", id)
		}
		return nil, err
	}
	return &schedule, nil
}

func (r *repository) GetScheduleByTourAndDate(ctx context.Context, tourID uuid.UUID, departure time.Time) (*TourSchedule, error) {
	var schedule TourSchedule
	day := departure.Truncate(24 * time.Hour)
	err := r.conn(ctx).
		Where("tour_id = ? AND departure_date = ?", tourID, day).
		First(&schedule).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.Newf(apperr.KindNotFound, apperr.CodeScheduleNotFound,
				"no departure of tour %s on %s", tourID, day.Format("2006-01-02"))
		}
		return nil, err
	}
	return &schedule, nil
}

func (r *repository) ListSchedules(ctx context.Context, tourID uuid.UUID, from time.Time) ([]TourSchedule, error) {
	var schedules []TourSchedule
	err := r.conn(ctx).
		Where("tour_id = ? AND departure_date >= ?", tourID, from).
		Order("departure_date ASC").
		Find(&schedules).Error
	return schedules, err
}

// AdjustBookedCount moves seats between departures when a modification
// completes. Negative delta releases seats.
func (r *repository) AdjustBookedCount(ctx context.Context, scheduleID uuid.UUID, delta int) error {
	return r.conn(ctx).
		Model(&TourSchedule{}).
		Where("id = ?", scheduleID).
		UpdateColumn("booked_count", gorm.Expr("booked_count + ?", delta)).Error
}
