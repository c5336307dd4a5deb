package modifications

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"tourly/internal/shared/apperr"
	"tourly/internal/shared/txn"
)

// Repository interface defines the contract for modification data operations
type Repository interface {
	Create(ctx context.Context, modification *BookingModification) error
	GetByID(ctx context.Context, id uuid.UUID) (*BookingModification, error)
	HasActivePending(ctx context.Context, bookingID uuid.UUID) (bool, error)
	Update(ctx context.Context, modification *BookingModification) error

	ListByUser(ctx context.Context, userID uuid.UUID, query ModificationListQuery) ([]BookingModification, int64, error)
	ListByBooking(ctx context.Context, bookingID uuid.UUID) ([]BookingModification, error)
	ListByStatus(ctx context.Context, status Status, query ModificationListQuery) ([]BookingModification, int64, error)
	ListPending(ctx context.Context, query ModificationListQuery) ([]BookingModification, int64, error)

	GetStatistics(ctx context.Context, from, to time.Time) (*Statistics, error)
	GetTypeStats(ctx context.Context, from, to time.Time) ([]TypeStat, error)
}

// repository implements the Repository interface
type repository struct {
	db *gorm.DB
}

// NewRepository creates a new modification repository instance
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

// conn picks up the transaction bound to ctx when the call runs inside a
// txn.Runner.
func (r *repository) conn(ctx context.Context) *gorm.DB {
	return txn.Conn(ctx, r.db).WithContext(ctx)
}

func (r *repository) Create(ctx context.Context, modification *BookingModification) error {
	if err := r.conn(ctx).Create(modification).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return apperr.New(apperr.KindInvalidState, apperr.CodeDuplicateRequest,
				"an active modification request already exists for this booking")
		}
		return apperr.Wrap(apperr.KindExternalFailure, apperr.CodeDatabaseError, "failed to create modification", err)
	}
	return nil
}

func (r *repository) GetByID(ctx context.Context, id uuid.UUID) (*BookingModification, error) {
	var modification BookingModification
	err := r.conn(ctx).
		Preload("Booking").
		First(&modification, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound(apperr.CodeModificationNotFound, "modification", id)
		}
		return nil, apperr.Wrap(apperr.KindExternalFailure, apperr.CodeDatabaseError, "failed to get modification", err)
	}
	return &modification, nil
}

// HasActivePending reports whether an undecided or in-flight request is
// already open on the booking.
func (r *repository) HasActivePending(ctx context.Context, bookingID uuid.UUID) (bool, error) {
	var count int64
	err := r.conn(ctx).
		Model(&BookingModification{}).
		Where("booking_id = ? AND status IN ?", bookingID,
			[]Status{StatusRequested, StatusUnderReview, StatusApproved, StatusProcessing}).
		Count(&count).Error
	if err != nil {
		return false, apperr.Wrap(apperr.KindExternalFailure, apperr.CodeDatabaseError, "failed to check active modifications", err)
	}
	return count > 0, nil
}

func (r *repository) Update(ctx context.Context, modification *BookingModification) error {
	if err := r.conn(ctx).Save(modification).Error; err != nil {
		return apperr.Wrap(apperr.KindExternalFailure, apperr.CodeDatabaseError, "failed to update modification", err)
	}
	return nil
}

func (r *repository) ListByUser(ctx context.Context, userID uuid.UUID, query ModificationListQuery) ([]BookingModification, int64, error) {
	db := r.conn(ctx).Model(&BookingModification{}).Where("requested_by = ?", userID)
	if query.Status != "" {
		db = db.Where("status = ?", query.Status)
	}
	return r.paginate(db, query)
}

func (r *repository) ListByBooking(ctx context.Context, bookingID uuid.UUID) ([]BookingModification, error) {
	var modifications []BookingModification
	err := r.conn(ctx).
		Where("booking_id = ?", bookingID).
		Order("created_at DESC").
		Find(&modifications).Error
	if err != nil {
		return nil, apperr.Wrap(apperr.KindExternalFailure, apperr.CodeDatabaseError, "failed to list modifications", err)
	}
	return modifications, nil
}

func (r *repository) ListByStatus(ctx context.Context, status Status, query ModificationListQuery) ([]BookingModification, int64, error) {
	db := r.conn(ctx).Model(&BookingModification{}).Where("status = ?", status)
	return r.paginate(db, query)
}

// ListPending returns requests still awaiting an admin decision.
func (r *repository) ListPending(ctx context.Context, query ModificationListQuery) ([]BookingModification, int64, error) {
	db := r.conn(ctx).Model(&BookingModification{}).
		Where("status IN ?", []Status{StatusRequested, StatusUnderReview})
	return r.paginate(db, query)
}

func (r *repository) GetStatistics(ctx context.Context, from, to time.Time) (*Statistics, error) {
	stats := &Statistics{TotalAdditionalRevenue: decimal.Zero}
	base := r.conn(ctx).Model(&BookingModification{}).
		Where("created_at BETWEEN ? AND ?", from, to)

	if err := base.Session(&gorm.Session{}).Count(&stats.TotalModifications).Error; err != nil {
		return nil, apperr.Wrap(apperr.KindExternalFailure, apperr.CodeDatabaseError, "failed to count modifications", err)
	}

	type statusCount struct {
		Status Status
		Count  int64
	}
	var counts []statusCount
	err := base.Session(&gorm.Session{}).
		Select("status, COUNT(*) AS count").
		Group("status").
		Scan(&counts).Error
	if err != nil {
		return nil, apperr.Wrap(apperr.KindExternalFailure, apperr.CodeDatabaseError, "failed to group modifications", err)
	}
	for _, c := range counts {
		switch c.Status {
		case StatusRequested, StatusUnderReview:
			stats.PendingModifications += c.Count
		case StatusApproved, StatusProcessing:
			stats.ApprovedModifications += c.Count
		case StatusRejected:
			stats.RejectedModifications = c.Count
		case StatusCompleted:
			stats.CompletedModifications = c.Count
		}
	}

	var revenue struct {
		Total decimal.Decimal
	}
	err = base.Session(&gorm.Session{}).
		Select("COALESCE(SUM(price_difference + processing_fee), 0) AS total").
		Where("status = ? AND price_difference > 0", StatusCompleted).
		Scan(&revenue).Error
	if err != nil {
		return nil, apperr.Wrap(apperr.KindExternalFailure, apperr.CodeDatabaseError, "failed to sum additional revenue", err)
	}
	stats.TotalAdditionalRevenue = revenue.Total

	return stats, nil
}

func (r *repository) GetTypeStats(ctx context.Context, from, to time.Time) ([]TypeStat, error) {
	type row struct {
		Type  Type `gorm:"column:modification_type"`
		Count int64
	}
	var rows []row
	err := r.conn(ctx).
		Model(&BookingModification{}).
		Select("modification_type, COUNT(*) AS count").
		Where("created_at BETWEEN ? AND ?", from, to).
		Group("modification_type").
		Order("count DESC").
		Scan(&rows).Error
	if err != nil {
		return nil, apperr.Wrap(apperr.KindExternalFailure, apperr.CodeDatabaseError, "failed to group modification types", err)
	}

	var total int64
	for _, row := range rows {
		total += row.Count
	}

	stats := make([]TypeStat, 0, len(rows))
	for _, row := range rows {
		stat := TypeStat{Type: row.Type, Count: row.Count}
		if total > 0 {
			stat.Percentage = float64(row.Count) * 100 / float64(total)
		}
		stats = append(stats, stat)
	}
	return stats, nil
}

func (r *repository) paginate(db *gorm.DB, query ModificationListQuery) ([]BookingModification, int64, error) {
	var total int64
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, apperr.Wrap(apperr.KindExternalFailure, apperr.CodeDatabaseError, "failed to count modifications", err)
	}

	page := query.Page
	if page < 1 {
		page = 1
	}
	limit := query.Limit
	if limit < 1 {
		limit = 20
	}

	var modifications []BookingModification
	err := db.Preload("Booking").
		Order("created_at DESC").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&modifications).Error
	if err != nil {
		return nil, 0, apperr.Wrap(apperr.KindExternalFailure, apperr.CodeDatabaseError, "failed to list modifications", err)
	}
	return modifications, total, nil
}
