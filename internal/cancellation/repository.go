package cancellation

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

// Repository interface defines the contract for cancellation data operations
type Repository interface {
	Create(ctx context.Context, cancellation *BookingCancellation) error
	GetByID(ctx context.Context, id uuid.UUID) (*BookingCancellation, error)
	GetByBookingID(ctx context.Context, bookingID uuid.UUID) (*BookingCancellation, error)
	ExistsForBooking(ctx context.Context, bookingID uuid.UUID) (bool, error)
	Update(ctx context.Context, cancellation *BookingCancellation) error

	ListByUser(ctx context.Context, userID uuid.UUID, query CancellationListQuery) ([]BookingCancellation, int64, error)
	ListByStatus(ctx context.Context, status Status, query CancellationListQuery) ([]BookingCancellation, int64, error)
	ListPending(ctx context.Context, query CancellationListQuery) ([]BookingCancellation, int64, error)
	ListEmergency(ctx context.Context, query CancellationListQuery) ([]BookingCancellation, int64, error)
	CountRecentByUser(ctx context.Context, userID uuid.UUID, since time.Time) (int64, error)

	GetStatistics(ctx context.Context, from, to time.Time) (*Statistics, error)
	GetReasonStats(ctx context.Context, from, to time.Time) ([]ReasonStat, error)
	GetUserSummary(ctx context.Context, userID uuid.UUID) (int64, decimal.Decimal, error)
}

// repository implements the Repository interface
type repository struct {
	db *gorm.DB
}

// NewRepository creates a new cancellation repository instance
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

// conn picks up the transaction bound to ctx when the call runs inside a
// txn.Runner.
func (r *repository) conn(ctx context.Context) *gorm.DB {
	return txn.Conn(ctx, r.db).WithContext(ctx)
}

func (r *repository) Create(ctx context.Context, cancellation *BookingCancellation) error {
	if err := r.conn(ctx).Create(cancellation).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return apperr.New(apperr.KindInvalidState, apperr.CodeDuplicateRequest,
				"a cancellation request already exists for this booking")
		}
		return apperr.Wrap(apperr.KindExternalFailure, apperr.CodeDatabaseError, "failed to create cancellation", err)
	}
	return nil
}

func (r *repository) GetByID(ctx context.Context, id uuid.UUID) (*BookingCancellation, error) {
	var cancellation BookingCancellation
	err := r.conn(ctx).
		Preload("Booking").
		Preload("Policy").
		First(&cancellation, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound(apperr.CodeCancellationNotFound, "cancellation", id)
		}
		return nil, apperr.Wrap(apperr.KindExternalFailure, apperr.CodeDatabaseError, "failed to get cancellation", err)
	}
	return &cancellation, nil
}

func (r *repository) GetByBookingID(ctx context.Context, bookingID uuid.UUID) (*BookingCancellation, error) {
	var cancellation BookingCancellation
	err := r.conn(ctx).
		Preload("Policy").
		First(&cancellation, "booking_id = ?", bookingID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound(apperr.CodeCancellationNotFound, "cancellation for booking", bookingID)
		}
		return nil, apperr.Wrap(apperr.KindExternalFailure, apperr.CodeDatabaseError, "failed to get cancellation", err)
	}
	return &cancellation, nil
}

func (r *repository) ExistsForBooking(ctx context.Context, bookingID uuid.UUID) (bool, error) {
	var count int64
	err := r.conn(ctx).
		Model(&BookingCancellation{}).
		Where("booking_id = ?", bookingID).
		Count(&count).Error
	if err != nil {
		return false, apperr.Wrap(apperr.KindExternalFailure, apperr.CodeDatabaseError, "failed to check cancellation existence", err)
	}
	return count > 0, nil
}

func (r *repository) Update(ctx context.Context, cancellation *BookingCancellation) error {
	if err := r.conn(ctx).Save(cancellation).Error; err != nil {
		return apperr.Wrap(apperr.KindExternalFailure, apperr.CodeDatabaseError, "failed to update cancellation", err)
	}
	return nil
}

func (r *repository) ListByUser(ctx context.Context, userID uuid.UUID, query CancellationListQuery) ([]BookingCancellation, int64, error) {
	db := r.conn(ctx).Model(&BookingCancellation{}).Where("requested_by = ?", userID)
	if query.Status != "" {
		db = db.Where("status = ?", query.Status)
	}
	return r.paginate(db, query)
}

func (r *repository) ListByStatus(ctx context.Context, status Status, query CancellationListQuery) ([]BookingCancellation, int64, error) {
	db := r.conn(ctx).Model(&BookingCancellation{}).Where("status = ?", status)
	return r.paginate(db, query)
}

// ListPending returns requests still awaiting an admin decision.
func (r *repository) ListPending(ctx context.Context, query CancellationListQuery) ([]BookingCancellation, int64, error) {
	db := r.conn(ctx).Model(&BookingCancellation{}).
		Where("status IN ?", []Status{StatusRequested, StatusUnderReview})
	return r.paginate(db, query)
}

// ListEmergency returns undecided requests claiming an emergency exception.
func (r *repository) ListEmergency(ctx context.Context, query CancellationListQuery) ([]BookingCancellation, int64, error) {
	db := r.conn(ctx).Model(&BookingCancellation{}).
		Where("status IN ?", []Status{StatusRequested, StatusUnderReview}).
		Where("is_medical_emergency OR is_weather_related OR is_force_majeure")
	return r.paginate(db, query)
}

func (r *repository) CountRecentByUser(ctx context.Context, userID uuid.UUID, since time.Time) (int64, error) {
	var count int64
	err := r.conn(ctx).
		Model(&BookingCancellation{}).
		Where("requested_by = ? AND created_at >= ?", userID, since).
		Count(&count).Error
	if err != nil {
		return 0, apperr.Wrap(apperr.KindExternalFailure, apperr.CodeDatabaseError, "failed to count recent cancellations", err)
	}
	return count, nil
}

func (r *repository) GetStatistics(ctx context.Context, from, to time.Time) (*Statistics, error) {
	stats := &Statistics{TotalRefunded: decimal.Zero}
	base := r.conn(ctx).Model(&BookingCancellation{}).
		Where("created_at BETWEEN ? AND ?", from, to)

	if err := base.Session(&gorm.Session{}).Count(&stats.TotalCancellations).Error; err != nil {
		return nil, apperr.Wrap(apperr.KindExternalFailure, apperr.CodeDatabaseError, "failed to count cancellations", err)
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
		return nil, apperr.Wrap(apperr.KindExternalFailure, apperr.CodeDatabaseError, "failed to group cancellations", err)
	}
	for _, c := range counts {
		switch c.Status {
		case StatusRequested, StatusUnderReview:
			stats.PendingCancellations += c.Count
		case StatusApproved:
			stats.ApprovedCancellations = c.Count
		case StatusRejected:
			stats.RejectedCancellations = c.Count
		case StatusCompleted:
			stats.CompletedRefunds = c.Count
		}
	}

	var refunded struct {
		Total decimal.Decimal
	}
	err = base.Session(&gorm.Session{}).
		Select("COALESCE(SUM(final_refund_amount), 0) AS total").
		Where("refund_status = ?", RefundCompleted).
		Scan(&refunded).Error
	if err != nil {
		return nil, apperr.Wrap(apperr.KindExternalFailure, apperr.CodeDatabaseError, "failed to sum refunds", err)
	}
	stats.TotalRefunded = refunded.Total

	return stats, nil
}

func (r *repository) GetReasonStats(ctx context.Context, from, to time.Time) ([]ReasonStat, error) {
	type row struct {
		Reason Reason
		Count  int64
	}
	var rows []row
	err := r.conn(ctx).
		Model(&BookingCancellation{}).
		Select("reason, COUNT(*) AS count").
		Where("created_at BETWEEN ? AND ?", from, to).
		Group("reason").
		Order("count DESC").
		Scan(&rows).Error
	if err != nil {
		return nil, apperr.Wrap(apperr.KindExternalFailure, apperr.CodeDatabaseError, "failed to group reasons", err)
	}

	var total int64
	for _, row := range rows {
		total += row.Count
	}

	stats := make([]ReasonStat, 0, len(rows))
	for _, row := range rows {
		stat := ReasonStat{Reason: row.Reason, Count: row.Count}
		if total > 0 {
			stat.Percentage = float64(row.Count) * 100 / float64(total)
		}
		stats = append(stats, stat)
	}
	return stats, nil
}

func (r *repository) GetUserSummary(ctx context.Context, userID uuid.UUID) (int64, decimal.Decimal, error) {
	var result struct {
		Count int64
		Total decimal.Decimal
	}
	err := r.conn(ctx).
		Model(&BookingCancellation{}).
		Select("COUNT(*) AS count, COALESCE(SUM(final_refund_amount) FILTER (WHERE refund_status = ?), 0) AS total", RefundCompleted).
		Where("requested_by = ?", userID).
		Scan(&result).Error
	if err != nil {
		return 0, decimal.Zero, apperr.Wrap(apperr.KindExternalFailure, apperr.CodeDatabaseError, "failed to summarize user cancellations", err)
	}
	return result.Count, result.Total, nil
}

func (r *repository) paginate(db *gorm.DB, query CancellationListQuery) ([]BookingCancellation, int64, error) {
	var total int64
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, apperr.Wrap(apperr.KindExternalFailure, apperr.CodeDatabaseError, "failed to count cancellations", err)
	}

	page := query.Page
	if page < 1 {
		page = 1
	}
	limit := query.Limit
	if limit < 1 {
		limit = 20
	}

	var cancellations []BookingCancellation
	err := db.Preload("Booking").
		Order("created_at DESC").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&cancellations).Error
	if err != nil {
		return nil, 0, apperr.Wrap(apperr.KindExternalFailure, apperr.CodeDatabaseError, "failed to list cancellations", err)
	}
	return cancellations, total, nil
}
