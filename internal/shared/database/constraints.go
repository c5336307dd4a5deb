package database

import (
	"gorm.io/gorm"
)

// MigrateConstraints adds constraints AutoMigrate cannot express
func MigrateConstraints(db *gorm.DB) error {
	// At most one active modification request per booking. The unique index
	// is partial so closed requests never block a new one.
	err := db.Exec(`
		CREATE UNIQUE INDEX IF NOT EXISTS unique_active_modification_per_booking
		ON booking_modifications (booking_id)
		WHERE status IN ('REQUESTED', 'UNDER_REVIEW', 'APPROVED', 'PROCESSING');
	`).Error
	if err != nil {
		return err
	}

	// Generic policies have category_id NULL, so the column's unique index
	// cannot guarantee one active policy per name and category pair.
	err = db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_policies_resolution
		ON cancellation_policies (status, category_id, priority DESC);
	`).Error
	if err != nil {
		return err
	}

	// Admin review queues filter on status plus emergency flags.
	err = db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_cancellations_review_queue
		ON booking_cancellations (status, created_at DESC);
	`).Error
	if err != nil {
		return err
	}

	return nil
}
