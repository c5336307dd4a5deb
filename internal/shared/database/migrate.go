package database

import (
	"tourly/internal/bookings"
	"tourly/internal/cancellation"
	"tourly/internal/modifications"
	"tourly/internal/policies"
	"tourly/internal/tours"
	"tourly/internal/users"

	"gorm.io/gorm"
)

func Migrate(db *gorm.DB) error {
	// uuid_generate_v4 defaults on primary keys
	if err := db.Exec(`CREATE EXTENSION IF NOT EXISTS "uuid-ossp";`).Error; err != nil {
		return err
	}

	return db.AutoMigrate(
		&users.User{},
		&tours.Category{},
		&tours.Tour{},
		&tours.TourSchedule{},
		&bookings.Booking{},
		&policies.CancellationPolicy{},
		&cancellation.BookingCancellation{},
		&modifications.BookingModification{},
	)
}
