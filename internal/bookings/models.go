package bookings

import (
	"time"

	"tourly/internal/tours"
	"tourly/internal/users"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Booking is the aggregate both workflows read. The engine never mutates it
// directly; completion actions go through the Service.
type Booking struct {
	ID         uuid.UUID `json:"id" gorm:"type:uuid;default:uuid_generate_v4();primaryKey"`
	BookingRef string    `json:"booking_ref" gorm:"uniqueIndex;not null;size:32"`
	UserID     uuid.UUID `json:"user_id" gorm:"type:uuid;not null;index"`
	TourID     uuid.UUID `json:"tour_id" gorm:"type:uuid;not null;index"`
	ScheduleID uuid.UUID `json:"schedule_id" gorm:"type:uuid;not null;index"`

	StartDate   time.Time       `json:"start_date" gorm:"not null"`
	EndDate     time.Time       `json:"end_date" gorm:"not null"`
	NumAdults   int             `json:"num_adults" gorm:"not null;check:num_adults >= 0"`
	NumChildren int             `json:"num_children" gorm:"default:0;check:num_children >= 0"`
	TotalAmount decimal.Decimal `json:"total_amount" gorm:"type:numeric(10,2);not null"`
	Status      Status          `json:"status" gorm:"type:varchar(30);not null;default:'PENDING'"`

	User *users.User `json:"user,omitempty" gorm:"foreignKey:UserID"`
	Tour *tours.Tour `json:"tour,omitempty" gorm:"foreignKey:TourID"`

	CancelledAt *time.Time `json:"cancelled_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt   time.Time  `json:"updated_at" gorm:"autoUpdateTime"`
}

// TotalParticipants counts every person on the booking.
func (b *Booking) TotalParticipants() int {
	return b.NumAdults + b.NumChildren
}

// HoursBeforeDeparture is the whole-hour distance from now to departure.
// Negative once the tour has started.
func (b *Booking) HoursBeforeDeparture(now time.Time) int {
	return int(b.StartDate.Sub(now).Hours())
}

type BookingListQuery struct {
	Page   int    `form:"page" binding:"omitempty,min=1"`
	Limit  int    `form:"limit" binding:"omitempty,min=1,max=100"`
	Status string `form:"status" binding:"omitempty,oneof=PENDING CONFIRMED CANCELLATION_REQUESTED CANCELLED COMPLETED"`
}

// TableName specifies the table name for GORM
func (Booking) TableName() string {
	return "bookings"
}
