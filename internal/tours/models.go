package tours

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Category groups tours for policy affinity. Cancellation policies may be
// scoped to a single category; a nil category on a policy means it is generic.
type Category struct {
	ID          uuid.UUID `json:"id" gorm:"type:uuid;default:uuid_generate_v4();primaryKey"`
	Name        string    `json:"name" gorm:"uniqueIndex;not null;size:120"`
	Slug        string    `json:"slug" gorm:"uniqueIndex;not null;size:120"`
	Description string    `json:"description" gorm:"type:text"`
	CreatedAt   time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt   time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

type Tour struct {
	ID          uuid.UUID `json:"id" gorm:"type:uuid;default:uuid_generate_v4();primaryKey"`
	Name        string    `json:"name" gorm:"not null;size:255"`
	Description string    `json:"description" gorm:"type:text"`
	CategoryID  uuid.UUID `json:"category_id" gorm:"type:uuid;not null;index"`
	Category    *Category `json:"category,omitempty" gorm:"foreignKey:CategoryID"`
	Destination string    `json:"destination" gorm:"size:255"`
	DurationDays int      `json:"duration_days" gorm:"not null;default:1;check:duration_days > 0"`
	ImageURL    string    `json:"image_url" gorm:"size:500"`

	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

// TourSchedule is one departure of a tour with its per-person rates.
// Rates differ between departures of the same tour, which is what makes a
// pure date change repriceable.
type TourSchedule struct {
	ID            uuid.UUID       `json:"id" gorm:"type:uuid;default:uuid_generate_v4();primaryKey"`
	TourID        uuid.UUID       `json:"tour_id" gorm:"type:uuid;not null;index:idx_schedule_tour_date,unique"`
	DepartureDate time.Time       `json:"departure_date" gorm:"not null;index:idx_schedule_tour_date,unique"`
	AdultRate     decimal.Decimal `json:"adult_rate" gorm:"type:numeric(10,2);not null"`
	ChildRate     decimal.Decimal `json:"child_rate" gorm:"type:numeric(10,2);not null"`
	InfantRate    decimal.Decimal `json:"infant_rate" gorm:"type:numeric(10,2);default:0"`
	Capacity      int             `json:"capacity" gorm:"not null;check:capacity > 0"`
	BookedCount   int             `json:"booked_count" gorm:"default:0;check:booked_count >= 0"`

	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

// AvailableSeats returns remaining capacity for this departure.
func (s *TourSchedule) AvailableSeats() int {
	remaining := s.Capacity - s.BookedCount
	if remaining < 0 {
		return 0
	}
	return remaining
}

// TableName specifies the table name for GORM
func (Category) TableName() string {
	return "categories"
}

func (Tour) TableName() string {
	return "tours"
}

func (TourSchedule) TableName() string {
	return "tour_schedules"
}
