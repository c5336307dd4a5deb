package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"tourly/internal/bookings"
	"tourly/internal/policies"
	"tourly/internal/shared/config"
	"tourly/internal/shared/database"
	"tourly/internal/tours"
	"tourly/internal/users"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"
)

type Seeder struct {
	db *database.DB
}

func main() {
	fmt.Println("🌱 Starting Tourly Database Seeder...")

	// Load configuration
	cfg := config.Load()

	// Initialize database
	db, err := database.InitDB(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	seeder := &Seeder{db: db}

	// Clean database
	fmt.Println("\n🧹 Cleaning database...")
	if err := seeder.CleanDatabase(); err != nil {
		log.Fatalf("Failed to clean database: %v", err)
	}
	fmt.Println("✅ Database cleaned successfully")

	// Seed data
	fmt.Println("\n🌱 Seeding database...")
	if err := seeder.SeedAll(); err != nil {
		log.Fatalf("Failed to seed database: %v", err)
	}
	fmt.Println("✅ Database seeded successfully")

	fmt.Println("\n🎉 Seeding completed! Database is ready for testing.")
}

// CleanDatabase truncates all tables in the correct order (respecting foreign key constraints)
func (s *Seeder) CleanDatabase() error {
	// Order matters due to foreign key constraints
	// Delete in reverse dependency order
	tables := []string{
		"booking_modifications",
		"booking_cancellations",
		"bookings",
		"cancellation_policies",
		"tour_schedules",
		"tours",
		"categories",
		"users",
	}

	tx := s.db.PostgreSQL.Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	// Disable foreign key constraints temporarily
	if err := tx.Exec("SET CONSTRAINTS ALL DEFERRED").Error; err != nil {
		tx.Rollback()
		return fmt.Errorf("failed to defer constraints: %w", err)
	}

	for _, table := range tables {
		fmt.Printf("  Truncating table: %s\n", table)
		if err := tx.Exec(fmt.Sprintf("TRUNCATE TABLE %s RESTART IDENTITY CASCADE", table)).Error; err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to truncate table %s: %w", table, err)
		}
	}

	// Re-enable foreign key constraints
	if err := tx.Exec("SET CONSTRAINTS ALL IMMEDIATE").Error; err != nil {
		tx.Rollback()
		return fmt.Errorf("failed to restore constraints: %w", err)
	}

	return tx.Commit().Error
}

// SeedAll seeds all required data
func (s *Seeder) SeedAll() error {
	ctx := context.Background()

	// Seed users first (no dependencies)
	userIDs, err := s.SeedUsers()
	if err != nil {
		return fmt.Errorf("failed to seed users: %w", err)
	}

	// Seed categories
	categoryIDs, err := s.SeedCategories()
	if err != nil {
		return fmt.Errorf("failed to seed categories: %w", err)
	}

	// Seed tours and their schedules
	scheduleRefs, err := s.SeedTours(categoryIDs)
	if err != nil {
		return fmt.Errorf("failed to seed tours: %w", err)
	}

	// Seed cancellation policies
	if err := s.SeedCancellationPolicies(userIDs["admin"], categoryIDs); err != nil {
		return fmt.Errorf("failed to seed cancellation policies: %w", err)
	}

	// Seed confirmed bookings the workflows can act on
	if err := s.SeedBookings(userIDs, scheduleRefs); err != nil {
		return fmt.Errorf("failed to seed bookings: %w", err)
	}

	// Clear Redis cache to ensure fresh state
	if err := s.db.Redis.FlushDB(ctx).Err(); err != nil {
		log.Printf("Warning: Failed to clear Redis cache: %v", err)
	}

	return nil
}

// SeedUsers creates 3 users: 1 admin and 2 regular users
func (s *Seeder) SeedUsers() (map[string]uuid.UUID, error) {
	fmt.Println("  👤 Seeding users...")

	userIDs := make(map[string]uuid.UUID)

	// Hash password for all users (using "qwerty")
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte("qwerty"), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	usersData := []struct {
		key       string
		firstName string
		lastName  string
		email     string
		role      users.Role
	}{
		{"admin", "Admin", "User", "admin@tourly.dev", users.RoleAdmin},
		{"user1", "Asha", "Patel", "asha.patel@example.com", users.RoleUser},
		{"user2", "Diego", "Moreno", "diego.moreno@example.com", users.RoleUser},
	}

	for _, userData := range usersData {
		user := users.User{
			ID:        uuid.New(),
			FirstName: userData.firstName,
			LastName:  userData.lastName,
			Email:     userData.email,
			Password:  string(hashedPassword),
			Role:      userData.role,
			CreatedAt: time.Now(),
			UpdatedAt: time.Now(),
		}

		if err := s.db.PostgreSQL.Create(&user).Error; err != nil {
			return nil, fmt.Errorf("failed to create user %s: %w", userData.email, err)
		}

		userIDs[userData.key] = user.ID
		fmt.Printf("    ✅ Created user: %s (%s)\n", user.Email, user.Role)
	}

	return userIDs, nil
}

// SeedCategories creates tour categories for policy affinity
func (s *Seeder) SeedCategories() (map[string]uuid.UUID, error) {
	fmt.Println("  🗂️ Seeding categories...")

	categoryIDs := make(map[string]uuid.UUID)

	categoriesData := []struct {
		key         string
		name        string
		description string
	}{
		{"adventure", "Adventure", "Trekking, rafting and expedition tours"},
		{"cultural", "Cultural", "Heritage walks, museums and local experiences"},
		{"cruise", "Cruise", "River and ocean cruise packages"},
	}

	for _, categoryData := range categoriesData {
		category := tours.Category{
			ID:          uuid.New(),
			Name:        categoryData.name,
			Slug:        categoryData.key,
			Description: categoryData.description,
			CreatedAt:   time.Now(),
			UpdatedAt:   time.Now(),
		}

		if err := s.db.PostgreSQL.Create(&category).Error; err != nil {
			return nil, fmt.Errorf("failed to create category %s: %w", category.Name, err)
		}

		categoryIDs[categoryData.key] = category.ID
		fmt.Printf("    ✅ Created category: %s\n", category.Name)
	}

	return categoryIDs, nil
}

// scheduleRef pairs a schedule with its tour for booking creation
type scheduleRef struct {
	TourID     uuid.UUID
	ScheduleID uuid.UUID
	Departure  time.Time
	AdultRate  decimal.Decimal
	ChildRate  decimal.Decimal
	Duration   int
}

// SeedTours creates tours with several departures each, at varying rates so
// date changes actually reprice
func (s *Seeder) SeedTours(categoryIDs map[string]uuid.UUID) ([]scheduleRef, error) {
	fmt.Println("  🏔️ Seeding tours and schedules...")

	var refs []scheduleRef

	toursData := []struct {
		name        string
		category    string
		destination string
		duration    int
		baseAdult   string
		baseChild   string
	}{
		{"Annapurna Base Camp Trek", "adventure", "Nepal", 10, "250.00", "150.00"},
		{"Kyoto Heritage Walk", "cultural", "Japan", 3, "120.00", "60.00"},
		{"Danube River Cruise", "cruise", "Austria", 7, "400.00", "200.00"},
	}

	for _, tourData := range toursData {
		tour := tours.Tour{
			ID:           uuid.New(),
			Name:         tourData.name,
			Description:  fmt.Sprintf("%d-day tour in %s", tourData.duration, tourData.destination),
			CategoryID:   categoryIDs[tourData.category],
			Destination:  tourData.destination,
			DurationDays: tourData.duration,
			CreatedAt:    time.Now(),
			UpdatedAt:    time.Now(),
		}

		if err := s.db.PostgreSQL.Create(&tour).Error; err != nil {
			return nil, fmt.Errorf("failed to create tour %s: %w", tour.Name, err)
		}
		fmt.Printf("    ✅ Created tour: %s\n", tour.Name)

		// Three departures, 30/60/90 days out, later ones priced higher.
		baseAdult := decimal.RequireFromString(tourData.baseAdult)
		baseChild := decimal.RequireFromString(tourData.baseChild)
		for i := 0; i < 3; i++ {
			markup := decimal.NewFromInt(int64(i * 20))
			departure := time.Now().AddDate(0, 0, 30*(i+1)).Truncate(24 * time.Hour)

			schedule := tours.TourSchedule{
				ID:            uuid.New(),
				TourID:        tour.ID,
				DepartureDate: departure,
				AdultRate:     baseAdult.Add(markup),
				ChildRate:     baseChild.Add(markup),
				Capacity:      40,
				CreatedAt:     time.Now(),
				UpdatedAt:     time.Now(),
			}

			if err := s.db.PostgreSQL.Create(&schedule).Error; err != nil {
				return nil, fmt.Errorf("failed to create schedule for %s: %w", tour.Name, err)
			}

			refs = append(refs, scheduleRef{
				TourID:     tour.ID,
				ScheduleID: schedule.ID,
				Departure:  departure,
				AdultRate:  schedule.AdultRate,
				ChildRate:  schedule.ChildRate,
				Duration:   tourData.duration,
			})
		}
	}

	return refs, nil
}

// SeedCancellationPolicies creates one generic policy per type plus a
// category-specific override for adventure tours
func (s *Seeder) SeedCancellationPolicies(adminID uuid.UUID, categoryIDs map[string]uuid.UUID) error {
	fmt.Println("  📜 Seeding cancellation policies...")

	adventureID := categoryIDs["adventure"]

	policiesData := []policies.CancellationPolicy{
		{
			Name:                 "Standard Policy",
			Description:          "Default refund terms for all tours",
			PolicyType:           policies.TypeStandard,
			HoursFullRefund:      72,
			HoursPartialRefund:   48,
			HoursNoRefund:        24,
			FullRefundPercent:    decimal.NewFromInt(100),
			PartialRefundPercent: decimal.NewFromInt(50),
			NoRefundPercent:      decimal.Zero,
			CancellationFee:      decimal.NewFromInt(10),
			ProcessingFee:        decimal.NewFromInt(5),
			AllowsMedicalException: true,
			MinimumNoticeHours:   2,
			Status:               policies.StatusActive,
			Priority:             1,
		},
		{
			Name:                 "Flexible Policy",
			Description:          "Generous refund terms for promotional tours",
			PolicyType:           policies.TypeFlexible,
			HoursFullRefund:      24,
			HoursPartialRefund:   12,
			HoursNoRefund:        6,
			FullRefundPercent:    decimal.NewFromInt(100),
			PartialRefundPercent: decimal.NewFromInt(75),
			NoRefundPercent:      decimal.NewFromInt(25),
			AllowsMedicalException:      true,
			AllowsWeatherException:      true,
			AllowsForceMajeureException: true,
			MinimumNoticeHours:   1,
			Status:               policies.StatusInactive,
			Priority:             2,
		},
		{
			Name:                 "Adventure Strict Policy",
			Description:          "Strict terms for expedition tours with heavy upfront costs",
			PolicyType:           policies.TypeStrict,
			HoursFullRefund:      168,
			HoursPartialRefund:   96,
			HoursNoRefund:        48,
			FullRefundPercent:    decimal.NewFromInt(100),
			PartialRefundPercent: decimal.NewFromInt(25),
			NoRefundPercent:      decimal.Zero,
			CancellationFee:      decimal.NewFromInt(50),
			ProcessingFee:        decimal.NewFromInt(10),
			AllowsMedicalException:      true,
			AllowsForceMajeureException: true,
			MinimumNoticeHours:   12,
			Status:               policies.StatusActive,
			CategoryID:           &adventureID,
			Priority:             5,
		},
	}

	for i := range policiesData {
		policy := &policiesData[i]
		policy.ID = uuid.New()
		policy.CreatedBy = adminID
		policy.CreatedAt = time.Now()
		policy.UpdatedAt = time.Now()

		if err := policy.Validate(); err != nil {
			return fmt.Errorf("policy %s is invalid: %w", policy.Name, err)
		}
		if err := s.db.PostgreSQL.Create(policy).Error; err != nil {
			return fmt.Errorf("failed to create policy %s: %w", policy.Name, err)
		}
		fmt.Printf("    ✅ Created policy: %s (%s)\n", policy.Name, policy.PolicyType)
	}

	return nil
}

// SeedBookings creates confirmed bookings on upcoming departures
func (s *Seeder) SeedBookings(userIDs map[string]uuid.UUID, refs []scheduleRef) error {
	fmt.Println("  🎫 Seeding bookings...")

	bookingsData := []struct {
		userKey  string
		ref      scheduleRef
		adults   int
		children int
	}{
		{"user1", refs[0], 2, 0},
		{"user1", refs[3], 2, 1},
		{"user2", refs[6], 1, 1},
	}

	for i, bookingData := range bookingsData {
		ref := bookingData.ref
		total := ref.AdultRate.Mul(decimal.NewFromInt(int64(bookingData.adults))).
			Add(ref.ChildRate.Mul(decimal.NewFromInt(int64(bookingData.children))))

		booking := bookings.Booking{
			ID:          uuid.New(),
			BookingRef:  fmt.Sprintf("TRL-%d-%04d", time.Now().Year(), i+1),
			UserID:      userIDs[bookingData.userKey],
			TourID:      ref.TourID,
			ScheduleID:  ref.ScheduleID,
			StartDate:   ref.Departure,
			EndDate:     ref.Departure.AddDate(0, 0, ref.Duration),
			NumAdults:   bookingData.adults,
			NumChildren: bookingData.children,
			TotalAmount: total,
			Status:      bookings.StatusConfirmed,
			CreatedAt:   time.Now(),
			UpdatedAt:   time.Now(),
		}

		if err := s.db.PostgreSQL.Create(&booking).Error; err != nil {
			return fmt.Errorf("failed to create booking %s: %w", booking.BookingRef, err)
		}

		if err := s.db.PostgreSQL.Model(&tours.TourSchedule{}).
			Where("id = ?", ref.ScheduleID).
			UpdateColumn("booked_count", booking.TotalParticipants()).Error; err != nil {
			return fmt.Errorf("failed to update seat count: %w", err)
		}

		fmt.Printf("    ✅ Created booking: %s (%s)\n", booking.BookingRef, booking.Status)
	}

	return nil
}
