package tours

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Service interface defines the contract for tour and schedule reads
type Service interface {
	GetTour(ctx context.Context, id uuid.UUID) (*Tour, error)
	GetCategory(ctx context.Context, id uuid.UUID) (*Category, error)
	GetSchedule(ctx context.Context, id uuid.UUID) (*TourSchedule, error)
	ListUpcomingSchedules(ctx context.Context, tourID uuid.UUID) ([]TourSchedule, error)
}

// service implements the Service interface
type service struct {
	repo Repository
}

// NewService creates a new tour service instance
func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func (s *service) GetTour(ctx context.Context, id uuid.UUID) (*Tour, error) {
	return s.repo.GetTourByID(ctx, id)
}

func (s *service) GetCategory(ctx context.Context, id uuid.UUID) (*Category, error) {
	return s.repo.GetCategoryByID(ctx, id)
}

func (s *service) GetSchedule(ctx context.Context, id uuid.UUID) (*TourSchedule, error) {
	return s.repo.GetScheduleByID(ctx, id)
}

func (s *service) ListUpcomingSchedules(ctx context.Context, tourID uuid.UUID) ([]TourSchedule, error) {
	return s.repo.ListSchedules(ctx, tourID, time.Now())
}
