package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gymdesk/internal/models"
	"gymdesk/internal/repository"
	"gymdesk/internal/validation"
)

var ErrWorkoutNotFound = errors.New("workout session not found")

// WorkoutService manages scheduled workout sessions
type WorkoutService struct {
	workoutRepo *repository.WorkoutRepository
	userRepo    *repository.UserRepository
}

// NewWorkoutService creates a new workout service
func NewWorkoutService(workoutRepo *repository.WorkoutRepository, userRepo *repository.UserRepository) *WorkoutService {
	return &WorkoutService{workoutRepo: workoutRepo, userRepo: userRepo}
}

// CreateSession schedules a workout. A coach, when given, must be a staff account.
func (s *WorkoutService) CreateSession(ctx context.Context, title, description string, coachID *int64) (*models.WorkoutSession, error) {
	title = strings.TrimSpace(title)
	if err := validation.ValidateName("title", title, 200); err != nil {
		return nil, err
	}

	if coachID != nil {
		coach, err := s.userRepo.GetUserByID(ctx, *coachID)
		if err != nil {
			return nil, fmt.Errorf("failed to look up coach: %w", err)
		}
		if coach == nil {
			return nil, ErrUnknownReference
		}
		if !coach.IsStaff() {
			return nil, validation.ValidationError{Field: "coach_id", Message: "coach must be a staff account"}
		}
	}

	return s.workoutRepo.CreateSession(ctx, title, strings.TrimSpace(description), coachID)
}

// GetSession returns a workout session by ID
func (s *WorkoutService) GetSession(ctx context.Context, id int64) (*models.WorkoutSession, error) {
	session, err := s.workoutRepo.GetSession(ctx, id)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, ErrWorkoutNotFound
	}
	return session, nil
}

// ListSessions returns all workout sessions
func (s *WorkoutService) ListSessions(ctx context.Context) ([]models.WorkoutSession, error) {
	return s.workoutRepo.ListSessions(ctx)
}
