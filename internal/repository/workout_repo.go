package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"gymdesk/internal/database"
	"gymdesk/internal/models"
)

// WorkoutRepository handles database operations for scheduled workout sessions
type WorkoutRepository struct {
	db database.DBTX
}

// NewWorkoutRepository creates a new workout repository
func NewWorkoutRepository(db database.DBTX) *WorkoutRepository {
	return &WorkoutRepository{db: db}
}

// CreateSession inserts a workout session. An unknown coach yields ErrUnknownReference.
func (r *WorkoutRepository) CreateSession(ctx context.Context, title, description string, coachID *int64) (*models.WorkoutSession, error) {
	query := `
		INSERT INTO workout_sessions (title, description, coach_id)
		VALUES (?, ?, ?)
	`
	var coach interface{}
	if coachID != nil {
		coach = *coachID
	}

	id, err := r.db.ExecReturningID(ctx, query, title, description, coach)
	if err != nil {
		if errors.Is(database.Classify(r.db.GetDialect(), err), database.ErrForeignKeyViolation) {
			return nil, ErrUnknownReference
		}
		return nil, fmt.Errorf("failed to create workout session: %w", err)
	}

	return &models.WorkoutSession{
		ID:          id,
		Title:       title,
		Description: description,
		CoachID:     coachID,
		CreatedAt:   time.Now().UTC(),
	}, nil
}

// GetSession retrieves a workout session by ID
func (r *WorkoutRepository) GetSession(ctx context.Context, id int64) (*models.WorkoutSession, error) {
	query := `
		SELECT id, title, description, coach_id, created_at
		FROM workout_sessions
		WHERE id = ?
	`
	session := &models.WorkoutSession{}
	var coach sql.NullInt64
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&session.ID,
		&session.Title,
		&session.Description,
		&coach,
		&session.CreatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get workout session: %w", err)
	}

	if coach.Valid {
		session.CoachID = &coach.Int64
	}
	return session, nil
}

// ListSessions returns all workout sessions, newest first
func (r *WorkoutRepository) ListSessions(ctx context.Context) ([]models.WorkoutSession, error) {
	query := `
		SELECT id, title, description, coach_id, created_at
		FROM workout_sessions
		ORDER BY created_at DESC, id DESC
	`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query workout sessions: %w", err)
	}
	defer rows.Close()

	sessions := []models.WorkoutSession{}
	for rows.Next() {
		var s models.WorkoutSession
		var coach sql.NullInt64
		if err := rows.Scan(&s.ID, &s.Title, &s.Description, &coach, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan workout session: %w", err)
		}
		if coach.Valid {
			id := coach.Int64
			s.CoachID = &id
		}
		sessions = append(sessions, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate workout sessions: %w", err)
	}

	return sessions, nil
}
