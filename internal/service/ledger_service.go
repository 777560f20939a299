package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"gymdesk/internal/models"
	"gymdesk/internal/observability"
	"gymdesk/internal/repository"
	"gymdesk/internal/validation"
)

var (
	ErrDuplicateCompletion = repository.ErrDuplicateCompletion
	ErrUnknownReference    = repository.ErrUnknownReference
	ErrReasonRequired      = errors.New("a reason is required when a workout was not completed")
)

// RecordCompletionInput is one reported outcome of a scheduled workout
type RecordCompletionInput struct {
	SessionID int64
	ClientID  int64
	Date      time.Time
	Completed bool
	Reason    *string
	ProofRef  *string
	Notes     *string
}

// LedgerOptions tunes the completion ledger
type LedgerOptions struct {
	// RequireReason rejects completed=false records without a reason instead of only logging them
	RequireReason bool
	// AlertEmail receives missed-workout alerts when the session's coach has no email address
	AlertEmail string
}

// LedgerService records workout outcomes, at most one per (session, client, date)
type LedgerService struct {
	completions *repository.CompletionRepository
	workouts    *repository.WorkoutRepository
	users       *repository.UserRepository
	email       *EmailService
	opts        LedgerOptions
	logger      *slog.Logger
}

// NewLedgerService creates a new ledger service. email may be nil.
func NewLedgerService(
	completions *repository.CompletionRepository,
	workouts *repository.WorkoutRepository,
	users *repository.UserRepository,
	email *EmailService,
	opts LedgerOptions,
	logger *slog.Logger,
) *LedgerService {
	return &LedgerService{
		completions: completions,
		workouts:    workouts,
		users:       users,
		email:       email,
		opts:        opts,
		logger:      logger,
	}
}

// RecordCompletion stores one outcome. A second record for the same session, client and calendar
// date fails with ErrDuplicateCompletion, including when both writers race; the caller decides
// whether that means "already done" or a conflict.
func (s *LedgerService) RecordCompletion(ctx context.Context, in RecordCompletionInput) (*models.WorkoutCompletion, error) {
	if in.SessionID <= 0 {
		return nil, validation.ValidationError{Field: "session_id", Message: "session_id must be positive"}
	}
	if in.ClientID <= 0 {
		return nil, validation.ValidationError{Field: "client_id", Message: "client_id must be positive"}
	}
	if in.Date.IsZero() {
		return nil, validation.ValidationError{Field: "date", Message: "date is required"}
	}

	reason := trimmed(in.Reason)
	if !in.Completed && reason == nil {
		if s.opts.RequireReason {
			return nil, ErrReasonRequired
		}
		s.logger.Warn("missed workout recorded without a reason",
			"session_id", in.SessionID, "client_id", in.ClientID, "date", models.FormatDate(in.Date))
	}

	completion, err := s.completions.CreateCompletion(ctx, &models.WorkoutCompletion{
		SessionID: in.SessionID,
		ClientID:  in.ClientID,
		Date:      models.TruncateDate(in.Date),
		Completed: in.Completed,
		Reason:    reason,
		ProofRef:  trimmed(in.ProofRef),
		Notes:     trimmed(in.Notes),
	})
	if err != nil {
		if errors.Is(err, repository.ErrDuplicateCompletion) {
			observability.RecordCompletionConflict()
		}
		return nil, err
	}

	observability.RecordCompletion(completion.Completed, completion.CreatedAt)
	s.logger.Info("workout completion recorded",
		"completion_id", completion.ID,
		"session_id", completion.SessionID,
		"client_id", completion.ClientID,
		"date", completion.DateKey(),
		"completed", completion.Completed,
	)

	if !completion.Completed {
		s.alertMissed(ctx, completion)
	}
	return completion, nil
}

// ListCompletions returns a client's completions within dr, oldest date first. Calling it again
// with the same arguments yields the same result unless new records were written.
func (s *LedgerService) ListCompletions(ctx context.Context, clientID int64, dr models.DateRange) ([]models.WorkoutCompletion, error) {
	if clientID <= 0 {
		return nil, validation.ValidationError{Field: "client_id", Message: "client_id must be positive"}
	}
	if err := dr.Validate(); err != nil {
		return nil, validation.ValidationError{Field: "to", Message: err.Error()}
	}

	completions, err := s.completions.ListByClient(ctx, clientID, dr)
	if err != nil {
		return nil, fmt.Errorf("failed to list completions: %w", err)
	}
	return completions, nil
}

// ExportCompletions returns all completions in dr grouped by client
func (s *LedgerService) ExportCompletions(ctx context.Context, dr models.DateRange) ([]models.WorkoutCompletion, error) {
	if err := dr.Validate(); err != nil {
		return nil, validation.ValidationError{Field: "to", Message: err.Error()}
	}
	completions, err := s.completions.ListAll(ctx, dr)
	if err != nil {
		return nil, fmt.Errorf("failed to export completions: %w", err)
	}
	return completions, nil
}

// alertMissed emails the coach about a missed workout. Failures are logged only; the record stands.
func (s *LedgerService) alertMissed(ctx context.Context, c *models.WorkoutCompletion) {
	if !s.email.IsEnabled() {
		return
	}

	session, err := s.workouts.GetSession(ctx, c.SessionID)
	if err != nil || session == nil {
		s.logger.Warn("missed-workout alert skipped: session lookup failed", "session_id", c.SessionID, "error", err)
		return
	}

	to := s.opts.AlertEmail
	if session.CoachID != nil {
		coach, err := s.users.GetUserByID(ctx, *session.CoachID)
		if err == nil && coach != nil && coach.Email != "" {
			to = coach.Email
		}
	}
	if to == "" {
		return
	}

	clientName := fmt.Sprintf("client #%d", c.ClientID)
	if client, err := s.users.GetUserByID(ctx, c.ClientID); err == nil && client != nil {
		clientName = client.Username
	}

	alert := MissedWorkout{
		ClientName:   clientName,
		SessionTitle: session.Title,
		Date:         c.DateKey(),
	}
	if c.Reason != nil {
		alert.Reason = *c.Reason
	}

	if err := s.email.SendMissedWorkoutAlert(ctx, to, alert); err != nil {
		s.logger.Error("failed to send missed-workout alert", "completion_id", c.ID, "error", err)
	}
}

// trimmed drops surrounding whitespace and turns blank strings into nil
func trimmed(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}
