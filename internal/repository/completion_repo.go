package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"gymdesk/internal/database"
	"gymdesk/internal/models"
)

// CompletionRepository stores workout completions. The (session_id, client_id, completion_date)
// unique constraint is the only guard against duplicates; no row is read before writing.
type CompletionRepository struct {
	db database.DBTX
}

// NewCompletionRepository creates a new completion repository
func NewCompletionRepository(db database.DBTX) *CompletionRepository {
	return &CompletionRepository{db: db}
}

// WithTx returns a copy of the repository bound to tx
func (r *CompletionRepository) WithTx(tx *database.Tx) *CompletionRepository {
	return &CompletionRepository{db: tx}
}

// CreateCompletion inserts c in a single statement. A second row for the same triple yields
// ErrDuplicateCompletion; a missing session or client yields ErrUnknownReference.
func (r *CompletionRepository) CreateCompletion(ctx context.Context, c *models.WorkoutCompletion) (*models.WorkoutCompletion, error) {
	query := `
		INSERT INTO workout_completions (session_id, client_id, completion_date, completed, reason, proof_ref, notes)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`
	id, err := r.db.ExecReturningID(ctx, query,
		c.SessionID,
		c.ClientID,
		c.DateKey(),
		c.Completed,
		nullStringPtr(c.Reason),
		nullStringPtr(c.ProofRef),
		nullStringPtr(c.Notes),
	)
	if err != nil {
		switch classified := database.Classify(r.db.GetDialect(), err); {
		case errors.Is(classified, database.ErrUniqueViolation):
			return nil, fmt.Errorf("%w: session %d, client %d, %s", ErrDuplicateCompletion, c.SessionID, c.ClientID, c.DateKey())
		case errors.Is(classified, database.ErrForeignKeyViolation):
			return nil, ErrUnknownReference
		}
		return nil, fmt.Errorf("failed to record completion: %w", err)
	}

	// Return the stored row so created_at matches what listings report
	created, err := r.GetCompletion(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to read back completion %d: %w", id, err)
	}
	if created == nil {
		return nil, fmt.Errorf("failed to read back completion %d: %w", id, sql.ErrNoRows)
	}
	return created, nil
}

// GetCompletion retrieves a completion by ID
func (r *CompletionRepository) GetCompletion(ctx context.Context, id int64) (*models.WorkoutCompletion, error) {
	query := `
		SELECT id, session_id, client_id, completion_date, completed, reason, proof_ref, notes, created_at
		FROM workout_completions
		WHERE id = ?
	`
	c, err := scanCompletion(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return c, nil
}

// ListByClient returns the client's completions within r, ordered by date then id
func (r *CompletionRepository) ListByClient(ctx context.Context, clientID int64, dr models.DateRange) ([]models.WorkoutCompletion, error) {
	query := `
		SELECT id, session_id, client_id, completion_date, completed, reason, proof_ref, notes, created_at
		FROM workout_completions
		WHERE client_id = ?
	`
	args := []interface{}{clientID}
	if !dr.From.IsZero() {
		query += " AND completion_date >= ?"
		args = append(args, models.FormatDate(dr.From))
	}
	if !dr.To.IsZero() {
		query += " AND completion_date <= ?"
		args = append(args, models.FormatDate(dr.To))
	}
	query += " ORDER BY completion_date ASC, id ASC"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query completions: %w", err)
	}
	defer rows.Close()

	completions := []models.WorkoutCompletion{}
	for rows.Next() {
		c, err := scanCompletion(rows)
		if err != nil {
			return nil, err
		}
		completions = append(completions, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate completions: %w", err)
	}

	return completions, nil
}

// ListAll returns every completion in the range across all clients, ordered by client, date, id
func (r *CompletionRepository) ListAll(ctx context.Context, dr models.DateRange) ([]models.WorkoutCompletion, error) {
	query := `
		SELECT id, session_id, client_id, completion_date, completed, reason, proof_ref, notes, created_at
		FROM workout_completions
		WHERE 1 = 1
	`
	var args []interface{}
	if !dr.From.IsZero() {
		query += " AND completion_date >= ?"
		args = append(args, models.FormatDate(dr.From))
	}
	if !dr.To.IsZero() {
		query += " AND completion_date <= ?"
		args = append(args, models.FormatDate(dr.To))
	}
	query += " ORDER BY client_id ASC, completion_date ASC, id ASC"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query completions: %w", err)
	}
	defer rows.Close()

	completions := []models.WorkoutCompletion{}
	for rows.Next() {
		c, err := scanCompletion(rows)
		if err != nil {
			return nil, err
		}
		completions = append(completions, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate completions: %w", err)
	}

	return completions, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanCompletion(rows rowScanner) (*models.WorkoutCompletion, error) {
	c := &models.WorkoutCompletion{}
	var date string
	var reason, proof, notes sql.NullString
	if err := rows.Scan(
		&c.ID,
		&c.SessionID,
		&c.ClientID,
		&date,
		&c.Completed,
		&reason,
		&proof,
		&notes,
		&c.CreatedAt,
	); err != nil {
		return nil, fmt.Errorf("failed to scan completion: %w", err)
	}

	parsed, err := models.ParseDate(date)
	if err != nil {
		return nil, fmt.Errorf("failed to scan completion %d: %w", c.ID, err)
	}
	c.Date = parsed
	c.Reason = stringPtr(reason)
	c.ProofRef = stringPtr(proof)
	c.Notes = stringPtr(notes)
	return c, nil
}
