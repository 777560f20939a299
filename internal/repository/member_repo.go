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

// MemberRepository handles database operations for member profiles
type MemberRepository struct {
	db database.DBTX
}

// NewMemberRepository creates a new member repository
func NewMemberRepository(db database.DBTX) *MemberRepository {
	return &MemberRepository{db: db}
}

// WithTx returns a copy of the repository bound to tx
func (r *MemberRepository) WithTx(tx *database.Tx) *MemberRepository {
	return &MemberRepository{db: tx}
}

const memberColumns = `id, user_id, tax_number, balance_cents, regular_payment, photo_ref, created_at`

// CreateMember inserts a member profile for userID. The tax number is unique; a clash yields ErrTaxNumberTaken.
func (r *MemberRepository) CreateMember(ctx context.Context, userID int64, taxNumber string, regularPayment bool) (*models.Member, error) {
	query := `
		INSERT INTO members (user_id, tax_number, regular_payment)
		VALUES (?, ?, ?)
	`
	id, err := r.db.ExecReturningID(ctx, query, userID, taxNumber, regularPayment)
	if err != nil {
		switch classified := database.Classify(r.db.GetDialect(), err); {
		case errors.Is(classified, database.ErrUniqueViolation):
			// user_id is unique too, but members are only created alongside a fresh user
			return nil, ErrTaxNumberTaken
		case errors.Is(classified, database.ErrForeignKeyViolation):
			return nil, ErrUnknownReference
		}
		return nil, fmt.Errorf("failed to create member: %w", err)
	}

	return &models.Member{
		ID:             id,
		UserID:         userID,
		TaxNumber:      taxNumber,
		RegularPayment: regularPayment,
		CreatedAt:      time.Now().UTC(),
	}, nil
}

// GetMemberByID retrieves a member by ID
func (r *MemberRepository) GetMemberByID(ctx context.Context, id int64) (*models.Member, error) {
	query := `SELECT ` + memberColumns + ` FROM members WHERE id = ?`
	return scanMember(r.db.QueryRowContext(ctx, query, id))
}

// GetMemberByUserID retrieves the member profile owned by userID
func (r *MemberRepository) GetMemberByUserID(ctx context.Context, userID int64) (*models.Member, error) {
	query := `SELECT ` + memberColumns + ` FROM members WHERE user_id = ?`
	return scanMember(r.db.QueryRowContext(ctx, query, userID))
}

// ListMembers returns every member with their account, oldest first
func (r *MemberRepository) ListMembers(ctx context.Context) ([]models.MemberWithUser, error) {
	query := `
		SELECT m.id, m.user_id, m.tax_number, m.balance_cents, m.regular_payment, m.photo_ref, m.created_at,
		       u.id, u.username, u.role, COALESCE(u.email, ''), u.created_at
		FROM members m
		JOIN users u ON u.id = m.user_id
		ORDER BY m.id ASC
	`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query members: %w", err)
	}
	defer rows.Close()

	var members []models.MemberWithUser
	for rows.Next() {
		var mu models.MemberWithUser
		var photo sql.NullString
		if err := rows.Scan(
			&mu.Member.ID,
			&mu.Member.UserID,
			&mu.Member.TaxNumber,
			&mu.Member.BalanceCents,
			&mu.Member.RegularPayment,
			&photo,
			&mu.Member.CreatedAt,
			&mu.User.ID,
			&mu.User.Username,
			&mu.User.Role,
			&mu.User.Email,
			&mu.User.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan member: %w", err)
		}
		mu.Member.PhotoRef = stringPtr(photo)
		members = append(members, mu)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate members: %w", err)
	}

	return members, nil
}

// AddPayment credits amountCents to the member balance in a single statement and returns the new balance
func (r *MemberRepository) AddPayment(ctx context.Context, memberID, amountCents int64) (int64, error) {
	query := "UPDATE members SET balance_cents = balance_cents + ? WHERE id = ?"
	if err := r.execOne(ctx, "record payment", query, amountCents, memberID); err != nil {
		return 0, err
	}

	var balance int64
	err := r.db.QueryRowContext(ctx, "SELECT balance_cents FROM members WHERE id = ?", memberID).Scan(&balance)
	if err != nil {
		return 0, fmt.Errorf("failed to read balance: %w", err)
	}
	return balance, nil
}

// SetRegularPayment updates the regular-payment flag
func (r *MemberRepository) SetRegularPayment(ctx context.Context, memberID int64, regular bool) error {
	query := "UPDATE members SET regular_payment = ? WHERE id = ?"
	return r.execOne(ctx, "set regular payment", query, regular, memberID)
}

// SetPhoto replaces the photo reference; nil clears it
func (r *MemberRepository) SetPhoto(ctx context.Context, memberID int64, photoRef *string) error {
	query := "UPDATE members SET photo_ref = ? WHERE id = ?"
	return r.execOne(ctx, "set photo", query, nullStringPtr(photoRef), memberID)
}

// execOne runs an UPDATE that must touch exactly one member; a missing member yields sql.ErrNoRows
func (r *MemberRepository) execOne(ctx context.Context, action, query string, args ...interface{}) error {
	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to %s: %w", action, err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to %s: %w", action, err)
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func scanMember(row *sql.Row) (*models.Member, error) {
	member := &models.Member{}
	var photo sql.NullString
	err := row.Scan(
		&member.ID,
		&member.UserID,
		&member.TaxNumber,
		&member.BalanceCents,
		&member.RegularPayment,
		&photo,
		&member.CreatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get member: %w", err)
	}

	member.PhotoRef = stringPtr(photo)
	return member, nil
}
