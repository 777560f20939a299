package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"gymdesk/internal/credentials"
	"gymdesk/internal/database"
	"gymdesk/internal/models"
	"gymdesk/internal/repository"
	"gymdesk/internal/validation"
)

var (
	ErrMemberNotFound = errors.New("member not found")
	ErrTaxNumberTaken = repository.ErrTaxNumberTaken
)

const maxPhotoRefLength = 1024

// RegisterMemberInput holds the front-desk registration form
type RegisterMemberInput struct {
	Username       string
	Password       string // generated when empty
	Email          string
	TaxNumber      string
	RegularPayment bool
}

// RegisteredMember is the result of a registration. InitialSecret is set only when the secret
// was generated, and CredentialToken carries the first code to show on the member's device.
type RegisteredMember struct {
	Member          *models.Member `json:"member"`
	User            *models.User   `json:"user"`
	InitialSecret   string         `json:"initial_secret,omitempty"`
	CredentialToken string         `json:"credential_token"`
}

// MemberService handles member registration and account updates
type MemberService struct {
	db         *database.DB
	userRepo   *repository.UserRepository
	memberRepo *repository.MemberRepository
	codec      credentials.Codec
	logger     *slog.Logger
}

// NewMemberService creates a new member service
func NewMemberService(db *database.DB, userRepo *repository.UserRepository, memberRepo *repository.MemberRepository, codec credentials.Codec, logger *slog.Logger) *MemberService {
	return &MemberService{
		db:         db,
		userRepo:   userRepo,
		memberRepo: memberRepo,
		codec:      codec,
		logger:     logger,
	}
}

// RegisterMember creates the user account and member profile in one transaction
func (s *MemberService) RegisterMember(ctx context.Context, in RegisterMemberInput) (*RegisteredMember, error) {
	taxNumber, err := validation.ValidateTaxNumber(in.TaxNumber)
	if err != nil {
		return nil, err
	}

	password, generated := in.Password, false
	if password == "" {
		password, err = credentials.GenerateSecret()
		if err != nil {
			return nil, fmt.Errorf("failed to generate secret: %w", err)
		}
		generated = true
	}

	result := &RegisteredMember{}
	err = s.db.WithTx(ctx, func(tx *database.Tx) error {
		user, err := createAccount(ctx, s.userRepo.WithTx(tx), in.Username, password, models.RoleMember, in.Email)
		if err != nil {
			return err
		}
		member, err := s.memberRepo.WithTx(tx).CreateMember(ctx, user.ID, taxNumber, in.RegularPayment)
		if err != nil {
			return err
		}
		result.User, result.Member = user, member
		return nil
	})
	if err != nil {
		return nil, err
	}

	token, err := s.codec.Encode(result.User.Username, password)
	if err != nil {
		return nil, fmt.Errorf("failed to encode credential token: %w", err)
	}
	result.CredentialToken = token
	if generated {
		result.InitialSecret = password
	}

	s.logger.Info("member registered", "member_id", result.Member.ID, "user_id", result.User.ID)
	return result, nil
}

// GetMember returns a member by ID
func (s *MemberService) GetMember(ctx context.Context, id int64) (*models.Member, error) {
	member, err := s.memberRepo.GetMemberByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if member == nil {
		return nil, ErrMemberNotFound
	}
	return member, nil
}

// GetMemberByUser returns the member profile owned by userID
func (s *MemberService) GetMemberByUser(ctx context.Context, userID int64) (*models.Member, error) {
	member, err := s.memberRepo.GetMemberByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if member == nil {
		return nil, ErrMemberNotFound
	}
	return member, nil
}

// ListMembers returns all members with their accounts
func (s *MemberService) ListMembers(ctx context.Context) ([]models.MemberWithUser, error) {
	return s.memberRepo.ListMembers(ctx)
}

// RecordPayment credits a cash payment and returns the new balance
func (s *MemberService) RecordPayment(ctx context.Context, memberID, amountCents int64) (int64, error) {
	if amountCents <= 0 {
		return 0, validation.ValidationError{Field: "amount_cents", Message: "amount must be positive"}
	}
	balance, err := s.memberRepo.AddPayment(ctx, memberID, amountCents)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, ErrMemberNotFound
	}
	if err != nil {
		return 0, err
	}
	s.logger.Info("payment recorded", "member_id", memberID, "amount_cents", amountCents, "balance_cents", balance)
	return balance, nil
}

// SetRegularPayment updates whether the member pays by standing order
func (s *MemberService) SetRegularPayment(ctx context.Context, memberID int64, regular bool) error {
	err := s.memberRepo.SetRegularPayment(ctx, memberID, regular)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrMemberNotFound
	}
	return err
}

// SetPhoto replaces the member's photo reference; nil or blank clears it
func (s *MemberService) SetPhoto(ctx context.Context, memberID int64, photoRef *string) error {
	ref := trimmed(photoRef)
	if ref != nil && len(*ref) > maxPhotoRefLength {
		return validation.ValidationError{Field: "photo_ref", Message: fmt.Sprintf("photo_ref must be at most %d characters", maxPhotoRefLength)}
	}
	err := s.memberRepo.SetPhoto(ctx, memberID, ref)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrMemberNotFound
	}
	return err
}
