package service

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"gymdesk/internal/credentials"
	"gymdesk/internal/database"
	"gymdesk/internal/logging"
	"gymdesk/internal/models"
	"gymdesk/internal/repository"
)

type testEnv struct {
	db          *database.DB
	users       *repository.UserRepository
	members     *repository.MemberRepository
	workouts    *repository.WorkoutRepository
	completions *repository.CompletionRepository
	auth        *AuthService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	db, err := database.Initialize(context.Background(), filepath.Join(t.TempDir(), "service_test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	users := repository.NewUserRepository(db)
	return &testEnv{
		db:          db,
		users:       users,
		members:     repository.NewMemberRepository(db),
		workouts:    repository.NewWorkoutRepository(db),
		completions: repository.NewCompletionRepository(db),
		auth:        NewAuthService(users, time.Hour, logging.Discard()),
	}
}

func (e *testEnv) memberService() *MemberService {
	return NewMemberService(e.db, e.users, e.members, credentials.NewPlainCodec(), logging.Discard())
}

func (e *testEnv) ledger(email *EmailService, opts LedgerOptions) *LedgerService {
	return NewLedgerService(e.completions, e.workouts, e.users, email, opts, logging.Discard())
}

func (e *testEnv) register(t *testing.T, username, role, email string) *models.User {
	t.Helper()
	user, err := e.auth.Register(context.Background(), username, "password123", role, email)
	require.NoError(t, err)
	return user
}

func (e *testEnv) workout(t *testing.T, title string, coachID *int64) *models.WorkoutSession {
	t.Helper()
	session, err := e.workouts.CreateSession(context.Background(), title, "", coachID)
	require.NoError(t, err)
	return session
}

func mustDate(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := models.ParseDate(s)
	require.NoError(t, err)
	return d
}

func strPtr(s string) *string {
	return &s
}
