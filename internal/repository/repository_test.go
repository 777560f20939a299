package repository

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gymdesk/internal/database"
	"gymdesk/internal/models"
)

func openTestDB(t *testing.T) *database.DB {
	t.Helper()
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}
	db, err := database.Initialize(context.Background(), filepath.Join(t.TempDir(), "repo_test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func createUser(t *testing.T, repo *UserRepository, username string) *models.User {
	t.Helper()
	user, err := repo.CreateUser(context.Background(), username, "hash", models.RoleMember, "")
	require.NoError(t, err)
	return user
}

func date(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := models.ParseDate(s)
	require.NoError(t, err)
	return d
}

func TestUserRepository(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	repo := NewUserRepository(db)

	count, err := repo.CountUsers(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)

	user, err := repo.CreateUser(ctx, "alice", "hash", models.RoleStaff, "alice@example.com")
	require.NoError(t, err)
	assert.NotZero(t, user.ID)

	_, err = repo.CreateUser(ctx, "alice", "other", models.RoleMember, "")
	assert.ErrorIs(t, err, ErrUsernameTaken)

	byName, err := repo.GetUserByUsername(ctx, "alice")
	require.NoError(t, err)
	require.NotNil(t, byName)
	assert.Equal(t, user.ID, byName.ID)
	assert.Equal(t, "alice@example.com", byName.Email)
	assert.True(t, byName.IsStaff())

	missing, err := repo.GetUserByID(ctx, 9999)
	require.NoError(t, err)
	assert.Nil(t, missing)

	bob := createUser(t, repo, "bob")
	byID, err := repo.GetUserByID(ctx, bob.ID)
	require.NoError(t, err)
	require.NotNil(t, byID)
	assert.Empty(t, byID.Email)

	count, err = repo.CountUsers(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestSessionLifecycle(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	repo := NewUserRepository(db)
	user := createUser(t, repo, "carol")

	now := time.Now().UTC()
	_, err := repo.CreateSession(ctx, "live", user.ID, now.Add(time.Hour))
	require.NoError(t, err)
	_, err = repo.CreateSession(ctx, "stale", user.ID, now.Add(-time.Hour))
	require.NoError(t, err)

	session, err := repo.GetSession(ctx, "live")
	require.NoError(t, err)
	require.NotNil(t, session)
	assert.Equal(t, user.ID, session.UserID)
	assert.False(t, session.IsExpired())

	removed, err := repo.DeleteExpiredSessions(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, int64(1), removed)

	stale, err := repo.GetSession(ctx, "stale")
	require.NoError(t, err)
	assert.Nil(t, stale)

	require.NoError(t, repo.DeleteSession(ctx, "live"))
	gone, err := repo.GetSession(ctx, "live")
	require.NoError(t, err)
	assert.Nil(t, gone)
}

func TestMemberRepository(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	users := NewUserRepository(db)
	members := NewMemberRepository(db)

	dave := createUser(t, users, "dave")
	erin := createUser(t, users, "erin")

	member, err := members.CreateMember(ctx, dave.ID, "123456789", true)
	require.NoError(t, err)
	assert.True(t, member.RegularPayment)

	_, err = members.CreateMember(ctx, erin.ID, "123456789", false)
	assert.ErrorIs(t, err, ErrTaxNumberTaken)

	_, err = members.CreateMember(ctx, 9999, "555555555", false)
	assert.ErrorIs(t, err, ErrUnknownReference)

	balance, err := members.AddPayment(ctx, member.ID, 2500)
	require.NoError(t, err)
	assert.Equal(t, int64(2500), balance)
	balance, err = members.AddPayment(ctx, member.ID, 1000)
	require.NoError(t, err)
	assert.Equal(t, int64(3500), balance)

	_, err = members.AddPayment(ctx, 9999, 100)
	assert.ErrorIs(t, err, sql.ErrNoRows)

	require.NoError(t, members.SetRegularPayment(ctx, member.ID, false))
	photo := "photos/dave.jpg"
	require.NoError(t, members.SetPhoto(ctx, member.ID, &photo))

	got, err := members.GetMemberByUserID(ctx, dave.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.False(t, got.RegularPayment)
	require.NotNil(t, got.PhotoRef)
	assert.Equal(t, photo, *got.PhotoRef)
	assert.Equal(t, int64(3500), got.BalanceCents)

	require.NoError(t, members.SetPhoto(ctx, member.ID, nil))
	got, err = members.GetMemberByID(ctx, member.ID)
	require.NoError(t, err)
	assert.Nil(t, got.PhotoRef)

	list, err := members.ListMembers(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "dave", list[0].User.Username)
}

func TestMemberPaymentsAreAtomic(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	users := NewUserRepository(db)
	members := NewMemberRepository(db)
	member, err := members.CreateMember(ctx, createUser(t, users, "frank").ID, "987654321", false)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := members.AddPayment(ctx, member.ID, 100)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	got, err := members.GetMemberByID(ctx, member.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1000), got.BalanceCents)
}

func TestWorkoutRepository(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	coach := createUser(t, NewUserRepository(db), "coach")
	repo := NewWorkoutRepository(db)

	first, err := repo.CreateSession(ctx, "Morning HIIT", "", &coach.ID)
	require.NoError(t, err)
	_, err = repo.CreateSession(ctx, "Open gym", "No coach", nil)
	require.NoError(t, err)

	unknown := int64(9999)
	_, err = repo.CreateSession(ctx, "Ghost class", "", &unknown)
	assert.ErrorIs(t, err, ErrUnknownReference)

	got, err := repo.GetSession(ctx, first.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	require.NotNil(t, got.CoachID)
	assert.Equal(t, coach.ID, *got.CoachID)

	missing, err := repo.GetSession(ctx, 9999)
	require.NoError(t, err)
	assert.Nil(t, missing)

	list, err := repo.ListSessions(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 2)
}

func TestCompletionRepositoryUniqueness(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	client := createUser(t, NewUserRepository(db), "client")
	session, err := NewWorkoutRepository(db).CreateSession(ctx, "Spin", "", nil)
	require.NoError(t, err)
	repo := NewCompletionRepository(db)

	c := &models.WorkoutCompletion{SessionID: session.ID, ClientID: client.ID, Date: date(t, "2024-01-01"), Completed: true}
	created, err := repo.CreateCompletion(ctx, c)
	require.NoError(t, err)
	assert.NotZero(t, created.ID)

	// A different time of day is still the same calendar date
	again := *c
	again.Date = again.Date.Add(15 * time.Hour)
	again.Completed = false
	_, err = repo.CreateCompletion(ctx, &again)
	assert.ErrorIs(t, err, ErrDuplicateCompletion)

	nextDay := *c
	nextDay.Date = date(t, "2024-01-02")
	_, err = repo.CreateCompletion(ctx, &nextDay)
	assert.NoError(t, err)

	orphan := *c
	orphan.SessionID = 9999
	_, err = repo.CreateCompletion(ctx, &orphan)
	assert.ErrorIs(t, err, ErrUnknownReference)

	list, err := repo.ListByClient(ctx, client.ID, models.DateRange{})
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.True(t, list[0].Completed, "the first write wins")
}

func TestCompletionRepositoryConcurrentWriters(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	client := createUser(t, NewUserRepository(db), "racer")
	session, err := NewWorkoutRepository(db).CreateSession(ctx, "Sprint", "", nil)
	require.NoError(t, err)
	repo := NewCompletionRepository(db)

	const writers = 8
	day := date(t, "2024-01-01")
	var wg sync.WaitGroup
	errs := make([]error, writers)
	start := make(chan struct{})
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			_, errs[i] = repo.CreateCompletion(ctx, &models.WorkoutCompletion{
				SessionID: session.ID, ClientID: client.ID, Date: day, Completed: true,
			})
		}(i)
	}
	close(start)
	wg.Wait()

	var ok, dup int
	for _, err := range errs {
		switch {
		case err == nil:
			ok++
		case assert.ErrorIs(t, err, ErrDuplicateCompletion):
			dup++
		}
	}
	assert.Equal(t, 1, ok)
	assert.Equal(t, writers-1, dup)

	var count int
	require.NoError(t, db.QueryRowContext(ctx, "SELECT COUNT(*) FROM workout_completions").Scan(&count))
	assert.Equal(t, 1, count)
}

func TestCompletionRepositoryOrderingAndRange(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	users := NewUserRepository(db)
	client := createUser(t, users, "ordered")
	other := createUser(t, users, "other")
	session, err := NewWorkoutRepository(db).CreateSession(ctx, "Yoga", "", nil)
	require.NoError(t, err)
	repo := NewCompletionRepository(db)

	for _, d := range []string{"2024-03-01", "2024-01-15", "2024-02-10", "2023-12-31"} {
		_, err := repo.CreateCompletion(ctx, &models.WorkoutCompletion{SessionID: session.ID, ClientID: client.ID, Date: date(t, d), Completed: true})
		require.NoError(t, err)
	}
	_, err = repo.CreateCompletion(ctx, &models.WorkoutCompletion{SessionID: session.ID, ClientID: other.ID, Date: date(t, "2024-01-20"), Completed: true})
	require.NoError(t, err)

	tests := []struct {
		name string
		dr   models.DateRange
		want []string
	}{
		{name: "open range", dr: models.DateRange{}, want: []string{"2023-12-31", "2024-01-15", "2024-02-10", "2024-03-01"}},
		{name: "inclusive bounds", dr: models.DateRange{From: date(t, "2024-01-15"), To: date(t, "2024-02-10")}, want: []string{"2024-01-15", "2024-02-10"}},
		{name: "from only", dr: models.DateRange{From: date(t, "2024-02-01")}, want: []string{"2024-02-10", "2024-03-01"}},
		{name: "to only", dr: models.DateRange{To: date(t, "2023-12-31")}, want: []string{"2023-12-31"}},
		{name: "empty", dr: models.DateRange{From: date(t, "2025-01-01")}, want: []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			list, err := repo.ListByClient(ctx, client.ID, tt.dr)
			require.NoError(t, err)
			got := make([]string, 0, len(list))
			for _, c := range list {
				assert.Equal(t, client.ID, c.ClientID)
				got = append(got, c.DateKey())
			}
			assert.Equal(t, tt.want, got)
		})
	}

	all, err := repo.ListAll(ctx, models.DateRange{})
	require.NoError(t, err)
	assert.Len(t, all, 5)
}

func TestCompletionRepositoryTxRollback(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	client := createUser(t, NewUserRepository(db), "txclient")
	session, err := NewWorkoutRepository(db).CreateSession(ctx, "Row", "", nil)
	require.NoError(t, err)
	repo := NewCompletionRepository(db)

	err = db.WithTx(ctx, func(tx *database.Tx) error {
		_, err := repo.WithTx(tx).CreateCompletion(ctx, &models.WorkoutCompletion{
			SessionID: session.ID, ClientID: client.ID, Date: date(t, "2024-01-01"), Completed: true,
		})
		require.NoError(t, err)
		return fmt.Errorf("abort")
	})
	require.Error(t, err)

	list, err := repo.ListByClient(ctx, client.ID, models.DateRange{})
	require.NoError(t, err)
	assert.Empty(t, list, "uncommitted writes are never observable")
}

func TestCompletionRepositoryCancelledContext(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	client := createUser(t, NewUserRepository(db), "cancelled")
	session, err := NewWorkoutRepository(db).CreateSession(ctx, "Swim", "", nil)
	require.NoError(t, err)
	repo := NewCompletionRepository(db)

	cancelled, cancel := context.WithCancel(ctx)
	cancel()

	_, err = repo.CreateCompletion(cancelled, &models.WorkoutCompletion{
		SessionID: session.ID, ClientID: client.ID, Date: date(t, "2024-01-01"), Completed: true,
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.NotErrorIs(t, err, ErrDuplicateCompletion)

	list, err := repo.ListByClient(ctx, client.ID, models.DateRange{})
	require.NoError(t, err)
	assert.Empty(t, list)

	// The triple is still free
	_, err = repo.CreateCompletion(ctx, &models.WorkoutCompletion{
		SessionID: session.ID, ClientID: client.ID, Date: date(t, "2024-01-01"), Completed: true,
	})
	assert.NoError(t, err)
}

func TestCreateCompletionReturnsStoredRow(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	client := createUser(t, NewUserRepository(db), "stored")
	session, err := NewWorkoutRepository(db).CreateSession(ctx, "Yoga", "", nil)
	require.NoError(t, err)
	repo := NewCompletionRepository(db)

	notes := "felt strong"
	created, err := repo.CreateCompletion(ctx, &models.WorkoutCompletion{
		SessionID: session.ID, ClientID: client.ID, Date: date(t, "2024-03-05").Add(18 * time.Hour), Completed: true, Notes: &notes,
	})
	require.NoError(t, err)

	list, err := repo.ListByClient(ctx, client.ID, models.DateRange{})
	require.NoError(t, err)
	require.Len(t, list, 1)

	stored := list[0]
	assert.Equal(t, stored.ID, created.ID)
	assert.Equal(t, "2024-03-05", created.DateKey())
	assert.True(t, stored.CreatedAt.Equal(created.CreatedAt), "returned %v, stored %v", created.CreatedAt, stored.CreatedAt)
	require.NotNil(t, created.Notes)
	assert.Equal(t, notes, *created.Notes)

	missing, err := repo.GetCompletion(ctx, created.ID+100)
	require.NoError(t, err)
	assert.Nil(t, missing)
}
