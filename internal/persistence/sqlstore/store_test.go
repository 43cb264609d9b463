package sqlstore

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/salon-scheduler/internal/persistence"
)

var testNow = time.Date(2025, 3, 14, 9, 30, 0, 0, time.UTC)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	ctx := context.Background()
	store, err := Open(ctx, Config{Driver: DriverSQLite, DSN: ":memory:"})
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	store.now = func() time.Time { return testNow }

	applied, err := store.Migrate(ctx, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	require.Equal(t, 1, applied)
	return store
}

func seedUser(t *testing.T, store *Store, id string) persistence.User {
	t.Helper()
	u := persistence.User{ID: id, Username: id + "@salon", PasswordHash: "hash"}
	require.NoError(t, NewUserRepository(store).CreateUser(context.Background(), u))
	return u
}

func seedEmployee(t *testing.T, store *Store, id, userID string, order int) persistence.Employee {
	t.Helper()
	e := persistence.Employee{ID: id, UserID: userID, Name: "Employee " + id, Color: "hsl(220 90% 56%)", DisplayOrder: order}
	require.NoError(t, NewEmployeeRepository(store).CreateEmployee(context.Background(), e))
	return e
}

func TestOpenRejectsUnknownDriver(t *testing.T) {
	t.Parallel()

	_, err := Open(context.Background(), Config{Driver: "oracle", DSN: "x"})
	require.Error(t, err)

	_, err = Open(context.Background(), Config{Driver: DriverSQLite})
	require.Error(t, err)
}

func TestMigrateIsIdempotent(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	dsn := filepath.Join(t.TempDir(), "salon.db")
	store, err := Open(ctx, Config{DSN: dsn, BusyTimeout: time.Second})
	require.NoError(t, err)
	defer store.Close()

	n, err := store.Migrate(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	n, err = store.Migrate(ctx, nil)
	require.NoError(t, err)
	assert.Zero(t, n)

	status, err := store.MigrationStatus(ctx)
	require.NoError(t, err)
	assert.Equal(t, "001", status.CurrentVersion)
	assert.Empty(t, status.Pending)
	require.Len(t, status.Applied, 1)
	assert.NotEmpty(t, status.Applied[0].Checksum)
}

func TestUserRepository(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := newTestStore(t)
	repo := NewUserRepository(store)

	require.NoError(t, repo.CreateUser(ctx, persistence.User{ID: "u1", Username: " Admin ", PasswordHash: "h", IsAdmin: true}))

	got, err := repo.GetUserByUsername(ctx, "ADMIN")
	require.NoError(t, err)
	assert.Equal(t, "u1", got.ID)
	assert.Equal(t, "admin", got.Username)
	assert.True(t, got.IsAdmin)
	assert.Equal(t, testNow, got.CreatedAt)

	err = repo.CreateUser(ctx, persistence.User{ID: "u2", Username: "admin", PasswordHash: "h"})
	require.ErrorIs(t, err, persistence.ErrDuplicate)

	got.PasswordHash = "h2"
	require.NoError(t, repo.UpdateUser(ctx, got))
	reloaded, err := repo.GetUser(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "h2", reloaded.PasswordHash)

	_, err = repo.GetUser(ctx, "missing")
	require.ErrorIs(t, err, persistence.ErrNotFound)
	require.ErrorIs(t, repo.UpdateUser(ctx, persistence.User{ID: "missing", Username: "x", PasswordHash: "y"}), persistence.ErrNotFound)

	users, err := repo.ListUsers(ctx)
	require.NoError(t, err)
	assert.Len(t, users, 1)
}

func TestSessionRepository(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := newTestStore(t)
	seedUser(t, store, "u1")
	repo := NewSessionRepository(store)

	created, err := repo.CreateSession(ctx, persistence.Session{ID: "s1", UserID: "u1", Token: "tok", ExpiresAt: testNow.Add(time.Hour)})
	require.NoError(t, err)
	assert.Equal(t, testNow, created.CreatedAt)

	got, err := repo.GetSession(ctx, "tok")
	require.NoError(t, err)
	assert.Equal(t, testNow.Add(time.Hour), got.ExpiresAt)
	assert.Nil(t, got.RevokedAt)

	got.ExpiresAt = testNow.Add(2 * time.Hour)
	updated, err := repo.UpdateSession(ctx, got)
	require.NoError(t, err)
	assert.Equal(t, testNow.Add(2*time.Hour), updated.ExpiresAt)

	revoked, err := repo.RevokeSession(ctx, "tok", testNow)
	require.NoError(t, err)
	require.NotNil(t, revoked.RevokedAt)

	_, err = repo.RevokeSession(ctx, "nope", testNow)
	require.ErrorIs(t, err, persistence.ErrNotFound)

	_, err = repo.CreateSession(ctx, persistence.Session{ID: "s2", UserID: "u1", Token: "old", ExpiresAt: testNow.Add(-time.Minute)})
	require.NoError(t, err)
	n, err := repo.DeleteExpiredSessions(ctx, testNow)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
	_, err = repo.GetSession(ctx, "old")
	require.ErrorIs(t, err, persistence.ErrNotFound)

	_, err = repo.CreateSession(ctx, persistence.Session{ID: "s3", UserID: "ghost", Token: "t3", ExpiresAt: testNow})
	require.ErrorIs(t, err, persistence.ErrForeignKeyViolation)
}

func TestEmployeeRepository(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := newTestStore(t)
	seedUser(t, store, "u1")
	seedUser(t, store, "u2")
	repo := NewEmployeeRepository(store)

	seedEmployee(t, store, "e2", "u1", 1)
	seedEmployee(t, store, "e1", "u1", 0)
	seedEmployee(t, store, "x1", "u2", 0)

	list, err := repo.ListEmployees(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "e1", list[0].ID)
	assert.Equal(t, "e2", list[1].ID)

	n, err := repo.CountEmployees(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	e := list[1]
	e.Name = "Renamed"
	e.DisplayOrder = -1
	require.NoError(t, repo.UpdateEmployee(ctx, e))
	list, err = repo.ListEmployees(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "Renamed", list[0].Name)

	require.ErrorIs(t, repo.CreateEmployee(ctx, persistence.Employee{ID: "e3", UserID: "u1", Name: "  "}), persistence.ErrConstraintViolation)
	require.ErrorIs(t, repo.UpdateEmployee(ctx, persistence.Employee{ID: "nope", Name: "x"}), persistence.ErrNotFound)
	require.ErrorIs(t, repo.DeleteEmployee(ctx, "nope"), persistence.ErrNotFound)
}

func TestDeleteEmployeeCascadesTimeBlocks(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := newTestStore(t)
	seedUser(t, store, "u1")
	seedEmployee(t, store, "e1", "u1", 0)
	seedEmployee(t, store, "e2", "u1", 1)
	blocks := NewTimeBlockRepository(store)

	require.NoError(t, blocks.CreateTimeBlock(ctx, persistence.TimeBlock{ID: "b1", UserID: "u1", EmployeeID: "e1", Date: "2025-03-14", StartTime: "10:00", EndTime: "11:00"}))
	require.NoError(t, blocks.CreateTimeBlock(ctx, persistence.TimeBlock{ID: "b2", UserID: "u1", EmployeeID: "e2", Date: "2025-03-14", StartTime: "10:00", EndTime: "11:00"}))

	require.NoError(t, NewEmployeeRepository(store).DeleteEmployee(ctx, "e1"))

	_, err := blocks.GetTimeBlock(ctx, "b1")
	require.ErrorIs(t, err, persistence.ErrNotFound)
	_, err = blocks.GetTimeBlock(ctx, "b2")
	require.NoError(t, err)
}

func TestTimeBlockRepository(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := newTestStore(t)
	seedUser(t, store, "u1")
	seedUser(t, store, "u2")
	seedEmployee(t, store, "e1", "u1", 0)
	seedEmployee(t, store, "e2", "u1", 1)
	seedEmployee(t, store, "x1", "u2", 0)
	repo := NewTimeBlockRepository(store)

	task := "cut"
	require.NoError(t, repo.CreateTimeBlock(ctx, persistence.TimeBlock{ID: "b2", UserID: "u1", EmployeeID: "e1", Date: "2025-03-14", StartTime: "13:00", EndTime: "14:30", Task: &task}))
	require.NoError(t, repo.CreateTimeBlock(ctx, persistence.TimeBlock{ID: "b1", UserID: "u1", EmployeeID: "e2", Date: "2025-03-14", StartTime: "09:00", EndTime: "09:30"}))
	require.NoError(t, repo.CreateTimeBlock(ctx, persistence.TimeBlock{ID: "b3", UserID: "u1", EmployeeID: "e1", Date: "2025-03-15", StartTime: "09:00", EndTime: "09:30"}))
	require.NoError(t, repo.CreateTimeBlock(ctx, persistence.TimeBlock{ID: "x", UserID: "u2", EmployeeID: "x1", Date: "2025-03-14", StartTime: "09:00", EndTime: "09:30"}))

	day, err := repo.ListTimeBlocks(ctx, "u1", "2025-03-14")
	require.NoError(t, err)
	require.Len(t, day, 2)
	assert.Equal(t, "b1", day[0].ID)
	assert.Nil(t, day[0].Task)
	require.NotNil(t, day[1].Task)
	assert.Equal(t, "cut", *day[1].Task)

	b := day[1]
	client := "Ana"
	b.EmployeeID = "e2"
	b.StartTime = "15:00"
	b.EndTime = "16:30"
	b.Task = nil
	b.ClientName = &client
	require.NoError(t, repo.UpdateTimeBlock(ctx, b))

	got, err := repo.GetTimeBlock(ctx, "b2")
	require.NoError(t, err)
	assert.Equal(t, "e2", got.EmployeeID)
	assert.Equal(t, "15:00", got.StartTime)
	assert.Nil(t, got.Task)
	require.NotNil(t, got.ClientName)
	assert.Equal(t, "Ana", *got.ClientName)

	require.NoError(t, repo.DeleteTimeBlock(ctx, "b2"))
	require.ErrorIs(t, repo.DeleteTimeBlock(ctx, "b2"), persistence.ErrNotFound)
	require.ErrorIs(t, repo.UpdateTimeBlock(ctx, b), persistence.ErrNotFound)

	err = repo.CreateTimeBlock(ctx, persistence.TimeBlock{ID: "bad", UserID: "u1", EmployeeID: "ghost", Date: "2025-03-14", StartTime: "09:00", EndTime: "09:30"})
	require.ErrorIs(t, err, persistence.ErrForeignKeyViolation)
}
