package testfixtures

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/example/salon-scheduler/internal/application"
	"github.com/example/salon-scheduler/internal/persistence"
	"github.com/example/salon-scheduler/internal/persistence/sqlstore"
	"github.com/example/salon-scheduler/internal/scheduler"
)

// Harness is a migrated in-memory SQLite store with the application services
// wired on top, using a fake clock and predictable ids.
type Harness struct {
	Store      *sqlstore.Store
	Users      persistence.UserRepository
	Employees  persistence.EmployeeRepository
	TimeBlocks persistence.TimeBlockRepository
	Sessions   persistence.SessionRepository

	Auth             *application.AuthService
	UserService      *application.UserService
	EmployeeService  *application.EmployeeService
	TimeBlockService *application.TimeBlockService

	Clock  *Clock
	IDs    *IDGenerator
	Logger *slog.Logger
}

// NewHarness opens and migrates the store. It is closed when tb finishes.
func NewHarness(tb testing.TB) *Harness {
	tb.Helper()
	ctx := context.Background()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	store, err := sqlstore.Open(ctx, sqlstore.Config{Driver: sqlstore.DriverSQLite, DSN: ":memory:"})
	require.NoError(tb, err)
	tb.Cleanup(func() { _ = store.Close() })
	_, err = store.Migrate(ctx, logger)
	require.NoError(tb, err)

	clock := NewClock(ReferenceTime())
	ids := NewIDGenerator("id")
	store.SetClock(clock.Now)

	h := &Harness{
		Store:      store,
		Users:      sqlstore.NewUserRepository(store),
		Employees:  sqlstore.NewEmployeeRepository(store),
		TimeBlocks: sqlstore.NewTimeBlockRepository(store),
		Sessions:   sqlstore.NewSessionRepository(store),
		Clock:      clock,
		IDs:        ids,
		Logger:     logger,
	}
	h.Auth = application.NewAuthService(h.Users, h.Sessions, application.AuthServiceConfig{
		TokenGenerator: NewIDGenerator("token").NextFunc(),
		IDGenerator:    NewIDGenerator("session").NextFunc(),
		Now:            clock.NowFunc(),
		Logger:         logger,
	})
	h.UserService = application.NewUserService(h.Users, NewIDGenerator("user").NextFunc(), clock.NowFunc(), logger)
	h.EmployeeService = application.NewEmployeeService(h.Employees, NewIDGenerator("emp").NextFunc(), clock.NowFunc(), logger)
	h.TimeBlockService = application.NewTimeBlockService(h.Employees, h.TimeBlocks, scheduler.DefaultHours, NewIDGenerator("blk").NextFunc(), clock.NowFunc(), logger)
	return h
}

// SeedUser creates an account with a real password hash and returns its principal.
func (h *Harness) SeedUser(tb testing.TB, username, password string) application.Principal {
	tb.Helper()
	user, err := h.UserService.CreateUser(context.Background(), application.CreateUserParams{Username: username, Password: password})
	require.NoError(tb, err)
	return application.Principal{UserID: user.ID, Username: user.Username, IsAdmin: user.IsAdmin}
}

// SeedEmployee creates an employee owned by principal.
func (h *Harness) SeedEmployee(tb testing.TB, principal application.Principal, name string) application.Employee {
	tb.Helper()
	emp, err := h.EmployeeService.CreateEmployee(context.Background(), principal, application.EmployeeInput{Name: name})
	require.NoError(tb, err)
	return emp
}

// SeedBlock places a block on ReferenceDate through the scheduler rules.
func (h *Harness) SeedBlock(tb testing.TB, principal application.Principal, employeeID, start, end string) application.TimeBlock {
	tb.Helper()
	block, err := h.TimeBlockService.CreateTimeBlock(context.Background(), application.CreateTimeBlockParams{
		Principal: principal,
		Input: application.TimeBlockInput{
			EmployeeID: employeeID,
			Date:       ReferenceDate,
			StartTime:  start,
			EndTime:    end,
		},
	})
	require.NoError(tb, err)
	return block
}
