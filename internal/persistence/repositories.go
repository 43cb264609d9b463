package persistence

import (
	"context"
	"time"
)

// UserRepository stores accounts.
type UserRepository interface {
	CreateUser(ctx context.Context, user User) error
	UpdateUser(ctx context.Context, user User) error
	GetUser(ctx context.Context, id string) (User, error)
	GetUserByUsername(ctx context.Context, username string) (User, error)
	ListUsers(ctx context.Context) ([]User, error)
}

// EmployeeRepository stores employees scoped to their owning user.
type EmployeeRepository interface {
	CreateEmployee(ctx context.Context, employee Employee) error
	UpdateEmployee(ctx context.Context, employee Employee) error
	GetEmployee(ctx context.Context, id string) (Employee, error)
	// ListEmployees returns the user's employees ordered by display order.
	ListEmployees(ctx context.Context, userID string) ([]Employee, error)
	CountEmployees(ctx context.Context, userID string) (int, error)
	// DeleteEmployee removes the employee together with all of its time blocks.
	DeleteEmployee(ctx context.Context, id string) error
}

// TimeBlockRepository stores appointments. Each call is independent; there is
// no grouping of several block writes into one transaction.
type TimeBlockRepository interface {
	CreateTimeBlock(ctx context.Context, block TimeBlock) error
	UpdateTimeBlock(ctx context.Context, block TimeBlock) error
	GetTimeBlock(ctx context.Context, id string) (TimeBlock, error)
	// ListTimeBlocks returns the user's blocks for one YYYY-MM-DD day.
	ListTimeBlocks(ctx context.Context, userID, date string) ([]TimeBlock, error)
	DeleteTimeBlock(ctx context.Context, id string) error
}

// SessionRepository stores authentication session state.
type SessionRepository interface {
	CreateSession(ctx context.Context, session Session) (Session, error)
	GetSession(ctx context.Context, token string) (Session, error)
	UpdateSession(ctx context.Context, session Session) (Session, error)
	RevokeSession(ctx context.Context, token string, revokedAt time.Time) (Session, error)
	DeleteExpiredSessions(ctx context.Context, reference time.Time) (int64, error)
}
