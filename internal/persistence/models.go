package persistence

import "time"

// User is an account that owns a salon's employees and time blocks.
type User struct {
	ID           string
	Username     string
	PasswordHash string
	IsAdmin      bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Employee is a member of staff shown as a column on the schedule grid.
type Employee struct {
	ID           string
	UserID       string
	Name         string
	Color        string
	DisplayOrder int
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// TimeBlock is a stored appointment. Date is YYYY-MM-DD; StartTime and
// EndTime are HH:MM.
type TimeBlock struct {
	ID         string
	UserID     string
	EmployeeID string
	Date       string
	StartTime  string
	EndTime    string
	Task       *string
	ClientName *string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Session represents an authentication session persisted for a user.
type Session struct {
	ID        string
	UserID    string
	Token     string
	ExpiresAt time.Time
	CreatedAt time.Time
	UpdatedAt time.Time
	RevokedAt *time.Time
}
