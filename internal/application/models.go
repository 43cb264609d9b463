package application

import "time"

// Principal represents the authenticated user invoking a service method.
type Principal struct {
	UserID   string
	Username string
	IsAdmin  bool
}

// User is the public view of an account.
type User struct {
	ID        string
	Username  string
	IsAdmin   bool
	CreatedAt time.Time
}

// Session is an issued login.
type Session struct {
	ID        string
	UserID    string
	Token     string
	ExpiresAt time.Time
}

// AuthenticateParams carries login form input.
type AuthenticateParams struct {
	Username string
	Password string
}

// AuthenticateResult is returned by a successful login.
type AuthenticateResult struct {
	User    User
	Session Session
}

// CreateUserParams carries the fields of a new account.
type CreateUserParams struct {
	Username string
	Password string
	IsAdmin  bool
}

// Employee is a member of staff rendered as a grid column.
type Employee struct {
	ID           string
	Name         string
	Color        string
	DisplayOrder int
	CreatedAt    time.Time
}

// EmployeeInput carries the fields of a new employee. Empty Color and nil
// DisplayOrder pick defaults.
type EmployeeInput struct {
	Name         string
	Color        string
	DisplayOrder *int
}

// EmployeePatch lists the employee fields an update may change.
type EmployeePatch struct {
	Name         *string
	Color        *string
	DisplayOrder *int
}

// TimeBlock is an appointment as exposed to callers.
type TimeBlock struct {
	ID         string
	EmployeeID string
	Date       string
	StartTime  string
	EndTime    string
	Task       *string
	ClientName *string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Duration returns the block length in minutes.
func (b TimeBlock) Duration() int {
	return durationMinutes(b.StartTime, b.EndTime)
}

// TimeBlockInput carries the fields of a new block.
type TimeBlockInput struct {
	EmployeeID string
	Date       string
	StartTime  string
	EndTime    string
	Task       *string
	ClientName *string
}

// TimeBlockPatch lists the block fields an update may change. The date is
// fixed once a block exists.
type TimeBlockPatch struct {
	EmployeeID *string
	StartTime  *string
	EndTime    *string
	Task       *string
	ClientName *string
}

// CreateTimeBlockParams wraps the data required to create a block.
type CreateTimeBlockParams struct {
	Principal Principal
	Input     TimeBlockInput
}

// UpdateTimeBlockParams wraps the data required to update a block.
type UpdateTimeBlockParams struct {
	Principal Principal
	BlockID   string
	Patch     TimeBlockPatch
}

// MoveTimeBlockParams describes a drag and drop of a block onto a new cell.
type MoveTimeBlockParams struct {
	Principal  Principal
	BlockID    string
	EmployeeID string
	StartTime  string
}

// DayGrid is the occupancy view of one day.
type DayGrid struct {
	Date    string
	Slots   []string
	Columns []GridColumn
	Blocks  []TimeBlock
}

// GridColumn is one employee's cells, in slot order.
type GridColumn struct {
	Employee Employee
	Cells    []GridCell
}

// GridCell marks whether a slot is taken and where blocks begin.
type GridCell struct {
	Time     string
	Occupied bool
	BlockID  string
	Span     int
}
