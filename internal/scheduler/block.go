package scheduler

import "time"

// Field names reported in Error.Field.
const (
	FieldStartTime  = "startTime"
	FieldEndTime    = "endTime"
	FieldEmployeeID = "employeeId"
)

// Block is a single appointment held by one employee on one day.
type Block struct {
	ID         string
	EmployeeID string
	Date       string
	Start      string
	End        string
	Task       string
	ClientName string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Duration returns the block length in minutes.
func (b Block) Duration() int {
	return ComputeDuration(b.Start, b.End)
}

// NewBlock is the input of CreateBlock.
type NewBlock struct {
	EmployeeID string
	Start      string
	End        string
	Task       string
	ClientName string
}

// Patch lists the fields UpdateBlock may change. Nil fields are left untouched.
type Patch struct {
	EmployeeID *string
	Start      *string
	End        *string
	Task       *string
	ClientName *string
}

// Empty reports whether the patch changes nothing.
func (p Patch) Empty() bool {
	return p.EmployeeID == nil && p.Start == nil && p.End == nil && p.Task == nil && p.ClientName == nil
}

func (p Patch) apply(b Block) Block {
	if p.EmployeeID != nil {
		b.EmployeeID = *p.EmployeeID
	}
	if p.Start != nil {
		b.Start = *p.Start
	}
	if p.End != nil {
		b.End = *p.End
	}
	if p.Task != nil {
		b.Task = *p.Task
	}
	if p.ClientName != nil {
		b.ClientName = *p.ClientName
	}
	return b
}

// sameContent compares everything but the bookkeeping timestamps.
func sameContent(a, b Block) bool {
	return a.ID == b.ID &&
		a.EmployeeID == b.EmployeeID &&
		a.Date == b.Date &&
		a.Start == b.Start &&
		a.End == b.End &&
		a.Task == b.Task &&
		a.ClientName == b.ClientName
}
