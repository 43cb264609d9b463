package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/example/salon-scheduler/internal/persistence"
	"github.com/example/salon-scheduler/internal/scheduler"
)

// TimeBlockService applies grid operations for one user and day. Each call
// loads the day into a fresh scheduler.Scheduler, runs the placement logic
// there and writes back only the records that changed.
type TimeBlockService struct {
	employees   persistence.EmployeeRepository
	blocks      persistence.TimeBlockRepository
	hours       scheduler.Hours
	idGenerator func() string
	now         func() time.Time
	logger      *slog.Logger
}

// NewTimeBlockService wires dependencies for time block operations.
func NewTimeBlockService(employees persistence.EmployeeRepository, blocks persistence.TimeBlockRepository, hours scheduler.Hours, idGenerator func() string, now func() time.Time, logger *slog.Logger) *TimeBlockService {
	if hours == (scheduler.Hours{}) {
		hours = scheduler.DefaultHours
	}
	if idGenerator == nil {
		idGenerator = uuid.NewString
	}
	if now == nil {
		now = time.Now
	}
	return &TimeBlockService{
		employees:   employees,
		blocks:      blocks,
		hours:       hours,
		idGenerator: idGenerator,
		now:         now,
		logger:      defaultLogger(logger),
	}
}

// Hours returns the business-hours window blocks must fit in.
func (s *TimeBlockService) Hours() scheduler.Hours {
	return s.hours
}

// day is one loaded (user, date) scope.
type day struct {
	sched     *scheduler.Scheduler
	before    []scheduler.Block
	employees []persistence.Employee
}

func (s *TimeBlockService) loadDay(ctx context.Context, principal Principal, date string) (*day, error) {
	if principal.UserID == "" {
		return nil, ErrUnauthorized
	}
	if !scheduler.ValidDate(date) {
		return nil, &ValidationError{FieldErrors: map[string]string{"date": "date must be YYYY-MM-DD"}}
	}
	employees, err := s.employees.ListEmployees(ctx, principal.UserID)
	if err != nil {
		return nil, err
	}
	records, err := s.blocks.ListTimeBlocks(ctx, principal.UserID, date)
	if err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(employees))
	for _, e := range employees {
		ids = append(ids, e.ID)
	}
	blocks := make([]scheduler.Block, 0, len(records))
	for _, r := range records {
		blocks = append(blocks, toSchedulerBlock(r))
	}
	return &day{
		sched: scheduler.New(date, blocks,
			scheduler.WithHours(s.hours),
			scheduler.WithEmployees(ids...),
			scheduler.WithIDGenerator(s.idGenerator),
			scheduler.WithClock(s.now),
		),
		before:    blocks,
		employees: employees,
	}, nil
}

// ListTimeBlocks returns the day's blocks of employees that still exist.
func (s *TimeBlockService) ListTimeBlocks(ctx context.Context, principal Principal, date string) ([]TimeBlock, error) {
	if s == nil {
		return nil, fmt.Errorf("TimeBlockService is nil")
	}
	d, err := s.loadDay(ctx, principal, date)
	if err != nil {
		return nil, err
	}
	return d.visibleBlocks(), nil
}

// DayGrid returns the occupancy grid of a day for the principal's employees.
func (s *TimeBlockService) DayGrid(ctx context.Context, principal Principal, date string) (DayGrid, error) {
	if s == nil {
		return DayGrid{}, fmt.Errorf("TimeBlockService is nil")
	}
	d, err := s.loadDay(ctx, principal, date)
	if err != nil {
		return DayGrid{}, err
	}

	ids := make([]string, 0, len(d.employees))
	for _, e := range d.employees {
		ids = append(ids, e.ID)
	}
	grid := DayGrid{Date: date, Slots: d.sched.Slots(), Blocks: d.visibleBlocks()}
	for i, col := range d.sched.Grid(ids) {
		gc := GridColumn{Employee: toEmployee(d.employees[i]), Cells: make([]GridCell, 0, len(col.Cells))}
		for _, c := range col.Cells {
			gc.Cells = append(gc.Cells, GridCell{Time: c.Time, Occupied: c.Occupied, BlockID: c.BlockID, Span: c.Span})
		}
		grid.Columns = append(grid.Columns, gc)
	}
	return grid, nil
}

// CreateTimeBlock places a new block on the grid.
func (s *TimeBlockService) CreateTimeBlock(ctx context.Context, params CreateTimeBlockParams) (block TimeBlock, err error) {
	if s == nil {
		return TimeBlock{}, fmt.Errorf("TimeBlockService is nil")
	}
	in := params.Input
	logger := serviceLogger(ctx, s.logger, "TimeBlockService", "CreateTimeBlock",
		"user_id", params.Principal.UserID, "employee_id", in.EmployeeID, "date", in.Date)
	defer func() {
		logOutcome(ctx, logger, err, "time block created", "block_id", block.ID)
	}()

	d, err := s.loadDay(ctx, params.Principal, in.Date)
	if err != nil {
		return TimeBlock{}, err
	}
	if err = s.checkEmployee(ctx, params.Principal, d, in.EmployeeID); err != nil {
		return TimeBlock{}, err
	}

	created, err := d.sched.CreateBlock(scheduler.NewBlock{
		EmployeeID: in.EmployeeID,
		Start:      in.StartTime,
		End:        in.EndTime,
		Task:       deref(in.Task),
		ClientName: deref(in.ClientName),
	})
	if err != nil {
		return TimeBlock{}, err
	}
	if err = s.reconcile(ctx, params.Principal.UserID, d); err != nil {
		return TimeBlock{}, err
	}
	return toTimeBlock(created), nil
}

// UpdateTimeBlock edits times, labels or the owning employee of a block.
func (s *TimeBlockService) UpdateTimeBlock(ctx context.Context, params UpdateTimeBlockParams) (block TimeBlock, err error) {
	if s == nil {
		return TimeBlock{}, fmt.Errorf("TimeBlockService is nil")
	}
	logger := serviceLogger(ctx, s.logger, "TimeBlockService", "UpdateTimeBlock",
		"user_id", params.Principal.UserID, "block_id", params.BlockID)
	defer func() {
		logOutcome(ctx, logger, err, "time block updated")
	}()

	d, err := s.loadOwnedBlockDay(ctx, params.Principal, params.BlockID)
	if err != nil {
		return TimeBlock{}, err
	}
	p := params.Patch
	if p.EmployeeID != nil {
		if err = s.checkEmployee(ctx, params.Principal, d, *p.EmployeeID); err != nil {
			return TimeBlock{}, err
		}
	}

	updated, err := d.sched.UpdateBlock(params.BlockID, scheduler.Patch{
		EmployeeID: p.EmployeeID,
		Start:      p.StartTime,
		End:        p.EndTime,
		Task:       p.Task,
		ClientName: p.ClientName,
	})
	if err != nil {
		return TimeBlock{}, err
	}
	if err = s.reconcile(ctx, params.Principal.UserID, d); err != nil {
		return TimeBlock{}, err
	}
	return toTimeBlock(updated), nil
}

// MoveTimeBlock drops a block onto another cell, keeping its duration.
func (s *TimeBlockService) MoveTimeBlock(ctx context.Context, params MoveTimeBlockParams) (block TimeBlock, err error) {
	if s == nil {
		return TimeBlock{}, fmt.Errorf("TimeBlockService is nil")
	}
	logger := serviceLogger(ctx, s.logger, "TimeBlockService", "MoveTimeBlock",
		"user_id", params.Principal.UserID, "block_id", params.BlockID,
		"employee_id", params.EmployeeID, "start_time", params.StartTime)
	defer func() {
		logOutcome(ctx, logger, err, "time block moved")
	}()

	d, err := s.loadOwnedBlockDay(ctx, params.Principal, params.BlockID)
	if err != nil {
		return TimeBlock{}, err
	}
	employeeID := params.EmployeeID
	if employeeID == "" {
		current, _ := d.sched.Get(params.BlockID)
		employeeID = current.EmployeeID
	}
	if err = s.checkEmployee(ctx, params.Principal, d, employeeID); err != nil {
		return TimeBlock{}, err
	}

	moved, err := d.sched.MoveBlock(params.BlockID, employeeID, params.StartTime)
	if err != nil {
		return TimeBlock{}, err
	}
	if err = s.reconcile(ctx, params.Principal.UserID, d); err != nil {
		return TimeBlock{}, err
	}
	return toTimeBlock(moved), nil
}

// DeleteTimeBlock removes a block. Unknown ids and other users' blocks both
// report ErrNotFound, however often they are requested.
func (s *TimeBlockService) DeleteTimeBlock(ctx context.Context, principal Principal, id string) (err error) {
	if s == nil {
		return fmt.Errorf("TimeBlockService is nil")
	}
	logger := serviceLogger(ctx, s.logger, "TimeBlockService", "DeleteTimeBlock",
		"user_id", principal.UserID, "block_id", id)
	defer func() {
		logOutcome(ctx, logger, err, "time block deleted")
	}()

	d, err := s.loadOwnedBlockDay(ctx, principal, id)
	if err != nil {
		return err
	}
	d.sched.DeleteBlock(id)
	return s.reconcile(ctx, principal.UserID, d)
}

// loadOwnedBlockDay loads the day a block belongs to, hiding foreign blocks.
func (s *TimeBlockService) loadOwnedBlockDay(ctx context.Context, principal Principal, id string) (*day, error) {
	if principal.UserID == "" {
		return nil, ErrUnauthorized
	}
	record, err := s.blocks.GetTimeBlock(ctx, id)
	if err != nil {
		return nil, mapRepoError(err)
	}
	if record.UserID != principal.UserID {
		return nil, ErrNotFound
	}
	d, err := s.loadDay(ctx, principal, record.Date)
	if err != nil {
		return nil, err
	}
	if _, ok := d.sched.Get(id); !ok {
		return nil, ErrNotFound
	}
	return d, nil
}

// checkEmployee rejects transfers onto another user's employee. Unknown ids
// are left to the scheduler, which reports them as not found.
func (s *TimeBlockService) checkEmployee(ctx context.Context, principal Principal, d *day, employeeID string) error {
	for _, e := range d.employees {
		if e.ID == employeeID {
			return nil
		}
	}
	if employeeID == "" {
		return nil
	}
	record, err := s.employees.GetEmployee(ctx, employeeID)
	if err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			return nil
		}
		return err
	}
	if record.UserID != principal.UserID {
		return ErrForbidden
	}
	return nil
}

// reconcile writes the difference between the loaded and current day. Every
// record is written independently; failures are joined.
func (s *TimeBlockService) reconcile(ctx context.Context, userID string, d *day) error {
	changes := scheduler.Diff(d.before, d.sched.Blocks())
	var errs []error
	for _, b := range changes.Added {
		if err := s.blocks.CreateTimeBlock(ctx, toRecord(userID, b)); err != nil {
			errs = append(errs, fmt.Errorf("create block %s: %w", b.ID, mapRepoError(err)))
		}
	}
	for _, b := range changes.Changed {
		if err := s.blocks.UpdateTimeBlock(ctx, toRecord(userID, b)); err != nil {
			errs = append(errs, fmt.Errorf("update block %s: %w", b.ID, mapRepoError(err)))
		}
	}
	for _, id := range changes.Removed {
		if err := s.blocks.DeleteTimeBlock(ctx, id); err != nil && !errors.Is(err, persistence.ErrNotFound) {
			errs = append(errs, fmt.Errorf("delete block %s: %w", id, mapRepoError(err)))
		}
	}
	d.before = d.sched.Blocks()
	return errors.Join(errs...)
}

func (d *day) visibleBlocks() []TimeBlock {
	known := make(map[string]struct{}, len(d.employees))
	for _, e := range d.employees {
		known[e.ID] = struct{}{}
	}
	var out []TimeBlock
	for _, b := range d.sched.Blocks() {
		if _, ok := known[b.EmployeeID]; ok {
			out = append(out, toTimeBlock(b))
		}
	}
	return out
}

func toSchedulerBlock(r persistence.TimeBlock) scheduler.Block {
	return scheduler.Block{
		ID:         r.ID,
		EmployeeID: r.EmployeeID,
		Date:       r.Date,
		Start:      r.StartTime,
		End:        r.EndTime,
		Task:       deref(r.Task),
		ClientName: deref(r.ClientName),
		CreatedAt:  r.CreatedAt,
		UpdatedAt:  r.UpdatedAt,
	}
}

func toRecord(userID string, b scheduler.Block) persistence.TimeBlock {
	return persistence.TimeBlock{
		ID:         b.ID,
		UserID:     userID,
		EmployeeID: b.EmployeeID,
		Date:       b.Date,
		StartTime:  b.Start,
		EndTime:    b.End,
		Task:       optional(b.Task),
		ClientName: optional(b.ClientName),
		CreatedAt:  b.CreatedAt,
		UpdatedAt:  b.UpdatedAt,
	}
}

func toTimeBlock(b scheduler.Block) TimeBlock {
	return TimeBlock{
		ID:         b.ID,
		EmployeeID: b.EmployeeID,
		Date:       b.Date,
		StartTime:  b.Start,
		EndTime:    b.End,
		Task:       optional(b.Task),
		ClientName: optional(b.ClientName),
		CreatedAt:  b.CreatedAt,
		UpdatedAt:  b.UpdatedAt,
	}
}

func durationMinutes(start, end string) int {
	return scheduler.ComputeDuration(start, end)
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
