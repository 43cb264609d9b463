// Package scheduler holds the salon's per-day time block collection and
// enforces placement rules: 15 minute quantization, positive and minimum
// duration, business hours and no overlap for the same employee.
package scheduler

import (
	"slices"
	"time"

	"github.com/google/uuid"
)

// Scheduler owns the blocks of a single (user, day) scope. It is not safe for
// concurrent use; callers construct one per request.
type Scheduler struct {
	date      string
	hours     Hours
	blocks    []Block
	employees map[string]struct{}
	newID     func() string
	now       func() time.Time
}

// Option customises a Scheduler.
type Option func(*Scheduler)

// WithIDGenerator overrides the block id source.
func WithIDGenerator(gen func() string) Option {
	return func(s *Scheduler) {
		if gen != nil {
			s.newID = gen
		}
	}
}

// WithClock overrides the time source used for CreatedAt and UpdatedAt.
func WithClock(now func() time.Time) Option {
	return func(s *Scheduler) {
		if now != nil {
			s.now = now
		}
	}
}

// WithHours sets the business-hours window.
func WithHours(h Hours) Option {
	return func(s *Scheduler) {
		s.hours = h
	}
}

// WithEmployees restricts placement to the listed employees. Without it any
// non-empty employee id is accepted.
func WithEmployees(ids ...string) Option {
	return func(s *Scheduler) {
		s.employees = make(map[string]struct{}, len(ids))
		for _, id := range ids {
			s.employees[id] = struct{}{}
		}
	}
}

// New builds a scheduler for date seeded with blocks. Seeded blocks are taken
// as already accepted and are not re-validated.
func New(date string, blocks []Block, opts ...Option) *Scheduler {
	s := &Scheduler{
		date:   date,
		hours:  DefaultHours,
		blocks: slices.Clone(blocks),
		newID:  uuid.NewString,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Date returns the day this scheduler covers.
func (s *Scheduler) Date() string { return s.date }

// Hours returns the configured business-hours window.
func (s *Scheduler) Hours() Hours { return s.hours }

// Blocks returns a copy of the collection in insertion order.
func (s *Scheduler) Blocks() []Block {
	return slices.Clone(s.blocks)
}

// Get returns the block with id.
func (s *Scheduler) Get(id string) (Block, bool) {
	i := s.index(id)
	if i < 0 {
		return Block{}, false
	}
	return s.blocks[i], true
}

// CreateBlock validates in and appends it with a freshly allocated id.
func (s *Scheduler) CreateBlock(in NewBlock) (Block, error) {
	candidate := Block{
		EmployeeID: in.EmployeeID,
		Date:       s.date,
		Start:      in.Start,
		End:        in.End,
		Task:       in.Task,
		ClientName: in.ClientName,
	}
	if err := s.validate(candidate, ""); err != nil {
		return Block{}, err
	}
	now := s.now()
	candidate.ID = s.newID()
	candidate.CreatedAt = now
	candidate.UpdatedAt = now
	s.blocks = append(s.blocks, candidate)
	return candidate, nil
}

// UpdateBlock merges patch onto block id and re-validates the result against
// every other block. On failure the stored block is left untouched.
func (s *Scheduler) UpdateBlock(id string, patch Patch) (Block, error) {
	i := s.index(id)
	if i < 0 {
		return Block{}, notFound("", id)
	}
	candidate := patch.apply(s.blocks[i])
	if err := s.validate(candidate, id); err != nil {
		return Block{}, err
	}
	candidate.UpdatedAt = s.now()
	s.blocks[i] = candidate
	return candidate, nil
}

// MoveBlock repositions block id to employeeID starting at start, keeping its
// duration. A rejected move leaves the block exactly where it was.
func (s *Scheduler) MoveBlock(id, employeeID, start string) (Block, error) {
	i := s.index(id)
	if i < 0 {
		return Block{}, notFound("", id)
	}
	original := s.blocks[i]
	startMin, err := MinutesOf(start)
	if err != nil {
		return Block{}, quantizationError(FieldStartTime)
	}
	duration := original.Duration()

	candidate := original
	candidate.EmployeeID = employeeID
	candidate.Start = start
	candidate.End = FormatMinutes(startMin + duration)
	if startMin+duration > minutesPerDay {
		// Past midnight cannot be rendered as a clock time.
		if err := s.validateStart(candidate); err != nil {
			return Block{}, err
		}
		return Block{}, ErrOutsideBusinessHours
	}
	if err := s.validate(candidate, id); err != nil {
		return Block{}, err
	}
	candidate.UpdatedAt = s.now()
	s.blocks[i] = candidate
	return candidate, nil
}

// DeleteBlock removes block id. Removing an unknown id is a no-op.
func (s *Scheduler) DeleteBlock(id string) {
	i := s.index(id)
	if i < 0 {
		return
	}
	s.blocks = slices.Delete(s.blocks, i, i+1)
}

func (s *Scheduler) index(id string) int {
	return slices.IndexFunc(s.blocks, func(b Block) bool { return b.ID == id })
}

// validate runs the placement checks in their fixed order; the first failure wins.
func (s *Scheduler) validate(b Block, excludeID string) error {
	if err := s.validateStart(b); err != nil {
		return err
	}
	if !ValidateQuantization(b.End) {
		return quantizationError(FieldEndTime)
	}
	duration := ComputeDuration(b.Start, b.End)
	if duration <= 0 {
		return ErrInvalidDuration
	}
	if duration < MinDuration {
		return ErrDurationTooShort
	}
	startMin, _ := MinutesOf(b.Start)
	endMin, _ := MinutesOf(b.End)
	if !s.hours.Contains(startMin, endMin) {
		return ErrOutsideBusinessHours
	}
	if !s.knownEmployee(b.EmployeeID) {
		return notFound(FieldEmployeeID, b.EmployeeID)
	}
	if other, ok := s.conflicting(b.EmployeeID, b.Start, b.End, excludeID); ok {
		return &Error{Kind: KindTimeConflict, ID: other.ID}
	}
	return nil
}

func (s *Scheduler) validateStart(b Block) error {
	if !ValidateQuantization(b.Start) {
		return quantizationError(FieldStartTime)
	}
	return nil
}

func (s *Scheduler) knownEmployee(id string) bool {
	if id == "" {
		return false
	}
	if s.employees == nil {
		return true
	}
	_, ok := s.employees[id]
	return ok
}
