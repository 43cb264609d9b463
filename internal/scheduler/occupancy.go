package scheduler

import (
	"slices"
	"strings"
)

// ForEmployee returns the blocks of employeeID ordered by start time.
func (s *Scheduler) ForEmployee(employeeID string) []Block {
	var out []Block
	for _, b := range s.blocks {
		if b.EmployeeID == employeeID {
			out = append(out, b)
		}
	}
	slices.SortFunc(out, func(a, b Block) int { return strings.Compare(a.Start, b.Start) })
	return out
}

// BlocksOccupying returns the blocks of employeeID whose interval contains
// hhmm, that is start <= hhmm < end.
func (s *Scheduler) BlocksOccupying(employeeID, hhmm string) []Block {
	t, err := MinutesOf(hhmm)
	if err != nil {
		return nil
	}
	var out []Block
	for _, b := range s.blocks {
		if b.EmployeeID != employeeID {
			continue
		}
		bs, errS := MinutesOf(b.Start)
		be, errE := MinutesOf(b.End)
		if errS != nil || errE != nil {
			continue
		}
		if bs <= t && t < be {
			out = append(out, b)
		}
	}
	return out
}

// BlockStartingAt returns the block of employeeID that begins exactly at hhmm.
func (s *Scheduler) BlockStartingAt(employeeID, hhmm string) (Block, bool) {
	for _, b := range s.BlocksOccupying(employeeID, hhmm) {
		if b.Start == hhmm {
			return b, true
		}
	}
	return Block{}, false
}

// RowSpan is the number of grid rows a block covers.
func RowSpan(b Block) int {
	d := b.Duration()
	if d <= 0 {
		return 0
	}
	return (d + Granularity - 1) / Granularity
}

// Slots lists the grid row start times inside business hours.
func (s *Scheduler) Slots() []string {
	var out []string
	for m := s.hours.Open; m+Granularity <= s.hours.Close; m += Granularity {
		out = append(out, FormatMinutes(m))
	}
	return out
}

// Cell is one grid position of an employee column.
type Cell struct {
	Time     string
	Occupied bool
	// BlockID and Span are set only on the cell where a block starts.
	BlockID string
	Span    int
}

// Column is the rendered day of one employee.
type Column struct {
	EmployeeID string
	Cells      []Cell
}

// Grid lays out the day for employees in the given order. Blocks held by
// employees not in the list are left out of the view.
func (s *Scheduler) Grid(employees []string) []Column {
	slots := s.Slots()
	columns := make([]Column, 0, len(employees))
	for _, emp := range employees {
		col := Column{EmployeeID: emp, Cells: make([]Cell, 0, len(slots))}
		for _, slot := range slots {
			cell := Cell{Time: slot, Occupied: len(s.BlocksOccupying(emp, slot)) > 0}
			if b, ok := s.BlockStartingAt(emp, slot); ok {
				cell.BlockID = b.ID
				cell.Span = RowSpan(b)
			}
			col.Cells = append(col.Cells, cell)
		}
		columns = append(columns, col)
	}
	return columns
}
