package scheduler

// HasConflict reports whether [start, end) overlaps any block of employeeID
// other than excludeID. Touching intervals do not overlap.
func (s *Scheduler) HasConflict(employeeID, start, end, excludeID string) bool {
	_, ok := s.conflicting(employeeID, start, end, excludeID)
	return ok
}

// conflicting returns the first block of employeeID overlapping [start, end).
func (s *Scheduler) conflicting(employeeID, start, end, excludeID string) (Block, bool) {
	startMin, err := MinutesOf(start)
	if err != nil {
		return Block{}, false
	}
	endMin, err := MinutesOf(end)
	if err != nil {
		return Block{}, false
	}
	for _, b := range s.blocks {
		if b.EmployeeID != employeeID || (excludeID != "" && b.ID == excludeID) {
			continue
		}
		bs, err := MinutesOf(b.Start)
		if err != nil {
			continue
		}
		be, err := MinutesOf(b.End)
		if err != nil {
			continue
		}
		if Overlaps(startMin, endMin, bs, be) {
			return b, true
		}
	}
	return Block{}, false
}

// Overlaps is the half-open interval test for [s1, e1) and [s2, e2).
func Overlaps(s1, e1, s2, e2 int) bool {
	return s1 < e2 && s2 < e1
}
