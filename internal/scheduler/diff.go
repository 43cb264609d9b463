package scheduler

// Changes is the reconciliation plan between two snapshots of a day.
type Changes struct {
	Added   []Block
	Removed []string
	Changed []Block
}

// Empty reports whether the snapshots were identical.
func (c Changes) Empty() bool {
	return len(c.Added) == 0 && len(c.Removed) == 0 && len(c.Changed) == 0
}

// Diff compares snapshots by id. Added and Changed follow the order of next;
// Removed follows the order of prev. Timestamp-only differences are ignored.
func Diff(prev, next []Block) Changes {
	before := make(map[string]Block, len(prev))
	for _, b := range prev {
		before[b.ID] = b
	}
	after := make(map[string]struct{}, len(next))

	var c Changes
	for _, b := range next {
		after[b.ID] = struct{}{}
		old, ok := before[b.ID]
		switch {
		case !ok:
			c.Added = append(c.Added, b)
		case !sameContent(old, b):
			c.Changed = append(c.Changed, b)
		}
	}
	for _, b := range prev {
		if _, ok := after[b.ID]; !ok {
			c.Removed = append(c.Removed, b.ID)
		}
	}
	return c
}
