package testfixtures

import (
	"sync"
	"time"
)

// ReferenceDate is the salon day most fixtures are placed on.
const ReferenceDate = "2025-03-14"

var referenceTime = time.Date(2025, time.March, 14, 8, 0, 0, 0, time.UTC)

// ReferenceTime returns the instant fixtures and fake clocks start at, one
// hour before the salon opens on ReferenceDate.
func ReferenceTime() time.Time {
	return referenceTime
}

// Clock is a manually driven time source safe for concurrent use.
type Clock struct {
	mu      sync.Mutex
	current time.Time
}

// NewClock returns a clock at start, or at ReferenceTime when start is zero.
func NewClock(start time.Time) *Clock {
	if start.IsZero() {
		start = ReferenceTime()
	}
	return &Clock{current: start}
}

func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

// NowFunc exposes Now for constructors taking func() time.Time.
func (c *Clock) NowFunc() func() time.Time {
	if c == nil {
		return time.Now
	}
	return c.Now
}

// Advance moves the clock forward and returns the new time.
func (c *Clock) Advance(d time.Duration) time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.current = c.current.Add(d)
	return c.current
}
