package scheduler

import (
	"fmt"
	"time"
)

const (
	// Granularity is the grid step in minutes; every start and end must be a multiple of it.
	Granularity = 15
	// MinDuration is the shortest block the scheduler accepts, in minutes.
	MinDuration = 15

	// TimeLayout is the wire and storage form of a clock time.
	TimeLayout = "15:04"
	// DateLayout is the wire and storage form of a calendar day.
	DateLayout = "2006-01-02"

	minutesPerDay = 24 * 60
)

// MinutesOf converts an "HH:MM" clock string into minutes since midnight.
func MinutesOf(hhmm string) (int, error) {
	if len(hhmm) != 5 || hhmm[2] != ':' {
		return 0, fmt.Errorf("scheduler: malformed time %q", hhmm)
	}
	h, okH := twoDigits(hhmm[0:2])
	m, okM := twoDigits(hhmm[3:5])
	if !okH || !okM || h > 23 || m > 59 {
		return 0, fmt.Errorf("scheduler: malformed time %q", hhmm)
	}
	return h*60 + m, nil
}

func twoDigits(s string) (int, bool) {
	if s[0] < '0' || s[0] > '9' || s[1] < '0' || s[1] > '9' {
		return 0, false
	}
	return int(s[0]-'0')*10 + int(s[1]-'0'), true
}

// FormatMinutes renders minutes since midnight as zero-padded "HH:MM".
func FormatMinutes(minutes int) string {
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}

// ValidateQuantization reports whether the minute component of hhmm is 0, 15, 30 or 45.
// Strings that are not valid clock times are never quantized.
func ValidateQuantization(hhmm string) bool {
	m, err := MinutesOf(hhmm)
	if err != nil {
		return false
	}
	return m%Granularity == 0
}

// ComputeDuration returns end minus start in minutes. The result may be zero
// or negative; malformed inputs yield 0.
func ComputeDuration(start, end string) int {
	s, err := MinutesOf(start)
	if err != nil {
		return 0
	}
	e, err := MinutesOf(end)
	if err != nil {
		return 0
	}
	return e - s
}

// ValidDate reports whether s is a calendar day in YYYY-MM-DD form.
func ValidDate(s string) bool {
	_, err := time.Parse(DateLayout, s)
	return err == nil
}

// Hours is the business-hours window in minutes since midnight. Blocks must
// start at or after Open and end at or before Close.
type Hours struct {
	Open  int
	Close int
}

// DefaultHours is the salon's standard 09:00-19:00 window.
var DefaultHours = Hours{Open: 9 * 60, Close: 19 * 60}

// ParseHours builds a window from two clock strings.
func ParseHours(open, close string) (Hours, error) {
	o, err := MinutesOf(open)
	if err != nil {
		return Hours{}, err
	}
	c, err := MinutesOf(close)
	if err != nil {
		return Hours{}, err
	}
	if o%Granularity != 0 || c%Granularity != 0 {
		return Hours{}, fmt.Errorf("scheduler: business hours %s-%s are not on the %d minute grid", open, close, Granularity)
	}
	if c-o < MinDuration {
		return Hours{}, fmt.Errorf("scheduler: business hours %s-%s are empty", open, close)
	}
	return Hours{Open: o, Close: c}, nil
}

// Contains reports whether [start, end) lies inside the window.
func (h Hours) Contains(start, end int) bool {
	return start >= h.Open && end <= h.Close
}

func (h Hours) String() string {
	return FormatMinutes(h.Open) + "-" + FormatMinutes(h.Close)
}
