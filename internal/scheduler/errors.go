package scheduler

import (
	"errors"
	"fmt"
)

// Kind distinguishes the validation failures the scheduler can report.
type Kind string

const (
	KindInvalidQuantization  Kind = "invalid_quantization"
	KindInvalidDuration      Kind = "invalid_duration"
	KindDurationTooShort     Kind = "duration_too_short"
	KindOutsideBusinessHours Kind = "outside_business_hours"
	KindTimeConflict         Kind = "time_conflict"
	KindNotFound             Kind = "not_found"
)

// Error is returned by every rejecting scheduler operation. Field names the
// offending input for quantization and lookup failures; ID carries the
// conflicting block for KindTimeConflict or the missing id for KindNotFound.
type Error struct {
	Kind  Kind
	Field string
	ID    string
}

var (
	ErrInvalidQuantization  = &Error{Kind: KindInvalidQuantization}
	ErrInvalidDuration      = &Error{Kind: KindInvalidDuration}
	ErrDurationTooShort     = &Error{Kind: KindDurationTooShort}
	ErrOutsideBusinessHours = &Error{Kind: KindOutsideBusinessHours}
	ErrTimeConflict         = &Error{Kind: KindTimeConflict}
	ErrNotFound             = &Error{Kind: KindNotFound}
)

func (e *Error) Error() string {
	switch e.Kind {
	case KindInvalidQuantization:
		return fmt.Sprintf("scheduler: %s is not on a %d minute boundary", e.Field, Granularity)
	case KindInvalidDuration:
		return "scheduler: end time must be after start time"
	case KindDurationTooShort:
		return fmt.Sprintf("scheduler: duration is below %d minutes", MinDuration)
	case KindOutsideBusinessHours:
		return "scheduler: block is outside business hours"
	case KindTimeConflict:
		return fmt.Sprintf("scheduler: overlaps block %s", e.ID)
	case KindNotFound:
		if e.Field != "" {
			return fmt.Sprintf("scheduler: %s %s not found", e.Field, e.ID)
		}
		return fmt.Sprintf("scheduler: block %s not found", e.ID)
	default:
		return "scheduler: " + string(e.Kind)
	}
}

// Is matches sentinels by kind; a sentinel with Field or ID set narrows the match.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if t.Kind != e.Kind {
		return false
	}
	if t.Field != "" && t.Field != e.Field {
		return false
	}
	return t.ID == "" || t.ID == e.ID
}

// KindOf extracts the scheduler error kind from err, or "" when err did not
// originate in this package.
func KindOf(err error) Kind {
	var se *Error
	if errors.As(err, &se) {
		return se.Kind
	}
	return ""
}

func quantizationError(field string) error {
	return &Error{Kind: KindInvalidQuantization, Field: field}
}

func notFound(field, id string) error {
	return &Error{Kind: KindNotFound, Field: field, ID: id}
}
