package timeparse

import "fmt"

// Kind classifies why a time expression was rejected.
type Kind int

const (
	KindMalformedRelative Kind = iota + 1
	KindInvalidTimeOfDay
	KindInvalidCalendarDate
	KindPastDateTime
	KindUnrecognizedFormat
)

func (k Kind) String() string {
	switch k {
	case KindMalformedRelative:
		return "malformed_relative"
	case KindInvalidTimeOfDay:
		return "invalid_time_of_day"
	case KindInvalidCalendarDate:
		return "invalid_calendar_date"
	case KindPastDateTime:
		return "past_date_time"
	case KindUnrecognizedFormat:
		return "unrecognized_format"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Error is returned by Parse. Its message is meant to be shown to the user as is.
type Error struct {
	Kind  Kind
	Input string
	msg   string
}

func (e *Error) Error() string { return e.msg }

func newError(kind Kind, input, format string, args ...any) *Error {
	return &Error{Kind: kind, Input: input, msg: fmt.Sprintf(format, args...)}
}
