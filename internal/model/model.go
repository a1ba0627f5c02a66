// Package model holds the calendar's event types: standalone events, the
// builder that validates them, recurrence patterns and recurring series with
// their dated instances.
package model

import (
	"fmt"
	"strings"

	"plancal/internal/caltime"
)

// Visibility controls whether an event is shown to others.
type Visibility int

const (
	Public Visibility = iota
	Private
)

func (v Visibility) String() string {
	switch v {
	case Public:
		return "PUBLIC"
	case Private:
		return "PRIVATE"
	}
	return fmt.Sprintf("Visibility(%d)", int(v))
}

// MarshalText implements encoding.TextMarshaler.
func (v Visibility) MarshalText() ([]byte, error) {
	return []byte(v.String()), nil
}

// UnmarshalText accepts PUBLIC or PRIVATE in any case.
func (v *Visibility) UnmarshalText(text []byte) error {
	switch strings.ToUpper(strings.TrimSpace(string(text))) {
	case "PUBLIC", "":
		*v = Public
	case "PRIVATE":
		*v = Private
	default:
		return fmt.Errorf("%w: unknown visibility %q", ErrInvalidArgument, string(text))
	}
	return nil
}

// Event is the read surface shared by standalone events and recurring
// instances. Exporters and queries only ever see this interface.
//
// Only *Single and *Instance implement it.
type Event interface {
	Subject() string
	StartDate() caltime.Date
	// StartTime is absent for all-day events.
	StartTime() (caltime.Clock, bool)
	EndDate() (caltime.Date, bool)
	EndTime() (caltime.Clock, bool)
	Visibility() Visibility
	Description() string
	Location() string
	IsAllDay() bool

	sealed()
}

// Key is the identity of an event: subject, start date and start time.
// Description, location and end fields take no part in it.
type Key struct {
	Subject   string
	StartDate caltime.Date
	StartTime caltime.Clock
	Timed     bool
}

// KeyOf returns the identity of e, using its effective values.
func KeyOf(e Event) Key {
	k := Key{Subject: e.Subject(), StartDate: e.StartDate()}
	k.StartTime, k.Timed = e.StartTime()
	return k
}

// SameKey reports whether a and b share subject, start date and start time.
func SameKey(a, b Event) bool {
	return KeyOf(a) == KeyOf(b)
}

func (k Key) String() string {
	if !k.Timed {
		return fmt.Sprintf("%s @ %s (all day)", k.Subject, k.StartDate)
	}
	return fmt.Sprintf("%s @ %s %s", k.Subject, k.StartDate, k.StartTime)
}
