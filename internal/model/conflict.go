package model

import (
	"fmt"
	"time"

	"plancal/internal/caltime"
)

// defaultDuration is assumed for a timed event that has no end time.
const defaultDuration = time.Hour

// StartDateTime is the start of e as an instant; all-day events start at
// midnight.
func StartDateTime(e Event) time.Time {
	if c, ok := e.StartTime(); ok {
		return c.On(e.StartDate())
	}
	return caltime.StartOfDay(e.StartDate())
}

// EndDateTime is the end of e as an instant.
//
// For a standalone event: end date + end time when both are set. A timed
// event without an end time lasts one hour, unless its end date is later
// than its start date, in which case it runs to the end of that date. An
// all-day event runs to the end of its end date, or of its start date.
//
// For a recurring instance: end time on the end date (or the start date), or
// one hour after the start when no end time is set.
//
// The one-hour default is added to the start instant, so it may cross
// midnight.
func EndDateTime(e Event) time.Time {
	start, timed := e.StartTime()
	endDate, hasEndDate := e.EndDate()
	endTime, hasEndTime := e.EndTime()
	if !hasEndDate {
		endDate = e.StartDate()
	}

	if _, ok := e.(*Instance); ok {
		if !hasEndTime {
			return StartDateTime(e).Add(defaultDuration)
		}
		return endTime.On(endDate)
	}

	switch {
	case timed && hasEndTime:
		return endTime.On(endDate)
	case timed && endDate == e.StartDate():
		return start.On(endDate).Add(defaultDuration)
	default:
		return caltime.EndOfDay(endDate)
	}
}

// ConflictsWith reports whether self and other occupy overlapping time.
//
// When self is a standalone event and both sides are all-day, their day
// ranges are compared inclusively. Everything else compares instants, and
// spans that only touch do not conflict.
func ConflictsWith(self, other Event) bool {
	if _, ok := self.(*Instance); ok {
		return StartDateTime(other).Before(EndDateTime(self)) &&
			StartDateTime(self).Before(EndDateTime(other))
	}
	if self.IsAllDay() && other.IsAllDay() {
		return caltime.DatesOverlap(self.StartDate(), lastDate(self), other.StartDate(), lastDate(other))
	}
	return caltime.Overlaps(StartDateTime(self), EndDateTime(self), StartDateTime(other), EndDateTime(other))
}

// WithUpdates applies updates to e. A standalone event is immutable, so a
// new one is returned; a recurring instance is modified in place and
// returned.
func WithUpdates(e Event, updates *Builder) (Event, error) {
	if updates == nil {
		return nil, fmt.Errorf("%w: nil updates", ErrInvalidArgument)
	}
	switch ev := e.(type) {
	case *Instance:
		if err := ev.Modify(updates); err != nil {
			return nil, err
		}
		return ev, nil
	case *Single:
		return updates.Build()
	default:
		return nil, fmt.Errorf("%w: unknown event type %T", ErrInvalidArgument, e)
	}
}

// ActiveOn reports whether d falls within e's inclusive date span. A missing
// end date means the event lasts one day.
func ActiveOn(e Event, d caltime.Date) bool {
	return caltime.Contains(e.StartDate(), lastDate(e), d)
}

// lastDate is the end date of e, or its start date when none is set.
func lastDate(e Event) caltime.Date {
	if d, ok := e.EndDate(); ok {
		return d
	}
	return e.StartDate()
}
