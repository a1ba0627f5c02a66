package calendar

import (
	"fmt"
	"sort"
	"time"

	"plancal/internal/caltime"
	"plancal/internal/model"
)

// Event looks up a standalone event by subject, start date and start time.
// A nil at matches only all-day events. Series instances are not searched.
func (c *Calendar) Event(subject string, date caltime.Date, at *caltime.Clock) (*model.Single, bool) {
	want := model.Key{Subject: subject, StartDate: date}
	if at != nil {
		want.StartTime, want.Timed = *at, true
	}
	for _, e := range c.events {
		if model.KeyOf(e) == want {
			return e, true
		}
	}
	return nil, false
}

// EventsOnDate returns the standalone events whose date span contains date,
// followed by each series' instance generated for date.
func (c *Calendar) EventsOnDate(date caltime.Date) []model.Event {
	var out []model.Event
	for _, e := range c.events {
		if model.ActiveOn(e, date) {
			out = append(out, e)
		}
	}
	for _, r := range c.recurring {
		if inst, ok := r.Instance(date); ok {
			out = append(out, inst)
		}
	}
	return out
}

// EventsInRange returns every standalone event whose date span touches
// [start, end] and every instance generated for a date inside it. Events
// sharing a variant and identity key are reported once. The result is sorted
// by start date, then start time, all-day events first.
func (c *Calendar) EventsInRange(start, end caltime.Date) ([]model.Event, error) {
	if start.After(end) {
		return nil, fmt.Errorf("%w: range start %s is after end %s", model.ErrInvalidArgument, start, end)
	}

	var found []model.Event
	for _, e := range c.events {
		last, ok := e.EndDate()
		if !ok {
			last = e.StartDate()
		}
		if caltime.DatesOverlap(e.StartDate(), last, start, end) {
			found = append(found, e)
		}
	}
	for _, r := range c.recurring {
		for _, inst := range r.InstancesBetween(start, end) {
			found = append(found, inst)
		}
	}

	out := dedupe(found)
	sort.SliceStable(out, func(i, j int) bool {
		return lessByStart(out[i], out[j])
	})
	return out, nil
}

type dedupeKey struct {
	instance bool
	key      model.Key
}

func dedupe(events []model.Event) []model.Event {
	seen := make(map[dedupeKey]struct{}, len(events))
	out := events[:0]
	for _, e := range events {
		_, isInstance := e.(*model.Instance)
		k := dedupeKey{instance: isInstance, key: model.KeyOf(e)}
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, e)
	}
	return out
}

func lessByStart(a, b model.Event) bool {
	if c := a.StartDate().Compare(b.StartDate()); c != 0 {
		return c < 0
	}
	at, aTimed := a.StartTime()
	bt, bTimed := b.StartTime()
	if aTimed != bTimed {
		return !aTimed
	}
	return at.Before(bt)
}

// AllEvents returns the standalone events followed by every instance of
// every series, series in insertion order and instances by date.
func (c *Calendar) AllEvents() []model.Event {
	out := make([]model.Event, 0, len(c.events))
	for _, e := range c.events {
		out = append(out, e)
	}
	for _, r := range c.recurring {
		for _, inst := range r.Instances() {
			out = append(out, inst)
		}
	}
	return out
}

// IsBusy reports whether any event covers the wall-clock time at on date.
func (c *Calendar) IsBusy(date caltime.Date, at caltime.Clock) bool {
	for _, e := range c.events {
		if covers(e, date, at) {
			return true
		}
	}
	for _, r := range c.recurring {
		if inst, ok := r.Instance(date); ok && covers(inst, date, at) {
			return true
		}
	}
	return false
}

// defaultDuration is how long a timed event without an end time lasts.
const defaultDuration = time.Hour

// covers reports whether e occupies at on date. All-day events cover their
// whole span. A timed event covers [start, end) on a single day; over several
// days it covers from start on the first day, until end on the last, and
// everything in between.
func covers(e model.Event, date caltime.Date, at caltime.Clock) bool {
	if !model.ActiveOn(e, date) {
		return false
	}
	start, timed := e.StartTime()
	if !timed {
		return true
	}
	end, ok := e.EndTime()
	toMidnight := false
	if !ok {
		end = start.Add(defaultDuration)
		toMidnight = end.Before(start)
	}

	first := e.StartDate()
	last, ok := e.EndDate()
	if !ok {
		last = first
	}
	switch {
	case date == first && date == last:
		return !at.Before(start) && (toMidnight || at.Before(end))
	case date == first:
		return !at.Before(start)
	case date == last:
		return at.Before(end)
	default:
		return true
	}
}
