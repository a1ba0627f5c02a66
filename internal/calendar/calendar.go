// Package calendar holds the Calendar aggregate: standalone events and
// recurring series under one conflict policy, with the queries that read
// across both.
package calendar

import (
	"fmt"
	"strings"

	"plancal/internal/caltime"
	appLog "plancal/internal/log"
	"plancal/internal/model"
)

var (
	defaultSeriesStart = caltime.ClockOf(9, 0)
	defaultSeriesEnd   = caltime.ClockOf(10, 0)
)

// Calendar owns its events and series. It is not safe for concurrent use;
// callers sharing one must serialize access themselves.
type Calendar struct {
	title  string
	policy ConflictPolicy

	events    []*model.Single
	recurring []*model.RecurringEvent
}

// New returns an empty calendar. The title must not be blank.
func New(title string, policy ConflictPolicy) (*Calendar, error) {
	if strings.TrimSpace(title) == "" {
		return nil, fmt.Errorf("%w: calendar title cannot be empty", model.ErrInvalidArgument)
	}
	if !policy.valid() {
		return nil, fmt.Errorf("%w: unknown conflict policy %d", model.ErrInvalidArgument, int(policy))
	}
	return &Calendar{title: title, policy: policy}, nil
}

func (c *Calendar) Title() string { return c.title }
func (c *Calendar) Policy() ConflictPolicy { return c.policy }

// Events returns the standalone events in insertion order.
func (c *Calendar) Events() []*model.Single {
	out := make([]*model.Single, len(c.events))
	copy(out, c.events)
	return out
}

// RecurringEvents returns the series in insertion order.
func (c *Calendar) RecurringEvents() []*model.RecurringEvent {
	out := make([]*model.RecurringEvent, len(c.recurring))
	copy(out, c.recurring)
	return out
}

// AddEvent stores e unless a standalone event with the same subject, start
// date and start time already exists, or, under RejectConflicts, e overlaps
// any stored event or series instance. A refusal is reported as false with a
// nil error; the calendar is left unchanged.
func (c *Calendar) AddEvent(e *model.Single) (bool, error) {
	if e == nil {
		return false, fmt.Errorf("%w: event cannot be nil", model.ErrInvalidArgument)
	}
	for _, existing := range c.events {
		if model.SameKey(existing, e) {
			appLog.Debug("event rejected", "reason", "duplicate", "event", model.KeyOf(e).String())
			return false, nil
		}
	}
	if c.policy == RejectConflicts && c.hasConflict(e) {
		appLog.Debug("event rejected", "reason", "conflict", "event", model.KeyOf(e).String())
		return false, nil
	}
	c.events = append(c.events, e)
	return true, nil
}

// UpdateEvent replaces original, which must be the very value stored in the
// calendar, with the event updates builds. Under RejectConflicts the
// replacement is checked against the other standalone events only.
func (c *Calendar) UpdateEvent(original *model.Single, updates *model.Builder) (bool, error) {
	if original == nil || updates == nil {
		return false, fmt.Errorf("%w: original event and updates cannot be nil", model.ErrInvalidArgument)
	}
	idx := c.indexOf(original)
	if idx < 0 {
		return false, nil
	}

	updated, err := updates.Build()
	if err != nil {
		return false, fmt.Errorf("update %s: %w", model.KeyOf(original), err)
	}

	if c.policy == RejectConflicts {
		for i, existing := range c.events {
			if i != idx && model.ConflictsWith(existing, updated) {
				appLog.Debug("update rejected", "reason", "conflict",
					"event", model.KeyOf(original).String(),
					"with", model.KeyOf(existing).String(),
				)
				return false, nil
			}
		}
	}

	c.events[idx] = updated
	return true, nil
}

// RemoveEvent drops e, matched by identity. It reports whether e was stored.
func (c *Calendar) RemoveEvent(e *model.Single) bool {
	idx := c.indexOf(e)
	if idx < 0 {
		return false
	}
	c.events = append(c.events[:idx], c.events[idx+1:]...)
	return true
}

func (c *Calendar) indexOf(e *model.Single) int {
	for i, existing := range c.events {
		if existing == e {
			return i
		}
	}
	return -1
}

// AddRecurringEvent expands a series from template and pattern, starting on
// startDate, and stores it.
//
// The template supplies subject, visibility, description and location, plus
// the start and end times, which default to 09:00 and 10:00. Its dates are
// ignored. Under RejectConflicts the series is refused as a whole with a
// *RecurringConflictError naming the first instance that overlaps an existing
// event or instance.
func (c *Calendar) AddRecurringEvent(template *model.Builder, pattern model.Pattern, startDate caltime.Date) (*model.RecurringEvent, error) {
	if template == nil || pattern.IsZero() || startDate.IsZero() {
		return nil, fmt.Errorf("%w: template, pattern and start date are required", model.ErrInvalidArgument)
	}

	base, err := template.Build()
	if err != nil {
		return nil, fmt.Errorf("recurring template: %w", err)
	}

	spec := model.SeriesSpec{
		Subject:     base.Subject(),
		StartTime:   defaultSeriesStart,
		Visibility:  base.Visibility(),
		Description: base.Description(),
		Location:    base.Location(),
	}
	if t, ok := base.StartTime(); ok {
		spec.StartTime = t
	}
	end := defaultSeriesEnd
	if t, ok := base.EndTime(); ok {
		end = t
	}
	spec.EndTime = &end

	series, err := model.NewRecurringEvent(spec, pattern, startDate)
	if err != nil {
		return nil, err
	}

	if c.policy == RejectConflicts {
		for _, inst := range series.Instances() {
			if c.hasConflict(inst) {
				appLog.Debug("recurring event rejected",
					"subject", spec.Subject,
					"date", inst.StartDate().String(),
				)
				return nil, &RecurringConflictError{Date: inst.StartDate()}
			}
		}
	}

	c.recurring = append(c.recurring, series)
	return series, nil
}

// RemoveRecurringEvent drops the series r and every instance of it.
func (c *Calendar) RemoveRecurringEvent(r *model.RecurringEvent) bool {
	for i, existing := range c.recurring {
		if existing == r {
			c.recurring = append(c.recurring[:i], c.recurring[i+1:]...)
			return true
		}
	}
	return false
}

// hasConflict reports whether e overlaps any standalone event or any
// instance of any series.
func (c *Calendar) hasConflict(e model.Event) bool {
	for _, existing := range c.events {
		if model.ConflictsWith(existing, e) {
			return true
		}
	}
	for _, r := range c.recurring {
		for _, inst := range r.Instances() {
			if model.ConflictsWith(inst, e) {
				return true
			}
		}
	}
	return false
}
