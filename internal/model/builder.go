package model

import (
	"strings"

	"plancal/internal/caltime"
)

// Builder accumulates the fields of a Single. Setters never fail; every rule
// is checked in Build.
//
// A Builder is also how updates are expressed: seed one with From and
// change the fields that should differ.
type Builder struct {
	subject     string
	startDate   *caltime.Date
	startTime   *caltime.Clock
	visibility  Visibility
	description string
	endDate     *caltime.Date
	endTime     *caltime.Clock
	location    string
}

// NewBuilder returns an empty Builder with public visibility.
func NewBuilder() *Builder {
	return &Builder{visibility: Public}
}

// From returns a Builder seeded with the current values of e.
func From(e Event) *Builder {
	b := NewBuilder().
		Subject(e.Subject()).
		StartDate(e.StartDate()).
		Visibility(e.Visibility()).
		Description(e.Description()).
		Location(e.Location())
	if c, ok := e.StartTime(); ok {
		b.StartTime(c)
	}
	if d, ok := e.EndDate(); ok {
		b.EndDate(d)
	}
	if c, ok := e.EndTime(); ok {
		b.EndTime(c)
	}
	return b
}

// Clone returns an independent copy of b.
func (b *Builder) Clone() *Builder {
	c := *b
	return &c
}

func (b *Builder) Subject(s string) *Builder {
	b.subject = s
	return b
}

func (b *Builder) StartDate(d caltime.Date) *Builder {
	b.startDate = &d
	return b
}

func (b *Builder) StartTime(c caltime.Clock) *Builder {
	b.startTime = &c
	return b
}

// AllDay clears the start and end times.
func (b *Builder) AllDay() *Builder {
	b.startTime = nil
	b.endTime = nil
	return b
}

func (b *Builder) EndDate(d caltime.Date) *Builder {
	b.endDate = &d
	return b
}

// NoEndDate clears the end date.
func (b *Builder) NoEndDate() *Builder {
	b.endDate = nil
	return b
}

func (b *Builder) EndTime(c caltime.Clock) *Builder {
	b.endTime = &c
	return b
}

// NoEndTime clears the end time.
func (b *Builder) NoEndTime() *Builder {
	b.endTime = nil
	return b
}

func (b *Builder) Visibility(v Visibility) *Builder {
	b.visibility = v
	return b
}

func (b *Builder) Description(s string) *Builder {
	b.description = s
	return b
}

func (b *Builder) Location(s string) *Builder {
	b.location = s
	return b
}

// Build validates the accumulated fields and returns the event.
//
// A timed event without an end date gets its start date as end date. The
// default is written back into the builder, so a later Build or From sees it.
// A zero-length event (end time equal to start time) is accepted.
func (b *Builder) Build() (*Single, error) {
	if err := b.validate(); err != nil {
		return nil, err
	}
	return &Single{
		subject:     b.subject,
		startDate:   *b.startDate,
		startTime:   copyClock(b.startTime),
		visibility:  b.visibility,
		description: b.description,
		endDate:     copyDate(b.endDate),
		endTime:     copyClock(b.endTime),
		location:    b.location,
	}, nil
}

func (b *Builder) validate() error {
	if strings.TrimSpace(b.subject) == "" {
		return ErrSubjectRequired
	}
	if b.startDate == nil || b.startDate.IsZero() {
		return ErrStartDateRequired
	}
	if b.startTime == nil && b.endTime != nil {
		return ErrEndTimeWithoutStart
	}
	if b.startTime != nil && b.endDate == nil {
		b.EndDate(*b.startDate)
	}
	if b.endDate != nil && b.endDate.Before(*b.startDate) {
		return ErrEndDateBeforeStart
	}
	if b.startTime != nil && b.endTime != nil && b.endDate != nil &&
		*b.endDate == *b.startDate && b.endTime.Before(*b.startTime) {
		return ErrEndTimeBeforeStart
	}
	return nil
}

func copyClock(c *caltime.Clock) *caltime.Clock {
	if c == nil {
		return nil
	}
	v := *c
	return &v
}

func copyDate(d *caltime.Date) *caltime.Date {
	if d == nil {
		return nil
	}
	v := *d
	return &v
}
