package model

import (
	"fmt"

	"plancal/internal/caltime"
)

// Instance is one dated occurrence of a RecurringEvent. Until it is
// modified every getter answers from the parent series; afterwards every
// getter answers from the override.
type Instance struct {
	parent   *RecurringEvent
	date     caltime.Date
	modified bool
	override *Single
}

// Parent returns the series that generated i.
func (i *Instance) Parent() *RecurringEvent { return i.parent }

// Date returns the date i was generated for. It does not change when i is
// modified; StartDate does.
func (i *Instance) Date() caltime.Date { return i.date }

func (i *Instance) IsModified() bool { return i.modified }

// Modify replaces the contents of i with the event updates builds. The
// override is complete: nothing is merged from the series.
func (i *Instance) Modify(updates *Builder) error {
	if updates == nil {
		return fmt.Errorf("%w: modify instance: nil updates", ErrInvalidArgument)
	}
	s, err := updates.Build()
	if err != nil {
		return fmt.Errorf("modify instance %s: %w", i.date, err)
	}
	i.apply(s)
	return nil
}

func (i *Instance) apply(s *Single) {
	i.override = s
	i.modified = true
}

func (i *Instance) current() *Single {
	if i.modified && i.override != nil {
		return i.override
	}
	return nil
}

func (i *Instance) Subject() string {
	if s := i.current(); s != nil {
		return s.Subject()
	}
	return i.parent.spec.Subject
}

func (i *Instance) StartDate() caltime.Date {
	if s := i.current(); s != nil {
		return s.StartDate()
	}
	return i.date
}

func (i *Instance) StartTime() (caltime.Clock, bool) {
	if s := i.current(); s != nil {
		return s.StartTime()
	}
	return i.parent.spec.StartTime, true
}

func (i *Instance) EndDate() (caltime.Date, bool) {
	if s := i.current(); s != nil {
		return s.EndDate()
	}
	return i.date, true
}

func (i *Instance) EndTime() (caltime.Clock, bool) {
	if s := i.current(); s != nil {
		return s.EndTime()
	}
	return optClock(i.parent.spec.EndTime)
}

func (i *Instance) Visibility() Visibility {
	if s := i.current(); s != nil {
		return s.Visibility()
	}
	return i.parent.spec.Visibility
}

func (i *Instance) Description() string {
	if s := i.current(); s != nil {
		return s.Description()
	}
	return i.parent.spec.Description
}

func (i *Instance) Location() string {
	if s := i.current(); s != nil {
		return s.Location()
	}
	return i.parent.spec.Location
}

// IsAllDay is false for unmodified instances, which always carry the
// series start time.
func (i *Instance) IsAllDay() bool {
	_, timed := i.StartTime()
	return !timed
}

func (i *Instance) sealed() {}

func (i *Instance) String() string {
	return fmt.Sprintf("Instance[%s]", KeyOf(i))
}
