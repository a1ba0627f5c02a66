package model

import (
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/teambition/rrule-go"

	"plancal/internal/caltime"
	appLog "plancal/internal/log"
)

// horizonYears bounds expansion of any pattern, counted from the seed date.
const horizonYears = 5

// SeriesSpec carries the fields every instance of a series inherits.
type SeriesSpec struct {
	Subject     string
	StartTime   caltime.Clock
	EndTime     *caltime.Clock
	Visibility  Visibility
	Description string
	Location    string
}

// RecurringEvent is a series: shared fields, a pattern, and the instances
// the pattern produced. The set of instance dates is fixed at construction;
// only their contents change afterwards, through the Modify methods.
type RecurringEvent struct {
	id        uuid.UUID
	spec      SeriesSpec
	pattern   Pattern
	startDate caltime.Date

	instances []*Instance // ascending by date
	byDate    map[caltime.Date]*Instance
}

// NewRecurringEvent expands pattern from startDate and returns the series.
func NewRecurringEvent(spec SeriesSpec, pattern Pattern, startDate caltime.Date) (*RecurringEvent, error) {
	if strings.TrimSpace(spec.Subject) == "" {
		return nil, fmt.Errorf("%w: series subject is required", ErrInvalidArgument)
	}
	if pattern.IsZero() {
		return nil, fmt.Errorf("%w: series pattern is required", ErrInvalidArgument)
	}
	if startDate.IsZero() {
		return nil, fmt.Errorf("%w: series start date is required", ErrInvalidArgument)
	}
	if spec.EndTime != nil {
		end := *spec.EndTime
		spec.EndTime = &end
	}

	dates, err := expandDates(pattern, startDate)
	if err != nil {
		return nil, err
	}

	r := &RecurringEvent{
		id:        uuid.New(),
		spec:      spec,
		pattern:   pattern,
		startDate: startDate,
		instances: make([]*Instance, 0, len(dates)),
		byDate:    make(map[caltime.Date]*Instance, len(dates)),
	}
	for _, d := range dates {
		inst := &Instance{parent: r, date: d}
		r.instances = append(r.instances, inst)
		r.byDate[d] = inst
	}

	appLog.Debug("recurring event expanded",
		"subject", spec.Subject,
		"pattern", pattern.String(),
		"start", startDate.String(),
		"instances", len(r.instances),
	)
	return r, nil
}

// expandDates lists every date from start on whose weekday is in the
// pattern, until the pattern's count or end date is reached. Nothing past
// start + horizonYears is produced whatever the pattern says.
func expandDates(p Pattern, start caltime.Date) ([]caltime.Date, error) {
	limit := start.AddYears(horizonYears)
	until := limit
	if end, ok := p.Until(); ok && end.Before(until) {
		until = end
	}
	if until.Before(start) {
		return nil, nil
	}

	opt := p.rruleOption(start)
	opt.Until = until.Time()
	r, err := rrule.NewRRule(opt)
	if err != nil {
		return nil, fmt.Errorf("expand %s: %w", p, err)
	}

	times := r.All()
	if p.IsOccurrenceBased() && len(times) > p.Occurrences() {
		times = times[:p.Occurrences()]
	}

	dates := make([]caltime.Date, 0, len(times))
	for _, t := range times {
		dates = append(dates, caltime.DateOf(t))
	}

	if p.IsOccurrenceBased() && len(dates) < p.Occurrences() {
		appLog.Debug("recurrence truncated at horizon",
			"pattern", p.String(),
			"start", start.String(),
			"limit", limit.String(),
			"produced", len(dates),
		)
	}
	return dates, nil
}

func (r *RecurringEvent) ID() uuid.UUID { return r.id }
func (r *RecurringEvent) Subject() string { return r.spec.Subject }
func (r *RecurringEvent) StartTime() caltime.Clock { return r.spec.StartTime }
func (r *RecurringEvent) Visibility() Visibility { return r.spec.Visibility }
func (r *RecurringEvent) Description() string { return r.spec.Description }
func (r *RecurringEvent) Location() string { return r.spec.Location }
func (r *RecurringEvent) Pattern() Pattern { return r.pattern }
func (r *RecurringEvent) StartDate() caltime.Date { return r.startDate }
func (r *RecurringEvent) EndTime() (caltime.Clock, bool) { return optClock(r.spec.EndTime) }

// Len returns the number of instances.
func (r *RecurringEvent) Len() int {
	return len(r.instances)
}

// Instances returns the instances in date order. The slice is a copy; the
// instances are shared.
func (r *RecurringEvent) Instances() []*Instance {
	out := make([]*Instance, len(r.instances))
	copy(out, r.instances)
	return out
}

// Instance returns the instance generated for date d.
func (r *RecurringEvent) Instance(d caltime.Date) (*Instance, bool) {
	inst, ok := r.byDate[d]
	return inst, ok
}

// InstancesBetween returns the instances generated for dates in the
// inclusive range [from, to], in date order.
func (r *RecurringEvent) InstancesBetween(from, to caltime.Date) []*Instance {
	lo := sort.Search(len(r.instances), func(i int) bool {
		return !r.instances[i].date.Before(from)
	})
	hi := sort.Search(len(r.instances), func(i int) bool {
		return r.instances[i].date.After(to)
	})
	if lo >= hi {
		return nil
	}
	out := make([]*Instance, hi-lo)
	copy(out, r.instances[lo:hi])
	return out
}

// ModifyInstance overrides the instance generated for d. Nothing happens
// when the series has no instance on d.
func (r *RecurringEvent) ModifyInstance(d caltime.Date, updates *Builder) error {
	inst, ok := r.byDate[d]
	if !ok {
		return nil
	}
	return inst.Modify(updates)
}

// ModifyFrom overrides every instance generated on or after d.
func (r *RecurringEvent) ModifyFrom(d caltime.Date, updates *Builder) error {
	return r.modifyWhere(updates, func(inst *Instance) bool {
		return !inst.date.Before(d)
	})
}

// ModifyAll overrides every instance.
func (r *RecurringEvent) ModifyAll(updates *Builder) error {
	return r.modifyWhere(updates, func(*Instance) bool { return true })
}

// modifyWhere builds updates once and applies the result to the matching
// instances. A build failure leaves every instance untouched.
func (r *RecurringEvent) modifyWhere(updates *Builder, match func(*Instance) bool) error {
	if updates == nil {
		return fmt.Errorf("%w: modify series: nil updates", ErrInvalidArgument)
	}
	override, err := updates.Build()
	if err != nil {
		return fmt.Errorf("modify series %q: %w", r.spec.Subject, err)
	}
	for _, inst := range r.instances {
		if match(inst) {
			inst.apply(override)
		}
	}
	return nil
}
