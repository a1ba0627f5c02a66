package model

import (
	"fmt"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/teambition/rrule-go"

	"plancal/internal/caltime"
)

// Pattern says on which weekdays a series recurs and when it stops: after
// a number of occurrences, or on an end date. Never both, never neither.
type Pattern struct {
	days        uint8 // bit i set = time.Weekday(i)
	occurrences int
	until       caltime.Date
}

// WithOccurrences returns a pattern that stops after n matching days.
func WithOccurrences(days []time.Weekday, n int) (Pattern, error) {
	if n <= 0 {
		return Pattern{}, fmt.Errorf("%w: occurrences must be positive, got %d", ErrInvalidArgument, n)
	}
	return newPattern(days, n, caltime.Date{})
}

// UntilDate returns a pattern that stops after end (inclusive).
func UntilDate(days []time.Weekday, end caltime.Date) (Pattern, error) {
	if end.IsZero() {
		return Pattern{}, fmt.Errorf("%w: end date is required", ErrInvalidArgument)
	}
	return newPattern(days, 0, end)
}

func newPattern(days []time.Weekday, occurrences int, until caltime.Date) (Pattern, error) {
	var mask uint8
	for _, d := range days {
		if d < time.Sunday || d > time.Saturday {
			return Pattern{}, fmt.Errorf("%w: bad weekday %d", ErrInvalidArgument, int(d))
		}
		mask |= 1 << uint(d)
	}
	if mask == 0 {
		return Pattern{}, fmt.Errorf("%w: days of week cannot be empty", ErrInvalidArgument)
	}
	return Pattern{days: mask, occurrences: occurrences, until: until}, nil
}

// IsZero reports whether p was not made by WithOccurrences or UntilDate.
func (p Pattern) IsZero() bool {
	return p.days == 0
}

// Days returns the recurring weekdays, Sunday first.
func (p Pattern) Days() []time.Weekday {
	var out []time.Weekday
	for d := time.Sunday; d <= time.Saturday; d++ {
		if p.Includes(d) {
			out = append(out, d)
		}
	}
	return out
}

// Includes reports whether d is one of the recurring weekdays.
func (p Pattern) Includes(d time.Weekday) bool {
	return p.days&(1<<uint(d)) != 0
}

func (p Pattern) IsOccurrenceBased() bool {
	return p.occurrences > 0
}

// Occurrences is zero for end-date patterns.
func (p Pattern) Occurrences() int {
	return p.occurrences
}

// Until returns the end date of an end-date pattern.
func (p Pattern) Until() (caltime.Date, bool) {
	return p.until, !p.IsOccurrenceBased()
}

func (p Pattern) String() string {
	names := make([]string, 0, 7)
	for _, d := range p.Days() {
		names = append(names, strings.ToUpper(d.String()[:3]))
	}
	if p.IsOccurrenceBased() {
		return fmt.Sprintf("%s x%d", strings.Join(names, ","), p.occurrences)
	}
	return fmt.Sprintf("%s until %s", strings.Join(names, ","), p.until)
}

// rruleOption describes p as a weekly RRULE starting on start. UNTIL is left
// for the caller to bound.
func (p Pattern) rruleOption(start caltime.Date) rrule.ROption {
	opt := rrule.ROption{
		Freq:    rrule.WEEKLY,
		Dtstart: start.Time(),
		Count:   p.occurrences,
	}
	for _, d := range p.Days() {
		opt.Byweekday = append(opt.Byweekday, rruleWeekdays[d])
	}
	return opt
}

var rruleWeekdays = [...]rrule.Weekday{
	time.Sunday:    rrule.SU,
	time.Monday:    rrule.MO,
	time.Tuesday:   rrule.TU,
	time.Wednesday: rrule.WE,
	time.Thursday:  rrule.TH,
	time.Friday:    rrule.FR,
	time.Saturday:  rrule.SA,
}

var weekdayParser = cron.NewParser(cron.Dow)

// ParseWeekdays reads a cron day-of-week field such as "MON-FRI",
// "mon,wed,fri", "0,6" or "*".
func ParseWeekdays(field string) ([]time.Weekday, error) {
	sched, err := weekdayParser.Parse(strings.TrimSpace(field))
	if err != nil {
		return nil, fmt.Errorf("%w: weekdays %q: %v", ErrInvalidArgument, field, err)
	}
	spec, ok := sched.(*cron.SpecSchedule)
	if !ok {
		return nil, fmt.Errorf("%w: weekdays %q: unsupported schedule", ErrInvalidArgument, field)
	}
	var out []time.Weekday
	for d := time.Sunday; d <= time.Saturday; d++ {
		if spec.Dow&(1<<uint(d)) != 0 {
			out = append(out, d)
		}
	}
	return out, nil
}
