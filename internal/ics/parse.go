package ics

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"

	"plancal/internal/caltime"
	appLog "plancal/internal/log"
	"plancal/internal/model"
)

// ParsedEvent is the normalized representation of a VEVENT. Times carrying
// a zone or UTC marker are converted to the import location; floating times
// keep their wall clock.
type ParsedEvent struct {
	UID string

	Summary     string
	Description string
	Location    string
	Private     bool

	Start  time.Time
	End    time.Time // zero when DTEND is absent
	AllDay bool

	RawRRule string
}

// Parse reads one ICS payload. VEVENTs that cannot be understood are logged
// and skipped; only an unreadable calendar is an error.
func Parse(r io.Reader, loc *time.Location) ([]ParsedEvent, error) {
	if loc == nil {
		loc = time.Local
	}

	cal, err := ical.ParseCalendar(r)
	if err != nil {
		appLog.Error("ics parse failed", err)
		return nil, fmt.Errorf("parse ics: %w", err)
	}

	events := make([]ParsedEvent, 0)
	for _, comp := range cal.Events() {
		ev, perr := parseVEvent(comp, loc)
		if perr != nil {
			// Log and skip this event, but keep parsing others.
			appLog.Error("ics vevent parse failed", perr, "uid", comp.Id())
			continue
		}
		events = append(events, ev)
	}

	appLog.Debug("ics parse completed", "event_count", len(events))
	return events, nil
}

func parseVEvent(ve *ical.VEvent, loc *time.Location) (ParsedEvent, error) {
	var out ParsedEvent
	out.UID = ve.Id()

	if p := ve.GetProperty(ical.ComponentPropertySummary); p != nil {
		out.Summary = p.Value
	}
	if strings.TrimSpace(out.Summary) == "" {
		return out, errors.New("missing SUMMARY")
	}
	if p := ve.GetProperty(ical.ComponentPropertyDescription); p != nil {
		out.Description = p.Value
	}
	if p := ve.GetProperty(ical.ComponentPropertyLocation); p != nil {
		out.Location = p.Value
	}
	if p := ve.GetProperty(ical.ComponentPropertyClass); p != nil {
		out.Private = strings.EqualFold(p.Value, string(ical.ClassificationPrivate)) ||
			strings.EqualFold(p.Value, string(ical.ClassificationConfidential))
	}

	dtStart := ve.GetProperty(ical.ComponentPropertyDtStart)
	if dtStart == nil {
		return out, errors.New("missing DTSTART")
	}
	out.AllDay = isDateValue(dtStart)

	if out.AllDay {
		start, err := ve.GetAllDayStartAt()
		if err != nil {
			return out, fmt.Errorf("DTSTART: %w", err)
		}
		out.Start = start
		if end, err := ve.GetAllDayEndAt(); err == nil {
			out.End = end
		}
	} else {
		start, err := ve.GetStartAt()
		if err != nil {
			return out, fmt.Errorf("DTSTART: %w", err)
		}
		out.Start = wallClock(dtStart, start, loc)
		if dtEnd := ve.GetProperty(ical.ComponentPropertyDtEnd); dtEnd != nil {
			if end, err := ve.GetEndAt(); err == nil {
				out.End = wallClock(dtEnd, end, loc)
			}
		}
	}

	if !out.End.IsZero() && out.End.Before(out.Start) {
		return out, fmt.Errorf("DTEND %s before DTSTART %s", out.End, out.Start)
	}

	if p := ve.GetProperty(ical.ComponentPropertyRrule); p != nil {
		out.RawRRule = p.Value
	}
	return out, nil
}

// isDateValue reports whether a DTSTART carries a date without a time,
// either through VALUE=DATE or by its YYYYMMDD form.
func isDateValue(p *ical.IANAProperty) bool {
	if vs, ok := p.ICalParameters[string(ical.ParameterValue)]; ok && len(vs) > 0 && strings.EqualFold(vs[0], "DATE") {
		return true
	}
	return !strings.Contains(p.Value, "T")
}

// wallClock moves t into loc unless the property was floating (no TZID, no
// trailing Z), in which case its wall clock is already the one to keep.
func wallClock(p *ical.IANAProperty, t time.Time, loc *time.Location) time.Time {
	_, zoned := p.ICalParameters["TZID"]
	if !zoned && !strings.HasSuffix(p.Value, "Z") {
		return t
	}
	return t.In(loc)
}

// Builder turns the event into a model builder. All-day DTEND is exclusive,
// so the last day is the day before it.
func (p ParsedEvent) Builder() *model.Builder {
	b := model.NewBuilder().
		Subject(p.Summary).
		StartDate(caltime.DateOf(p.Start)).
		Description(p.Description).
		Location(p.Location)
	if p.Private {
		b.Visibility(model.Private)
	}

	if p.AllDay {
		if !p.End.IsZero() {
			last := caltime.DateOf(p.End).AddDays(-1)
			if last.After(caltime.DateOf(p.Start)) {
				b.EndDate(last)
			}
		}
		return b
	}

	b.StartTime(caltime.ClockOfTime(p.Start))
	if !p.End.IsZero() {
		b.EndDate(caltime.DateOf(p.End)).EndTime(caltime.ClockOfTime(p.End))
	}
	return b
}
