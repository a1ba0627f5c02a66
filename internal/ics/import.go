package ics

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/teambition/rrule-go"

	"plancal/internal/calendar"
	"plancal/internal/caltime"
	appLog "plancal/internal/log"
	"plancal/internal/model"
)

// ErrUnsupportedRule marks an RRULE the calendar cannot represent.
var ErrUnsupportedRule = errors.New("unsupported recurrence rule")

// ImportResult counts what happened to each VEVENT of an import.
type ImportResult struct {
	Added    int // standalone events stored
	Series   int // recurring series stored
	Rejected int // refused as duplicates or conflicts
	Skipped  int // invalid or not representable
}

func (r ImportResult) String() string {
	return fmt.Sprintf("added=%d series=%d rejected=%d skipped=%d", r.Added, r.Series, r.Rejected, r.Skipped)
}

// ImportOptions controls an import. A nil Location means time.Local.
type ImportOptions struct {
	Location *time.Location
}

// Import parses r and stores its events in cal. Events without an RRULE
// become standalone events; weekly rules bounded by COUNT or UNTIL become
// series. Anything else is skipped and logged.
func Import(cal *calendar.Calendar, r io.Reader, opts ImportOptions) (ImportResult, error) {
	var res ImportResult
	if cal == nil {
		return res, fmt.Errorf("%w: calendar cannot be nil", model.ErrInvalidArgument)
	}

	events, err := Parse(r, opts.Location)
	if err != nil {
		return res, err
	}

	for _, ev := range events {
		if ev.RawRRule == "" {
			importSingle(cal, ev, &res)
			continue
		}
		importSeries(cal, ev, &res)
	}

	appLog.Info("ics import completed", "calendar", cal.Title(), "result", res.String())
	return res, nil
}

func importSingle(cal *calendar.Calendar, ev ParsedEvent, res *ImportResult) {
	e, err := ev.Builder().Build()
	if err != nil {
		res.Skipped++
		appLog.Error("ics event invalid", err, "uid", ev.UID, "summary", ev.Summary)
		return
	}
	ok, err := cal.AddEvent(e)
	switch {
	case err != nil:
		res.Skipped++
		appLog.Error("ics event not added", err, "uid", ev.UID)
	case !ok:
		res.Rejected++
		appLog.Debug("ics event rejected", "uid", ev.UID, "summary", ev.Summary)
	default:
		res.Added++
	}
}

func importSeries(cal *calendar.Calendar, ev ParsedEvent, res *ImportResult) {
	if ev.AllDay {
		res.Skipped++
		appLog.Warn("ics all-day recurrence skipped", "uid", ev.UID, "summary", ev.Summary)
		return
	}
	start := caltime.DateOf(ev.Start)
	pattern, err := PatternFromRRule(ev.RawRRule, start)
	if err != nil {
		res.Skipped++
		appLog.Warn("ics recurrence skipped", "uid", ev.UID, "rrule", ev.RawRRule, "err", err)
		return
	}

	_, err = cal.AddRecurringEvent(ev.Builder(), pattern, start)
	switch {
	case errors.Is(err, calendar.ErrRecurringConflict):
		res.Rejected++
		appLog.Debug("ics series rejected", "uid", ev.UID, "err", err)
	case err != nil:
		res.Skipped++
		appLog.Error("ics series not added", err, "uid", ev.UID)
	default:
		res.Series++
	}
}

// PatternFromRRule converts a weekly RRULE into a Pattern. BYDAY defaults to
// the weekday of start. COUNT or UNTIL is required; INTERVAL other than 1
// and any other BYxxx part are refused.
func PatternFromRRule(rule string, start caltime.Date) (model.Pattern, error) {
	opt, err := rrule.StrToROption(strings.TrimPrefix(strings.TrimSpace(rule), "RRULE:"))
	if err != nil {
		return model.Pattern{}, fmt.Errorf("%w: %v", ErrUnsupportedRule, err)
	}
	if opt.Freq != rrule.WEEKLY {
		return model.Pattern{}, fmt.Errorf("%w: FREQ=%s", ErrUnsupportedRule, opt.Freq)
	}
	if opt.Interval > 1 {
		return model.Pattern{}, fmt.Errorf("%w: INTERVAL=%d", ErrUnsupportedRule, opt.Interval)
	}
	if len(opt.Bymonth) > 0 || len(opt.Bymonthday) > 0 || len(opt.Bysetpos) > 0 ||
		len(opt.Byyearday) > 0 || len(opt.Byweekno) > 0 {
		return model.Pattern{}, fmt.Errorf("%w: only BYDAY is understood", ErrUnsupportedRule)
	}

	days := []time.Weekday{start.Weekday()}
	if len(opt.Byweekday) > 0 {
		days = days[:0]
		for _, wd := range opt.Byweekday {
			if wd.N() != 0 {
				return model.Pattern{}, fmt.Errorf("%w: BYDAY with ordinal", ErrUnsupportedRule)
			}
			// rrule counts Monday as 0.
			days = append(days, time.Weekday((wd.Day()+1)%7))
		}
	}

	switch {
	case opt.Count > 0:
		return model.WithOccurrences(days, opt.Count)
	case !opt.Until.IsZero():
		return model.UntilDate(days, caltime.DateOf(opt.Until))
	default:
		return model.Pattern{}, fmt.Errorf("%w: no COUNT or UNTIL", ErrUnsupportedRule)
	}
}
