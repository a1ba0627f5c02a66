package config

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"plancal/internal/calendar"
	"plancal/internal/ics"
	appLog "plancal/internal/log"
	"plancal/internal/model"
)

// BuildReport counts the configured entries that did not make it into the
// calendar. Individual failures are logged, never fatal.
type BuildReport struct {
	Events   int
	Series   int
	Rejected int
	Invalid  int
	Imports  []ics.ImportResult
}

// Location resolves Timezone, falling back to time.Local.
func (c *Config) Location() (*time.Location, error) {
	if c.Timezone == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// Build creates the calendar described by c: seed events first, then
// series, then imports in order. fetcher may be nil when there are no
// imports.
func (c *Config) Build(ctx context.Context, fetcher *ics.Fetcher) (*calendar.Calendar, BuildReport, error) {
	var rep BuildReport

	cal, err := calendar.New(c.Title, c.ConflictPolicy)
	if err != nil {
		return nil, rep, err
	}
	loc, err := c.Location()
	if err != nil {
		return nil, rep, err
	}

	for i, ec := range c.Events {
		e, err := ec.builder().Build()
		if err != nil {
			rep.Invalid++
			appLog.Error("config event invalid", err, "index", i, "subject", ec.Subject)
			continue
		}
		ok, err := cal.AddEvent(e)
		switch {
		case err != nil:
			rep.Invalid++
			appLog.Error("config event not added", err, "index", i, "subject", ec.Subject)
		case !ok:
			rep.Rejected++
			appLog.Warn("config event rejected", "index", i, "subject", ec.Subject, "date", ec.Date.String())
		default:
			rep.Events++
		}
	}

	for i, sc := range c.Recurring {
		pattern, err := sc.pattern()
		if err != nil {
			rep.Invalid++
			appLog.Error("config series invalid", err, "index", i, "subject", sc.Subject)
			continue
		}
		_, err = cal.AddRecurringEvent(sc.builder(), pattern, sc.From)
		switch {
		case errors.Is(err, calendar.ErrRecurringConflict):
			rep.Rejected++
			appLog.Warn("config series rejected", "index", i, "subject", sc.Subject, "err", err)
		case err != nil:
			rep.Invalid++
			appLog.Error("config series not added", err, "index", i, "subject", sc.Subject)
		default:
			rep.Series++
		}
	}

	if len(c.Imports) > 0 && fetcher == nil {
		fetcher = ics.NewFetcher(c.CacheDir)
	}
	for _, ic := range c.Imports {
		res, err := fetcher.Fetch(ctx, ics.Feed{Name: ic.Name, Location: ic.Source})
		if err != nil {
			appLog.Error("config import fetch failed", err, "name", ic.Name)
			continue
		}
		ir, err := ics.Import(cal, bytes.NewReader(res.Body), ics.ImportOptions{Location: loc})
		if err != nil {
			appLog.Error("config import failed", err, "name", ic.Name)
			continue
		}
		rep.Imports = append(rep.Imports, ir)
	}

	appLog.Info("calendar built",
		"title", cal.Title(),
		"policy", cal.Policy().String(),
		"events", rep.Events,
		"series", rep.Series,
		"rejected", rep.Rejected,
		"invalid", rep.Invalid,
		"imports", len(rep.Imports),
	)
	return cal, rep, nil
}

func (ec EventConfig) builder() *model.Builder {
	b := model.NewBuilder().
		Subject(ec.Subject).
		StartDate(ec.Date).
		Visibility(ec.Visibility).
		Description(ec.Description).
		Location(ec.Location)
	if ec.Start != nil {
		b.StartTime(*ec.Start)
	}
	if ec.End != nil {
		b.EndTime(*ec.End)
	}
	if ec.EndDate != nil {
		b.EndDate(*ec.EndDate)
	}
	return b
}

func (sc SeriesConfig) builder() *model.Builder {
	b := model.NewBuilder().
		Subject(sc.Subject).
		StartDate(sc.From).
		Visibility(sc.Visibility).
		Description(sc.Description).
		Location(sc.Location)
	if sc.Start != nil {
		b.StartTime(*sc.Start)
	}
	if sc.End != nil {
		b.EndTime(*sc.End)
	}
	return b
}

func (sc SeriesConfig) pattern() (model.Pattern, error) {
	days, err := model.ParseWeekdays(sc.Days)
	if err != nil {
		return model.Pattern{}, err
	}
	switch {
	case sc.Occurrences > 0 && sc.Until != nil:
		return model.Pattern{}, fmt.Errorf("%w: occurrences and until are exclusive", model.ErrInvalidArgument)
	case sc.Occurrences > 0:
		return model.WithOccurrences(days, sc.Occurrences)
	case sc.Until != nil:
		return model.UntilDate(days, *sc.Until)
	}
	return model.Pattern{}, fmt.Errorf("%w: one of occurrences or until is required", model.ErrInvalidArgument)
}
