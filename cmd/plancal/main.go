package main

import (
	"bytes"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/olebedev/when"
	"github.com/olebedev/when/rules/common"
	"github.com/olebedev/when/rules/en"

	"plancal/internal/calendar"
	"plancal/internal/caltime"
	"plancal/internal/config"
	"plancal/internal/csvexport"
	"plancal/internal/ics"
	appLog "plancal/internal/log"
)

const defaultAgendaDays = 7

// flagConfig holds CLI flag values.
type flagConfig struct {
	configPath string
	logLevel   string
	format     string
	from       string
	to         string
	busy       string
	importPath string
}

func main() {
	if err := godotenv.Load(); err != nil {
		appLog.Debug("no .env loaded", "reason", err.Error())
	}

	flags := parseFlags(os.Args[1:])

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, flags, os.Stdout, time.Now()); err != nil {
		appLog.Error("plancal failed", err)
		os.Exit(1)
	}
}

func parseFlags(args []string) flagConfig {
	var cfg flagConfig

	fs := flag.NewFlagSet("plancal", flag.ExitOnError)
	fs.StringVar(&cfg.configPath, "config", envOr("PLANCAL_CONFIG", defaultConfigPath()), "Path to config file")
	fs.StringVar(&cfg.logLevel, "log-level", os.Getenv("PLANCAL_LOG_LEVEL"), "DEBUG, INFO, WARN or ERROR (overrides config if set)")
	fs.StringVar(&cfg.format, "format", "agenda", "Output: agenda, csv or ics")
	fs.StringVar(&cfg.from, "from", "", "First agenda day, YYYY-MM-DD (default today)")
	fs.StringVar(&cfg.to, "to", "", "Last agenda day, YYYY-MM-DD (default from + 7 days)")
	fs.StringVar(&cfg.busy, "busy", "", `Print busy or free for an instant, e.g. "tomorrow 10am"`)
	fs.StringVar(&cfg.importPath, "import", "", "ICS file or URL to merge before output")

	_ = fs.Parse(args)

	return cfg
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func defaultConfigPath() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, "plancal", "config.yaml")
	}
	return "plancal.yaml"
}

func run(ctx context.Context, flags flagConfig, stdout io.Writer, now time.Time) error {
	conf, err := config.Load(flags.configPath)
	if err != nil {
		return fmt.Errorf("load config %s: %w", flags.configPath, err)
	}

	level := conf.LogLevel
	if flags.logLevel != "" {
		level = flags.logLevel
	}
	lvl, err := appLog.ParseLevel(level)
	if err != nil {
		return err
	}
	appLog.SetLevel(lvl)

	appLog.Debug("effective config",
		"config_path", flags.configPath,
		"title", conf.Title,
		"conflict_policy", conf.ConflictPolicy.String(),
		"events", len(conf.Events),
		"recurring", len(conf.Recurring),
		"imports", len(conf.Imports),
		"format", flags.format,
	)

	fetcher := ics.NewFetcher(conf.CacheDir)
	cal, _, err := conf.Build(ctx, fetcher)
	if err != nil {
		return err
	}

	if flags.importPath != "" {
		if err := importFeed(ctx, cal, conf, fetcher, flags.importPath); err != nil {
			return err
		}
	}

	if flags.busy != "" {
		return printBusy(stdout, cal, flags.busy, now)
	}

	switch flags.format {
	case "csv":
		return csvexport.Export(stdout, cal)
	case "ics":
		return ics.Export(stdout, cal)
	case "agenda", "":
		from, to, err := agendaRange(flags.from, flags.to, now)
		if err != nil {
			return err
		}
		events, err := cal.EventsInRange(from, to)
		if err != nil {
			return err
		}
		return writeAgenda(stdout, cal.Title(), events)
	default:
		return fmt.Errorf("unknown format %q", flags.format)
	}
}

func importFeed(ctx context.Context, cal *calendar.Calendar, conf *config.Config, fetcher *ics.Fetcher, source string) error {
	loc, err := conf.Location()
	if err != nil {
		return err
	}
	res, err := fetcher.Fetch(ctx, ics.Feed{Name: filepath.Base(source), Location: source})
	if err != nil {
		return err
	}
	_, err = ics.Import(cal, bytes.NewReader(res.Body), ics.ImportOptions{Location: loc})
	return err
}

func agendaRange(fromText, toText string, now time.Time) (caltime.Date, caltime.Date, error) {
	from := caltime.DateOf(now)
	if fromText != "" {
		d, err := caltime.ParseDate(fromText)
		if err != nil {
			return caltime.Date{}, caltime.Date{}, fmt.Errorf("-from: %w", err)
		}
		from = d
	}
	to := from.AddDays(defaultAgendaDays)
	if toText != "" {
		d, err := caltime.ParseDate(toText)
		if err != nil {
			return caltime.Date{}, caltime.Date{}, fmt.Errorf("-to: %w", err)
		}
		to = d
	}
	return from, to, nil
}

var errNoInstant = errors.New("no date or time found")

// parseInstant understands phrases like "tomorrow 10am" or "next friday at
// 3pm", relative to now.
func parseInstant(text string, now time.Time) (time.Time, error) {
	w := when.New(nil)
	w.Add(en.All...)
	w.Add(common.All...)

	res, err := w.Parse(text, now)
	if err != nil {
		return time.Time{}, err
	}
	if res == nil {
		return time.Time{}, fmt.Errorf("%w in %q", errNoInstant, text)
	}
	return res.Time, nil
}

func printBusy(w io.Writer, cal *calendar.Calendar, text string, now time.Time) error {
	at, err := parseInstant(text, now)
	if err != nil {
		return err
	}
	state := "free"
	if cal.IsBusy(caltime.DateOf(at), caltime.ClockOfTime(at)) {
		state = "busy"
	}
	_, err = fmt.Fprintf(w, "%s %s\n", at.Format("2006-01-02 15:04"), state)
	return err
}
