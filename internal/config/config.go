package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"plancal/internal/calendar"
	"plancal/internal/caltime"
	appLog "plancal/internal/log"
	"plancal/internal/model"
)

// EventConfig describes one standalone event. An entry without Start is an
// all-day event.
type EventConfig struct {
	Subject string       `yaml:"subject"`
	Date    caltime.Date `yaml:"date"`
	// EndDate defaults to Date for timed events.
	EndDate     *caltime.Date    `yaml:"end_date,omitempty"`
	Start       *caltime.Clock   `yaml:"start,omitempty"`
	End         *caltime.Clock   `yaml:"end,omitempty"`
	Description string           `yaml:"description,omitempty"`
	Location    string           `yaml:"location,omitempty"`
	Visibility  model.Visibility `yaml:"visibility,omitempty"`
}

// SeriesConfig describes a weekly recurring event.
type SeriesConfig struct {
	Subject string `yaml:"subject"`

	// Days is a cron day-of-week field, e.g. "MON-FRI", "mon,wed" or "*".
	Days string       `yaml:"days"`
	From caltime.Date `yaml:"from"`

	// Exactly one of Occurrences and Until must be set.
	Occurrences int           `yaml:"occurrences,omitempty"`
	Until       *caltime.Date `yaml:"until,omitempty"`

	// Start and End default to 09:00 and 10:00.
	Start       *caltime.Clock   `yaml:"start,omitempty"`
	End         *caltime.Clock   `yaml:"end,omitempty"`
	Description string           `yaml:"description,omitempty"`
	Location    string           `yaml:"location,omitempty"`
	Visibility  model.Visibility `yaml:"visibility,omitempty"`
}

// ImportConfig describes an ICS document merged into the calendar at start.
type ImportConfig struct {
	// Name is a label used in logs.
	Name string `yaml:"name"`
	// Source is a local path or an http(s) URL.
	Source string `yaml:"source"`
}

// Config is the top-level application configuration.
type Config struct {
	Title          string                  `yaml:"title"`
	ConflictPolicy calendar.ConflictPolicy `yaml:"conflict_policy"`

	// Timezone is the IANA zone imported UTC/zoned times are converted to.
	// Empty means the system zone.
	Timezone string `yaml:"timezone,omitempty"`

	// LogLevel is one of DEBUG, INFO, WARN, ERROR.
	LogLevel string `yaml:"log_level"`

	// CacheDir holds downloaded feeds; empty selects the user cache dir.
	CacheDir string `yaml:"cache_dir,omitempty"`

	Events    []EventConfig  `yaml:"events"`
	Recurring []SeriesConfig `yaml:"recurring"`
	Imports   []ImportConfig `yaml:"imports"`
}

const defaultTitle = "Personal"

// DefaultConfig returns an in-memory default configuration.
func DefaultConfig() *Config {
	return &Config{
		Title:          defaultTitle,
		ConflictPolicy: calendar.RejectConflicts,
		LogLevel:       string(appLog.LevelInfo),
		Events:         []EventConfig{},
		Recurring:      []SeriesConfig{},
		Imports:        []ImportConfig{},
	}
}

// Normalize fills in missing values so that partially-filled configs still
// behave correctly.
func (c *Config) Normalize() {
	c.Title = strings.TrimSpace(c.Title)
	if c.Title == "" {
		c.Title = defaultTitle
	}
	if lvl, err := appLog.ParseLevel(c.LogLevel); err == nil {
		c.LogLevel = string(lvl)
	} else {
		c.LogLevel = string(appLog.LevelInfo)
	}
	if c.Events == nil {
		c.Events = []EventConfig{}
	}
	if c.Recurring == nil {
		c.Recurring = []SeriesConfig{}
	}
	if c.Imports == nil {
		c.Imports = []ImportConfig{}
	}
}

// Load loads configuration from the given YAML path.
//
// If the file does not exist, a default config is written there with 0600
// permissions and returned. Otherwise the file is decoded and normalized.
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config path is empty")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			cfg := DefaultConfig()
			if err := Save(path, cfg); err != nil {
				// Even if save fails, return cfg with error so caller can decide.
				return cfg, err
			}
			return cfg, nil
		}
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	cfg.Normalize()

	return &cfg, nil
}

// Save writes cfg to path atomically (temp file + rename) with 0600
// permissions, creating the parent directory with 0700 if needed.
func Save(path string, cfg *Config) error {
	if path == "" {
		return errors.New("config path is empty")
	}
	if cfg == nil {
		return errors.New("config is nil")
	}

	cfg.Normalize()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".plancal-config-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpName, 0o600); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}

// Save delegates to the package-level Save.
func (c *Config) Save(path string) error {
	return Save(path, c)
}
