// Package config defines service configuration and how it is loaded.
package config

import (
	"context"
	"fmt"
	"strings"
	"time"

	"golang.org/x/text/language"

	"github.com/okian/attendboard/internal/domain/columns"
)

// PlaceholderPrefix marks a sheet id that was never filled in.
const PlaceholderPrefix = "REPLACE_"

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects the log handler: text or json.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":9080".
	Addr string `koanf:"addr"`

	// SheetID identifies the spreadsheet holding one tab per term.
	SheetID string `koanf:"sheet_id"`

	// GID selects the tab used when a term key is empty.
	GID string `koanf:"gid"`

	// Column labels looked up in the sheet header.
	ColumnName       string `koanf:"column_name"`
	ColumnAttendance string `koanf:"column_attendance"`
	ColumnEvents     string `koanf:"column_events"`
	ColumnBoard      string `koanf:"column_board"`

	// Title is shown above the board.
	Title string `koanf:"title"`

	// Threshold draws a line under the last entry at or above it in PLUS mode.
	Threshold *float64 `koanf:"threshold"`

	// TermStartYear is the first year offered in the term list. Zero means
	// the current term's year.
	TermStartYear int `koanf:"term_start_year"`

	// Locale is the BCP 47 tag used to compare names.
	Locale string `koanf:"locale"`

	// Sheet client limits.
	FetchTimeoutMS  int     `koanf:"fetch_timeout_ms"`
	FetchRatePerSec float64 `koanf:"fetch_rate_per_sec"`
	FetchBurst      int     `koanf:"fetch_burst"`

	// CacheTerms bounds how many terms stay cached; zero is unbounded.
	CacheTerms int `koanf:"cache_terms"`

	// EventQueueSize bounds the in-memory event queue.
	EventQueueSize int `koanf:"queue_size"`

	// DedupeSize sets how many event ids are remembered.
	DedupeSize int `koanf:"dedupe_size"`
}

// New creates a Config holding the defaults.
func New() *Config {
	return &Config{
		LogLevel:         "info",
		LogFormat:        "text",
		Addr:             ":9080",
		GID:              "0",
		ColumnName:       columns.DefaultName,
		ColumnAttendance: columns.DefaultAttendance,
		Title:            "Attendance Leaderboard",
		Locale:           "en",
		FetchTimeoutMS:   10_000,
		FetchRatePerSec:  1,
		FetchBurst:       2,
		CacheTerms:       16,
		EventQueueSize:   1024,
		DedupeSize:       4096,
	}
}

// Labels returns the column labels with blanks replaced by defaults.
func (c *Config) Labels() columns.Labels {
	return columns.Labels{
		Name:       c.ColumnName,
		Attendance: c.ColumnAttendance,
		Events:     c.ColumnEvents,
		Board:      c.ColumnBoard,
	}.WithDefaults()
}

// FetchTimeout returns the sheet request timeout.
func (c *Config) FetchTimeout() time.Duration {
	return time.Duration(c.FetchTimeoutMS) * time.Millisecond
}

// Language parses Locale.
func (c *Config) Language() (language.Tag, error) {
	tag, err := language.Parse(strings.TrimSpace(c.Locale))
	if err != nil {
		return language.Und, fmt.Errorf("%w: locale %q: %w", ErrInvalidConfig, c.Locale, err)
	}
	return tag, nil
}

// CheckSource reports ErrConfiguration when no usable sheet id is set. The
// service keeps running and shows a setup hint instead of data.
func (c *Config) CheckSource(_ context.Context) error {
	id := strings.TrimSpace(c.SheetID)
	switch {
	case id == "":
		return fmt.Errorf("%w: sheet_id is not set", ErrConfiguration)
	case strings.HasPrefix(id, PlaceholderPrefix):
		return fmt.Errorf("%w: sheet_id %q is still a placeholder", ErrConfiguration, id)
	}
	return nil
}

// Validate checks values the service cannot start with.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Addr) == "" {
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	}
	if c.EventQueueSize <= 0 {
		return fmt.Errorf("%w: queue_size must be positive", ErrInvalidConfig)
	}
	if c.DedupeSize <= 0 {
		return fmt.Errorf("%w: dedupe_size must be positive", ErrInvalidConfig)
	}
	if c.FetchTimeoutMS <= 0 {
		return fmt.Errorf("%w: fetch_timeout_ms must be positive", ErrInvalidConfig)
	}
	if c.FetchRatePerSec < 0 {
		return fmt.Errorf("%w: fetch_rate_per_sec must not be negative", ErrInvalidConfig)
	}
	if c.TermStartYear < 0 {
		return fmt.Errorf("%w: term_start_year must not be negative", ErrInvalidConfig)
	}
	switch strings.ToLower(c.LogFormat) {
	case "", "text", "json":
	default:
		return fmt.Errorf("%w: log_format %q", ErrInvalidConfig, c.LogFormat)
	}
	if _, err := c.Language(); err != nil {
		return err
	}
	return nil
}
