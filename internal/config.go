package internal

import (
	"errors"
	"fmt"
	"log/slog"
	"net"
	"strconv"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/timelog/internal/stats"
	"github.com/starford/timelog/internal/store"
)

// Config represents the application configuration.
type Config struct {
	App    ApplicationConfig `yaml:"app"`
	SQLite SQLiteConfig      `yaml:"sqlite"`
	Cache  CacheConfig       `yaml:"cache"`
	Stats  StatsConfig       `yaml:"stats"`
	Events EventsConfig      `yaml:"events"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := c.App.Validate(); err != nil {
		return fmt.Errorf("app: %w", err)
	}
	if err := c.SQLite.Validate(); err != nil {
		return fmt.Errorf("sqlite: %w", err)
	}
	if err := c.Cache.Validate(); err != nil {
		return fmt.Errorf("cache: %w", err)
	}
	if err := c.Stats.Validate(); err != nil {
		return fmt.Errorf("stats: %w", err)
	}
	if err := c.Events.Validate(); err != nil {
		return fmt.Errorf("events: %w", err)
	}
	return nil
}

// ApplicationConfig holds application-level configuration.
type ApplicationConfig struct {
	LogLevel slog.Level `yaml:"log_level"`
	HTTP     HTTPConfig `yaml:"http"`
}

// Validate validates the application configuration.
func (c *ApplicationConfig) Validate() error {
	return c.HTTP.Validate()
}

// HTTPConfig holds HTTP server configuration.
type HTTPConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// Address returns HTTP server address.
func (c *HTTPConfig) Address() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// Validate validates the HTTP configuration.
func (c *HTTPConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Port, validation.Required, validation.Min(1), validation.Max(65535)),
	)
}

// SQLiteConfig selects the database driver and file.
type SQLiteConfig struct {
	Driver string `yaml:"driver"`
	Path   string `yaml:"path"`
}

// Validate validates the SQLite configuration.
func (c *SQLiteConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Driver, validation.Required, validation.In(store.DriverCGO, store.DriverPureGo)),
		validation.Field(&c.Path, validation.Required),
	)
}

// CacheConfig controls the record cache.
type CacheConfig struct {
	TTL time.Duration `yaml:"ttl"`
}

// Validate validates the cache configuration.
func (c *CacheConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.TTL, validation.Required, validation.Min(time.Millisecond)),
	)
}

// StatsConfig controls calendar bucketing.
type StatsConfig struct {
	WeekStart    string `yaml:"week_start"`
	HeatmapWeeks int    `yaml:"heatmap_weeks"`
}

// Validate validates the stats configuration.
func (c *StatsConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.WeekStart, validation.Required, validation.By(func(any) error {
			_, err := stats.ParseWeekday(c.WeekStart)
			if err != nil {
				return errors.New("must be a day of the week")
			}
			return nil
		})),
		validation.Field(&c.HeatmapWeeks, validation.Required, validation.Min(1), validation.Max(104)),
	)
}

// Weekday returns the parsed week start. Call after Validate.
func (c *StatsConfig) Weekday() time.Weekday {
	d, err := stats.ParseWeekday(c.WeekStart)
	if err != nil {
		return stats.DefaultWeekStart
	}
	return d
}

// EventsConfig controls the SSE stream.
type EventsConfig struct {
	StatsThrottle time.Duration `yaml:"stats_throttle"`
}

// Validate validates the events configuration.
func (c *EventsConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.StatsThrottle, validation.Min(time.Duration(0))),
	)
}

// NewDefaultConfig returns a new Config with sensible default values.
func NewDefaultConfig() *Config {
	return &Config{
		App: ApplicationConfig{
			LogLevel: slog.LevelInfo,
			HTTP: HTTPConfig{
				Host: "127.0.0.1",
				Port: 8080,
			},
		},
		SQLite: SQLiteConfig{
			Driver: store.DriverCGO,
			Path:   "./timelog.db",
		},
		Cache: CacheConfig{
			TTL: 30 * time.Second,
		},
		Stats: StatsConfig{
			WeekStart:    "monday",
			HeatmapWeeks: stats.DefaultHeatmapWeeks,
		},
		Events: EventsConfig{
			StatsThrottle: 2 * time.Second,
		},
	}
}
