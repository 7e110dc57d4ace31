// Package config loads clockd settings from flags, environment and an
// optional YAML file through viper.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/viper"

	"github.com/hperssn/clockd/internal/domain"
	"github.com/hperssn/clockd/internal/engine"
	"github.com/hperssn/clockd/internal/storage"
)

const EnvPrefix = "CLOCKD"

type EngineConfig struct {
	Interval  time.Duration `mapstructure:"interval"`
	Feedback  bool          `mapstructure:"feedback"`
	Precision string        `mapstructure:"precision"`
	Display   string        `mapstructure:"display"`
}

type SessionsConfig struct {
	Max             int           `mapstructure:"max"`
	IdleTimeout     time.Duration `mapstructure:"idle-timeout"`
	CleanupInterval time.Duration `mapstructure:"cleanup-interval"`
}

type JournalConfig struct {
	Driver    string `mapstructure:"driver"`
	DSN       string `mapstructure:"dsn"`
	QueueSize int    `mapstructure:"queue-size"`
}

type FeedbackConfig struct {
	// TickRate caps tick feedback per second; 0 passes every tick.
	TickRate float64 `mapstructure:"tick-rate"`
	Burst    int     `mapstructure:"burst"`
}

type Config struct {
	Addr      string         `mapstructure:"addr"`
	LogLevel  string         `mapstructure:"log-level"`
	Stopwatch EngineConfig   `mapstructure:"stopwatch"`
	Timer     EngineConfig   `mapstructure:"timer"`
	Sessions  SessionsConfig `mapstructure:"sessions"`
	Journal   JournalConfig  `mapstructure:"journal"`
	Feedback  FeedbackConfig `mapstructure:"feedback"`
}

// SetDefaults registers every key with its default so that environment
// variables can override keys that appear in no file.
func SetDefaults(v *viper.Viper) {
	sw := engine.DefaultStopwatchConfig()
	tm := engine.DefaultTimerConfig()

	v.SetDefault("addr", ":8080")
	v.SetDefault("log-level", "info")

	v.SetDefault("stopwatch.interval", sw.TickInterval)
	v.SetDefault("stopwatch.feedback", sw.FeedbackEnabled)
	v.SetDefault("stopwatch.precision", sw.Precision.String())
	v.SetDefault("stopwatch.display", sw.Display.String())

	v.SetDefault("timer.interval", tm.TickInterval)
	v.SetDefault("timer.feedback", tm.FeedbackEnabled)
	v.SetDefault("timer.precision", tm.Precision.String())
	v.SetDefault("timer.display", tm.Display.String())

	v.SetDefault("sessions.max", 1024)
	v.SetDefault("sessions.idle-timeout", time.Hour)
	v.SetDefault("sessions.cleanup-interval", 5*time.Minute)

	v.SetDefault("journal.driver", "")
	v.SetDefault("journal.dsn", "")
	v.SetDefault("journal.queue-size", 256)

	v.SetDefault("feedback.tick-rate", 0.0)
	v.SetDefault("feedback.burst", 1)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
}

func Load(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	var errs []error

	if _, err := c.StopwatchEngine(); err != nil {
		errs = append(errs, fmt.Errorf("stopwatch: %w", err))
	}
	if _, err := c.TimerEngine(); err != nil {
		errs = append(errs, fmt.Errorf("timer: %w", err))
	}
	if _, err := log.ParseLevel(c.LogLevel); err != nil {
		errs = append(errs, fmt.Errorf("log-level: %w", err))
	}
	switch c.Journal.Driver {
	case "":
	case storage.DriverSQLite, storage.DriverPostgres:
		if c.Journal.DSN == "" {
			errs = append(errs, errors.New("journal: dsn is required when a driver is set"))
		}
	default:
		errs = append(errs, fmt.Errorf("journal: unknown driver %q", c.Journal.Driver))
	}
	if c.Feedback.TickRate < 0 {
		errs = append(errs, errors.New("feedback: tick-rate must not be negative"))
	}
	if c.Feedback.TickRate > 0 && c.Feedback.Burst < 1 {
		errs = append(errs, fmt.Errorf("feedback: burst must be at least 1 when tick-rate is set (got %d)", c.Feedback.Burst))
	}

	return errors.Join(errs...)
}

func (c *Config) StopwatchEngine() (engine.Config, error) {
	return c.Stopwatch.engine()
}

func (c *Config) TimerEngine() (engine.Config, error) {
	return c.Timer.engine()
}

func (c *Config) Level() log.Level {
	level, err := log.ParseLevel(c.LogLevel)
	if err != nil {
		return log.InfoLevel
	}
	return level
}

func (e EngineConfig) engine() (engine.Config, error) {
	precision, err := domain.ParsePrecision(e.Precision)
	if err != nil {
		return engine.Config{}, err
	}
	display, err := engine.ParseDisplayMode(e.Display)
	if err != nil {
		return engine.Config{}, err
	}

	cfg := engine.Config{
		TickInterval:    e.Interval,
		FeedbackEnabled: e.Feedback,
		Precision:       precision,
		Display:         display,
	}
	return cfg, cfg.Validate()
}
