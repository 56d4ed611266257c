package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"

	"github.com/comalice/pollfsm"
)

type (
	Config struct {
		TickInterval  time.Duration `yaml:"tick_interval"`
		Debounce      time.Duration `yaml:"debounce"`
		QueueSize     int           `yaml:"queue_size"`
		StoppedPolicy string        `yaml:"stopped_policy"` // discard | queue
		ExitOnStop    bool          `yaml:"exit_on_stop"`
		LogLevel      string        `yaml:"log_level"`
		LogFile       string        `yaml:"log_file"` // empty logs to stderr, or nowhere when the screen is in use
		Table         string        `yaml:"table"`    // empty uses the built-in stopwatch table
		Sound         bool          `yaml:"sound"`

		Snapshot struct {
			Dir    string `yaml:"dir"` // empty disables snapshots
			Format string `yaml:"format"`
		} `yaml:"snapshot"`

		Keys struct {
			Start string `yaml:"start"`
			Stop  string `yaml:"stop"`
		} `yaml:"keys"`
	}
)

// Default returns the configuration used when no file exists.
func Default() *Config {
	cfg := &Config{
		TickInterval:  100 * time.Millisecond,
		Debounce:      50 * time.Millisecond,
		QueueSize:     pollfsm.DefaultQueueSize,
		StoppedPolicy: "discard",
		LogLevel:      "info",
	}
	cfg.Snapshot.Format = "json"
	cfg.Keys.Start = "s"
	cfg.Keys.Stop = "x"
	return cfg
}

// New loads the first path that exists over the defaults. When none of the
// paths exist the defaults are returned.
func New(paths ...string) (*Config, error) {
	cfg := Default()
	for _, path := range paths {
		if path == "" {
			continue
		}
		if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
			continue
		}

		file, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("os.ReadFile() %w", err)
		}
		if err = yaml.Unmarshal(file, cfg); err != nil {
			return nil, fmt.Errorf("yaml.Unmarshal() %w", err)
		}
		break
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate reports every invalid setting.
func (c *Config) Validate() error {
	var errs error
	if c.TickInterval <= 0 {
		errs = multierr.Append(errs, fmt.Errorf("tick_interval must be positive, got %s", c.TickInterval))
	}
	if c.Debounce < 0 {
		errs = multierr.Append(errs, fmt.Errorf("debounce must not be negative, got %s", c.Debounce))
	}
	if c.QueueSize <= 0 {
		errs = multierr.Append(errs, fmt.Errorf("queue_size must be positive, got %d", c.QueueSize))
	}
	if _, err := zapcore.ParseLevel(c.LogLevel); err != nil {
		errs = multierr.Append(errs, fmt.Errorf("log_level: %w", err))
	}
	if _, err := c.Policy(); err != nil {
		errs = multierr.Append(errs, err)
	}
	if len([]rune(c.Keys.Start)) != 1 || len([]rune(c.Keys.Stop)) != 1 || c.Keys.Start == c.Keys.Stop {
		errs = multierr.Append(errs, fmt.Errorf("keys.start and keys.stop must be two distinct single characters"))
	}
	switch c.Snapshot.Format {
	case "json", "yaml", "yml":
	default:
		errs = multierr.Append(errs, fmt.Errorf("snapshot.format %q is not json or yaml", c.Snapshot.Format))
	}
	return errs
}

// Policy maps stopped_policy onto the engine option value.
func (c *Config) Policy() (pollfsm.StoppedPolicy, error) {
	switch c.StoppedPolicy {
	case "", "discard":
		return pollfsm.DiscardWhileStopped, nil
	case "queue":
		return pollfsm.QueueWhileStopped, nil
	default:
		return 0, fmt.Errorf("stopped_policy %q is not discard or queue", c.StoppedPolicy)
	}
}

// MachineOptions returns the engine options the settings imply.
func (c *Config) MachineOptions() []pollfsm.Option {
	policy, _ := c.Policy()
	return []pollfsm.Option{
		pollfsm.WithQueueSize(c.QueueSize),
		pollfsm.WithStoppedPolicy(policy),
		pollfsm.WithExitOnStop(c.ExitOnStop),
	}
}
