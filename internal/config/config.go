// Package config loads the demo configuration: defaults, then an optional
// YAML file, then environment variables (a .env file in the working
// directory is loaded first when present).
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment variable read by Load.
const EnvPrefix = "TICKFSM_"

var (
	ErrInvalidConfig = errors.New("invalid configuration")
)

// Config is the root configuration.
type Config struct {
	Machine MachineConfig `yaml:"machine" envPrefix:"MACHINE_"`
	Log     LogConfig     `yaml:"log" envPrefix:"LOG_"`
	Metrics MetricsConfig `yaml:"metrics" envPrefix:"METRICS_"`
}

// MachineConfig configures the demo machine and its driver.
type MachineConfig struct {
	Name              string        `yaml:"name" env:"NAME"`
	TickRate          time.Duration `yaml:"tickRate" env:"TICK_RATE"`
	IdleTimeout       time.Duration `yaml:"idleTimeout" env:"IDLE_TIMEOUT"`
	AutoCompleteAfter time.Duration `yaml:"autoCompleteAfter" env:"AUTO_COMPLETE_AFTER"`
	// Bounded selects the fixed-capacity engine.
	Bounded                bool `yaml:"bounded" env:"BOUNDED"`
	MaxStates              int  `yaml:"maxStates" env:"MAX_STATES"`
	MaxTransitionsPerState int  `yaml:"maxTransitionsPerState" env:"MAX_TRANSITIONS_PER_STATE"`
}

// LogConfig configures the zap logger.
type LogConfig struct {
	Level  string `yaml:"level" env:"LEVEL"`
	Format string `yaml:"format" env:"FORMAT"`
}

// MetricsConfig configures the prometheus endpoint. An empty Addr disables it.
type MetricsConfig struct {
	Addr string `yaml:"addr" env:"ADDR"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Machine: MachineConfig{
			Name:                   "demo",
			TickRate:               100 * time.Millisecond,
			IdleTimeout:            time.Second,
			AutoCompleteAfter:      3 * time.Second,
			MaxStates:              8,
			MaxTransitionsPerState: 4,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// Load builds the configuration. path may be empty to skip the YAML file.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("yaml unmarshal %s: %w", path, err)
		}
	}

	// The .env file is optional.
	_ = godotenv.Load()

	if err := env.ParseWithOptions(&cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return Config{}, fmt.Errorf("parse environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks the configuration for values the demo cannot run with.
func (c Config) Validate() error {
	var errs []error
	if c.Machine.TickRate <= 0 {
		errs = append(errs, fmt.Errorf("machine.tickRate must be positive, got %s", c.Machine.TickRate))
	}
	if c.Machine.IdleTimeout <= 0 {
		errs = append(errs, fmt.Errorf("machine.idleTimeout must be positive, got %s", c.Machine.IdleTimeout))
	}
	if c.Machine.AutoCompleteAfter < 0 {
		errs = append(errs, fmt.Errorf("machine.autoCompleteAfter must not be negative, got %s", c.Machine.AutoCompleteAfter))
	}
	if c.Machine.Bounded {
		if c.Machine.MaxStates < 1 {
			errs = append(errs, fmt.Errorf("machine.maxStates must be at least 1, got %d", c.Machine.MaxStates))
		}
		if c.Machine.MaxTransitionsPerState < 0 {
			errs = append(errs, fmt.Errorf("machine.maxTransitionsPerState must not be negative, got %d", c.Machine.MaxTransitionsPerState))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, errors.Join(errs...))
	}
	return nil
}
