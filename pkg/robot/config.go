package robot

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
)

const DefaultConfigFile = "cuberig.json"

// Config holds the rig configuration
type Config struct {
	Port     string `json:"port" env:"CUBERIG_PORT"`
	Gamepad  string `json:"gamepad,omitempty" env:"CUBERIG_GAMEPAD"`
	Simulate bool   `json:"simulate,omitempty" env:"CUBERIG_SIMULATE"`

	QueueDepth     int  `json:"queue_depth" env:"CUBERIG_QUEUE_DEPTH"`
	Power          uint `json:"power" env:"CUBERIG_POWER"`
	QuarterTurn    int  `json:"quarter_turn"`
	ClawHold       int  `json:"claw_hold"`
	ClawFlip       int  `json:"claw_flip"`
	UnwindTable    bool `json:"unwind_table" env:"CUBERIG_UNWIND_TABLE"`
	PollIntervalMS int  `json:"poll_interval_ms" env:"CUBERIG_POLL_INTERVAL_MS"`

	Motors  Calibration     `json:"motors"`
	Buttons []ButtonBinding `json:"buttons,omitempty"`
}

// ButtonBinding maps a gamepad button transition to a named action.
type ButtonBinding struct {
	Button  int    `json:"button"`
	Pressed bool   `json:"pressed"`
	Action  string `json:"action"`
}

// DefaultConfig returns the configuration used when no file exists. The
// motion values are the ones the rig was originally tuned with.
func DefaultConfig() *Config {
	return &Config{
		QueueDepth:     1,
		Power:          50,
		QuarterTurn:    90,
		ClawHold:       75,
		ClawFlip:       90,
		PollIntervalMS: 100,
		Motors:         DefaultCalibration(),
	}
}

// PollInterval returns the idle polling interval as a duration.
func (c *Config) PollInterval() time.Duration {
	return time.Duration(c.PollIntervalMS) * time.Millisecond
}

// Validate reports the first inconsistency in the configuration.
func (c *Config) Validate() error {
	if c.QueueDepth < 1 {
		return fmt.Errorf("queue_depth must be at least 1, got %d", c.QueueDepth)
	}
	if c.Power == 0 || c.Power > 100 {
		return fmt.Errorf("power must be in 1..100, got %d", c.Power)
	}
	if c.QuarterTurn <= 0 {
		return fmt.Errorf("quarter_turn must be positive, got %d", c.QuarterTurn)
	}
	if c.ClawHold <= 0 || c.ClawFlip <= c.ClawHold {
		return fmt.Errorf("need 0 < claw_hold < claw_flip, got %d and %d", c.ClawHold, c.ClawFlip)
	}
	if c.PollIntervalMS <= 0 {
		return fmt.Errorf("poll_interval_ms must be positive, got %d", c.PollIntervalMS)
	}
	if !c.Simulate {
		for _, name := range AllMotors() {
			if _, ok := c.Motors[name]; !ok {
				return fmt.Errorf("no calibration for motor %s", name)
			}
		}
	}
	return nil
}

// LoadConfigFrom loads configuration from a specific file. A missing file
// yields the defaults. Environment variables override file values.
func LoadConfigFrom(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return nil, err
	default:
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}

// SaveTo saves configuration to a specific file
func (c *Config) SaveTo(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// ConfigExists returns true if the config file at path exists
func ConfigExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
