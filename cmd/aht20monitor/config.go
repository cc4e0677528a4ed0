// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package main

import (
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/GermanBionicSystems/twisense/aht20"
)

// Config is the root configuration of aht20monitor.
// It is loaded from defaults, then an optional YAML file, then environment
// variables, then command line flags.
type Config struct {
	Bus      BusConfig      `yaml:"bus"`
	Sensor   SensorConfig   `yaml:"sensor"`
	Emulator EmulatorConfig `yaml:"emulator"`
	Loop     LoopConfig     `yaml:"loop"`
	Logging  LoggingConfig  `yaml:"logging"`
	Display  DisplayConfig  `yaml:"display"`
}

// BusConfig selects and sets up the I²C bus.
type BusConfig struct {
	// Name is the i2creg bus name. Empty selects the first bus.
	Name string `yaml:"name"`
	// Emulate replaces the bus with an emulated AHT20.
	Emulate bool `yaml:"emulate"`
	// Prescaler, Divider and ClockStretch are the TWI controller setup.
	Prescaler    int  `yaml:"prescaler"`
	Divider      int  `yaml:"divider"`
	ClockStretch bool `yaml:"clock_stretch"`
}

// SensorConfig holds the AHT20 driver timings.
type SensorConfig struct {
	CalibrationDelay time.Duration `yaml:"calibration_delay"`
	MeasurementDelay time.Duration `yaml:"measurement_delay"`
	ValidateCRC      bool          `yaml:"validate_crc"`
}

// EmulatorConfig configures the emulated sensor.
type EmulatorConfig struct {
	// Frame is the measurement served, as 12 hex digits.
	Frame     string `yaml:"frame"`
	AppendCRC bool   `yaml:"append_crc"`
}

// LoopConfig controls the measurement loop.
type LoopConfig struct {
	Interval time.Duration `yaml:"interval"`
	// Count stops the loop after that many measurements. 0 runs forever.
	Count int `yaml:"count"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// DisplayConfig enables the optional renderers.
type DisplayConfig struct {
	Bars     bool   `yaml:"bars"`
	Snapshot string `yaml:"snapshot"`
	Width    int    `yaml:"width"`
	Height   int    `yaml:"height"`
}

// Load returns the configuration read from path on top of the defaults, with
// environment overrides applied. An empty path skips the file.
func Load(path string) (*Config, error) {
	cfg := defaultConfig()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}
	if err := applyEnvOverrides(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func defaultConfig() *Config {
	return &Config{
		Bus: BusConfig{
			// CPU_CLK / 2048, no clock stretching.
			Prescaler: 6,
			Divider:   15,
		},
		Sensor: SensorConfig{
			CalibrationDelay: aht20.DefaultOpts.CalibrationDelay,
			MeasurementDelay: aht20.DefaultOpts.MeasurementDelay,
		},
		Loop: LoopConfig{
			Interval: 2 * time.Second,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
		Display: DisplayConfig{
			Width:  200,
			Height: 100,
		},
	}
}

func applyEnvOverrides(cfg *Config) error {
	if v := os.Getenv("AHT20_BUS"); v != "" {
		cfg.Bus.Name = v
	}
	if v := os.Getenv("AHT20_EMULATE"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("AHT20_EMULATE: %w", err)
		}
		cfg.Bus.Emulate = b
	}
	if v := os.Getenv("AHT20_INTERVAL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("AHT20_INTERVAL: %w", err)
		}
		cfg.Loop.Interval = d
	}
	if v := os.Getenv("AHT20_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("AHT20_SNAPSHOT"); v != "" {
		cfg.Display.Snapshot = v
	}
	return nil
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	var errs []error
	if c.Loop.Interval <= 0 {
		errs = append(errs, errors.New("loop.interval must be positive"))
	}
	if c.Loop.Count < 0 {
		errs = append(errs, errors.New("loop.count must not be negative"))
	}
	if c.Sensor.CalibrationDelay < 0 || c.Sensor.MeasurementDelay < 0 {
		errs = append(errs, errors.New("sensor delays must not be negative"))
	}
	if _, err := c.Emulator.frame(); err != nil {
		errs = append(errs, err)
	}
	if _, err := logrus.ParseLevel(c.Logging.Level); err != nil {
		errs = append(errs, err)
	}
	switch strings.ToLower(c.Logging.Format) {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("logging.format %q must be text or json", c.Logging.Format))
	}
	if c.Display.Snapshot != "" && (c.Display.Width <= 0 || c.Display.Height <= 0) {
		errs = append(errs, errors.New("display.width and display.height must be positive"))
	}
	return errors.Join(errs...)
}

// frame decodes Frame. An empty Frame returns nil.
func (e *EmulatorConfig) frame() (*aht20.Frame, error) {
	if e.Frame == "" {
		return nil, nil
	}
	b, err := hex.DecodeString(e.Frame)
	if err != nil {
		return nil, fmt.Errorf("emulator.frame: %w", err)
	}
	f, err := aht20.ParseFrame(b)
	if err != nil {
		return nil, fmt.Errorf("emulator.frame: %w", err)
	}
	return &f, nil
}

// sensorOpts converts the configuration to driver options.
func (c *Config) sensorOpts(delay func(time.Duration)) *aht20.Opts {
	o := aht20.DefaultOpts
	o.CalibrationDelay = c.Sensor.CalibrationDelay
	o.MeasurementDelay = c.Sensor.MeasurementDelay
	o.ValidateData = c.Sensor.ValidateCRC
	o.Delay = delay
	return &o
}
