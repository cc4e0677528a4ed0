// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// aht20monitor periodically reads an AHT20 sensor and prints the temperature
// and relative humidity.
//
// With -emulate, the sensor is replaced by an emulated one driven bit by bit
// through the twi framer, so the whole stack runs without hardware.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/host/v3"

	"github.com/GermanBionicSystems/twisense/aht20"
	"github.com/GermanBionicSystems/twisense/aht20/aht20emu"
	"github.com/GermanBionicSystems/twisense/gauge"
	"github.com/GermanBionicSystems/twisense/twi"
)

var errUnavailable = errors.New("TWI controller not available")

func newLogger(c LoggingConfig) (*logrus.Logger, error) {
	level, err := logrus.ParseLevel(c.Level)
	if err != nil {
		return nil, err
	}
	l := logrus.New()
	l.Out = os.Stderr
	l.Level = level
	if strings.ToLower(c.Format) == "json" {
		l.Formatter = &logrus.JSONFormatter{}
	} else {
		l.Formatter = &logrus.TextFormatter{FullTimestamp: true}
	}
	return l, nil
}

// setupController checks that the controller behind f is present and applies
// the bus setup.
func setupController(f *twi.Framer, c BusConfig) error {
	if !f.Available() {
		return errUnavailable
	}
	return f.Configure(&twi.Config{
		Prescaler:    c.Prescaler,
		Divider:      c.Divider,
		ClockStretch: c.ClockStretch,
	})
}

// openBus returns the emulated bus or the hardware one.
func openBus(cfg *Config, log logrus.FieldLogger) (i2c.BusCloser, error) {
	if !cfg.Bus.Emulate {
		if _, err := host.Init(); err != nil {
			return nil, err
		}
		return i2creg.Open(cfg.Bus.Name)
	}
	frame, err := cfg.Emulator.frame()
	if err != nil {
		return nil, err
	}
	e := aht20emu.New(&aht20emu.Opts{
		Frame:     frame,
		AppendCRC: cfg.Emulator.AppendCRC,
		Log:       log.WithField("component", "emulator"),
	})
	f := twi.NewFramer(e, log.WithField("component", "twi"))
	if err := setupController(f, cfg.Bus); err != nil {
		return nil, err
	}
	return f, nil
}

// emulatedDelay replaces the sensor wait times when no real sensor is
// attached.
func emulatedDelay(log logrus.FieldLogger) func(time.Duration) {
	return func(d time.Duration) {
		log.Debugf("em. Delay %d ms", d.Milliseconds())
	}
}

// monitor runs the measurement loop.
type monitor struct {
	bus   i2c.Bus
	opts  *aht20.Opts
	log   logrus.FieldLogger
	out   io.Writer
	sleep func(time.Duration)

	term     *gauge.Terminal
	card     *gauge.Card
	snapshot string

	dev *aht20.Dev
}

// run measures count times, or forever when count is 0, waiting interval
// between measurements. Failures are logged and retried on the next tick.
func (m *monitor) run(interval time.Duration, count int) {
	for i := 0; count == 0 || i < count; i++ {
		if i != 0 {
			m.sleep(interval)
		}
		if err := m.tick(); err != nil {
			m.log.WithError(err).Error("Measurement error")
		}
	}
}

// tick begins the sensor if needed, then triggers and reports one
// measurement.
func (m *monitor) tick() error {
	if m.dev == nil {
		d, err := aht20.NewI2C(m.bus, m.opts)
		if err != nil {
			return err
		}
		m.log.Info("AHT20 calibrated")
		m.dev = d
	}
	var f aht20.Frame
	if err := m.dev.TriggerAndRead(&f); err != nil {
		return err
	}
	if !f.Calibrated() {
		// Begin again on the next tick.
		m.dev = nil
		return &aht20.NotCalibratedError{Status: f.Status()}
	}
	rawH, rawT := f.RawHumidity(), f.RawTemperature()
	m.log.WithFields(logrus.Fields{"raw_humidity": rawH, "raw_temp": rawT}).Debug("frame")

	e := physic.Env{Temperature: aht20.Temperature(rawT), Humidity: aht20.Humidity(rawH)}
	if m.term != nil {
		if err := m.term.Show(&e); err != nil {
			return err
		}
	} else {
		fmt.Fprintf(m.out, "T: %d C  H: %d RH\n", aht20.TemperatureCelsius(rawT), aht20.HumidityPercent(rawH))
	}
	if m.card != nil {
		if err := m.card.SavePNG(m.snapshot, &e); err != nil {
			return fmt.Errorf("snapshot: %w", err)
		}
	}
	return nil
}

func mainImpl() error {
	cfgPath := flag.String("config", "", "YAML configuration file")
	emulate := flag.Bool("emulate", false, "use an emulated AHT20 instead of the hardware bus")
	busName := flag.String("bus", "", "I²C bus to use")
	interval := flag.Duration("interval", 0, "time between measurements")
	count := flag.Int("count", 0, "number of measurements, 0 for no limit")
	verbose := flag.Bool("v", false, "verbose mode")
	bars := flag.Bool("bars", false, "draw ANSI bars instead of text lines")
	snapshot := flag.String("snapshot", "", "PNG file updated with the latest reading")
	flag.Parse()
	if flag.NArg() != 0 {
		return errors.New("unexpected argument, try -help")
	}

	cfg, err := Load(*cfgPath)
	if err != nil {
		return err
	}
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "emulate":
			cfg.Bus.Emulate = *emulate
		case "bus":
			cfg.Bus.Name = *busName
		case "interval":
			cfg.Loop.Interval = *interval
		case "count":
			cfg.Loop.Count = *count
		case "v":
			if *verbose {
				cfg.Logging.Level = "debug"
			}
		case "bars":
			cfg.Display.Bars = *bars
		case "snapshot":
			cfg.Display.Snapshot = *snapshot
		}
	})
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	log, err := newLogger(cfg.Logging)
	if err != nil {
		return err
	}
	bus, err := openBus(cfg, log)
	if err != nil {
		return err
	}
	defer bus.Close()
	log.WithField("bus", bus.String()).Info("bus ready")

	delay := time.Sleep
	if cfg.Bus.Emulate {
		delay = emulatedDelay(log)
	}
	m := &monitor{
		bus:      bus,
		opts:     cfg.sensorOpts(delay),
		log:      log,
		out:      os.Stdout,
		sleep:    time.Sleep,
		snapshot: cfg.Display.Snapshot,
	}
	if cfg.Display.Bars {
		m.term = gauge.NewTerminal(nil)
		defer m.term.Halt()
	}
	if cfg.Display.Snapshot != "" {
		if m.card, err = gauge.NewCard(cfg.Display.Width, cfg.Display.Height); err != nil {
			return err
		}
	}
	m.run(cfg.Loop.Interval, cfg.Loop.Count)
	return nil
}

func main() {
	if err := mainImpl(); err != nil {
		fmt.Fprintf(os.Stderr, "aht20monitor: %s.\n", err)
		os.Exit(1)
	}
}
