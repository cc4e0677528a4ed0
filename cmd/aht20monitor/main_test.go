// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package main

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"

	"github.com/GermanBionicSystems/twisense/aht20"
	"github.com/GermanBionicSystems/twisense/aht20/aht20emu"
	"github.com/GermanBionicSystems/twisense/gauge"
	"github.com/GermanBionicSystems/twisense/twi"
	"github.com/GermanBionicSystems/twisense/twi/twitest"
)

func emulatedConfig() *Config {
	cfg := defaultConfig()
	cfg.Bus.Emulate = true
	return cfg
}

func newMonitor(t *testing.T, cfg *Config) (*monitor, *bytes.Buffer, *test.Hook, *[]time.Duration) {
	log, hook := test.NewNullLogger()
	bus, err := openBus(cfg, log)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = bus.Close() })
	var out bytes.Buffer
	var slept []time.Duration
	m := &monitor{
		bus:   bus,
		opts:  cfg.sensorOpts(func(time.Duration) {}),
		log:   log,
		out:   &out,
		sleep: func(d time.Duration) { slept = append(slept, d) },
	}
	return m, &out, hook, &slept
}

func TestMonitor_emulated(t *testing.T) {
	m, out, hook, slept := newMonitor(t, emulatedConfig())
	m.run(time.Second, 2)
	if got, want := out.String(), "T: 96 C  H: 66 RH\nT: 96 C  H: 66 RH\n"; got != want {
		t.Fatalf("output %q, want %q", got, want)
	}
	if diff := cmp.Diff([]time.Duration{time.Second}, *slept); diff != "" {
		t.Fatalf("sleep mismatch (-want +got):\n%s", diff)
	}
	for _, e := range hook.AllEntries() {
		if e.Level <= logrus.ErrorLevel {
			t.Fatalf("unexpected error: %s", e.Message)
		}
	}
}

func TestMonitor_crc(t *testing.T) {
	cfg := emulatedConfig()
	cfg.Emulator.AppendCRC = true
	cfg.Sensor.ValidateCRC = true
	cfg.Emulator.Frame = "1c8000066667"
	m, out, _, _ := newMonitor(t, cfg)
	m.run(time.Second, 1)
	if got, want := out.String(), "T: 30 C  H: 50 RH\n"; got != want {
		t.Fatalf("output %q, want %q", got, want)
	}
}

func TestMonitor_absent(t *testing.T) {
	fault := &twitest.Fault{Conn: aht20emu.New(nil), NACK: 1}
	log, hook := test.NewNullLogger()
	var out bytes.Buffer
	m := &monitor{
		bus:   twi.NewFramer(fault, nil),
		opts:  emulatedConfig().sensorOpts(func(time.Duration) {}),
		log:   log,
		out:   &out,
		sleep: func(time.Duration) {},
	}

	// The loop keeps running while the sensor is missing.
	m.run(time.Second, 3)
	if out.Len() != 0 {
		t.Fatalf("unexpected output %q", out.String())
	}
	entries := hook.AllEntries()
	if len(entries) != 3 {
		t.Fatalf("got %d log entries, want 3", len(entries))
	}
	for _, e := range entries {
		if e.Message != "Measurement error" {
			t.Fatalf("unexpected message %q", e.Message)
		}
		err, _ := e.Data[logrus.ErrorKey].(error)
		var absent *aht20.SensorAbsentError
		if !errors.As(err, &absent) {
			t.Fatalf("expected SensorAbsentError, got %v", err)
		}
	}

	// The sensor shows up: the next tick begins it and measures.
	fault.NACK = 0
	if err := m.tick(); err != nil {
		t.Fatal(err)
	}
	if out.String() != "T: 96 C  H: 66 RH\n" {
		t.Fatalf("unexpected output %q", out.String())
	}
}

func TestMonitor_notCalibrated(t *testing.T) {
	// Calibration succeeds, then the sensor reports a lost calibration.
	fault := &twitest.Fault{Conn: aht20emu.New(nil)}
	m, out, _, _ := newMonitor(t, emulatedConfig())
	m.bus = twi.NewFramer(fault, nil)
	if err := m.tick(); err != nil {
		t.Fatal(err)
	}
	frame := aht20.NewFrame(0, 0, 0)
	fault.Conn = aht20emu.New(&aht20emu.Opts{Frame: &frame})
	err := m.tick()
	var nc *aht20.NotCalibratedError
	if !errors.As(err, &nc) {
		t.Fatalf("expected NotCalibratedError, got %v", err)
	}
	if m.dev != nil {
		t.Fatal("device should be begun again")
	}
	if out.String() != "T: 96 C  H: 66 RH\n" {
		t.Fatalf("unexpected output %q", out.String())
	}
}

func TestMonitor_displays(t *testing.T) {
	m, out, _, _ := newMonitor(t, emulatedConfig())
	card, err := gauge.NewCard(100, 50)
	if err != nil {
		t.Fatal(err)
	}
	m.card = card
	m.snapshot = filepath.Join(t.TempDir(), "latest.png")
	m.term = gauge.NewTerminal(nil)
	m.run(time.Second, 1)
	if out.Len() != 0 {
		t.Fatalf("text output while drawing bars: %q", out.String())
	}
	if _, err := os.Stat(m.snapshot); err != nil {
		t.Fatal(err)
	}
}

func TestSetupController(t *testing.T) {
	f := twi.NewFramer(&twitest.Fault{Conn: aht20emu.New(nil), Absent: true}, nil)
	if err := setupController(f, defaultConfig().Bus); err != errUnavailable {
		t.Fatalf("got %v, want %v", err, errUnavailable)
	}
	f = twi.NewFramer(aht20emu.New(nil), nil)
	if err := setupController(f, defaultConfig().Bus); err != nil {
		t.Fatal(err)
	}
	// A Conn that cannot be configured.
	f = twi.NewFramer(&twitest.Record{}, nil)
	if err := setupController(f, defaultConfig().Bus); err == nil {
		t.Fatal("expected error")
	}
}

func TestEmulatedDelay(t *testing.T) {
	log, hook := test.NewNullLogger()
	log.SetLevel(logrus.DebugLevel)
	emulatedDelay(log)(100 * time.Millisecond)
	if e := hook.LastEntry(); e == nil || e.Message != "em. Delay 100 ms" {
		t.Fatalf("unexpected entry %v", e)
	}
}

func TestNewLogger(t *testing.T) {
	l, err := newLogger(LoggingConfig{Level: "debug", Format: "json"})
	if err != nil {
		t.Fatal(err)
	}
	if l.Level != logrus.DebugLevel {
		t.Fatal(l.Level)
	}
	if _, ok := l.Formatter.(*logrus.JSONFormatter); !ok {
		t.Fatalf("unexpected formatter %T", l.Formatter)
	}
	if _, err := newLogger(LoggingConfig{Level: "loud"}); err == nil {
		t.Fatal("expected error")
	}
}
