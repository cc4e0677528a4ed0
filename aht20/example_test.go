// Copyright 2024 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package aht20_test

import (
	"fmt"
	"log"
	"time"

	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/host/v3"

	"github.com/GermanBionicSystems/twisense/aht20"
	"github.com/GermanBionicSystems/twisense/aht20/aht20emu"
	"github.com/GermanBionicSystems/twisense/twi"
)

func Example() {
	if _, err := host.Init(); err != nil {
		log.Fatal(err)
	}
	b, err := i2creg.Open("")
	if err != nil {
		log.Fatalf("failed to open I²C: %v", err)
	}
	defer b.Close()

	// NewI2C calibrates the sensor before returning.
	d, err := aht20.NewI2C(b, nil)
	if err != nil {
		log.Fatalf("AHT20 not ready: %v", err)
	}

	// Read the raw frame and decode it in integer arithmetic.
	var f aht20.Frame
	if err := d.TriggerAndRead(&f); err != nil {
		log.Fatal(err)
	}
	if !f.Calibrated() {
		log.Fatalf("AHT20 lost its calibration (status %#02x)", f.Status())
	}
	fmt.Printf("T: %d C  H: %d RH\n", aht20.TemperatureCelsius(f.RawTemperature()), aht20.HumidityPercent(f.RawHumidity()))
}

func Example_emulated() {
	// The emulator plays the sensor on a byte-level bus.
	b := twi.NewFramer(aht20emu.New(nil), nil)
	opts := aht20.DefaultOpts
	opts.Delay = func(time.Duration) {}

	d, err := aht20.NewI2C(b, &opts)
	if err != nil {
		log.Fatal(err)
	}
	var f aht20.Frame
	if err := d.TriggerAndRead(&f); err != nil {
		log.Fatal(err)
	}
	fmt.Printf("T: %d C  H: %d RH\n", aht20.TemperatureCelsius(f.RawTemperature()), aht20.HumidityPercent(f.RawHumidity()))
	// Output: T: 96 C  H: 66 RH
}
