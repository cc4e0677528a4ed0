// Copyright 2021 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package twisense drives an AHT20 temperature and humidity sensor over a
// byte-level TWI (I²C) master, and emulates the sensor on the same bus so the
// stack can run without hardware.
//
// The packages are:
//
//   - twi: the framer turning byte transfers into I²C transactions.
//   - aht20: the sensor driver and the measurement decoder.
//   - aht20/aht20emu: the slave-side emulator.
//   - gauge: terminal and image rendering of readings.
//   - cmd/aht20monitor: the periodic measurement command.
package twisense
