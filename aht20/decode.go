// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package aht20

import (
	"fmt"

	"periph.io/x/conn/v3/physic"
)

// FrameSize is the length of a measurement frame, without the CRC byte.
const FrameSize = 6

// rawScale is 2^20, the full scale of a 20 bit raw value.
const rawScale = 1 << 20

// Frame is a measurement frame as returned by the sensor:
//
//	[status] [HH] [HH] [HT] [TT] [TT]
//
// Bit 3 of the status byte is the calibration flag, bit 7 the busy flag. The
// 20 bit humidity occupies bytes 1, 2 and the high nibble of byte 3, the 20 bit
// temperature the low nibble of byte 3 and bytes 4 and 5.
type Frame [FrameSize]byte

// ParseFrame copies b into a Frame. b must be exactly FrameSize bytes long.
func ParseFrame(b []byte) (Frame, error) {
	var f Frame
	if len(b) != FrameSize {
		return f, fmt.Errorf("aht20: frame is %d bytes, expected %d", len(b), FrameSize)
	}
	copy(f[:], b)
	return f, nil
}

// NewFrame packs a status byte and two 20 bit raw values into a Frame. Bits
// above the 20th are dropped.
func NewFrame(status byte, rawHumidity, rawTemperature uint32) Frame {
	rawHumidity &= rawScale - 1
	rawTemperature &= rawScale - 1
	return Frame{
		status,
		byte(rawHumidity >> 12),
		byte(rawHumidity >> 4),
		byte(rawHumidity<<4) | byte(rawTemperature>>16)&0x0F,
		byte(rawTemperature >> 8),
		byte(rawTemperature),
	}
}

// At returns the byte at index i. Indexes outside the frame are rejected.
func (f *Frame) At(i int) (byte, error) {
	if i < 0 || i >= FrameSize {
		return 0, fmt.Errorf("aht20: frame index %d out of range [0, %d)", i, FrameSize)
	}
	return f[i], nil
}

// Status returns the status byte.
func (f *Frame) Status() byte {
	return f[0]
}

// Calibrated reports whether the calibration bit is set.
func (f *Frame) Calibrated() bool {
	return f[0]&bitInitialized != 0
}

// Busy reports whether the sensor was still converting.
func (f *Frame) Busy() bool {
	return f[0]&bitBusy != 0
}

// RawHumidity returns the 20 bit raw humidity.
func (f *Frame) RawHumidity() uint32 {
	return uint32(f[1])<<12 | uint32(f[2])<<4 | uint32(f[3])>>4
}

// RawTemperature returns the 20 bit raw temperature.
func (f *Frame) RawTemperature() uint32 {
	return (uint32(f[3])&0x0F)<<16 | uint32(f[4])<<8 | uint32(f[5])
}

// HumidityPercent converts a raw humidity to whole percent RH, truncating.
//
// The value is not clamped: raw values past full scale decode past 100.
func HumidityPercent(raw uint32) uint32 {
	return uint32(uint64(raw) * 100 / rawScale)
}

// TemperatureCelsius converts a raw temperature to whole degrees Celsius,
// truncating the scaled value before the offset is applied, as the datasheet
// formula does in integer arithmetic.
func TemperatureCelsius(raw uint32) int32 {
	return int32(uint64(raw)*200/rawScale) - 50
}

// Humidity converts a raw humidity to a physic.RelativeHumidity.
func Humidity(raw uint32) physic.RelativeHumidity {
	humidityRH := float64(raw) / rawScale * 100.0
	return physic.RelativeHumidity(humidityRH * float64(physic.PercentRH))
}

// Temperature converts a raw temperature to a physic.Temperature.
func Temperature(raw uint32) physic.Temperature {
	temperatureC := (float64(raw)/rawScale)*200 - 50.0
	return physic.Temperature(temperatureC*float64(physic.Kelvin)) + physic.ZeroCelsius
}
