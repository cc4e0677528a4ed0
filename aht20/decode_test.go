// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package aht20

import (
	"testing"
)

func TestFrame_raw(t *testing.T) {
	f := Frame{0x08, 0xaa, 0xaa, 0xab, 0xbb, 0xbb}
	if h := f.RawHumidity(); h != 0xaaaaa {
		t.Fatalf("raw humidity %#x", h)
	}
	if tc := f.RawTemperature(); tc != 0xbbbbb {
		t.Fatalf("raw temperature %#x", tc)
	}
	if !f.Calibrated() || f.Busy() || f.Status() != 0x08 {
		t.Fatalf("status %#02x decoded wrong", f.Status())
	}
	if h := HumidityPercent(f.RawHumidity()); h != 66 {
		t.Fatalf("humidity %d%% != 66%%", h)
	}
	if tc := TemperatureCelsius(f.RawTemperature()); tc != 96 {
		t.Fatalf("temperature %d°C != 96°C", tc)
	}
	// Decoding does not alter the frame.
	g := f
	first := TemperatureCelsius(f.RawTemperature())
	if second := TemperatureCelsius(f.RawTemperature()); first != second || f != g {
		t.Fatal("decoding is not deterministic")
	}
}

func TestNewFrame_roundTrip(t *testing.T) {
	data := []struct {
		h, t uint32
	}{
		{0, 0},
		{0xfffff, 0xfffff},
		{0x12345, 0x6789a},
		{0x80000, 0x00001},
		{0x00001, 0x80000},
		{0x75520, 0x58e40},
	}
	for _, line := range data {
		f := NewFrame(0x1c, line.h, line.t)
		if got := f.RawHumidity(); got != line.h {
			t.Errorf("NewFrame(%#x, %#x).RawHumidity() = %#x", line.h, line.t, got)
		}
		if got := f.RawTemperature(); got != line.t {
			t.Errorf("NewFrame(%#x, %#x).RawTemperature() = %#x", line.h, line.t, got)
		}
		if f.Status() != 0x1c {
			t.Errorf("status %#02x", f.Status())
		}
	}
	// Exhaustive over the nibble shared by both values.
	for n := uint32(0); n < 256; n++ {
		h, tc := n>>4|0xab0, (n&0x0F)<<16|0x1234
		f := NewFrame(0, h, tc)
		if f.RawHumidity() != h || f.RawTemperature() != tc {
			t.Fatalf("round trip failed for %#x, %#x: % x", h, tc, f[:])
		}
	}
}

func TestHumidityPercent(t *testing.T) {
	data := []struct {
		raw  uint32
		want uint32
	}{
		{0, 0},
		{1 << 19, 50},
		{0xfffff, 99},
		// Out of range values are decoded as is.
		{1 << 20, 100},
		{0xffffffff, 409599},
	}
	for _, line := range data {
		if got := HumidityPercent(line.raw); got != line.want {
			t.Errorf("HumidityPercent(%#x) = %d, expected %d", line.raw, got, line.want)
		}
	}
}

func TestTemperatureCelsius(t *testing.T) {
	data := []struct {
		raw  uint32
		want int32
	}{
		{0, -50},
		{1, -50},
		{1 << 18, 0},
		{1 << 19, 50},
		{0xfffff, 149},
		{1 << 20, 150},
	}
	for _, line := range data {
		if got := TemperatureCelsius(line.raw); got != line.want {
			t.Errorf("TemperatureCelsius(%#x) = %d, expected %d", line.raw, got, line.want)
		}
	}
}

func TestParseFrame(t *testing.T) {
	if _, err := ParseFrame([]byte{1, 2, 3, 4, 5}); err == nil {
		t.Error("short frame accepted")
	}
	if _, err := ParseFrame([]byte{1, 2, 3, 4, 5, 6, 7}); err == nil {
		t.Error("long frame accepted")
	}
	f, err := ParseFrame([]byte{1, 2, 3, 4, 5, 6})
	if err != nil {
		t.Fatal(err)
	}
	if f != (Frame{1, 2, 3, 4, 5, 6}) {
		t.Fatalf("frame % x", f[:])
	}
}

func TestFrame_At(t *testing.T) {
	f := Frame{0, 1, 2, 3, 4, 5}
	for i := 0; i < FrameSize; i++ {
		b, err := f.At(i)
		if err != nil || int(b) != i {
			t.Fatalf("At(%d) = %d, %v", i, b, err)
		}
	}
	for _, i := range []int{-1, FrameSize, 100} {
		if _, err := f.At(i); err == nil {
			t.Errorf("At(%d) accepted", i)
		}
	}
}
