// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package common

import "testing"

func TestCRC8(t *testing.T) {
	var tests = []struct {
		bytes  []byte
		result byte
	}{
		{bytes: []byte{0xbe, 0xef}, result: 0x92},
		{bytes: []byte{0x01, 0xa4}, result: 0x4d},
		{bytes: []byte{0xab, 0xcd}, result: 0x6f},
		// AHT20 measurement frame.
		{bytes: []byte{0x18, 0x75, 0x52, 0x05, 0x8E, 0x40}, result: 0x7f},
	}
	for _, test := range tests {
		res := CRC8(test.bytes)
		if res != test.result {
			t.Errorf("CRC8(%#v)!=%#02x received %#02x", test.bytes, test.result, res)
		}
	}
}

func TestCheckCRC8(t *testing.T) {
	if !CheckCRC8([]byte{0x18, 0x75, 0x52, 0x05, 0x8E, 0x40, 0x7f}) {
		t.Error("valid frame rejected")
	}
	if CheckCRC8([]byte{0x18, 0x75, 0x52, 0x05, 0x8E, 0x41, 0x7f}) {
		t.Error("corrupt frame accepted")
	}
	if CheckCRC8(nil) {
		t.Error("empty frame accepted")
	}
}

func TestUpdateCRC8(t *testing.T) {
	frame := []byte{0x18, 0x75, 0x52, 0x05, 0x8E, 0x40}
	crc := CRC8(nil)
	for i := range frame {
		crc = UpdateCRC8(crc, frame[i:i+1])
	}
	if crc != CRC8(frame) {
		t.Errorf("incremental CRC %#02x, want %#02x", crc, CRC8(frame))
	}
}
