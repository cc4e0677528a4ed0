// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package common contains functions used across multiple packages, such as
// the CRC8 appended by Sensirion and Aosong sensors to their data frames.
package common

const (
	crc8Poly = 0x31
	crc8Init = 0xff
)

var crc8Table = makeCRC8Table()

func makeCRC8Table() (t [256]byte) {
	for i := range t {
		c := byte(i)
		for range 8 {
			if c&0x80 != 0 {
				c = c<<1 ^ crc8Poly
			} else {
				c <<= 1
			}
		}
		t[i] = c
	}
	return t
}

// CRC8 calculates the 8-bit CRC of the byte slice parameter and returns the
// calculated value. The polynomial is x^8 + x^5 + x^4 + 1 (0x31) with an
// initial value of 0xff, as used by TI, Sensirion and the AHT20.
func CRC8(bytes []byte) byte {
	return UpdateCRC8(crc8Init, bytes)
}

// UpdateCRC8 continues the CRC crc over bytes, for data that arrives in
// pieces. Start with CRC8(nil).
func UpdateCRC8(crc byte, bytes []byte) byte {
	for _, b := range bytes {
		crc = crc8Table[crc^b]
	}
	return crc
}

// CheckCRC8 reports whether the last byte of frame is the CRC8 of the bytes
// before it. An empty frame never checks.
func CheckCRC8(frame []byte) bool {
	if len(frame) == 0 {
		return false
	}
	n := len(frame) - 1
	return CRC8(frame[:n]) == frame[n]
}
