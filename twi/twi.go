// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package twi

import (
	"errors"
	"fmt"

	"periph.io/x/conn/v3/physic"
)

// Ack is the acknowledgement outcome of a single byte exchange.
//
// The encoding is protocol-internal and does not represent the SDA level.
type Ack uint8

const (
	ACK  Ack = 0
	NACK Ack = 1
)

func (a Ack) String() string {
	if a == ACK {
		return "ACK"
	}
	return "NACK"
}

// Dir is the direction bit appended to a 7 bit address.
type Dir uint8

const (
	Write Dir = 0
	Read  Dir = 1
)

func (d Dir) String() string {
	if d == Write {
		return "W"
	}
	return "R"
}

// Addr is a right aligned 7 bit slave address. It does not include the R/W
// bit.
type Addr uint8

// Byte returns the framed address byte for the given direction.
func (a Addr) Byte(d Dir) byte {
	return byte(a&0x7f)<<1 | byte(d&1)
}

// Split decodes a framed address byte.
func Split(b byte) (Addr, Dir) {
	return Addr(b >> 1), Dir(b & 1)
}

func (a Addr) String() string {
	return fmt.Sprintf("0x%02x", uint8(a))
}

// Conn is a byte-granular connection to a bus controller.
//
// Every call blocks until the exchange is complete. A transport failure, for
// example a controller that is gone, is reported as an error and is never
// folded into NACK.
type Conn interface {
	// Start emits a start (or repeated start) condition.
	Start() error
	// Stop emits a stop condition.
	Stop() error
	// Send transmits b and returns the acknowledgement sent back by the slave.
	Send(b byte) (Ack, error)
	// Receive reads one byte. ack is the acknowledgement the master answers
	// with: ACK to ask for more bytes, NACK to mark the last one. The returned
	// Ack is NACK when the byte could not be delivered.
	Receive(ack Ack) (byte, Ack, error)
}

// Config holds the controller setup parameters.
type Config struct {
	// Frequency is the SCL frequency. 0 keeps the controller's default.
	Frequency physic.Frequency
	// Prescaler and Divider are the raw clock divider settings of
	// controllers that expose them instead of a frequency.
	Prescaler int
	Divider   int
	// ClockStretch permits the slave to hold SCL low.
	ClockStretch bool
}

// Controller is implemented by a Conn that can report availability and be
// configured before its first transaction.
type Controller interface {
	Available() bool
	Configure(c *Config) error
}

// ErrNoDevice is returned by a Conn when the bus reports that no device is
// present.
var ErrNoDevice = errors.New("twi: no device")

// Phase identifies which part of a framed transaction was not acknowledged.
type Phase uint8

const (
	AddressPhase Phase = iota
	DataPhase
)

func (p Phase) String() string {
	if p == AddressPhase {
		return "address"
	}
	return "data"
}

// NACKError is returned by Framer.Tx when a transaction was not acknowledged.
type NACKError struct {
	Addr  Addr
	Dir   Dir
	Phase Phase
	// N is the number of data bytes transferred before the NACK.
	N int
}

func (e *NACKError) Error() string {
	return fmt.Sprintf("twi: %s NACK from %s/%s after %d bytes", e.Phase, e.Addr, e.Dir, e.N)
}

// IsAddressNACK reports whether err wraps a NACKError raised while sending the
// address byte.
func IsAddressNACK(err error) bool {
	var n *NACKError
	return errors.As(err, &n) && n.Phase == AddressPhase
}
