// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package aht20emu emulates the bus side of an AHT20 sensor.
//
// Emulator implements twi.Conn: wrap it in a twi.Framer and hand the framer to
// aht20.NewI2C to run the driver without hardware. The emulator recognizes the
// calibrate and trigger commands and answers every read with a fixed
// measurement frame. It acknowledges every byte.
package aht20emu

import (
	"fmt"
	"io"

	"github.com/sirupsen/logrus"

	"github.com/GermanBionicSystems/twisense/aht20"
	"github.com/GermanBionicSystems/twisense/common"
	"github.com/GermanBionicSystems/twisense/twi"
)

// DefaultFrame is the measurement served when Opts.Frame is nil. The status
// byte has the calibration bit set.
var DefaultFrame = aht20.Frame{0x08, 0xaa, 0xaa, 0xab, 0xbb, 0xbb}

// State is the transaction state of the emulator.
type State uint8

const (
	Idle State = iota
	ReceivingCommand
	SendingData
	numStates
)

func (s State) String() string {
	switch s {
	case Idle:
		return "Idle"
	case ReceivingCommand:
		return "ReceivingCommand"
	case SendingData:
		return "SendingData"
	default:
		return fmt.Sprintf("State(%d)", uint8(s))
	}
}

// input classifies a byte exchange.
type input uint8

const (
	inWriteAddr input = iota
	inReadAddr
	inForeignAddr
	inData
	inRead
	numInputs
)

// transition applies one input. b holds the byte written by the master, or
// receives the byte returned for a read. It returns the next state.
type transition func(e *Emulator, b *byte) State

// transitions has an entry for every state and input.
var transitions = [numStates][numInputs]transition{
	Idle: {
		inWriteAddr:   (*Emulator).beginCommand,
		inReadAddr:    (*Emulator).beginData,
		inForeignAddr: (*Emulator).release,
		inData:        (*Emulator).ignore,
		inRead:        (*Emulator).fill,
	},
	ReceivingCommand: {
		inWriteAddr:   (*Emulator).beginCommand,
		inReadAddr:    (*Emulator).beginData,
		inForeignAddr: (*Emulator).release,
		inData:        (*Emulator).appendCommand,
		inRead:        (*Emulator).fill,
	},
	SendingData: {
		inWriteAddr:   (*Emulator).beginCommand,
		inReadAddr:    (*Emulator).beginData,
		inForeignAddr: (*Emulator).release,
		inData:        (*Emulator).ignore,
		inRead:        (*Emulator).nextByte,
	},
}

// Opts holds the configuration options for the emulator.
type Opts struct {
	// Addr is the 7 bit address answered to. Default is aht20.Address.
	Addr twi.Addr
	// Frame is the measurement served on reads. Default is DefaultFrame.
	Frame *aht20.Frame
	// AppendCRC serves the CRC8 of the frame as a 7th byte, like the real
	// sensor. When false, reads past the frame return 0xFF.
	AppendCRC bool
	// Log receives the emulator trace. Default discards it.
	Log logrus.FieldLogger
}

// Emulator is an emulated AHT20 seen from the bus.
//
// It is not safe for concurrent use; a twi.Framer serializes access to it.
type Emulator struct {
	addr twi.Addr
	out  []byte
	log  logrus.FieldLogger

	// Transaction state, reset by start and stop conditions.
	state      State
	addressing bool
	cmd        aht20.Command
	cmdLen     int
	sent       int

	// Sensor state, kept until Reset.
	calibrated bool
	triggered  bool
}

// New returns an uncalibrated emulator in the Idle state. opts can be nil.
func New(opts *Opts) *Emulator {
	if opts == nil {
		opts = &Opts{}
	}
	e := &Emulator{addr: opts.Addr, log: opts.Log}
	if e.addr == 0 {
		e.addr = aht20.Address
	}
	if e.log == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		e.log = l
	}
	f := DefaultFrame
	if opts.Frame != nil {
		f = *opts.Frame
	}
	e.out = append([]byte(nil), f[:]...)
	if opts.AppendCRC {
		e.out = append(e.out, common.CRC8(f[:]))
	}
	return e
}

// Start implements twi.Conn. The next byte sent is an address byte.
func (e *Emulator) Start() error {
	e.state = Idle
	e.addressing = true
	e.cmdLen = 0
	e.sent = 0
	e.log.Debug("em. I2C Start generated.")
	return nil
}

// Stop implements twi.Conn. A partially received command is dropped.
func (e *Emulator) Stop() error {
	if e.state == ReceivingCommand && e.cmdLen != 0 {
		e.log.Debugf("em. dropping partial command % x", e.cmd[:e.cmdLen])
	}
	e.state = Idle
	e.addressing = false
	e.cmdLen = 0
	e.log.Debug("em. I2C Stop generated.")
	return nil
}

// Send implements twi.Conn. Every byte is acknowledged.
func (e *Emulator) Send(b byte) (twi.Ack, error) {
	in := inData
	if e.addressing {
		e.addressing = false
		in = e.classify(b)
	}
	e.step(in, &b)
	return twi.ACK, nil
}

// Receive implements twi.Conn. Every byte is acknowledged, including the
// 0xFF filler returned past the end of the frame.
func (e *Emulator) Receive(ack twi.Ack) (byte, twi.Ack, error) {
	e.addressing = false
	var b byte
	e.step(inRead, &b)
	return b, twi.ACK, nil
}

// Available implements twi.Controller. The emulated controller is always
// present.
func (e *Emulator) Available() bool {
	return true
}

// Configure implements twi.Controller.
func (e *Emulator) Configure(c *twi.Config) error {
	e.log.WithFields(logrus.Fields{
		"frequency": c.Frequency,
		"prescaler": c.Prescaler,
		"divider":   c.Divider,
		"stretch":   c.ClockStretch,
	}).Info("em. TWI setup")
	return nil
}

// Reset restores the power-on state: Idle and uncalibrated.
func (e *Emulator) Reset() {
	e.state = Idle
	e.addressing = false
	e.cmdLen = 0
	e.sent = 0
	e.calibrated = false
	e.triggered = false
}

// State returns the current transaction state.
func (e *Emulator) State() State {
	return e.state
}

// Calibrated reports whether a calibrate command was received.
func (e *Emulator) Calibrated() bool {
	return e.calibrated
}

// MeasurementTriggered reports whether a trigger command was accepted.
func (e *Emulator) MeasurementTriggered() bool {
	return e.triggered
}

func (e *Emulator) String() string {
	return "aht20emu"
}

func (e *Emulator) classify(b byte) input {
	a, d := twi.Split(b)
	switch {
	case a != e.addr:
		return inForeignAddr
	case d == twi.Write:
		return inWriteAddr
	default:
		return inReadAddr
	}
}

func (e *Emulator) step(in input, b *byte) {
	prev := e.state
	e.state = transitions[prev][in](e, b)
	if prev != e.state {
		e.log.Debugf("em. %s -> %s", prev, e.state)
	}
}

func (e *Emulator) beginCommand(*byte) State {
	e.cmdLen = 0
	return ReceivingCommand
}

func (e *Emulator) beginData(*byte) State {
	e.sent = 0
	return SendingData
}

func (e *Emulator) release(b *byte) State {
	e.log.Debugf("em. address byte %#02x is not ours", *b)
	return Idle
}

func (e *Emulator) ignore(*byte) State {
	return e.state
}

func (e *Emulator) fill(b *byte) State {
	*b = 0xFF
	return e.state
}

func (e *Emulator) appendCommand(b *byte) State {
	e.cmd[e.cmdLen] = *b
	e.cmdLen++
	if e.cmdLen < len(e.cmd) {
		return ReceivingCommand
	}
	e.cmdLen = 0
	e.evaluate(e.cmd)
	return Idle
}

func (e *Emulator) nextByte(b *byte) State {
	*b = e.out[e.sent]
	e.sent++
	if e.sent == len(e.out) {
		return Idle
	}
	return SendingData
}

func (e *Emulator) evaluate(c aht20.Command) {
	switch c {
	case aht20.CmdCalibrate:
		e.calibrated = true
		e.log.Debug("em. calibrated")
	case aht20.CmdTrigger:
		if !e.calibrated {
			e.log.Debug("em. trigger ignored, sensor not calibrated")
			return
		}
		e.triggered = true
		e.log.Debug("em. measurement triggered")
	default:
		e.log.Debugf("em. ignoring command % x", c[:])
	}
}

var _ twi.Conn = &Emulator{}
var _ twi.Controller = &Emulator{}
