// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package twi

import (
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/sirupsen/logrus"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/physic"
	"tinygo.org/x/drivers"
)

// Framer composes single byte exchanges on a Conn into framed multi-byte
// transactions.
//
// Every transaction is bracketed by a start and a stop condition. The stop
// condition is emitted even when the transaction fails so the bus is left
// idle.
//
// Framer implements i2c.Bus so periph device drivers can use it directly, and
// drivers.I2C for TinyGo device drivers.
type Framer struct {
	mu  sync.Mutex
	c   Conn
	log logrus.FieldLogger
}

// NewFramer returns a Framer driving c. log receives a debug trace of every
// byte exchanged; it can be nil.
func NewFramer(c Conn, log logrus.FieldLogger) *Framer {
	if log == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		log = l
	}
	return &Framer{c: c, log: log}
}

// result describes how far a framed transaction got.
type result struct {
	n     int
	phase Phase
	ack   Ack
}

// Write frames a write of data to addr.
//
// It returns NACK as soon as the address or a data byte is not acknowledged;
// the remaining bytes are not sent. A zero length data is a valid address-only
// transaction.
func (f *Framer) Write(addr Addr, data []byte) (Ack, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	res, err := f.write(addr, data)
	return res.ack, err
}

// Read frames a read of len(buf) bytes from addr.
//
// Every byte is acknowledged by the master except the last one. It returns the
// number of bytes stored in buf, which is less than len(buf) when the
// transaction failed midway.
func (f *Framer) Read(addr Addr, buf []byte) (int, Ack, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	res, err := f.read(addr, buf)
	return res.n, res.ack, err
}

// Tx implements i2c.Bus.
//
// w is written in one transaction, then r is read in a second one. A NACK is
// returned as a *NACKError.
func (f *Framer) Tx(addr uint16, w, r []byte) error {
	if addr > 0x7f {
		return fmt.Errorf("twi: invalid 7 bit address %#x", addr)
	}
	a := Addr(addr)
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(w) != 0 || len(r) == 0 {
		res, err := f.write(a, w)
		if err != nil {
			return err
		}
		if res.ack == NACK {
			return &NACKError{Addr: a, Dir: Write, Phase: res.phase, N: res.n}
		}
	}
	if len(r) != 0 {
		res, err := f.read(a, r)
		if err != nil {
			return err
		}
		if res.ack == NACK {
			return &NACKError{Addr: a, Dir: Read, Phase: res.phase, N: res.n}
		}
	}
	return nil
}

// SetSpeed implements i2c.Bus.
func (f *Framer) SetSpeed(freq physic.Frequency) error {
	return f.Configure(&Config{Frequency: freq})
}

// Available reports whether the underlying controller is present. A Conn that
// does not implement Controller is assumed present.
func (f *Framer) Available() bool {
	if c, ok := f.c.(Controller); ok {
		return c.Available()
	}
	return true
}

// Configure forwards cfg to the underlying controller.
func (f *Framer) Configure(cfg *Config) error {
	c, ok := f.c.(Controller)
	if !ok {
		return errors.New("twi: controller cannot be configured")
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := c.Configure(cfg); err != nil {
		return fmt.Errorf("twi: configure: %w", err)
	}
	return nil
}

// Close closes the underlying Conn if it is an io.Closer.
func (f *Framer) Close() error {
	if c, ok := f.c.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

func (f *Framer) String() string {
	if s, ok := f.c.(fmt.Stringer); ok {
		return "twi(" + s.String() + ")"
	}
	return "twi"
}

func (f *Framer) write(addr Addr, data []byte) (res result, err error) {
	res.ack = NACK
	defer f.stop(&err)
	if err = f.start(); err != nil {
		return res, err
	}
	if res.ack, err = f.send(addr.Byte(Write)); err != nil || res.ack == NACK {
		return res, err
	}
	res.phase = DataPhase
	for _, b := range data {
		if res.ack, err = f.send(b); err != nil || res.ack == NACK {
			return res, err
		}
		res.n++
	}
	return res, nil
}

func (f *Framer) read(addr Addr, buf []byte) (res result, err error) {
	res.ack = NACK
	defer f.stop(&err)
	if err = f.start(); err != nil {
		return res, err
	}
	if res.ack, err = f.send(addr.Byte(Read)); err != nil || res.ack == NACK {
		return res, err
	}
	res.phase = DataPhase
	for i := range buf {
		want := ACK
		if i == len(buf)-1 {
			want = NACK
		}
		var b byte
		b, res.ack, err = f.c.Receive(want)
		if err != nil {
			res.ack = NACK
			return res, fmt.Errorf("twi: receive byte %d: %w", i, err)
		}
		f.log.Debugf("twi: rx %s %s", hexByte(b), res.ack)
		if res.ack == NACK {
			return res, nil
		}
		buf[i] = b
		res.n++
	}
	res.ack = ACK
	return res, nil
}

func (f *Framer) start() error {
	if err := f.c.Start(); err != nil {
		return fmt.Errorf("twi: start: %w", err)
	}
	return nil
}

// stop always emits the stop condition; its error only surfaces when the
// transaction itself succeeded.
func (f *Framer) stop(err *error) {
	if serr := f.c.Stop(); serr != nil && *err == nil {
		*err = fmt.Errorf("twi: stop: %w", serr)
	}
}

func (f *Framer) send(b byte) (Ack, error) {
	ack, err := f.c.Send(b)
	if err != nil {
		return NACK, fmt.Errorf("twi: send %s: %w", hexByte(b), err)
	}
	f.log.Debugf("twi: tx %s %s", hexByte(b), ack)
	return ack, nil
}

func hexByte(b byte) string {
	const symbols = "0123456789abcdef"
	return string([]byte{symbols[b>>4], symbols[b&0x0f]})
}

var _ i2c.BusCloser = &Framer{}
var _ drivers.I2C = &Framer{}
