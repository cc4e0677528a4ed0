// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package twitest is meant to be used to test drivers over a fake byte-level
// TWI controller.
package twitest

import (
	"errors"
	"fmt"
	"sync"

	"github.com/GermanBionicSystems/twisense/twi"
)

// Op is the kind of a recorded exchange.
type Op uint8

const (
	Start Op = iota
	Stop
	Send
	Receive
)

func (o Op) String() string {
	switch o {
	case Start:
		return "Start"
	case Stop:
		return "Stop"
	case Send:
		return "Send"
	case Receive:
		return "Receive"
	default:
		return fmt.Sprintf("Op(%d)", uint8(o))
	}
}

// IO registers one exchange on the bus.
type IO struct {
	Op Op
	// B is the byte sent or received.
	B byte
	// Want is the acknowledgement the master answered a Receive with.
	Want twi.Ack
	// Ack is the outcome returned by the Conn.
	Ack twi.Ack
}

func (i IO) String() string {
	switch i.Op {
	case Send:
		return fmt.Sprintf("Send(%#02x)=%s", i.B, i.Ack)
	case Receive:
		return fmt.Sprintf("Receive(%s)=%#02x,%s", i.Want, i.B, i.Ack)
	default:
		return i.Op.String()
	}
}

// Record implements twi.Conn that records everything written to it.
//
// This can then be used to feed to Playback to do "replay" based unit tests.
type Record struct {
	sync.Mutex
	Conn twi.Conn // Conn can be nil if only writes are being recorded.
	Ops  []IO
}

func (r *Record) String() string {
	return "record"
}

// Start implements twi.Conn.
func (r *Record) Start() error {
	r.Lock()
	defer r.Unlock()
	r.Ops = append(r.Ops, IO{Op: Start})
	if r.Conn == nil {
		return nil
	}
	return r.Conn.Start()
}

// Stop implements twi.Conn.
func (r *Record) Stop() error {
	r.Lock()
	defer r.Unlock()
	r.Ops = append(r.Ops, IO{Op: Stop})
	if r.Conn == nil {
		return nil
	}
	return r.Conn.Stop()
}

// Send implements twi.Conn.
func (r *Record) Send(b byte) (twi.Ack, error) {
	r.Lock()
	defer r.Unlock()
	ack := twi.ACK
	if r.Conn != nil {
		var err error
		if ack, err = r.Conn.Send(b); err != nil {
			return ack, err
		}
	}
	r.Ops = append(r.Ops, IO{Op: Send, B: b, Ack: ack})
	return ack, nil
}

// Receive implements twi.Conn.
func (r *Record) Receive(want twi.Ack) (byte, twi.Ack, error) {
	r.Lock()
	defer r.Unlock()
	if r.Conn == nil {
		return 0, twi.NACK, errors.New("twitest: read unsupported when no bus is connected")
	}
	b, ack, err := r.Conn.Receive(want)
	if err != nil {
		return b, ack, err
	}
	r.Ops = append(r.Ops, IO{Op: Receive, B: b, Want: want, Ack: ack})
	return b, ack, nil
}

// Sent returns the bytes of every recorded Send, in order.
func (r *Record) Sent() []byte {
	r.Lock()
	defer r.Unlock()
	var out []byte
	for _, io := range r.Ops {
		if io.Op == Send {
			out = append(out, io.B)
		}
	}
	return out
}

// Playback implements twi.Conn and plays back a recorded I/O flow.
//
// While "replay" type of unit tests are of limited value, they still present
// an easy way to do basic code coverage.
//
// Set DontPanic to true to return an error instead of panicking, which is the
// default.
type Playback struct {
	sync.Mutex
	Ops       []IO
	Count     int
	DontPanic bool
}

func (p *Playback) String() string {
	return "playback"
}

// Close verifies that all the expected Ops have been consumed.
func (p *Playback) Close() error {
	p.Lock()
	defer p.Unlock()
	if len(p.Ops) != p.Count {
		return errorf(p.DontPanic, "twitest: expected playback to be empty: I/O count %d; expected %d", p.Count, len(p.Ops))
	}
	return nil
}

// Start implements twi.Conn.
func (p *Playback) Start() error {
	_, err := p.next(IO{Op: Start})
	return err
}

// Stop implements twi.Conn.
func (p *Playback) Stop() error {
	_, err := p.next(IO{Op: Stop})
	return err
}

// Send implements twi.Conn.
func (p *Playback) Send(b byte) (twi.Ack, error) {
	io, err := p.next(IO{Op: Send, B: b})
	if err != nil {
		return twi.NACK, err
	}
	return io.Ack, nil
}

// Receive implements twi.Conn.
func (p *Playback) Receive(want twi.Ack) (byte, twi.Ack, error) {
	io, err := p.next(IO{Op: Receive, Want: want})
	if err != nil {
		return 0, twi.NACK, err
	}
	return io.B, io.Ack, nil
}

func (p *Playback) next(got IO) (IO, error) {
	p.Lock()
	defer p.Unlock()
	if len(p.Ops) <= p.Count {
		return IO{}, errorf(p.DontPanic, "twitest: unexpected %s (count #%d)", got, p.Count)
	}
	exp := p.Ops[p.Count]
	if exp.Op != got.Op {
		return IO{}, errorf(p.DontPanic, "twitest: unexpected op (count #%d) %s != %s", p.Count, got.Op, exp.Op)
	}
	if got.Op == Send && got.B != exp.B {
		return IO{}, errorf(p.DontPanic, "twitest: unexpected write (count #%d) %#02x != %#02x", p.Count, got.B, exp.B)
	}
	if got.Op == Receive && got.Want != exp.Want {
		return IO{}, errorf(p.DontPanic, "twitest: unexpected master ack (count #%d) %s != %s", p.Count, got.Want, exp.Want)
	}
	p.Count++
	return exp, nil
}

// Fault wraps a twi.Conn and injects failures into it.
type Fault struct {
	Conn twi.Conn
	// NACK is the position, counted from 1 since the last start condition, of
	// the byte that is not acknowledged. The address byte is position 1. 0
	// disables the injection. A NACKed byte never reaches Conn.
	NACK int
	// Err, when non-nil, is returned by every Send and Receive.
	Err error
	// Absent makes Available report false.
	Absent bool

	pos int
}

// Start implements twi.Conn.
func (f *Fault) Start() error {
	f.pos = 0
	return f.Conn.Start()
}

// Stop implements twi.Conn.
func (f *Fault) Stop() error {
	return f.Conn.Stop()
}

// Send implements twi.Conn.
func (f *Fault) Send(b byte) (twi.Ack, error) {
	f.pos++
	if f.Err != nil {
		return twi.NACK, f.Err
	}
	if f.pos == f.NACK {
		return twi.NACK, nil
	}
	return f.Conn.Send(b)
}

// Receive implements twi.Conn.
func (f *Fault) Receive(want twi.Ack) (byte, twi.Ack, error) {
	f.pos++
	if f.Err != nil {
		return 0, twi.NACK, f.Err
	}
	if f.pos == f.NACK {
		return 0xFF, twi.NACK, nil
	}
	return f.Conn.Receive(want)
}

// Available implements twi.Controller.
func (f *Fault) Available() bool {
	if f.Absent {
		return false
	}
	if c, ok := f.Conn.(twi.Controller); ok {
		return c.Available()
	}
	return true
}

// Configure implements twi.Controller.
func (f *Fault) Configure(cfg *twi.Config) error {
	if c, ok := f.Conn.(twi.Controller); ok {
		return c.Configure(cfg)
	}
	return nil
}

func errorf(dontPanic bool, format string, a ...interface{}) error {
	err := fmt.Errorf(format, a...)
	if !dontPanic {
		panic(err)
	}
	return err
}

var _ twi.Conn = &Record{}
var _ twi.Conn = &Playback{}
var _ twi.Conn = &Fault{}
var _ twi.Controller = &Fault{}
