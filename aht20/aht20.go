// Copyright 2024 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package aht20

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"periph.io/x/conn/v3"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/physic"

	"github.com/GermanBionicSystems/twisense/common"
	"github.com/GermanBionicSystems/twisense/twi"
)

// Address is the fixed 7 bit I²C address of the AHT20.
const Address = 0x38

const cmdSoftReset byte = 0xBA

const (
	bitBusy        byte = 1 << 7
	bitInitialized byte = 1 << 3
)

// Command is a 3 byte command frame.
type Command [3]byte

var (
	// CmdCalibrate initializes and calibrates the sensor.
	CmdCalibrate = Command{0xBE, 0x08, 0x00}
	// CmdTrigger starts a measurement.
	CmdTrigger = Command{0xAC, 0x33, 0x00}
)

// Bytes returns a copy of the command bytes.
func (c Command) Bytes() []byte {
	return []byte{c[0], c[1], c[2]}
}

type Dev struct {
	opts Opts
	d    *i2c.Dev
	mu   sync.Mutex
	stop chan struct{}
	wg   sync.WaitGroup
}

// Opts holds the configuration options for the device.
type Opts struct {
	// CalibrationDelay is the wait between the calibrate command and the status read. Default is 10ms.
	CalibrationDelay time.Duration
	// MeasurementDelay is the wait between triggering a measurement and reading it. Default is 100ms.
	MeasurementDelay time.Duration
	// MeasurementReadTimeout bounds how long Sense keeps polling a busy sensor after the initial MeasurementDelay. Default is 150ms. 0 disables polling and a busy sensor yields a ReadTimeoutError.
	MeasurementReadTimeout time.Duration
	// MeasurementWaitInterval is the interval between subsequent reads while the sensor reports busy. Default is 10ms.
	MeasurementWaitInterval time.Duration
	// ValidateData reads the 7th CRC8 byte and rejects corrupt frames with a DataCorruptionError.
	ValidateData bool
	// Delay blocks for the given duration. Default is time.Sleep.
	Delay func(time.Duration)
}

// DefaultOpts holds the default configuration options for the device.
var DefaultOpts = Opts{
	CalibrationDelay:        10 * time.Millisecond,
	MeasurementDelay:        100 * time.Millisecond,
	MeasurementReadTimeout:  150 * time.Millisecond,
	MeasurementWaitInterval: 10 * time.Millisecond,
}

// NewI2C returns an object that communicates over I²C to AHT20 environmental sensor. The sensor
// is calibrated with Begin before being returned. The Opts can be nil.
func NewI2C(b i2c.Bus, opts *Opts) (*Dev, error) {
	d := newDev(b, opts)
	if err := d.Begin(); err != nil {
		return nil, err
	}
	return d, nil
}

func newDev(b i2c.Bus, opts *Opts) *Dev {
	if opts == nil {
		opts = &DefaultOpts
	}
	o := *opts
	if o.MeasurementWaitInterval <= 0 {
		o.MeasurementWaitInterval = 10 * time.Millisecond
	}
	if o.Delay == nil {
		o.Delay = time.Sleep
	}
	return &Dev{d: &i2c.Dev{Bus: b, Addr: Address}, opts: o}
}

// Begin sends the calibrate command, waits for CalibrationDelay and reads the
// status byte. It returns a SensorAbsentError if the sensor does not
// acknowledge and a NotCalibratedError if the calibration bit is not set.
func (d *Dev) Begin() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.command(CmdCalibrate); err != nil {
		return err
	}
	d.opts.Delay(d.opts.CalibrationDelay)
	status := make([]byte, 1)
	if err := d.d.Tx(nil, status); err != nil {
		return classify(err, len(status))
	}
	if status[0]&bitInitialized == 0 {
		return &NotCalibratedError{Status: status[0]}
	}
	return nil
}

// TriggerAndRead starts a measurement, waits for MeasurementDelay and reads
// the raw frame into f.
//
// It does not look at the status byte: a sensor that ignored the trigger
// because it is not calibrated still returns a frame. Check f.Calibrated()
// before trusting the values.
func (d *Dev) TriggerAndRead(f *Frame) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.command(CmdTrigger); err != nil {
		return err
	}
	d.opts.Delay(d.opts.MeasurementDelay)
	return d.readFrame(f)
}

// Sense implements physic.SenseEnv. It returns the current temperature and humidity, the pressure
// is always 0 since the AH20 does not measure pressure. If the sensor stays busy past the
// configured timeout, a ReadTimeoutError is returned. If the data is corrupt, a
// DataCorruptionError is returned. If the sensor is not calibrated, a NotCalibratedError is
// returned.
func (d *Dev) Sense(e *physic.Env) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.command(CmdTrigger); err != nil {
		return err
	}
	d.opts.Delay(d.opts.MeasurementDelay)

	end := time.Now().Add(d.opts.MeasurementReadTimeout)
	var f Frame
	for {
		if err := d.readFrame(&f); err != nil {
			return err
		}
		if !f.Calibrated() {
			return &NotCalibratedError{Status: f.Status()}
		}
		if !f.Busy() {
			e.Humidity = Humidity(f.RawHumidity())
			e.Temperature = Temperature(f.RawTemperature())
			e.Pressure = 0
			return nil
		}
		if d.opts.MeasurementReadTimeout <= 0 || !time.Now().Before(end) {
			return &ReadTimeoutError{}
		}
		d.opts.Delay(d.opts.MeasurementWaitInterval) // wait until measurement is ready
	}
}

// SenseContinuous implements physic.SenseEnv. It returns a channel that will
// receive a measurement every interval. It is the caller's responsibility to call Halt() when done.
// The sensor tries to read the measurement at the given interval however it may take longer if the
// sensor is busy.
func (d *Dev) SenseContinuous(interval time.Duration) (<-chan physic.Env, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stop != nil {
		return nil, errors.New("aht20: SenseContinuous already running")
	}
	if interval <= d.opts.MeasurementDelay {
		return nil, fmt.Errorf("aht20: interval %s shorter than the measurement delay", interval)
	}
	d.wg.Add(1)

	sensing := make(chan physic.Env)
	stop := make(chan struct{})
	d.stop = stop
	go func() {
		defer d.wg.Done()
		defer close(sensing)
		dMeasurement := d.opts.MeasurementDelay // duration of last measurement
		for {
			select {
			case <-stop:
				return
			case <-time.After(interval - dMeasurement):
				var e physic.Env
				now := time.Now()
				if err := d.Sense(&e); err == nil {
					select {
					case sensing <- e:
					case <-stop:
						return
					}
				}
				if dMeasurement = time.Since(now); dMeasurement > interval {
					dMeasurement = interval
				}
			}
		}
	}()
	return sensing, nil
}

// Precision implements physic.SenseEnv.
func (d *Dev) Precision(e *physic.Env) {
	e.Temperature = 10 * physic.MilliKelvin
	e.Humidity = 24 * physic.MilliRH
	e.Pressure = 0
}

// SoftReset resets the sensor. It includes a reboot and a re-calibration.
func (d *Dev) SoftReset() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.d.Tx([]byte{cmdSoftReset}, nil); err != nil {
		return classify(err, 0)
	}
	d.opts.Delay(20 * time.Millisecond) // wait for 20ms according to datasheet
	return nil
}

// Halt stops the AHT20 from acquiring measurements as initiated by SenseContinuous().
func (d *Dev) Halt() error {
	d.mu.Lock()
	if d.stop == nil {
		d.mu.Unlock()
		return nil
	}
	close(d.stop)
	d.stop = nil
	d.mu.Unlock()
	d.wg.Wait()
	return nil
}

func (d *Dev) String() string {
	return "AHT20"
}

func (d *Dev) command(c Command) error {
	if err := d.d.Tx(c.Bytes(), nil); err != nil {
		return classify(err, 0)
	}
	return nil
}

func (d *Dev) readFrame(f *Frame) error {
	n := FrameSize
	if d.opts.ValidateData {
		n++
	}
	data := make([]byte, n)
	if err := d.d.Tx(nil, data); err != nil {
		return classify(err, n)
	}
	if d.opts.ValidateData && !common.CheckCRC8(data) {
		return &DataCorruptionError{}
	}
	copy(f[:], data)
	return nil
}

// classify maps bus errors to the driver's error types. want is the number
// of bytes the failed read asked for, 0 for writes.
func classify(err error, want int) error {
	var nack *twi.NACKError
	switch {
	case errors.As(err, &nack) && nack.Phase == twi.AddressPhase:
		return &SensorAbsentError{Err: err}
	case nack != nil && nack.Dir == twi.Write:
		return &SensorAbsentError{Err: err}
	case nack != nil:
		return &ShortReadError{Want: want, N: nack.N}
	case errors.Is(err, twi.ErrNoDevice):
		return &SensorAbsentError{Err: err}
	default:
		return fmt.Errorf("aht20: %w", err)
	}
}

var _ conn.Resource = &Dev{}
var _ physic.SenseEnv = &Dev{}
