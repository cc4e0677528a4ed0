package aht20

import "fmt"

// SensorAbsentError is returned when the sensor does not acknowledge its
// address or a command byte, or when the bus reports no device.
type SensorAbsentError struct {
	Err error
}

func (e *SensorAbsentError) Error() string {
	return fmt.Sprintf("AHT20 not detected: %v", e.Err)
}

func (e *SensorAbsentError) Unwrap() error {
	return e.Err
}

type NotCalibratedError struct {
	Status byte
}

func (e *NotCalibratedError) Error() string {
	return fmt.Sprintf("AHT20 is not calibrated (status %#02x).", e.Status)
}

// ShortReadError is returned when the sensor stopped answering before the
// whole frame was read.
type ShortReadError struct {
	Want int
	N    int
}

func (e *ShortReadError) Error() string {
	return fmt.Sprintf("Short read. AHT20 returned %d of %d bytes.", e.N, e.Want)
}

type ReadTimeoutError struct{}

func (e *ReadTimeoutError) Error() string {
	return "Read timeout. AHT20 did not finish measurement in time."
}

type DataCorruptionError struct{}

func (e *DataCorruptionError) Error() string {
	return "Data is corrupt. The CRC8 hashes did not match."
}
