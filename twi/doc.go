// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package twi implements a single master I²C (TWI) transaction layer on top
// of a byte-level controller.
//
// A Conn exchanges one byte at a time and reports the acknowledgement of each
// byte. Framer composes those exchanges into addressed multi-byte reads and
// writes, emitting the start and stop conditions around them.
//
// Only 7 bit addressing and a single master are supported. Clock stretching,
// arbitration and bus recovery are left to the controller.
package twi
