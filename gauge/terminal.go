// Copyright 2017 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package gauge renders environmental readings for humans: as ANSI colored
// bars on a terminal, or as a PNG card.
package gauge

import (
	"bytes"
	"fmt"
	"image/color"
	"io"

	"github.com/maruel/ansi256"
	"github.com/mattn/go-colorable"
	"periph.io/x/conn/v3/physic"
)

// Temperature range covered by the temperature bar, the AHT20 operating range.
const (
	minCelsius = -40.0
	maxCelsius = 85.0
)

// Opts represents the options available for the terminal gauge.
type Opts struct {
	// Width is the number of cells of each bar. Default is 20.
	Width   int
	Palette *ansi256.Palette

	_ struct{}
}

// Terminal draws a temperature bar and a humidity bar on one console line,
// redrawing it in place on every call to Show.
type Terminal struct {
	w       io.Writer
	width   int
	palette ansi256.Palette

	buf bytes.Buffer
}

// NewTerminal returns a Terminal that draws on stdout.
func NewTerminal(opts *Opts) *Terminal {
	return newTerminal(colorable.NewColorableStdout(), opts)
}

func newTerminal(w io.Writer, opts *Opts) *Terminal {
	if opts == nil {
		opts = &Opts{}
	}
	p := opts.Palette
	if p == nil {
		p = ansi256.Default
	}
	width := opts.Width
	if width <= 0 {
		width = 20
	}
	return &Terminal{w: w, width: width, palette: *p}
}

func (t *Terminal) String() string {
	return "gauge.Terminal"
}

// Halt ends the line and resets the colors so the terminal is not corrupted.
func (t *Terminal) Halt() error {
	_, err := t.w.Write([]byte("\n\033[0m"))
	return err
}

// Show redraws the bars for e.
func (t *Terminal) Show(e *physic.Env) error {
	// This code is designed to minimize the amount of memory allocated per call.
	c := e.Temperature.Celsius()
	rh := float64(e.Humidity) / float64(physic.PercentRH)
	t.buf.Reset()
	_, _ = t.buf.WriteString("\r\033[0mT ")
	t.bar((c-minCelsius)/(maxCelsius-minCelsius), temperatureColor)
	_, _ = t.buf.WriteString("\033[0m H ")
	t.bar(rh/100, humidityColor)
	_, _ = fmt.Fprintf(&t.buf, "\033[0m %6.2f°C %6.2f%%rH ", c, rh)
	_, err := t.buf.WriteTo(t.w)
	return err
}

// bar appends width cells, the first frac of them lit with the color
// returned by lit for the cell position.
func (t *Terminal) bar(frac float64, lit func(pos float64) color.NRGBA) {
	n := int(clamp(frac)*float64(t.width) + 0.5)
	for i := 0; i < t.width; i++ {
		c := color.NRGBA{0x20, 0x20, 0x20, 255}
		if i < n {
			c = lit(float64(i) / float64(t.width))
		}
		_, _ = io.WriteString(&t.buf, t.palette.Block(c))
	}
}

// temperatureColor goes from blue (cold) to red (hot).
func temperatureColor(pos float64) color.NRGBA {
	return color.NRGBA{byte(255 * pos), 0x30, byte(255 * (1 - pos)), 255}
}

func humidityColor(pos float64) color.NRGBA {
	return color.NRGBA{0x20, byte(0x80 + 0x7f*pos), 0xff, 255}
}

func clamp(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

var _ fmt.Stringer = &Terminal{}
