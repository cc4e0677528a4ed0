// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package gauge

import (
	"errors"
	"fmt"
	"image"
	"io"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"periph.io/x/conn/v3/physic"
)

// Card renders a reading as a W x H image: the temperature and humidity as
// text over a humidity bar along the bottom edge.
type Card struct {
	W, H int
	face font.Face
}

// NewCard returns a Card of the given size using the Go regular font.
func NewCard(w, h int) (*Card, error) {
	if w <= 0 || h <= 0 {
		return nil, fmt.Errorf("gauge: invalid card size %dx%d", w, h)
	}
	f, err := truetype.Parse(goregular.TTF)
	if err != nil {
		return nil, err
	}
	face := truetype.NewFace(f, &truetype.Options{Size: float64(h) / 5})
	return &Card{W: w, H: h, face: face}, nil
}

// Render draws e.
func (c *Card) Render(e *physic.Env) image.Image {
	return c.draw(e).Image()
}

// WritePNG encodes the rendering of e as PNG to w.
func (c *Card) WritePNG(w io.Writer, e *physic.Env) error {
	return c.draw(e).EncodePNG(w)
}

// SavePNG writes the rendering of e to a PNG file.
func (c *Card) SavePNG(path string, e *physic.Env) error {
	if path == "" {
		return errors.New("gauge: empty path")
	}
	return c.draw(e).SavePNG(path)
}

func (c *Card) draw(e *physic.Env) *gg.Context {
	w, h := float64(c.W), float64(c.H)
	dc := gg.NewContext(c.W, c.H)
	dc.SetRGB(1, 1, 1)
	dc.Clear()

	rh := clamp(float64(e.Humidity) / float64(physic.PercentRH) / 100)
	barH := h / 10
	dc.DrawRectangle(0, h-barH, w*rh, barH)
	dc.SetRGB(0.13, 0.5, 1)
	dc.Fill()

	dc.SetFontFace(c.face)
	dc.SetRGB(0, 0, 0)
	dc.DrawStringAnchored(fmt.Sprintf("%.1f°C", e.Temperature.Celsius()), w/2, h*0.3, 0.5, 0.5)
	dc.DrawStringAnchored(fmt.Sprintf("%.1f%%rH", rh*100), w/2, h*0.65, 0.5, 0.5)
	return dc
}
