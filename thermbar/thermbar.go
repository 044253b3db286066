// Copyright 2017 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package thermbar draws a temperature as a single line bar graph on a
// terminal using ANSI color codes.
//
// Cells are lit from the left in proportion to where the temperature sits
// between Opts.Min and Opts.Max, shading from blue to red.
package thermbar

import (
	"bytes"
	"errors"
	"fmt"
	"image/color"
	"io"

	"github.com/maruel/ansi256"
	"github.com/mattn/go-colorable"
	"periph.io/x/conn/v3"
	"periph.io/x/conn/v3/physic"
)

// Opts represents the options available for this display.
type Opts struct {
	// Cells is the width of the bar in characters.
	Cells int
	// Min and Max are the temperatures at the empty and full bar.
	Min physic.Temperature
	Max physic.Temperature
	// Palette defaults to ansi256.Default.
	Palette *ansi256.Palette
	// Writer defaults to a colorable stdout.
	Writer io.Writer

	_ struct{}
}

// DefaultOpts is a 40 cell bar from 0°C to 100°C on stdout.
var DefaultOpts = Opts{
	Cells: 40,
	Min:   physic.ZeroCelsius,
	Max:   physic.ZeroCelsius + 100*physic.Kelvin,
}

// Dev is a bar graph thermometer that outputs to the console.
type Dev struct {
	w        io.Writer
	cells    int
	min, max physic.Temperature
	palette  ansi256.Palette

	buf bytes.Buffer
}

var unlit = color.NRGBA{A: 255}

// New returns a Dev that displays at the console. The Opts can be nil.
func New(opts *Opts) (*Dev, error) {
	if opts == nil {
		opts = &DefaultOpts
	}
	if opts.Cells <= 0 {
		return nil, errors.New("thermbar: Cells must be positive")
	}
	if opts.Max <= opts.Min {
		return nil, errors.New("thermbar: Max must be above Min")
	}
	p := opts.Palette
	if p == nil {
		p = ansi256.Default
	}
	w := opts.Writer
	if w == nil {
		w = colorable.NewColorableStdout()
	}
	return &Dev{
		w:       w,
		cells:   opts.Cells,
		min:     opts.Min,
		max:     opts.Max,
		palette: *p,
	}, nil
}

func (d *Dev) String() string {
	return fmt.Sprintf("ThermBar{%s..%s}", d.min, d.max)
}

// Halt implements conn.Resource.
//
// It resets the terminal colors and ends the line.
func (d *Dev) Halt() error {
	_, err := d.w.Write([]byte("\n\033[0m"))
	return err
}

// Show redraws the bar for t, overwriting the previous one, followed by t
// as text.
func (d *Dev) Show(t physic.Temperature) error {
	lit := d.litCells(t)
	d.buf.Reset()
	_, _ = d.buf.WriteString("\r\033[0m")
	for i := 0; i < d.cells; i++ {
		c := unlit
		if i < lit {
			c = d.cellColor(i)
		}
		_, _ = io.WriteString(&d.buf, d.palette.Block(c))
	}
	_, _ = d.buf.WriteString("\033[0m ")
	_, _ = d.buf.WriteString(t.String())
	_, err := d.buf.WriteTo(d.w)
	return err
}

// litCells returns how many cells t fills, rounded to the nearest cell.
func (d *Dev) litCells(t physic.Temperature) int {
	if t <= d.min {
		return 0
	}
	if t >= d.max {
		return d.cells
	}
	span := int64(d.max - d.min)
	return int((int64(t-d.min)*int64(d.cells) + span/2) / span)
}

// cellColor shades cell i from blue at the left to red at the right.
func (d *Dev) cellColor(i int) color.NRGBA {
	if d.cells == 1 {
		return color.NRGBA{R: 255, A: 255}
	}
	r := byte(255 * i / (d.cells - 1))
	return color.NRGBA{R: r, G: 32, B: 255 - r, A: 255}
}

var _ conn.Resource = &Dev{}
var _ fmt.Stringer = &Dev{}
