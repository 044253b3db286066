// Copyright 2017 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package thermbar

import (
	"bytes"
	"strings"
	"testing"

	"github.com/maruel/ansi256"
	"periph.io/x/conn/v3/physic"
)

func getDev(t *testing.T) (*Dev, *bytes.Buffer) {
	t.Helper()
	buf := &bytes.Buffer{}
	d, err := New(&Opts{Cells: 10, Min: physic.ZeroCelsius, Max: physic.ZeroCelsius + 100*physic.Kelvin, Writer: buf})
	if err != nil {
		t.Fatal(err)
	}
	return d, buf
}

func TestNew(t *testing.T) {
	if _, err := New(&Opts{Cells: 0, Max: physic.Kelvin}); err == nil {
		t.Error("zero cells accepted")
	}
	if _, err := New(&Opts{Cells: 4, Min: physic.Kelvin, Max: physic.Kelvin}); err == nil {
		t.Error("empty range accepted")
	}
	def, err := New(nil)
	if err != nil {
		t.Fatal(err)
	}
	if def.cells != DefaultOpts.Cells || def.min != DefaultOpts.Min || def.max != DefaultOpts.Max || def.w == nil {
		t.Errorf("New(nil) did not use DefaultOpts: %+v", def)
	}
	d, _ := getDev(t)
	if s := d.String(); !strings.HasPrefix(s, "ThermBar{") {
		t.Errorf("String()=%q", s)
	}
}

func TestShow(t *testing.T) {
	d, buf := getDev(t)
	temp := physic.ZeroCelsius + 25*physic.Kelvin
	if err := d.Show(temp); err != nil {
		t.Fatal(err)
	}
	var want strings.Builder
	want.WriteString("\r\033[0m")
	for i := 0; i < 10; i++ {
		c := unlit
		if i < 3 {
			c = d.cellColor(i)
		}
		want.WriteString(ansi256.Default.Block(c))
	}
	want.WriteString("\033[0m ")
	want.WriteString(temp.String())
	if got := buf.String(); got != want.String() {
		t.Errorf("Show() wrote %q expected %q", got, want.String())
	}
}

func TestLitCells(t *testing.T) {
	d, _ := getDev(t)
	tests := []struct {
		t    physic.Temperature
		want int
	}{
		{0, 0},
		{physic.ZeroCelsius, 0},
		{physic.ZeroCelsius + 4*physic.Kelvin, 0},
		{physic.ZeroCelsius + 5*physic.Kelvin, 1},
		{physic.ZeroCelsius + 50*physic.Kelvin, 5},
		{physic.ZeroCelsius + 99*physic.Kelvin, 10},
		{physic.ZeroCelsius + 200*physic.Kelvin, 10},
	}
	for _, test := range tests {
		if got := d.litCells(test.t); got != test.want {
			t.Errorf("litCells(%s)=%d expected %d", test.t, got, test.want)
		}
	}
}

func TestCellColor(t *testing.T) {
	d, _ := getDev(t)
	if c := d.cellColor(0); c.R != 0 || c.B != 255 {
		t.Errorf("first cell %v is not blue", c)
	}
	if c := d.cellColor(9); c.R != 255 || c.B != 0 {
		t.Errorf("last cell %v is not red", c)
	}
}

func TestHalt(t *testing.T) {
	d, buf := getDev(t)
	if err := d.Halt(); err != nil {
		t.Fatal(err)
	}
	if got := buf.String(); got != "\n\033[0m" {
		t.Errorf("Halt() wrote %q", got)
	}
}
