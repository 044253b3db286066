// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package tinygoi2c

import (
	"bytes"
	"errors"
	"testing"

	"github.com/GermanBionicSystems/irtherm/mlx90614"
	"periph.io/x/conn/v3/physic"
	"tinygo.org/x/drivers"
)

var _ drivers.I2C = (*fakeI2C)(nil)

// fakeI2C answers a probe and MLX90614 temperature reads.
type fakeI2C struct {
	words map[byte][3]byte
	baud  uint32
	last  []byte
}

func (f *fakeI2C) Tx(addr uint16, w, r []byte) error {
	if addr != mlx90614.DefaultAddress {
		return errors.New("nack")
	}
	f.last = append([]byte{}, w...)
	if len(w) == 1 && len(r) == 3 {
		v, ok := f.words[w[0]]
		if !ok {
			return errors.New("nack")
		}
		copy(r, v[:])
	}
	return nil
}

type fakeBaudI2C struct {
	fakeI2C
}

func (f *fakeBaudI2C) SetBaudRate(br uint32) error {
	f.baud = br
	return nil
}

func TestBus(t *testing.T) {
	f := &fakeI2C{words: map[byte][3]byte{
		0x06: {0x3c, 0x3a, 0xb3},
		0x07: {0x3c, 0x3a, 0xa5},
	}}
	b := New(f, "I2C0")
	if s := b.String(); s != "I2C0" {
		t.Errorf("String()=%q", s)
	}
	dev, err := mlx90614.New(b, mlx90614.DefaultAddress, &mlx90614.Opts{Unit: mlx90614.Raw})
	if err != nil {
		t.Fatal(err)
	}
	if err := dev.Read(); err != nil {
		t.Fatal(err)
	}
	if v := dev.Object(); v != 0x3a3c {
		t.Errorf("Object()=%f", v)
	}
	if !bytes.Equal(f.last, []byte{0x07}) {
		t.Errorf("last write %#v", f.last)
	}
	if _, err := mlx90614.New(b, 0x5b, nil); err == nil {
		t.Error("New() succeeded on a missing device")
	}
}

func TestSetSpeed(t *testing.T) {
	if err := New(&fakeI2C{}, "I2C0").SetSpeed(100 * physic.KiloHertz); err == nil {
		t.Error("SetSpeed() succeeded without baud rate support")
	}
	f := &fakeBaudI2C{}
	b := New(f, "I2C1")
	if err := b.SetSpeed(400 * physic.KiloHertz); err != nil {
		t.Fatal(err)
	}
	if f.baud != 400000 {
		t.Errorf("baud rate %d expected 400000", f.baud)
	}
	if err := b.SetSpeed(0); err == nil {
		t.Error("SetSpeed(0) succeeded")
	}
}
