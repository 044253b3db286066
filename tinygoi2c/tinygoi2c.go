// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package tinygoi2c adapts a TinyGo drivers.I2C, such as machine.I2C0, to a
// periph i2c.Bus so periph device drivers run on microcontrollers.
//
// The reverse needs no adapter: every i2c.Bus is a drivers.I2C.
package tinygoi2c

import (
	"errors"
	"sync"

	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/physic"
	"tinygo.org/x/drivers"
)

// baudRateSetter is implemented by machine.I2C on most TinyGo targets.
type baudRateSetter interface {
	SetBaudRate(br uint32) error
}

// Bus is an i2c.Bus backed by a drivers.I2C.
type Bus struct {
	name string

	mu sync.Mutex
	c  drivers.I2C
}

// New returns a Bus wrapping c. name is returned by String.
func New(c drivers.I2C, name string) *Bus {
	return &Bus{name: name, c: c}
}

// Tx implements i2c.Bus.
func (b *Bus) Tx(addr uint16, w, r []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.c.Tx(addr, w, r)
}

// SetSpeed implements i2c.Bus. It fails unless the underlying bus can change
// its baud rate.
func (b *Bus) SetSpeed(f physic.Frequency) error {
	if f <= 0 || f > 10*physic.MegaHertz {
		return errors.New("tinygoi2c: invalid speed " + f.String())
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	s, ok := b.c.(baudRateSetter)
	if !ok {
		return errors.New("tinygoi2c: bus speed can't be changed")
	}
	return s.SetBaudRate(uint32(f / physic.Hertz))
}

func (b *Bus) String() string {
	return b.name
}

var _ i2c.Bus = &Bus{}
var _ drivers.I2C = i2c.Bus(nil)
