// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package smbusi2c exposes a Linux SMBus adapter, driven through
// github.com/go-daq/smbus, as a periph i2c.Bus.
//
// The kernel SMBus interface can't express arbitrary I²C transactions, only
// the shapes used by register based devices are supported:
//
//   - a write with no read, including the empty write used to probe an address
//   - a read with no write
//   - a one byte register write followed by a repeated start and a read of up
//     to 32 bytes, mapped to an I²C block read
//
// Anything else returns ErrUnsupported.
package smbusi2c

import (
	"errors"
	"fmt"
	"strconv"
	"sync"

	"github.com/go-daq/smbus"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/conn/v3/physic"
)

// maxBlock is the largest I²C block transfer the kernel supports.
const maxBlock = 32

var (
	// ErrUnsupported is returned for transactions the SMBus interface can't
	// express.
	ErrUnsupported = errors.New("smbusi2c: transaction not supported by SMBus")
	// ErrClosed is returned by Tx after Close.
	ErrClosed = errors.New("smbusi2c: bus closed")
)

// conn is the subset of *smbus.Conn used by Bus.
type conn interface {
	SetAddr(addr uint8) error
	Write(buf []byte) (int, error)
	Read(p []byte) (int, error)
	ReadBlockData(addr, reg uint8, buf []byte) error
	Close() error
}

// Bus is an SMBus adapter opened from /dev/i2c-N.
type Bus struct {
	number int

	mu sync.Mutex
	c  conn
}

// Open opens /dev/i2c-<bus>.
func Open(bus int) (*Bus, error) {
	c, err := smbus.OpenFile(bus)
	if err != nil {
		return nil, fmt.Errorf("smbusi2c: opening bus %d: %w", bus, err)
	}
	return &Bus{number: bus, c: c}, nil
}

// Register makes /dev/i2c-<bus> available through i2creg as "SMBUS<bus>".
// It doesn't claim the bus number, host drivers may already have.
func Register(bus int) error {
	return i2creg.Register(Name(bus), nil, -1, func() (i2c.BusCloser, error) {
		return Open(bus)
	})
}

// Name returns the i2creg name used by Register.
func Name(bus int) string {
	return "SMBUS" + strconv.Itoa(bus)
}

// Tx implements i2c.Bus.
func (b *Bus) Tx(addr uint16, w, r []byte) error {
	if addr > 0x7f {
		return fmt.Errorf("smbusi2c: invalid address %#x", addr)
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.c == nil {
		return ErrClosed
	}
	a := uint8(addr)
	switch {
	case len(r) == 0:
		if err := b.c.SetAddr(a); err != nil {
			return fmt.Errorf("smbusi2c: %w", err)
		}
		n, err := b.c.Write(w)
		if err != nil {
			return fmt.Errorf("smbusi2c: write to %#x: %w", addr, err)
		}
		if n != len(w) {
			return fmt.Errorf("smbusi2c: short write to %#x, %d of %d bytes", addr, n, len(w))
		}
	case len(w) == 0:
		if err := b.c.SetAddr(a); err != nil {
			return fmt.Errorf("smbusi2c: %w", err)
		}
		n, err := b.c.Read(r)
		if err != nil {
			return fmt.Errorf("smbusi2c: read from %#x: %w", addr, err)
		}
		if n != len(r) {
			return fmt.Errorf("smbusi2c: short read from %#x, %d of %d bytes", addr, n, len(r))
		}
	case len(w) == 1 && len(r) <= maxBlock:
		if err := b.c.ReadBlockData(a, w[0], r); err != nil {
			return fmt.Errorf("smbusi2c: block read from %#x: %w", addr, err)
		}
	default:
		return ErrUnsupported
	}
	return nil
}

// SetSpeed implements i2c.Bus. The clock is configured in the device tree.
func (b *Bus) SetSpeed(f physic.Frequency) error {
	return errors.New("smbusi2c: bus speed is set by the kernel driver")
}

// Close implements i2c.BusCloser.
func (b *Bus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.c == nil {
		return nil
	}
	err := b.c.Close()
	b.c = nil
	return err
}

func (b *Bus) String() string {
	return "/dev/i2c-" + strconv.Itoa(b.number)
}

var _ i2c.BusCloser = &Bus{}
