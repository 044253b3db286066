// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package mlx90614

import (
	"fmt"
	"time"

	"github.com/GermanBionicSystems/irtherm/common"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/pin"
)

const (
	// SDA low, at least 33ms.
	wakeRequest = 50 * time.Millisecond
	// Internal start-up after the wake request.
	wakeStartup = 250 * time.Millisecond
	// SCL low switches from PWM to SMBus, at least 1.44ms.
	wakeSMBusRequest = 10 * time.Millisecond
)

func (dev *Dev) hasPins() bool {
	return dev.scl != nil && dev.scl != gpio.INVALID && dev.sda != nil && dev.sda != gpio.INVALID
}

// Sleep puts the device into its low power mode and parks the bus lines, SCL
// low and SDA released.
//
// The Dev keeps custody of both lines until Wake: no other device on the bus
// may be serviced in between, and every operation on this Dev returns
// ErrAsleep.
func (dev *Dev) Sleep() error {
	dev.mu.Lock()
	defer dev.mu.Unlock()
	if dev.asleep {
		return nil
	}
	if !dev.hasPins() {
		return ErrNoPins
	}
	addr := byte(dev.d.Addr << 1)
	if err := dev.d.Tx([]byte{cmdSleep, common.PEC(addr, cmdSleep)}, nil); err != nil {
		return fmt.Errorf("mlx90614: sleep: %w", err)
	}
	dev.asleep = true
	dev.sclFunc, dev.sdaFunc = busFunc(dev.scl, i2c.SCL), busFunc(dev.sda, i2c.SDA)
	s := lineSequence{delay: dev.delay}
	s.low(dev.scl)
	s.release(dev.sda)
	if s.err != nil {
		return fmt.Errorf("mlx90614: parking bus lines: %w", s.err)
	}
	return nil
}

// Wake bit-bangs the wake up request on the bus lines, then returns them to
// the bus. It blocks for about 310ms and may be called even if this Dev did
// not put the device to sleep.
func (dev *Dev) Wake() error {
	dev.mu.Lock()
	defer dev.mu.Unlock()
	if !dev.hasPins() {
		return ErrNoPins
	}
	// Every i2c.Bus transaction ends with a stop condition, so the bus is
	// already idle here.
	if !dev.asleep {
		dev.sclFunc, dev.sdaFunc = busFunc(dev.scl, i2c.SCL), busFunc(dev.sda, i2c.SDA)
	}
	s := lineSequence{delay: dev.delay}
	s.release(dev.scl)
	s.low(dev.sda)
	s.wait(wakeRequest)
	s.release(dev.sda)
	s.wait(wakeStartup)
	s.low(dev.scl)
	s.wait(wakeSMBusRequest)
	s.release(dev.scl)
	s.restore(dev.scl, dev.sclFunc)
	s.restore(dev.sda, dev.sdaFunc)
	if s.err != nil {
		return fmt.Errorf("mlx90614: wake: %w", s.err)
	}
	dev.asleep = false
	return nil
}

// lineSequence drives the bus lines directly, stopping at the first error.
type lineSequence struct {
	delay func(time.Duration)
	err   error
}

// release lets the external pull-up take the line high.
func (s *lineSequence) release(p gpio.PinIO) {
	if s.err != nil {
		return
	}
	s.err = p.In(gpio.Float, gpio.NoEdge)
}

func (s *lineSequence) low(p gpio.PinIO) {
	if s.err != nil {
		return
	}
	s.err = p.Out(gpio.Low)
}

func (s *lineSequence) wait(d time.Duration) {
	if s.err != nil {
		return
	}
	s.delay(d)
}

// restore hands the line back to the I²C controller. Bit-banged or emulated
// buses report no bus function and need nothing.
func (s *lineSequence) restore(p gpio.PinIO, f pin.Func) {
	if s.err != nil || f == pin.FuncNone {
		return
	}
	if pf, ok := p.(pin.PinFunc); ok {
		s.err = pf.SetFunc(f)
	}
}

// busFunc returns the I²C function p currently serves, or pin.FuncNone.
func busFunc(p gpio.PinIO, f pin.Func) pin.Func {
	if pf, ok := p.(pin.PinFunc); ok {
		if cur := pf.Func(); cur.Generalize() == f {
			return cur
		}
	}
	return pin.FuncNone
}

// supportedBusFunc is busFunc, falling back to the I²C function p can be
// switched to. Lines parked by an earlier Sleep have lost their function.
func supportedBusFunc(p gpio.PinIO, f pin.Func) pin.Func {
	if cur := busFunc(p, f); cur != pin.FuncNone {
		return cur
	}
	if pf, ok := p.(pin.PinFunc); ok {
		for _, s := range pf.SupportedFuncs() {
			if s.Generalize() == f {
				return s
			}
		}
	}
	return pin.FuncNone
}
