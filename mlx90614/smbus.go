// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package mlx90614

import (
	"fmt"
	"time"

	"github.com/GermanBionicSystems/irtherm/common"
)

// tErase and tWrite are 5ms minimum each.
const eepromSettle = 10 * time.Millisecond

// readWord performs an SMBus read word transaction and checks its PEC:
//
//	S addr|W reg Sr addr|R lsb msb pec P
func (dev *Dev) readWord(reg byte) (uint16, error) {
	if dev.asleep {
		return 0, ErrAsleep
	}
	var r [3]byte
	if err := dev.d.Tx([]byte{reg}, r[:]); err != nil {
		return 0, fmt.Errorf("mlx90614: read 0x%02x: %w", reg, err)
	}
	addr := byte(dev.d.Addr << 1)
	if common.PEC(addr, reg, addr|1, r[0], r[1]) != r[2] {
		return 0, ErrPEC
	}
	return uint16(r[1])<<8 | uint16(r[0]), nil
}

// writeWord performs an SMBus write word transaction:
//
//	S addr|W reg lsb msb pec P
func (dev *Dev) writeWord(reg byte, word uint16) error {
	if dev.asleep {
		return ErrAsleep
	}
	lsb, msb := byte(word), byte(word>>8)
	pec := common.PEC(byte(dev.d.Addr<<1), reg, lsb, msb)
	if err := dev.d.Tx([]byte{reg, lsb, msb, pec}, nil); err != nil {
		return fmt.Errorf("mlx90614: write 0x%02x: %w", reg, err)
	}
	return nil
}

// writeEEPROM erases an EEPROM cell then programs it. The cell may be left
// erased if the second write fails. There is no read back.
func (dev *Dev) writeEEPROM(reg byte, word uint16) error {
	if err := dev.writeWord(reg, 0); err != nil {
		return err
	}
	dev.delay(eepromSettle)
	err := dev.writeWord(reg, word)
	dev.delay(eepromSettle)
	return err
}
