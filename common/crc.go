// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package common contains functions used across multiple packages. For
// example, the SMBus packet error code calculation.
package common

import "github.com/sigurn/crc8"

// SMBusPEC is the CRC-8 variant used for the SMBus packet error code:
// polynomial x⁸+x²+x¹+1, seed 0, no reflection and no final xor.
var SMBusPEC = crc8.Params{
	Poly:   0x07,
	Init:   0x00,
	RefIn:  false,
	RefOut: false,
	XorOut: 0x00,
	Check:  0xf4,
	Name:   "CRC-8/SMBUS",
}

var pecTable = crc8.MakeTable(SMBusPEC)

// CRC8 advances the packet error code seed by one data byte.
func CRC8(seed, data byte) byte {
	return crc8.Update(seed, []byte{data}, pecTable)
}

// PEC calculates the SMBus packet error code over every address and data
// byte of a transaction, in wire order.
func PEC(bytes ...byte) byte {
	return crc8.Complete(crc8.Update(crc8.Init(pecTable), bytes, pecTable), pecTable)
}
