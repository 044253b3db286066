// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package common

import "testing"

// crc8Reference is the bitwise form of the SMBus CRC-8.
func crc8Reference(bytes []byte) byte {
	var crc byte
	for _, val := range bytes {
		crc ^= val
		for i := 0; i < 8; i++ {
			if (crc & 0x80) == 0 {
				crc <<= 1
			} else {
				crc = (crc << 1) ^ 0x07
			}
		}
	}
	return crc
}

func TestPEC(t *testing.T) {
	var tests = []struct {
		bytes  []byte
		result byte
	}{
		{bytes: []byte("123456789"), result: 0xf4},
		{bytes: []byte{0xbe, 0xef}, result: 0x1a},
		// MLX90614 datasheet: read Tobj1 from 0x5a, 0x3ad2.
		{bytes: []byte{0xb4, 0x07, 0xb5, 0xd2, 0x3a}, result: 0x30},
		// MLX90614 datasheet: sleep command to 0x5a.
		{bytes: []byte{0xb4, 0xff}, result: 0xe8},
		{bytes: []byte{0xbe, 0x07}, result: 0x8c},
		{bytes: nil, result: 0x00},
	}
	for _, test := range tests {
		res := PEC(test.bytes...)
		if res != test.result {
			t.Errorf("PEC(%#v)!=0x%02x received 0x%02x", test.bytes, test.result, res)
		}
	}
}

func TestCRC8Fold(t *testing.T) {
	for n := 0; n < 256; n++ {
		b := make([]byte, n%17)
		for i := range b {
			b[i] = byte(n*31 + i*7)
		}
		var seed byte
		for _, v := range b {
			seed = CRC8(seed, v)
		}
		if want := crc8Reference(b); seed != want {
			t.Fatalf("CRC8 fold over %#v = 0x%02x, reference 0x%02x", b, seed, want)
		}
		if p := PEC(b...); p != seed {
			t.Fatalf("PEC(%#v) = 0x%02x, fold 0x%02x", b, p, seed)
		}
	}
}
