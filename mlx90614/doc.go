// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package mlx90614 controls a Melexis MLX90614 non-contact infrared
// thermometer over SMBus.
//
// Every transaction carries an SMBus packet error code. Reads whose PEC does
// not match are rejected with ErrPEC and never update the cached readings.
//
// Range: object -70°C - 382.2°C, ambient -40°C - 125°C
//
// Resolution: 0.02°C
//
// # Sleep
//
// Sleep parks the bus lines: SCL is driven low and SDA is released to the
// external pull-up. While the device sleeps, no other device on the same bus
// may be used, and the Dev refuses every operation with ErrAsleep until Wake
// has bit-banged the wake sequence and handed the lines back to the bus.
//
// # EEPROM
//
// TOmin, TOmax, emissivity and the SMBus address live in EEPROM. Each write is
// an erase followed by a program cycle and blocks for at least 20ms. A new
// address only takes effect after the device is power cycled.
//
// # Datasheet
//
// https://www.melexis.com/-/media/files/documents/datasheets/mlx90614-datasheet-melexis.pdf
package mlx90614
