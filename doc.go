// Copyright 2021 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package irtherm is a container for the MLX90614 infrared thermometer driver
// and the bus adapters and tools that go with it.
//
// The driver lives in package mlx90614. Packages smbusi2c and tinygoi2c
// expose other bus implementations as an i2c.Bus, thermbar renders readings
// on a terminal and cmd/mlx90614 is a command line front end.
package irtherm
