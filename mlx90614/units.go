// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package mlx90614

import (
	"math"

	"periph.io/x/conn/v3/physic"
)

// Unit selects how cached readings are converted and how limits passed to
// SetMin and SetMax are interpreted.
type Unit uint8

const (
	// Celsius is the default unit.
	Celsius Unit = iota
	Kelvin
	Fahrenheit
	// Raw reports the device count unconverted, 0.02K per LSB.
	Raw
)

const (
	kelvinPerCount  = 0.02
	countsPerKelvin = 50.0
	zeroCelsius     = 273.15

	// countResolution is the temperature represented by one LSB.
	countResolution = 20 * physic.MilliKelvin
)

func (u Unit) valid() bool {
	return u <= Raw
}

func (u Unit) String() string {
	switch u {
	case Celsius:
		return "C"
	case Kelvin:
		return "K"
	case Fahrenheit:
		return "F"
	case Raw:
		return "raw"
	}
	return "invalid"
}

// countToUnit converts a raw device count into unit u.
func countToUnit(count int16, u Unit) float64 {
	if u == Raw {
		return float64(count)
	}
	return kelvinToUnit(float64(count)*kelvinPerCount, u)
}

// wordToUnit converts an unsigned EEPROM limit word into unit u.
func wordToUnit(w uint16, u Unit) float64 {
	if u == Raw {
		return float64(w)
	}
	return kelvinToUnit(float64(w)*kelvinPerCount, u)
}

func kelvinToUnit(t float64, u Unit) float64 {
	switch u {
	case Kelvin:
		return t
	case Celsius:
		return t - zeroCelsius
	case Fahrenheit:
		return (t-zeroCelsius)*9.0/5.0 + 32.0
	}
	return math.NaN()
}

// unitToCount converts a temperature in unit u into a raw device count. The
// result is truncated, as the device does.
func unitToCount(v float64, u Unit) int16 {
	if u == Raw {
		return int16(v)
	}
	return int16(unitToKelvin(v, u) * countsPerKelvin)
}

// unitToWord converts a temperature in unit u into an unsigned EEPROM limit
// word, truncated and clamped to [0, 0xffff].
func unitToWord(v float64, u Unit) uint16 {
	if u != Raw {
		v = unitToKelvin(v, u) * countsPerKelvin
	}
	switch {
	case math.IsNaN(v) || v <= 0:
		return 0
	case v >= 0xffff:
		return 0xffff
	}
	return uint16(v)
}

func unitToKelvin(v float64, u Unit) float64 {
	switch u {
	case Celsius:
		return v + zeroCelsius
	case Fahrenheit:
		return (v-32.0)*5.0/9.0 + zeroCelsius
	}
	return v
}

// countToTemperature converts a raw device count into a physic.Temperature.
func countToTemperature(count int16) physic.Temperature {
	return physic.Temperature(count) * countResolution
}

// countToEmissivity converts the KE EEPROM word into a ratio in [0, 1].
func countToEmissivity(count uint16) float64 {
	return float64(count) / 65535.0
}

// emissivityToCount converts an emissivity ratio into the KE EEPROM word,
// clamped to the range the device accepts.
func emissivityToCount(e float64) uint16 {
	count := math.Round(e * 65535.0)
	if count < minEmissivityCount {
		count = minEmissivityCount
	} else if count > 0xffff {
		count = 0xffff
	}
	return uint16(count)
}
