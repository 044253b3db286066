// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package mlx90614

import (
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"periph.io/x/conn/v3"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/pin"
)

const (
	// DefaultAddress is the factory SMBus address.
	DefaultAddress uint16 = 0x5a

	// RAM registers.
	regTA    byte = 0x06
	regTObj1 byte = 0x07
	regTObj2 byte = 0x08

	// EEPROM registers.
	regTOMax   byte = 0x20
	regTOMin   byte = 0x21
	regKE      byte = 0x24
	regAddress byte = 0x2e
	regID0     byte = 0x3c

	// Not a register. Sent as an SMBus send byte command.
	cmdSleep byte = 0xff

	// Set in object RAM words when the sample is invalid.
	flagError uint16 = 1 << 15

	minEmissivity      = 0.1
	maxEmissivity      = 1.0
	minEmissivityCount = 0x2000

	// The device refreshes its RAM roughly every 100ms with the factory
	// filter settings.
	minSampleInterval = 100 * time.Millisecond
)

var (
	// ErrPEC is returned when the packet error code of a read does not match
	// the bytes received.
	ErrPEC = errors.New("mlx90614: packet error code mismatch")
	// ErrFlag is returned when the device marks an object reading as invalid.
	ErrFlag = errors.New("mlx90614: sensor flagged the reading as invalid")
	// ErrEmissivityRange is returned for an emissivity outside [0.1, 1.0].
	ErrEmissivityRange = errors.New("mlx90614: emissivity must be between 0.1 and 1.0")
	// ErrAddressRange is returned for an address outside [0x01, 0x7f].
	ErrAddressRange = errors.New("mlx90614: address must be between 0x01 and 0x7f")
	// ErrAsleep is returned for any bus operation between Sleep and Wake.
	ErrAsleep = errors.New("mlx90614: device is asleep")
	// ErrNoPins is returned by Sleep and Wake when the SCL or SDA line is not
	// available.
	ErrNoPins = errors.New("mlx90614: SCL and SDA pins are required for sleep and wake")
	// ErrInvalidUnit is returned for a Unit that is not one of the declared
	// constants.
	ErrInvalidUnit = errors.New("mlx90614: invalid unit")
)

// Opts holds the configuration options for the device.
type Opts struct {
	// Unit used by Object, Object2, Ambient, Minimum and Maximum, and by the
	// values passed to SetMin and SetMax. The zero value is Celsius.
	Unit Unit
	// SCL and SDA are the bus lines, needed only for Sleep and Wake. When nil
	// they are taken from the bus if it implements i2c.Pins.
	SCL gpio.PinIO
	SDA gpio.PinIO
	// Asleep tells New the device was put to sleep earlier, by another Dev or
	// process. A sleeping device doesn't acknowledge its address, so New
	// skips the probe and the Dev refuses every operation until Wake.
	Asleep bool
}

// DefaultOpts holds the default configuration options for the device.
var DefaultOpts = Opts{Unit: Celsius}

// Dev represents an MLX90614 infrared thermometer.
//
// Readings are cached: ReadAmbient, ReadObject, ReadObject2 and ReadRange
// fetch raw values from the device, Ambient, Object, Object2, Minimum and
// Maximum convert the latest successful reading. Before the first successful
// read the cached value is zero.
type Dev struct {
	d     *i2c.Dev
	scl   gpio.PinIO
	sda   gpio.PinIO
	delay func(time.Duration)

	// Controller functions of the lines, restored by Wake.
	sclFunc pin.Func
	sdaFunc pin.Func

	mu       sync.Mutex
	unit     Unit
	asleep   bool
	shutdown chan struct{}

	rawAmbient int16
	rawObject  int16
	rawObject2 int16
	rawMin     uint16
	rawMax     uint16
	id         [4]uint16
}

// New returns an MLX90614 at addr on bus b. Unless opts.Asleep is set, the
// device is probed with an empty transaction and an error is returned if it
// does not acknowledge. The Opts can be nil.
func New(b i2c.Bus, addr uint16, opts *Opts) (*Dev, error) {
	if addr == 0 || addr > 0x7f {
		return nil, ErrAddressRange
	}
	if opts == nil {
		opts = &DefaultOpts
	}
	if !opts.Unit.valid() {
		return nil, ErrInvalidUnit
	}
	dev := &Dev{
		d:     &i2c.Dev{Bus: b, Addr: addr},
		scl:   opts.SCL,
		sda:   opts.SDA,
		delay: time.Sleep,
		unit:  opts.Unit,
	}
	if p, ok := b.(i2c.Pins); ok {
		if dev.scl == nil {
			dev.scl = p.SCL()
		}
		if dev.sda == nil {
			dev.sda = p.SDA()
		}
	}
	if opts.Asleep {
		dev.asleep = true
		dev.sclFunc, dev.sdaFunc = supportedBusFunc(dev.scl, i2c.SCL), supportedBusFunc(dev.sda, i2c.SDA)
		return dev, nil
	}
	if err := dev.probe(); err != nil {
		return nil, err
	}
	return dev, nil
}

func (dev *Dev) probe() error {
	if dev.asleep {
		return ErrAsleep
	}
	if err := dev.d.Tx(nil, nil); err != nil {
		return fmt.Errorf("mlx90614: no device at %#x: %w", dev.d.Addr, err)
	}
	return nil
}

// IsConnected returns true if the device acknowledges its address.
func (dev *Dev) IsConnected() bool {
	dev.mu.Lock()
	defer dev.mu.Unlock()
	return dev.probe() == nil
}

// SetUnit sets the unit used for conversions.
func (dev *Dev) SetUnit(u Unit) error {
	if !u.valid() {
		return ErrInvalidUnit
	}
	dev.mu.Lock()
	defer dev.mu.Unlock()
	dev.unit = u
	return nil
}

// Unit returns the unit used for conversions.
func (dev *Dev) Unit() Unit {
	dev.mu.Lock()
	defer dev.mu.Unlock()
	return dev.unit
}

// readRaw reads a temperature word into dst. dst is left untouched on error.
func (dev *Dev) readRaw(reg byte, checkFlag bool, dst *int16) error {
	w, err := dev.readWord(reg)
	if err != nil {
		return err
	}
	if checkFlag && w&flagError != 0 {
		return ErrFlag
	}
	*dst = int16(w)
	return nil
}

// ReadAmbient reads the die temperature.
func (dev *Dev) ReadAmbient() error {
	dev.mu.Lock()
	defer dev.mu.Unlock()
	// The datasheet doesn't define the error flag for TA.
	return dev.readRaw(regTA, false, &dev.rawAmbient)
}

// ReadObject reads the temperature of the first object channel.
func (dev *Dev) ReadObject() error {
	dev.mu.Lock()
	defer dev.mu.Unlock()
	return dev.readRaw(regTObj1, true, &dev.rawObject)
}

// ReadObject2 reads the temperature of the second object channel. Only dual
// zone variants populate it.
func (dev *Dev) ReadObject2() error {
	dev.mu.Lock()
	defer dev.mu.Unlock()
	return dev.readRaw(regTObj2, true, &dev.rawObject2)
}

// Read reads the ambient then the object temperature. It stops at the first
// failure.
func (dev *Dev) Read() error {
	dev.mu.Lock()
	defer dev.mu.Unlock()
	return dev.read()
}

func (dev *Dev) read() error {
	if err := dev.readRaw(regTA, false, &dev.rawAmbient); err != nil {
		return err
	}
	return dev.readRaw(regTObj1, true, &dev.rawObject)
}

// Ambient returns the last ambient temperature read.
func (dev *Dev) Ambient() float64 {
	dev.mu.Lock()
	defer dev.mu.Unlock()
	return countToUnit(dev.rawAmbient, dev.unit)
}

// Object returns the last object temperature read.
func (dev *Dev) Object() float64 {
	dev.mu.Lock()
	defer dev.mu.Unlock()
	return countToUnit(dev.rawObject, dev.unit)
}

// Object2 returns the last temperature read from the second object channel.
func (dev *Dev) Object2() float64 {
	dev.mu.Lock()
	defer dev.mu.Unlock()
	return countToUnit(dev.rawObject2, dev.unit)
}

// ReadRange reads the TOmin and TOmax limits from EEPROM.
func (dev *Dev) ReadRange() error {
	dev.mu.Lock()
	defer dev.mu.Unlock()
	lo, err := dev.readWord(regTOMin)
	if err != nil {
		return err
	}
	hi, err := dev.readWord(regTOMax)
	if err != nil {
		return err
	}
	dev.rawMin, dev.rawMax = lo, hi
	return nil
}

// Minimum returns the last TOmin read by ReadRange.
//
// The EEPROM limits are unsigned words; bit 15 is part of the value, not an
// error flag.
func (dev *Dev) Minimum() float64 {
	dev.mu.Lock()
	defer dev.mu.Unlock()
	return wordToUnit(dev.rawMin, dev.unit)
}

// Maximum returns the last TOmax read by ReadRange. The factory setting is
// 0x9993, about 513°C.
func (dev *Dev) Maximum() float64 {
	dev.mu.Lock()
	defer dev.mu.Unlock()
	return wordToUnit(dev.rawMax, dev.unit)
}

// SetMin writes TOmin, expressed in the current unit, to EEPROM. Values
// outside the 16 bit range are clamped.
func (dev *Dev) SetMin(v float64) error {
	dev.mu.Lock()
	defer dev.mu.Unlock()
	return dev.writeEEPROM(regTOMin, unitToWord(v, dev.unit))
}

// SetMax writes TOmax, expressed in the current unit, to EEPROM. Values
// outside the 16 bit range are clamped.
func (dev *Dev) SetMax(v float64) error {
	dev.mu.Lock()
	defer dev.mu.Unlock()
	return dev.writeEEPROM(regTOMax, unitToWord(v, dev.unit))
}

// ReadEmissivity returns the configured emissivity, between 0.1 and 1.0.
func (dev *Dev) ReadEmissivity() (float64, error) {
	dev.mu.Lock()
	defer dev.mu.Unlock()
	w, err := dev.readWord(regKE)
	if err != nil {
		return 0, err
	}
	return countToEmissivity(w), nil
}

// SetEmissivity writes the emissivity to EEPROM. e must be between 0.1 and
// 1.0.
func (dev *Dev) SetEmissivity(e float64) error {
	if math.IsNaN(e) || e < minEmissivity || e > maxEmissivity {
		return ErrEmissivityRange
	}
	dev.mu.Lock()
	defer dev.mu.Unlock()
	return dev.writeEEPROM(regKE, emissivityToCount(e))
}

// ReadAddress returns the SMBus address stored in EEPROM. It may differ from
// the address in use until the device is power cycled.
func (dev *Dev) ReadAddress() (uint8, error) {
	dev.mu.Lock()
	defer dev.mu.Unlock()
	w, err := dev.readWord(regAddress)
	if err != nil {
		return 0, err
	}
	return uint8(w), nil
}

// SetAddress stores a new SMBus address in EEPROM. It takes effect after the
// device is power cycled; this Dev keeps using the current address.
func (dev *Dev) SetAddress(addr uint8) error {
	if addr == 0 || addr&0x80 != 0 {
		return ErrAddressRange
	}
	dev.mu.Lock()
	defer dev.mu.Unlock()
	w, err := dev.readWord(regAddress)
	if err != nil {
		return err
	}
	// The high byte is factory data and must be preserved.
	w = w&0xff00 | uint16(addr)
	return dev.writeEEPROM(regAddress, w)
}

// ReadID reads the 64 bit factory ID. On error the cached ID is partially
// updated and must not be used.
func (dev *Dev) ReadID() error {
	dev.mu.Lock()
	defer dev.mu.Unlock()
	for i := range dev.id {
		w, err := dev.readWord(regID0 + byte(i))
		if err != nil {
			return err
		}
		dev.id[i] = w
	}
	return nil
}

// IDH returns the upper 32 bits of the ID read by ReadID.
func (dev *Dev) IDH() uint32 {
	dev.mu.Lock()
	defer dev.mu.Unlock()
	return uint32(dev.id[3])<<16 | uint32(dev.id[2])
}

// IDL returns the lower 32 bits of the ID read by ReadID.
func (dev *Dev) IDL() uint32 {
	dev.mu.Lock()
	defer dev.mu.Unlock()
	return uint32(dev.id[1])<<16 | uint32(dev.id[0])
}

// ID returns the 64 bit ID read by ReadID.
func (dev *Dev) ID() uint64 {
	return uint64(dev.IDH())<<32 | uint64(dev.IDL())
}

// Sense reads the ambient and object temperatures and reports the object
// temperature. Implements physic.SenseEnv.
func (dev *Dev) Sense(env *physic.Env) error {
	env.Temperature = 0
	env.Pressure = 0
	env.Humidity = 0
	dev.mu.Lock()
	defer dev.mu.Unlock()
	if err := dev.read(); err != nil {
		return err
	}
	env.Temperature = countToTemperature(dev.rawObject)
	return nil
}

// SenseContinuous continuously reads from the device and writes the value to
// the returned channel. Failed reads are skipped. To terminate the
// continuous read, call Halt().
func (dev *Dev) SenseContinuous(interval time.Duration) (<-chan physic.Env, error) {
	dev.mu.Lock()
	defer dev.mu.Unlock()
	if dev.shutdown != nil {
		return nil, errors.New("mlx90614: SenseContinuous already running")
	}
	if interval < minSampleInterval {
		return nil, errors.New("mlx90614: sample interval is < device refresh period")
	}
	shutdown := make(chan struct{})
	dev.shutdown = shutdown
	ch := make(chan physic.Env, 16)
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		defer close(ch)
		for {
			select {
			case <-shutdown:
				return
			case <-ticker.C:
				env := physic.Env{}
				if err := dev.Sense(&env); err != nil {
					continue
				}
				select {
				case ch <- env:
				case <-shutdown:
					return
				}
			}
		}
	}()
	return ch, nil
}

// Precision returns the smallest change in readings the device can produce.
// Implements physic.SenseEnv.
func (dev *Dev) Precision(env *physic.Env) {
	env.Temperature = countResolution
	env.Pressure = 0
	env.Humidity = 0
}

// Halt terminates a SenseContinuous command if running. It does not put the
// device to sleep. Implements conn.Resource.
func (dev *Dev) Halt() error {
	dev.mu.Lock()
	defer dev.mu.Unlock()
	if dev.shutdown != nil {
		close(dev.shutdown)
		dev.shutdown = nil
	}
	return nil
}

func (dev *Dev) String() string {
	return fmt.Sprintf("mlx90614{%s}", dev.d)
}

var _ conn.Resource = &Dev{}
var _ physic.SenseEnv = &Dev{}
