// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// mlx90614 reads and configures an MLX90614 infrared thermometer.
//
// Usage:
//
//	mlx90614 [flags] <command> [args]
//
// Commands:
//
//	read                   print the object and ambient temperatures
//	watch                  draw the object temperature as a bar, -n times or until interrupted
//	range                  print the TOmin and TOmax limits
//	setrange <min> <max>   write the TOmin and TOmax limits, in -unit
//	emissivity [value]     print or write the emissivity
//	address [new]          print or write the SMBus address stored in EEPROM
//	id                     print the 64 bit factory ID
//	sleep                  put the device to sleep
//	wake                   wake the device up
//
// Examples:
//
//	# Read from a thermometer on the kernel SMBus adapter 1
//	mlx90614 -smbus 1 read
//
//	# Watch in Fahrenheit, waking it up through GPIO2 and GPIO3 first
//	mlx90614 -unit F -scl GPIO3 -sda GPIO2 wake
//	mlx90614 -unit F watch
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/GermanBionicSystems/irtherm/mlx90614"
	"github.com/GermanBionicSystems/irtherm/smbusi2c"
	"github.com/GermanBionicSystems/irtherm/thermbar"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/host/v3"
)

type config struct {
	unit     mlx90614.Unit
	scl, sda gpio.PinIO
	interval time.Duration
	n        int
	barMin   physic.Temperature
	barMax   physic.Temperature
	barCells int
	// stop ends watch early.
	stop <-chan struct{}
}

func parseUnit(s string) (mlx90614.Unit, error) {
	switch strings.ToLower(s) {
	case "c", "celsius":
		return mlx90614.Celsius, nil
	case "k", "kelvin":
		return mlx90614.Kelvin, nil
	case "f", "fahrenheit":
		return mlx90614.Fahrenheit, nil
	case "raw":
		return mlx90614.Raw, nil
	}
	return 0, fmt.Errorf("unknown unit %q", s)
}

func parseAddr(s string) (uint16, error) {
	v, err := strconv.ParseUint(s, 0, 8)
	if err != nil {
		return 0, fmt.Errorf("invalid address %q: %w", s, err)
	}
	return uint16(v), nil
}

func pinByName(name string) (gpio.PinIO, error) {
	if name == "" {
		return nil, nil
	}
	p := gpioreg.ByName(name)
	if p == nil {
		return nil, fmt.Errorf("unknown pin %q", name)
	}
	return p, nil
}

func run(b i2c.Bus, addr uint16, cfg *config, args []string, w io.Writer) error {
	if len(args) == 0 {
		return errors.New("missing command")
	}
	cmd, args := args[0], args[1:]
	// A sleeping device doesn't acknowledge its address.
	asleep := cmd == "wake"
	dev, err := mlx90614.New(b, addr, &mlx90614.Opts{Unit: cfg.unit, SCL: cfg.scl, SDA: cfg.sda, Asleep: asleep})
	if err != nil {
		return err
	}
	u := cfg.unit
	switch cmd {
	case "read":
		if err := dev.Read(); err != nil {
			return err
		}
		_, err = fmt.Fprintf(w, "object: %.2f%s ambient: %.2f%s\n", dev.Object(), u, dev.Ambient(), u)
		return err
	case "watch":
		return watch(dev, cfg, w)
	case "range":
		if err := dev.ReadRange(); err != nil {
			return err
		}
		_, err = fmt.Fprintf(w, "min: %.2f%s max: %.2f%s\n", dev.Minimum(), u, dev.Maximum(), u)
		return err
	case "setrange":
		if len(args) != 2 {
			return errors.New("setrange needs <min> <max>")
		}
		lo, err := strconv.ParseFloat(args[0], 64)
		if err != nil {
			return err
		}
		hi, err := strconv.ParseFloat(args[1], 64)
		if err != nil {
			return err
		}
		if err := dev.SetMin(lo); err != nil {
			return err
		}
		return dev.SetMax(hi)
	case "emissivity":
		if len(args) == 1 {
			e, err := strconv.ParseFloat(args[0], 64)
			if err != nil {
				return err
			}
			if err := dev.SetEmissivity(e); err != nil {
				return err
			}
		}
		e, err := dev.ReadEmissivity()
		if err != nil {
			return err
		}
		_, err = fmt.Fprintf(w, "emissivity: %.3f\n", e)
		return err
	case "address":
		if len(args) == 1 {
			a, err := parseAddr(args[0])
			if err != nil {
				return err
			}
			if err := dev.SetAddress(uint8(a)); err != nil {
				return err
			}
			_, err = fmt.Fprintf(w, "address %#02x stored, power cycle the device to use it\n", a)
			return err
		}
		a, err := dev.ReadAddress()
		if err != nil {
			return err
		}
		_, err = fmt.Fprintf(w, "address: %#02x\n", a)
		return err
	case "id":
		if err := dev.ReadID(); err != nil {
			return err
		}
		_, err = fmt.Fprintf(w, "id: %016x\n", dev.ID())
		return err
	case "sleep":
		return dev.Sleep()
	case "wake":
		if err := dev.Wake(); err != nil {
			return err
		}
		if !dev.IsConnected() {
			return fmt.Errorf("no answer at %#02x after wake", addr)
		}
		_, err = fmt.Fprintln(w, "awake")
		return err
	}
	return fmt.Errorf("unknown command %q", cmd)
}

func watch(dev *mlx90614.Dev, cfg *config, w io.Writer) error {
	bar, err := thermbar.New(&thermbar.Opts{Cells: cfg.barCells, Min: cfg.barMin, Max: cfg.barMax, Writer: w})
	if err != nil {
		return err
	}
	defer bar.Halt()
	ch, err := dev.SenseContinuous(cfg.interval)
	if err != nil {
		return err
	}
	defer dev.Halt()
	for i := 0; cfg.n <= 0 || i < cfg.n; i++ {
		select {
		case env := <-ch:
			if err := bar.Show(env.Temperature); err != nil {
				return err
			}
		case <-cfg.stop:
			return nil
		}
	}
	return nil
}

func mainImpl() error {
	busName := flag.String("bus", "", "I²C bus to use")
	smbusNum := flag.Int("smbus", -1, "use /dev/i2c-N through the kernel SMBus interface instead of -bus")
	addrFlag := flag.String("addr", "0x5a", "SMBus address of the device")
	unitFlag := flag.String("unit", "C", "temperature unit: C, K, F or raw")
	sclName := flag.String("scl", "", "SCL pin, needed by sleep and wake when the bus doesn't expose it")
	sdaName := flag.String("sda", "", "SDA pin, needed by sleep and wake when the bus doesn't expose it")
	interval := flag.Duration("interval", time.Second, "watch sampling interval")
	n := flag.Int("n", 0, "number of watch samples, 0 for unlimited")
	barMin := physic.ZeroCelsius
	barMax := physic.ZeroCelsius + 100*physic.Kelvin
	flag.Var(&barMin, "bar-min", "watch bar lower bound")
	flag.Var(&barMax, "bar-max", "watch bar upper bound")
	verbose := flag.Bool("v", false, "verbose mode")
	flag.Parse()
	if !*verbose {
		log.SetOutput(io.Discard)
	}
	log.SetFlags(log.Lmicroseconds)

	addr, err := parseAddr(*addrFlag)
	if err != nil {
		return err
	}
	u, err := parseUnit(*unitFlag)
	if err != nil {
		return err
	}
	if _, err := host.Init(); err != nil {
		return err
	}
	scl, err := pinByName(*sclName)
	if err != nil {
		return err
	}
	sda, err := pinByName(*sdaName)
	if err != nil {
		return err
	}
	if *smbusNum >= 0 {
		if err := smbusi2c.Register(*smbusNum); err != nil {
			return err
		}
		*busName = smbusi2c.Name(*smbusNum)
	}
	b, err := i2creg.Open(*busName)
	if err != nil {
		return err
	}
	defer b.Close()
	log.Printf("using %s at %#02x", b, addr)

	stop := make(chan struct{})
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sig
		close(stop)
	}()

	cfg := &config{
		unit:     u,
		scl:      scl,
		sda:      sda,
		interval: *interval,
		n:        *n,
		barMin:   barMin,
		barMax:   barMax,
		barCells: 40,
		stop:     stop,
	}
	return run(b, addr, cfg, flag.Args(), os.Stdout)
}

func main() {
	if err := mainImpl(); err != nil {
		fmt.Fprintf(os.Stderr, "mlx90614: %s.\n", err)
		os.Exit(1)
	}
}
