/*
 * Copyright 2025 Ted Dunning
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 * http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

/*
si5351ctl programs an Si5351 from a Linux host over I2C. Commands come from
-e, from script files named on the command line or from stdin:

	si5351ctl -bus /dev/i2c-1 -e 'begin; pll A 32; clk 0 0x0f; freq 0 14.0971MHz; enable 0'
	si5351ctl -dry-run -v 2 -logtostderr setup.txt

With -dry-run nothing is opened and the register writes are printed.
*/
package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/golang/glog"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/host/v3"

	"clockgen/src/script"
	"clockgen/src/si5351"
	"clockgen/src/support"
)

var (
	busName    = flag.String("bus", "", "I2C bus name or number, empty for the first one found")
	address    = flag.Uint("addr", uint(si5351.DefaultAddress), "I2C address of the chip")
	xtal       = flag.String("xtal", "25MHz", "nominal crystal frequency")
	ppm        = flag.Int("ppm", 0, "crystal correction in parts per million")
	dryRun     = flag.Bool("dry-run", false, "print register writes instead of using a bus")
	commands   = flag.String("e", "", "commands to run, separated by ';'")
	arithmetic = flag.String("arith", "float32", "divider arithmetic: float32, float64 or rational")
	policy     = flag.String("policy", "reference", "fraction search policy: reference or nearest")
	modeReg    = flag.String("mode-register", "multisynth", "where the integer mode bit goes: multisynth or control")
	strict     = flag.Bool("strict", false, "refuse output dividers outside the chip's range")
	tolerance  = flag.Float64("int-tolerance", 0, "how close to whole a divider must be for integer mode")
)

var arithmetics = map[string]si5351.Arithmetic{
	"float64":  si5351.Float64,
	"float32":  si5351.Float32,
	"rational": si5351.Rational,
}

var policies = map[string]support.Policy{
	"reference": support.Reference,
	"nearest":   support.Nearest,
}

var modeRegisters = map[string]si5351.ModeRegister{
	"control":    si5351.ModeInControl,
	"multisynth": si5351.ModeInMultiSynth,
}

func main() {
	flag.Parse()
	defer glog.Flush()

	opts, err := options()
	if err != nil {
		glog.Exitf("%s", err)
	}

	var bus si5351.RegisterBus
	var memory *si5351.MemoryBus
	if *dryRun {
		memory = &si5351.MemoryBus{}
		bus = memory
	} else {
		b, err := openBus()
		if err != nil {
			glog.Exitf("%s", err)
		}
		defer b.Close()
		bus = si5351.NewI2CBus(b, i2c.Addr(*address))
		glog.V(1).Infof("using %s", bus)
	}

	g := si5351.New(bus, opts...)
	if *ppm != 0 {
		g.SetCrystalFrequencyPPM(g.State().Crystal, *ppm)
	}
	in := &script.Interpreter{G: g, Out: os.Stdout}
	if err := run(in); err != nil {
		glog.Exitf("%s", err)
	}

	if memory != nil {
		for _, w := range memory.Log {
			fmt.Println(w)
		}
	}
}

func options() ([]si5351.Option, error) {
	f, err := script.ParseFrequency(*xtal)
	if err != nil {
		return nil, err
	}
	crystal, err := script.Hz(f)
	if err != nil {
		return nil, fmt.Errorf("-xtal: %w", err)
	}
	if crystal == 0 {
		return nil, fmt.Errorf("-xtal must be positive")
	}
	a, ok := arithmetics[*arithmetic]
	if !ok {
		return nil, fmt.Errorf("unknown arithmetic %q", *arithmetic)
	}
	p, ok := policies[*policy]
	if !ok {
		return nil, fmt.Errorf("unknown policy %q", *policy)
	}
	m, ok := modeRegisters[*modeReg]
	if !ok {
		return nil, fmt.Errorf("unknown mode register %q", *modeReg)
	}
	return []si5351.Option{
		si5351.WithCrystal(crystal),
		si5351.WithArithmetic(a),
		si5351.WithBoundaryPolicy(p),
		si5351.WithModeRegister(m),
		si5351.WithStrictDividers(*strict),
		si5351.WithIntegerTolerance(*tolerance),
	}, nil
}

func openBus() (i2c.BusCloser, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("host init: %w", err)
	}
	b, err := i2creg.Open(*busName)
	if err != nil {
		return nil, fmt.Errorf("open I2C bus %q: %w", *busName, err)
	}
	return b, nil
}

func run(in *script.Interpreter) error {
	if *commands != "" {
		return in.Run(strings.NewReader(strings.ReplaceAll(*commands, ";", "\n")))
	}
	if flag.NArg() == 0 {
		return in.Run(os.Stdin)
	}
	for _, name := range flag.Args() {
		if err := runFile(in, name); err != nil {
			return err
		}
	}
	return nil
}

func runFile(in *script.Interpreter, name string) error {
	var r io.Reader = os.Stdin
	if name != "-" {
		f, err := os.Open(name)
		if err != nil {
			return err
		}
		defer f.Close()
		r = f
	}
	if err := in.Run(r); err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	return nil
}
