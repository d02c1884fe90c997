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
Package si5351 drives a Silicon Labs Si5351A clock generator: one crystal,
two integer-mode PLLs and three fractional MultiSynth outputs.

A Generator keeps the little state the divider arithmetic needs (crystal
frequency, PLL multipliers, which PLL feeds which output) and turns "put CLKn
on f Hz" into the chip's register images. It is not safe for concurrent use;
callers sharing one chip must serialize calls themselves.

With no options the register traffic is byte for byte that of the AVR
driver, quirks included. WithArithmetic(Float64) and
WithModeRegister(ModeInControl) opt out of the two that change what the chip
is sent.

Typical bring-up:

	g := si5351.New(si5351.NewI2CBus(bus, si5351.DefaultAddress))
	g.Begin()
	g.ConfigurePLL(si5351.PLLA, 32)
	g.ConfigureChannel(si5351.CLK0, 0x4F)
	g.SetFrequency(si5351.CLK0, 10_000_000)
	g.EnableChannel(si5351.CLK0)
*/
package si5351

import (
	"errors"
	"fmt"

	"github.com/golang/glog"

	"clockgen/src/support"
)

var (
	ErrZeroFrequency = errors.New("si5351: output frequency must be positive")
	ErrDividerRange  = errors.New("si5351: output divider out of range")
)

// Generator is one Si5351 reached through a RegisterBus.
type Generator struct {
	bus   RegisterBus
	cfg   Config
	state State
}

func New(bus RegisterBus, opts ...Option) *Generator {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	g := &Generator{bus: bus, cfg: cfg}
	g.state.setCrystal(cfg.Crystal, 0)
	return g
}

// State returns a copy of what the driver remembers about the chip.
func (g *Generator) State() State {
	return g.state
}

// Begin disables the OEB pin, feeds both PLLs from the crystal, sets 10pF
// crystal load and turns all outputs off.
func (g *Generator) Begin() error {
	for _, w := range []struct{ reg, value uint8 }{
		{regOEBMask, oebDisabled},
		{regPLLInput, inputXTAL},
		{regCrystalLoad, load10pF},
		{regOutputEnable, outputsOff},
	} {
		if err := g.write(w.reg, w.value); err != nil {
			return err
		}
	}
	return nil
}

// SetCrystalFrequency sets the crystal frequency used for divider
// computations. Nothing is written to the chip.
func (g *Generator) SetCrystalFrequency(hz uint32) {
	g.state.setCrystal(hz, 0)
}

// SetCrystalFrequencyPPM is SetCrystalFrequency with a calibration in parts
// per million: hz + hz/1e6*ppm, the division rounding down to whole MHz.
func (g *Generator) SetCrystalFrequencyPPM(hz uint32, ppm int) {
	g.state.setCrystal(hz, ppm)
	glog.V(1).Infof("si5351: crystal %dHz %+dppm = %dHz", hz, ppm, g.state.Crystal)
}

/*
ConfigurePLL puts p in integer mode with the given feedback multiplier and
resets both PLLs. The multiplier is not range checked; the VCO is only
specified for 600..900MHz, which is 24..36 with a 25MHz crystal.
*/
func (g *Generator) ConfigurePLL(p PLL, multiplier uint8) error {
	if err := p.check(); err != nil {
		return err
	}
	g.state.setMultiplier(p, multiplier)

	if err := g.setBit(p.control(), bitIntegerMode, true); err != nil {
		return err
	}
	image := support.IntegerDivider(uint32(multiplier)).Pack()
	if err := g.writeBlock(p.base(), image[:]); err != nil {
		return err
	}
	glog.V(1).Infof("si5351: PLL %s x%d", p, multiplier)
	return g.write(regPLLReset, resetBothPLL)
}

/*
ConfigureChannel writes the CLKx control register of ch. If the MultiSynth
source bit is set the channel is recorded as fed by PLL B. A clear bit only
switches the record back to PLL A with WithSourceClear; by default the
previous record stays.
*/
func (g *Generator) ConfigureChannel(ch Channel, config uint8) error {
	if err := ch.check(); err != nil {
		return err
	}
	if config&(1<<bitSource) != 0 {
		g.state.Source[ch] = PLLB
	} else if g.cfg.SourceClear {
		g.state.Source[ch] = PLLA
	}
	return g.write(regCLK0Control+uint8(ch), config)
}

// EnableChannel clears the output disable bit of ch.
func (g *Generator) EnableChannel(ch Channel) error {
	if err := ch.check(); err != nil {
		return err
	}
	return g.setBit(regOutputEnable, uint8(ch), false)
}

// DisableChannel sets the output disable bit of ch.
func (g *Generator) DisableChannel(ch Channel) error {
	if err := ch.check(); err != nil {
		return err
	}
	return g.setBit(regOutputEnable, uint8(ch), true)
}

// SetPhase writes the 7 bit phase offset of ch. The offset is in units of a
// quarter of the VCO period.
func (g *Generator) SetPhase(ch Channel, phase uint8) error {
	if err := ch.check(); err != nil {
		return err
	}
	return g.write(regCLK0Phase+uint8(ch), phase&phaseMask)
}

// SetFrequency programs the MultiSynth of ch so that the output runs at hz,
// picking integer or fractional mode. The PLL feeding ch has to be
// configured first.
func (g *Generator) SetFrequency(ch Channel, hz uint32) error {
	d, integer, err := g.ComputeDivider(ch, hz)
	if err != nil {
		return err
	}
	if err := g.setBit(g.modeRegister(ch), bitIntegerMode, integer); err != nil {
		return err
	}
	glog.V(1).Infof("si5351: %s %dHz divider %s integer=%t", ch, hz, d, integer)
	image := d.Pack()
	return g.writeBlock(regMS0+uint8(ch)*8, image[:])
}

/*
ComputeDivider works out what SetFrequency would program without touching
the chip: the divider and whether integer mode is used.

The total divider is crystal*multiplier/hz for the PLL recorded as feeding
ch. When it is exactly whole (or within the configured tolerance) integer
mode is used. Otherwise the fraction goes through the mediant search with
denominators up to support.FareyN.

A target at or above the VCO frequency gives a meaningless divider below
one. That is not checked unless WithStrictDividers is set.
*/
func (g *Generator) ComputeDivider(ch Channel, hz uint32) (support.Divider, bool, error) {
	if err := ch.check(); err != nil {
		return support.Divider{}, false, err
	}
	if hz == 0 {
		return support.Divider{}, false, ErrZeroFrequency
	}

	mult := g.state.Multiplier(g.state.Source[ch])
	var d support.Divider
	var integer bool
	switch g.cfg.Arithmetic {
	case Float64:
		vco := uint64(g.state.Crystal) * uint64(mult)
		d, integer = splitDivider(float64(vco)/float64(hz), g.cfg.IntegerTolerance, g.cfg.Policy)
	case Rational:
		vco := uint64(g.state.Crystal) * uint64(mult)
		d, integer = rationalDivider(vco, uint64(hz), g.cfg.IntegerTolerance)
	default:
		vco := g.state.Crystal * uint32(mult)
		d, integer = splitDivider(float32(vco)/float32(hz), float32(g.cfg.IntegerTolerance), g.cfg.Policy)
	}

	if g.cfg.StrictDividers && !validOutputDivider(d) {
		return d, integer, fmt.Errorf("%w: %s for %dHz on %s", ErrDividerRange, d, hz, ch)
	}
	return d, integer, nil
}

func splitDivider[F support.Real](divider, tolerance F, policy support.Policy) (support.Divider, bool) {
	a := uint32(int32(divider))
	frac := divider - F(a)
	switch {
	case frac <= tolerance:
		return support.IntegerDivider(a), true
	case 1-frac <= tolerance:
		return support.IntegerDivider(a + 1), true
	}
	b, c := support.Approximate(policy, frac, support.FareyN)
	if b == c {
		// rounded up to the next whole number; same registers as (a+1, 0, 1)
		return support.IntegerDivider(a + 1), false
	}
	return support.Divider{A: a, B: b, C: c}, false
}

func rationalDivider(vco, hz uint64, tolerance float64) (support.Divider, bool) {
	a, rem := vco/hz, vco%hz
	frac := float64(rem) / float64(hz)
	switch {
	case frac <= tolerance:
		return support.IntegerDivider(uint32(a)), true
	case 1-frac <= tolerance:
		return support.IntegerDivider(uint32(a + 1)), true
	}
	b, c, _ := support.NearestFraction(rem, hz, support.FareyN)
	if b == c {
		return support.IntegerDivider(uint32(a + 1)), false
	}
	return support.Divider{A: uint32(a), B: uint32(b), C: uint32(c)}, false
}

func validOutputDivider(d support.Divider) bool {
	if d.IsInteger() && (d.A == 4 || d.A == 6) {
		return true
	}
	v := d.Value()
	return v >= 8 && v <= 2048
}

func (g *Generator) modeRegister(ch Channel) uint8 {
	if g.cfg.ModeRegister == ModeInControl {
		return regCLK0Control + uint8(ch)
	}
	return regMS0 + uint8(ch)
}

func (g *Generator) setBit(reg, bit uint8, on bool) error {
	v, err := g.read(reg)
	if err != nil {
		return err
	}
	if on {
		v |= 1 << bit
	} else {
		v &^= 1 << bit
	}
	return g.write(reg, v)
}

func (g *Generator) write(reg, value uint8) error {
	glog.V(2).Infof("si5351: %d <- %#02x", reg, value)
	if err := g.bus.WriteRegister(reg, value); err != nil {
		return fmt.Errorf("si5351: write register %d: %w", reg, err)
	}
	return nil
}

func (g *Generator) writeBlock(reg uint8, values []byte) error {
	glog.V(2).Infof("si5351: %d <- % x", reg, values)
	if err := g.bus.WriteBlock(reg, values); err != nil {
		return fmt.Errorf("si5351: write registers %d..%d: %w", reg, int(reg)+len(values)-1, err)
	}
	return nil
}

func (g *Generator) read(reg uint8) (uint8, error) {
	v, err := g.bus.ReadRegister(reg)
	if err != nil {
		return 0, fmt.Errorf("si5351: read register %d: %w", reg, err)
	}
	glog.V(2).Infof("si5351: %d -> %#02x", reg, v)
	return v, nil
}
