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

package si5351

import "clockgen/src/support"

// Arithmetic selects how the total output divider is computed.
type Arithmetic int

const (
	// Float32 repeats the single precision arithmetic of the AVR driver,
	// including the 32 bit product crystal*multiplier, so the chip gets the
	// same dividers it always got.
	Float32 Arithmetic = iota
	// Float64 computes crystal*multiplier/target as a 64 bit float and
	// approximates the fraction with a mediant search.
	Float64
	// Rational keeps the ratio as integers and approximates the remainder
	// with continued fractions. Integer dividers are always detected.
	Rational
)

// ModeRegister selects where SetFrequency flips the MultiSynth integer bit.
type ModeRegister int

const (
	// ModeInMultiSynth read-modify-writes register MS0+channel as the AVR
	// driver does. That register is part of MultiSynth0's divider image, so
	// for CLK1 and CLK2 the bit lands in MultiSynth0's P3 and P1 bytes.
	ModeInMultiSynth ModeRegister = iota
	// ModeInControl uses MSx_INT in the CLKx control register.
	ModeInControl
)

// Config holds the driver configuration.
type Config struct {
	// Crystal is the nominal crystal frequency in Hz.
	Crystal uint32

	// Arithmetic used for output dividers. Default Float32.
	Arithmetic Arithmetic

	// Policy used by the mediant search. Default support.Reference.
	Policy support.Policy

	// IntegerTolerance is how close to a whole number the divider has to be
	// to use integer mode. Default 0, i.e. exact.
	IntegerTolerance float64

	// SourceClear makes ConfigureChannel record PLL A when the source bit
	// is clear. By default only a set bit is recorded.
	SourceClear bool

	// ModeRegister for the MultiSynth integer bit. Default ModeInMultiSynth.
	ModeRegister ModeRegister

	// StrictDividers rejects output dividers the MultiSynth cannot run at.
	StrictDividers bool
}

func defaultConfig() Config {
	return Config{
		Crystal: DefaultCrystal,
	}
}

// Option is a functional option for configuring a Generator.
type Option func(*Config)

// WithCrystal sets the nominal crystal frequency.
func WithCrystal(hz uint32) Option {
	return func(c *Config) {
		c.Crystal = hz
	}
}

// WithArithmetic sets how output dividers are computed.
//
// Example:
//
//	g := si5351.New(bus, si5351.WithArithmetic(si5351.Rational))
func WithArithmetic(a Arithmetic) Option {
	return func(c *Config) {
		c.Arithmetic = a
	}
}

// WithBoundaryPolicy sets which Farey neighbour the mediant search returns.
func WithBoundaryPolicy(p support.Policy) Option {
	return func(c *Config) {
		c.Policy = p
	}
}

// WithIntegerTolerance treats dividers within eps of a whole number as
// integers. Negative values are ignored.
func WithIntegerTolerance(eps float64) Option {
	return func(c *Config) {
		if eps >= 0 {
			c.IntegerTolerance = eps
		}
	}
}

// WithSourceClear makes a clear source bit in ConfigureChannel switch the
// recorded source back to PLL A.
func WithSourceClear(clear bool) Option {
	return func(c *Config) {
		c.SourceClear = clear
	}
}

// WithModeRegister picks the register for the MultiSynth integer bit.
func WithModeRegister(m ModeRegister) Option {
	return func(c *Config) {
		c.ModeRegister = m
	}
}

// WithStrictDividers makes SetFrequency refuse dividers outside 8..2048
// (4 and 6 are allowed in integer mode).
func WithStrictDividers(strict bool) Option {
	return func(c *Config) {
		c.StrictDividers = strict
	}
}
