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

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidChannel = errors.New("si5351: channel must be 0, 1 or 2")
	ErrInvalidPLL     = errors.New("si5351: PLL must be A or B")
)

// Channel is one of the three outputs CLK0..CLK2.
type Channel uint8

const (
	CLK0 Channel = iota
	CLK1
	CLK2

	numChannels = 3
)

func (c Channel) check() error {
	if c >= numChannels {
		return fmt.Errorf("%w: got %d", ErrInvalidChannel, c)
	}
	return nil
}

func (c Channel) String() string {
	return fmt.Sprintf("CLK%d", uint8(c))
}

// PLL is one of the two feedback multipliers.
type PLL uint8

const (
	PLLA PLL = iota
	PLLB
)

func (p PLL) check() error {
	if p > PLLB {
		return fmt.Errorf("%w: got %d", ErrInvalidPLL, p)
	}
	return nil
}

// base is the first of the eight feedback divider registers.
func (p PLL) base() uint8 {
	if p == PLLB {
		return regPLLB
	}
	return regPLLA
}

// control holds the FBx_INT bit.
func (p PLL) control() uint8 {
	if p == PLLB {
		return regPLLBControl
	}
	return regPLLAControl
}

func (p PLL) String() string {
	switch p {
	case PLLA:
		return "A"
	case PLLB:
		return "B"
	default:
		return fmt.Sprintf("PLL(%d)", uint8(p))
	}
}

// ParsePLL accepts "A" or "B" in either case.
func ParsePLL(s string) (PLL, error) {
	switch s {
	case "A", "a":
		return PLLA, nil
	case "B", "b":
		return PLLB, nil
	}
	return 0, fmt.Errorf("%w: got %q", ErrInvalidPLL, s)
}

// Drive is the output driver strength.
type Drive uint8

const (
	Drive2mA Drive = iota
	Drive4mA
	Drive6mA
	Drive8mA
)

// Input is what feeds an output driver.
type Input uint8

const (
	InputXTAL       Input = 0
	InputCLKIN      Input = 1
	InputMultiSynth Input = 3
)

/*
ChannelConfig spells out the CLKx control register (AN619 registers 16-18).
The usual setting is a MultiSynth input at 8mA:

	ChannelConfig{Input: InputMultiSynth, Drive: Drive8mA}.Byte() == 0x0F
*/
type ChannelConfig struct {
	PowerDown   bool
	IntegerMode bool
	Source      PLL
	Invert      bool
	Input       Input
	Drive       Drive
}

func (c ChannelConfig) Byte() uint8 {
	b := uint8(c.Input&3)<<shiftInput | uint8(c.Drive&3)<<shiftDrive
	if c.PowerDown {
		b |= 1 << bitPowerDown
	}
	if c.IntegerMode {
		b |= 1 << bitIntegerMode
	}
	if c.Source == PLLB {
		b |= 1 << bitSource
	}
	if c.Invert {
		b |= 1 << bitInvert
	}
	return b
}

func ParseChannelConfig(b uint8) ChannelConfig {
	c := ChannelConfig{
		PowerDown:   b&(1<<bitPowerDown) != 0,
		IntegerMode: b&(1<<bitIntegerMode) != 0,
		Invert:      b&(1<<bitInvert) != 0,
		Input:       Input(b >> shiftInput & 3),
		Drive:       Drive(b >> shiftDrive & 3),
	}
	if b&(1<<bitSource) != 0 {
		c.Source = PLLB
	}
	return c
}
