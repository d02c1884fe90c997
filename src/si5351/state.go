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
	"periph.io/x/conn/v3/physic"

	"clockgen/src/support"
)

// DefaultCrystal is the crystal fitted to most Si5351A boards.
const DefaultCrystal = 25_000_000

/*
State is the part of the chip configuration the driver has to remember
because divider computations depend on it and the registers are not read
back: the crystal frequency, the integer multiplier of each PLL and which
PLL feeds each output.
*/
type State struct {
	Crystal      uint32 // Hz, after ppm correction
	MultA, MultB uint8
	Source       [numChannels]PLL
}

// Multiplier is the recorded multiplier of p.
func (s State) Multiplier(p PLL) uint8 {
	if p == PLLB {
		return s.MultB
	}
	return s.MultA
}

func (s *State) setMultiplier(p PLL, m uint8) {
	if p == PLLB {
		s.MultB = m
	} else {
		s.MultA = m
	}
}

// setCrystal applies a ppm correction with the chip's usual whole-MHz
// rounding.
func (s *State) setCrystal(hz uint32, ppm int) {
	s.Crystal = support.AdjustCrystal(hz, ppm)
}

func (s State) CrystalFrequency() physic.Frequency {
	return physic.Frequency(s.Crystal) * physic.Hertz
}

// PLLFrequency is the VCO frequency of p given the recorded multiplier.
func (s State) PLLFrequency(p PLL) physic.Frequency {
	return s.CrystalFrequency() * physic.Frequency(s.Multiplier(p))
}
