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

import "periph.io/x/conn/v3/i2c"

// DefaultAddress is the I²C address of the Si5351A with ADDR pulled low.
// Some batches ship strapped to 0x63.
const DefaultAddress i2c.Addr = 0x60

// Register map, see Silicon Labs AN619.
const (
	regOutputEnable = 3   // one disable bit per output, set = off
	regOEBMask      = 9   // OEB pin enable mask
	regPLLInput     = 15  // PLL reference source
	regCLK0Control  = 16  // CLK0..CLK2 at 16..18
	regPLLAControl  = 22  // CLK6 control, carries FBA_INT
	regPLLBControl  = 23  // CLK7 control, carries FBB_INT
	regPLLA         = 26  // PLL A feedback divider, 8 registers
	regPLLB         = 34  // PLL B feedback divider, 8 registers
	regMS0          = 42  // MultiSynth0..2 at 42, 50, 58
	regCLK0Phase    = 165 // CLK0..CLK2 at 165..167
	regPLLReset     = 177
	regCrystalLoad  = 183
)

// bits of the CLKx control registers
const (
	bitPowerDown   = 7
	bitIntegerMode = 6 // MSx_INT, and FBx_INT in the PLL control registers
	bitSource      = 5 // MultiSynth source, set = PLL B
	bitInvert      = 4
	shiftInput     = 2
	shiftDrive     = 0
)

const (
	oebDisabled  = 0xFF // ignore the OEB pin
	inputXTAL    = 0x00 // both PLLs from the crystal
	load10pF     = 0xC0 // crystal load capacitance
	outputsOff   = 0xFF
	resetBothPLL = 0xA0
	phaseMask    = 0x7F
)
