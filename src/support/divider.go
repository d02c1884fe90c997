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

package support

import "fmt"

/*
Divider is the quotient A + B/C that is programmed into a PLL feedback
divider or a MultiSynth output divider.

Integer mode is B == 0, C == 1. Otherwise 0 <= B < C <= FareyN. A must be at
least 4 or the P1 field underflows; callers are responsible for that.
*/
type Divider struct {
	A, B, C uint32
}

// IntegerDivider returns a divider with no fractional part.
func IntegerDivider(a uint32) Divider {
	return Divider{A: a, C: 1}
}

// IsInteger reports whether the divider can be programmed in integer mode.
func (d Divider) IsInteger() bool {
	return d.B == 0 && d.C == 1
}

// Value is the divider as a real number.
func (d Divider) Value() float64 {
	return float64(d.A) + float64(d.B)/float64(d.C)
}

func (d Divider) String() string {
	if d.B == 0 {
		return fmt.Sprintf("%d", d.A)
	}
	return fmt.Sprintf("%d+%d/%d", d.A, d.B, d.C)
}

// Params returns the P1, P2 and P3 register fields described in AN619.
func (d Divider) Params() (p1, p2, p3 uint32) {
	f := 128 * d.B / d.C
	p1 = 128*d.A + f - 512
	p2 = 128*d.B - d.C*f
	return p1, p2, d.C
}

/*
Pack lays the divider out as the eight consecutive registers the chip uses
for both PLL and MultiSynth dividers:

	0: P3[15:8]
	1: P3[7:0]
	2: P1[17:16] in the low two bits
	3: P1[15:8]
	4: P1[7:0]
	5: P3[19:16] in the high nibble, P2[19:16] in the low nibble
	6: P2[15:8]
	7: P2[7:0]
*/
func (d Divider) Pack() [8]byte {
	p1, p2, p3 := d.Params()
	return [8]byte{
		byte(p3 >> 8),
		byte(p3),
		byte(p1>>16) & 0x03,
		byte(p1 >> 8),
		byte(p1),
		byte(p2>>16)&0x0F | byte(p3>>12)&0xF0,
		byte(p2 >> 8),
		byte(p2),
	}
}

// Unpack decodes a register image written by Pack.
func Unpack(r [8]byte) Divider {
	p3 := uint32(r[0])<<8 | uint32(r[1]) | uint32(r[5]&0xF0)<<12
	p1 := uint32(r[2]&0x03)<<16 | uint32(r[3])<<8 | uint32(r[4])
	p2 := uint32(r[5]&0x0F)<<16 | uint32(r[6])<<8 | uint32(r[7])

	// p1 + 512 = 128*a + floor(128*b/c) and the floor is below 128
	f := (p1 + 512) % 128
	return Divider{
		A: (p1 + 512) / 128,
		B: (p2 + p3*f) / 128,
		C: p3,
	}
}
