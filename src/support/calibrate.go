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

import (
	"math"
	"time"
)

// PPM is the offset of a measured frequency from the commanded one in parts
// per million, rounded to the nearest integer. Because every output is
// derived from the crystal, this is also the crystal's own error and can be
// handed straight to the driver's crystal correction.
func PPM(commanded, measured float64) int {
	return int(math.Round((measured/commanded - 1) * 1e6))
}

// AdjustCrystal applies a ppm correction the same way the chip driver always
// has: the nominal frequency is divided down to whole MHz first, so the
// correction moves in steps of nominal/1e6 Hz per ppm.
func AdjustCrystal(nominal uint32, ppm int) uint32 {
	return nominal + uint32(int32(nominal/1_000_000)*int32(ppm))
}

// CountRate converts the number of cycles counted during a gate interval into
// a frequency in Hz.
func CountRate(counts uint64, gate time.Duration) float64 {
	return float64(counts) / gate.Seconds()
}

/*
Gate accumulates readings of a free running cycle counter taken on
successive reference pulses, typically a GPS pulse per second. The counter
wraps at Wrap; a reading lower than the previous one is taken to be one
wrap later. Each reading says how many reference pulses elapsed since the
previous one so that a missed interrupt lengthens the gate instead of
corrupting it.
*/
type Gate struct {
	Wrap uint64

	started bool
	last    uint64
	counts  uint64
	pulses  int
}

// Add a counter reading taken pulses reference periods after the last one.
// The first reading only starts the gate.
func (g *Gate) Add(count uint64, pulses int) {
	if !g.started {
		g.started = true
		g.last = count
		return
	}
	delta := count - g.last
	if count < g.last {
		delta += g.Wrap
	}
	g.counts += delta
	g.pulses += pulses
	g.last = count
}

// Length is the reference time covered by the gate.
func (g *Gate) Length(period time.Duration) time.Duration {
	return time.Duration(g.pulses) * period
}

// Rate is the average counted frequency over the gate in Hz, or 0 before
// two readings have been added.
func (g *Gate) Rate(period time.Duration) float64 {
	if g.pulses == 0 {
		return 0
	}
	return CountRate(g.counts, g.Length(period))
}

// Reset empties the gate; the next reading starts a new one.
func (g *Gate) Reset() {
	*g = Gate{Wrap: g.Wrap}
}
