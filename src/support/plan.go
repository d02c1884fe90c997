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
	"errors"
	"fmt"
	"math"
)

// Plan is an integer PLL multiplier plus the MultiSynth divider that turns
// a crystal frequency into a target output frequency.
type Plan struct {
	Crystal, Target uint32  // Hz
	Multiplier      uint8   // PLL feedback multiplier
	Divider         Divider // MultiSynth output divider
	Frequency       float64 // output frequency actually produced (Hz)
	Eps             float64 // Target - Frequency (Hz)
}

const (
	minVCO = 600e6
	maxVCO = 900e6

	minMultiplier = 15
	maxMultiplier = 90

	minFractional = 8
	maxDivider    = 2048
)

/*
NewPlan picks a PLL multiplier and output divider for a Si5351 running from
the given crystal. Only integer PLL multipliers are considered; the VCO is
kept within 600..900MHz and the MultiSynth divider within 8..2048 (or exactly
4 or 6, which the chip only accepts in integer mode).

An exact integer output divider is preferred. Failing that, every multiplier
is tried and the one whose fractional divider lands closest to the target
wins, with the remainder approximated by NearestFraction. Ties go to integer
dividers and then to the higher VCO.

There is no R divider in this design, so targets below about 293kHz cannot be
reached.
*/
func NewPlan(crystal, target uint32) (Plan, error) {
	if crystal < 10e6 || crystal > 40e6 {
		return Plan{}, errors.New("Plan: invalid crystal frequency")
	}
	if target == 0 {
		return Plan{}, errors.New("Plan: output frequency must be positive")
	}
	if float64(target) > maxVCO/4 {
		return Plan{}, fmt.Errorf("Plan: output frequency > %.0fMHz", maxVCO/4/1e6)
	}

	var best Plan
	found := false
	for m := uint64(minMultiplier); m <= maxMultiplier; m++ {
		vco := uint64(crystal) * m
		if vco < minVCO || vco > maxVCO {
			continue
		}
		d, ok := outputDivider(vco, uint64(target))
		if !ok {
			continue
		}
		f := float64(vco) / d.Value()
		p := Plan{
			Crystal:    crystal,
			Target:     target,
			Multiplier: uint8(m),
			Divider:    d,
			Frequency:  f,
			Eps:        float64(target) - f,
		}
		if !found || p.better(best) {
			best = p
			found = true
		}
	}
	if !found {
		return Plan{}, errors.New("Plan: no multiplier reaches the output frequency")
	}
	return best, nil
}

// outputDivider computes vco/target as a divider the MultiSynth accepts.
func outputDivider(vco, target uint64) (Divider, bool) {
	a, rem := vco/target, vco%target
	if rem != 0 {
		b, c, _ := NearestFraction(rem, target, FareyN)
		if b == c {
			a, rem = a+1, 0
		} else if b != 0 {
			if a < minFractional || a >= maxDivider {
				return Divider{}, false
			}
			return Divider{A: uint32(a), B: uint32(b), C: uint32(c)}, true
		}
	}
	switch {
	case a == 4 || a == 6:
	case a >= minFractional && a <= maxDivider:
	default:
		return Divider{}, false
	}
	return IntegerDivider(uint32(a)), true
}

func (p Plan) better(q Plan) bool {
	pe, qe := math.Abs(p.Eps), math.Abs(q.Eps)
	if pe != qe {
		return pe < qe
	}
	if p.Divider.IsInteger() != q.Divider.IsInteger() {
		return p.Divider.IsInteger()
	}
	return p.Multiplier > q.Multiplier
}

// VCO is the PLL frequency the plan runs at.
func (p Plan) VCO() float64 {
	return float64(p.Crystal) * float64(p.Multiplier)
}

func (p Plan) String() string {
	return fmt.Sprintf("xtal=%d mult=%d vco=%.0f div=%s f=%.6f eps=%.3g",
		p.Crystal, p.Multiplier, p.VCO(), p.Divider, p.Frequency, p.Eps)
}
