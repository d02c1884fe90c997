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
	"testing"
)

func Test_plan_integer(t *testing.T) {
	tests := []struct {
		name       string
		f          uint32
		multiplier uint8
		divider    Divider
	}{
		{"100MHz", 100_000_000, 36, IntegerDivider(9)},
		{"10MHz", 10_000_000, 36, IntegerDivider(90)},
		{"150MHz uses divide by six", 150_000_000, 36, IntegerDivider(6)},
		{"225MHz uses divide by four", 225_000_000, 36, IntegerDivider(4)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := NewPlan(25_000_000, tt.f)
			if err != nil {
				t.Fatalf("NewPlan: %s", err)
			}
			if p.Multiplier != tt.multiplier || p.Divider != tt.divider {
				t.Errorf("got %v, want mult=%d div=%v", p, tt.multiplier, tt.divider)
			}
			if p.Eps != 0 {
				t.Errorf("expected exact plan, got eps=%g", p.Eps)
			}
		})
	}
}

func Test_plan_accuracy(t *testing.T) {
	frequencies := [][]float64{ // multiple test bands
		{1838000, 1838200},
		{3570000, 3570200},
		{7040000, 7040200},
		{10140100, 10140300},
		{14097000, 14097200},
		{28126000, 28126200},
		{50294400, 50294600},
	}
	for _, band := range frequencies {
		for f := band[0]; f <= band[1]; f += 37 {
			p, err := NewPlan(25_000_000, uint32(f))
			if err != nil {
				t.Fatalf("NewPlan(%.0f): %s", f, err)
			}
			if math.Abs(p.Eps)/f > 1e-9 {
				t.Errorf("Big discrepancy: %.4f, %.2f vs %.2f", p.Eps, p.Frequency, f)
			}
			if p.VCO() < 600e6 || p.VCO() > 900e6 {
				t.Errorf("VCO out of range: %v", p)
			}
			if p.Divider.A < 8 || p.Divider.A > 2048 || p.Divider.C > FareyN || p.Divider.B >= p.Divider.C && p.Divider.C > 1 {
				t.Errorf("divider out of range: %v", p)
			}
		}
	}
}

func Test_plan_errors(t *testing.T) {
	tests := []struct {
		name    string
		crystal uint32
		f       uint32
	}{
		{"slow crystal", 5_000_000, 10_000_000},
		{"fast crystal", 50_000_000, 10_000_000},
		{"zero output", 25_000_000, 0},
		{"output too high", 25_000_000, 250_000_000},
		{"output too low without an R divider", 25_000_000, 100_000},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if p, err := NewPlan(tt.crystal, tt.f); err == nil {
				t.Errorf("expected error, got %v", p)
			}
		})
	}
}
