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

func Test_farey(t *testing.T) {
	tests := []struct {
		name  string
		alpha float64
		n     uint32
		wantX uint32
		wantY uint32
	}{
		{"one half", 0.5, FareyN, 1, 2},
		{"one third", 1.0 / 3.0, 10, 1, 3},
		{"two fifths", 0.4, 100, 2, 5},
		{"pi fraction, small bound", math.Pi - 3, 10, 1, 7},
		{"pi fraction, larger bound", math.Pi - 3, 110, 15, 106},
		{"tiny", 1e-3, 20, 0, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			x, y := Farey(tt.alpha, tt.n)
			if x != tt.wantX || y != tt.wantY {
				t.Errorf("Farey(%v, %d) = %d/%d, want %d/%d", tt.alpha, tt.n, x, y, tt.wantX, tt.wantY)
			}
		})
	}
}

// samples in (0, 0.9) that avoid landing on fractions with small denominators
func alphas() []float64 {
	var r []float64
	for k := 1; k < 900; k++ {
		r = append(r, (float64(k)+0.5*math.Sqrt2-0.5)/1000)
	}
	return r
}

func Test_farey_bounds(t *testing.T) {
	for _, n := range []uint32{1, 2, 7, 20, 1000, FareyN} {
		for _, alpha := range alphas() {
			for _, policy := range []Policy{Reference, Nearest} {
				x, y := Approximate(policy, alpha, n)
				if y == 0 || y > n {
					t.Fatalf("%s(%v, %d) = %d/%d, denominator out of range", policy, alpha, n, x, y)
				}
				if x > y {
					t.Fatalf("%s(%v, %d) = %d/%d, not a proper fraction", policy, alpha, n, x, y)
				}
				if n > 10 && x == y {
					t.Fatalf("%s(%v, %d) = %d/%d, want x < y", policy, alpha, n, x, y)
				}
			}
		}
	}
}

// The reference policy always answers with one of the two Farey neighbours
// of alpha, so nothing with a small enough denominator lies strictly between
// alpha and the answer.
func Test_farey_neighbour_brute_force(t *testing.T) {
	const n = 20
	for _, alpha := range alphas() {
		x, y := Farey(alpha, n)
		got := float64(x) / float64(y)
		for d := uint32(1); d <= n; d++ {
			for c := uint32(0); c <= d; c++ {
				v := float64(c) / float64(d)
				if (v-alpha)*(v-got) < 0 {
					t.Errorf("Farey(%v, %d) = %d/%d but %d/%d lies in between", alpha, n, x, y, c, d)
				}
			}
		}
	}
}

func Test_farey_nearest_brute_force(t *testing.T) {
	const n = 20
	for _, alpha := range alphas() {
		best := math.Inf(1)
		for d := uint32(1); d <= n; d++ {
			for c := uint32(0); c <= d; c++ {
				best = math.Min(best, math.Abs(alpha-float64(c)/float64(d)))
			}
		}
		x, y := FareyNearest(alpha, n)
		got := math.Abs(alpha - float64(x)/float64(y))
		if got > best+1e-15 {
			t.Errorf("FareyNearest(%v, %d) = %d/%d off by %g, best is %g", alpha, n, x, y, got, best)
		}
	}
}

// Where the two policies differ the reference one is the farther neighbour.
func Test_farey_policies_differ(t *testing.T) {
	differ := 0
	for _, alpha := range alphas() {
		rx, ry := Farey(alpha, 20)
		nx, ny := FareyNearest(alpha, 20)
		if rx == nx && ry == ny {
			continue
		}
		differ++
		r := math.Abs(alpha - float64(rx)/float64(ry))
		m := math.Abs(alpha - float64(nx)/float64(ny))
		if m > r {
			t.Errorf("alpha=%v: nearest %d/%d is farther than reference %d/%d", alpha, nx, ny, rx, ry)
		}
	}
	t.Logf("%d samples where the policies differ", differ)
}

func Test_farey_single_precision(t *testing.T) {
	var divider float32 = 8.3
	a := float32(int32(divider))
	x, y := Farey(divider-a, FareyN)
	if y > FareyN || x >= y {
		t.Fatalf("Farey(%v) = %d/%d", divider-a, x, y)
	}
	if got := float64(x) / float64(y); math.Abs(got-0.3) > 1e-6 {
		t.Errorf("Farey(%v) = %d/%d = %v, want about 0.3", divider-a, x, y, got)
	}
}

func Test_farey_large_denominator(t *testing.T) {
	alpha := 0.3
	x, y := Farey(alpha, FareyN)
	if x != 3 || y != 10 {
		t.Errorf("Farey(0.3) = %d/%d, want 3/10", x, y)
	}
	alpha = math.Sqrt2 - 1
	x, y = Farey(alpha, FareyN)
	if y > FareyN {
		t.Fatalf("denominator %d out of range", y)
	}
	if e := math.Abs(alpha - float64(x)/float64(y)); e > 1e-11 {
		t.Errorf("Farey(√2-1) = %d/%d, error %g", x, y, e)
	}
}
