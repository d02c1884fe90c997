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
	"math/big"
	"testing"
)

func Test_convergent(t *testing.T) {
	type args struct {
		a, b, maxDenominator uint64
	}
	tests := []struct {
		name  string
		args  args
		wantC uint64
		wantD uint64
	}{
		{
			name:  "integer",
			args:  args{a: 10, b: 1, maxDenominator: 100},
			wantC: 10,
			wantD: 1,
		},
		{
			name:  "zero",
			args:  args{a: 0, b: 1, maxDenominator: 100},
			wantC: 0,
			wantD: 1,
		},
		{
			name:  "exact division",
			args:  args{a: 63, b: 9, maxDenominator: 10},
			wantC: 7,
			wantD: 1,
		},
		{
			name:  "exact answer",
			args:  args{a: 23, b: 5, maxDenominator: 10},
			wantC: 23,
			wantD: 5,
		},
		{
			name:  "limited depth",
			args:  args{a: 2300, b: 500, maxDenominator: 7},
			wantC: 23,
			wantD: 5,
		},
		{
			name:  "less limited depth",
			args:  args{a: 2301, b: 500, maxDenominator: 97},
			wantC: 23,
			wantD: 5,
		},
		{
			name:  "almost unlimited depth",
			args:  args{a: 451, b: 98, maxDenominator: 99},
			wantC: 451,
			wantD: 98,
		},
		{
			name:  "remainder of a multisynth ratio",
			args:  args{a: 3, b: 10, maxDenominator: FareyN},
			wantC: 3,
			wantD: 10,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gotC, gotD := convergent(tt.args.a, tt.args.b, tt.args.maxDenominator)
			if gotC != tt.wantC {
				t.Errorf("convergent() gotC = %v, want %v", gotC, tt.wantC)
			}
			if gotD != tt.wantD {
				t.Errorf("convergent() gotD = %v, want %v", gotD, tt.wantD)
			}
		})
	}
}

func Test_limit(t *testing.T) {
	maxD := [][]uint64{
		{5, 3, 1},
		{7, 22, 7},
		{10, 22, 7},
		{105, 22, 7},
		{106, 333, 106},
		{110, 333, 106},
		{113, 355, 113},
		{1000, 355, 113},
		{10000, 355, 113},
		{33000, 355, 113},
		{33102, 103993, 33102},
		{33200, 103993, 33102},
		{33215, 104348, 33215},
		{50000, 104348, 33215},
		{100_000, 312689, 99532},
	}
	last := big.NewRat(10, 1)
	for i := 0; i < len(maxD); i++ {
		a, b := convergent(314159265358, 100_000_000_000, maxD[i][0])
		// float residuals are too coarse here, so compare exact rationals
		eps := new(big.Rat).Sub(big.NewRat(int64(a), int64(b)), big.NewRat(314159265358, 100_000_000_000))
		eps.Abs(eps)
		if eps.Cmp(last) > 0 {
			t.Errorf("at %d, error increased from %s to %s", maxD[i][0], last.FloatString(10), eps.FloatString(10))
		}
		last.Set(eps)

		if a != maxD[i][1] || b != maxD[i][2] {
			t.Errorf("%d => %d, %d, but wanted %v", maxD[i][0], a, b, maxD[i][1:])
		}
	}
}

func Test_nearest_fraction_band_frequencies(t *testing.T) {
	fTable := []float64{144_490_000.0, 28_125_000.0}
	df := 1.4648
	top := 900e6

	for j := 0; j < len(fTable); j++ {
		for i := 0; i < 4; i++ {
			f := fTable[j] + float64(i)*df
			r := top / f
			b, c, _ := NearestFraction(uint64(math.Round(r*140e9)), uint64(140e9), FareyN)
			f1 := top * float64(c) / float64(b)
			if math.Abs(f1-f) > 1e-3 {
				t.Errorf("excessive error: Δf = %.3f", f1-f)
			}
		}
	}
}

func Test_nearest_fraction(t *testing.T) {
	type args struct {
		a              uint64
		b              uint64
		maxDenominator uint64
	}
	tests := []struct {
		name    string
		args    args
		wantC   uint64
		wantD   uint64
		wantEps float64
	}{
		{"exact division", args{a: 3879 * 1712, b: 1712, maxDenominator: 20}, 3879, 1, 0},
		{"famous pi", args{a: uint64(math.Round(math.Pi * 3879)), b: 3879, maxDenominator: 100}, 311, 99, math.Round(math.Pi*3879)/3879 - 311.0/99.0},
		{"semiconvergent beats convergent", args{a: 1, b: 6, maxDenominator: 5}, 1, 5, 1.0/6.0 - 1.0/5.0},
		{"famous pi, larger", args{a: uint64(math.Round(math.Pi * 3879)), b: 3879, maxDenominator: 110}, 333, 106, math.Round(math.Pi*3879)/3879 - 333.0/106.0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gotC, gotD, gotEps := NearestFraction(tt.args.a, tt.args.b, tt.args.maxDenominator)
			if gotC != tt.wantC {
				t.Errorf("NearestFraction() gotC = %v, want %v", gotC, tt.wantC)
			}
			if gotD != tt.wantD {
				t.Errorf("NearestFraction() gotD = %v, want %v", gotD, tt.wantD)
			}
			if gotEps != tt.wantEps {
				t.Errorf("NearestFraction() gotEps = %v, want %v", gotEps, tt.wantEps)
			}
		})
	}
}

func Test_nearest_fraction_exhaustive(t *testing.T) {
	for b := uint64(1); b < 40; b++ {
		for a := uint64(0); a < 3*b; a++ {
			for maxD := uint64(1); maxD < 12; maxD++ {
				c, d, _ := NearestFraction(a, b, maxD)
				if d == 0 || d > maxD {
					t.Fatalf("%d/%d, max %d: denominator %d", a, b, maxD, d)
				}
				// |a/b - c/d| scaled by b*d*q
				err := absDiff(a*d, c*b)
				for q := uint64(1); q <= maxD; q++ {
					p := (a*q + b/2) / b
					if absDiff(a*q, p*b)*d < err*q {
						t.Errorf("%d/%d, max %d: got %d/%d but %d/%d is closer", a, b, maxD, c, d, p, q)
					}
				}
			}
		}
	}
}
