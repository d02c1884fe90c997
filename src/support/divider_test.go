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

import "testing"

func Test_pack(t *testing.T) {
	tests := []struct {
		name string
		d    Divider
		want [8]byte
	}{
		{"pll feedback x32", IntegerDivider(32), [8]byte{0x00, 0x01, 0x00, 0x0E, 0x00, 0x00, 0x00, 0x00}},
		{"integer 8", IntegerDivider(8), [8]byte{0x00, 0x01, 0x00, 0x02, 0x00, 0x00, 0x00, 0x00}},
		{"8 + 3/10", Divider{8, 3, 10}, [8]byte{0x00, 0x0A, 0x00, 0x02, 0x26, 0x00, 0x00, 0x04}},
		{"full width denominator", Divider{100, 500000, FareyN}, [8]byte{0xFF, 0xFF, 0x00, 0x30, 0x3D, 0xF0, 0x90, 0x3D}},
		{"high p1 bits", IntegerDivider(2048), [8]byte{0x00, 0x01, 0x03, 0xFE, 0x00, 0x00, 0x00, 0x00}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.d.Pack()
			if got != tt.want {
				t.Errorf("%v.Pack() = % x, want % x", tt.d, got, tt.want)
			}
		})
	}
}

func Test_pack_roundtrip(t *testing.T) {
	as := []uint32{4, 5, 8, 15, 90, 100, 900, 2047, 2048}
	cs := []uint32{1, 2, 3, 10, 127, 128, 129, 4095, 4096, 65535, 65536, 999983, FareyN}
	n := 0
	for _, a := range as {
		for _, c := range cs {
			for _, b := range []uint32{0, 1, c / 3, c / 2, c - 1} {
				if b >= c && !(b == 0 && c == 1) {
					continue
				}
				d := Divider{a, b, c}
				got := Unpack(d.Pack())
				if got != d {
					t.Errorf("Unpack(%v.Pack()) = %v", d, got)
				}
				n++
			}
		}
	}
	if n == 0 {
		t.Fatal("no dividers tested")
	}
}

func Test_params_ranges(t *testing.T) {
	for _, d := range []Divider{{8, 1, 3}, {2047, FareyN - 1, FareyN}, {4, 0, 1}, {12, 77, 1000}} {
		p1, p2, p3 := d.Params()
		if p1 >= 1<<18 {
			t.Errorf("%v: p1 = %d does not fit 18 bits", d, p1)
		}
		if p2 >= 1<<20 || p2 >= p3 && p3 > 1 {
			t.Errorf("%v: p2 = %d out of range", d, p2)
		}
		if p3 != d.C {
			t.Errorf("%v: p3 = %d, want %d", d, p3, d.C)
		}
	}
}

func Test_divider_string(t *testing.T) {
	if s := IntegerDivider(8).String(); s != "8" {
		t.Errorf("got %q", s)
	}
	if s := (Divider{8, 3, 10}).String(); s != "8+3/10" {
		t.Errorf("got %q", s)
	}
	if !IntegerDivider(36).IsInteger() || (Divider{8, 3, 10}).IsInteger() {
		t.Errorf("IsInteger is wrong")
	}
	if v := (Divider{8, 1, 4}).Value(); v != 8.25 {
		t.Errorf("Value() = %v", v)
	}
}
