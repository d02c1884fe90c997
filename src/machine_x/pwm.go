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

//go:build rp2040

// Package machine_x fills in the parts of the rp2040 PWM block that the
// machine package does not expose: edge counting mode, raw counter reads
// and starting several slices on the same clock cycle.
package machine_x

import (
	"device/rp"
	"runtime/volatile"
	"unsafe"
)

// Slice bits for SetEN_CH.
const (
	PWM_CH0 uint32 = 1 << iota
	PWM_CH1
	PWM_CH2
	PWM_CH3
	PWM_CH4
	PWM_CH5
	PWM_CH6
	PWM_CH7
)

// PWMGroup overlays the five registers of one PWM slice.
type PWMGroup struct {
	CSR volatile.Register32
	DIV volatile.Register32
	CTR volatile.Register32
	CC  volatile.Register32
	TOP volatile.Register32
}

var (
	PWM0 = slice(0)
	PWM1 = slice(1)
)

func slice(i uintptr) *PWMGroup {
	return (*PWMGroup)(unsafe.Add(unsafe.Pointer(rp.PWM), i*unsafe.Sizeof(PWMGroup{})))
}

// SetDivMode picks what advances the counter, e.g.
// rp.PWM_CH0_CSR_DIVMODE_RISE to count rising edges on the B pin.
func (p *PWMGroup) SetDivMode(mode uint32) {
	p.CSR.ReplaceBits(mode, rp.PWM_CH0_CSR_DIVMODE_Msk>>rp.PWM_CH0_CSR_DIVMODE_Pos, rp.PWM_CH0_CSR_DIVMODE_Pos)
}

// SetClockDiv sets the 8.4 fractional prescaler.
func (p *PWMGroup) SetClockDiv(integer uint8, frac uint8) {
	p.DIV.Set(uint32(integer)<<rp.PWM_CH0_DIV_INT_Pos | uint32(frac&0xf))
}

// SetTop makes the counter wrap after cycle counts, i.e. run 0..cycle-1.
func (p *PWMGroup) SetTop(cycle uint32) {
	p.TOP.Set(u32max(cycle, 1) - 1)
}

// Set the compare level of channel 0 (A) or 1 (B).
func (p *PWMGroup) Set(channel uint8, level uint32) {
	shift := 16 * uint8(boolToBit(channel != 0))
	p.CC.ReplaceBits(level, 0xffff, shift)
}

// Counter reads the current count.
func (p *PWMGroup) Counter() uint32 {
	return p.CTR.Get() & 0xffff
}

// Reset zeroes the count.
func (p *PWMGroup) Reset() {
	p.CTR.Set(0)
}

// SetEN_CH enables (on=1) or disables (on=0) all slices in mask with a
// single store so that enabled slices start counting together.
func SetEN_CH(mask uint32, on uint32) {
	if on != 0 {
		rp.PWM.EN.SetBits(mask)
	} else {
		rp.PWM.EN.ClearBits(mask)
	}
}

//go:inline
func boolToBit(a bool) uint32 {
	if a {
		return 1
	}
	return 0
}

//go:inline
func u32max(a, b uint32) uint32 {
	if a > b {
		return a
	}
	return b
}
