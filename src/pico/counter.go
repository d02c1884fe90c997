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

/*
Package pico measures an Si5351 output against a pulse per second reference
so that the crystal correction can be set from a GPS receiver.

There are a few gotchas in doing this on the rp2040:

- the PWM block can count edges on an input pin but has no way to gate the
count with an external reference.

- the PWM counter is only 16 bits long. Counting a 10MHz signal for one
second wraps it more than 150 times, far too often to keep track of in
software.

- reading a counter with the CPU happens at some poorly defined time after
the reference edge.

To deal with these issues we do the following:

- PWM0 counts rising edges of the signal under test on GPIO1 and wraps every
50,000 counts. Its A output on GPIO0 pulses once per wrap.

- GPIO0 is wired to GPIO3 so that PWM1 counts the wraps of PWM0. Both slices
are started together. The pair forms a counter that wraps every 2.5e9 counts,
250 seconds at 10MHz.

- the counters are read B1, A1, B2, A2 in the pin interrupt of the reference
edge and combined with support.ReduceObservation, which sorts out a wrap of
PWM0 between the reads.

- a PIO state machine pushes a word on every reference edge. The interrupt
drains the FIFO, so each sample knows how many reference periods passed even
if an interrupt was missed. Interrupt latency is the same on every edge and
cancels out of a multi-second gate.
*/
package pico

import (
	"device/rp"
	"machine"
	"runtime/volatile"

	pio "github.com/tinygo-org/pio/rp2-pio"

	"clockgen/src/machine_x"
	"clockgen/src/support"
)

const (
	fastCycle = 50_000
	slowCycle = 50_000

	// CountWrap is where Sample.Count wraps.
	CountWrap = fastCycle * slowCycle
)

// Sample is one reading of the counters on a reference edge.
type Sample struct {
	T              uint64 // µs since powerup
	Count          uint64 // cycles, modulo CountWrap
	Pulses         int    // reference edges since the previous sample
	B1, A1, B2, A2 uint32 // raw counter reads
}

// Counter delivers one Sample per reference pulse.
type Counter struct {
	sm      pio.StateMachine
	samples chan Sample
	pending int

	// Dropped counts samples the reader was too slow for.
	Dropped volatile.Register32
}

// Start sets up the counters and the reference input on pps.
func Start(pps machine.Pin) (*Counter, error) {
	setupFrequencyCounters()

	c := &Counter{samples: make(chan Sample, 2)}
	if err := c.setupPPS(pps); err != nil {
		return nil, err
	}
	if err := pps.SetInterrupt(machine.PinRising, c.interrupt); err != nil {
		return nil, err
	}
	return c, nil
}

// Samples is the stream of readings.
func (c *Counter) Samples() <-chan Sample {
	return c.samples
}

func (c *Counter) setupPPS(pps machine.Pin) error {
	pps.Configure(machine.PinConfig{Mode: machine.PinInputPulldown})

	sm, err := pio.PIO0.ClaimStateMachine()
	if err != nil {
		return err
	}
	program := make([]uint16, len(ppsInstructions))
	for i, op := range ppsInstructions {
		if i < 2 {
			// wait gpio takes the absolute pin number
			op |= uint16(pps) & 0x1f
		}
		program[i] = op
	}
	offset, err := sm.PIO().AddProgram(program, ppsOrigin)
	if err != nil {
		return err
	}
	sm.Init(offset, ppsProgramDefaultConfig(offset))
	sm.ClearFIFOs()
	sm.SetEnabled(true)
	c.sm = sm
	return nil
}

func (c *Counter) interrupt(machine.Pin) {
	s := collectSample(DirectSampler{})
	for !c.sm.IsRxFIFOEmpty() {
		c.sm.RxGet()
		c.pending++
	}
	s.Pulses = c.pending
	select {
	case c.samples <- s:
		c.pending = 0
	default:
		c.Dropped.Set(c.Dropped.Get() + 1)
	}
}

type Sampler interface {
	Collect() Sample
}

// DirectSampler reads the counters with the CPU. The four reads take well
// under a microsecond unless an interrupt gets in between.
type DirectSampler struct{}

func (d DirectSampler) Collect() Sample {
	t := MicroTime()
	b1, a1, b2, a2 := SlowCount(), CurrentCount(), SlowCount(), CurrentCount()
	return Sample{
		T:  t,
		B1: b1,
		A1: a1,
		B2: b2,
		A2: a2,
	}
}

// collectSample combines the slow (B) and fast (A) counters. B can advance
// between any two reads, so both are read twice and ReduceObservation picks
// the consistent pair.
func collectSample(s Sampler) Sample {
	r := s.Collect()
	r.Count = support.ReduceObservation(fastCycle, r.B1, r.A1, r.B2, r.A2)
	return r
}

func setupFrequencyCounters() {
	machine_x.SetEN_CH(machine_x.PWM_CH0|machine_x.PWM_CH1, 0)

	// PWM0 counts the signal on GPIO1 and pulses GPIO0 once per wrap
	pwm0 := machine_x.PWM0
	machine.Pin(0).Configure(machine.PinConfig{Mode: machine.PinPWM})
	machine.Pin(1).Configure(machine.PinConfig{Mode: machine.PinPWM})
	pwm0.SetDivMode(rp.PWM_CH0_CSR_DIVMODE_RISE)
	pwm0.SetClockDiv(1, 0)
	pwm0.SetTop(fastCycle)
	pwm0.Set(0, 500)
	pwm0.Reset()

	// PWM1 counts those pulses on GPIO3
	pwm1 := machine_x.PWM1
	machine.Pin(3).Configure(machine.PinConfig{Mode: machine.PinPWM})
	pwm1.SetDivMode(rp.PWM_CH0_CSR_DIVMODE_RISE)
	pwm1.SetClockDiv(1, 0)
	pwm1.SetTop(slowCycle)
	pwm1.Reset()

	machine_x.SetEN_CH(machine_x.PWM_CH0|machine_x.PWM_CH1, 1)
}

func CurrentCount() uint32 {
	return machine_x.PWM0.Counter()
}

func SlowCount() uint32 {
	return machine_x.PWM1.Counter()
}

// MicroTime is the 64 bit microsecond timer.
func MicroTime() uint64 {
	tx := rp.TIMER
	th1, tl1, th2, tl2 := tx.TIMERAWH.Get(), tx.TIMERAWL.Get(), tx.TIMERAWH.Get(), tx.TIMERAWL.Get()
	return support.ReduceObservation(1<<32, th1, tl1, th2, tl2)
}
