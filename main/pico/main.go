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

// Firmware that runs CLK0 at 10MHz and trims the crystal correction against
// a GPS pulse per second on GPIO10. CLK0 goes to GPIO1 and GPIO0 is jumpered
// to GPIO3.
package main

import (
	"fmt"
	"machine"
	"time"

	probe "github.com/chiefMarlin/tinygo-drivers/si5351"

	"clockgen/src/pico"
	"clockgen/src/si5351"
	"clockgen/src/support"
)

const (
	ppsPin    = machine.Pin(10)
	commanded = 10_000_000
	gate      = 10 * time.Second
)

func main() {
	// Sleep to catch prints.
	time.Sleep(2 * time.Second)

	if err := machine.I2C0.Configure(machine.I2CConfig{}); err != nil {
		panic("Failed to configure I2C0")
	}
	connected, err := probe.New(machine.I2C0).Connected()
	if err != nil {
		panic("Unable to read device status")
	}
	if !connected {
		panic("Unable to connect to SI5351 device")
	}

	g := si5351.New(si5351.NewTxBus(machine.I2C0, uint16(si5351.DefaultAddress)))
	check(g.Begin())
	check(g.ConfigurePLL(si5351.PLLA, 32))
	check(g.ConfigureChannel(si5351.CLK0, si5351.ChannelConfig{
		Input: si5351.InputMultiSynth,
		Drive: si5351.Drive8mA,
	}.Byte()))
	check(g.SetFrequency(si5351.CLK0, commanded))
	check(g.EnableChannel(si5351.CLK0))
	fmt.Printf("CLK0 at %dHz from %s\n", commanded, g.State().PLLFrequency(si5351.PLLA))

	counter, err := pico.Start(ppsPin)
	if err != nil {
		panic("failed setup: " + err.Error())
	}

	timeout := time.NewTicker(2 * time.Second)
	missedSamples := 0
	ppm := 0
	window := support.Gate{Wrap: pico.CountWrap}
	for {
		select {
		case <-timeout.C:
			if missedSamples > 1 {
				fmt.Printf("no reference pulse %d, pin=%t\n", missedSamples, ppsPin.Get())
			}
			missedSamples++
		case s := <-counter.Samples():
			missedSamples = 0
			window.Add(s.Count, s.Pulses)
			if window.Length(time.Second) < gate {
				continue
			}
			f := window.Rate(time.Second)
			residual := support.PPM(commanded, f)
			fmt.Printf("f = %.3f, residual %+dppm, dropped %d\n", f, residual, counter.Dropped.Get())
			window.Reset()
			if residual == 0 {
				continue
			}
			ppm += residual
			g.SetCrystalFrequencyPPM(si5351.DefaultCrystal, ppm)
			check(g.SetFrequency(si5351.CLK0, commanded))
			fmt.Printf("crystal correction %+dppm, crystal %dHz\n", ppm, g.State().Crystal)
		}
	}
}

func check(err error) {
	if err != nil {
		panic(err.Error())
	}
}
