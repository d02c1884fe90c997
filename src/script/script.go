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

/*
Package script drives a Generator from a small line oriented command
language, one command per line:

	begin
	xtal 25000000 -3
	pll A 32
	clk 0 src=A drive=8 input=ms
	freq 0 14.0971MHz
	enable 0

Lines are split like a shell would split them and # starts a comment.
Frequencies are plain Hz or carry a unit (10MHz, 455kHz).
*/
package script

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/google/shlex"
	"periph.io/x/conn/v3/physic"

	"clockgen/src/si5351"
	"clockgen/src/support"
)

var ErrUsage = errors.New("script: usage")

// Interpreter runs commands against one Generator and reports to Out.
type Interpreter struct {
	G   *si5351.Generator
	Out io.Writer
}

type command struct {
	usage string
	args  int // minimum number of arguments
	run   func(in *Interpreter, args []string) error
}

var commands map[string]command

func init() {
	commands = map[string]command{
		"begin":     {"begin", 0, (*Interpreter).begin},
		"xtal":      {"xtal <frequency> [ppm]", 1, (*Interpreter).xtal},
		"calibrate": {"calibrate <crystal> <commanded> <measured>", 3, (*Interpreter).calibrate},
		"pll":       {"pll <A|B> <multiplier>", 2, (*Interpreter).pll},
		"clk":       {"clk <channel> <config-byte | key=value...>", 2, (*Interpreter).clk},
		"enable":    {"enable <channel>", 1, (*Interpreter).enable},
		"disable":   {"disable <channel>", 1, (*Interpreter).disable},
		"phase":     {"phase <channel> <0..127>", 2, (*Interpreter).phase},
		"freq":      {"freq <channel> <frequency>", 2, (*Interpreter).freq},
		"divider":   {"divider <channel> <frequency>", 2, (*Interpreter).divider},
		"plan":      {"plan <channel> <frequency>", 2, (*Interpreter).plan},
		"status":    {"status", 0, (*Interpreter).status},
	}
}

// Run executes every line of r and stops at the first failure.
func (in *Interpreter) Run(r io.Reader) error {
	scanner := bufio.NewScanner(r)
	for n := 1; scanner.Scan(); n++ {
		if err := in.Exec(scanner.Text()); err != nil {
			return fmt.Errorf("line %d: %w", n, err)
		}
	}
	return scanner.Err()
}

// Exec runs a single line. Blank lines and comments do nothing.
func (in *Interpreter) Exec(line string) error {
	words, err := shlex.Split(line)
	if err != nil {
		return err
	}
	if len(words) == 0 {
		return nil
	}
	cmd, ok := commands[strings.ToLower(words[0])]
	if !ok {
		return fmt.Errorf("script: unknown command %q", words[0])
	}
	if len(words)-1 < cmd.args {
		return fmt.Errorf("%w: %s", ErrUsage, cmd.usage)
	}
	return cmd.run(in, words[1:])
}

func (in *Interpreter) printf(format string, args ...interface{}) {
	if in.Out != nil {
		fmt.Fprintf(in.Out, format, args...)
	}
}

func (in *Interpreter) begin(args []string) error {
	return in.G.Begin()
}

func (in *Interpreter) xtal(args []string) error {
	hz, err := parseCrystal(args[0])
	if err != nil {
		return err
	}
	ppm := 0
	if len(args) > 1 {
		if ppm, err = strconv.Atoi(args[1]); err != nil {
			return fmt.Errorf("script: ppm: %w", err)
		}
	}
	in.G.SetCrystalFrequencyPPM(hz, ppm)
	return nil
}

func parseCrystal(s string) (uint32, error) {
	hz, err := parseHz(s)
	if err != nil {
		return 0, err
	}
	if hz == 0 {
		return 0, fmt.Errorf("script: crystal frequency must be positive")
	}
	return hz, nil
}

func (in *Interpreter) calibrate(args []string) error {
	crystal, err := parseCrystal(args[0])
	if err != nil {
		return err
	}
	commanded, err := ParseFrequency(args[1])
	if err != nil {
		return err
	}
	measured, err := ParseFrequency(args[2])
	if err != nil {
		return err
	}
	if commanded == 0 {
		return fmt.Errorf("script: commanded frequency must be positive")
	}
	ppm := support.PPM(float64(commanded), float64(measured))
	in.G.SetCrystalFrequencyPPM(crystal, ppm)
	in.printf("crystal %dHz %+dppm = %dHz\n", crystal, ppm, in.G.State().Crystal)
	return nil
}

func (in *Interpreter) pll(args []string) error {
	p, err := si5351.ParsePLL(args[0])
	if err != nil {
		return err
	}
	m, err := strconv.ParseUint(args[1], 0, 8)
	if err != nil {
		return fmt.Errorf("script: multiplier: %w", err)
	}
	return in.G.ConfigurePLL(p, uint8(m))
}

func (in *Interpreter) clk(args []string) error {
	ch, err := parseChannel(args[0])
	if err != nil {
		return err
	}
	if b, err := strconv.ParseUint(args[1], 0, 8); err == nil {
		return in.G.ConfigureChannel(ch, uint8(b))
	}
	c, err := parseChannelConfig(args[1:])
	if err != nil {
		return err
	}
	return in.G.ConfigureChannel(ch, c.Byte())
}

// parseChannelConfig reads src=A|B drive=2|4|6|8 input=xtal|clkin|ms and the
// flags pdn, int and inv. Unset keys default to a MultiSynth input at 8mA.
func parseChannelConfig(words []string) (si5351.ChannelConfig, error) {
	c := si5351.ChannelConfig{Input: si5351.InputMultiSynth, Drive: si5351.Drive8mA}
	for _, w := range words {
		key, value, _ := strings.Cut(strings.ToLower(w), "=")
		switch key {
		case "pdn":
			c.PowerDown = true
		case "int":
			c.IntegerMode = true
		case "inv":
			c.Invert = true
		case "src":
			p, err := si5351.ParsePLL(value)
			if err != nil {
				return c, err
			}
			c.Source = p
		case "drive":
			switch value {
			case "2":
				c.Drive = si5351.Drive2mA
			case "4":
				c.Drive = si5351.Drive4mA
			case "6":
				c.Drive = si5351.Drive6mA
			case "8":
				c.Drive = si5351.Drive8mA
			default:
				return c, fmt.Errorf("script: drive must be 2, 4, 6 or 8 mA, got %q", value)
			}
		case "input":
			switch value {
			case "xtal":
				c.Input = si5351.InputXTAL
			case "clkin":
				c.Input = si5351.InputCLKIN
			case "ms":
				c.Input = si5351.InputMultiSynth
			default:
				return c, fmt.Errorf("script: input must be xtal, clkin or ms, got %q", value)
			}
		default:
			return c, fmt.Errorf("script: unknown channel setting %q", w)
		}
	}
	return c, nil
}

func (in *Interpreter) enable(args []string) error {
	ch, err := parseChannel(args[0])
	if err != nil {
		return err
	}
	return in.G.EnableChannel(ch)
}

func (in *Interpreter) disable(args []string) error {
	ch, err := parseChannel(args[0])
	if err != nil {
		return err
	}
	return in.G.DisableChannel(ch)
}

func (in *Interpreter) phase(args []string) error {
	ch, err := parseChannel(args[0])
	if err != nil {
		return err
	}
	p, err := strconv.ParseUint(args[1], 0, 8)
	if err != nil {
		return fmt.Errorf("script: phase: %w", err)
	}
	return in.G.SetPhase(ch, uint8(p))
}

func (in *Interpreter) channelFrequency(args []string) (si5351.Channel, uint32, error) {
	ch, err := parseChannel(args[0])
	if err != nil {
		return 0, 0, err
	}
	hz, err := parseHz(args[1])
	if err != nil {
		return 0, 0, err
	}
	return ch, hz, nil
}

func (in *Interpreter) freq(args []string) error {
	ch, hz, err := in.channelFrequency(args)
	if err != nil {
		return err
	}
	return in.G.SetFrequency(ch, hz)
}

func (in *Interpreter) divider(args []string) error {
	ch, hz, err := in.channelFrequency(args)
	if err != nil {
		return err
	}
	d, integer, err := in.G.ComputeDivider(ch, hz)
	if err != nil {
		return err
	}
	mode := "fractional"
	if integer {
		mode = "integer"
	}
	in.printf("%s %dHz: divider %s (%s) registers % x\n", ch, hz, d, mode, d.Pack())
	return nil
}

// plan picks a multiplier for the PLL that feeds the channel, programs that
// PLL and then the channel. Other channels on the same PLL move with it.
func (in *Interpreter) plan(args []string) error {
	ch, hz, err := in.channelFrequency(args)
	if err != nil {
		return err
	}
	st := in.G.State()
	if int(ch) >= len(st.Source) {
		return si5351.ErrInvalidChannel
	}
	p, err := support.NewPlan(st.Crystal, hz)
	if err != nil {
		return err
	}
	if err := in.G.ConfigurePLL(st.Source[ch], p.Multiplier); err != nil {
		return err
	}
	// report what the configured arithmetic programs, not the plan's own
	// estimate
	d, _, err := in.G.ComputeDivider(ch, hz)
	if err != nil {
		return err
	}
	p.Divider = d
	p.Frequency = float64(p.Crystal) * float64(p.Multiplier) / d.Value()
	p.Eps = float64(hz) - p.Frequency
	in.printf("%s: %s\n", ch, p)
	return in.G.SetFrequency(ch, hz)
}

func (in *Interpreter) status(args []string) error {
	st := in.G.State()
	in.printf("crystal %s\n", st.CrystalFrequency())
	for _, p := range []si5351.PLL{si5351.PLLA, si5351.PLLB} {
		in.printf("PLL %s x%d = %s\n", p, st.Multiplier(p), st.PLLFrequency(p))
	}
	for i, p := range st.Source {
		in.printf("%s from PLL %s\n", si5351.Channel(i), p)
	}
	return nil
}

func parseChannel(s string) (si5351.Channel, error) {
	s = strings.TrimPrefix(strings.ToUpper(s), "CLK")
	n, err := strconv.ParseUint(s, 10, 8)
	if err != nil || n > uint64(si5351.CLK2) {
		return 0, fmt.Errorf("%w: got %q", si5351.ErrInvalidChannel, s)
	}
	return si5351.Channel(n), nil
}

// ParseFrequency accepts a bare number of Hz ("14097100", "7040000.5") or a
// value with a unit ("14.0971MHz").
func ParseFrequency(s string) (physic.Frequency, error) {
	if strings.TrimSpace(s) == "" {
		return 0, fmt.Errorf("script: empty frequency")
	}
	if v, err := strconv.ParseFloat(s, 64); err == nil {
		if v < 0 {
			return 0, fmt.Errorf("script: negative frequency %q", s)
		}
		return physic.Frequency(math.Round(v * float64(physic.Hertz))), nil
	}
	var f physic.Frequency
	if err := f.Set(s); err != nil {
		return 0, fmt.Errorf("script: frequency %q: %w", s, err)
	}
	if f < 0 {
		return 0, fmt.Errorf("script: negative frequency %q", s)
	}
	return f, nil
}

// Hz rounds f to whole Hz. The chip's registers and the driver work in 32
// bit Hz, so anything above 4.29GHz is refused.
func Hz(f physic.Frequency) (uint32, error) {
	hz := (f + physic.Hertz/2) / physic.Hertz
	if f < 0 || hz > math.MaxUint32 {
		return 0, fmt.Errorf("script: %s is out of range", f)
	}
	return uint32(hz), nil
}

func parseHz(s string) (uint32, error) {
	f, err := ParseFrequency(s)
	if err != nil {
		return 0, err
	}
	return Hz(f)
}
