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

package si5351

import (
	"fmt"

	"periph.io/x/conn/v3/i2c"
	"tinygo.org/x/drivers"
)

/*
RegisterBus moves bytes to and from numbered registers of one device. A block
write starts at reg and fills consecutive registers, which is how the chip
takes its 8 byte divider images.

Errors are whatever the transport reports; the driver passes them up and
does not retry.
*/
type RegisterBus interface {
	WriteRegister(reg uint8, value uint8) error
	WriteBlock(reg uint8, values []byte) error
	ReadRegister(reg uint8) (uint8, error)
}

// I2CBus is a RegisterBus on a periph.io I²C bus.
type I2CBus struct {
	d i2c.Dev
}

// NewI2CBus talks to the device at addr on b.
func NewI2CBus(b i2c.Bus, addr i2c.Addr) *I2CBus {
	return &I2CBus{d: i2c.Dev{Bus: b, Addr: uint16(addr)}}
}

func (b *I2CBus) WriteRegister(reg uint8, value uint8) error {
	return b.d.Tx([]byte{reg, value}, nil)
}

func (b *I2CBus) WriteBlock(reg uint8, values []byte) error {
	return b.d.Tx(append([]byte{reg}, values...), nil)
}

func (b *I2CBus) ReadRegister(reg uint8) (uint8, error) {
	var r [1]byte
	err := b.d.Tx([]byte{reg}, r[:])
	return r[0], err
}

func (b *I2CBus) String() string {
	return b.d.String()
}

// Txer is the single transaction primitive shared by TinyGo's machine.I2C,
// drivers.I2C and periph's i2c.Bus.
type Txer interface {
	Tx(addr uint16, w, r []byte) error
}

var _ Txer = drivers.I2C(nil)

// TxBus is a RegisterBus on anything with a Tx method, typically
// machine.I2C0 on a microcontroller.
type TxBus struct {
	bus  Txer
	addr uint16
}

func NewTxBus(bus Txer, addr uint16) *TxBus {
	return &TxBus{bus: bus, addr: addr}
}

func (b *TxBus) WriteRegister(reg uint8, value uint8) error {
	return b.bus.Tx(b.addr, []byte{reg, value}, nil)
}

func (b *TxBus) WriteBlock(reg uint8, values []byte) error {
	return b.bus.Tx(b.addr, append([]byte{reg}, values...), nil)
}

func (b *TxBus) ReadRegister(reg uint8) (uint8, error) {
	var r [1]byte
	err := b.bus.Tx(b.addr, []byte{reg}, r[:])
	return r[0], err
}

// Write is one write transaction seen by a MemoryBus.
type Write struct {
	Reg    uint8
	Values []byte
}

func (w Write) String() string {
	return fmt.Sprintf("%d <- % x", w.Reg, w.Values)
}

// MemoryBus is a register file in memory. It stands in for the chip in dry
// runs and tests and keeps a log of every write and read.
type MemoryBus struct {
	Regs  [256]byte
	Log   []Write
	Reads []uint8
}

func (m *MemoryBus) WriteRegister(reg uint8, value uint8) error {
	return m.WriteBlock(reg, []byte{value})
}

func (m *MemoryBus) WriteBlock(reg uint8, values []byte) error {
	if int(reg)+len(values) > len(m.Regs) {
		return fmt.Errorf("memory bus: block of %d at %d runs past the last register", len(values), reg)
	}
	copy(m.Regs[reg:], values)
	m.Log = append(m.Log, Write{Reg: reg, Values: append([]byte(nil), values...)})
	return nil
}

func (m *MemoryBus) ReadRegister(reg uint8) (uint8, error) {
	m.Reads = append(m.Reads, reg)
	return m.Regs[reg], nil
}

// Block returns n registers starting at reg.
func (m *MemoryBus) Block(reg uint8, n int) []byte {
	return append([]byte(nil), m.Regs[int(reg):int(reg)+n]...)
}
