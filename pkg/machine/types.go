// Copyright (C) 2021  Antonio Lassandro

// This program is free software: you can redistribute it and/or modify it
// under the terms of the GNU General Public License as published by the Free
// Software Foundation, either version 3 of the License, or (at your option)
// any later version.

// This program is distributed in the hope that it will be useful, but WITHOUT
// ANY WARRANTY; without even the implied warranty of MERCHANTABILITY or
// FITNESS FOR A PARTICULAR PURPOSE.  See the GNU General Public License for
// more details.

// You should have received a copy of the GNU General Public License along
// with this program.  If not, see <http://www.gnu.org/licenses/>.

package machine

import (
	"github.com/sirupsen/logrus"

	"github.com/lassandro/gorv32i/pkg/decoder"
)

type Config struct {
	// Zero selects DefaultMemorySize
	MemorySize uint32
	Entry      uint32
}

// Cycle describes one executed instruction, as seen after it retired.
type Cycle struct {
	PC        uint32
	Word      uint32
	Inst      decoder.Instruction
	Registers Registers
	Count     uint64
}

// MachineObserver is notified after every executed instruction and on every
// data load or store. Instruction fetches are not reported to Read. Read and
// Write run before the instruction retires: SetPC there replaces the next pc,
// and Reset abandons the instruction.
type MachineObserver interface {
	Step(mc *Machine, cycle Cycle)
	Read(mc *Machine, addr, width uint32)
	Write(mc *Machine, addr, width uint32)
}

type Machine struct {
	Memory    *Memory
	Registers Registers
	PC        uint32

	Observer MachineObserver
	Log      logrus.FieldLogger

	entry  uint32
	cycles uint64
	reason HaltReason
	err    error

	// State of the instruction in flight
	word    uint32
	jumped  bool
	aborted bool
}
