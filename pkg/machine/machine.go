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
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/lassandro/gorv32i/pkg/decoder"
)

func New(cfg Config) *Machine {
	size := cfg.MemorySize
	if size == 0 {
		size = DefaultMemorySize
	}

	return &Machine{
		Memory: NewMemory(size),
		PC:     cfg.Entry,
		Log:    logrus.StandardLogger(),
		entry:  cfg.Entry,
	}
}

// Reset clears the registers and halt state and rewinds the program counter
// to the configured entry point. Memory is left as is so a loaded image can
// be run again.
func (mc *Machine) Reset() {
	mc.Registers = Registers{}
	mc.PC = mc.entry
	mc.cycles = 0
	mc.reason = HaltNone
	mc.err = nil
	mc.jumped = false

	// Abandon any instruction still in flight
	mc.aborted = true
}

func (mc *Machine) Halted() bool {
	return mc.reason != HaltNone
}

func (mc *Machine) Reason() HaltReason {
	return mc.reason
}

// Err returns the fault that halted the machine, if any.
func (mc *Machine) Err() error {
	return mc.err
}

// Cycles returns the number of instructions executed since the last Reset.
func (mc *Machine) Cycles() uint64 {
	return mc.cycles
}

// Stop halts the machine between cycles. Observers call it from Step.
func (mc *Machine) Stop() {
	if !mc.Halted() {
		mc.halt(HaltStopped)
	}
}

func (mc *Machine) hex(v uint32) string {
	return fmt.Sprintf("%#08x", v)
}

func (mc *Machine) halt(reason HaltReason) {
	mc.reason = reason

	mc.Log.WithFields(logrus.Fields{
		"pc":     mc.hex(mc.PC),
		"reason": reason,
		"cycles": mc.cycles,
	}).Debug("machine halted")
}

func (mc *Machine) fault(err error) error {
	mc.reason = HaltFault
	mc.err = err

	mc.Log.WithFields(logrus.Fields{
		"pc":     mc.hex(mc.PC),
		"cycles": mc.cycles,
		"fault":  err,
	}).Debug("machine faulted")

	return err
}

// SetPC moves the program counter. From an observer hook the new pc replaces
// the fall-through address of the instruction in flight.
func (mc *Machine) SetPC(addr uint32) {
	mc.jump(addr)
}

func (mc *Machine) jump(target uint32) {
	mc.PC = target
	mc.jumped = true
}

func (mc *Machine) load(addr, width uint32) (uint32, error) {
	value, err := mc.Memory.Read(addr, width)

	if err != nil {
		return 0, &FaultError{
			Kind:   AddressFault,
			PC:     mc.PC,
			Access: AccessLoad,
			Addr:   addr,
			Width:  width,
			Err:    err,
		}
	}

	if mc.Observer != nil {
		mc.Observer.Read(mc, addr, width)

		if mc.aborted {
			return 0, errAborted
		}
	}

	return value, nil
}

func (mc *Machine) store(addr, width, value uint32) error {
	if err := mc.Memory.Write(addr, width, value); err != nil {
		return &FaultError{
			Kind:   AddressFault,
			PC:     mc.PC,
			Access: AccessStore,
			Addr:   addr,
			Width:  width,
			Err:    err,
		}
	}

	if mc.Observer != nil {
		mc.Observer.Write(mc, addr, width)

		if mc.aborted {
			return errAborted
		}
	}

	return nil
}

// Step runs one fetch, decode, execute cycle. It returns the fault if the
// cycle faulted, ErrHalted if the machine had already halted, and nil
// otherwise, including when the cycle itself halted the machine.
func (mc *Machine) Step() error {
	if mc.Halted() {
		return ErrHalted
	}

	pc := mc.PC
	word, err := mc.Memory.Read(pc, InstructionSize)

	if err != nil {
		return mc.fault(&FaultError{
			Kind:   AddressFault,
			PC:     pc,
			Access: AccessFetch,
			Addr:   pc,
			Width:  InstructionSize,
			Err:    err,
		})
	}

	// Unwritten memory reads as zero, which is never a valid instruction
	if word == 0 {
		mc.halt(HaltImplicitEnd)
		return nil
	}

	inst := decoder.Decode(word)
	mc.word = word
	mc.jumped = false

	mc.Log.WithFields(logrus.Fields{
		"pc":    mc.hex(pc),
		"word":  mc.hex(word),
		"cycle": mc.cycles,
	}).Debug("cpu step")

	outcome, err := mc.Execute(inst)
	mc.word = 0

	// An observer reset the machine during a memory access
	if mc.aborted {
		mc.aborted = false
		return nil
	}

	switch outcome {
	case Fault:
		return mc.fault(err)
	case Continue:
		// An observer may also have moved pc during a memory access
		if !mc.jumped && mc.PC == pc {
			mc.PC += InstructionSize
		}
	}

	mc.cycles++

	if mc.Observer != nil {
		mc.Observer.Step(mc, Cycle{
			PC:        pc,
			Word:      word,
			Inst:      inst,
			Registers: mc.Registers,
			Count:     mc.cycles,
		})
	}

	return nil
}

// Run steps the machine until it halts. A clean halt returns nil.
func (mc *Machine) Run() error {
	for !mc.Halted() {
		if err := mc.Step(); err != nil {
			return err
		}
	}

	return mc.err
}

// RunFor is Run bounded to max cycles; it returns ErrCycleLimit if the
// machine is still running afterwards.
func (mc *Machine) RunFor(max uint64) error {
	for i := uint64(0); i < max && !mc.Halted(); i++ {
		if err := mc.Step(); err != nil {
			return err
		}
	}

	if !mc.Halted() {
		return ErrCycleLimit
	}

	return mc.err
}
