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
	"errors"
	"fmt"
)

var (
	ErrHalted        = errors.New("machine is halted")
	ErrCycleLimit    = errors.New("cycle limit reached")
	ErrImageTooLarge = errors.New("image exceeds memory capacity")

	errAborted = errors.New("instruction abandoned by reset")
)

type FaultKind uint8

const (
	AddressFault FaultKind = iota
	UnsupportedOpcode
	IllegalInstruction
)

func (k FaultKind) String() string {
	switch k {
	case AddressFault:
		return "address fault"
	case UnsupportedOpcode:
		return "unsupported opcode"
	case IllegalInstruction:
		return "illegal instruction"
	default:
		return "unknown fault"
	}
}

type AccessKind uint8

const (
	AccessFetch AccessKind = iota
	AccessLoad
	AccessStore
)

func (k AccessKind) String() string {
	switch k {
	case AccessFetch:
		return "fetch"
	case AccessLoad:
		return "load"
	case AccessStore:
		return "store"
	default:
		return "access"
	}
}

// AddressError is returned by Memory when an access does not fit.
type AddressError struct {
	Addr  uint32
	Width uint32
	Size  uint32
}

func (err *AddressError) Error() string {
	return fmt.Sprintf(
		"%d-byte access at %#08x outside memory of %#x bytes",
		err.Width,
		err.Addr,
		err.Size,
	)
}

// FaultError is the terminal error of a machine that stopped on a fault.
// Access, Addr and Width are only meaningful for AddressFault; Opcode and
// Word for the instruction faults.
type FaultError struct {
	Kind   FaultKind
	PC     uint32
	Access AccessKind
	Addr   uint32
	Width  uint32
	Opcode uint8
	// Zero for illegal instructions passed to Execute outside of Step
	Word   uint32

	Err error
}

func (err *FaultError) Error() string {
	switch err.Kind {
	case AddressFault:
		return fmt.Sprintf(
			"%s at pc=%#08x: %s of %d bytes at %#08x",
			err.Kind,
			err.PC,
			err.Access,
			err.Width,
			err.Addr,
		)
	default:
		return fmt.Sprintf(
			"%s at pc=%#08x: opcode %#07b (word %#08x)",
			err.Kind,
			err.PC,
			err.Opcode,
			err.Word,
		)
	}
}

func (err *FaultError) Unwrap() error {
	return err.Err
}
