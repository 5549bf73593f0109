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

const (
	DefaultMemorySize uint32 = 32 * 1024

	InstructionSize uint32 = 4
	RegisterCount          = 32
)

const (
	WIDTH_BYTE uint32 = 1
	WIDTH_HALF uint32 = 2
	WIDTH_WORD uint32 = 4
)

type HaltReason uint8

const (
	HaltNone HaltReason = iota
	HaltNormal
	HaltBreakpoint
	HaltImplicitEnd
	HaltStopped
	HaltFault
)

func (r HaltReason) String() string {
	switch r {
	case HaltNone:
		return "running"
	case HaltNormal:
		return "ecall"
	case HaltBreakpoint:
		return "ebreak"
	case HaltImplicitEnd:
		return "implicit end"
	case HaltStopped:
		return "stopped"
	case HaltFault:
		return "fault"
	default:
		return "unknown"
	}
}

type Outcome uint8

const (
	Continue Outcome = iota
	Halt
	Fault
)
