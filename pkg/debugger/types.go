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

package debugger

import (
	"errors"
	"io"

	"github.com/lassandro/gorv32i/pkg/assembler"
	"github.com/lassandro/gorv32i/pkg/machine"
)

var ErrNoSuchPoint = errors.New("no such breakpoint or watchpoint")

type WatchpointType uint

const (
	ReadWatch WatchpointType = 1 << iota
	WriteWatch

	ReadWriteWatch = ReadWatch | WriteWatch
)

func (w WatchpointType) String() string {
	switch w {
	case ReadWatch:
		return "read"
	case WriteWatch:
		return "write"
	case ReadWriteWatch:
		return "readwrite"
	default:
		return "invalid"
	}
}

// Watchpoint triggers on any access that touches the byte at Addr.
type Watchpoint struct {
	Addr uint32
	Type WatchpointType
}

type Breakpoint struct {
	Addr uint32
}

type Debugger struct {
	// Print every executed instruction
	Trace bool
	// Dump the register file after every instruction
	Registers bool
	// Use ABI register names in output
	Aliases bool
	// Stop after the next instruction
	Break bool

	Breakpoints []Breakpoint
	Watchpoints []Watchpoint

	Source   []string
	SymTable *assembler.SymTable

	// Defaults to os.Stdout
	Out io.Writer

	HandleBreak func(*Debugger, *machine.Machine)
	HandleRead  func(uint32, *Debugger, *machine.Machine)
	HandleWrite func(uint32, *Debugger, *machine.Machine)
}
