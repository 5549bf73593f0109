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
	"bufio"
	"fmt"
	"io"
	"os"

	"github.com/lassandro/gorv32i/pkg/decoder"
	"github.com/lassandro/gorv32i/pkg/machine"
)

func (dbg *Debugger) out() io.Writer {
	if dbg.Out == nil {
		return os.Stdout
	}

	return dbg.Out
}

func (dbg *Debugger) Step(mc *machine.Machine, cycle machine.Cycle) {
	out := dbg.out()

	if dbg.Trace {
		if dbg.SymTable != nil {
			if label, exists := dbg.SymTable.Labels[cycle.PC]; exists {
				fmt.Fprintf(out, "\033[1;30m%s:\033[0m\n", label)
			}
		}

		fmt.Fprintf(
			out,
			"0x%08x: %08x  %s\n",
			cycle.PC,
			cycle.Word,
			decoder.Disassemble(cycle.Inst, dbg.Aliases),
		)
	}

	if dbg.Registers {
		dbg.PrintRegisters(cycle.Registers, mc.PC)
	}

	if mc.Halted() || dbg.HandleBreak == nil {
		return
	}

	if dbg.Break {
		dbg.HandleBreak(dbg, mc)
		return
	}

	for _, breakpoint := range dbg.Breakpoints {
		if mc.PC == breakpoint.Addr {
			dbg.HandleBreak(dbg, mc)
			break
		}
	}
}

func (w Watchpoint) covers(addr, width uint32) bool {
	return w.Addr >= addr && uint64(w.Addr) < uint64(addr)+uint64(width)
}

func (dbg *Debugger) Read(mc *machine.Machine, addr, width uint32) {
	if dbg.HandleRead == nil {
		return
	}

	for _, watchpoint := range dbg.Watchpoints {
		if watchpoint.Type&ReadWatch == 0 {
			continue
		}

		if watchpoint.covers(addr, width) {
			dbg.HandleRead(watchpoint.Addr, dbg, mc)
			break
		}
	}
}

func (dbg *Debugger) Write(mc *machine.Machine, addr, width uint32) {
	if dbg.HandleWrite == nil {
		return
	}

	for _, watchpoint := range dbg.Watchpoints {
		if watchpoint.Type&WriteWatch == 0 {
			continue
		}

		if watchpoint.covers(addr, width) {
			dbg.HandleWrite(watchpoint.Addr, dbg, mc)
			break
		}
	}
}

// AddBreakpoint reports false if a breakpoint already exists at addr.
func (dbg *Debugger) AddBreakpoint(addr uint32) bool {
	for _, breakpoint := range dbg.Breakpoints {
		if breakpoint.Addr == addr {
			return false
		}
	}

	dbg.Breakpoints = append(dbg.Breakpoints, Breakpoint{addr})
	return true
}

// RemoveBreakpoint removes the i'th breakpoint. The last breakpoint takes
// its place.
func (dbg *Debugger) RemoveBreakpoint(i int) error {
	if i < 0 || i >= len(dbg.Breakpoints) {
		return fmt.Errorf("%w: breakpoint %d", ErrNoSuchPoint, i)
	}

	dbg.Breakpoints[i] = dbg.Breakpoints[len(dbg.Breakpoints)-1]
	dbg.Breakpoints = dbg.Breakpoints[:len(dbg.Breakpoints)-1]
	return nil
}

func (dbg *Debugger) AddWatchpoint(addr uint32, wtype WatchpointType) bool {
	for _, watchpoint := range dbg.Watchpoints {
		if watchpoint.Addr == addr && watchpoint.Type == wtype {
			return false
		}
	}

	dbg.Watchpoints = append(dbg.Watchpoints, Watchpoint{addr, wtype})
	return true
}

func (dbg *Debugger) RemoveWatchpoint(i int) error {
	if i < 0 || i >= len(dbg.Watchpoints) {
		return fmt.Errorf("%w: watchpoint %d", ErrNoSuchPoint, i)
	}

	dbg.Watchpoints[i] = dbg.Watchpoints[len(dbg.Watchpoints)-1]
	dbg.Watchpoints = dbg.Watchpoints[:len(dbg.Watchpoints)-1]
	return nil
}

func (dbg *Debugger) LabelAddr(label string) (uint32, bool) {
	if dbg.SymTable == nil {
		return 0, false
	}

	return dbg.SymTable.LabelAddr(label)
}

// LoadSource reads the assembly source the symbol table refers to.
func (dbg *Debugger) LoadSource(r io.Reader) error {
	scanner := bufio.NewScanner(r)
	dbg.Source = dbg.Source[:0]

	for scanner.Scan() {
		dbg.Source = append(dbg.Source, scanner.Text())
	}

	return scanner.Err()
}

func (dbg *Debugger) PrintRegisters(regs machine.Registers, pc uint32) {
	out := dbg.out()

	for i, value := range regs {
		name := decoder.RegisterName(uint8(i), dbg.Aliases)
		fmt.Fprintf(out, "\033[1m%4s:\033[0m 0x%08x", name, value)

		if i%4 == 3 {
			fmt.Fprintln(out)
		} else {
			fmt.Fprint(out, "  ")
		}
	}

	fmt.Fprintf(out, "\033[1m%4s:\033[0m 0x%08x\n", "pc", pc)
}

func (dbg *Debugger) PrintMem(mem *machine.Memory, addr, count uint32) {
	out := dbg.out()
	data := mem.Bytes()

	for i := uint32(0); i < count; i++ {
		at := uint64(addr) + uint64(i)

		if at >= uint64(len(data)) {
			break
		}

		if i == 0 {
			fmt.Fprintf(out, "\033[1m[0x%08x]\033[0m ", at)
		} else if i%8 == 0 {
			fmt.Fprintln(out)
			fmt.Fprintf(out, "\033[1m[0x%08x]\033[0m ", at)
		}

		if result := data[at]; result == 0 {
			fmt.Fprintf(out, "\033[1;30m%02x\033[0m ", result)
		} else {
			fmt.Fprintf(out, "%02x ", result)
		}
	}

	fmt.Fprintln(out)
}

// PrintSource prints count source lines starting at the line that assembled
// to addr. Lines that produced code are prefixed with their address.
func (dbg *Debugger) PrintSource(addr uint32, count int) {
	out := dbg.out()

	if dbg.SymTable == nil {
		fmt.Fprintln(out, "No symbol table loaded")
		return
	}

	if len(dbg.Source) == 0 {
		fmt.Fprintln(out, "No source file loaded")
		return
	}

	start, exists := dbg.SymTable.Lines[addr]
	if !exists {
		fmt.Fprintf(out, "No instruction found at 0x%08x\n", addr)
		return
	}

	addrs := make(map[int]uint32, len(dbg.SymTable.Lines))
	for lineaddr, line := range dbg.SymTable.Lines {
		if prev, exists := addrs[line]; !exists || lineaddr < prev {
			addrs[line] = lineaddr
		}
	}

	for line := start; line < start+count && line <= len(dbg.Source); line++ {
		if lineaddr, exists := addrs[line]; exists {
			fmt.Fprintf(out, "\033[1m[0x%08x]\033[0m ", lineaddr)
		} else {
			fmt.Fprint(out, "\033[1;30m~~~~~~~~~~~~\033[0m ")
		}

		fmt.Fprintln(out, dbg.Source[line-1])
	}
}
