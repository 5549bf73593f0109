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

package main

import (
	"bufio"
	"fmt"
	"math"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/lassandro/gorv32i/pkg/debugger"
	"github.com/lassandro/gorv32i/pkg/decoder"
	"github.com/lassandro/gorv32i/pkg/encoding"
	"github.com/lassandro/gorv32i/pkg/machine"
)

const keyHelp = "enter/space/n: step  c: continue  :: debugger  q: quit\n"

var lastcmd []string

func usage(s string) {
	fmt.Fprintln(os.Stderr, "usage:", s)
}

func fail(err error) {
	fmt.Fprintln(os.Stderr, "error:", err)
}

// Accepts a label or a hex address.
func parseAddr(dbg *debugger.Debugger, s string) (uint32, error) {
	if addr, exists := dbg.LabelAddr(s); exists {
		return addr, nil
	}

	return encoding.DecodeHex(s)
}

func indexFormat(count int, rest string) string {
	digits := math.Floor(math.Log10(float64(count + 1)))
	return fmt.Sprintf("#%%0%dd: %s\n", int64(digits)+1, rest)
}

func debugBreak(dbg *debugger.Debugger, args []string) {
	const usagestr = "break [add|list|remove|clear]"

	if len(args) == 0 {
		args = append(args, "l")
	}

	cmd := args[0]
	args = args[1:]

	switch cmd {
	case "a", "add":
		if len(args) != 1 {
			usage("break add [0x########|label]")
			return
		}

		addr, err := parseAddr(dbg, args[0])
		if err != nil {
			fail(err)
			return
		}

		if dbg.AddBreakpoint(addr) {
			fmt.Printf("Breakpoint added [0x%08x]\n", addr)
		}

	case "l", "ls", "list":
		fmtstring := indexFormat(len(dbg.Breakpoints), "0x%08x")

		for i, breakpoint := range dbg.Breakpoints {
			fmt.Printf(fmtstring, i, breakpoint.Addr)
		}

	case "r", "rm", "remove":
		if len(args) != 1 {
			usage("break remove [#]")
			return
		}

		i, err := strconv.Atoi(args[0])
		if err != nil {
			fail(err)
			return
		}

		if err := dbg.RemoveBreakpoint(i); err != nil {
			fail(err)
			return
		}

		fmt.Printf("Breakpoint removed [%d]\n", i)

	case "clear":
		dbg.Breakpoints = nil
		fmt.Println("Breakpoints reset")

	default:
		usage(usagestr)
	}
}

func debugWatch(dbg *debugger.Debugger, args []string) {
	const usagestr = "watch [add|list|remove|clear]"

	if len(args) == 0 {
		args = append(args, "l")
	}

	cmd := args[0]
	args = args[1:]

	switch cmd {
	case "a", "add":
		const usagestr = "watch add [0x########|label] [read|write|readwrite]"

		if len(args) != 2 {
			usage(usagestr)
			return
		}

		addr, err := parseAddr(dbg, args[0])
		if err != nil {
			fail(err)
			return
		}

		var wtype debugger.WatchpointType

		switch args[1] {
		case "r", "read":
			wtype = debugger.ReadWatch
		case "w", "write":
			wtype = debugger.WriteWatch
		case "rw", "readwrite":
			wtype = debugger.ReadWriteWatch
		default:
			usage(usagestr)
			return
		}

		if dbg.AddWatchpoint(addr, wtype) {
			fmt.Printf("Watchpoint added [0x%08x] (%s)\n", addr, wtype)
		}

	case "l", "ls", "list":
		fmtstring := indexFormat(len(dbg.Watchpoints), "0x%08x %s")

		for i, watchpoint := range dbg.Watchpoints {
			fmt.Printf(fmtstring, i, watchpoint.Addr, watchpoint.Type)
		}

	case "r", "rm", "remove":
		if len(args) != 1 {
			usage("watch remove [#]")
			return
		}

		i, err := strconv.Atoi(args[0])
		if err != nil {
			fail(err)
			return
		}

		if err := dbg.RemoveWatchpoint(i); err != nil {
			fail(err)
			return
		}

		fmt.Printf("Watchpoint removed [%d]\n", i)

	case "clear":
		dbg.Watchpoints = nil
		fmt.Println("Watchpoints reset")

	default:
		usage(usagestr)
	}
}

func debugReg(dbg *debugger.Debugger, mc *machine.Machine, args []string) {
	if len(args) == 0 {
		dbg.PrintRegisters(mc.Registers, mc.PC)
		return
	}

	if len(args) != 2 {
		usage("register [x#|name|pc] [0x########]")
		return
	}

	value, err := encoding.DecodeHex(args[1])
	if err != nil {
		fail(err)
		return
	}

	name := strings.ToLower(args[0])

	if name == "pc" {
		mc.SetPC(value)
	} else if index, ok := decoder.ParseRegister(name); ok {
		mc.Registers.Write(index, value)
		value = mc.Registers.Read(index)
	} else {
		fmt.Printf("Invalid register '%s'\n", args[0])
		return
	}

	fmt.Printf("\033[1m%s:\033[0m 0x%08x\n", name, value)
}

// Parses the optional [addr] [count] arguments shared by source and memory.
// A lone decimal argument is a count from the program counter.
func parseRange(dbg *debugger.Debugger, mc *machine.Machine, args []string, count uint32) (uint32, uint32, bool) {
	addr := mc.PC

	if len(args) > 0 {
		if value, err := parseAddr(dbg, args[0]); err == nil {
			addr = value
		} else if value, err := strconv.ParseUint(args[0], 10, 32); err == nil {
			count = uint32(value)
		} else {
			fail(err)
			return 0, 0, false
		}
	}

	if len(args) > 1 {
		value, err := strconv.ParseUint(args[1], 10, 32)
		if err != nil {
			fail(err)
			return 0, 0, false
		}

		count = uint32(value)
	}

	return addr, count, true
}

func debugSource(dbg *debugger.Debugger, mc *machine.Machine, args []string) {
	if len(args) > 2 {
		usage("source [0x########|label] [#]")
		return
	}

	if addr, count, ok := parseRange(dbg, mc, args, 3); ok {
		dbg.PrintSource(addr, int(count))
	}
}

func debugMemory(dbg *debugger.Debugger, mc *machine.Machine, args []string) {
	if len(args) > 2 {
		usage("memory [0x########|label] [#]")
		return
	}

	if addr, count, ok := parseRange(dbg, mc, args, 4); ok {
		dbg.PrintMem(mc.Memory, addr, count)
	}
}

func debugSet(dbg *debugger.Debugger, mc *machine.Machine, args []string) {
	const usagestr = "set [0x########|label] [0x########] [1|2|4]"

	if len(args) != 2 && len(args) != 3 {
		usage(usagestr)
		return
	}

	addr, err := parseAddr(dbg, args[0])
	if err != nil {
		fail(err)
		return
	}

	value, err := encoding.DecodeHex(args[1])
	if err != nil {
		fail(err)
		return
	}

	width := machine.WIDTH_WORD

	if len(args) == 3 {
		switch args[2] {
		case "1":
			width = machine.WIDTH_BYTE
		case "2":
			width = machine.WIDTH_HALF
		case "4":
		default:
			usage(usagestr)
			return
		}
	}

	if err := mc.Memory.Write(addr, width, value); err != nil {
		fail(err)
		return
	}

	dbg.PrintMem(mc.Memory, addr, width)
}

func debugLabels(dbg *debugger.Debugger) {
	if dbg.SymTable == nil {
		fmt.Println("No symbol table loaded")
		return
	}

	keys := make([]uint32, 0, len(dbg.SymTable.Labels))
	for addr := range dbg.SymTable.Labels {
		keys = append(keys, addr)
	}

	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })

	for _, addr := range keys {
		fmt.Printf("\033[1m[0x%08x]\033[0m %s\n", addr, dbg.SymTable.Labels[addr])
	}
}

func debugJump(dbg *debugger.Debugger, mc *machine.Machine, args []string) {
	if len(args) != 1 {
		usage("jump [0x########|label]")
		return
	}

	addr, err := parseAddr(dbg, args[0])
	if err != nil {
		fmt.Printf("Unable to find '%s'\n", args[0])
		return
	}

	mc.SetPC(addr)
	fmt.Printf("\033[1mpc:\033[0m 0x%08x\n", addr)
}

func debugReset(mc *machine.Machine) {
	mc.Reset()
	mc.Memory.Reset()

	if err := mc.Memory.LoadImage(program.Data, programBase); err != nil {
		fail(err)
		return
	}

	fmt.Printf("Program reloaded, \033[1mpc:\033[0m 0x%08x\n", mc.PC)
}

func quit(mc *machine.Machine) {
	shouldexit = true
	mc.Stop()
}

func debugREPL(dbg *debugger.Debugger, mc *machine.Machine) {
	exitRawTerm()
	defer func() {
		if err := enterRawTerm(); err != nil {
			fail(err)
			quit(mc)
		}
	}()

	scanner := bufio.NewScanner(os.Stdin)

	for {
		fmt.Print("\033[1;30m(dbg)\033[0m ")

		if !scanner.Scan() {
			fmt.Println()
			quit(mc)
			return
		}

		args := strings.Fields(scanner.Text())

		if len(args) == 0 {
			if len(lastcmd) == 0 {
				continue
			}
			args = lastcmd
		} else {
			lastcmd = make([]string, len(args))
			copy(lastcmd, args)
		}

		cmd := args[0]
		args = args[1:]

		switch cmd {
		case "b", "bp", "break", "breakpoint":
			debugBreak(dbg, args)

		case "w", "wp", "watch", "watchpoint":
			debugWatch(dbg, args)

		case "r", "reg", "register", "registers":
			debugReg(dbg, mc, args)

		case "s", "src", "source":
			debugSource(dbg, mc, args)

		case "l", "label", "labels":
			debugLabels(dbg)

		case "j", "jmp", "jump":
			debugJump(dbg, mc, args)

		case "m", "mem", "memory":
			debugMemory(dbg, mc, args)

		case "set":
			debugSet(dbg, mc, args)

		case "c", "continue":
			dbg.Break = false
			return

		case "n", "next":
			dbg.Break = true
			return

		case "q", "quit", "exit":
			quit(mc)
			return

		case "clear":
			fmt.Print("\033[H\033[2J")

		case "reset":
			debugReset(mc)

		default:
			fmt.Printf("error: '%s' is not a valid command\n", cmd)
		}
	}
}

// Waits for a key in raw mode.
func waitKey(dbg *debugger.Debugger, mc *machine.Machine) {
	for {
		key, err := readKey()
		if err != nil {
			quit(mc)
			return
		}

		switch key {
		case '\r', '\n', ' ', 'n':
			dbg.Break = true
			return
		case 'c':
			dbg.Break = false
			return
		case 'q', 0x03, 0x04:
			quit(mc)
			return
		case ':':
			fmt.Println()
			debugREPL(dbg, mc)
			return
		}
	}
}

func stopped(dbg *debugger.Debugger, mc *machine.Machine) {
	fmt.Println()
	fmt.Println("Program stopped")

	if dbg.SymTable != nil {
		dbg.PrintSource(mc.PC, 8)
	} else if word, err := mc.Memory.Read(mc.PC, machine.InstructionSize); err == nil {
		inst := decoder.Decode(word)
		fmt.Printf("0x%08x: %08x  %s\n", mc.PC, word, decoder.Disassemble(inst, dbg.Aliases))
	}
}

type watchHit struct {
	addr   uint32
	access string
}

// Set by the watch handlers. The REPL opens from handleBreak once the access
// has retired, so commands never run in the middle of an instruction.
var pendingWatch *watchHit

func handleBreak(dbg *debugger.Debugger, mc *machine.Machine) {
	if hit := pendingWatch; hit != nil {
		pendingWatch = nil

		stopped(dbg, mc)
		fmt.Printf("Watchpoint hit on %s [0x%08x]\n", hit.access, hit.addr)
		dbg.PrintMem(mc.Memory, hit.addr, 4)
		debugREPL(dbg, mc)
		return
	}

	if !dbg.Break {
		stopped(dbg, mc)
	}

	waitKey(dbg, mc)
}

func handleRead(addr uint32, dbg *debugger.Debugger, mc *machine.Machine) {
	pendingWatch = &watchHit{addr, "read"}
	dbg.Break = true
}

func handleWrite(addr uint32, dbg *debugger.Debugger, mc *machine.Machine) {
	pendingWatch = &watchHit{addr, "write"}
	dbg.Break = true
}
