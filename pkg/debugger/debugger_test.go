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

package debugger_test

import (
	"bytes"
	"io"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lassandro/gorv32i/pkg/assembler"
	"github.com/lassandro/gorv32i/pkg/debugger"
	"github.com/lassandro/gorv32i/pkg/machine"
)

const source = `start:
	addi t0, zero, 3
loop:
	addi t0, t0, -1
	sw   t0, 256(zero)
	bnez t0, loop
	lw   t1, 256(zero)
	ecall`

func setup(t *testing.T) (*machine.Machine, *debugger.Debugger, *bytes.Buffer) {
	t.Helper()

	symtable := assembler.NewSymTable("test.s")
	image, errs := assembler.AssembleSource(strings.NewReader(source), symtable)
	require.Empty(t, errs)

	logger := logrus.New()
	logger.Out = io.Discard

	mc := machine.New(machine.Config{})
	mc.Log = logger
	require.NoError(t, mc.Memory.LoadImage(image, 0))

	var out bytes.Buffer
	dbg := &debugger.Debugger{Out: &out, SymTable: symtable}
	require.NoError(t, dbg.LoadSource(strings.NewReader(source)))
	mc.Observer = dbg

	return mc, dbg, &out
}

func TestTrace(t *testing.T) {
	mc, dbg, out := setup(t)
	dbg.Trace = true
	dbg.Aliases = true

	require.NoError(t, mc.Run())

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	assert.Contains(t, lines[0], "start:")
	assert.Equal(t, "0x00000000: 00300293  addi t0, zero, 3", lines[1])
	assert.Contains(t, lines[2], "loop:")
	assert.Equal(t, "0x00000004: fff28293  addi t0, t0, -1", lines[3])
	assert.Equal(t, "0x00000014: 00000073  ecall", lines[len(lines)-1])
}

func TestRegisters(t *testing.T) {
	mc, dbg, out := setup(t)
	dbg.Registers = true

	require.NoError(t, mc.Step())

	text := out.String()
	assert.Contains(t, text, "  x5:\033[0m 0x00000003")
	assert.Contains(t, text, "  pc:\033[0m 0x00000004")
	assert.Equal(t, 9, strings.Count(text, "\n"))
}

func TestBreakpoints(t *testing.T) {
	mc, dbg, _ := setup(t)

	var stops []uint32
	dbg.HandleBreak = func(dbg *debugger.Debugger, mc *machine.Machine) {
		stops = append(stops, mc.PC)
	}

	loop, ok := dbg.LabelAddr("loop")
	require.True(t, ok)

	assert.True(t, dbg.AddBreakpoint(loop))
	assert.False(t, dbg.AddBreakpoint(loop))

	require.NoError(t, mc.Run())
	assert.Equal(t, []uint32{4, 4, 4}, stops)

	assert.NoError(t, dbg.RemoveBreakpoint(0))
	assert.Empty(t, dbg.Breakpoints)
	assert.ErrorIs(t, dbg.RemoveBreakpoint(0), debugger.ErrNoSuchPoint)
}

func TestSingleStep(t *testing.T) {
	mc, dbg, _ := setup(t)
	dbg.Break = true

	count := 0
	dbg.HandleBreak = func(dbg *debugger.Debugger, mc *machine.Machine) {
		count++

		if count == 2 {
			mc.Stop()
		}
	}

	require.NoError(t, mc.Run())
	assert.Equal(t, 2, count)
	assert.Equal(t, machine.HaltStopped, mc.Reason())
	assert.Equal(t, uint64(2), mc.Cycles())
}

func TestWatchpoints(t *testing.T) {
	mc, dbg, _ := setup(t)

	var reads, writes []uint32
	dbg.HandleRead = func(addr uint32, dbg *debugger.Debugger, mc *machine.Machine) {
		reads = append(reads, addr)
	}
	dbg.HandleWrite = func(addr uint32, dbg *debugger.Debugger, mc *machine.Machine) {
		writes = append(writes, addr)
	}

	assert.True(t, dbg.AddWatchpoint(258, debugger.WriteWatch))
	assert.False(t, dbg.AddWatchpoint(258, debugger.WriteWatch))
	assert.True(t, dbg.AddWatchpoint(256, debugger.ReadWatch))
	assert.True(t, dbg.AddWatchpoint(260, debugger.ReadWriteWatch))

	require.NoError(t, mc.Run())
	assert.Equal(t, []uint32{258, 258, 258}, writes)
	assert.Equal(t, []uint32{256}, reads)

	require.NoError(t, dbg.RemoveWatchpoint(0))
	require.Len(t, dbg.Watchpoints, 2)
	assert.Equal(t, debugger.ReadWriteWatch, dbg.Watchpoints[0].Type)
	assert.ErrorIs(t, dbg.RemoveWatchpoint(5), debugger.ErrNoSuchPoint)
}

func TestPrintMem(t *testing.T) {
	mc, dbg, out := setup(t)

	dbg.PrintMem(mc.Memory, 0, 10)

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], "[0x00000000]")
	assert.Contains(t, lines[0], "93 02 30")
	assert.Contains(t, lines[1], "[0x00000008]")

	out.Reset()
	dbg.PrintMem(mc.Memory, mc.Memory.Size()-2, 16)
	assert.Equal(t, 1, strings.Count(out.String(), "\n"))
}

func TestPrintSource(t *testing.T) {
	_, dbg, out := setup(t)

	dbg.PrintSource(4, 3)

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 3)
	assert.Contains(t, lines[0], "[0x00000004]")
	assert.Contains(t, lines[0], "addi t0, t0, -1")
	assert.Contains(t, lines[1], "[0x00000008]")
	assert.Contains(t, lines[2], "bnez t0, loop")

	out.Reset()
	dbg.PrintSource(0, 3)

	lines = strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 3)
	assert.Contains(t, lines[0], "[0x00000000]")
	assert.Contains(t, lines[1], "~~~")
	assert.Contains(t, lines[1], "loop:")

	out.Reset()
	dbg.PrintSource(2, 1)
	assert.Contains(t, out.String(), "No instruction found")

	out.Reset()
	dbg.SymTable = nil
	dbg.PrintSource(0, 1)
	assert.Contains(t, out.String(), "No symbol table loaded")
}

func TestWatchpointType(t *testing.T) {
	assert.Equal(t, "read", debugger.ReadWatch.String())
	assert.Equal(t, "write", debugger.WriteWatch.String())
	assert.Equal(t, "readwrite", debugger.ReadWriteWatch.String())
}
