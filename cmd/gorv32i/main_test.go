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
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lassandro/gorv32i/pkg/assembler"
	"github.com/lassandro/gorv32i/pkg/debugger"
	"github.com/lassandro/gorv32i/pkg/loader"
	"github.com/lassandro/gorv32i/pkg/machine"
)

func writeProgram(t *testing.T, source string) string {
	t.Helper()

	image, errs := assembler.AssembleSource(strings.NewReader(source), nil)
	require.Empty(t, errs)

	path := filepath.Join(t.TempDir(), "program.bin")
	require.NoError(t, os.WriteFile(path, image, 0o644))

	return path
}

func execute(args ...string) int {
	opts = options{section: loader.DefaultSection}
	shouldexit = false
	program = nil
	programBase = 0
	pendingWatch = nil

	rootCmd.SetArgs(append([]string{}, args...))
	return gorv32i()
}

func TestExitCodes(t *testing.T) {
	ok := writeProgram(t, "addi a0, zero, 1\necall")
	fault := writeProgram(t, "nop\n.word 0x0000007F")
	spin := writeProgram(t, "loop: j loop")

	tests := []struct {
		Name string
		Args []string
		Code int
	}{
		{"Ecall", []string{"--raw", ok}, 0},
		{"File Flag", []string{"--raw", "-f", ok, "-d", "-r", "-a"}, 0},
		{"Fault", []string{"--raw", fault}, 1},
		{"Cycle Limit", []string{"--raw", "--max-cycles", "10", spin}, 1},
		{"Missing File", []string{"--raw", filepath.Join(t.TempDir(), "none.bin")}, 1},
		{"Not ELF", []string{ok}, 1},
		{"Memory Too Small", []string{"--raw", "--memory", "4", ok}, 1},
		{"Entry Override", []string{"--raw", "--pc", "0x4", ok}, 0},
		{"No Program", []string{}, 2},
		{"Two Programs", []string{ok, fault}, 2},
		{"Unknown Flag", []string{"--bogus", ok}, 2},
		{"Bad PC", []string{"--raw", "--pc", "12", ok}, 2},
		{"Bad Memory", []string{"--raw", "--memory", "lots", ok}, 2},
	}

	for _, test := range tests {
		test := test
		t.Run(test.Name, func(t *testing.T) {
			assert.Equal(t, test.Code, execute(test.Args...))
		})
	}
}

func TestWatchHitWaitsForRetire(t *testing.T) {
	pendingWatch = nil
	defer func() { pendingWatch = nil }()

	image, errs := assembler.AssembleSource(strings.NewReader("sw x0, 256(x0)\necall"), nil)
	require.Empty(t, errs)

	mc := machine.New(machine.Config{})
	logger := logrus.New()
	logger.Out = io.Discard
	mc.Log = logger
	require.NoError(t, mc.Memory.LoadImage(image, 0))

	dbg := &debugger.Debugger{Out: io.Discard}
	dbg.AddWatchpoint(256, debugger.WriteWatch)
	dbg.HandleWrite = handleWrite
	dbg.HandleBreak = func(dbg *debugger.Debugger, mc *machine.Machine) {
		require.NotNil(t, pendingWatch)
		assert.Equal(t, watchHit{256, "write"}, *pendingWatch)
		assert.Equal(t, uint32(4), mc.PC)
		assert.Equal(t, uint64(1), mc.Cycles())
		pendingWatch = nil
	}
	mc.Observer = dbg

	require.NoError(t, mc.Step())
	assert.True(t, dbg.Break)
	assert.Nil(t, pendingWatch)
}
