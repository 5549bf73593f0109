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
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync/atomic"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/lassandro/gorv32i/pkg/assembler"
	"github.com/lassandro/gorv32i/pkg/debugger"
	"github.com/lassandro/gorv32i/pkg/encoding"
	"github.com/lassandro/gorv32i/pkg/loader"
	"github.com/lassandro/gorv32i/pkg/machine"
)

type options struct {
	file        string
	pc          string
	debug       bool
	registers   bool
	aliases     bool
	interactive bool
	section     string
	raw         bool
	memory      string
	maxCycles   uint64
	keepAddr    bool
	verbose     bool
}

// usageError marks errors that exit with status 2.
type usageError struct {
	error
}

var opts options
var log = logrus.New()

// Set by the debugger when the user quits
var shouldexit bool

// Loaded program, kept for the debugger's reset command
var program *loader.Image
var programBase uint32

var rootCmd = &cobra.Command{
	Use:   "gorv32i [flags] [file]",
	Short: "An RV32I emulator",
	Long: `gorv32i runs an RV32I program from the .text.init section of an ELF
file, or from a flat binary with --raw. The program runs until it executes
ecall or ebreak, reaches a zero word, or faults.`,

	Args: func(cmd *cobra.Command, args []string) error {
		if len(args) > 1 {
			return &usageError{fmt.Errorf("expected one program, got %d", len(args))}
		}

		return nil
	},

	SilenceErrors: true,
	SilenceUsage:  true,

	RunE: func(cmd *cobra.Command, args []string) error {
		return run(args)
	},
}

func init() {
	flags := rootCmd.Flags()

	flags.StringVarP(&opts.file, "file", "f", "", "Program to run")
	flags.StringVarP(&opts.pc, "pc", "p", "", "Initial program counter, in hex")
	flags.BoolVarP(&opts.debug, "debug", "d", false, "Print every executed instruction")
	flags.BoolVarP(&opts.registers, "registers", "r", false, "Print the registers after every instruction")
	flags.BoolVarP(&opts.aliases, "aliases", "a", false, "Use ABI register names")
	flags.BoolVarP(&opts.interactive, "interactive", "i", false, "Wait for a key after every instruction")
	flags.StringVar(&opts.section, "section", loader.DefaultSection, "ELF section to load")
	flags.BoolVar(&opts.raw, "raw", false, "Load the file as a flat binary")
	flags.StringVar(&opts.memory, "memory", "", "Memory size in bytes, decimal or hex (default 32KiB)")
	flags.Uint64Var(&opts.maxCycles, "max-cycles", 0, "Stop with an error after this many instructions")
	flags.BoolVar(&opts.keepAddr, "keep-addr", false, "Place the image at its section address instead of 0")
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "Log every cycle to stderr")

	rootCmd.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		return &usageError{err}
	})
}

func setupLogging() {
	log.SetOutput(os.Stderr)
	log.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})

	if opts.verbose {
		log.SetLevel(logrus.DebugLevel)
	} else {
		log.SetLevel(logrus.WarnLevel)
	}
}

func programPath(args []string) (string, error) {
	switch {
	case len(args) == 1 && opts.file != "" && args[0] != opts.file:
		return "", &usageError{errors.New("program given both as --file and as an argument")}
	case len(args) == 1:
		return args[0], nil
	case opts.file != "":
		return opts.file, nil
	default:
		return "", &usageError{errors.New("no program given")}
	}
}

// Loads the .rvdb symbol table written by gorv32i-asm next to the program,
// and the source file it names.
func loadSymbols(dbg *debugger.Debugger, path string) {
	filename := strings.TrimSuffix(path, filepath.Ext(path)) + ".rvdb"

	file, err := os.Open(filename)
	if err != nil {
		log.WithError(err).Debug("no symbol table")
		return
	}
	defer file.Close()

	symtable, err := assembler.DecodeSymTable(file)
	if err != nil {
		log.WithError(err).WithField("path", filename).Warn("error loading symbol table")
		return
	}

	dbg.SymTable = symtable

	if symtable.Source == "" {
		return
	}

	source, err := os.Open(symtable.Source)
	if err != nil {
		log.WithError(err).Warn("error loading source file")
		return
	}
	defer source.Close()

	if err := dbg.LoadSource(source); err != nil {
		log.WithError(err).Warn("error loading source file")
	}
}

func newMachine(path string) (*machine.Machine, error) {
	var cfg machine.Config

	if opts.memory != "" {
		size, err := encoding.DecodeAddr(opts.memory)
		if err != nil || size == 0 {
			return nil, &usageError{fmt.Errorf("invalid --memory %q", opts.memory)}
		}

		cfg.MemorySize = size
	}

	image, err := loader.Load(path, opts.section, opts.raw)
	if err != nil {
		return nil, err
	}

	if opts.keepAddr {
		programBase = image.Addr
	}

	cfg.Entry = programBase

	if opts.pc != "" {
		if cfg.Entry, err = encoding.DecodeHex(opts.pc); err != nil {
			return nil, &usageError{fmt.Errorf("invalid --pc %q: %w", opts.pc, err)}
		}
	}

	mc := machine.New(cfg)
	mc.Log = log

	if err := mc.Memory.LoadImage(image.Data, programBase); err != nil {
		return nil, err
	}

	program = image

	log.WithFields(logrus.Fields{
		"path":    path,
		"section": image.Section,
		"size":    len(image.Data),
		"base":    fmt.Sprintf("%#08x", programBase),
		"entry":   fmt.Sprintf("%#08x", cfg.Entry),
	}).Debug("program loaded")

	return mc, nil
}

func run(args []string) error {
	setupLogging()

	path, err := programPath(args)
	if err != nil {
		return err
	}

	if opts.interactive && !term.IsTerminal(int(os.Stdin.Fd())) {
		return &usageError{errors.New("--interactive needs a terminal on stdin")}
	}

	mc, err := newMachine(path)
	if err != nil {
		return err
	}

	var dbg *debugger.Debugger

	if opts.debug || opts.registers || opts.interactive {
		dbg = &debugger.Debugger{
			Trace:     opts.debug,
			Registers: opts.registers,
			Aliases:   opts.aliases,
		}
		mc.Observer = dbg
	}

	if opts.interactive {
		err = runInteractive(mc, dbg, path)
	} else {
		err = runBatch(mc)
	}

	log.WithFields(logrus.Fields{
		"reason": mc.Reason(),
		"cycles": mc.Cycles(),
	}).Debug("program finished")

	return err
}

func limitError(mc *machine.Machine) error {
	return fmt.Errorf("%w after %d instructions", machine.ErrCycleLimit, mc.Cycles())
}

func runBatch(mc *machine.Machine) error {
	if opts.maxCycles == 0 {
		return mc.Run()
	}

	err := mc.RunFor(opts.maxCycles)
	if errors.Is(err, machine.ErrCycleLimit) {
		return limitError(mc)
	}

	return err
}

// Steps one instruction at a time so SIGINT can drop back into the debugger.
func runInteractive(mc *machine.Machine, dbg *debugger.Debugger, path string) error {
	var interrupted atomic.Bool

	loadSymbols(dbg, path)

	dbg.Break = true
	dbg.HandleBreak = handleBreak
	dbg.HandleRead = handleRead
	dbg.HandleWrite = handleWrite

	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt)
	defer signal.Stop(c)

	go func() {
		for range c {
			interrupted.Store(true)
		}
	}()

	if err := enterRawTerm(); err != nil {
		return err
	}
	defer exitRawTerm()

	fmt.Print(keyHelp)

	for !mc.Halted() && !shouldexit {
		if interrupted.Swap(false) {
			fmt.Println()
			dbg.Break = true
		}

		if opts.maxCycles != 0 && mc.Cycles() >= opts.maxCycles {
			return limitError(mc)
		}

		if err := mc.Step(); err != nil {
			break
		}
	}

	return mc.Err()
}

func gorv32i() int {
	err := rootCmd.Execute()

	if err == nil {
		return 0
	}

	var usageErr *usageError
	if errors.As(err, &usageErr) {
		fmt.Fprintf(os.Stderr, "gorv32i: %v\n\n%s", err, rootCmd.UsageString())
		return 2
	}

	log.Error(err)
	return 1
}

func main() {
	os.Exit(gorv32i())
}
