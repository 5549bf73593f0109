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
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/lassandro/gorv32i/pkg/assembler"
)

type options struct {
	out   string
	debug bool
}

var opts options
var log = logrus.New()

var rootCmd = &cobra.Command{
	Use:   "gorv32i-asm [-d] [-o outfile] [file]",
	Short: "An RV32I assembler",
	Long: `gorv32i-asm assembles RV32I source into a flat little-endian binary that
gorv32i runs with --raw. Source is read from stdin when it is not a terminal.`,

	Args:          cobra.MaximumNArgs(1),
	SilenceErrors: true,
	SilenceUsage:  true,

	RunE: func(cmd *cobra.Command, args []string) error {
		return assemble(args)
	},
}

func init() {
	log.SetOutput(os.Stderr)
	log.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})

	flags := rootCmd.Flags()
	flags.StringVarP(
		&opts.out, "out", "o", "",
		"Specifies a precise name for the output file, "+
			"overriding the default means of determining it",
	)
	flags.BoolVarP(
		&opts.debug, "debug", "d", false,
		"Specifies whether to generate debugging information as a symbol "+
			"table. The table will use the output filename with extension "+
			"'.rvdb'",
	)
}

var errAssembly = errors.New("assembly failed")

// Prints each error with its source line and a caret under the column.
func report(name string, source []byte, errs []error) {
	lines := strings.Split(string(source), "\n")

	for _, err := range errs {
		tokenErr, ok := err.(assembler.TokenError)
		if !ok {
			fmt.Fprintf(os.Stderr, "\033[1m%s:\033[0m %v\n", name, err)
			continue
		}

		cursor := tokenErr.GetPosition()
		fmt.Fprintf(os.Stderr, "\033[1m%s:\033[0m%v\n", name, err)

		if cursor.Line < 1 || cursor.Line > len(lines) {
			continue
		}

		line := strings.TrimRight(lines[cursor.Line-1], "\r")

		// Copy tabs so the caret lines up with the source
		var caret strings.Builder
		for i := 0; i < cursor.Column-1 && i < len(line); i++ {
			if line[i] == '\t' {
				caret.WriteByte('\t')
			} else {
				caret.WriteByte(' ')
			}
		}
		caret.WriteByte('^')

		fmt.Fprintf(os.Stderr, "%s\n\033[31m%s\033[0m\n", line, caret.String())
	}
}

func readInput(args []string) (name string, source []byte, err error) {
	if len(args) == 0 {
		if term.IsTerminal(int(os.Stdin.Fd())) {
			return "", nil, errors.New("no input file, and stdin is a terminal")
		}

		source, err = io.ReadAll(os.Stdin)
		return "<stdin>", source, err
	}

	stat, err := os.Stat(args[0])
	if err != nil {
		return "", nil, err
	}

	if stat.IsDir() {
		return "", nil, fmt.Errorf("%s is not a valid RV32I assembly file", args[0])
	}

	source, err = os.ReadFile(args[0])
	return args[0], source, err
}

func outputName(input string) string {
	if opts.out != "" {
		return opts.out
	}

	if input == "<stdin>" {
		return "out.bin"
	}

	base := filepath.Base(input)
	return strings.TrimSuffix(base, filepath.Ext(base)) + ".bin"
}

func assemble(args []string) error {
	name, source, err := readInput(args)
	if err != nil {
		return err
	}

	var symtable *assembler.SymTable

	if opts.debug {
		path := ""

		if name != "<stdin>" {
			if path, err = filepath.Abs(name); err != nil {
				log.WithError(err).Warn("source path unavailable to the debugger")
				path = ""
			}
		}

		symtable = assembler.NewSymTable(path)
	}

	result, errs := assembler.AssembleSource(bytes.NewReader(source), symtable)

	if len(errs) > 0 {
		report(filepath.Base(name), source, errs)
		return fmt.Errorf("%w: %d errors", errAssembly, len(errs))
	}

	out := outputName(name)

	if err := os.WriteFile(out, result, 0666); err != nil {
		return fmt.Errorf("writing output file: %w", err)
	}

	log.WithFields(logrus.Fields{
		"out":  out,
		"size": len(result),
	}).Debug("binary written")

	if symtable == nil {
		return nil
	}

	filename := strings.TrimSuffix(out, filepath.Ext(out)) + ".rvdb"

	file, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("creating symbol table: %w", err)
	}
	defer file.Close()

	if err := symtable.Encode(file); err != nil {
		return fmt.Errorf("writing symbol table: %w", err)
	}

	return nil
}

func gorv32iAsm() int {
	if err := rootCmd.Execute(); err != nil {
		if !errors.Is(err, errAssembly) {
			log.Error(err)
		}

		return 1
	}

	return 0
}

func main() {
	os.Exit(gorv32iAsm())
}
