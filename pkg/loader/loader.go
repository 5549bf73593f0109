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

package loader

import (
	"debug/elf"
	"errors"
	"fmt"
	"os"
)

const DefaultSection = ".text.init"

var (
	ErrNotELF    = errors.New("not an ELF file")
	ErrNotRV32   = errors.New("not a 32-bit little-endian RISC-V ELF")
	ErrNoSection = errors.New("section not found")
)

// Image is a block of program bytes and the address it was linked for.
type Image struct {
	Data    []byte
	Addr    uint32
	Section string
}

type LoadError struct {
	Path string
	Err  error
}

func (err *LoadError) Error() string {
	return fmt.Sprintf("load %s: %v", err.Path, err.Err)
}

func (err *LoadError) Unwrap() error {
	return err.Err
}

// LoadELFSection reads the raw contents of one section of an RV32 ELF file.
// Only the named section is read; relocations and other sections are
// ignored.
func LoadELFSection(path, section string) (*Image, error) {
	if section == "" {
		section = DefaultSection
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, &LoadError{path, err}
	}
	defer file.Close()

	obj, err := elf.NewFile(file)
	if err != nil {
		return nil, &LoadError{path, fmt.Errorf("%w: %v", ErrNotELF, err)}
	}
	defer obj.Close()

	if obj.Class != elf.ELFCLASS32 ||
		obj.Data != elf.ELFDATA2LSB ||
		obj.Machine != elf.EM_RISCV {
		return nil, &LoadError{path, fmt.Errorf(
			"%w: %v %v %v", ErrNotRV32, obj.Class, obj.Data, obj.Machine,
		)}
	}

	sec := obj.Section(section)
	if sec == nil {
		return nil, &LoadError{path, fmt.Errorf("%w: %s", ErrNoSection, section)}
	}

	var data []byte

	if sec.Type == elf.SHT_NOBITS {
		data = make([]byte, sec.Size)
	} else if data, err = sec.Data(); err != nil {
		return nil, &LoadError{path, fmt.Errorf("read %s: %w", section, err)}
	}

	return &Image{Data: data, Addr: uint32(sec.Addr), Section: section}, nil
}

// LoadFlat reads a raw little-endian binary, such as the output of
// gorv32i-asm or objcopy -O binary.
func LoadFlat(path string) (*Image, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &LoadError{path, err}
	}

	return &Image{Data: data}, nil
}

func Load(path, section string, raw bool) (*Image, error) {
	if raw {
		return LoadFlat(path)
	}

	return LoadELFSection(path, section)
}
