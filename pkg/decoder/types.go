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

package decoder

type Format uint8

const (
	FormatUnimplemented Format = iota
	FormatR
	FormatI
	FormatS
	FormatB
	FormatU
	FormatJ
)

func (f Format) String() string {
	switch f {
	case FormatR:
		return "R"
	case FormatI:
		return "I"
	case FormatS:
		return "S"
	case FormatB:
		return "B"
	case FormatU:
		return "U"
	case FormatJ:
		return "J"
	default:
		return "unimplemented"
	}
}

// Instruction is one decoded instruction word. The concrete type is always
// one of RType, IType, SType, BType, UType, JType or Unimplemented.
type Instruction interface {
	Format() Format
	Op() uint8
	String() string

	instruction()
}

type RType struct {
	Opcode uint8
	Rd     uint8
	Funct3 uint8
	Rs1    uint8
	Rs2    uint8
	Funct7 uint8
}

// IType also covers fence, ecall and ebreak.
type IType struct {
	Opcode uint8
	Rd     uint8
	Funct3 uint8
	Rs1    uint8
	Imm    int32
}

type SType struct {
	Opcode uint8
	Funct3 uint8
	Rs1    uint8
	Rs2    uint8
	Imm    int32
}

type BType struct {
	Opcode uint8
	Funct3 uint8
	Rs1    uint8
	Rs2    uint8
	Imm    int32
}

// Imm already holds the upper 20 bits in place.
type UType struct {
	Opcode uint8
	Rd     uint8
	Imm    int32
}

type JType struct {
	Opcode uint8
	Rd     uint8
	Imm    int32
}

type Unimplemented struct {
	Opcode uint8
	Word   uint32
}

func (RType) Format() Format         { return FormatR }
func (IType) Format() Format         { return FormatI }
func (SType) Format() Format         { return FormatS }
func (BType) Format() Format         { return FormatB }
func (UType) Format() Format         { return FormatU }
func (JType) Format() Format         { return FormatJ }
func (Unimplemented) Format() Format { return FormatUnimplemented }

func (i RType) Op() uint8         { return i.Opcode }
func (i IType) Op() uint8         { return i.Opcode }
func (i SType) Op() uint8         { return i.Opcode }
func (i BType) Op() uint8         { return i.Opcode }
func (i UType) Op() uint8         { return i.Opcode }
func (i JType) Op() uint8         { return i.Opcode }
func (i Unimplemented) Op() uint8 { return i.Opcode }

func (RType) instruction()         {}
func (IType) instruction()         {}
func (SType) instruction()         {}
func (BType) instruction()         {}
func (UType) instruction()         {}
func (JType) instruction()         {}
func (Unimplemented) instruction() {}
