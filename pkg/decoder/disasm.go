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

import (
	"fmt"
)

// Mnemonic returns the assembly name of inst, or "" when the funct fields
// select a reserved encoding.
func Mnemonic(inst Instruction) string {
	switch inst := inst.(type) {
	case RType:
		switch {
		case inst.Funct7 == F7_BASE:
			return [8]string{
				"add", "sll", "slt", "sltu", "xor", "srl", "or", "and",
			}[inst.Funct3]
		case inst.Funct7 == F7_ALT && inst.Funct3 == F3_ADD:
			return "sub"
		case inst.Funct7 == F7_ALT && inst.Funct3 == F3_SRL:
			return "sra"
		}

	case IType:
		switch inst.Opcode {
		case OP_IMM:
			switch inst.Funct3 {
			case F3_SLL:
				if inst.Imm>>5 == 0 {
					return "slli"
				}
			case F3_SRL:
				switch inst.Imm >> 5 {
				case 0:
					return "srli"
				case int32(F7_ALT):
					return "srai"
				}
			default:
				return [8]string{
					"addi", "", "slti", "sltiu", "xori", "", "ori", "andi",
				}[inst.Funct3]
			}
		case OP_LOAD:
			return [8]string{
				"lb", "lh", "lw", "", "lbu", "lhu", "", "",
			}[inst.Funct3]
		case OP_JALR:
			if inst.Funct3 == 0 {
				return "jalr"
			}
		case OP_FENCE:
			return "fence"
		case OP_SYSTEM:
			if inst.Funct3 == 0 && inst.Imm == IMM_ECALL {
				return "ecall"
			} else if inst.Funct3 == 0 && inst.Imm == IMM_EBREAK {
				return "ebreak"
			}
		}

	case SType:
		if inst.Funct3 <= F3_SW {
			return [3]string{"sb", "sh", "sw"}[inst.Funct3]
		}

	case BType:
		return [8]string{
			"beq", "bne", "", "", "blt", "bge", "bltu", "bgeu",
		}[inst.Funct3]

	case UType:
		if inst.Opcode == OP_LUI {
			return "lui"
		}
		return "auipc"

	case JType:
		return "jal"
	}

	return ""
}

// Disassemble renders inst as assembly text, using ABI register names when
// abi is set.
func Disassemble(inst Instruction, abi bool) string {
	name := Mnemonic(inst)
	reg := func(i uint8) string { return RegisterName(i, abi) }

	if name == "" {
		switch inst := inst.(type) {
		case Unimplemented:
			return fmt.Sprintf("unimp (opcode %#02x)", inst.Opcode)
		default:
			return fmt.Sprintf("illegal (%s-type opcode %#02x)", inst.Format(), inst.Op())
		}
	}

	switch inst := inst.(type) {
	case RType:
		return fmt.Sprintf("%s %s, %s, %s", name, reg(inst.Rd), reg(inst.Rs1), reg(inst.Rs2))

	case IType:
		switch inst.Opcode {
		case OP_LOAD:
			return fmt.Sprintf("%s %s, %d(%s)", name, reg(inst.Rd), inst.Imm, reg(inst.Rs1))
		case OP_JALR:
			return fmt.Sprintf("%s %s, %d(%s)", name, reg(inst.Rd), inst.Imm, reg(inst.Rs1))
		case OP_FENCE, OP_SYSTEM:
			return name
		}

		if inst.Funct3 == F3_SLL || inst.Funct3 == F3_SRL {
			return fmt.Sprintf("%s %s, %s, %d", name, reg(inst.Rd), reg(inst.Rs1), inst.Imm&0x1F)
		}

		return fmt.Sprintf("%s %s, %s, %d", name, reg(inst.Rd), reg(inst.Rs1), inst.Imm)

	case SType:
		return fmt.Sprintf("%s %s, %d(%s)", name, reg(inst.Rs2), inst.Imm, reg(inst.Rs1))

	case BType:
		return fmt.Sprintf("%s %s, %s, %d", name, reg(inst.Rs1), reg(inst.Rs2), inst.Imm)

	case UType:
		return fmt.Sprintf("%s %s, %#x", name, reg(inst.Rd), uint32(inst.Imm)>>12)

	case JType:
		return fmt.Sprintf("%s %s, %d", name, reg(inst.Rd), inst.Imm)
	}

	return name
}

func (i RType) String() string         { return Disassemble(i, false) }
func (i IType) String() string         { return Disassemble(i, false) }
func (i SType) String() string         { return Disassemble(i, false) }
func (i BType) String() string         { return Disassemble(i, false) }
func (i UType) String() string         { return Disassemble(i, false) }
func (i JType) String() string         { return Disassemble(i, false) }
func (i Unimplemented) String() string { return Disassemble(i, false) }
