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
	"github.com/lassandro/gorv32i/pkg/encoding"
)

func opcode(word uint32) uint8 { return uint8(word & 0x7F) }
func rd(word uint32) uint8     { return uint8((word >> 7) & 0x1F) }
func funct3(word uint32) uint8 { return uint8((word >> 12) & 0x7) }
func rs1(word uint32) uint8    { return uint8((word >> 15) & 0x1F) }
func rs2(word uint32) uint8    { return uint8((word >> 20) & 0x1F) }
func funct7(word uint32) uint8 { return uint8(word >> 25) }

// imm[11:0] = inst[31:20]
func immI(word uint32) int32 {
	return int32(encoding.SignExtend(word>>20, 12))
}

// imm[11:5] = inst[31:25], imm[4:0] = inst[11:7]
func immS(word uint32) int32 {
	imm := (word>>25)<<5 | (word>>7)&0x1F
	return int32(encoding.SignExtend(imm, 12))
}

// imm[12|10:5|4:1|11] = inst[31|30:25|11:8|7]
func immB(word uint32) int32 {
	imm := (word>>31)<<12 |
		((word>>7)&0x1)<<11 |
		((word>>25)&0x3F)<<5 |
		((word>>8)&0xF)<<1
	return int32(encoding.SignExtend(imm, 13))
}

// imm[31:12] = inst[31:12]
func immU(word uint32) int32 {
	return int32(word & 0xFFFFF000)
}

// imm[20|10:1|11|19:12] = inst[31|30:21|20|19:12]
func immJ(word uint32) int32 {
	imm := (word>>31)<<20 |
		((word>>12)&0xFF)<<12 |
		((word>>20)&0x1)<<11 |
		((word>>21)&0x3FF)<<1
	return int32(encoding.SignExtend(imm, 21))
}

// Decode never fails: words outside RV32I come back as Unimplemented.
func Decode(word uint32) Instruction {
	op := opcode(word)

	switch op {
	// R    |funct7 |rs2  |rs1  |f3 |rd   |opcode |
	// ---- [31   25|24 20|19 15|14 12|11 7|6     0]
	case OP_REG:
		return RType{
			Opcode: op,
			Rd:     rd(word),
			Funct3: funct3(word),
			Rs1:    rs1(word),
			Rs2:    rs2(word),
			Funct7: funct7(word),
		}

	// I    |imm[11:0]    |rs1  |f3 |rd   |opcode |
	// ---- [31         20|19 15|14 12|11 7|6     0]
	case OP_IMM, OP_LOAD, OP_JALR, OP_FENCE, OP_SYSTEM:
		return IType{
			Opcode: op,
			Rd:     rd(word),
			Funct3: funct3(word),
			Rs1:    rs1(word),
			Imm:    immI(word),
		}

	// S    |imm[11:5]|rs2  |rs1  |f3 |imm[4:0]|opcode |
	// ---- [31     25|24 20|19 15|14 12|11    7|6     0]
	case OP_STORE:
		return SType{
			Opcode: op,
			Funct3: funct3(word),
			Rs1:    rs1(word),
			Rs2:    rs2(word),
			Imm:    immS(word),
		}

	// B    |imm[12|10:5]|rs2  |rs1  |f3 |imm[4:1|11]|opcode |
	// ---- [31        25|24 20|19 15|14 12|11       7|6     0]
	case OP_BRANCH:
		return BType{
			Opcode: op,
			Funct3: funct3(word),
			Rs1:    rs1(word),
			Rs2:    rs2(word),
			Imm:    immB(word),
		}

	// U    |imm[31:12]              |rd   |opcode |
	// ---- [31                    12|11  7|6     0]
	case OP_LUI, OP_AUIPC:
		return UType{
			Opcode: op,
			Rd:     rd(word),
			Imm:    immU(word),
		}

	// J    |imm[20|10:1|11|19:12]   |rd   |opcode |
	// ---- [31                    12|11  7|6     0]
	case OP_JAL:
		return JType{
			Opcode: op,
			Rd:     rd(word),
			Imm:    immJ(word),
		}

	default:
		return Unimplemented{Opcode: op, Word: word}
	}
}
