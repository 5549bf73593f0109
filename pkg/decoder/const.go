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

const (
	OP_LOAD   uint8 = 0b0000011
	OP_FENCE  uint8 = 0b0001111
	OP_IMM    uint8 = 0b0010011
	OP_AUIPC  uint8 = 0b0010111
	OP_STORE  uint8 = 0b0100011
	OP_REG    uint8 = 0b0110011
	OP_LUI    uint8 = 0b0110111
	OP_BRANCH uint8 = 0b1100011
	OP_JALR   uint8 = 0b1100111
	OP_JAL    uint8 = 0b1101111
	OP_SYSTEM uint8 = 0b1110011
)

// Loads
const (
	F3_LB  uint8 = 0b000
	F3_LH  uint8 = 0b001
	F3_LW  uint8 = 0b010
	F3_LBU uint8 = 0b100
	F3_LHU uint8 = 0b101
)

// Stores
const (
	F3_SB uint8 = 0b000
	F3_SH uint8 = 0b001
	F3_SW uint8 = 0b010
)

// Branches
const (
	F3_BEQ  uint8 = 0b000
	F3_BNE  uint8 = 0b001
	F3_BLT  uint8 = 0b100
	F3_BGE  uint8 = 0b101
	F3_BLTU uint8 = 0b110
	F3_BGEU uint8 = 0b111
)

// ALU, shared by OP_REG and OP_IMM
const (
	F3_ADD  uint8 = 0b000
	F3_SLL  uint8 = 0b001
	F3_SLT  uint8 = 0b010
	F3_SLTU uint8 = 0b011
	F3_XOR  uint8 = 0b100
	F3_SRL  uint8 = 0b101
	F3_OR   uint8 = 0b110
	F3_AND  uint8 = 0b111
)

const (
	F7_BASE uint8 = 0b0000000
	F7_ALT  uint8 = 0b0100000
)

const (
	IMM_ECALL  int32 = 0
	IMM_EBREAK int32 = 1
)
