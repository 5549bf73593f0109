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

package assembler

import (
	"github.com/lassandro/gorv32i/pkg/decoder"
)

const (
	INSTRUCTION_INVALID InstructionType = iota
	INSTRUCTION_REG                     // op rd, rs1, rs2
	INSTRUCTION_IMM                     // op rd, rs1, imm12
	INSTRUCTION_SHIFT                   // op rd, rs1, shamt
	INSTRUCTION_LOAD                    // op rd, imm(rs1)
	INSTRUCTION_STORE                   // op rs2, imm(rs1)
	INSTRUCTION_BRANCH                  // op rs1, rs2, target
	INSTRUCTION_UPPER                   // op rd, imm20
	INSTRUCTION_JAL                     // jal [rd,] target
	INSTRUCTION_JALR                    // jalr [rd,] imm(rs1) | jalr rd, rs1, imm
	INSTRUCTION_BARE                    // ecall, ebreak, fence

	// Pseudo instructions
	INSTRUCTION_NOP
	INSTRUCTION_MV
	INSTRUCTION_NOT
	INSTRUCTION_LI
	INSTRUCTION_J
	INSTRUCTION_RET
	INSTRUCTION_BEQZ
	INSTRUCTION_BNEZ

	// Directives
	INSTRUCTION_WORD
)

type opcodeInfo struct {
	Type   InstructionType
	Opcode uint8
	Funct3 uint8
	Funct7 uint8
	Imm    int32
}

var instructions = map[string]opcodeInfo{
	"add":  {INSTRUCTION_REG, decoder.OP_REG, decoder.F3_ADD, decoder.F7_BASE, 0},
	"sub":  {INSTRUCTION_REG, decoder.OP_REG, decoder.F3_ADD, decoder.F7_ALT, 0},
	"sll":  {INSTRUCTION_REG, decoder.OP_REG, decoder.F3_SLL, decoder.F7_BASE, 0},
	"slt":  {INSTRUCTION_REG, decoder.OP_REG, decoder.F3_SLT, decoder.F7_BASE, 0},
	"sltu": {INSTRUCTION_REG, decoder.OP_REG, decoder.F3_SLTU, decoder.F7_BASE, 0},
	"xor":  {INSTRUCTION_REG, decoder.OP_REG, decoder.F3_XOR, decoder.F7_BASE, 0},
	"srl":  {INSTRUCTION_REG, decoder.OP_REG, decoder.F3_SRL, decoder.F7_BASE, 0},
	"sra":  {INSTRUCTION_REG, decoder.OP_REG, decoder.F3_SRL, decoder.F7_ALT, 0},
	"or":   {INSTRUCTION_REG, decoder.OP_REG, decoder.F3_OR, decoder.F7_BASE, 0},
	"and":  {INSTRUCTION_REG, decoder.OP_REG, decoder.F3_AND, decoder.F7_BASE, 0},

	"addi":  {INSTRUCTION_IMM, decoder.OP_IMM, decoder.F3_ADD, 0, 0},
	"slti":  {INSTRUCTION_IMM, decoder.OP_IMM, decoder.F3_SLT, 0, 0},
	"sltiu": {INSTRUCTION_IMM, decoder.OP_IMM, decoder.F3_SLTU, 0, 0},
	"xori":  {INSTRUCTION_IMM, decoder.OP_IMM, decoder.F3_XOR, 0, 0},
	"ori":   {INSTRUCTION_IMM, decoder.OP_IMM, decoder.F3_OR, 0, 0},
	"andi":  {INSTRUCTION_IMM, decoder.OP_IMM, decoder.F3_AND, 0, 0},

	"slli": {INSTRUCTION_SHIFT, decoder.OP_IMM, decoder.F3_SLL, decoder.F7_BASE, 0},
	"srli": {INSTRUCTION_SHIFT, decoder.OP_IMM, decoder.F3_SRL, decoder.F7_BASE, 0},
	"srai": {INSTRUCTION_SHIFT, decoder.OP_IMM, decoder.F3_SRL, decoder.F7_ALT, 0},

	"lb":  {INSTRUCTION_LOAD, decoder.OP_LOAD, decoder.F3_LB, 0, 0},
	"lh":  {INSTRUCTION_LOAD, decoder.OP_LOAD, decoder.F3_LH, 0, 0},
	"lw":  {INSTRUCTION_LOAD, decoder.OP_LOAD, decoder.F3_LW, 0, 0},
	"lbu": {INSTRUCTION_LOAD, decoder.OP_LOAD, decoder.F3_LBU, 0, 0},
	"lhu": {INSTRUCTION_LOAD, decoder.OP_LOAD, decoder.F3_LHU, 0, 0},

	"sb": {INSTRUCTION_STORE, decoder.OP_STORE, decoder.F3_SB, 0, 0},
	"sh": {INSTRUCTION_STORE, decoder.OP_STORE, decoder.F3_SH, 0, 0},
	"sw": {INSTRUCTION_STORE, decoder.OP_STORE, decoder.F3_SW, 0, 0},

	"beq":  {INSTRUCTION_BRANCH, decoder.OP_BRANCH, decoder.F3_BEQ, 0, 0},
	"bne":  {INSTRUCTION_BRANCH, decoder.OP_BRANCH, decoder.F3_BNE, 0, 0},
	"blt":  {INSTRUCTION_BRANCH, decoder.OP_BRANCH, decoder.F3_BLT, 0, 0},
	"bge":  {INSTRUCTION_BRANCH, decoder.OP_BRANCH, decoder.F3_BGE, 0, 0},
	"bltu": {INSTRUCTION_BRANCH, decoder.OP_BRANCH, decoder.F3_BLTU, 0, 0},
	"bgeu": {INSTRUCTION_BRANCH, decoder.OP_BRANCH, decoder.F3_BGEU, 0, 0},

	"lui":   {INSTRUCTION_UPPER, decoder.OP_LUI, 0, 0, 0},
	"auipc": {INSTRUCTION_UPPER, decoder.OP_AUIPC, 0, 0, 0},

	"jal":  {INSTRUCTION_JAL, decoder.OP_JAL, 0, 0, 0},
	"jalr": {INSTRUCTION_JALR, decoder.OP_JALR, 0, 0, 0},

	"ecall":  {INSTRUCTION_BARE, decoder.OP_SYSTEM, 0, 0, decoder.IMM_ECALL},
	"ebreak": {INSTRUCTION_BARE, decoder.OP_SYSTEM, 0, 0, decoder.IMM_EBREAK},
	"fence":  {INSTRUCTION_BARE, decoder.OP_FENCE, 0, 0, 0x0FF},

	"nop":  {Type: INSTRUCTION_NOP},
	"mv":   {Type: INSTRUCTION_MV},
	"not":  {Type: INSTRUCTION_NOT},
	"li":   {Type: INSTRUCTION_LI},
	"j":    {Type: INSTRUCTION_J},
	"ret":  {Type: INSTRUCTION_RET},
	"beqz": {Type: INSTRUCTION_BEQZ, Funct3: decoder.F3_BEQ},
	"bnez": {Type: INSTRUCTION_BNEZ, Funct3: decoder.F3_BNE},

	".word": {Type: INSTRUCTION_WORD},
}
