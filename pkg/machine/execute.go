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

package machine

import (
	"github.com/lassandro/gorv32i/pkg/decoder"
	"github.com/lassandro/gorv32i/pkg/encoding"
)

func alu(funct3 uint8, alt bool, a, b uint32) uint32 {
	switch funct3 {
	case decoder.F3_ADD:
		if alt {
			return a - b
		}
		return a + b
	case decoder.F3_SLL:
		return a << (b & 0x1F)
	case decoder.F3_SLT:
		if int32(a) < int32(b) {
			return 1
		}
		return 0
	case decoder.F3_SLTU:
		if a < b {
			return 1
		}
		return 0
	case decoder.F3_XOR:
		return a ^ b
	case decoder.F3_SRL:
		if alt {
			return uint32(int32(a) >> (b & 0x1F))
		}
		return a >> (b & 0x1F)
	case decoder.F3_OR:
		return a | b
	default:
		return a & b
	}
}

func (mc *Machine) illegal(inst decoder.Instruction) (Outcome, error) {
	return Fault, &FaultError{
		Kind:   IllegalInstruction,
		PC:     mc.PC,
		Opcode: inst.Op(),
		Word:   mc.word,
	}
}

// Execute applies inst to the machine as the instruction at mc.PC. Control
// transfers set mc.PC themselves; for everything else the caller advances
// the program counter. A Fault outcome comes with a *FaultError, unless an
// observer reset the machine during a memory access.
func (mc *Machine) Execute(inst decoder.Instruction) (Outcome, error) {
	regs := &mc.Registers
	pc := mc.PC
	mc.aborted = false

	switch inst := inst.(type) {
	// R    |funct7 |rs2  |rs1  |f3 |rd   |0110011|
	// ---- [ add sub sll slt sltu xor srl sra or and ]
	case decoder.RType:
		a := regs.Read(inst.Rs1)
		b := regs.Read(inst.Rs2)

		switch inst.Funct7 {
		case decoder.F7_BASE:
			regs.Write(inst.Rd, alu(inst.Funct3, false, a, b))
		case decoder.F7_ALT:
			if inst.Funct3 != decoder.F3_ADD && inst.Funct3 != decoder.F3_SRL {
				return mc.illegal(inst)
			}
			regs.Write(inst.Rd, alu(inst.Funct3, true, a, b))
		default:
			return mc.illegal(inst)
		}

	case decoder.IType:
		switch inst.Opcode {
		// I    |imm[11:0]    |rs1  |f3 |rd   |0010011|
		// ---- [ addi slti sltiu xori ori andi slli srli srai ]
		case decoder.OP_IMM:
			a := regs.Read(inst.Rs1)
			b := uint32(inst.Imm)
			alt := false

			switch inst.Funct3 {
			case decoder.F3_SLL:
				if inst.Imm>>5 != 0 {
					return mc.illegal(inst)
				}
			case decoder.F3_SRL:
				if upper := inst.Imm >> 5; upper != 0 && upper != int32(decoder.F7_ALT) {
					return mc.illegal(inst)
				}
				alt = (inst.Imm>>10)&0x1 == 1
			}

			regs.Write(inst.Rd, alu(inst.Funct3, alt, a, b))

		// I    |imm[11:0]    |rs1  |f3 |rd   |0000011|
		// ---- [ lb lh lw lbu lhu ]
		case decoder.OP_LOAD:
			addr := regs.Read(inst.Rs1) + uint32(inst.Imm)

			var width uint32
			var signed bool

			switch inst.Funct3 {
			case decoder.F3_LB:
				width, signed = WIDTH_BYTE, true
			case decoder.F3_LH:
				width, signed = WIDTH_HALF, true
			case decoder.F3_LW:
				width = WIDTH_WORD
			case decoder.F3_LBU:
				width = WIDTH_BYTE
			case decoder.F3_LHU:
				width = WIDTH_HALF
			default:
				return mc.illegal(inst)
			}

			value, err := mc.load(addr, width)
			if err != nil {
				return Fault, err
			}

			if signed {
				value = encoding.SignExtend(value, uint(width*8))
			}

			regs.Write(inst.Rd, value)

		// I    |imm[11:0]    |rs1  |000|rd   |1100111|
		// ---- [ jalr ]
		case decoder.OP_JALR:
			if inst.Funct3 != 0 {
				return mc.illegal(inst)
			}

			// rs1 is read before rd is written; they may be the same register
			target := (regs.Read(inst.Rs1) + uint32(inst.Imm)) &^ 1
			regs.Write(inst.Rd, pc+InstructionSize)
			mc.jump(target)

		// I    |fm pred succ |rs1  |f3 |rd   |0001111|
		// ---- [ fence fence.i ]
		case decoder.OP_FENCE:
			// A single hart sees its own accesses in order

		// I    |imm[11:0]    |00000|000|00000|1110011|
		// ---- [ ecall ebreak ]
		case decoder.OP_SYSTEM:
			if inst.Funct3 != 0 {
				return mc.illegal(inst)
			}

			switch inst.Imm {
			case decoder.IMM_ECALL:
				mc.halt(HaltNormal)
			case decoder.IMM_EBREAK:
				mc.halt(HaltBreakpoint)
			default:
				return mc.illegal(inst)
			}

			return Halt, nil

		default:
			return mc.illegal(inst)
		}

	// S    |imm[11:5]|rs2  |rs1  |f3 |imm[4:0]|0100011|
	// ---- [ sb sh sw ]
	case decoder.SType:
		addr := regs.Read(inst.Rs1) + uint32(inst.Imm)

		var width uint32

		switch inst.Funct3 {
		case decoder.F3_SB:
			width = WIDTH_BYTE
		case decoder.F3_SH:
			width = WIDTH_HALF
		case decoder.F3_SW:
			width = WIDTH_WORD
		default:
			return mc.illegal(inst)
		}

		if err := mc.store(addr, width, regs.Read(inst.Rs2)); err != nil {
			return Fault, err
		}

	// B    |imm[12|10:5]|rs2  |rs1  |f3 |imm[4:1|11]|1100011|
	// ---- [ beq bne blt bge bltu bgeu ]
	case decoder.BType:
		a := regs.Read(inst.Rs1)
		b := regs.Read(inst.Rs2)

		var taken bool

		switch inst.Funct3 {
		case decoder.F3_BEQ:
			taken = a == b
		case decoder.F3_BNE:
			taken = a != b
		case decoder.F3_BLT:
			taken = int32(a) < int32(b)
		case decoder.F3_BGE:
			taken = int32(a) >= int32(b)
		case decoder.F3_BLTU:
			taken = a < b
		case decoder.F3_BGEU:
			taken = a >= b
		default:
			return mc.illegal(inst)
		}

		if taken {
			mc.jump(pc + uint32(inst.Imm))
		}

	// U    |imm[31:12]              |rd   |0?10111|
	// ---- [ lui auipc ]
	case decoder.UType:
		if inst.Opcode == decoder.OP_LUI {
			regs.Write(inst.Rd, uint32(inst.Imm))
		} else {
			regs.Write(inst.Rd, pc+uint32(inst.Imm))
		}

	// J    |imm[20|10:1|11|19:12]   |rd   |1101111|
	// ---- [ jal ]
	case decoder.JType:
		regs.Write(inst.Rd, pc+InstructionSize)
		mc.jump(pc + uint32(inst.Imm))

	case decoder.Unimplemented:
		return Fault, &FaultError{
			Kind:   UnsupportedOpcode,
			PC:     pc,
			Opcode: inst.Opcode,
			Word:   inst.Word,
		}

	default:
		return Fault, &FaultError{Kind: UnsupportedOpcode, PC: pc, Word: mc.word}
	}

	return Continue, nil
}
