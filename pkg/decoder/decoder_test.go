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

package decoder_test

import (
	"math/rand"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/lassandro/gorv32i/pkg/decoder"
)

var _ = Describe("Decoder", func() {
	Describe("R-type", func() {
		// add x3, x1, x2 -> 0x002081B3
		It("should decode add x3, x1, x2", func() {
			inst := decoder.Decode(0x002081B3)

			Expect(inst).To(Equal(decoder.RType{
				Opcode: decoder.OP_REG,
				Rd:     3,
				Funct3: decoder.F3_ADD,
				Rs1:    1,
				Rs2:    2,
				Funct7: decoder.F7_BASE,
			}))
			Expect(inst.Format()).To(Equal(decoder.FormatR))
			Expect(inst.String()).To(Equal("add x3, x1, x2"))
		})

		// sub x3, x1, x2 -> 0x402081B3
		It("should decode sub x3, x1, x2", func() {
			inst := decoder.Decode(0x402081B3).(decoder.RType)

			Expect(inst.Funct7).To(Equal(decoder.F7_ALT))
			Expect(inst.String()).To(Equal("sub x3, x1, x2"))
		})
	})

	Describe("I-type", func() {
		// addi x1, x0, 5 -> 0x00500093
		It("should decode addi x1, x0, 5", func() {
			inst := decoder.Decode(0x00500093)

			Expect(inst).To(Equal(decoder.IType{
				Opcode: decoder.OP_IMM,
				Rd:     1,
				Funct3: decoder.F3_ADD,
				Rs1:    0,
				Imm:    5,
			}))
		})

		// addi x1, x0, -1 -> 0xFFF00093
		It("should sign-extend imm 0xFFF to -1", func() {
			inst := decoder.Decode(0xFFF00093).(decoder.IType)

			Expect(inst.Imm).To(Equal(int32(-1)))
		})

		// addi x1, x0, 2047 -> 0x7FF00093
		It("should leave imm 0x7FF positive", func() {
			inst := decoder.Decode(0x7FF00093).(decoder.IType)

			Expect(inst.Imm).To(Equal(int32(2047)))
		})

		// lw x5, 8(x2) -> 0x00812283
		It("should decode lw x5, 8(x2)", func() {
			inst := decoder.Decode(0x00812283)

			Expect(inst).To(Equal(decoder.IType{
				Opcode: decoder.OP_LOAD,
				Rd:     5,
				Funct3: decoder.F3_LW,
				Rs1:    2,
				Imm:    8,
			}))
			Expect(decoder.Disassemble(inst, true)).To(Equal("lw t0, 8(sp)"))
		})

		// srai x1, x1, 3 -> 0x4030D093
		It("should decode srai x1, x1, 3", func() {
			inst := decoder.Decode(0x4030D093).(decoder.IType)

			Expect(inst.Funct3).To(Equal(decoder.F3_SRL))
			Expect(inst.Imm).To(Equal(int32(0x403)))
			Expect(inst.String()).To(Equal("srai x1, x1, 3"))
		})

		It("should decode ecall and ebreak as zero-operand I-type", func() {
			ecall := decoder.Decode(0x00000073).(decoder.IType)
			ebreak := decoder.Decode(0x00100073).(decoder.IType)

			Expect(ecall.Opcode).To(Equal(decoder.OP_SYSTEM))
			Expect(ecall.Imm).To(Equal(decoder.IMM_ECALL))
			Expect(ecall.String()).To(Equal("ecall"))
			Expect(ebreak.Imm).To(Equal(decoder.IMM_EBREAK))
			Expect(ebreak.String()).To(Equal("ebreak"))
		})

		// fence iorw, iorw -> 0x0FF0000F
		It("should decode fence", func() {
			inst := decoder.Decode(0x0FF0000F)

			Expect(inst.Format()).To(Equal(decoder.FormatI))
			Expect(inst.Op()).To(Equal(decoder.OP_FENCE))
			Expect(inst.String()).To(Equal("fence"))
		})
	})

	Describe("S-type", func() {
		// sw x2, -4(x1) -> 0xFE20AE23
		It("should decode sw x2, -4(x1)", func() {
			inst := decoder.Decode(0xFE20AE23)

			Expect(inst).To(Equal(decoder.SType{
				Opcode: decoder.OP_STORE,
				Funct3: decoder.F3_SW,
				Rs1:    1,
				Rs2:    2,
				Imm:    -4,
			}))
			Expect(inst.String()).To(Equal("sw x2, -4(x1)"))
		})
	})

	Describe("B-type", func() {
		// beq x0, x0, 8 -> 0x00000463
		It("should decode beq x0, x0, 8", func() {
			inst := decoder.Decode(0x00000463)

			Expect(inst).To(Equal(decoder.BType{
				Opcode: decoder.OP_BRANCH,
				Funct3: decoder.F3_BEQ,
				Imm:    8,
			}))
		})

		// beq x0, x0, -4 -> 0xFE000EE3
		It("should sign-extend from imm[12]", func() {
			inst := decoder.Decode(0xFE000EE3).(decoder.BType)

			Expect(inst.Imm).To(Equal(int32(-4)))
		})
	})

	Describe("U-type", func() {
		// lui x1, 0x10000 -> 0x100000B7
		It("should decode lui x1, 0x10000", func() {
			inst := decoder.Decode(0x100000B7)

			Expect(inst).To(Equal(decoder.UType{
				Opcode: decoder.OP_LUI,
				Rd:     1,
				Imm:    0x10000000,
			}))
			Expect(inst.String()).To(Equal("lui x1, 0x10000"))
		})

		// auipc x5, 1 -> 0x00001297
		It("should decode auipc x5, 1", func() {
			inst := decoder.Decode(0x00001297).(decoder.UType)

			Expect(inst.Opcode).To(Equal(decoder.OP_AUIPC))
			Expect(inst.Imm).To(Equal(int32(0x1000)))
		})
	})

	Describe("J-type", func() {
		// jal x1, 16 -> 0x010000EF
		It("should decode jal x1, 16", func() {
			inst := decoder.Decode(0x010000EF)

			Expect(inst).To(Equal(decoder.JType{
				Opcode: decoder.OP_JAL,
				Rd:     1,
				Imm:    16,
			}))
		})

		// jal x0, -8 -> 0xFF9FF06F
		It("should sign-extend from imm[20]", func() {
			inst := decoder.Decode(0xFF9FF06F).(decoder.JType)

			Expect(inst.Imm).To(Equal(int32(-8)))
			Expect(decoder.Disassemble(inst, true)).To(Equal("jal zero, -8"))
		})
	})

	Describe("Unimplemented", func() {
		It("should map the zero word to Unimplemented", func() {
			inst := decoder.Decode(0x00000000)

			Expect(inst).To(Equal(decoder.Unimplemented{Opcode: 0, Word: 0}))
			Expect(inst.Format()).To(Equal(decoder.FormatUnimplemented))
		})

		It("should map opcodes outside the RV32I table", func() {
			// flw f0, 0(x0) uses the LOAD-FP opcode 0b0000111
			inst := decoder.Decode(0x00002007)

			Expect(inst).To(BeAssignableToTypeOf(decoder.Unimplemented{}))
			Expect(inst.Op()).To(Equal(uint8(0b0000111)))
		})
	})

	Describe("Totality", func() {
		isVariant := func(inst decoder.Instruction) bool {
			switch inst.(type) {
			case decoder.RType, decoder.IType, decoder.SType, decoder.BType,
				decoder.UType, decoder.JType, decoder.Unimplemented:
				return true
			}
			return false
		}

		It("should return exactly one variant for every opcode", func() {
			for op := uint32(0); op < 0x80; op++ {
				for _, high := range []uint32{0, 0xFFFFFF80, 0x80000000, 0x7FFFFF80} {
					word := high | op
					Expect(func() { decoder.Decode(word) }).NotTo(Panic())
					inst := decoder.Decode(word)
					Expect(isVariant(inst)).To(BeTrue())
					Expect(inst.Op()).To(Equal(uint8(op)))
					Expect(inst.String()).NotTo(BeEmpty())
				}
			}
		})

		It("should be deterministic over random words", func() {
			rng := rand.New(rand.NewSource(1))

			for i := 0; i < 200000; i++ {
				word := rng.Uint32()
				Expect(isVariant(decoder.Decode(word))).To(BeTrue())
				Expect(decoder.Decode(word)).To(Equal(decoder.Decode(word)))
			}
		})
	})

	Describe("Sign extension", func() {
		type signCase struct {
			name string
			word uint32
			imm  func(decoder.Instruction) int32
		}

		cases := []signCase{
			{"I", 0x80000013, func(i decoder.Instruction) int32 { return i.(decoder.IType).Imm }},
			{"S", 0x80000023, func(i decoder.Instruction) int32 { return i.(decoder.SType).Imm }},
			{"B", 0x80000063, func(i decoder.Instruction) int32 { return i.(decoder.BType).Imm }},
			{"U", 0x80000037, func(i decoder.Instruction) int32 { return i.(decoder.UType).Imm }},
			{"J", 0x8000006F, func(i decoder.Instruction) int32 { return i.(decoder.JType).Imm }},
		}

		for _, c := range cases {
			c := c

			It("should produce a negative "+c.name+"-type immediate when the sign bit is set", func() {
				Expect(c.imm(decoder.Decode(c.word))).To(BeNumerically("<", 0))
			})

			It("should produce a non-negative "+c.name+"-type immediate when the sign bit is clear", func() {
				Expect(c.imm(decoder.Decode(c.word &^ 0x80000000))).To(BeNumerically(">=", 0))
			})
		}

		It("should keep B and J offsets even", func() {
			rng := rand.New(rand.NewSource(2))

			for i := 0; i < 10000; i++ {
				word := rng.Uint32()
				b := decoder.Decode(word&^0x7F | uint32(decoder.OP_BRANCH)).(decoder.BType)
				j := decoder.Decode(word&^0x7F | uint32(decoder.OP_JAL)).(decoder.JType)
				Expect(b.Imm & 1).To(BeZero())
				Expect(j.Imm & 1).To(BeZero())
			}
		})
	})
})

var _ = Describe("Registers", func() {
	It("should name registers numerically and by ABI", func() {
		Expect(decoder.RegisterName(0, false)).To(Equal("x0"))
		Expect(decoder.RegisterName(0, true)).To(Equal("zero"))
		Expect(decoder.RegisterName(2, true)).To(Equal("sp"))
		Expect(decoder.RegisterName(31, true)).To(Equal("t6"))
	})

	It("should parse both naming schemes", func() {
		for i := uint8(0); i < 32; i++ {
			n, ok := decoder.ParseRegister(decoder.RegisterName(i, false))
			Expect(ok).To(BeTrue())
			Expect(n).To(Equal(i))

			n, ok = decoder.ParseRegister(decoder.RegisterName(i, true))
			Expect(ok).To(BeTrue())
			Expect(n).To(Equal(i))
		}

		n, ok := decoder.ParseRegister("fp")
		Expect(ok).To(BeTrue())
		Expect(n).To(Equal(uint8(8)))

		for _, bad := range []string{"x32", "x01", "x", "r1", "x-1", ""} {
			_, ok := decoder.ParseRegister(bad)
			Expect(ok).To(BeFalse(), bad)
		}
	})
})
