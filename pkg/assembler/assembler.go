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
	"bufio"
	"encoding/binary"
	"io"
	"strconv"
	"strings"
	"unicode"

	"github.com/lassandro/gorv32i/pkg/decoder"
)

type sourceLine struct {
	Addr     uint32
	Size     uint32
	Mnemonic Operand
	Operands []Operand
}

func isIdent(s string) bool {
	if len(s) == 0 {
		return false
	}

	for i, char := range s {
		switch {
		case char == '_' || char == '.':
		case char > unicode.MaxASCII:
			return false
		case unicode.IsLetter(char):
		case unicode.IsDigit(char) && i > 0:
		default:
			return false
		}
	}

	return true
}

// Splits s on commas, keeping the column of every non-empty piece.
func splitOperands(s string, line, column int) []Operand {
	operands := make([]Operand, 0, 3)

	for len(s) > 0 {
		end := strings.IndexByte(s, ',')
		if end == -1 {
			end = len(s)
		}

		piece := s[:end]
		trimmed := strings.TrimSpace(piece)
		lead := len(piece) - len(strings.TrimLeftFunc(piece, unicode.IsSpace))

		operands = append(operands, Operand{
			Position: Cursor{Line: line, Column: column + lead},
			Value:    trimmed,
		})

		if end == len(s) {
			break
		}

		s = s[end+1:]
		column += end + 1
	}

	return operands
}

func parseNumber(operand Operand) (int64, error) {
	value := operand.Value

	if len(value) == 3 && value[0] == '\'' && value[2] == '\'' {
		return int64(value[1]), nil
	}

	result, err := strconv.ParseInt(value, 0, 64)

	if err != nil {
		return 0, &InvalidLiteralError{operand.Position}
	}

	return result, nil
}

func parseImmediate(operand Operand, min, max int64) (int32, error) {
	value, err := parseNumber(operand)

	if err != nil {
		return 0, err
	}

	if value < min || value > max {
		return 0, &OversizedLiteralError{operand.Position, min, max, value}
	}

	return int32(value), nil
}

func parseRegister(operand Operand) (uint8, error) {
	if reg, ok := decoder.ParseRegister(operand.Value); ok {
		return reg, nil
	}

	return 0, &InvalidRegisterError{operand.Position, operand.Value}
}

// Parses offset(register); the offset may be omitted.
func parseAddress(operand Operand) (int32, uint8, error) {
	open := strings.IndexByte(operand.Value, '(')

	if open == -1 || !strings.HasSuffix(operand.Value, ")") {
		return 0, 0, &InvalidAddressError{operand.Position, operand.Value}
	}

	var imm int32
	var err error

	if offset := strings.TrimSpace(operand.Value[:open]); offset != "" {
		imm, err = parseImmediate(Operand{operand.Position, offset}, -2048, 2047)

		if err != nil {
			return 0, 0, err
		}
	}

	reg, err := parseRegister(Operand{
		Position: Cursor{operand.Position.Line, operand.Position.Column + open + 1},
		Value:    strings.TrimSpace(operand.Value[open+1 : len(operand.Value)-1]),
	})

	return imm, reg, err
}

// Resolves a branch or jump target into a pc-relative offset. Numeric
// targets are offsets already, matching the disassembler's output.
func parseTarget(operand Operand, addr uint32, labels map[string]uint32, bits uint) (int32, error) {
	var offset int64

	if target, exists := labels[operand.Value]; exists {
		offset = int64(target) - int64(addr)
	} else if isIdent(operand.Value) {
		return 0, &UnknownLabelError{operand.Position, operand.Value}
	} else {
		value, err := parseNumber(operand)

		if err != nil {
			return 0, err
		}

		offset = value
	}

	limit := int64(1) << (bits - 1)

	if offset < -limit || offset >= limit {
		return 0, &OversizedLabelError{operand.Position, limit, offset}
	}

	if offset&1 != 0 {
		return 0, &MisalignedOffsetError{operand.Position, offset}
	}

	return int32(offset), nil
}

func fitsImm12(value int64) bool {
	return value >= -2048 && value <= 2047
}

func checkArgs(line *sourceLine, counts ...int) error {
	for _, count := range counts {
		if len(line.Operands) == count {
			return nil
		}
	}

	return &InvalidNumArgumentsError{line.Mnemonic.Position, counts[0], len(line.Operands)}
}

func lineSize(line *sourceLine) uint32 {
	info := instructions[line.Mnemonic.Value]

	if info.Type == INSTRUCTION_LI && len(line.Operands) == 2 {
		if value, err := parseNumber(line.Operands[1]); err == nil && !fitsImm12(value) {
			return 8
		}
	}

	return 4
}

func assembleLine(line *sourceLine, labels map[string]uint32) ([]uint32, error) {
	info, exists := instructions[line.Mnemonic.Value]

	if !exists {
		return nil, &UnknownIdentifierError{line.Mnemonic.Position, line.Mnemonic.Value}
	}

	ops := line.Operands

	switch info.Type {
	// op rd, rs1, rs2
	case INSTRUCTION_REG:
		if err := checkArgs(line, 3); err != nil {
			return nil, err
		}

		rd, err := parseRegister(ops[0])
		if err != nil {
			return nil, err
		}
		rs1, err := parseRegister(ops[1])
		if err != nil {
			return nil, err
		}
		rs2, err := parseRegister(ops[2])
		if err != nil {
			return nil, err
		}

		return []uint32{EncodeR(info.Opcode, rd, info.Funct3, rs1, rs2, info.Funct7)}, nil

	// op rd, rs1, imm12
	// op rd, rs1, shamt
	case INSTRUCTION_IMM, INSTRUCTION_SHIFT:
		if err := checkArgs(line, 3); err != nil {
			return nil, err
		}

		rd, err := parseRegister(ops[0])
		if err != nil {
			return nil, err
		}
		rs1, err := parseRegister(ops[1])
		if err != nil {
			return nil, err
		}

		var imm int32

		if info.Type == INSTRUCTION_SHIFT {
			imm, err = parseImmediate(ops[2], 0, 31)
			imm |= int32(info.Funct7) << 5
		} else {
			imm, err = parseImmediate(ops[2], -2048, 2047)
		}

		if err != nil {
			return nil, err
		}

		return []uint32{EncodeI(info.Opcode, rd, info.Funct3, rs1, imm)}, nil

	// op rd, imm(rs1)
	case INSTRUCTION_LOAD:
		if err := checkArgs(line, 2); err != nil {
			return nil, err
		}

		rd, err := parseRegister(ops[0])
		if err != nil {
			return nil, err
		}
		imm, rs1, err := parseAddress(ops[1])
		if err != nil {
			return nil, err
		}

		return []uint32{EncodeI(info.Opcode, rd, info.Funct3, rs1, imm)}, nil

	// op rs2, imm(rs1)
	case INSTRUCTION_STORE:
		if err := checkArgs(line, 2); err != nil {
			return nil, err
		}

		rs2, err := parseRegister(ops[0])
		if err != nil {
			return nil, err
		}
		imm, rs1, err := parseAddress(ops[1])
		if err != nil {
			return nil, err
		}

		return []uint32{EncodeS(info.Opcode, info.Funct3, rs1, rs2, imm)}, nil

	// op rs1, rs2, target
	case INSTRUCTION_BRANCH:
		if err := checkArgs(line, 3); err != nil {
			return nil, err
		}

		rs1, err := parseRegister(ops[0])
		if err != nil {
			return nil, err
		}
		rs2, err := parseRegister(ops[1])
		if err != nil {
			return nil, err
		}
		offset, err := parseTarget(ops[2], line.Addr, labels, 13)
		if err != nil {
			return nil, err
		}

		return []uint32{EncodeB(info.Opcode, info.Funct3, rs1, rs2, offset)}, nil

	// op rd, imm20
	case INSTRUCTION_UPPER:
		if err := checkArgs(line, 2); err != nil {
			return nil, err
		}

		rd, err := parseRegister(ops[0])
		if err != nil {
			return nil, err
		}
		imm, err := parseImmediate(ops[1], -(1 << 19), 1<<20-1)
		if err != nil {
			return nil, err
		}

		return []uint32{EncodeU(info.Opcode, rd, uint32(imm))}, nil

	// jal target
	// jal rd, target
	case INSTRUCTION_JAL:
		if err := checkArgs(line, 1, 2); err != nil {
			return nil, err
		}

		var rd uint8 = 1
		var err error

		if len(ops) == 2 {
			if rd, err = parseRegister(ops[0]); err != nil {
				return nil, err
			}
			ops = ops[1:]
		}

		offset, err := parseTarget(ops[0], line.Addr, labels, 21)
		if err != nil {
			return nil, err
		}

		return []uint32{EncodeJ(info.Opcode, rd, offset)}, nil

	// jalr rs1
	// jalr rd, imm(rs1)
	// jalr rd, rs1[, imm]
	case INSTRUCTION_JALR:
		if err := checkArgs(line, 1, 2, 3); err != nil {
			return nil, err
		}

		var rd uint8 = 1
		var rs1 uint8
		var imm int32
		var err error

		switch len(ops) {
		case 1:
			rs1, err = parseRegister(ops[0])
		case 2:
			if rd, err = parseRegister(ops[0]); err != nil {
				return nil, err
			}

			if strings.ContainsRune(ops[1].Value, '(') {
				imm, rs1, err = parseAddress(ops[1])
			} else {
				rs1, err = parseRegister(ops[1])
			}
		case 3:
			if rd, err = parseRegister(ops[0]); err != nil {
				return nil, err
			}
			if rs1, err = parseRegister(ops[1]); err != nil {
				return nil, err
			}
			imm, err = parseImmediate(ops[2], -2048, 2047)
		}

		if err != nil {
			return nil, err
		}

		return []uint32{EncodeI(info.Opcode, rd, 0, rs1, imm)}, nil

	case INSTRUCTION_BARE:
		if err := checkArgs(line, 0); err != nil {
			return nil, err
		}

		return []uint32{EncodeI(info.Opcode, 0, info.Funct3, 0, info.Imm)}, nil

	// addi x0, x0, 0
	case INSTRUCTION_NOP:
		if err := checkArgs(line, 0); err != nil {
			return nil, err
		}

		return []uint32{EncodeI(decoder.OP_IMM, 0, decoder.F3_ADD, 0, 0)}, nil

	// addi rd, rs, 0
	// xori rd, rs, -1
	case INSTRUCTION_MV, INSTRUCTION_NOT:
		if err := checkArgs(line, 2); err != nil {
			return nil, err
		}

		rd, err := parseRegister(ops[0])
		if err != nil {
			return nil, err
		}
		rs, err := parseRegister(ops[1])
		if err != nil {
			return nil, err
		}

		if info.Type == INSTRUCTION_NOT {
			return []uint32{EncodeI(decoder.OP_IMM, rd, decoder.F3_XOR, rs, -1)}, nil
		}

		return []uint32{EncodeI(decoder.OP_IMM, rd, decoder.F3_ADD, rs, 0)}, nil

	// addi rd, x0, imm
	// lui rd, hi; addi rd, rd, lo
	case INSTRUCTION_LI:
		if err := checkArgs(line, 2); err != nil {
			return nil, err
		}

		rd, err := parseRegister(ops[0])
		if err != nil {
			return nil, err
		}
		value, err := parseNumber(ops[1])
		if err != nil {
			return nil, err
		}

		if value < -(1<<31) || value > 1<<32-1 {
			return nil, &OversizedLiteralError{ops[1].Position, -(1 << 31), 1<<32 - 1, value}
		}

		if fitsImm12(value) {
			return []uint32{EncodeI(decoder.OP_IMM, rd, decoder.F3_ADD, 0, int32(value))}, nil
		}

		// The low part is sign extended by addi, so round the upper part
		word := uint32(value)
		upper := (word + 0x800) >> 12
		lower := int32(word - upper<<12)

		return []uint32{
			EncodeU(decoder.OP_LUI, rd, upper),
			EncodeI(decoder.OP_IMM, rd, decoder.F3_ADD, rd, lower),
		}, nil

	// jal x0, target
	case INSTRUCTION_J:
		if err := checkArgs(line, 1); err != nil {
			return nil, err
		}

		offset, err := parseTarget(ops[0], line.Addr, labels, 21)
		if err != nil {
			return nil, err
		}

		return []uint32{EncodeJ(decoder.OP_JAL, 0, offset)}, nil

	// jalr x0, 0(ra)
	case INSTRUCTION_RET:
		if err := checkArgs(line, 0); err != nil {
			return nil, err
		}

		return []uint32{EncodeI(decoder.OP_JALR, 0, 0, 1, 0)}, nil

	// beq rs, x0, target
	// bne rs, x0, target
	case INSTRUCTION_BEQZ, INSTRUCTION_BNEZ:
		if err := checkArgs(line, 2); err != nil {
			return nil, err
		}

		rs, err := parseRegister(ops[0])
		if err != nil {
			return nil, err
		}
		offset, err := parseTarget(ops[1], line.Addr, labels, 13)
		if err != nil {
			return nil, err
		}

		return []uint32{EncodeB(decoder.OP_BRANCH, info.Funct3, rs, 0, offset)}, nil

	// .word value|label
	case INSTRUCTION_WORD:
		if err := checkArgs(line, 1); err != nil {
			return nil, err
		}

		if addr, exists := labels[ops[0].Value]; exists {
			return []uint32{addr}, nil
		}

		value, err := parseNumber(ops[0])
		if err != nil {
			return nil, err
		}

		if value < -(1<<31) || value > 1<<32-1 {
			return nil, &OversizedLiteralError{ops[0].Position, -(1 << 31), 1<<32 - 1, value}
		}

		return []uint32{uint32(value)}, nil
	}

	return nil, &UnknownIdentifierError{line.Mnemonic.Position, line.Mnemonic.Value}
}

// AssembleSource assembles RV32I source into a flat little-endian image
// starting at address 0. If symtable is not nil it is filled with the
// address of every label and source line.
func AssembleSource(input io.Reader, symtable *SymTable) (result []byte, errs []error) {
	var labels = make(map[string]uint32)
	var lines []sourceLine
	var addr uint32 = 0

	var scanner = bufio.NewScanner(input)
	var lineNumber = 0

	errs = make([]error, 0)

	// Pass 1:
	// - Split labels, mnemonic and operands
	// - Assign addresses to lines and labels
	for scanner.Scan() {
		lineNumber++
		text := scanner.Text()

		if i := strings.IndexAny(text, "#;"); i != -1 {
			text = text[:i]
		}

		column := 1

		for {
			trimmed := strings.TrimLeftFunc(text, unicode.IsSpace)
			column += len(text) - len(trimmed)
			text = trimmed

			colon := strings.IndexByte(text, ':')
			if colon == -1 {
				break
			}

			label := strings.TrimSpace(text[:colon])
			position := Cursor{lineNumber, column}

			if !isIdent(label) {
				errs = append(errs, &InvalidLabelError{position, label})
			} else if _, exists := labels[label]; exists {
				errs = append(errs, &RedeclaredLabelError{position, label})
			} else {
				labels[label] = addr

				if symtable != nil {
					symtable.Labels[addr] = label
				}
			}

			text = text[colon+1:]
			column += colon + 1
		}

		if len(text) == 0 {
			continue
		}

		mnemonic := text
		rest := ""

		if i := strings.IndexFunc(text, unicode.IsSpace); i != -1 {
			mnemonic = text[:i]
			rest = text[i:]
		}

		line := sourceLine{
			Addr: addr,
			Mnemonic: Operand{
				Position: Cursor{lineNumber, column},
				Value:    strings.ToLower(mnemonic),
			},
		}

		if strings.TrimSpace(rest) != "" {
			line.Operands = splitOperands(rest, lineNumber, column+len(mnemonic))
		}

		line.Size = lineSize(&line)
		addr += line.Size
		lines = append(lines, line)
	}

	if err := scanner.Err(); err != nil {
		errs = append(errs, err)
		return nil, errs
	}

	// Pass 2:
	// - Resolve labels
	// - Encode instructions
	result = make([]byte, 0, addr)
	scratch := make([]byte, 4)

	for i := range lines {
		line := &lines[i]
		words, err := assembleLine(line, labels)

		if err != nil {
			errs = append(errs, err)
			words = make([]uint32, line.Size/4)
		}

		for j, word := range words {
			if symtable != nil {
				symtable.Lines[line.Addr+uint32(j)*4] = line.Mnemonic.Position.Line
			}

			binary.LittleEndian.PutUint32(scratch, word)
			result = append(result, scratch...)
		}
	}

	return result, errs
}
