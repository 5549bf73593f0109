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
	"encoding/binary"
	"fmt"
)

// Memory is a flat, byte addressable, little-endian array of fixed size.
type Memory struct {
	data []byte
}

func NewMemory(size uint32) *Memory {
	return &Memory{data: make([]byte, size)}
}

func (mem *Memory) Size() uint32 {
	return uint32(len(mem.data))
}

// Bytes exposes the backing array for dumps. Callers must not resize it.
func (mem *Memory) Bytes() []byte {
	return mem.data
}

func (mem *Memory) Reset() {
	for i := range mem.data {
		mem.data[i] = 0
	}
}

func (mem *Memory) check(addr, width uint32) error {
	// 64-bit sum so addr near 0xFFFFFFFF cannot wrap back into range
	if uint64(addr)+uint64(width) > uint64(len(mem.data)) {
		return &AddressError{Addr: addr, Width: width, Size: mem.Size()}
	}

	return nil
}

// Read assembles width (1, 2 or 4) bytes starting at addr, least
// significant byte first.
func (mem *Memory) Read(addr, width uint32) (uint32, error) {
	if err := mem.check(addr, width); err != nil {
		return 0, err
	}

	switch width {
	case WIDTH_BYTE:
		return uint32(mem.data[addr]), nil
	case WIDTH_HALF:
		return uint32(binary.LittleEndian.Uint16(mem.data[addr:])), nil
	case WIDTH_WORD:
		return binary.LittleEndian.Uint32(mem.data[addr:]), nil
	default:
		return 0, fmt.Errorf("invalid access width %d", width)
	}
}

// Write stores the low width bytes of value at addr.
func (mem *Memory) Write(addr, width, value uint32) error {
	if err := mem.check(addr, width); err != nil {
		return err
	}

	switch width {
	case WIDTH_BYTE:
		mem.data[addr] = byte(value)
	case WIDTH_HALF:
		binary.LittleEndian.PutUint16(mem.data[addr:], uint16(value))
	case WIDTH_WORD:
		binary.LittleEndian.PutUint32(mem.data[addr:], value)
	default:
		return fmt.Errorf("invalid access width %d", width)
	}

	return nil
}

func (mem *Memory) LoadImage(image []byte, base uint32) error {
	if uint64(base)+uint64(len(image)) > uint64(len(mem.data)) {
		return fmt.Errorf(
			"%w: %d bytes at %#08x, capacity %#x",
			ErrImageTooLarge,
			len(image),
			base,
			mem.Size(),
		)
	}

	copy(mem.data[base:], image)
	return nil
}
