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
	"errors"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var widths = []uint32{WIDTH_BYTE, WIDTH_HALF, WIDTH_WORD}

func mask(width uint32) uint32 {
	if width == WIDTH_WORD {
		return 0xFFFFFFFF
	}

	return 1<<(width*8) - 1
}

func TestMemoryRoundTrip(t *testing.T) {
	mem := NewMemory(64)
	rng := rand.New(rand.NewSource(1))

	for _, width := range widths {
		for addr := uint32(0); addr+width <= mem.Size(); addr++ {
			value := rng.Uint32()

			require.NoError(t, mem.Write(addr, width, value))

			have, err := mem.Read(addr, width)
			require.NoError(t, err)
			assert.Equalf(
				t,
				value&mask(width),
				have,
				"Round trip mismatch at %#04x (width %d)",
				addr,
				width,
			)
		}
	}
}

func TestMemoryLittleEndian(t *testing.T) {
	mem := NewMemory(8)

	require.NoError(t, mem.Write(0, WIDTH_WORD, 0x11223344))
	assert.Equal(t, []byte{0x44, 0x33, 0x22, 0x11}, mem.Bytes()[:4])

	half, err := mem.Read(1, WIDTH_HALF)
	require.NoError(t, err)
	assert.Equal(t, uint32(0x2233), half)

	require.NoError(t, mem.Write(4, WIDTH_HALF, 0xAABBCCDD))
	assert.Equal(t, []byte{0xDD, 0xCC, 0x00, 0x00}, mem.Bytes()[4:])
}

func TestMemoryBounds(t *testing.T) {
	mem := NewMemory(16)

	for _, width := range widths {
		_, err := mem.Read(16-width, width)
		assert.NoError(t, err)

		for _, addr := range []uint32{16 - width + 1, 16, 0xFFFFFFFF, 0xFFFFFFFF - width + 1} {
			_, err := mem.Read(addr, width)

			var addrErr *AddressError
			require.Truef(t, errors.As(err, &addrErr), "Read(%#x, %d) did not fail", addr, width)
			assert.Equal(t, addr, addrErr.Addr)
			assert.Equal(t, width, addrErr.Width)
			assert.Equal(t, uint32(16), addrErr.Size)

			assert.Error(t, mem.Write(addr, width, 0xFFFFFFFF))
		}
	}

	assert.Equal(t, make([]byte, 16), mem.Bytes())

	_, err := mem.Read(0, 3)
	assert.Error(t, err)
}

func TestMemoryLoadImage(t *testing.T) {
	mem := NewMemory(8)

	require.NoError(t, mem.LoadImage([]byte{1, 2, 3, 4}, 4))
	assert.Equal(t, []byte{0, 0, 0, 0, 1, 2, 3, 4}, mem.Bytes())

	require.NoError(t, mem.LoadImage(make([]byte, 8), 0))
	assert.ErrorIs(t, mem.LoadImage(make([]byte, 9), 0), ErrImageTooLarge)
	assert.ErrorIs(t, mem.LoadImage([]byte{1}, 8), ErrImageTooLarge)
	assert.ErrorIs(t, mem.LoadImage([]byte{1}, 0xFFFFFFFF), ErrImageTooLarge)

	require.NoError(t, mem.LoadImage([]byte{9}, 0))
	mem.Reset()
	assert.Equal(t, make([]byte, 8), mem.Bytes())
}

func TestRegisters(t *testing.T) {
	var regs Registers

	for i := uint8(0); i < RegisterCount; i++ {
		regs.Write(i, uint32(i)+100)
	}

	assert.Equal(t, uint32(0), regs.Read(0))

	for i := uint8(1); i < RegisterCount; i++ {
		assert.Equal(t, uint32(i)+100, regs.Read(i))
	}
}
