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

package encoding_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lassandro/gorv32i/pkg/encoding"
)

func TestDecodeHex(t *testing.T) {
	tests := []struct {
		Input string
		Want  uint32
	}{
		{"0x0", 0},
		{"0xFF", 0xFF},
		{"xFF", 0xFF},
		{"0X80000000", 0x80000000},
		{"0xffffffff", 0xFFFFFFFF},
	}

	for _, test := range tests {
		t.Run(test.Input, func(t *testing.T) {
			have, err := encoding.DecodeHex(test.Input)
			require.NoError(t, err)
			assert.Equal(t, test.Want, have)
		})
	}

	for _, input := range []string{"FF", "1xFF", "0x", "0x100000000", ""} {
		t.Run("Invalid "+input, func(t *testing.T) {
			_, err := encoding.DecodeHex(input)
			assert.Error(t, err)
		})
	}
}

func TestDecodeInt(t *testing.T) {
	have, err := encoding.DecodeInt("#-42")
	require.NoError(t, err)
	assert.Equal(t, int32(-42), have)

	have, err = encoding.DecodeInt("2147483647")
	require.NoError(t, err)
	assert.Equal(t, int32(2147483647), have)

	_, err = encoding.DecodeInt("2147483648")
	assert.Error(t, err)
}

func TestDecodeAddr(t *testing.T) {
	have, err := encoding.DecodeAddr("32768")
	require.NoError(t, err)
	assert.Equal(t, uint32(32768), have)

	have, err = encoding.DecodeAddr("0x8000")
	require.NoError(t, err)
	assert.Equal(t, uint32(0x8000), have)

	_, err = encoding.DecodeAddr("-1")
	assert.Error(t, err)
}

func TestSignExtend(t *testing.T) {
	assert.Equal(t, uint32(0xFFFFFFFF), encoding.SignExtend(0xFFF, 12))
	assert.Equal(t, uint32(0x000007FF), encoding.SignExtend(0x7FF, 12))
	assert.Equal(t, uint32(0xFFFFF000), encoding.SignExtend(0x1000, 13))
	assert.Equal(t, uint32(0xFFF00000), encoding.SignExtend(0x100000, 21))
	assert.Equal(t, uint32(0xFFFFFF80), encoding.SignExtend(0x80, 8))
	assert.Equal(t, uint32(0x80000000), encoding.SignExtend(0x80000000, 32))
}

func TestZeroExtend(t *testing.T) {
	assert.Equal(t, uint32(0xFF), encoding.ZeroExtend(0xFFFFFFFF, 8))
	assert.Equal(t, uint32(0xFFFF), encoding.ZeroExtend(0xFFFFFFFF, 16))
	assert.Equal(t, uint32(0xFFFFFFFF), encoding.ZeroExtend(0xFFFFFFFF, 32))
}
