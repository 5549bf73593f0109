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
	"strconv"
	"strings"
)

var abiNames = [32]string{
	"zero", "ra", "sp", "gp", "tp", "t0", "t1", "t2",
	"s0", "s1", "a0", "a1", "a2", "a3", "a4", "a5",
	"a6", "a7", "s2", "s3", "s4", "s5", "s6", "s7",
	"s8", "s9", "s10", "s11", "t3", "t4", "t5", "t6",
}

// RegisterName returns x0-x31, or the calling convention name when abi is set.
func RegisterName(index uint8, abi bool) string {
	index &= 0x1F

	if abi {
		return abiNames[index]
	}

	return "x" + strconv.Itoa(int(index))
}

// ParseRegister accepts x0-x31, the ABI names and fp (an alias of s0).
func ParseRegister(s string) (uint8, bool) {
	s = strings.ToLower(s)

	if s == "fp" {
		return 8, true
	}

	for i, name := range abiNames {
		if name == s {
			return uint8(i), true
		}
	}

	if len(s) < 2 || s[0] != 'x' {
		return 0, false
	}

	// Reject forms like x01 and x+1 that Atoi would otherwise allow
	if s[1] < '0' || s[1] > '9' || (len(s) > 2 && s[1] == '0') {
		return 0, false
	}

	n, err := strconv.Atoi(s[1:])

	if err != nil || n > 31 {
		return 0, false
	}

	return uint8(n), true
}
