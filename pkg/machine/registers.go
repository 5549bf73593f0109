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

// Registers is the integer register file. x0 is hardwired to zero.
type Registers [RegisterCount]uint32

func (regs *Registers) Read(index uint8) uint32 {
	if index == 0 {
		return 0
	}

	return regs[index&0x1F]
}

func (regs *Registers) Write(index uint8, value uint32) {
	if index == 0 {
		return
	}

	regs[index&0x1F] = value
}
