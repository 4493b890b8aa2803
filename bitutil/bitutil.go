// rtl-433-sub004 - Bit-level decoding of sub-GHz sensor transmissions.
// Copyright (C) 2026 The rtl-433-sub004 Authors
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published
// by the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program.  If not, see <http://www.gnu.org/licenses/>.

// Package bitutil holds the byte level helpers shared by the decoders: bit
// reflection, parity and the additive and XOR checksums.
package bitutil

// Reverse8 reflects the bits of a byte, bit 0 becomes bit 7.
func Reverse8(x uint8) uint8 {
	x = (x&0xF0)>>4 | (x&0x0F)<<4
	x = (x&0xCC)>>2 | (x&0x33)<<2
	x = (x&0xAA)>>1 | (x&0x55)<<1
	return x
}

// Reverse32 reflects the bits of a 32-bit word.
func Reverse32(x uint32) uint32 {
	x = (x&0xFFFF0000)>>16 | (x&0x0000FFFF)<<16
	x = (x&0xFF00FF00)>>8 | (x&0x00FF00FF)<<8
	x = (x&0xF0F0F0F0)>>4 | (x&0x0F0F0F0F)<<4
	x = (x&0xCCCCCCCC)>>2 | (x&0x33333333)<<2
	x = (x&0xAAAAAAAA)>>1 | (x&0x55555555)<<1
	return x
}

// ReflectBytes returns a copy of msg with every byte bit-reflected. Byte
// order is preserved.
func ReflectBytes(msg []byte) []byte {
	out := make([]byte, len(msg))
	for idx, b := range msg {
		out[idx] = Reverse8(b)
	}
	return out
}

// Reflect4 reflects each nibble of x in place, keeping nibble order.
func Reflect4(x uint8) uint8 {
	x = (x&0xCC)>>2 | (x&0x33)<<2
	x = (x&0xAA)>>1 | (x&0x55)<<1
	return x
}

// ReflectNibbles returns a copy of msg with Reflect4 applied to every byte.
func ReflectNibbles(msg []byte) []byte {
	out := make([]byte, len(msg))
	for idx, b := range msg {
		out[idx] = Reflect4(b)
	}
	return out
}

// Parity8 returns 1 if x has an odd number of set bits.
func Parity8(x uint8) uint8 {
	x ^= x >> 4
	x &= 0x0F
	return uint8(uint16(0x6996)>>x) & 1
}

// ParityBytes returns 1 if msg has an odd number of set bits.
func ParityBytes(msg []byte) uint8 {
	return Parity8(XorBytes(msg))
}

// XorBytes folds msg with XOR.
func XorBytes(msg []byte) (x uint8) {
	for _, b := range msg {
		x ^= b
	}
	return
}

// AddBytes returns the arithmetic sum of all bytes. The result is not
// truncated, callers mask it to whatever width the protocol uses.
func AddBytes(msg []byte) (sum int) {
	for _, b := range msg {
		sum += int(b)
	}
	return
}

// AddNibbles returns the arithmetic sum of both nibbles of every byte.
func AddNibbles(msg []byte) (sum int) {
	for _, b := range msg {
		sum += int(b>>4) + int(b&0x0F)
	}
	return
}
