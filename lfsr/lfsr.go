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

// Package lfsr implements the keyed LFSR digests and the PN9 data whitening
// found in low cost sensor protocols.
package lfsr

import "github.com/merbanan/rtl-433-sub004/bitutil"

// Digest8 walks the message MSB-first. For every set bit the current key is
// XORed into the sum, then the key is rolled right through gen.
func Digest8(msg []byte, gen, key uint8) (sum uint8) {
	for _, data := range msg {
		for bit := 7; bit >= 0; bit-- {
			if data>>uint(bit)&1 != 0 {
				sum ^= key
			}
			key = rollRight8(key, gen)
		}
	}
	return
}

// Digest8Reverse is Digest8 over the bytes in reverse order.
func Digest8Reverse(msg []byte, gen, key uint8) (sum uint8) {
	for idx := len(msg) - 1; idx >= 0; idx-- {
		data := msg[idx]
		for bit := 7; bit >= 0; bit-- {
			if data>>uint(bit)&1 != 0 {
				sum ^= key
			}
			key = rollRight8(key, gen)
		}
	}
	return
}

// Digest8Reflect walks the bytes in reverse order, each LSB-first, and
// rolls the key left.
func Digest8Reflect(msg []byte, gen, key uint8) (sum uint8) {
	for idx := len(msg) - 1; idx >= 0; idx-- {
		data := msg[idx]
		for bit := 0; bit < 8; bit++ {
			if data>>uint(bit)&1 != 0 {
				sum ^= key
			}
			if key&0x80 != 0 {
				key = key<<1 ^ gen
			} else {
				key <<= 1
			}
		}
	}
	return
}

// Digest16 is the 16-bit wide Digest8.
func Digest16(msg []byte, gen, key uint16) (sum uint16) {
	for _, data := range msg {
		for bit := 7; bit >= 0; bit-- {
			if data>>uint(bit)&1 != 0 {
				sum ^= key
			}
			if key&1 != 0 {
				key = key>>1 ^ gen
			} else {
				key >>= 1
			}
		}
	}
	return
}

func rollRight8(key, gen uint8) uint8 {
	if key&1 != 0 {
		return key>>1 ^ gen
	}
	return key >> 1
}

// WhitenIBM XORs data with the PN9 sequence (x^9 + x^5 + 1, seed 0x1FF)
// as used by TI and Semtech radios. Applying it twice restores the input.
func WhitenIBM(data []byte) []byte {
	return whiten(data, false)
}

// WhitenCCITT is WhitenIBM with each key byte bit-reflected.
func WhitenCCITT(data []byte) []byte {
	return whiten(data, true)
}

func whiten(data []byte, reflect bool) []byte {
	out := make([]byte, len(data))

	// 9-bit register split into its top bit and low byte.
	var msb, lsb uint8 = 1, 0xFF
	for idx, b := range data {
		key := lsb
		if reflect {
			key = bitutil.Reverse8(key)
		}
		out[idx] = b ^ key

		for round := 0; round < 8; round++ {
			prev := msb
			msb = lsb&1 ^ lsb>>5&1
			lsb = lsb>>1 | prev<<7
		}
	}

	return out
}
