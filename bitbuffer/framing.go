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

package bitbuffer

import (
	"fmt"

	"github.com/merbanan/rtl-433-sub004/bitutil"
)

// The framing decoders below never fail. A framing violation ends decoding
// and the prefix decoded so far is returned along with its length.

// Clamp a [start, start+n) window to the row.
func (r Row) window(start, n int) (int, int) {
	if start < 0 || start > r.bits || n < 0 {
		return 0, 0
	}
	if start+n > r.bits {
		n = r.bits - start
	}
	return start, n
}

// ExtractUART8N1 decodes 10-bit UART frames: a 0 start bit, 8 data bits
// LSB-first and a 1 stop bit.
func (r Row) ExtractUART8N1(start, n int) ([]byte, int) {
	start, n = r.window(start, n)

	var out []byte
	for ; n >= 10; n -= 10 {
		startBit, data, stopBit := r.bit(start), r.byteAt(start+1), r.bit(start+9)
		start += 10

		if startBit != 0 || stopBit != 1 {
			break
		}
		out = append(out, bitutil.Reverse8(data))
	}

	return out, len(out)
}

// ExtractUART8O1 decodes 11-bit UART frames: a 1 start bit, 8 data bits
// MSB-first, an odd parity bit and a 0 stop bit. A parity error ends
// decoding like a framing error.
func (r Row) ExtractUART8O1(start, n int) ([]byte, int) {
	start, n = r.window(start, n)

	var out []byte
	for ; n >= 11; n -= 11 {
		startBit, data := r.bit(start), r.byteAt(start+1)
		parity, stopBit := r.bit(start+9), r.bit(start+10)
		start += 11

		if startBit != 1 || stopBit != 0 {
			break
		}
		if bitutil.Parity8(data)^parity != 1 {
			break
		}
		out = append(out, data)
	}

	return out, len(out)
}

// ExtractNibbles4B1S unstuffs 5-bit groups of 4 data bits followed by a 1
// separator. Each nibble is returned in the low half of its own byte.
func (r Row) ExtractNibbles4B1S(start, n int) ([]byte, int) {
	start, n = r.window(start, n)

	var out []byte
	for ; n >= 5; n -= 5 {
		group := r.byteAt(start) >> 3
		start += 5

		if group&1 != 1 {
			break
		}
		out = append(out, group>>1&0x0F)
	}

	return out, len(out)
}

// A Symbol is a short bit pattern standing for a single decoded bit.
// Pattern holds Len bits, MSB-aligned.
type Symbol struct {
	Pattern uint32
	Len     int
}

// SymbolFromPacked unpacks the compact form used in decoder tables: the
// pattern MSB-aligned with its bit count in the low byte, so 0xA0000003
// is the symbol 101.
func SymbolFromPacked(v uint32) Symbol {
	return Symbol{Pattern: v &^ 0xFF, Len: int(v & 0xFF)}
}

func (s Symbol) String() string {
	return fmt.Sprintf("{%d}%0*b", s.Len, s.Len, s.Pattern>>uint(32-s.Len))
}

// A zero length symbol never matches.
func (r Row) matchSymbol(s Symbol, pos, end int) bool {
	if s.Len <= 0 || s.Len > 32 || pos+s.Len > end {
		return false
	}
	v, err := r.Bits(pos, s.Len)
	return err == nil && uint32(v) == s.Pattern>>uint(32-s.Len)
}

// ExtractSymbols decodes a stream of zero, one and sync symbols. Sync
// symbols are skipped until the first bit is decoded and end decoding
// after that.
// At each position sync is tried first, then zero, then one. Decoding
// also stops at the first position where no symbol matches. The second
// result is the number of decoded bits.
func (r Row) ExtractSymbols(start, n int, zero, one, sync Symbol) (Row, int) {
	start, n = r.window(start, n)
	end := start + n

	var w rowWriter
	for pos := start; pos < end; {
		switch {
		case r.matchSymbol(sync, pos, end):
			if w.bits > 0 {
				return w.row(), w.bits
			}
			pos += sync.Len
		case r.matchSymbol(zero, pos, end):
			w.add(0)
			pos += zero.Len
		case r.matchSymbol(one, pos, end):
			w.add(1)
			pos += one.Len
		default:
			return w.row(), w.bits
		}
	}

	return w.row(), w.bits
}
