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

// Limit the end of decoding to at most maxBits output bits of width
// symbols each. A non-positive maxBits means the end of the row.
func (r Row) decodeEnd(start, maxBits, width int) int {
	end := r.bits
	if maxBits > 0 && start+maxBits*width < end {
		end = start + maxBits*width
	}
	return end
}

// ManchesterDecode decodes IEEE 802.3 Manchester starting at bit start:
// low-high (01) is a 1, high-low (10) is a 0. At most maxBits bits are
// decoded, all of them if maxBits <= 0. Decoding stops at the first invalid
// pair (00 or 11). The second result is the number of source bits
// consumed, not counting the invalid pair, so a clean decode of n bits
// consumes 2n.
func (r Row) ManchesterDecode(start, maxBits int) (Row, int) {
	return r.manchesterDecode(start, maxBits, 0)
}

// ManchesterDecodeGEThomas decodes the G.E. Thomas convention, where
// high-low (10) is a 1 and low-high (01) is a 0.
func (r Row) ManchesterDecodeGEThomas(start, maxBits int) (Row, int) {
	return r.manchesterDecode(start, maxBits, 1)
}

// ManchesterDecodeZeroBit decodes IEEE 802.3 Manchester from a row whose
// first symbol is an implicit zero with its leading half lost. The first
// source bit must be 0, it is consumed alone and emitted as a 0 data bit.
// Decoding then continues in pairs.
func (r Row) ManchesterDecodeZeroBit(start, maxBits int) (Row, int) {
	if start < 0 || start >= r.bits || r.bit(start) != 0 {
		return Row{}, 0
	}

	var w rowWriter
	w.add(0)
	if maxBits == 1 {
		return w.row(), 1
	}
	if maxBits > 1 {
		maxBits--
	}

	rest, consumed := r.manchesterDecode(start+1, maxBits, 0)
	for i := 0; i < rest.bits; i++ {
		w.add(rest.bit(i))
	}

	return w.row(), consumed + 1
}

func (r Row) manchesterDecode(start, maxBits int, invert byte) (Row, int) {
	var w rowWriter
	if start < 0 {
		return w.row(), 0
	}

	end := r.decodeEnd(start, maxBits, 2)
	pos := start
	for ; pos+2 <= end; pos += 2 {
		bit1, bit2 := r.bit(pos), r.bit(pos+1)
		if bit1 == bit2 {
			break
		}
		w.add(bit2 ^ invert)
	}

	return w.row(), pos - start
}

// DifferentialManchesterDecode decodes differential Manchester starting at
// bit start. Every cell begins with a clock transition. A mid-cell
// transition is a 0, its absence a 1. The decoder first syncs on the
// clock: leading cells holding a transition on both edges are emitted as
// zeros until a cell locates the clock edge. Decoding stops when a clock
// transition is missing. The second result is the number of source bits
// consumed.
func (r Row) DifferentialManchesterDecode(start, maxBits int) (Row, int) {
	var w rowWriter
	if start < 0 {
		return w.row(), 0
	}

	more := func() bool {
		return maxBits <= 0 || w.bits < maxBits
	}

	// Sync on the first clock edge. last holds the level at the end of the
	// previous cell.
	pos := start
	var last byte
	synced := false
	for !synced && pos+2 <= r.bits && more() {
		bit1, bit2 := r.bit(pos), r.bit(pos+1)
		switch {
		case bit1 != bit2 && (pos+2 == r.bits || bit2 != r.bit(pos+2)):
			w.add(0)
			pos += 2
		case bit1 != bit2:
			// The clock edge is between bit1 and bit2, realign by one.
			last = bit1
			pos++
			synced = true
		default:
			last = 1 - bit1
			synced = true
		}
	}

	for synced && pos+2 <= r.bits && more() {
		bit1 := r.bit(pos)
		if bit1 == last {
			// Missing clock transition.
			break
		}
		last = r.bit(pos + 1)
		pos += 2
		if bit1 == last {
			w.add(1)
		} else {
			w.add(0)
		}
	}

	return w.row(), pos - start
}
