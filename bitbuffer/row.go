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
	"bytes"
	"encoding/hex"
	"fmt"

	"github.com/pkg/errors"
)

// A Row is an immutable sequence of bits packed MSB-first. Bits past Len()
// in the last byte are always zero.
type Row struct {
	data []byte
	bits int
}

// NewRow copies the first bits bits of data into a new row.
func NewRow(data []byte, bits int) (Row, error) {
	if bits < 0 || bits > len(data)<<3 {
		return Row{}, errors.Wrapf(ErrOutOfRange, "new row: %d bits from %d bytes", bits, len(data))
	}

	r := Row{data: make([]byte, (bits+7)>>3), bits: bits}
	copy(r.data, data)
	r.mask()

	return r, nil
}

// RowFromBytes returns a row holding every bit of data.
func RowFromBytes(data []byte) Row {
	r := Row{data: make([]byte, len(data)), bits: len(data) << 3}
	copy(r.data, data)
	return r
}

// RowFromBits packs a slice of 0/1 values, one bit per element.
func RowFromBits(bits []byte) Row {
	var w rowWriter
	for _, b := range bits {
		w.add(b)
	}
	return w.row()
}

// Zero the don't-care bits of the last byte.
func (r *Row) mask() {
	if rem := r.bits & 7; rem != 0 {
		r.data[len(r.data)-1] &= 0xFF << uint(8-rem)
	}
}

// Len returns the number of valid bits.
func (r Row) Len() int {
	return r.bits
}

// Bytes returns a copy of the packed row, ceil(Len()/8) bytes long.
func (r Row) Bytes() []byte {
	out := make([]byte, len(r.data))
	copy(out, r.data)
	return out
}

// Equal reports whether both rows hold the same bits.
func (r Row) Equal(o Row) bool {
	return r.bits == o.bits && bytes.Equal(r.data, o.data)
}

// String formats the row in rtl_433 code notation, e.g. {12}a5f.
func (r Row) String() string {
	s := hex.EncodeToString(r.data)
	// Drop the trailing nibble when it holds no valid bits.
	if rem := r.bits & 7; rem != 0 && rem <= 4 {
		s = s[:len(s)-1]
	}
	return fmt.Sprintf("{%d}%s", r.bits, s)
}

// BitString formats the row as a string of '0' and '1'.
func (r Row) BitString() string {
	buf := make([]byte, r.bits)
	for i := range buf {
		buf[i] = '0' + r.bit(i)
	}
	return string(buf)
}

func (r Row) bit(i int) byte {
	return r.data[i>>3] >> (7 - uint(i&7)) & 1
}

// Read 8 bits at i, treating anything past the backing store as zero.
func (r Row) byteAt(i int) byte {
	idx, shift := i>>3, uint(i&7)
	var hi, lo byte
	if idx < len(r.data) {
		hi = r.data[idx]
	}
	if shift == 0 {
		return hi
	}
	if idx+1 < len(r.data) {
		lo = r.data[idx+1]
	}
	return hi<<shift | lo>>(8-shift)
}

// Bit returns the bit at offset i.
func (r Row) Bit(i int) (byte, error) {
	if i < 0 || i >= r.bits {
		return 0, outOfRange("bit", i, 1, r.bits)
	}
	return r.bit(i), nil
}

// Byte returns the 8 bits starting at offset i, which need not be aligned.
func (r Row) Byte(i int) (byte, error) {
	if i < 0 || i+8 > r.bits {
		return 0, outOfRange("byte", i, 8, r.bits)
	}
	return r.byteAt(i), nil
}

// Bits reads an n-bit big-endian field starting at offset start.
func (r Row) Bits(start, n int) (v uint64, err error) {
	if n < 0 || n > 64 || start < 0 || start+n > r.bits {
		return 0, outOfRange("bits", start, n, r.bits)
	}
	for i := start; i < start+n; i++ {
		v = v<<1 | uint64(r.bit(i))
	}
	return
}

// ExtractBytes copies n bits starting at start into a new MSB-first
// byte slice. A trailing partial byte is left-justified and zero-filled.
func (r Row) ExtractBytes(start, n int) ([]byte, error) {
	if start < 0 || n < 0 || start+n > r.bits {
		return nil, outOfRange("extract", start, n, r.bits)
	}

	out := make([]byte, (n+7)>>3)
	if start&7 == 0 {
		copy(out, r.data[start>>3:])
	} else {
		for idx := range out {
			out[idx] = r.byteAt(start + idx<<3)
		}
	}

	if rem := n & 7; rem != 0 {
		out[len(out)-1] &= 0xFF << uint(8-rem)
	}

	return out, nil
}

// Search returns the offset of the first match of the leading patternBits
// bits of pattern at or after start. If there is no match the row length
// is returned, so callers test result+needed > Len(). A zero length
// pattern matches at start.
func (r Row) Search(start int, pattern []byte, patternBits int) int {
	if patternBits > len(pattern)<<3 || patternBits < 0 {
		panic(fmt.Sprintf("bitbuffer: pattern of %d bytes cannot hold %d bits", len(pattern), patternBits))
	}
	if start < 0 {
		start = 0
	}
	if patternBits == 0 {
		return start
	}

	full, rem := patternBits>>3, uint(patternBits&7)
	var lastMask byte = 0xFF << (8 - rem)

	for pos := start; pos+patternBits <= r.bits; pos++ {
		k := 0
		for ; k < full; k++ {
			if r.byteAt(pos+k<<3) != pattern[k] {
				break
			}
		}
		if k < full {
			continue
		}
		if rem == 0 || (r.byteAt(pos+full<<3)^pattern[full])&lastMask == 0 {
			return pos
		}
	}

	return r.bits
}

// Invert returns a copy of the row with every valid bit flipped.
func (r Row) Invert() Row {
	out := Row{data: make([]byte, len(r.data)), bits: r.bits}
	for idx, b := range r.data {
		out.data[idx] = ^b
	}
	out.mask()
	return out
}

// NRZSDecode decodes Non-Return-to-Zero Space: a one is no change in
// level, a zero is a change. The level before the first bit is 0.
func (r Row) NRZSDecode() Row {
	return r.nrzDecode(1)
}

// NRZMDecode decodes Non-Return-to-Zero Mark: a one is a change in level,
// a zero is no change. The level before the first bit is 0.
func (r Row) NRZMDecode() Row {
	return r.nrzDecode(0)
}

func (r Row) nrzDecode(same byte) Row {
	var w rowWriter
	var prev byte
	for i := 0; i < r.bits; i++ {
		cur := r.bit(i)
		if cur == prev {
			w.add(same)
		} else {
			w.add(same ^ 1)
		}
		prev = cur
	}
	return w.row()
}

// rowWriter appends bits to a growing row.
type rowWriter struct {
	data []byte
	bits int
}

func (w *rowWriter) add(bit byte) {
	if w.bits&7 == 0 {
		w.data = append(w.data, 0)
	}
	if bit&1 != 0 {
		w.data[w.bits>>3] |= 0x80 >> uint(w.bits&7)
	}
	w.bits++
}

func (w *rowWriter) addByte(b byte) {
	for bit := 7; bit >= 0; bit-- {
		w.add(b >> uint(bit))
	}
}

func (w *rowWriter) row() Row {
	return Row{data: w.data, bits: w.bits}
}
