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

// Package bitbuffer holds demodulated transmissions as rows of bits and
// provides the search, extraction and line decoding primitives device
// decoders are built from.
package bitbuffer

import (
	"encoding/hex"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

const (
	MaxRows    = 25
	MaxCols    = 256 // Bytes per row.
	MaxRowBits = MaxCols * 8
)

// A BitBuffer is an ordered set of rows, usually repeated transmissions of
// the same message. It is owned by a single decode call; use Clone before
// handing it to another goroutine.
type BitBuffer struct {
	rows  []rowWriter
	syncs []int
}

// New returns a buffer holding copies of the given rows.
func New(rows ...Row) (*BitBuffer, error) {
	bb := &BitBuffer{}
	for _, r := range rows {
		if err := bb.appendRow(r); err != nil {
			return nil, err
		}
	}
	return bb, nil
}

// Unlike AddRow, appendRow always starts a new row.
func (bb *BitBuffer) appendRow(r Row) error {
	if len(bb.rows) >= MaxRows {
		return errors.Wrapf(ErrTooManyRows, "limit %d", MaxRows)
	}
	if r.bits > MaxRowBits {
		return errors.Wrapf(ErrRowFull, "row of %d bits", r.bits)
	}
	bb.rows = append(bb.rows, rowWriter{data: r.Bytes(), bits: r.bits})
	bb.syncs = append(bb.syncs, 0)
	return nil
}

// NumRows returns the number of rows.
func (bb *BitBuffer) NumRows() int {
	return len(bb.rows)
}

// Row returns a copy of row i. It panics if i is out of range.
func (bb *BitBuffer) Row(i int) Row {
	w := bb.rows[i]
	r := Row{data: make([]byte, len(w.data)), bits: w.bits}
	copy(r.data, w.data)
	return r
}

// Rows returns copies of all rows.
func (bb *BitBuffer) Rows() []Row {
	rows := make([]Row, len(bb.rows))
	for i := range rows {
		rows[i] = bb.Row(i)
	}
	return rows
}

// SyncsBefore returns the number of sync pulses seen before row i.
func (bb *BitBuffer) SyncsBefore(i int) int {
	return bb.syncs[i]
}

// AddRow starts a new row. An empty current row is reused.
func (bb *BitBuffer) AddRow() error {
	if n := len(bb.rows); n > 0 && bb.rows[n-1].bits == 0 {
		return nil
	}
	if len(bb.rows) >= MaxRows {
		return errors.Wrapf(ErrTooManyRows, "limit %d", MaxRows)
	}
	bb.rows = append(bb.rows, rowWriter{})
	bb.syncs = append(bb.syncs, 0)
	return nil
}

// AddBit appends a bit to the current row, starting the first row if the
// buffer is empty.
func (bb *BitBuffer) AddBit(bit byte) error {
	if len(bb.rows) == 0 {
		if err := bb.AddRow(); err != nil {
			return err
		}
	}

	last := &bb.rows[len(bb.rows)-1]
	if last.bits >= MaxRowBits {
		return errors.Wrapf(ErrRowFull, "row %d", len(bb.rows)-1)
	}
	last.add(bit)

	return nil
}

// AddSync counts a sync pulse, starting a new row if the current one
// already holds bits.
func (bb *BitBuffer) AddSync() error {
	if err := bb.AddRow(); err != nil {
		return err
	}
	bb.syncs[len(bb.syncs)-1]++
	return nil
}

// Clone returns a deep copy of the buffer.
func (bb *BitBuffer) Clone() *BitBuffer {
	c := &BitBuffer{
		rows:  make([]rowWriter, len(bb.rows)),
		syncs: append([]int(nil), bb.syncs...),
	}
	for i, w := range bb.rows {
		c.rows[i] = rowWriter{data: append([]byte(nil), w.data...), bits: w.bits}
	}
	return c
}

// Invert returns a copy of the buffer with every valid bit flipped.
func (bb *BitBuffer) Invert() *BitBuffer {
	c := bb.Clone()
	c.InvertInPlace()
	return c
}

// InvertInPlace flips every valid bit of every row.
func (bb *BitBuffer) InvertInPlace() {
	for i, w := range bb.rows {
		inv := w.row().Invert()
		bb.rows[i] = rowWriter{data: inv.data, bits: inv.bits}
	}
}

// Search runs Row.Search on row i.
func (bb *BitBuffer) Search(i, start int, pattern []byte, patternBits int) int {
	return bb.rows[i].row().Search(start, pattern, patternBits)
}

// CompareRows reports whether rows a and b hold identical bits.
func (bb *BitBuffer) CompareRows(a, b int) bool {
	return bb.rows[a].row().Equal(bb.rows[b].row())
}

// CountRepeats returns how many rows, row i included, equal row i.
func (bb *BitBuffer) CountRepeats(i int) (count int) {
	for j := range bb.rows {
		if bb.CompareRows(i, j) {
			count++
		}
	}
	return
}

// FindRepeatedRow returns the first row of at least minBits bits that
// occurs at least minRepeats times.
func (bb *BitBuffer) FindRepeatedRow(minRepeats, minBits int) (int, bool) {
	for i, w := range bb.rows {
		if w.bits >= minBits && bb.CountRepeats(i) >= minRepeats {
			return i, true
		}
	}
	return -1, false
}

// String formats the buffer in the notation read by Parse.
func (bb *BitBuffer) String() string {
	s := make([]string, len(bb.rows))
	for i, w := range bb.rows {
		s[i] = w.row().String()
	}
	return strings.Join(s, "/")
}

// Parse reads rtl_433 code notation: rows separated by '/', each an
// optional {bits} length followed by hex digits. Whitespace and a 0x
// prefix are ignored. Without a length the row holds 4 bits per digit. A
// length beyond the given digits is zero-filled.
func Parse(code string) (*BitBuffer, error) {
	bb := &BitBuffer{}

	for _, field := range strings.Split(code, "/") {
		field = strings.Join(strings.Fields(field), "")

		bits := -1
		if strings.HasPrefix(field, "{") {
			end := strings.IndexByte(field, '}')
			if end < 0 {
				return nil, errors.Wrapf(ErrSyntax, "unterminated length in %q", field)
			}
			n, err := strconv.Atoi(field[1:end])
			if err != nil || n < 0 {
				return nil, errors.Wrapf(ErrSyntax, "bad length in %q", field)
			}
			bits, field = n, field[end+1:]
		}
		field = strings.TrimPrefix(strings.TrimPrefix(field, "0x"), "0X")

		digits := field
		if len(digits)%2 == 1 {
			digits += "0"
		}
		data, err := hex.DecodeString(digits)
		if err != nil {
			return nil, errors.Wrapf(ErrSyntax, "%q: %s", field, err)
		}

		if bits < 0 {
			bits = len(field) * 4
		}
		if bits > MaxRowBits {
			return nil, errors.Wrapf(ErrRowFull, "row of %d bits", bits)
		}
		if need := (bits + 7) >> 3; need > len(data) {
			data = append(data, make([]byte, need-len(data))...)
		}

		row, err := NewRow(data, bits)
		if err != nil {
			return nil, err
		}

		if err := bb.appendRow(row); err != nil {
			return nil, err
		}
	}

	return bb, nil
}
