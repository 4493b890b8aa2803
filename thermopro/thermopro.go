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

// Package thermopro decodes ThermoPro sensors which share a 552dd4 sync
// word and a nine byte payload closed by an LFSR digest.
package thermopro

import (
	"strconv"

	"github.com/pkg/errors"

	"github.com/merbanan/rtl-433-sub004/bitbuffer"
	"github.com/merbanan/rtl-433-sub004/protocol"
)

const (
	SyncBits    = 24
	PayloadLen  = 9
	MaxRowBits  = 260
	MinPktBits  = SyncBits + PayloadLen*8
	DigestGen   = 0x98
	absentProbe = 0xEDD
)

// The leading d2 is left off, it is often damaged.
var sync = []byte{0x55, 0x2D, 0xD4}

// payload finds the sync word in the only row of bb and returns the nine
// bytes following it.
func payload(bb *bitbuffer.BitBuffer) ([]byte, error) {
	if bb.NumRows() > 1 {
		return nil, errors.Wrapf(protocol.ErrFailSanity, "too many rows: %d", bb.NumRows())
	}
	if bb.NumRows() == 0 {
		return nil, errors.Wrap(protocol.ErrAbortEarly, "no rows")
	}

	r := bb.Row(0)
	if r.Len() > MaxRowBits {
		return nil, errors.Wrapf(protocol.ErrAbortLength, "packet too long: %d bits", r.Len())
	}

	offset := r.Search(0, sync, SyncBits)
	if offset == r.Len() {
		return nil, errors.Wrap(protocol.ErrAbortEarly, "sync word not found")
	}
	if r.Len()-offset < MinPktBits {
		return nil, errors.Wrapf(protocol.ErrAbortLength, "packet too short: %d bits", r.Len()-offset)
	}

	return r.ExtractBytes(offset+SyncBits, PayloadLen*8)
}

// Both models carry 12-bit temperatures in tenths of a degree.
func tenths(raw uint16, offset int) float64 {
	return float64(int(raw)-offset) * 0.1
}

func formatTemp(t float64) string {
	return strconv.FormatFloat(t, 'f', 1, 64)
}
