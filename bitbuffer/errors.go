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

import "github.com/pkg/errors"

var (
	// ErrOutOfRange is returned when a read reaches past the end of a row.
	ErrOutOfRange = errors.New("bitbuffer: bit range out of bounds")

	// ErrTooManyRows is returned when a buffer already holds MaxRows rows.
	ErrTooManyRows = errors.New("bitbuffer: too many rows")

	// ErrRowFull is returned when a row already holds MaxRowBits bits.
	ErrRowFull = errors.New("bitbuffer: row full")

	// ErrSyntax is returned by Parse for malformed code strings.
	ErrSyntax = errors.New("bitbuffer: invalid code")
)

func outOfRange(op string, start, n, length int) error {
	return errors.Wrapf(ErrOutOfRange, "%s: %d bits at offset %d of %d-bit row", op, n, start, length)
}
