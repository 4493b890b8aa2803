// Implements BCH error correction and detection over bitbuffer rows.
package bch

import (
	"fmt"

	"github.com/pkg/errors"

	"github.com/merbanan/rtl-433-sub004/bitbuffer"
)

// ErrUncorrectable is returned when a syndrome matches no single bit error.
var ErrUncorrectable = errors.New("bch: uncorrectable")

// BCH Error Correction
type BCH struct {
	GenPoly uint
	PolyLen byte
}

// Given a generator polynomial, calculate the polynomial length.
func NewBCH(poly uint) (bch BCH) {
	bch.GenPoly = poly

	p := bch.GenPoly
	for ; bch.PolyLen < 32 && p > 0; bch.PolyLen, p = bch.PolyLen+1, p>>1 {
	}
	bch.PolyLen--

	return
}

func (bch BCH) String() string {
	return fmt.Sprintf("{GenPoly:%X PolyLen:%d}", bch.GenPoly, bch.PolyLen)
}

// Shift one bit into the syndrome register.
func (bch BCH) shift(checksum uint, bit byte) uint {
	checksum = checksum<<1 | uint(bit&1)
	if checksum>>bch.PolyLen != 0 {
		checksum ^= bch.GenPoly
	}
	return checksum
}

func (bch BCH) mask(checksum uint) uint {
	return checksum & (1<<bch.PolyLen - 1)
}

// Encode computes the syndrome of a string of bits (0, 1), as printed by
// Row.BitString.
func (bch BCH) Encode(bits string) (checksum uint) {
	for idx := range bits {
		var bit byte
		if bits[idx] == '1' {
			bit = 1
		}
		checksum = bch.shift(checksum, bit)
	}
	return bch.mask(checksum)
}

// Syndrome computes the syndrome of n bits of r beginning at start. A
// codeword, data followed by its check bits, has a zero syndrome.
func (bch BCH) Syndrome(r bitbuffer.Row, start, n int) (checksum uint, err error) {
	for i := start; i < start+n; i++ {
		bit, err := r.Bit(i)
		if err != nil {
			return 0, errors.Wrap(err, "bch")
		}
		checksum = bch.shift(checksum, bit)
	}
	return bch.mask(checksum), nil
}

// Locate returns the offset within an n bit codeword of the single bit
// error producing syndrome.
func (bch BCH) Locate(syndrome uint, n int) (int, bool) {
	// The syndrome of an error in the last bit is 1, each earlier position
	// multiplies it by x.
	s := uint(1)
	for pos := n - 1; pos >= 0; pos-- {
		if s == syndrome {
			return pos, true
		}
		s = bch.shift(s, 0)
	}
	return -1, false
}

// Correct checks n bits of r beginning at start. A single bit error is
// repaired and its offset within the row returned, -1 when the range is
// already a codeword.
func (bch BCH) Correct(r bitbuffer.Row, start, n int) (bitbuffer.Row, int, error) {
	syndrome, err := bch.Syndrome(r, start, n)
	if err != nil {
		return r, -1, err
	}
	if syndrome == 0 {
		return r, -1, nil
	}

	pos, ok := bch.Locate(syndrome, n)
	if !ok {
		return r, -1, errors.Wrapf(ErrUncorrectable, "syndrome %0*X", int(bch.PolyLen+3)/4, syndrome)
	}
	pos += start

	bits := []byte(r.BitString())
	for idx := range bits {
		bits[idx] -= '0'
	}
	bits[pos] ^= 1

	return bitbuffer.RowFromBits(bits), pos, nil
}
