package bitbuffer_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/merbanan/rtl-433-sub004/bitbuffer"
	"github.com/merbanan/rtl-433-sub004/gen"
)

func rowOf(t testing.TB, code string) bitbuffer.Row {
	bb, err := bitbuffer.Parse(code)
	require.NoError(t, err)
	require.Equal(t, 1, bb.NumRows())
	return bb.Row(0)
}

func TestNewRowMasksTail(t *testing.T) {
	r, err := bitbuffer.NewRow([]byte{0xFF, 0xFF}, 12)
	require.NoError(t, err)

	assert.Equal(t, 12, r.Len())
	assert.Equal(t, []byte{0xFF, 0xF0}, r.Bytes())
	assert.Equal(t, "{12}fff", r.String())

	_, err = bitbuffer.NewRow([]byte{0xFF}, 9)
	assert.ErrorIs(t, err, bitbuffer.ErrOutOfRange)
}

func TestRowFromBits(t *testing.T) {
	r := bitbuffer.RowFromBits([]byte{1, 0, 1, 1, 0, 0, 0, 0, 1})
	assert.Equal(t, 9, r.Len())
	assert.Equal(t, "101100001", r.BitString())
	assert.Equal(t, []byte{0xB0, 0x80}, r.Bytes())
}

func TestSearch(t *testing.T) {
	r := rowOf(t, "aaaaaaaaaaaa2dd430c381d55c2acf0835442c")

	// Fine Offset sync word, the last nibble of the preamble included.
	pos := r.Search(0, []byte{0xAA, 0x2D, 0xD4, 0x30}, 28)
	assert.Equal(t, 40, pos)

	assert.Equal(t, 80, r.Search(0, []byte{0x81, 0xD5}, 16))
	assert.Equal(t, r.Len(), r.Search(0, []byte{0xDE, 0xAD, 0xBE, 0xEF}, 32))
	assert.Equal(t, r.Len(), r.Search(pos+1, []byte{0xAA, 0x2D, 0xD4, 0x30}, 28))
}

func TestSearchEdges(t *testing.T) {
	r := bitbuffer.RowFromBytes([]byte{0x0F, 0xF0})

	assert.Equal(t, 3, r.Search(3, []byte{}, 0))
	assert.Equal(t, 4, r.Search(-5, []byte{0xFF}, 8))
	assert.Equal(t, 16, r.Search(20, []byte{0xFF}, 8))
	assert.Equal(t, 4, r.Search(0, []byte{0xE0}, 3))

	assert.Panics(t, func() { r.Search(0, []byte{0xFF}, 9) })
}

func TestSearchFindsEmbedded(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		prefix := rapid.SliceOfN(rapid.ByteRange(0, 1), 0, 64).Draw(t, "prefix")
		pattern := rapid.SliceOfN(rapid.ByteRange(0, 1), 1, 32).Draw(t, "pattern")
		suffix := rapid.SliceOfN(rapid.ByteRange(0, 1), 0, 64).Draw(t, "suffix")

		bits := append(append(append([]byte{}, prefix...), pattern...), suffix...)
		r := bitbuffer.RowFromBits(bits)

		pos := r.Search(0, gen.PackBits(pattern), len(pattern))
		assert.LessOrEqual(t, pos, len(prefix))

		got, err := r.ExtractBytes(pos, len(pattern))
		require.NoError(t, err)
		assert.Equal(t, gen.PackBits(pattern), got)
	})
}

func TestExtractBytes(t *testing.T) {
	r := rowOf(t, "aaaaaaaaaaaa2dd430c381d55c2acf0835442c")
	start := r.Search(0, []byte{0xAA, 0x2D, 0xD4, 0x30}, 28) + 24

	msg, err := r.ExtractBytes(start, 48)
	require.NoError(t, err)
	assert.Equal(t, []byte{0x30, 0xC3, 0x81, 0xD5, 0x5C, 0x2A}, msg)

	msg, err = r.ExtractBytes(start+4, 12)
	require.NoError(t, err)
	assert.Equal(t, []byte{0x0C, 0x30}, msg)

	_, err = r.ExtractBytes(r.Len()-8, 16)
	assert.ErrorIs(t, err, bitbuffer.ErrOutOfRange)
	_, err = r.ExtractBytes(-1, 8)
	assert.ErrorIs(t, err, bitbuffer.ErrOutOfRange)
}

func TestExtractRoundTrip(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		offset := rapid.IntRange(0, 15).Draw(t, "offset")
		data := rapid.SliceOfN(rapid.Byte(), 1, 32).Draw(t, "data")

		bits := append(make([]byte, offset), gen.UnpackBits(data)...)
		r := bitbuffer.RowFromBits(bits)

		got, err := r.ExtractBytes(offset, len(data)<<3)
		require.NoError(t, err)
		assert.Equal(t, data, got)
	})
}

func TestBitAccess(t *testing.T) {
	r := rowOf(t, "{12}a5f")

	b, err := r.Bit(0)
	require.NoError(t, err)
	assert.Equal(t, byte(1), b)

	v, err := r.Bits(4, 8)
	require.NoError(t, err)
	assert.Equal(t, uint64(0x5F), v)

	x, err := r.Byte(4)
	require.NoError(t, err)
	assert.Equal(t, byte(0x5F), x)

	_, err = r.Byte(5)
	assert.ErrorIs(t, err, bitbuffer.ErrOutOfRange)
	_, err = r.Bit(12)
	assert.ErrorIs(t, err, bitbuffer.ErrOutOfRange)
	_, err = r.Bits(0, 65)
	assert.ErrorIs(t, err, bitbuffer.ErrOutOfRange)
}

func TestInvert(t *testing.T) {
	r := rowOf(t, "{81}e0ddff6fadbbebda1ae10")
	inv := r.Invert()

	assert.Equal(t, "{81}1f22009052441425e51e8", inv.String())
	assert.True(t, inv.Invert().Equal(r))

	rapid.Check(t, func(t *rapid.T) {
		bits := rapid.SliceOf(rapid.ByteRange(0, 1)).Draw(t, "bits")
		r := bitbuffer.RowFromBits(bits)
		assert.True(t, r.Invert().Invert().Equal(r))
	})
}

func TestNRZ(t *testing.T) {
	r := bitbuffer.RowFromBits([]byte{0, 0, 1, 1, 0})

	assert.Equal(t, "11010", r.NRZSDecode().BitString())
	assert.Equal(t, "00101", r.NRZMDecode().BitString())
}
