package bitbuffer_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/merbanan/rtl-433-sub004/bitbuffer"
	"github.com/merbanan/rtl-433-sub004/gen"
)

func TestManchesterDecode(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		bits := rapid.SliceOfN(rapid.ByteRange(0, 1), 1, 128).Draw(t, "bits")
		r := bitbuffer.RowFromBits(gen.Manchester(bits))

		decoded, consumed := r.ManchesterDecode(0, 0)
		assert.Equal(t, len(bits)<<1, consumed)
		assert.Equal(t, bitbuffer.RowFromBits(bits), decoded)
	})
}

func TestManchesterDecodeGEThomas(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		data := rapid.SliceOfN(rapid.Byte(), 1, 32).Draw(t, "data")
		r := bitbuffer.RowFromBytes(gen.NewManchesterLUT().Encode(data))

		decoded, consumed := r.ManchesterDecodeGEThomas(0, 0)
		assert.Equal(t, len(data)<<4, consumed)
		assert.Equal(t, data, decoded.Bytes())

		// The two conventions are complements of each other.
		ieee, _ := r.ManchesterDecode(0, 0)
		assert.True(t, ieee.Invert().Equal(decoded))
	})
}

func TestManchesterStopsOnInvalidPair(t *testing.T) {
	// 01 10 01 11 ...
	r := bitbuffer.RowFromBits([]byte{0, 1, 1, 0, 0, 1, 1, 1, 0, 1})

	decoded, consumed := r.ManchesterDecode(0, 0)
	assert.Equal(t, "101", decoded.BitString())
	assert.Equal(t, 6, consumed)

	decoded, consumed = r.ManchesterDecode(0, 2)
	assert.Equal(t, "10", decoded.BitString())
	assert.Equal(t, 4, consumed)

	decoded, consumed = r.ManchesterDecode(r.Len()+3, 0)
	assert.Equal(t, 0, decoded.Len())
	assert.Equal(t, 0, consumed)
}

func TestManchesterDecodeZeroBit(t *testing.T) {
	bits := []byte{1, 1, 0, 1, 0, 0, 1}
	line := append([]byte{0}, gen.Manchester(bits)...)
	r := bitbuffer.RowFromBits(line)

	decoded, consumed := r.ManchesterDecodeZeroBit(0, 0)
	assert.Equal(t, "01101001", decoded.BitString())
	assert.Equal(t, len(line), consumed)

	decoded, consumed = r.ManchesterDecodeZeroBit(0, 3)
	assert.Equal(t, "011", decoded.BitString())
	assert.Equal(t, 5, consumed)

	// The leading zero is required.
	decoded, consumed = r.Invert().ManchesterDecodeZeroBit(0, 0)
	assert.Equal(t, 0, decoded.Len())
	assert.Equal(t, 0, consumed)
}

func TestDifferentialManchesterDecode(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		bits := rapid.SliceOfN(rapid.ByteRange(0, 1), 1, 128).Draw(t, "bits")
		level := rapid.ByteRange(0, 1).Draw(t, "level")
		r := bitbuffer.RowFromBits(gen.DiffManchester(bits, level))

		decoded, consumed := r.DifferentialManchesterDecode(0, 0)
		assert.Equal(t, len(bits)<<1, consumed)
		assert.Equal(t, bitbuffer.RowFromBits(bits).BitString(), decoded.BitString())
	})
}

func TestDifferentialManchesterMaxBits(t *testing.T) {
	bits := []byte{1, 0, 0, 1, 1, 0, 1, 0}
	r := bitbuffer.RowFromBits(gen.DiffManchester(bits, 0))

	decoded, consumed := r.DifferentialManchesterDecode(0, 5)
	assert.Equal(t, "10011", decoded.BitString())
	assert.Equal(t, 10, consumed)
}

func TestDifferentialManchesterMissingClock(t *testing.T) {
	line := gen.DiffManchester([]byte{1, 1, 0, 1}, 0)
	// A cell without its leading transition ends the decode.
	line = append(line, line[len(line)-1], line[len(line)-1])
	r := bitbuffer.RowFromBits(line)

	decoded, consumed := r.DifferentialManchesterDecode(0, 0)
	assert.Equal(t, "1101", decoded.BitString())
	assert.Equal(t, 8, consumed)
}

func TestUART8N1(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		data := rapid.SliceOfN(rapid.Byte(), 1, 34).Draw(t, "data")
		r := bitbuffer.RowFromBits(gen.UART8N1(data))

		out, n := r.ExtractUART8N1(0, r.Len())
		assert.Equal(t, len(data), n)
		assert.Equal(t, data, out)
	})
}

func TestUART8N1FramingError(t *testing.T) {
	line := gen.UART8N1([]byte{0x12, 0x34, 0x56, 0x78, 0x9A})
	// Break the stop bit of the fourth byte.
	line[39] = 0
	r := bitbuffer.RowFromBits(line)

	out, n := r.ExtractUART8N1(0, r.Len())
	assert.Equal(t, 3, n)
	assert.Equal(t, []byte{0x12, 0x34, 0x56}, out)

	// A trailing partial frame is ignored.
	out, n = r.ExtractUART8N1(0, 25)
	assert.Equal(t, 2, n)
	assert.Equal(t, []byte{0x12, 0x34}, out)

	out, n = r.ExtractUART8N1(r.Len()+1, 10)
	assert.Equal(t, 0, n)
	assert.Empty(t, out)
}

func TestUART8O1(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		data := rapid.SliceOfN(rapid.Byte(), 1, 32).Draw(t, "data")
		r := bitbuffer.RowFromBits(gen.UART8O1(data))

		out, n := r.ExtractUART8O1(0, r.Len())
		assert.Equal(t, len(data), n)
		assert.Equal(t, data, out)
	})
}

func TestUART8O1ParityError(t *testing.T) {
	line := gen.UART8O1([]byte{0xA5, 0x01, 0xFF})
	// Flip the parity bit of the second byte.
	line[20] ^= 1
	r := bitbuffer.RowFromBits(line)

	out, n := r.ExtractUART8O1(0, r.Len())
	assert.Equal(t, 1, n)
	assert.Equal(t, []byte{0xA5}, out)
}

func TestNibbles4B1S(t *testing.T) {
	nibbles := []byte{0x0, 0x3, 0x5, 0x1, 0x2, 0x5, 0xF}
	line := gen.Nibbles4B1S(nibbles)
	r := bitbuffer.RowFromBits(line)

	out, n := r.ExtractNibbles4B1S(0, r.Len())
	assert.Equal(t, len(nibbles), n)
	assert.Equal(t, nibbles, out)

	// A missing separator ends the extraction.
	line[14] = 0
	out, n = bitbuffer.RowFromBits(line).ExtractNibbles4B1S(0, len(line))
	assert.Equal(t, 2, n)
	assert.Equal(t, nibbles[:2], out)
}

func TestSymbolFromPacked(t *testing.T) {
	s := bitbuffer.SymbolFromPacked(0xE0000003)

	assert.Equal(t, uint32(0xE0000000), s.Pattern)
	assert.Equal(t, 3, s.Len)
	assert.Equal(t, "{3}111", s.String())
}

func TestExtractSymbols(t *testing.T) {
	zero := bitbuffer.SymbolFromPacked(0x80000004) // 1000
	one := bitbuffer.SymbolFromPacked(0xE0000004)  // 1110
	sync := bitbuffer.SymbolFromPacked(0xF0000008) // 11110000

	bits := []byte{1, 0, 1, 1, 0, 0, 1}
	sync8 := []byte{1, 1, 1, 1, 0, 0, 0, 0}
	line := gen.Symbols(bits, []byte{1, 0, 0, 0}, []byte{1, 1, 1, 0})

	r := bitbuffer.RowFromBits(line)
	out, n := r.ExtractSymbols(0, r.Len(), zero, one, sync)
	assert.Equal(t, len(bits), n)
	assert.Equal(t, "1011001", out.BitString())

	// A leading sync is skipped, a second one terminates.
	framed := append(append(append([]byte{}, sync8...), line...), sync8...)
	framed = append(framed, line...)
	r = bitbuffer.RowFromBits(framed)
	out, n = r.ExtractSymbols(0, r.Len(), zero, one, sync)
	assert.Equal(t, len(bits), n)
	assert.Equal(t, "1011001", out.BitString())

	// Repeated leading syncs are all skipped.
	r = bitbuffer.RowFromBits([]byte{1, 1, 1, 1, 0, 1, 0, 0})
	out, n = r.ExtractSymbols(0, r.Len(),
		bitbuffer.SymbolFromPacked(0x00000001), // 0
		bitbuffer.SymbolFromPacked(0x80000002), // 10
		bitbuffer.SymbolFromPacked(0xC0000002), // 11
	)
	require.Equal(t, 3, n)
	assert.Equal(t, "010", out.BitString())

	// Unknown symbols stop the extraction.
	r = bitbuffer.RowFromBits(append(gen.Symbols([]byte{0, 1}, []byte{1, 0, 0, 0}, []byte{1, 1, 1, 0}), 0, 1, 0, 1))
	out, n = r.ExtractSymbols(0, r.Len(), zero, one, bitbuffer.Symbol{})
	require.Equal(t, 2, n)
	assert.Equal(t, "01", out.BitString())
}
