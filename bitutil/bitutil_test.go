package bitutil

import (
	"math/bits"
	"testing"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"
)

func TestReverse8(t *testing.T) {
	cases := map[uint8]uint8{
		0x00: 0x00,
		0x01: 0x80,
		0x0F: 0xF0,
		0x31: 0x8C,
		0xA5: 0xA5,
		0xC4: 0x23,
	}
	for in, expt := range cases {
		assert.Equalf(t, expt, Reverse8(in), "Reverse8(%02X)", in)
	}
}

func TestReverse8Involution(t *testing.T) {
	for i := 0; i < 256; i++ {
		b := uint8(i)
		assert.Equal(t, b, Reverse8(Reverse8(b)))
		assert.Equal(t, bits.Reverse8(b), Reverse8(b))
	}
}

func TestReverse32(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		x := rapid.Uint32().Draw(t, "x")
		assert.Equal(t, bits.Reverse32(x), Reverse32(x))
	})
}

func TestReflect4(t *testing.T) {
	assert.Equal(t, uint8(0x84), Reflect4(0x12))
	assert.Equal(t, uint8(0x0F), Reflect4(0x0F))
	assert.Equal(t, uint8(0xE1), Reflect4(0x78))

	for i := 0; i < 256; i++ {
		b := uint8(i)
		assert.Equal(t, b, Reflect4(Reflect4(b)))
	}
}

func TestReflectIsCopy(t *testing.T) {
	msg := []byte{0x01, 0x12}

	assert.Equal(t, []byte{0x80, 0x48}, ReflectBytes(msg))
	assert.Equal(t, []byte{0x08, 0x84}, ReflectNibbles(msg))
	assert.Equal(t, []byte{0x01, 0x12}, msg)
}

func TestReflectNibblesInvolution(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		msg := rapid.SliceOf(rapid.Byte()).Draw(t, "msg")
		assert.Equal(t, msg, ReflectNibbles(ReflectNibbles(msg)))
		assert.Equal(t, msg, ReflectBytes(ReflectBytes(msg)))
	})
}

func TestParity(t *testing.T) {
	for i := 0; i < 256; i++ {
		b := uint8(i)
		assert.Equal(t, uint8(bits.OnesCount8(b)&1), Parity8(b))
	}

	assert.Equal(t, uint8(0), ParityBytes(nil))
	assert.Equal(t, uint8(1), ParityBytes([]byte{0x01, 0x03, 0x06}))
	assert.Equal(t, uint8(0), ParityBytes([]byte{0xFF, 0x81}))
}

func TestParityBytesCountsBits(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		msg := rapid.SliceOf(rapid.Byte()).Draw(t, "msg")

		ones := 0
		for _, b := range msg {
			ones += bits.OnesCount8(b)
		}
		assert.Equal(t, uint8(ones&1), ParityBytes(msg))
	})
}

func TestXorBytes(t *testing.T) {
	assert.Equal(t, uint8(0x00), XorBytes(nil))
	assert.Equal(t, uint8(0x5A), XorBytes([]byte{0xF0, 0xAA}))
	assert.Equal(t, uint8(0x00), XorBytes([]byte{0x12, 0x34, 0x26}))
}

func TestAddBytes(t *testing.T) {
	assert.Equal(t, 0, AddBytes(nil))
	assert.Equal(t, 0x1FE, AddBytes([]byte{0xFF, 0xFF}))

	// Bresser 6-in-1 payload, bytes 2 through 17 sum to 0xff.
	msg := []byte{0xcc, 0x93, 0x18, 0x80, 0x02, 0xc3, 0x18, 0xff, 0xff, 0xff, 0x33, 0x68, 0x03, 0x04, 0x95, 0xff, 0xf0, 0x67, 0x3f}
	assert.Equal(t, 0xFF, AddBytes(msg[2:18])&0xFF)
}

func TestAddNibbles(t *testing.T) {
	assert.Equal(t, 0, AddNibbles(nil))
	assert.Equal(t, 0x1E, AddNibbles([]byte{0xFF}))
	assert.Equal(t, 1+2+3+4, AddNibbles([]byte{0x12, 0x34}))
}

func BenchmarkReverse8(b *testing.B) {
	var sink uint8
	for i := 0; i < b.N; i++ {
		sink ^= Reverse8(uint8(i))
	}
	_ = sink
}
