package lfsr

import (
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"
)

func TestDigest8Reverse(t *testing.T) {
	// ThermoPro TX-7B frames, digest over the first 8 bytes.
	assert.Equal(t, uint8(0x83), Digest8Reverse([]byte{0xe8, 0x00, 0x29, 0x30, 0x17, 0xaa, 0x55, 0xaa}, 0x98, 0x25))
	assert.Equal(t, uint8(0xbb), Digest8Reverse([]byte{0x25, 0x20, 0x2c, 0xa0, 0x0d, 0xaa, 0x55, 0xaa}, 0x98, 0x25))
}

func TestDigest8(t *testing.T) {
	// ThermoPro TP829B sends the digest of the byte reversed frame.
	msg := []byte{0x08, 0x2f, 0x2e, 0xfe, 0xdd, 0xed, 0xde, 0xdd}
	rev := make([]byte, len(msg))
	for idx := range msg {
		rev[len(msg)-1-idx] = msg[idx]
	}

	assert.Equal(t, uint8(0xe8), Digest8(rev, 0x98, 0x55))
	assert.Equal(t, Digest8(rev, 0x98, 0x55), Digest8Reverse(msg, 0x98, 0x55))
}

func TestDigest8Reflect(t *testing.T) {
	// Burnhard BBQ, digest over the first 9 bytes.
	msg := []byte{0x1f, 0x22, 0x00, 0x90, 0x52, 0x44, 0x14, 0x25, 0xe5}
	assert.Equal(t, uint8(0x1e), Digest8Reflect(msg, 0x31, 0xf4))
}

func TestDigest16(t *testing.T) {
	// Bresser 6-in-1, the digest of bytes 2 through 16 is sent in bytes 0 and 1.
	for _, line := range []string{
		"cc93188002c318ffffff3368030495fff0673f",
		"5eaa188002c318fa8ffb2768118481fff07200",
	} {
		msg := mustHex(t, line)
		expt := uint16(msg[0])<<8 | uint16(msg[1])
		assert.Equalf(t, expt, Digest16(msg[2:17], 0x8810, 0x5412), "%s", line)
	}
}

func TestDigestLinear(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		n := rapid.IntRange(1, 16).Draw(t, "n")
		a := rapid.SliceOfN(rapid.Byte(), n, n).Draw(t, "a")
		b := rapid.SliceOfN(rapid.Byte(), n, n).Draw(t, "b")
		gen := rapid.Byte().Draw(t, "gen")
		key := rapid.Byte().Draw(t, "key")

		x := make([]byte, n)
		for idx := range x {
			x[idx] = a[idx] ^ b[idx]
		}

		assert.Equal(t, Digest8(a, gen, key)^Digest8(b, gen, key), Digest8(x, gen, key))
		assert.Equal(t, Digest8Reflect(a, gen, key)^Digest8Reflect(b, gen, key), Digest8Reflect(x, gen, key))
	})
}

func TestWhitenKeyStream(t *testing.T) {
	zero := make([]byte, 23)

	assert.Equal(t,
		"ffe11d9aed853324ea7ad2397097570a547d2dd86d0dba",
		hex.EncodeToString(WhitenIBM(zero)),
	)
	assert.Equal(t,
		"ff87b859b7a1cc24575e4b9c0ee9ea502abeb41bb6b05d",
		hex.EncodeToString(WhitenCCITT(zero)),
	)
}

func TestWhitenInvolution(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		data := rapid.SliceOf(rapid.Byte()).Draw(t, "data")

		assert.Equal(t, data, WhitenIBM(WhitenIBM(data)))
		assert.Equal(t, data, WhitenCCITT(WhitenCCITT(data)))
	})
}

func TestWhitenLeavesInput(t *testing.T) {
	data := []byte{0x01, 0x02, 0x03}
	_ = WhitenIBM(data)
	assert.Equal(t, []byte{0x01, 0x02, 0x03}, data)
}

func mustHex(t *testing.T, s string) []byte {
	t.Helper()

	clean := make([]byte, 0, len(s))
	for _, c := range []byte(s) {
		if c != ' ' {
			clean = append(clean, c)
		}
	}

	b, err := hex.DecodeString(string(clean))
	if err != nil {
		t.Fatal(err)
	}
	return b
}
