package bch

import (
	"fmt"
	"math/rand"
	"reflect"
	"strings"
	"testing"
	"testing/quick"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/merbanan/rtl-433-sub004/bitbuffer"
	"github.com/merbanan/rtl-433-sub004/gen"
)

const (
	GenPoly = 0x16F63
)

var bch = NewBCH(GenPoly)

func TestNOP(t *testing.T) {
	checksum := bch.Encode(strings.Repeat("0", 80))
	if checksum != 0 {
		t.Fatalf("Expected: %d Got: %d\n", 0, checksum)
	}
}

func TestPolyLen(t *testing.T) {
	assert.Equal(t, byte(16), bch.PolyLen)
	assert.Equal(t, "{GenPoly:16F63 PolyLen:16}", bch.String())
}

type BitString string

// Generate a random 64-bit bitstring and pad to 80 bits with zeros.
func (bs BitString) Generate(rand *rand.Rand, size int) reflect.Value {
	var bits string
	for i := 0; i < 64; i++ {
		if rand.NormFloat64() > 0.5 {
			bits += "1"
		} else {
			bits += "0"
		}
	}

	bits += strings.Repeat("0", 16)

	return reflect.ValueOf(BitString(bits))
}

// Encode a random bitstring with checksum of 0, replace checksum with
// calculated value and recalculate, result should be zero.
func TestIdentity(t *testing.T) {
	err := quick.Check(func(bs BitString) bool {
		bits := string(bs)

		checksum := bch.Encode(string(bits))
		bits = bits[:64] + fmt.Sprintf("%016b", checksum)

		checksum = bch.Encode(bits)

		return checksum == 0
	}, nil)

	if err != nil {
		t.Fatal("Error testing identity:", err)
	}
}

// The syndrome over a row must agree with the string form.
func TestSyndromeMatchesEncode(t *testing.T) {
	err := quick.Check(func(bs BitString) bool {
		bits := make([]byte, len(bs))
		for idx := range bits {
			bits[idx] = bs[idx] - '0'
		}

		// Offset the codeword within the row.
		r := bitbuffer.RowFromBits(append([]byte{1, 0, 1}, bits...))
		syndrome, err := bch.Syndrome(r, 3, len(bits))

		return err == nil && syndrome == bch.Encode(string(bs))
	}, nil)

	if err != nil {
		t.Fatal("Error comparing syndromes:", err)
	}
}

func TestSyndromeRange(t *testing.T) {
	r := bitbuffer.RowFromBytes([]byte{0xF9, 0x53})

	_, err := bch.Syndrome(r, 8, 16)
	assert.ErrorIs(t, err, bitbuffer.ErrOutOfRange)
}

func TestSCMCodeword(t *testing.T) {
	for trial := 0; trial < 64; trial++ {
		pkt, err := gen.NewRandSCM()
		require.NoError(t, err)

		syndrome, err := bch.Syndrome(bitbuffer.RowFromBytes(pkt), 16, 80)
		require.NoError(t, err)
		assert.Zerof(t, syndrome, "%02X", pkt)
	}
}

func TestCorrect(t *testing.T) {
	pkt, err := gen.NewRandSCM()
	require.NoError(t, err)
	valid := bitbuffer.RowFromBytes(pkt)

	r, pos, err := bch.Correct(valid, 16, 80)
	require.NoError(t, err)
	assert.Equal(t, -1, pos)
	assert.True(t, r.Equal(valid))

	for flip := 16; flip < 96; flip++ {
		bits := gen.UnpackBits(pkt)
		bits[flip] ^= 1

		r, pos, err := bch.Correct(bitbuffer.RowFromBits(bits), 16, 80)
		require.NoError(t, err)
		assert.Equal(t, flip, pos)
		assert.Truef(t, r.Equal(valid), "flip %d: %s", flip, r)
	}
}

func TestLocateMiss(t *testing.T) {
	// Two adjacent bit errors do not look like one.
	bits := make([]byte, 80)
	bits[10], bits[11] = 1, 1
	r := bitbuffer.RowFromBits(bits)

	_, _, err := bch.Correct(r, 0, 80)
	assert.ErrorIs(t, err, ErrUncorrectable)
}
