// Package gen builds synthetic transmissions for tests: random meter
// packets and the line encodings the bitbuffer package decodes. Encoders
// work on unpacked bits, one 0 or 1 per byte.
package gen

import (
	"crypto/rand"

	"github.com/merbanan/rtl-433-sub004/crc"
)

func NewRandSCM() (pkt []byte, err error) {
	bch := crc.NewCRC("BCH", 0, 0x6F63, 0)

	pkt = make([]byte, 12)
	_, err = rand.Read(pkt)
	if err != nil {
		return nil, err
	}

	pkt[0] = 0xF9
	pkt[1] = 0x53
	pkt[2] &= 0x07

	checksum := bch.Checksum(pkt[2:10])
	pkt[10] = uint8(checksum >> 8)
	pkt[11] = uint8(checksum & 0xFF)

	return
}

// NewRandIDM returns a 92 byte IDM packet, preamble included, whose CCITT
// checksum over bytes 4 through 91 leaves the standard residue.
func NewRandIDM() (pkt []byte, err error) {
	ccitt := crc.NewCRC("CCITT", 0xFFFF, 0x1021, 0x1D0F)

	pkt = make([]byte, 92)
	_, err = rand.Read(pkt)
	if err != nil {
		return nil, err
	}

	copy(pkt, []byte{0x55, 0x55, 0x16, 0xA3, 0x1C})

	checksum := ^ccitt.Checksum(pkt[4:90])
	pkt[90] = uint8(checksum >> 8)
	pkt[91] = uint8(checksum & 0xFF)

	return
}

type ManchesterLUT [16]byte

// NewManchesterLUT encodes each nibble with 0 as 01 and 1 as 10, the
// G.E. Thomas convention used by ERT meters.
func NewManchesterLUT() ManchesterLUT {
	return ManchesterLUT{
		85, 86, 89, 90, 101, 102, 105, 106, 149, 150, 153, 154, 165, 166, 169, 170,
	}
}

func (lut ManchesterLUT) Encode(data []byte) (manchester []byte) {
	manchester = make([]byte, len(data)<<1)

	for idx := range data {
		manchester[idx<<1] = lut[data[idx]>>4]
		manchester[idx<<1+1] = lut[data[idx]&0x0F]
	}

	return
}

func UnpackBits(data []byte) []byte {
	bits := make([]byte, len(data)<<3)

	for idx, b := range data {
		offset := idx << 3
		for bit := 7; bit >= 0; bit-- {
			bits[offset+(7-bit)] = (b >> uint8(bit)) & 0x01
		}
	}

	return bits
}

// PackBits is the inverse of UnpackBits. A trailing partial byte is
// left-justified.
func PackBits(bits []byte) []byte {
	data := make([]byte, (len(bits)+7)>>3)

	for idx, b := range bits {
		data[idx>>3] |= (b & 0x01) << uint8(7-idx&7)
	}

	return data
}

// Manchester encodes with the IEEE 802.3 convention: 1 as 01, 0 as 10.
func Manchester(bits []byte) []byte {
	out := make([]byte, 0, len(bits)<<1)
	for _, b := range bits {
		b &= 1
		out = append(out, b^1, b)
	}
	return out
}

// DiffManchester encodes differential Manchester. Every cell starts with a
// transition from level, the line state before the first cell. A 0 adds a
// mid-cell transition, a 1 holds the level.
func DiffManchester(bits []byte, level byte) []byte {
	out := make([]byte, 0, len(bits)<<1)
	for _, b := range bits {
		first := (level & 1) ^ 1
		second := first
		if b&1 == 0 {
			second ^= 1
		}
		out = append(out, first, second)
		level = second
	}
	return out
}

// UART8N1 frames each byte as a 0 start bit, 8 data bits LSB-first and a
// 1 stop bit.
func UART8N1(data []byte) []byte {
	out := make([]byte, 0, len(data)*10)
	for _, d := range data {
		out = append(out, 0)
		for bit := 0; bit < 8; bit++ {
			out = append(out, d>>uint8(bit)&1)
		}
		out = append(out, 1)
	}
	return out
}

// UART8O1 frames each byte as a 1 start bit, 8 data bits MSB-first, an odd
// parity bit and a 0 stop bit.
func UART8O1(data []byte) []byte {
	out := make([]byte, 0, len(data)*11)
	for _, d := range data {
		out = append(out, 1)
		ones := byte(0)
		for bit := 7; bit >= 0; bit-- {
			b := d >> uint8(bit) & 1
			ones ^= b
			out = append(out, b)
		}
		out = append(out, ones^1, 0)
	}
	return out
}

// Nibbles4B1S stuffs a 1 after the 4 bits of each nibble. Only the low
// half of each byte is sent.
func Nibbles4B1S(nibbles []byte) []byte {
	out := make([]byte, 0, len(nibbles)*5)
	for _, n := range nibbles {
		for bit := 3; bit >= 0; bit-- {
			out = append(out, n>>uint8(bit)&1)
		}
		out = append(out, 1)
	}
	return out
}

// Symbols replaces each bit with the zero or one code word.
func Symbols(bits, zero, one []byte) []byte {
	var out []byte
	for _, b := range bits {
		if b&1 == 0 {
			out = append(out, zero...)
		} else {
			out = append(out, one...)
		}
	}
	return out
}
