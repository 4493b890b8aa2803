package crc

import "github.com/merbanan/rtl-433-sub004/bitutil"

// The bitwise CRCs take the message, the polynomial without its leading
// term and the initial register. None apply a final XOR; callers compare
// the result against the received value, XOR included.

// CRC4 computes a 4-bit MSB-first CRC, result in the low nibble.
func CRC4(msg []byte, poly, init uint8) uint8 {
	return narrow(msg, poly, init, 4)
}

// CRC7 computes a 7-bit MSB-first CRC, result in the low 7 bits.
func CRC7(msg []byte, poly, init uint8) uint8 {
	return narrow(msg, poly, init, 7)
}

// Run a CRC narrower than 8 bits left-aligned in an 8-bit register.
func narrow(msg []byte, poly, init uint8, width uint) uint8 {
	shift := 8 - width
	rem := init << shift
	p := poly << shift

	for _, b := range msg {
		rem ^= b
		for bit := 0; bit < 8; bit++ {
			if rem&0x80 != 0 {
				rem = rem<<1 ^ p
			} else {
				rem <<= 1
			}
		}
	}

	return rem >> shift & (0xFF >> shift)
}

// CRC8 computes an 8-bit MSB-first CRC.
func CRC8(msg []byte, poly, init uint8) uint8 {
	rem := init
	for _, b := range msg {
		rem ^= b
		for bit := 0; bit < 8; bit++ {
			if rem&0x80 != 0 {
				rem = rem<<1 ^ poly
			} else {
				rem <<= 1
			}
		}
	}
	return rem
}

// CRC8LE computes an 8-bit LSB-first CRC. Poly and init are given in
// their normal form and reflected here, the result is not reflected back.
// For any message CRC8LE(m, p, i) == Reverse8(CRC8(ReflectBytes(m), p, i)).
func CRC8LE(msg []byte, poly, init uint8) uint8 {
	rem := bitutil.Reverse8(init)
	p := bitutil.Reverse8(poly)

	for _, b := range msg {
		rem ^= b
		for bit := 0; bit < 8; bit++ {
			if rem&1 != 0 {
				rem = rem>>1 ^ p
			} else {
				rem >>= 1
			}
		}
	}

	return rem
}

// CRC16 computes a 16-bit MSB-first CRC.
func CRC16(msg []byte, poly, init uint16) uint16 {
	rem := init
	for _, b := range msg {
		rem ^= uint16(b) << 8
		for bit := 0; bit < 8; bit++ {
			if rem&0x8000 != 0 {
				rem = rem<<1 ^ poly
			} else {
				rem <<= 1
			}
		}
	}
	return rem
}

// CRC16LSB computes a 16-bit LSB-first CRC. Unlike CRC8LE, poly and init
// must already be reflected, e.g. 0x8408 for 0x1021.
func CRC16LSB(msg []byte, poly, init uint16) uint16 {
	rem := init
	for _, b := range msg {
		rem ^= uint16(b)
		for bit := 0; bit < 8; bit++ {
			if rem&1 != 0 {
				rem = rem>>1 ^ poly
			} else {
				rem >>= 1
			}
		}
	}
	return rem
}
