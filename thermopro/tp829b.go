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

package thermopro

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"

	"github.com/merbanan/rtl-433-sub004/bitbuffer"
	"github.com/merbanan/rtl-433-sub004/lfsr"
	"github.com/merbanan/rtl-433-sub004/protocol"
)

func init() {
	protocol.Register("tp829b", NewTP829BDecoder)
}

const TP829BKey = 0x55

type TP829BDecoder struct{}

func NewTP829BDecoder() protocol.Decoder {
	return TP829BDecoder{}
}

func (d TP829BDecoder) Name() string {
	return "tp829b"
}

func (d TP829BDecoder) Decode(bb *bitbuffer.BitBuffer) ([]protocol.Message, error) {
	b, err := payload(bb)
	if err != nil {
		return nil, err
	}

	// The digest runs forward over the payload in reverse byte order.
	reversed := make([]byte, 8)
	for idx := range reversed {
		reversed[idx] = b[7-idx]
	}
	if sum := lfsr.Digest8(reversed, DigestGen, TP829BKey); sum != b[8] {
		return nil, errors.Wrapf(protocol.ErrFailMIC, "calculated %02x, expected %02x", sum, b[8])
	}

	return []protocol.Message{NewTP829B(b)}, nil
}

// Display units reported by the TP829B.
const (
	Celsius    = 0x0
	Fahrenheit = 0x2
)

// Four probe meat thermometer.
//
//	II UF 11 12 22 33 34 44 CC
//
// Probe temperatures are 12 bits in tenths of a degree offset by 500. A
// raw value of 0xedd marks an unplugged probe.
type TP829B struct {
	ID          uint8       `json:"ID"`
	DisplayUnit uint8       `json:"DisplayUnit"`
	Flags       uint8       `json:"Flags"`
	Probes      [4]*float64 `json:"Probes"`
	ChecksumVal uint8       `json:"Checksum"`
}

func NewTP829B(b []byte) (msg TP829B) {
	msg.ID = b[0]
	msg.DisplayUnit = b[1] >> 4
	msg.Flags = b[1] & 0x0F
	msg.ChecksumVal = b[8]

	raw := [4]uint16{
		uint16(b[2])<<4 | uint16(b[3]>>4),
		uint16(b[3]&0x0F)<<8 | uint16(b[4]),
		uint16(b[5])<<4 | uint16(b[6]>>4),
		uint16(b[6]&0x0F)<<8 | uint16(b[7]),
	}
	for idx, v := range raw {
		if v == absentProbe {
			continue
		}
		t := tenths(v, 500)
		msg.Probes[idx] = &t
	}

	return
}

func (msg TP829B) Unit() string {
	switch msg.DisplayUnit {
	case Celsius:
		return "Celsius"
	case Fahrenheit:
		return "Fahrenheit"
	}
	return ""
}

func (msg TP829B) MsgType() string {
	return "TP829B"
}

func (msg TP829B) MeterID() uint32 {
	return uint32(msg.ID)
}

func (msg TP829B) MeterType() uint8 {
	return msg.DisplayUnit
}

func (msg TP829B) Checksum() []byte {
	return []byte{msg.ChecksumVal}
}

func (msg TP829B) probes(absent string) (s []string) {
	for _, p := range msg.Probes {
		if p == nil {
			s = append(s, absent)
			continue
		}
		s = append(s, formatTemp(*p))
	}
	return
}

func (msg TP829B) String() string {
	return fmt.Sprintf("{ID:%02x Unit:%s Flags:%X Probes:[%s] Digest:0x%02X}",
		msg.ID, msg.Unit(), msg.Flags, strings.Join(msg.probes("-"), " "), msg.ChecksumVal,
	)
}

func (msg TP829B) Record() (r []string) {
	r = append(r, fmt.Sprintf("%02x", msg.ID))
	r = append(r, msg.Unit())
	r = append(r, fmt.Sprintf("%x", msg.Flags))
	r = append(r, msg.probes("")...)
	r = append(r, protocol.HexChecksum(msg.Checksum()))

	return
}
