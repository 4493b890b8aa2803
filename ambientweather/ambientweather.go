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

package ambientweather

import (
	"encoding/hex"
	"fmt"
	"strconv"

	"github.com/pkg/errors"

	"github.com/merbanan/rtl-433-sub004/bitbuffer"
	"github.com/merbanan/rtl-433-sub004/crc"
	"github.com/merbanan/rtl-433-sub004/protocol"
)

func init() {
	protocol.Register("wh31e", NewDecoder)
}

const (
	PreambleBits = 28
	PayloadBits  = 88

	TypeCode = 0x30
)

// Tail of the aaaa preamble, the 2dd4 sync word and the high nibble of the
// type code.
var preamble = []byte{0xAA, 0x2D, 0xD4, 0x30}

type Decoder struct{}

func NewDecoder() protocol.Decoder {
	return Decoder{}
}

func (d Decoder) Name() string {
	return "wh31e"
}

func (d Decoder) Decode(bb *bitbuffer.BitBuffer) ([]protocol.Message, error) {
	return protocol.DecodeRows(bb, d.decodeRow)
}

func (d Decoder) decodeRow(row int, r bitbuffer.Row) (protocol.Message, error) {
	start := r.Search(0, preamble, PreambleBits)
	if start == r.Len() {
		return nil, errors.Wrap(protocol.ErrAbortEarly, "no preamble")
	}

	b, err := r.ExtractBytes(start+24, PayloadBits)
	if err != nil {
		return nil, errors.Wrap(protocol.ErrAbortLength, err.Error())
	}

	if b[0] != TypeCode {
		return nil, errors.Wrapf(protocol.ErrAbortEarly, "unknown message type %02x", b[0])
	}

	if sum := crc.CRC8(b[:5], 0x31, 0x00); sum != b[5] {
		return nil, errors.Wrapf(protocol.ErrFailMIC, "calculated %02x, received %02x", sum, b[5])
	}

	return NewWH31E(b), nil
}

// Thermo-hygrometer reading.
//
//	YY II CT TT HH XX ?? ?? ?? ?? ??
//
// Y is the type code, I the device id, C the battery flag and channel, T a
// 12-bit temperature in tenths of a degree offset by 400, H the humidity
// and X a CRC-8 over the first five bytes.
type WH31E struct {
	ID          uint8   `json:"ID"`
	Channel     uint8   `json:"Channel"`
	BatteryOK   bool    `json:"BatteryOK"`
	Temperature float64 `json:"TemperatureC"`
	Humidity    uint8   `json:"Humidity"`
	Extra       []byte  `json:"Extra"`
	ChecksumVal uint8   `json:"Checksum"`
}

// NewWH31E reads the fields of an 11 byte payload starting at the type code.
func NewWH31E(b []byte) (msg WH31E) {
	msg.ID = b[1]
	msg.BatteryOK = b[2]>>7 == 1
	msg.Channel = (b[2]&0x70)>>4 + 1
	msg.Temperature = float64(uint16(b[2]&0x0F)<<8|uint16(b[3]))*0.1 - 40
	msg.Humidity = b[4]
	msg.ChecksumVal = b[5]
	msg.Extra = append([]byte(nil), b[6:11]...)

	return
}

func (msg WH31E) MsgType() string {
	return "WH31E"
}

func (msg WH31E) MeterID() uint32 {
	return uint32(msg.ID)
}

func (msg WH31E) MeterType() uint8 {
	return msg.Channel
}

func (msg WH31E) Checksum() []byte {
	return []byte{msg.ChecksumVal}
}

func (msg WH31E) String() string {
	return fmt.Sprintf("{ID:%3d Channel:%d Battery:%t Temperature:%5.1fC Humidity:%3d%% Extra:%s CRC:0x%02X}",
		msg.ID, msg.Channel, msg.BatteryOK, msg.Temperature, msg.Humidity, hex.EncodeToString(msg.Extra), msg.ChecksumVal,
	)
}

func (msg WH31E) Record() (r []string) {
	r = append(r, strconv.FormatUint(uint64(msg.ID), 10))
	r = append(r, strconv.FormatUint(uint64(msg.Channel), 10))
	r = append(r, strconv.FormatBool(msg.BatteryOK))
	r = append(r, strconv.FormatFloat(msg.Temperature, 'f', 1, 64))
	r = append(r, strconv.FormatUint(uint64(msg.Humidity), 10))
	r = append(r, hex.EncodeToString(msg.Extra))
	r = append(r, protocol.HexChecksum(msg.Checksum()))

	return
}
