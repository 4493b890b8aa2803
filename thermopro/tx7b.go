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
	"strconv"

	"github.com/pkg/errors"

	"github.com/merbanan/rtl-433-sub004/bitbuffer"
	"github.com/merbanan/rtl-433-sub004/lfsr"
	"github.com/merbanan/rtl-433-sub004/protocol"
)

func init() {
	protocol.Register("tx7b", NewTX7BDecoder)
}

const TX7BKey = 0x25

type TX7BDecoder struct{}

func NewTX7BDecoder() protocol.Decoder {
	return TX7BDecoder{}
}

func (d TX7BDecoder) Name() string {
	return "tx7b"
}

func (d TX7BDecoder) Decode(bb *bitbuffer.BitBuffer) ([]protocol.Message, error) {
	b, err := payload(bb)
	if err != nil {
		return nil, err
	}

	if sum := lfsr.Digest8Reverse(b[:8], DigestGen, TX7BKey); sum != b[8] {
		return nil, errors.Wrapf(protocol.ErrFailMIC, "calculated %02x, expected %02x", sum, b[8])
	}

	return []protocol.Message{NewTX7B(b)}, nil
}

// Outdoor thermometer hygrometer.
//
//	II BF 11 12 22 aa 55 aa CC
//
// B holds the low battery flag, the transmit button and the channel
// offset. F is unknown. The checksum is a reversed LFSR digest over the
// first eight bytes.
type TX7B struct {
	ID          uint8   `json:"ID"`
	BatteryOK   bool    `json:"BatteryOK"`
	Button      bool    `json:"Button"`
	Channel     uint8   `json:"Channel"`
	Flags       uint8   `json:"Flags"`
	Temperature float64 `json:"TemperatureC"`
	Humidity    uint8   `json:"Humidity"`
	ChecksumVal uint8   `json:"Checksum"`
}

func NewTX7B(b []byte) (msg TX7B) {
	msg.ID = b[0]
	msg.BatteryOK = b[1]>>7 == 0
	msg.Button = b[1]&0x40 != 0
	msg.Channel = (b[1]&0x30)>>4 + 1
	msg.Flags = b[1] & 0x0F
	msg.Temperature = tenths(uint16(b[2])<<4|uint16(b[3]>>4), 400)
	msg.Humidity = b[4]
	msg.ChecksumVal = b[8]

	return
}

func (msg TX7B) MsgType() string {
	return "TX7B"
}

func (msg TX7B) MeterID() uint32 {
	return uint32(msg.ID)
}

func (msg TX7B) MeterType() uint8 {
	return msg.Channel
}

func (msg TX7B) Checksum() []byte {
	return []byte{msg.ChecksumVal}
}

func (msg TX7B) String() string {
	return fmt.Sprintf("{ID:%02x Channel:%d Battery:%t Button:%t Flags:%04b Temperature:%5.1fC Humidity:%3d%% Digest:0x%02X}",
		msg.ID, msg.Channel, msg.BatteryOK, msg.Button, msg.Flags, msg.Temperature, msg.Humidity, msg.ChecksumVal,
	)
}

func (msg TX7B) Record() (r []string) {
	r = append(r, fmt.Sprintf("%02x", msg.ID))
	r = append(r, strconv.FormatUint(uint64(msg.Channel), 10))
	r = append(r, strconv.FormatBool(msg.BatteryOK))
	r = append(r, strconv.FormatBool(msg.Button))
	r = append(r, fmt.Sprintf("%04b", msg.Flags))
	r = append(r, formatTemp(msg.Temperature))
	r = append(r, strconv.FormatUint(uint64(msg.Humidity), 10))
	r = append(r, protocol.HexChecksum(msg.Checksum()))

	return
}
