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

package burnhard

import (
	"fmt"
	"strconv"

	"github.com/pkg/errors"

	"github.com/merbanan/rtl-433-sub004/bitbuffer"
	"github.com/merbanan/rtl-433-sub004/lfsr"
	"github.com/merbanan/rtl-433-sub004/protocol"
)

func init() {
	protocol.Register("burnhard", NewDecoder)
}

const (
	// Rows carry 80 bits and usually a trailing artefact bit.
	MinRowBits = 80
	MaxRowBits = 81

	DigestGen = 0x31
	DigestKey = 0xF4
)

var meats = [...]string{"free", "beef", "veal", "pork", "chicken", "lamb", "fish", "ham"}

var tastes = [...]string{"rare", "medium rare", "medium", "medium well", "well done"}

type Decoder struct{}

func NewDecoder() protocol.Decoder {
	return Decoder{}
}

func (d Decoder) Name() string {
	return "burnhard"
}

// Decode inverts each row, the remote transmits all three rows alike.
func (d Decoder) Decode(bb *bitbuffer.BitBuffer) ([]protocol.Message, error) {
	return protocol.DecodeRows(bb, d.decodeRow)
}

func (d Decoder) decodeRow(row int, r bitbuffer.Row) (protocol.Message, error) {
	if r.Len() < MinRowBits || r.Len() > MaxRowBits {
		return nil, errors.Wrapf(protocol.ErrAbortLength, "%d bits", r.Len())
	}

	b, err := r.Invert().ExtractBytes(0, MinRowBits)
	if err != nil {
		return nil, errors.Wrap(protocol.ErrAbortLength, err.Error())
	}

	if b[0] == 0 && b[9] == 0 {
		return nil, errors.Wrap(protocol.ErrAbortEarly, "empty")
	}

	if sum := lfsr.Digest8Reflect(b[:9], DigestGen, DigestKey); sum != b[9] {
		return nil, errors.Wrapf(protocol.ErrFailMIC, "digest %02x, expected %02x", sum, b[9])
	}

	return NewBBQ(b), nil
}

// Barbecue thermometer reading.
//
//	AA SD ?? TTTT mt XXYXYY CC
//
// A is the device code, S the alarm and timer flags, D the probe number,
// T a BCD timer, m the meat and t the taste. X and Y are the setpoint and
// probe temperature in tenths of a degree offset by 500.
type BBQ struct {
	ID          uint8    `json:"ID"`
	Channel     uint8    `json:"Channel"`
	Temperature *float64 `json:"TemperatureC,omitempty"`
	Setpoint    float64  `json:"SetpointC"`
	TempAlarm   bool     `json:"TemperatureAlarm"`
	Timer       string   `json:"Timer"`
	TimerActive bool     `json:"TimerActive"`
	TimerAlarm  bool     `json:"TimerAlarm"`
	Meat        string   `json:"Meat,omitempty"`
	Taste       string   `json:"Taste,omitempty"`
	ChecksumVal uint8    `json:"Checksum"`
}

// NewBBQ reads the fields of the ten inverted bytes of a row.
func NewBBQ(b []byte) (msg BBQ) {
	msg.ID = b[0]
	msg.Channel = b[1] & 0x07
	msg.TempAlarm = b[1]&0x80 != 0
	msg.TimerAlarm = b[1]&0x40 != 0
	msg.TimerActive = b[1]&0x10 != 0
	msg.Timer = fmt.Sprintf("%02x:%02x", b[3], b[4]&0x7F)
	msg.ChecksumVal = b[9]

	setpoint := int(b[7]&0x0F)<<8 | int(b[6])
	msg.Setpoint = float64(setpoint-500) * 0.1

	// A raw zero means no probe reading.
	if temp := int(b[7]&0xF0)<<4 | int(b[8]); temp != 0 {
		t := float64(temp-500) * 0.1
		msg.Temperature = &t
	}

	if m := b[5] >> 4; int(m) < len(meats) {
		msg.Meat = meats[m]
	}
	if t := b[5] & 0x0F; int(t) < len(tastes) {
		msg.Taste = tastes[t]
	}

	return
}

func (msg BBQ) MsgType() string {
	return "BBQ"
}

func (msg BBQ) MeterID() uint32 {
	return uint32(msg.ID)
}

func (msg BBQ) MeterType() uint8 {
	return msg.Channel
}

func (msg BBQ) Checksum() []byte {
	return []byte{msg.ChecksumVal}
}

func (msg BBQ) temperature() string {
	if msg.Temperature == nil {
		return ""
	}
	return strconv.FormatFloat(*msg.Temperature, 'f', 1, 64)
}

func (msg BBQ) String() string {
	return fmt.Sprintf("{ID:%3d Channel:%d Temperature:%sC Setpoint:%.0fC Alarm:%t Timer:%s Active:%t TimerAlarm:%t Meat:%q Taste:%q Digest:0x%02X}",
		msg.ID, msg.Channel, msg.temperature(), msg.Setpoint, msg.TempAlarm,
		msg.Timer, msg.TimerActive, msg.TimerAlarm, msg.Meat, msg.Taste, msg.ChecksumVal,
	)
}

func (msg BBQ) Record() (r []string) {
	r = append(r, strconv.FormatUint(uint64(msg.ID), 10))
	r = append(r, strconv.FormatUint(uint64(msg.Channel), 10))
	r = append(r, msg.temperature())
	r = append(r, strconv.FormatFloat(msg.Setpoint, 'f', 0, 64))
	r = append(r, strconv.FormatBool(msg.TempAlarm))
	r = append(r, msg.Timer)
	r = append(r, strconv.FormatBool(msg.TimerActive))
	r = append(r, strconv.FormatBool(msg.TimerAlarm))
	r = append(r, msg.Meat)
	r = append(r, msg.Taste)
	r = append(r, protocol.HexChecksum(msg.Checksum()))

	return
}
