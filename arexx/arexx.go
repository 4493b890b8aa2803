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

package arexx

import (
	"fmt"
	"strconv"

	"github.com/pkg/errors"

	"github.com/merbanan/rtl-433-sub004/bitbuffer"
	"github.com/merbanan/rtl-433-sub004/crc"
	"github.com/merbanan/rtl-433-sub004/protocol"
)

func init() {
	protocol.Register("arexx", NewDecoder)
}

const (
	PreambleBits = 24
	MinRowBits   = 64
	MaxRowBits   = 140

	// Up to nine bytes follow the preamble, at least eight must be present.
	MaxMessageLen = 9
	MinMessageLen = 8
)

// Sync after inversion, the line carries 55555555aa.
var preamble = []byte{0xAA, 0xAA, 0x55}

type Decoder struct{}

func NewDecoder() protocol.Decoder {
	return Decoder{}
}

func (d Decoder) Name() string {
	return "arexx"
}

// Decode expects a single row.
func (d Decoder) Decode(bb *bitbuffer.BitBuffer) ([]protocol.Message, error) {
	if bb.NumRows() != 1 {
		return nil, errors.Wrapf(protocol.ErrAbortEarly, "%d rows", bb.NumRows())
	}
	return protocol.DecodeRows(bb, d.decodeRow)
}

func (d Decoder) decodeRow(row int, r bitbuffer.Row) (protocol.Message, error) {
	if r.Len() < MinRowBits || r.Len() > MaxRowBits {
		return nil, errors.Wrapf(protocol.ErrAbortEarly, "%d bits", r.Len())
	}

	// Polarity is inverted.
	r = r.Invert()

	pos := r.Search(0, preamble, PreambleBits) + PreambleBits
	if pos+MinMessageLen*8 > r.Len() {
		return nil, errors.Wrap(protocol.ErrAbortEarly, "no preamble")
	}

	n := r.Len() - pos
	if n > MaxMessageLen*8 {
		n = MaxMessageLen * 8
	}
	b := make([]byte, MaxMessageLen)
	extracted, err := r.ExtractBytes(pos, n)
	if err != nil {
		return nil, errors.Wrap(protocol.ErrAbortLength, err.Error())
	}
	copy(b, extracted)

	// The length byte counts itself and excludes the CRC.
	msgLen := int(b[0])
	if msgLen == 0 || msgLen >= MaxMessageLen {
		return nil, errors.Wrapf(protocol.ErrFailSanity, "message length %d", msgLen)
	}

	if sum := crc.CRC8LE(b[:msgLen], 0x31, 0x00); sum != b[msgLen] {
		return nil, errors.Wrapf(protocol.ErrFailMIC, "calculated %02x, received %02x", sum, b[msgLen])
	}

	return NewReading(b[:msgLen+1]), nil
}

// Multilogger sensor reading.
//
//	LL IIII SSSS UUUU XX
//
// L is the message length, I a little-endian id, S the big-endian raw
// sensor value and U optional extra data. X is a reflected CRC-8.
type Reading struct {
	Length      uint8    `json:"Length"`
	ID          uint16   `json:"ID"`
	SensorRaw   uint16   `json:"SensorRaw"`
	Temperature *float64 `json:"TemperatureC,omitempty"`
	Alert       *uint8   `json:"TemperatureAlert,omitempty"`
	Humidity    *float64 `json:"Humidity,omitempty"`
	ChecksumVal uint8    `json:"Checksum"`
}

// NewReading reads the fields of a message, CRC byte included. The sensor
// family, and so the conversion, follows from the length and the id.
func NewReading(b []byte) (msg Reading) {
	msg.Length = b[0]
	msg.ID = uint16(b[2])<<8 | uint16(b[1])
	msg.SensorRaw = uint16(b[3])<<8 | uint16(b[4])
	msg.ChecksumVal = b[len(b)-1]

	raw := msg.SensorRaw
	switch {
	case msg.Length == 5 && msg.ID&0xF000 == 0x2000:
		// TSN-33MN and similar.
		t := float64(int16(raw)) * 0.0078125
		msg.Temperature = &t
	case msg.Length == 5 && msg.ID&0xF001 == 0x4000:
		// SHT10 temperature, the offset varies with supply voltage.
		t := float64(raw)*0.01 - 40
		msg.Temperature = &t
	case msg.Length == 5 && msg.ID&0xF001 == 0x4001:
		// SHT10 relative humidity.
		s := float64(int16(raw))
		h := -2.0468 + 0.0367*s - 1.5955e-6*s*s
		msg.Humidity = &h
	case msg.Length == 6:
		// MCP9808 ambient temperature register, alert flags on top.
		alert := uint8(raw>>13) & 0x07
		t := float64(int16(raw<<3)) / 128
		msg.Temperature, msg.Alert = &t, &alert
	}

	return
}

func (msg Reading) MsgType() string {
	return "AREXX"
}

func (msg Reading) MeterID() uint32 {
	return uint32(msg.ID)
}

func (msg Reading) MeterType() uint8 {
	return msg.Length
}

func (msg Reading) Checksum() []byte {
	return []byte{msg.ChecksumVal}
}

func (msg Reading) fields() (temp, alert, humidity string) {
	if msg.Temperature != nil {
		temp = strconv.FormatFloat(*msg.Temperature, 'f', 2, 64)
	}
	if msg.Alert != nil {
		alert = strconv.FormatUint(uint64(*msg.Alert), 16)
	}
	if msg.Humidity != nil {
		humidity = strconv.FormatFloat(*msg.Humidity, 'f', 1, 64)
	}
	return
}

func (msg Reading) String() string {
	temp, alert, humidity := msg.fields()
	return fmt.Sprintf("{ID:%04x Len:%d Raw:%04x Temperature:%s Alert:%s Humidity:%s CRC:0x%02X}",
		msg.ID, msg.Length, msg.SensorRaw, temp, alert, humidity, msg.ChecksumVal,
	)
}

func (msg Reading) Record() (r []string) {
	temp, alert, humidity := msg.fields()

	r = append(r, fmt.Sprintf("%04x", msg.ID))
	r = append(r, strconv.FormatUint(uint64(msg.Length), 10))
	r = append(r, fmt.Sprintf("%04x", msg.SensorRaw))
	r = append(r, temp)
	r = append(r, alert)
	r = append(r, humidity)
	r = append(r, protocol.HexChecksum(msg.Checksum()))

	return
}
