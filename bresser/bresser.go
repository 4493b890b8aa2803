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

package bresser

import (
	"encoding/binary"
	"fmt"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/merbanan/rtl-433-sub004/bitbuffer"
	"github.com/merbanan/rtl-433-sub004/bitutil"
	"github.com/merbanan/rtl-433-sub004/lfsr"
	"github.com/merbanan/rtl-433-sub004/protocol"
)

func init() {
	protocol.Register("bresser6in1", NewDecoder)
}

const (
	PreambleBits = 32
	MessageLen   = 18

	MinRowBits = 160
	MaxRowBits = 440

	DigestGen = 0x8810
	DigestKey = 0x5412
)

var preamble = []byte{0xAA, 0xAA, 0x2D, 0xD4}

// Soil probes send moisture as an index into this table.
var moistureMap = [...]int{0, 7, 13, 20, 27, 33, 40, 47, 53, 60, 67, 73, 80, 87, 93, 99}

type Decoder struct{}

func NewDecoder() protocol.Decoder {
	return Decoder{}
}

func (d Decoder) Name() string {
	return "bresser6in1"
}

// Decode expects exactly one row.
func (d Decoder) Decode(bb *bitbuffer.BitBuffer) ([]protocol.Message, error) {
	if bb.NumRows() != 1 {
		return nil, errors.Wrapf(protocol.ErrAbortEarly, "%d rows", bb.NumRows())
	}
	return protocol.DecodeRows(bb, d.decodeRow)
}

func (d Decoder) decodeRow(row int, r bitbuffer.Row) (protocol.Message, error) {
	if r.Len() < MinRowBits || r.Len() > MaxRowBits {
		return nil, errors.Wrapf(protocol.ErrAbortEarly, "%d bits out of range", r.Len())
	}

	start := r.Search(0, preamble, PreambleBits)
	if start == r.Len() {
		return nil, errors.Wrap(protocol.ErrAbortLength, "no preamble")
	}
	start += PreambleBits

	msg, err := r.ExtractBytes(start, MessageLen*8)
	if err != nil {
		return nil, errors.Wrap(protocol.ErrAbortLength, err.Error())
	}

	received := binary.BigEndian.Uint16(msg[0:2])
	if digest := lfsr.Digest16(msg[2:17], DigestGen, DigestKey); digest != received {
		return nil, errors.Wrapf(protocol.ErrFailMIC, "digest %04x vs %04x", received, digest)
	}

	// Sum of bytes 2 through 17, including the checksum byte, is 0xff.
	if sum := bitutil.AddBytes(msg[2:18]); sum&0xFF != 0xFF {
		return nil, errors.Wrapf(protocol.ErrFailMIC, "checksum %02x sums to %04x", msg[17], sum)
	}

	return NewMessage(msg), nil
}

// Weather station message, one of several alternating layouts which share
// fields when the digits are valid BCD.
//
//	DIGEST:16 ID:32 TYPE:4 BATT:1 CH:3 WIND:24 WDIR:12 ?:4 TEMP/RAIN:24 UV:12 FLAGS:4 SUM:8
type Message struct {
	ID         uint32 `json:"ID"`
	SensorType uint8  `json:"SensorType"`
	BatteryOK  bool   `json:"BatteryOK"`
	Channel    uint8  `json:"Channel"`

	Temperature *float64 `json:"TemperatureC,omitempty"`
	Humidity    *int     `json:"Humidity,omitempty"`
	Moisture    *int     `json:"Moisture,omitempty"`
	WindGust    *float64 `json:"WindMaxMS,omitempty"`
	WindAvg     *float64 `json:"WindAvgMS,omitempty"`
	WindDir     *int     `json:"WindDirDeg,omitempty"`
	Rain        *float64 `json:"RainMM,omitempty"`
	UV          *float64 `json:"UV,omitempty"`

	Flags  uint8  `json:"Flags"`
	Digest uint16 `json:"Digest"`
}

func bcd(b byte) int {
	return int(b>>4)*10 + int(b&0x0F)
}

// NewMessage reads the fields of an 18 byte message following the sync word.
func NewMessage(b []byte) (msg Message) {
	msg.Digest = binary.BigEndian.Uint16(b[0:2])
	msg.ID = binary.BigEndian.Uint32(b[2:6])
	msg.SensorType = b[6] >> 4
	msg.BatteryOK = (b[6]>>3)&1 == 1
	msg.Channel = b[6] & 0x07
	msg.Flags = b[16] & 0x0F

	// Temperature and humidity share their bytes with the rain counter.
	if b[12] <= 0x99 && b[13]&0xF0 <= 0x90 {
		raw := bcd(b[12])*10 + int(b[13]>>4)
		temp := float64(raw) * 0.1
		if raw > 600 {
			temp = float64(raw-1000) * 0.1
		}
		msg.Temperature = &temp

		humidity := bcd(b[14])
		if msg.SensorType == 4 && humidity >= 1 && humidity <= 16 {
			moisture := moistureMap[humidity-1]
			msg.Moisture = &moisture
		} else {
			msg.Humidity = &humidity
		}
	}

	if b[15] <= 0x99 && b[16]&0xF0 <= 0x90 {
		uv := float64(bcd(b[15])*10+int(b[16]>>4)) * 0.1
		msg.UV = &uv
	}

	// Wind speeds are inverted BCD.
	w0, w1, w2 := ^b[7], ^b[8], ^b[9]
	if w0 <= 0x99 && w1 <= 0x99 && w2 <= 0x99 {
		gust := float64(bcd(w0)*10+int(w1>>4)) * 0.1
		avg := float64(bcd(w2)*10+int(w1&0x0F)) * 0.1
		dir := bcd(b[10])*10 + int(b[11]>>4)
		msg.WindGust, msg.WindAvg, msg.WindDir = &gust, &avg, &dir
	}

	// So is the rain counter.
	r0, r1, r2 := ^b[12], ^b[13], ^b[14]
	if r0 <= 0x99 && r1 <= 0x99 && r2 <= 0x99 {
		rain := float64(bcd(r0)*10000+bcd(r1)*100+bcd(r2)) * 0.1
		msg.Rain = &rain
	}

	return
}

func (msg Message) MsgType() string {
	return "Bresser6in1"
}

func (msg Message) MeterID() uint32 {
	return msg.ID
}

func (msg Message) MeterType() uint8 {
	return msg.SensorType
}

func (msg Message) Checksum() []byte {
	checksum := make([]byte, 2)
	binary.BigEndian.PutUint16(checksum, msg.Digest)
	return checksum
}

func formatFloat(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', 1, 64)
}

func formatInt(v *int) string {
	if v == nil {
		return ""
	}
	return strconv.Itoa(*v)
}

func (msg Message) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "{ID:%08x Type:%d Channel:%d Battery:%t", msg.ID, msg.SensorType, msg.Channel, msg.BatteryOK)

	for _, field := range []struct {
		name, value, unit string
	}{
		{"Temperature", formatFloat(msg.Temperature), "C"},
		{"Humidity", formatInt(msg.Humidity), "%"},
		{"Moisture", formatInt(msg.Moisture), "%"},
		{"WindGust", formatFloat(msg.WindGust), "m/s"},
		{"WindAvg", formatFloat(msg.WindAvg), "m/s"},
		{"WindDir", formatInt(msg.WindDir), ""},
		{"Rain", formatFloat(msg.Rain), "mm"},
		{"UV", formatFloat(msg.UV), ""},
	} {
		if field.value != "" {
			fmt.Fprintf(&b, " %s:%s%s", field.name, field.value, field.unit)
		}
	}

	fmt.Fprintf(&b, " Flags:%X Digest:0x%04X}", msg.Flags, msg.Digest)
	return b.String()
}

func (msg Message) Record() (r []string) {
	r = append(r, fmt.Sprintf("%08x", msg.ID))
	r = append(r, strconv.FormatUint(uint64(msg.SensorType), 10))
	r = append(r, strconv.FormatUint(uint64(msg.Channel), 10))
	r = append(r, strconv.FormatBool(msg.BatteryOK))
	r = append(r, formatFloat(msg.Temperature))
	r = append(r, formatInt(msg.Humidity))
	r = append(r, formatInt(msg.Moisture))
	r = append(r, formatFloat(msg.WindGust))
	r = append(r, formatFloat(msg.WindAvg))
	r = append(r, formatInt(msg.WindDir))
	r = append(r, formatFloat(msg.Rain))
	r = append(r, formatFloat(msg.UV))
	r = append(r, strconv.FormatUint(uint64(msg.Flags), 10))
	r = append(r, protocol.HexChecksum(msg.Checksum()))

	return
}
