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

package orion

import (
	"encoding/binary"
	"fmt"
	"strconv"

	"github.com/pkg/errors"

	"github.com/merbanan/rtl-433-sub004/bitbuffer"
	"github.com/merbanan/rtl-433-sub004/crc"
	"github.com/merbanan/rtl-433-sub004/lfsr"
	"github.com/merbanan/rtl-433-sub004/protocol"
)

func init() {
	protocol.Register("orion", NewDecoder)
}

const (
	PreambleBits = 48
	MessageLen   = 23
	MaxRowBits   = 290
)

var preamble = []byte{0xAA, 0xAA, 0xEC, 0x62, 0xEC, 0x62}

type Decoder struct {
	crc.CRC
}

// The CRC covers the length byte through the CRC itself, leaving a zero
// residue.
func NewDecoder() protocol.Decoder {
	return Decoder{crc.NewCRC("CRC-16/CMS", 0xFFFF, 0x8005, 0x0000)}
}

func (d Decoder) Name() string {
	return "orion"
}

// Decode expects a single row.
func (d Decoder) Decode(bb *bitbuffer.BitBuffer) ([]protocol.Message, error) {
	if bb.NumRows() > 1 {
		return nil, errors.Wrapf(protocol.ErrFailSanity, "too many rows: %d", bb.NumRows())
	}
	return protocol.DecodeRows(bb, d.decodeRow)
}

func (d Decoder) decodeRow(row int, r bitbuffer.Row) (protocol.Message, error) {
	if r.Len() > MaxRowBits {
		return nil, errors.Wrapf(protocol.ErrAbortLength, "packet too long: %d bits", r.Len())
	}

	offset := r.Search(0, preamble, PreambleBits)
	if offset == r.Len() {
		return nil, errors.Wrap(protocol.ErrAbortEarly, "sync word not found")
	}
	offset += PreambleBits

	whitened, err := r.ExtractBytes(offset, MessageLen*8)
	if err != nil {
		return nil, errors.Wrap(protocol.ErrAbortLength, err.Error())
	}

	b := lfsr.WhitenIBM(whitened)
	if !d.Valid(b) {
		return nil, errors.Wrapf(protocol.ErrFailMIC, "residue %04x", d.Checksum(b))
	}

	return NewEndpoint(b), nil
}

// Water meter endpoint reading, after dewhitening. Multi-byte fields are
// little-endian.
//
//	LL 00000000 SSSSSSSS xxxxxx RRRRRRRR DDDDDDDD FF CCCC
//
// L is the message length, S the serial number, x unknown flags with the
// leak bit at 0x2000, R the reading and D the daily reading in units of
// ten gallons, F more flags and C the CRC.
type Endpoint struct {
	Length       uint8  `json:"Length"`
	ID           uint32 `json:"ID"`
	Flags1       uint32 `json:"Flags1"`
	Leaking      bool   `json:"Leaking"`
	Reading      uint32 `json:"Reading"`
	DailyReading uint32 `json:"DailyReading"`
	Flags2       uint8  `json:"Flags2"`
	ChecksumVal  uint16 `json:"Checksum"`
}

// NewEndpoint reads the fields of a dewhitened 23 byte message.
func NewEndpoint(b []byte) (msg Endpoint) {
	msg.Length = b[0]
	msg.ID = binary.LittleEndian.Uint32(b[5:9])
	msg.Flags1 = uint32(b[9])<<16 | uint32(b[10])<<8 | uint32(b[11])
	msg.Leaking = b[10]&0x20 != 0
	msg.Reading = binary.LittleEndian.Uint32(b[12:16])
	msg.DailyReading = binary.LittleEndian.Uint32(b[16:20])
	msg.Flags2 = b[20]
	msg.ChecksumVal = binary.BigEndian.Uint16(b[21:23])

	return
}

// Serial number ranges of each endpoint model, inclusive.
var models = []struct {
	first, last uint32
	name        string
}{
	{30000000, 59999999, "ME or SE"},
	{60000000, 69999999, "Mobile M"},
	{70000000, 89999999, "Classic (CE)"},
	{110000000, 119999999, "LTE"},
	{120000000, 129999999, "LTE-M or LTE-MS"},
	{130000000, 139999999, "C or CS"},
	{140000000, 148999999, "HLA"},
	{149000000, 149999999, "HLC"},
	{150000000, 159999999, "HLB"},
	{160000000, 169999999, "HLD"},
	{170000000, 179999999, "HLFX"},
	{180000000, 189999999, "HLG"},
}

// Model names the endpoint model by serial number range.
func (msg Endpoint) Model() string {
	for _, m := range models {
		if msg.ID >= m.first && msg.ID <= m.last {
			return m.name
		}
	}
	return "Unknown Model"
}

func (msg Endpoint) MsgType() string {
	return "ORION"
}

func (msg Endpoint) MeterID() uint32 {
	return msg.ID
}

func (msg Endpoint) MeterType() uint8 {
	return msg.Flags2
}

func (msg Endpoint) Checksum() []byte {
	checksum := make([]byte, 2)
	binary.BigEndian.PutUint16(checksum, msg.ChecksumVal)
	return checksum
}

func (msg Endpoint) String() string {
	return fmt.Sprintf("{ID:%9d Model:%q Leaking:%t Reading:%10d Daily:%10d Flags:%06X/%02X CRC:0x%04X}",
		msg.ID, msg.Model(), msg.Leaking, msg.Reading, msg.DailyReading, msg.Flags1, msg.Flags2, msg.ChecksumVal,
	)
}

func (msg Endpoint) Record() (r []string) {
	r = append(r, strconv.FormatUint(uint64(msg.ID), 10))
	r = append(r, msg.Model())
	r = append(r, strconv.FormatBool(msg.Leaking))
	r = append(r, strconv.FormatUint(uint64(msg.Reading), 10))
	r = append(r, strconv.FormatUint(uint64(msg.DailyReading), 10))
	r = append(r, fmt.Sprintf("%06x", msg.Flags1))
	r = append(r, fmt.Sprintf("%02x", msg.Flags2))
	r = append(r, "0x"+strconv.FormatUint(uint64(msg.ChecksumVal), 16))

	return
}
