// rtl-433-sub004 - Bit-level decoding of sub-GHz sensor transmissions.
// Copyright (C) 2015 Douglas Hall
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

package scm

import (
	"encoding/binary"
	"fmt"
	"strconv"

	"github.com/pkg/errors"

	"github.com/merbanan/rtl-433-sub004/bch"
	"github.com/merbanan/rtl-433-sub004/bitbuffer"
	"github.com/merbanan/rtl-433-sub004/crc"
	"github.com/merbanan/rtl-433-sub004/protocol"
)

func init() {
	protocol.Register("scm", NewDecoder)
}

const (
	PreambleBits = 21
	PacketBits   = 96
)

// 111110010101001100000
var preamble = []byte{0xF9, 0x53, 0x00}

type Decoder struct {
	crc.CRC
	bch bch.BCH
}

func NewDecoder() protocol.Decoder {
	return Decoder{
		crc.NewCRC("BCH", 0, 0x6F63, 0),
		bch.NewBCH(0x16F63),
	}
}

func (d Decoder) Name() string {
	return "scm"
}

func (d Decoder) Decode(bb *bitbuffer.BitBuffer) ([]protocol.Message, error) {
	return protocol.DecodeRows(bb, d.decodeRow)
}

func (d Decoder) decodeRow(row int, r bitbuffer.Row) (protocol.Message, error) {
	start := r.Search(0, preamble, PreambleBits)
	if start+PacketBits > r.Len() {
		return nil, errors.Wrap(protocol.ErrAbortEarly, "no preamble")
	}

	pkt, err := r.ExtractBytes(start, PacketBits)
	if err != nil {
		return nil, errors.Wrap(protocol.ErrAbortLength, err.Error())
	}

	// If the checksum fails, try to repair a single bit error.
	if d.Checksum(pkt[2:12]) != 0 {
		fixed, pos, err := d.bch.Correct(bitbuffer.RowFromBytes(pkt), 16, PacketBits-16)
		if err != nil {
			return nil, errors.Wrap(protocol.ErrFailMIC, err.Error())
		}
		pkt = fixed.Bytes()
		if d.Checksum(pkt[2:12]) != 0 {
			return nil, errors.Wrapf(protocol.ErrFailMIC, "bit %d", pos)
		}
	}

	scm := NewSCM(bitbuffer.RowFromBytes(pkt))

	// If the meter id is 0, bail.
	if scm.ID == 0 {
		return nil, errors.Wrap(protocol.ErrFailSanity, "zero id")
	}

	return scm, nil
}

// Standard Consumption Message
type SCM struct {
	ID          uint32 `json:"ID"`
	Type        uint8  `json:"Type"`
	TamperPhy   uint8  `json:"TamperPhy"`
	TamperEnc   uint8  `json:"TamperEnc"`
	Consumption uint32 `json:"Consumption"`
	ChecksumVal uint16 `json:"Checksum"`
}

// NewSCM reads the fields of a 96 bit packet, preamble included.
func NewSCM(pkt bitbuffer.Row) (scm SCM) {
	field := func(start, n int) uint64 {
		v, _ := pkt.Bits(start, n)
		return v
	}

	scm.ID = uint32(field(21, 2)<<24 | field(56, 24))
	scm.Type = uint8(field(26, 4))
	scm.TamperPhy = uint8(field(24, 2))
	scm.TamperEnc = uint8(field(30, 2))
	scm.Consumption = uint32(field(32, 24))
	scm.ChecksumVal = uint16(field(80, 16))

	return
}

func (scm SCM) MsgType() string {
	return "SCM"
}

func (scm SCM) MeterID() uint32 {
	return scm.ID
}

func (scm SCM) MeterType() uint8 {
	return scm.Type
}

func (scm SCM) Checksum() []byte {
	checksum := make([]byte, 2)
	binary.BigEndian.PutUint16(checksum, scm.ChecksumVal)
	return checksum
}

func (scm SCM) String() string {
	return fmt.Sprintf("{ID:%8d Type:%2d Tamper:{Phy:%02X Enc:%02X} Consumption:%8d CRC:0x%04X}",
		scm.ID, scm.Type, scm.TamperPhy, scm.TamperEnc, scm.Consumption, scm.ChecksumVal,
	)
}

func (scm SCM) Record() (r []string) {
	r = append(r, strconv.FormatUint(uint64(scm.ID), 10))
	r = append(r, strconv.FormatUint(uint64(scm.Type), 10))
	r = append(r, "0x"+strconv.FormatUint(uint64(scm.TamperPhy), 16))
	r = append(r, "0x"+strconv.FormatUint(uint64(scm.TamperEnc), 16))
	r = append(r, strconv.FormatUint(uint64(scm.Consumption), 10))
	r = append(r, "0x"+strconv.FormatUint(uint64(scm.ChecksumVal), 16))

	return
}
