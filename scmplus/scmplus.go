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

package scmplus

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"strconv"

	"github.com/pkg/errors"

	"github.com/merbanan/rtl-433-sub004/bitbuffer"
	"github.com/merbanan/rtl-433-sub004/crc"
	"github.com/merbanan/rtl-433-sub004/protocol"
)

func init() {
	protocol.Register("scm+", NewDecoder)
}

const (
	ProtocolID = 0x1E
	PacketBits = 16 * 8
)

// 0001011010100011
var preamble = []byte{0x16, 0xA3}

type Decoder struct{}

func NewDecoder() protocol.Decoder {
	return Decoder{}
}

func (d Decoder) Name() string {
	return "scm+"
}

func (d Decoder) Decode(bb *bitbuffer.BitBuffer) ([]protocol.Message, error) {
	return protocol.DecodeRows(bb, func(row int, r bitbuffer.Row) (protocol.Message, error) {
		start := r.Search(0, preamble, 16)
		if start == r.Len() {
			return nil, errors.Wrap(protocol.ErrAbortEarly, "no preamble")
		}

		pkt, err := r.ExtractBytes(start, PacketBits)
		if err != nil {
			return nil, errors.Wrap(protocol.ErrAbortLength, err.Error())
		}

		scm := NewSCM(pkt)

		// If the checksum fails, bail. The init value folds in the frame
		// sync and a final inversion.
		if checksum := crc.CRC16(pkt[2:14], 0x1021, 0x0971); checksum != scm.PacketCRC {
			return nil, errors.Wrapf(protocol.ErrFailMIC, "crc 0x%04X, expected 0x%04X", checksum, scm.PacketCRC)
		}

		// If the EndpointID is 0 or ProtocolID is invalid, bail.
		if scm.EndpointID == 0 || scm.ProtocolID != ProtocolID {
			return nil, errors.Wrapf(protocol.ErrFailSanity, "protocol 0x%02X endpoint %d", scm.ProtocolID, scm.EndpointID)
		}

		return scm, nil
	})
}

// Standard Consumption Message Plus
type SCM struct {
	FrameSync    uint16
	ProtocolID   uint8
	EndpointType uint8
	EndpointID   uint32
	Consumption  uint32
	Tamper       uint16
	PacketCRC    uint16 `json:"Checksum"`
}

func NewSCM(pkt []byte) (scm SCM) {
	binary.Read(bytes.NewReader(pkt), binary.BigEndian, &scm)

	return
}

func (scm SCM) MsgType() string {
	return "SCM+"
}

func (scm SCM) MeterID() uint32 {
	return scm.EndpointID
}

func (scm SCM) MeterType() uint8 {
	return scm.EndpointType
}

func (scm SCM) Checksum() []byte {
	checksum := make([]byte, 2)
	binary.BigEndian.PutUint16(checksum, scm.PacketCRC)
	return checksum
}

func (scm SCM) String() string {
	return fmt.Sprintf("{ProtocolID:0x%02X EndpointType:0x%02X EndpointID:%10d Consumption:%10d Tamper:0x%04X PacketCRC:0x%04X}",
		scm.ProtocolID,
		scm.EndpointType,
		scm.EndpointID,
		scm.Consumption,
		scm.Tamper,
		scm.PacketCRC,
	)
}

func (scm SCM) Record() (r []string) {
	r = append(r, "0x"+strconv.FormatUint(uint64(scm.FrameSync), 16))
	r = append(r, "0x"+strconv.FormatUint(uint64(scm.ProtocolID), 16))
	r = append(r, "0x"+strconv.FormatUint(uint64(scm.EndpointType), 16))
	r = append(r, strconv.FormatUint(uint64(scm.EndpointID), 10))
	r = append(r, strconv.FormatUint(uint64(scm.Consumption), 10))
	r = append(r, "0x"+strconv.FormatUint(uint64(scm.Tamper), 16))
	r = append(r, "0x"+strconv.FormatUint(uint64(scm.PacketCRC), 16))

	return
}
