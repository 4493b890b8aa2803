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

package idm

import (
	"encoding/binary"
	"fmt"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/merbanan/rtl-433-sub004/bitbuffer"
	"github.com/merbanan/rtl-433-sub004/crc"
	"github.com/merbanan/rtl-433-sub004/protocol"
)

func init() {
	protocol.Register("idm", NewDecoder)
}

const (
	PreambleBits = 32
	PacketBits   = 92 * 8
)

// 01010101010101010001011010100011
var preamble = []byte{0x55, 0x55, 0x16, 0xA3}

type Decoder struct {
	crc.CRC
}

func NewDecoder() protocol.Decoder {
	return Decoder{crc.NewCRC("CCITT", 0xFFFF, 0x1021, 0x1D0F)}
}

func (d Decoder) Name() string {
	return "idm"
}

func (d Decoder) Decode(bb *bitbuffer.BitBuffer) ([]protocol.Message, error) {
	return protocol.DecodeRows(bb, func(row int, r bitbuffer.Row) (protocol.Message, error) {
		start := r.Search(0, preamble, PreambleBits)
		if start == r.Len() {
			return nil, errors.Wrap(protocol.ErrAbortEarly, "no preamble")
		}

		// If the packet is too short, bail.
		if start+PacketBits > r.Len() {
			return nil, errors.Wrapf(protocol.ErrAbortLength, "%d bits after preamble", r.Len()-start)
		}
		pkt, err := r.ExtractBytes(start, PacketBits)
		if err != nil {
			return nil, errors.Wrap(protocol.ErrAbortLength, err.Error())
		}

		// If the checksum fails, bail.
		if residue := d.Checksum(pkt[4:92]); residue != d.Residue {
			return nil, errors.Wrapf(protocol.ErrFailMIC, "residue 0x%04X", residue)
		}

		idm := NewIDM(bitbuffer.RowFromBytes(pkt))

		// If the meter id is 0, bail.
		if idm.ERTSerialNumber == 0 {
			return nil, errors.Wrap(protocol.ErrFailSanity, "zero serial number")
		}

		return idm, nil
	})
}

// Interval Data Message
type IDM struct {
	Preamble                         uint32 // Training and Frame sync.
	PacketTypeID                     uint8
	PacketLength                     uint8 // Packet Length MSB
	HammingCode                      uint8 // Packet Length LSB
	ApplicationVersion               uint8
	ERTType                          uint8
	ERTSerialNumber                  uint32
	ConsumptionIntervalCount         uint8
	ModuleProgrammingState           uint8
	TamperCounters                   []byte // 6 Bytes
	AsynchronousCounters             uint16
	PowerOutageFlags                 []byte // 6 Bytes
	LastConsumptionCount             uint32
	DifferentialConsumptionIntervals Interval // 53 Bytes
	TransmitTimeOffset               uint16
	SerialNumberCRC                  uint16
	PacketCRC                        uint16
}

// NewIDM reads the fields of a 92 byte packet, preamble included, from
// pkt.
func NewIDM(pkt bitbuffer.Row) (idm IDM) {
	data := pkt.Bytes()

	idm.Preamble = binary.BigEndian.Uint32(data[0:4])
	idm.PacketTypeID = data[4]
	idm.PacketLength = data[5]
	idm.HammingCode = data[6]
	idm.ApplicationVersion = data[7]
	idm.ERTType = data[8] & 0x0F
	idm.ERTSerialNumber = binary.BigEndian.Uint32(data[9:13])
	idm.ConsumptionIntervalCount = data[13]
	idm.ModuleProgrammingState = data[14]
	idm.TamperCounters = data[15:21]
	idm.AsynchronousCounters = binary.BigEndian.Uint16(data[21:23])
	idm.PowerOutageFlags = data[23:29]
	idm.LastConsumptionCount = binary.BigEndian.Uint32(data[29:33])

	offset := 264
	for idx := range idm.DifferentialConsumptionIntervals {
		interval, _ := pkt.Bits(offset, 9)
		idm.DifferentialConsumptionIntervals[idx] = uint16(interval)
		offset += 9
	}

	idm.TransmitTimeOffset = binary.BigEndian.Uint16(data[86:88])
	idm.SerialNumberCRC = binary.BigEndian.Uint16(data[88:90])
	idm.PacketCRC = binary.BigEndian.Uint16(data[90:92])

	return
}

type Interval [47]uint16

func (interval Interval) Record() (r []string) {
	for _, val := range interval {
		r = append(r, strconv.FormatUint(uint64(val), 10))
	}
	return
}

func (idm IDM) MsgType() string {
	return "IDM"
}

func (idm IDM) MeterID() uint32 {
	return idm.ERTSerialNumber
}

func (idm IDM) MeterType() uint8 {
	return idm.ERTType
}

func (idm IDM) Checksum() []byte {
	checksum := make([]byte, 2)
	binary.BigEndian.PutUint16(checksum, idm.PacketCRC)
	return checksum
}

func (idm IDM) String() string {
	var fields []string

	fields = append(fields, fmt.Sprintf("Preamble:0x%08X", idm.Preamble))
	fields = append(fields, fmt.Sprintf("PacketTypeID:0x%02X", idm.PacketTypeID))
	fields = append(fields, fmt.Sprintf("PacketLength:0x%02X", idm.PacketLength))
	fields = append(fields, fmt.Sprintf("HammingCode:0x%02X", idm.HammingCode))
	fields = append(fields, fmt.Sprintf("ApplicationVersion:0x%02X", idm.ApplicationVersion))
	fields = append(fields, fmt.Sprintf("ERTType:0x%02X", idm.ERTType))
	fields = append(fields, fmt.Sprintf("ERTSerialNumber:% 10d", idm.ERTSerialNumber))
	fields = append(fields, fmt.Sprintf("ConsumptionIntervalCount:%d", idm.ConsumptionIntervalCount))
	fields = append(fields, fmt.Sprintf("ModuleProgrammingState:0x%02X", idm.ModuleProgrammingState))
	fields = append(fields, fmt.Sprintf("TamperCounters:%02X", idm.TamperCounters))
	fields = append(fields, fmt.Sprintf("AsynchronousCounters:0x%02X", idm.AsynchronousCounters))
	fields = append(fields, fmt.Sprintf("PowerOutageFlags:%02X", idm.PowerOutageFlags))
	fields = append(fields, fmt.Sprintf("LastConsumptionCount:%d", idm.LastConsumptionCount))
	fields = append(fields, fmt.Sprintf("DifferentialConsumptionIntervals:%d", idm.DifferentialConsumptionIntervals))
	fields = append(fields, fmt.Sprintf("TransmitTimeOffset:%d", idm.TransmitTimeOffset))
	fields = append(fields, fmt.Sprintf("SerialNumberCRC:0x%04X", idm.SerialNumberCRC))
	fields = append(fields, fmt.Sprintf("PacketCRC:0x%04X", idm.PacketCRC))

	return "{" + strings.Join(fields, " ") + "}"
}

func (idm IDM) Record() (r []string) {
	r = append(r, fmt.Sprintf("0x%08X", idm.Preamble))
	r = append(r, fmt.Sprintf("0x%02X", idm.PacketTypeID))
	r = append(r, fmt.Sprintf("0x%02X", idm.PacketLength))
	r = append(r, fmt.Sprintf("0x%02X", idm.HammingCode))
	r = append(r, fmt.Sprintf("0x%02X", idm.ApplicationVersion))
	r = append(r, fmt.Sprintf("0x%02X", idm.ERTType))
	r = append(r, fmt.Sprintf("%d", idm.ERTSerialNumber))
	r = append(r, fmt.Sprintf("%d", idm.ConsumptionIntervalCount))
	r = append(r, fmt.Sprintf("0x%02X", idm.ModuleProgrammingState))
	r = append(r, fmt.Sprintf("%02X", idm.TamperCounters))
	r = append(r, fmt.Sprintf("0x%02X", idm.AsynchronousCounters))
	r = append(r, fmt.Sprintf("%02X", idm.PowerOutageFlags))
	r = append(r, fmt.Sprintf("%d", idm.LastConsumptionCount))
	r = append(r, idm.DifferentialConsumptionIntervals.Record()...)
	r = append(r, fmt.Sprintf("%d", idm.TransmitTimeOffset))
	r = append(r, fmt.Sprintf("0x%04X", idm.SerialNumberCRC))
	r = append(r, fmt.Sprintf("0x%04X", idm.PacketCRC))

	return
}
