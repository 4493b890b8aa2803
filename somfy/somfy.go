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

package somfy

import (
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"strconv"

	"github.com/pkg/errors"

	"github.com/merbanan/rtl-433-sub004/bitbuffer"
	"github.com/merbanan/rtl-433-sub004/crc"
	"github.com/merbanan/rtl-433-sub004/protocol"
)

func init() {
	protocol.Register("iohc", NewDecoder)
}

const (
	// Tail of the 55 preamble and the ff33 sync word, UART framed.
	SyncBits = 24

	// Length byte, up to 31 bytes of frame and the CRC.
	MaxFrameLen = 1 + 31 + 2
	MinFrameLen = 11

	// Control bytes, addresses and the command id.
	HeaderLen = 9
)

var sync = []byte{0x57, 0xFD, 0x99}

type Decoder struct{}

func NewDecoder() protocol.Decoder {
	return Decoder{}
}

func (d Decoder) Name() string {
	return "iohc"
}

// Decode expects a single row.
func (d Decoder) Decode(bb *bitbuffer.BitBuffer) ([]protocol.Message, error) {
	if bb.NumRows() != 1 {
		return nil, errors.Wrapf(protocol.ErrAbortEarly, "%d rows", bb.NumRows())
	}
	return protocol.DecodeRows(bb, d.decodeRow)
}

func (d Decoder) decodeRow(row int, r bitbuffer.Row) (protocol.Message, error) {
	offset := r.Search(0, sync, SyncBits) + SyncBits
	if offset >= r.Len() {
		return nil, errors.Wrap(protocol.ErrAbortEarly, "no sync word")
	}

	b, n := r.ExtractUART8N1(offset, MaxFrameLen*10)
	if n < MinFrameLen {
		return nil, errors.Wrapf(protocol.ErrAbortLength, "%d bytes", n)
	}

	msgLen := int(b[0] & 0x1F)
	if n < msgLen+3 {
		return nil, errors.Wrapf(protocol.ErrAbortLength, "%d bytes, frame needs %d", n, msgLen+3)
	}
	if msgLen < HeaderLen-1 {
		return nil, errors.Wrapf(protocol.ErrFailSanity, "frame length %d", msgLen)
	}
	b = b[:msgLen+3]

	// Reflected CRC-16/KERMIT, the residue is zero.
	if sum := crc.CRC16LSB(b, 0x8408, 0x0000); sum != 0 {
		return nil, errors.Wrapf(protocol.ErrFailMIC, "residue %04x", sum)
	}

	return NewFrame(b), nil
}

// io-homecontrol frame, sync word excluded.
//
//	CC CC DDDDDD SSSSSS II PP..PP [NNNN MMMMMMMMMMMM] RRRR
//
// The control bytes carry flags and the frame length. D and S are the
// destination and source addresses, I the command id and P the payload.
// One-way frames close with a counter N and a MAC M. R is the CRC.
type Frame struct {
	EndFlag   bool  `json:"EndFlag"`
	StartFlag bool  `json:"StartFlag"`
	OneWay    bool  `json:"OneWay"`
	Beacon    bool  `json:"Beacon"`
	Routed    bool  `json:"Routed"`
	LowPower  bool  `json:"LowPower"`
	Version   uint8 `json:"Version"`

	Destination uint32 `json:"Destination"`
	Source      uint32 `json:"Source"`
	Command     uint8  `json:"Command"`
	Payload     []byte `json:"Payload"`
	Counter     uint16 `json:"Counter,omitempty"`
	MAC         []byte `json:"MAC,omitempty"`

	ChecksumVal uint16 `json:"Checksum"`
}

// NewFrame reads the fields of a frame from its length byte through the CRC.
func NewFrame(b []byte) (f Frame) {
	f.EndFlag = b[0]&0x80 != 0
	f.StartFlag = b[0]&0x40 != 0
	f.OneWay = b[0]&0x20 != 0

	f.Beacon = b[1]&0x80 != 0
	f.Routed = b[1]&0x40 != 0
	f.LowPower = b[1]&0x20 != 0
	f.Version = b[1] & 0x03

	f.Destination = uint32(b[2])<<16 | uint32(b[3])<<8 | uint32(b[4])
	f.Source = uint32(b[5])<<16 | uint32(b[6])<<8 | uint32(b[7])
	f.Command = b[8]

	end := len(b) - 2
	f.ChecksumVal = binary.BigEndian.Uint16(b[end:])

	// Counter and MAC take the last eight bytes of a one-way payload.
	if f.OneWay && end-HeaderLen >= 8 {
		f.Counter = binary.BigEndian.Uint16(b[end-8 : end-6])
		f.MAC = append([]byte(nil), b[end-6:end]...)
		end -= 8
	}
	f.Payload = append([]byte(nil), b[HeaderLen:end]...)

	return
}

func (f Frame) Mode() string {
	if f.OneWay {
		return "One-way"
	}
	return "Two-way"
}

func (f Frame) MsgType() string {
	return "IOHC"
}

func (f Frame) MeterID() uint32 {
	return f.Source
}

func (f Frame) MeterType() uint8 {
	return f.Command
}

func (f Frame) Checksum() []byte {
	checksum := make([]byte, 2)
	binary.BigEndian.PutUint16(checksum, f.ChecksumVal)
	return checksum
}

func (f Frame) String() string {
	return fmt.Sprintf("{Source:%06x Target:%06x Command:%02x Payload:%s Mode:%s Version:%d Counter:%d MAC:%s CRC:0x%04X}",
		f.Source, f.Destination, f.Command, hex.EncodeToString(f.Payload), f.Mode(), f.Version,
		f.Counter, hex.EncodeToString(f.MAC), f.ChecksumVal,
	)
}

func (f Frame) Record() (r []string) {
	r = append(r, fmt.Sprintf("%06x", f.Source))
	r = append(r, fmt.Sprintf("%06x", f.Destination))
	r = append(r, fmt.Sprintf("%02x", f.Command))
	r = append(r, hex.EncodeToString(f.Payload))
	r = append(r, f.Mode())
	r = append(r, strconv.FormatUint(uint64(f.Version), 10))
	r = append(r, strconv.FormatUint(uint64(f.Counter), 10))
	r = append(r, hex.EncodeToString(f.MAC))
	r = append(r, strconv.FormatBool(f.EndFlag))
	r = append(r, strconv.FormatBool(f.StartFlag))
	r = append(r, strconv.FormatBool(f.Beacon))
	r = append(r, strconv.FormatBool(f.Routed))
	r = append(r, strconv.FormatBool(f.LowPower))
	r = append(r, protocol.HexChecksum(f.Checksum()))

	return
}
