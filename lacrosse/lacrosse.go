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

package lacrosse

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/merbanan/rtl-433-sub004/bitbuffer"
	"github.com/merbanan/rtl-433-sub004/bitutil"
	"github.com/merbanan/rtl-433-sub004/protocol"
)

func init() {
	protocol.Register("ws7000", NewDecoder)
}

const (
	PreambleBits = 8
	MaxNibbles   = 14

	// Type, address, three data nibbles and both checks.
	MinNibbles = 7
)

// The preamble ends with ten zeros and a one.
var preamble = []byte{0x01}

// Sensor types.
const (
	Thermo = iota
	ThermoHygro
	Rain
	Wind
	ThermoHygroBaro
	Brightness
)

var (
	dataNibbles = [...]int{3, 6, 3, 6, 10, 7}
	models      = [...]string{"WS7000-27/28", "WS7000-22/25", "WS7000-16", "WS7000-15", "WS7000-20", "WS2500-19"}
)

type Decoder struct{}

func NewDecoder() protocol.Decoder {
	return Decoder{}
}

func (d Decoder) Name() string {
	return "ws7000"
}

// Decode reads the first row only.
func (d Decoder) Decode(bb *bitbuffer.BitBuffer) ([]protocol.Message, error) {
	if bb.NumRows() == 0 {
		return nil, errors.Wrap(protocol.ErrAbortEarly, "no rows")
	}

	msg, err := d.decodeRow(bb.Row(0))
	if err != nil {
		return nil, err
	}
	return []protocol.Message{msg}, nil
}

func (d Decoder) decodeRow(r bitbuffer.Row) (protocol.Message, error) {
	start := r.Search(0, preamble, PreambleBits) + PreambleBits
	if start >= r.Len() {
		return nil, errors.Wrap(protocol.ErrAbortEarly, "no preamble")
	}

	// Nibbles are sent LSB first.
	raw, n := r.ExtractNibbles4B1S(start, MaxNibbles*5)
	if n < MinNibbles {
		return nil, errors.Wrapf(protocol.ErrAbortLength, "%d nibbles", n)
	}
	b := bitutil.ReflectNibbles(raw)

	sensorType := int(b[0])
	if sensorType >= len(dataNibbles) {
		return nil, errors.Wrapf(protocol.ErrAbortEarly, "unhandled sensor type %d", sensorType)
	}
	if need := dataNibbles[sensorType] + 4; n < need {
		return nil, errors.Wrapf(protocol.ErrAbortLength, "short data, %d of %d nibbles", n, need)
	}

	if x := bitutil.XorBytes(b[:n-1]); x != 0 {
		return nil, errors.Wrapf(protocol.ErrFailMIC, "xor %x", x)
	}
	if sum := (bitutil.AddBytes(b[:n-1]) + 5) & 0x0F; byte(sum) != b[n-1] {
		return nil, errors.Wrapf(protocol.ErrFailMIC, "sum %x, expected %x", sum, b[n-1])
	}

	return NewMessage(b), nil
}

// Weather sensor message, one nibble per byte:
//
//	S A D..D X C
//
// S is the sensor type and A the address, whose top bit flags a negative
// temperature. Data nibbles are BCD, least significant first. X is the XOR
// of all nibbles before it and C their sum plus five.
type Message struct {
	SensorType uint8 `json:"SensorType"`
	Address    uint8 `json:"Address"`

	Temperature *float64 `json:"TemperatureC,omitempty"`
	Humidity    *int     `json:"Humidity,omitempty"`
	Pressure    *int     `json:"PressureHPa,omitempty"`
	Rain        *float64 `json:"RainMM,omitempty"`
	WindSpeed   *float64 `json:"WindAvgKMH,omitempty"`
	WindDir     *float64 `json:"WindDirDeg,omitempty"`
	WindDev     *float64 `json:"WindDevDeg,omitempty"`
	Light       *uint32  `json:"LightLux,omitempty"`
	Exposure    *int     `json:"ExposureMins,omitempty"`

	XOR uint8 `json:"XOR"`
	Sum uint8 `json:"Sum"`
}

// NewMessage reads the fields of a validated, reflected nibble slice.
func NewMessage(b []byte) (msg Message) {
	msg.SensorType = b[0]
	msg.Address = b[1] & 0x07
	msg.XOR = b[len(b)-2]
	msg.Sum = b[len(b)-1]

	// Three BCD digits, the lowest scaled by 0.1.
	decimal := func(i int) float64 {
		return float64(b[i+2])*10 + float64(b[i+1]) + float64(b[i])*0.1
	}
	signed := func(v float64) *float64 {
		if b[1]&0x08 != 0 {
			v = -v
		}
		return &v
	}
	humidity := func() *int {
		h := int(b[7])*10 + int(b[6])
		return &h
	}

	switch msg.SensorType {
	case Thermo:
		msg.Temperature = signed(decimal(2))
	case ThermoHygro:
		msg.Temperature = signed(decimal(2))
		msg.Humidity = humidity()
	case Rain:
		rain := float64(int(b[4])<<8|int(b[3])<<4|int(b[2])) * 0.3
		msg.Rain = &rain
	case Wind:
		speed := decimal(2)
		dir := float64(int(b[7]>>2)*100 + int(b[6])*10 + int(b[5]))
		dev := float64(b[7]&0x03) * 22.5
		msg.WindSpeed, msg.WindDir, msg.WindDev = &speed, &dir, &dev
	case ThermoHygroBaro:
		msg.Temperature = signed(decimal(2))
		msg.Humidity = humidity()
		pressure := int(b[10])*100 + int(b[9])*10 + int(b[8]) + 200
		msg.Pressure = &pressure
	case Brightness:
		light := uint32(b[4])*100 + uint32(b[3])*10 + uint32(b[2])
		for exp := b[5]; exp > 0; exp-- {
			light *= 10
		}
		exposure := int(b[8])*100 + int(b[7])*10 + int(b[6])
		msg.Light, msg.Exposure = &light, &exposure
	}

	return
}

func (msg Message) Model() string {
	return models[msg.SensorType]
}

func (msg Message) MsgType() string {
	return "WS7000"
}

// The id combines type and address.
func (msg Message) MeterID() uint32 {
	return uint32(msg.SensorType)<<4 | uint32(msg.Address)
}

func (msg Message) MeterType() uint8 {
	return msg.SensorType
}

func (msg Message) Checksum() []byte {
	return []byte{msg.XOR, msg.Sum}
}

type field struct {
	name, value string
}

func (msg Message) fields() []field {
	fixed := func(v *float64, prec int) string {
		if v == nil {
			return ""
		}
		return strconv.FormatFloat(*v, 'f', prec, 64)
	}
	integer := func(v *int) string {
		if v == nil {
			return ""
		}
		return strconv.Itoa(*v)
	}

	var light string
	if msg.Light != nil {
		light = strconv.FormatUint(uint64(*msg.Light), 10)
	}

	return []field{
		{"Temperature", fixed(msg.Temperature, 1)},
		{"Humidity", integer(msg.Humidity)},
		{"Pressure", integer(msg.Pressure)},
		{"Rain", fixed(msg.Rain, 1)},
		{"WindSpeed", fixed(msg.WindSpeed, 1)},
		{"WindDir", fixed(msg.WindDir, 0)},
		{"WindDev", fixed(msg.WindDev, 1)},
		{"Light", light},
		{"Exposure", integer(msg.Exposure)},
	}
}

func (msg Message) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "{ID:%d Model:%s Address:%d", msg.MeterID(), msg.Model(), msg.Address)
	for _, f := range msg.fields() {
		if f.value != "" {
			fmt.Fprintf(&b, " %s:%s", f.name, f.value)
		}
	}
	fmt.Fprintf(&b, " XOR:%X Sum:%X}", msg.XOR, msg.Sum)
	return b.String()
}

func (msg Message) Record() (r []string) {
	r = append(r, strconv.FormatUint(uint64(msg.MeterID()), 10))
	r = append(r, msg.Model())
	r = append(r, strconv.FormatUint(uint64(msg.Address), 10))
	for _, f := range msg.fields() {
		r = append(r, f.value)
	}
	r = append(r, protocol.HexChecksum(msg.Checksum()))

	return
}
