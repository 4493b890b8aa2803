package ambientweather

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/merbanan/rtl-433-sub004/bitbuffer"
	"github.com/merbanan/rtl-433-sub004/protocol"
)

func decode(t *testing.T, code string) ([]protocol.Message, error) {
	t.Helper()

	bb, err := bitbuffer.Parse(code)
	require.NoError(t, err)
	return NewDecoder().Decode(bb)
}

func TestDecode(t *testing.T) {
	msgs, err := decode(t, "aaaaaaaaaaaa2dd430c381d55c2acf0835442c")
	require.NoError(t, err)
	require.Len(t, msgs, 1)

	msg := msgs[0].(WH31E)
	assert.Equal(t, uint8(195), msg.ID)
	assert.Equal(t, uint8(1), msg.Channel)
	assert.True(t, msg.BatteryOK)
	assert.InDelta(t, 6.9, msg.Temperature, 1e-9)
	assert.Equal(t, uint8(92), msg.Humidity)
	assert.Equal(t, []byte{0xCF, 0x08, 0x35, 0x44, 0x2C}, msg.Extra)

	assert.Equal(t, "WH31E", msg.MsgType())
	assert.Equal(t, []byte{0x2A}, msg.Checksum())
	assert.Equal(t, []string{"195", "1", "true", "6.9", "92", "cf0835442c", "0x2a"}, msg.Record())
	assert.Equal(t, "{ID:195 Channel:1 Battery:true Temperature:  6.9C Humidity: 92% Extra:cf0835442c CRC:0x2A}", msg.String())
}

func TestDecodePayloads(t *testing.T) {
	for _, tc := range []struct {
		payload  string
		id       uint8
		channel  uint8
		temp     float64
		humidity uint8
	}{
		{"3035c22f3c0fa10752299f", 53, 5, 15.9, 60},
		{"304492133e0e6507450450", 68, 2, 13.1, 62},
		{"302bb2143d94f2085378e6", 43, 4, 13.2, 61},
	} {
		t.Run(tc.payload, func(t *testing.T) {
			// Repeated rows collapse to a single message.
			row := "aaaaaa2dd4" + tc.payload
			msgs, err := decode(t, row+"/"+row)
			require.NoError(t, err)
			require.Len(t, msgs, 1)

			msg := msgs[0].(WH31E)
			assert.Equal(t, tc.id, msg.ID)
			assert.Equal(t, tc.channel, msg.Channel)
			assert.InDelta(t, tc.temp, msg.Temperature, 1e-9)
			assert.Equal(t, tc.humidity, msg.Humidity)
		})
	}
}

func TestReject(t *testing.T) {
	for _, tc := range []struct {
		name string
		code string
		err  error
	}{
		{"no preamble", "aaaaaaaaaaaa2dd540c381d55c2acf0835442c", protocol.ErrAbortEarly},
		{"short", "aaaaaaaaaaaa2dd430c381d55c2a", protocol.ErrAbortLength},
		{"type", "aaaaaaaaaaaa2dd437c381d55c2acf0835442c", protocol.ErrAbortEarly},
		{"crc", "aaaaaaaaaaaa2dd430c381d55c2bcf0835442c", protocol.ErrFailMIC},
	} {
		t.Run(tc.name, func(t *testing.T) {
			_, err := decode(t, tc.code)
			assert.ErrorIs(t, err, tc.err)
		})
	}
}
