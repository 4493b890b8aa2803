package arexx

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

func TestDecodeIPHA90(t *testing.T) {
	msgs, err := decode(t, "55555555aaf871fefedff7775ba4ff")
	require.NoError(t, err)
	require.Len(t, msgs, 1)

	msg := msgs[0].(Reading)
	assert.Equal(t, Reading{
		Length:      7,
		ID:          0x018E,
		SensorRaw:   0x0120,
		ChecksumVal: 0xA4,
	}, msg)
	assert.Equal(t, "{ID:018e Len:7 Raw:0120 Temperature: Alert: Humidity: CRC:0xA4}", msg.String())
	assert.Equal(t, []string{"018e", "7", "0120", "", "", "", "0xa4"}, msg.Record())
}

func TestDecodeTSN70E(t *testing.T) {
	msgs, err := decode(t, "55555555aafa15b2e90f6cfffaf77b1ce3")
	require.NoError(t, err)
	require.Len(t, msgs, 1)

	msg := msgs[0].(Reading)
	assert.Equal(t, uint16(0x4DEA), msg.ID)
	assert.Equal(t, uint8(5), msg.Length)
	require.NotNil(t, msg.Temperature)
	assert.InDelta(t, 18.72, *msg.Temperature, 1e-9)
	assert.Nil(t, msg.Humidity)
	assert.Equal(t, "18.72", msg.Record()[3])
}

func TestNewReading(t *testing.T) {
	// SHT10 humidity.
	msg := NewReading([]byte{0x05, 0x01, 0x40, 0x06, 0x00, 0x00})
	require.NotNil(t, msg.Humidity)
	assert.InDelta(t, 50.560143232, *msg.Humidity, 1e-6)
	assert.Nil(t, msg.Temperature)

	// Digital sensor in 1/128 degrees.
	msg = NewReading([]byte{0x05, 0x23, 0x21, 0x0C, 0x80, 0x00})
	assert.InDelta(t, 25.0, *msg.Temperature, 1e-9)

	// MCP9808 register with alert bits.
	msg = NewReading([]byte{0x06, 0x00, 0x00, 0xC1, 0x90, 0x00, 0x00})
	assert.InDelta(t, 25.0, *msg.Temperature, 1e-9)
	require.NotNil(t, msg.Alert)
	assert.Equal(t, uint8(6), *msg.Alert)

	msg = NewReading([]byte{0x06, 0x00, 0x00, 0x1F, 0xF0, 0x00, 0x00})
	assert.InDelta(t, -1.0, *msg.Temperature, 1e-9)
	assert.Equal(t, uint8(0), *msg.Alert)
}

func TestReject(t *testing.T) {
	for _, tc := range []struct {
		name string
		code string
		err  error
	}{
		{"rows", "55555555aaf871fefedff7775ba4ff/55555555aaf871fefedff7775ba4ff", protocol.ErrAbortEarly},
		{"short row", "55555555aaf871", protocol.ErrAbortEarly},
		{"long row", "55555555aaf871fefedff7775ba4ffffffffffff", protocol.ErrAbortEarly},
		{"no preamble", "5555555555f871fefedff7775ba4ff", protocol.ErrAbortEarly},
		{"length", "55555555aaf071fefedff7775ba4ff", protocol.ErrFailSanity},
		{"crc", "55555555aaf871fefedff7775ca4ff", protocol.ErrFailMIC},
	} {
		t.Run(tc.name, func(t *testing.T) {
			_, err := decode(t, tc.code)
			assert.ErrorIs(t, err, tc.err)
		})
	}
}
