package thermopro

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/merbanan/rtl-433-sub004/bitbuffer"
	"github.com/merbanan/rtl-433-sub004/protocol"
)

const (
	tx7bRow   = "d2552dd4e800293017aa55aa83d2d2d2d2d200"
	tp829bRow = "d2552dd4082f2efeddeddedde8d2d2d2d2d20000000000000"
)

func decode(t *testing.T, d protocol.Decoder, code string) ([]protocol.Message, error) {
	t.Helper()

	bb, err := bitbuffer.Parse(code)
	require.NoError(t, err)
	return d.Decode(bb)
}

func TestTX7B(t *testing.T) {
	msgs, err := decode(t, NewTX7BDecoder(), tx7bRow)
	require.NoError(t, err)
	require.Len(t, msgs, 1)

	msg := msgs[0].(TX7B)
	assert.Equal(t, TX7B{
		ID:          0xE8,
		BatteryOK:   true,
		Channel:     1,
		Temperature: msg.Temperature,
		Humidity:    23,
		ChecksumVal: 0x83,
	}, msg)
	assert.InDelta(t, 25.9, msg.Temperature, 1e-9)

	assert.Equal(t, "{ID:e8 Channel:1 Battery:true Button:false Flags:0000 Temperature: 25.9C Humidity: 23% Digest:0x83}", msg.String())
	assert.Equal(t, []string{"e8", "1", "true", "false", "0000", "25.9", "23", "0x83"}, msg.Record())

	msgs, err = decode(t, NewTX7BDecoder(), "552dd425202ca00daa55aabbd2d2d2d2d200")
	require.NoError(t, err)
	msg = msgs[0].(TX7B)
	assert.Equal(t, uint8(0x25), msg.ID)
	assert.Equal(t, uint8(3), msg.Channel)
	assert.InDelta(t, 31.4, msg.Temperature, 1e-9)
	assert.Equal(t, uint8(13), msg.Humidity)
}

func TestTP829B(t *testing.T) {
	msgs, err := decode(t, NewTP829BDecoder(), tp829bRow)
	require.NoError(t, err)
	require.Len(t, msgs, 1)

	msg := msgs[0].(TP829B)
	assert.Equal(t, uint8(0x08), msg.ID)
	assert.Equal(t, "Fahrenheit", msg.Unit())
	assert.Equal(t, uint8(0xF), msg.Flags)

	require.NotNil(t, msg.Probes[0])
	assert.InDelta(t, 25.1, *msg.Probes[0], 1e-9)
	assert.Nil(t, msg.Probes[1])
	assert.Nil(t, msg.Probes[2])
	assert.Nil(t, msg.Probes[3])

	assert.Equal(t, "{ID:08 Unit:Fahrenheit Flags:F Probes:[25.1 - - -] Digest:0xE8}", msg.String())
	assert.Equal(t, []string{"08", "Fahrenheit", "f", "25.1", "", "", "", "0xe8"}, msg.Record())
}

func TestReject(t *testing.T) {
	for _, tc := range []struct {
		name string
		dec  protocol.Decoder
		code string
		err  error
	}{
		{"rows", NewTX7BDecoder(), tx7bRow + "/" + tx7bRow, protocol.ErrFailSanity},
		{"long", NewTX7BDecoder(), "0000000000000000000000000000000000" + tx7bRow, protocol.ErrAbortLength},
		{"sync", NewTX7BDecoder(), "d2562dd4e800293017aa55aa83d2d2d2d2d200", protocol.ErrAbortEarly},
		{"short", NewTX7BDecoder(), "d2552dd4e800293017aa55", protocol.ErrAbortLength},
		{"tx7b digest", NewTX7BDecoder(), "d2552dd4e800293018aa55aa83d2d2d2d2d200", protocol.ErrFailMIC},
		{"tp829b digest", NewTP829BDecoder(), tx7bRow, protocol.ErrFailMIC},
		{"cross", NewTX7BDecoder(), tp829bRow, protocol.ErrFailMIC},
	} {
		t.Run(tc.name, func(t *testing.T) {
			_, err := decode(t, tc.dec, tc.code)
			assert.ErrorIs(t, err, tc.err)
		})
	}
}
