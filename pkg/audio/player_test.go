package audio

import (
	"bytes"
	"context"
	"encoding/binary"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/borgmon/nudge/assets"
	"github.com/borgmon/nudge/pkg/models"
)

// buildWAV assembles a RIFF file from the given chunks after a 16-bit PCM fmt chunk.
func buildWAV(t *testing.T, bits uint16, extra [][2]string, samples []byte) []byte {
	t.Helper()

	var body bytes.Buffer
	body.WriteString("WAVE")

	for _, c := range extra {
		body.WriteString(c[0])
		require.NoError(t, binary.Write(&body, binary.LittleEndian, uint32(len(c[1]))))
		body.WriteString(c[1])
		if len(c[1])%2 == 1 {
			body.WriteByte(0)
		}
	}

	body.WriteString("fmt ")
	for _, v := range []any{uint32(16), uint16(1), uint16(2), uint32(22050), uint32(22050 * 4), uint16(4), bits} {
		require.NoError(t, binary.Write(&body, binary.LittleEndian, v))
	}

	body.WriteString("data")
	require.NoError(t, binary.Write(&body, binary.LittleEndian, uint32(len(samples))))
	body.Write(samples)

	var out bytes.Buffer
	out.WriteString("RIFF")
	require.NoError(t, binary.Write(&out, binary.LittleEndian, uint32(body.Len())))
	out.Write(body.Bytes())
	return out.Bytes()
}

func TestParseWAV(t *testing.T) {
	samples := []byte{1, 2, 3, 4, 5, 6, 7, 8}
	data := buildWAV(t, 16, [][2]string{{"LIST", "odd"}}, samples)

	format, audio, err := parseWAV(data)
	require.NoError(t, err)
	assert.Equal(t, &wavFormat{SampleRate: 22050, Channels: 2, BitDepth: 16}, format)
	assert.Equal(t, samples, audio)
}

func TestParseEmbeddedCue(t *testing.T) {
	format, audio, err := parseWAV(assets.AlarmWAV)
	require.NoError(t, err)
	assert.Equal(t, 44100, format.SampleRate)
	assert.Equal(t, 1, format.Channels)
	assert.NotEmpty(t, audio)
}

func TestParseWAVErrors(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		want error
	}{
		{"empty", nil, errNotWAV},
		{"not riff", []byte("ID3\x03\x00\x00\x00\x00\x00\x00WAVE"), errNotWAV},
		{"8-bit", buildWAV(t, 8, nil, []byte{1, 2}), errUnsupported},
		{"header only", []byte("RIFF\x04\x00\x00\x00WAVE"), errNoData},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := parseWAV(tt.data)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestParseWAVDataBeforeFormat(t *testing.T) {
	data := []byte("RIFF\x10\x00\x00\x00WAVEdata\x02\x00\x00\x00\x01\x02")
	_, _, err := parseWAV(data)
	assert.ErrorIs(t, err, errNoFormat)
}

func TestCueSkipsWhenDisabledOrQuiet(t *testing.T) {
	ctx := context.Background()

	disabled := NewCue([]byte("garbage"), models.SoundConfig{Enabled: false})
	assert.NoError(t, disabled.Play(ctx))

	quiet := NewCue([]byte("garbage"), models.SoundConfig{
		Enabled:         true,
		QuietTimeRanges: []models.TimeRange{{StartHour: 22, EndHour: 8}},
	})
	quiet.now = func() time.Time { return time.Date(2026, 10, 15, 23, 30, 0, 0, time.Local) }
	assert.NoError(t, quiet.Play(ctx))

	quiet.Stop()
}

func TestCueReportsBadSound(t *testing.T) {
	c := NewCue([]byte("garbage"), models.SoundConfig{Enabled: true})
	err := c.Play(context.Background())
	assert.ErrorIs(t, err, errNotWAV)
}
