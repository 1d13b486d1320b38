package logger

import (
	"bytes"
	"testing"

	"codeberg.org/mutker/powermon/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want LogLevel
	}{
		{"debug", DebugLevel},
		{"info", InfoLevel},
		{"", InfoLevel},
		{"warning", WarnLevel},
		{"WARN", WarnLevel},
		{"error", ErrorLevel},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseLevel(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseLevelInvalid(t *testing.T) {
	_, err := ParseLevel("verbose")
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ErrInvalidLogLevel))
	assert.Contains(t, err.Error(), "verbose")
}

func TestComponentLogger(t *testing.T) {
	var buf bytes.Buffer
	InitWithWriter(&buf, DebugLevel, true)
	defer SetLogLevel(InfoLevel)

	WithComponent("pipeline").Info().Msg("cycle processed")

	out := buf.String()
	assert.Contains(t, out, "cycle processed")
	assert.Contains(t, out, "component=pipeline")
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	InitWithWriter(&buf, WarnLevel, true)
	defer SetLogLevel(InfoLevel)

	Info().Msg("hidden")
	Warn().Msg("shown")

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")
}

func TestErrorWithCodeCarriesData(t *testing.T) {
	var buf bytes.Buffer
	InitWithWriter(&buf, DebugLevel, true)
	defer SetLogLevel(InfoLevel)

	ErrorWithCode(errors.New().WithData(errors.ErrShortBuffer, "channel l3")).Msg("refill rejected")
	WithComponent("monitor").ErrorWithCode(errors.New().New(errors.ErrAcquisition)).Msg("no data")

	out := buf.String()
	assert.Contains(t, out, "error_code=acquisition_short_buffer")
	assert.Contains(t, out, "error_data=")
	assert.Contains(t, out, "channel l3")
	assert.Contains(t, out, "error_code=acquisition_failed")
	assert.Equal(t, 1, bytes.Count(buf.Bytes(), []byte("error_data=")))
}
