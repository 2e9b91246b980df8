package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input string
		want  zerolog.Level
	}{
		{"debug", zerolog.DebugLevel},
		{"DEBUG", zerolog.DebugLevel},
		{"info", zerolog.InfoLevel},
		{"", zerolog.InfoLevel},
		{"warn", zerolog.WarnLevel},
		{"warning", zerolog.WarnLevel},
		{"error", zerolog.ErrorLevel},
		{"verbose", zerolog.InfoLevel},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseLevel(tt.input))
		})
	}
}

func TestNew_JSON(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, zerolog.InfoLevel, false)

	l.Debug().Msg("hidden")
	l.Info().Msg("Internet restored. Switching to stream.")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry), "only the info line should be written")
	assert.Equal(t, "Internet restored. Switching to stream.", entry[zerolog.MessageFieldName])
	assert.Equal(t, "info", entry[zerolog.LevelFieldName])
	assert.NotContains(t, entry, zerolog.CallerFieldName)
}

func TestNew_Console(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, zerolog.DebugLevel, true)

	l.Warn().Msg("No backup files found!")

	out := buf.String()
	assert.Contains(t, out, "No backup files found!")
	assert.Contains(t, out, "WRN")
	assert.Contains(t, out, "logger_test.go", "debug level adds the caller")
}
