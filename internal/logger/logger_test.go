package logger_test

import (
	"bytes"
	"encoding/json"
	stderrors "errors"
	"testing"

	"codeberg.org/mutker/daikinctl/internal/errors"
	"codeberg.org/mutker/daikinctl/internal/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in    string
		want  logger.LogLevel
		valid bool
	}{
		{"debug", logger.DebugLevel, true},
		{"INFO", logger.InfoLevel, true},
		{"warning", logger.WarnLevel, true},
		{"warn", logger.WarnLevel, true},
		{"error", logger.ErrorLevel, true},
		{"verbose", logger.InfoLevel, false},
	}

	for _, tt := range tests {
		got, ok := logger.ParseLevel(tt.in)
		assert.Equal(t, tt.valid, ok, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}

func TestWriterLogger(t *testing.T) {
	var buf bytes.Buffer
	log := logger.NewWriter(&buf, logger.InfoLevel).With("appliance")

	log.Debug().Msg("hidden")
	log.Info().Str("device", "10.0.0.2").Msg("updated")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "updated", entry["message"])
	assert.Equal(t, "appliance", entry["component"])
	assert.Equal(t, "10.0.0.2", entry["device"])
}

func TestErrorWithCode(t *testing.T) {
	var buf bytes.Buffer
	log := logger.NewWriter(&buf, logger.DebugLevel)

	err := errors.New().Wrap(errors.ErrUpdateState, stderrors.New("timeout"))
	log.ErrorWithCode(err).Msg("refresh failed")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "update_state_failed", entry["error_code"])
	assert.Equal(t, "timeout", entry["error"])
	assert.Equal(t, "error", entry["level"])
}

func TestNop(t *testing.T) {
	assert.NotPanics(t, func() {
		logger.Nop().Error().Msg("discarded")
	})
}
