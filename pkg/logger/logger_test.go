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
	assert.Equal(t, zerolog.DebugLevel, ParseLevel("debug"))
	assert.Equal(t, zerolog.WarnLevel, ParseLevel("warn"))
	assert.Equal(t, zerolog.ErrorLevel, ParseLevel("error"))
	assert.Equal(t, zerolog.InfoLevel, ParseLevel("info"))
	assert.Equal(t, zerolog.InfoLevel, ParseLevel("loud"))
}

func TestNewWithWriterJSON(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter(&buf, "warn", "production")

	log.Info().Msg("dropped")
	log.Warn().Str("post_id", "p1").Msg("kept")

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "kept", entry["message"])
	assert.Equal(t, "p1", entry["post_id"])
	assert.Equal(t, "inkwell", entry["service"])
}
