package winedaemon

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLogger_DefaultLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(LogConfig{}, &buf)

	logger.Info("hidden")
	logger.Warn("shown")

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")
}

func TestNewLogger_JSON(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(LogConfig{Level: "debug", Format: LogFormatJSON}, &buf)

	logger.Debug("daemon started", "pid", 42)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "daemon started", entry["msg"])
	assert.Equal(t, float64(42), entry["pid"])
}

func TestLogConfig_Validate(t *testing.T) {
	assert.NoError(t, LogConfig{}.Validate())
	assert.NoError(t, LogConfig{Level: "INFO", Format: "JSON"}.Validate())
	assert.Error(t, LogConfig{Level: "loud"}.Validate())
	assert.Error(t, LogConfig{Format: "xml"}.Validate())
}
