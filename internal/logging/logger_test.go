package logging

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoggerWritesComponentAndContext(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerTo(&buf, "Worker")

	logger.ErrorWithContext("extraction failed", errors.New("boom"), map[string]interface{}{
		"sequence": 3,
	})

	var record map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
	assert.Equal(t, "Worker", record["component"])
	assert.Equal(t, "error", record["level"])
	assert.Equal(t, "boom", record["error"])
	assert.Equal(t, float64(3), record["sequence"])
	assert.Equal(t, "extraction failed", record["message"])
}

func TestContextLoggerCarriesFields(t *testing.T) {
	var buf bytes.Buffer
	cl := NewLoggerTo(&buf, "Controller").WithContext(map[string]interface{}{"iteration": 2})

	cl.Info("state changed")

	var record map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
	assert.Equal(t, float64(2), record["iteration"])
}

func TestInitUnknownLevelFallsBackToInfo(t *testing.T) {
	defer Init("info")

	Init("chatty")
	var buf bytes.Buffer
	logger := NewLoggerTo(&buf, "Test")
	logger.Debug("hidden")
	assert.Empty(t, buf.String())

	Init("debug")
	logger.Debug("shown")
	assert.Contains(t, buf.String(), "shown")
}

func TestAttachFileTeesRecords(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session", "session.log")

	sl, err := AttachFile(path)
	require.NoError(t, err)

	NewLogger("Runner").Info("iteration finished")
	require.NoError(t, sl.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "iteration finished")
	assert.Contains(t, string(data), "Session log detached")
}
