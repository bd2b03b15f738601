package logger

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNewWritesDebugDetailToFile(t *testing.T) {
	logFile := filepath.Join(t.TempDir(), "run.log")

	log, err := New("info", logFile)
	require.NoError(t, err)

	log.Debug("attempt detail", zap.String("key", "backup/a.txt"))
	log.Info("milestone")
	log.Sync()

	data, err := os.ReadFile(logFile)
	require.NoError(t, err)

	// File core records debug lines even when the console level is info.
	assert.Contains(t, string(data), "attempt detail")
	assert.Contains(t, string(data), "milestone")

	firstLine, _, _ := bytes.Cut(data, []byte("\n"))
	var entry map[string]any
	require.NoError(t, json.Unmarshal(firstLine, &entry), "file log lines are JSON")
	assert.NotEmpty(t, entry["ts"])
	assert.NotEmpty(t, entry["level"])
}

func TestNewAppendsAcrossRuns(t *testing.T) {
	logFile := filepath.Join(t.TempDir(), "run.log")

	for i := 0; i < 2; i++ {
		log, err := New("info", logFile)
		require.NoError(t, err)
		log.Info("run finished")
		log.Sync()
	}

	data, err := os.ReadFile(logFile)
	require.NoError(t, err)
	assert.Equal(t, 2, bytes.Count(data, []byte("\n")))
}

func TestNewRejectsBadLevel(t *testing.T) {
	_, err := New("chatty", "")
	assert.Error(t, err)
}

func TestNewWithoutFile(t *testing.T) {
	log, err := New("debug", "")
	require.NoError(t, err)
	log.Info("console only")
}
