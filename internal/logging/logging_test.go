package logging

import (
	"bytes"
	log "log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	for in, want := range map[string]log.Level{
		"debug":  log.LevelDebug,
		"INFO":   log.LevelInfo,
		" warn ": log.LevelWarn,
		"error":  log.LevelError,
	} {
		got, err := ParseLevel(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseLevel("verbose")
	assert.Error(t, err)
}

func TestSetupFiltersByLevel(t *testing.T) {
	prev := log.Default()
	t.Cleanup(func() { log.SetDefault(prev) })

	var buf bytes.Buffer
	Setup(log.LevelWarn, &buf)

	log.Info("hidden message")
	log.Warn("shown message", "tool", "create_file")

	out := buf.String()
	assert.NotContains(t, out, "hidden message")
	assert.Contains(t, out, "shown message")
	assert.Contains(t, out, "create_file")
}
