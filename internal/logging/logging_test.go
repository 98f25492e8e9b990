package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewJSONRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(Options{Level: "warn", Format: "json"}, &buf)
	require.NoError(t, err)

	logger.Info().Msg("hidden")
	logger.Warn().Msg("shown")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry))
	assert.Equal(t, "shown", entry["message"])
	assert.Equal(t, "warn", entry["level"])
}

func TestNewRejectsUnknownSettings(t *testing.T) {
	_, err := New(Options{Level: "loud"}, &bytes.Buffer{})
	assert.Error(t, err)

	_, err = New(Options{Format: "xml"}, &bytes.Buffer{})
	assert.Error(t, err)
}

func TestConsoleIsDefault(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(Options{}, &buf)
	require.NoError(t, err)

	driverLogger := Component(logger, "driver")
	driverLogger.Info().Msg("hello")
	assert.Contains(t, buf.String(), "hello")
	assert.Contains(t, buf.String(), "component=driver")
}

func TestWithTurnStoresLoggerInContext(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(Options{Format: "json"}, &buf)
	require.NoError(t, err)

	ctx, turnID := WithTurn(context.Background(), logger)
	require.NotEmpty(t, turnID)

	zerolog.Ctx(ctx).Info().Msg("inside")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry))
	assert.Equal(t, turnID, entry["turn_id"])
}

func TestOpenFileCreatesDirectories(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "agent.log")
	f, err := OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	_, err = f.WriteString("line\n")
	assert.NoError(t, err)
	assert.FileExists(t, path)
}
