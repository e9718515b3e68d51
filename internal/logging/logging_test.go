package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"

	"github.com/samber/oops"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decode(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry), "failed to parse JSON: %s", buf.String())
	return entry
}

func TestSetup_JSONFormat(t *testing.T) {
	var buf bytes.Buffer
	logger := Setup("partyplanner", "1.2.3", "json", "info", &buf)

	logger.Info("hello", "client_id", "10.0.0.1")

	entry := decode(t, &buf)
	assert.Equal(t, "hello", entry["msg"])
	assert.Equal(t, "partyplanner", entry["service"])
	assert.Equal(t, "1.2.3", entry["version"])
	assert.Equal(t, "10.0.0.1", entry["client_id"])
}

func TestSetup_TextFormat(t *testing.T) {
	var buf bytes.Buffer
	logger := Setup("partyplanner", "dev", "text", "info", &buf)

	logger.Info("hello")

	assert.Contains(t, buf.String(), "msg=hello")
	assert.Contains(t, buf.String(), "service=partyplanner")
}

func TestSetup_LevelFilters(t *testing.T) {
	var buf bytes.Buffer
	logger := Setup("partyplanner", "dev", "json", "warn", &buf)

	logger.Info("dropped")
	assert.Empty(t, buf.String())

	logger.Warn("kept")
	assert.Contains(t, buf.String(), "kept")
}

func TestSetup_WithAttrsKeepsServiceAttrs(t *testing.T) {
	var buf bytes.Buffer
	logger := Setup("partyplanner", "dev", "json", "debug", &buf).With("component", "auth")

	logger.Debug("scoped")

	entry := decode(t, &buf)
	assert.Equal(t, "auth", entry["component"])
	assert.Equal(t, "partyplanner", entry["service"])
}

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"INFO":    slog.LevelInfo,
		"warn":    slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"":        slog.LevelInfo,
		"verbose": slog.LevelInfo,
	}
	for in, want := range tests {
		assert.Equal(t, want, ParseLevel(in), "level %q", in)
	}
}

func TestLogError_OopsError(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	err := oops.Code("AUTH_STORE_UNAVAILABLE").
		With("operation", "find user by email").
		Errorf("connection refused")

	LogError(context.Background(), logger, "login failed", err, "client_id", "anonymous")

	entry := decode(t, &buf)
	assert.Equal(t, "ERROR", entry["level"])
	assert.Equal(t, "login failed", entry["msg"])
	assert.Equal(t, "AUTH_STORE_UNAVAILABLE", entry["code"])
	assert.Equal(t, "anonymous", entry["client_id"])
	require.IsType(t, map[string]any{}, entry["context"])
	assert.Equal(t, "find user by email", entry["context"].(map[string]any)["operation"])
}

func TestLogError_StandardError(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	LogError(context.Background(), logger, "something broke", errors.New("plain"))

	entry := decode(t, &buf)
	assert.Equal(t, "plain", entry["error"])
	assert.NotContains(t, entry, "code")
}
