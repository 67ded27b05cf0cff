package logging_test

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	context_ "github.com/mkrupp/chatapp/internal/infra/context"
	"github.com/mkrupp/chatapp/internal/infra/logging"
)

func configure(t *testing.T, cfg logging.LoggerConfig) *bytes.Buffer {
	t.Helper()

	var buf bytes.Buffer

	cfg.OutputHandle = &buf
	if cfg.Level == "" {
		cfg.Level = "debug"
	}

	logging.Configure(context.Background(), cfg, "chat.test")
	buf.Reset()

	t.Cleanup(func() {
		logging.Configure(context.Background(), logging.LoggerConfig{Output: "discard"}, "")
	})

	return &buf
}

//nolint:paralleltest
func TestConsoleHandler(t *testing.T) {
	buf := configure(t, logging.LoggerConfig{Color: "never"})

	log := logging.GetLogger("svc.sessionsvc.session_manager")
	log.With(logging.Group("user", "email", "a@b.c")).Info("signed in", "attempt", 2)

	line := buf.String()
	assert.Contains(t, line, "INFO  svc.sessionsvc.session_manager signed in |")
	assert.Contains(t, line, "user.email=a@b.c")
	assert.Contains(t, line, "attempt=2")
	assert.Contains(t, line, "(logger_test.go:")
	assert.NotContains(t, line, "\033[")
}

//nolint:paralleltest
func TestLevelFilter(t *testing.T) {
	buf := configure(t, logging.LoggerConfig{
		Level:  "info",
		Filter: "svc:warn, svc.imagesvc:debug",
		Color:  "never",
	})

	tests := []struct {
		logger string
		level  logging.Level
		want   bool
	}{
		{logger: "repo.token", level: logging.LevelDebug, want: false},
		{logger: "repo.token", level: logging.LevelInfo, want: true},
		{logger: "svc.sessionsvc", level: logging.LevelInfo, want: false},
		{logger: "svc.sessionsvc", level: logging.LevelWarn, want: true},
		{logger: "svc.imagesvc.blob_image_service", level: logging.LevelDebug, want: true},
	}

	for _, tt := range tests {
		buf.Reset()
		logging.GetLogger(tt.logger).Log(context.Background(), tt.level, "probe")
		assert.Equal(t, tt.want, strings.Contains(buf.String(), "probe"), "%s at %s", tt.logger, tt.level)
	}
}

//nolint:paralleltest
func TestRedactionAndTracing(t *testing.T) {
	buf := configure(t, logging.LoggerConfig{JSON: true})

	ctx := context_.WithTraceID(context.Background(), "trace-1")

	logging.GetLogger("cli").With("token", "token-1-a@b.c").InfoContext(ctx, "login",
		logging.Group("user", "email", "a@b.c", "password", "secret1"),
	)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))

	assert.Equal(t, "chat.test", entry["app"])
	assert.Equal(t, "cli", entry["logger"])
	assert.Equal(t, "[redacted]", entry["token"])
	assert.Equal(t, map[string]any{"email": "a@b.c", "password": "[redacted]"}, entry["user"])
	assert.Equal(t, map[string]any{"id": "trace-1"}, entry["trace"])
	assert.NotContains(t, buf.String(), "secret1")
}

//nolint:paralleltest
func TestDiscard(t *testing.T) {
	logging.Configure(context.Background(), logging.LoggerConfig{Output: "discard"}, "")

	log := logging.GetLogger("anything")
	assert.False(t, log.Enabled(context.Background(), logging.LevelError))
}
