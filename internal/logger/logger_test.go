package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/garyellow/triangulator-go/internal/ctxutil"
)

func decodeLine(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry), buf.String())
	return entry
}

func TestParseLevel(t *testing.T) {
	t.Parallel()
	tests := []struct {
		level string
		want  slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"WARNING", slog.LevelWarn},
		{" error ", slog.LevelError},
		{"invalid", slog.LevelInfo},
		{"", slog.LevelInfo},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ParseLevel(tt.level), tt.level)
	}
}

func TestLogger_LevelFiltering(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	log := NewWithWriter("warn", &buf)

	log.Info("dropped")
	assert.Zero(t, buf.Len())

	log.Warn("kept")
	entry := decodeLine(t, &buf)
	assert.Equal(t, "warning", entry["level"])
}

func TestLogger_JSONFormat(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	NewWithWriter("info", &buf).Info("test message")

	entry := decodeLine(t, &buf)
	for _, field := range []string{"timestamp", "level", "message"} {
		assert.Contains(t, entry, field)
	}
	assert.Equal(t, "test message", entry["message"])
	assert.Equal(t, "info", entry["level"])
}

func TestLogger_Fields(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		build func(*Logger) *Logger
		key   string
		want  any
	}{
		{"module", func(l *Logger) *Logger { return l.WithModule("lookup") }, "module", "lookup"},
		{"request id", func(l *Logger) *Logger { return l.WithRequestID("req-123") }, "request_id", "req-123"},
		{"error", func(l *Logger) *Logger { return l.WithError(errors.New("boom")) }, "error", "boom"},
		{"field", func(l *Logger) *Logger { return l.WithField("chunks", 3) }, "chunks", float64(3)},
		{"fields", func(l *Logger) *Logger { return l.WithFields(map[string]any{"path": "fast"}) }, "path", "fast"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			var buf bytes.Buffer
			tt.build(NewWithWriter("info", &buf)).Info("m")
			assert.Equal(t, tt.want, decodeLine(t, &buf)[tt.key])
		})
	}
}

func TestLogger_ContextValues(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	log := NewWithWriter("info", &buf)

	ctx := ctxutil.WithRequestID(t.Context(), "req-1")
	ctx = ctxutil.WithLookupID(ctx, "lk-2")
	log.InfoContext(ctx, "m")

	entry := decodeLine(t, &buf)
	assert.Equal(t, "req-1", entry["request_id"])
	assert.Equal(t, "lk-2", entry["lookup_id"])
}

func TestLogger_Formatted(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	NewWithWriter("info", &buf).Warnf("retry %d of %d", 1, 3)
	assert.Equal(t, "retry 1 of 3", decodeLine(t, &buf)["message"])
}

func TestLogger_Betterstack(t *testing.T) {
	t.Parallel()

	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") == "Bearer source-token" {
			hits.Add(1)
		}
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	var buf bytes.Buffer
	log := NewWithOptions("info", &buf, Options{
		BetterstackToken:    "source-token",
		BetterstackEndpoint: srv.URL,
	})
	log.WithModule("test").Info("shipped")
	require.NoError(t, log.Shutdown(t.Context()))

	assert.NotZero(t, buf.Len(), "stdout sink still receives records")
	assert.Eventually(t, func() bool { return hits.Load() == 1 }, 5*time.Second, 10*time.Millisecond)
}

func TestLogger_ShutdownWithoutRemote(t *testing.T) {
	t.Parallel()
	assert.NoError(t, NewWithWriter("info", &bytes.Buffer{}).Shutdown(t.Context()))
	assert.NoError(t, (*Logger)(nil).Shutdown(t.Context()))
}
