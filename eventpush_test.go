package eventpush

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingLogger struct {
	mu       sync.Mutex
	messages []string
}

func (r *recordingLogger) Warn(_ context.Context, message string, _ map[string]any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.messages = append(r.messages, message)
}

func (r *recordingLogger) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.messages)
}

// captureHandler records slog output so handler diagnostics are assertable
// without touching the global logger.
type captureHandler struct {
	mu      sync.Mutex
	records []slog.Record
}

func (h *captureHandler) Enabled(context.Context, slog.Level) bool { return true }

func (h *captureHandler) Handle(_ context.Context, r slog.Record) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.records = append(h.records, r)
	return nil
}

func (h *captureHandler) WithAttrs([]slog.Attr) slog.Handler { return h }
func (h *captureHandler) WithGroup(string) slog.Handler      { return h }

func (h *captureHandler) count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.records)
}

func writeProjectConfig(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "event-push.json"), []byte(content), 0644))
	return dir
}

func TestActivate_DeliversHostEventsToConfiguredTargets(t *testing.T) {
	t.Setenv("HOME", t.TempDir()) // no global config

	var (
		mu     sync.Mutex
		bodies [][]byte
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		mu.Lock()
		bodies = append(bodies, body)
		mu.Unlock()
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	projectDir := writeProjectConfig(t, fmt.Sprintf(
		`{"targets": [{"url": %q, "events": ["session.idle"]}]}`, srv.URL))

	log := &recordingLogger{}
	handler := Activate(projectDir, log)

	event := json.RawMessage(`{"type":"session.idle","session":{"id":"s1"}}`)
	handler(context.Background(), event)

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, bodies, 1)
	assert.Equal(t, []byte(event), bodies[0], "payload is forwarded byte-for-byte")
	assert.Equal(t, 0, log.count())
}

func TestActivate_FiltersEventsPerTarget(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	var mu sync.Mutex
	hits := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		hits++
		mu.Unlock()
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	projectDir := writeProjectConfig(t, fmt.Sprintf(
		`{"targets": [{"url": %q, "events": ["wanted"]}]}`, srv.URL))

	handler := Activate(projectDir, &recordingLogger{})

	handler(context.Background(), json.RawMessage(`{"type":"ignored"}`))
	handler(context.Background(), json.RawMessage(`{"type":"wanted"}`))

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 1, hits)
}

func TestActivate_HandlerSurvivesUndecodableEvents(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	projectDir := writeProjectConfig(t, `{"targets": [{"url": "https://example.invalid"}]}`)
	handler := Activate(projectDir, &recordingLogger{})

	require.NotPanics(t, func() {
		handler(context.Background(), json.RawMessage(`{definitely not json`))
	})
}

func TestActivate_UndecodableEventWarnsOnInjectedLogger(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	capture := &captureHandler{}
	handler := activate(t.TempDir(), &recordingLogger{}, slog.New(capture))

	handler(context.Background(), json.RawMessage(`{definitely not json`))

	assert.Equal(t, 1, capture.count(), "dropped events are diagnosed on the injected logger")
}

func TestActivate_ZeroAttemptTargetDoesNotCrashTheHost(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	projectDir := writeProjectConfig(t, fmt.Sprintf(
		`{"targets": [{"url": %q, "retry": {"attempts": 0, "delayMs": 1}}]}`, srv.URL))

	log := &recordingLogger{}
	handler := Activate(projectDir, log)

	require.NotPanics(t, func() {
		handler(context.Background(), json.RawMessage(`{"type":"session.error"}`))
	})
	require.Equal(t, 1, log.count())
	assert.Contains(t, log.messages[0], "1 attempt(s)")
}

func TestActivate_NoConfigMeansNoDeliveries(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	log := &recordingLogger{}
	handler := Activate(t.TempDir(), log)

	require.NotPanics(t, func() {
		handler(context.Background(), json.RawMessage(`{"type":"session.idle"}`))
	})
	assert.Equal(t, 0, log.count())
}

func TestActivate_ReportsTerminalFailuresThroughLogger(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	projectDir := writeProjectConfig(t, fmt.Sprintf(
		`{"targets": [{"url": %q, "retry": {"attempts": 2, "delayMs": 1}}]}`, srv.URL))

	log := &recordingLogger{}
	handler := Activate(projectDir, log)

	handler(context.Background(), json.RawMessage(`{"type":"session.error"}`))

	require.Equal(t, 1, log.count())
	assert.Contains(t, log.messages[0], "2 attempt(s)")
}
