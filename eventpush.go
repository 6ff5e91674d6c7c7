// Package eventpush forwards host lifecycle events to externally configured
// HTTP targets. The host activates the plugin once with its project
// directory and a failure logger, and feeds every event through the returned
// handler. Delivery is best-effort fan-out: per-target allowlist filtering,
// bounded exponential-backoff retry, and failures reported through the
// logger only — nothing crosses back to the host.
package eventpush

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/btouchard/eventpush/internal/config"
	"github.com/btouchard/eventpush/internal/push"
)

// FailureLogger receives terminal delivery-failure reports. See
// push.FailureLogger; re-exported so hosts only import the root package.
type FailureLogger = push.FailureLogger

// NewSlogLogger returns a FailureLogger backed by the given slog logger.
// A nil logger falls back to slog.Default().
func NewSlogLogger(log *slog.Logger) FailureLogger {
	return push.SlogFailureLogger{Logger: log}
}

// Handler processes one inbound host event. It never panics; undeliverable
// events are reported through logging and otherwise dropped.
type Handler func(ctx context.Context, event json.RawMessage)

// Activate loads the merged target configuration (global file first, then
// the project one under projectDir) and returns the event handler the host
// invokes per event. Configuration is read once; the target list is
// immutable for the lifetime of the handler.
func Activate(projectDir string, log FailureLogger) Handler {
	return activate(projectDir, log, slog.Default())
}

// activate wires the plugin with an explicit diagnostics logger so load-time
// and handler diagnostics do not depend on global slog state.
func activate(projectDir string, log FailureLogger, diag *slog.Logger) Handler {
	cfg := config.NewLoader(diag).Load(projectDir)

	dispatcher := &push.Dispatcher{
		Targets: cfg.Targets,
		Pusher:  &push.Pusher{Log: log},
	}

	return func(ctx context.Context, raw json.RawMessage) {
		defer func() {
			if r := recover(); r != nil {
				diag.Error("event push panicked", "panic", r)
			}
		}()

		event, err := push.ParseEvent(raw)
		if err != nil {
			diag.Warn("dropping undecodable event", "error", err)
			return
		}

		dispatcher.Dispatch(ctx, event)
	}
}
