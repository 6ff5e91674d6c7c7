package push

import (
	"context"
	"log/slog"
)

// ServiceName identifies this component in failure reports.
const ServiceName = "opencode-event-push"

// FailureLogger receives terminal delivery-failure reports. Implementations
// must be safe for concurrent use; deliveries to different targets report
// from separate goroutines. Defined consumer-side per Go convention — the
// host supplies the implementation at activation time.
type FailureLogger interface {
	Warn(ctx context.Context, message string, extra map[string]any)
}

// SlogFailureLogger adapts a *slog.Logger to the FailureLogger boundary,
// tagging every record with the service name.
type SlogFailureLogger struct {
	Logger *slog.Logger
}

// Warn emits one warn-level record with the structured extra fields.
func (s SlogFailureLogger) Warn(ctx context.Context, message string, extra map[string]any) {
	log := s.Logger
	if log == nil {
		log = slog.Default()
	}
	log.LogAttrs(ctx, slog.LevelWarn, message,
		slog.String("service", ServiceName),
		slog.Any("extra", extra))
}
