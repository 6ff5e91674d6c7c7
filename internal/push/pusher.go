package push

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/jpillora/backoff"

	"github.com/btouchard/eventpush/internal/config"
)

// maxBackoff caps a runaway exponential when a target configures a large
// attempt count together with a long base delay.
const maxBackoff = 5 * time.Minute

// Pusher delivers payloads to a single target at a time, retrying failed
// attempts with exponential backoff. It never returns or panics on delivery
// failure; exhausted retries are reported once through Log.
type Pusher struct {
	// Client is the HTTP client used for deliveries. Nil means
	// http.DefaultClient.
	Client *http.Client

	// Log receives one report per target whose retries are exhausted.
	Log FailureLogger
}

// Push POSTs payload to the target, retrying up to the target's configured
// attempt count. Attempts are strictly sequential; the wait before attempt
// n (1-indexed) is baseDelay * 2^(n-1). A 2xx response ends the call
// silently. When the last attempt fails, the failure is reported once
// through the failure logger and Push returns normally.
func (p *Pusher) Push(ctx context.Context, target config.Target, payload []byte) {
	attempts := target.Retry.AttemptCount()
	base := target.Retry.BaseDelay()

	next := func() time.Duration { return 0 }
	if base > 0 {
		b := &backoff.Backoff{Min: base, Max: maxBackoff, Factor: 2}
		next = b.Duration
	}

	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		lastErr = p.send(ctx, target, payload)
		if lastErr == nil {
			return
		}
		if attempt < attempts-1 {
			if d := next(); d > 0 {
				time.Sleep(d)
			}
		}
	}

	if p.Log != nil {
		p.Log.Warn(ctx,
			fmt.Sprintf("failed to push event to %s after %d attempt(s): %v", target.URL, attempts, lastErr),
			map[string]any{
				"url":      target.URL,
				"error":    lastErr.Error(),
				"attempts": attempts,
			})
	}
}

// send performs one delivery attempt. A non-2xx response and a transport
// error are the same kind of failure to the retry loop.
func (p *Pusher) send(ctx context.Context, target config.Target, payload []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target.URL, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	for name, value := range target.Headers {
		req.Header.Set(name, value)
	}

	client := p.Client
	if client == nil {
		client = http.DefaultClient
	}

	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	// Drain so the transport can reuse the connection.
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64*1024))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("HTTP %d", resp.StatusCode)
	}
	return nil
}
