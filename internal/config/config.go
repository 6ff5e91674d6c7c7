// Package config loads the event-push target configuration from the global
// and project-level config files and merges them into one target list.
package config

import (
	"slices"
	"time"
)

// FileName is the config file name looked up in both the global config
// directory and the project root.
const FileName = "event-push.json"

const (
	// DefaultAttempts is the total number of tries per target, including
	// the first one, when the target does not configure its own count.
	DefaultAttempts = 3

	// DefaultDelay is the base backoff delay between attempts when the
	// target does not configure its own.
	DefaultDelay = 500 * time.Millisecond
)

// Config is the merged target list for one plugin activation.
type Config struct {
	Targets []Target `json:"targets"`
}

// Target is one delivery destination. It is immutable once loaded and is
// shared as-is across concurrent deliveries.
type Target struct {
	URL     string            `json:"url"`
	Events  []string          `json:"events,omitempty"`
	Retry   *Retry            `json:"retry,omitempty"`
	Headers map[string]string `json:"headers,omitempty"`
}

// Retry is the per-target retry policy. Pointer fields so that an explicit
// zero can be told apart from an absent value.
type Retry struct {
	Attempts *int `json:"attempts,omitempty"`
	DelayMs  *int `json:"delayMs,omitempty"`
}

// Matches reports whether the target wants events of the given type.
// An empty or absent allowlist matches every event type.
func (t Target) Matches(eventType string) bool {
	return len(t.Events) == 0 || slices.Contains(t.Events, eventType)
}

// AttemptCount returns the configured total attempt count, or the default.
// Non-positive values come straight from user config and are clamped to 1
// so a bad config line can never yield a zero-attempt delivery.
func (r *Retry) AttemptCount() int {
	if r == nil || r.Attempts == nil {
		return DefaultAttempts
	}
	if *r.Attempts < 1 {
		return 1
	}
	return *r.Attempts
}

// BaseDelay returns the configured base backoff delay, or the default.
// An explicit delayMs of 0 means no wait between attempts.
func (r *Retry) BaseDelay() time.Duration {
	if r == nil || r.DelayMs == nil {
		return DefaultDelay
	}
	return time.Duration(*r.DelayMs) * time.Millisecond
}
