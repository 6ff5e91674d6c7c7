package config

import (
	"encoding/json"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/btouchard/eventpush/internal/envsubst"
)

// Loader reads and merges event-push config files. The zero value is not
// usable; construct with NewLoader.
type Loader struct {
	log    *slog.Logger
	getenv envsubst.LookupFunc
}

// NewLoader creates a Loader that reports load-time diagnostics on log and
// resolves {env:NAME} tokens from the process environment. A nil log falls
// back to slog.Default().
func NewLoader(log *slog.Logger) *Loader {
	if log == nil {
		log = slog.Default()
	}
	return &Loader{log: log, getenv: os.Getenv}
}

// SetLookup overrides the environment lookup used for {env:NAME} tokens.
func (l *Loader) SetLookup(lookup envsubst.LookupFunc) {
	l.getenv = lookup
}

// GlobalPath returns the per-user config file location,
// ~/.config/opencode/event-push.json. Empty when the home directory
// cannot be determined.
func GlobalPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "opencode", FileName)
}

// Load merges the global config file with the project one, global targets
// first. projectDir may be empty, in which case only the global file is
// consulted. Missing files are normal; Load never fails, the worst case is
// an empty target list.
func (l *Loader) Load(projectDir string) *Config {
	merged := &Config{}

	if path := GlobalPath(); path != "" {
		if cfg := l.ReadFile(path); cfg != nil {
			merged.Targets = append(merged.Targets, cfg.Targets...)
		}
	}

	if projectDir != "" {
		if cfg := l.ReadFile(filepath.Join(projectDir, FileName)); cfg != nil {
			merged.Targets = append(merged.Targets, cfg.Targets...)
		}
	}

	return merged
}

// ReadFile reads one config file. Returns nil when the file is absent or
// unreadable (absence is silent, any other read error warns once). A file
// that exists but does not parse, or whose "targets" field is not an array,
// yields an empty-target Config rather than nil so callers can tell
// "present but invalid" apart from "not there".
func (l *Loader) ReadFile(path string) *Config {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		l.log.Warn("failed to read push config", "path", path, "error", err)
		return nil
	}

	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		l.log.Warn("invalid JSON in push config", "path", path, "error", err)
		return &Config{}
	}

	doc = envsubst.Expand(doc, l.getenv)

	obj, ok := doc.(map[string]any)
	if !ok {
		l.log.Warn("push config is not an object", "path", path)
		return &Config{}
	}
	if _, ok := obj["targets"].([]any); !ok {
		l.log.Warn("push config field \"targets\" is not an array", "path", path)
		return &Config{}
	}

	// Round-trip through JSON to decode the interpolated document into
	// typed targets.
	raw, err := json.Marshal(obj)
	if err != nil {
		l.log.Warn("invalid push config", "path", path, "error", err)
		return &Config{}
	}
	var cfg Config
	if err := json.Unmarshal(raw, &cfg); err != nil {
		l.log.Warn("invalid push config", "path", path, "error", err)
		return &Config{}
	}
	return &cfg
}
