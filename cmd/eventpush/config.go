package main

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// HostConfig configures the standalone host adapter. The plugin's own
// target configuration stays in event-push.json; this file only covers the
// runtime around it.
type HostConfig struct {
	Server     ServerConfig `yaml:"server"`
	ProjectDir string       `yaml:"project_dir"`
}

type ServerConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	LogLevel string `yaml:"log_level"`
}

// Defaults returns a HostConfig with sensible default values.
func Defaults() *HostConfig {
	return &HostConfig{
		Server: ServerConfig{
			Host:     "127.0.0.1",
			Port:     8477,
			LogLevel: "info",
		},
	}
}

// LoadHostConfig reads the host adapter config from path. An empty path or
// a missing file yields the defaults.
func LoadHostConfig(path string) (*HostConfig, error) {
	cfg := Defaults()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing YAML: %w", err)
	}

	if cfg.Server.Port < 1 || cfg.Server.Port > 65535 {
		return nil, fmt.Errorf("server.port must be between 1 and 65535, got %d", cfg.Server.Port)
	}

	return cfg, nil
}
