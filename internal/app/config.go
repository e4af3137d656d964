package app

import (
	"errors"
	"time"
)

// Config holds all the necessary configuration for an App instance to run.
type Config struct {
	ManifestPaths []string // hcl files or directories
	SettingsFiles []string // yaml, toml or json

	// Script sources in addition to those declared in the manifest.
	ScriptDirs  []string
	SocketURL   string
	SocketEvent string

	StatusPort  int
	GateTimeout time.Duration
	StallReport time.Duration

	LogFormat string
	LogLevel  string
	LogFile   string
}

// NewConfig validates cfg and returns a copy of it.
func NewConfig(cfg Config) (*Config, error) {
	if len(cfg.ManifestPaths) == 0 {
		return nil, errors.New("at least one manifest path is required")
	}
	if cfg.StatusPort < 0 || cfg.StatusPort > 65535 {
		return nil, errors.New("status port must be between 0 and 65535")
	}
	if cfg.GateTimeout < 0 {
		return nil, errors.New("gate timeout must not be negative")
	}
	if cfg.StallReport < 0 {
		return nil, errors.New("stall report interval must not be negative")
	}
	return &cfg, nil
}
