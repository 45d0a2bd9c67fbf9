package app

import (
	"errors"
	"time"
)

// Config holds all the necessary configuration for an App instance to run.
type Config struct {
	GridPath string // .hcl file or directory

	LogFormat    string
	LogLevel     string
	WorkerCount  int
	PumpInterval time.Duration
}

// NewConfig validates cfg and fills in defaults.
func NewConfig(cfg Config) (*Config, error) {
	if cfg.GridPath == "" {
		return nil, errors.New("GridPath is a required configuration field and cannot be empty")
	}
	if cfg.PumpInterval <= 0 {
		cfg.PumpInterval = 10 * time.Millisecond
	}
	return &cfg, nil
}
