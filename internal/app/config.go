package app

import (
	"errors"
	"fmt"
	"time"
)

// Config holds all the necessary configuration for an App instance to run.
type Config struct {
	CardPaths []string // hcl files or directories

	LogFormat string
	LogLevel  string
	// HTTPPort serves the control API and metrics. 0 disables it.
	HTTPPort int
	// WriteTimeout bounds each register bus call. 0 means no bound.
	WriteTimeout time.Duration
	// BreakerFailures is the number of consecutive bus failures that open
	// the circuit breaker. 0 uses the breaker default.
	BreakerFailures uint32
	// Once prints the settled power table and exits instead of serving.
	Once bool
}

func NewConfig(cfg Config) (*Config, error) {
	if len(cfg.CardPaths) == 0 {
		return nil, errors.New("CardPaths is a required configuration field and cannot be empty")
	}
	if cfg.HTTPPort < 0 || cfg.HTTPPort > 65535 {
		return nil, fmt.Errorf("HTTPPort %d is out of range", cfg.HTTPPort)
	}
	if cfg.WriteTimeout < 0 {
		return nil, fmt.Errorf("WriteTimeout %s cannot be negative", cfg.WriteTimeout)
	}
	return &cfg, nil
}
