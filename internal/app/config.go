package app

import "errors"

// Config holds all the necessary configuration for an App instance to run.
type Config struct {
	PipelinePath string   // yaml or hcl pipeline file
	InputKeys    []string // file paths or storage queries

	ValidateOnly bool
	WatchDir     string

	LogFormat       string
	LogLevel        string
	HealthcheckPort int
	WorkerCount     int
}

// NewConfig validates cfg and returns a copy of it.
func NewConfig(cfg Config) (*Config, error) {
	if cfg.PipelinePath == "" {
		return nil, errors.New("PipelinePath is a required configuration field and cannot be empty")
	}
	if !cfg.ValidateOnly && cfg.WatchDir == "" && len(cfg.InputKeys) == 0 {
		return nil, errors.New("at least one input key is required unless -validate or -watch is set")
	}
	if cfg.WorkerCount < 1 {
		return nil, errors.New("WorkerCount must be at least 1")
	}
	return &cfg, nil
}
