package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/vk/tsdat/internal/config"
	"github.com/vk/tsdat/internal/ctxlog"
	"github.com/vk/tsdat/internal/metrics"
	"github.com/vk/tsdat/internal/registry"
)

// App encapsulates the application's dependencies, configuration, and lifecycle.
type App struct {
	outW       io.Writer
	logger     *slog.Logger
	ctx        context.Context
	config     *Config
	registry   *registry.Registry
	pipeline   *config.Pipeline
	storage    registry.Storage
	metrics    *metrics.Metrics
	httpServer *http.Server
}

// NewApp is the constructor for the main application. It loads and validates
// the pipeline configuration and builds the storage backend, returning a
// fully initialized App with its own isolated logger and registry.
// Datasets are written to outW; logs go to logW.
func NewApp(outW, logW io.Writer, cfg *Config, modules ...registry.Module) (*App, error) {
	logger := newLogger(cfg.LogLevel, cfg.LogFormat, logW)
	ctx := ctxlog.WithLogger(context.Background(), logger)
	logger.Debug("Logger configured successfully.")

	loader, err := loaderFor(cfg.PipelinePath)
	if err != nil {
		return nil, err
	}
	pipeline, err := loader.Load(ctx, cfg.PipelinePath)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	if err := config.Validate(pipeline); err != nil {
		return nil, err
	}
	logger.Debug("Configuration loaded and validated.", "classname", pipeline.Classname)

	reg := registry.New()
	if len(modules) == 0 {
		modules = coreModules
	}
	for _, mod := range modules {
		mod.Register(reg)
	}
	logger.Debug("All Go modules registered.", "count", len(modules))

	if err := reg.Validate(pipeline); err != nil {
		return nil, err
	}
	logger.Debug("Registry validation passed.")

	a := &App{
		outW:     outW,
		logger:   logger,
		ctx:      ctx,
		config:   cfg,
		registry: reg,
		pipeline: pipeline,
		metrics:  metrics.New(),
	}
	if pipeline.Storage != nil {
		if a.storage, err = reg.NewStorage(pipeline.Storage); err != nil {
			return nil, err
		}
	}
	return a, nil
}
