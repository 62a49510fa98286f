package app

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/vk/tsdat/internal/ctxlog"
	"github.com/vk/tsdat/internal/dataset"
	"github.com/vk/tsdat/internal/registry"
)

// Run executes the pipeline once for the configured input keys, or keeps
// processing new files in watch mode until ctx is canceled.
func (a *App) Run(ctx context.Context) error {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	a.logger.Debug("App.Run method started.")

	if a.config.ValidateOnly {
		a.logger.Info("Configuration is valid.", "pipeline", a.config.PipelinePath, "classname", a.pipeline.Classname)
		return nil
	}

	a.healthCheckServer()
	defer a.closeHealthCheckServer()

	if a.config.WatchDir != "" {
		return a.watch(ctx, a.config.WatchDir)
	}

	_, err := a.Process(ctx, a.config.InputKeys)
	a.logger.Debug("App.Run method finished.")
	return err
}

// Process runs the pipeline for one set of input keys: the keys are
// retrieved into a standardized dataset, which is saved to storage when the
// pipeline has one and written to the output as JSON otherwise.
func (a *App) Process(ctx context.Context, inputKeys []string) (*dataset.Dataset, error) {
	runID := uuid.NewString()
	ctx = ctxlog.With(ctx, "run_id", runID)
	logger := ctxlog.FromContext(ctx)
	start := time.Now()

	var keys []string
	for _, key := range inputKeys {
		if !a.pipeline.Triggered(key) {
			logger.Warn("Input key does not match any pipeline trigger, skipping.", "input_key", key)
			continue
		}
		keys = append(keys, key)
	}
	if len(keys) == 0 {
		return nil, fmt.Errorf("no input keys match the pipeline triggers")
	}

	ds, err := a.process(ctx, runID, keys)
	status := "success"
	if err != nil {
		status = "failure"
	}
	a.metrics.ObserveRun(a.pipeline.Classname, status, time.Since(start).Seconds())
	if err != nil {
		logger.Error("Pipeline run failed.", "error", err)
		return nil, err
	}
	logger.Info("Pipeline run finished.", "duration", time.Since(start).String())
	return ds, nil
}

func (a *App) process(ctx context.Context, runID string, keys []string) (*dataset.Dataset, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Info("Starting pipeline run.", "classname", a.pipeline.Classname, "inputs", len(keys))

	env := &registry.Env{
		Registry: a.registry,
		Storage:  a.storage,
		Workers:  a.config.WorkerCount,
		Metrics:  a.metrics,
	}
	rt, err := a.registry.NewRetriever(a.pipeline.Retriever, env)
	if err != nil {
		return nil, err
	}
	ds, err := rt.Retrieve(ctx, keys, a.pipeline.Retriever, a.pipeline.Dataset)
	if err != nil {
		return nil, err
	}
	ds.Attrs["history"] = fmt.Sprintf("created by tsdat run %s at %s", runID, time.Now().UTC().Format(time.RFC3339))

	if a.storage == nil {
		enc := json.NewEncoder(a.outW)
		enc.SetIndent("", "  ")
		if err := enc.Encode(ds); err != nil {
			return nil, fmt.Errorf("failed to write dataset: %w", err)
		}
		return ds, nil
	}
	path, err := a.storage.Save(ctx, ds)
	if err != nil {
		return nil, fmt.Errorf("failed to save dataset: %w", err)
	}
	logger.Info("Dataset saved.", "path", path)
	return ds, nil
}
