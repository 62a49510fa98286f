package retriever

import (
	"context"
	"flag"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/vk/tsdat/internal/config"
	"github.com/vk/tsdat/internal/ctxlog"
	"github.com/vk/tsdat/internal/dataset"
	"github.com/vk/tsdat/internal/registry"
	"golang.org/x/sync/errgroup"
)

// StorageClassname is the configuration name of the storage-backed retriever.
const StorageClassname = "tsdat.io.retrievers.StorageRetriever"

// StorageRetriever fetches previously stored datastreams. Its input keys have
// the form "--datastream <name> --start <YYYYMMDD[.HHMMSS]> --end <YYYYMMDD[.HHMMSS]>".
type StorageRetriever struct {
	env    *registry.Env
	engine *Engine
}

// NewStorage builds a StorageRetriever. The environment must carry a storage
// backend by the time Retrieve is called.
func NewStorage(_ map[string]any, env *registry.Env) (registry.Retriever, error) {
	return &StorageRetriever{
		env:    env,
		engine: NewEngine(env.Registry, env.Workers, env.Metrics),
	}, nil
}

// StorageQuery is a parsed storage input key.
type StorageQuery struct {
	Datastream string
	Start      time.Time
	End        time.Time
}

// ParseStorageKey parses a storage input key.
func ParseStorageKey(key string) (*StorageQuery, error) {
	fs := flag.NewFlagSet("storage key", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	datastream := fs.String("datastream", "", "datastream to fetch")
	start := fs.String("start", "", "start of the range")
	end := fs.String("end", "", "end of the range")
	if err := fs.Parse(strings.Fields(key)); err != nil {
		return nil, fmt.Errorf("invalid storage key '%s': %w", key, err)
	}
	if *datastream == "" || *start == "" || *end == "" {
		return nil, fmt.Errorf("invalid storage key '%s': --datastream, --start and --end are required", key)
	}

	q := &StorageQuery{Datastream: *datastream}
	var err error
	if q.Start, err = parseStorageTime(*start); err != nil {
		return nil, fmt.Errorf("invalid storage key '%s': start: %w", key, err)
	}
	if q.End, err = parseStorageTime(*end); err != nil {
		return nil, fmt.Errorf("invalid storage key '%s': end: %w", key, err)
	}
	if !q.End.After(q.Start) {
		return nil, fmt.Errorf("invalid storage key '%s': end must be after start", key)
	}
	return q, nil
}

func parseStorageTime(s string) (time.Time, error) {
	for _, layout := range []string{"20060102.150405", "20060102"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("'%s' is not in YYYYMMDD or YYYYMMDD.HHMMSS form", s)
}

// Retrieve fetches every requested range in parallel and runs the engine over them.
func (s *StorageRetriever) Retrieve(ctx context.Context, inputKeys []string, cfg *config.RetrieverConfig, def *config.DatasetDefinition) (*dataset.Dataset, error) {
	logger := ctxlog.FromContext(ctx)
	if s.env.Storage == nil {
		return nil, fmt.Errorf("%s requires a storage backend", StorageClassname)
	}

	queries := make(map[string]*StorageQuery, len(inputKeys))
	for _, key := range inputKeys {
		q, err := ParseStorageKey(key)
		if err != nil {
			return nil, err
		}
		queries[key] = q
	}

	var mu sync.Mutex
	inputs := make(map[string]*dataset.Dataset, len(inputKeys))

	g, gctx := errgroup.WithContext(ctx)
	if s.env.Workers > 0 {
		g.SetLimit(s.env.Workers)
	}
	for key, q := range queries {
		key, q := key, q
		g.Go(func() error {
			ds, err := s.env.Storage.Fetch(gctx, q.Datastream, q.Start, q.End)
			if err != nil {
				return fmt.Errorf("failed to fetch '%s': %w", key, err)
			}
			s.env.Metrics.ObserveInput("storage")
			logger.Info("Fetched input from storage.", "datastream", q.Datastream, "start", q.Start, "end", q.End)

			mu.Lock()
			inputs[key] = ds
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return s.engine.Run(ctx, inputs, cfg, def)
}
