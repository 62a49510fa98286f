package retriever

import (
	"context"
	"fmt"
	"os"
	"sync"

	"github.com/vk/tsdat/internal/config"
	"github.com/vk/tsdat/internal/ctxlog"
	"github.com/vk/tsdat/internal/dataset"
	"github.com/vk/tsdat/internal/registry"
	"golang.org/x/sync/errgroup"
)

// DefaultClassname is the configuration name of the file-reading retriever.
const DefaultClassname = "tsdat.io.retrievers.DefaultRetriever"

// DefaultRetriever treats input keys as file paths and reads each with the
// first reader whose pattern matches the key.
type DefaultRetriever struct {
	env    *registry.Env
	engine *Engine
}

// NewDefault builds a DefaultRetriever. Its parameters are consumed by the
// configuration loaders.
func NewDefault(_ map[string]any, env *registry.Env) (registry.Retriever, error) {
	return &DefaultRetriever{
		env:    env,
		engine: NewEngine(env.Registry, env.Workers, env.Metrics),
	}, nil
}

type boundReader struct {
	spec   *config.ReaderSpec
	reader registry.Reader
}

// Retrieve reads every input in parallel and runs the engine over them.
func (d *DefaultRetriever) Retrieve(ctx context.Context, inputKeys []string, cfg *config.RetrieverConfig, def *config.DatasetDefinition) (*dataset.Dataset, error) {
	logger := ctxlog.FromContext(ctx)

	readers := make([]boundReader, 0, len(cfg.Readers))
	for _, spec := range cfg.Readers {
		rd, err := d.env.Registry.NewReader(spec)
		if err != nil {
			return nil, err
		}
		readers = append(readers, boundReader{spec: spec, reader: rd})
	}

	var mu sync.Mutex
	inputs := make(map[string]*dataset.Dataset, len(inputKeys))

	g, gctx := errgroup.WithContext(ctx)
	if d.env.Workers > 0 {
		g.SetLimit(d.env.Workers)
	}
	for _, key := range inputKeys {
		key := key
		g.Go(func() error {
			br, ok := matchReader(readers, key)
			if !ok {
				return fmt.Errorf("no reader pattern matches input key '%s'", key)
			}
			ds, err := readFile(gctx, br.reader, key)
			if err != nil {
				return err
			}
			d.env.Metrics.ObserveInput(br.spec.Classname)
			logger.Info("Read input.", "input_key", key, "reader", br.spec.Classname)

			mu.Lock()
			inputs[key] = ds
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return d.engine.Run(ctx, inputs, cfg, def)
}

func matchReader(readers []boundReader, key string) (boundReader, bool) {
	for _, br := range readers {
		if br.spec.Regexp != nil && br.spec.Regexp.MatchString(key) {
			return br, true
		}
	}
	return boundReader{}, false
}

func readFile(ctx context.Context, rd registry.Reader, path string) (*dataset.Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open input: %w", err)
	}
	defer f.Close()
	ds, err := rd.Read(ctx, path, f)
	if err != nil {
		return nil, fmt.Errorf("failed to read input: %w", err)
	}
	return ds, nil
}
