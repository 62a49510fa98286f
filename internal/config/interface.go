package config

import "context"

// Loader is the interface for a format-specific configuration loader.
type Loader interface {
	// Load reads the pipeline configuration at path, resolving any files it
	// references relative to it, and translates it into the
	// format-agnostic model.
	Load(ctx context.Context, path string) (*Pipeline, error)
}
