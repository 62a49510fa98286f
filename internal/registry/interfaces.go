package registry

import (
	"context"
	"io"
	"time"

	"github.com/vk/tsdat/internal/config"
	"github.com/vk/tsdat/internal/dataset"
	"github.com/vk/tsdat/internal/metrics"
)

// Module is the interface that all core modules must implement to be registered.
type Module interface {
	Register(r *Registry)
}

// ConvertInput is everything a data converter may consult while converting
// one retrieved variable.
type ConvertInput struct {
	// Variable is the data being converted. Converters may modify it in place.
	Variable *dataset.Variable
	// InputKey identifies the input the variable was retrieved from.
	InputKey string
	// Input is the dataset the variable was retrieved from.
	Input *dataset.Dataset
	// Output holds the output variables retrieved so far; coordinates are
	// always present before any data variable is converted.
	Output *dataset.Dataset
	// OutputName is the name of the output variable being produced.
	OutputName string
	// Definition is the output variable's definition, or nil.
	Definition *config.VariableDefinition
	// Transformation holds the retriever's per-coordinate defaults.
	Transformation config.TransformationParameters
}

// DataConverter transforms a retrieved variable.
type DataConverter interface {
	Convert(ctx context.Context, in *ConvertInput) (*dataset.Variable, error)
}

// Reader decodes one input into a raw dataset.
type Reader interface {
	Read(ctx context.Context, key string, r io.Reader) (*dataset.Dataset, error)
}

// Storage persists standardized datasets and fetches them back by
// datastream and time range.
type Storage interface {
	Save(ctx context.Context, ds *dataset.Dataset) (string, error)
	Fetch(ctx context.Context, datastream string, begin, end time.Time) (*dataset.Dataset, error)
}

// Retriever produces the output dataset for a set of input keys.
type Retriever interface {
	Retrieve(ctx context.Context, inputKeys []string, cfg *config.RetrieverConfig, def *config.DatasetDefinition) (*dataset.Dataset, error)
}

// Env carries the shared dependencies a retriever needs.
type Env struct {
	Registry *Registry
	Storage  Storage
	Workers  int
	Metrics  *metrics.Metrics
}

// ConverterFactory builds a data converter from its parameters.
type ConverterFactory func(params map[string]any) (DataConverter, error)

// ReaderFactory builds a reader from its parameters.
type ReaderFactory func(params map[string]any) (Reader, error)

// StorageFactory builds a storage backend from its parameters.
type StorageFactory func(params map[string]any) (Storage, error)

// RetrieverFactory builds a retriever from its parameters.
type RetrieverFactory func(params map[string]any, env *Env) (Retriever, error)
