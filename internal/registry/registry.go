package registry

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"github.com/vk/tsdat/internal/config"
)

// ErrUnknownClassname is returned when a configuration references a
// classname that no module registered.
var ErrUnknownClassname = errors.New("unknown classname")

// Registry holds all the registered factories for a single application instance.
type Registry struct {
	converters map[string]ConverterFactory
	readers    map[string]ReaderFactory
	storages   map[string]StorageFactory
	retrievers map[string]RetrieverFactory
}

// New creates and initializes a new Registry instance.
func New() *Registry {
	return &Registry{
		converters: make(map[string]ConverterFactory),
		readers:    make(map[string]ReaderFactory),
		storages:   make(map[string]StorageFactory),
		retrievers: make(map[string]RetrieverFactory),
	}
}

// RegisterConverter registers a data converter factory under a classname.
func (r *Registry) RegisterConverter(classname string, f ConverterFactory) {
	if _, exists := r.converters[classname]; exists {
		panic(fmt.Sprintf("converter with classname '%s' already registered", classname))
	}
	slog.Debug("Registering converter.", "classname", classname)
	r.converters[classname] = f
}

// RegisterReader registers a reader factory under a classname.
func (r *Registry) RegisterReader(classname string, f ReaderFactory) {
	if _, exists := r.readers[classname]; exists {
		panic(fmt.Sprintf("reader with classname '%s' already registered", classname))
	}
	slog.Debug("Registering reader.", "classname", classname)
	r.readers[classname] = f
}

// RegisterStorage registers a storage factory under a classname.
func (r *Registry) RegisterStorage(classname string, f StorageFactory) {
	if _, exists := r.storages[classname]; exists {
		panic(fmt.Sprintf("storage with classname '%s' already registered", classname))
	}
	slog.Debug("Registering storage.", "classname", classname)
	r.storages[classname] = f
}

// RegisterRetriever registers a retriever factory under a classname.
func (r *Registry) RegisterRetriever(classname string, f RetrieverFactory) {
	if _, exists := r.retrievers[classname]; exists {
		panic(fmt.Sprintf("retriever with classname '%s' already registered", classname))
	}
	slog.Debug("Registering retriever.", "classname", classname)
	r.retrievers[classname] = f
}

// NewConverter builds the converter described by spec.
func (r *Registry) NewConverter(spec *config.ConverterSpec) (DataConverter, error) {
	f, ok := r.converters[spec.Classname]
	if !ok {
		return nil, fmt.Errorf("converter '%s': %w", spec.Classname, ErrUnknownClassname)
	}
	c, err := f(spec.Parameters)
	if err != nil {
		return nil, fmt.Errorf("converter '%s': %w", spec.Classname, err)
	}
	return c, nil
}

// NewReader builds the reader described by spec.
func (r *Registry) NewReader(spec *config.ReaderSpec) (Reader, error) {
	f, ok := r.readers[spec.Classname]
	if !ok {
		return nil, fmt.Errorf("reader '%s': %w", spec.Classname, ErrUnknownClassname)
	}
	rd, err := f(spec.Parameters)
	if err != nil {
		return nil, fmt.Errorf("reader '%s': %w", spec.Classname, err)
	}
	return rd, nil
}

// NewStorage builds the storage backend described by spec.
func (r *Registry) NewStorage(spec *config.StorageConfig) (Storage, error) {
	f, ok := r.storages[spec.Classname]
	if !ok {
		return nil, fmt.Errorf("storage '%s': %w", spec.Classname, ErrUnknownClassname)
	}
	s, err := f(spec.Parameters)
	if err != nil {
		return nil, fmt.Errorf("storage '%s': %w", spec.Classname, err)
	}
	return s, nil
}

// NewRetriever builds the retriever named by cfg.
func (r *Registry) NewRetriever(cfg *config.RetrieverConfig, env *Env) (Retriever, error) {
	f, ok := r.retrievers[cfg.Classname]
	if !ok {
		return nil, fmt.Errorf("retriever '%s': %w", cfg.Classname, ErrUnknownClassname)
	}
	if env.Registry == nil {
		env.Registry = r
	}
	rt, err := f(cfg.Parameters, env)
	if err != nil {
		return nil, fmt.Errorf("retriever '%s': %w", cfg.Classname, err)
	}
	return rt, nil
}

// Classnames returns every registered classname, sorted.
func (r *Registry) Classnames() []string {
	var names []string
	for k := range r.converters {
		names = append(names, k)
	}
	for k := range r.readers {
		names = append(names, k)
	}
	for k := range r.storages {
		names = append(names, k)
	}
	for k := range r.retrievers {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}
