package retriever

import "github.com/vk/tsdat/internal/registry"

// Module implements the registry.Module interface for this package.
type Module struct{}

// Register registers both retrievers with the registry.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterRetriever(DefaultClassname, NewDefault)
	r.RegisterRetriever(StorageClassname, NewStorage)
}
