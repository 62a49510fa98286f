// Package readers provides the input readers that decode raw CSV and JSON
// files into datasets for the retriever.
package readers

import (
	"errors"

	"github.com/vk/tsdat/internal/registry"
)

const (
	CSVClassname  = "tsdat.io.readers.CSVReader"
	JSONClassname = "tsdat.io.readers.JSONReader"
)

// Common reading errors
var (
	ErrEmptyData     = errors.New("empty data")
	ErrInvalidFormat = errors.New("invalid data format")
)

// Module implements the registry.Module interface for this package.
type Module struct{}

// Register registers the readers with the registry.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterReader(CSVClassname, NewCSVReader)
	r.RegisterReader(JSONClassname, NewJSONReader)
}
