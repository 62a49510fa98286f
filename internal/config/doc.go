// Package config defines the format-agnostic configuration model for a
// pipeline: the retriever mapping of raw input fields onto output variables,
// the dataset definition describing the standardized output, and the storage
// settings. It also declares the Loader interface implemented by the
// format-specific packages (yamlconfig, hclconfig).
//
// The `config.Pipeline` is the single source of truth for the `retriever`
// and `app` packages.
package config
