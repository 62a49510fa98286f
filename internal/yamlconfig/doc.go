// Package yamlconfig implements config.Loader for YAML pipeline files.
//
// Retriever documents are walked as yaml.Node trees rather than decoded into
// maps so that the declaration order of coordinates, data variables and
// source patterns survives loading: the first matching pattern wins during
// retrieval, so order is part of the configuration's meaning.
package yamlconfig
