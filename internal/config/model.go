package config

import (
	"regexp"
)

// Pipeline is the unified, format-agnostic representation of a pipeline
// configuration file.
type Pipeline struct {
	Classname string
	// Triggers are regular expressions matched against input keys. Watch
	// mode only runs the pipeline for keys matching one of them.
	Triggers  []*regexp.Regexp
	Retriever *RetrieverConfig
	Dataset   *DatasetDefinition
	Storage   *StorageConfig
	// Path is the file the pipeline was loaded from.
	Path string
}

// Triggered reports whether key matches one of the pipeline triggers. A
// pipeline without triggers accepts every key.
func (p *Pipeline) Triggered(key string) bool {
	if len(p.Triggers) == 0 {
		return true
	}
	for _, re := range p.Triggers {
		if re.MatchString(key) {
			return true
		}
	}
	return false
}

// RetrieverConfig describes how raw inputs are mapped onto the output
// dataset's coordinates and data variables.
type RetrieverConfig struct {
	Classname      string
	Parameters     map[string]any
	Transformation TransformationParameters
	Readers        []*ReaderSpec
	Coords         []*RetrievedVariable
	DataVars       []*RetrievedVariable
}

// Coord returns the retrieval rule for the named output coordinate.
func (r *RetrieverConfig) Coord(name string) (*RetrievedVariable, bool) {
	for _, c := range r.Coords {
		if c.Name == name {
			return c, true
		}
	}
	return nil, false
}

// DataVar returns the retrieval rule for the named output data variable.
func (r *RetrieverConfig) DataVar(name string) (*RetrievedVariable, bool) {
	for _, v := range r.DataVars {
		if v.Name == name {
			return v, true
		}
	}
	return nil, false
}

// RetrievedVariable maps one output variable to its candidate sources, in
// the order they were declared.
type RetrievedVariable struct {
	Name    string
	Sources []*VariableSource
}

// VariableSource binds inputs whose key matches Pattern to a source field
// and the converters applied to it.
type VariableSource struct {
	Pattern        string
	Regexp         *regexp.Regexp
	Name           string
	DataConverters []*ConverterSpec
}

// Matches reports whether the input key is served by this source.
func (s *VariableSource) Matches(key string) bool {
	return s.Regexp != nil && s.Regexp.MatchString(key)
}

// ConverterSpec is a single entry of a data_converters list.
type ConverterSpec struct {
	Classname  string
	Parameters map[string]any
}

// ReaderSpec selects the reader used for input keys matching Pattern.
type ReaderSpec struct {
	Pattern    string
	Regexp     *regexp.Regexp
	Classname  string
	Parameters map[string]any
}

// StorageConfig selects and configures the storage backend.
type StorageConfig struct {
	Classname  string
	Parameters map[string]any
}

// NewVariableSource compiles pattern and returns the source binding.
func NewVariableSource(pattern, name string, converters []*ConverterSpec) (*VariableSource, error) {
	re, err := CompilePattern(pattern)
	if err != nil {
		return nil, err
	}
	return &VariableSource{Pattern: pattern, Regexp: re, Name: name, DataConverters: converters}, nil
}
