package yamlconfig

import (
	"fmt"

	"github.com/vk/tsdat/internal/config"
	"gopkg.in/yaml.v3"
)

// parseRetrieverNode validates a retriever mapping against the schema and
// translates it into the config model, keeping declaration order.
func parseRetrieverNode(n *yaml.Node) (*config.RetrieverConfig, error) {
	var generic map[string]any
	if err := n.Decode(&generic); err != nil {
		return nil, fmt.Errorf("retriever: %w", err)
	}
	if err := validateRetrieverDocument(generic); err != nil {
		return nil, err
	}

	r := &config.RetrieverConfig{Parameters: make(map[string]any)}
	for _, kv := range pairs(n) {
		key, val := kv[0].Value, kv[1]
		switch key {
		case "classname":
			r.Classname = val.Value
		case "parameters":
			if err := val.Decode(&r.Parameters); err != nil {
				return nil, fmt.Errorf("retriever parameters: %w", err)
			}
			if r.Parameters == nil {
				r.Parameters = make(map[string]any)
			}
		case "readers":
			readers, err := parseReaders(val)
			if err != nil {
				return nil, err
			}
			r.Readers = readers
		case "coords":
			vars, err := parseVariables("coord", val)
			if err != nil {
				return nil, err
			}
			r.Coords = vars
		case "data_vars":
			vars, err := parseVariables("data_var", val)
			if err != nil {
				return nil, err
			}
			r.DataVars = vars
		}
	}

	tp, err := config.ParseTransformationParameters(r.Parameters)
	if err != nil {
		return nil, err
	}
	r.Transformation = tp
	return r, nil
}

func parseReaders(n *yaml.Node) ([]*config.ReaderSpec, error) {
	var out []*config.ReaderSpec
	for _, kv := range pairs(n) {
		pattern := kv[0].Value
		var spec struct {
			Classname  string         `yaml:"classname"`
			Parameters map[string]any `yaml:"parameters"`
		}
		if err := kv[1].Decode(&spec); err != nil {
			return nil, fmt.Errorf("reader '%s': %w", pattern, err)
		}
		re, err := config.CompilePattern(pattern)
		if err != nil {
			return nil, fmt.Errorf("reader: %w", err)
		}
		out = append(out, &config.ReaderSpec{
			Pattern:    pattern,
			Regexp:     re,
			Classname:  spec.Classname,
			Parameters: spec.Parameters,
		})
	}
	return out, nil
}

func parseVariables(kind string, n *yaml.Node) ([]*config.RetrievedVariable, error) {
	var out []*config.RetrievedVariable
	for _, kv := range pairs(n) {
		v := &config.RetrievedVariable{Name: kv[0].Value}
		for _, src := range pairs(kv[1]) {
			source, err := parseSource(src[0].Value, src[1])
			if err != nil {
				return nil, fmt.Errorf("%s '%s': %w", kind, v.Name, err)
			}
			v.Sources = append(v.Sources, source)
		}
		out = append(out, v)
	}
	return out, nil
}

func parseSource(pattern string, n *yaml.Node) (*config.VariableSource, error) {
	var raw struct {
		Name           string           `yaml:"name"`
		DataConverters []map[string]any `yaml:"data_converters"`
	}
	if err := n.Decode(&raw); err != nil {
		return nil, fmt.Errorf("pattern '%s': %w", pattern, err)
	}

	converters := make([]*config.ConverterSpec, 0, len(raw.DataConverters))
	for _, c := range raw.DataConverters {
		converters = append(converters, converterSpec(c))
	}
	return config.NewVariableSource(pattern, raw.Name, converters)
}

// converterSpec splits a data_converters entry into its classname and the
// remaining converter-specific parameters.
func converterSpec(m map[string]any) *config.ConverterSpec {
	spec := &config.ConverterSpec{Parameters: make(map[string]any, len(m))}
	for k, v := range m {
		if k == "classname" {
			spec.Classname, _ = v.(string)
			continue
		}
		spec.Parameters[k] = v
	}
	return spec
}
