package yamlconfig

import (
	"fmt"

	"github.com/vk/tsdat/internal/config"
	"gopkg.in/yaml.v3"
)

// parseDatasetNode translates a dataset definition mapping. Dimensions come
// from an explicit "dims" section when present; every coordinate also
// declares a dimension of its own name.
func parseDatasetNode(n *yaml.Node) (*config.DatasetDefinition, error) {
	if n.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("dataset definition must be a mapping")
	}
	def := &config.DatasetDefinition{
		Attrs: make(map[string]any),
		Dims:  make(map[string]*config.DimensionDefinition),
	}

	var coordsNode, varsNode *yaml.Node
	for _, kv := range pairs(n) {
		switch kv[0].Value {
		case "attrs":
			if err := kv[1].Decode(&def.Attrs); err != nil {
				return nil, fmt.Errorf("dataset attrs: %w", err)
			}
		case "dims":
			if err := parseDims(kv[1], def.Dims); err != nil {
				return nil, err
			}
		case "coords":
			coordsNode = kv[1]
		case "data_vars":
			varsNode = kv[1]
		}
	}
	if def.Attrs == nil {
		def.Attrs = make(map[string]any)
	}
	for _, kv := range pairs(coordsNode) {
		name := kv[0].Value
		if _, ok := def.Dims[name]; !ok {
			def.Dims[name] = &config.DimensionDefinition{Name: name, Unlimited: true}
		}
	}

	var err error
	if def.Coords, err = parseVariableDefinitions(coordsNode, def.Dims); err != nil {
		return nil, err
	}
	if def.DataVars, err = parseVariableDefinitions(varsNode, def.Dims); err != nil {
		return nil, err
	}
	return def, nil
}

func parseDims(n *yaml.Node, dims map[string]*config.DimensionDefinition) error {
	for _, kv := range pairs(n) {
		name := kv[0].Value
		var raw struct {
			Length any `yaml:"length"`
		}
		if err := kv[1].Decode(&raw); err != nil {
			return fmt.Errorf("dimension '%s': %w", name, err)
		}
		dim := &config.DimensionDefinition{Name: name}
		switch l := raw.Length.(type) {
		case nil:
			dim.Unlimited = true
		case int:
			dim.Length = l
		case string:
			if l != "unlimited" {
				return fmt.Errorf("dimension '%s': length must be an integer or 'unlimited'", name)
			}
			dim.Unlimited = true
		default:
			return fmt.Errorf("dimension '%s': length must be an integer or 'unlimited'", name)
		}
		dims[name] = dim
	}
	return nil
}

func parseVariableDefinitions(n *yaml.Node, dims map[string]*config.DimensionDefinition) ([]*config.VariableDefinition, error) {
	var out []*config.VariableDefinition
	for _, kv := range pairs(n) {
		var raw map[string]any
		if err := kv[1].Decode(&raw); err != nil {
			return nil, fmt.Errorf("variable '%s': %w", kv[0].Value, err)
		}
		v, err := config.NewVariableDefinition(kv[0].Value, raw, dims)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}
