package yamlconfig

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/vk/tsdat/internal/config"
	"github.com/vk/tsdat/internal/ctxlog"
	"gopkg.in/yaml.v3"
)

// Loader is the YAML-specific implementation of the config.Loader interface.
type Loader struct{}

// NewLoader creates a new YAML configuration loader.
func NewLoader() *Loader {
	return &Loader{}
}

// Load reads a pipeline file. The "retriever" and "dataset" entries may be
// inline mappings or paths relative to the pipeline file.
func (l *Loader) Load(ctx context.Context, path string) (*config.Pipeline, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("YAML loader started.", "path", path)

	doc, err := readDocument(path)
	if err != nil {
		return nil, err
	}
	if doc.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("%s: pipeline config must be a mapping", path)
	}

	p := &config.Pipeline{Path: path}
	baseDir := filepath.Dir(path)

	for _, kv := range pairs(doc) {
		key, val := kv[0].Value, kv[1]
		switch key {
		case "classname":
			p.Classname = val.Value
		case "triggers":
			var triggers []string
			if err := val.Decode(&triggers); err != nil {
				return nil, fmt.Errorf("%s: triggers: %w", path, err)
			}
			if p.Triggers, err = config.CompilePatterns(triggers); err != nil {
				return nil, fmt.Errorf("%s: triggers: %w", path, err)
			}
		case "retriever":
			node, src, err := resolve(val, baseDir)
			if err != nil {
				return nil, fmt.Errorf("%s: retriever: %w", path, err)
			}
			if p.Retriever, err = parseRetrieverNode(node); err != nil {
				return nil, fmt.Errorf("%s: %w", src, err)
			}
		case "dataset":
			node, src, err := resolve(val, baseDir)
			if err != nil {
				return nil, fmt.Errorf("%s: dataset: %w", path, err)
			}
			if p.Dataset, err = parseDatasetNode(node); err != nil {
				return nil, fmt.Errorf("%s: %w", src, err)
			}
		case "storage":
			var spec struct {
				Classname  string         `yaml:"classname"`
				Parameters map[string]any `yaml:"parameters"`
			}
			if err := val.Decode(&spec); err != nil {
				return nil, fmt.Errorf("%s: storage: %w", path, err)
			}
			p.Storage = &config.StorageConfig{Classname: spec.Classname, Parameters: spec.Parameters}
		default:
			logger.Warn("Ignoring unknown pipeline key.", "path", path, "key", key)
		}
	}

	logger.Debug("YAML loading complete.", "path", path, "classname", p.Classname)
	return p, nil
}

// ParseRetriever parses a standalone retriever document.
func ParseRetriever(data []byte) (*config.RetrieverConfig, error) {
	doc, err := parseDocument(data)
	if err != nil {
		return nil, err
	}
	return parseRetrieverNode(doc)
}

// ParseDataset parses a standalone dataset definition document.
func ParseDataset(data []byte) (*config.DatasetDefinition, error) {
	doc, err := parseDocument(data)
	if err != nil {
		return nil, err
	}
	return parseDatasetNode(doc)
}

// LoadDatasetFile reads a dataset definition from disk.
func LoadDatasetFile(path string) (*config.DatasetDefinition, error) {
	doc, err := readDocument(path)
	if err != nil {
		return nil, err
	}
	def, err := parseDatasetNode(doc)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return def, nil
}

func readDocument(path string) (*yaml.Node, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	doc, err := parseDocument(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse YAML file %s: %w", path, err)
	}
	return doc, nil
}

func parseDocument(data []byte) (*yaml.Node, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, err
	}
	if root.Kind != yaml.DocumentNode || len(root.Content) == 0 {
		return nil, fmt.Errorf("empty YAML document")
	}
	return root.Content[0], nil
}

// resolve returns the mapping node for an entry that is either inline or a
// path to another YAML file, together with a description of its origin.
func resolve(val *yaml.Node, baseDir string) (*yaml.Node, string, error) {
	switch val.Kind {
	case yaml.MappingNode:
		return val, "inline", nil
	case yaml.ScalarNode:
		p := val.Value
		if !filepath.IsAbs(p) {
			p = filepath.Join(baseDir, p)
		}
		doc, err := readDocument(p)
		return doc, p, err
	default:
		return nil, "", fmt.Errorf("expected a mapping or a file path (line %d)", val.Line)
	}
}

// pairs returns the key/value node pairs of a mapping node in document order.
func pairs(n *yaml.Node) [][2]*yaml.Node {
	if n == nil || n.Kind != yaml.MappingNode {
		return nil
	}
	out := make([][2]*yaml.Node, 0, len(n.Content)/2)
	for i := 0; i+1 < len(n.Content); i += 2 {
		out = append(out, [2]*yaml.Node{n.Content[i], n.Content[i+1]})
	}
	return out
}
