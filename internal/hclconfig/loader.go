package hclconfig

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/vk/tsdat/internal/config"
	"github.com/vk/tsdat/internal/ctxlog"
	"github.com/vk/tsdat/internal/yamlconfig"
)

// Loader is the HCL-specific implementation of the config.Loader interface.
type Loader struct{}

// NewLoader creates a new HCL configuration loader.
func NewLoader() *Loader {
	return &Loader{}
}

type fileRoot struct {
	Pipelines []*pipelineBlock `hcl:"pipeline,block"`
	Remain    hcl.Body         `hcl:",remain"`
}

type pipelineBlock struct {
	Classname string          `hcl:"classname,label"`
	Triggers  []string        `hcl:"triggers,optional"`
	Dataset   string          `hcl:"dataset,optional"`
	Storage   *classBlock     `hcl:"storage,block"`
	Retriever *retrieverBlock `hcl:"retriever,block"`
}

type classBlock struct {
	Classname string   `hcl:"classname,label"`
	Remain    hcl.Body `hcl:",remain"`
}

type retrieverBlock struct {
	Classname  string           `hcl:"classname,label"`
	Parameters hcl.Expression   `hcl:"parameters,optional"`
	Readers    []*readerBlock   `hcl:"reader,block"`
	Coords     []*variableBlock `hcl:"coord,block"`
	DataVars   []*variableBlock `hcl:"data_var,block"`
}

type readerBlock struct {
	Pattern   string   `hcl:"pattern,label"`
	Classname string   `hcl:"classname,label"`
	Remain    hcl.Body `hcl:",remain"`
}

type variableBlock struct {
	Name    string         `hcl:"name,label"`
	Sources []*sourceBlock `hcl:"source,block"`
}

type sourceBlock struct {
	Pattern    string        `hcl:"pattern,label"`
	Name       string        `hcl:"name"`
	Converters []*classBlock `hcl:"converter,block"`
}

// Load parses a single HCL pipeline file. A relative dataset path is
// resolved against the pipeline file's directory and read as YAML.
func (l *Loader) Load(ctx context.Context, path string) (*config.Pipeline, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("HCL loader started.", "path", path)

	parser := hclparse.NewParser()
	hclFile, diags := parser.ParseHCLFile(path)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL file %s: %w", path, diags)
	}

	var root fileRoot
	diags = gohcl.DecodeBody(hclFile.Body, nil, &root)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode HCL file %s: %w", path, diags)
	}
	if len(root.Pipelines) != 1 {
		return nil, fmt.Errorf("%s: expected exactly one pipeline block, found %d", path, len(root.Pipelines))
	}
	block := root.Pipelines[0]

	p := &config.Pipeline{Classname: block.Classname, Path: path}
	var err error
	if p.Triggers, err = config.CompilePatterns(block.Triggers); err != nil {
		return nil, fmt.Errorf("%s: triggers: %w", path, err)
	}

	if block.Retriever != nil {
		if p.Retriever, err = translateRetriever(block.Retriever); err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
	}

	if block.Storage != nil {
		params, err := attributesToMap(block.Storage.Remain)
		if err != nil {
			return nil, fmt.Errorf("%s: storage: %w", path, err)
		}
		p.Storage = &config.StorageConfig{Classname: block.Storage.Classname, Parameters: params}
	}

	if block.Dataset != "" {
		dsPath := block.Dataset
		if !filepath.IsAbs(dsPath) {
			dsPath = filepath.Join(filepath.Dir(path), dsPath)
		}
		if p.Dataset, err = yamlconfig.LoadDatasetFile(dsPath); err != nil {
			return nil, err
		}
	}

	logger.Debug("HCL loading complete.", "path", path, "classname", p.Classname)
	return p, nil
}

func translateRetriever(b *retrieverBlock) (*config.RetrieverConfig, error) {
	params, err := expressionToMap(b.Parameters)
	if err != nil {
		return nil, fmt.Errorf("retriever parameters: %w", err)
	}
	r := &config.RetrieverConfig{Classname: b.Classname, Parameters: params}
	if r.Transformation, err = config.ParseTransformationParameters(params); err != nil {
		return nil, err
	}

	for _, rb := range b.Readers {
		re, err := config.CompilePattern(rb.Pattern)
		if err != nil {
			return nil, fmt.Errorf("reader: %w", err)
		}
		readerParams, err := attributesToMap(rb.Remain)
		if err != nil {
			return nil, fmt.Errorf("reader '%s': %w", rb.Pattern, err)
		}
		r.Readers = append(r.Readers, &config.ReaderSpec{
			Pattern:    rb.Pattern,
			Regexp:     re,
			Classname:  rb.Classname,
			Parameters: readerParams,
		})
	}

	if r.Coords, err = translateVariables("coord", b.Coords); err != nil {
		return nil, err
	}
	if r.DataVars, err = translateVariables("data_var", b.DataVars); err != nil {
		return nil, err
	}
	return r, nil
}

func translateVariables(kind string, blocks []*variableBlock) ([]*config.RetrievedVariable, error) {
	out := make([]*config.RetrievedVariable, 0, len(blocks))
	for _, vb := range blocks {
		v := &config.RetrievedVariable{Name: vb.Name}
		for _, sb := range vb.Sources {
			convs := make([]*config.ConverterSpec, 0, len(sb.Converters))
			for _, cb := range sb.Converters {
				params, err := attributesToMap(cb.Remain)
				if err != nil {
					return nil, fmt.Errorf("%s '%s': converter '%s': %w", kind, vb.Name, cb.Classname, err)
				}
				convs = append(convs, &config.ConverterSpec{Classname: cb.Classname, Parameters: params})
			}
			src, err := config.NewVariableSource(sb.Pattern, sb.Name, convs)
			if err != nil {
				return nil, fmt.Errorf("%s '%s': %w", kind, vb.Name, err)
			}
			v.Sources = append(v.Sources, src)
		}
		out = append(out, v)
	}
	return out, nil
}
