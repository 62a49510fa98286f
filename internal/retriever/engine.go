package retriever

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/vk/tsdat/internal/config"
	"github.com/vk/tsdat/internal/ctxlog"
	"github.com/vk/tsdat/internal/dag"
	"github.com/vk/tsdat/internal/dataset"
	"github.com/vk/tsdat/internal/metrics"
	"github.com/vk/tsdat/internal/registry"
)

const (
	coordPrefix   = "coord."
	dataVarPrefix = "data_var."
)

// Engine retrieves output variables from a set of input datasets.
type Engine struct {
	registry *registry.Registry
	workers  int
	metrics  *metrics.Metrics
}

// NewEngine creates an engine that resolves converters through reg.
func NewEngine(reg *registry.Registry, workers int, m *metrics.Metrics) *Engine {
	return &Engine{registry: reg, workers: workers, metrics: m}
}

// run holds the state of a single Engine.Run call.
type run struct {
	engine *Engine
	cfg    *config.RetrieverConfig
	def    *config.DatasetDefinition

	keys     []string
	inputs   map[string]*dataset.Dataset
	inputMus map[string]*sync.Mutex

	mu       sync.Mutex
	output   *dataset.Dataset
	dataVars map[string]*dataset.Variable
}

// Run retrieves every output variable from inputs, keyed by input key, and
// returns the standardized output dataset. Input datasets may be modified:
// converted coordinates replace the fields they were retrieved from.
func (e *Engine) Run(ctx context.Context, inputs map[string]*dataset.Dataset, cfg *config.RetrieverConfig, def *config.DatasetDefinition) (*dataset.Dataset, error) {
	logger := ctxlog.FromContext(ctx)
	if cfg == nil {
		return nil, fmt.Errorf("retriever configuration is required")
	}

	r := &run{
		engine:   e,
		cfg:      cfg,
		def:      def,
		inputs:   inputs,
		inputMus: make(map[string]*sync.Mutex, len(inputs)),
		output:   dataset.New(),
		dataVars: make(map[string]*dataset.Variable),
	}
	for key := range inputs {
		r.keys = append(r.keys, key)
		r.inputMus[key] = &sync.Mutex{}
	}
	sort.Strings(r.keys)

	coords, dataVars := outputNames(cfg, def)
	g := dag.New()
	for _, name := range coords {
		g.AddNode(coordPrefix + name)
	}
	for _, name := range dataVars {
		g.AddNode(dataVarPrefix + name)
		for _, c := range coords {
			if err := g.AddEdge(coordPrefix+c, dataVarPrefix+name); err != nil {
				return nil, err
			}
		}
	}
	logger.Debug("Built retrieval graph.", "coords", len(coords), "data_vars", len(dataVars), "inputs", len(r.keys))

	if err := dag.NewExecutor(g, e.workers, r.task).Run(ctx); err != nil {
		return nil, fmt.Errorf("retrieval failed: %w", err)
	}

	out := dataset.New()
	for _, name := range coords {
		if v, ok := r.output.Coord(name); ok {
			out.SetCoord(v)
		}
	}
	for _, name := range dataVars {
		if v, ok := r.dataVars[name]; ok {
			out.SetVar(v)
		}
	}
	return standardize(ctx, out, def)
}

// outputNames lists the coordinates and data variables to produce: those of
// the dataset definition first, in declaration order, then any retrieved
// variables the definition does not mention.
func outputNames(cfg *config.RetrieverConfig, def *config.DatasetDefinition) ([]string, []string) {
	seen := make(map[string]bool)
	var coords, dataVars []string
	add := func(list *[]string, name string) {
		if !seen[name] {
			seen[name] = true
			*list = append(*list, name)
		}
	}
	if def != nil {
		for _, v := range def.Coords {
			add(&coords, v.Name)
		}
	}
	for _, v := range cfg.Coords {
		add(&coords, v.Name)
	}
	if def != nil {
		for _, v := range def.DataVars {
			add(&dataVars, v.Name)
		}
	}
	for _, v := range cfg.DataVars {
		add(&dataVars, v.Name)
	}
	return coords, dataVars
}

func (r *run) task(ctx context.Context, id string) error {
	if name, ok := strings.CutPrefix(id, coordPrefix); ok {
		return r.retrieveCoord(ctx, name)
	}
	if name, ok := strings.CutPrefix(id, dataVarPrefix); ok {
		return r.retrieveDataVar(ctx, name)
	}
	return fmt.Errorf("unknown retrieval node '%s'", id)
}

// sources returns the configured sources of an output variable. A variable
// the retriever does not mention but whose definition names an input is
// looked up by that name in every input.
func (r *run) sources(rv *config.RetrievedVariable, def *config.VariableDefinition) []*config.VariableSource {
	if rv != nil {
		return rv.Sources
	}
	if def != nil && def.HasInput() {
		src, err := config.NewVariableSource(".*", def.InputName(), nil)
		if err == nil {
			return []*config.VariableSource{src}
		}
	}
	return nil
}

func (r *run) retrieveCoord(ctx context.Context, name string) error {
	logger := ctxlog.FromContext(ctx)
	rv, _ := r.cfg.Coord(name)
	def, _ := r.def.Variable(name)

	var first *dataset.Variable
	for _, src := range r.sources(rv, def) {
		for _, key := range r.keys {
			if !src.Matches(key) {
				continue
			}
			converted, ok, err := r.convertCoordIn(ctx, key, name, src, def)
			if err != nil {
				return err
			}
			if ok && first == nil {
				first = converted
				logger.Debug("Retrieved coordinate.", "coord", name, "input_key", key, "source", src.Name)
			}
		}
		if first != nil {
			break
		}
	}

	if first == nil {
		v, ok, err := predefined(name, def)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("coordinate '%s' could not be retrieved from any input", name)
		}
		r.engine.metrics.ObserveVariable("predefined")
		first = v
	} else {
		r.engine.metrics.ObserveVariable("input")
	}

	r.mu.Lock()
	r.output.SetCoord(first)
	r.mu.Unlock()
	return nil
}

// convertCoordIn converts the source field of one input and writes the result
// back into that input under the source name.
func (r *run) convertCoordIn(ctx context.Context, key, name string, src *config.VariableSource, def *config.VariableDefinition) (*dataset.Variable, bool, error) {
	mu := r.inputMus[key]
	mu.Lock()
	defer mu.Unlock()

	in := r.inputs[key]
	field, ok := in.Get(src.Name)
	if !ok {
		return nil, false, nil
	}

	r.mu.Lock()
	snapshot := r.output.Clone()
	r.mu.Unlock()

	converted, err := r.convert(ctx, key, in, snapshot, field.Rename(name), src, name, def)
	if err != nil {
		return nil, false, err
	}
	in.Replace(src.Name, converted.Rename(src.Name))
	return converted, true, nil
}

func (r *run) retrieveDataVar(ctx context.Context, name string) error {
	logger := ctxlog.FromContext(ctx)
	rv, _ := r.cfg.DataVar(name)
	def, _ := r.def.Variable(name)

	for _, src := range r.sources(rv, def) {
		for _, key := range r.keys {
			if !src.Matches(key) {
				continue
			}
			in := r.inputs[key]
			field, ok := in.Get(src.Name)
			if !ok {
				continue
			}
			v, err := r.convert(ctx, key, in, r.output, field.Rename(name), src, name, def)
			if err != nil {
				return err
			}
			logger.Debug("Retrieved data variable.", "variable", name, "input_key", key, "source", src.Name)
			r.engine.metrics.ObserveVariable("input")
			r.store(v)
			return nil
		}
	}

	v, ok, err := predefined(name, def)
	if err != nil {
		return err
	}
	if ok {
		r.engine.metrics.ObserveVariable("predefined")
		r.store(v)
		return nil
	}
	if def != nil && len(def.Dims) > 0 {
		n := r.output.Len(def.Dims[0])
		if n < 0 {
			return fmt.Errorf("variable '%s': dimension '%s' has no coordinate to size it", name, def.Dims[0])
		}
		logger.Warn("Variable not found in any input, filling with its fill value.", "variable", name, "fill_value", def.FillValue())
		r.engine.metrics.ObserveVariable("filled")
		r.store(dataset.Filled(name, def.CoordinateNames(), n, def.FillValue()))
		return nil
	}
	logger.Warn("Variable not found in any input, omitting it.", "variable", name)
	r.engine.metrics.ObserveVariable("omitted")
	return nil
}

func (r *run) store(v *dataset.Variable) {
	r.mu.Lock()
	r.dataVars[v.Name] = v
	r.mu.Unlock()
}

// convert runs the source's converter chain in order.
func (r *run) convert(ctx context.Context, key string, in, out *dataset.Dataset, v *dataset.Variable, src *config.VariableSource, name string, def *config.VariableDefinition) (*dataset.Variable, error) {
	for _, spec := range src.DataConverters {
		c, err := r.engine.registry.NewConverter(spec)
		if err != nil {
			return nil, fmt.Errorf("variable '%s': %w", name, err)
		}
		v, err = c.Convert(ctx, &registry.ConvertInput{
			Variable:       v,
			InputKey:       key,
			Input:          in,
			Output:         out,
			OutputName:     name,
			Definition:     def,
			Transformation: r.cfg.Transformation,
		})
		if err != nil {
			r.engine.metrics.ObserveConverterFailure(spec.Classname)
			return nil, fmt.Errorf("converting '%s' from %s with %s: %w", name, key, spec.Classname, err)
		}
		v.Name = name
	}
	return v, nil
}

// predefined builds a variable from values set in its definition.
func predefined(name string, def *config.VariableDefinition) (*dataset.Variable, bool, error) {
	if def == nil || !def.IsPredefined() {
		return nil, false, nil
	}
	if def.Type.IsText() {
		values := make([]string, len(def.Data))
		for i, d := range def.Data {
			values[i] = fmt.Sprint(d)
		}
		return dataset.NewTextVariable(name, def.CoordinateNames(), values), true, nil
	}
	values, err := def.PredefinedValues()
	if err != nil {
		return nil, false, err
	}
	return dataset.NewVariable(name, def.CoordinateNames(), values), true, nil
}
