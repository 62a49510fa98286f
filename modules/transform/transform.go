// Package transform provides the converters that map a variable from its
// input coordinate onto an output coordinate: nearest neighbor, linear
// interpolation and bin averaging.
package transform

import (
	"context"
	"fmt"

	"github.com/vk/tsdat/internal/config"
	"github.com/vk/tsdat/internal/ctxlog"
	"github.com/vk/tsdat/internal/dataset"
	"github.com/vk/tsdat/internal/registry"
)

const (
	NearestNeighborClassname = "tsdat.transform.NearestNeighbor"
	InterpolateClassname     = "tsdat.transform.Interpolate"
	BinAverageClassname      = "tsdat.transform.BinAverage"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

// Register registers the transformation converters with the registry.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterConverter(NearestNeighborClassname, factory(nearest))
	r.RegisterConverter(InterpolateClassname, factory(interpolate))
	r.RegisterConverter(BinAverageClassname, factory(binAverage))
}

// method computes one output value per output coordinate value.
type method func(src *series, out []float64, s settings) ([]float64, error)

type parameters struct {
	Coord     string `yaml:"coord"`
	Range     any    `yaml:"range"`
	Width     any    `yaml:"width"`
	Alignment string `yaml:"alignment"`
}

// settings are the parameters resolved for one output coordinate.
type settings struct {
	Range     float64
	Width     float64
	HasWidth  bool
	Alignment config.Alignment
}

// Converter maps a one-dimensional variable onto an output coordinate.
type Converter struct {
	coord  string
	params parameters
	method method

	rng       float64
	hasRange  bool
	width     float64
	hasWidth  bool
	alignment config.Alignment
}

func factory(m method) registry.ConverterFactory {
	return func(params map[string]any) (registry.DataConverter, error) {
		c := &Converter{method: m}
		if err := registry.DecodeParameters(params, &c.params); err != nil {
			return nil, err
		}
		c.coord = c.params.Coord
		if c.coord == "" {
			c.coord = "time"
		}
		var err error
		if c.params.Range != nil {
			if c.rng, err = config.ParseSeconds(c.params.Range); err != nil {
				return nil, fmt.Errorf("range: %w", err)
			}
			c.hasRange = true
		}
		if c.params.Width != nil {
			if c.width, err = config.ParseSeconds(c.params.Width); err != nil {
				return nil, fmt.Errorf("width: %w", err)
			}
			if c.width <= 0 {
				return nil, fmt.Errorf("width must be positive")
			}
			c.hasWidth = true
		}
		if c.params.Alignment != "" {
			if c.alignment, err = config.ParseAlignment(c.params.Alignment); err != nil {
				return nil, err
			}
		}
		return c, nil
	}
}

// resolve merges the converter's own parameters over the retriever's
// per-coordinate defaults.
func (c *Converter) resolve(tp config.TransformationParameters) settings {
	s := settings{
		Range:     tp.RangeFor(c.coord),
		Alignment: tp.AlignmentFor(c.coord),
	}
	s.Width, s.HasWidth = tp.WidthFor(c.coord)
	if c.hasRange {
		s.Range = c.rng
	}
	if c.hasWidth {
		s.Width, s.HasWidth = c.width, true
	}
	if c.alignment != "" {
		s.Alignment = c.alignment
	}
	return s
}

// Convert returns the variable mapped onto the output coordinate.
func (c *Converter) Convert(ctx context.Context, in *registry.ConvertInput) (*dataset.Variable, error) {
	v := in.Variable
	if v.IsText() {
		return nil, fmt.Errorf("variable '%s': cannot transform text data", in.OutputName)
	}
	if len(v.Dims) != 1 {
		return nil, fmt.Errorf("variable '%s': only one-dimensional variables can be transformed, got dims %v", in.OutputName, v.Dims)
	}
	if in.Input == nil || in.Output == nil {
		return nil, fmt.Errorf("variable '%s': transformation requires input and output datasets", in.OutputName)
	}

	inCoord, ok := in.Input.Get(v.Dims[0])
	if !ok {
		return nil, fmt.Errorf("variable '%s': input coordinate '%s' not found in %s", in.OutputName, v.Dims[0], in.InputKey)
	}
	if inCoord.IsText() {
		return nil, fmt.Errorf("variable '%s': input coordinate '%s' is not numeric", in.OutputName, v.Dims[0])
	}
	if inCoord.Len() != v.Len() {
		return nil, fmt.Errorf("variable '%s': has %d values but input coordinate '%s' has %d", in.OutputName, v.Len(), v.Dims[0], inCoord.Len())
	}
	outCoord, ok := in.Output.Coord(c.coord)
	if !ok {
		return nil, fmt.Errorf("variable '%s': output coordinate '%s' has not been retrieved", in.OutputName, c.coord)
	}
	if outCoord.IsText() {
		return nil, fmt.Errorf("variable '%s': output coordinate '%s' is not numeric", in.OutputName, c.coord)
	}

	s := c.resolve(in.Transformation)
	values, err := c.method(newSeries(inCoord.Data, v.Data), outCoord.Data, s)
	if err != nil {
		return nil, fmt.Errorf("variable '%s': %w", in.OutputName, err)
	}

	ctxlog.FromContext(ctx).Debug("Transformed variable.",
		"variable", in.OutputName,
		"from", v.Dims[0],
		"to", c.coord,
		"input_len", v.Len(),
		"output_len", len(values),
	)

	out := dataset.NewVariable(v.Name, []string{c.coord}, values)
	for k, a := range v.Attrs {
		out.Attrs[k] = a
	}
	return out, nil
}
