// Package units provides the UnitsConverter data converter, which rescales
// values between units of the same physical quantity.
package units

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/vk/tsdat/internal/ctxlog"
	"github.com/vk/tsdat/internal/dataset"
	"github.com/vk/tsdat/internal/registry"
)

// Classname is the configuration name of the converter.
const Classname = "tsdat.io.converters.UnitsConverter"

var (
	// ErrUnknownUnits is returned for a unit name that is not in the table.
	ErrUnknownUnits = errors.New("unknown units")
	// ErrIncompatibleUnits is returned when converting between families.
	ErrIncompatibleUnits = errors.New("incompatible units")
)

// Module implements the registry.Module interface for this package.
type Module struct{}

// Register registers the converter with the registry.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterConverter(Classname, New)
}

// Converter converts a variable from InputUnits to OutputUnits.
type Converter struct {
	InputUnits  string `yaml:"input_units"`
	OutputUnits string `yaml:"output_units"`
}

// New builds a Converter from its configuration parameters.
func New(params map[string]any) (registry.DataConverter, error) {
	c := &Converter{}
	if err := registry.DecodeParameters(params, c); err != nil {
		return nil, err
	}
	if c.InputUnits == "" {
		return nil, fmt.Errorf("input_units is required")
	}
	return c, nil
}

// Convert rescales the variable in place. The output units default to the
// units declared by the output variable's definition.
func (c *Converter) Convert(ctx context.Context, in *registry.ConvertInput) (*dataset.Variable, error) {
	logger := ctxlog.FromContext(ctx)

	out := c.OutputUnits
	if out == "" && in.Definition != nil {
		out = in.Definition.OutputUnits()
	}
	if out == "" || out == "unitless" {
		logger.Warn("Output units unknown, leaving values unconverted.", "variable", in.OutputName, "input_units", c.InputUnits)
		in.Variable.Attrs["units"] = c.InputUnits
		return in.Variable, nil
	}
	if in.Variable.IsText() {
		return nil, fmt.Errorf("variable '%s': cannot convert units of text data", in.OutputName)
	}

	scale, offset, err := Factor(c.InputUnits, out)
	if err != nil {
		return nil, fmt.Errorf("variable '%s': %w", in.OutputName, err)
	}
	for i, v := range in.Variable.Data {
		if !math.IsNaN(v) {
			in.Variable.Data[i] = v*scale + offset
		}
	}
	in.Variable.Attrs["units"] = out
	logger.Debug("Converted units.", "variable", in.OutputName, "from", c.InputUnits, "to", out)
	return in.Variable, nil
}

// Factor returns scale and offset such that to = from*scale + offset.
func Factor(from, to string) (scale, offset float64, err error) {
	if strings.EqualFold(strings.TrimSpace(from), strings.TrimSpace(to)) {
		return 1, 0, nil
	}
	src, ok := lookup(from)
	if !ok {
		return 0, 0, fmt.Errorf("%w: '%s'", ErrUnknownUnits, from)
	}
	dst, ok := lookup(to)
	if !ok {
		return 0, 0, fmt.Errorf("%w: '%s'", ErrUnknownUnits, to)
	}
	if src.family != dst.family {
		return 0, 0, fmt.Errorf("%w: cannot convert %s (%s) to %s (%s)", ErrIncompatibleUnits, from, src.family, to, dst.family)
	}
	// base = v*src.scale + src.offset; to = (base - dst.offset) / dst.scale
	return src.scale / dst.scale, (src.offset - dst.offset) / dst.scale, nil
}
