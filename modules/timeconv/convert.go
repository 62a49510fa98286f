// Package timeconv provides the StringToDatetime data converter, which parses
// textual timestamps into epoch seconds.
package timeconv

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/vk/tsdat/internal/ctxlog"
	"github.com/vk/tsdat/internal/dataset"
	"github.com/vk/tsdat/internal/registry"
)

// Classname is the configuration name of the converter.
const Classname = "tsdat.io.converters.StringToDatetime"

// Module implements the registry.Module interface for this package.
type Module struct{}

// Register registers the converter with the registry.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterConverter(Classname, New)
}

// Converter parses string values with a strftime format.
type Converter struct {
	Format   string `yaml:"format"`
	Timezone string `yaml:"timezone"`

	loc *time.Location
}

// New builds a Converter from its configuration parameters.
func New(params map[string]any) (registry.DataConverter, error) {
	c := &Converter{}
	if err := registry.DecodeParameters(params, c); err != nil {
		return nil, err
	}
	c.loc = time.UTC
	if c.Timezone != "" {
		loc, err := time.LoadLocation(c.Timezone)
		if err != nil {
			return nil, fmt.Errorf("invalid timezone '%s': %w", c.Timezone, err)
		}
		c.loc = loc
	}
	if c.Format != "" {
		if _, err := Layout(c.Format); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// Convert replaces string values with seconds since the Unix epoch. Numeric
// input is returned unchanged. Empty strings become missing values.
func (c *Converter) Convert(ctx context.Context, in *registry.ConvertInput) (*dataset.Variable, error) {
	v := in.Variable
	if !v.IsText() {
		ctxlog.FromContext(ctx).Debug("Variable is already numeric, skipping datetime conversion.", "variable", in.OutputName)
		return v, nil
	}

	format := c.Format
	if format == "" && in.Definition != nil && in.Definition.Input != nil {
		format = in.Definition.Input.TimeFormat
	}
	layout := time.RFC3339Nano
	if format != "" {
		var err error
		if layout, err = Layout(format); err != nil {
			return nil, err
		}
	}

	data := make([]float64, len(v.Strings))
	for i, s := range v.Strings {
		s = strings.TrimSpace(s)
		if s == "" {
			data[i] = math.NaN()
			continue
		}
		t, err := time.ParseInLocation(layout, s, c.loc)
		if err != nil {
			return nil, fmt.Errorf("variable '%s': failed to parse '%s' as a datetime: %w", in.OutputName, s, err)
		}
		data[i] = EpochSeconds(t)
	}

	v.Strings = nil
	v.Data = data
	v.Attrs["units"] = "Seconds since 1970-01-01 00:00:00 UTC"
	return v, nil
}

// EpochSeconds returns t as fractional seconds since the Unix epoch.
func EpochSeconds(t time.Time) float64 {
	return float64(t.UnixNano()) / 1e9
}
