package dataset

import (
	"fmt"
	"math"
)

// Variable is a named, dimensioned array of values with attributes.
type Variable struct {
	Name    string
	Dims    []string
	Attrs   map[string]any
	Data    []float64
	Strings []string
}

// NewVariable creates a numeric variable.
func NewVariable(name string, dims []string, data []float64) *Variable {
	return &Variable{
		Name:  name,
		Dims:  dims,
		Attrs: make(map[string]any),
		Data:  data,
	}
}

// NewTextVariable creates a variable holding raw, unparsed values.
func NewTextVariable(name string, dims []string, values []string) *Variable {
	return &Variable{
		Name:    name,
		Dims:    dims,
		Attrs:   make(map[string]any),
		Strings: values,
	}
}

// Len returns the number of values held by the variable.
func (v *Variable) Len() int {
	if v.IsText() {
		return len(v.Strings)
	}
	return len(v.Data)
}

// IsText reports whether the variable still holds unparsed values.
func (v *Variable) IsText() bool {
	return v.Data == nil && v.Strings != nil
}

// Units returns the "units" attribute, or "" when absent.
func (v *Variable) Units() string {
	if u, ok := v.Attrs["units"].(string); ok {
		return u
	}
	return ""
}

// Clone returns a deep copy of the variable.
func (v *Variable) Clone() *Variable {
	out := &Variable{
		Name:  v.Name,
		Dims:  append([]string(nil), v.Dims...),
		Attrs: make(map[string]any, len(v.Attrs)),
	}
	for k, val := range v.Attrs {
		out.Attrs[k] = val
	}
	if v.Data != nil {
		out.Data = append([]float64(nil), v.Data...)
	}
	if v.Strings != nil {
		out.Strings = append([]string(nil), v.Strings...)
	}
	return out
}

// Rename returns a copy of the variable under a new name. A coordinate that
// is dimensioned by itself keeps that relationship under the new name.
func (v *Variable) Rename(name string) *Variable {
	out := v.Clone()
	if len(out.Dims) == 1 && out.Dims[0] == v.Name {
		out.Dims[0] = name
	}
	out.Name = name
	return out
}

// Filled returns a numeric variable of the given length where every value
// is fill.
func Filled(name string, dims []string, n int, fill float64) *Variable {
	data := make([]float64, n)
	for i := range data {
		data[i] = fill
	}
	return NewVariable(name, dims, data)
}

// take returns a copy of the variable restricted to the given indices.
// Negative indices produce a missing value.
func (v *Variable) take(idx []int) *Variable {
	out := v.Clone()
	if v.IsText() {
		out.Strings = make([]string, len(idx))
		for i, j := range idx {
			if j >= 0 {
				out.Strings[i] = v.Strings[j]
			}
		}
		return out
	}
	out.Data = make([]float64, len(idx))
	for i, j := range idx {
		if j >= 0 {
			out.Data[i] = v.Data[j]
		} else {
			out.Data[i] = math.NaN()
		}
	}
	return out
}

// appendValues appends other's values to v. Both must be text or both
// numeric, except that an empty side takes the kind of the other.
func (v *Variable) appendValues(other *Variable) error {
	switch {
	case other.Len() == 0:
	case v.Len() == 0 && other.IsText():
		v.Data = nil
		v.Strings = append([]string{}, other.Strings...)
	case v.Len() == 0:
		v.Strings = nil
		v.Data = append([]float64{}, other.Data...)
	case v.IsText() && other.IsText():
		v.Strings = append(v.Strings, other.Strings...)
	case !v.IsText() && !other.IsText():
		v.Data = append(v.Data, other.Data...)
	default:
		return fmt.Errorf("variable '%s': cannot concatenate text and numeric data", v.Name)
	}
	return nil
}
