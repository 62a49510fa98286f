package dataset

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

// ErrDimensionMismatch is returned when a variable's length disagrees with
// the coordinate it is dimensioned by.
var ErrDimensionMismatch = errors.New("dimension mismatch")

// Dataset is an ordered collection of coordinate and data variables.
type Dataset struct {
	Attrs    map[string]any
	coords   []*Variable
	dataVars []*Variable
}

// New returns an empty dataset.
func New() *Dataset {
	return &Dataset{Attrs: make(map[string]any)}
}

// Coords returns the coordinate variables in insertion order.
func (d *Dataset) Coords() []*Variable { return d.coords }

// DataVars returns the data variables in insertion order.
func (d *Dataset) DataVars() []*Variable { return d.dataVars }

// Coord looks up a coordinate variable by name.
func (d *Dataset) Coord(name string) (*Variable, bool) {
	return find(d.coords, name)
}

// Var looks up a data variable by name.
func (d *Dataset) Var(name string) (*Variable, bool) {
	return find(d.dataVars, name)
}

// Get looks up a variable by name among coordinates first, then data
// variables.
func (d *Dataset) Get(name string) (*Variable, bool) {
	if v, ok := d.Coord(name); ok {
		return v, true
	}
	return d.Var(name)
}

// SetCoord inserts or replaces a coordinate variable, keeping its position
// if one with the same name already exists.
func (d *Dataset) SetCoord(v *Variable) {
	d.coords = upsert(d.coords, v)
}

// SetVar inserts or replaces a data variable.
func (d *Dataset) SetVar(v *Variable) {
	d.dataVars = upsert(d.dataVars, v)
}

// Replace swaps the variable with the given name for v, wherever it lives.
// It reports whether a variable was replaced.
func (d *Dataset) Replace(name string, v *Variable) bool {
	for i, c := range d.coords {
		if c.Name == name {
			d.coords[i] = v
			return true
		}
	}
	for i, dv := range d.dataVars {
		if dv.Name == name {
			d.dataVars[i] = v
			return true
		}
	}
	return false
}

// Names returns every variable name, coordinates first.
func (d *Dataset) Names() []string {
	names := make([]string, 0, len(d.coords)+len(d.dataVars))
	for _, v := range d.coords {
		names = append(names, v.Name)
	}
	for _, v := range d.dataVars {
		names = append(names, v.Name)
	}
	return names
}

// Len returns the length of the named dimension, taken from the coordinate
// of the same name, or -1 if there is no such coordinate.
func (d *Dataset) Len(dim string) int {
	c, ok := d.Coord(dim)
	if !ok {
		return -1
	}
	return c.Len()
}

// Clone returns a deep copy of the dataset.
func (d *Dataset) Clone() *Dataset {
	out := New()
	for k, v := range d.Attrs {
		out.Attrs[k] = v
	}
	for _, v := range d.coords {
		out.coords = append(out.coords, v.Clone())
	}
	for _, v := range d.dataVars {
		out.dataVars = append(out.dataVars, v.Clone())
	}
	return out
}

// Validate checks that every variable's length matches the coordinate of its
// first dimension.
func (d *Dataset) Validate() error {
	var errs []string
	for _, v := range append(append([]*Variable(nil), d.coords...), d.dataVars...) {
		if len(v.Dims) == 0 {
			continue
		}
		n := d.Len(v.Dims[0])
		if n < 0 {
			errs = append(errs, fmt.Sprintf("variable '%s': dimension '%s' has no coordinate", v.Name, v.Dims[0]))
			continue
		}
		if v.Len() != n {
			errs = append(errs, fmt.Sprintf("variable '%s': length %d does not match dimension '%s' length %d", v.Name, v.Len(), v.Dims[0], n))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w:\n- %s", ErrDimensionMismatch, strings.Join(errs, "\n- "))
	}
	return nil
}

// Concat appends other along dim. Variables dimensioned by dim are extended;
// those missing from other are padded with missing values. Variables not
// dimensioned by dim are kept from the receiver.
func (d *Dataset) Concat(other *Dataset, dim string) error {
	n := other.Len(dim)
	if n < 0 {
		return fmt.Errorf("concat: dataset has no coordinate '%s'", dim)
	}
	extend := func(vars []*Variable, lookup func(string) (*Variable, bool)) error {
		for _, v := range vars {
			if len(v.Dims) == 0 || v.Dims[0] != dim {
				continue
			}
			o, ok := lookup(v.Name)
			if !ok {
				pad := Filled(v.Name, v.Dims, n, math.NaN())
				if v.IsText() {
					pad = NewTextVariable(v.Name, v.Dims, make([]string, n))
				}
				o = pad
			}
			if err := v.appendValues(o); err != nil {
				return err
			}
		}
		return nil
	}
	if err := extend(d.coords, other.Coord); err != nil {
		return err
	}
	return extend(d.dataVars, other.Var)
}

// Slice returns a copy keeping only the positions whose dim coordinate lies
// in [begin, end).
func (d *Dataset) Slice(dim string, begin, end float64) (*Dataset, error) {
	c, ok := d.Coord(dim)
	if !ok {
		return nil, fmt.Errorf("slice: dataset has no coordinate '%s'", dim)
	}
	var idx []int
	for i, t := range c.Data {
		if t >= begin && t < end {
			idx = append(idx, i)
		}
	}
	return d.Take(dim, idx), nil
}

// Take returns a copy where every variable dimensioned by dim is restricted
// to the given indices.
func (d *Dataset) Take(dim string, idx []int) *Dataset {
	out := New()
	for k, v := range d.Attrs {
		out.Attrs[k] = v
	}
	pick := func(v *Variable) *Variable {
		if len(v.Dims) > 0 && v.Dims[0] == dim {
			return v.take(idx)
		}
		return v.Clone()
	}
	for _, v := range d.coords {
		out.coords = append(out.coords, pick(v))
	}
	for _, v := range d.dataVars {
		out.dataVars = append(out.dataVars, pick(v))
	}
	return out
}

func find(vars []*Variable, name string) (*Variable, bool) {
	for _, v := range vars {
		if v.Name == name {
			return v, true
		}
	}
	return nil, false
}

func upsert(vars []*Variable, v *Variable) []*Variable {
	for i, existing := range vars {
		if existing.Name == v.Name {
			vars[i] = v
			return vars
		}
	}
	return append(vars, v)
}
