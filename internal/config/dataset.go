package config

import (
	"fmt"
	"math"
	"sort"
	"strings"
)

// DataType is one of the standard variable data types.
type DataType string

const (
	TypeString DataType = "string"
	TypeChar   DataType = "char"
	TypeByte   DataType = "byte"
	TypeUByte  DataType = "ubyte"
	TypeShort  DataType = "short"
	TypeUShort DataType = "ushort"
	TypeInt    DataType = "int"
	TypeLong   DataType = "long"
	TypeULong  DataType = "ulong"
	TypeFloat  DataType = "float"
	TypeDouble DataType = "double"
)

// integerBounds holds the representable range of each integer type.
var integerBounds = map[DataType][2]float64{
	TypeByte:   {math.MinInt8, math.MaxInt8},
	TypeUByte:  {0, math.MaxUint8},
	TypeShort:  {math.MinInt16, math.MaxInt16},
	TypeUShort: {0, math.MaxUint16},
	TypeInt:    {math.MinInt32, math.MaxInt32},
	TypeLong:   {math.MinInt64, math.MaxInt64},
	TypeULong:  {0, math.MaxUint64},
}

var dataTypes = []DataType{
	TypeString, TypeChar, TypeByte, TypeUByte, TypeShort, TypeUShort,
	TypeLong, TypeULong, TypeInt, TypeFloat, TypeDouble,
}

// ParseDataType validates a type name from a dataset definition.
func ParseDataType(s string) (DataType, error) {
	for _, t := range dataTypes {
		if string(t) == s {
			return t, nil
		}
	}
	names := make([]string, len(dataTypes))
	for i, t := range dataTypes {
		names[i] = string(t)
	}
	return "", fmt.Errorf("'%s' is not a standard data type. Data type must be one of: %s", s, strings.Join(names, ", "))
}

// IsText reports whether values of this type are strings.
func (t DataType) IsText() bool {
	return t == TypeString || t == TypeChar
}

// Cast converts v to the closest value representable by t. Integer types
// round to the nearest integer and saturate at their bounds; float rounds to
// single precision. NaN is returned unchanged.
func (t DataType) Cast(v float64) float64 {
	if math.IsNaN(v) {
		return v
	}
	if bounds, ok := integerBounds[t]; ok {
		v = math.Round(v)
		return math.Max(bounds[0], math.Min(bounds[1], v))
	}
	if t == TypeFloat {
		return float64(float32(v))
	}
	return v
}

// DimensionDefinition describes one dimension of the output dataset.
type DimensionDefinition struct {
	Name      string
	Length    int
	Unlimited bool
}

// DatasetDefinition describes the standardized output dataset.
type DatasetDefinition struct {
	Attrs    map[string]any
	Dims     map[string]*DimensionDefinition
	Coords   []*VariableDefinition
	DataVars []*VariableDefinition
}

// Variable looks up a coordinate or data variable definition by name.
func (d *DatasetDefinition) Variable(name string) (*VariableDefinition, bool) {
	if d == nil {
		return nil, false
	}
	for _, v := range d.Coords {
		if v.Name == name {
			return v, true
		}
	}
	for _, v := range d.DataVars {
		if v.Name == name {
			return v, true
		}
	}
	return nil, false
}

// Datastream returns the "datastream" attribute, or builds one from the
// location_id, dataset_name, qualifier, temporal and data_level attributes.
func (d *DatasetDefinition) Datastream() string {
	if d == nil {
		return ""
	}
	if ds, ok := d.Attrs["datastream"].(string); ok && ds != "" {
		return ds
	}
	attr := func(k string) string {
		s, _ := d.Attrs[k].(string)
		return s
	}
	if attr("location_id") == "" || attr("dataset_name") == "" || attr("data_level") == "" {
		return ""
	}
	name := attr("dataset_name")
	if q := attr("qualifier"); q != "" {
		name += "-" + q
	}
	if tmp := attr("temporal"); tmp != "" {
		name += "-" + tmp
	}
	return fmt.Sprintf("%s.%s.%s", attr("location_id"), name, attr("data_level"))
}

// VarInput encodes the fields set by a variable's input source.
type VarInput struct {
	Name       string
	TimeFormat string
	Units      string
}

// VariableDefinition describes one output variable.
type VariableDefinition struct {
	Name  string
	Input *VarInput
	Dims  []string
	Type  DataType
	Attrs map[string]any
	// Data holds values predefined in the configuration, if any.
	Data []any
	// Extra keeps any keys not understood by the definition.
	Extra map[string]any

	predefined bool
}

// NewVariableDefinition builds a definition from its raw configuration
// mapping. Every requested dimension must be one of available.
func NewVariableDefinition(name string, raw map[string]any, available map[string]*DimensionDefinition) (*VariableDefinition, error) {
	v := &VariableDefinition{
		Name:  name,
		Attrs: make(map[string]any),
		Extra: make(map[string]any),
	}

	if in, ok := raw["input"]; ok && in != nil {
		m, ok := in.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("variable '%s': input must be a mapping", name)
		}
		inputName, _ := m["name"].(string)
		if inputName == "" {
			return nil, fmt.Errorf("variable '%s': input.name is required", name)
		}
		v.Input = &VarInput{Name: inputName}
		v.Input.TimeFormat, _ = m["time_format"].(string)
		v.Input.Units, _ = m["units"].(string)
	}

	if attrs, ok := raw["attrs"].(map[string]any); ok {
		for k, val := range attrs {
			v.Attrs[k] = val
		}
	}

	if dims, ok := raw["dims"]; ok && dims != nil {
		list, ok := dims.([]any)
		if !ok {
			return nil, fmt.Errorf("variable '%s': dims must be a list", name)
		}
		for _, d := range list {
			dimName := fmt.Sprint(d)
			if _, ok := available[dimName]; !ok {
				known := make([]string, 0, len(available))
				for k := range available {
					known = append(known, k)
				}
				sort.Strings(known)
				return nil, fmt.Errorf("'%s' is not a recognized dimension. Available dimensions include: %s", dimName, strings.Join(known, ", "))
			}
			v.Dims = append(v.Dims, dimName)
		}
	}

	typeName, _ := raw["type"].(string)
	t, err := ParseDataType(typeName)
	if err != nil {
		return nil, fmt.Errorf("variable '%s': %w", name, err)
	}
	v.Type = t

	if data, ok := raw["data"]; ok {
		v.predefined = true
		switch d := data.(type) {
		case []any:
			v.Data = d
		default:
			v.Data = []any{d}
		}
	}

	for k, val := range raw {
		switch k {
		case "input", "attrs", "dims", "type", "data":
		default:
			v.Extra[k] = val
		}
	}
	return v, nil
}

// IsConstant reports whether the variable has no dimensions.
func (v *VariableDefinition) IsConstant() bool { return len(v.Dims) == 0 }

// IsPredefined reports whether the variable's data is set in the configuration.
func (v *VariableDefinition) IsPredefined() bool { return v.predefined }

// IsCoordinate reports whether the variable is dimensioned by itself.
func (v *VariableDefinition) IsCoordinate() bool {
	return len(v.Dims) == 1 && v.Dims[0] == v.Name
}

// IsDerived reports whether the variable has neither an input nor predefined data.
func (v *VariableDefinition) IsDerived() bool {
	return v.Input == nil && !v.IsPredefined()
}

// HasInput reports whether the variable is copied from an input dataset.
func (v *VariableDefinition) HasInput() bool { return v.Input != nil }

// InputName returns the name of the variable in the input, or "".
func (v *VariableDefinition) InputName() string {
	if v.Input == nil {
		return ""
	}
	return v.Input.Name
}

// InputUnits returns the units of the input variable, falling back to the
// output units. It returns "" when the variable has no input.
func (v *VariableDefinition) InputUnits() string {
	if v.Input == nil {
		return ""
	}
	if v.Input.Units != "" {
		return v.Input.Units
	}
	return v.OutputUnits()
}

// OutputUnits returns the "units" attribute, or "unitless".
func (v *VariableDefinition) OutputUnits() string {
	if u, ok := v.Attrs["units"].(string); ok && u != "" {
		return u
	}
	return "unitless"
}

// CoordinateNames returns the names of the dimensions of the variable.
func (v *VariableDefinition) CoordinateNames() []string {
	return append([]string(nil), v.Dims...)
}

// FillValue returns the "_FillValue" attribute, or -9999.
func (v *VariableDefinition) FillValue() float64 {
	switch f := v.Attrs["_FillValue"].(type) {
	case int:
		return float64(f)
	case int64:
		return float64(f)
	case float64:
		return f
	}
	return -9999
}

// PredefinedValues returns the predefined data as numbers. Non-numeric
// entries are an error.
func (v *VariableDefinition) PredefinedValues() ([]float64, error) {
	out := make([]float64, len(v.Data))
	for i, d := range v.Data {
		switch n := d.(type) {
		case int:
			out[i] = float64(n)
		case int64:
			out[i] = float64(n)
		case float64:
			out[i] = n
		default:
			return nil, fmt.Errorf("variable '%s': predefined value %v is not numeric", v.Name, d)
		}
	}
	return out, nil
}

// ToMap returns the variable as a dictionary with "dims", "data" and "attrs".
func (v *VariableDefinition) ToMap() map[string]any {
	data := v.Data
	if data == nil {
		data = []any{}
	}
	attrs := make(map[string]any, len(v.Attrs))
	for k, val := range v.Attrs {
		attrs[k] = val
	}
	return map[string]any{
		"dims":  v.CoordinateNames(),
		"data":  data,
		"attrs": attrs,
	}
}
