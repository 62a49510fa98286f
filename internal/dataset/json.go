package dataset

import (
	"encoding/json"
	"fmt"
	"math"
)

type jsonVariable struct {
	Name  string          `json:"name"`
	Dims  []string        `json:"dims"`
	Data  json.RawMessage `json:"data"`
	Attrs map[string]any  `json:"attrs"`
}

type jsonDataset struct {
	Attrs    map[string]any  `json:"attrs"`
	Coords   []*jsonVariable `json:"coords"`
	DataVars []*jsonVariable `json:"data_vars"`
}

// MarshalJSON encodes the dataset. Missing numeric values are written as null.
func (d *Dataset) MarshalJSON() ([]byte, error) {
	out := jsonDataset{Attrs: d.Attrs}
	for _, v := range d.coords {
		jv, err := encodeVariable(v)
		if err != nil {
			return nil, err
		}
		out.Coords = append(out.Coords, jv)
	}
	for _, v := range d.dataVars {
		jv, err := encodeVariable(v)
		if err != nil {
			return nil, err
		}
		out.DataVars = append(out.DataVars, jv)
	}
	return json.Marshal(out)
}

// UnmarshalJSON decodes a dataset written by MarshalJSON.
func (d *Dataset) UnmarshalJSON(b []byte) error {
	var in jsonDataset
	if err := json.Unmarshal(b, &in); err != nil {
		return err
	}
	*d = *New()
	for k, v := range in.Attrs {
		d.Attrs[k] = v
	}
	for _, jv := range in.Coords {
		v, err := decodeVariable(jv)
		if err != nil {
			return err
		}
		d.coords = append(d.coords, v)
	}
	for _, jv := range in.DataVars {
		v, err := decodeVariable(jv)
		if err != nil {
			return err
		}
		d.dataVars = append(d.dataVars, v)
	}
	return nil
}

func encodeVariable(v *Variable) (*jsonVariable, error) {
	var data any
	if v.IsText() {
		data = v.Strings
	} else {
		values := make([]*float64, len(v.Data))
		for i := range v.Data {
			if !math.IsNaN(v.Data[i]) && !math.IsInf(v.Data[i], 0) {
				values[i] = &v.Data[i]
			}
		}
		data = values
	}
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("variable '%s': %w", v.Name, err)
	}
	return &jsonVariable{Name: v.Name, Dims: v.Dims, Data: raw, Attrs: v.Attrs}, nil
}

func decodeVariable(jv *jsonVariable) (*Variable, error) {
	v := &Variable{Name: jv.Name, Dims: jv.Dims, Attrs: jv.Attrs}
	if v.Attrs == nil {
		v.Attrs = make(map[string]any)
	}
	if len(jv.Data) == 0 {
		v.Data = []float64{}
		return v, nil
	}

	var numbers []*float64
	if err := json.Unmarshal(jv.Data, &numbers); err == nil {
		v.Data = make([]float64, len(numbers))
		for i, n := range numbers {
			if n == nil {
				v.Data[i] = math.NaN()
			} else {
				v.Data[i] = *n
			}
		}
		return v, nil
	}

	var text []string
	if err := json.Unmarshal(jv.Data, &text); err != nil {
		return nil, fmt.Errorf("variable '%s': data must be an array of numbers or strings: %w", jv.Name, err)
	}
	v.Strings = text
	return v, nil
}
