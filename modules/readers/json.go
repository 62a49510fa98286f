package readers

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"sort"
	"strconv"

	"github.com/vk/tsdat/internal/ctxlog"
	"github.com/vk/tsdat/internal/dataset"
	"github.com/vk/tsdat/internal/registry"
)

// JSONReader reads either an array of flat records or a serialized dataset.
type JSONReader struct {
	Coord string `yaml:"coord"`
}

// NewJSONReader builds a JSONReader from its configuration parameters.
func NewJSONReader(params map[string]any) (registry.Reader, error) {
	r := &JSONReader{Coord: "time"}
	if err := registry.DecodeParameters(params, r); err != nil {
		return nil, err
	}
	return r, nil
}

// Read decodes the input into a dataset.
func (r *JSONReader) Read(ctx context.Context, key string, in io.Reader) (*dataset.Dataset, error) {
	data, err := io.ReadAll(bufio.NewReader(in))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", key, err)
	}
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, fmt.Errorf("%s: %w", key, ErrEmptyData)
	}

	var ds *dataset.Dataset
	switch data[0] {
	case '[':
		ds, err = r.readRecords(data)
	case '{':
		ds = dataset.New()
		err = json.Unmarshal(data, ds)
	default:
		err = fmt.Errorf("%w: expected a JSON array or object", ErrInvalidFormat)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", key, err)
	}
	ds.Attrs["input_key"] = key

	ctxlog.FromContext(ctx).Debug("Read JSON input.", "key", key, "variables", len(ds.Names()))
	return ds, nil
}

func (r *JSONReader) readRecords(data []byte) (*dataset.Dataset, error) {
	var records []map[string]any
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&records); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidFormat, err)
	}
	if len(records) == 0 {
		return nil, ErrEmptyData
	}

	seen := make(map[string]bool)
	var names []string
	for _, rec := range records {
		for k := range rec {
			if !seen[k] {
				seen[k] = true
				names = append(names, k)
			}
		}
	}
	if !seen[r.Coord] {
		return nil, fmt.Errorf("coordinate field '%s' not found in records", r.Coord)
	}
	sort.Strings(names)

	ds := dataset.New()
	dims := []string{r.Coord}
	for _, name := range names {
		cells := make([]string, len(records))
		for i, rec := range records {
			cells[i] = cell(rec[name])
		}
		v := column(name, dims, cells)
		if name == r.Coord {
			ds.SetCoord(v)
		} else {
			ds.SetVar(v)
		}
	}
	return ds, nil
}

func cell(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case json.Number:
		return x.String()
	case bool:
		return strconv.FormatBool(x)
	case float64:
		if math.IsNaN(x) {
			return ""
		}
		return strconv.FormatFloat(x, 'g', -1, 64)
	default:
		b, _ := json.Marshal(x)
		return string(b)
	}
}
