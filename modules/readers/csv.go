package readers

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"unicode/utf8"

	"github.com/vk/tsdat/internal/ctxlog"
	"github.com/vk/tsdat/internal/dataset"
	"github.com/vk/tsdat/internal/registry"
)

// CSVReader reads a delimited text file with a header row. Every column
// becomes a variable dimensioned by the coordinate column.
type CSVReader struct {
	Coord     string `yaml:"coord"`
	Comment   string `yaml:"comment"`
	Delimiter string `yaml:"delimiter"`
	SkipRows  int    `yaml:"skip_rows"`
}

// NewCSVReader builds a CSVReader from its configuration parameters.
func NewCSVReader(params map[string]any) (registry.Reader, error) {
	r := &CSVReader{Delimiter: ","}
	if err := registry.DecodeParameters(params, r); err != nil {
		return nil, err
	}
	if utf8.RuneCountInString(r.Delimiter) != 1 {
		return nil, fmt.Errorf("delimiter must be a single character, got '%s'", r.Delimiter)
	}
	if r.Comment != "" && utf8.RuneCountInString(r.Comment) != 1 {
		return nil, fmt.Errorf("comment must be a single character, got '%s'", r.Comment)
	}
	if r.SkipRows < 0 {
		return nil, fmt.Errorf("skip_rows must not be negative")
	}
	return r, nil
}

// Read decodes the input into a dataset.
func (r *CSVReader) Read(ctx context.Context, key string, in io.Reader) (*dataset.Dataset, error) {
	cr := csv.NewReader(in)
	cr.Comma, _ = utf8.DecodeRuneInString(r.Delimiter)
	if r.Comment != "" {
		cr.Comment, _ = utf8.DecodeRuneInString(r.Comment)
	}
	cr.TrimLeadingSpace = true
	cr.FieldsPerRecord = -1

	for i := 0; i < r.SkipRows; i++ {
		if _, err := cr.Read(); err != nil {
			if errors.Is(err, io.EOF) {
				return nil, fmt.Errorf("%s: %w", key, ErrEmptyData)
			}
			return nil, fmt.Errorf("%s: %w", key, err)
		}
	}

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%s: %w: %v", key, ErrInvalidFormat, err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("%s: %w", key, ErrEmptyData)
	}

	header := records[0]
	rows := records[1:]
	coordIdx := 0
	if r.Coord != "" {
		coordIdx = -1
		for i, h := range header {
			if h == r.Coord {
				coordIdx = i
				break
			}
		}
		if coordIdx < 0 {
			return nil, fmt.Errorf("%s: coordinate column '%s' not found in header %v", key, r.Coord, header)
		}
	}
	dim := header[coordIdx]

	columns := make([][]string, len(header))
	for i := range columns {
		columns[i] = make([]string, len(rows))
	}
	for n, row := range rows {
		if len(row) != len(header) {
			return nil, fmt.Errorf("%s: %w: row %d has %d fields, header has %d", key, ErrInvalidFormat, n+r.SkipRows+2, len(row), len(header))
		}
		for i, cell := range row {
			columns[i][n] = cell
		}
	}

	ds := dataset.New()
	ds.Attrs["input_key"] = key
	for i, name := range header {
		v := column(name, []string{dim}, columns[i])
		if i == coordIdx {
			ds.SetCoord(v)
		} else {
			ds.SetVar(v)
		}
	}

	ctxlog.FromContext(ctx).Debug("Read CSV input.", "key", key, "columns", len(header), "rows", len(rows))
	return ds, nil
}
