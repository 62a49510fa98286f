package storage

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"math"
	"strconv"

	"github.com/vk/tsdat/internal/dataset"
)

type codec struct {
	ext    string
	encode func(*dataset.Dataset) ([]byte, error)
	decode func([]byte) (*dataset.Dataset, error)
}

var codecs = map[string]codec{
	"json": {ext: "json", encode: jsonEncode, decode: jsonDecode},
	"csv":  {ext: "csv", encode: csvEncode, decode: csvDecode},
}

// csvEncode writes every variable dimensioned by time as a column, time
// first. Attributes and variables along other dimensions are not kept.
func csvEncode(ds *dataset.Dataset) ([]byte, error) {
	var cols []*dataset.Variable
	for _, v := range append(append([]*dataset.Variable(nil), ds.Coords()...), ds.DataVars()...) {
		if len(v.Dims) == 1 && v.Dims[0] == TimeCoord {
			cols = append(cols, v)
		}
	}
	n := ds.Len(TimeCoord)

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	header := make([]string, len(cols))
	for i, c := range cols {
		header[i] = c.Name
	}
	if err := w.Write(header); err != nil {
		return nil, err
	}
	row := make([]string, len(cols))
	for r := 0; r < n; r++ {
		for i, c := range cols {
			switch {
			case c.IsText():
				row[i] = c.Strings[r]
			case math.IsNaN(c.Data[r]):
				row[i] = ""
			default:
				row[i] = strconv.FormatFloat(c.Data[r], 'g', -1, 64)
			}
		}
		if err := w.Write(row); err != nil {
			return nil, err
		}
	}
	w.Flush()
	return buf.Bytes(), w.Error()
}

func csvDecode(data []byte) (*dataset.Dataset, error) {
	records, err := csv.NewReader(bytes.NewReader(data)).ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("empty file")
	}
	header, rows := records[0], records[1:]
	ds := dataset.New()
	for i, name := range header {
		cells := make([]string, len(rows))
		for r, row := range rows {
			cells[r] = row[i]
		}
		v := parseColumn(name, cells)
		if name == TimeCoord {
			ds.SetCoord(v)
		} else {
			ds.SetVar(v)
		}
	}
	return ds, nil
}

func parseColumn(name string, cells []string) *dataset.Variable {
	dims := []string{TimeCoord}
	data := make([]float64, len(cells))
	for i, c := range cells {
		if c == "" {
			data[i] = math.NaN()
			continue
		}
		f, err := strconv.ParseFloat(c, 64)
		if err != nil {
			return dataset.NewTextVariable(name, dims, cells)
		}
		data[i] = f
	}
	return dataset.NewVariable(name, dims, data)
}
