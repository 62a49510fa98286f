package readers

import (
	"math"
	"strconv"
	"strings"

	"github.com/vk/tsdat/internal/dataset"
)

// column builds a variable from raw cell values. The column is numeric when
// every non-empty cell parses as a number; empty cells become NaN.
func column(name string, dims []string, cells []string) *dataset.Variable {
	data := make([]float64, len(cells))
	for i, c := range cells {
		c = strings.TrimSpace(c)
		if c == "" || strings.EqualFold(c, "nan") {
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
