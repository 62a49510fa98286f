package transform

import (
	"fmt"
	"math"
	"sort"

	"github.com/vk/tsdat/internal/config"
)

// series is an input variable sorted by its coordinate, with missing
// coordinate values dropped.
type series struct {
	x []float64
	y []float64
}

func newSeries(x, y []float64) *series {
	idx := make([]int, 0, len(x))
	for i, xi := range x {
		if !math.IsNaN(xi) {
			idx = append(idx, i)
		}
	}
	sort.SliceStable(idx, func(a, b int) bool { return x[idx[a]] < x[idx[b]] })
	s := &series{x: make([]float64, len(idx)), y: make([]float64, len(idx))}
	for i, j := range idx {
		s.x[i], s.y[i] = x[j], y[j]
	}
	return s
}

// search returns the index of the first point with x >= v.
func (s *series) search(v float64) int {
	return sort.SearchFloat64s(s.x, v)
}

func nearest(src *series, out []float64, st settings) ([]float64, error) {
	values := make([]float64, len(out))
	for i, x := range out {
		values[i] = math.NaN()
		if math.IsNaN(x) || len(src.x) == 0 {
			continue
		}
		j := src.search(x)
		best := -1
		switch {
		case j == len(src.x):
			best = j - 1
		case j == 0:
			best = 0
		case x-src.x[j-1] <= src.x[j]-x:
			best = j - 1
		default:
			best = j
		}
		// equal coordinates: prefer the first occurrence
		for best > 0 && src.x[best-1] == src.x[best] {
			best--
		}
		if math.Abs(src.x[best]-x) <= st.Range {
			values[i] = src.y[best]
		}
	}
	return values, nil
}

func interpolate(src *series, out []float64, st settings) ([]float64, error) {
	values := make([]float64, len(out))
	for i, x := range out {
		values[i] = math.NaN()
		if math.IsNaN(x) || len(src.x) == 0 {
			continue
		}
		j := src.search(x)
		if j < len(src.x) && src.x[j] == x {
			values[i] = src.y[j]
			continue
		}
		if j == 0 || j == len(src.x) {
			continue
		}
		x0, x1 := src.x[j-1], src.x[j]
		if x-x0 > st.Range || x1-x > st.Range {
			continue
		}
		y0, y1 := src.y[j-1], src.y[j]
		values[i] = y0 + (y1-y0)*(x-x0)/(x1-x0)
	}
	return values, nil
}

func binAverage(src *series, out []float64, st settings) ([]float64, error) {
	width := st.Width
	if !st.HasWidth {
		var err error
		if width, err = medianSpacing(out); err != nil {
			return nil, err
		}
	}

	values := make([]float64, len(out))
	for i, x := range out {
		values[i] = math.NaN()
		if math.IsNaN(x) {
			continue
		}
		lo, hi := bounds(x, width, st.Alignment)
		var sum float64
		var n int
		for j := src.search(lo); j < len(src.x) && src.x[j] <= hi; j++ {
			if !inBin(src.x[j], lo, hi, st.Alignment) || math.IsNaN(src.y[j]) {
				continue
			}
			sum += src.y[j]
			n++
		}
		if n > 0 {
			values[i] = sum / float64(n)
		}
	}
	return values, nil
}

// bounds returns the edges of the bin belonging to output value x.
func bounds(x, width float64, a config.Alignment) (float64, float64) {
	switch a {
	case config.AlignLeft:
		return x, x + width
	case config.AlignRight:
		return x - width, x
	default:
		return x - width/2, x + width/2
	}
}

// inBin applies the open or closed edge of each alignment. RIGHT bins are
// (lo, hi]; the others are [lo, hi).
func inBin(v, lo, hi float64, a config.Alignment) bool {
	if a == config.AlignRight {
		return v > lo && v <= hi
	}
	return v >= lo && v < hi
}

func medianSpacing(coord []float64) (float64, error) {
	sorted := make([]float64, 0, len(coord))
	for _, c := range coord {
		if !math.IsNaN(c) {
			sorted = append(sorted, c)
		}
	}
	sort.Float64s(sorted)
	var diffs []float64
	for i := 1; i < len(sorted); i++ {
		if d := sorted[i] - sorted[i-1]; d > 0 {
			diffs = append(diffs, d)
		}
	}
	if len(diffs) == 0 {
		return 0, fmt.Errorf("bin width is not set and cannot be derived from fewer than two distinct output coordinate values")
	}
	sort.Float64s(diffs)
	mid := len(diffs) / 2
	if len(diffs)%2 == 0 {
		return (diffs[mid-1] + diffs[mid]) / 2, nil
	}
	return diffs[mid], nil
}
