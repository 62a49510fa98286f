package transform

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/tsdat/internal/config"
	"github.com/vk/tsdat/internal/dataset"
	"github.com/vk/tsdat/internal/registry"
)

var nan = math.NaN()

// newInput builds an input dataset with coordinate "t" and variable "x",
// and an output dataset with coordinate "time".
func newInput(inTime, x, outTime []float64) *registry.ConvertInput {
	input := dataset.New()
	input.SetCoord(dataset.NewVariable("t", []string{"t"}, inTime))
	input.SetVar(dataset.NewVariable("x", []string{"t"}, x))

	output := dataset.New()
	output.SetCoord(dataset.NewVariable("time", []string{"time"}, outTime))

	v, _ := input.Var("x")
	return &registry.ConvertInput{
		Variable:   v.Rename("x"),
		InputKey:   "input.csv",
		Input:      input,
		Output:     output,
		OutputName: "x",
		Transformation: config.TransformationParameters{
			Range:     map[string]float64{},
			Width:     map[string]float64{},
			Alignment: map[string]config.Alignment{},
		},
	}
}

func newConverter(t *testing.T, classname string, params map[string]any) registry.DataConverter {
	t.Helper()
	r := registry.New()
	(&Module{}).Register(r)
	c, err := r.NewConverter(&config.ConverterSpec{Classname: classname, Parameters: params})
	require.NoError(t, err)
	return c
}

func assertValues(t *testing.T, want, got []float64) {
	t.Helper()
	require.Len(t, got, len(want))
	for i := range want {
		if math.IsNaN(want[i]) {
			assert.Truef(t, math.IsNaN(got[i]), "index %d: want NaN, got %v", i, got[i])
			continue
		}
		assert.InDeltaf(t, want[i], got[i], 1e-9, "index %d", i)
	}
}

func TestNearestNeighbor(t *testing.T) {
	ctx := context.Background()

	t.Run("unlimited range", func(t *testing.T) {
		c := newConverter(t, NearestNeighborClassname, nil)
		in := newInput([]float64{0, 10, 20}, []float64{1, 2, 3}, []float64{-5, 4, 5, 6, 100})
		out, err := c.Convert(ctx, in)
		require.NoError(t, err)
		assert.Equal(t, []string{"time"}, out.Dims)
		assertValues(t, []float64{1, 1, 1, 2, 3}, out.Data)
	})

	t.Run("range from transformation parameters", func(t *testing.T) {
		c := newConverter(t, NearestNeighborClassname, nil)
		in := newInput([]float64{0, 10, 20}, []float64{1, 2, 3}, []float64{3, 12, 26})
		in.Transformation.Range["time"] = 3
		out, err := c.Convert(ctx, in)
		require.NoError(t, err)
		assertValues(t, []float64{1, 2, nan}, out.Data)
	})

	t.Run("converter range overrides", func(t *testing.T) {
		c := newConverter(t, NearestNeighborClassname, map[string]any{"range": "10s"})
		in := newInput([]float64{0}, []float64{1}, []float64{9, 11})
		in.Transformation.Range["time"] = 1
		out, err := c.Convert(ctx, in)
		require.NoError(t, err)
		assertValues(t, []float64{1, nan}, out.Data)
	})

	t.Run("unsorted input", func(t *testing.T) {
		c := newConverter(t, NearestNeighborClassname, nil)
		in := newInput([]float64{20, nan, 0, 10}, []float64{3, 9, 1, 2}, []float64{1, 19})
		out, err := c.Convert(ctx, in)
		require.NoError(t, err)
		assertValues(t, []float64{1, 3}, out.Data)
	})
}

func TestInterpolate(t *testing.T) {
	ctx := context.Background()
	c := newConverter(t, InterpolateClassname, nil)

	t.Run("linear", func(t *testing.T) {
		in := newInput([]float64{0, 10, 20}, []float64{0, 10, 30}, []float64{-1, 0, 5, 10, 15, 21})
		out, err := c.Convert(ctx, in)
		require.NoError(t, err)
		assertValues(t, []float64{nan, 0, 5, 10, 20, nan}, out.Data)
	})

	t.Run("bracketing points out of range", func(t *testing.T) {
		in := newInput([]float64{0, 10}, []float64{0, 10}, []float64{2, 5})
		in.Transformation.Range["time"] = 4
		out, err := c.Convert(ctx, in)
		require.NoError(t, err)
		assertValues(t, []float64{nan, nan}, out.Data)
	})
}

func TestBinAverage(t *testing.T) {
	ctx := context.Background()
	inTime := []float64{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}
	x := []float64{0, 1, 2, 3, 4, 5, 6, 7, 8, nan}

	tests := map[string]struct {
		params  map[string]any
		outTime []float64
		want    []float64
	}{
		"left":                 {map[string]any{"width": 5, "alignment": "left"}, []float64{0, 5}, []float64{2, 6.5}},
		"center":               {map[string]any{"width": 5, "alignment": "center"}, []float64{3.5, 7}, []float64{3, 6.5}},
		"right":                {map[string]any{"width": 5, "alignment": "right"}, []float64{5, 10}, []float64{3, 7}},
		"median spacing width": {nil, []float64{3.5, 7}, []float64{3.5, 7}},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			c := newConverter(t, BinAverageClassname, tt.params)
			out, err := c.Convert(ctx, newInput(inTime, x, tt.outTime))
			require.NoError(t, err)
			assertValues(t, tt.want, out.Data)
		})
	}

	t.Run("empty bin", func(t *testing.T) {
		c := newConverter(t, BinAverageClassname, map[string]any{"width": 1})
		in := newInput([]float64{0}, []float64{1}, []float64{0, 100})
		out, err := c.Convert(ctx, in)
		require.NoError(t, err)
		assertValues(t, []float64{1, nan}, out.Data)
	})

	t.Run("width cannot be derived", func(t *testing.T) {
		c := newConverter(t, BinAverageClassname, nil)
		in := newInput([]float64{0}, []float64{1}, []float64{0})
		_, err := c.Convert(ctx, in)
		assert.ErrorContains(t, err, "bin width is not set")
	})
}

func TestConvertErrors(t *testing.T) {
	ctx := context.Background()
	c := newConverter(t, NearestNeighborClassname, map[string]any{"coord": "height"})

	t.Run("missing output coordinate", func(t *testing.T) {
		_, err := c.Convert(ctx, newInput([]float64{0}, []float64{1}, []float64{0}))
		assert.ErrorContains(t, err, "output coordinate 'height' has not been retrieved")
	})

	t.Run("text variable", func(t *testing.T) {
		in := newInput([]float64{0}, []float64{1}, []float64{0})
		in.Variable = dataset.NewTextVariable("x", []string{"t"}, []string{"a"})
		_, err := c.Convert(ctx, in)
		assert.ErrorContains(t, err, "text data")
	})

	t.Run("bad parameters", func(t *testing.T) {
		r := registry.New()
		(&Module{}).Register(r)
		_, err := r.NewConverter(&config.ConverterSpec{Classname: BinAverageClassname, Parameters: map[string]any{"width": -1}})
		assert.ErrorContains(t, err, "width must be positive")
		_, err = r.NewConverter(&config.ConverterSpec{Classname: BinAverageClassname, Parameters: map[string]any{"alignment": "middle"}})
		assert.ErrorContains(t, err, "invalid alignment")
	})
}
