package timeconv

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

func TestLayout(t *testing.T) {
	tests := map[string]string{
		"%Y-%m-%d %H:%M:%S":    "2006-01-02 15:04:05",
		"%Y%m%d.%H%M%S":        "20060102.150405",
		"%d/%m/%y %I:%M %p":    "02/01/06 03:04 PM",
		"%FT%T%z":              "2006-01-02T15:04:05-0700",
		"100%% at %H:%M":       "100% at 15:04",
		"%Y-%m-%dT%H:%M:%S.%f": "2006-01-02T15:04:05.999999",
	}
	for format, want := range tests {
		t.Run(format, func(t *testing.T) {
			got, err := Layout(format)
			require.NoError(t, err)
			assert.Equal(t, want, got)
		})
	}

	_, err := Layout("%Q")
	assert.ErrorContains(t, err, "unsupported directive")
	_, err = Layout("%Y%")
	assert.Error(t, err)
}

func TestConverter(t *testing.T) {
	ctx := context.Background()

	t.Run("explicit format", func(t *testing.T) {
		c, err := New(map[string]any{"format": "%Y-%m-%d %H:%M:%S"})
		require.NoError(t, err)
		v := dataset.NewTextVariable("time", []string{"time"}, []string{"2022-01-01 00:00:00", "", "2022-01-01 00:15:00"})

		out, err := c.Convert(ctx, &registry.ConvertInput{Variable: v, OutputName: "time"})
		require.NoError(t, err)
		require.False(t, out.IsText())
		assert.Equal(t, 1640995200.0, out.Data[0])
		assert.True(t, math.IsNaN(out.Data[1]))
		assert.Equal(t, 1640996100.0, out.Data[2])
	})

	t.Run("fractional seconds of any precision", func(t *testing.T) {
		c, err := New(map[string]any{"format": "%Y-%m-%d %H:%M:%S.%f"})
		require.NoError(t, err)
		v := dataset.NewTextVariable("time", []string{"time"}, []string{
			"2022-01-01 00:00:00.5", "2022-01-01 00:00:00.123456", "2022-01-01 00:00:01",
		})

		out, err := c.Convert(ctx, &registry.ConvertInput{Variable: v, OutputName: "time"})
		require.NoError(t, err)
		assert.InDeltaSlice(t, []float64{1640995200.5, 1640995200.123456, 1640995201}, out.Data, 1e-6)
	})

	t.Run("timezone", func(t *testing.T) {
		c, err := New(map[string]any{"format": "%Y-%m-%d %H:%M", "timezone": "America/Los_Angeles"})
		require.NoError(t, err)
		v := dataset.NewTextVariable("time", []string{"time"}, []string{"2022-01-01 00:00"})
		out, err := c.Convert(ctx, &registry.ConvertInput{Variable: v, OutputName: "time"})
		require.NoError(t, err)
		assert.Equal(t, 1640995200.0+8*3600, out.Data[0])
	})

	t.Run("definition time format", func(t *testing.T) {
		def, err := config.NewVariableDefinition("time", map[string]any{
			"type":  "long",
			"input": map[string]any{"name": "timestamp", "time_format": "%Y%m%d.%H%M%S"},
		}, nil)
		require.NoError(t, err)

		c, err := New(nil)
		require.NoError(t, err)
		v := dataset.NewTextVariable("time", []string{"time"}, []string{"20220101.001500"})
		out, err := c.Convert(ctx, &registry.ConvertInput{Variable: v, Definition: def, OutputName: "time"})
		require.NoError(t, err)
		assert.Equal(t, 1640996100.0, out.Data[0])
	})

	t.Run("RFC3339 fallback", func(t *testing.T) {
		c, err := New(nil)
		require.NoError(t, err)
		v := dataset.NewTextVariable("time", []string{"time"}, []string{"2022-01-01T00:00:00.5Z"})
		out, err := c.Convert(ctx, &registry.ConvertInput{Variable: v, OutputName: "time"})
		require.NoError(t, err)
		assert.Equal(t, 1640995200.5, out.Data[0])
	})

	t.Run("numeric passes through", func(t *testing.T) {
		c, err := New(nil)
		require.NoError(t, err)
		v := dataset.NewVariable("time", []string{"time"}, []float64{1, 2})
		out, err := c.Convert(ctx, &registry.ConvertInput{Variable: v, OutputName: "time"})
		require.NoError(t, err)
		assert.Equal(t, []float64{1, 2}, out.Data)
	})

	t.Run("unparseable value", func(t *testing.T) {
		c, err := New(map[string]any{"format": "%Y-%m-%d"})
		require.NoError(t, err)
		v := dataset.NewTextVariable("time", []string{"time"}, []string{"yesterday"})
		_, err = c.Convert(ctx, &registry.ConvertInput{Variable: v, OutputName: "time"})
		assert.ErrorContains(t, err, "failed to parse 'yesterday'")
	})

	t.Run("bad parameters", func(t *testing.T) {
		_, err := New(map[string]any{"timezone": "Mars/Olympus"})
		assert.ErrorContains(t, err, "invalid timezone")
		_, err = New(map[string]any{"fmt": "%Y"})
		assert.ErrorContains(t, err, "invalid parameters")
	})
}
