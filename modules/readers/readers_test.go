package readers

import (
	"context"
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/tsdat/internal/config"
	"github.com/vk/tsdat/internal/registry"
)

func newReader(t *testing.T, classname string, params map[string]any) registry.Reader {
	t.Helper()
	r := registry.New()
	(&Module{}).Register(r)
	rd, err := r.NewReader(&config.ReaderSpec{Classname: classname, Parameters: params})
	require.NoError(t, err)
	return rd
}

func TestCSVReader(t *testing.T) {
	ctx := context.Background()

	t.Run("first column is the coordinate", func(t *testing.T) {
		// Arrange
		rd := newReader(t, CSVClassname, nil)
		input := "timestamp,temp,site\n2022-01-01 00:00:00,10.5,A\n2022-01-01 00:01:00,,B\n"

		// Act
		ds, err := rd.Read(ctx, "data/met.csv", strings.NewReader(input))

		// Assert
		require.NoError(t, err)
		ts, ok := ds.Coord("timestamp")
		require.True(t, ok)
		assert.True(t, ts.IsText())
		assert.Equal(t, []string{"timestamp"}, ts.Dims)

		temp, ok := ds.Var("temp")
		require.True(t, ok)
		assert.Equal(t, []string{"timestamp"}, temp.Dims)
		assert.Equal(t, 10.5, temp.Data[0])
		assert.True(t, math.IsNaN(temp.Data[1]))

		site, ok := ds.Var("site")
		require.True(t, ok)
		assert.Equal(t, []string{"A", "B"}, site.Strings)
		assert.Equal(t, "data/met.csv", ds.Attrs["input_key"])
		assert.NoError(t, ds.Validate())
	})

	t.Run("options", func(t *testing.T) {
		rd := newReader(t, CSVClassname, map[string]any{
			"coord":     "t",
			"delimiter": ";",
			"comment":   "#",
			"skip_rows": 1,
		})
		input := "instrument v2\n# comment\nwspd;t\n3;0\n# another\n4;60\n"

		ds, err := rd.Read(ctx, "lidar.txt", strings.NewReader(input))
		require.NoError(t, err)
		tc, ok := ds.Coord("t")
		require.True(t, ok)
		assert.Equal(t, []float64{0, 60}, tc.Data)
		wspd, ok := ds.Var("wspd")
		require.True(t, ok)
		assert.Equal(t, []float64{3, 4}, wspd.Data)
	})

	t.Run("errors", func(t *testing.T) {
		rd := newReader(t, CSVClassname, map[string]any{"coord": "time"})
		_, err := rd.Read(ctx, "a.csv", strings.NewReader("x,y\n1,2\n"))
		assert.ErrorContains(t, err, "coordinate column 'time' not found")

		_, err = rd.Read(ctx, "a.csv", strings.NewReader(""))
		assert.ErrorIs(t, err, ErrEmptyData)

		rd = newReader(t, CSVClassname, nil)
		_, err = rd.Read(ctx, "a.csv", strings.NewReader("x,y\n1,2,3\n"))
		assert.ErrorIs(t, err, ErrInvalidFormat)
	})

	t.Run("invalid parameters", func(t *testing.T) {
		r := registry.New()
		(&Module{}).Register(r)
		_, err := r.NewReader(&config.ReaderSpec{Classname: CSVClassname, Parameters: map[string]any{"delimiter": "::"}})
		assert.ErrorContains(t, err, "single character")
		_, err = r.NewReader(&config.ReaderSpec{Classname: CSVClassname, Parameters: map[string]any{"sep": ","}})
		assert.ErrorContains(t, err, "invalid parameters")
	})
}

func TestJSONReader(t *testing.T) {
	ctx := context.Background()
	rd := newReader(t, JSONClassname, nil)

	t.Run("records", func(t *testing.T) {
		input := `[
			{"time": 0, "wspd": 3.5, "flag": "ok"},
			{"time": 60, "wspd": null},
			{"time": 120, "wspd": 4, "flag": "bad"}
		]`
		ds, err := rd.Read(ctx, "buoy.json", strings.NewReader(input))
		require.NoError(t, err)

		tc, ok := ds.Coord("time")
		require.True(t, ok)
		assert.Equal(t, []float64{0, 60, 120}, tc.Data)

		wspd, ok := ds.Var("wspd")
		require.True(t, ok)
		assert.Equal(t, 3.5, wspd.Data[0])
		assert.True(t, math.IsNaN(wspd.Data[1]))

		flag, ok := ds.Var("flag")
		require.True(t, ok)
		assert.Equal(t, []string{"ok", "", "bad"}, flag.Strings)
		assert.NoError(t, ds.Validate())
	})

	t.Run("dataset document", func(t *testing.T) {
		input := `{"attrs": {"datastream": "x.y.b1"},
			"coords": [{"name": "time", "dims": ["time"], "data": [0, 1]}],
			"data_vars": [{"name": "v", "dims": ["time"], "data": [null, 2], "attrs": {"units": "m"}}]}`
		ds, err := rd.Read(ctx, "x.json", strings.NewReader(input))
		require.NoError(t, err)
		assert.Equal(t, "x.y.b1", ds.Attrs["datastream"])
		v, ok := ds.Var("v")
		require.True(t, ok)
		assert.Equal(t, "m", v.Units())
		assert.True(t, math.IsNaN(v.Data[0]))
	})

	t.Run("errors", func(t *testing.T) {
		_, err := rd.Read(ctx, "x.json", strings.NewReader("  "))
		assert.ErrorIs(t, err, ErrEmptyData)
		_, err = rd.Read(ctx, "x.json", strings.NewReader("42"))
		assert.ErrorIs(t, err, ErrInvalidFormat)
		_, err = rd.Read(ctx, "x.json", strings.NewReader(`[{"t": 1}]`))
		assert.ErrorContains(t, err, "coordinate field 'time' not found")
	})
}
