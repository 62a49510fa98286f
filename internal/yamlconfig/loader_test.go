package yamlconfig

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/tsdat/internal/config"
)

func TestParseRetriever_Fixture(t *testing.T) {
	data, err := os.ReadFile(filepath.Join("testdata", "retriever.yaml"))
	require.NoError(t, err)

	r, err := ParseRetriever(data)
	require.NoError(t, err)

	assert.Equal(t, "tsdat.io.retrievers.StorageRetriever", r.Classname)
	assert.Equal(t, 900.0, r.Transformation.RangeFor("time"))
	assert.Empty(t, r.Transformation.Width)
	assert.Empty(t, r.Transformation.Alignment)

	require.Len(t, r.Coords, 1)
	assert.Equal(t, "time", r.Coords[0].Name)
	assert.Equal(t, "time", r.Coords[0].Sources[0].Name)
	assert.True(t, r.Coords[0].Sources[0].Matches("--datastream humboldt.buoy.b1 --start 20220101 --end 20220102"))

	require.Len(t, r.DataVars, 2)
	assert.Equal(t, "wave_height", r.DataVars[0].Name)
	assert.Equal(t, "wind_speed", r.DataVars[1].Name)

	wind := r.DataVars[1]
	require.Len(t, wind.Sources, 2, "both patterns are kept")
	assert.Equal(t, ".*humboldt.*lidar.*", wind.Sources[0].Pattern, "pattern order follows the document")
	assert.Equal(t, "wspd", wind.Sources[1].Name)

	convs := wind.Sources[0].DataConverters
	require.Len(t, convs, 2)
	assert.Equal(t, "tsdat.io.converters.UnitsConverter", convs[0].Classname)
	assert.Equal(t, map[string]any{"input_units": "km/h"}, convs[0].Parameters)
	assert.Equal(t, "tsdat.transform.NearestNeighbor", convs[1].Classname)
	assert.Equal(t, "time", convs[1].Parameters["coord"])
}

func TestParseRetriever_Invalid(t *testing.T) {
	tests := map[string]struct {
		doc     string
		wantErr string
	}{
		"missing classname": {
			doc:     "coords: {}",
			wantErr: "classname",
		},
		"source without name": {
			doc: `
classname: tsdat.io.retrievers.DefaultRetriever
data_vars:
  temp:
    .*: {data_converters: []}
`,
			wantErr: "name",
		},
		"converter without classname": {
			doc: `
classname: tsdat.io.retrievers.DefaultRetriever
data_vars:
  temp:
    .*:
      name: t
      data_converters:
        - input_units: degF
`,
			wantErr: "classname",
		},
		"bad alignment": {
			doc: `
classname: tsdat.io.retrievers.DefaultRetriever
parameters:
  transformation_parameters:
    alignment: {time: MIDDLE}
`,
			wantErr: "alignment",
		},
		"bad regex": {
			doc: `
classname: tsdat.io.retrievers.DefaultRetriever
data_vars:
  temp:
    "([":
      name: t
`,
			wantErr: "invalid regex pattern",
		},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := ParseRetriever([]byte(tt.doc))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestParseDataset(t *testing.T) {
	def, err := LoadDatasetFile(filepath.Join("testdata", "dataset.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "humboldt.buoy.c1", def.Datastream())
	assert.True(t, def.Dims["time"].Unlimited)
	require.Len(t, def.Coords, 1)
	assert.True(t, def.Coords[0].IsCoordinate())
	require.Len(t, def.DataVars, 2)
	assert.Equal(t, "wave_height", def.DataVars[0].Name)
	assert.Equal(t, config.TypeFloat, def.DataVars[0].Type)
	assert.Equal(t, "m/s", def.DataVars[1].OutputUnits())

	t.Run("coords declare their own dimension", func(t *testing.T) {
		def, err := ParseDataset([]byte(`
coords:
  height: {dims: [height], type: double}
data_vars:
  temp: {dims: [height], type: float}
`))
		require.NoError(t, err)
		assert.Contains(t, def.Dims, "height")
	})

	t.Run("unknown dimension", func(t *testing.T) {
		_, err := ParseDataset([]byte(`
data_vars:
  temp: {dims: [time], type: float}
`))
		assert.ErrorContains(t, err, "'time' is not a recognized dimension")
	})

	t.Run("fixed length dimension", func(t *testing.T) {
		def, err := ParseDataset([]byte(`
dims:
  bin: {length: 4}
`))
		require.NoError(t, err)
		assert.Equal(t, 4, def.Dims["bin"].Length)
		assert.False(t, def.Dims["bin"].Unlimited)
	})
}

func TestLoader_Load(t *testing.T) {
	ctx := context.Background()

	t.Run("pipeline with referenced files", func(t *testing.T) {
		p, err := NewLoader().Load(ctx, filepath.Join("testdata", "pipeline.yaml"))
		require.NoError(t, err)

		assert.Equal(t, "tsdat.pipeline.TransformationPipeline", p.Classname)
		assert.True(t, p.Triggered("--datastream humboldt.buoy.b1"))
		assert.False(t, p.Triggered("morro.buoy.b1"))
		require.NotNil(t, p.Retriever)
		assert.Equal(t, "tsdat.io.retrievers.StorageRetriever", p.Retriever.Classname)
		require.NotNil(t, p.Dataset)
		assert.Equal(t, "humboldt.buoy.c1", p.Dataset.Datastream())
		require.NotNil(t, p.Storage)
		assert.Equal(t, "storage", p.Storage.Parameters["root"])
		assert.NoError(t, config.Validate(p))
	})

	t.Run("inline sections", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "pipeline.yaml")
		require.NoError(t, os.WriteFile(path, []byte(`
classname: tsdat.pipeline.IngestPipeline
retriever:
  classname: tsdat.io.retrievers.DefaultRetriever
  readers:
    .*\.csv:
      classname: tsdat.io.readers.CSVReader
  coords:
    time:
      .*:
        name: timestamp
dataset:
  coords:
    time: {dims: [time], type: long}
`), 0o644))

		p, err := NewLoader().Load(ctx, path)
		require.NoError(t, err)
		require.Len(t, p.Retriever.Readers, 1)
		assert.True(t, p.Retriever.Readers[0].Regexp.MatchString("data/met.csv"))
		assert.Equal(t, path, p.Path)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := NewLoader().Load(ctx, filepath.Join(t.TempDir(), "nope.yaml"))
		assert.ErrorContains(t, err, "failed to read config file")
	})

	t.Run("missing referenced retriever", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "pipeline.yaml")
		require.NoError(t, os.WriteFile(path, []byte("retriever: missing.yaml\n"), 0o644))
		_, err := NewLoader().Load(ctx, path)
		assert.ErrorContains(t, err, "missing.yaml")
	})
}
