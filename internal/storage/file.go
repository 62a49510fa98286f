package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/vk/tsdat/internal/ctxlog"
	"github.com/vk/tsdat/internal/dataset"
	"github.com/vk/tsdat/internal/fsutil"
	"github.com/vk/tsdat/internal/registry"
)

// Classname is the configuration name of the file storage backend.
const Classname = "tsdat.io.storage.FileStorage"

// TimeCoord is the coordinate datasets are keyed and sliced by.
const TimeCoord = "time"

const timestampLayout = "20060102.150405"

var (
	// ErrNotFound is returned when no stored data matches a fetch.
	ErrNotFound = errors.New("not found")
	// ErrNoDatastream is returned when saving a dataset without a datastream attribute.
	ErrNoDatastream = errors.New("dataset has no datastream attribute")
)

// Module implements the registry.Module interface for this package.
type Module struct{}

// Register registers the storage backend with the registry.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterStorage(Classname, New)
}

// FileStorage stores one file per saved dataset.
type FileStorage struct {
	Root   string `yaml:"root"`
	Format string `yaml:"format"`

	codec codec
	cache *cache.Cache
}

type cached struct {
	modTime time.Time
	ds      *dataset.Dataset
}

// New builds a FileStorage from its configuration parameters.
func New(params map[string]any) (registry.Storage, error) {
	s := &FileStorage{Root: "storage", Format: "json"}
	if err := registry.DecodeParameters(params, s); err != nil {
		return nil, err
	}
	c, ok := codecs[strings.ToLower(s.Format)]
	if !ok {
		return nil, fmt.Errorf("unsupported storage format '%s': must be json or csv", s.Format)
	}
	s.codec = c
	s.cache = cache.New(10*time.Minute, 20*time.Minute)
	return s, nil
}

// Save writes the dataset and returns the path it was written to.
func (s *FileStorage) Save(ctx context.Context, ds *dataset.Dataset) (string, error) {
	datastream, _ := ds.Attrs["datastream"].(string)
	if datastream == "" {
		return "", ErrNoDatastream
	}
	t, ok := ds.Coord(TimeCoord)
	if !ok || t.IsText() || len(t.Data) == 0 || math.IsNaN(t.Data[0]) {
		return "", fmt.Errorf("dataset '%s': a numeric '%s' coordinate with at least one value is required", datastream, TimeCoord)
	}

	data, err := s.codec.encode(ds)
	if err != nil {
		return "", fmt.Errorf("failed to encode dataset '%s': %w", datastream, err)
	}
	path := s.path(datastream, t.Data[0])
	if err := fsutil.WriteFileAtomic(path, data); err != nil {
		return "", err
	}
	s.cache.Delete(path)

	ctxlog.FromContext(ctx).Info("Saved dataset.", "datastream", datastream, "path", path, "records", len(t.Data))
	return path, nil
}

// Fetch loads the data for datastream in [begin, end), concatenated along time.
func (s *FileStorage) Fetch(ctx context.Context, datastream string, begin, end time.Time) (*dataset.Dataset, error) {
	logger := ctxlog.FromContext(ctx)
	dir := filepath.Join(s.Root, datastream)
	if _, err := os.Stat(dir); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("datastream '%s': %w", datastream, ErrNotFound)
		}
		return nil, err
	}

	files, err := s.list(dir, datastream)
	if err != nil {
		return nil, err
	}
	lo, hi := epoch(begin), epoch(end)

	var out *dataset.Dataset
	for i, f := range files {
		if f.start >= hi {
			break
		}
		// a file ends where the next one starts
		if i+1 < len(files) && files[i+1].start <= lo {
			continue
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		ds, err := s.load(f.path)
		if err != nil {
			return nil, err
		}
		if out == nil {
			out = ds
			continue
		}
		if err := out.Concat(ds, TimeCoord); err != nil {
			return nil, fmt.Errorf("%s: %w", f.path, err)
		}
	}
	if out == nil {
		return nil, fmt.Errorf("datastream '%s' between %s and %s: %w", datastream, begin.UTC().Format(time.RFC3339), end.UTC().Format(time.RFC3339), ErrNotFound)
	}

	sorted, err := sortByTime(out)
	if err != nil {
		return nil, err
	}
	result, err := sorted.Slice(TimeCoord, lo, hi)
	if err != nil {
		return nil, err
	}
	if result.Len(TimeCoord) == 0 {
		return nil, fmt.Errorf("datastream '%s' between %s and %s: %w", datastream, begin.UTC().Format(time.RFC3339), end.UTC().Format(time.RFC3339), ErrNotFound)
	}
	logger.Debug("Fetched dataset.", "datastream", datastream, "files", len(files), "records", result.Len(TimeCoord))
	return result, nil
}

type storedFile struct {
	path  string
	start float64
}

// list returns the datastream's files sorted by their start time.
func (s *FileStorage) list(dir, datastream string) ([]storedFile, error) {
	paths, err := fsutil.FindFilesByExtension(dir, "."+s.codec.ext)
	if err != nil {
		return nil, err
	}
	var files []storedFile
	for _, p := range paths {
		stamp := strings.TrimSuffix(strings.TrimPrefix(filepath.Base(p), datastream+"."), "."+s.codec.ext)
		t, err := time.Parse(timestampLayout, stamp)
		if err != nil {
			continue
		}
		files = append(files, storedFile{path: p, start: epoch(t)})
	}
	sort.Slice(files, func(i, j int) bool { return files[i].start < files[j].start })
	return files, nil
}

// load decodes a stored file, reusing the cached copy when the file has not
// changed since it was decoded.
func (s *FileStorage) load(path string) (*dataset.Dataset, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if v, ok := s.cache.Get(path); ok {
		if c := v.(*cached); c.modTime.Equal(info.ModTime()) {
			return c.ds.Clone(), nil
		}
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	ds, err := s.codec.decode(data)
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", path, err)
	}
	s.cache.SetDefault(path, &cached{modTime: info.ModTime(), ds: ds})
	return ds.Clone(), nil
}

func (s *FileStorage) path(datastream string, start float64) string {
	stamp := toTime(start).Format(timestampLayout)
	return filepath.Join(s.Root, datastream, fmt.Sprintf("%s.%s.%s", datastream, stamp, s.codec.ext))
}

func sortByTime(ds *dataset.Dataset) (*dataset.Dataset, error) {
	t, ok := ds.Coord(TimeCoord)
	if !ok || t.IsText() {
		return nil, fmt.Errorf("stored dataset has no numeric '%s' coordinate", TimeCoord)
	}
	idx := make([]int, len(t.Data))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool { return t.Data[idx[a]] < t.Data[idx[b]] })
	return ds.Take(TimeCoord, idx), nil
}

func epoch(t time.Time) float64 {
	return float64(t.UnixNano()) / 1e9
}

func toTime(secs float64) time.Time {
	whole, frac := math.Modf(secs)
	return time.Unix(int64(whole), int64(frac*1e9)).UTC()
}

func jsonEncode(ds *dataset.Dataset) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetIndent("", "  ")
	if err := enc.Encode(ds); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func jsonDecode(data []byte) (*dataset.Dataset, error) {
	ds := dataset.New()
	if err := json.Unmarshal(data, ds); err != nil {
		return nil, err
	}
	return ds, nil
}
