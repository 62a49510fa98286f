package config

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// Alignment positions a bin relative to its output coordinate value.
type Alignment string

const (
	AlignLeft   Alignment = "LEFT"
	AlignCenter Alignment = "CENTER"
	AlignRight  Alignment = "RIGHT"
)

// ParseAlignment normalizes an alignment value. Empty input yields CENTER.
func ParseAlignment(s string) (Alignment, error) {
	switch a := Alignment(strings.ToUpper(strings.TrimSpace(s))); a {
	case "":
		return AlignCenter, nil
	case AlignLeft, AlignCenter, AlignRight:
		return a, nil
	default:
		return "", fmt.Errorf("invalid alignment '%s': must be LEFT, CENTER or RIGHT", s)
	}
}

// TransformationParameters are per-coordinate defaults for transformation
// converters. Range and Width are in seconds.
type TransformationParameters struct {
	Range     map[string]float64
	Width     map[string]float64
	Alignment map[string]Alignment
}

// RangeFor returns the configured range for coord, or +Inf when unset.
func (t TransformationParameters) RangeFor(coord string) float64 {
	if r, ok := t.Range[coord]; ok {
		return r
	}
	return math.Inf(1)
}

// WidthFor returns the configured bin width for coord and whether one was set.
func (t TransformationParameters) WidthFor(coord string) (float64, bool) {
	w, ok := t.Width[coord]
	return w, ok
}

// AlignmentFor returns the configured alignment for coord, defaulting to CENTER.
func (t TransformationParameters) AlignmentFor(coord string) Alignment {
	if a, ok := t.Alignment[coord]; ok {
		return a
	}
	return AlignCenter
}

// ParseTransformationParameters reads the "transformation_parameters" entry
// of a retriever's free-form parameters.
func ParseTransformationParameters(params map[string]any) (TransformationParameters, error) {
	tp := TransformationParameters{
		Range:     make(map[string]float64),
		Width:     make(map[string]float64),
		Alignment: make(map[string]Alignment),
	}
	raw, ok := params["transformation_parameters"]
	if !ok || raw == nil {
		return tp, nil
	}
	section, ok := raw.(map[string]any)
	if !ok {
		return tp, fmt.Errorf("transformation_parameters must be a mapping, got %T", raw)
	}

	for _, key := range []string{"range", "width"} {
		entries, err := coordMap(section, key)
		if err != nil {
			return tp, err
		}
		target := tp.Range
		if key == "width" {
			target = tp.Width
		}
		for coord, v := range entries {
			secs, err := ParseSeconds(v)
			if err != nil {
				return tp, fmt.Errorf("transformation_parameters.%s.%s: %w", key, coord, err)
			}
			target[coord] = secs
		}
	}

	entries, err := coordMap(section, "alignment")
	if err != nil {
		return tp, err
	}
	for coord, v := range entries {
		s, ok := v.(string)
		if !ok {
			return tp, fmt.Errorf("transformation_parameters.alignment.%s: expected a string, got %T", coord, v)
		}
		a, err := ParseAlignment(s)
		if err != nil {
			return tp, fmt.Errorf("transformation_parameters.alignment.%s: %w", coord, err)
		}
		tp.Alignment[coord] = a
	}
	return tp, nil
}

func coordMap(section map[string]any, key string) (map[string]any, error) {
	raw, ok := section[key]
	if !ok || raw == nil {
		return nil, nil
	}
	m, ok := raw.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("transformation_parameters.%s must be a mapping of coordinate to value, got %T", key, raw)
	}
	return m, nil
}

// ParseSeconds converts a number of seconds or a duration string such as
// "900s", "15min", "1h" or "1D" into seconds.
func ParseSeconds(v any) (float64, error) {
	switch n := v.(type) {
	case int:
		return float64(n), nil
	case int64:
		return float64(n), nil
	case uint64:
		return float64(n), nil
	case float64:
		return n, nil
	case string:
		return parseDurationString(n)
	default:
		return 0, fmt.Errorf("expected seconds or a duration string, got %T", v)
	}
}

func parseDurationString(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f, nil
	}
	lower := strings.ReplaceAll(strings.ToLower(s), " ", "")
	for _, unit := range []struct {
		suffix string
		secs   float64
	}{
		{"days", 86400}, {"day", 86400}, {"d", 86400},
		{"min", 60}, {"t", 60},
	} {
		if strings.HasSuffix(lower, unit.suffix) {
			f, err := strconv.ParseFloat(strings.TrimSuffix(lower, unit.suffix), 64)
			if err == nil {
				return f * unit.secs, nil
			}
		}
	}
	d, err := time.ParseDuration(lower)
	if err != nil {
		return 0, fmt.Errorf("invalid duration '%s'", s)
	}
	return d.Seconds(), nil
}
