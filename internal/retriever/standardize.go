package retriever

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/vk/tsdat/internal/config"
	"github.com/vk/tsdat/internal/ctxlog"
	"github.com/vk/tsdat/internal/dataset"
)

// standardize conforms a retrieved dataset to its definition: dataset and
// variable attributes are merged in, dimensions are renamed to the declared
// ones, numeric data is cast to the declared type and missing values become
// the variable's fill value.
func standardize(ctx context.Context, ds *dataset.Dataset, def *config.DatasetDefinition) (*dataset.Dataset, error) {
	logger := ctxlog.FromContext(ctx)
	if def != nil {
		for k, v := range def.Attrs {
			ds.Attrs[k] = v
		}
		if datastream := def.Datastream(); datastream != "" {
			ds.Attrs["datastream"] = datastream
		}
	}

	var errs []string
	for _, v := range append(append([]*dataset.Variable(nil), ds.Coords()...), ds.DataVars()...) {
		vd, ok := def.Variable(v.Name)
		if !ok {
			logger.Debug("Variable has no definition, keeping it as retrieved.", "variable", v.Name)
			continue
		}
		if err := conform(v, vd); err != nil {
			errs = append(errs, err.Error())
		}
	}
	if len(errs) > 0 {
		return nil, fmt.Errorf("standardization failed:\n- %s", strings.Join(errs, "\n- "))
	}
	if err := ds.Validate(); err != nil {
		return nil, err
	}
	return ds, nil
}

func conform(v *dataset.Variable, vd *config.VariableDefinition) error {
	for k, a := range vd.Attrs {
		v.Attrs[k] = a
	}
	if len(vd.Dims) > 0 {
		if len(v.Dims) != len(vd.Dims) {
			return fmt.Errorf("variable '%s': has dims %v but is defined with %v", v.Name, v.Dims, vd.Dims)
		}
		v.Dims = vd.CoordinateNames()
	}

	switch {
	case vd.Type.IsText():
		if !v.IsText() {
			v.Strings = make([]string, len(v.Data))
			for i, x := range v.Data {
				if !math.IsNaN(x) {
					v.Strings[i] = strconv.FormatFloat(x, 'g', -1, 64)
				}
			}
			v.Data = nil
		}
	case v.IsText():
		return fmt.Errorf("variable '%s': text data cannot be stored as %s; add a converter that parses it", v.Name, vd.Type)
	default:
		fill := vd.FillValue()
		for i, x := range v.Data {
			if math.IsNaN(x) {
				v.Data[i] = fill
				continue
			}
			v.Data[i] = vd.Type.Cast(x)
		}
		if !vd.IsCoordinate() {
			v.Attrs["_FillValue"] = fill
		}
	}
	return nil
}
