package config

import (
	"fmt"
	"strings"
)

// Validate performs structural checks that span the retriever and dataset
// sections of a pipeline. All problems are reported together.
func Validate(p *Pipeline) error {
	var errs []string
	if p.Retriever == nil {
		errs = append(errs, "pipeline has no retriever")
	} else {
		errs = append(errs, validateRetriever(p.Retriever)...)
	}
	if p.Retriever != nil && p.Dataset != nil {
		errs = append(errs, crossCheck(p.Retriever, p.Dataset)...)
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n- %s", strings.Join(errs, "\n- "))
	}
	return nil
}

func validateRetriever(r *RetrieverConfig) []string {
	var errs []string
	if r.Classname == "" {
		errs = append(errs, "retriever: classname is required")
	}
	seen := make(map[string]string)
	check := func(kind string, vars []*RetrievedVariable) {
		for _, v := range vars {
			if prev, dup := seen[v.Name]; dup {
				errs = append(errs, fmt.Sprintf("%s '%s': name already used by a %s", kind, v.Name, prev))
			}
			seen[v.Name] = kind
			if len(v.Sources) == 0 {
				errs = append(errs, fmt.Sprintf("%s '%s': no source patterns", kind, v.Name))
			}
			for _, s := range v.Sources {
				if s.Name == "" {
					errs = append(errs, fmt.Sprintf("%s '%s', pattern '%s': source name is required", kind, v.Name, s.Pattern))
				}
				for i, c := range s.DataConverters {
					if c.Classname == "" {
						errs = append(errs, fmt.Sprintf("%s '%s', pattern '%s': data_converters[%d] has no classname", kind, v.Name, s.Pattern, i))
					}
				}
			}
		}
	}
	check("coord", r.Coords)
	check("data_var", r.DataVars)

	for _, rd := range r.Readers {
		if rd.Classname == "" {
			errs = append(errs, fmt.Sprintf("reader '%s': classname is required", rd.Pattern))
		}
	}
	return errs
}

func crossCheck(r *RetrieverConfig, d *DatasetDefinition) []string {
	var errs []string
	for _, c := range r.Coords {
		def, ok := d.Variable(c.Name)
		if !ok {
			errs = append(errs, fmt.Sprintf("coord '%s' is retrieved but not defined in the dataset", c.Name))
			continue
		}
		if !def.IsCoordinate() {
			errs = append(errs, fmt.Sprintf("coord '%s' is retrieved as a coordinate but its definition is dimensioned by %v", c.Name, def.Dims))
		}
	}
	for _, v := range r.DataVars {
		if _, ok := d.Variable(v.Name); !ok {
			errs = append(errs, fmt.Sprintf("data_var '%s' is retrieved but not defined in the dataset", v.Name))
		}
	}
	for _, def := range d.Coords {
		if _, ok := r.Coord(def.Name); !ok && !def.IsPredefined() && !def.HasInput() {
			errs = append(errs, fmt.Sprintf("coord '%s' is not retrieved and has no input or predefined data", def.Name))
		}
	}
	return errs
}
