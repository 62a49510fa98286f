package registry

import (
	"fmt"
	"strings"

	"github.com/vk/tsdat/internal/config"
)

// Validate checks that every classname referenced by the pipeline has a
// registered implementation, and that every converter, reader and storage
// can be built from its parameters.
func (r *Registry) Validate(p *config.Pipeline) error {
	var errs []string
	build := func(where string, err error) {
		if err != nil {
			errs = append(errs, fmt.Sprintf("%s: invalid configuration: %s", where, err))
		}
	}

	if p.Retriever != nil {
		if _, ok := r.retrievers[p.Retriever.Classname]; !ok {
			errs = append(errs, fmt.Sprintf("retriever: unknown classname '%s'", p.Retriever.Classname))
		}
		for _, rd := range p.Retriever.Readers {
			if _, ok := r.readers[rd.Classname]; !ok {
				errs = append(errs, fmt.Sprintf("reader '%s': unknown classname '%s'", rd.Pattern, rd.Classname))
				continue
			}
			_, err := r.NewReader(rd)
			build(fmt.Sprintf("reader '%s'", rd.Pattern), err)
		}
		check := func(kind string, vars []*config.RetrievedVariable) {
			for _, v := range vars {
				for _, s := range v.Sources {
					for _, c := range s.DataConverters {
						if _, ok := r.converters[c.Classname]; !ok {
							errs = append(errs, fmt.Sprintf("%s '%s', pattern '%s': unknown converter classname '%s'", kind, v.Name, s.Pattern, c.Classname))
							continue
						}
						_, err := r.NewConverter(c)
						build(fmt.Sprintf("%s '%s', pattern '%s'", kind, v.Name, s.Pattern), err)
					}
				}
			}
		}
		check("coord", p.Retriever.Coords)
		check("data_var", p.Retriever.DataVars)
	}
	if p.Storage != nil {
		if _, ok := r.storages[p.Storage.Classname]; !ok {
			errs = append(errs, fmt.Sprintf("storage: unknown classname '%s'", p.Storage.Classname))
		} else {
			_, err := r.NewStorage(p.Storage)
			build("storage", err)
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("registry validation failed:\n- %s", strings.Join(errs, "\n- "))
	}
	return nil
}
