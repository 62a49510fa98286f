package registry

import (
	"bytes"
	"fmt"

	"gopkg.in/yaml.v3"
)

// DecodeParameters binds free-form configuration parameters onto target, a
// pointer to a struct with yaml tags. Unknown parameter names are an error.
func DecodeParameters(params map[string]any, target any) error {
	if len(params) == 0 {
		return nil
	}
	raw, err := yaml.Marshal(params)
	if err != nil {
		return fmt.Errorf("failed to encode parameters: %w", err)
	}
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	if err := dec.Decode(target); err != nil {
		return fmt.Errorf("invalid parameters: %w", err)
	}
	return nil
}
