package yamlconfig

import (
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// retrieverSchema is the JSON Schema every retriever document must satisfy.
const retrieverSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["classname"],
  "additionalProperties": false,
  "properties": {
    "classname": {"type": "string", "minLength": 1},
    "parameters": {
      "type": ["object", "null"],
      "properties": {
        "transformation_parameters": {
          "type": ["object", "null"],
          "additionalProperties": false,
          "properties": {
            "range": {"$ref": "#/definitions/coordValues"},
            "width": {"$ref": "#/definitions/coordValues"},
            "alignment": {
              "type": ["object", "null"],
              "additionalProperties": {"enum": ["LEFT", "CENTER", "RIGHT", "left", "center", "right"]}
            }
          }
        }
      }
    },
    "readers": {
      "type": ["object", "null"],
      "additionalProperties": {"$ref": "#/definitions/classSpec"}
    },
    "coords": {"$ref": "#/definitions/variables"},
    "data_vars": {"$ref": "#/definitions/variables"}
  },
  "definitions": {
    "coordValues": {
      "type": ["object", "null"],
      "additionalProperties": {"type": ["integer", "number", "string"]}
    },
    "classSpec": {
      "type": "object",
      "required": ["classname"],
      "properties": {
        "classname": {"type": "string", "minLength": 1},
        "parameters": {"type": ["object", "null"]}
      }
    },
    "variables": {
      "type": ["object", "null"],
      "additionalProperties": {
        "type": "object",
        "minProperties": 1,
        "additionalProperties": {"$ref": "#/definitions/source"}
      }
    },
    "source": {
      "type": "object",
      "required": ["name"],
      "additionalProperties": false,
      "properties": {
        "name": {"type": "string", "minLength": 1},
        "data_converters": {
          "type": ["array", "null"],
          "items": {
            "type": "object",
            "required": ["classname"],
            "properties": {"classname": {"type": "string", "minLength": 1}}
          }
        }
      }
    }
  }
}`

var retrieverSchemaLoader = gojsonschema.NewStringLoader(retrieverSchema)

// validateRetrieverDocument checks a decoded retriever document against
// retrieverSchema.
func validateRetrieverDocument(doc map[string]any) error {
	result, err := gojsonschema.Validate(retrieverSchemaLoader, gojsonschema.NewGoLoader(doc))
	if err != nil {
		return fmt.Errorf("failed to validate retriever config: %w", err)
	}
	if result.Valid() {
		return nil
	}
	msgs := make([]string, 0, len(result.Errors()))
	for _, e := range result.Errors() {
		msgs = append(msgs, e.String())
	}
	return fmt.Errorf("retriever config does not match schema:\n- %s", strings.Join(msgs, "\n- "))
}
