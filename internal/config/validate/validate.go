package validate

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// bootstrapSchema is the JSON schema for the bootstrap configuration file.
// Every section is optional; present sections are type-checked so a typo
// fails loading instead of silently keeping a default.
const bootstrapSchema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "additionalProperties": false,
  "properties": {
    "packages": {
      "type": "object",
      "additionalProperties": false,
      "properties": {
        "required": {"type": "array", "items": {"type": "string", "minLength": 1}}
      }
    },
    "interpreter": {
      "type": "object",
      "additionalProperties": false,
      "properties": {
        "binary": {"type": "string", "minLength": 1},
        "minVersion": {"type": "string", "pattern": "^[0-9]+(\\.[0-9]+){0,2}$"}
      }
    },
    "repository": {
      "type": "object",
      "additionalProperties": false,
      "properties": {
        "name": {"type": "string", "minLength": 1},
        "keyUrl": {"type": "string", "pattern": "^https://"},
        "url": {"type": "string", "pattern": "^https://"},
        "component": {"type": "string", "minLength": 1}
      }
    },
    "runtime": {
      "type": "object",
      "additionalProperties": false,
      "properties": {
        "preferred": {"type": "array", "items": {"type": "string", "minLength": 1}},
        "fallback": {"type": "string", "minLength": 1},
        "service": {"type": "string", "minLength": 1},
        "probe": {"type": "string", "minLength": 1}
      }
    },
    "release": {
      "type": "object",
      "additionalProperties": false,
      "properties": {
        "urlTemplate": {"type": "string", "pattern": "^https://"},
        "version": {"type": "string", "minLength": 1}
      }
    },
    "tool": {
      "type": "object",
      "additionalProperties": false,
      "properties": {
        "binary": {"type": "string", "minLength": 1},
        "installPath": {"type": "string", "minLength": 1},
        "installArgs": {"type": "array", "items": {"type": "string", "minLength": 1}},
        "fallbackConfigKey": {"type": "string", "minLength": 1}
      }
    },
    "output": {
      "type": "object",
      "additionalProperties": false,
      "properties": {
        "subdir": {"type": "string", "minLength": 1},
        "filename": {"type": "string", "minLength": 1}
      }
    }
  }
}`

// ValidateAgainstSchema validates JSON data against the given schema. The
// optional ref selects a sub-schema within the compiled document.
func ValidateAgainstSchema(name string, schema []byte, data []byte, ref string) error {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(name, bytes.NewReader(schema)); err != nil {
		return fmt.Errorf("failed to add schema resource %s: %w", name, err)
	}

	location := name
	if ref != "" {
		location = name + ref
	}
	compiled, err := compiler.Compile(location)
	if err != nil {
		return fmt.Errorf("failed to compile schema %s: %w", location, err)
	}

	var doc interface{}
	if err := json.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("invalid JSON document: %w", err)
	}

	if err := compiled.Validate(doc); err != nil {
		return fmt.Errorf("schema validation failed: %w", err)
	}
	return nil
}

// ValidateBootstrapJSON validates a bootstrap configuration document.
func ValidateBootstrapJSON(data []byte) error {
	return ValidateAgainstSchema("bootstrap-config.json", []byte(bootstrapSchema), data, "")
}
