// Package jsonschema checks decoded response bodies against JSON Schemas.
package jsonschema

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

const resourceName = "schema.json"

// ValidationErrors represents a collection of validation errors
type ValidationErrors []error

// Error implements the error interface for ValidationErrors
func (ve ValidationErrors) Error() string {
	msgs := make([]string, 0, len(ve))
	for _, err := range ve {
		msgs = append(msgs, err.Error())
	}
	return strings.Join(msgs, "; ")
}

// Schema is a compiled JSON Schema
type Schema struct {
	compiled *jsonschema.Schema
}

// Compile compiles a schema given as JSON text ([]byte or string) or as a
// decoded value such as the map[string]any produced by a config loader.
func Compile(schema any) (*Schema, error) {
	var text string
	switch s := schema.(type) {
	case nil:
		return nil, errors.New("invalid schema: empty")
	case string:
		text = s
	case []byte:
		text = string(s)
	default:
		raw, err := json.Marshal(normalize(schema))
		if err != nil {
			return nil, fmt.Errorf("invalid schema: %w", err)
		}
		text = string(raw)
	}

	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(resourceName, strings.NewReader(text)); err != nil {
		return nil, fmt.Errorf("invalid schema: %w", err)
	}

	compiled, err := compiler.Compile(resourceName)
	if err != nil {
		return nil, fmt.Errorf("invalid schema: %w", err)
	}
	return &Schema{compiled: compiled}, nil
}

// Check validates an already decoded JSON value. It returns nil when the
// value conforms and ValidationErrors listing every failure otherwise.
func (s *Schema) Check(instance any) error {
	err := s.compiled.Validate(instance)
	if err == nil {
		return nil
	}

	var verr *jsonschema.ValidationError
	if errors.As(err, &verr) {
		if found := collect(verr); len(found) > 0 {
			return found
		}
	}
	return ValidationErrors{err}
}

// Validate validates a JSON string against a JSON Schema string.
func Validate(jsonStr, schemaStr string) error {
	schema, err := Compile(schemaStr)
	if err != nil {
		return err
	}

	var instance any
	if err := json.Unmarshal([]byte(jsonStr), &instance); err != nil {
		return fmt.Errorf("invalid JSON: %w", err)
	}
	return schema.Check(instance)
}

// collect flattens a validation error tree into its leaf messages
func collect(err *jsonschema.ValidationError) ValidationErrors {
	if len(err.Causes) == 0 {
		location := err.InstanceLocation
		if location == "" {
			location = "/"
		}
		return ValidationErrors{fmt.Errorf("validation error at %s: %s", location, err.Message)}
	}

	var out ValidationErrors
	for _, cause := range err.Causes {
		out = append(out, collect(cause)...)
	}
	return out
}

// normalize converts map[any]any values, which some YAML decoders emit,
// into map[string]any so the schema can be encoded as JSON.
func normalize(v any) any {
	switch t := v.(type) {
	case map[any]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[fmt.Sprint(k)] = normalize(val)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[k] = normalize(val)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = normalize(val)
		}
		return out
	default:
		return v
	}
}
