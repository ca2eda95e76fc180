// Package jsonutil is the JSON front door for the tool's data interchange:
// run manifests, report payloads and anything else serialized as JSON goes
// through Encode/Decode so error context stays uniform.
package jsonutil

import (
	"encoding/json"
	"fmt"
)

// Encode serializes v to compact JSON. Struct fields are emitted in
// declaration order and map keys are sorted, so output for a given value is
// deterministic.
func Encode(v any) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("unable to encode value to JSON: %w", err)
	}
	return data, nil
}

// EncodeIndent serializes v to indented JSON, used for artifacts meant to be
// read by humans (debug report manifests and the like).
func EncodeIndent(v any) ([]byte, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("unable to encode value to JSON: %w", err)
	}
	return data, nil
}

// Decode parses data into a value of type T, binding T's method set to the
// decoded top level. Nested untyped containers stay plain data
// (map[string]any, []any). Malformed input surfaces the underlying codec's
// error wrapped with context, so errors.As against json error types still
// works.
func Decode[T any](data []byte) (T, error) {
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return v, fmt.Errorf("unable to decode JSON: %w", err)
	}
	return v, nil
}
