package jtd

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	j "github.com/goccy/go-json"
	"gopkg.in/yaml.v3"
)

// ParseJSON decodes a JSON schema document. Unknown keywords are rejected.
// The result is not checked for well-formedness; Compile does that.
func ParseJSON(data []byte) (*Schema, error) {
	dec := j.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	var s *Schema
	if err := dec.Decode(&s); err != nil {
		return nil, &SchemaError{Message: "cannot decode schema", Cause: err}
	}
	if dec.More() {
		return nil, &SchemaError{Message: "unexpected data after schema"}
	}
	if s == nil {
		return nil, &SchemaError{Message: "schema is null"}
	}
	return s, nil
}

// ParseYAML decodes a YAML schema document (the first document of the stream).
func ParseYAML(data []byte) (*Schema, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	var node any
	if err := dec.Decode(&node); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, &SchemaError{Message: "empty YAML document"}
		}
		return nil, &SchemaError{Message: "cannot decode YAML schema", Cause: err}
	}
	m := YAMLToStringMap(node)
	if m == nil {
		return nil, &SchemaError{Message: fmt.Sprintf("YAML schema must be a mapping, got %T", node)}
	}
	return FromMap(m)
}

// FromMap converts a decoded JSON-like map into a Schema.
func FromMap(m map[string]any) (*Schema, error) {
	if m == nil {
		return nil, &SchemaError{Message: "schema is null"}
	}
	b, err := j.Marshal(m)
	if err != nil {
		return nil, &SchemaError{Message: "cannot encode schema map", Cause: err}
	}
	return ParseJSON(b)
}

// YAMLToStringMap converts YAML-decoded values (which may contain map[any]any)
// into JSON-like map[string]any recursively. Non-map roots return nil.
func YAMLToStringMap(v any) map[string]any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, vv := range t {
			out[k] = YAMLNormalize(vv)
		}
		return out
	case map[any]any:
		out := make(map[string]any, len(t))
		for k, vv := range t {
			ks, ok := k.(string)
			if !ok {
				ks = fmt.Sprint(k)
			}
			out[ks] = YAMLNormalize(vv)
		}
		return out
	default:
		return nil
	}
}

// YAMLNormalize rewrites nested YAML maps into map[string]any.
func YAMLNormalize(v any) any {
	switch t := v.(type) {
	case map[string]any, map[any]any:
		return YAMLToStringMap(t)
	case []any:
		arr := make([]any, len(t))
		for i := range t {
			arr[i] = YAMLNormalize(t[i])
		}
		return arr
	default:
		return v
	}
}
