package jtdguard

import (
	"errors"
	"fmt"

	j "github.com/goccy/go-json"
)

// ErrNotParsed is returned by Get when the property has no parsed value.
var ErrNotParsed = errors.New("property not parsed")

// Get returns the parsed value of property as T. Values already of type T are
// returned directly; others (for example map[string]any for a struct T) are
// converted through a JSON round trip.
func Get[T any](p Parsed, property string) (T, error) {
	var out T
	v, ok := p[property]
	if !ok {
		return out, fmt.Errorf("jtdguard: %q: %w", property, ErrNotParsed)
	}
	if t, ok := v.(T); ok {
		return t, nil
	}
	b, err := j.Marshal(v)
	if err != nil {
		return out, fmt.Errorf("jtdguard: %q: encode parsed value: %w", property, err)
	}
	if err := j.Unmarshal(b, &out); err != nil {
		return out, fmt.Errorf("jtdguard: %q: decode into %T: %w", property, out, err)
	}
	return out, nil
}

// MustGet is like Get but panics on error.
func MustGet[T any](p Parsed, property string) T {
	v, err := Get[T](p, property)
	if err != nil {
		panic(err)
	}
	return v
}
