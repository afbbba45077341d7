// Package bindfile loads request bindings declared in a YAML (or JSON) file.
//
//	bindings:
//	  - property: body
//	    sample: {name: ""}
//	    schema: {properties: {name: {type: string}}}
//	routes:
//	  - method: POST
//	    path: /users/{id}
//	    bindings:
//	      - property: body
//	        select:
//	          header: x-tenant
//	          schemas: {acme: {...}}
//	          default: {...}
//
// A binding carries either a fixed schema or a select block choosing the
// schema per request from a header, query or path parameter.
package bindfile

import (
	"errors"
	"fmt"
	"maps"
	"net/http"
	"os"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/reoring/jtdguard"
	"github.com/reoring/jtdguard/jtd"
)

// ErrInvalid marks a malformed bindings file.
var ErrInvalid = errors.New("invalid bindings file")

// File is the decoded bindings file.
type File struct {
	Bindings []BindingSpec `yaml:"bindings"`
	Routes   []RouteSpec   `yaml:"routes"`
}

// RouteSpec binds a method and path pattern to its bindings.
type RouteSpec struct {
	Method   string        `yaml:"method"`
	Path     string        `yaml:"path"`
	Bindings []BindingSpec `yaml:"bindings"`
}

// BindingSpec declares one request property binding.
type BindingSpec struct {
	Property string         `yaml:"property"`
	Sample   any            `yaml:"sample"`
	Schema   map[string]any `yaml:"schema"`
	Select   *SelectSpec    `yaml:"select"`
}

// SelectSpec picks a schema per request. Exactly one of Header, Query or
// Param names the selector; Default is used when the selector value has no
// entry in Schemas.
type SelectSpec struct {
	Header  string                    `yaml:"header"`
	Query   string                    `yaml:"query"`
	Param   string                    `yaml:"param"`
	Schemas map[string]map[string]any `yaml:"schemas"`
	Default map[string]any            `yaml:"default"`
}

var methods = map[string]bool{
	http.MethodGet: true, http.MethodHead: true, http.MethodPost: true,
	http.MethodPut: true, http.MethodPatch: true, http.MethodDelete: true,
	http.MethodOptions: true, http.MethodConnect: true, http.MethodTrace: true,
}

// Load reads and parses the bindings file at path.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read bindings file: %w", err)
	}
	return Parse(data)
}

// Parse decodes a bindings document.
func Parse(data []byte) (*File, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	for i := range f.Routes {
		r := &f.Routes[i]
		r.Method = strings.ToUpper(strings.TrimSpace(r.Method))
		if !methods[r.Method] || !strings.HasPrefix(r.Path, "/") {
			return nil, fmt.Errorf("%w: route %d needs an HTTP method and a path starting with /", ErrInvalid, i)
		}
	}
	return &f, nil
}

// Build converts the top-level bindings.
func (f *File) Build() ([]jtdguard.Binding, error) {
	return buildAll(f.Bindings)
}

// Build converts the route's bindings.
func (r RouteSpec) Build() ([]jtdguard.Binding, error) {
	out, err := buildAll(r.Bindings)
	if err != nil {
		return nil, fmt.Errorf("route %s %s: %w", r.Method, r.Path, err)
	}
	return out, nil
}

func buildAll(specs []BindingSpec) ([]jtdguard.Binding, error) {
	out := make([]jtdguard.Binding, 0, len(specs))
	for _, s := range specs {
		b, err := s.Binding()
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, nil
}

// Binding converts the entry into a jtdguard.Binding. Schemas are loaded
// here. A schema binding is checked when the bindings are validated; select
// candidates are compiled and checked against the sample now, since the
// builder only sees them per request.
func (s BindingSpec) Binding() (jtdguard.Binding, error) {
	if s.Property == "" {
		return jtdguard.Binding{}, fmt.Errorf("%w: binding without property", ErrInvalid)
	}
	if (s.Schema == nil) == (s.Select == nil) {
		return jtdguard.Binding{}, fmt.Errorf("%w: binding %q needs exactly one of schema or select", ErrInvalid, s.Property)
	}
	sample := jtd.YAMLNormalize(s.Sample)
	if s.Schema != nil {
		schema, err := jtd.FromMap(jtd.YAMLToStringMap(s.Schema))
		if err != nil {
			return jtdguard.Binding{}, fmt.Errorf("binding %q: %w", s.Property, err)
		}
		return jtdguard.StaticSchema(s.Property, sample, schema), nil
	}
	sel, err := s.Select.compile()
	if err != nil {
		return jtdguard.Binding{}, fmt.Errorf("binding %q: %w", s.Property, err)
	}
	if err := sel.check(s.Property, sample); err != nil {
		return jtdguard.Binding{}, err
	}
	return jtdguard.DynamicSchema(s.Property, sample, sel.schemaFor), nil
}

// check compiles every candidate schema and runs sample through it.
func (sel *selector) check(property string, sample any) error {
	c := jtd.NewCompiler(jtd.Options{})
	try := func(label string, schema *jtd.Schema) error {
		p, err := c.Compile(schema)
		if err != nil {
			return &jtdguard.ConfigError{Property: property, Phase: jtdguard.PhaseBuild, Message: label, Cause: err}
		}
		if sample == nil {
			return nil
		}
		if _, f := p.ParseValue(sample); f != nil {
			return &jtdguard.ConfigError{Property: property, Phase: jtdguard.PhaseBuild, Message: "sample rejected by " + label, Cause: f}
		}
		return nil
	}
	for _, name := range slices.Sorted(maps.Keys(sel.schemas)) {
		if err := try(fmt.Sprintf("select %q", name), sel.schemas[name]); err != nil {
			return err
		}
	}
	return try("select default", sel.fallback)
}

// selector is a compiled SelectSpec.
type selector struct {
	property string
	key      string
	schemas  map[string]*jtd.Schema
	fallback *jtd.Schema
}

func (s *SelectSpec) compile() (*selector, error) {
	sel := &selector{schemas: make(map[string]*jtd.Schema, len(s.Schemas))}
	n := 0
	if s.Header != "" {
		sel.property, sel.key = "headers", strings.ToLower(s.Header)
		n++
	}
	if s.Query != "" {
		sel.property, sel.key = "query", s.Query
		n++
	}
	if s.Param != "" {
		sel.property, sel.key = "params", s.Param
		n++
	}
	if n != 1 {
		return nil, fmt.Errorf("%w: select needs exactly one of header, query or param", ErrInvalid)
	}
	if s.Default == nil {
		return nil, fmt.Errorf("%w: select needs a default schema", ErrInvalid)
	}
	for name, m := range s.Schemas {
		schema, err := jtd.FromMap(jtd.YAMLToStringMap(m))
		if err != nil {
			return nil, fmt.Errorf("select %q: %w", name, err)
		}
		sel.schemas[name] = schema
	}
	fallback, err := jtd.FromMap(jtd.YAMLToStringMap(s.Default))
	if err != nil {
		return nil, fmt.Errorf("select default: %w", err)
	}
	sel.fallback = fallback
	return sel, nil
}

func (sel *selector) schemaFor(r jtdguard.Request) *jtd.Schema {
	raw, _ := r.Lookup(sel.property)
	if m, ok := raw.(map[string]any); ok {
		if v, ok := m[sel.key].(string); ok {
			if s, ok := sel.schemas[v]; ok {
				return s
			}
		}
	}
	return sel.fallback
}
