package jtd

import j "github.com/goccy/go-json"

// DefaultMaxDepth bounds nesting and ref recursion when Options.MaxDepth is 0.
const DefaultMaxDepth = 64

// Options configures a Compiler and every Parser it produces.
type Options struct {
	// Timestamps decodes values of type "timestamp" into time.Time instead of
	// keeping the RFC 3339 string.
	Timestamps bool
	// UseNumber keeps numbers as json.Number instead of float64.
	UseNumber bool
	// RejectDuplicateKeys reports duplicate object keys in JSON text input.
	RejectDuplicateKeys bool
	// MaxDepth bounds instance nesting and ref recursion (0 = DefaultMaxDepth).
	MaxDepth int
	// FailFast stops at the first issue instead of collecting all of them.
	FailFast bool
}

func (o Options) maxDepth() int {
	if o.MaxDepth <= 0 {
		return DefaultMaxDepth
	}
	return o.MaxDepth
}

// Compiler turns schemas into Parsers. A Compiler is immutable and safe for
// concurrent use.
type Compiler struct {
	opts Options
}

// NewCompiler returns a Compiler applying opts to every Parser it builds.
func NewCompiler(opts Options) *Compiler {
	return &Compiler{opts: opts}
}

// Options returns the options the compiler was built with.
func (c *Compiler) Options() Options { return c.opts }

// Compile checks s for well-formedness and builds a reusable Parser.
// Malformed schemas yield a *SchemaError.
func (c *Compiler) Compile(s *Schema) (*Parser, error) {
	if err := Check(s); err != nil {
		return nil, err
	}
	b := &builder{defs: make(map[string]*node, len(s.Definitions))}
	// Allocate definition nodes first so recursive refs can point at them.
	for name := range s.Definitions {
		b.defs[name] = &node{}
	}
	for name, def := range s.Definitions {
		b.fill(b.defs[name], def, "/definitions/"+escapeToken(name))
	}
	root := &node{}
	b.fill(root, s, "")
	return &Parser{root: root, opts: c.opts}, nil
}

// MustCompile is like Compile but panics on error.
func (c *Compiler) MustCompile(s *Schema) *Parser {
	p, err := c.Compile(s)
	if err != nil {
		panic(err)
	}
	return p
}

type field struct {
	name string
	node *node
}

// node is the compiled form of a checked Schema.
type node struct {
	form       Form
	nullable   bool
	schemaPath string

	ref      *node
	typ      Type
	enum     map[string]struct{}
	elements *node

	required   []field // sorted by name
	optional   []field // sorted by name
	known      map[string]struct{}
	additional bool

	values *node

	discriminator string
	mapping       map[string]*node
}

type builder struct {
	defs map[string]*node
}

func (b *builder) fill(n *node, s *Schema, path string) {
	n.form = s.Form()
	n.nullable = s.Nullable
	n.schemaPath = path
	switch n.form {
	case FormRef:
		n.ref = b.defs[*s.Ref]
	case FormType:
		n.typ = s.Type
	case FormEnum:
		n.enum = make(map[string]struct{}, len(s.Enum))
		for _, e := range s.Enum {
			n.enum[e] = struct{}{}
		}
	case FormElements:
		n.elements = b.child(s.Elements, path+"/elements")
	case FormProperties:
		n.additional = s.AdditionalProperties
		n.known = make(map[string]struct{}, len(s.Properties)+len(s.OptionalProperties))
		for _, k := range sortedKeys(s.Properties) {
			n.required = append(n.required, field{name: k, node: b.child(s.Properties[k], path+"/properties/"+escapeToken(k))})
			n.known[k] = struct{}{}
		}
		for _, k := range sortedKeys(s.OptionalProperties) {
			n.optional = append(n.optional, field{name: k, node: b.child(s.OptionalProperties[k], path+"/optionalProperties/"+escapeToken(k))})
			n.known[k] = struct{}{}
		}
	case FormValues:
		n.values = b.child(s.Values, path+"/values")
	case FormDiscriminator:
		n.discriminator = s.Discriminator
		n.mapping = make(map[string]*node, len(s.Mapping))
		for tag, m := range s.Mapping {
			n.mapping[tag] = b.child(m, path+"/mapping/"+escapeToken(tag))
		}
	}
}

func (b *builder) child(s *Schema, path string) *node {
	n := &node{}
	b.fill(n, s, path)
	return n
}

// Parser validates and decodes input against a compiled schema. A Parser is
// immutable and safe for concurrent use.
type Parser struct {
	root *node
	opts Options
}

// ParseValue validates structured input (maps, slices and scalars as
// produced by a JSON decoder). Other Go values are normalized through a JSON
// round trip first; json.RawMessage input is parsed as JSON text. The
// returned value never aliases the input.
func (p *Parser) ParseValue(in any) (any, *Failure) {
	if raw, ok := in.(j.RawMessage); ok {
		return p.ParseText(raw)
	}
	norm, err := normalize(in)
	if err != nil {
		return nil, newFailure(Issues{{Code: CodeParseError, Message: err.Error(), Offset: -1}})
	}
	return p.run(norm)
}

// ParseText decodes JSON text and validates the result.
func (p *Parser) ParseText(data []byte) (any, *Failure) {
	if p.opts.RejectDuplicateKeys {
		if iss := detectDuplicateKeys(data, p.opts.maxDepth()); len(iss) > 0 {
			return nil, newFailure(iss)
		}
	}
	in, iss := decodeText(data)
	if len(iss) > 0 {
		return nil, newFailure(iss)
	}
	return p.run(in)
}

// Validate reports the issues found in structured input, or nil.
func (p *Parser) Validate(in any) error {
	if _, f := p.ParseValue(in); f != nil {
		return f.Issues
	}
	return nil
}

func (p *Parser) run(in any) (any, *Failure) {
	w := &walker{opts: p.opts, maxDepth: p.opts.maxDepth()}
	out := w.visit(p.root, in, nil, 0)
	if len(w.issues) > 0 {
		return nil, newFailure(w.issues)
	}
	return out, nil
}
