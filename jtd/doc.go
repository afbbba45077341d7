// Package jtd compiles JSON Type Definition schemas (RFC 8927) into Parsers.
//
// A Parser validates input and returns a freshly decoded value, or a Failure
// carrying the position and message of the first issue plus every Issue
// collected:
//
//	s, _ := jtd.ParseJSON([]byte(`{"properties":{"name":{"type":"string"}}}`))
//	p, err := jtd.NewCompiler(jtd.Options{}).Compile(s)
//	v, failure := p.ParseText([]byte(`{"name":"hello"}`))
//
// Schemas are checked for well-formedness at compile time; malformed ones are
// reported as *SchemaError (errors.Is(err, jtd.ErrInvalidSchema)).
//
// Typed[T] ties a schema to the Go type its values decode into. Of declares
// the relation, Infer derives the schema from T by reflection.
package jtd
