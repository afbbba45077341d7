package jtdguard

import (
	"reflect"

	"github.com/reoring/jtdguard/jtd"
)

type bindingKind int

const (
	kindUnset bindingKind = iota
	kindStatic
	kindDynamic
)

// Binding associates a request property with a schema. Bindings are created
// with Static, Dynamic, StaticSchema or DynamicSchema; the zero value is
// rejected by Validate.
type Binding struct {
	kind      bindingKind
	property  string
	sample    any
	valueType reflect.Type
	schema    *jtd.Schema
	provider  func(Request) *jtd.Schema
	untyped   bool
}

// Property returns the bound request property name.
func (b Binding) Property() string { return b.property }

// Dynamic reports whether the schema is produced per request.
func (b Binding) Dynamic() bool { return b.kind == kindDynamic }

// Static binds property to a schema known at setup time. The sample pins T;
// it is never read at request time.
func Static[T any](property string, sample T, schema jtd.Typed[T]) Binding {
	return Binding{
		kind:      kindStatic,
		property:  property,
		sample:    sample,
		valueType: typeOf[T](),
		schema:    schema.Schema(),
	}
}

// Dynamic binds property to a schema computed from each request.
func Dynamic[T any](property string, sample T, provider func(Request) jtd.Typed[T]) Binding {
	b := Binding{
		kind:      kindDynamic,
		property:  property,
		sample:    sample,
		valueType: typeOf[T](),
	}
	if provider != nil {
		b.provider = func(r Request) *jtd.Schema { return provider(r).Schema() }
	}
	return b
}

// StaticSchema is the untyped form of Static, for schemas loaded at runtime.
// A non-nil sample must be accepted by schema; Validate rejects the binding
// otherwise.
func StaticSchema(property string, sample any, schema *jtd.Schema) Binding {
	return Binding{
		kind:      kindStatic,
		property:  property,
		sample:    sample,
		valueType: reflect.TypeOf(sample),
		schema:    schema,
		untyped:   true,
	}
}

// DynamicSchema is the untyped form of Dynamic.
func DynamicSchema(property string, sample any, provider func(Request) *jtd.Schema) Binding {
	return Binding{
		kind:      kindDynamic,
		property:  property,
		sample:    sample,
		valueType: reflect.TypeOf(sample),
		provider:  provider,
		untyped:   true,
	}
}

func typeOf[T any]() reflect.Type {
	return reflect.TypeOf((*T)(nil)).Elem()
}
