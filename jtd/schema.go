package jtd

import j "github.com/goccy/go-json"

// Type names the primitive types of the "type" form.
type Type string

const (
	TypeBoolean   Type = "boolean"
	TypeString    Type = "string"
	TypeTimestamp Type = "timestamp"
	TypeFloat32   Type = "float32"
	TypeFloat64   Type = "float64"
	TypeInt8      Type = "int8"
	TypeUint8     Type = "uint8"
	TypeInt16     Type = "int16"
	TypeUint16    Type = "uint16"
	TypeInt32     Type = "int32"
	TypeUint32    Type = "uint32"
)

// Form enumerates the eight mutually exclusive schema forms.
type Form int

const (
	FormEmpty Form = iota
	FormRef
	FormType
	FormEnum
	FormElements
	FormProperties
	FormValues
	FormDiscriminator
)

var formNames = [...]string{"empty", "ref", "type", "enum", "elements", "properties", "values", "discriminator"}

func (f Form) String() string {
	if f < 0 || int(f) >= len(formNames) {
		return "unknown"
	}
	return formNames[f]
}

// Schema is a JSON Type Definition document or sub-schema.
type Schema struct {
	Definitions          map[string]*Schema `json:"definitions,omitempty" yaml:"definitions,omitempty"`
	Metadata             map[string]any     `json:"metadata,omitempty" yaml:"metadata,omitempty"`
	Nullable             bool               `json:"nullable,omitempty" yaml:"nullable,omitempty"`
	Ref                  *string            `json:"ref,omitempty" yaml:"ref,omitempty"`
	Type                 Type               `json:"type,omitempty" yaml:"type,omitempty"`
	Enum                 []string           `json:"enum,omitempty" yaml:"enum,omitempty"`
	Elements             *Schema            `json:"elements,omitempty" yaml:"elements,omitempty"`
	Properties           map[string]*Schema `json:"properties,omitempty" yaml:"properties,omitempty"`
	OptionalProperties   map[string]*Schema `json:"optionalProperties,omitempty" yaml:"optionalProperties,omitempty"`
	AdditionalProperties bool               `json:"additionalProperties,omitempty" yaml:"additionalProperties,omitempty"`
	Values               *Schema            `json:"values,omitempty" yaml:"values,omitempty"`
	Discriminator        string             `json:"discriminator,omitempty" yaml:"discriminator,omitempty"`
	Mapping              map[string]*Schema `json:"mapping,omitempty" yaml:"mapping,omitempty"`
}

// MarshalJSON writes only the keywords present on s. Empty properties,
// optionalProperties and mapping members are kept since they select a form.
func (s Schema) MarshalJSON() ([]byte, error) {
	out := map[string]any{}
	if s.Definitions != nil {
		out["definitions"] = s.Definitions
	}
	if len(s.Metadata) > 0 {
		out["metadata"] = s.Metadata
	}
	if s.Nullable {
		out["nullable"] = true
	}
	if s.Ref != nil {
		out["ref"] = *s.Ref
	}
	if s.Type != "" {
		out["type"] = s.Type
	}
	if s.Enum != nil {
		out["enum"] = s.Enum
	}
	if s.Elements != nil {
		out["elements"] = s.Elements
	}
	if s.Properties != nil {
		out["properties"] = s.Properties
	}
	if s.OptionalProperties != nil {
		out["optionalProperties"] = s.OptionalProperties
	}
	if s.AdditionalProperties {
		out["additionalProperties"] = true
	}
	if s.Values != nil {
		out["values"] = s.Values
	}
	if s.Discriminator != "" {
		out["discriminator"] = s.Discriminator
	}
	if s.Mapping != nil {
		out["mapping"] = s.Mapping
	}
	return j.Marshal(out)
}

// forms lists every form keyword present on s. A well-formed schema has at
// most one.
func (s *Schema) forms() []Form {
	var fs []Form
	if s.Ref != nil {
		fs = append(fs, FormRef)
	}
	if s.Type != "" {
		fs = append(fs, FormType)
	}
	if s.Enum != nil {
		fs = append(fs, FormEnum)
	}
	if s.Elements != nil {
		fs = append(fs, FormElements)
	}
	if s.Properties != nil || s.OptionalProperties != nil {
		fs = append(fs, FormProperties)
	}
	if s.Values != nil {
		fs = append(fs, FormValues)
	}
	if s.Discriminator != "" || s.Mapping != nil {
		fs = append(fs, FormDiscriminator)
	}
	return fs
}

// Form reports the form of s. Schemas carrying more than one form keyword
// report the first one found; Check rejects them.
func (s *Schema) Form() Form {
	if fs := s.forms(); len(fs) > 0 {
		return fs[0]
	}
	return FormEmpty
}

// Typed pins the Go type T that values accepted by the wrapped schema decode
// into. The type parameter has no runtime effect.
type Typed[T any] struct {
	s *Schema
}

// Of declares that s describes values of type T.
func Of[T any](s *Schema) Typed[T] { return Typed[T]{s: s} }

// OfJSON parses a JSON schema document and declares that it describes values
// of type T.
func OfJSON[T any](data []byte) (Typed[T], error) {
	s, err := ParseJSON(data)
	if err != nil {
		return Typed[T]{}, err
	}
	return Of[T](s), nil
}

// Schema returns the wrapped schema (nil for the zero Typed).
func (t Typed[T]) Schema() *Schema { return t.s }

// Ptr returns a pointer to s; handy for the Ref field.
func Ptr(s string) *string { return &s }
