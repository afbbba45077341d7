package jtd_test

import (
	"errors"
	"testing"

	json "github.com/goccy/go-json"

	"github.com/reoring/jtdguard/jtd"
)

func TestCompile_RejectsMalformedSchemas(t *testing.T) {
	str := &jtd.Schema{Type: jtd.TypeString}
	cases := []struct {
		name string
		s    *jtd.Schema
	}{
		{"nil", nil},
		{"mixed forms", &jtd.Schema{Type: jtd.TypeString, Enum: []string{"a"}}},
		{"unknown type", &jtd.Schema{Type: "int64"}},
		{"empty enum", &jtd.Schema{Enum: []string{}}},
		{"duplicate enum", &jtd.Schema{Enum: []string{"a", "a"}}},
		{"undefined ref", &jtd.Schema{Ref: jtd.Ptr("missing")}},
		{"nested definitions", &jtd.Schema{Elements: &jtd.Schema{Definitions: map[string]*jtd.Schema{"x": str}}}},
		{"overlapping properties", &jtd.Schema{
			Properties:         map[string]*jtd.Schema{"a": str},
			OptionalProperties: map[string]*jtd.Schema{"a": str},
		}},
		{"additionalProperties without properties", &jtd.Schema{Type: jtd.TypeString, AdditionalProperties: true}},
		{"discriminator without mapping", &jtd.Schema{Discriminator: "kind"}},
		{"mapping without discriminator", &jtd.Schema{Mapping: map[string]*jtd.Schema{"a": {Properties: map[string]*jtd.Schema{}}}}},
		{"mapping value not properties", &jtd.Schema{Discriminator: "kind", Mapping: map[string]*jtd.Schema{"a": str}}},
		{"nullable mapping value", &jtd.Schema{Discriminator: "kind", Mapping: map[string]*jtd.Schema{
			"a": {Nullable: true, Properties: map[string]*jtd.Schema{}},
		}}},
		{"mapping redeclares tag", &jtd.Schema{Discriminator: "kind", Mapping: map[string]*jtd.Schema{
			"a": {Properties: map[string]*jtd.Schema{"kind": str}},
		}}},
		{"null child", &jtd.Schema{Elements: nil, Values: nil, Properties: map[string]*jtd.Schema{"a": nil}}},
	}
	c := jtd.NewCompiler(jtd.Options{})
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p, err := c.Compile(tc.s)
			if err == nil {
				t.Fatalf("expected compile error, got parser %v", p)
			}
			if !errors.Is(err, jtd.ErrInvalidSchema) {
				t.Fatalf("expected ErrInvalidSchema, got %v", err)
			}
			var se *jtd.SchemaError
			if !errors.As(err, &se) {
				t.Fatalf("expected *SchemaError, got %T", err)
			}
		})
	}
}

func TestCompile_AcceptsEveryForm(t *testing.T) {
	str := &jtd.Schema{Type: jtd.TypeString}
	root := &jtd.Schema{
		Definitions: map[string]*jtd.Schema{"name": str},
		Properties: map[string]*jtd.Schema{
			"empty":    {},
			"ref":      {Ref: jtd.Ptr("name")},
			"enum":     {Enum: []string{"a", "b"}},
			"elements": {Elements: str},
			"values":   {Values: str},
			"union": {Discriminator: "kind", Mapping: map[string]*jtd.Schema{
				"a": {Properties: map[string]*jtd.Schema{"x": str}},
			}},
		},
		OptionalProperties:   map[string]*jtd.Schema{"opt": {Type: jtd.TypeInt32, Nullable: true}},
		AdditionalProperties: true,
	}
	if _, err := jtd.NewCompiler(jtd.Options{}).Compile(root); err != nil {
		t.Fatalf("unexpected compile error: %v", err)
	}
}

func TestSchema_Form(t *testing.T) {
	cases := map[jtd.Form]*jtd.Schema{
		jtd.FormEmpty:         {},
		jtd.FormRef:           {Ref: jtd.Ptr("x")},
		jtd.FormType:          {Type: jtd.TypeBoolean},
		jtd.FormEnum:          {Enum: []string{"a"}},
		jtd.FormElements:      {Elements: &jtd.Schema{}},
		jtd.FormProperties:    {OptionalProperties: map[string]*jtd.Schema{}},
		jtd.FormValues:        {Values: &jtd.Schema{}},
		jtd.FormDiscriminator: {Discriminator: "k", Mapping: map[string]*jtd.Schema{}},
	}
	for want, s := range cases {
		if got := s.Form(); got != want {
			t.Fatalf("Form() = %s, want %s", got, want)
		}
	}
}

func TestParseJSON_RejectsUnknownKeyword(t *testing.T) {
	_, err := jtd.ParseJSON([]byte(`{"type":"string","minLength":3}`))
	if !errors.Is(err, jtd.ErrInvalidSchema) {
		t.Fatalf("expected ErrInvalidSchema for unknown keyword, got %v", err)
	}
}

func TestParseJSON_Null(t *testing.T) {
	if _, err := jtd.ParseJSON([]byte(`null`)); !errors.Is(err, jtd.ErrInvalidSchema) {
		t.Fatalf("expected ErrInvalidSchema for null schema, got %v", err)
	}
}

func TestParseYAML(t *testing.T) {
	doc := []byte(`
properties:
  firstName: {type: string}
  tags:
    elements: {type: string}
optionalProperties:
  age: {type: uint8}
`)
	s, err := jtd.ParseYAML(doc)
	if err != nil {
		t.Fatalf("ParseYAML: %v", err)
	}
	if s.Form() != jtd.FormProperties {
		t.Fatalf("expected properties form, got %s", s.Form())
	}
	if s.Properties["firstName"].Type != jtd.TypeString {
		t.Fatalf("unexpected firstName schema: %+v", s.Properties["firstName"])
	}
	if s.Properties["tags"].Elements == nil {
		t.Fatalf("expected elements for tags")
	}
	if s.OptionalProperties["age"].Type != jtd.TypeUint8 {
		t.Fatalf("unexpected age schema: %+v", s.OptionalProperties["age"])
	}
}

func TestParseYAML_NonMapping(t *testing.T) {
	if _, err := jtd.ParseYAML([]byte("- a\n- b\n")); !errors.Is(err, jtd.ErrInvalidSchema) {
		t.Fatalf("expected ErrInvalidSchema, got %v", err)
	}
}

func TestFromMap(t *testing.T) {
	s, err := jtd.FromMap(map[string]any{
		"properties": map[string]any{"name": map[string]any{"type": "string"}},
	})
	if err != nil {
		t.Fatalf("FromMap: %v", err)
	}
	if s.Properties["name"].Type != jtd.TypeString {
		t.Fatalf("unexpected schema: %+v", s)
	}
}

func TestOfJSON(t *testing.T) {
	type named struct {
		Name string `json:"name"`
	}
	typed, err := jtd.OfJSON[named]([]byte(`{"properties":{"name":{"type":"string"}}}`))
	if err != nil {
		t.Fatalf("OfJSON: %v", err)
	}
	if typed.Schema() == nil || typed.Schema().Form() != jtd.FormProperties {
		t.Fatalf("unexpected typed schema: %+v", typed.Schema())
	}
}

func TestSchema_MarshalKeepsEmptyForms(t *testing.T) {
	for _, s := range []*jtd.Schema{
		{Properties: map[string]*jtd.Schema{}},
		{Discriminator: "kind", Mapping: map[string]*jtd.Schema{}},
		{Elements: &jtd.Schema{OptionalProperties: map[string]*jtd.Schema{}}, Nullable: true},
	} {
		b, err := json.Marshal(s)
		if err != nil {
			t.Fatalf("Marshal: %v", err)
		}
		back, err := jtd.ParseJSON(b)
		if err != nil {
			t.Fatalf("ParseJSON(%s): %v", b, err)
		}
		if back.Form() != s.Form() {
			t.Fatalf("form changed: %s -> %s (%s)", s.Form(), back.Form(), b)
		}
	}
}
