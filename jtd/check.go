package jtd

import (
	"fmt"
	"sort"
	"strings"
)

var validTypes = map[Type]struct{}{
	TypeBoolean: {}, TypeString: {}, TypeTimestamp: {},
	TypeFloat32: {}, TypeFloat64: {},
	TypeInt8: {}, TypeUint8: {}, TypeInt16: {}, TypeUint16: {}, TypeInt32: {}, TypeUint32: {},
}

// Check reports whether root is a well-formed JSON Type Definition
// (RFC 8927 section 2.2). The returned error is a *SchemaError.
func Check(root *Schema) error {
	if root == nil {
		return &SchemaError{Message: "schema is nil"}
	}
	for _, name := range sortedKeys(root.Definitions) {
		def := root.Definitions[name]
		if err := checkNode(root, def, "/definitions/"+escapeToken(name)); err != nil {
			return err
		}
	}
	return checkNode(root, root, "")
}

func checkNode(root, s *Schema, path string) error {
	if s == nil {
		return &SchemaError{Path: path, Message: "schema is null"}
	}
	if s != root && s.Definitions != nil {
		return &SchemaError{Path: path + "/definitions", Message: "definitions are only allowed at the root"}
	}
	fs := s.forms()
	if len(fs) > 1 {
		names := make([]string, len(fs))
		for i, f := range fs {
			names[i] = f.String()
		}
		return &SchemaError{Path: path, Message: "schema mixes forms: " + strings.Join(names, ", ")}
	}
	form := FormEmpty
	if len(fs) == 1 {
		form = fs[0]
	}
	if s.AdditionalProperties && form != FormProperties {
		return &SchemaError{Path: path + "/additionalProperties", Message: "only allowed with properties"}
	}

	switch form {
	case FormRef:
		if _, ok := root.Definitions[*s.Ref]; !ok {
			return &SchemaError{Path: path + "/ref", Message: fmt.Sprintf("undefined definition %q", *s.Ref)}
		}
	case FormType:
		if _, ok := validTypes[s.Type]; !ok {
			return &SchemaError{Path: path + "/type", Message: fmt.Sprintf("unknown type %q", s.Type)}
		}
	case FormEnum:
		if len(s.Enum) == 0 {
			return &SchemaError{Path: path + "/enum", Message: "enum must not be empty"}
		}
		seen := make(map[string]struct{}, len(s.Enum))
		for _, e := range s.Enum {
			if _, dup := seen[e]; dup {
				return &SchemaError{Path: path + "/enum", Message: fmt.Sprintf("duplicate enum value %q", e)}
			}
			seen[e] = struct{}{}
		}
	case FormElements:
		return checkNode(root, s.Elements, path+"/elements")
	case FormProperties:
		for _, k := range sortedKeys(s.Properties) {
			if _, dup := s.OptionalProperties[k]; dup {
				return &SchemaError{Path: path + "/optionalProperties/" + escapeToken(k), Message: "property is also required"}
			}
			if err := checkNode(root, s.Properties[k], path+"/properties/"+escapeToken(k)); err != nil {
				return err
			}
		}
		for _, k := range sortedKeys(s.OptionalProperties) {
			if err := checkNode(root, s.OptionalProperties[k], path+"/optionalProperties/"+escapeToken(k)); err != nil {
				return err
			}
		}
	case FormValues:
		return checkNode(root, s.Values, path+"/values")
	case FormDiscriminator:
		return checkDiscriminator(root, s, path)
	}
	return nil
}

func checkDiscriminator(root, s *Schema, path string) error {
	if s.Discriminator == "" {
		return &SchemaError{Path: path, Message: "mapping requires discriminator"}
	}
	if s.Mapping == nil {
		return &SchemaError{Path: path, Message: "discriminator requires mapping"}
	}
	for _, tag := range sortedKeys(s.Mapping) {
		p := path + "/mapping/" + escapeToken(tag)
		m := s.Mapping[tag]
		if m == nil {
			return &SchemaError{Path: p, Message: "schema is null"}
		}
		if m.Form() != FormProperties {
			return &SchemaError{Path: p, Message: "mapping values must be of the properties form"}
		}
		if m.Nullable {
			return &SchemaError{Path: p, Message: "mapping values must not be nullable"}
		}
		_, inReq := m.Properties[s.Discriminator]
		_, inOpt := m.OptionalProperties[s.Discriminator]
		if inReq || inOpt {
			return &SchemaError{Path: p, Message: fmt.Sprintf("mapping redeclares discriminator %q", s.Discriminator)}
		}
		if err := checkNode(root, m, p); err != nil {
			return err
		}
	}
	return nil
}

func sortedKeys[V any](m map[string]V) []string {
	if len(m) == 0 {
		return nil
	}
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

var tokenEscaper = strings.NewReplacer("~", "~0", "/", "~1")

// escapeToken escapes a JSON Pointer reference token.
func escapeToken(s string) string { return tokenEscaper.Replace(s) }
