package jtd

import (
	"fmt"
	"reflect"
	"strings"
	"time"
)

var timeType = reflect.TypeOf(time.Time{})

// Infer derives a schema describing values of type T.
//
// Structs map to the properties form keyed by ResolveStructKey; fields tagged
// omitempty become optional properties. Pointers are nullable, slices and
// arrays map to elements, maps with string keys to values, time.Time to
// timestamp and interfaces to the empty form. Integer kinds without a JTD
// counterpart (int, int64, uint, uint64) map to float64. Recursive types are
// rejected.
func Infer[T any]() (Typed[T], error) {
	var zero T
	rt := reflect.TypeOf(&zero).Elem()
	s, err := inferType(rt, map[reflect.Type]bool{})
	if err != nil {
		return Typed[T]{}, err
	}
	return Of[T](s), nil
}

// MustInfer is like Infer but panics on error.
func MustInfer[T any]() Typed[T] {
	t, err := Infer[T]()
	if err != nil {
		panic(err)
	}
	return t
}

func inferType(rt reflect.Type, visiting map[reflect.Type]bool) (*Schema, error) {
	if rt == timeType {
		return &Schema{Type: TypeTimestamp}, nil
	}
	switch rt.Kind() {
	case reflect.Bool:
		return &Schema{Type: TypeBoolean}, nil
	case reflect.String:
		return &Schema{Type: TypeString}, nil
	case reflect.Int8:
		return &Schema{Type: TypeInt8}, nil
	case reflect.Int16:
		return &Schema{Type: TypeInt16}, nil
	case reflect.Int32:
		return &Schema{Type: TypeInt32}, nil
	case reflect.Uint8:
		return &Schema{Type: TypeUint8}, nil
	case reflect.Uint16:
		return &Schema{Type: TypeUint16}, nil
	case reflect.Uint32:
		return &Schema{Type: TypeUint32}, nil
	case reflect.Float32:
		return &Schema{Type: TypeFloat32}, nil
	case reflect.Int, reflect.Int64, reflect.Uint, reflect.Uint64, reflect.Float64:
		return &Schema{Type: TypeFloat64}, nil
	case reflect.Interface:
		return &Schema{}, nil
	case reflect.Pointer:
		s, err := inferType(rt.Elem(), visiting)
		if err != nil {
			return nil, err
		}
		s.Nullable = true
		return s, nil
	case reflect.Slice, reflect.Array:
		if rt.Elem().Kind() == reflect.Uint8 {
			// go-json encodes byte slices as base64 strings.
			return &Schema{Type: TypeString}, nil
		}
		el, err := inferType(rt.Elem(), visiting)
		if err != nil {
			return nil, err
		}
		return &Schema{Elements: el}, nil
	case reflect.Map:
		if rt.Key().Kind() != reflect.String {
			return nil, &SchemaError{Message: fmt.Sprintf("cannot infer schema for map key type %s", rt.Key())}
		}
		v, err := inferType(rt.Elem(), visiting)
		if err != nil {
			return nil, err
		}
		return &Schema{Values: v}, nil
	case reflect.Struct:
		return inferStruct(rt, visiting)
	}
	return nil, &SchemaError{Message: fmt.Sprintf("cannot infer schema for %s", rt)}
}

func inferStruct(rt reflect.Type, visiting map[reflect.Type]bool) (*Schema, error) {
	if visiting[rt] {
		return nil, &SchemaError{Message: fmt.Sprintf("recursive type %s is not supported", rt)}
	}
	visiting[rt] = true
	defer delete(visiting, rt)

	s := &Schema{Properties: map[string]*Schema{}}
	if err := inferFields(rt, s, visiting); err != nil {
		return nil, err
	}
	if len(s.OptionalProperties) == 0 {
		s.OptionalProperties = nil
	}
	return s, nil
}

func inferFields(rt reflect.Type, s *Schema, visiting map[reflect.Type]bool) error {
	for i := 0; i < rt.NumField(); i++ {
		sf := rt.Field(i)
		name := ResolveStructKey(sf)
		if name == "-" {
			continue
		}
		if sf.Anonymous && sf.Tag.Get("json") == "" {
			et := sf.Type
			if et.Kind() == reflect.Pointer {
				et = et.Elem()
			}
			if et.Kind() == reflect.Struct {
				if err := inferFields(et, s, visiting); err != nil {
					return err
				}
				continue
			}
		}
		if !sf.IsExported() {
			continue
		}
		fs, err := inferType(sf.Type, visiting)
		if err != nil {
			return fmt.Errorf("field %s: %w", sf.Name, err)
		}
		if hasOmitEmpty(sf) {
			if s.OptionalProperties == nil {
				s.OptionalProperties = map[string]*Schema{}
			}
			s.OptionalProperties[name] = fs
			continue
		}
		s.Properties[name] = fs
	}
	return nil
}

// ResolveStructKey resolves a struct field's external key.
// Priority: jtd:"name=..." > json tag name > field name; "-" disables the field.
func ResolveStructKey(sf reflect.StructField) string {
	if gt := sf.Tag.Get("jtd"); gt != "" {
		for _, p := range strings.Split(gt, ",") {
			p = strings.TrimSpace(p)
			if strings.HasPrefix(p, "name=") {
				return strings.TrimPrefix(p, "name=")
			}
		}
	}
	if jt := sf.Tag.Get("json"); jt != "" {
		if jt == "-" {
			return "-"
		}
		if i := strings.IndexByte(jt, ','); i >= 0 {
			if i == 0 {
				return sf.Name
			}
			return jt[:i]
		}
		return jt
	}
	return sf.Name
}

func hasOmitEmpty(sf reflect.StructField) bool {
	jt := sf.Tag.Get("json")
	i := strings.IndexByte(jt, ',')
	if i < 0 {
		return false
	}
	for _, opt := range strings.Split(jt[i+1:], ",") {
		if opt == "omitempty" || opt == "omitzero" {
			return true
		}
	}
	return false
}
