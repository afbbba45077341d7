package jtd

import (
	"math"
	"strconv"
	"strings"

	j "github.com/goccy/go-json"

	"github.com/reoring/jtdguard/i18n"
)

// walker runs one validation pass and builds the decoded output alongside.
type walker struct {
	opts     Options
	maxDepth int
	issues   Issues
}

func (w *walker) stopped() bool { return w.opts.FailFast && len(w.issues) > 0 }

func (w *walker) report(path []string, n *node, suffix, code string, data map[string]string) {
	if w.stopped() {
		return
	}
	w.issues = append(w.issues, Issue{
		Path:       pointer(path),
		SchemaPath: n.schemaPath + suffix,
		Code:       code,
		Message:    i18n.T(code, data),
		Offset:     -1,
	})
}

func (w *walker) visit(n *node, in any, path []string, depth int) any {
	if w.stopped() {
		return nil
	}
	if depth > w.maxDepth {
		w.report(path, n, "", CodeTooDeep, nil)
		return nil
	}
	if n.nullable && in == nil {
		return nil
	}
	switch n.form {
	case FormEmpty:
		return w.clone(in)
	case FormRef:
		return w.visit(n.ref, in, path, depth+1)
	case FormType:
		return w.visitType(n, in, path)
	case FormEnum:
		s, ok := in.(string)
		if !ok {
			w.report(path, n, "/enum", CodeInvalidType, map[string]string{"expected": "string"})
			return nil
		}
		if _, ok := n.enum[s]; !ok {
			w.report(path, n, "/enum", CodeInvalidEnum, map[string]string{"value": s})
			return nil
		}
		return s
	case FormElements:
		arr, ok := in.([]any)
		if !ok {
			w.report(path, n, "/elements", CodeInvalidType, map[string]string{"expected": "array"})
			return nil
		}
		out := make([]any, len(arr))
		for i, el := range arr {
			out[i] = w.visit(n.elements, el, appendToken(path, strconv.Itoa(i)), depth+1)
		}
		return out
	case FormProperties:
		obj, ok := in.(map[string]any)
		if !ok {
			suffix := "/properties"
			if len(n.required) == 0 && n.optional != nil {
				suffix = "/optionalProperties"
			}
			w.report(path, n, suffix, CodeInvalidType, map[string]string{"expected": "object"})
			return nil
		}
		return w.visitProperties(n, obj, path, depth, "")
	case FormValues:
		obj, ok := in.(map[string]any)
		if !ok {
			w.report(path, n, "/values", CodeInvalidType, map[string]string{"expected": "object"})
			return nil
		}
		out := make(map[string]any, len(obj))
		for _, k := range sortedKeys(obj) {
			out[k] = w.visit(n.values, obj[k], appendToken(path, k), depth+1)
		}
		return out
	case FormDiscriminator:
		return w.visitDiscriminator(n, in, path, depth)
	}
	return nil
}

func (w *walker) visitProperties(n *node, obj map[string]any, path []string, depth int, tagKey string) any {
	out := make(map[string]any, len(obj))
	for _, f := range n.required {
		v, ok := obj[f.name]
		if !ok {
			w.report(path, n, "/properties/"+escapeToken(f.name), CodeRequired, map[string]string{"key": f.name})
			continue
		}
		out[f.name] = w.visit(f.node, v, appendToken(path, f.name), depth+1)
	}
	for _, f := range n.optional {
		if v, ok := obj[f.name]; ok {
			out[f.name] = w.visit(f.node, v, appendToken(path, f.name), depth+1)
		}
	}
	for _, k := range sortedKeys(obj) {
		if _, ok := n.known[k]; ok {
			continue
		}
		if k == tagKey {
			out[k] = obj[k]
			continue
		}
		if !n.additional {
			w.report(appendToken(path, k), n, "", CodeUnknownKey, map[string]string{"key": k})
			continue
		}
		out[k] = w.clone(obj[k])
	}
	return out
}

func (w *walker) visitDiscriminator(n *node, in any, path []string, depth int) any {
	obj, ok := in.(map[string]any)
	if !ok {
		w.report(path, n, "/discriminator", CodeInvalidType, map[string]string{"expected": "object"})
		return nil
	}
	raw, ok := obj[n.discriminator]
	if !ok {
		w.report(path, n, "/discriminator", CodeDiscriminatorMissing, map[string]string{"key": n.discriminator})
		return nil
	}
	tag, ok := raw.(string)
	if !ok {
		w.report(appendToken(path, n.discriminator), n, "/discriminator", CodeInvalidType, map[string]string{"expected": "string"})
		return nil
	}
	m, ok := n.mapping[tag]
	if !ok {
		w.report(appendToken(path, n.discriminator), n, "/mapping", CodeDiscriminatorUnknown, map[string]string{"value": tag})
		return nil
	}
	return w.visitProperties(m, obj, path, depth, n.discriminator)
}

func (w *walker) visitType(n *node, in any, path []string) any {
	expected := map[string]string{"expected": string(n.typ)}
	switch n.typ {
	case TypeBoolean:
		b, ok := in.(bool)
		if !ok {
			w.report(path, n, "/type", CodeInvalidType, expected)
			return nil
		}
		return b
	case TypeString:
		s, ok := in.(string)
		if !ok {
			w.report(path, n, "/type", CodeInvalidType, expected)
			return nil
		}
		return s
	case TypeTimestamp:
		s, ok := in.(string)
		if !ok {
			w.report(path, n, "/type", CodeInvalidType, expected)
			return nil
		}
		t, err := ParseTimestamp(s)
		if err != nil {
			w.report(path, n, "/type", CodeInvalidFormat, map[string]string{"format": "RFC 3339 timestamp"})
			return nil
		}
		if w.opts.Timestamps {
			return t
		}
		return s
	}

	f, ok := numberOf(in)
	if !ok {
		w.report(path, n, "/type", CodeInvalidType, map[string]string{"expected": "number"})
		return nil
	}
	if math.IsInf(f, 0) || math.IsNaN(f) {
		w.report(path, n, "/type", CodeOverflow, expected)
		return nil
	}
	switch n.typ {
	case TypeFloat32, TypeFloat64:
		// Any finite number; float32 is not range checked.
	default:
		lo, hi := intRange(n.typ)
		if f != math.Trunc(f) {
			w.report(path, n, "/type", CodeInvalidType, expected)
			return nil
		}
		if f < lo || f > hi {
			w.report(path, n, "/type", CodeOverflow, expected)
			return nil
		}
	}
	return w.number(in, f)
}

func intRange(t Type) (float64, float64) {
	switch t {
	case TypeInt8:
		return math.MinInt8, math.MaxInt8
	case TypeUint8:
		return 0, math.MaxUint8
	case TypeInt16:
		return math.MinInt16, math.MaxInt16
	case TypeUint16:
		return 0, math.MaxUint16
	case TypeInt32:
		return math.MinInt32, math.MaxInt32
	default: // TypeUint32
		return 0, math.MaxUint32
	}
}

// numberOf extracts a float64 from a normalized number.
func numberOf(in any) (float64, bool) {
	switch t := in.(type) {
	case float64:
		return t, true
	case j.Number:
		f, err := strconv.ParseFloat(string(t), 64)
		if err != nil {
			// ParseFloat reports range errors with ±Inf, which the caller treats as overflow.
			if ne, ok := err.(*strconv.NumError); ok && ne.Err == strconv.ErrRange {
				return f, true
			}
			return 0, false
		}
		return f, true
	}
	return 0, false
}

func (w *walker) number(in any, f float64) any {
	if !w.opts.UseNumber {
		return f
	}
	if n, ok := in.(j.Number); ok {
		return n
	}
	return j.Number(strconv.FormatFloat(f, 'g', -1, 64))
}

// clone deep-copies a normalized value, applying number options.
func (w *walker) clone(in any) any {
	switch t := in.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, v := range t {
			out[k] = w.clone(v)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, v := range t {
			out[i] = w.clone(v)
		}
		return out
	case float64, j.Number:
		f, ok := numberOf(t)
		if !ok {
			return t
		}
		return w.number(t, f)
	default:
		return t
	}
}

func appendToken(path []string, tok string) []string {
	return append(path[:len(path):len(path)], tok)
}

// pointer renders path tokens as a JSON Pointer ("" for the root).
func pointer(path []string) string {
	if len(path) == 0 {
		return ""
	}
	b := &strings.Builder{}
	for _, tok := range path {
		b.WriteByte('/')
		b.WriteString(escapeToken(tok))
	}
	return b.String()
}
