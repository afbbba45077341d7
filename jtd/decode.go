package jtd

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strconv"
	"time"

	j "github.com/goccy/go-json"

	"github.com/reoring/jtdguard/i18n"
)

// decodeText decodes a single JSON value, keeping numbers as json.Number.
func decodeText(data []byte) (any, Issues) {
	dec := j.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, Issues{syntaxIssue(err)}
	}
	if dec.More() {
		return nil, Issues{{Code: CodeParseError, Message: i18n.T(CodeParseError, nil) + ": unexpected data after JSON value", Offset: -1}}
	}
	return v, nil
}

func syntaxIssue(err error) Issue {
	iss := Issue{Code: CodeParseError, Message: i18n.T(CodeParseError, nil) + ": " + err.Error(), Offset: -1}
	var se *j.SyntaxError
	if errors.As(err, &se) {
		iss.Offset = se.Offset
	}
	if errors.Is(err, io.EOF) {
		iss.Message = i18n.T(CodeParseError, nil) + ": empty input"
		iss.Offset = 0
	}
	return iss
}

// normalize rewrites arbitrary Go values into the JSON-like shapes the walker
// understands: map[string]any, []any, string, bool, nil, float64 and
// json.Number.
func normalize(in any) (any, error) {
	switch t := in.(type) {
	case nil, bool, string, float64, j.Number:
		return t, nil
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, v := range t {
			nv, err := normalize(v)
			if err != nil {
				return nil, err
			}
			out[k] = nv
		}
		return out, nil
	case []any:
		out := make([]any, len(t))
		for i, v := range t {
			nv, err := normalize(v)
			if err != nil {
				return nil, err
			}
			out[i] = nv
		}
		return out, nil
	case j.RawMessage:
		v, iss := decodeText(t)
		if len(iss) > 0 {
			return nil, iss
		}
		return v, nil
	case float32:
		return float64(t), nil
	case int:
		return j.Number(strconv.FormatInt(int64(t), 10)), nil
	case int8:
		return j.Number(strconv.FormatInt(int64(t), 10)), nil
	case int16:
		return j.Number(strconv.FormatInt(int64(t), 10)), nil
	case int32:
		return j.Number(strconv.FormatInt(int64(t), 10)), nil
	case int64:
		return j.Number(strconv.FormatInt(t, 10)), nil
	case uint:
		return j.Number(strconv.FormatUint(uint64(t), 10)), nil
	case uint8:
		return j.Number(strconv.FormatUint(uint64(t), 10)), nil
	case uint16:
		return j.Number(strconv.FormatUint(uint64(t), 10)), nil
	case uint32:
		return j.Number(strconv.FormatUint(uint64(t), 10)), nil
	case uint64:
		return j.Number(strconv.FormatUint(t, 10)), nil
	case time.Time:
		return FormatTimestamp(t), nil
	}
	return roundTrip(in)
}

// roundTrip encodes v with go-json and decodes it back into JSON-like shapes.
func roundTrip(v any) (any, error) {
	b, err := j.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("cannot encode %T as JSON: %w", v, err)
	}
	out, iss := decodeText(b)
	if len(iss) > 0 {
		return nil, iss
	}
	return out, nil
}

type dupFrame struct {
	object       bool
	keys         map[string]struct{}
	expectingKey bool
	key          string
	index        int
}

// detectDuplicateKeys scans JSON text and reports the first duplicate object
// key. Syntax errors are left to the decoder.
func detectDuplicateKeys(data []byte, maxDepth int) Issues {
	dec := j.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var stack []dupFrame

	beginValue := func() {
		if n := len(stack); n > 0 && !stack[n-1].object {
			stack[n-1].index++
		}
	}
	endValue := func() {
		if n := len(stack); n > 0 && stack[n-1].object {
			stack[n-1].expectingKey = true
		}
	}
	path := func(key string) string {
		toks := make([]string, 0, len(stack))
		for i := 0; i < len(stack)-1; i++ {
			if stack[i].object {
				toks = append(toks, stack[i].key)
			} else {
				toks = append(toks, strconv.Itoa(stack[i].index))
			}
		}
		return pointer(append(toks, key))
	}

	for {
		tok, err := dec.Token()
		if err != nil {
			// io.EOF or a syntax error; decodeText reports the latter.
			return nil
		}
		switch v := tok.(type) {
		case j.Delim:
			switch v {
			case '{', '[':
				beginValue()
				if len(stack) >= maxDepth {
					return Issues{{Code: CodeTooDeep, Message: i18n.T(CodeTooDeep, nil), Offset: -1}}
				}
				stack = append(stack, dupFrame{object: v == '{', keys: map[string]struct{}{}, expectingKey: v == '{', index: -1})
			case '}', ']':
				if len(stack) > 0 {
					stack = stack[:len(stack)-1]
				}
				endValue()
			}
		case string:
			if n := len(stack); n > 0 && stack[n-1].object && stack[n-1].expectingKey {
				top := &stack[n-1]
				if _, dup := top.keys[v]; dup {
					return Issues{{
						Path:    path(v),
						Code:    CodeDuplicateKey,
						Message: i18n.T(CodeDuplicateKey, map[string]string{"key": v}),
						Offset:  -1,
					}}
				}
				top.keys[v] = struct{}{}
				top.key = v
				top.expectingKey = false
				continue
			}
			beginValue()
			endValue()
		default:
			beginValue()
			endValue()
		}
	}
}
