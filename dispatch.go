package jtdguard

import (
	"bytes"
	"context"
	"log/slog"

	j "github.com/goccy/go-json"

	"github.com/reoring/jtdguard/i18n"
	"github.com/reoring/jtdguard/jtd"
)

const codePropertyMissing = "property_missing"

// Dispatcher validates requests against a fixed, ordered set of compiled
// validators. It is safe for concurrent use.
type Dispatcher struct {
	validators    []compiledValidator
	compiler      Compiler
	preSerialized bool
	logger        *slog.Logger
}

// Properties lists the bound properties in dispatch order.
func (d *Dispatcher) Properties() []string {
	out := make([]string, len(d.validators))
	for i, cv := range d.validators {
		out[i] = cv.property
	}
	return out
}

// Dispatch validates every bound property of req, stores parsed values in
// req's Parsed slot and then calls next exactly once: with nil when all
// properties passed, or with a *ValidationError listing the failures.
//
// A dynamic schema that is nil or malformed is a *ConfigError; it is returned
// and next is not called.
func (d *Dispatcher) Dispatch(req Request, next NextFunc) error {
	var fields []FieldError
	for i := range d.validators {
		cv := &d.validators[i]
		raw, ok := req.Lookup(cv.property)
		if !ok || raw == nil {
			fields = append(fields, FieldError{
				Property: cv.property,
				Message:  i18n.T(codePropertyMissing, map[string]string{"property": cv.property}),
			})
			continue
		}
		parser, err := d.resolve(cv, req)
		if err != nil {
			return err
		}
		value, failure := d.parse(parser, raw)
		if failure != nil {
			fields = append(fields, FieldError{
				Property: cv.property,
				Message:  failure.String(),
				Issues:   failure.Issues,
			})
			continue
		}
		parsed := req.Parsed()
		if parsed == nil {
			parsed = Parsed{}
			req.SetParsed(parsed)
		}
		parsed[cv.property] = value
	}

	if next == nil {
		next = func(error) {}
	}
	if verr := newValidationError(fields); verr != nil {
		if d.logger.Enabled(context.Background(), slog.LevelDebug) {
			d.logger.Debug("request rejected", slog.Any("properties", verr.Properties()))
		}
		next(verr)
		return nil
	}
	next(nil)
	return nil
}

func (d *Dispatcher) resolve(cv *compiledValidator, req Request) (Parser, error) {
	if !cv.dynamic {
		return cv.parser, nil
	}
	s := cv.provider(req)
	if s == nil {
		return nil, &ConfigError{Property: cv.property, Phase: PhaseDispatch, Message: "schema provider returned nil"}
	}
	p, err := compile(d.compiler, s)
	if err != nil {
		return nil, &ConfigError{Property: cv.property, Phase: PhaseDispatch, Cause: err}
	}
	return p, nil
}

func (d *Dispatcher) parse(p Parser, raw any) (any, *jtd.Failure) {
	if !d.preSerialized {
		return p.ParseValue(raw)
	}
	text, err := canonicalText(raw)
	if err != nil {
		msg := i18n.T(jtd.CodeParseError, nil) + ": " + err.Error()
		return nil, &jtd.Failure{
			Position: "/",
			Message:  msg,
			Issues:   jtd.Issues{{Code: jtd.CodeParseError, Message: msg, Offset: -1}},
		}
	}
	return p.ParseText(text)
}

// canonicalText serializes raw to compact JSON text. Raw JSON is compacted;
// other values are marshaled with sorted map keys. Raw JSON that does not
// compact is returned unchanged so the parser reports the syntax error.
func canonicalText(raw any) ([]byte, error) {
	msg, ok := raw.(j.RawMessage)
	if !ok {
		return j.Marshal(raw)
	}
	buf := &bytes.Buffer{}
	if err := j.Compact(buf, msg); err != nil {
		return msg, nil
	}
	return buf.Bytes(), nil
}
