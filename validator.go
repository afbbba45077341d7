package jtdguard

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"reflect"

	"github.com/reoring/jtdguard/jtd"
)

// Validator owns a schema compiler and builds Dispatchers from bindings.
type Validator struct {
	cfg      *config
	compiler Compiler
}

// New constructs a Validator. The compiler handle is created once here and
// shared read-only by every Dispatcher the Validator builds.
func New(opts ...Option) (*Validator, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt(cfg); err != nil {
			return nil, err
		}
	}
	comp := cfg.compiler
	if comp == nil {
		comp = NewCompiler(cfg.compilerOpts)
	}
	return &Validator{cfg: cfg, compiler: comp}, nil
}

// PreSerialized reports whether Dispatchers parse canonical JSON text.
func (v *Validator) PreSerialized() bool { return v.cfg.preSerialized }

// compiledValidator is one materialized binding, replayed per request.
type compiledValidator struct {
	property  string
	dynamic   bool
	parser    Parser
	provider  func(Request) *jtd.Schema
	valueType reflect.Type
}

// Validate compiles static bindings and returns a Dispatcher that checks the
// bound properties in argument order. A malformed static schema or an invalid
// binding is reported as a *ConfigError.
func (v *Validator) Validate(bindings ...Binding) (*Dispatcher, error) {
	validators := make([]compiledValidator, 0, len(bindings))
	seen := make(map[string]bool, len(bindings))
	for i, b := range bindings {
		cv, err := v.compileBinding(i, b)
		if err != nil {
			return nil, err
		}
		if seen[cv.property] {
			return nil, &ConfigError{Property: cv.property, Phase: PhaseBuild, Message: "duplicate binding"}
		}
		seen[cv.property] = true
		validators = append(validators, cv)
	}

	logger := v.cfg.logger
	if logger.Enabled(context.Background(), slog.LevelDebug) {
		attrs := make([]any, 0, len(validators))
		for _, cv := range validators {
			attrs = append(attrs, slog.Bool(cv.property, cv.dynamic))
		}
		logger.Debug("compiled validators",
			slog.Int("count", len(validators)),
			slog.Bool("pre_serialized", v.cfg.preSerialized),
			slog.Group("dynamic", attrs...),
		)
	}
	return &Dispatcher{
		validators:    validators,
		compiler:      v.compiler,
		preSerialized: v.cfg.preSerialized,
		logger:        logger,
	}, nil
}

// MustValidate is like Validate but panics on error.
func (v *Validator) MustValidate(bindings ...Binding) *Dispatcher {
	d, err := v.Validate(bindings...)
	if err != nil {
		panic(err)
	}
	return d
}

func (v *Validator) compileBinding(index int, b Binding) (compiledValidator, error) {
	if b.kind == kindUnset {
		return compiledValidator{}, &ConfigError{Phase: PhaseBuild, Message: fmt.Sprintf("binding %d was not created by a constructor", index)}
	}
	if b.property == "" {
		return compiledValidator{}, &ConfigError{Phase: PhaseBuild, Message: fmt.Sprintf("binding %d has an empty property name", index)}
	}
	cv := compiledValidator{property: b.property, valueType: b.valueType}
	switch b.kind {
	case kindDynamic:
		if b.provider == nil {
			return compiledValidator{}, &ConfigError{Property: b.property, Phase: PhaseBuild, Message: "schema provider is nil"}
		}
		cv.dynamic = true
		cv.provider = b.provider
		return cv, nil
	default:
		if b.schema == nil {
			return compiledValidator{}, &ConfigError{Property: b.property, Phase: PhaseBuild, Message: "schema is nil"}
		}
		p, err := compile(v.compiler, b.schema)
		if err != nil {
			return compiledValidator{}, &ConfigError{Property: b.property, Phase: PhaseBuild, Cause: err}
		}
		if b.sample != nil && (b.untyped || v.cfg.sampleCheck) {
			if _, f := p.ParseValue(b.sample); f != nil {
				return compiledValidator{}, &ConfigError{Property: b.property, Phase: PhaseBuild, Message: "sample rejected by schema", Cause: f}
			}
		}
		cv.parser = p
		return cv, nil
	}
}

var errNilParser = errors.New("compiler returned a nil parser")

func compile(c Compiler, s *jtd.Schema) (Parser, error) {
	p, err := c.Compile(s)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, errNilParser
	}
	return p, nil
}
