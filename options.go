package jtdguard

import (
	"errors"
	"log/slog"

	"github.com/reoring/jtdguard/jtd"
)

// Parser validates a single property value against a compiled schema.
type Parser interface {
	ParseValue(in any) (any, *jtd.Failure)
	ParseText(data []byte) (any, *jtd.Failure)
}

// Compiler turns a schema into a Parser. Implementations must be safe for
// concurrent use once a Dispatcher is serving requests.
type Compiler interface {
	Compile(s *jtd.Schema) (Parser, error)
}

// CompilerFunc adapts a function to the Compiler interface.
type CompilerFunc func(s *jtd.Schema) (Parser, error)

func (f CompilerFunc) Compile(s *jtd.Schema) (Parser, error) { return f(s) }

// NewCompiler wraps the jtd compiler as a Compiler.
func NewCompiler(opts jtd.Options) Compiler {
	return jtdCompiler{c: jtd.NewCompiler(opts)}
}

type jtdCompiler struct{ c *jtd.Compiler }

func (jc jtdCompiler) Compile(s *jtd.Schema) (Parser, error) {
	p, err := jc.c.Compile(s)
	if err != nil {
		return nil, err
	}
	return p, nil
}

// Option is a functional option for configuring a Validator.
type Option func(*config) error

// config holds the configuration fixed at Validator construction.
type config struct {
	compilerOpts  jtd.Options
	compiler      Compiler
	preSerialized bool
	sampleCheck   bool
	logger        *slog.Logger
}

func defaultConfig() *config {
	return &config{
		logger: slog.New(slog.DiscardHandler),
	}
}

// WithCompilerOptions passes options through to the default jtd compiler.
// Ignored when WithCompiler supplies a compiler.
func WithCompilerOptions(opts jtd.Options) Option {
	return func(c *config) error {
		if opts.MaxDepth < 0 {
			return errors.New("jtdguard: MaxDepth must not be negative")
		}
		c.compilerOpts = opts
		return nil
	}
}

// WithCompiler substitutes the schema compiler, for example to instrument it.
func WithCompiler(comp Compiler) Option {
	return func(c *config) error {
		if comp == nil {
			return errors.New("jtdguard: compiler is nil")
		}
		c.compiler = comp
		return nil
	}
}

// WithPreSerialized makes every Dispatcher built by the Validator serialize
// property values to canonical JSON text before parsing them.
func WithPreSerialized(enabled bool) Option {
	return func(c *config) error {
		c.preSerialized = enabled
		return nil
	}
}

// WithSampleCheck also runs the samples of typed Static bindings through
// their compiled parsers at build time. StaticSchema samples are always
// checked. A sample the schema rejects is a ConfigError.
func WithSampleCheck(enabled bool) Option {
	return func(c *config) error {
		c.sampleCheck = enabled
		return nil
	}
}

// WithLogger sets the logger used for debug records. Nil restores the
// discarding default.
func WithLogger(l *slog.Logger) Option {
	return func(c *config) error {
		if l == nil {
			l = slog.New(slog.DiscardHandler)
		}
		c.logger = l
		return nil
	}
}
