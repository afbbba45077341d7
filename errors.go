package jtdguard

import (
	"errors"
	"fmt"
	"strings"

	j "github.com/goccy/go-json"

	"github.com/reoring/jtdguard/jtd"
)

// ValidationErrorName is the name carried in serialized ValidationErrors.
const ValidationErrorName = "JTDSchemaParsingError"

var (
	// ErrConfig marks programmer mistakes: malformed schemas, invalid
	// bindings, samples the schema rejects.
	ErrConfig = errors.New("configuration error")
	// ErrValidation marks request data that failed validation.
	ErrValidation = errors.New("validation error")
)

// Phase tells when a ConfigError was detected.
type Phase string

const (
	PhaseBuild    Phase = "build"
	PhaseDispatch Phase = "dispatch"
)

// ConfigError reports a configuration problem. It is returned to the caller
// and never passed to the continuation.
type ConfigError struct {
	Property string
	Phase    Phase
	Message  string
	Cause    error
}

func (e *ConfigError) Error() string {
	b := &strings.Builder{}
	fmt.Fprintf(b, "jtdguard: %s", e.Phase)
	if e.Property != "" {
		fmt.Fprintf(b, " %q", e.Property)
	}
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	if e.Cause != nil {
		b.WriteString(": ")
		b.WriteString(e.Cause.Error())
	}
	return b.String()
}

func (e *ConfigError) Unwrap() error { return e.Cause }

// Is reports whether target is ErrConfig.
func (e *ConfigError) Is(target error) bool { return target == ErrConfig }

// FieldError is the diagnostic for one failing property.
type FieldError struct {
	Property string     `json:"property"`
	Message  string     `json:"message"`
	Issues   jtd.Issues `json:"issues,omitempty"`
}

// ValidationError aggregates per-property failures in binding order. It is
// never empty.
type ValidationError struct {
	Fields []FieldError
}

func newValidationError(fields []FieldError) *ValidationError {
	if len(fields) == 0 {
		return nil
	}
	return &ValidationError{Fields: fields}
}

func (e *ValidationError) Error() string {
	b := &strings.Builder{}
	b.WriteString("jtdguard: request validation failed: ")
	for i, f := range e.Fields {
		if i > 0 {
			b.WriteString("; ")
		}
		fmt.Fprintf(b, "%s: %s", f.Property, f.Message)
	}
	return b.String()
}

// Is reports whether target is ErrValidation.
func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// Map returns property -> message.
func (e *ValidationError) Map() map[string]string {
	m := make(map[string]string, len(e.Fields))
	for _, f := range e.Fields {
		m[f.Property] = f.Message
	}
	return m
}

// Has reports whether property failed.
func (e *ValidationError) Has(property string) bool {
	_, ok := e.Field(property)
	return ok
}

// Field returns the failure recorded for property.
func (e *ValidationError) Field(property string) (FieldError, bool) {
	for _, f := range e.Fields {
		if f.Property == property {
			return f, true
		}
	}
	return FieldError{}, false
}

// Properties lists the failing properties in binding order.
func (e *ValidationError) Properties() []string {
	out := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		out[i] = f.Property
	}
	return out
}

// MarshalJSON renders {"name":"JTDSchemaParsingError","parsingErrors":{...}}.
func (e *ValidationError) MarshalJSON() ([]byte, error) {
	return j.Marshal(struct {
		Name          string            `json:"name"`
		ParsingErrors map[string]string `json:"parsingErrors"`
	}{ValidationErrorName, e.Map()})
}

// AsValidationError extracts a *ValidationError using errors.As.
func AsValidationError(err error) (*ValidationError, bool) {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve, true
	}
	return nil, false
}

// AsConfigError extracts a *ConfigError using errors.As.
func AsConfigError(err error) (*ConfigError, bool) {
	var ce *ConfigError
	if errors.As(err, &ce) {
		return ce, true
	}
	return nil, false
}
