package jtd

import (
	"errors"
	"fmt"
	"strings"
)

// Issue codes (exported consts for IDE completion and type safety by convention)
const (
	CodeInvalidType          = "invalid_type"
	CodeRequired             = "required"
	CodeUnknownKey           = "unknown_key"
	CodeInvalidEnum          = "invalid_enum"
	CodeInvalidFormat        = "invalid_format"
	CodeOverflow             = "overflow"
	CodeDiscriminatorMissing = "discriminator_missing"
	CodeDiscriminatorUnknown = "discriminator_unknown"
	CodeDuplicateKey         = "duplicate_key"
	CodeParseError           = "parse_error"
	CodeTooDeep              = "too_deep"
	CodeTruncated            = "truncated"
)

// Issue represents a single validation entry.
type Issue struct {
	Path       string `json:"path"`       // JSON Pointer into the instance (for example: /items/2/price).
	SchemaPath string `json:"schemaPath"` // JSON Pointer into the schema that rejected the instance.
	Code       string `json:"code"`       // One of the codes listed above.
	Message    string `json:"message"`
	Offset     int64  `json:"offset"` // Byte offset in the input text (-1 when unknown).
}

// Issues is a collection of validation errors that implements error.
type Issues []Issue

// Error summarizes the first few issues.
func (iss Issues) Error() string {
	if len(iss) == 0 {
		return ""
	}
	const maxShown = 3
	b := &strings.Builder{}
	n := len(iss)
	lim := min(n, maxShown)
	for i := 0; i < lim; i++ {
		if i > 0 {
			b.WriteString("; ")
		}
		it := iss[i]
		// e.g. invalid_type at /path
		fmt.Fprintf(b, "%s at %s", it.Code, displayPath(it.Path))
	}
	if n > lim {
		fmt.Fprintf(b, "; ... (total %d)", n)
	}
	return b.String()
}

// AsIssues extracts Issues from an error using errors.As internally.
func AsIssues(err error) (Issues, bool) {
	if err == nil {
		return nil, false
	}
	var iss Issues
	if errors.As(err, &iss) {
		return iss, true
	}
	return nil, false
}

// Failure is what a Parser reports when its input is rejected. Position and
// Message describe the first issue; Issues holds every issue collected.
type Failure struct {
	Position string
	Message  string
	Issues   Issues
}

// String renders the failure as "position: message".
func (f *Failure) String() string {
	if f == nil {
		return ""
	}
	return f.Position + ": " + f.Message
}

// Error implements error so a Failure can be wrapped or returned directly.
func (f *Failure) Error() string { return f.String() }

// Unwrap exposes the collected Issues to errors.As.
func (f *Failure) Unwrap() error {
	if len(f.Issues) == 0 {
		return nil
	}
	return f.Issues
}

func newFailure(iss Issues) *Failure {
	if len(iss) == 0 {
		return nil
	}
	first := iss[0]
	pos := displayPath(first.Path)
	if first.Code == CodeParseError && first.Offset >= 0 {
		pos = fmt.Sprintf("offset %d", first.Offset)
	}
	return &Failure{Position: pos, Message: first.Message, Issues: iss}
}

// displayPath renders the root pointer "" as "/".
func displayPath(p string) string {
	if p == "" {
		return "/"
	}
	return p
}

// ErrInvalidSchema indicates a schema is not a well-formed JSON Type Definition.
var ErrInvalidSchema = errors.New("invalid schema")

// SchemaError describes why a schema was rejected.
type SchemaError struct {
	// Path is the JSON Pointer of the offending schema node.
	Path string
	// Message describes the problem.
	Message string
	// Cause is the underlying error, if any.
	Cause error
}

// Error returns a human-readable error message.
func (e *SchemaError) Error() string {
	msg := "jtd: invalid schema at " + displayPath(e.Path)
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

// Unwrap returns the underlying cause for error chaining.
func (e *SchemaError) Unwrap() error { return e.Cause }

// Is reports whether target matches this error type.
func (e *SchemaError) Is(target error) bool { return target == ErrInvalidSchema }
