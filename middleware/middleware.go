// Package middleware adapts a jtdguard.Dispatcher to net/http and holds the
// pieces shared by the framework adapters: the HTTPRequest view, context
// helpers and JSON error payloads.
package middleware

import (
	"context"
	"errors"
	"net/http"

	j "github.com/goccy/go-json"

	"github.com/reoring/jtdguard"
	"github.com/reoring/jtdguard/jtd"
)

// ctxKeyParsed is a typed context key for storing jtdguard.Parsed.
type ctxKeyParsed struct{}

// ContextWithParsed attaches parsed request properties to the context.
func ContextWithParsed(ctx context.Context, p jtdguard.Parsed) context.Context {
	return context.WithValue(ctx, ctxKeyParsed{}, p)
}

// ParsedFromContext retrieves parsed request properties from context.
func ParsedFromContext(ctx context.Context) (jtdguard.Parsed, bool) {
	p, ok := ctx.Value(ctxKeyParsed{}).(jtdguard.Parsed)
	return p, ok
}

// Get fetches one parsed property from context as T.
func Get[T any](ctx context.Context, property string) (T, error) {
	p, _ := ParsedFromContext(ctx)
	return jtdguard.Get[T](p, property)
}

// ErrorPayload shapes a ValidationError for JSON responses:
// {"name": ..., "parsingErrors": {property: message}, "issues": {property: [...]}}.
func ErrorPayload(ve *jtdguard.ValidationError) map[string]any {
	issues := map[string]jtd.Issues{}
	for _, f := range ve.Fields {
		if len(f.Issues) > 0 {
			issues[f.Property] = f.Issues
		}
	}
	out := map[string]any{
		"name":          jtdguard.ValidationErrorName,
		"parsingErrors": ve.Map(),
	}
	if len(issues) > 0 {
		out["issues"] = issues
	}
	return out
}

// StatusFor maps a dispatch error to an HTTP status code.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, ErrBodyTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, jtdguard.ErrConfig):
		return http.StatusInternalServerError
	default:
		return http.StatusBadRequest
	}
}

// PayloadFor returns the JSON body written for err. Configuration errors are
// not echoed to clients.
func PayloadFor(err error) any {
	if ve, ok := jtdguard.AsValidationError(err); ok {
		return ErrorPayload(ve)
	}
	if errors.Is(err, jtdguard.ErrConfig) {
		return map[string]any{"error": http.StatusText(http.StatusInternalServerError)}
	}
	return map[string]any{"error": err.Error()}
}

// WriteJSON writes v as a JSON response with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	b, err := j.Marshal(v)
	if err != nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(b)
}

// DefaultErrorHandler writes StatusFor(err) with PayloadFor(err).
func DefaultErrorHandler(w http.ResponseWriter, _ *http.Request, err error) {
	WriteJSON(w, StatusFor(err), PayloadFor(err))
}
