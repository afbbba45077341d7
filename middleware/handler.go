package middleware

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/reoring/jtdguard"
)

// ErrorHandler writes the response for a rejected request.
type ErrorHandler func(w http.ResponseWriter, r *http.Request, err error)

// HandlerOption configures Handler.
type HandlerOption func(*handlerConfig)

type handlerConfig struct {
	errorHandler ErrorHandler
	params       func(*http.Request) map[string]string
	maxBody      int64
	logger       *slog.Logger
}

// WithErrorHandler replaces DefaultErrorHandler.
func WithErrorHandler(h ErrorHandler) HandlerOption {
	return func(c *handlerConfig) {
		if h != nil {
			c.errorHandler = h
		}
	}
}

// WithParams supplies route parameters for the "params" property.
func WithParams(fn func(*http.Request) map[string]string) HandlerOption {
	return func(c *handlerConfig) { c.params = fn }
}

// WithMaxBodyBytes limits the request body read for validation.
func WithMaxBodyBytes(n int64) HandlerOption {
	return func(c *handlerConfig) { c.maxBody = n }
}

// WithHandlerLogger sets the logger for rejected requests.
func WithHandlerLogger(l *slog.Logger) HandlerOption {
	return func(c *handlerConfig) {
		if l != nil {
			c.logger = l
		}
	}
}

// Handler returns net/http middleware that dispatches every request through
// d. Accepted requests continue with the parsed properties in their context
// (see ParsedFromContext); rejected ones are answered by the error handler.
func Handler(d *jtdguard.Dispatcher, opts ...HandlerOption) func(http.Handler) http.Handler {
	cfg := &handlerConfig{
		errorHandler: DefaultErrorHandler,
		params:       PathValues,
		logger:       slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(cfg)
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var params map[string]string
			if cfg.params != nil {
				params = cfg.params(r)
			}
			req, err := NewHTTPRequest(r, params, cfg.maxBody)
			if err != nil {
				cfg.logger.Info("request body rejected",
					slog.String("method", r.Method),
					slog.String("path", r.URL.Path),
					slog.String("error", err.Error()),
				)
				cfg.errorHandler(w, r, err)
				return
			}
			outcome, err := Run(d, req)
			if err != nil {
				cfg.logger.Error("validator configuration error",
					slog.String("method", r.Method),
					slog.String("path", r.URL.Path),
					slog.String("error", err.Error()),
				)
				cfg.errorHandler(w, r, err)
				return
			}
			if outcome != nil {
				cfg.logger.Info("request validation failed",
					slog.String("method", r.Method),
					slog.String("path", r.URL.Path),
					slog.Any("properties", outcome.Properties()),
				)
				cfg.errorHandler(w, r, outcome)
				return
			}
			ctx := ContextWithParsed(r.Context(), req.Parsed())
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// Run dispatches req and returns the *ValidationError handed to the
// continuation (nil on success) or the configuration error Dispatch returned.
func Run(d *jtdguard.Dispatcher, req jtdguard.Request) (*jtdguard.ValidationError, error) {
	var outcome error
	if err := d.Dispatch(req, func(err error) { outcome = err }); err != nil {
		return nil, err
	}
	if outcome == nil {
		return nil, nil
	}
	if ve, ok := jtdguard.AsValidationError(outcome); ok {
		return ve, nil
	}
	return nil, outcome
}

// PathValues collects Go 1.22 ServeMux wildcards for the matched pattern.
func PathValues(r *http.Request) map[string]string {
	names := patternWildcards(r.Pattern)
	if len(names) == 0 {
		return nil
	}
	out := make(map[string]string, len(names))
	for _, n := range names {
		out[n] = r.PathValue(n)
	}
	return out
}

// patternWildcards extracts {name} and {name...} segments from a ServeMux
// pattern such as "POST /users/{id}".
func patternWildcards(pattern string) []string {
	var names []string
	for {
		start := strings.IndexByte(pattern, '{')
		if start < 0 {
			return names
		}
		end := strings.IndexByte(pattern[start:], '}')
		if end < 0 {
			return names
		}
		name := pattern[start+1 : start+end]
		name = strings.TrimSuffix(name, "...")
		if name != "" && name != "$" {
			names = append(names, name)
		}
		pattern = pattern[start+end+1:]
	}
}
