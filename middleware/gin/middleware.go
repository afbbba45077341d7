package ginmw

import (
	"log/slog"

	"github.com/gin-gonic/gin"

	"github.com/reoring/jtdguard"
	"github.com/reoring/jtdguard/middleware"
)

// ParsedKey is the gin.Context key holding jtdguard.Parsed.
const ParsedKey = "jtdguard.parsed"

// Option configures Validate.
type Option func(*options)

type options struct {
	maxBody int64
	logger  *slog.Logger
}

// WithMaxBodyBytes limits the request body read for validation.
func WithMaxBodyBytes(n int64) Option { return func(o *options) { o.maxBody = n } }

// WithLogger sets the logger for configuration errors.
func WithLogger(l *slog.Logger) Option { return func(o *options) { o.logger = l } }

// Validate dispatches the request through d with gin route parameters as the
// "params" property. On success the parsed properties are stored under
// ParsedKey and in the request context; otherwise the request is aborted with
// 400 (validation), 413 (body too large) or 500 (configuration error).
func Validate(d *jtdguard.Dispatcher, opts ...Option) gin.HandlerFunc {
	o := &options{logger: slog.New(slog.DiscardHandler)}
	for _, opt := range opts {
		opt(o)
	}
	return func(c *gin.Context) {
		params := make(map[string]string, len(c.Params))
		for _, p := range c.Params {
			params[p.Key] = p.Value
		}
		req, err := middleware.NewHTTPRequest(c.Request, params, o.maxBody)
		if err != nil {
			abort(c, err)
			return
		}
		ve, err := middleware.Run(d, req)
		if err != nil {
			o.logger.Error("validator configuration error",
				slog.String("route", c.FullPath()),
				slog.String("error", err.Error()),
			)
			_ = c.Error(err)
			abort(c, err)
			return
		}
		if ve != nil {
			abort(c, ve)
			return
		}
		c.Set(ParsedKey, req.Parsed())
		c.Request = c.Request.WithContext(middleware.ContextWithParsed(c.Request.Context(), req.Parsed()))
		c.Next()
	}
}

func abort(c *gin.Context, err error) {
	c.AbortWithStatusJSON(middleware.StatusFor(err), middleware.PayloadFor(err))
}

// GetParsed fetches jtdguard.Parsed from gin.Context.
func GetParsed(c *gin.Context) (jtdguard.Parsed, bool) {
	v, ok := c.Get(ParsedKey)
	if !ok {
		return nil, false
	}
	p, ok := v.(jtdguard.Parsed)
	return p, ok
}

// Get fetches one parsed property as T.
func Get[T any](c *gin.Context, property string) (T, error) {
	p, _ := GetParsed(c)
	return jtdguard.Get[T](p, property)
}
