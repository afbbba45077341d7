package echomw

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/reoring/jtdguard"
	"github.com/reoring/jtdguard/middleware"
)

// ParsedKey is the echo.Context key holding jtdguard.Parsed.
const ParsedKey = "jtdguard.parsed"

// Option configures Validate.
type Option func(*options)

type options struct {
	maxBody int64
}

// WithMaxBodyBytes limits the request body read for validation.
func WithMaxBodyBytes(n int64) Option { return func(o *options) { o.maxBody = n } }

// Validate dispatches the request through d with echo path parameters as the
// "params" property, stores the parsed properties in the context on success,
// or answers with the JSON error payload.
func Validate(d *jtdguard.Dispatcher, opts ...Option) echo.MiddlewareFunc {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			names, values := c.ParamNames(), c.ParamValues()
			params := make(map[string]string, len(names))
			for i, n := range names {
				if i < len(values) {
					params[n] = values[i]
				}
			}
			req, err := middleware.NewHTTPRequest(c.Request(), params, o.maxBody)
			if err != nil {
				return c.JSON(middleware.StatusFor(err), middleware.PayloadFor(err))
			}
			ve, err := middleware.Run(d, req)
			if err != nil {
				c.Logger().Error(err)
				return c.JSON(http.StatusInternalServerError, middleware.PayloadFor(err))
			}
			if ve != nil {
				return c.JSON(http.StatusBadRequest, middleware.ErrorPayload(ve))
			}
			c.Set(ParsedKey, req.Parsed())
			c.SetRequest(c.Request().WithContext(middleware.ContextWithParsed(c.Request().Context(), req.Parsed())))
			return next(c)
		}
	}
}

// GetParsed fetches jtdguard.Parsed from echo.Context.
func GetParsed(c echo.Context) (jtdguard.Parsed, bool) {
	p, ok := c.Get(ParsedKey).(jtdguard.Parsed)
	return p, ok
}

// Get fetches one parsed property as T.
func Get[T any](c echo.Context, property string) (T, error) {
	p, _ := GetParsed(c)
	return jtdguard.Get[T](p, property)
}
