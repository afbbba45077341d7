// Package chimw adapts a jtdguard.Dispatcher to chi routers.
package chimw

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/reoring/jtdguard"
	"github.com/reoring/jtdguard/middleware"
)

// Validate returns chi middleware backed by middleware.Handler, with chi URL
// parameters as the "params" property. URL parameters are only known after
// routing, so mount it with r.With(...) or inside a route group rather than
// with a top-level r.Use.
func Validate(d *jtdguard.Dispatcher, opts ...middleware.HandlerOption) func(http.Handler) http.Handler {
	opts = append([]middleware.HandlerOption{middleware.WithParams(URLParams)}, opts...)
	return middleware.Handler(d, opts...)
}

// URLParams returns the chi URL parameters of r.
func URLParams(r *http.Request) map[string]string {
	rc := chi.RouteContext(r.Context())
	if rc == nil {
		return nil
	}
	out := make(map[string]string, len(rc.URLParams.Keys))
	for i, k := range rc.URLParams.Keys {
		if i < len(rc.URLParams.Values) {
			out[k] = rc.URLParams.Values[i]
		}
	}
	return out
}
