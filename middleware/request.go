package middleware

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	j "github.com/goccy/go-json"

	"github.com/reoring/jtdguard"
)

// DefaultMaxBodyBytes caps request bodies read for validation (10 MiB).
const DefaultMaxBodyBytes int64 = 10 << 20

// ErrBodyTooLarge is returned when a request body exceeds the configured limit.
var ErrBodyTooLarge = errors.New("request body too large")

// Request property names exposed by HTTPRequest.
const (
	PropertyBody    = "body"
	PropertyQuery   = "query"
	PropertyHeaders = "headers"
	PropertyCookies = "cookies"
	PropertyParams  = "params"
	PropertyMethod  = "method"
	PropertyPath    = "path"
)

// HTTPRequest exposes an *http.Request as a jtdguard.Request.
//
//   - body: the raw bytes as json.RawMessage; absent when empty
//   - query: name -> string, or []any of strings for repeated names
//   - headers: lower-cased name -> values joined with ", "
//   - cookies: name -> value
//   - params: route parameters supplied by the router
//   - method, path: strings
type HTTPRequest struct {
	r      *http.Request
	props  map[string]any
	parsed jtdguard.Parsed
}

var _ jtdguard.Request = (*HTTPRequest)(nil)

// NewHTTPRequest reads r's body (at most maxBody bytes; <= 0 uses
// DefaultMaxBodyBytes) and restores it so downstream handlers can read it
// again.
func NewHTTPRequest(r *http.Request, params map[string]string, maxBody int64) (*HTTPRequest, error) {
	if maxBody <= 0 {
		maxBody = DefaultMaxBodyBytes
	}
	props := map[string]any{
		PropertyQuery:   queryMap(r),
		PropertyHeaders: headerMap(r.Header),
		PropertyCookies: cookieMap(r),
		PropertyParams:  paramMap(params),
		PropertyMethod:  r.Method,
		PropertyPath:    r.URL.Path,
	}
	if r.Body != nil && r.Body != http.NoBody {
		data, err := io.ReadAll(io.LimitReader(r.Body, maxBody+1))
		_ = r.Body.Close()
		if err != nil {
			return nil, fmt.Errorf("read request body: %w", err)
		}
		if int64(len(data)) > maxBody {
			return nil, fmt.Errorf("%w: limit %d bytes", ErrBodyTooLarge, maxBody)
		}
		r.Body = io.NopCloser(bytes.NewReader(data))
		if len(bytes.TrimSpace(data)) > 0 {
			props[PropertyBody] = j.RawMessage(data)
		}
	}
	return &HTTPRequest{r: r, props: props}, nil
}

// Request returns the underlying *http.Request.
func (h *HTTPRequest) Request() *http.Request { return h.r }

func (h *HTTPRequest) Lookup(property string) (any, bool) {
	v, ok := h.props[property]
	return v, ok
}

func (h *HTTPRequest) Parsed() jtdguard.Parsed { return h.parsed }

func (h *HTTPRequest) SetParsed(p jtdguard.Parsed) { h.parsed = p }

func queryMap(r *http.Request) map[string]any {
	out := map[string]any{}
	for k, vs := range r.URL.Query() {
		if len(vs) == 1 {
			out[k] = vs[0]
			continue
		}
		list := make([]any, len(vs))
		for i, v := range vs {
			list[i] = v
		}
		out[k] = list
	}
	return out
}

func headerMap(h http.Header) map[string]any {
	out := make(map[string]any, len(h))
	for k, vs := range h {
		out[strings.ToLower(k)] = strings.Join(vs, ", ")
	}
	return out
}

func cookieMap(r *http.Request) map[string]any {
	out := map[string]any{}
	for _, c := range r.Cookies() {
		out[c.Name] = c.Value
	}
	return out
}

func paramMap(params map[string]string) map[string]any {
	out := make(map[string]any, len(params))
	for k, v := range params {
		out[k] = v
	}
	return out
}
