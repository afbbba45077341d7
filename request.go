package jtdguard

// Request is the host-side view of an inbound request: named properties
// ("body", "headers", ...) and one extension slot receiving parsed values.
type Request interface {
	// Lookup returns the raw value of a request property.
	Lookup(property string) (any, bool)
	// Parsed returns the extension slot, or nil when nothing was parsed yet.
	Parsed() Parsed
	// SetParsed attaches the extension slot.
	SetParsed(p Parsed)
}

// Parsed maps property names to their validated, decoded values.
type Parsed map[string]any

// NextFunc continues the host middleware chain. A nil error proceeds; a
// non-nil error aborts the request and hands it to error handling.
type NextFunc func(err error)

// MapRequest is an in-memory Request backed by a property map.
type MapRequest struct {
	Properties map[string]any
	parsed     Parsed
}

// NewMapRequest returns a MapRequest over props.
func NewMapRequest(props map[string]any) *MapRequest {
	if props == nil {
		props = map[string]any{}
	}
	return &MapRequest{Properties: props}
}

func (r *MapRequest) Lookup(property string) (any, bool) {
	v, ok := r.Properties[property]
	return v, ok
}

func (r *MapRequest) Parsed() Parsed { return r.parsed }

func (r *MapRequest) SetParsed(p Parsed) { r.parsed = p }
