// Package jtdguard builds request-validation middleware from JSON Type
// Definition (RFC 8927) schemas.
//
// A Validator turns an ordered list of bindings, each pairing a request
// property ("body", "query", "headers", ...) with a schema, into a
// Dispatcher. Static schemas are compiled once when the Dispatcher is built;
// dynamic schemas are produced from the live request and compiled on every
// dispatch.
//
// Design policy:
//   - Keep the builder and dispatcher in the root package; the schema model and
//     compiler live under jtd/, host adapters under middleware/.
//   - Recoverable request problems travel through the continuation as a
//     *ValidationError; programmer mistakes are returned as *ConfigError.
//   - Prefer black-box testing against public APIs.
//
// Typical usage:
//
//	v, err := jtdguard.New()
//	d, err := v.Validate(
//		jtdguard.Static("body", User{}, jtd.MustInfer[User]()),
//	)
//	err = d.Dispatch(req, func(err error) { ... })
//	user, err := jtdguard.Get[User](req.Parsed(), "body")
package jtdguard
