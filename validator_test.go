package jtdguard_test

import (
	"bytes"
	"errors"
	"log/slog"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/reoring/jtdguard"
	"github.com/reoring/jtdguard/jtd"
)

type person struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}

func personSchema() jtd.Typed[person] {
	return jtd.Of[person](&jtd.Schema{Properties: map[string]*jtd.Schema{
		"firstName": {Type: jtd.TypeString},
		"lastName":  {Type: jtd.TypeString},
	}})
}

// countingCompiler counts Compile calls and delegates to the jtd compiler.
type countingCompiler struct {
	calls   atomic.Int64
	inner   jtdguard.Compiler
	schemas []*jtd.Schema
}

func newCountingCompiler() *countingCompiler {
	return &countingCompiler{inner: jtdguard.NewCompiler(jtd.Options{})}
}

func (c *countingCompiler) Compile(s *jtd.Schema) (jtdguard.Parser, error) {
	c.calls.Add(1)
	c.schemas = append(c.schemas, s)
	return c.inner.Compile(s)
}

func mustNew(t *testing.T, opts ...jtdguard.Option) *jtdguard.Validator {
	t.Helper()
	v, err := jtdguard.New(opts...)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return v
}

func TestValidate_StaticCompiledOnce(t *testing.T) {
	cc := newCountingCompiler()
	v := mustNew(t, jtdguard.WithCompiler(cc))
	d, err := v.Validate(
		jtdguard.Static("body", person{}, personSchema()),
		jtdguard.StaticSchema("query", map[string]any{}, &jtd.Schema{Values: &jtd.Schema{Type: jtd.TypeString}}),
	)
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if got := cc.calls.Load(); got != 2 {
		t.Fatalf("expected 2 compiles at build time, got %d", got)
	}
	for i := 0; i < 5; i++ {
		req := jtdguard.NewMapRequest(map[string]any{
			"body":  map[string]any{"firstName": "Kyle", "lastName": "Katarn"},
			"query": map[string]any{"page": "1"},
		})
		if err := d.Dispatch(req, func(error) {}); err != nil {
			t.Fatalf("Dispatch: %v", err)
		}
	}
	if got := cc.calls.Load(); got != 2 {
		t.Fatalf("dispatch must not recompile static schemas; compiles = %d", got)
	}
}

func TestValidate_IndependentDispatchers(t *testing.T) {
	v := mustNew(t)
	d1 := v.MustValidate(jtdguard.Static("body", person{}, personSchema()))
	d2 := v.MustValidate(jtdguard.StaticSchema("query", nil, &jtd.Schema{}))
	if got := d1.Properties(); len(got) != 1 || got[0] != "body" {
		t.Fatalf("d1 properties = %v", got)
	}
	if got := d2.Properties(); len(got) != 1 || got[0] != "query" {
		t.Fatalf("d2 properties = %v", got)
	}
}

func TestValidate_PreservesBindingOrder(t *testing.T) {
	v := mustNew(t)
	d := v.MustValidate(
		jtdguard.StaticSchema("query", nil, &jtd.Schema{}),
		jtdguard.StaticSchema("body", nil, &jtd.Schema{}),
		jtdguard.StaticSchema("headers", nil, &jtd.Schema{}),
	)
	if got := strings.Join(d.Properties(), ","); got != "query,body,headers" {
		t.Fatalf("unexpected order %q", got)
	}
}

func TestValidate_ConfigErrors(t *testing.T) {
	bad := &jtd.Schema{Type: "int64"}
	cases := []struct {
		name     string
		bindings []jtdguard.Binding
		property string
	}{
		{"zero binding", []jtdguard.Binding{{}}, ""},
		{"empty property", []jtdguard.Binding{jtdguard.StaticSchema("", nil, &jtd.Schema{})}, ""},
		{"nil schema", []jtdguard.Binding{jtdguard.StaticSchema("body", nil, nil)}, "body"},
		{"nil provider", []jtdguard.Binding{jtdguard.DynamicSchema("body", nil, nil)}, "body"},
		{"nil typed provider", []jtdguard.Binding{jtdguard.Dynamic[person]("body", person{}, nil)}, "body"},
		{"malformed static schema", []jtdguard.Binding{jtdguard.StaticSchema("body", nil, bad)}, "body"},
		{"duplicate property", []jtdguard.Binding{
			jtdguard.StaticSchema("body", nil, &jtd.Schema{}),
			jtdguard.StaticSchema("body", nil, &jtd.Schema{}),
		}, "body"},
	}
	v := mustNew(t)
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			d, err := v.Validate(tc.bindings...)
			if err == nil {
				t.Fatalf("expected error, got dispatcher %v", d)
			}
			if !errors.Is(err, jtdguard.ErrConfig) {
				t.Fatalf("expected ErrConfig, got %v", err)
			}
			ce, ok := jtdguard.AsConfigError(err)
			if !ok {
				t.Fatalf("expected *ConfigError, got %T", err)
			}
			if ce.Phase != jtdguard.PhaseBuild {
				t.Fatalf("expected build phase, got %s", ce.Phase)
			}
			if ce.Property != tc.property {
				t.Fatalf("property = %q, want %q", ce.Property, tc.property)
			}
		})
	}
}

func TestValidate_MalformedStaticSchemaKeepsCause(t *testing.T) {
	v := mustNew(t)
	_, err := v.Validate(jtdguard.StaticSchema("body", nil, &jtd.Schema{Enum: []string{}}))
	if !errors.Is(err, jtd.ErrInvalidSchema) {
		t.Fatalf("expected wrapped ErrInvalidSchema, got %v", err)
	}
}

func TestMustValidate_Panics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic")
		}
	}()
	mustNew(t).MustValidate(jtdguard.Binding{})
}

func TestValidate_UntypedSampleCheckedByDefault(t *testing.T) {
	schema := &jtd.Schema{Properties: map[string]*jtd.Schema{"name": {Type: jtd.TypeString}}}

	v := mustNew(t)
	if _, err := v.Validate(jtdguard.StaticSchema("body", map[string]any{"name": ""}, schema)); err != nil {
		t.Fatalf("matching sample rejected: %v", err)
	}
	if _, err := v.Validate(jtdguard.StaticSchema("body", nil, schema)); err != nil {
		t.Fatalf("nil sample must not be checked: %v", err)
	}
	_, err := v.Validate(jtdguard.StaticSchema("body", map[string]any{"name": 1.0}, schema))
	if !errors.Is(err, jtdguard.ErrConfig) {
		t.Fatalf("expected ErrConfig for mismatched sample, got %v", err)
	}
	ce, ok := jtdguard.AsConfigError(err)
	if !ok || ce.Phase != jtdguard.PhaseBuild || ce.Property != "body" {
		t.Fatalf("unexpected config error: %#v", err)
	}
	var f *jtd.Failure
	if !errors.As(err, &f) {
		t.Fatalf("expected the parser failure as cause, got %v", err)
	}
}

func TestValidate_TypedSampleCheckIsOptIn(t *testing.T) {
	color := jtd.Of[string](&jtd.Schema{Enum: []string{"red", "green"}})

	if _, err := mustNew(t).Validate(jtdguard.Static("color", "", color)); err != nil {
		t.Fatalf("typed zero sample should pass without WithSampleCheck: %v", err)
	}
	_, err := mustNew(t, jtdguard.WithSampleCheck(true)).Validate(jtdguard.Static("color", "", color))
	if !errors.Is(err, jtdguard.ErrConfig) {
		t.Fatalf("expected ErrConfig with WithSampleCheck, got %v", err)
	}
	if _, err := mustNew(t, jtdguard.WithSampleCheck(true)).Validate(jtdguard.Static("color", "red", color)); err != nil {
		t.Fatalf("matching typed sample rejected: %v", err)
	}
}

func TestNew_OptionErrors(t *testing.T) {
	if _, err := jtdguard.New(jtdguard.WithCompiler(nil)); err == nil {
		t.Fatalf("expected error for nil compiler")
	}
	if _, err := jtdguard.New(jtdguard.WithCompilerOptions(jtd.Options{MaxDepth: -1})); err == nil {
		t.Fatalf("expected error for negative MaxDepth")
	}
}

func TestValidate_NilParserFromCompiler(t *testing.T) {
	comp := jtdguard.CompilerFunc(func(*jtd.Schema) (jtdguard.Parser, error) { return nil, nil })
	_, err := mustNew(t, jtdguard.WithCompiler(comp)).Validate(jtdguard.StaticSchema("body", nil, &jtd.Schema{}))
	if !errors.Is(err, jtdguard.ErrConfig) {
		t.Fatalf("expected ErrConfig, got %v", err)
	}
}

func TestValidate_LogsCompiledValidators(t *testing.T) {
	buf := &bytes.Buffer{}
	logger := slog.New(slog.NewTextHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	v := mustNew(t, jtdguard.WithLogger(logger))
	v.MustValidate(
		jtdguard.Static("body", person{}, personSchema()),
		jtdguard.DynamicSchema("query", nil, func(jtdguard.Request) *jtd.Schema { return &jtd.Schema{} }),
	)
	out := buf.String()
	if !strings.Contains(out, "compiled validators") || !strings.Contains(out, "dynamic.query=true") {
		t.Fatalf("unexpected log output: %s", out)
	}
}
