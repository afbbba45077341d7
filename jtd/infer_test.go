package jtd_test

import (
	"errors"
	"testing"
	"time"

	"github.com/reoring/jtdguard/jtd"
)

type inferAddress struct {
	City string `json:"city"`
}

type inferBase struct {
	ID string `json:"id"`
}

type inferUser struct {
	inferBase
	Name     string            `json:"name"`
	Nickname string            `json:"nickname,omitempty"`
	Age      uint8             `json:"age"`
	Score    float64           `json:"score"`
	Created  time.Time         `json:"created"`
	Address  *inferAddress     `json:"address"`
	Tags     []string          `json:"tags"`
	Labels   map[string]string `json:"labels"`
	Extra    any               `json:"extra"`
	Renamed  int32             `jtd:"name=renamed_field" json:"ignored"`
	Skipped  string            `json:"-"`
	internal string
}

func TestInfer_Struct(t *testing.T) {
	typed, err := jtd.Infer[inferUser]()
	if err != nil {
		t.Fatalf("Infer: %v", err)
	}
	s := typed.Schema()
	if s.Form() != jtd.FormProperties {
		t.Fatalf("expected properties form, got %s", s.Form())
	}
	checks := map[string]jtd.Type{
		"id":            jtd.TypeString,
		"name":          jtd.TypeString,
		"age":           jtd.TypeUint8,
		"score":         jtd.TypeFloat64,
		"created":       jtd.TypeTimestamp,
		"renamed_field": jtd.TypeInt32,
	}
	for k, want := range checks {
		got, ok := s.Properties[k]
		if !ok {
			t.Fatalf("missing property %q in %+v", k, s.Properties)
		}
		if got.Type != want {
			t.Fatalf("property %q type = %q, want %q", k, got.Type, want)
		}
	}
	if _, ok := s.OptionalProperties["nickname"]; !ok {
		t.Fatalf("omitempty field should be optional")
	}
	if a := s.Properties["address"]; !a.Nullable || a.Properties["city"] == nil {
		t.Fatalf("pointer struct should be nullable properties: %+v", a)
	}
	if s.Properties["tags"].Elements == nil || s.Properties["labels"].Values == nil {
		t.Fatalf("expected elements/values forms")
	}
	if s.Properties["extra"].Form() != jtd.FormEmpty {
		t.Fatalf("interface should map to empty form")
	}
	for _, k := range []string{"Skipped", "-", "internal", "ignored"} {
		if _, ok := s.Properties[k]; ok {
			t.Fatalf("unexpected property %q", k)
		}
	}
	if _, err := jtd.NewCompiler(jtd.Options{}).Compile(s); err != nil {
		t.Fatalf("inferred schema should compile: %v", err)
	}
}

type inferLoop struct {
	Next *inferLoop `json:"next"`
}

func TestInfer_RecursiveTypeRejected(t *testing.T) {
	_, err := jtd.Infer[inferLoop]()
	if !errors.Is(err, jtd.ErrInvalidSchema) {
		t.Fatalf("expected ErrInvalidSchema, got %v", err)
	}
}

func TestInfer_MapKeyMustBeString(t *testing.T) {
	if _, err := jtd.Infer[map[int]string](); err == nil {
		t.Fatalf("expected error for int map keys")
	}
}

func TestMustInfer_Panics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic")
		}
	}()
	_ = jtd.MustInfer[chan int]()
}
