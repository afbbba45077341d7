package jtd_test

import (
	"testing"
	"time"

	"github.com/reoring/jtdguard/jtd"
)

func TestParseTimestamp_Basic(t *testing.T) {
	in := "2025-01-01T00:00:00Z"
	got, err := jtd.ParseTimestamp(in)
	if err != nil {
		t.Fatalf("parse err: %v", err)
	}
	if !got.Equal(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected time: %v", got)
	}
	if out := jtd.FormatTimestamp(got); out != in {
		t.Fatalf("roundtrip mismatch: %s != %s", out, in)
	}
}

func TestParseTimestamp_Variants(t *testing.T) {
	cases := map[string]time.Time{
		"2025-01-01t10:30:00z":           time.Date(2025, 1, 1, 10, 30, 0, 0, time.UTC),
		"2025-01-01T10:30:00.125Z":       time.Date(2025, 1, 1, 10, 30, 0, 125e6, time.UTC),
		"2025-01-01T19:30:00+09:00":      time.Date(2025, 1, 1, 10, 30, 0, 0, time.UTC),
		"1990-12-31T23:59:60Z":           time.Date(1991, 1, 1, 0, 0, 0, 0, time.UTC),
		"2025-06-30T12:00:00.000000001Z": time.Date(2025, 6, 30, 12, 0, 0, 1, time.UTC),
	}
	for in, want := range cases {
		got, err := jtd.ParseTimestamp(in)
		if err != nil {
			t.Fatalf("%s: %v", in, err)
		}
		if !got.Equal(want) {
			t.Fatalf("%s: got %v, want %v", in, got, want)
		}
	}
}

func TestParseTimestamp_Rejects(t *testing.T) {
	for _, in := range []string{"", "2025-01-01", "2025-01-01T00:00:00", "2025-13-01T00:00:00Z", "yesterday"} {
		if _, err := jtd.ParseTimestamp(in); err == nil {
			t.Fatalf("expected error for %q", in)
		}
	}
}

func TestFormatTimestamp_UTC(t *testing.T) {
	tokyo := time.FixedZone("JST", 9*60*60)
	got := jtd.FormatTimestamp(time.Date(2025, 1, 1, 9, 0, 0, 500e6, tokyo))
	if got != "2025-01-01T00:00:00.5Z" {
		t.Fatalf("unexpected %q", got)
	}
}
