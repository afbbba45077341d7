package jtd

import (
	"strings"
	"time"
)

// ParseTimestamp parses an RFC 3339 timestamp. Fractional seconds are
// optional; a lower-case "t" or "z" is accepted as RFC 3339 allows, and so is
// a leap second (":60"), which is folded into the following second.
func ParseTimestamp(s string) (time.Time, error) {
	s = strings.Map(func(r rune) rune {
		switch r {
		case 't':
			return 'T'
		case 'z':
			return 'Z'
		}
		return r
	}, s)
	leap := false
	if len(s) >= 19 && s[16:19] == ":60" {
		s = s[:17] + "59" + s[19:]
		leap = true
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		if t2, err2 := time.Parse(time.RFC3339, s); err2 == nil {
			t, err = t2, nil
		} else {
			return time.Time{}, err
		}
	}
	if leap {
		t = t.Add(time.Second)
	}
	return t, nil
}

// FormatTimestamp renders t in canonical form: UTC, RFC3339Nano (Go trims
// trailing zeros).
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}
