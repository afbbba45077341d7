package i18n_test

import (
	"testing"

	"github.com/reoring/jtdguard/i18n"
)

func TestT_DefaultEnglish(t *testing.T) {
	i18n.SetLanguage("en")
	got := i18n.T("required", map[string]string{"key": "name"})
	if got != "missing required property name" {
		t.Fatalf("unexpected message: %q", got)
	}
}

func TestT_Japanese(t *testing.T) {
	i18n.SetLanguage("ja")
	defer i18n.SetLanguage("en")
	got := i18n.T("property_missing", map[string]string{"property": "body"})
	if got != "リクエストにプロパティ body が存在しません" {
		t.Fatalf("unexpected message: %q", got)
	}
}

func TestT_UnknownLanguageFallsBackToEnglish(t *testing.T) {
	i18n.SetLanguage("fr")
	if got := i18n.T("parse_error", nil); got != "parse error" {
		t.Fatalf("unexpected message: %q", got)
	}
}

func TestT_UnknownCodeReturnsCode(t *testing.T) {
	if got := i18n.T("no_such_code", nil); got != "no_such_code" {
		t.Fatalf("expected code passthrough, got %q", got)
	}
}

type upper struct{}

func (upper) Message(code string, _ map[string]string) string { return "X:" + code }

func TestSetTranslator(t *testing.T) {
	i18n.SetTranslator(upper{})
	defer i18n.SetTranslator(nil)
	if got := i18n.T("required", nil); got != "X:required" {
		t.Fatalf("custom translator not used: %q", got)
	}
}

func TestExpand_LeavesUnknownPlaceholders(t *testing.T) {
	got := i18n.Expand("{a} and {b}", map[string]string{"a": "1"})
	if got != "1 and {b}" {
		t.Fatalf("unexpected expansion: %q", got)
	}
}
