package i18n

import (
	"strings"
	"sync"
)

// Translator retrieves localized messages for issue codes.
// data provides optional values to embed in the message; a placeholder
// "{key}" in a dictionary entry is replaced by data["key"].
type Translator interface {
	Message(code string, data map[string]string) string
}

// dictTranslator is the built-in dictionary-based Translator.
type dictTranslator struct{ lang string }

var dictionaries = map[string]map[string]string{
	"en": {
		"invalid_type":          "expected {expected}",
		"required":              "missing required property {key}",
		"unknown_key":           "unexpected property {key}",
		"invalid_enum":          "value is not one of the allowed values",
		"invalid_format":        "invalid {format}",
		"overflow":              "value out of range for {expected}",
		"discriminator_missing": "missing discriminator tag {key}",
		"discriminator_unknown": "unknown discriminator value {value}",
		"duplicate_key":         "duplicate key {key}",
		"parse_error":           "parse error",
		"too_deep":              "maximum depth exceeded",
		"truncated":             "truncated",
		"property_missing":      "property {property} does not exist on the request",
	},
	"ja": {
		"invalid_type":          "型が不正です ({expected} が必要です)",
		"required":              "必須プロパティ {key} が不足しています",
		"unknown_key":           "未知のキー {key} です",
		"invalid_enum":          "許可されていない値です",
		"invalid_format":        "{format} の形式が不正です",
		"overflow":              "{expected} の範囲外です",
		"discriminator_missing": "識別子 {key} がありません",
		"discriminator_unknown": "未知の識別子 {value} です",
		"duplicate_key":         "キー {key} が重複しています",
		"parse_error":           "解析エラー",
		"too_deep":              "最大深度を超えました",
		"truncated":             "打ち切られました",
		"property_missing":      "リクエストにプロパティ {property} が存在しません",
	},
}

func (t dictTranslator) Message(code string, data map[string]string) string {
	msg, ok := dictionaries[t.lang][code]
	if !ok {
		return code
	}
	return Expand(msg, data)
}

// Expand substitutes "{key}" placeholders in msg with values from data.
// Placeholders without a value are left untouched.
func Expand(msg string, data map[string]string) string {
	if len(data) == 0 || !strings.Contains(msg, "{") {
		return msg
	}
	pairs := make([]string, 0, len(data)*2)
	for k, v := range data {
		pairs = append(pairs, "{"+k+"}", v)
	}
	return strings.NewReplacer(pairs...).Replace(msg)
}

var (
	mu                           = sync.RWMutex{}
	currentTranslator Translator = dictTranslator{lang: "en"}
)

// SetLanguage switches the built-in Translator language ("en"/"ja").
func SetLanguage(lang string) {
	if lang != "ja" {
		lang = "en"
	}
	mu.Lock()
	currentTranslator = dictTranslator{lang: lang}
	mu.Unlock()
}

// SetTranslator replaces the Translator implementation (not limited to the
// dictionary version).
func SetTranslator(tr Translator) {
	if tr == nil {
		tr = dictTranslator{lang: "en"}
	}
	mu.Lock()
	currentTranslator = tr
	mu.Unlock()
}

// T fetches a message for the given code using the current Translator.
func T(code string, data map[string]string) string {
	mu.RLock()
	tr := currentTranslator
	mu.RUnlock()
	return tr.Message(code, data)
}
