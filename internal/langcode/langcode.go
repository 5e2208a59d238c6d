// Package langcode normalizes locale-like language codes and maps them to
// speech locales, expected writing systems, and display names.
package langcode

import (
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/language/display"

	"github.com/speakly/speakly/internal/script"
)

// Auto is the sentinel source code meaning "detect the source language".
const Auto = "auto"

// Base reduces a locale-like code ("hi-IN", "PT_br") to its base language tag.
//
// Empty input resolves to "en". The Auto sentinel passes through unchanged.
// Base is pure and idempotent: Base(Base(x)) == Base(x).
func Base(code string) string {
	code = strings.TrimSpace(code)
	if code == "" {
		return "en"
	}
	if strings.EqualFold(code, Auto) {
		return Auto
	}

	lower := strings.ToLower(code)
	if idx := strings.IndexAny(lower, "-_"); idx >= 0 {
		return lower[:idx]
	}
	return lower
}

// speechLocales maps common base tags to a representative region-qualified
// locale. This is a hint to the recognition/synthesis layer, not a guarantee.
var speechLocales = map[string]string{
	"en": "en-US",
	"hi": "hi-IN",
	"mr": "mr-IN",
	"bn": "bn-IN",
	"ta": "ta-IN",
	"te": "te-IN",
	"kn": "kn-IN",
	"ml": "ml-IN",
	"gu": "gu-IN",
	"pa": "pa-IN",
	"es": "es-ES",
	"fr": "fr-FR",
	"de": "de-DE",
	"zh": "zh-CN",
	"ja": "ja-JP",
	"ko": "ko-KR",
	"pt": "pt-BR",
	"ar": "ar-SA",
	"ru": "ru-RU",
}

// SpeechLocale returns the preferred speech locale for a base tag.
// Unknown codes pass through unchanged.
func SpeechLocale(base string) string {
	if locale, ok := speechLocales[Base(base)]; ok {
		return locale
	}
	return base
}

// expectedScripts maps languages with one clear writing system to that script.
// English is intentionally absent: Latin text must never fail validation.
var expectedScripts = map[string]script.Kind{
	"hi": script.Devanagari,
	"mr": script.Devanagari,
	"ne": script.Devanagari,
	"sa": script.Devanagari,
	"bn": script.Bengali,
	"pa": script.Gurmukhi,
	"gu": script.Gujarati,
	"ta": script.Tamil,
	"te": script.Telugu,
	"kn": script.Kannada,
	"ml": script.Malayalam,
}

// ExpectedScript returns the writing system expected for a base tag, or false
// when the language has no single expected script (including "en" and Auto).
func ExpectedScript(base string) (script.Kind, bool) {
	kind, ok := expectedScripts[Base(base)]
	return kind, ok
}

// Supported lists the base codes the command surface presents, Auto first.
func Supported() []string {
	return []string{
		Auto,
		"en", "hi", "mr", "bn", "ta", "te", "kn", "ml", "gu", "pa",
		"es", "fr", "de", "zh", "ja", "ko", "pt", "ar", "ru",
	}
}

// DisplayName renders a human-readable English name for a base tag,
// falling back to the raw code when the tag cannot be parsed.
func DisplayName(base string) string {
	base = Base(base)
	if base == Auto {
		return "Auto-detect"
	}

	tag, err := language.Parse(base)
	if err != nil {
		return base
	}
	if name := display.English.Tags().Name(tag); name != "" {
		return name
	}
	return base
}
