// Package transcript assembles recognized speech segments into display text.
package transcript

import (
	"strings"
	"unicode"
)

// Assemble joins final recognizer segments and normalizes whitespace.
func Assemble(finalSegments []string) string {
	if len(finalSegments) == 0 {
		return ""
	}

	joined := strings.Join(finalSegments, " ")
	return strings.Join(strings.Fields(joined), " ")
}

// CapitalizeSentences uppercases the first letter of each sentence. It is
// applied to Latin-script display text only; Indic scripts have no case.
func CapitalizeSentences(text string) string {
	runes := []rune(text)

	var out strings.Builder
	out.Grow(len(text))

	capitalizeNext := true
	for _, r := range runes {
		if capitalizeNext && unicode.IsLetter(r) {
			r = unicode.ToUpper(r)
			capitalizeNext = false
		}

		out.WriteRune(r)

		switch r {
		case '.', '!', '?':
			capitalizeNext = true
		}
	}

	return out.String()
}
