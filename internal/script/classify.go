// Package script classifies text by writing system using Unicode block membership.
package script

import "unicode"

// Kind names the writing system a text snippet is judged to be written in.
type Kind string

const (
	Unknown    Kind = "unknown"
	Devanagari Kind = "devanagari"
	Bengali    Kind = "bengali"
	Gurmukhi   Kind = "gurmukhi"
	Gujarati   Kind = "gujarati"
	Tamil      Kind = "tamil"
	Telugu     Kind = "telugu"
	Kannada    Kind = "kannada"
	Malayalam  Kind = "malayalam"
	Latin      Kind = "latin"
	Other      Kind = "other"
)

type block struct {
	lo, hi rune
	kind   Kind
}

// Indic blocks are checked before Latin so that mixed-script strings classify
// by the significant script, not by an incidental embedded English word. This
// is a best-effort approximation for short phrases, not a guarantee.
var indicBlocks = []block{
	{0x0900, 0x097F, Devanagari},
	{0x0980, 0x09FF, Bengali},
	{0x0A00, 0x0A7F, Gurmukhi},
	{0x0A80, 0x0AFF, Gujarati},
	{0x0B80, 0x0BFF, Tamil},
	{0x0C00, 0x0C7F, Telugu},
	{0x0C80, 0x0CFF, Kannada},
	{0x0D00, 0x0D7F, Malayalam},
}

// Classify reports the dominant writing system of text.
//
// Empty or whitespace-only input is Unknown. Any rune inside a known Indic
// block wins over Latin; otherwise any ASCII letter means Latin; anything
// else is Other.
func Classify(text string) Kind {
	sawLatin := false
	sawContent := false

	for _, r := range text {
		if unicode.IsSpace(r) {
			continue
		}
		sawContent = true

		if kind, ok := indicKind(r); ok {
			return kind
		}
		if isASCIILetter(r) {
			sawLatin = true
		}
	}

	switch {
	case !sawContent:
		return Unknown
	case sawLatin:
		return Latin
	default:
		return Other
	}
}

func indicKind(r rune) (Kind, bool) {
	for _, b := range indicBlocks {
		if r >= b.lo && r <= b.hi {
			return b.kind, true
		}
	}
	return Unknown, false
}

func isASCIILetter(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
}
