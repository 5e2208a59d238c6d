package session

import (
	"errors"

	"github.com/speakly/speakly/internal/capture"
	"github.com/speakly/speakly/internal/langcode"
	"github.com/speakly/speakly/internal/translate"
	"github.com/speakly/speakly/internal/validate"
)

// mismatchMessages carries the script-mismatch hint in the user's own
// language for the sources where that matters most.
var mismatchMessages = map[string]string{
	"hi": "टेक्स्ट चुनी हुई भाषा से मेल नहीं खाता",
	"mr": "टेक्स्ट चुनी हुई भाषा से मेल नहीं खाता",
}

// statusMessage maps a pipeline failure to the line shown on the surface.
// sourceCode is the configured source at submission time.
func statusMessage(err error, sourceCode string) string {
	switch {
	case errors.Is(err, validate.ErrScriptMismatch):
		if msg, ok := mismatchMessages[langcode.Base(sourceCode)]; ok {
			return msg
		}
		return "Text does not match the selected language"
	case errors.Is(err, ErrOffline):
		return "You are offline; check your connection"
	case errors.Is(err, translate.ErrEmptyTranslation):
		return "Translation service returned nothing; try again"
	case errors.Is(err, translate.ErrTranslationFailed):
		return "Translation failed; try again"
	case errors.Is(err, capture.ErrUnavailable):
		return "Speech capture is not available on this system"
	case errors.Is(err, capture.ErrNoSpeech):
		return "No speech detected"
	default:
		return "Something went wrong; try again"
	}
}
