// Package validate gates input text against the declared source language.
package validate

import (
	"errors"
	"fmt"

	"github.com/speakly/speakly/internal/langcode"
	"github.com/speakly/speakly/internal/script"
)

// ErrScriptMismatch indicates input text is written in a script that cannot
// belong to the declared source language.
var ErrScriptMismatch = errors.New("input script does not match source language")

// Check validates text against the declared source language code.
//
// Languages without a single expected script (including "en" and "auto")
// always pass. The only blocking direction is an expected Indic script with
// purely Latin input: Latin and Devanagari-family scripts virtually never
// co-occur meaningfully in a short phrase, so that is strong evidence of a
// wrong language selection. The symmetric direction stays permissive to keep
// false rejections rare.
func Check(text string, sourceCode string) error {
	base := langcode.Base(sourceCode)
	if base == langcode.Auto {
		return nil
	}

	expected, ok := langcode.ExpectedScript(base)
	if !ok {
		return nil
	}

	got := script.Classify(text)
	if got == script.Latin && got != expected {
		return fmt.Errorf("expected %s text for source %q, got %s: %w", expected, base, got, ErrScriptMismatch)
	}
	return nil
}
