// Package detect resolves a concrete source language for "auto" mode.
package detect

import (
	"strings"
	"sync"

	"github.com/pemistahl/lingua-go"
)

// candidateLanguages is the closed set the detector distinguishes between.
// Restricting the set keeps detection usable on short phrases.
var candidateLanguages = []lingua.Language{
	lingua.English,
	lingua.Hindi,
	lingua.Marathi,
	lingua.Bengali,
	lingua.Punjabi,
	lingua.Gujarati,
	lingua.Tamil,
	lingua.Telugu,
	lingua.Spanish,
	lingua.French,
	lingua.German,
	lingua.Chinese,
	lingua.Japanese,
	lingua.Korean,
	lingua.Portuguese,
	lingua.Arabic,
	lingua.Russian,
}

// Detector wraps a lingua language detector behind a small base-code API.
// Building the underlying models is expensive; reuse one instance.
type Detector struct {
	buildOnce sync.Once
	detector  lingua.LanguageDetector
}

// New returns a Detector that builds its language models lazily on first use.
func New() *Detector {
	return &Detector{}
}

// Detect returns the ISO 639-1 base code detected for text, or false when
// the language cannot be determined with any confidence.
func (d *Detector) Detect(text string) (string, bool) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", false
	}

	d.buildOnce.Do(func() {
		d.detector = lingua.NewLanguageDetectorBuilder().
			FromLanguages(candidateLanguages...).
			Build()
	})

	language, ok := d.detector.DetectLanguageOf(text)
	if !ok {
		return "", false
	}
	return strings.ToLower(language.IsoCode639_1().String()), true
}
