package session

import (
	"context"
	"errors"

	"github.com/speakly/speakly/internal/translate"
)

// ErrOffline indicates no network connectivity at submission time.
var ErrOffline = errors.New("network is unreachable")

// Translator performs one machine-translation request.
type Translator interface {
	Translate(context.Context, translate.Request) (translate.Result, error)
}

// TranslateFunc adapts a function to the Translator interface.
type TranslateFunc func(context.Context, translate.Request) (translate.Result, error)

func (f TranslateFunc) Translate(ctx context.Context, req translate.Request) (translate.Result, error) {
	return f(ctx, req)
}

// Capturer abstracts speech capture operations needed by session orchestration.
type Capturer interface {
	Available() bool
	Listening() bool
	Start(ctx context.Context, locale string) error
	Stop(ctx context.Context) (string, error)
	Cancel(ctx context.Context) error
}

// Detector guesses the language of a text snippet when the source is "auto".
type Detector interface {
	Detect(text string) (string, bool)
}

// DetectFunc adapts a function to the Detector interface.
type DetectFunc func(string) (string, bool)

func (f DetectFunc) Detect(text string) (string, bool) {
	return f(text)
}

// Copier mirrors translated output to the clipboard.
type Copier interface {
	Copy(context.Context, string) error
}
