// Package synth provides speech synthesis output through speech-dispatcher.
package synth

import "context"

// Engine is the session-facing synthesis surface. Speech output is a single
// global channel: callers cancel any in-progress utterance before speaking.
type Engine interface {
	Speak(ctx context.Context, text string, locale string) error
	Cancel() error
	Close() error
}

// Noop discards all synthesis requests. It stands in when speech-dispatcher
// is unavailable or speech output is disabled, keeping the session flow
// identical either way.
type Noop struct{}

func (Noop) Speak(context.Context, string, string) error { return nil }
func (Noop) Cancel() error                               { return nil }
func (Noop) Close() error                                { return nil }
