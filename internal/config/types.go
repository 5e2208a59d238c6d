// Package config resolves, parses, validates, and defaults speakly configuration.
package config

// Config is the fully materialized runtime configuration used by speakly.
type Config struct {
	Translate  TranslateConfig
	Recognizer RecognizerConfig
	Audio      AudioConfig
	Languages  LanguageConfig
	Session    SessionConfig
	Speech     SpeechConfig
	Clipboard  CommandConfig
}

// TranslateConfig controls the machine-translation backend.
type TranslateConfig struct {
	Endpoint  string
	Provider  string
	APIKey    string
	TimeoutMS int
}

// RecognizerConfig controls the streaming speech recognizer connection.
type RecognizerConfig struct {
	Endpoint   string
	SampleRate int
}

// AudioConfig controls preferred and fallback input-source selection.
type AudioConfig struct {
	Input    string
	Fallback string
}

// LanguageConfig holds the default source and target language codes.
type LanguageConfig struct {
	Source string
	Target string
}

// SessionConfig controls interactive session behavior.
type SessionConfig struct {
	DebounceMS int
}

// SpeechConfig controls speech synthesis output.
type SpeechConfig struct {
	Enable     bool
	Module     string
	ClientName string
	Voices     []VoiceEntry
}

// VoiceEntry declares one installed synthesis voice and its language.
type VoiceEntry struct {
	Name string
	Lang string
}

// CommandConfig stores a raw command string and its parsed argv form.
type CommandConfig struct {
	Raw  string
	Argv []string
}

// Warning is a non-fatal parse/validation message.
type Warning struct {
	Line    int
	Message string
}
