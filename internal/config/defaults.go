package config

// Default returns the canonical runtime configuration used when no file is present.
func Default() Config {
	clipboard := "wl-copy --trim-newline"

	return Config{
		Translate: TranslateConfig{
			Endpoint:  "https://api.mymemory.translated.net/get",
			Provider:  "mymemory",
			TimeoutMS: 10000,
		},
		Recognizer: RecognizerConfig{
			Endpoint:   "ws://127.0.0.1:2700",
			SampleRate: 16000,
		},
		Audio: AudioConfig{
			Input:    "default",
			Fallback: "default",
		},
		Languages: LanguageConfig{
			Source: "hi-IN",
			Target: "en",
		},
		Session: SessionConfig{DebounceMS: 700},
		Speech: SpeechConfig{
			Enable:     true,
			Module:     "espeak-ng",
			ClientName: "speakly",
			Voices: []VoiceEntry{
				{Name: "english-us", Lang: "en"},
				{Name: "hindi", Lang: "hi"},
				{Name: "marathi", Lang: "mr"},
				{Name: "bengali", Lang: "bn"},
				{Name: "tamil", Lang: "ta"},
				{Name: "spanish", Lang: "es"},
				{Name: "french", Lang: "fr"},
				{Name: "german", Lang: "de"},
			},
		},
		Clipboard: CommandConfig{Raw: clipboard, Argv: mustParseArgv(clipboard)},
	}
}
