package config

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestValidateDefaultsPass(t *testing.T) {
	warnings, err := Validate(Default())
	require.NoError(t, err)
	require.Empty(t, warnings)
}

func TestValidateRejections(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:    "empty translate endpoint",
			mutate:  func(c *Config) { c.Translate.Endpoint = " " },
			wantErr: "translate.endpoint",
		},
		{
			name:    "unknown provider",
			mutate:  func(c *Config) { c.Translate.Provider = "deepl" },
			wantErr: "translate.provider",
		},
		{
			name:    "zero timeout",
			mutate:  func(c *Config) { c.Translate.TimeoutMS = 0 },
			wantErr: "timeout_ms",
		},
		{
			name:    "empty recognizer endpoint",
			mutate:  func(c *Config) { c.Recognizer.Endpoint = "" },
			wantErr: "recognizer.endpoint",
		},
		{
			name:    "bad sample rate",
			mutate:  func(c *Config) { c.Recognizer.SampleRate = -1 },
			wantErr: "sample_rate",
		},
		{
			name:    "empty source",
			mutate:  func(c *Config) { c.Languages.Source = "" },
			wantErr: "languages.source",
		},
		{
			name:    "auto target",
			mutate:  func(c *Config) { c.Languages.Target = "auto" },
			wantErr: "languages.target",
		},
		{
			name:    "negative debounce",
			mutate:  func(c *Config) { c.Session.DebounceMS = -5 },
			wantErr: "debounce_ms",
		},
		{
			name:    "speech enabled without module",
			mutate:  func(c *Config) { c.Speech.Module = "" },
			wantErr: "speech.module",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			tc.mutate(&cfg)
			_, err := Validate(cfg)
			require.Error(t, err)
			require.Contains(t, err.Error(), tc.wantErr)
		})
	}
}

func TestValidateWarnsOnEmptyVoices(t *testing.T) {
	cfg := Default()
	cfg.Speech.Voices = nil

	warnings, err := Validate(cfg)
	require.NoError(t, err)
	require.NotEmpty(t, warnings)
	require.Contains(t, warnings[0].Message, "text-only")
}

func TestValidateWarnsOnLargeDebounce(t *testing.T) {
	cfg := Default()
	cfg.Session.DebounceMS = 3000

	warnings, err := Validate(cfg)
	require.NoError(t, err)
	require.NotEmpty(t, warnings)
}
