package config

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseJSONCOverridesDefaults(t *testing.T) {
	content := `
{
  // translation backend
  "translate": {
    "endpoint": "https://mt.example.net/get",
    "provider": "mymemory",
    "api_key": "secret",
    "timeout_ms": 4000,
  },
  "recognizer": {
    "endpoint": "ws://10.0.0.2:2700",
    "sample_rate": 8000,
  },
  "languages": { "source": "auto", "target": "hi" },
  "session": { "debounce_ms": 650 },
  "speech": {
    "module": "rhvoice",
    "voices": [
      { "name": "anna", "lang": "hi" },
      { "name": "slt", "lang": "en" },
    ],
  },
  "clipboard_cmd": "xclip -selection clipboard",
}
`
	cfg, warnings, err := Parse(content, Default())
	require.NoError(t, err)
	require.Empty(t, warnings)

	require.Equal(t, "https://mt.example.net/get", cfg.Translate.Endpoint)
	require.Equal(t, "secret", cfg.Translate.APIKey)
	require.Equal(t, 4000, cfg.Translate.TimeoutMS)
	require.Equal(t, "ws://10.0.0.2:2700", cfg.Recognizer.Endpoint)
	require.Equal(t, 8000, cfg.Recognizer.SampleRate)
	require.Equal(t, "auto", cfg.Languages.Source)
	require.Equal(t, "hi", cfg.Languages.Target)
	require.Equal(t, 650, cfg.Session.DebounceMS)
	require.Equal(t, "rhvoice", cfg.Speech.Module)
	require.Equal(t, []VoiceEntry{{Name: "anna", Lang: "hi"}, {Name: "slt", Lang: "en"}}, cfg.Speech.Voices)
	require.Equal(t, []string{"xclip", "-selection", "clipboard"}, cfg.Clipboard.Argv)
}

func TestParseJSONCKeepsUnsetDefaults(t *testing.T) {
	cfg, _, err := Parse(`{ "languages": { "target": "es" } }`, Default())
	require.NoError(t, err)
	require.Equal(t, "es", cfg.Languages.Target)
	require.Equal(t, Default().Languages.Source, cfg.Languages.Source)
	require.Equal(t, Default().Translate, cfg.Translate)
}

func TestParseJSONCUnknownFieldFails(t *testing.T) {
	_, _, err := Parse(`{ "translat": { "endpoint": "x" } }`, Default())
	require.Error(t, err)
}

func TestParseJSONCSyntaxErrorReportsLine(t *testing.T) {
	content := "{\n  \"translate\": {\n    \"timeout_ms\": \"soon\"\n  }\n}"
	_, _, err := Parse(content, Default())
	require.Error(t, err)
	require.Contains(t, err.Error(), "line 3")
}

func TestParseJSONCBlockCommentAndTrailingCommas(t *testing.T) {
	content := `
{
  /* tuned for a slow
     network link */
  "translate": { "timeout_ms": 20000, },
}
`
	cfg, _, err := Parse(content, Default())
	require.NoError(t, err)
	require.Equal(t, 20000, cfg.Translate.TimeoutMS)
}

func TestParseJSONCRejectsIncompleteVoice(t *testing.T) {
	_, _, err := Parse(`{ "speech": { "voices": [ { "name": "anna" } ] } }`, Default())
	require.Error(t, err)
	require.Contains(t, err.Error(), "speech.voices[0]")
}

func TestParseJSONCMultipleValuesFail(t *testing.T) {
	_, _, err := Parse("{}\n{}", Default())
	require.Error(t, err)
}

func TestParseEmptyContentReturnsBase(t *testing.T) {
	cfg, _, err := Parse("   \n\t", Default())
	require.NoError(t, err)
	require.Equal(t, Default(), cfg)
}
