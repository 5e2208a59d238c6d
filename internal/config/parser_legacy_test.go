package config

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseLegacyKeyValue(t *testing.T) {
	content := `
# local setup
translate_provider = libre
translate_endpoint = http://127.0.0.1:5000/translate
source_lang = auto
target_lang = fr
debounce_ms = 800
speech_enable = false
clipboard_cmd = xclip -selection clipboard
`
	cfg, warnings, err := Parse(content, Default())
	require.NoError(t, err)

	require.Equal(t, "libre", cfg.Translate.Provider)
	require.Equal(t, "http://127.0.0.1:5000/translate", cfg.Translate.Endpoint)
	require.Equal(t, "auto", cfg.Languages.Source)
	require.Equal(t, "fr", cfg.Languages.Target)
	require.Equal(t, 800, cfg.Session.DebounceMS)
	require.False(t, cfg.Speech.Enable)
	require.Equal(t, []string{"xclip", "-selection", "clipboard"}, cfg.Clipboard.Argv)

	require.NotEmpty(t, warnings)
	require.Contains(t, warnings[0].Message, "deprecated")
}

func TestParseLegacyUnknownKeyWarns(t *testing.T) {
	_, warnings, err := Parse("paste_shortcut = CTRL,V\n", Default())
	require.NoError(t, err)

	found := false
	for _, w := range warnings {
		if w.Line == 1 && w.Message == `unknown config key "paste_shortcut"` {
			found = true
		}
	}
	require.True(t, found, "expected unknown-key warning, got %v", warnings)
}

func TestParseLegacyBadIntegerFails(t *testing.T) {
	_, _, err := Parse("debounce_ms = soon\n", Default())
	require.Error(t, err)
	require.Contains(t, err.Error(), "debounce_ms")
}

func TestParseLegacyMalformedLineWarns(t *testing.T) {
	_, warnings, err := Parse("just some words\n", Default())
	require.NoError(t, err)
	require.NotEmpty(t, warnings)
}
