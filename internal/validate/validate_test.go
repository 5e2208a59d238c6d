package validate

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCheckDevanagariSourcesAcceptDevanagari(t *testing.T) {
	for _, source := range []string{"hi", "hi-IN", "mr", "mr-IN"} {
		require.NoError(t, Check("नमस्ते दुनिया", source), "source %q", source)
	}
}

func TestCheckDevanagariSourcesRejectLatin(t *testing.T) {
	for _, source := range []string{"hi", "hi-IN", "mr", "MR-in"} {
		err := Check("hello world", source)
		require.ErrorIs(t, err, ErrScriptMismatch, "source %q", source)
	}
}

func TestCheckAutoAlwaysPasses(t *testing.T) {
	for _, text := range []string{"hello", "नमस्ते", "1234", ""} {
		require.NoError(t, Check(text, "auto"))
	}
}

func TestCheckEnglishNeverBlocks(t *testing.T) {
	// Devanagari text under an English source stays permissive: transliteration
	// tools produce exactly this combination.
	require.NoError(t, Check("hello", "en"))
	require.NoError(t, Check("नमस्ते", "en"))
	require.NoError(t, Check("नमस्ते", "en-US"))
}

func TestCheckNonLatinWrongScriptStaysPermissive(t *testing.T) {
	// Only the Latin direction blocks; Bengali text under a Hindi source is
	// ambiguous enough to let the translation attempt proceed.
	require.NoError(t, Check("নমস্কার", "hi"))
	require.NoError(t, Check("1234", "hi"))
}
