package transcript

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAssemble(t *testing.T) {
	tests := []struct {
		name     string
		segments []string
		want     string
	}{
		{name: "empty", segments: nil, want: ""},
		{name: "single segment", segments: []string{"hello world"}, want: "hello world"},
		{name: "multiple segments", segments: []string{"hello", "world"}, want: "hello world"},
		{name: "whitespace collapsed", segments: []string{"  hello ", "\tworld  "}, want: "hello world"},
		{name: "blank segments dropped", segments: []string{"", "hello", "   "}, want: "hello"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, Assemble(tc.segments))
		})
	}
}

func TestCapitalizeSentences(t *testing.T) {
	require.Equal(t, "Hello there. How are you?", CapitalizeSentences("hello there. how are you?"))
	require.Equal(t, "Wait! Really? Yes.", CapitalizeSentences("wait! really? yes."))
	require.Equal(t, "", CapitalizeSentences(""))

	// Devanagari has no case; text passes through untouched.
	require.Equal(t, "नमस्ते दुनिया", CapitalizeSentences("नमस्ते दुनिया"))
}
