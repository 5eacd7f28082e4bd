package llm

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSupportsJSONMode(t *testing.T) {
	require.True(t, supportsJSONMode("gpt-4o-mini"))
	require.True(t, supportsJSONMode("gpt-4-turbo-2024-04-09"))
	require.True(t, supportsJSONMode("gpt-3.5-turbo"))
	require.False(t, supportsJSONMode("gpt-4o"))
	require.False(t, supportsJSONMode("claude-3-opus"))
}

func TestStripMarkdownFence(t *testing.T) {
	cases := []struct {
		name  string
		input string
		want  string
	}{
		{"no fence", `{"tier":"I"}`, `{"tier":"I"}`},
		{"json fence", "```json\n{\"tier\":\"I\"}\n```", `{"tier":"I"}`},
		{"bare fence", "```\n{\"tier\":\"I\"}\n```", `{"tier":"I"}`},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			require.Equal(t, c.want, stripMarkdownFence(c.input))
		})
	}
}
