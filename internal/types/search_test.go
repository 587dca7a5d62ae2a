package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSearchMode(t *testing.T) {
	tests := []struct {
		in   string
		want SearchMode
	}{
		{"", ModeExact},
		{"exact", ModeExact},
		{" Regex ", ModeRegex},
		{"FUZZY", ModeFuzzy},
	}
	for _, tt := range tests {
		got, err := ParseSearchMode(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got)
	}

	_, err := ParseSearchMode("semantic")
	assert.Error(t, err)
}

func TestParseSyntaxMode(t *testing.T) {
	got, err := ParseSyntaxMode("")
	require.NoError(t, err)
	assert.Equal(t, SyntaxAll, got)

	got, err = ParseSyntaxMode("Comment")
	require.NoError(t, err)
	assert.Equal(t, SyntaxComment, got)

	_, err = ParseSyntaxMode("prose")
	assert.ErrorContains(t, err, "unknown syntax mode")
}
