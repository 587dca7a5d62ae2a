package matcher

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	greaperrors "github.com/standardbeagle/greaper/internal/errors"
	"github.com/standardbeagle/greaper/internal/types"
)

func TestRegexMatcher(t *testing.T) {
	tests := []struct {
		name    string
		pattern string
		opts    Options
		line    string
		want    bool
	}{
		{"exact substring", "foo", Options{Mode: types.ModeExact}, "a foobar b", true},
		{"exact is literal", "a.c", Options{Mode: types.ModeExact}, "abc", false},
		{"exact literal dot", "a.c", Options{Mode: types.ModeExact}, "x a.c y", true},
		{"exact case sensitive", "Foo", Options{Mode: types.ModeExact}, "foo", false},
		{"exact ignore case", "Foo", Options{Mode: types.ModeExact, IgnoreCase: true}, "FOO", true},
		{"whole word hit", "foo", Options{Mode: types.ModeExact, WholeWord: true}, "call foo()", true},
		{"whole word miss", "foo", Options{Mode: types.ModeExact, WholeWord: true}, "foobar", false},
		{"regex", `fo+\d`, Options{Mode: types.ModeRegex}, "fooo7", true},
		{"regex alternation with word", "cat|dog", Options{Mode: types.ModeRegex, WholeWord: true}, "hotdog", false},
		{"regex alternation word hit", "cat|dog", Options{Mode: types.ModeRegex, WholeWord: true}, "a dog here", true},
		{"regex ignore case", "^error", Options{Mode: types.ModeRegex, IgnoreCase: true}, "ERROR: x", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := New(tt.pattern, tt.opts)
			require.NoError(t, err)
			ok, score := m.Match(tt.line)
			assert.Equal(t, tt.want, ok)
			if ok {
				assert.Equal(t, 1.0, score)
			}
			assert.Empty(t, m.Backend())
		})
	}
}

func TestRegexMatcher_InvalidPattern(t *testing.T) {
	_, err := New("(unclosed", Options{Mode: types.ModeRegex})
	require.Error(t, err)
	assert.True(t, greaperrors.IsConfigError(err))

	// The same text is fine as a literal
	_, err = New("(unclosed", Options{Mode: types.ModeExact})
	assert.NoError(t, err)
}

func TestFuzzyMatcher(t *testing.T) {
	m, err := New("def search_files", Options{Mode: types.ModeFuzzy, FuzzyThreshold: 0.7, FuzzyBackend: "pure"})
	require.NoError(t, err)
	assert.Equal(t, BackendPure, m.Backend())

	ok, score := m.Match("def search_file")
	assert.True(t, ok)
	assert.Greater(t, score, 0.9)

	ok, score = m.Match("completely unrelated text here")
	assert.False(t, ok)
	assert.Less(t, score, 0.7)
}

func TestFuzzyMatcher_IgnoreCase(t *testing.T) {
	sensitive, err := NewFuzzyMatcher("HELLO", 1.0, false, PureDistance{})
	require.NoError(t, err)
	ok, _ := sensitive.Match("hello")
	assert.False(t, ok)

	insensitive, err := NewFuzzyMatcher("HELLO", 1.0, true, PureDistance{})
	require.NoError(t, err)
	ok, score := insensitive.Match("hello")
	assert.True(t, ok)
	assert.Equal(t, 1.0, score)
}

func TestFuzzyMatcher_IndentationCounts(t *testing.T) {
	m, err := NewFuzzyMatcher("foo", 0.7, false, PureDistance{})
	require.NoError(t, err)

	ok, trimmed := m.Match("foo")
	assert.True(t, ok)
	assert.Equal(t, 1.0, trimmed)

	ok, indented := m.Match("        foo")
	assert.False(t, ok)
	assert.InDelta(t, 1.0-8.0/11.0, indented, 1e-9)
	assert.Less(t, indented, trimmed)
}

func TestFuzzyMatcher_ThresholdBounds(t *testing.T) {
	_, err := NewFuzzyMatcher("x", 1.5, false, nil)
	assert.True(t, greaperrors.IsConfigError(err))

	_, err = NewFuzzyMatcher("x", -0.1, false, nil)
	assert.True(t, greaperrors.IsConfigError(err))

	_, err = NewFuzzyMatcher("x", math.NaN(), false, nil)
	assert.True(t, greaperrors.IsConfigError(err))

	m, err := NewFuzzyMatcher("x", 0, false, nil)
	require.NoError(t, err)
	ok, _ := m.Match("anything at all")
	assert.True(t, ok, "threshold 0 accepts every line")
	assert.Equal(t, BackendEdlib, m.Backend())
}

func TestFuzzyMatcher_BackendsAgree(t *testing.T) {
	lines := []string{"import os", "imprt os", "from os import path", "", "   import  os  "}
	pure, err := NewFuzzyMatcher("import os", 0.7, false, PureDistance{})
	require.NoError(t, err)
	fast, err := NewFuzzyMatcher("import os", 0.7, false, EdlibDistance{})
	require.NoError(t, err)

	for _, line := range lines {
		okA, scoreA := pure.Match(line)
		okB, scoreB := fast.Match(line)
		assert.Equal(t, okA, okB, line)
		assert.Equal(t, scoreA, scoreB, line)
	}
}

func TestNew_UnknownBackend(t *testing.T) {
	_, err := New("x", Options{Mode: types.ModeFuzzy, FuzzyThreshold: 0.5, FuzzyBackend: "quantum"})
	assert.True(t, greaperrors.IsConfigError(err))
}
