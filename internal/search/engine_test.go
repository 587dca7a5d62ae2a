package search

import (
	"bytes"
	"context"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/klauspost/compress/zip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	greaperrors "github.com/standardbeagle/greaper/internal/errors"
	"github.com/standardbeagle/greaper/internal/types"
)

func writeTree(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for name, content := range files {
		p := filepath.Join(root, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0755))
		require.NoError(t, os.WriteFile(p, []byte(content), 0644))
	}
	return root
}

func zipBytes(t *testing.T, files ...[2]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, f := range files {
		w, err := zw.Create(f[0])
		require.NoError(t, err)
		_, err = w.Write([]byte(f[1]))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func search(t *testing.T, root string, cfg Config) *Result {
	t.Helper()
	result, err := NewEngine().Search(context.Background(), root, cfg)
	require.NoError(t, err)
	return result
}

func relSources(root string, matches []MatchRecord) []string {
	out := make([]string, len(matches))
	for i, m := range matches {
		rel, _ := filepath.Rel(root, m.Source.String())
		out[i] = fmt.Sprintf("%s:%d", filepath.ToSlash(rel), m.LineNumber)
	}
	return out
}

func TestSearch_CapIsExact(t *testing.T) {
	files := map[string]string{}
	for f := 0; f < 5; f++ {
		var sb strings.Builder
		for i := 0; i < 10; i++ {
			fmt.Fprintf(&sb, "needle %d\n", i)
		}
		files[fmt.Sprintf("file%d.txt", f)] = sb.String()
	}
	root := writeTree(t, files)

	for _, workers := range []int{1, 4} {
		t.Run(fmt.Sprintf("workers=%d", workers), func(t *testing.T) {
			cfg := DefaultConfig("needle")
			cfg.MaxResults = 10
			cfg.Workers = workers

			result := search(t, root, cfg)
			assert.Len(t, result.Matches, 10)
			assert.True(t, result.Truncated)
		})
	}
}

func TestSearch_CapEqualToMatchCountIsNotTruncated(t *testing.T) {
	root := writeTree(t, map[string]string{"a.txt": "needle\nhay\nneedle\n"})

	for _, workers := range []int{1, 4} {
		t.Run(fmt.Sprintf("workers=%d", workers), func(t *testing.T) {
			cfg := DefaultConfig("needle")
			cfg.MaxResults = 2
			cfg.Workers = workers

			result := search(t, root, cfg)
			assert.Len(t, result.Matches, 2)
			assert.False(t, result.Truncated)

			cfg.MaxResults = 1
			result = search(t, root, cfg)
			assert.Len(t, result.Matches, 1)
			assert.True(t, result.Truncated)
		})
	}
}

func TestSearch_FuzzyScoresIndentedLineUntrimmed(t *testing.T) {
	root := writeTree(t, map[string]string{"a.txt": "foo\n        foo\n"})

	cfg := DefaultConfig("foo")
	cfg.Mode = types.ModeFuzzy
	cfg.FuzzyThreshold = 0.7
	result := search(t, root, cfg)

	require.Len(t, result.Matches, 1)
	assert.Equal(t, 1, result.Matches[0].LineNumber)
}

func TestSearch_SingleWorkerReturnsFirstMatchesInDiscoveryOrder(t *testing.T) {
	root := writeTree(t, map[string]string{
		"a.txt":     "hit 1\nmiss\nhit 2\n",
		"b/c.txt":   "hit 3\n",
		"b/d.txt":   "hit 4\nhit 5\n",
		"z.txt":     "hit 6\n",
		"b/sub.txt": "no\n",
	})

	cfg := DefaultConfig("hit")
	cfg.Workers = 1
	cfg.MaxResults = 4

	result := search(t, root, cfg)
	assert.Equal(t, []string{"a.txt:1", "a.txt:3", "b/c.txt:1", "b/d.txt:1"}, relSources(root, result.Matches))
}

func TestSearch_ParallelKeepsUnitOrder(t *testing.T) {
	files := map[string]string{}
	for i := 0; i < 20; i++ {
		files[fmt.Sprintf("f%02d.txt", i)] = "alpha\nbeta alpha\n"
	}
	root := writeTree(t, files)

	cfg := DefaultConfig("alpha")
	cfg.Workers = 8
	result := search(t, root, cfg)
	require.Len(t, result.Matches, 40)
	assert.False(t, result.Truncated)
	assert.Equal(t, 20, result.UnitsScanned)

	for i := 0; i < 20; i++ {
		first, second := result.Matches[2*i], result.Matches[2*i+1]
		assert.Equal(t, fmt.Sprintf("f%02d.txt", i), filepath.Base(first.Source.Archive))
		assert.Equal(t, 1, first.LineNumber)
		assert.Equal(t, 2, second.LineNumber)
	}
}

func TestSearch_ContextWindow(t *testing.T) {
	root := writeTree(t, map[string]string{
		"five.txt": "line one\nline two\nTARGET three\nline four\nline five\n",
	})

	cfg := DefaultConfig("TARGET")
	cfg.ContextLines = 2
	result := search(t, root, cfg)

	require.Len(t, result.Matches, 1)
	m := result.Matches[0]
	assert.Equal(t, 3, m.LineNumber)
	assert.Equal(t, "TARGET three", m.Line)
	assert.Equal(t, []string{"line one", "line two"}, m.ContextBefore)
	assert.Equal(t, []string{"line four", "line five"}, m.ContextAfter)
	assert.Nil(t, m.Score)
}

func TestSearch_SyntaxGating(t *testing.T) {
	root := writeTree(t, map[string]string{
		"mod.py": "# pure comment\nx = 1  # trailing comment\ns = 'comment in string'\n",
	})

	cfg := DefaultConfig("comment")
	cfg.SyntaxAware = true
	cfg.SyntaxMode = types.SyntaxComment
	result := search(t, root, cfg)
	require.Len(t, result.Matches, 1)
	assert.Equal(t, 1, result.Matches[0].LineNumber)

	cfg.SyntaxMode = types.SyntaxMixed
	result = search(t, root, cfg)
	require.Len(t, result.Matches, 2)
	assert.Equal(t, 2, result.Matches[0].LineNumber)
	assert.Equal(t, 3, result.Matches[1].LineNumber)

	// Without syntax awareness every line is a candidate
	cfg.SyntaxAware = false
	result = search(t, root, cfg)
	assert.Len(t, result.Matches, 3)
}

func TestSearch_SyntaxStateCarriesAcrossLines(t *testing.T) {
	root := writeTree(t, map[string]string{
		"doc.py": "def f():\n    \"\"\"\n    needle in docstring\n    \"\"\"\n    return needle\n",
	})

	cfg := DefaultConfig("needle")
	cfg.SyntaxAware = true
	cfg.SyntaxMode = types.SyntaxString
	result := search(t, root, cfg)
	require.Len(t, result.Matches, 1)
	assert.Equal(t, 3, result.Matches[0].LineNumber)
}

func TestSearch_NestedArchive(t *testing.T) {
	root := t.TempDir()
	inner := zipBytes(t, [2]string{"x.txt", "first\nneedle inside\n"})
	outer := zipBytes(t,
		[2]string{"inner.zip", string(inner)},
		[2]string{"top.txt", "needle on top\n"},
	)
	require.NoError(t, os.WriteFile(filepath.Join(root, "outer.zip"), outer, 0644))

	result := search(t, root, DefaultConfig("needle"))
	require.Len(t, result.Matches, 2)

	outerPath := filepath.Join(root, "outer.zip")
	assert.Equal(t, outerPath+"::top.txt", result.Matches[0].Source.String())
	assert.Equal(t, outerPath+"::inner.zip::x.txt", result.Matches[1].Source.String())
	assert.Equal(t, 2, result.Matches[1].LineNumber)
	assert.Equal(t, 2, result.UnitsScanned)

	cfg := DefaultConfig("needle")
	cfg.SearchArchives = false
	result = search(t, root, cfg)
	assert.Empty(t, result.Matches, "zip bytes are binary when archives are not expanded")
}

func TestSearch_ArchiveMembersUseGlobFilter(t *testing.T) {
	root := t.TempDir()
	archive := zipBytes(t,
		[2]string{"src/keep.py", "needle\n"},
		[2]string{"src/skip.md", "needle\n"},
	)
	require.NoError(t, os.WriteFile(filepath.Join(root, "bundle.zip"), archive, 0644))

	cfg := DefaultConfig("needle")
	cfg.IncludeGlobs = []string{"*.py"}
	result := search(t, root, cfg)
	require.Len(t, result.Matches, 1)
	assert.Equal(t, "src/keep.py", result.Matches[0].Source.MemberPath())
}

func TestSearch_CorruptArchiveIsSkipped(t *testing.T) {
	root := writeTree(t, map[string]string{
		"broken.zip": "not really a zip",
		"ok.txt":     "needle\n",
	})

	result := search(t, root, DefaultConfig("needle"))
	require.Len(t, result.Matches, 1)
	assert.Equal(t, 1, result.UnitsSkipped)
}

func TestSearch_IncludeExclude(t *testing.T) {
	root := writeTree(t, map[string]string{
		"a.py":             "needle\n",
		"a_test.py":        "needle\n",
		"notes.md":         "needle\n",
		"vendor/lib/x.py":  "needle\n",
		"pkg/deep/more.py": "needle\n",
	})

	cfg := DefaultConfig("needle")
	cfg.IncludeGlobs = []string{"*.py"}
	cfg.ExcludeGlobs = []string{"*_test.py", "vendor"}
	result := search(t, root, cfg)
	assert.Equal(t, []string{"a.py:1", "pkg/deep/more.py:1"}, relSources(root, result.Matches))
}

func TestSearch_RespectGitignore(t *testing.T) {
	root := writeTree(t, map[string]string{
		".gitignore":     "build/\n*.log\n",
		"build/out.txt":  "needle\n",
		"debug.log":      "needle\n",
		"src/main.txt":   "needle\n",
		"src/build/x.md": "needle\n",
	})

	cfg := DefaultConfig("needle")
	cfg.RespectGitignore = true
	result := search(t, root, cfg)
	assert.Equal(t, []string{"src/main.txt:1"}, relSources(root, result.Matches))

	cfg.RespectGitignore = false
	result = search(t, root, cfg)
	assert.Len(t, result.Matches, 4)
}

func TestSearch_BinaryFilesIgnored(t *testing.T) {
	root := writeTree(t, map[string]string{
		"blob.bin": "needle\x00\x01\x02",
		"text.txt": "needle\n",
	})

	result := search(t, root, DefaultConfig("needle"))
	require.Len(t, result.Matches, 1)
	assert.Equal(t, "text.txt", filepath.Base(result.Matches[0].Source.Archive))
}

func TestSearch_FuzzyScores(t *testing.T) {
	root := writeTree(t, map[string]string{
		"code.py": "def search_files():\n    pass\n",
	})

	cfg := DefaultConfig("def search_file():")
	cfg.Mode = types.ModeFuzzy
	cfg.FuzzyBackend = "pure"
	result := search(t, root, cfg)

	require.Len(t, result.Matches, 1)
	require.NotNil(t, result.Matches[0].Score)
	assert.Greater(t, *result.Matches[0].Score, 0.9)
	assert.Equal(t, "pure", result.Backend)
}

func TestSearch_SingleFileRoot(t *testing.T) {
	root := writeTree(t, map[string]string{"only.txt": "a\nneedle\n"})
	path := filepath.Join(root, "only.txt")

	result := search(t, path, DefaultConfig("needle"))
	require.Len(t, result.Matches, 1)
	assert.Equal(t, path, result.Matches[0].Source.String())
}

func TestSearch_MaxFileSize(t *testing.T) {
	root := writeTree(t, map[string]string{
		"small.txt": "needle\n",
		"large.txt": strings.Repeat("needle\n", 100),
	})

	cfg := DefaultConfig("needle")
	cfg.MaxFileSize = 64
	result := search(t, root, cfg)
	assert.Len(t, result.Matches, 1)
	assert.Equal(t, 1, result.UnitsSkipped)
}

func TestSearch_ConfigErrorsBeforeIO(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "does-not-exist")

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"invalid regex", func(c *Config) { c.Mode = types.ModeRegex; c.Pattern = "(" }},
		{"threshold too high", func(c *Config) { c.FuzzyThreshold = 1.5 }},
		{"negative threshold", func(c *Config) { c.FuzzyThreshold = -0.1 }},
		{"NaN threshold", func(c *Config) { c.FuzzyThreshold = math.NaN() }},
		{"zero cap", func(c *Config) { c.MaxResults = 0 }},
		{"negative context", func(c *Config) { c.ContextLines = -1 }},
		{"bad mode", func(c *Config) { c.Mode = "soundex" }},
		{"bad syntax mode", func(c *Config) { c.SyntaxMode = "docs" }},
		{"bad glob", func(c *Config) { c.IncludeGlobs = []string{"[oops"} }},
		{"bad backend", func(c *Config) { c.Mode = types.ModeFuzzy; c.FuzzyBackend = "gpu" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig("x")
			tt.mutate(&cfg)
			result, err := NewEngine().Search(context.Background(), missing, cfg)
			require.Error(t, err)
			assert.Nil(t, result)
			assert.True(t, greaperrors.IsConfigError(err), "got %v", err)
		})
	}
}

func TestSearch_MissingRoot(t *testing.T) {
	_, err := NewEngine().Search(context.Background(), filepath.Join(t.TempDir(), "nope"), DefaultConfig("x"))
	require.Error(t, err)
	assert.False(t, greaperrors.IsConfigError(err))
}

func TestSearch_CanceledContext(t *testing.T) {
	root := writeTree(t, map[string]string{"a.txt": "needle\n"})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result, err := NewEngine().Search(ctx, root, DefaultConfig("needle"))
	assert.ErrorIs(t, err, context.Canceled)
	require.NotNil(t, result)
	assert.Empty(t, result.Matches)
}
