package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/standardbeagle/greaper/internal/types"
)

func TestParseKDL_Defaults(t *testing.T) {
	cfg, err := parseKDL("")
	require.NoError(t, err)
	require.NotNil(t, cfg)

	assert.Equal(t, 1, cfg.Version)
	assert.Equal(t, "exact", cfg.Search.Mode)
	assert.Equal(t, types.DefaultFuzzyThreshold, cfg.Search.FuzzyThreshold)
	assert.Equal(t, types.DefaultMaxResults, cfg.Search.MaxResults)
	assert.True(t, cfg.Archive.Enabled)
	assert.Equal(t, types.DefaultMaxArchiveDepth, cfg.Archive.MaxDepth)
	assert.Equal(t, DefaultWatchDebounceMs, cfg.Watch.DebounceMs)
	assert.Equal(t, getDefaultExclusions(), cfg.Exclude)
}

func TestParseKDL_FullConfig(t *testing.T) {
	kdlContent := `
version 1

project {
    root "src"
    name "demo"
}

search {
    mode "fuzzy"
    ignore_case true
    whole_word true
    fuzzy_threshold 0.85
    fuzzy_backend "pure"
    context_lines 3
    max_results 42
    syntax_aware true
    syntax_mode "comment"
    respect_gitignore false
    skip_build_outputs false
    max_file_size "2MB"
}

archive {
    enabled false
    max_depth 1
    max_member_size 4096
}

performance {
    workers 6
}

watch {
    debounce_ms 150
}

include "*.py" "*.go"

exclude {
    "**/fixtures/**"
    "*.min.js"
}
`
	cfg, err := parseKDL(kdlContent)
	require.NoError(t, err)

	assert.Equal(t, "src", cfg.Project.Root)
	assert.Equal(t, "demo", cfg.Project.Name)

	assert.Equal(t, "fuzzy", cfg.Search.Mode)
	assert.True(t, cfg.Search.IgnoreCase)
	assert.True(t, cfg.Search.WholeWord)
	assert.Equal(t, 0.85, cfg.Search.FuzzyThreshold)
	assert.Equal(t, "pure", cfg.Search.FuzzyBackend)
	assert.Equal(t, 3, cfg.Search.ContextLines)
	assert.Equal(t, 42, cfg.Search.MaxResults)
	assert.True(t, cfg.Search.SyntaxAware)
	assert.Equal(t, "comment", cfg.Search.SyntaxMode)
	assert.False(t, cfg.Search.RespectGitignore)
	assert.False(t, cfg.Search.SkipBuildOutputs)
	assert.Equal(t, int64(2*1024*1024), cfg.Search.MaxFileSize)

	assert.False(t, cfg.Archive.Enabled)
	assert.Equal(t, 1, cfg.Archive.MaxDepth)
	assert.Equal(t, int64(4096), cfg.Archive.MaxMemberSize)

	assert.Equal(t, 6, cfg.Performance.Workers)
	assert.Equal(t, 150, cfg.Watch.DebounceMs)

	assert.Equal(t, []string{"*.py", "*.go"}, cfg.Include)
	assert.Equal(t, []string{"**/fixtures/**", "*.min.js"}, cfg.Exclude)
}

func TestParseKDL_IntegerToFloat(t *testing.T) {
	cfg, err := parseKDL("search {\n    fuzzy_threshold 1\n}\n")
	require.NoError(t, err)
	assert.Equal(t, 1.0, cfg.Search.FuzzyThreshold)
}

func TestParseKDL_WrongTypeKeepsDefault(t *testing.T) {
	cfg, err := parseKDL("search {\n    max_results \"many\"\n    fuzzy_threshold \"high\"\n}\n")
	require.NoError(t, err)
	assert.Equal(t, types.DefaultMaxResults, cfg.Search.MaxResults)
	assert.Equal(t, types.DefaultFuzzyThreshold, cfg.Search.FuzzyThreshold)
}

func TestParseKDL_DefaultTemplate(t *testing.T) {
	cfg, err := parseKDL(DefaultKDL)
	require.NoError(t, err)

	cfg.Project.Root = t.TempDir()
	assert.NoError(t, ValidateConfig(cfg))
	assert.Equal(t, int64(64*1024*1024), cfg.Archive.MaxMemberSize)
	assert.Equal(t, int64(0), cfg.Search.MaxFileSize)
	assert.Contains(t, cfg.Exclude, "node_modules")
}

func TestLoadKDL_ResolvesRelativeRoot(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, KDLFileName),
		[]byte("project {\n    root \"sub/..\"\n}\n"), 0644))

	cfg, err := LoadKDL(dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Clean(dir), cfg.Project.Root)

	missing, err := LoadKDL(t.TempDir())
	assert.NoError(t, err)
	assert.Nil(t, missing)
}

func TestParseSize(t *testing.T) {
	tests := []struct {
		in      string
		want    int64
		wantErr bool
	}{
		{"10MB", 10 * 1024 * 1024, false},
		{"500kb", 500 * 1024, false},
		{"1GB", 1024 * 1024 * 1024, false},
		{"12B", 12, false},
		{"77", 77, false},
		{" 3 MB ", 3 * 1024 * 1024, false},
		{"big", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := parseSize(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
