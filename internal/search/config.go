package search

import (
	"fmt"
	"math"
	"runtime"

	greaperrors "github.com/standardbeagle/greaper/internal/errors"
	"github.com/standardbeagle/greaper/internal/matcher"
	"github.com/standardbeagle/greaper/internal/types"
)

// Config describes one search invocation
type Config struct {
	Pattern        string
	Mode           types.SearchMode
	IgnoreCase     bool
	WholeWord      bool
	FuzzyThreshold float64
	SyntaxAware    bool
	SyntaxMode     types.SyntaxMode
	IncludeGlobs   []string
	ExcludeGlobs   []string
	ContextLines   int
	MaxResults     int

	// Execution knobs
	Workers          int   // 0 means runtime.NumCPU()
	SearchArchives   bool  // expand archive files into their members
	MaxArchiveDepth  int   // nesting limit for archives inside archives
	MaxMemberSize    int64 // largest decompressed member read into memory
	MaxFileSize      int64 // plain files above this size are skipped; 0 means no limit
	RespectGitignore bool  // add the root .gitignore to the exclude globs
	FuzzyBackend     string
}

// DefaultConfig returns an exact-mode configuration for pattern
func DefaultConfig(pattern string) Config {
	return Config{
		Pattern:         pattern,
		Mode:            types.ModeExact,
		FuzzyThreshold:  types.DefaultFuzzyThreshold,
		SyntaxMode:      types.SyntaxAll,
		ContextLines:    types.DefaultContextLines,
		MaxResults:      types.DefaultMaxResults,
		SearchArchives:  true,
		MaxArchiveDepth: types.DefaultMaxArchiveDepth,
		MaxMemberSize:   types.DefaultMaxMemberSize,
		FuzzyBackend:    matcher.BackendAuto,
	}
}

// Validate checks the invariants that must hold before any file is touched
func (c Config) Validate() error {
	if _, err := types.ParseSearchMode(string(c.Mode)); err != nil {
		return greaperrors.NewConfigError("mode", string(c.Mode), err)
	}
	if _, err := types.ParseSyntaxMode(string(c.SyntaxMode)); err != nil {
		return greaperrors.NewConfigError("syntax_mode", string(c.SyntaxMode), err)
	}
	if math.IsNaN(c.FuzzyThreshold) || c.FuzzyThreshold < 0 || c.FuzzyThreshold > 1 {
		return greaperrors.NewConfigError("fuzzy_threshold", fmt.Sprint(c.FuzzyThreshold),
			fmt.Errorf("must be between 0 and 1"))
	}
	if c.MaxResults <= 0 {
		return greaperrors.NewConfigError("max_results", fmt.Sprint(c.MaxResults),
			fmt.Errorf("must be greater than 0"))
	}
	if c.ContextLines < 0 {
		return greaperrors.NewConfigError("context_lines", fmt.Sprint(c.ContextLines),
			fmt.Errorf("must not be negative"))
	}
	if c.Workers < 0 {
		return greaperrors.NewConfigError("workers", fmt.Sprint(c.Workers),
			fmt.Errorf("must not be negative"))
	}
	if c.MaxArchiveDepth < 0 {
		return greaperrors.NewConfigError("max_archive_depth", fmt.Sprint(c.MaxArchiveDepth),
			fmt.Errorf("must not be negative"))
	}
	if c.MaxFileSize < 0 || c.MaxMemberSize < 0 {
		return greaperrors.NewConfigError("size_limits", fmt.Sprintf("%d/%d", c.MaxFileSize, c.MaxMemberSize),
			fmt.Errorf("must not be negative"))
	}
	return nil
}

func (c Config) workers() int {
	if c.Workers > 0 {
		return c.Workers
	}
	return runtime.NumCPU()
}

func (c Config) matcherOptions() matcher.Options {
	mode, _ := types.ParseSearchMode(string(c.Mode))
	return matcher.Options{
		Mode:           mode,
		IgnoreCase:     c.IgnoreCase,
		WholeWord:      c.WholeWord,
		FuzzyThreshold: c.FuzzyThreshold,
		FuzzyBackend:   c.FuzzyBackend,
	}
}

func (c Config) syntaxMode() types.SyntaxMode {
	mode, _ := types.ParseSyntaxMode(string(c.SyntaxMode))
	return mode
}
