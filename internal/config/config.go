package config

import (
	"os"
	"runtime"

	"github.com/standardbeagle/greaper/internal/search"
	"github.com/standardbeagle/greaper/internal/types"
)

// File names probed in the home directory and the project root
const (
	KDLFileName  = ".greaper.kdl"
	TOMLFileName = ".greaper.toml"
)

// DefaultWatchDebounceMs is the quiet period before a watch batch fires
const DefaultWatchDebounceMs = 300

type Config struct {
	Version     int         `toml:"version"`
	Project     Project     `toml:"project"`
	Search      Search      `toml:"search"`
	Archive     Archive     `toml:"archive"`
	Performance Performance `toml:"performance"`
	Watch       Watch       `toml:"watch"`
	Include     []string    `toml:"include"`
	Exclude     []string    `toml:"exclude"`
}

type Project struct {
	Root string `toml:"root"`
	Name string `toml:"name"`
}

type Search struct {
	Mode             string  `toml:"mode"`
	IgnoreCase       bool    `toml:"ignore_case"`
	WholeWord        bool    `toml:"whole_word"`
	FuzzyThreshold   float64 `toml:"fuzzy_threshold"`
	FuzzyBackend     string  `toml:"fuzzy_backend"`
	ContextLines     int     `toml:"context_lines"`
	MaxResults       int     `toml:"max_results"`
	SyntaxAware      bool    `toml:"syntax_aware"`
	SyntaxMode       string  `toml:"syntax_mode"`
	RespectGitignore bool    `toml:"respect_gitignore"`
	MaxFileSize      int64   `toml:"max_file_size"` // 0 = unlimited
	SkipBuildOutputs bool    `toml:"skip_build_outputs"`
}

type Archive struct {
	Enabled       bool  `toml:"enabled"`
	MaxDepth      int   `toml:"max_depth"`
	MaxMemberSize int64 `toml:"max_member_size"`
}

type Performance struct {
	Workers int `toml:"workers"` // 0 = auto-detect
}

type Watch struct {
	DebounceMs int `toml:"debounce_ms"`
}

// DefaultConfig returns the built-in configuration rooted at root
func DefaultConfig(root string) *Config {
	return &Config{
		Version: 1,
		Project: Project{Root: root},
		Search: Search{
			Mode:             string(types.ModeExact),
			FuzzyThreshold:   types.DefaultFuzzyThreshold,
			FuzzyBackend:     "auto",
			ContextLines:     types.DefaultContextLines,
			MaxResults:       types.DefaultMaxResults,
			SyntaxMode:       string(types.SyntaxAll),
			RespectGitignore: true,
			SkipBuildOutputs: true,
		},
		Archive: Archive{
			Enabled:       true,
			MaxDepth:      types.DefaultMaxArchiveDepth,
			MaxMemberSize: types.DefaultMaxMemberSize,
		},
		Performance: Performance{Workers: 0},
		Watch:       Watch{DebounceMs: DefaultWatchDebounceMs},
		Exclude:     getDefaultExclusions(),
	}
}

// LoadWithRoot resolves the effective configuration. An explicit path wins;
// otherwise the home directory file is merged under the project file found in
// rootDir. Build output directories are appended to the exclusions when
// Search.SkipBuildOutputs is set.
func LoadWithRoot(path string, rootDir string) (*Config, error) {
	searchDir := "."
	if rootDir != "" {
		searchDir = rootDir
	}

	if path != "" {
		cfg, err := LoadFile(path)
		if err != nil {
			return nil, err
		}
		if cfg.Project.Root == "" {
			cfg.Project.Root = searchDir
		}
		cfg.EnrichExclusionsWithBuildArtifacts()
		return cfg, nil
	}

	var baseConfig *Config
	if homeDir, err := os.UserHomeDir(); err == nil {
		if globalCfg, err := LoadDir(homeDir); err == nil && globalCfg != nil {
			baseConfig = globalCfg
		}
	}

	projectConfig, err := LoadDir(searchDir)
	if err != nil {
		return nil, err
	}

	var cfg *Config
	switch {
	case baseConfig != nil && projectConfig != nil:
		cfg = mergeConfigs(baseConfig, projectConfig)
	case projectConfig != nil:
		cfg = projectConfig
	case baseConfig != nil:
		baseConfig.Project.Root = searchDir
		cfg = baseConfig
	default:
		cfg = DefaultConfig(searchDir)
	}

	cfg.EnrichExclusionsWithBuildArtifacts()
	return cfg, nil
}

// LoadDir reads .greaper.kdl, or failing that .greaper.toml, from dir.
// It returns nil, nil when neither exists.
func LoadDir(dir string) (*Config, error) {
	cfg, err := LoadKDL(dir)
	if err != nil || cfg != nil {
		return cfg, err
	}
	return LoadTOML(dir)
}

// mergeConfigs merges a base config with a project config.
// Project values win; exclusions are the union of both.
func mergeConfigs(base, project *Config) *Config {
	merged := *project

	if len(base.Exclude) > 0 {
		merged.Exclude = DeduplicatePatterns(append(append([]string(nil), base.Exclude...), project.Exclude...))
	}

	if len(project.Include) == 0 && len(base.Include) > 0 {
		merged.Include = base.Include
	}

	return &merged
}

// EnrichExclusionsWithBuildArtifacts adds output directories declared by
// language build files under the project root
func (c *Config) EnrichExclusionsWithBuildArtifacts() {
	if c.Project.Root == "" || !c.Search.SkipBuildOutputs {
		return
	}

	detected := NewBuildArtifactDetector(c.Project.Root).DetectOutputDirectories()
	if len(detected) > 0 {
		c.Exclude = DeduplicatePatterns(append(c.Exclude, detected...))
	}
}

// SearchConfig derives the engine configuration for pattern
func (c *Config) SearchConfig(pattern string) search.Config {
	sc := search.DefaultConfig(pattern)
	sc.Mode = types.SearchMode(c.Search.Mode)
	sc.IgnoreCase = c.Search.IgnoreCase
	sc.WholeWord = c.Search.WholeWord
	sc.FuzzyThreshold = c.Search.FuzzyThreshold
	sc.FuzzyBackend = c.Search.FuzzyBackend
	sc.ContextLines = c.Search.ContextLines
	sc.MaxResults = c.Search.MaxResults
	sc.SyntaxAware = c.Search.SyntaxAware
	sc.SyntaxMode = types.SyntaxMode(c.Search.SyntaxMode)
	sc.RespectGitignore = c.Search.RespectGitignore
	sc.MaxFileSize = c.Search.MaxFileSize
	sc.SearchArchives = c.Archive.Enabled
	sc.MaxArchiveDepth = c.Archive.MaxDepth
	sc.MaxMemberSize = c.Archive.MaxMemberSize
	sc.Workers = c.Performance.Workers
	sc.IncludeGlobs = append([]string(nil), c.Include...)
	sc.ExcludeGlobs = append([]string(nil), c.Exclude...)
	return sc
}

// defaultWorkers leaves one core for the rest of the system
func defaultWorkers() int {
	return max(1, runtime.NumCPU()-1)
}

func getDefaultExclusions() []string {
	return []string{
		// Version control and tool state
		".git",
		".hg",
		".svn",
		".idea",
		".vscode",

		// Package managers & dependencies
		"node_modules",
		"bower_components",
		"**/.venv/**",
		"**/venv/**",
		"__pycache__",

		// Build outputs
		"**/target/**",
		"**/dist/**",
		"**/build/**",

		// OS files
		".DS_Store",
		"Thumbs.db",
	}
}
