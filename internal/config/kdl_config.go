package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	kdl "github.com/sblinch/kdl-go"
	"github.com/sblinch/kdl-go/document"

	"github.com/standardbeagle/greaper/internal/debug"
)

// LoadKDL attempts to load configuration from a .greaper.kdl file in projectRoot
func LoadKDL(projectRoot string) (*Config, error) {
	kdlPath := filepath.Join(projectRoot, KDLFileName)

	if _, err := os.Stat(kdlPath); os.IsNotExist(err) {
		return nil, nil
	}

	content, err := os.ReadFile(kdlPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", KDLFileName, err)
	}

	cfg, err := parseKDL(string(content))
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", kdlPath, err)
	}

	resolveRoot(cfg, projectRoot)
	return cfg, nil
}

// resolveRoot makes the project root absolute, relative to the directory
// holding the config file
func resolveRoot(cfg *Config, configDir string) {
	if cfg.Project.Root != "" {
		root := cfg.Project.Root
		if !filepath.IsAbs(root) {
			root = filepath.Join(configDir, root)
		}
		cfg.Project.Root = filepath.Clean(root)
		return
	}
	if abs, err := filepath.Abs(configDir); err == nil {
		cfg.Project.Root = abs
	} else {
		cfg.Project.Root = configDir
	}
}

// parseKDL reads the .greaper.kdl document model on top of the defaults
func parseKDL(content string) (*Config, error) {
	doc, err := kdl.Parse(strings.NewReader(content))
	if err != nil {
		return nil, err
	}

	cfg := DefaultConfig("")
	for _, n := range doc.Nodes {
		switch nodeName(n) {
		case "version":
			if v, ok := firstIntArg(n); ok {
				cfg.Version = v
			}
		case "project":
			for _, cn := range n.Children {
				assignSimpleString(cn, "root", func(s string) { cfg.Project.Root = s })
				assignSimpleString(cn, "name", func(s string) { cfg.Project.Name = s })
			}
		case "search":
			parseSearchSection(cfg, n)
		case "archive":
			for _, cn := range n.Children {
				switch nodeName(cn) {
				case "enabled":
					if b, ok := firstBoolArg(cn); ok {
						cfg.Archive.Enabled = b
					}
				case "max_depth":
					if v, ok := firstIntArg(cn); ok {
						cfg.Archive.MaxDepth = v
					}
				case "max_member_size":
					if v, ok := firstSizeArg(cn); ok {
						cfg.Archive.MaxMemberSize = v
					}
				}
			}
		case "performance":
			for _, cn := range n.Children {
				if nodeName(cn) == "workers" {
					if v, ok := firstIntArg(cn); ok {
						cfg.Performance.Workers = v
					}
				}
			}
		case "watch":
			for _, cn := range n.Children {
				if nodeName(cn) == "debounce_ms" {
					if v, ok := firstIntArg(cn); ok {
						cfg.Watch.DebounceMs = v
					}
				}
			}
		case "include":
			cfg.Include = append(cfg.Include, collectStringArgs(n)...)
		case "exclude":
			// An exclude block replaces the default exclusions
			cfg.Exclude = collectStringArgs(n)
		}
	}

	return cfg, nil
}

func parseSearchSection(cfg *Config, n *document.Node) {
	for _, cn := range n.Children {
		switch nodeName(cn) {
		case "mode":
			if s, ok := firstStringArg(cn); ok {
				cfg.Search.Mode = s
			}
		case "ignore_case":
			if b, ok := firstBoolArg(cn); ok {
				cfg.Search.IgnoreCase = b
			}
		case "whole_word":
			if b, ok := firstBoolArg(cn); ok {
				cfg.Search.WholeWord = b
			}
		case "fuzzy_threshold":
			if v, ok := firstFloatArg(cn); ok {
				cfg.Search.FuzzyThreshold = v
			}
		case "fuzzy_backend":
			if s, ok := firstStringArg(cn); ok {
				cfg.Search.FuzzyBackend = s
			}
		case "context_lines":
			if v, ok := firstIntArg(cn); ok {
				cfg.Search.ContextLines = v
			}
		case "max_results":
			if v, ok := firstIntArg(cn); ok {
				cfg.Search.MaxResults = v
			}
		case "syntax_aware":
			if b, ok := firstBoolArg(cn); ok {
				cfg.Search.SyntaxAware = b
			}
		case "syntax_mode":
			if s, ok := firstStringArg(cn); ok {
				cfg.Search.SyntaxMode = s
			}
		case "respect_gitignore":
			if b, ok := firstBoolArg(cn); ok {
				cfg.Search.RespectGitignore = b
			}
		case "skip_build_outputs":
			if b, ok := firstBoolArg(cn); ok {
				cfg.Search.SkipBuildOutputs = b
			}
		case "max_file_size":
			if v, ok := firstSizeArg(cn); ok {
				cfg.Search.MaxFileSize = v
			}
		}
	}
}

func nodeName(n *document.Node) string {
	if n == nil || n.Name == nil {
		return ""
	}
	return n.Name.NodeNameString()
}

func firstIntArg(n *document.Node) (int, bool) {
	if len(n.Arguments) == 0 {
		return 0, false
	}
	switch v := n.Arguments[0].Value.(type) {
	case int64:
		return int(v), true
	case float64:
		return int(v), true
	default:
		return 0, false
	}
}

func firstStringArg(n *document.Node) (string, bool) {
	if len(n.Arguments) == 0 {
		return "", false
	}
	if s, ok := n.Arguments[0].Value.(string); ok {
		return s, true
	}
	return "", false
}

func firstBoolArg(n *document.Node) (bool, bool) {
	if len(n.Arguments) == 0 {
		return false, false
	}
	switch v := n.Arguments[0].Value.(type) {
	case bool:
		return v, true
	case string:
		return parseBool(v), true
	}
	return false, false
}

func firstFloatArg(n *document.Node) (float64, bool) {
	if len(n.Arguments) == 0 {
		return 0, false
	}
	switch v := n.Arguments[0].Value.(type) {
	case float64:
		return v, true
	case int64:
		return float64(v), true
	default:
		debug.Log("CONFIG", "invalid float value for '%s', got %T\n", nodeName(n), n.Arguments[0].Value)
		return 0, false
	}
}

// firstSizeArg accepts a plain byte count or a string such as "10MB"
func firstSizeArg(n *document.Node) (int64, bool) {
	if len(n.Arguments) == 0 {
		return 0, false
	}
	switch v := n.Arguments[0].Value.(type) {
	case int64:
		return v, true
	case float64:
		return int64(v), true
	case string:
		size, err := parseSize(v)
		if err != nil {
			debug.Log("CONFIG", "invalid size %q for '%s': %v\n", v, nodeName(n), err)
			return 0, false
		}
		return size, true
	}
	return 0, false
}

// collectStringArgs accepts both inline arguments and block children
// (exclude { "pattern" }), where a child's name is the string value
func collectStringArgs(n *document.Node) []string {
	if n == nil {
		return nil
	}
	out := make([]string, 0, len(n.Arguments))
	for _, a := range n.Arguments {
		if s, ok := a.Value.(string); ok {
			out = append(out, s)
		}
	}

	if len(out) == 0 && len(n.Children) > 0 {
		for _, child := range n.Children {
			if s, ok := firstStringArg(child); ok {
				out = append(out, s)
			} else if child.Name != nil {
				if s, ok := child.Name.Value.(string); ok {
					out = append(out, s)
				}
			}
		}
	}

	return out
}

func assignSimpleString(n *document.Node, target string, set func(string)) {
	if nodeName(n) == target {
		if s, ok := firstStringArg(n); ok {
			set(s)
		}
	}
}

// parseSize handles size strings like "10MB", "500KB", "1GB"
func parseSize(s string) (int64, error) {
	s = strings.ToUpper(strings.TrimSpace(s))

	var multiplier int64 = 1
	var numStr string

	switch {
	case strings.HasSuffix(s, "GB"):
		multiplier = 1024 * 1024 * 1024
		numStr = strings.TrimSuffix(s, "GB")
	case strings.HasSuffix(s, "MB"):
		multiplier = 1024 * 1024
		numStr = strings.TrimSuffix(s, "MB")
	case strings.HasSuffix(s, "KB"):
		multiplier = 1024
		numStr = strings.TrimSuffix(s, "KB")
	case strings.HasSuffix(s, "B"):
		numStr = strings.TrimSuffix(s, "B")
	default:
		numStr = s
	}

	num, err := strconv.ParseInt(strings.TrimSpace(numStr), 10, 64)
	if err != nil {
		return 0, err
	}

	return num * multiplier, nil
}

func parseBool(s string) bool {
	s = strings.ToLower(strings.TrimSpace(s))
	return s == "true" || s == "yes" || s == "1" || s == "on"
}

// DefaultKDL is the template written by `greaper config init`
const DefaultKDL = `// greaper configuration
version 1

search {
    mode "exact"
    ignore_case false
    fuzzy_threshold 0.7
    fuzzy_backend "auto"
    context_lines 0
    max_results 1000
    syntax_aware false
    syntax_mode "all"
    respect_gitignore true
    skip_build_outputs true
    max_file_size "0B"
}

archive {
    enabled true
    max_depth 3
    max_member_size "64MB"
}

performance {
    workers 0
}

watch {
    debounce_ms 300
}

exclude {
    ".git"
    "node_modules"
    "**/target/**"
    "**/dist/**"
    "**/build/**"
}
`
