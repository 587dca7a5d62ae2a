// Package glob selects candidate paths with include/exclude glob patterns.
//
// Matching rules:
//   - Patterns use doublestar syntax: '*', '?', '[...]', '{a,b}' and '**'.
//   - A pattern containing '/' is matched against the whole slash-separated
//     path relative to the search root (or the member path inside an archive).
//   - A pattern without '/' is matched against the base name. For exclude
//     patterns every directory component is tried as well, so excluding
//     "node_modules" removes everything below such a directory.
//   - A path is selected iff it matches at least one include pattern (or the
//     include list is empty) and matches no exclude pattern. Exclude always wins.
package glob

import (
	"fmt"
	"path"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// Filter applies include/exclude glob patterns to candidate paths
type Filter struct {
	includes []string
	excludes []string
}

// NewFilter validates the patterns and returns a Filter
func NewFilter(include, exclude []string) (*Filter, error) {
	f := &Filter{
		includes: make([]string, 0, len(include)),
		excludes: make([]string, 0, len(exclude)),
	}

	for _, p := range include {
		p = normalizePattern(p)
		if p == "" {
			continue
		}
		if !doublestar.ValidatePattern(p) {
			return nil, fmt.Errorf("invalid include pattern %q", p)
		}
		f.includes = append(f.includes, p)
	}

	for _, p := range exclude {
		p = normalizePattern(p)
		if p == "" {
			continue
		}
		if !doublestar.ValidatePattern(p) {
			return nil, fmt.Errorf("invalid exclude pattern %q", p)
		}
		f.excludes = append(f.excludes, p)
	}

	return f, nil
}

// Match reports whether relPath is selected by the filter
func (f *Filter) Match(relPath string) bool {
	relPath = filepath.ToSlash(relPath)
	if f.Excluded(relPath) {
		return false
	}
	return f.Included(relPath)
}

// Included reports whether relPath matches an include pattern, ignoring excludes
func (f *Filter) Included(relPath string) bool {
	if len(f.includes) == 0 {
		return true
	}
	return matchAny(f.includes, filepath.ToSlash(relPath))
}

// Excluded reports whether relPath matches any exclude pattern
func (f *Filter) Excluded(relPath string) bool {
	relPath = filepath.ToSlash(relPath)
	if matchAny(f.excludes, relPath) {
		return true
	}
	dirs := strings.Split(relPath, "/")
	for _, dir := range dirs[:len(dirs)-1] {
		if dir == "" || dir == "." {
			continue
		}
		for _, pattern := range f.excludes {
			if strings.Contains(pattern, "/") {
				continue
			}
			if ok, _ := doublestar.Match(pattern, dir); ok {
				return true
			}
		}
	}
	return false
}

// ExcludedDir reports whether a directory can be pruned from the walk.
// A directory is pruned when an exclude pattern matches it or everything below it.
func (f *Filter) ExcludedDir(relDir string) bool {
	relDir = filepath.ToSlash(relDir)
	if relDir == "." || relDir == "" {
		return false
	}
	if matchAny(f.excludes, relDir) {
		return true
	}
	probe := relDir + "/*"
	for _, p := range f.excludes {
		if strings.HasSuffix(p, "/**") && strings.Contains(p, "/") {
			if ok, _ := doublestar.Match(p, probe); ok {
				return true
			}
		}
	}
	return false
}

// Includes returns the normalized include patterns
func (f *Filter) Includes() []string {
	return append([]string(nil), f.includes...)
}

// Excludes returns the normalized exclude patterns
func (f *Filter) Excludes() []string {
	return append([]string(nil), f.excludes...)
}

func matchAny(patterns []string, p string) bool {
	base := path.Base(p)
	for _, pattern := range patterns {
		target := base
		if strings.Contains(pattern, "/") {
			target = p
		}
		matched, err := doublestar.Match(pattern, target)
		if err != nil {
			continue
		}
		if matched {
			return true
		}
	}
	return false
}

func normalizePattern(p string) string {
	p = strings.TrimSpace(filepath.ToSlash(p))
	return strings.TrimPrefix(p, "./")
}
