package mcp

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/standardbeagle/greaper/internal/config"
	"github.com/standardbeagle/greaper/internal/search"
	"github.com/standardbeagle/greaper/internal/types"
	"github.com/standardbeagle/greaper/pkg/pathutil"
)

// SearchParams are the arguments of the search tool. Unset optional fields
// fall back to the loaded configuration.
type SearchParams struct {
	Pattern        string   `json:"pattern"`
	Path           string   `json:"path,omitempty"`
	Mode           string   `json:"mode,omitempty"`
	IgnoreCase     *bool    `json:"ignore_case,omitempty"`
	WholeWord      *bool    `json:"whole_word,omitempty"`
	FuzzyThreshold *float64 `json:"fuzzy_threshold,omitempty"`
	SyntaxMode     string   `json:"syntax_mode,omitempty"`
	Include        []string `json:"include,omitempty"`
	Exclude        []string `json:"exclude,omitempty"`
	ContextLines   *int     `json:"context_lines,omitempty"`
	MaxResults     *int     `json:"max_results,omitempty"`
	SearchArchives *bool    `json:"search_archives,omitempty"`

	// Warnings lists arguments that were not recognized
	Warnings []string `json:"-"`
}

// searchAliases maps names clients commonly guess to the canonical field
var searchAliases = map[string]string{
	"query":            "pattern",
	"case_insensitive": "ignore_case",
	"word_boundary":    "whole_word",
	"threshold":        "fuzzy_threshold",
	"syntax":           "syntax_mode",
	"context":          "context_lines",
	"max":              "max_results",
	"archives":         "search_archives",
	"root":             "path",
}

var searchFields = map[string]struct{}{
	"pattern": {}, "path": {}, "mode": {}, "ignore_case": {}, "whole_word": {},
	"fuzzy_threshold": {}, "syntax_mode": {}, "include": {}, "exclude": {},
	"context_lines": {}, "max_results": {}, "search_archives": {},
	// Boolean shorthands
	"use_regex": {}, "fuzzy": {},
}

// UnmarshalJSON accepts aliases and records unknown fields as warnings
// instead of rejecting the call
func (p *SearchParams) UnmarshalJSON(data []byte) error {
	type alias SearchParams

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	normalized := make(map[string]json.RawMessage, len(raw))
	var warnings []string
	var useRegex, fuzzy bool
	for key, value := range raw {
		if canonical, ok := searchAliases[key]; ok {
			key = canonical
		}
		if _, ok := searchFields[key]; !ok {
			warnings = append(warnings, fmt.Sprintf("unknown argument %q ignored", key))
			continue
		}
		switch key {
		case "use_regex":
			if err := json.Unmarshal(value, &useRegex); err != nil {
				return fmt.Errorf("use_regex: %w", err)
			}
		case "fuzzy":
			if err := json.Unmarshal(value, &fuzzy); err != nil {
				return fmt.Errorf("fuzzy: %w", err)
			}
		default:
			normalized[key] = value
		}
	}

	rebuilt, err := json.Marshal(normalized)
	if err != nil {
		return err
	}
	var out alias
	if err := json.Unmarshal(rebuilt, &out); err != nil {
		return err
	}

	if out.Mode == "" {
		switch {
		case fuzzy:
			out.Mode = string(types.ModeFuzzy)
		case useRegex:
			out.Mode = string(types.ModeRegex)
		}
	}
	sort.Strings(warnings)
	out.Warnings = warnings
	*p = SearchParams(out)
	return nil
}

// searchConfig overlays the call arguments on the configured defaults
func (p *SearchParams) searchConfig(cfg *config.Config) search.Config {
	sc := cfg.SearchConfig(p.Pattern)
	if p.Mode != "" {
		sc.Mode = types.SearchMode(strings.ToLower(p.Mode))
	}
	if p.IgnoreCase != nil {
		sc.IgnoreCase = *p.IgnoreCase
	}
	if p.WholeWord != nil {
		sc.WholeWord = *p.WholeWord
	}
	if p.FuzzyThreshold != nil {
		sc.FuzzyThreshold = *p.FuzzyThreshold
	}
	if p.SyntaxMode != "" {
		sc.SyntaxMode = types.SyntaxMode(strings.ToLower(p.SyntaxMode))
		sc.SyntaxAware = sc.SyntaxMode != types.SyntaxAll
	}
	if len(p.Include) > 0 {
		sc.IncludeGlobs = p.Include
	}
	if len(p.Exclude) > 0 {
		sc.ExcludeGlobs = append(sc.ExcludeGlobs, p.Exclude...)
	}
	if p.ContextLines != nil {
		sc.ContextLines = *p.ContextLines
	}
	if p.MaxResults != nil {
		sc.MaxResults = *p.MaxResults
	}
	if p.SearchArchives != nil {
		sc.SearchArchives = *p.SearchArchives
	}
	return sc
}

// resolvePath anchors relative paths at the project root. The result must
// stay inside root; the check is lexical, so symlinks are not followed.
func resolvePath(root, p string) (string, error) {
	if p == "" {
		return root, nil
	}
	resolved := filepath.Clean(pathutil.ToAbsolute(p, root))
	rel, err := filepath.Rel(filepath.Clean(root), resolved)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%s is outside the project root %s", p, root)
	}
	return resolved, nil
}

// ExtractParams are the arguments of the extract tool
type ExtractParams struct {
	Path string `json:"path"`
}

// ListArchiveParams are the arguments of the list_archive tool
type ListArchiveParams struct {
	Path     string `json:"path"`
	MaxDepth *int   `json:"max_depth,omitempty"`
}
