// Package matcher decides whether a single line matches a search pattern.
// Exact and regex matching share one regexp based implementation; fuzzy
// matching scores a line by edit distance.
package matcher

import (
	"fmt"
	"math"
	"regexp"
	"strings"

	greaperrors "github.com/standardbeagle/greaper/internal/errors"
	"github.com/standardbeagle/greaper/internal/types"
)

// Matcher tests one line. The score is 1 for regex matches and the
// similarity ratio for fuzzy matches.
type Matcher interface {
	Match(line string) (bool, float64)
	Backend() string
}

// Options configure matcher construction
type Options struct {
	Mode           types.SearchMode
	IgnoreCase     bool
	WholeWord      bool
	FuzzyThreshold float64
	FuzzyBackend   string
}

// New builds the matcher for opts.Mode. Invalid patterns and options are
// reported as configuration errors.
func New(pattern string, opts Options) (Matcher, error) {
	if opts.Mode == types.ModeFuzzy {
		dist, err := SelectDistance(opts.FuzzyBackend)
		if err != nil {
			return nil, greaperrors.NewConfigError("fuzzy_backend", opts.FuzzyBackend, err)
		}
		fm, err := NewFuzzyMatcher(pattern, opts.FuzzyThreshold, opts.IgnoreCase, dist)
		if err != nil {
			return nil, err
		}
		return fm, nil
	}

	rm, err := NewRegexMatcher(pattern, opts)
	if err != nil {
		return nil, err
	}
	return rm, nil
}

// RegexMatcher handles exact (literal) and regex modes
type RegexMatcher struct {
	re *regexp.Regexp
}

// NewRegexMatcher compiles pattern. Exact mode escapes it first; whole word
// wraps it in word boundaries; case folding is a flag group.
func NewRegexMatcher(pattern string, opts Options) (*RegexMatcher, error) {
	expr := pattern
	if opts.Mode != types.ModeRegex {
		expr = regexp.QuoteMeta(pattern)
	}
	if opts.WholeWord {
		expr = `\b(?:` + expr + `)\b`
	}
	if opts.IgnoreCase {
		expr = "(?i)" + expr
	}

	re, err := regexp.Compile(expr)
	if err != nil {
		return nil, greaperrors.NewConfigError("pattern", pattern,
			greaperrors.NewSearchError(pattern, err))
	}
	return &RegexMatcher{re: re}, nil
}

func (m *RegexMatcher) Match(line string) (bool, float64) {
	if m.re.MatchString(line) {
		return true, 1.0
	}
	return false, 0
}

// Backend is empty: only fuzzy matching has selectable backends
func (m *RegexMatcher) Backend() string { return "" }

// String returns the compiled expression
func (m *RegexMatcher) String() string { return m.re.String() }

// FuzzyMatcher accepts lines whose similarity to the pattern reaches the threshold
type FuzzyMatcher struct {
	pattern    string
	threshold  float64
	ignoreCase bool
	dist       Distance
}

// NewFuzzyMatcher validates the threshold and prepares the pattern
func NewFuzzyMatcher(pattern string, threshold float64, ignoreCase bool, dist Distance) (*FuzzyMatcher, error) {
	if math.IsNaN(threshold) || threshold < 0 || threshold > 1 {
		return nil, greaperrors.NewConfigError("fuzzy_threshold", fmt.Sprint(threshold),
			fmt.Errorf("threshold must be between 0 and 1"))
	}
	if dist == nil {
		dist = EdlibDistance{}
	}
	if ignoreCase {
		pattern = strings.ToLower(pattern)
	}
	return &FuzzyMatcher{
		pattern:    pattern,
		threshold:  threshold,
		ignoreCase: ignoreCase,
		dist:       dist,
	}, nil
}

// Match scores the whole line, indentation included, against the pattern
func (m *FuzzyMatcher) Match(line string) (bool, float64) {
	candidate := line
	if m.ignoreCase {
		candidate = strings.ToLower(candidate)
	}
	ratio := Ratio(m.dist.Distance(m.pattern, candidate), m.pattern, candidate)
	return ratio >= m.threshold, ratio
}

func (m *FuzzyMatcher) Backend() string { return m.dist.Name() }
