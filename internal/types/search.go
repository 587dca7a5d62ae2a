package types

import (
	"fmt"
	"strings"
)

// Engine-wide defaults
const (
	DefaultMaxResults     = 1000
	DefaultFuzzyThreshold = 0.7
	DefaultContextLines   = 0

	// Archive expansion limits
	DefaultMaxArchiveDepth = 3
	DefaultMaxMemberSize   = 64 * 1024 * 1024 // 64MB per decompressed archive member

	// Number of leading bytes inspected by the text classifier
	TextSniffBytes = 2048

	// Maximum fraction of non-printable bytes a text file may contain
	MaxNonPrintableRatio = 0.05

	// Separator between segments of an archive virtual path
	VirtualPathSeparator = "::"
)

// SearchMode selects how a pattern is compared against a line
type SearchMode string

const (
	ModeExact SearchMode = "exact"
	ModeRegex SearchMode = "regex"
	ModeFuzzy SearchMode = "fuzzy"
)

// ParseSearchMode converts a user supplied mode name into a SearchMode
func ParseSearchMode(s string) (SearchMode, error) {
	switch SearchMode(strings.ToLower(strings.TrimSpace(s))) {
	case "", ModeExact:
		return ModeExact, nil
	case ModeRegex:
		return ModeRegex, nil
	case ModeFuzzy:
		return ModeFuzzy, nil
	}
	return "", fmt.Errorf("unknown search mode %q (want exact, regex or fuzzy)", s)
}

// SyntaxMode restricts matches to lines of a given syntactic kind
type SyntaxMode string

const (
	SyntaxAll     SyntaxMode = "all"
	SyntaxComment SyntaxMode = "comment"
	SyntaxString  SyntaxMode = "string"
	SyntaxCode    SyntaxMode = "code"
	SyntaxMixed   SyntaxMode = "mixed"
)

// ParseSyntaxMode converts a user supplied syntax mode name into a SyntaxMode
func ParseSyntaxMode(s string) (SyntaxMode, error) {
	switch SyntaxMode(strings.ToLower(strings.TrimSpace(s))) {
	case "", SyntaxAll:
		return SyntaxAll, nil
	case SyntaxComment:
		return SyntaxComment, nil
	case SyntaxString:
		return SyntaxString, nil
	case SyntaxCode:
		return SyntaxCode, nil
	case SyntaxMixed:
		return SyntaxMixed, nil
	}
	return "", fmt.Errorf("unknown syntax mode %q (want all, comment, string, code or mixed)", s)
}

// LineKind is the classification of a single source line
type LineKind string

const (
	LineComment LineKind = "comment"
	LineString  LineKind = "string"
	LineCode    LineKind = "code"
	LineMixed   LineKind = "mixed"
)
