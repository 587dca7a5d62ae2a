package search

import (
	"github.com/standardbeagle/greaper/internal/archive"
)

// MatchRecord is one matching line with its surrounding context
type MatchRecord struct {
	Source        archive.VirtualPath `json:"source"`
	LineNumber    int                 `json:"line_number"`
	Line          string              `json:"line"`
	ContextBefore []string            `json:"context_before"`
	ContextAfter  []string            `json:"context_after"`
	Score         *float64            `json:"score,omitempty"`
}

// Result is the outcome of one search invocation.
//
// Matches are ordered by unit discovery order, then line order. With more
// than one worker the set of admitted matches is capped exactly but which
// units win the race for the last slots is not deterministic.
type Result struct {
	Matches      []MatchRecord `json:"matches"`
	Backend      string        `json:"backend,omitempty"`
	UnitsScanned int           `json:"units_scanned"`
	UnitsSkipped int           `json:"units_skipped"`
	Truncated    bool          `json:"truncated"`
}
