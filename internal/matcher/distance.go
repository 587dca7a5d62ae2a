package matcher

import (
	"fmt"
	"strings"

	"github.com/hbollon/go-edlib"
)

// Distance computes the Levenshtein distance between two strings, in runes
type Distance interface {
	Distance(a, b string) int
	Name() string
}

// Backend names accepted by SelectDistance
const (
	BackendAuto  = "auto"
	BackendPure  = "pure"
	BackendEdlib = "edlib"
)

// PureDistance is the reference implementation: one rolling row sized by
// the shorter input
type PureDistance struct{}

func (PureDistance) Name() string { return BackendPure }

func (PureDistance) Distance(a, b string) int {
	s1, s2 := []rune(a), []rune(b)
	if len(s1) < len(s2) {
		s1, s2 = s2, s1
	}
	if len(s2) == 0 {
		return len(s1)
	}

	row := make([]int, len(s2)+1)
	for j := range row {
		row[j] = j
	}

	for i, c1 := range s1 {
		diag := row[0]
		row[0] = i + 1
		for j, c2 := range s2 {
			cost := 1
			if c1 == c2 {
				cost = 0
			}
			above := row[j+1]
			row[j+1] = min(above+1, row[j]+1, diag+cost)
			diag = above
		}
	}
	return row[len(s2)]
}

// EdlibDistance delegates to go-edlib and returns the same values as PureDistance
type EdlibDistance struct{}

func (EdlibDistance) Name() string { return BackendEdlib }

func (EdlibDistance) Distance(a, b string) int {
	return edlib.LevenshteinDistance(a, b)
}

// SelectDistance resolves a backend name once at startup
func SelectDistance(name string) (Distance, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", BackendAuto, BackendEdlib:
		return EdlibDistance{}, nil
	case BackendPure:
		return PureDistance{}, nil
	}
	return nil, fmt.Errorf("unknown fuzzy backend %q (want auto, pure or edlib)", name)
}

// Ratio converts a distance into a similarity in [0,1]:
// 1 - d/max(len(a), len(b)), with two empty strings being identical
func Ratio(d int, a, b string) float64 {
	la, lb := len([]rune(a)), len([]rune(b))
	longest := max(la, lb)
	if longest == 0 {
		return 1.0
	}
	return 1.0 - float64(d)/float64(longest)
}
