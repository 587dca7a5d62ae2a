package search

import (
	"bytes"
	"strings"
	"unicode/utf8"
)

// lineScanner iterates lines of a buffer without splitting it up front.
// Trailing "\n" and "\r\n" are stripped.
type lineScanner struct {
	data  []byte
	start int
	end   int
	pos   int
}

func newLineScanner(data []byte) *lineScanner {
	return &lineScanner{data: data}
}

func (ls *lineScanner) Scan() bool {
	if ls.pos >= len(ls.data) {
		return false
	}

	ls.start = ls.pos

	idx := bytes.IndexByte(ls.data[ls.pos:], '\n')
	if idx < 0 {
		ls.end = len(ls.data)
		ls.pos = len(ls.data)
	} else {
		ls.end = ls.pos + idx
		ls.pos = ls.pos + idx + 1
	}

	if ls.end > ls.start && ls.data[ls.end-1] == '\r' {
		ls.end--
	}
	return true
}

// Text returns the current line as valid UTF-8, invalid sequences replaced by U+FFFD
func (ls *lineScanner) Text() string {
	line := ls.data[ls.start:ls.end]
	if utf8.Valid(line) {
		return string(line)
	}
	return strings.ToValidUTF8(string(line), "�")
}

// splitLines decodes content into lines for one unit
func splitLines(data []byte) []string {
	if len(data) == 0 {
		return nil
	}
	lines := make([]string, 0, bytes.Count(data, []byte{'\n'})+1)
	scanner := newLineScanner(data)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	return lines
}

// contextWindow returns copies of up to n lines before and after index i,
// clipped at the unit bounds
func contextWindow(lines []string, i, n int) (before, after []string) {
	if n <= 0 {
		return []string{}, []string{}
	}
	lo := max(0, i-n)
	hi := min(len(lines), i+1+n)
	before = append([]string{}, lines[lo:i]...)
	after = append([]string{}, lines[i+1:hi]...)
	return before, after
}
