// Text/binary classification for candidate files and archive members.
// Extension allow-list first, then a bounded content sniff.
package filetype

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/standardbeagle/greaper/internal/types"
)

// Detector decides whether a file or archive member is searchable text
type Detector struct {
	textExtensions map[string]bool
	sniffBytes     int
	maxRatio       float64
}

// NewDetector creates a detector with the default text extension allow-list
func NewDetector() *Detector {
	extensions := map[string]bool{
		".py":   true,
		".js":   true,
		".ts":   true,
		".java": true,
		".c":    true,
		".cpp":  true,
		".h":    true,
		".hpp":  true,
		".sh":   true,
		".md":   true,
		".txt":  true,
		".json": true,
		".yaml": true,
		".yml":  true,
		".toml": true,
		".ini":  true,
		".go":   true,
		".rs":   true,
		".rb":   true,
		".kdl":  true,
	}

	return &Detector{
		textExtensions: extensions,
		sniffBytes:     types.TextSniffBytes,
		maxRatio:       types.MaxNonPrintableRatio,
	}
}

// IsTextByExtension reports whether the extension is on the allow-list
func (d *Detector) IsTextByExtension(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	if ext == "" {
		return false
	}
	return d.textExtensions[ext]
}

// IsText classifies a file on disk. Any I/O failure classifies it as binary.
func (d *Detector) IsText(path string) bool {
	if d.IsTextByExtension(path) {
		return true
	}

	file, err := os.Open(path)
	if err != nil {
		return false
	}
	defer file.Close()

	buffer := make([]byte, d.sniffBytes)
	n, err := io.ReadFull(file, buffer)
	if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
		return false
	}

	return d.IsTextSample(buffer[:n])
}

// IsTextContent classifies in-memory content such as an extracted archive member
func (d *Detector) IsTextContent(name string, content []byte) bool {
	if d.IsTextByExtension(name) {
		return true
	}
	if len(content) > d.sniffBytes {
		content = content[:d.sniffBytes]
	}
	return d.IsTextSample(content)
}

// IsTextSample applies the NUL-byte and printable-ratio heuristics to a prefix
func (d *Detector) IsTextSample(sample []byte) bool {
	if bytes.IndexByte(sample, 0) >= 0 {
		return false
	}

	nonText := 0
	for _, b := range sample {
		if !isPrintable(b) {
			nonText++
		}
	}

	total := len(sample)
	if total == 0 {
		total = 1
	}
	return float64(nonText)/float64(total) <= d.maxRatio
}

// isPrintable accepts tab, newline, carriage return, form-feed, escape and 0x20-0xFF
func isPrintable(b byte) bool {
	switch b {
	case '\t', '\n', '\r', '\f', 0x1B:
		return true
	}
	return b >= 0x20
}
