package glob

import (
	"bufio"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// GitignorePatterns reads the .gitignore at root and converts its lines into
// exclude patterns understood by Filter. A missing file yields no patterns.
// Negated patterns are skipped.
func GitignorePatterns(root string) ([]string, error) {
	file, err := os.Open(filepath.Join(root, ".gitignore"))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	defer file.Close()

	return ParseGitignore(file)
}

// ParseGitignore converts gitignore lines from r into exclude patterns
func ParseGitignore(r io.Reader) ([]string, error) {
	var patterns []string

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, "!") {
			continue
		}
		if p := convertGitignoreLine(line); p != "" {
			patterns = append(patterns, p)
		}
	}

	return patterns, scanner.Err()
}

func convertGitignoreLine(line string) string {
	directory := strings.HasSuffix(line, "/")
	line = strings.TrimSuffix(line, "/")

	absolute := strings.HasPrefix(line, "/")
	line = strings.TrimPrefix(line, "/")
	if line == "" {
		return ""
	}

	if directory {
		if absolute {
			return line + "/**"
		}
		return "**/" + line + "/**"
	}

	// Slash-less patterns already match the base name at any depth
	if !strings.Contains(line, "/") {
		return line
	}
	if absolute || strings.HasPrefix(line, "**/") {
		return line
	}
	return "**/" + line
}
