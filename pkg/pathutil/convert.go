// Package pathutil converts between the absolute paths the engine works with
// and the root-relative paths shown to users.
//
// Search results carry absolute archive paths internally so that a virtual
// path can always be re-opened. Output boundaries (CLI text, JSON, MCP
// responses) convert them with the helpers here.
package pathutil

import (
	"path/filepath"
	"strings"

	"github.com/standardbeagle/greaper/internal/archive"
	"github.com/standardbeagle/greaper/internal/search"
)

// ToRelative converts an absolute path to relative based on a root directory.
// Falls back to the original path if conversion fails, the path is already
// relative, or it lies outside root.
//
// Examples:
//   - ToRelative("/home/user/project/src/main.go", "/home/user/project") → "src/main.go"
//   - ToRelative("/other/location/file.go", "/home/user/project") → "/other/location/file.go"
//   - ToRelative("src/main.go", "/home/user/project") → "src/main.go"
func ToRelative(absPath, rootDir string) string {
	if absPath == "" || rootDir == "" {
		return absPath
	}
	if !filepath.IsAbs(absPath) {
		return absPath
	}

	absPath = filepath.Clean(absPath)
	rootDir = filepath.Clean(rootDir)

	relPath, err := filepath.Rel(rootDir, absPath)
	if err != nil {
		return absPath
	}

	if relPath == ".." || strings.HasPrefix(relPath, ".."+string(filepath.Separator)) {
		return absPath
	}

	return relPath
}

// ToAbsolute resolves p against rootDir unless it is already absolute
func ToAbsolute(p, rootDir string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	if rootDir == "" {
		if abs, err := filepath.Abs(p); err == nil {
			return abs
		}
		return p
	}
	return filepath.Join(rootDir, p)
}

// RelativeVirtualPath rewrites the outer file of vp relative to rootDir.
// Member segments are archive-internal and left alone.
func RelativeVirtualPath(vp archive.VirtualPath, rootDir string) archive.VirtualPath {
	return archive.NewVirtualPath(ToRelative(vp.Archive, rootDir), vp.Members()...)
}

// ToRelativeMatches converts match sources from absolute to relative.
// Creates a new slice without modifying the original records.
func ToRelativeMatches(records []search.MatchRecord, rootDir string) []search.MatchRecord {
	if len(records) == 0 {
		return records
	}

	converted := make([]search.MatchRecord, len(records))
	copy(converted, records)
	for i := range converted {
		converted[i].Source = RelativeVirtualPath(converted[i].Source, rootDir)
	}
	return converted
}

// ToRelativeEntries converts archive listing paths from absolute to relative.
// Creates a new slice without modifying the original entries.
func ToRelativeEntries(entries []archive.Entry, rootDir string) []archive.Entry {
	if len(entries) == 0 {
		return entries
	}

	converted := make([]archive.Entry, len(entries))
	copy(converted, entries)
	for i := range converted {
		converted[i].Path = RelativeVirtualPath(converted[i].Path, rootDir)
	}
	return converted
}
