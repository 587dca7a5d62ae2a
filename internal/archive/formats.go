package archive

import (
	"bytes"
	"path"
	"strings"
)

// Format identifies how a container is decoded
type Format int

const (
	FormatUnknown Format = iota
	FormatZip
	FormatTar
	FormatTarGzip
	FormatTarBzip2
	FormatTarXz
	FormatTarZstd
	FormatGzip
	FormatBzip2
	FormatXz
	FormatLzma
	FormatZstd
	Format7z
	FormatRar
)

var formatNames = map[Format]string{
	FormatUnknown:  "unknown",
	FormatZip:      "zip",
	FormatTar:      "tar",
	FormatTarGzip:  "tar.gz",
	FormatTarBzip2: "tar.bz2",
	FormatTarXz:    "tar.xz",
	FormatTarZstd:  "tar.zst",
	FormatGzip:     "gzip",
	FormatBzip2:    "bzip2",
	FormatXz:       "xz",
	FormatLzma:     "lzma",
	FormatZstd:     "zstd",
	Format7z:       "7z",
	FormatRar:      "rar",
}

func (f Format) String() string {
	if name, ok := formatNames[f]; ok {
		return name
	}
	return "unknown"
}

// IsStream reports whether the format wraps exactly one compressed member
func (f Format) IsStream() bool {
	switch f {
	case FormatGzip, FormatBzip2, FormatXz, FormatLzma, FormatZstd:
		return true
	}
	return false
}

type suffixRule struct {
	suffix string
	format Format
}

// Ordered longest suffix first so double extensions win over their stream suffix
var suffixRules = []suffixRule{
	{".tar.bz2", FormatTarBzip2},
	{".tar.zst", FormatTarZstd},
	{".tar.gz", FormatTarGzip},
	{".tar.xz", FormatTarXz},
	{".nupkg", FormatZip},
	{".lzma", FormatLzma},
	{".tbz2", FormatTarBzip2},
	{".tzst", FormatTarZstd},
	{".bz2", FormatBzip2},
	{".tgz", FormatTarGzip},
	{".txz", FormatTarXz},
	{".zip", FormatZip},
	{".jar", FormatZip},
	{".war", FormatZip},
	{".ear", FormatZip},
	{".whl", FormatZip},
	{".egg", FormatZip},
	{".apk", FormatZip},
	{".aar", FormatZip},
	{".tar", FormatTar},
	{".zst", FormatZstd},
	{".gz", FormatGzip},
	{".xz", FormatXz},
	{".7z", Format7z},
	{".rar", FormatRar},
}

// FormatForName detects a container format from the file or member name
func FormatForName(name string) Format {
	lower := strings.ToLower(name)
	for _, rule := range suffixRules {
		if strings.HasSuffix(lower, rule.suffix) {
			return rule.format
		}
	}
	return FormatUnknown
}

// IsArchive reports whether name carries a recognised archive extension
func IsArchive(name string) bool {
	return FormatForName(name) != FormatUnknown
}

var (
	magicZip   = []byte("PK\x03\x04")
	magicGzip  = []byte{0x1f, 0x8b}
	magicBzip2 = []byte("BZh")
	magicXz    = []byte{0xfd, '7', 'z', 'X', 'Z', 0x00}
	magicZstd  = []byte{0x28, 0xb5, 0x2f, 0xfd}
	magic7z    = []byte{'7', 'z', 0xbc, 0xaf, 0x27, 0x1c}
	magicRar   = []byte("Rar!\x1a\x07")
	magicUstar = []byte("ustar")
)

// FormatForContent detects a container format from its leading bytes.
// Compressed tarballs are reported as the bare stream format.
func FormatForContent(head []byte) Format {
	switch {
	case bytes.HasPrefix(head, magicZip):
		return FormatZip
	case bytes.HasPrefix(head, magicGzip):
		return FormatGzip
	case bytes.HasPrefix(head, magicBzip2):
		return FormatBzip2
	case bytes.HasPrefix(head, magicXz):
		return FormatXz
	case bytes.HasPrefix(head, magicZstd):
		return FormatZstd
	case bytes.HasPrefix(head, magic7z):
		return Format7z
	case bytes.HasPrefix(head, magicRar):
		return FormatRar
	case len(head) >= 262 && bytes.Equal(head[257:262], magicUstar):
		return FormatTar
	}
	return FormatUnknown
}

// detectFormat prefers the name and falls back to magic bytes
func detectFormat(name string, head []byte) Format {
	if f := FormatForName(name); f != FormatUnknown {
		return f
	}
	return FormatForContent(head)
}

// StreamMemberName is the single member exposed by a compressed stream:
// the stream's base name minus its compression suffix.
func StreamMemberName(name string) string {
	base := path.Base(strings.ReplaceAll(name, "\\", "/"))
	lower := strings.ToLower(base)
	for _, suffix := range []string{".lzma", ".bz2", ".zst", ".gz", ".xz"} {
		if strings.HasSuffix(lower, suffix) {
			inner := base[:len(base)-len(suffix)]
			if inner == "" {
				return base
			}
			return inner
		}
	}
	return base
}
