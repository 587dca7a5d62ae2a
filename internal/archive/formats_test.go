package archive

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsArchive(t *testing.T) {
	archives := []string{
		"a.zip", "a.JAR", "a.war", "a.ear", "pkg.whl", "pkg.egg", "pkg.nupkg", "app.apk", "lib.aar",
		"a.tar", "a.tar.gz", "a.tgz", "a.tar.bz2", "a.tbz2", "a.tar.xz", "a.txz", "a.tar.zst", "a.tzst",
		"a.gz", "a.bz2", "a.xz", "a.lzma", "a.zst", "a.7z", "a.rar",
	}
	for _, name := range archives {
		assert.True(t, IsArchive(name), name)
	}

	for _, name := range []string{"a.txt", "a.py", "zip", "a.gzip", "README"} {
		assert.False(t, IsArchive(name), name)
	}
}

func TestFormatForName(t *testing.T) {
	tests := map[string]Format{
		"x.tar.gz":  FormatTarGzip,
		"x.tgz":     FormatTarGzip,
		"x.gz":      FormatGzip,
		"x.tar.bz2": FormatTarBzip2,
		"x.bz2":     FormatBzip2,
		"x.tar.xz":  FormatTarXz,
		"x.xz":      FormatXz,
		"x.tar.zst": FormatTarZstd,
		"x.zst":     FormatZstd,
		"x.lzma":    FormatLzma,
		"x.jar":     FormatZip,
		"x.7z":      Format7z,
		"x.rar":     FormatRar,
		"x.txt":     FormatUnknown,
	}
	for name, want := range tests {
		assert.Equal(t, want, FormatForName(name), name)
	}
	assert.True(t, FormatGzip.IsStream())
	assert.False(t, FormatTarGzip.IsStream())
	assert.Equal(t, "tar.gz", FormatTarGzip.String())
}

func TestFormatForContent(t *testing.T) {
	assert.Equal(t, FormatZip, FormatForContent([]byte("PK\x03\x04rest")))
	assert.Equal(t, FormatGzip, FormatForContent([]byte{0x1f, 0x8b, 0x08}))
	assert.Equal(t, FormatBzip2, FormatForContent([]byte("BZh91AY")))
	assert.Equal(t, Format7z, FormatForContent([]byte{'7', 'z', 0xbc, 0xaf, 0x27, 0x1c, 0, 4}))
	assert.Equal(t, FormatUnknown, FormatForContent([]byte("plain text")))

	header := make([]byte, 512)
	copy(header[257:], "ustar")
	assert.Equal(t, FormatTar, FormatForContent(header))
}

func TestStreamMemberName(t *testing.T) {
	assert.Equal(t, "notes.txt", StreamMemberName("/data/notes.txt.gz"))
	assert.Equal(t, "bundle.zip", StreamMemberName("bundle.zip.xz"))
	assert.Equal(t, "dump", StreamMemberName("dump.LZMA"))
	assert.Equal(t, "log", StreamMemberName("dir/log.zst"))
	assert.Equal(t, ".gz", StreamMemberName(".gz"))
}

func TestVirtualPath(t *testing.T) {
	vp := ParseVirtualPath("outer.zip::inner.zip::x.txt")
	assert.Equal(t, "outer.zip", vp.Archive)
	assert.Equal(t, []string{"inner.zip", "x.txt"}, vp.Members())
	assert.Equal(t, "outer.zip::inner.zip::x.txt", vp.String())
	assert.Equal(t, "x.txt", vp.Name())
	assert.True(t, vp.IsNested())

	plain := ParseVirtualPath("src/main.go")
	assert.False(t, plain.IsNested())
	assert.Equal(t, "src/main.go", plain.String())
	assert.Equal(t, "src/main.go", plain.Name())

	child := vp.Child("more.txt")
	assert.Equal(t, "outer.zip::inner.zip::x.txt::more.txt", child.String())
	assert.Equal(t, "outer.zip::inner.zip::x.txt", vp.String(), "Child must not mutate the parent")

	assert.True(t, vp.Equal(NewVirtualPath("outer.zip", "inner.zip", "x.txt")))
	assert.False(t, vp.Equal(plain))

	assert.Equal(t, "inner.zip::x.txt", vp.MemberPath())
	assert.Equal(t, "", plain.MemberPath())
	assert.Equal(t, 2, vp.Depth())
	assert.Equal(t, "outer.zip::inner.zip", vp.Parent().String())
	assert.Equal(t, "src/main.go", plain.Parent().String())
}

func TestVirtualPath_Immutable(t *testing.T) {
	members := []string{"inner.zip", "x.txt"}
	vp := NewVirtualPath("outer.zip", members...)
	members[0] = "swapped.zip"
	assert.Equal(t, "outer.zip::inner.zip::x.txt", vp.String())

	got := vp.Members()
	got[1] = "changed.txt"
	assert.Equal(t, "outer.zip::inner.zip::x.txt", vp.String())

	parent := vp.Parent()
	_ = parent.Child("other.txt")
	assert.Equal(t, "outer.zip::inner.zip::x.txt", vp.String())
}

func TestVirtualPath_JSON(t *testing.T) {
	vp := NewVirtualPath("a.zip", "b.txt")
	data, err := json.Marshal(vp)
	require.NoError(t, err)
	assert.JSONEq(t, `"a.zip::b.txt"`, string(data))

	var decoded VirtualPath
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.True(t, vp.Equal(decoded))
}
