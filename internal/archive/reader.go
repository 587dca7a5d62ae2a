// Package archive lists and extracts members of container files, including
// containers nested inside other containers, addressed by "::" virtual paths.
package archive

import (
	"bytes"
	"errors"
	"io"
	"io/fs"
	"os"

	"github.com/cespare/xxhash/v2"

	"github.com/standardbeagle/greaper/internal/debug"
	greaperrors "github.com/standardbeagle/greaper/internal/errors"
	"github.com/standardbeagle/greaper/internal/types"
)

// Entry is one listed member
type Entry struct {
	Path            VirtualPath `json:"path"`
	IsNestedArchive bool        `json:"is_nested_archive"`
}

// WalkFunc receives each leaf member with its decompressed bytes.
// Returning fs.SkipAll stops the walk without error.
type WalkFunc func(vp VirtualPath, data []byte) error

// Reader decodes archives. Nested containers are expanded while the
// enclosing container's depth is below MaxDepth; MaxDepth 0 lists only the
// outer container.
type Reader struct {
	MaxDepth      int
	MaxMemberSize int64
}

// NewReader creates a reader with the default depth and member size limits
func NewReader() *Reader {
	return &Reader{
		MaxDepth:      types.DefaultMaxArchiveDepth,
		MaxMemberSize: types.DefaultMaxMemberSize,
	}
}

func (r *Reader) memberLimit() int64 {
	if r.MaxMemberSize <= 0 {
		return types.DefaultMaxMemberSize
	}
	return r.MaxMemberSize
}

// frame is one container waiting on the worklist
type frame struct {
	vp        VirtualPath
	src       source
	format    Format
	depth     int
	ancestors []uint64
	data      []byte // nil for the outer file
}

type leafItem struct {
	vp   VirtualPath
	data []byte
}

// visitor receives walk events; wantData controls whether leaf bytes are read
type visitor struct {
	wantData  bool
	leaf      func(vp VirtualPath, data []byte) error
	container func(vp VirtualPath) error
}

// List returns every member of the archive at path, nested members included
func (r *Reader) List(path string) ([]Entry, error) {
	var entries []Entry
	v := visitor{
		leaf: func(vp VirtualPath, _ []byte) error {
			entries = append(entries, Entry{Path: vp})
			return nil
		},
		container: func(vp VirtualPath) error {
			entries = append(entries, Entry{Path: vp, IsNestedArchive: true})
			return nil
		},
	}
	if err := r.walk(path, v); err != nil {
		return entries, greaperrors.NewArchiveError("list", path, err)
	}
	return entries, nil
}

// Walk streams every leaf member of the archive at path to fn. Each container
// is decompressed once.
func (r *Reader) Walk(path string, fn WalkFunc) error {
	v := visitor{
		wantData:  true,
		leaf:      fn,
		container: func(VirtualPath) error { return nil },
	}
	err := r.walk(path, v)
	if errors.Is(err, fs.SkipAll) {
		return nil
	}
	if err != nil {
		return greaperrors.NewArchiveError("walk", path, err)
	}
	return nil
}

func (r *Reader) walk(path string, v visitor) error {
	file, err := os.Open(path)
	if err != nil {
		return err
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return err
	}
	src := source{name: path, ra: file, size: info.Size()}

	format := detectFormat(path, src.head(512))
	if format == FormatUnknown {
		return greaperrors.ErrUnsupportedFormat
	}

	digest := xxhash.New()
	if _, err := io.Copy(digest, src.stream()); err != nil {
		return err
	}

	stack := []frame{{
		vp:        VirtualPath{Archive: path},
		src:       src,
		format:    format,
		ancestors: []uint64{digest.Sum64()},
	}}

	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if f.depth == 0 {
			pending, err := r.expand(f, v, v.leaf)
			if err != nil {
				return err
			}
			stack = pushReversed(stack, pending)
			continue
		}

		// Nested containers are decoded fully before anything is reported so
		// that a corrupt container degrades into a single plain leaf.
		var leaves []leafItem
		pending, err := r.expand(f, v, func(vp VirtualPath, data []byte) error {
			leaves = append(leaves, leafItem{vp: vp, data: data})
			return nil
		})
		if err != nil {
			debug.LogArchive("Treating %s as a plain member: %v\n", f.vp, err)
			if err := v.leaf(f.vp, f.data); err != nil {
				return err
			}
			continue
		}

		if err := v.container(f.vp); err != nil {
			return err
		}
		for _, l := range leaves {
			if err := v.leaf(l.vp, l.data); err != nil {
				return err
			}
		}
		stack = pushReversed(stack, pending)
	}
	return nil
}

// expand decodes one container, reporting leaves through leaf and returning
// the nested containers to expand next, in archive order.
func (r *Reader) expand(f frame, v visitor, leaf func(VirtualPath, []byte) error) ([]frame, error) {
	var pending []frame
	limit := r.memberLimit()

	err := eachMember(f.src, f.format, func(name string, rd io.Reader) error {
		vp := f.vp.Child(name)

		if IsArchive(name) && f.depth < r.MaxDepth {
			data, err := readLimited(rd, limit)
			if err != nil {
				debug.LogArchive("Skipping nested member %s: %v\n", vp, err)
				if v.wantData {
					return nil
				}
				return leaf(vp, nil)
			}

			sum := xxhash.Sum64(data)
			if containsHash(f.ancestors, sum) {
				debug.LogArchive("Not expanding self-nested member %s\n", vp)
				return leaf(vp, data)
			}

			ancestors := make([]uint64, 0, len(f.ancestors)+1)
			ancestors = append(ancestors, f.ancestors...)
			pending = append(pending, frame{
				vp:        vp,
				src:       source{name: name, ra: bytes.NewReader(data), size: int64(len(data))},
				format:    detectFormat(name, data),
				depth:     f.depth + 1,
				ancestors: append(ancestors, sum),
				data:      data,
			})
			return nil
		}

		if !v.wantData {
			return leaf(vp, nil)
		}
		data, err := readLimited(rd, limit)
		if err != nil {
			debug.LogArchive("Skipping member %s: %v\n", vp, err)
			return nil
		}
		return leaf(vp, data)
	})
	if err != nil {
		return nil, err
	}
	return pending, nil
}

func pushReversed(stack, frames []frame) []frame {
	for i := len(frames) - 1; i >= 0; i-- {
		stack = append(stack, frames[i])
	}
	return stack
}

func containsHash(hashes []uint64, h uint64) bool {
	for _, existing := range hashes {
		if existing == h {
			return true
		}
	}
	return false
}

// Extract returns the bytes addressed by vp. Any failure yields empty content.
func (r *Reader) Extract(vp VirtualPath) []byte {
	data, err := r.ReadMember(vp)
	if err != nil {
		debug.LogArchive("Extract %s failed: %v\n", vp, err)
		return []byte{}
	}
	return data
}

// ReadMember resolves each "::" segment left to right and returns the
// innermost member's bytes. A locator without members reads the plain file.
func (r *Reader) ReadMember(vp VirtualPath) ([]byte, error) {
	if !vp.IsNested() {
		data, err := os.ReadFile(vp.Archive)
		if err != nil {
			return nil, greaperrors.NewFileError("read", vp.Archive, err)
		}
		return data, nil
	}

	file, err := os.Open(vp.Archive)
	if err != nil {
		return nil, greaperrors.NewArchiveError("extract", vp.String(), err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return nil, greaperrors.NewArchiveError("extract", vp.String(), err)
	}

	src := source{name: vp.Archive, ra: file, size: info.Size()}
	var data []byte
	for _, member := range vp.members {
		data, err = r.readOne(src, member)
		if err != nil {
			return nil, greaperrors.NewArchiveError("extract", vp.String(), err)
		}
		src = source{name: member, ra: bytes.NewReader(data), size: int64(len(data))}
	}
	return data, nil
}

// readOne finds a direct member of src by exact name
func (r *Reader) readOne(src source, member string) ([]byte, error) {
	format := detectFormat(src.name, src.head(512))
	if format == FormatUnknown {
		return nil, greaperrors.ErrUnsupportedFormat
	}

	var (
		data  []byte
		found bool
	)
	err := eachMember(src, format, func(name string, rd io.Reader) error {
		if name != member {
			return nil
		}
		var err error
		data, err = readLimited(rd, r.memberLimit())
		if err != nil {
			return err
		}
		found = true
		return errStopIteration
	})
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, greaperrors.ErrMemberNotFound
	}
	return data, nil
}
