package archive

import (
	"archive/tar"
	"bytes"
	"compress/bzip2"
	"errors"
	"fmt"
	"io"

	"github.com/bodgit/sevenzip"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zip"
	"github.com/klauspost/compress/zstd"
	"github.com/nwaples/rardecode/v2"
	"github.com/ulikunitz/xz"
	"github.com/ulikunitz/xz/lzma"

	greaperrors "github.com/standardbeagle/greaper/internal/errors"
)

// source is a container opened for decoding
type source struct {
	name string
	ra   io.ReaderAt
	size int64
}

func (s source) stream() io.Reader {
	return io.NewSectionReader(s.ra, 0, s.size)
}

func (s source) head(n int) []byte {
	if int64(n) > s.size {
		n = int(s.size)
	}
	buf := make([]byte, n)
	read, _ := s.ra.ReadAt(buf, 0)
	return buf[:read]
}

// memberFunc receives each regular member in archive order. The reader is
// only valid for the duration of the call. Returning errStopIteration ends
// the iteration without error.
type memberFunc func(name string, r io.Reader) error

var errStopIteration = errors.New("stop iteration")

// eachMember decodes src according to format and calls fn for every regular member
func eachMember(src source, format Format, fn memberFunc) error {
	var err error
	switch format {
	case FormatZip:
		err = eachZipMember(src, fn)
	case FormatTar:
		err = eachTarMember(src.stream(), fn)
	case FormatTarGzip, FormatTarBzip2, FormatTarXz, FormatTarZstd:
		err = withDecompressor(src.stream(), format, func(r io.Reader) error {
			return eachTarMember(r, fn)
		})
	case Format7z:
		err = eachSevenZipMember(src, fn)
	case FormatRar:
		err = eachRarMember(src.stream(), fn)
	default:
		if !format.IsStream() {
			return greaperrors.ErrUnsupportedFormat
		}
		err = withDecompressor(src.stream(), format, func(r io.Reader) error {
			return fn(StreamMemberName(src.name), r)
		})
	}
	if errors.Is(err, errStopIteration) {
		return nil
	}
	return err
}

// withDecompressor wraps r with the stream codec of format and hands it to fn
func withDecompressor(r io.Reader, format Format, fn func(io.Reader) error) error {
	switch format {
	case FormatGzip, FormatTarGzip:
		zr, err := gzip.NewReader(r)
		if err != nil {
			return fmt.Errorf("gzip: %w", err)
		}
		defer zr.Close()
		return fn(zr)
	case FormatBzip2, FormatTarBzip2:
		return fn(bzip2.NewReader(r))
	case FormatXz, FormatTarXz:
		xr, err := xz.NewReader(r)
		if err != nil {
			return fmt.Errorf("xz: %w", err)
		}
		return fn(xr)
	case FormatLzma:
		lr, err := lzma.NewReader(r)
		if err != nil {
			return fmt.Errorf("lzma: %w", err)
		}
		return fn(lr)
	case FormatZstd, FormatTarZstd:
		dec, err := zstd.NewReader(r, zstd.WithDecoderConcurrency(1))
		if err != nil {
			return fmt.Errorf("zstd: %w", err)
		}
		defer dec.Close()
		return fn(dec)
	}
	return greaperrors.ErrUnsupportedFormat
}

func eachZipMember(src source, fn memberFunc) error {
	zr, err := zip.NewReader(src.ra, src.size)
	if err != nil {
		return fmt.Errorf("zip: %w", err)
	}
	for _, f := range zr.File {
		if f.FileInfo().IsDir() {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return fmt.Errorf("zip member %s: %w", f.Name, err)
		}
		err = fn(f.Name, rc)
		rc.Close()
		if err != nil {
			return err
		}
	}
	return nil
}

func eachTarMember(r io.Reader, fn memberFunc) error {
	tr := tar.NewReader(r)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("tar: %w", err)
		}
		if !hdr.FileInfo().Mode().IsRegular() {
			continue
		}
		if err := fn(hdr.Name, tr); err != nil {
			return err
		}
	}
}

func eachSevenZipMember(src source, fn memberFunc) error {
	zr, err := sevenzip.NewReader(src.ra, src.size)
	if err != nil {
		return fmt.Errorf("7z: %w", err)
	}
	for _, f := range zr.File {
		if f.FileInfo().IsDir() {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return fmt.Errorf("7z member %s: %w", f.Name, err)
		}
		err = fn(f.Name, rc)
		rc.Close()
		if err != nil {
			return err
		}
	}
	return nil
}

func eachRarMember(r io.Reader, fn memberFunc) error {
	rr, err := rardecode.NewReader(r)
	if err != nil {
		return fmt.Errorf("rar: %w", err)
	}
	for {
		hdr, err := rr.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("rar: %w", err)
		}
		if hdr.IsDir {
			continue
		}
		if err := fn(hdr.Name, rr); err != nil {
			return err
		}
	}
}

// readLimited reads at most limit bytes; longer members fail with ErrMemberTooLarge
func readLimited(r io.Reader, limit int64) ([]byte, error) {
	var buf bytes.Buffer
	n, err := io.Copy(&buf, io.LimitReader(r, limit+1))
	if err != nil {
		return nil, err
	}
	if n > limit {
		return nil, greaperrors.ErrMemberTooLarge
	}
	return buf.Bytes(), nil
}
