// Package archive builds Walk abstraction on top of "archive/zip".
package archive

import (
	"archive/zip"
	"fmt"
	"io"
	"path"
	"strings"
)

// MaxEntrySize limits how much of a single archive entry is read into memory.
const MaxEntrySize = 512 << 20

// WalkFunc is the type of the function called for each file in archive
// visited by Walk. The archive argument contains path to archive passed to
// Walk. If an error is returned, processing stops.
type WalkFunc func(archive string, file *zip.File) error

// Walk calls walkFn for every file in the archive whose name starts with
// prefix. Archives with absolute entry names or ".." components are refused.
func Walk(archive, prefix string, walkFn WalkFunc) error {

	r, err := zip.OpenReader(archive)
	if err != nil {
		return err
	}
	defer r.Close()

	for _, f := range r.File {
		name := f.FileHeader.Name
		if !isSafePath(name) {
			return fmt.Errorf("zip entry %q: unsafe path (absolute or contains path traversal)", name)
		}
		if !f.FileInfo().IsDir() && strings.HasPrefix(name, prefix) {
			if err := walkFn(archive, f); err != nil {
				return err
			}
		}
	}
	return nil
}

// Head returns up to n first bytes of the entry, enough for type detection.
func Head(f *zip.File, n int) ([]byte, error) {
	r, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer r.Close()

	buf := make([]byte, n)
	read, err := io.ReadFull(r, buf)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return nil, err
	}
	return buf[:read], nil
}

// ReadFile reads the whole entry. Entries larger than MaxEntrySize are
// refused.
func ReadFile(f *zip.File) ([]byte, error) {
	if f.UncompressedSize64 > MaxEntrySize {
		return nil, fmt.Errorf("zip entry %q is too large: %d bytes", f.Name, f.UncompressedSize64)
	}
	r, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer r.Close()

	data, err := io.ReadAll(io.LimitReader(r, MaxEntrySize+1))
	if err != nil {
		return nil, err
	}
	if len(data) > MaxEntrySize {
		return nil, fmt.Errorf("zip entry %q is too large", f.Name)
	}
	return data, nil
}

// isSafePath returns false for paths that could escape the extraction
// directory: absolute paths and those containing ".." components.
func isSafePath(name string) bool {
	if path.IsAbs(name) || strings.HasPrefix(name, "/") || strings.HasPrefix(name, `\`) {
		return false
	}
	for part := range strings.SplitSeq(name, "/") {
		if part == ".." {
			return false
		}
	}
	return true
}
