package convert

import (
	"archive/zip"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/h2non/filetype"

	"pdfrst/archive"
)

// headSize is what filetype needs to see to recognize any of its types.
const headSize = 262

type docKind int

const (
	docUnknown docKind = iota
	docPDF
	docDump
)

func (k docKind) String() string {
	switch k {
	case docPDF:
		return "pdf"
	case docDump:
		return "layout dump"
	default:
		return "unknown"
	}
}

func readHead(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	buf := make([]byte, headSize)
	n, err := io.ReadFull(f, buf)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return nil, err
	}
	return buf[:n], nil
}

func isArchiveFile(path string) (bool, error) {
	if !strings.EqualFold(filepath.Ext(path), ".zip") {
		return false, nil
	}
	head, err := readHead(path)
	if err != nil {
		return false, err
	}
	return filetype.Is(head, "zip"), nil
}

// classify decides what kind of document name refers to. Layout dumps are
// recognized by name only, PDFs by content.
func classify(name string, head func() ([]byte, error)) (docKind, error) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".yaml", ".yml", ".json":
		return docDump, nil
	case ".pdf":
		data, err := head()
		if err != nil {
			return docUnknown, err
		}
		if filetype.Is(data, "pdf") {
			return docPDF, nil
		}
	}
	return docUnknown, nil
}

func isDocumentFile(path string) (docKind, error) {
	return classify(path, func() ([]byte, error) {
		return readHead(path)
	})
}

func isDocumentInArchive(f *zip.File) (docKind, error) {
	return classify(f.Name, func() ([]byte, error) {
		return archive.Head(f, headSize)
	})
}
