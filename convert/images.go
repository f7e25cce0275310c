package convert

import (
	"bytes"
	"crypto/sha256"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/disintegration/imaging"
	"github.com/h2non/filetype"
	"go.uber.org/zap"
	_ "golang.org/x/image/webp"

	"pdfrst/config"
	"pdfrst/layout"
	"pdfrst/visitor"
)

// ImageWriter saves embedded images into a directory. Formats browsers and
// documentation tools understand are written as is, anything else is
// re-encoded to PNG.
type ImageWriter struct {
	dir       string
	prefix    string
	overwrite bool
	log       *zap.Logger

	used  map[string]int
	seen  map[[sha256.Size]byte]string
	saved int
}

// NewImageWriter creates writer for dir. Returned names are prefixed with
// prefix (slash separated) so they could be used in markup directly.
func NewImageWriter(dir, prefix string, overwrite bool, log *zap.Logger) *ImageWriter {
	if log == nil {
		log = zap.NewNop()
	}
	return &ImageWriter{dir: dir, prefix: prefix, overwrite: overwrite, log: log,
		used: make(map[string]int), seen: make(map[[sha256.Size]byte]string)}
}

// Saved returns number of images written so far.
func (w *ImageWriter) Saved() int {
	return w.saved
}

// ExportImage implements visitor.ImageExporter. Pages sharing an image
// stream get the name returned the first time, image is written once.
func (w *ImageWriter) ExportImage(img *layout.Image) (string, error) {
	if len(img.Unsupported) > 0 {
		return "", fmt.Errorf("unsupported image %s: %s", img.Name, img.Unsupported)
	}
	if len(img.Data) == 0 {
		return "", fmt.Errorf("image %s has no data", img.Name)
	}

	sum := sha256.Sum256(img.Data)
	if name, ok := w.seen[sum]; ok {
		w.log.Debug("Image already exported", zap.String("image", img.Name), zap.String("as", name))
		return name, nil
	}

	data, ext, err := normalizeImage(img.Data)
	if err != nil {
		return "", fmt.Errorf("image %s: %w", img.Name, err)
	}

	base := config.CleanFileName(img.Name)
	// resource names are only unique within a page
	if n := w.used[base]; n > 0 {
		w.used[base] = n + 1
		base = fmt.Sprintf("%s-%d", base, n+1)
	} else {
		w.used[base] = 1
	}
	name := base + "." + ext

	path := filepath.Join(w.dir, name)
	if _, err := os.Stat(path); err == nil {
		if !w.overwrite {
			return "", fmt.Errorf("image file already exists: %s", path)
		}
		w.log.Debug("Overwriting existing image", zap.String("file", path))
	} else if !errors.Is(err, os.ErrNotExist) {
		return "", err
	}

	if err := os.MkdirAll(w.dir, 0755); err != nil {
		return "", fmt.Errorf("unable to create image directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("unable to write image: %w", err)
	}
	w.saved++

	if len(w.prefix) > 0 {
		name = w.prefix + "/" + name
	}
	w.seen[sum] = name
	return name, nil
}

// normalizeImage detects image type and returns data suitable for saving
// along with file extension.
func normalizeImage(data []byte) ([]byte, string, error) {
	if kind, err := filetype.Image(data); err == nil {
		switch kind.Extension {
		case "png", "jpg", "gif":
			return data, kind.Extension, nil
		}
	}

	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, "", fmt.Errorf("unable to decode image: %w", err)
	}
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
		return nil, "", fmt.Errorf("unable to encode image: %w", err)
	}
	return buf.Bytes(), "png", nil
}

// ensure ImageWriter could be used by visitor
var _ visitor.ImageExporter = (*ImageWriter)(nil)
