package convert

import (
	"bytes"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/h2non/filetype"
	"go.uber.org/zap/zaptest"

	"pdfrst/layout"
)

func encodeTestImage(t *testing.T, format imaging.Format) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, 4, 2))
	img.Set(1, 1, color.NRGBA{R: 255, A: 255})

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, format); err != nil {
		t.Fatalf("encode test image: %v", err)
	}
	return buf.Bytes()
}

func TestNormalizeImage(t *testing.T) {
	tests := []struct {
		name    string
		format  imaging.Format
		ext     string
		passing bool
	}{
		{"png", imaging.PNG, "png", true},
		{"jpeg", imaging.JPEG, "jpg", true},
		{"gif", imaging.GIF, "gif", true},
		{"bmp", imaging.BMP, "png", false},
		{"tiff", imaging.TIFF, "png", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := encodeTestImage(t, tt.format)

			out, ext, err := normalizeImage(data)
			if err != nil {
				t.Fatalf("normalizeImage() error = %v", err)
			}
			if ext != tt.ext {
				t.Errorf("normalizeImage() ext = %q, want %q", ext, tt.ext)
			}
			if tt.passing && !bytes.Equal(out, data) {
				t.Error("normalizeImage() changed image which should be kept as is")
			}
			if !tt.passing {
				if !filetype.Is(out, "png") {
					t.Error("normalizeImage() result is not PNG")
				}
				img, err := imaging.Decode(bytes.NewReader(out))
				if err != nil {
					t.Fatalf("decode result: %v", err)
				}
				if b := img.Bounds(); b.Dx() != 4 || b.Dy() != 2 {
					t.Errorf("result bounds = %v", b)
				}
			}
		})
	}
}

func TestNormalizeImage_Garbage(t *testing.T) {
	if _, _, err := normalizeImage([]byte("definitely not an image")); err == nil {
		t.Error("normalizeImage() expected error for garbage data")
	}
}

func TestImageWriter_Export(t *testing.T) {
	dir := t.TempDir()
	w := NewImageWriter(filepath.Join(dir, "images"), "images", false, zaptest.NewLogger(t))
	png := encodeTestImage(t, imaging.PNG)

	name, err := w.ExportImage(&layout.Image{Name: "Im1", Data: png})
	if err != nil {
		t.Fatalf("ExportImage() error = %v", err)
	}
	if name != "images/Im1.png" {
		t.Errorf("ExportImage() = %q, want %q", name, "images/Im1.png")
	}

	// resource names repeat on different pages
	name, err = w.ExportImage(&layout.Image{Name: "Im1", Data: encodeTestImage(t, imaging.BMP)})
	if err != nil {
		t.Fatalf("ExportImage() error = %v", err)
	}
	if name != "images/Im1-2.png" {
		t.Errorf("ExportImage() = %q, want %q", name, "images/Im1-2.png")
	}

	if w.Saved() != 2 {
		t.Errorf("Saved() = %d, want 2", w.Saved())
	}
	data, err := os.ReadFile(filepath.Join(dir, "images", "Im1.png"))
	if err != nil {
		t.Fatalf("read image: %v", err)
	}
	if !bytes.Equal(data, png) {
		t.Error("stored image differs from original")
	}
	if _, err := os.Stat(filepath.Join(dir, "images", "Im1-2.png")); err != nil {
		t.Errorf("second image was not stored: %v", err)
	}
}

func TestImageWriter_SharedImage(t *testing.T) {
	dir := t.TempDir()
	w := NewImageWriter(dir, "images", false, zaptest.NewLogger(t))
	png := encodeTestImage(t, imaging.PNG)

	// same stream referenced from three pages, twice under another name
	for i, name := range []string{"Im1", "Im1", "Im4"} {
		got, err := w.ExportImage(&layout.Image{Name: name, Data: png})
		if err != nil {
			t.Fatalf("ExportImage(%d) error = %v", i, err)
		}
		if got != "images/Im1.png" {
			t.Errorf("ExportImage(%d) = %q, want %q", i, got, "images/Im1.png")
		}
	}
	if w.Saved() != 1 {
		t.Errorf("Saved() = %d, want 1", w.Saved())
	}

	got, err := w.ExportImage(&layout.Image{Name: "Im1", Data: encodeTestImage(t, imaging.GIF)})
	if err != nil {
		t.Fatalf("ExportImage() error = %v", err)
	}
	if got != "images/Im1-2.gif" {
		t.Errorf("ExportImage() = %q, want %q", got, "images/Im1-2.gif")
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 2 {
		t.Errorf("stored %d files, want 2", len(entries))
	}
}

func TestImageWriter_NoPrefix(t *testing.T) {
	dir := t.TempDir()
	w := NewImageWriter(dir, "", false, nil)

	name, err := w.ExportImage(&layout.Image{Name: "Im/7", Data: encodeTestImage(t, imaging.GIF)})
	if err != nil {
		t.Fatalf("ExportImage() error = %v", err)
	}
	if name != "Im7.gif" {
		t.Errorf("ExportImage() = %q, want %q", name, "Im7.gif")
	}
}

func TestImageWriter_Errors(t *testing.T) {
	png := encodeTestImage(t, imaging.PNG)

	tests := []struct {
		name  string
		img   *layout.Image
		setup func(dir string)
		want  string
	}{
		{
			name: "unsupported",
			img:  &layout.Image{Name: "Im1", Unsupported: "JBIG2Decode"},
			want: "unsupported image",
		},
		{
			name: "no data",
			img:  &layout.Image{Name: "Im1"},
			want: "has no data",
		},
		{
			name: "garbage",
			img:  &layout.Image{Name: "Im1", Data: []byte("garbage")},
			want: "unable to decode",
		},
		{
			name: "exists",
			img:  &layout.Image{Name: "Im1", Data: png},
			setup: func(dir string) {
				_ = os.WriteFile(filepath.Join(dir, "Im1.png"), []byte("old"), 0644)
			},
			want: "already exists",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			if tt.setup != nil {
				tt.setup(dir)
			}
			w := NewImageWriter(dir, "img", false, zaptest.NewLogger(t))

			_, err := w.ExportImage(tt.img)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("ExportImage() error = %v, want containing %q", err, tt.want)
			}
			if w.Saved() != 0 {
				t.Errorf("Saved() = %d after failure", w.Saved())
			}
		})
	}
}

func TestImageWriter_Overwrite(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "Im1.png"), []byte("old"), 0644); err != nil {
		t.Fatal(err)
	}
	png := encodeTestImage(t, imaging.PNG)

	w := NewImageWriter(dir, "img", true, zaptest.NewLogger(t))
	if _, err := w.ExportImage(&layout.Image{Name: "Im1", Data: png}); err != nil {
		t.Fatalf("ExportImage() error = %v", err)
	}
	data, err := os.ReadFile(filepath.Join(dir, "Im1.png"))
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(data, png) {
		t.Error("existing image was not overwritten")
	}
}
