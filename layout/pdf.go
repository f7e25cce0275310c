package layout

import (
	"bytes"
	"fmt"
	"image"
	"io"
	"path/filepath"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/disintegration/imaging"
	"github.com/ledongthuc/pdf"
	"golang.org/x/text/unicode/norm"
)

// PDFOptions control reconstruction of lines and boxes from positioned glyphs.
type PDFOptions struct {
	// glyphs with baselines closer than this belong to the same line
	RowTolerance float64
	// horizontal gap (relative to font size) which is considered a space
	WordMargin float64
	// vertical gap between lines (relative to font size) which starts new box
	LineMargin float64
}

// DefaultPDFOptions returns options close to what pdfminer uses by default.
func DefaultPDFOptions() PDFOptions {
	return PDFOptions{
		RowTolerance: 2.0,
		WordMargin:   0.1,
		LineMargin:   0.5,
	}
}

// PDFReader builds layout pages out of PDF document.
type PDFReader struct {
	opts   PDFOptions
	r      *pdf.Reader
	closer io.Closer
}

// OpenPDF opens PDF file.
func OpenPDF(path string, opts PDFOptions) (src *PDFReader, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("unable to open pdf '%s': %v", path, r)
		}
	}()

	f, r, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("unable to open pdf '%s': %w", path, err)
	}
	return &PDFReader{opts: opts, r: r, closer: f}, nil
}

// NewPDFReader reads PDF document from memory, for example archive entry.
func NewPDFReader(data []byte, opts PDFOptions) (src *PDFReader, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("unable to read pdf: %v", r)
		}
	}()

	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("unable to read pdf: %w", err)
	}
	return &PDFReader{opts: opts, r: r}, nil
}

func (p *PDFReader) NumPages() int {
	return p.r.NumPage()
}

func (p *PDFReader) Close() error {
	if p.closer == nil {
		return nil
	}
	return p.closer.Close()
}

// Page extracts layout of a single page. Malformed content results in error
// for the page only.
func (p *PDFReader) Page(n int) (page *Page, err error) {
	if n < 1 || n > p.r.NumPage() {
		return nil, fmt.Errorf("page %d out of range [1, %d]", n, p.r.NumPage())
	}

	defer func() {
		if r := recover(); r != nil {
			page, err = nil, fmt.Errorf("unable to parse page %d: %v", n, r)
		}
	}()

	pp := p.r.Page(n)
	page = &Page{ID: n}
	if pp.V.IsNull() {
		return page, nil
	}
	page.BBox = mediaBox(pp)

	lines := p.buildLines(pp.Content().Text)
	for i, box := range p.buildBoxes(lines) {
		box.Index = i
		page.Items = append(page.Items, box)
	}
	for _, img := range extractImages(pp) {
		page.Items = append(page.Items, img)
	}
	return page, nil
}

func mediaBox(pp pdf.Page) BBox {
	for v := pp.V; !v.IsNull(); v = v.Key("Parent") {
		if mb := v.Key("MediaBox"); mb.Kind() == pdf.Array && mb.Len() == 4 {
			return BBox{X0: mb.Index(0).Float64(), Y0: mb.Index(1).Float64(), X1: mb.Index(2).Float64(), Y1: mb.Index(3).Float64()}
		}
	}
	return BBox{}
}

type row struct {
	yMin, yMax float64
	texts      []pdf.Text
}

// groupIntoRows puts glyphs sharing baseline (within tolerance) together.
// Rows are returned top to bottom, glyphs in a row left to right.
func groupIntoRows(texts []pdf.Text, tolerance float64) []row {
	var rows []row
	for _, t := range texts {
		if len(strings.TrimSpace(t.S)) == 0 && t.W == 0 {
			continue
		}
		found := false
		for i := range rows {
			if t.Y >= rows[i].yMin-tolerance && t.Y <= rows[i].yMax+tolerance {
				rows[i].texts = append(rows[i].texts, t)
				rows[i].yMin = min(rows[i].yMin, t.Y)
				rows[i].yMax = max(rows[i].yMax, t.Y)
				found = true
				break
			}
		}
		if !found {
			rows = append(rows, row{yMin: t.Y, yMax: t.Y, texts: []pdf.Text{t}})
		}
	}

	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].yMax > rows[j].yMax
	})
	for _, r := range rows {
		sort.SliceStable(r.texts, func(i, j int) bool {
			return r.texts[i].X < r.texts[j].X
		})
	}
	return rows
}

// glyphText decomposes typographic ligatures so "ﬁ" becomes "fi".
func glyphText(s string) string {
	if r, size := utf8.DecodeRuneInString(s); size == len(s) && r >= 0xFB00 && r <= 0xFB06 {
		return norm.NFKC.String(s)
	}
	return s
}

func (p *PDFReader) buildLines(texts []pdf.Text) []*Line {
	rows := groupIntoRows(texts, p.opts.RowTolerance)
	lines := make([]*Line, 0, len(rows))
	for _, r := range rows {
		line := &Line{}
		var prev *pdf.Text
		for i := range r.texts {
			t := &r.texts[i]
			bb := BBox{X0: t.X, Y0: t.Y, X1: t.X + t.W, Y1: t.Y + t.FontSize}
			if prev == nil {
				line.BBox = bb
			} else {
				line.BBox = line.BBox.Union(bb)
				gap := t.X - (prev.X + prev.W)
				if gap > p.opts.WordMargin*max(t.FontSize, prev.FontSize) &&
					!strings.HasSuffix(prev.S, " ") && !strings.HasPrefix(t.S, " ") {
					line.Items = append(line.Items, &Anno{Text: " "})
				}
			}
			line.Items = append(line.Items, &Char{Font: t.Font, Size: t.FontSize, Text: glyphText(t.S), BBox: bb})
			prev = t
		}
		line.Items = append(line.Items, &Anno{Text: "\n"})
		lines = append(lines, line)
	}
	return lines
}

// lineSize is the most common glyph size of the line.
func lineSize(l *Line) float64 {
	counts := make(map[float64]int)
	best, bestCount := 0.0, 0
	for _, it := range l.Items {
		c, ok := it.(*Char)
		if !ok {
			continue
		}
		counts[c.Size]++
		if n := counts[c.Size]; n > bestCount || (n == bestCount && c.Size > best) {
			best, bestCount = c.Size, n
		}
	}
	return best
}

// buildBoxes groups consecutive lines into boxes. New box is started when
// vertical gap between lines is too large or font size changes.
func (p *PDFReader) buildBoxes(lines []*Line) []*Box {
	var (
		boxes    []*Box
		cur      *Box
		prevSize float64
	)
	for _, l := range lines {
		size := lineSize(l)
		if cur != nil {
			last := cur.Lines[len(cur.Lines)-1]
			gap := last.Y0 - l.Y1
			if gap > p.opts.LineMargin*max(size, prevSize) || size != prevSize {
				cur = nil
			}
		}
		if cur == nil {
			cur = &Box{BBox: l.BBox}
			boxes = append(boxes, cur)
		}
		cur.Lines = append(cur.Lines, l)
		cur.BBox = cur.BBox.Union(l.BBox)
		prevSize = size
	}
	return boxes
}

// extractImages turns image XObjects of the page into Image nodes. Only
// images which could be decoded without external codecs carry data.
func extractImages(pp pdf.Page) []*Image {
	xobjects := pp.Resources().Key("XObject")
	if xobjects.Kind() != pdf.Dict {
		return nil
	}

	var images []*Image
	for _, name := range xobjects.Keys() {
		x := xobjects.Key(name)
		if x.Key("Subtype").Name() != "Image" {
			continue
		}
		img := &Image{Name: name}
		data, err := decodeImage(x)
		if err != nil {
			img.Unsupported = err.Error()
		} else {
			img.Data = data
		}
		images = append(images, img)
	}
	return images
}

func imageFilter(x pdf.Value) string {
	f := x.Key("Filter")
	switch f.Kind() {
	case pdf.Name:
		return f.Name()
	case pdf.Array:
		if f.Len() == 1 {
			return f.Index(0).Name()
		}
		names := make([]string, 0, f.Len())
		for i := range f.Len() {
			names = append(names, f.Index(i).Name())
		}
		return strings.Join(names, ",")
	}
	return ""
}

func decodeImage(x pdf.Value) (data []byte, err error) {
	defer func() {
		if r := recover(); r != nil {
			data, err = nil, fmt.Errorf("unable to read image stream: %v", r)
		}
	}()

	if filter := imageFilter(x); filter != "" && filter != "FlateDecode" {
		return nil, fmt.Errorf("unsupported image filter %s", filter)
	}
	if bpc := x.Key("BitsPerComponent").Int64(); bpc != 8 {
		return nil, fmt.Errorf("unsupported bits per component %d", bpc)
	}

	var channels int
	switch cs := x.Key("ColorSpace"); cs.Name() {
	case "DeviceRGB":
		channels = 3
	case "DeviceGray":
		channels = 1
	default:
		return nil, fmt.Errorf("unsupported color space %v", cs)
	}

	w, h := int(x.Key("Width").Int64()), int(x.Key("Height").Int64())
	if w <= 0 || h <= 0 {
		return nil, fmt.Errorf("bad image dimensions %dx%d", w, h)
	}

	rc := x.Reader()
	defer rc.Close()
	samples, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("unable to read image stream: %w", err)
	}
	if len(samples) < w*h*channels {
		return nil, fmt.Errorf("short image stream: %d bytes for %dx%dx%d", len(samples), w, h, channels)
	}

	var img image.Image
	if channels == 1 {
		gray := image.NewGray(image.Rect(0, 0, w, h))
		copy(gray.Pix, samples)
		img = gray
	} else {
		rgba := image.NewNRGBA(image.Rect(0, 0, w, h))
		for i := range w * h {
			copy(rgba.Pix[i*4:i*4+3], samples[i*3:i*3+3])
			rgba.Pix[i*4+3] = 0xff
		}
		img = rgba
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
		return nil, fmt.Errorf("unable to encode image: %w", err)
	}
	return buf.Bytes(), nil
}

// ensure PDFReader satisfies Source
var _ Source = (*PDFReader)(nil)

// Open picks layout producer by file name: layout dumps are recognized by
// extension, everything else is read as PDF.
func Open(path string, opts PDFOptions) (Source, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml", ".json":
		return LoadFile(path)
	}
	src, err := OpenPDF(path, opts)
	if err != nil {
		return nil, err
	}
	return src, nil
}
