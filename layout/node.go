// Package layout describes positioned page content: pages, text boxes, lines
// and glyphs. Layout trees are produced from PDF files or loaded from dumps.
package layout

import (
	"fmt"
	"strings"
	"unicode"
)

// Kind identifies node type.
type Kind int

const (
	KindContainer Kind = iota
	KindPage
	KindBox
	KindLine
	KindChar
	KindAnno
	KindImage
)

var kindNames = [...]string{
	KindContainer: "container",
	KindPage:      "page",
	KindBox:       "box",
	KindLine:      "line",
	KindChar:      "char",
	KindAnno:      "anno",
	KindImage:     "image",
}

func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return fmt.Sprintf("Kind(%d)", int(k))
	}
	return kindNames[k]
}

// Chain returns kind followed by kinds it specializes, most specific first.
// Pages, boxes and lines are containers.
func (k Kind) Chain() []Kind {
	switch k {
	case KindPage, KindBox, KindLine:
		return []Kind{k, KindContainer}
	}
	return []Kind{k}
}

// BBox is a rectangle in PDF user space, origin is bottom left.
type BBox struct {
	X0 float64 `yaml:"x0"`
	Y0 float64 `yaml:"y0"`
	X1 float64 `yaml:"x1"`
	Y1 float64 `yaml:"y1"`
}

// Union returns smallest rectangle containing both.
func (b BBox) Union(o BBox) BBox {
	return BBox{
		X0: min(b.X0, o.X0),
		Y0: min(b.Y0, o.Y0),
		X1: max(b.X1, o.X1),
		Y1: max(b.Y1, o.Y1),
	}
}

// Node is an element of layout tree.
type Node interface {
	Kind() Kind
	Children() []Node
}

// Container groups arbitrary nodes, for example figure content.
type Container struct {
	BBox
	Items []Node
}

func (c *Container) Kind() Kind       { return KindContainer }
func (c *Container) Children() []Node { return c.Items }

// Page is a single page of the document. ID is 1 based page number.
type Page struct {
	ID int
	BBox
	Items []Node
}

func (p *Page) Kind() Kind       { return KindPage }
func (p *Page) Children() []Node { return p.Items }

// Box is a text box: group of lines layout engine considers a paragraph.
type Box struct {
	Index int // position of the box on the page
	BBox
	Lines []*Line
}

func (b *Box) Kind() Kind { return KindBox }

func (b *Box) Children() []Node {
	nodes := make([]Node, 0, len(b.Lines))
	for _, l := range b.Lines {
		nodes = append(nodes, l)
	}
	return nodes
}

// Line is a horizontal line of glyphs and virtual text.
type Line struct {
	BBox
	Items []Node
}

func (l *Line) Kind() Kind       { return KindLine }
func (l *Line) Children() []Node { return l.Items }

// Char is a single glyph.
type Char struct {
	Font string
	Size float64
	Text string
	BBox
}

func (c *Char) Kind() Kind       { return KindChar }
func (c *Char) Children() []Node { return nil }

// Anno is virtual text inserted by layout engine: spaces between words and
// line ends.
type Anno struct {
	Text string
}

func (a *Anno) Kind() Kind       { return KindAnno }
func (a *Anno) Children() []Node { return nil }

// Image is an embedded picture. Data holds encoded image file, it is empty
// when image could not be extracted and Unsupported then explains why.
type Image struct {
	Name string
	BBox
	Data        []byte
	Unsupported string
}

func (i *Image) Kind() Kind       { return KindImage }
func (i *Image) Children() []Node { return nil }

// Text concatenates glyph and virtual text of the subtree.
func Text(n Node) string {
	var sb strings.Builder
	writeText(&sb, n)
	return sb.String()
}

func writeText(sb *strings.Builder, n Node) {
	switch v := n.(type) {
	case *Char:
		sb.WriteString(v.Text)
	case *Anno:
		sb.WriteString(v.Text)
	default:
		for _, c := range n.Children() {
			writeText(sb, c)
		}
	}
}

// HasText reports whether subtree has any visible glyph.
func HasText(n Node) bool {
	if c, ok := n.(*Char); ok {
		return strings.IndexFunc(c.Text, func(r rune) bool {
			return !unicode.IsSpace(r)
		}) >= 0
	}
	for _, c := range n.Children() {
		if HasText(c) {
			return true
		}
	}
	return false
}

// Source gives access to pages of a single document.
type Source interface {
	NumPages() int
	// Page returns page by 1 based number.
	Page(n int) (*Page, error)
	Close() error
}

type pageList struct {
	pages []*Page
}

// NewSource wraps already built pages.
func NewSource(pages []*Page) Source {
	return &pageList{pages: pages}
}

func (s *pageList) NumPages() int { return len(s.pages) }

func (s *pageList) Page(n int) (*Page, error) {
	if n < 1 || n > len(s.pages) {
		return nil, fmt.Errorf("page %d out of range [1, %d]", n, len(s.pages))
	}
	return s.pages[n-1], nil
}

func (s *pageList) Close() error { return nil }
