// Package visitor walks layout tree and feeds classified text into chapter
// model.
package visitor

import (
	"math"
	"strings"

	"go.uber.org/zap"

	"pdfrst/fonts"
	"pdfrst/layout"
	"pdfrst/rst"
)

// Handler processes single node. Visit handler returning false stops
// processing of the node: handlers of more generic kinds (including
// recursion into container children) are not called.
type Handler func(v *Visitor, n layout.Node) bool

// Phase selects when handler is called relative to node children.
type Phase int

const (
	Visit Phase = iota
	Depart
)

// ImageExporter saves embedded image and returns name it was saved under.
type ImageExporter interface {
	ExportImage(img *layout.Image) (string, error)
}

// Visitor keeps traversal state of a single conversion run.
type Visitor struct {
	chapter *rst.Chapter
	table   *fonts.Table
	stats   *fonts.Stats
	images  ImageExporter
	cutoff  int
	log     *zap.Logger

	handlers [2]map[layout.Kind][]Handler

	page    *layout.Page
	box     int // sequence number of the current box in the document
	boxSeq  int
	boxGeom rst.Geometry
	line    *layout.Line

	warned  map[*layout.Line]struct{}
	skipped bool
}

// Option customizes visitor.
type Option func(*Visitor)

// WithImageExporter makes visitor save images it encounters.
func WithImageExporter(e ImageExporter) Option {
	return func(v *Visitor) {
		v.images = e
	}
}

// WithPageCutoff makes visitor ignore pages with number above cutoff. Zero
// disables the limit.
func WithPageCutoff(cutoff int) Option {
	return func(v *Visitor) {
		v.cutoff = cutoff
	}
}

// WithStats makes visitor record font signature usage.
func WithStats(s *fonts.Stats) Option {
	return func(v *Visitor) {
		v.stats = s
	}
}

// New creates visitor filling chapter.
func New(chapter *rst.Chapter, table *fonts.Table, log *zap.Logger, opts ...Option) *Visitor {
	if log == nil {
		log = zap.NewNop()
	}
	v := &Visitor{
		chapter: chapter,
		table:   table,
		log:     log,
		warned:  make(map[*layout.Line]struct{}),
		handlers: [2]map[layout.Kind][]Handler{
			Visit: {
				layout.KindPage:      {(*Visitor).visitPage},
				layout.KindBox:       {(*Visitor).visitBox},
				layout.KindLine:      {(*Visitor).visitLine},
				layout.KindContainer: {(*Visitor).visitContainer},
				layout.KindChar:      {(*Visitor).visitChar},
				layout.KindAnno:      {(*Visitor).visitAnno},
				layout.KindImage:     {(*Visitor).visitImage},
			},
			Depart: {
				layout.KindPage: {(*Visitor).departPage},
			},
		},
	}
	for _, o := range opts {
		o(v)
	}
	return v
}

// Register adds handler for the node kind. Handlers of the same kind are
// called in registration order.
func (v *Visitor) Register(kind layout.Kind, phase Phase, h Handler) {
	v.handlers[phase][kind] = append(v.handlers[phase][kind], h)
}

// Chapter returns chapter visitor fills.
func (v *Visitor) Chapter() *rst.Chapter {
	return v.chapter
}

// Wants reports if page with this number is going to be processed.
func (v *Visitor) Wants(pageID int) bool {
	return v.cutoff <= 0 || pageID <= v.cutoff
}

// Skipped is true once a page was dropped because of cutoff. Pages arrive in
// order so there is no point to walk any further.
func (v *Visitor) Skipped() bool {
	return v.skipped
}

// Walk dispatches node handlers, most specific kind first.
func (v *Visitor) Walk(n layout.Node) {
	chain := n.Kind().Chain()
visit:
	for _, k := range chain {
		for _, h := range v.handlers[Visit][k] {
			if !h(v, n) {
				break visit
			}
		}
	}
	for _, k := range chain {
		for _, h := range v.handlers[Depart][k] {
			h(v, n)
		}
	}
}

func (v *Visitor) pageID() int {
	if v.page == nil {
		return 0
	}
	return v.page.ID
}

func (v *Visitor) visitPage(n layout.Node) bool {
	p := n.(*layout.Page)
	if !v.Wants(p.ID) {
		if !v.skipped {
			var sb strings.Builder
			for _, it := range p.Items {
				if it.Kind() == layout.KindBox {
					sb.WriteString(layout.Text(it))
				}
			}
			text := []rune(sb.String())
			v.log.Warn("Dropping pages after cutoff", zap.Int("page", p.ID), zap.String("text", string(text[:min(len(text), 30)])))
			v.skipped = true
		}
		return false
	}

	v.chapter.ClosePage()
	v.page = p
	v.line = nil
	return true
}

func (v *Visitor) departPage(n layout.Node) bool {
	if p := n.(*layout.Page); v.Wants(p.ID) {
		v.log.Debug("Page processed", zap.Int("page", p.ID), zap.Int("blocks", len(v.chapter.Blocks())))
	}
	return true
}

func (v *Visitor) visitContainer(n layout.Node) bool {
	for _, c := range n.Children() {
		v.Walk(c)
	}
	return true
}

func (v *Visitor) visitBox(n layout.Node) bool {
	b := n.(*layout.Box)
	if !layout.HasText(b) {
		return false
	}
	v.boxSeq++
	v.box = v.boxSeq
	v.boxGeom = rst.Geometry{X0: b.X0, Y0: b.Y0}
	v.chapter.NewBlock(v.pageID(), v.box, v.boxGeom)
	return true
}

func (v *Visitor) visitLine(n layout.Node) bool {
	l := n.(*layout.Line)
	switch {
	case v.line != nil && math.Round(v.line.X0) < math.Round(l.X0):
		// indented relative to the previous line
		v.chapter.NewBlock(v.pageID(), v.box, v.boxGeom)
	case v.chapter.BlockStyle() == rst.StyleLineBlock:
		// every line of line block is separate
		v.chapter.NewBlock(v.pageID(), v.box, v.boxGeom)
	}
	v.line = l
	v.chapter.Current().MarkLine(l.X0)
	return true
}

func (v *Visitor) visitChar(n layout.Node) bool {
	c := n.(*layout.Char)
	style, known := v.table.Lookup(c.Font, c.Size)
	if v.stats != nil {
		v.stats.Record(c.Font, c.Size, style, known)
	}
	if !known {
		if v.chapter.BlockStyle() != rst.StyleHeader {
			v.warnFont(c)
		}
		style = rst.StyleNormal
	}
	v.chapter.SetInlineStyle(style)
	v.chapter.PushText(strings.ReplaceAll(c.Text, "\u00a0", " "))
	return true
}

func (v *Visitor) warnFont(c *layout.Char) {
	if _, ok := v.warned[v.line]; ok {
		return
	}
	v.warned[v.line] = struct{}{}

	var text string
	if v.line != nil {
		text = layout.Text(v.line)
	}
	v.log.Warn("Unsupported font",
		zap.String("font", c.Font),
		zap.Float64("size", fonts.Round(c.Size)),
		zap.Int("page", v.pageID()),
		zap.String("line", text))
}

func (v *Visitor) visitAnno(n layout.Node) bool {
	v.chapter.PushText(n.(*layout.Anno).Text)
	return true
}

func (v *Visitor) visitImage(n layout.Node) bool {
	if v.images == nil {
		return true
	}
	img := n.(*layout.Image)
	name, err := v.images.ExportImage(img)
	if err != nil {
		v.log.Warn("Unable to export image, skipping", zap.Int("page", v.pageID()), zap.String("image", img.Name), zap.Error(err))
		return true
	}
	v.log.Debug("Image exported", zap.Int("page", v.pageID()), zap.String("file", name))
	return true
}
