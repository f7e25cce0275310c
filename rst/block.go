package rst

import (
	"go.uber.org/zap"
)

// Geometry keeps positional information block was created with. Coordinates
// are in PDF user space: origin is at the bottom left corner of the page.
type Geometry struct {
	X0, Y0      float64 // origin of the source box
	FirstLineX0 float64 // horizontal start of the first line contributing to the block
}

// Block is a sequence of inline runs sharing one structural role.
type Block struct {
	Page     int
	Box      int // sequence number of the source box in the document, 0 if none
	Geometry Geometry

	style   Style
	inlines []*Inline
	header  bool
	hasLine bool

	opts *Options
	log  *zap.Logger
}

func newBlock(page, box int, geom Geometry, opts *Options, log *zap.Logger) *Block {
	return &Block{
		Page:     page,
		Box:      box,
		Geometry: geom,
		header:   geom.Y0 > opts.HeaderThreshold,
		opts:     opts,
		log:      log,
	}
}

// Len returns number of inline runs.
func (b *Block) Len() int {
	return len(b.inlines)
}

// IsEmpty is true for blocks without any inline runs. Empty blocks are never
// emitted.
func (b *Block) IsEmpty() bool {
	return len(b.inlines) == 0
}

// Inlines returns inline runs in document order.
func (b *Block) Inlines() []*Inline {
	return b.inlines
}

// InlineStyles lists styles of all inline runs in order.
func (b *Block) InlineStyles() []Style {
	styles := make([]Style, 0, len(b.inlines))
	for _, in := range b.inlines {
		styles = append(styles, in.Style)
	}
	return styles
}

// IsHeader reports page header blocks - either explicitly marked or located
// above header threshold.
func (b *Block) IsHeader() bool {
	return b.style == StyleHeader || b.header
}

// Style returns explicitly assigned style or infers one from inline runs.
func (b *Block) Style() Style {
	if b.style != StyleNone {
		return b.style
	}
	s := InferStyle(b.InlineStyles(), b.header)
	if s == StyleParagraph && b.opts.ListItems == ListItemsLeading &&
		len(b.inlines) > 0 && b.inlines[0].Style == StyleListItem {
		return StyleListItem
	}
	return s
}

// SetStyle assigns explicit style. Changing one explicit style to another is
// suspicious and reported, but the last value wins.
func (b *Block) SetStyle(style Style) {
	if b.style != StyleNone && b.style != style {
		b.log.Warn("Block style is changed",
			zap.Stringer("from", b.style),
			zap.Stringer("to", style),
			zap.Int("page", b.Page),
			zap.String("text", b.plainText()))
	}
	b.style = style
}

// SetInlineStyle makes sure the last inline run has requested style starting
// new run when necessary.
func (b *Block) SetInlineStyle(style Style) {
	if len(b.inlines) == 0 || b.inlines[len(b.inlines)-1].Style != style {
		b.inlines = append(b.inlines, NewInline(style))
	}
}

// Push appends text to the last inline run.
func (b *Block) Push(text string) {
	if len(b.inlines) == 0 {
		b.inlines = append(b.inlines, NewInline(StyleNormal))
	}
	b.inlines[len(b.inlines)-1].Push(text)
}

// Merge moves inline runs of other block to the end of this one.
func (b *Block) Merge(other *Block) {
	b.inlines = append(b.inlines, other.inlines...)
}

// MarkLine records horizontal start of the line when it is the first line
// seen by this block.
func (b *Block) MarkLine(x0 float64) {
	if b.hasLine {
		return
	}
	b.Geometry.FirstLineX0, b.hasLine = x0, true
}

func (b *Block) plainText() string {
	var text string
	for _, in := range b.inlines {
		text += in.RawText()
	}
	return text
}
