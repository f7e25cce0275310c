package rst

import (
	"math"

	"go.uber.org/zap"
)

// MergeBlocks drops page headers and joins blocks the layout engine split:
// adjacent code blocks always, adjacent paragraphs from different boxes when
// the later one starts at the body text margin.
func (c *Chapter) MergeBlocks() {
	blocks := make([]*Block, 0, len(c.blocks))
	for _, b := range c.blocks {
		if b.IsHeader() {
			continue
		}
		if len(blocks) == 0 {
			blocks = append(blocks, b)
			continue
		}

		prev := blocks[len(blocks)-1]
		switch {
		case b.Style() == StyleCode && prev.Style() == StyleCode:
			prev.Merge(b)
		case b.Style() == StyleParagraph && prev.Style() == StyleParagraph && c.isContinuation(prev, b):
			c.log.Debug("Merging paragraph continuation", zap.Int("page", b.Page), zap.Float64("x0", b.Geometry.FirstLineX0), zap.String("text", b.plainText()))
			prev.Merge(b)
		default:
			blocks = append(blocks, b)
		}
	}
	c.blocks = blocks
}

func (c *Chapter) isContinuation(prev, b *Block) bool {
	if prev.Box == b.Box {
		return false
	}
	x := math.Round(b.Geometry.FirstLineX0*10) / 10
	return c.opts.MergeBandMin <= x && x <= c.opts.MergeBandMax
}

// MergeGlossaries regroups blocks following glossary heading into glossary
// blocks of term/description pairs. Grouping stops at the next heading.
func (c *Chapter) MergeGlossaries() {
	blocks := make([]*Block, 0, len(c.blocks))
	for _, b := range c.blocks {
		if len(blocks) == 0 {
			blocks = append(blocks, b)
			continue
		}

		prev := blocks[len(blocks)-1]
		switch {
		case prev.Style() == StyleH2 && prev.Text() == c.opts.GlossarySentinel:
			b.SetStyle(StyleGlossary)
			b.inlines[0].Style = StyleTerm
			blocks = append(blocks, b)
		case b.Style().IsHeading():
			blocks = append(blocks, b)
		case prev.Style() == StyleGlossary:
			b.inlines[0].Style = StyleTerm
			prev.Merge(b)
		default:
			blocks = append(blocks, b)
		}
	}
	c.blocks = blocks
}
