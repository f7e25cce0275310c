package rst

import (
	"fmt"
	"io"
	"sort"

	"go.uber.org/zap"
)

// ListItemsMode selects how blocks started by a bullet glyph are handled.
type ListItemsMode string

const (
	// ListItemsLeading treats any block which starts with list-item run as
	// list item, bullet glyph itself is replaced by markup.
	ListItemsLeading ListItemsMode = "leading"
	// ListItemsStrict only treats blocks consisting of list-item runs as list
	// items.
	ListItemsStrict ListItemsMode = "strict"
)

// Options are layout thresholds chapter uses for reconstruction. They are
// tuned to a particular document and have no meaning outside of it.
type Options struct {
	// blocks with box origin above this are page headers
	HeaderThreshold float64
	// paragraph continuation is detected when rounded first line start of
	// the next block falls into [MergeBandMin, MergeBandMax]
	MergeBandMin float64
	MergeBandMax float64
	// text of h2 heading preceding glossary entries
	GlossarySentinel string
	// directive body indentation
	Indent    int
	ListItems ListItemsMode
}

// DefaultOptions returns thresholds of the document converter was written for.
func DefaultOptions() Options {
	return Options{
		HeaderThreshold:  610,
		MergeBandMin:     47.9,
		MergeBandMax:     48.0,
		GlossarySentinel: "Vocabulary",
		Indent:           3,
		ListItems:        ListItemsLeading,
	}
}

// Chapter accumulates blocks of the whole document. Blocks of the page being
// processed are kept separately until page is closed.
type Chapter struct {
	opts *Options
	log  *zap.Logger

	blocks     []*Block
	pageBlocks []*Block
	finalized  bool
}

// NewChapter creates empty document accumulator.
func NewChapter(opts Options, log *zap.Logger) *Chapter {
	if log == nil {
		log = zap.NewNop()
	}
	return &Chapter{opts: &opts, log: log}
}

// Options returns thresholds chapter was created with.
func (c *Chapter) Options() Options {
	return *c.opts
}

// NewBlock starts new working block for the current page. Previous working
// block is discarded if nothing has been put into it.
func (c *Chapter) NewBlock(page, box int, geom Geometry) *Block {
	if n := len(c.pageBlocks); n > 0 && c.pageBlocks[n-1].IsEmpty() {
		c.pageBlocks = c.pageBlocks[:n-1]
	}
	b := newBlock(page, box, geom, c.opts, c.log)
	c.pageBlocks = append(c.pageBlocks, b)
	return b
}

// Current returns working block, creating one if page has none yet.
func (c *Chapter) Current() *Block {
	if len(c.pageBlocks) == 0 {
		return c.NewBlock(0, 0, Geometry{})
	}
	return c.pageBlocks[len(c.pageBlocks)-1]
}

// BlockStyle returns style of the working block.
func (c *Chapter) BlockStyle() Style {
	return c.Current().Style()
}

// SetInlineStyle applies style to the working block inline run.
func (c *Chapter) SetInlineStyle(style Style) {
	c.Current().SetInlineStyle(style)
}

// PushText adds text to the working block.
func (c *Chapter) PushText(text string) {
	c.Current().Push(text)
}

// ClosePage moves page blocks into document in reading order: top of the page
// first. Layout engine does not guarantee blocks to arrive top to bottom.
func (c *Chapter) ClosePage() {
	page := make([]*Block, 0, len(c.pageBlocks))
	for _, b := range c.pageBlocks {
		if !b.IsEmpty() {
			page = append(page, b)
		}
	}
	sort.SliceStable(page, func(i, j int) bool {
		return page[i].Geometry.Y0 > page[j].Geometry.Y0
	})
	c.blocks = append(c.blocks, page...)
	c.pageBlocks = nil
}

// Blocks returns blocks in document order.
func (c *Chapter) Blocks() []*Block {
	return c.blocks
}

// Finalize closes last page and runs merge passes. Subsequent calls do
// nothing.
func (c *Chapter) Finalize() {
	if c.finalized {
		return
	}
	c.ClosePage()
	c.MergeBlocks()
	c.MergeGlossaries()
	c.finalized = true
}

// Each finalizes chapter and calls fn for every block which renders to
// non-empty text. Blocks which could not be rendered are skipped. Iteration
// stops on the first error returned by fn.
func (c *Chapter) Each(fn func(b *Block, text string) error) error {
	c.Finalize()
	for _, b := range c.blocks {
		text, err := b.Render()
		if err != nil {
			c.log.Warn("Unable to render block, skipping", zap.Int("page", b.Page), zap.Error(err))
			continue
		}
		if len(text) == 0 {
			continue
		}
		if err := fn(b, text); err != nil {
			return err
		}
	}
	return nil
}

// Render writes all blocks separated by empty lines.
func (c *Chapter) Render(w io.Writer) error {
	return c.Each(func(_ *Block, text string) error {
		if _, err := io.WriteString(w, text+"\n\n"); err != nil {
			return fmt.Errorf("unable to write block: %w", err)
		}
		return nil
	})
}
