package rst

import (
	"fmt"

	"pdfrst/utils/debug"
)

// String returns readable dump of the finalized block sequence. It exists
// solely for manual inspection during debugging.
func (c *Chapter) String() string {
	if c == nil {
		return "<nil Chapter>"
	}

	tw := debug.NewTreeWriter()
	tw.Line(0, "Chapter: %d blocks, %d pending", len(c.blocks), len(c.pageBlocks))
	for i, b := range c.blocks {
		writeBlock(tw, 1, i, b)
	}
	if len(c.pageBlocks) > 0 {
		tw.Line(0, "Pending page blocks")
		for i, b := range c.pageBlocks {
			writeBlock(tw, 1, i, b)
		}
	}
	return tw.String()
}

func writeBlock(tw *debug.TreeWriter, depth, idx int, b *Block) {
	style := b.Style().String()
	if b.style != StyleNone {
		style += " explicit"
	}
	tw.Node(depth, fmt.Sprintf("Block[%d]", idx),
		debug.A("style", style),
		debug.A("page", b.Page),
		debug.A("box", b.Box),
		debug.A("y0", b.Geometry.Y0),
		debug.A("line-x0", b.Geometry.FirstLineX0))
	for _, in := range b.inlines {
		tw.Text(depth+1, string(in.Style), in.RawText())
	}
}
