package rst

import (
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"
)

// Render produces markup for the block. Page headers and empty blocks render
// to empty string.
func (b *Block) Render() (string, error) {
	if b.IsEmpty() || b.IsHeader() {
		return "", nil
	}

	switch style := b.Style(); style {
	case StyleCode:
		return b.renderCode(), nil
	case StyleFigure:
		return b.renderFigure()
	case StyleGlossary:
		return b.renderGlossary(), nil
	case StyleListItem:
		return "* " + b.renderListItem(), nil
	default:
		return decorate(style, b.Text()), nil
	}
}

func decorate(style Style, text string) string {
	switch style {
	case StyleFigureComment:
		return ".. figure-comment: " + text
	case StyleTOC:
		return ".. toc-comment: " + text
	case StylePart:
		return overUnder(text, '#')
	case StyleH1:
		return overUnder(text, '=')
	case StyleH2:
		return under(text, '=')
	case StyleH3:
		return under(text, '-')
	}
	return text
}

func border(text string, marker rune) string {
	return strings.Repeat(string(marker), utf8.RuneCountInString(text))
}

func overUnder(text string, marker rune) string {
	b := border(text, marker)
	return b + "\n" + text + "\n" + b
}

func under(text string, marker rune) string {
	return text + "\n" + border(text, marker)
}

// Text renders inline runs of the block as a single line of text.
func (b *Block) Text() string {
	if b.IsHeader() {
		return ""
	}
	return b.joinInlines(b.inlines)
}

// renderInline renders run reporting styles which have no rendering rule.
func (b *Block) renderInline(in *Inline, inCode bool) string {
	if !renderable(in.Style) {
		b.log.Warn("Unexpected inline style, rendering as is",
			zap.Stringer("style", in.Style),
			zap.Stringer("block", b.Style()),
			zap.Int("page", b.Page),
			zap.String("text", in.RawText()))
	}
	return in.Render(inCode)
}

func (b *Block) joinInlines(inlines []*Inline) string {
	// a lone space between two runs of the same style is folded back, so
	// "**a** **b**" becomes "**a b**"
	stack := make([]*Inline, 0, len(inlines))
	for _, in := range inlines {
		n := len(stack)
		if n >= 2 && stack[n-1].RawText() == " " && stack[n-2].Style == in.Style {
			stack[n-2].Push(" ")
			stack[n-2].Push(in.RawText())
			stack = stack[:n-1]
			continue
		}
		stack = append(stack, in.clone())
	}

	parts := make([]string, 0, len(stack))
	for _, in := range stack {
		if t := b.renderInline(in, false); len(t) > 0 {
			parts = append(parts, t)
		}
	}
	return trimLinebreaks(strings.Join(parts, " "))
}

// trimLinebreaks removes line breaks left by the layout engine: hyphenated
// break joins word parts, any other break becomes single space unless there
// is a space next to it already.
func trimLinebreaks(text string) string {
	text = strings.ReplaceAll(text, "-\n", "")
	if !strings.Contains(text, "\n") {
		return text
	}

	var sb strings.Builder
	sb.Grow(len(text))
	for i := 0; i < len(text); {
		if text[i] != '\n' {
			sb.WriteByte(text[i])
			i++
			continue
		}
		j := i
		for j < len(text) && text[j] == '\n' {
			j++
		}
		if i > 0 && j < len(text) && text[i-1] != ' ' && text[j] != ' ' {
			sb.WriteByte(' ')
		}
		i = j
	}
	return sb.String()
}

func (b *Block) indent() string {
	return strings.Repeat(" ", b.opts.Indent)
}

func (b *Block) renderCode() string {
	header := ".. code-block::\n\n"
	for _, in := range b.inlines {
		if in.Style == StyleStrong {
			header = ".. parsed-literal::\n\n"
			break
		}
	}
	var sb strings.Builder
	for _, in := range b.inlines {
		sb.WriteString(b.renderInline(in, true))
	}
	return header + strings.TrimRight(indentLines(sb.String(), b.indent()), " \t\r\n")
}

func (b *Block) renderFigure() (string, error) {
	var sb strings.Builder
	for _, in := range b.inlines {
		sb.WriteString(in.RawText())
	}
	id, caption, found := strings.Cut(sb.String(), ":")
	if !found {
		return "", &FigureCaptionError{Page: b.Page, Text: sb.String()}
	}
	anchor := FigureAnchor(id)
	return ".. figure:: images/" + anchor + ".*\n" +
		b.indent() + ":name: " + anchor + "\n\n" +
		strings.TrimRight(indentLines(strings.TrimSpace(caption), b.indent()), " \t\r\n"), nil
}

func (b *Block) renderGlossary() string {
	type entry struct {
		term  string
		descs []string
	}

	var entries []*entry
	for _, in := range b.inlines {
		if in.Style == StyleTerm {
			term := strings.TrimRight(strings.TrimSpace(in.RawText()), ":")
			entries = append(entries, &entry{term: strings.TrimSpace(term)})
			continue
		}
		if len(entries) == 0 {
			b.log.Debug("Glossary description without term, dropping", zap.Int("page", b.Page), zap.String("text", in.RawText()))
			continue
		}
		last := entries[len(entries)-1]
		last.descs = append(last.descs, strings.TrimLeft(b.renderInline(in, false), ": "))
	}

	texts := make([]string, 0, len(entries))
	for _, e := range entries {
		descs := make([]string, 0, len(e.descs))
		for _, d := range e.descs {
			if len(strings.TrimSpace(d)) > 0 {
				descs = append(descs, d)
			}
		}
		texts = append(texts, e.term+"\n"+b.indent()+trimLinebreaks(strings.Join(descs, " ")))
	}
	return ".. glossary::\n\n" + indentLines(strings.Join(texts, "\n\n"), b.indent())
}

func (b *Block) renderListItem() string {
	inlines := b.inlines
	if b.opts.ListItems == ListItemsLeading {
		// drop bullet glyph(s), markup provides its own
		for len(inlines) > 0 && inlines[0].Style == StyleListItem {
			inlines = inlines[1:]
		}
		if len(inlines) == 0 {
			inlines = b.inlines
		}
	}
	return b.joinInlines(inlines)
}

// indentLines prefixes every line which is not blank.
func indentLines(text, prefix string) string {
	lines := strings.SplitAfter(text, "\n")
	var sb strings.Builder
	sb.Grow(len(text) + len(lines)*len(prefix))
	for _, l := range lines {
		if len(strings.TrimSpace(l)) > 0 {
			sb.WriteString(prefix)
		}
		sb.WriteString(l)
	}
	return sb.String()
}
