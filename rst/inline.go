package rst

import (
	"regexp"
	"slices"
	"strings"
	"unicode"
)

var (
	// "Self- Taught" - word broken by the layout engine on a line end
	reHyphenSplit = regexp.MustCompile(`([\p{L}\p{N}_])- ([\p{L}\p{N}_])`)
	reSpaceRun    = regexp.MustCompile(` \s+`)
	reURL         = regexp.MustCompile(`^https?://`)
)

// Inline is a run of characters sharing single style within a block.
type Inline struct {
	Style     Style
	fragments []string
}

// NewInline creates empty run with requested style.
func NewInline(style Style, text ...string) *Inline {
	return &Inline{Style: style, fragments: append([]string(nil), text...)}
}

// Push appends text fragment to the run.
func (in *Inline) Push(text string) {
	in.fragments = append(in.fragments, text)
}

// Fragments returns accumulated text fragments in arrival order.
func (in *Inline) Fragments() []string {
	return in.fragments
}

func (in *Inline) clone() *Inline {
	return &Inline{Style: in.Style, fragments: slices.Clone(in.fragments)}
}

// RawText returns run text with broken words rejoined and, for anything but
// code, whitespace runs collapsed.
func (in *Inline) RawText() string {
	text := strings.Join(in.fragments, "")
	text = reHyphenSplit.ReplaceAllString(text, "$1-$2")
	if in.Style != StyleCode {
		text = reSpaceRun.ReplaceAllString(text, " ")
	}
	return text
}

// Render returns run text decorated according to its style. Surrounding
// whitespace is dropped unless the run is rendered as a part of code block.
func (in *Inline) Render(inCode bool) string {
	pre, text, post := splitSpace(in.RawText())

	switch in.Style {
	case StyleNormal, StyleLineBlock, StyleListItem:
		text = ReplaceReferences(text)
	case StyleStrong:
		text = emphasize(text, "**")
	case StyleEm:
		text = emphasize(text, "*")
	case StyleCode:
		if !inCode && !reURL.MatchString(text) {
			text = emphasize(text, "``")
		}
	}

	if inCode {
		return pre + text + post
	}
	return text
}

// renderable reports styles Render knows about. Anything else is passed
// through as is.
func renderable(style Style) bool {
	switch style {
	case StyleNormal, StyleLineBlock, StyleListItem, StyleStrong, StyleEm, StyleCode,
		StyleHeader, StyleFigure, StyleFigureComment, StyleTOC, StylePart, StyleH1, StyleH2, StyleH3:
		return true
	}
	return false
}

func emphasize(text, marker string) string {
	if len(text) == 0 {
		return text
	}
	return marker + text + marker
}

// splitSpace cuts leading and trailing whitespace off text returning all
// three parts.
func splitSpace(text string) (string, string, string) {
	body := strings.TrimLeftFunc(text, unicode.IsSpace)
	pre := text[:len(text)-len(body)]
	trimmed := strings.TrimRightFunc(body, unicode.IsSpace)
	return pre, trimmed, body[len(trimmed):]
}
