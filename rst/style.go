// Package rst holds the document model reconstructed from page layout
// (chapter, blocks, inline runs) and renders it as reStructuredText.
package rst

import (
	"fmt"
	"slices"
)

// Style is a semantic role tag. The same vocabulary is used for inline runs
// and for blocks, blocks additionally may be "paragraph" or "glossary".
type Style string

const (
	StyleNone          Style = ""
	StyleNormal        Style = "normal"
	StyleStrong        Style = "strong"
	StyleEm            Style = "em"
	StyleCode          Style = "code"
	StyleTerm          Style = "term"
	StyleHeader        Style = "header"
	StyleFigure        Style = "figure"
	StyleFigureComment Style = "figure-comment"
	StyleTOC           Style = "toc"
	StylePart          Style = "part"
	StyleH1            Style = "h1"
	StyleH2            Style = "h2"
	StyleH3            Style = "h3"
	StyleListItem      Style = "list-item"
	StyleLineBlock     Style = "lineblock"

	// block only
	StyleParagraph Style = "paragraph"
	StyleGlossary  Style = "glossary"
)

var inlineStyles = []Style{
	StyleNormal, StyleStrong, StyleEm, StyleCode, StyleTerm, StyleHeader,
	StyleFigure, StyleFigureComment, StyleTOC, StylePart, StyleH1, StyleH2,
	StyleH3, StyleListItem, StyleLineBlock,
}

// InlineStyles returns names of all styles classifier may assign to a run.
func InlineStyles() []string {
	names := make([]string, 0, len(inlineStyles))
	for _, s := range inlineStyles {
		names = append(names, string(s))
	}
	return names
}

// ParseStyle converts name to inline style.
func ParseStyle(name string) (Style, error) {
	s := Style(name)
	if !slices.Contains(inlineStyles, s) {
		return StyleNone, fmt.Errorf("unknown inline style %q", name)
	}
	return s, nil
}

func (s Style) String() string {
	return string(s)
}

// IsHeading is true for part and chapter/section title styles.
func (s Style) IsHeading() bool {
	switch s {
	case StylePart, StyleH1, StyleH2, StyleH3:
		return true
	}
	return false
}

// InferStyle guesses block style from the styles of its inline runs. Order
// of checks matters: header wins over everything, code (possibly with bold
// parts) over figure/toc/lineblock, those over blocks made of a single
// structural style, paragraph is the fallback.
func InferStyle(styles []Style, header bool) Style {
	if header {
		return StyleHeader
	}
	if requireOnly(styles, StyleCode, StyleStrong) {
		return StyleCode
	}
	for _, s := range []Style{StyleFigure, StyleTOC, StyleLineBlock} {
		if requireOnly(styles, s, StyleHeader, StyleCode) {
			return s
		}
	}
	for _, s := range []Style{StyleCode, StylePart, StyleH1, StyleH2, StyleH3, StyleFigureComment, StyleListItem} {
		if allOf(styles, s) {
			return s
		}
	}
	return StyleParagraph
}

// requireOnly reports whether styles contain required and nothing but
// required and accepted.
func requireOnly(styles []Style, required Style, accepted ...Style) bool {
	if !slices.Contains(styles, required) {
		return false
	}
	for _, s := range styles {
		if s != required && !slices.Contains(accepted, s) {
			return false
		}
	}
	return true
}

func allOf(styles []Style, style Style) bool {
	if len(styles) == 0 {
		return false
	}
	for _, s := range styles {
		if s != style {
			return false
		}
	}
	return true
}
