package fonts

import (
	"slices"

	"pdfrst/rst"
)

// Fonts of the book the converter was originally tuned for.
const (
	Code      = "BCXPYQ+LetterGothicStd"
	Heading   = "HDWEEE+StoneSansStd-Medium"
	Header    = "TAVVUB+StoneSansStd-Bold"
	Paragraph = "RAZMOK+BerkeleyStd-Medium"
	Strong    = "BCXPYQ+BerkeleyStd-Bold"
	CodeBold  = "NQEGLY+LetterGothicStd-Bold"
	Em        = "VGXSUC+BerkeleyStd-Italic"
	TOC       = "TAVVUB+StoneSansStd-Semibold"
	ListItem  = "OXPSJB+ZapfDingbatsStd"
)

// FigureFonts are used for text inside of the figure illustrations.
var FigureFonts = []string{
	"TFAXUR+HelveticaLTStd-BoldCond",
	"TFAXUR+HelveticaLTStd-Cond",
	"TFAXUR+HelveticaLTStd-BoldCondObl",
	"IXTELN+TektonPro-Bold",
	"BSQHZM+HelveticaLTStd-CondObl",
	"HYERGJ+HelveticaLTStd-Roman",
}

// DefaultRules returns built-in classification table.
func DefaultRules() []Rule {
	return []Rule{
		{Fonts: []string{Code}, Style: rst.StyleCode},
		{Fonts: []string{Heading}, Sizes: []float64{50}, Style: rst.StyleNormal}, // book title
		{Fonts: []string{Heading}, Sizes: []float64{40}, Style: rst.StylePart},
		{Fonts: []string{Heading}, Sizes: []float64{30, 28}, Style: rst.StyleH1},
		{Fonts: []string{Heading}, Sizes: []float64{18}, Style: rst.StyleH2},
		{Fonts: []string{Heading}, Sizes: []float64{15}, Style: rst.StyleH3},
		{Fonts: []string{Heading}, Sizes: []float64{14.5}, Style: rst.StyleLineBlock},
		{Fonts: []string{Heading}, Sizes: []float64{9}, Style: rst.StyleFigure},
		{Fonts: []string{Header}, Style: rst.StyleHeader},
		{Fonts: []string{Paragraph}, Style: rst.StyleNormal},
		{Fonts: []string{Strong, CodeBold}, Style: rst.StyleStrong},
		{Fonts: []string{Em}, Style: rst.StyleEm},
		{Fonts: slices.Clone(FigureFonts), Style: rst.StyleFigureComment},
		{Fonts: []string{Heading, TOC}, Sizes: []float64{12, 10}, Style: rst.StyleTOC},
		{Fonts: []string{ListItem}, Style: rst.StyleListItem},
	}
}
