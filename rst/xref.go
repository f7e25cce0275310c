package rst

import (
	"regexp"
	"strings"
)

var reFigureRef = regexp.MustCompile(`\bFigure (\d+)\.(\d+)\b`)

// ReplaceReferences turns "Figure N.M" citations into numref roles pointing
// to anchors produced for figure blocks.
func ReplaceReferences(text string) string {
	return reFigureRef.ReplaceAllString(text, ":numref:`figure-${1}-${2}`")
}

// FigureAnchor makes stable anchor name out of figure identifier, so
// "Figure 3.2" becomes "figure-3-2".
func FigureAnchor(id string) string {
	return strings.NewReplacer(" ", "-", ".", "-").Replace(strings.ToLower(strings.TrimSpace(id)))
}
