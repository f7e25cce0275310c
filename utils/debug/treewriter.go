// Package debug has helpers producing human readable dumps of intermediate
// conversion state for reports.
package debug

import (
	"fmt"
	"strconv"
	"strings"
)

// Attr is a single bracketed node attribute.
type Attr struct {
	Key   string
	Value any
}

// A makes node attribute.
func A(key string, value any) Attr {
	return Attr{Key: key, Value: value}
}

// TreeWriter accumulates indented tree dump.
type TreeWriter struct {
	sb     strings.Builder
	indent string
}

func NewTreeWriter() *TreeWriter {
	return &TreeWriter{indent: "  "}
}

func (tw *TreeWriter) String() string {
	return tw.sb.String()
}

func (tw *TreeWriter) pad(depth int) {
	for range depth {
		tw.sb.WriteString(tw.indent)
	}
}

// Line writes formatted line at depth.
func (tw *TreeWriter) Line(depth int, format string, args ...any) {
	tw.pad(depth)
	fmt.Fprintf(&tw.sb, format, args...)
	tw.sb.WriteByte('\n')
}

// Node writes name followed by attributes as "key[value]". Floats are
// printed with a single decimal.
func (tw *TreeWriter) Node(depth int, name string, attrs ...Attr) {
	tw.pad(depth)
	tw.sb.WriteString(name)
	for _, a := range attrs {
		tw.sb.WriteByte(' ')
		tw.sb.WriteString(a.Key)
		tw.sb.WriteByte('[')
		switch v := a.Value.(type) {
		case float64:
			tw.sb.WriteString(strconv.FormatFloat(v, 'f', 1, 64))
		default:
			fmt.Fprint(&tw.sb, v)
		}
		tw.sb.WriteByte(']')
	}
	tw.sb.WriteByte('\n')
}

// Text writes labeled text quoting it so whitespace is visible.
func (tw *TreeWriter) Text(depth int, label, value string) {
	tw.pad(depth)
	tw.sb.WriteString(label)
	tw.sb.WriteString(": ")
	if value != "" {
		value = strconv.Quote(value)
	}
	tw.sb.WriteString(value)
	tw.sb.WriteByte('\n')
}
