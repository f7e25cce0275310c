package rst

import (
	"errors"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest"
	"go.uber.org/zap/zaptest/observer"
)

type run struct {
	style Style
	text  string
}

func testBlock(t *testing.T, opts Options, runs ...run) *Block {
	t.Helper()

	log := zaptest.NewLogger(t, zaptest.WrapOptions(zap.AddCaller(), zap.AddCallerSkip(1)))
	b := newBlock(1, 1, Geometry{Y0: 100}, &opts, log)
	for _, r := range runs {
		b.SetInlineStyle(r.style)
		b.Push(r.text)
	}
	return b
}

func TestBlock_Render(t *testing.T) {
	tests := []struct {
		name string
		runs []run
		want string
	}{
		{
			name: "h2",
			runs: []run{{StyleH2, "Errors"}},
			want: "Errors\n======",
		},
		{
			name: "h3",
			runs: []run{{StyleH3, "Scope"}},
			want: "Scope\n-----",
		},
		{
			name: "h1",
			runs: []run{{StyleH1, "Über"}},
			want: "====\nÜber\n====",
		},
		{
			name: "part",
			runs: []run{{StylePart, "Part I"}},
			want: "######\nPart I\n######",
		},
		{
			name: "paragraph",
			runs: []run{{StyleNormal, "Use the "}, {StyleCode, "print"}, {StyleNormal, " function,\nsee Figure 1.1."}},
			want: "Use the ``print`` function, see :numref:`figure-1-1`.",
		},
		{
			name: "same style runs folded",
			runs: []run{{StyleStrong, "very"}, {StyleNormal, " "}, {StyleStrong, "bold"}},
			want: "**very bold**",
		},
		{
			name: "hyphenated line break",
			runs: []run{{StyleNormal, "inter-\nesting"}},
			want: "interesting",
		},
		{
			name: "code block",
			runs: []run{{StyleCode, "x = 1\n"}, {StyleCode, "y = 2\n"}},
			want: ".. code-block::\n\n   x = 1\n   y = 2",
		},
		{
			name: "parsed literal",
			runs: []run{{StyleStrong, "def"}, {StyleCode, " f():\n    pass\n"}},
			want: ".. parsed-literal::\n\n   **def** f():\n       pass",
		},
		{
			name: "figure",
			runs: []run{{StyleFigure, "Figure 3.2: The call stack"}},
			want: ".. figure:: images/figure-3-2.*\n   :name: figure-3-2\n\n   The call stack",
		},
		{
			name: "figure comment",
			runs: []run{{StyleFigureComment, "main()"}},
			want: ".. figure-comment: main()",
		},
		{
			name: "toc",
			runs: []run{{StyleTOC, "Chapter 1"}},
			want: ".. toc-comment: Chapter 1",
		},
		{
			name: "lineblock",
			runs: []run{{StyleLineBlock, "To my family"}},
			want: "To my family",
		},
		{
			name: "list item",
			runs: []run{{StyleListItem, "n"}, {StyleNormal, " First point"}},
			want: "* First point",
		},
		{
			name: "bare bullet",
			runs: []run{{StyleListItem, "n"}},
			want: "* n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := testBlock(t, DefaultOptions(), tt.runs...)
			got, err := b.Render()
			if err != nil {
				t.Fatalf("Render() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("Render() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestBlock_RenderIsRepeatable(t *testing.T) {
	b := testBlock(t, DefaultOptions(), run{StyleStrong, "a"}, run{StyleNormal, " "}, run{StyleStrong, "b"})
	first, _ := b.Render()
	second, _ := b.Render()
	if first != second {
		t.Errorf("second Render() = %q, first = %q", second, first)
	}
	if b.Len() != 3 {
		t.Errorf("Render() modified block, %d runs left", b.Len())
	}
}

func TestBlock_RenderListItemStrict(t *testing.T) {
	opts := DefaultOptions()
	opts.ListItems = ListItemsStrict

	b := testBlock(t, opts, run{StyleListItem, "n"}, run{StyleNormal, " First point"})
	if got, _ := b.Render(); got != "n First point" {
		t.Errorf("Render() = %q, want %q", got, "n First point")
	}

	b = testBlock(t, opts, run{StyleListItem, "n"})
	if got, _ := b.Render(); got != "* n" {
		t.Errorf("Render() = %q, want %q", got, "* n")
	}
}

func TestBlock_RenderFigureError(t *testing.T) {
	b := testBlock(t, DefaultOptions(), run{StyleFigure, "Figure 3.2 The call stack"})
	_, err := b.Render()

	var ferr *FigureCaptionError
	if !errors.As(err, &ferr) {
		t.Fatalf("Render() error = %v, want FigureCaptionError", err)
	}
	if ferr.Text != "Figure 3.2 The call stack" {
		t.Errorf("FigureCaptionError.Text = %q", ferr.Text)
	}
}

func TestBlock_RenderHeader(t *testing.T) {
	b := testBlock(t, DefaultOptions(), run{StyleNormal, "Chapter 3"})
	b.SetStyle(StyleHeader)
	if got, _ := b.Render(); got != "" {
		t.Errorf("Render() of header = %q, want empty", got)
	}
}

func TestBlock_RenderIndent(t *testing.T) {
	opts := DefaultOptions()
	opts.Indent = 4
	b := testBlock(t, opts, run{StyleCode, "x = 1"})
	if got, _ := b.Render(); got != ".. code-block::\n\n    x = 1" {
		t.Errorf("Render() = %q", got)
	}
}

func TestTrimLinebreaks(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"foo-\nbar", "foobar"},
		{"foo\nbar", "foo bar"},
		{"foo \nbar", "foo bar"},
		{"foo\n bar", "foo bar"},
		{"foo\n\nbar", "foo bar"},
		{"foo\n", "foo"},
		{"\nfoo", "foo"},
		{"plain", "plain"},
	}
	for _, tt := range tests {
		if got := trimLinebreaks(tt.in); got != tt.want {
			t.Errorf("trimLinebreaks(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestBlock_RenderUnexpectedInlineStyle(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	opts := DefaultOptions()
	b := newBlock(4, 1, Geometry{Y0: 100}, &opts, zap.New(core))
	b.SetInlineStyle(StyleNormal)
	b.Push("see ")
	b.SetInlineStyle(StyleTerm)
	b.Push("API")

	got, err := b.Render()
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	if got != "see API" {
		t.Errorf("Render() = %q, want %q", got, "see API")
	}
	entries := logs.FilterMessage("Unexpected inline style, rendering as is").All()
	if len(entries) != 1 {
		t.Fatalf("warnings = %d, want 1", len(entries))
	}
	if f := entries[0].ContextMap(); f["style"] != "term" || f["page"] != int64(4) {
		t.Errorf("warning fields = %v", f)
	}

	// known styles are quiet
	logs.TakeAll()
	b = newBlock(4, 2, Geometry{Y0: 100}, &opts, zap.New(core))
	b.SetInlineStyle(StyleStrong)
	b.Push("bold")
	if _, err := b.Render(); err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	if logs.Len() != 0 {
		t.Errorf("unexpected warnings: %v", logs.All())
	}
}
