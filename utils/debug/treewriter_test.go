package debug

import "testing"

func TestTreeWriter(t *testing.T) {
	tw := NewTreeWriter()
	tw.Line(0, "Chapter: %d blocks", 2)
	tw.Node(1, "Block[0]", A("style", "h1"), A("origin", 48.0), A("page", 3))
	tw.Text(2, "normal", "two\twords ")
	tw.Text(2, "empty", "")

	want := "Chapter: 2 blocks\n" +
		"  Block[0] style[h1] origin[48.0] page[3]\n" +
		"    normal: \"two\\twords \"\n" +
		"    empty: \n"
	if got := tw.String(); got != want {
		t.Errorf("String() =\n%q\nwant\n%q", got, want)
	}
}

func TestTreeWriter_Empty(t *testing.T) {
	if got := NewTreeWriter().String(); got != "" {
		t.Errorf("String() = %q, want empty", got)
	}
}
