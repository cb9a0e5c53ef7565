package tui

import (
	"strings"
	"testing"

	"splice-cli/internal/render"
)

func withASCII(t *testing.T) {
	t.Helper()
	setGlyphs(glyphSetASCII)
	t.Cleanup(func() { setGlyphs(glyphSetUnicode) })
}

func TestRasterize_PlainGrid(t *testing.T) {
	withASCII(t)
	m := newTestApp(t)
	out := Rasterize(m.frame, 120, 20, false)
	lines := strings.Split(out, "\n")
	if len(lines) != 20 {
		t.Fatalf("expected 20 lines; got %d", len(lines))
	}
	for i, ln := range lines {
		if n := len([]rune(ln)); n != 120 {
			t.Fatalf("line %d has %d cells", i, n)
		}
	}
	if !strings.Contains(lines[7], "a::clip::0") {
		t.Fatalf("expected clip label on row 7:\n%s", out)
	}
	if !strings.HasPrefix(lines[7], "Audio S1") {
		t.Fatalf("expected track header in the gutter: %q", lines[7])
	}
	// Playhead at 0s sits on the first timeline column, below the tracks too.
	if r := []rune(lines[15])[16]; r != '|' {
		t.Fatalf("expected playhead at column 16; got %q", r)
	}
}

func TestCanvas_BarLevels(t *testing.T) {
	withASCII(t)
	c := newCanvas(2, 2)
	c.bar(render.Op{X: 0, Y: 0, W: 1, H: 2, Level: 1}, cellStyle{})
	c.bar(render.Op{X: 1, Y: 0, W: 1, H: 2, Level: 0.5}, cellStyle{})
	got := c.paint(false)
	if got != "@ \n@@" {
		t.Fatalf("unexpected bars %q", got)
	}
}

func TestCanvas_TextTruncates(t *testing.T) {
	withASCII(t)
	c := newCanvas(6, 1)
	c.text(0, 0, 4, "abcdefgh", cellStyle{})
	if got := c.paint(false); got != "abc~  " {
		t.Fatalf("got %q", got)
	}
}

func TestFitPane(t *testing.T) {
	got := fitPane("a\nbb\nccc\ndddd", 3, 2, 5)
	if got != "ccc\nddd" {
		t.Fatalf("got %q", got)
	}
	if got := fitPane("x", 2, 2, 0); got != "x \n  " {
		t.Fatalf("got %q", got)
	}
}

func TestHSLHex(t *testing.T) {
	if got := hslHex(0, 1, 0.5); got != "#ff0000" {
		t.Fatalf("red = %s", got)
	}
	if got := hslHex(240, 1, 0.5); got != "#0000ff" {
		t.Fatalf("blue = %s", got)
	}
	if got := hslHex(120, 0, 1); got != "#ffffff" {
		t.Fatalf("white = %s", got)
	}
}
