package tui

import (
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"
	xansi "github.com/charmbracelet/x/ansi"

	"splice-cli/internal/render"
)

// cellStyle is comparable so adjacent cells with the same look can be
// rendered as one run.
type cellStyle struct {
	fg, bg lipgloss.TerminalColor
	bold   bool
	faint  bool
}

type cell struct {
	r  rune
	st cellStyle
}

// canvas is a character grid where one timeline pixel is one cell.
type canvas struct {
	w, h  int
	cells []cell
	g     glyphTable
}

func newCanvas(w, h int) *canvas {
	if w < 0 {
		w = 0
	}
	if h < 0 {
		h = 0
	}
	c := &canvas{w: w, h: h, cells: make([]cell, w*h), g: glyphs()}
	for i := range c.cells {
		c.cells[i].r = ' '
	}
	return c
}

func (c *canvas) at(x, y int) *cell {
	if x < 0 || y < 0 || x >= c.w || y >= c.h {
		return nil
	}
	return &c.cells[y*c.w+x]
}

// span maps a pixel interval onto cell columns. Anything with positive width
// covers at least one cell.
func span(x, w float64) (int, int) {
	x0 := int(math.Floor(x))
	x1 := int(math.Floor(x + w))
	if w > 0 && x1 <= x0 {
		x1 = x0 + 1
	}
	return x0, x1
}

func (c *canvas) fill(op render.Op, r rune, st cellStyle) {
	x0, x1 := span(op.X, op.W)
	y0, y1 := span(op.Y, op.H)
	for y := y0; y < y1; y++ {
		for x := x0; x < x1; x++ {
			if p := c.at(x, y); p != nil {
				p.r, p.st = r, st
			}
		}
	}
}

// text writes s starting at (x, y), truncated to limit cells (0 = to the
// edge). Cells keep their background unless st sets one.
func (c *canvas) text(x, y int, limit int, s string, st cellStyle) {
	if limit <= 0 || x+limit > c.w {
		limit = c.w - x
	}
	if limit <= 0 {
		return
	}
	if xansi.StringWidth(s) > limit {
		s = xansi.Truncate(s, limit, c.g.ellipsis)
	}
	for _, r := range s {
		p := c.at(x, y)
		if p == nil {
			return
		}
		cs := st
		if cs.bg == nil {
			cs.bg = p.st.bg
		}
		p.r, p.st = r, cs
		x++
	}
}

// bar draws a bottom-aligned level meter in eighths.
func (c *canvas) bar(op render.Op, st cellStyle) {
	x0, x1 := span(op.X, op.W)
	y0, y1 := span(op.Y, op.H)
	rows := y1 - y0
	if rows <= 0 {
		return
	}
	steps := len(c.g.levels) - 1
	total := int(math.Round(op.Level * float64(rows*steps)))
	for i := 0; i < rows; i++ {
		n := total - i*steps
		if n < 0 {
			n = 0
		}
		if n > steps {
			n = steps
		}
		if n == 0 {
			continue
		}
		y := y1 - 1 - i
		for x := x0; x < x1; x++ {
			if p := c.at(x, y); p != nil {
				bg := st.bg
				if bg == nil {
					bg = p.st.bg
				}
				p.r, p.st = c.g.levels[n], cellStyle{fg: st.fg, bg: bg, faint: st.faint}
			}
		}
	}
}

func (c *canvas) draw(op render.Op) {
	g := c.g
	switch op.Kind {
	case render.OpRect:
		switch op.Role {
		case render.RoleRuler:
			c.fill(op, ' ', cellStyle{bg: colorRulerBg})
		case render.RoleSection:
			c.fill(op, ' ', cellStyle{bg: hueColor(op.Hue, true, false)})
		case render.RoleTrackRow:
			c.fill(op, ' ', cellStyle{bg: colorRowBg})
		case render.RoleDropzone:
			c.fill(op, g.drop, cellStyle{fg: colorDropFg})
		case render.RoleClip:
			c.fill(op, ' ', cellStyle{bg: hueColor(op.Hue, op.Muted, op.Selected), faint: op.Preview})
		case render.RoleHandle:
			c.fill(op, g.handle, cellStyle{fg: hueInk(op.Hue), bg: hueColor(op.Hue, op.Muted, op.Selected), bold: op.Selected})
		}
	case render.OpLine:
		switch op.Role {
		case render.RoleTickMajor:
			c.fill(render.Op{X: op.X, Y: op.Y, W: 1, H: op.H}, g.tickMajor, cellStyle{fg: colorRulerFg, bg: colorRulerBg})
		case render.RoleTickMinor:
			c.fill(render.Op{X: op.X, Y: op.Y, W: 1, H: op.H}, g.tickMinor, cellStyle{fg: colorMuted, bg: colorRulerBg})
		case render.RoleGap:
			c.fill(render.Op{X: op.X, Y: op.Y, W: op.W, H: 1}, g.gap, cellStyle{fg: colorMuted, faint: true})
		}
	case render.OpText:
		x, _ := span(op.X, 0)
		y, _ := span(op.Y, 0)
		w := int(math.Floor(op.W))
		switch op.Role {
		case render.RoleTickLabel:
			c.text(x, y, 0, op.Text, cellStyle{fg: colorRulerFg, bg: colorRulerBg})
		case render.RoleSection:
			c.text(x, y, w, op.Text, cellStyle{fg: hueInk(op.Hue)})
		case render.RoleTrackHeader:
			c.text(x, y, w-1, op.Text, cellStyle{fg: hueInk(op.Hue), faint: op.Muted, bold: op.Locked})
		case render.RoleStageHeader:
			c.text(x, y, w, op.Text, cellStyle{fg: colorChrome, bold: true})
		case render.RoleClipLabel:
			c.text(x+1, y, w-1, op.Text, cellStyle{fg: hueInk(op.Hue), bold: op.Selected, faint: op.Preview})
		}
	case render.OpBar:
		st := cellStyle{fg: hueInk(op.Hue), faint: op.Muted}
		if op.Role == render.RoleSignal {
			st = cellStyle{fg: colorSignalFg}
		}
		c.bar(op, st)
	case render.OpNote:
		c.fill(op, g.note, cellStyle{fg: hueInk(op.Hue), bg: hueColor(op.Hue, op.Muted, op.Selected)})
	case render.OpTile:
		st := cellStyle{fg: hueInk(op.Hue), bg: hueColor(op.Hue, op.Muted, op.Selected), faint: true}
		c.fill(op, g.tile, st)
		if op.Level == 0 {
			c.fill(render.Op{X: op.X, Y: op.Y, W: 1, H: op.H}, g.tileEdge, st)
		}
	case render.OpPlayhead:
		x, _ := span(op.X, 0)
		_, y1 := span(op.Y, op.H)
		for y := 0; y < y1; y++ {
			if p := c.at(x, y); p != nil {
				p.r = g.playhead
				p.st.fg, p.st.bold, p.st.faint = colorPlayhead, true, false
			}
		}
	}
}

func (st cellStyle) style() lipgloss.Style {
	s := lipgloss.NewStyle()
	if st.fg != nil {
		s = s.Foreground(st.fg)
	}
	if st.bg != nil {
		s = s.Background(st.bg)
	}
	if st.bold {
		s = s.Bold(true)
	}
	if st.faint {
		s = s.Faint(true)
	}
	return s
}

func (c *canvas) paint(styled bool) string {
	var b strings.Builder
	var run strings.Builder
	for y := 0; y < c.h; y++ {
		if y > 0 {
			b.WriteByte('\n')
		}
		row := c.cells[y*c.w : (y+1)*c.w]
		if !styled {
			for _, p := range row {
				b.WriteRune(p.r)
			}
			continue
		}
		for i := 0; i < len(row); {
			st := row[i].st
			run.Reset()
			for i < len(row) && row[i].st == st {
				run.WriteRune(row[i].r)
				i++
			}
			if st == (cellStyle{}) {
				b.WriteString(run.String())
				continue
			}
			b.WriteString(st.style().Render(run.String()))
		}
	}
	return b.String()
}

// Rasterize paints a frame onto a w×h character grid. Without styling the
// result is plain text, which is what `splice render` prints.
func Rasterize(f render.Frame, w, h int, styled bool) string {
	c := newCanvas(w, h)
	for _, op := range f.Ops {
		c.draw(op)
	}
	return c.paint(styled)
}
