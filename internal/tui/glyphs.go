package tui

import (
	"os"
	"strings"
	"sync"
)

// Fonts differ in which block and box characters they draw cleanly, so the
// rasterizer can fall back to plain ASCII.

type glyphSet int

const (
	glyphSetUnicode glyphSet = iota
	glyphSetASCII
)

type glyphTable struct {
	levels    []rune
	tickMajor rune
	tickMinor rune
	playhead  rune
	gap       rune
	drop      rune
	note      rune
	tile      rune
	tileEdge  rune
	handle    rune
	ellipsis  string
}

var glyphTables = map[glyphSet]glyphTable{
	glyphSetUnicode: {
		levels:    []rune(" ▁▂▃▄▅▆▇█"),
		tickMajor: '│',
		tickMinor: '╵',
		playhead:  '┃',
		gap:       '─',
		drop:      '┄',
		note:      '▬',
		tile:      '░',
		tileEdge:  '▏',
		handle:    '▐',
		ellipsis:  "…",
	},
	glyphSetASCII: {
		levels:    []rune(" .:-=+*#@"),
		tickMajor: '|',
		tickMinor: '\'',
		playhead:  '|',
		gap:       '-',
		drop:      '.',
		note:      '=',
		tile:      '#',
		tileEdge:  '[',
		handle:    '|',
		ellipsis:  "~",
	},
}

var (
	glyphsMu      sync.RWMutex
	currentGlyphs = glyphSetUnicode
)

func applyGlyphPreference() {
	switch strings.ToLower(strings.TrimSpace(os.Getenv("SPLICE_TUI_GLYPHS"))) {
	case "", "unicode", "utf8":
		setGlyphs(glyphSetUnicode)
	case "ascii":
		setGlyphs(glyphSetASCII)
	}
}

// UseASCII switches Rasterize to the 7-bit glyph table.
func UseASCII(on bool) {
	if on {
		setGlyphs(glyphSetASCII)
		return
	}
	setGlyphs(glyphSetUnicode)
}

func setGlyphs(gs glyphSet) {
	glyphsMu.Lock()
	currentGlyphs = gs
	glyphsMu.Unlock()
}

func glyphs() glyphTable {
	glyphsMu.RLock()
	gs := currentGlyphs
	glyphsMu.RUnlock()
	return glyphTables[gs]
}
