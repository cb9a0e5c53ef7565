package tui

import (
	"strings"

	xansi "github.com/charmbracelet/x/ansi"
)

// fitPane cuts s to exactly height lines starting at line offset and pads or
// truncates every line to width columns (ANSI-aware).
func fitPane(s string, width, height, offset int) string {
	if width < 0 {
		width = 0
	}
	if height < 0 {
		height = 0
	}
	lines := strings.Split(s, "\n")
	if offset > len(lines)-height {
		offset = len(lines) - height
	}
	if offset > 0 {
		lines = lines[offset:]
	}
	if len(lines) > height {
		lines = lines[:height]
	}
	for len(lines) < height {
		lines = append(lines, "")
	}
	for i, ln := range lines {
		w := xansi.StringWidth(ln)
		if w > width {
			ln = xansi.Truncate(ln, width, "")
			w = xansi.StringWidth(ln)
		}
		if w < width {
			ln += strings.Repeat(" ", width-w)
		}
		lines[i] = ln
	}
	return strings.Join(lines, "\n")
}

// lineCount is the number of lines fitPane would see.
func lineCount(s string) int {
	return strings.Count(s, "\n") + 1
}
