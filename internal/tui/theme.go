package tui

import (
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// Palette helpers.
//
// The timeline must stay readable on light and dark terminals. Fixed chrome
// uses lipgloss.AdaptiveColor; clip and track colors are derived from a hue so
// each track keeps its color across sessions.

func ac(light, dark string) lipgloss.AdaptiveColor {
	return lipgloss.AdaptiveColor{Light: light, Dark: dark}
}

func faintIfDark(st lipgloss.Style) lipgloss.Style {
	if lipgloss.HasDarkBackground() {
		return st.Faint(true)
	}
	return st
}

var (
	colorMuted    lipgloss.TerminalColor = ac("240", "243")
	colorChrome   lipgloss.TerminalColor = ac("240", "245")
	colorRulerBg  lipgloss.TerminalColor = ac("254", "236")
	colorRulerFg  lipgloss.TerminalColor = ac("238", "250")
	colorRowBg    lipgloss.TerminalColor = ac("255", "234")
	colorDropFg   lipgloss.TerminalColor = ac("250", "239")
	colorSignalFg lipgloss.TerminalColor = ac("30", "73")
	colorPlayhead lipgloss.TerminalColor = ac("160", "203")
	colorAccent   lipgloss.TerminalColor = ac("27", "62")
	colorAccentFg lipgloss.TerminalColor = ac("255", "235")
	colorError    lipgloss.TerminalColor = ac("160", "203")
	colorStatusBg lipgloss.TerminalColor = ac("252", "235")
	colorStatusFg lipgloss.TerminalColor = ac("235", "252")
)

func styleMuted() lipgloss.Style {
	return faintIfDark(lipgloss.NewStyle().Foreground(colorMuted))
}

// hueColor derives a clip or track color. Muted tracks are desaturated and
// selected clips are pushed toward full saturation.
func hueColor(hue float64, muted, selected bool) lipgloss.AdaptiveColor {
	sat := 0.45
	switch {
	case muted:
		sat = 0.08
	case selected:
		sat = 0.75
	}
	return lipgloss.AdaptiveColor{
		Light: hslHex(hue, sat, 0.78),
		Dark:  hslHex(hue, sat, 0.32),
	}
}

// hueInk is a foreground that reads on top of hueColor.
func hueInk(hue float64) lipgloss.AdaptiveColor {
	return lipgloss.AdaptiveColor{
		Light: hslHex(hue, 0.6, 0.22),
		Dark:  hslHex(hue, 0.5, 0.85),
	}
}

func hslHex(h, s, l float64) string {
	h = math.Mod(h, 360)
	if h < 0 {
		h += 360
	}
	c := (1 - math.Abs(2*l-1)) * s
	x := c * (1 - math.Abs(math.Mod(h/60, 2)-1))
	m := l - c/2
	var r, g, b float64
	switch {
	case h < 60:
		r, g, b = c, x, 0
	case h < 120:
		r, g, b = x, c, 0
	case h < 180:
		r, g, b = 0, c, x
	case h < 240:
		r, g, b = 0, x, c
	case h < 300:
		r, g, b = x, 0, c
	default:
		r, g, b = c, 0, x
	}
	to := func(v float64) int { return int(math.Round((v + m) * 255)) }
	return fmt.Sprintf("#%02x%02x%02x", to(r), to(g), to(b))
}

// applyColorProfilePreference sets Lip Gloss's color profile for the
// interactive editor. Only NO_COLOR disables color; CLICOLOR is for the
// non-interactive commands.
func applyColorProfilePreference() {
	if strings.TrimSpace(os.Getenv("NO_COLOR")) != "" {
		lipgloss.SetColorProfile(termenv.Ascii)
		return
	}
	profile := termenv.ColorProfile()
	colorterm := strings.ToLower(strings.TrimSpace(os.Getenv("COLORTERM")))
	term := strings.ToLower(strings.TrimSpace(os.Getenv("TERM")))
	switch {
	case strings.Contains(colorterm, "truecolor") || strings.Contains(colorterm, "24bit"):
		if profile != termenv.Ascii {
			profile = termenv.TrueColor
		}
	case strings.Contains(term, "256color") && profile != termenv.TrueColor:
		profile = termenv.ANSI256
	}
	lipgloss.SetColorProfile(profile)
}

// applyThemePreference configures background detection.
//
// Priority:
// 1) SPLICE_TUI_THEME=light|dark|auto
// 2) COLORFGBG heuristic ("15;0" = fg;bg)
func applyThemePreference() {
	switch strings.ToLower(strings.TrimSpace(os.Getenv("SPLICE_TUI_THEME"))) {
	case "light":
		lipgloss.SetHasDarkBackground(false)
		return
	case "dark":
		lipgloss.SetHasDarkBackground(true)
		return
	}
	if v := strings.TrimSpace(os.Getenv("COLORFGBG")); v != "" {
		parts := strings.Split(v, ";")
		if bg, err := strconv.Atoi(strings.TrimSpace(parts[len(parts)-1])); err == nil {
			lipgloss.SetHasDarkBackground(bg < 7)
		}
	}
}

// markdownStyle picks the glamour style matching the background.
func markdownStyle() string {
	if lipgloss.ColorProfile() == termenv.Ascii {
		return "notty"
	}
	if lipgloss.HasDarkBackground() {
		return "dark"
	}
	return "light"
}
