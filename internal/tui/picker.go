package tui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"splice-cli/internal/interact"
	"splice-cli/internal/model"
	"splice-cli/internal/render"
)

// picker is the keyboard drag source: it lists catalog resources and drops the
// chosen one at the playhead, on the row last pointed at.
type picker struct {
	open  bool
	items []model.Resource
	index int
}

func (m *appModel) openPicker() tea.Cmd {
	if m.catalog == nil || len(m.catalog.List()) == 0 {
		return m.setStatus("catalog is empty (splice resources add <file>)", true)
	}
	m.pick = picker{open: true, items: m.catalog.List()}
	return nil
}

func (m *appModel) updatePicker(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "esc", "q", "a":
		m.pick.open = false
	case "up", "k":
		m.pick.index = max(0, m.pick.index-1)
	case "down", "j":
		m.pick.index = min(len(m.pick.items)-1, m.pick.index+1)
	case "enter":
		m.pick.open = false
		if m.pick.index >= len(m.pick.items) {
			return nil
		}
		return m.dropResource(m.pick.items[m.pick.index])
	}
	return nil
}

// dropResource hands r to the machine as if it had been dragged onto the
// timeline at the playhead.
func (m *appModel) dropResource(r model.Resource) tea.Cmd {
	x := m.input().X(m.db().PlayheadSec)
	cmd := m.apply(m.machine.Drop(interact.DropResource{ResourceID: r.ID, Kind: r.Kind}, x, m.pointerY))
	return tea.Batch(cmd, m.prewarm(m.player.Pending()))
}

func (m appModel) pickerView(width, height int) string {
	title := lipgloss.NewStyle().Bold(true).Render(
		fmt.Sprintf(" Add at %s", render.FormatTime(m.db().PlayheadSec, 0.1)))
	lines := []string{title, ""}
	sel := lipgloss.NewStyle().Background(colorAccent).Foreground(colorAccentFg)
	for i, r := range m.pick.items {
		dur := "-"
		if d := r.SourceDuration(); d > 0 {
			dur = render.FormatTime(d, 0.1)
		}
		row := fmt.Sprintf(" %-24s %-6s %8s  %s", r.ID, r.Kind, dur, r.Label)
		if i == m.pick.index {
			row = sel.Render(row)
		}
		lines = append(lines, row)
	}
	lines = append(lines, "", styleMuted().Render(" ↑/↓ choose · enter drop · esc close"))
	off := max(0, m.pick.index+3-height)
	return fitPane(strings.Join(lines, "\n"), width, height, off)
}
