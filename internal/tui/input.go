package tui

import (
	tea "github.com/charmbracelet/bubbletea"

	"splice-cli/internal/interact"
)

// The timeline is drawn from the top-left cell, so terminal cells map 1:1 to
// timeline pixels and mouse coordinates need no offset.

func mods(ev tea.MouseMsg) interact.Modifiers {
	return interact.Modifiers{Shift: ev.Shift, Ctrl: ev.Ctrl, Alt: ev.Alt}
}

func button(b tea.MouseButton) interact.Button {
	switch b {
	case tea.MouseButtonRight:
		return interact.ButtonRight
	case tea.MouseButtonMiddle:
		return interact.ButtonMiddle
	}
	return interact.ButtonLeft
}

// wheelFrom converts a wheel event into notches. ok is false for anything
// that is not a wheel.
func wheelFrom(ev tea.MouseMsg) (interact.Wheel, bool) {
	w := interact.Wheel{X: float64(ev.X), Y: float64(ev.Y), Mods: mods(ev)}
	switch ev.Button {
	case tea.MouseButtonWheelUp:
		w.DY = -1
	case tea.MouseButtonWheelDown:
		w.DY = 1
	case tea.MouseButtonWheelLeft:
		w.DX = -1
	case tea.MouseButtonWheelRight:
		w.DX = 1
	default:
		return interact.Wheel{}, false
	}
	return w, true
}

// dispatchMouse routes a mouse event to the machine. Wheel events are
// stateless; presses, motion and releases form a gesture.
func dispatchMouse(mc *interact.Machine, ev tea.MouseMsg, atMs float64) []interact.Effect {
	if w, ok := wheelFrom(ev); ok {
		return mc.Wheel(w)
	}
	p := interact.Pointer{
		X:      float64(ev.X),
		Y:      float64(ev.Y),
		Button: button(ev.Button),
		Mods:   mods(ev),
		AtMs:   atMs,
	}
	switch ev.Action {
	case tea.MouseActionPress:
		return mc.PointerDown(p)
	case tea.MouseActionMotion:
		return mc.PointerMove(p)
	case tea.MouseActionRelease:
		return mc.PointerUp(p)
	}
	return nil
}
