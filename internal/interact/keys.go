package interact

import (
	"math"
	"strings"

	"splice-cli/internal/model"
)

// Key handles a keypress. Keys that the machine does not own return nil so
// the adapter can use them.
func (m *Machine) Key(k Key) []Effect {
	key := k.Key
	if key == "esc" {
		return m.Cancel()
	}
	if k.TextFocus {
		return nil
	}
	if m.mode != ModeIdle {
		return nil
	}
	db := m.db()

	switch key {
	case " ", "space":
		return []Effect{{Kind: EffectTogglePlay}}
	case "left", "right", "shift+left", "shift+right":
		dir := 1.0
		if strings.HasSuffix(key, "left") {
			dir = -1
		}
		steps := m.cfg.NudgePx
		if strings.HasPrefix(key, "shift+") {
			steps *= 10
		}
		return m.nudge(dir, steps)
	case "ctrl+z":
		if !m.eng.Undo(m.scope) {
			return []Effect{status("nothing to undo")}
		}
		return []Effect{{Kind: EffectMixChanged}, redraw()}
	case "ctrl+y", "ctrl+shift+z":
		if !m.eng.Redo(m.scope) {
			return []Effect{status("nothing to redo")}
		}
		return []Effect{{Kind: EffectMixChanged}, redraw()}
	case "home":
		m.eng.SetPlayhead(m.scope, 0)
		return []Effect{{Kind: EffectSeek, Sec: 0}, redraw()}
	case "end":
		end := db.ArrangementEnd()
		m.eng.SetPlayhead(m.scope, end)
		return []Effect{{Kind: EffectSeek, Sec: end}, redraw()}
	case "+", "=":
		return m.ZoomAt(m.input().X(db.PlayheadSec), m.cfg.ZoomStep)
	case "-":
		return m.ZoomAt(m.input().X(db.PlayheadSec), 1/m.cfg.ZoomStep)
	case "f":
		return m.Fit()
	}

	sel, ok := db.FindClip(m.selected)
	if !ok {
		switch key {
		case "s", "j", "d", "x", "delete", "backspace", "m", "l":
			return []Effect{status("select a clip first")}
		}
		return nil
	}
	c := *sel

	var err error
	switch key {
	case "s":
		_, err = m.eng.Split(m.scope, c.ID, db.PlayheadSec)
	case "j":
		_, err = m.eng.JoinNext(m.scope, c.ID)
	case "d":
		_, err = m.eng.Duplicate(m.scope, c.ID)
	case "x", "delete", "backspace":
		_, err = m.eng.Remove(m.scope, c.ID)
		if err == nil {
			m.selected = ""
		}
	case "m":
		_, err = m.eng.SetMute(m.scope, c.Track, !db.IsMuted(c.Track))
	case "l":
		_, err = m.eng.SetLock(m.scope, c.Track, !db.IsLocked(c.Track))
	default:
		return nil
	}
	if err != nil {
		return []Effect{failure(err)}
	}
	return []Effect{{Kind: EffectMixChanged}, redraw()}
}

// nudge shifts the selected clip by steps pixels of time. A snap landmark is
// only taken when it lies in the direction of travel, so nudges never stick.
func (m *Machine) nudge(dir, steps float64) []Effect {
	db := m.db()
	sel, ok := db.FindClip(m.selected)
	if !ok {
		return nil
	}
	c := *sel
	px := db.View.PxPerSec
	if px <= 0 {
		return nil
	}
	t := math.Max(0, c.TimeSec+dir*steps/px)
	if s := m.snapper(Modifiers{}); s != nil {
		exclude := map[string]bool{}
		for _, g := range db.LinkGroup(c.Group()) {
			exclude[g.ID] = true
		}
		snapped := s.SnapSpan(db, c.Track, t, c.DurationSec, exclude)
		if (snapped-c.TimeSec)*dir > model.Epsilon {
			t = snapped
		}
	}
	if _, err := m.eng.Move(m.scope, c.ID, c.Track, t, false, 0); err != nil {
		return []Effect{failure(err)}
	}
	return []Effect{redraw()}
}
