package interact

import (
	"math"

	"splice-cli/internal/render"
)

// ZoomBounds returns the allowed PxPerSec range. The floor keeps at least
// MinFitFraction of the viewport covered by the arrangement.
func (m *Machine) ZoomBounds() (lo, hi float64) {
	in := m.input()
	hi = m.cfg.MaxPxPerSec
	lo = m.cfg.MinPxPerSec
	width := in.Width - in.Layout.Gutter
	if arr := m.db().ArrangementEnd(); arr > 0 && width > 0 {
		lo = m.cfg.MinFitFraction * width / arr
	}
	if lo > hi {
		lo = hi
	}
	return lo, hi
}

// ZoomAt scales PxPerSec by factor keeping the time under x fixed.
func (m *Machine) ZoomAt(x, factor float64) []Effect {
	in := m.input()
	v := in.View
	lo, hi := m.ZoomBounds()
	px := math.Max(lo, math.Min(hi, v.PxPerSec*factor))
	if px == v.PxPerSec {
		return nil
	}
	t := in.TimeAt(x)
	v.PxPerSec = px
	v.T0Sec = math.Max(0, t-(x-in.Layout.Gutter)/px)
	v.AutoFit = false
	m.eng.SetView(m.scope, v)
	return []Effect{redraw()}
}

// Fit zooms so the whole arrangement fills the viewport.
func (m *Machine) Fit() []Effect {
	in := m.input()
	arr := m.db().ArrangementEnd()
	width := in.Width - in.Layout.Gutter
	if arr <= 0 || width <= 0 {
		return nil
	}
	v := in.View
	_, hi := m.ZoomBounds()
	v.PxPerSec = math.Min(hi, width/arr)
	v.T0Sec = 0
	v.AutoFit = true
	m.eng.SetView(m.scope, v)
	return []Effect{redraw()}
}

func (m *Machine) clampScroll(y float64) float64 {
	in := m.input()
	visible := in.Height - m.frame.TracksTop
	limit := math.Max(0, m.frame.ContentHeight-visible)
	return math.Max(0, math.Min(limit, y))
}

// Wheel handles scroll input. Ctrl/Cmd scales rows around the cursor, Shift
// pans time, and a plain vertical wheel zooms over the ruler and scrolls the
// tracks elsewhere. Horizontal deltas always pan.
func (m *Machine) Wheel(w Wheel) []Effect {
	in := m.input()
	v := in.View
	switch {
	case w.Mods.Ctrl || w.Mods.Meta:
		return m.scaleRows(w)
	case w.Mods.Shift:
		d := w.DY
		if d == 0 {
			d = w.DX
		}
		return m.panBy(d * m.cfg.PanPxPerNotch)
	case w.DX != 0 && w.DY == 0:
		return m.panBy(w.DX * m.cfg.PanPxPerNotch)
	}
	if w.DY == 0 {
		return nil
	}
	if r, ok := m.frame.HitTest(w.X, w.Y); ok && r.Kind == render.RegionRuler {
		return m.ZoomAt(w.X, math.Pow(m.cfg.ZoomStep, -w.DY))
	}
	next := m.clampScroll(v.ScrollY + w.DY*in.Layout.RowHeight*v.RowScale)
	if next == v.ScrollY {
		return nil
	}
	v.ScrollY = next
	m.eng.SetView(m.scope, v)
	return []Effect{redraw()}
}

func (m *Machine) panBy(px float64) []Effect {
	v := m.input().View
	if v.PxPerSec <= 0 || px == 0 {
		return nil
	}
	v.T0Sec = math.Max(0, v.T0Sec+px/v.PxPerSec)
	m.eng.SetView(m.scope, v)
	return []Effect{redraw()}
}

func (m *Machine) scaleRows(w Wheel) []Effect {
	in := m.input()
	v := in.View
	scale := v.RowScale * math.Pow(m.cfg.RowScaleStep, -w.DY)
	scale = math.Max(m.cfg.RowScaleMin, math.Min(m.cfg.RowScaleMax, scale))
	if scale == v.RowScale {
		return nil
	}
	// Keep the content under the cursor in place.
	top := m.frame.TracksTop
	contentY := w.Y - top + v.ScrollY
	ratio := scale / v.RowScale
	v.RowScale = scale
	v.ScrollY = math.Max(0, contentY*ratio-(w.Y-top))
	m.eng.SetView(m.scope, v)
	return []Effect{redraw()}
}
