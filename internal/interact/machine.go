// Package interact turns pointer, wheel and keyboard input over a rendered
// frame into edits, view changes and transport requests.
package interact

import (
	"math"

	"splice-cli/internal/engine"
	"splice-cli/internal/model"
	"splice-cli/internal/mutate"
	"splice-cli/internal/render"
	"splice-cli/internal/store"
)

type Config struct {
	MaxPxPerSec float64
	// MinPxPerSec is the zoom floor when the arrangement is empty.
	MinPxPerSec    float64
	MinFitFraction float64
	ZoomStep       float64
	NudgePx        float64
	RowScaleMin    float64
	RowScaleMax    float64
	RowScaleStep   float64
	PanPxPerNotch  float64
	DragThreshold  float64
	Snap           bool
}

func DefaultConfig() Config {
	return Config{
		MaxPxPerSec:    2000,
		MinPxPerSec:    0.01,
		MinFitFraction: 0.25,
		ZoomStep:       1.25,
		NudgePx:        1,
		RowScaleMin:    0.5,
		RowScaleMax:    4,
		RowScaleStep:   1.1,
		PanPxPerNotch:  4,
		DragThreshold:  0.5,
		Snap:           true,
	}
}

// target is the placement a drag would commit, computed by a dry run.
type target struct {
	track   string
	timeSec float64
	ok      bool
}

type Machine struct {
	cfg   Config
	eng   *engine.Engine
	scope string

	in    render.Input
	frame render.Frame

	mode     Mode
	selected string

	downX, downY float64
	moved        bool
	hit          render.Region

	clipID  string
	grabSec float64
	preview map[string]model.Clip
	target  target

	section        int
	sectionEdge    string
	sectionPreview *model.Section

	panT0, panScroll float64

	scrubSec float64
	scrubAt  float64

	paintValue bool
	painted    map[string]bool
}

func New(eng *engine.Engine, scope string, cfg Config) *Machine {
	return &Machine{cfg: cfg, eng: eng, scope: scope, mode: ModeIdle}
}

// Observe hands the machine the input and frame of the latest draw so hit
// testing matches what is on screen.
func (m *Machine) Observe(in render.Input, f render.Frame) {
	m.in = in
	m.frame = f
}

func (m *Machine) Mode() Mode { return m.mode }

func (m *Machine) Selected() string { return m.selected }

func (m *Machine) Select(clipID string) { m.selected = clipID }

// Preview returns the in-flight drag placements keyed by clip id.
func (m *Machine) Preview() map[string]model.Clip { return m.preview }

// SectionPreview returns the section being resized, if any.
func (m *Machine) SectionPreview() (int, model.Section, bool) {
	if m.sectionPreview == nil {
		return 0, model.Section{}, false
	}
	return m.section, *m.sectionPreview, true
}

func (m *Machine) db() *store.DB { return m.eng.DB(m.scope) }

// input is the last observed input with the live view applied.
func (m *Machine) input() render.Input {
	in := m.in
	in.View = m.db().View
	if in.Layout == (render.Layout{}) {
		in.Layout = render.DefaultLayout()
	}
	return in
}

func (m *Machine) timeAt(x float64) float64 { return m.input().TimeAt(x) }

func (m *Machine) snapper(mods Modifiers) *mutate.Snapper {
	if !m.cfg.Snap || mods.Alt {
		return nil
	}
	s := m.eng.Snapper(m.db(), m.frame.MajorStep)
	return &s
}

func (m *Machine) reset() {
	m.mode = ModeIdle
	m.moved = false
	m.hit = render.Region{}
	m.clipID = ""
	m.preview = nil
	m.target = target{}
	m.sectionPreview = nil
	m.painted = nil
}

func (m *Machine) PointerDown(p Pointer) []Effect {
	if m.mode != ModeIdle {
		return nil
	}
	r, ok := m.frame.HitTest(p.X, p.Y)
	if !ok {
		return nil
	}
	m.downX, m.downY = p.X, p.Y
	m.moved = false
	m.hit = r
	db := m.db()

	switch r.Kind {
	case render.RegionSectionEdge:
		m.mode = ModeSectionResize
		m.section, m.sectionEdge = r.Section, r.Edge
		return nil

	case render.RegionRuler, render.RegionSignal:
		m.mode = ModeScrub
		t := math.Max(0, m.timeAt(p.X))
		m.scrubSec, m.scrubAt = t, p.AtMs
		m.eng.SetPlayhead(m.scope, t)
		return []Effect{{Kind: EffectSeek, Sec: t}, {Kind: EffectScrub, Sec: t}, redraw()}

	case render.RegionClip, render.RegionTrimStart, render.RegionTrimEnd:
		m.selected = r.ClipID
		c, ok := db.FindClip(r.ClipID)
		if !ok {
			m.mode = ModeClick
			return []Effect{redraw()}
		}
		if db.IsLocked(c.Track) {
			m.mode = ModeClick
			return []Effect{status("track is locked: " + c.Track), redraw()}
		}
		m.clipID = c.ID
		switch r.Kind {
		case render.RegionTrimStart:
			m.mode = ModeTrimStart
		case render.RegionTrimEnd:
			m.mode = ModeTrimEnd
		default:
			m.mode = ModeDrag
			m.grabSec = m.timeAt(p.X) - c.TimeSec
		}
		return []Effect{redraw()}

	case render.RegionTrackHeader:
		if p.Button == ButtonRight {
			m.mode = ModeClick
			if _, err := m.eng.SetLock(m.scope, r.Track, !db.IsLocked(r.Track)); err != nil {
				return []Effect{failure(err)}
			}
			return []Effect{redraw()}
		}
		m.mode = ModeMutePaint
		m.paintValue = !db.IsMuted(r.Track)
		m.painted = map[string]bool{r.Track: true}
		if _, err := m.eng.SetMute(m.scope, r.Track, m.paintValue); err != nil {
			return []Effect{failure(err)}
		}
		return []Effect{{Kind: EffectMixChanged}, redraw()}

	case render.RegionTrack, render.RegionDropzone:
		m.mode = ModePan
		m.panT0, m.panScroll = db.View.T0Sec, db.View.ScrollY
		return nil

	case render.RegionSection, render.RegionStageHeader:
		m.mode = ModeClick
		return nil
	}
	return nil
}

func (m *Machine) PointerMove(p Pointer) []Effect {
	if m.mode == ModeIdle {
		return nil
	}
	if math.Abs(p.X-m.downX) > m.cfg.DragThreshold || math.Abs(p.Y-m.downY) > m.cfg.DragThreshold {
		m.moved = true
	}
	switch m.mode {
	case ModeDrag:
		if !m.moved {
			return nil
		}
		return m.previewMove(p)
	case ModeTrimStart, ModeTrimEnd:
		if !m.moved {
			return nil
		}
		return m.previewTrim(p)
	case ModePan:
		v := m.db().View
		if v.PxPerSec > 0 {
			v.T0Sec = math.Max(0, m.panT0-(p.X-m.downX)/v.PxPerSec)
		}
		v.ScrollY = m.clampScroll(m.panScroll - (p.Y - m.downY))
		m.eng.SetView(m.scope, v)
		return []Effect{redraw()}
	case ModeScrub:
		t := math.Max(0, m.timeAt(p.X))
		vel := 0.0
		if dt := (p.AtMs - m.scrubAt) / 1000; dt > 0 {
			vel = (t - m.scrubSec) / dt
		}
		m.scrubSec, m.scrubAt = t, p.AtMs
		m.eng.SetPlayhead(m.scope, t)
		return []Effect{{Kind: EffectScrub, Sec: t, Velocity: vel}, redraw()}
	case ModeSectionResize:
		return m.previewSection(p)
	case ModeMutePaint:
		r, ok := m.frame.HitTest(p.X, p.Y)
		if !ok || (r.Kind != render.RegionTrackHeader && r.Kind != render.RegionTrack) || m.painted[r.Track] {
			return nil
		}
		m.painted[r.Track] = true
		if _, err := m.eng.SetMute(m.scope, r.Track, m.paintValue); err != nil {
			return []Effect{failure(err)}
		}
		return []Effect{{Kind: EffectMixChanged}, redraw()}
	}
	return nil
}

func (m *Machine) trackUnder(y float64) string {
	r, ok := m.frame.TrackAt(y)
	if !ok {
		return ""
	}
	switch r.Kind {
	case render.RegionTrack, render.RegionDropzone:
		return r.Track
	}
	return ""
}

func (m *Machine) previewMove(p Pointer) []Effect {
	cand := m.db().Clone()
	res, err := mutate.Move(cand, m.clipID, mutate.MoveRequest{
		Track:   m.trackUnder(p.Y),
		TimeSec: m.timeAt(p.X) - m.grabSec,
		Snap:    m.snapper(p.Mods),
	})
	if err != nil {
		return nil
	}
	m.preview = map[string]model.Clip{}
	for _, c := range res.Moved {
		m.preview[c.ID] = c
	}
	m.target = target{track: res.Clip.Track, timeSec: res.Clip.TimeSec, ok: true}
	return []Effect{redraw()}
}

func (m *Machine) previewTrim(p Pointer) []Effect {
	db := m.db()
	cand := db.Clone()
	edge := mutate.EdgeStart
	if m.mode == ModeTrimEnd {
		edge = mutate.EdgeEnd
	}
	c, err := mutate.TrimEdge(cand, m.clipID, mutate.TrimEdgeRequest{
		Edge:    edge,
		TimeSec: m.timeAt(p.X),
		Snap:    m.snapper(p.Mods),
	}, m.eng.Config().Edit)
	if err != nil {
		return nil
	}
	m.preview = map[string]model.Clip{}
	orig, _ := db.FindClip(m.clipID)
	for _, g := range db.LinkGroup(orig.Group()) {
		if pc, ok := cand.FindClip(g.ID); ok {
			m.preview[g.ID] = *pc
		}
	}
	t := c.TimeSec
	if edge == mutate.EdgeEnd {
		t = c.EndSec()
	}
	m.target = target{track: c.Track, timeSec: t, ok: true}
	return []Effect{redraw()}
}

func (m *Machine) previewSection(p Pointer) []Effect {
	db := m.db()
	if m.section < 0 || m.section >= len(db.Sections) {
		return nil
	}
	t := math.Max(0, m.timeAt(p.X))
	if s := m.snapper(p.Mods); s != nil {
		t = s.SnapTime(db, "", t, nil)
	}
	sec := db.Sections[m.section]
	if m.sectionEdge == "start" {
		sec.StartSec = math.Min(t, sec.EndSec-model.MinClipSec)
	} else {
		sec.EndSec = math.Max(t, sec.StartSec+model.MinClipSec)
	}
	m.sectionPreview = &sec
	return []Effect{redraw()}
}

func (m *Machine) PointerUp(p Pointer) []Effect {
	if m.mode == ModeIdle {
		return nil
	}
	defer m.reset()
	var out []Effect

	switch m.mode {
	case ModeDrag:
		if m.moved && m.target.ok {
			// The preview already snapped; commit exactly what was shown.
			if _, err := m.eng.Move(m.scope, m.clipID, m.target.track, m.target.timeSec, false, 0); err != nil {
				out = append(out, failure(err))
			}
		}
	case ModeTrimStart, ModeTrimEnd:
		if m.moved && m.target.ok {
			edge := mutate.EdgeStart
			if m.mode == ModeTrimEnd {
				edge = mutate.EdgeEnd
			}
			if _, err := m.eng.TrimEdge(m.scope, m.clipID, edge, m.target.timeSec, false, 0); err != nil {
				out = append(out, failure(err))
			}
		}
	case ModeScrub:
		out = append(out, Effect{Kind: EffectStopScrub, Sec: m.scrubSec})
	case ModeSectionResize:
		if m.sectionPreview != nil {
			if err := m.eng.SetSection(m.scope, m.section, *m.sectionPreview); err != nil {
				out = append(out, failure(err))
			}
		}
	case ModePan:
		if !m.moved {
			m.selected = ""
		}
	case ModeClick:
		switch m.hit.Kind {
		case render.RegionSection:
			db := m.db()
			if m.hit.Section < len(db.Sections) {
				t := db.Sections[m.hit.Section].StartSec
				m.eng.SetPlayhead(m.scope, t)
				out = append(out, Effect{Kind: EffectSeek, Sec: t})
			}
		case render.RegionStageHeader:
			out = append(out, Effect{Kind: EffectToggleCollapse, Stage: m.hit.Stage})
		}
	}
	return append(out, redraw())
}

// Cancel drops any in-flight gesture without committing it.
func (m *Machine) Cancel() []Effect {
	if m.mode == ModeIdle {
		return nil
	}
	wasScrub := m.mode == ModeScrub
	m.reset()
	out := []Effect{redraw()}
	if wasScrub {
		out = append(out, Effect{Kind: EffectStopScrub})
	}
	return out
}

// Blur cancels the gesture and halts playback and scrub audio.
func (m *Machine) Blur() []Effect {
	out := m.Cancel()
	return append(out, Effect{Kind: EffectStopScrub}, Effect{Kind: EffectPause})
}

// Drop places a resource at timeline pixel (x, y).
func (m *Machine) Drop(r DropResource, x, y float64) []Effect {
	if m.mode != ModeIdle {
		return nil
	}
	t := math.Max(0, m.timeAt(x))
	track := m.trackUnder(y)
	if s := m.snapper(Modifiers{}); s != nil {
		t = s.SnapTime(m.db(), track, t, nil)
	}
	res, err := m.eng.Append(m.scope, r.ResourceID, mutate.Patch{Track: &track, TimeSec: &t})
	if err != nil {
		return []Effect{failure(err)}
	}
	m.selected = res.Clip.ID
	return []Effect{status("added " + res.Clip.ID + " on " + res.Clip.Track), {Kind: EffectMixChanged}, redraw()}
}
