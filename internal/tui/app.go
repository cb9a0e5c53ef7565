package tui

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"splice-cli/internal/audio"
	"splice-cli/internal/config"
	"splice-cli/internal/docs"
	"splice-cli/internal/engine"
	"splice-cli/internal/interact"
	"splice-cli/internal/model"
	"splice-cli/internal/render"
	"splice-cli/internal/resource"
	"splice-cli/internal/store"
)

const (
	// chromeRows is the status line plus the key footer under the timeline.
	chromeRows = 2
	statusTTL  = 3 * time.Second
	peakBins   = 256
	decodeWait = 2 * time.Minute
)

// postedMsg carries a timer callback onto the event loop.
type postedMsg struct{ fn func() }

type pumpMsg time.Time

type prewarmDoneMsg struct {
	srcs []string
	err  error
}

type statusClearMsg struct{ seq int }

type appModel struct {
	dir   string
	scope string
	cfg   *config.Config
	log   *slog.Logger
	now   func() time.Time
	start time.Time

	eng      *engine.Engine
	catalog  *resource.Catalog
	resolver *resource.Resolver
	player   *audio.Player
	machine  *interact.Machine

	keys   keyMap
	help   help.Model
	layout render.Layout

	width  int
	height int
	frame  render.Frame

	collapsed map[model.Stage]bool
	sceneSig  string
	peaks     []float64
	peaksSec  float64
	warming   map[string]bool
	pumping   bool

	status    string
	statusErr bool
	statusSeq int

	pick     picker
	pointerY float64

	showHelp   bool
	helpText   string
	helpOffset int

	reloadSeq     int
	reloadCatalog bool
	reloadScope   bool
}

func newAppModel(o Options, eng *engine.Engine, player *audio.Player) appModel {
	now := o.Now
	if now == nil {
		now = time.Now
	}
	cfg := o.Config
	if cfg == nil {
		cfg = config.NewDefaultConfig()
	}
	m := appModel{
		dir:       o.Dir,
		scope:     o.Scope,
		cfg:       cfg,
		log:       o.Logger,
		now:       now,
		start:     now(),
		eng:       eng,
		catalog:   o.Catalog,
		resolver:  o.Resolver,
		player:    player,
		machine:   interact.New(eng, o.Scope, cfg.Interact()),
		keys:      defaultKeyMap(),
		help:      help.New(),
		layout:    cfg.Layout(),
		collapsed: map[model.Stage]bool{},
		warming:   map[string]bool{},
		pointerY:  -1,
	}
	if m.log == nil {
		m.log = slog.New(slog.DiscardHandler)
	}
	m.restoreUIState()
	m.syncScene()
	return m
}

func (m appModel) Init() tea.Cmd {
	return m.prewarm(m.player.Pending())
}

func (m appModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	cmd := m.update(msg)
	if _, ok := msg.(pumpMsg); !ok {
		m.refreshScene()
	}
	m.redraw()
	return m, cmd
}

func (m *appModel) update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case postedMsg:
		msg.fn()
		return nil

	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.help.Width = msg.Width
		return nil

	case tea.BlurMsg:
		return m.apply(m.machine.Blur())

	case pumpMsg:
		return m.pump(time.Time(msg))

	case prewarmDoneMsg:
		for _, src := range msg.srcs {
			delete(m.warming, src)
		}
		var cmd tea.Cmd
		if msg.err != nil {
			m.log.Warn("decode failed", "sources", msg.srcs, "err", msg.err)
			cmd = m.setStatus("decode failed: "+msg.err.Error(), true)
		}
		if m.player.Transport().State() == audio.Playing {
			// Swap procedural voices for the decoded buffers.
			m.player.Seek(m.player.Transport().Position())
		}
		m.syncScene()
		return cmd

	case statusClearMsg:
		if msg.seq == m.statusSeq {
			m.status, m.statusErr = "", false
		}
		return nil

	case fileChangedMsg:
		if msg.catalog {
			m.reloadCatalog = true
		} else {
			m.reloadScope = true
		}
		m.reloadSeq++
		return reloadAfter(m.reloadSeq)

	case reloadDueMsg:
		if msg.seq != m.reloadSeq {
			return nil
		}
		return m.reload()

	case tea.KeyMsg:
		return m.updateKey(msg)

	case tea.MouseMsg:
		if m.showHelp {
			if w, ok := wheelFrom(msg); ok {
				m.scrollHelp(int(w.DY) * 3)
			}
			return nil
		}
		if _, wheel := wheelFrom(msg); !wheel {
			m.pointerY = float64(msg.Y)
		}
		return m.apply(dispatchMouse(m.machine, msg, m.atMs()))
	}
	return nil
}

func (m *appModel) updateKey(msg tea.KeyMsg) tea.Cmd {
	if m.showHelp {
		switch msg.String() {
		case "?", "esc", "q":
			m.showHelp = false
		case "up", "k":
			m.scrollHelp(-1)
		case "down", "j":
			m.scrollHelp(1)
		case "pgup":
			m.scrollHelp(-m.timelineHeight())
		case "pgdown":
			m.scrollHelp(m.timelineHeight())
		}
		return nil
	}
	if m.pick.open {
		return m.updatePicker(msg)
	}
	switch {
	case key.Matches(msg, m.keys.Quit):
		m.player.Halt()
		return tea.Quit
	case key.Matches(msg, m.keys.Help):
		m.openHelp()
		return nil
	case key.Matches(msg, m.keys.Add):
		if m.machine.Mode() != interact.ModeIdle {
			return nil
		}
		return m.openPicker()
	case key.Matches(msg, m.keys.Reload):
		m.reloadCatalog, m.reloadScope = true, true
		return m.reload()
	}
	return m.apply(m.machine.Key(interact.Key{Key: msg.String()}))
}

func (m *appModel) atMs() float64 {
	return float64(m.now().Sub(m.start).Microseconds()) / 1000
}

func (m *appModel) db() *store.DB { return m.eng.DB(m.scope) }

func (m *appModel) timelineHeight() int {
	return max(0, m.height-chromeRows)
}

func (m *appModel) input() render.Input {
	db := m.db()
	sections := db.Sections
	if i, sec, ok := m.machine.SectionPreview(); ok {
		sections = append([]model.Section(nil), db.Sections...)
		sections[i] = sec
	}
	return render.Input{
		Width:            float64(m.width),
		Height:           float64(m.timelineHeight()),
		Layout:           m.layout,
		View:             db.View,
		Tracks:           m.eng.Tracks(m.scope),
		Clips:            db.Clips,
		Resources:        m.eng.Resources(),
		Sections:         sections,
		PlayheadSec:      db.PlayheadSec,
		ArrangementSec:   db.ArrangementEnd(),
		Peaks:            m.peaks,
		PeaksDurationSec: m.peaksSec,
		Selected:         m.machine.Selected(),
		Collapsed:        m.collapsed,
		Preview:          m.machine.Preview(),
	}
}

// redraw recomputes the frame and hands it to the machine so the next input
// is hit-tested against what is on screen.
func (m *appModel) redraw() {
	if m.width <= 0 || m.height <= 0 {
		return
	}
	in := m.input()
	m.frame = render.Draw(in)
	m.machine.Observe(in, m.frame)
	if !in.View.AutoFit || m.machine.Mode() != interact.ModeIdle {
		return
	}
	m.machine.Fit()
	if m.db().View != in.View {
		in = m.input()
		m.frame = render.Draw(in)
		m.machine.Observe(in, m.frame)
	}
}

// apply carries out what the machine asked for.
func (m *appModel) apply(effs []interact.Effect) tea.Cmd {
	var cmds []tea.Cmd
	mix := false
	for _, e := range effs {
		switch e.Kind {
		case interact.EffectTogglePlay:
			if m.player.Transport().State() != audio.Playing {
				m.player.Seek(m.db().PlayheadSec)
			}
			if m.player.Toggle(m.now()) == audio.Playing {
				cmds = append(cmds, m.startPump(), m.prewarm(m.player.Pending()))
			}
		case interact.EffectPause:
			m.player.Pause()
		case interact.EffectSeek:
			m.player.Seek(e.Sec)
		case interact.EffectScrub:
			if r := m.player.ScrubAt(e.Sec, e.Velocity, m.atMs()); r.Missing != "" {
				cmds = append(cmds, m.prewarm([]string{r.Missing}))
			}
		case interact.EffectStopScrub:
			m.player.StopScrub()
		case interact.EffectStatus:
			if e.Err {
				m.log.Debug("edit rejected", "err", e.Message)
			}
			cmds = append(cmds, m.setStatus(e.Message, e.Err))
		case interact.EffectToggleCollapse:
			m.collapsed[e.Stage] = !m.collapsed[e.Stage]
		case interact.EffectMixChanged:
			mix = true
		}
	}
	if mix {
		m.syncScene()
	}
	return tea.Batch(cmds...)
}

func (m *appModel) setStatus(msg string, isErr bool) tea.Cmd {
	m.status, m.statusErr = msg, isErr
	m.statusSeq++
	seq := m.statusSeq
	return tea.Tick(statusTTL, func(time.Time) tea.Msg { return statusClearMsg{seq: seq} })
}

func pumpAfter() tea.Cmd {
	return tea.Tick(audio.FrameDuration, func(t time.Time) tea.Msg { return pumpMsg(t) })
}

func (m *appModel) startPump() tea.Cmd {
	if m.pumping {
		return nil
	}
	m.pumping = true
	return pumpAfter()
}

// pump advances playback and moves the playhead with it.
func (m *appModel) pump(now time.Time) tea.Cmd {
	playing := m.player.Transport().State() == audio.Playing
	pos, stopped := m.player.Pump(now)
	if playing || stopped {
		m.eng.SetPlayhead(m.scope, pos)
		m.follow(pos)
	}
	if m.player.Transport().State() != audio.Playing {
		m.pumping = false
		return nil
	}
	return pumpAfter()
}

// follow pages the view when the playhead leaves it.
func (m *appModel) follow(pos float64) {
	in := m.input()
	x := in.X(pos)
	if x >= in.Layout.Gutter && x < in.Width-1 {
		return
	}
	v := in.View
	v.T0Sec = math.Max(0, pos)
	v.AutoFit = false
	m.eng.SetView(m.scope, v)
}

func (m *appModel) prewarm(srcs []string) tea.Cmd {
	var todo []string
	for _, s := range srcs {
		if s == "" || m.warming[s] {
			continue
		}
		m.warming[s] = true
		todo = append(todo, s)
	}
	if len(todo) == 0 {
		return nil
	}
	cache := m.player.Cache()
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), decodeWait)
		defer cancel()
		return prewarmDoneMsg{srcs: todo, err: cache.Prewarm(ctx, todo)}
	}
}

func (m *appModel) scene() audio.Scene {
	db := m.db()
	return audio.Scene{
		Clips:          db.Clips,
		Tracks:         m.eng.Tracks(m.scope),
		Resources:      m.eng.Resources(),
		ArrangementSec: db.ArrangementEnd(),
	}
}

func (m *appModel) syncScene() {
	s := m.scene()
	m.sceneSig = store.Signature(s.Clips)
	m.player.SetScene(s)
	m.peaks, m.peaksSec = arrangementPeaks(s, m.player, peakBins)
}

// refreshScene hands the player the current placements after any edit,
// whichever path committed it.
func (m *appModel) refreshScene() {
	if store.Signature(m.db().Clips) == m.sceneSig {
		return
	}
	m.syncScene()
	if m.player.Transport().State() == audio.Playing {
		m.player.Seek(m.player.Transport().Position())
	}
}

// reload picks up external writes once no gesture is in flight.
func (m *appModel) reload() tea.Cmd {
	if m.machine.Mode() != interact.ModeIdle {
		return reloadAfter(m.reloadSeq)
	}
	var cmds []tea.Cmd
	if m.reloadCatalog && m.catalog != nil {
		c, err := resource.Open(m.catalog.Path())
		if err != nil {
			m.log.Warn("reload resources failed", "err", err)
			cmds = append(cmds, m.setStatus(err.Error(), true))
		} else {
			m.catalog = c
			m.eng.SetResources(c)
			if m.resolver != nil {
				m.resolver.Forget()
			}
		}
	}
	if m.reloadScope {
		changed, err := m.eng.Reload(context.Background(), m.scope)
		switch {
		case err != nil:
			m.log.Warn("reload scope failed", "scope", m.scope, "err", err)
			cmds = append(cmds, m.setStatus(err.Error(), true))
		case changed:
			if _, ok := m.db().FindClip(m.machine.Selected()); !ok {
				m.machine.Select("")
			}
			cmds = append(cmds, m.setStatus("reloaded "+m.scope, false))
		}
	}
	m.reloadCatalog, m.reloadScope = false, false
	m.syncScene()
	cmds = append(cmds, m.prewarm(m.player.Pending()))
	return tea.Batch(cmds...)
}

func (m *appModel) openHelp() {
	md, _ := docs.Get("keys")
	m.helpText = docs.Render(md, max(20, m.width-2), markdownStyle())
	m.helpOffset = 0
	m.showHelp = true
}

func (m *appModel) scrollHelp(d int) {
	limit := max(0, lineCount(m.helpText)-m.timelineHeight())
	m.helpOffset = min(limit, max(0, m.helpOffset+d))
}

func (m *appModel) restoreUIState() {
	if m.dir == "" {
		return
	}
	st, err := store.Store{Dir: m.dir}.LoadUIState()
	if err != nil || st.Scope != m.scope {
		return
	}
	for stage, v := range st.Collapsed {
		m.collapsed[model.Stage(stage)] = v
	}
	if _, ok := m.db().FindClip(st.SelectedClipID); ok {
		m.machine.Select(st.SelectedClipID)
	}
}

func (m appModel) saveUIState() error {
	if m.dir == "" {
		return nil
	}
	st := &store.UIState{
		Scope:          m.scope,
		SelectedClipID: m.machine.Selected(),
		Collapsed:      map[string]bool{},
		Snap:           m.cfg.Editor.Snap,
	}
	for stage, v := range m.collapsed {
		if v {
			st.Collapsed[string(stage)] = true
		}
	}
	return store.Store{Dir: m.dir}.SaveUIState(st)
}

func (m appModel) View() string {
	if m.width <= 0 || m.height <= 0 {
		return ""
	}
	th := m.timelineHeight()
	var body string
	switch {
	case m.showHelp:
		body = fitPane(m.helpText, m.width, th, m.helpOffset)
	case m.pick.open:
		body = m.pickerView(m.width, th)
	default:
		body = Rasterize(m.frame, m.width, th, true)
	}
	footer := fitPane(m.help.View(m.keys), m.width, 1, 0)
	return strings.Join([]string{body, m.statusLine(), footer}, "\n")
}

func (m appModel) statusLine() string {
	db := m.db()
	tr := m.player.Transport()
	icon := "■"
	switch tr.State() {
	case audio.Playing:
		icon = "▶"
	case audio.Scrubbing:
		icon = "≈"
	}
	left := fmt.Sprintf(" %s %s / %s  %s  %.3gpx/s",
		icon,
		render.FormatTime(db.PlayheadSec, 0.1),
		render.FormatTime(db.ArrangementEnd(), 0.1),
		m.scope,
		db.View.PxPerSec,
	)
	if mode := m.machine.Mode(); mode != interact.ModeIdle {
		left += "  " + string(mode)
	}
	if id := m.machine.Selected(); id != "" {
		left += "  [" + id + "]"
	}
	base := lipgloss.NewStyle().Background(colorStatusBg).Foreground(colorStatusFg)
	right := ""
	if m.status != "" {
		st := base
		if m.statusErr {
			st = st.Foreground(colorError).Bold(true)
		}
		right = st.Render(m.status + " ")
	}
	gap := m.width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 1 {
		return fitPane(base.Render(left)+right, m.width, 1, 0)
	}
	return base.Render(left+strings.Repeat(" ", gap)) + right
}

// arrangementPeaks samples the audible mix envelope across the arrangement
// for the signal band. Decoded buffers win over catalog peaks; clips with
// neither show a flat mid level.
func arrangementPeaks(s audio.Scene, p *audio.Player, bins int) ([]float64, float64) {
	if s.ArrangementSec <= 0 || bins <= 0 {
		return nil, 0
	}
	audible := map[string]bool{}
	for _, t := range s.Tracks {
		if t.Kind == model.TrackAudio && !t.Muted {
			audible[t.Name] = true
		}
	}
	type env struct {
		levels []float64
		dur    float64
	}
	envs := map[string]env{}
	envFor := func(c model.Clip) env {
		if e, ok := envs[c.ResourceID]; ok {
			return e
		}
		var e env
		if src := p.SourceFor(c); src != "" {
			if buf, done, err := p.Cache().Lookup(src); done && err == nil && buf.Frames() > 0 {
				e = env{levels: buf.Peaks(bins * 4), dur: buf.DurationSec()}
			}
		}
		if e.levels == nil && s.Resources != nil {
			if r, ok := s.Resources.FindResource(c.ResourceID); ok && len(r.Peaks) > 0 {
				e = env{levels: r.Peaks, dur: r.SourceDuration()}
			}
		}
		envs[c.ResourceID] = e
		return e
	}

	out := make([]float64, bins)
	for i := range out {
		t := (float64(i) + 0.5) / float64(bins) * s.ArrangementSec
		for _, c := range s.Clips {
			if !audible[c.Track] || t < c.TimeSec || t >= c.EndSec() {
				continue
			}
			level := 0.5
			if e := envFor(c); len(e.levels) > 0 && e.dur > 0 {
				j := int((c.StartOffsetSec + t - c.TimeSec) / e.dur * float64(len(e.levels)))
				level = e.levels[min(max(j, 0), len(e.levels)-1)]
			}
			out[i] = math.Max(out[i], level)
		}
	}
	return out, s.ArrangementSec
}
