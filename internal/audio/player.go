package audio

import (
	"log/slog"
	"math"
	"time"

	"splice-cli/internal/model"
)

// Resolver maps a resource source key to something the decoder can open.
// An empty result means the source is not available.
type Resolver interface {
	Resolve(key string) string
}

// Scene is the slice of editor state the player sounds.
type Scene struct {
	Clips          []model.Clip
	Tracks         []model.Track
	Resources      model.ResourceFinder
	ArrangementSec float64
}

type PlayerDeps struct {
	Cache    *BufferCache
	Resolver Resolver
	Sink     Sink
	Grain    GrainConfig
	Logger   *slog.Logger
}

// Source says where a grain's audio came from.
type Source string

const (
	SourceNone   Source = ""
	SourceBuffer Source = "buffer"
	SourceSynth  Source = "synth"
)

type ScrubResult struct {
	Grain     Grain
	Source    Source
	ClipID    string
	Throttled bool
	// Missing is the source still waiting on a decode; the caller should
	// prewarm it.
	Missing string
}

// Player drives the transport, scrub grains and playback voices from a Scene.
// It is not safe for concurrent use; only the BufferCache is shared with
// decode goroutines.
type Player struct {
	cache     *BufferCache
	resolve   Resolver
	sink      Sink
	gran      *Granulator
	mixer     *Mixer
	transport *Transport
	log       *slog.Logger

	scene  Scene
	tracks map[string]model.Track
}

func NewPlayer(deps PlayerDeps) *Player {
	if deps.Cache == nil {
		deps.Cache = NewBufferCache(FFmpegDecoder(""))
	}
	if deps.Sink == nil {
		deps.Sink = DiscardSink{}
	}
	if deps.Logger == nil {
		deps.Logger = slog.New(slog.DiscardHandler)
	}
	return &Player{
		cache:     deps.Cache,
		resolve:   deps.Resolver,
		sink:      deps.Sink,
		gran:      NewGranulator(deps.Grain),
		mixer:     NewMixer(),
		transport: NewTransport(),
		log:       deps.Logger,
		tracks:    map[string]model.Track{},
	}
}

func (p *Player) Transport() *Transport { return p.transport }
func (p *Player) Mixer() *Mixer         { return p.mixer }
func (p *Player) Cache() *BufferCache   { return p.cache }

// SetScene installs the latest editor state. Mute changes are pushed to the
// mixer at once so sounding voices follow them.
func (p *Player) SetScene(s Scene) {
	p.scene = s
	p.tracks = make(map[string]model.Track, len(s.Tracks))
	for _, t := range s.Tracks {
		p.tracks[t.Name] = t
		if t.Kind == model.TrackAudio {
			p.mixer.SetMuted(t.Name, t.Muted)
		}
	}
	p.transport.SetEnd(s.ArrangementSec)
}

// audible reports whether c's track produces sound right now.
func (p *Player) audible(c model.Clip) bool {
	t, ok := p.tracks[c.Track]
	return ok && t.Kind == model.TrackAudio && !t.Muted
}

func (p *Player) resource(c model.Clip) (model.Resource, bool) {
	if p.scene.Resources == nil {
		return model.Resource{}, false
	}
	return p.scene.Resources.FindResource(c.ResourceID)
}

// SourceFor resolves the decodable source of a clip's resource. Empty when
// the resource has no resolvable media.
func (p *Player) SourceFor(c model.Clip) string {
	r, ok := p.resource(c)
	if !ok {
		return ""
	}
	key := r.Src
	if key == "" {
		key = r.PreviewSrc
	}
	if key == "" {
		return ""
	}
	if p.resolve != nil {
		return p.resolve.Resolve(key)
	}
	return key
}

// clipAt returns the first audible clip, in track order, covering sec.
func (p *Player) clipAt(sec float64) (model.Clip, bool) {
	for _, t := range p.scene.Tracks {
		if t.Kind != model.TrackAudio || t.Muted {
			continue
		}
		for _, c := range p.scene.Clips {
			if c.Track == t.Name && sec >= c.TimeSec && sec < c.EndSec() {
				return c, true
			}
		}
	}
	return model.Clip{}, false
}

// Pending lists sources of audible clips that have not been decoded yet.
func (p *Player) Pending() []string {
	var out []string
	seen := map[string]bool{}
	for _, c := range p.scene.Clips {
		if !p.audible(c) {
			continue
		}
		src := p.SourceFor(c)
		if src == "" || seen[src] {
			continue
		}
		seen[src] = true
		if _, done, _ := p.cache.Lookup(src); !done {
			out = append(out, src)
		}
	}
	return out
}

// ScrubAt emits one grain for the playhead at sec moving at velocity
// (timeline seconds per second). The grain comes from the decoded buffer when
// there is one, else from the procedural fallback.
func (p *Player) ScrubAt(sec, velocity, atMs float64) ScrubResult {
	if p.transport.State() == Playing {
		p.mixer.Clear()
	}
	p.transport.BeginScrub(sec)
	if !p.gran.Allow(atMs) {
		return ScrubResult{Throttled: true}
	}
	c, ok := p.clipAt(sec)
	if !ok {
		return ScrubResult{}
	}
	offset := c.StartOffsetSec + (sec - c.TimeSec)
	res := ScrubResult{ClipID: c.ID}

	src := p.SourceFor(c)
	if src != "" {
		buf, done, err := p.cache.Lookup(src)
		switch {
		case done && err == nil:
			if g, ok := p.gran.FromBuffer(buf, offset, velocity, atMs); ok {
				res.Grain, res.Source = g, SourceBuffer
				p.emit(g.Samples)
			}
			return res
		case !done:
			res.Missing = src
		}
	}

	r, _ := p.resource(c)
	note, ok := NearestNote(r.Notes, offset)
	if !ok {
		note = NoteEvent{Pitch: FallbackPitch, Velocity: 0.5}
	}
	preset := PresetFor(c.Track, r.Label, r.ID)
	if g, ok := p.gran.Procedural(preset, note, offset, velocity, atMs); ok {
		res.Grain, res.Source = g, SourceSynth
		p.emit(g.Samples)
	}
	return res
}

// StopScrub halts scrub audio immediately.
func (p *Player) StopScrub() {
	p.transport.EndScrub()
	p.gran.Reset()
}

func (p *Player) emit(pcm []int16) {
	if err := p.sink.Write(pcm); err != nil {
		p.log.Debug("audio sink write failed", "err", err)
	}
}

func (p *Player) Seek(sec float64) {
	p.transport.Seek(sec)
	if p.transport.State() == Playing {
		p.schedule()
	}
}

// Toggle starts or pauses playback.
func (p *Player) Toggle(now time.Time) State {
	if p.transport.State() == Playing {
		p.Pause()
		return p.transport.State()
	}
	p.StopScrub()
	if p.transport.Play(now) {
		p.schedule()
	}
	return p.transport.State()
}

func (p *Player) Pause() {
	p.transport.Pause()
	p.mixer.Clear()
}

// Halt stops both scrub and playback audio.
func (p *Player) Halt() {
	p.StopScrub()
	p.Pause()
}

// schedule rebuilds the voice list for playback from the current position.
func (p *Player) schedule() {
	p.mixer.Clear()
	pos := p.transport.Position()
	for _, c := range p.scene.Clips {
		if _, ok := p.tracks[c.Track]; !ok || p.tracks[c.Track].Kind != model.TrackAudio {
			continue
		}
		if c.EndSec() <= pos {
			continue
		}
		delay := FramesFor(c.TimeSec - pos)
		skip := math.Max(0, pos-c.TimeSec)
		from := c.StartOffsetSec + skip
		to := c.StartOffsetSec + c.DurationSec

		if src := p.SourceFor(c); src != "" {
			if buf, done, err := p.cache.Lookup(src); done && err == nil {
				p.mixer.Add(Voice{Track: c.Track, Samples: buf.Slice(FramesFor(from), FramesFor(to)), Delay: delay})
				continue
			}
		}
		r, _ := p.resource(c)
		preset := PresetFor(c.Track, r.Label, r.ID)
		for _, n := range r.Notes {
			if n.TimeSec+n.DurationSec <= from || n.TimeSec >= to {
				continue
			}
			start := math.Max(n.TimeSec, from)
			end := math.Min(n.TimeSec+n.DurationSec, to)
			if end-start <= 0 {
				continue
			}
			p.mixer.Add(Voice{
				Track:   c.Track,
				Samples: Synthesize(preset, n, end-start),
				Delay:   delay + FramesFor(start-from),
			})
		}
	}
}

// Pump advances playback to now, mixing and emitting the elapsed audio.
// stopped is true when the arrangement end was reached on this tick.
func (p *Player) Pump(now time.Time) (pos float64, stopped bool) {
	if p.transport.State() != Playing {
		return p.transport.Position(), false
	}
	prev := p.transport.Position()
	pos, stopped = p.transport.Tick(now)
	if frames := FramesFor(pos - prev); frames > 0 {
		p.emit(p.mixer.Mix(frames))
	}
	if stopped {
		p.mixer.Clear()
	}
	return pos, stopped
}
