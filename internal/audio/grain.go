package audio

import "math"

type GrainConfig struct {
	MinMs float64
	MaxMs float64
	// FastVelocity (timeline seconds per second) maps to the shortest grain.
	FastVelocity float64
	MinRate      float64
	MaxRate      float64
	// Overlap is the fraction of a grain the next one may start within.
	Overlap float64
	Gain    float64
}

func DefaultGrainConfig() GrainConfig {
	return GrainConfig{
		MinMs:        20,
		MaxMs:        85,
		FastVelocity: 8,
		MinRate:      0.5,
		MaxRate:      2,
		Overlap:      0.5,
		Gain:         0.9,
	}
}

// Grain is one windowed burst of scrub audio.
type Grain struct {
	AtMs      float64
	OffsetSec float64
	DurMs     float64
	Rate      float64
	Reverse   bool
	Samples   []int16
}

// Granulator shapes grains from scrub velocity and rate-limits them so no more
// than two are ever sounding at once.
type Granulator struct {
	cfg      GrainConfig
	nextAtMs float64
	primed   bool
}

func NewGranulator(cfg GrainConfig) *Granulator {
	if cfg.MaxMs <= 0 {
		cfg = DefaultGrainConfig()
	}
	return &Granulator{cfg: cfg}
}

func (g *Granulator) Config() GrainConfig { return g.cfg }

// Shape maps a scrub velocity to grain length, playback rate and direction.
// Faster scrubbing yields shorter grains.
func (g *Granulator) Shape(velocity float64) (durMs, rate float64, reverse bool) {
	speed := math.Abs(velocity)
	f := 0.0
	if g.cfg.FastVelocity > 0 {
		f = math.Min(1, speed/g.cfg.FastVelocity)
	}
	durMs = g.cfg.MaxMs - (g.cfg.MaxMs-g.cfg.MinMs)*f
	rate = 1
	if speed > 0 {
		rate = math.Max(g.cfg.MinRate, math.Min(g.cfg.MaxRate, speed))
	}
	return durMs, rate, velocity < 0
}

// Allow reports whether a grain may start at atMs.
func (g *Granulator) Allow(atMs float64) bool {
	return !g.primed || atMs >= g.nextAtMs
}

func (g *Granulator) mark(atMs, durMs float64) {
	g.primed = true
	g.nextAtMs = atMs + durMs*g.cfg.Overlap
}

// Reset forgets the rate limiter, e.g. when a scrub ends.
func (g *Granulator) Reset() { g.primed = false; g.nextAtMs = 0 }

// FromBuffer cuts a grain from buf starting at offsetSec. ok is false when
// the rate limiter rejects it.
func (g *Granulator) FromBuffer(buf Buffer, offsetSec, velocity, atMs float64) (Grain, bool) {
	if !g.Allow(atMs) {
		return Grain{}, false
	}
	durMs, rate, reverse := g.Shape(velocity)
	n := FramesFor(durMs / 1000)
	dir := 1.0
	if reverse {
		dir = -1
	}
	start := offsetSec * SampleRate
	out := make([]int16, n*Channels)
	for i := 0; i < n; i++ {
		pos := start + dir*float64(i)*rate
		env := Envelope(i, n) * g.cfg.Gain
		for ch := 0; ch < Channels; ch++ {
			out[i*Channels+ch] = clip16(buf.At(pos, ch) * env)
		}
	}
	g.mark(atMs, durMs)
	return Grain{AtMs: atMs, OffsetSec: offsetSec, DurMs: durMs, Rate: rate, Reverse: reverse, Samples: out}, true
}

// Procedural wraps synthesized samples in the grain window, used when no
// decoded buffer exists for the source.
func (g *Granulator) Procedural(p Preset, note NoteEvent, offsetSec, velocity, atMs float64) (Grain, bool) {
	if !g.Allow(atMs) {
		return Grain{}, false
	}
	durMs, rate, reverse := g.Shape(velocity)
	out := Synthesize(p, note, durMs/1000)
	n := len(out) / Channels
	for i := 0; i < n; i++ {
		env := Envelope(i, n) * g.cfg.Gain
		for ch := 0; ch < Channels; ch++ {
			out[i*Channels+ch] = clip16(float64(out[i*Channels+ch]) * env)
		}
	}
	g.mark(atMs, durMs)
	return Grain{AtMs: atMs, OffsetSec: offsetSec, DurMs: durMs, Rate: rate, Reverse: reverse, Samples: out}, true
}
