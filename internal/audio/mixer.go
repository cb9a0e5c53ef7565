package audio

// DefaultRampFrames is how long a mute change takes to reach its target gain.
const DefaultRampFrames = SampleRate / 100

// Voice is one scheduled PCM stream on a track.
type Voice struct {
	Track   string
	Samples []int16
	// Delay is the number of frames of silence before the voice starts.
	Delay int

	pos    int
	gain   float64
	target float64
}

func (v *Voice) done() bool { return v.Delay <= 0 && v.pos*Channels >= len(v.Samples) }

// Mixer sums active voices. Each voice ramps toward its track's gain so a
// mute toggle takes effect on sounding voices without clicks.
type Mixer struct {
	voices     []*Voice
	muted      map[string]bool
	rampFrames int
}

func NewMixer() *Mixer {
	return &Mixer{muted: map[string]bool{}, rampFrames: DefaultRampFrames}
}

func (m *Mixer) trackGain(track string) float64 {
	if m.muted[track] {
		return 0
	}
	return 1
}

// Add schedules a voice at its track's current gain.
func (m *Mixer) Add(v Voice) {
	g := m.trackGain(v.Track)
	v.gain, v.target, v.pos = g, g, 0
	m.voices = append(m.voices, &v)
}

// SetMuted retargets every voice on track. Returns true if the state changed.
func (m *Mixer) SetMuted(track string, muted bool) bool {
	if m.muted[track] == muted {
		return false
	}
	if muted {
		m.muted[track] = true
	} else {
		delete(m.muted, track)
	}
	g := m.trackGain(track)
	for _, v := range m.voices {
		if v.Track == track {
			v.target = g
		}
	}
	return true
}

func (m *Mixer) Muted(track string) bool { return m.muted[track] }

// Active is the number of voices not yet finished.
func (m *Mixer) Active() int { return len(m.voices) }

func (m *Mixer) Clear() { m.voices = nil }

// Mix renders the next frames of all voices and drops the finished ones.
func (m *Mixer) Mix(frames int) []int16 {
	if frames <= 0 {
		return nil
	}
	acc := make([]float64, frames*Channels)
	step := 1.0
	if m.rampFrames > 0 {
		step = 1 / float64(m.rampFrames)
	}
	kept := m.voices[:0]
	for _, v := range m.voices {
		for f := 0; f < frames; f++ {
			if v.Delay > 0 {
				v.Delay--
				continue
			}
			if v.pos*Channels >= len(v.Samples) {
				break
			}
			switch {
			case v.gain < v.target:
				v.gain = min(v.target, v.gain+step)
			case v.gain > v.target:
				v.gain = max(v.target, v.gain-step)
			}
			for ch := 0; ch < Channels; ch++ {
				acc[f*Channels+ch] += float64(v.Samples[v.pos*Channels+ch]) * v.gain
			}
			v.pos++
		}
		if !v.done() {
			kept = append(kept, v)
		}
	}
	clear(m.voices[len(kept):])
	m.voices = kept

	out := make([]int16, len(acc))
	for i, s := range acc {
		out[i] = clip16(s)
	}
	return out
}
