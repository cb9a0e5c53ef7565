package audio

import (
	"math"
	"strings"

	"splice-cli/internal/model"
)

// NoteEvent is the note-like event shape the synthesizer plays.
type NoteEvent = model.NoteEvent

type Preset string

const (
	PresetDrums Preset = "drums"
	PresetBass  Preset = "bass"
	PresetPad   Preset = "pad"
	PresetLead  Preset = "lead"
	PresetKeys  Preset = "keys"
)

// FallbackPitch is played when a source carries no note events (A3).
const FallbackPitch = 57

var presetKeywords = []struct {
	preset Preset
	words  []string
}{
	{PresetDrums, []string{"drum", "kick", "snare", "hat", "perc", "beat", "clap"}},
	{PresetBass, []string{"bass", "sub", "808"}},
	{PresetPad, []string{"pad", "string", "ambient", "choir", "atmo", "drone"}},
	{PresetLead, []string{"lead", "melody", "vocal", "synth", "arp"}},
	{PresetKeys, []string{"key", "piano", "organ", "rhodes"}},
}

// PresetFor infers a timbre from track names and labels. The first matching
// keyword wins; unknown material plays as keys.
func PresetFor(names ...string) Preset {
	for _, name := range names {
		lower := strings.ToLower(name)
		for _, pk := range presetKeywords {
			for _, w := range pk.words {
				if strings.Contains(lower, w) {
					return pk.preset
				}
			}
		}
	}
	return PresetKeys
}

// NoteFreq is the equal-tempered frequency of a MIDI pitch.
func NoteFreq(pitch int) float64 {
	return 440 * math.Pow(2, float64(pitch-69)/12)
}

// NearestNote returns the note sounding at t, or else the one whose start is
// closest to t.
func NearestNote(notes []NoteEvent, t float64) (NoteEvent, bool) {
	best := -1
	bestDist := math.Inf(1)
	for i, n := range notes {
		if t >= n.TimeSec && t < n.TimeSec+n.DurationSec {
			return n, true
		}
		if d := math.Abs(n.TimeSec - t); d < bestDist {
			best, bestDist = i, d
		}
	}
	if best < 0 {
		return NoteEvent{}, false
	}
	return notes[best], true
}

// noise is a xorshift32 generator so drum hits are reproducible.
type noise uint32

func (n *noise) next() float64 {
	x := uint32(*n)
	x ^= x << 13
	x ^= x >> 17
	x ^= x << 5
	*n = noise(x)
	return float64(x)/float64(math.MaxUint32)*2 - 1
}

// Synthesize renders durSec of note with preset p as stereo PCM. Output is
// deterministic for equal inputs.
func Synthesize(p Preset, note NoteEvent, durSec float64) []int16 {
	n := FramesFor(durSec)
	out := make([]int16, n*Channels)
	vel := note.Velocity
	if vel <= 0 {
		vel = 0.7
	}
	freq := NoteFreq(note.Pitch)
	amp := 0.3 * vel * 32767
	ns := noise(uint32(note.Pitch)*2654435761 + 1)

	for i := 0; i < n; i++ {
		t := float64(i) / SampleRate
		phase := 2 * math.Pi * freq * t
		var v float64
		switch p {
		case PresetDrums:
			// Pitched thump plus a noise burst, both decaying fast.
			body := math.Sin(2*math.Pi*(freq/4)*t) * math.Exp(-t*30)
			v = 0.6*body + 0.5*ns.next()*math.Exp(-t*60)
		case PresetBass:
			v = 0.8*math.Sin(phase) + 0.2*math.Sin(2*phase)
		case PresetPad:
			// Slightly detuned saws with a slow attack.
			v = (saw(freq*t*1.003) + saw(freq*t*0.997)) * 0.35 * math.Min(1, t/0.05)
		case PresetLead:
			v = 0.5 * math.Copysign(1, math.Sin(phase))
		default:
			v = (math.Sin(phase) + 0.3*math.Sin(3*phase)) * math.Exp(-t*4)
		}
		s := clip16(v * amp)
		out[i*Channels] = s
		out[i*Channels+1] = s
	}
	return out
}

func saw(cycles float64) float64 {
	return 2*(cycles-math.Floor(cycles)) - 1
}
