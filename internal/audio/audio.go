// Package audio produces the sound of the timeline: buffer playback, granular
// scrub feedback and a procedural note fallback, all as 48kHz stereo int16 PCM.
package audio

import (
	"encoding/binary"
	"math"
	"time"
)

const (
	SampleRate    = 48000
	Channels      = 2
	BitDepth      = 16
	FrameDuration = 20 * time.Millisecond
	FrameSize     = 960                  // samples per channel per 20ms frame
	FrameSamples  = FrameSize * Channels // total interleaved samples per frame
	FrameBytes    = FrameSamples * 2     // bytes per frame (int16 = 2 bytes)
)

// FramesFor converts seconds to sample frames (one sample per channel).
func FramesFor(sec float64) int {
	if sec <= 0 {
		return 0
	}
	return int(math.Round(sec * SampleRate))
}

func SecondsFor(frames int) float64 { return float64(frames) / SampleRate }

// Smoothstep returns the smoothstep interpolation for t in [0,1].
func Smoothstep(t float64) float64 {
	if t <= 0 {
		return 0
	}
	if t >= 1 {
		return 1
	}
	return t * t * (3 - 2*t)
}

// Envelope is the attack/release window for frame i of n. The first and last
// quarter fade with a smoothstep curve.
func Envelope(i, n int) float64 {
	if n <= 1 {
		return 1
	}
	fade := float64(n) / 4
	a := Smoothstep(float64(i) / fade)
	r := Smoothstep(float64(n-1-i) / fade)
	return math.Min(a, r)
}

func clip16(v float64) int16 {
	if v > 32767 {
		return 32767
	}
	if v < -32768 {
		return -32768
	}
	return int16(v)
}

// SamplesToBytes converts int16 samples to little-endian bytes.
func SamplesToBytes(samples []int16) []byte {
	buf := make([]byte, len(samples)*2)
	for i, s := range samples {
		binary.LittleEndian.PutUint16(buf[i*2:], uint16(s))
	}
	return buf
}

// BytesToSamples is the inverse of SamplesToBytes. A trailing odd byte is dropped.
func BytesToSamples(b []byte) []int16 {
	if len(b)%2 != 0 {
		b = b[:len(b)-1]
	}
	samples := make([]int16, len(b)/2)
	for i := range samples {
		samples[i] = int16(binary.LittleEndian.Uint16(b[i*2 : i*2+2]))
	}
	return samples
}

// Buffer is decoded interleaved stereo PCM.
type Buffer struct {
	Samples []int16
}

func (b Buffer) Frames() int { return len(b.Samples) / Channels }

func (b Buffer) DurationSec() float64 { return SecondsFor(b.Frames()) }

// At returns channel ch at fractional frame pos with linear interpolation.
// Positions outside the buffer read as silence.
func (b Buffer) At(pos float64, ch int) float64 {
	n := b.Frames()
	if pos < 0 || n == 0 || pos > float64(n-1) {
		return 0
	}
	i := int(pos)
	frac := pos - float64(i)
	s0 := float64(b.Samples[i*Channels+ch])
	if frac == 0 || i+1 >= n {
		return s0
	}
	s1 := float64(b.Samples[(i+1)*Channels+ch])
	return s0 + (s1-s0)*frac
}

// Slice returns the frames in [from, to), clamped to the buffer.
func (b Buffer) Slice(from, to int) []int16 {
	n := b.Frames()
	from = max(0, min(from, n))
	to = max(from, min(to, n))
	return b.Samples[from*Channels : to*Channels]
}

// Peaks reduces the buffer to n normalized (0..1) amplitude buckets for the
// signal preview band.
func (b Buffer) Peaks(n int) []float64 {
	frames := b.Frames()
	if n <= 0 || frames == 0 {
		return nil
	}
	out := make([]float64, n)
	for i := range out {
		from := i * frames / n
		to := max(from+1, (i+1)*frames/n)
		peak := 0.0
		for f := from; f < to && f < frames; f++ {
			for ch := 0; ch < Channels; ch++ {
				peak = math.Max(peak, math.Abs(float64(b.Samples[f*Channels+ch])))
			}
		}
		out[i] = math.Min(1, peak/32767)
	}
	return out
}
