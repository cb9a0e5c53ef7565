package audio

import (
	"math"
	"time"
)

type State int

const (
	Stopped State = iota
	Playing
	Scrubbing
)

func (s State) String() string {
	switch s {
	case Playing:
		return "playing"
	case Scrubbing:
		return "scrubbing"
	}
	return "stopped"
}

// MediaClock reports the position of an audible media source. ok is false
// when no unmuted source is sounding.
type MediaClock interface {
	MediaTime() (sec float64, ok bool)
}

// Transport owns the playhead while playing or scrubbing. The three states
// are exclusive.
type Transport struct {
	state State
	pos   float64
	end   float64
	last  time.Time
	clock MediaClock
}

func NewTransport() *Transport { return &Transport{} }

func (t *Transport) State() State      { return t.state }
func (t *Transport) Position() float64 { return t.pos }
func (t *Transport) End() float64      { return t.end }

// SetEnd updates the arrangement length; playback past it stops.
func (t *Transport) SetEnd(sec float64) { t.end = math.Max(0, sec) }

func (t *Transport) SetClock(c MediaClock) { t.clock = c }

// Play starts from the current position, rewinding first when parked at the
// end. Returns false if there is nothing to play.
func (t *Transport) Play(now time.Time) bool {
	if t.end <= 0 {
		return false
	}
	if t.pos >= t.end {
		t.pos = 0
	}
	t.state = Playing
	t.last = now
	return true
}

func (t *Transport) Pause() {
	if t.state == Playing {
		t.state = Stopped
	}
}

// Toggle flips between playing and stopped. A scrub in progress is ended.
func (t *Transport) Toggle(now time.Time) State {
	if t.state == Playing {
		t.Pause()
		return t.state
	}
	t.state = Stopped
	t.Play(now)
	return t.state
}

func (t *Transport) Seek(sec float64) {
	t.pos = math.Max(0, sec)
}

// BeginScrub takes the playhead from playback.
func (t *Transport) BeginScrub(sec float64) {
	t.state = Scrubbing
	t.Seek(sec)
}

func (t *Transport) EndScrub() {
	if t.state == Scrubbing {
		t.state = Stopped
	}
}

// Tick advances a playing transport to now. The media clock wins when it has
// a position, otherwise wall time elapsed since the last tick is added.
func (t *Transport) Tick(now time.Time) (pos float64, stopped bool) {
	if t.state != Playing {
		return t.pos, false
	}
	if sec, ok := t.mediaTime(); ok {
		t.pos = sec
	} else if d := now.Sub(t.last); d > 0 {
		t.pos += d.Seconds()
	}
	t.last = now
	if t.pos >= t.end {
		t.pos = t.end
		t.state = Stopped
		return t.pos, true
	}
	return t.pos, false
}

func (t *Transport) mediaTime() (float64, bool) {
	if t.clock == nil {
		return 0, false
	}
	return t.clock.MediaTime()
}
