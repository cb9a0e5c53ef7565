package mutate

import (
	"math"

	"splice-cli/internal/store"
)

const (
	DefaultSnapThresholdPx = 10.0
	DefaultZeroSnapSec     = 0.06
)

// Snapper pulls edited times onto nearby landmarks: zero, the arrangement end,
// the playhead, section bounds, the active grid tick and clip edges on the
// destination track.
type Snapper struct {
	Enabled     bool
	ThresholdPx float64
	// ZeroSnapSec is the separate window within which a time collapses to 0.
	ZeroSnapSec float64
	PxPerSec    float64
	PlayheadSec float64
	// GridStepSec is the spacing of the ruler's current major ticks; 0 disables grid snapping.
	GridStepSec float64
}

func NewSnapper(pxPerSec, playheadSec, gridStepSec float64) Snapper {
	return Snapper{
		Enabled:     true,
		ThresholdPx: DefaultSnapThresholdPx,
		ZeroSnapSec: DefaultZeroSnapSec,
		PxPerSec:    pxPerSec,
		PlayheadSec: playheadSec,
		GridStepSec: gridStepSec,
	}
}

func (s Snapper) thresholdSec() float64 {
	if s.PxPerSec <= 0 {
		return 0
	}
	return s.ThresholdPx / s.PxPerSec
}

// Candidates lists landmark times for track, ignoring clips in exclude.
func (s Snapper) Candidates(db *store.DB, track string, exclude map[string]bool) []float64 {
	out := []float64{0, s.PlayheadSec}
	end := 0.0
	for _, c := range db.Clips {
		if exclude[c.ID] {
			continue
		}
		if e := c.EndSec(); e > end {
			end = e
		}
		if c.Track == track {
			out = append(out, c.TimeSec, c.EndSec())
		}
	}
	out = append(out, end)
	for _, sec := range db.Sections {
		out = append(out, sec.StartSec, sec.EndSec)
	}
	return out
}

// snapDelta returns the correction that moves t onto the nearest landmark,
// and whether any landmark was within reach.
func (s Snapper) snapDelta(t float64, cands []float64) (float64, bool) {
	if math.Abs(t) <= s.ZeroSnapSec {
		return -t, true
	}
	limit := s.thresholdSec()
	best, found := 0.0, false
	try := func(c float64) {
		d := c - t
		if math.Abs(d) <= limit && (!found || math.Abs(d) < math.Abs(best)) {
			best, found = d, true
		}
	}
	for _, c := range cands {
		try(c)
	}
	if s.GridStepSec > 0 {
		try(math.Round(t/s.GridStepSec) * s.GridStepSec)
	}
	return best, found
}

// SnapTime snaps a single edge time on track.
func (s Snapper) SnapTime(db *store.DB, track string, t float64, exclude map[string]bool) float64 {
	if !s.Enabled {
		return t
	}
	d, ok := s.snapDelta(t, s.Candidates(db, track, exclude))
	if !ok {
		return t
	}
	return t + d
}

// SnapSpan snaps a clip of length dur starting at start, using whichever of
// its edges lands closer to a landmark. It returns the new start.
func (s Snapper) SnapSpan(db *store.DB, track string, start, dur float64, exclude map[string]bool) float64 {
	if !s.Enabled {
		return start
	}
	cands := s.Candidates(db, track, exclude)
	ds, okS := s.snapDelta(start, cands)
	if okS && math.Abs(start) <= s.ZeroSnapSec {
		return 0
	}
	de, okE := s.snapDelta(start+dur, cands)
	switch {
	case okS && (!okE || math.Abs(ds) <= math.Abs(de)):
		return start + ds
	case okE:
		return start + de
	}
	return start
}
