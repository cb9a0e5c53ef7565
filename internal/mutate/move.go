package mutate

import (
	"math"
	"strings"

	"splice-cli/internal/lanes"
	"splice-cli/internal/model"
	"splice-cli/internal/store"
)

type MoveRequest struct {
	// Track is the lane under the drop point; empty keeps the current lane.
	Track   string
	TimeSec float64
	// Snap, when non-nil, pulls the clip's edges onto nearby landmarks.
	Snap *Snapper
}

type MoveResult struct {
	Clip     model.Clip
	DeltaSec float64
	// Moved lists every clip that changed, partners included.
	Moved []model.Clip
}

// Move repositions clipID keeping its duration and source offset. The target
// lane comes from the drop point; if that lane is incompatible, locked or
// occupied, a free lane of the same family (or a new one) is used. Linked
// partners shift by the same delta.
func Move(db *store.DB, clipID string, req MoveRequest) (MoveResult, error) {
	if db == nil {
		return MoveResult{}, invalid("no scope")
	}
	c, err := findClip(db, strings.TrimSpace(clipID))
	if err != nil {
		return MoveResult{}, err
	}
	group := partners(db, c)
	if err := ensureUnlocked(db, append(group, c)...); err != nil {
		return MoveResult{}, err
	}
	if math.IsNaN(req.TimeSec) || math.IsInf(req.TimeSec, 0) {
		return MoveResult{}, invalid("time is not finite")
	}

	exclude := groupIDs(db, c)
	preferred := strings.TrimSpace(req.Track)
	switch {
	case preferred == "":
		preferred = c.Track
	case lanes.IsDropzone(preferred):
		// Dropping onto a dropzone opens a fresh lane.
		preferred = c.Track
		if l, ok := lanes.ParseName(c.Track); ok {
			preferred = lanes.NewLane(db, l)
		}
	}

	t := req.TimeSec
	if req.Snap != nil {
		t = req.Snap.SnapSpan(db, preferred, t, c.DurationSec, exclude)
	}
	delta := t - c.TimeSec
	// The whole group must stay at or after zero.
	minStart := c.TimeSec
	for _, p := range group {
		minStart = math.Min(minStart, p.TimeSec)
	}
	if minStart+delta < 0 {
		delta = -minStart
	}

	cand := db.Clone()
	next := c
	next.TimeSec = c.TimeSec + delta
	// Drops on a lane of another family (e.g. a video onto an audio lane)
	// keep the clip's own family.
	next.Track = resolveFor(cand, c.Track, preferred, next.TimeSec, next.EndSec(), exclude)
	setClip(cand, next)

	out := MoveResult{Clip: next, DeltaSec: delta, Moved: []model.Clip{next}}
	for _, p := range group {
		p.TimeSec += delta
		p.Track = resolveFor(cand, p.Track, p.Track, p.TimeSec, p.EndSec(), exclude)
		setClip(cand, p)
		out.Moved = append(out.Moved, p)
	}
	if err := commit(db, cand); err != nil {
		return MoveResult{}, err
	}
	return out, nil
}

// Edge names the side of a clip a trim drags.
type Edge string

const (
	EdgeStart Edge = "start"
	EdgeEnd   Edge = "end"
)

type TrimEdgeRequest struct {
	Edge    Edge
	TimeSec float64
	Snap    *Snapper
}

// TrimEdge drags one edge of clipID to TimeSec while the other edge stays put.
// The result is clamped to the source window, to the neighbouring clips on the
// track and, unless opts.ExtendDuration is set, to the arrangement length.
// Linked partners receive the same geometry.
func TrimEdge(db *store.DB, clipID string, req TrimEdgeRequest, opts Options) (model.Clip, error) {
	if db == nil {
		return model.Clip{}, invalid("no scope")
	}
	c, err := findClip(db, strings.TrimSpace(clipID))
	if err != nil {
		return model.Clip{}, err
	}
	group := partners(db, c)
	if err := ensureUnlocked(db, append(group, c)...); err != nil {
		return model.Clip{}, err
	}
	if math.IsNaN(req.TimeSec) || math.IsInf(req.TimeSec, 0) {
		return model.Clip{}, invalid("time is not finite")
	}
	exclude := groupIDs(db, c)
	t := req.TimeSec
	if req.Snap != nil {
		t = req.Snap.SnapTime(db, c.Track, t, exclude)
	}

	// Neighbour bounds over every lane the group occupies.
	prevEnd, nextStart := 0.0, math.Inf(1)
	for _, m := range append(group, c) {
		for _, o := range db.ClipsOnTrack(m.Track) {
			if exclude[o.ID] {
				continue
			}
			if o.EndSec() <= m.TimeSec+model.Epsilon && o.EndSec() > prevEnd {
				prevEnd = o.EndSec()
			}
			if o.TimeSec >= m.EndSec()-model.Epsilon && o.TimeSec < nextStart {
				nextStart = o.TimeSec
			}
		}
	}

	next := c
	next.AutoDuration = false
	switch req.Edge {
	case EdgeStart:
		end := c.EndSec()
		lo := math.Max(prevEnd, c.TimeSec-c.StartOffsetSec)
		for _, p := range group {
			lo = math.Max(lo, c.TimeSec-p.StartOffsetSec)
		}
		start := clamp(t, lo, end-model.MinClipSec)
		next.TimeSec = start
		next.StartOffsetSec = c.StartOffsetSec + (start - c.TimeSec)
		next.DurationSec = end - start
	case EdgeEnd:
		hi := math.Min(nextStart, c.TimeSec+c.SourceDurationSec-c.StartOffsetSec)
		for _, p := range group {
			hi = math.Min(hi, c.TimeSec+p.SourceDurationSec-p.StartOffsetSec)
		}
		if !opts.ExtendDuration {
			hi = math.Min(hi, math.Max(db.ArrangementEnd(), c.EndSec()))
		}
		end := clamp(t, c.TimeSec+model.MinClipSec, hi)
		next.DurationSec = end - c.TimeSec
	default:
		return model.Clip{}, invalid("unknown edge %q", req.Edge)
	}

	cand := db.Clone()
	setClip(cand, next)
	delta := next.TimeSec - c.TimeSec
	for _, p := range group {
		p.TimeSec += delta
		p.StartOffsetSec += delta
		p.DurationSec = next.DurationSec
		p.AutoDuration = false
		setClip(cand, p)
	}
	if err := commit(db, cand); err != nil {
		return model.Clip{}, err
	}
	return next, nil
}
