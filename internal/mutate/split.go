package mutate

import (
	"math"
	"strings"

	"splice-cli/internal/model"
	"splice-cli/internal/store"
)

type SplitResult struct {
	LeftID  string
	RightID string
	// Partners maps each split linked clip to its new right half.
	Partners map[string]string
	CutSec   float64
}

// Side selects which half of a cut survives a Trim.
type Side string

const (
	KeepLeft  Side = "left"
	KeepRight Side = "right"
)

type TrimResult struct {
	KeepID   string
	RemoveID string
}

type JoinResult struct {
	KeepID    string
	RemovedID string
}

// Split cuts clipID at cutSec. The cut is clamped so both halves keep the
// minimum clip length. The left half keeps the id; the right half gets a new id
// and its own link group, shared with the right halves of linked partners.
func Split(db *store.DB, clipID string, cutSec float64) (SplitResult, error) {
	if db == nil {
		return SplitResult{}, invalid("no scope")
	}
	c, err := findClip(db, strings.TrimSpace(clipID))
	if err != nil {
		return SplitResult{}, err
	}
	group := partners(db, c)
	if err := ensureUnlocked(db, append(group, c)...); err != nil {
		return SplitResult{}, err
	}
	cand := db.Clone()
	res, err := splitOn(cand, c, group, cutSec)
	if err != nil {
		return SplitResult{}, err
	}
	if err := commit(db, cand); err != nil {
		return SplitResult{}, err
	}
	return res, nil
}

func splitOn(cand *store.DB, c model.Clip, group []model.Clip, cutSec float64) (SplitResult, error) {
	lo := c.TimeSec + model.MinClipSec
	hi := c.EndSec() - model.MinClipSec
	if hi-lo < model.Epsilon || math.IsNaN(cutSec) {
		return SplitResult{}, invalid("clip %s is too short to split", c.ID)
	}
	cut := clamp(cutSec, lo, hi)

	left, right := cutClip(c, cut, cand.NextClipID(c.ResourceID))
	right.LinkGroupID = right.ID
	setClip(cand, left)
	cand.Clips = append(cand.Clips, right)

	out := SplitResult{LeftID: left.ID, RightID: right.ID, CutSec: cut, Partners: map[string]string{}}
	for _, p := range group {
		if cut <= p.TimeSec+model.MinClipSec-model.Epsilon || cut >= p.EndSec()-model.MinClipSec+model.Epsilon {
			continue
		}
		pl, pr := cutClip(p, cut, cand.NextClipID(p.ResourceID))
		pr.LinkGroupID = right.ID
		setClip(cand, pl)
		cand.Clips = append(cand.Clips, pr)
		out.Partners[p.ID] = pr.ID
	}
	return out, nil
}

func cutClip(c model.Clip, cut float64, rightID string) (model.Clip, model.Clip) {
	left := c
	left.DurationSec = cut - c.TimeSec
	left.AutoDuration = false

	right := c
	right.ID = rightID
	right.TimeSec = cut
	right.StartOffsetSec = c.StartOffsetSec + (cut - c.TimeSec)
	right.DurationSec = c.EndSec() - cut
	right.AutoDuration = false
	return left, right
}

// Trim cuts clipID at cutSec and discards the side not kept, including the
// matching halves of linked partners.
func Trim(db *store.DB, clipID string, cutSec float64, keep Side) (TrimResult, error) {
	if keep != KeepLeft && keep != KeepRight {
		return TrimResult{}, invalid("keep must be %q or %q", KeepLeft, KeepRight)
	}
	if db == nil {
		return TrimResult{}, invalid("no scope")
	}
	c, err := findClip(db, strings.TrimSpace(clipID))
	if err != nil {
		return TrimResult{}, err
	}
	group := partners(db, c)
	if err := ensureUnlocked(db, append(group, c)...); err != nil {
		return TrimResult{}, err
	}
	cand := db.Clone()
	sr, err := splitOn(cand, c, group, cutSec)
	if err != nil {
		return TrimResult{}, err
	}

	drop := map[string]bool{}
	out := TrimResult{}
	if keep == KeepLeft {
		out = TrimResult{KeepID: sr.LeftID, RemoveID: sr.RightID}
		drop[sr.RightID] = true
		for _, r := range sr.Partners {
			drop[r] = true
		}
	} else {
		out = TrimResult{KeepID: sr.RightID, RemoveID: sr.LeftID}
		drop[sr.LeftID] = true
		for l := range sr.Partners {
			drop[l] = true
		}
	}
	dropClips(cand, drop)
	if err := commit(db, cand); err != nil {
		return TrimResult{}, err
	}
	return out, nil
}

// Join merges two adjacent pieces of the same resource on the same track into
// the earlier one. Both the timeline gap and the source gap must be within the
// join tolerance. Linked partners that line up the same way are merged too.
func Join(db *store.DB, leftID, rightID string, opts Options) (JoinResult, error) {
	opts = opts.withDefaults()
	if db == nil {
		return JoinResult{}, invalid("no scope")
	}
	a, err := findClip(db, strings.TrimSpace(leftID))
	if err != nil {
		return JoinResult{}, err
	}
	b, err := findClip(db, strings.TrimSpace(rightID))
	if err != nil {
		return JoinResult{}, err
	}
	if a.ID == b.ID {
		return JoinResult{}, invalid("cannot join a clip with itself")
	}
	if a.ResourceID != b.ResourceID {
		return JoinResult{}, ErrKindMismatch
	}
	if a.Track != b.Track {
		return JoinResult{}, invalid("clips %s and %s are on different tracks", a.ID, b.ID)
	}
	if b.TimeSec < a.TimeSec {
		a, b = b, a
	}
	if !joinable(a, b, opts.JoinToleranceSec) {
		return JoinResult{}, ErrNotContiguous
	}
	ga, gb := partners(db, a), partners(db, b)
	if err := ensureUnlocked(db, append(append(ga, gb...), a, b)...); err != nil {
		return JoinResult{}, err
	}

	cand := db.Clone()
	merge(cand, a, b)
	for _, p := range ga {
		for _, q := range gb {
			if p.Track == q.Track && p.ResourceID == q.ResourceID && joinable(p, q, opts.JoinToleranceSec) {
				merge(cand, p, q)
				break
			}
		}
	}
	if err := commit(db, cand); err != nil {
		return JoinResult{}, err
	}
	return JoinResult{KeepID: a.ID, RemovedID: b.ID}, nil
}

func joinable(a, b model.Clip, tol float64) bool {
	gap := b.TimeSec - a.EndSec()
	srcGap := b.StartOffsetSec - (a.StartOffsetSec + a.DurationSec)
	return math.Abs(gap) <= tol+model.Epsilon && math.Abs(srcGap) <= tol+model.Epsilon
}

func merge(cand *store.DB, a, b model.Clip) {
	a.DurationSec = math.Min(b.EndSec()-a.TimeSec, a.SourceDurationSec-a.StartOffsetSec)
	setClip(cand, a)
	dropClips(cand, map[string]bool{b.ID: true})
}
