package mutate

import (
	"math"
	"sort"

	"splice-cli/internal/model"
	"splice-cli/internal/store"
)

const (
	DefaultDuplicateGapSec  = 0.06
	DefaultJoinToleranceSec = 0.08
	DefaultImageSec         = 5.0
)

// Options carries the editor tunables that shape edits.
type Options struct {
	DuplicateGapSec  float64
	JoinToleranceSec float64
	// DefaultImageSec is the length given to a freshly placed still image.
	DefaultImageSec float64
	// ExtendDuration lets end trims grow past the current arrangement length.
	ExtendDuration bool
}

func DefaultOptions() Options {
	return Options{
		DuplicateGapSec:  DefaultDuplicateGapSec,
		JoinToleranceSec: DefaultJoinToleranceSec,
		DefaultImageSec:  DefaultImageSec,
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.DuplicateGapSec <= 0 {
		o.DuplicateGapSec = d.DuplicateGapSec
	}
	if o.JoinToleranceSec <= 0 {
		o.JoinToleranceSec = d.JoinToleranceSec
	}
	if o.DefaultImageSec <= 0 {
		o.DefaultImageSec = d.DefaultImageSec
	}
	return o
}

// validate checks the whole candidate: every clip satisfies its own
// invariants and no two clips on a track intersect.
func validate(db *store.DB) error {
	byTrack := map[string][]model.Clip{}
	for _, c := range db.Clips {
		if !c.Valid() {
			return invalid("clip %s violates placement bounds", c.ID)
		}
		byTrack[c.Track] = append(byTrack[c.Track], c)
	}
	for track, cs := range byTrack {
		sort.Slice(cs, func(i, j int) bool { return cs[i].TimeSec < cs[j].TimeSec })
		for i := 1; i < len(cs); i++ {
			if cs[i].TimeSec < cs[i-1].EndSec()-model.Epsilon {
				return invalid("clips %s and %s overlap on %s", cs[i-1].ID, cs[i].ID, track)
			}
		}
	}
	return nil
}

// commit validates cand and, if it holds, swaps its clips and counters into db.
func commit(db, cand *store.DB) error {
	if err := validate(cand); err != nil {
		return err
	}
	db.ReplaceClips(cand.Clips)
	db.NextSegment = cand.NextSegment
	return nil
}

func ensureUnlocked(db *store.DB, clips ...model.Clip) error {
	for _, c := range clips {
		if db.IsLocked(c.Track) {
			return LockedError{Track: c.Track}
		}
	}
	return nil
}

func findClip(db *store.DB, id string) (model.Clip, error) {
	c, ok := db.FindClip(id)
	if !ok {
		return model.Clip{}, NotFoundError{Kind: "clip", ID: id}
	}
	return *c, nil
}

// partners returns the other members of c's link group.
func partners(db *store.DB, c model.Clip) []model.Clip {
	var out []model.Clip
	for _, p := range db.LinkGroup(c.Group()) {
		if p.ID != c.ID {
			out = append(out, p)
		}
	}
	return out
}

func groupIDs(db *store.DB, c model.Clip) map[string]bool {
	out := map[string]bool{}
	for _, p := range db.LinkGroup(c.Group()) {
		out[p.ID] = true
	}
	return out
}

func setClip(db *store.DB, c model.Clip) {
	if p, ok := db.FindClip(c.ID); ok {
		*p = c
		return
	}
	db.Clips = append(db.Clips, c)
}

func dropClips(db *store.DB, ids map[string]bool) int {
	kept := db.Clips[:0:0]
	n := 0
	for _, c := range db.Clips {
		if ids[c.ID] {
			n++
			continue
		}
		kept = append(kept, c)
	}
	db.Clips = kept
	return n
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
