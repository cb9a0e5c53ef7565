package lanes

import (
	"sort"

	"splice-cli/internal/model"
	"splice-cli/internal/store"
)

// Free reports whether [start, end) is unoccupied on track, ignoring clips in exclude.
func Free(db *store.DB, track string, start, end float64, exclude map[string]bool) bool {
	for _, c := range db.Clips {
		if c.Track != track || exclude[c.ID] {
			continue
		}
		if c.Overlaps(start, end) {
			return false
		}
	}
	return true
}

// Compatible reports whether track can hold clips of the wanted lane family.
func Compatible(track string, want Lane) bool {
	l, ok := ParseName(track)
	if !ok || l.Kind == model.TrackDropzone {
		return false
	}
	return l.Family() == want.Family()
}

// Resolve picks the track for a clip occupying [start, end).
//
// The preferred track wins when it is compatible, unlocked and free. Otherwise
// existing lanes of the same family are scanned in ascending index order, and
// when none is free the next lane index is allocated.
func Resolve(db *store.DB, want Lane, preferred string, start, end float64, exclude map[string]bool) string {
	if preferred != "" && Compatible(preferred, want) && !db.IsLocked(preferred) && Free(db, preferred, start, end, exclude) {
		return preferred
	}

	for _, l := range familyLanes(db, want.Family()) {
		if db.IsLocked(l.name) {
			continue
		}
		if Free(db, l.name, start, end, exclude) {
			return l.name
		}
	}
	return NewLane(db, want)
}

// NewLane names the lane one past the highest index of want's family. Locked
// empty lanes keep their index reserved.
func NewLane(db *store.DB, want Lane) string {
	maxIdx := 0
	for _, l := range familyLanes(db, want.Family()) {
		if l.lane.Index > maxIdx {
			maxIdx = l.lane.Index
		}
	}
	for name, locked := range db.Locks {
		if l, ok := ParseName(name); ok && locked && l.Family() == want.Family() && l.Index > maxIdx {
			maxIdx = l.Index
		}
	}
	next := want
	next.Index = maxIdx + 1
	return Name(next)
}

type namedLane struct {
	name string
	lane Lane
}

// familyLanes lists the lanes of one family currently holding clips, by index.
func familyLanes(db *store.DB, fam Family) []namedLane {
	seen := map[string]bool{}
	var out []namedLane
	for _, c := range db.Clips {
		if seen[c.Track] {
			continue
		}
		seen[c.Track] = true
		l, ok := ParseName(c.Track)
		if !ok || l.Family() != fam {
			continue
		}
		out = append(out, namedLane{name: c.Track, lane: l})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].lane.Index != out[j].lane.Index {
			return out[i].lane.Index < out[j].lane.Index
		}
		return out[i].name < out[j].name
	})
	return out
}
