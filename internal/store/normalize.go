package store

import (
	"math"
	"sort"

	"splice-cli/internal/model"
)

// Normalize repairs a clip set loaded from outside the edit operations: every
// clip is clamped to the placement invariants and, per track, clips that start
// before the running end of their predecessor are pushed forward to it.
//
// Running it on its own output changes nothing. It reports whether anything moved.
func Normalize(db *DB) bool {
	changed := false

	byTrack := map[string][]int{}
	for i := range db.Clips {
		if clampClip(&db.Clips[i]) {
			changed = true
		}
		byTrack[db.Clips[i].Track] = append(byTrack[db.Clips[i].Track], i)
	}

	for _, idxs := range byTrack {
		sort.SliceStable(idxs, func(i, j int) bool {
			a, b := db.Clips[idxs[i]], db.Clips[idxs[j]]
			if a.TimeSec != b.TimeSec {
				return a.TimeSec < b.TimeSec
			}
			return a.ID < b.ID
		})
		cursor := 0.0
		for _, idx := range idxs {
			c := &db.Clips[idx]
			if c.TimeSec < cursor-model.Epsilon {
				c.TimeSec = cursor
				changed = true
			}
			cursor = c.EndSec()
		}
	}

	for _, c := range db.Clips {
		if res, n, ok := ParseClipID(c.ID); ok && db.NextSegment[res] <= n {
			if db.NextSegment == nil {
				db.NextSegment = map[string]int{}
			}
			db.NextSegment[res] = n + 1
			changed = true
		}
	}

	db.SortClips()
	return changed
}

func clampClip(c *model.Clip) bool {
	before := *c
	if c.LinkGroupID == "" {
		c.LinkGroupID = c.ID
	}
	if c.SourceDurationSec < model.MinClipSec || math.IsNaN(c.SourceDurationSec) {
		c.SourceDurationSec = model.MinClipSec
	}
	if c.StartOffsetSec < 0 || math.IsNaN(c.StartOffsetSec) {
		c.StartOffsetSec = 0
	}
	if max := c.SourceDurationSec - model.MinClipSec; c.StartOffsetSec > max {
		c.StartOffsetSec = max
	}
	if c.DurationSec < model.MinClipSec || math.IsNaN(c.DurationSec) {
		c.DurationSec = model.MinClipSec
	}
	if max := c.SourceDurationSec - c.StartOffsetSec; c.DurationSec > max {
		c.DurationSec = max
	}
	if c.TimeSec < 0 || math.IsNaN(c.TimeSec) {
		c.TimeSec = 0
	}
	return *c != before
}
