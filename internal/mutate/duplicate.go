package mutate

import (
	"sort"
	"strings"

	"splice-cli/internal/model"
	"splice-cli/internal/store"
)

// Duplicate copies the given clips (with their link groups) to the end of
// their tracks. Copies land contiguously after each track's current end,
// separated by gap seconds, in their original order. Linked copies stay
// aligned and share a fresh link group. It returns the number of clips added.
func Duplicate(db *store.DB, clipIDs []string, gap float64) (int, error) {
	if db == nil {
		return 0, invalid("no scope")
	}
	if gap < 0 {
		gap = 0
	}

	type unit struct {
		start float64
		clips []model.Clip
	}
	seen := map[string]bool{}
	var units []unit
	for _, id := range clipIDs {
		c, err := findClip(db, strings.TrimSpace(id))
		if err != nil {
			return 0, err
		}
		if seen[c.Group()] {
			continue
		}
		seen[c.Group()] = true
		group := db.LinkGroup(c.Group())
		if err := ensureUnlocked(db, group...); err != nil {
			return 0, err
		}
		u := unit{start: group[0].TimeSec, clips: group}
		for _, g := range group {
			if g.TimeSec < u.start {
				u.start = g.TimeSec
			}
		}
		units = append(units, u)
	}
	if len(units) == 0 {
		return 0, nil
	}
	sort.SliceStable(units, func(i, j int) bool { return units[i].start < units[j].start })

	cursor := map[string]float64{}
	for _, u := range units {
		for _, c := range u.clips {
			if _, ok := cursor[c.Track]; ok {
				continue
			}
			end := 0.0
			for _, o := range db.ClipsOnTrack(c.Track) {
				if e := o.EndSec(); e > end {
					end = e
				}
			}
			cursor[c.Track] = end + gap
		}
	}

	cand := db.Clone()
	added := 0
	for _, u := range units {
		at := 0.0
		for _, c := range u.clips {
			if cursor[c.Track] > at {
				at = cursor[c.Track]
			}
		}
		shift := at - u.start
		newGroup := ""
		for _, c := range u.clips {
			cp := c
			cp.ID = cand.NextClipID(c.ResourceID)
			if newGroup == "" {
				newGroup = cp.ID
			}
			cp.LinkGroupID = newGroup
			cp.TimeSec = c.TimeSec + shift
			cand.Clips = append(cand.Clips, cp)
			added++
		}
		for _, c := range u.clips {
			if e := c.EndSec() + shift + gap; e > cursor[c.Track] {
				cursor[c.Track] = e
			}
		}
	}
	if err := commit(db, cand); err != nil {
		return 0, err
	}
	return added, nil
}
