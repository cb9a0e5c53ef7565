package mutate

import (
	"strings"

	"splice-cli/internal/lanes"
	"splice-cli/internal/model"
	"splice-cli/internal/store"
)

// Patch holds the optional placement fields a caller supplies. Nil fields
// keep their current value (or the default for new clips).
type Patch struct {
	Track          *string
	TimeSec        *float64
	DurationSec    *float64
	StartOffsetSec *float64
}

// Append places a new clip for res. The id is derived from the next segment
// number of the resource. A video with audio also gets a linked clip on a
// Video Audio lane that shares its link group.
func Append(db *store.DB, res model.Resource, patch Patch, opts Options) (model.Clip, error) {
	if db == nil {
		return model.Clip{}, invalid("no scope")
	}
	if strings.TrimSpace(res.ID) == "" || !res.Kind.Valid() {
		return model.Clip{}, invalid("resource %q has no usable kind", res.ID)
	}
	cand := db.Clone()
	c, err := place(cand, res, cand.NextClipID(res.ID), patch, nil, opts.withDefaults())
	if err != nil {
		return model.Clip{}, err
	}
	if res.HasVideoAudio() {
		if _, err := placeLinkedAudio(cand, res, c); err != nil {
			return model.Clip{}, err
		}
	}
	if err := commit(db, cand); err != nil {
		return model.Clip{}, err
	}
	return c, nil
}

// Upsert creates clipID if missing, or applies patch to it. Geometry changes
// are mirrored onto linked partners.
func Upsert(db *store.DB, res model.Resource, clipID string, patch Patch, opts Options) (model.Clip, error) {
	clipID = strings.TrimSpace(clipID)
	if db == nil || clipID == "" {
		return model.Clip{}, invalid("clip id is required")
	}
	existing, ok := db.FindClip(clipID)
	if !ok {
		if !res.Kind.Valid() {
			return model.Clip{}, invalid("resource %q has no usable kind", res.ID)
		}
		cand := db.Clone()
		c, err := place(cand, res, clipID, patch, nil, opts.withDefaults())
		if err != nil {
			return model.Clip{}, err
		}
		if rid, n, ok := store.ParseClipID(clipID); ok && rid == res.ID && n >= cand.NextSegment[rid] {
			cand.NextSegment[rid] = n + 1
		}
		if err := commit(db, cand); err != nil {
			return model.Clip{}, err
		}
		return c, nil
	}

	cur := *existing
	if res.ID != "" && res.ID != cur.ResourceID {
		return model.Clip{}, ErrKindMismatch
	}
	group := partners(db, cur)
	if err := ensureUnlocked(db, append(group, cur)...); err != nil {
		return model.Clip{}, err
	}

	cand := db.Clone()
	exclude := groupIDs(db, cur)
	next := cur
	if patch.StartOffsetSec != nil {
		next.StartOffsetSec = *patch.StartOffsetSec
	}
	if patch.DurationSec != nil {
		next.DurationSec = *patch.DurationSec
		next.AutoDuration = false
	}
	if patch.TimeSec != nil {
		next.TimeSec = *patch.TimeSec
	}
	if next.StartOffsetSec < 0 || next.StartOffsetSec > next.SourceDurationSec-model.MinClipSec+model.Epsilon {
		return model.Clip{}, invalid("start offset %.3f outside source", next.StartOffsetSec)
	}
	if next.TimeSec < 0 {
		return model.Clip{}, invalid("time %.3f is negative", next.TimeSec)
	}
	next.DurationSec = clamp(next.DurationSec, model.MinClipSec, next.SourceDurationSec-next.StartOffsetSec)

	preferred := cur.Track
	if patch.Track != nil {
		preferred = strings.TrimSpace(*patch.Track)
	}
	next.Track = resolveFor(cand, cur.Track, preferred, next.TimeSec, next.EndSec(), exclude)
	setClip(cand, next)

	for _, p := range group {
		p.TimeSec = next.TimeSec
		p.DurationSec = next.DurationSec
		p.StartOffsetSec = next.StartOffsetSec
		p.AutoDuration = next.AutoDuration
		if p.DurationSec > p.SourceDurationSec-p.StartOffsetSec {
			p.DurationSec = p.SourceDurationSec - p.StartOffsetSec
		}
		p.Track = resolveFor(cand, p.Track, p.Track, p.TimeSec, p.EndSec(), exclude)
		setClip(cand, p)
	}
	if err := commit(db, cand); err != nil {
		return model.Clip{}, err
	}
	return next, nil
}

// Remove deletes the given clips together with their link groups. Groups
// touching a locked track are skipped. It returns the number of clips removed.
func Remove(db *store.DB, clipIDs []string) int {
	if db == nil {
		return 0
	}
	drop := map[string]bool{}
	for _, id := range clipIDs {
		c, ok := db.FindClip(strings.TrimSpace(id))
		if !ok {
			continue
		}
		group := db.LinkGroup(c.Group())
		if ensureUnlocked(db, group...) != nil {
			continue
		}
		for _, g := range group {
			drop[g.ID] = true
		}
	}
	if len(drop) == 0 {
		return 0
	}
	return dropClips(db, drop)
}

// place builds a clip for res on cand and adds it. exclude is forwarded to
// lane resolution.
func place(cand *store.DB, res model.Resource, id string, patch Patch, exclude map[string]bool, opts Options) (model.Clip, error) {
	if _, taken := cand.FindClip(id); taken {
		return model.Clip{}, invalid("clip %s already exists", id)
	}
	src := res.SourceDuration()
	c := model.Clip{
		ID:                id,
		ResourceID:        res.ID,
		SourceDurationSec: src,
		LinkGroupID:       id,
	}
	if patch.StartOffsetSec != nil {
		c.StartOffsetSec = *patch.StartOffsetSec
	}
	if c.StartOffsetSec < 0 || c.StartOffsetSec > src-model.MinClipSec+model.Epsilon {
		return model.Clip{}, invalid("start offset %.3f outside source", c.StartOffsetSec)
	}
	switch {
	case patch.DurationSec != nil:
		c.DurationSec = *patch.DurationSec
	case res.Kind == model.ResourceImage:
		c.DurationSec = opts.DefaultImageSec
	default:
		c.DurationSec = src - c.StartOffsetSec
		c.AutoDuration = true
	}
	c.DurationSec = clamp(c.DurationSec, model.MinClipSec, src-c.StartOffsetSec)

	want := lanes.LaneFor(res.Kind)
	preferred := ""
	if patch.Track != nil {
		preferred = strings.TrimSpace(*patch.Track)
	}
	if lanes.IsDropzone(preferred) {
		preferred = lanes.NewLane(cand, want)
	}
	if patch.TimeSec != nil {
		if *patch.TimeSec < 0 {
			return model.Clip{}, invalid("time %.3f is negative", *patch.TimeSec)
		}
		c.TimeSec = *patch.TimeSec
	} else {
		// Without a time the clip goes after the last clip of its lane.
		track := lanes.Resolve(cand, want, preferred, 0, 0, exclude)
		for _, o := range cand.ClipsOnTrack(track) {
			if e := o.EndSec(); e > c.TimeSec {
				c.TimeSec = e
			}
		}
	}
	c.Track = lanes.Resolve(cand, want, preferred, c.TimeSec, c.EndSec(), exclude)
	cand.Clips = append(cand.Clips, c)
	return c, nil
}

func placeLinkedAudio(cand *store.DB, res model.Resource, video model.Clip) (model.Clip, error) {
	a := video
	a.ID = cand.NextClipID(res.ID)
	a.LinkGroupID = video.Group()
	a.Track = lanes.Resolve(cand, lanes.LinkedAudioLane(), "", a.TimeSec, a.EndSec(), nil)
	cand.Clips = append(cand.Clips, a)
	return a, nil
}

// resolveFor picks a destination for a clip currently on track, preferring
// preferred. Tracks whose names do not decode stay where they are.
func resolveFor(db *store.DB, track, preferred string, start, end float64, exclude map[string]bool) string {
	l, ok := lanes.ParseName(track)
	if !ok {
		return track
	}
	return lanes.Resolve(db, l, preferred, start, end, exclude)
}
