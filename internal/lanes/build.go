package lanes

import (
	"splice-cli/internal/model"
	"splice-cli/internal/store"
)

// Build derives the ordered track list from the current placements. The two
// dropzone sentinels bound the list; lock and mute state is applied by name.
func Build(db *store.DB, resources model.ResourceFinder) []model.Track {
	counts := map[string]int{}
	kinds := map[string]model.TrackKind{}
	for _, c := range db.Clips {
		counts[c.Track] += clipEvents(c, resources)
		if _, ok := kinds[c.Track]; !ok && resources != nil {
			if r, ok := resources.FindResource(c.ResourceID); ok {
				kinds[c.Track] = model.TrackKindFor(r.Kind)
			}
		}
	}

	names := make([]string, 0, len(counts))
	for name := range counts {
		names = append(names, name)
	}
	sortLanes(names)

	out := make([]model.Track, 0, len(names)+2)
	out = append(out, model.Track{Name: DropTop, Kind: model.TrackDropzone, Stage: model.StageDrop})
	for _, name := range names {
		t := model.Track{
			Name:       name,
			Locked:     db.IsLocked(name),
			Muted:      db.IsMuted(name),
			EventCount: counts[name],
		}
		if l, ok := ParseName(name); ok {
			t.Kind = l.Kind
			t.Lane = l.Index
			t.Linked = l.Linked
			t.Stage = l.Stage()
			if l.Kind == model.TrackAudio {
				t.Channels = l.Channels
			}
		} else {
			t.Kind = kinds[name]
			if t.Kind == "" {
				t.Kind = model.TrackAudio
			}
			t.Stage = model.StageVisual
			if t.Kind == model.TrackAudio {
				t.Stage = model.StageAudio
				t.Channels = model.ChannelsStereo
			}
		}
		out = append(out, t)
	}
	out = append(out, model.Track{Name: DropBottom, Kind: model.TrackDropzone, Stage: model.StageDrop})
	return out
}

// clipEvents counts a clip as one event, or as the note events visible in its
// source window when the resource carries notes.
func clipEvents(c model.Clip, resources model.ResourceFinder) int {
	if resources == nil {
		return 1
	}
	r, ok := resources.FindResource(c.ResourceID)
	if !ok || len(r.Notes) == 0 {
		return 1
	}
	n := 0
	for _, ev := range r.Notes {
		if ev.TimeSec >= c.StartOffsetSec && ev.TimeSec < c.StartOffsetSec+c.DurationSec {
			n++
		}
	}
	if n == 0 {
		return 1
	}
	return n
}

// Content drops the sentinel tracks.
func Content(tracks []model.Track) []model.Track {
	out := make([]model.Track, 0, len(tracks))
	for _, t := range tracks {
		if t.Kind != model.TrackDropzone {
			out = append(out, t)
		}
	}
	return out
}
