package lanes

import (
	"testing"

	"splice-cli/internal/model"
	"splice-cli/internal/store"
)

func TestParseName_RoundTrip(t *testing.T) {
	cases := []struct {
		name string
		want Lane
	}{
		{"Video 2", Lane{Kind: model.TrackVideo, Index: 2}},
		{"Image 1", Lane{Kind: model.TrackImage, Index: 1}},
		{"Audio S1", Lane{Kind: model.TrackAudio, Channels: model.ChannelsStereo, Index: 1}},
		{"Audio M3", Lane{Kind: model.TrackAudio, Channels: model.ChannelsMono, Index: 3}},
		{"Video Audio 4", Lane{Kind: model.TrackAudio, Channels: model.ChannelsStereo, Linked: true, Index: 4}},
	}
	for _, tc := range cases {
		got, ok := ParseName(tc.name)
		if !ok || got != tc.want {
			t.Fatalf("ParseName(%q) = %+v, %v; want %+v", tc.name, got, ok, tc.want)
		}
		if back := Name(got); back != tc.name {
			t.Fatalf("Name(%+v) = %q; want %q", got, back, tc.name)
		}
	}

	if l, ok := ParseName("Video Audio M1"); !ok || !l.Linked || l.Channels != model.ChannelsMono {
		t.Fatalf("expected mono linked lane; got %+v %v", l, ok)
	}
	for _, bad := range []string{"", "Video", "Video 0", "Audio 2", "Drums", "Image x"} {
		if _, ok := ParseName(bad); ok {
			t.Fatalf("expected %q to be rejected", bad)
		}
	}
}

func dbWith(clips ...model.Clip) *store.DB {
	db := store.NewDB("t")
	db.Clips = clips
	db.SortClips()
	return db
}

func TestResolve_PrefersFreeCompatibleTrack(t *testing.T) {
	db := dbWith(model.Clip{ID: "a", ResourceID: "a", Track: "Video 1", TimeSec: 4, DurationSec: 3, SourceDurationSec: 10})
	want := LaneFor(model.ResourceVideo)

	if got := Resolve(db, want, "Video 1", 0, 3, nil); got != "Video 1" {
		t.Fatalf("expected preferred lane; got %q", got)
	}
	// Wrong family: audio lane is never used for video.
	if got := Resolve(db, want, "Audio S1", 0, 3, nil); got != "Video 1" {
		t.Fatalf("expected fallback to existing video lane; got %q", got)
	}
}

func TestResolve_DropOntoOccupiedLaneNeverOverlaps(t *testing.T) {
	db := dbWith(model.Clip{ID: "a", ResourceID: "a", Track: "Video 1", TimeSec: 4, DurationSec: 3, SourceDurationSec: 10})

	got := Resolve(db, LaneFor(model.ResourceVideo), "Video 1", 5, 8, nil)
	if got == "Video 1" {
		t.Fatalf("expected a different lane for an overlapping drop")
	}
	if got != "Video 2" {
		t.Fatalf("expected new lane Video 2; got %q", got)
	}
	if !Free(db, got, 5, 8, nil) {
		t.Fatalf("resolved lane %q is not free", got)
	}
}

func TestResolve_ScansLowestFreeLaneAndSkipsLocked(t *testing.T) {
	db := dbWith(
		model.Clip{ID: "a", ResourceID: "a", Track: "Audio S1", TimeSec: 0, DurationSec: 5, SourceDurationSec: 10},
		model.Clip{ID: "b", ResourceID: "b", Track: "Audio S2", TimeSec: 10, DurationSec: 5, SourceDurationSec: 10},
		model.Clip{ID: "c", ResourceID: "c", Track: "Audio S3", TimeSec: 10, DurationSec: 5, SourceDurationSec: 10},
	)
	want := LaneFor(model.ResourceAudio)
	if got := Resolve(db, want, "", 1, 2, nil); got != "Audio S2" {
		t.Fatalf("expected first free lane Audio S2; got %q", got)
	}
	db.Locks["Audio S2"] = true
	if got := Resolve(db, want, "Audio S2", 1, 2, nil); got != "Audio S3" {
		t.Fatalf("expected locked lane to be skipped; got %q", got)
	}
	// Excluding the occupant frees its own lane (used when moving a clip in place).
	if got := Resolve(db, want, "Audio S1", 1, 2, map[string]bool{"a": true}); got != "Audio S1" {
		t.Fatalf("expected excluded clip to free its lane; got %q", got)
	}
}

func TestBuild_OrdersStagesAndBoundsWithDropzones(t *testing.T) {
	res := model.NewResourceMap(
		model.Resource{ID: "mel", Kind: model.ResourceAudio, DurationSec: 8, Notes: []model.NoteEvent{{TimeSec: 0.5, Pitch: 60}, {TimeSec: 1.5, Pitch: 62}, {TimeSec: 6, Pitch: 64}}},
	)
	db := dbWith(
		model.Clip{ID: "1", ResourceID: "mel", Track: "Audio S1", TimeSec: 0, DurationSec: 2, SourceDurationSec: 8},
		model.Clip{ID: "2", ResourceID: "v", Track: "Video Audio 1", TimeSec: 0, DurationSec: 2, SourceDurationSec: 8},
		model.Clip{ID: "3", ResourceID: "v", Track: "Video 2", TimeSec: 0, DurationSec: 2, SourceDurationSec: 8},
		model.Clip{ID: "4", ResourceID: "i", Track: "Image 1", TimeSec: 0, DurationSec: 2, SourceDurationSec: 8},
		model.Clip{ID: "5", ResourceID: "v", Track: "Video 1", TimeSec: 0, DurationSec: 2, SourceDurationSec: 8},
	)
	db.Locks["Video 2"] = true
	db.Mutes["Audio S1"] = true

	tracks := Build(db, res)
	var names []string
	for _, tr := range tracks {
		names = append(names, tr.Name)
	}
	want := []string{DropTop, "Video 1", "Video 2", "Image 1", "Video Audio 1", "Audio S1", DropBottom}
	if len(names) != len(want) {
		t.Fatalf("unexpected tracks %v", names)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Fatalf("track %d = %q; want %q (all: %v)", i, names[i], want[i], names)
		}
	}
	if !tracks[2].Locked || !tracks[5].Muted {
		t.Fatalf("flags not applied: %+v", tracks)
	}
	if tracks[5].EventCount != 2 {
		t.Fatalf("expected 2 note events in window; got %d", tracks[5].EventCount)
	}
	if tracks[0].Kind != model.TrackDropzone || tracks[len(tracks)-1].Kind != model.TrackDropzone {
		t.Fatalf("dropzones missing")
	}
	if len(Content(tracks)) != 5 {
		t.Fatalf("Content should drop sentinels")
	}
}
