package mutate

import (
	"errors"
	"math"
	"testing"

	"splice-cli/internal/model"
	"splice-cli/internal/store"
)

func fptr(v float64) *float64 { return &v }

func near(a, b float64) bool { return math.Abs(a-b) < 1e-6 }

func mkClip(id, res, track string, at, dur, off, src float64) model.Clip {
	return model.Clip{
		ID:                id,
		ResourceID:        res,
		Track:             track,
		TimeSec:           at,
		DurationSec:       dur,
		StartOffsetSec:    off,
		SourceDurationSec: src,
		LinkGroupID:       id,
	}
}

func mkDB(clips ...model.Clip) *store.DB {
	db := store.NewDB("test")
	db.Clips = append(db.Clips, clips...)
	db.SortClips()
	for _, c := range clips {
		if rid, n, ok := store.ParseClipID(c.ID); ok && n >= db.NextSegment[rid] {
			db.NextSegment[rid] = n + 1
		}
	}
	return db
}

func assertValid(t *testing.T, db *store.DB) {
	t.Helper()
	if err := validate(db); err != nil {
		t.Fatalf("invariants violated: %v", err)
	}
}

func TestAppend_AssignsSegmentIDsAndLanes(t *testing.T) {
	db := store.NewDB("test")
	res := model.Resource{ID: "a", Kind: model.ResourceAudio, DurationSec: 10}

	c1, err := Append(db, res, Patch{}, DefaultOptions())
	if err != nil {
		t.Fatalf("Append: %v", err)
	}
	if c1.ID != "a::clip::0" || c1.Track != "Audio S1" || c1.TimeSec != 0 || c1.DurationSec != 10 {
		t.Fatalf("unexpected first clip: %+v", c1)
	}

	c2, err := Append(db, res, Patch{}, DefaultOptions())
	if err != nil {
		t.Fatalf("Append: %v", err)
	}
	if c2.ID != "a::clip::1" || c2.Track != "Audio S1" || !near(c2.TimeSec, 10) {
		t.Fatalf("expected second clip after the first on Audio S1; got %+v", c2)
	}

	c3, err := Append(db, res, Patch{TimeSec: fptr(5)}, DefaultOptions())
	if err != nil {
		t.Fatalf("Append: %v", err)
	}
	if c3.Track != "Audio S2" {
		t.Fatalf("expected overlapping clip on Audio S2; got %q", c3.Track)
	}
	assertValid(t, db)
}

func TestAppend_VideoWithAudioCreatesLinkedClip(t *testing.T) {
	db := store.NewDB("test")
	res := model.Resource{ID: "v", Kind: model.ResourceVideo, DurationSec: 8, VideoAudio: model.VideoAudioPresent}

	c, err := Append(db, res, Patch{}, DefaultOptions())
	if err != nil {
		t.Fatalf("Append: %v", err)
	}
	if c.Track != "Video 1" {
		t.Fatalf("expected Video 1; got %q", c.Track)
	}
	group := db.LinkGroup(c.ID)
	if len(group) != 2 {
		t.Fatalf("expected linked pair; got %d clips", len(group))
	}
	var audio model.Clip
	for _, g := range group {
		if g.ID != c.ID {
			audio = g
		}
	}
	if audio.Track != "Video Audio 1" || audio.TimeSec != c.TimeSec || audio.DurationSec != c.DurationSec {
		t.Fatalf("linked audio does not mirror video: %+v", audio)
	}
}

func TestAppend_InvalidOffsetLeavesDBUntouched(t *testing.T) {
	db := store.NewDB("test")
	res := model.Resource{ID: "a", Kind: model.ResourceAudio, DurationSec: 10}
	before := db.Snapshot().Signature

	_, err := Append(db, res, Patch{StartOffsetSec: fptr(20)}, DefaultOptions())
	if !errors.Is(err, ErrInvalidEdit) {
		t.Fatalf("expected ErrInvalidEdit; got %v", err)
	}
	if db.Snapshot().Signature != before || len(db.NextSegment) != 0 {
		t.Fatalf("expected db untouched")
	}
}

func TestUpsert_CreatesThenPatches(t *testing.T) {
	db := store.NewDB("test")
	res := model.Resource{ID: "a", Kind: model.ResourceAudio, DurationSec: 10}

	c, err := Upsert(db, res, "a::clip::4", Patch{TimeSec: fptr(1), DurationSec: fptr(3)}, DefaultOptions())
	if err != nil {
		t.Fatalf("Upsert create: %v", err)
	}
	if c.TimeSec != 1 || c.DurationSec != 3 {
		t.Fatalf("unexpected created clip: %+v", c)
	}
	if db.NextSegment["a"] != 5 {
		t.Fatalf("expected next segment 5; got %d", db.NextSegment["a"])
	}

	c, err = Upsert(db, res, "a::clip::4", Patch{DurationSec: fptr(50)}, DefaultOptions())
	if err != nil {
		t.Fatalf("Upsert patch: %v", err)
	}
	if !near(c.DurationSec, 10) {
		t.Fatalf("expected duration clamped to source; got %v", c.DurationSec)
	}
	assertValid(t, db)
}

func TestRemove_TakesLinkGroup(t *testing.T) {
	v := mkClip("v::clip::0", "v", "Video 1", 0, 4, 0, 8)
	a := mkClip("v::clip::1", "v", "Video Audio 1", 0, 4, 0, 8)
	a.LinkGroupID = v.ID
	other := mkClip("x::clip::0", "x", "Audio S1", 0, 2, 0, 2)
	db := mkDB(v, a, other)

	if n := Remove(db, []string{"v::clip::1"}); n != 2 {
		t.Fatalf("expected 2 removed; got %d", n)
	}
	if len(db.Clips) != 1 || db.Clips[0].ID != other.ID {
		t.Fatalf("unexpected clips left: %+v", db.Clips)
	}

	db.Locks["Audio S1"] = true
	if n := Remove(db, []string{other.ID}); n != 0 {
		t.Fatalf("expected locked clip to survive; removed %d", n)
	}
}

func TestSplitJoin_IsInverse(t *testing.T) {
	db := mkDB(mkClip("a::clip::0", "a", "Audio S1", 2, 4, 1, 20))
	before := db.Snapshot().Signature

	sr, err := Split(db, "a::clip::0", 4)
	if err != nil {
		t.Fatalf("Split: %v", err)
	}
	left, _ := db.FindClip(sr.LeftID)
	right, _ := db.FindClip(sr.RightID)
	if !near(left.DurationSec, 2) || !near(right.TimeSec, 4) || !near(right.StartOffsetSec, 3) || !near(right.DurationSec, 2) {
		t.Fatalf("unexpected halves: left=%+v right=%+v", *left, *right)
	}
	if right.LinkGroupID != right.ID {
		t.Fatalf("expected right half in its own link group; got %q", right.LinkGroupID)
	}
	assertValid(t, db)

	jr, err := Join(db, sr.LeftID, sr.RightID, DefaultOptions())
	if err != nil {
		t.Fatalf("Join: %v", err)
	}
	if jr.KeepID != "a::clip::0" {
		t.Fatalf("expected join into the earlier clip; got %q", jr.KeepID)
	}
	if got := db.Snapshot().Signature; got != before {
		t.Fatalf("expected split+join to restore the original placement")
	}
}

func TestSplit_ClampsCutAndRejectsShortClips(t *testing.T) {
	db := mkDB(
		mkClip("a::clip::0", "a", "Audio S1", 2, 4, 0, 20),
		mkClip("b::clip::0", "b", "Audio S2", 0, 0.15, 0, 20),
	)
	sr, err := Split(db, "a::clip::0", 2.01)
	if err != nil {
		t.Fatalf("Split: %v", err)
	}
	if !near(sr.CutSec, 2.1) {
		t.Fatalf("expected cut clamped to 2.1; got %v", sr.CutSec)
	}
	if _, err := Split(db, "b::clip::0", 0.07); !errors.Is(err, ErrInvalidEdit) {
		t.Fatalf("expected ErrInvalidEdit; got %v", err)
	}
	if _, err := Split(db, "nope", 1); err == nil {
		t.Fatalf("expected not found")
	} else if _, ok := err.(NotFoundError); !ok {
		t.Fatalf("expected NotFoundError; got %T", err)
	}
}

func TestSplit_SplitsLinkedPartners(t *testing.T) {
	v := mkClip("v::clip::0", "v", "Video 1", 0, 8, 0, 8)
	a := mkClip("v::clip::1", "v", "Video Audio 1", 0, 8, 0, 8)
	a.LinkGroupID = v.ID
	db := mkDB(v, a)

	sr, err := Split(db, v.ID, 3)
	if err != nil {
		t.Fatalf("Split: %v", err)
	}
	pr, ok := sr.Partners[a.ID]
	if !ok {
		t.Fatalf("expected linked audio split")
	}
	right, _ := db.FindClip(pr)
	if right.LinkGroupID != sr.RightID || !near(right.TimeSec, 3) {
		t.Fatalf("expected partner right half linked to %s at 3; got %+v", sr.RightID, *right)
	}
	if len(db.LinkGroup(v.ID)) != 2 || len(db.LinkGroup(sr.RightID)) != 2 {
		t.Fatalf("expected two linked pairs")
	}
	assertValid(t, db)
}

func TestTrim_KeepsOneSide(t *testing.T) {
	db := mkDB(mkClip("a::clip::0", "a", "Audio S1", 0, 10, 0, 10))

	res, err := Trim(db, "a::clip::0", 4, KeepRight)
	if err != nil {
		t.Fatalf("Trim: %v", err)
	}
	if len(db.Clips) != 1 || db.Clips[0].ID != res.KeepID {
		t.Fatalf("expected only the kept half; got %+v", db.Clips)
	}
	kept := db.Clips[0]
	if !near(kept.TimeSec, 4) || !near(kept.StartOffsetSec, 4) || !near(kept.DurationSec, 6) {
		t.Fatalf("unexpected kept half: %+v", kept)
	}
	if _, err := Trim(db, kept.ID, 5, Side("middle")); !errors.Is(err, ErrInvalidEdit) {
		t.Fatalf("expected ErrInvalidEdit for bad side; got %v", err)
	}
}

func TestJoin_Rejections(t *testing.T) {
	db := mkDB(
		mkClip("a::clip::0", "a", "Audio S1", 0, 2, 0, 20),
		mkClip("a::clip::1", "a", "Audio S1", 2.5, 2, 2.5, 20),
		mkClip("a::clip::2", "a", "Audio S2", 2, 2, 2, 20),
		mkClip("b::clip::0", "b", "Audio S1", 5, 1, 0, 20),
	)
	if _, err := Join(db, "a::clip::0", "a::clip::1", DefaultOptions()); !errors.Is(err, ErrNotContiguous) {
		t.Fatalf("expected ErrNotContiguous; got %v", err)
	}
	if _, err := Join(db, "a::clip::0", "a::clip::2", DefaultOptions()); !errors.Is(err, ErrInvalidEdit) {
		t.Fatalf("expected ErrInvalidEdit for cross-track join; got %v", err)
	}
	if _, err := Join(db, "a::clip::1", "b::clip::0", DefaultOptions()); !errors.Is(err, ErrKindMismatch) {
		t.Fatalf("expected ErrKindMismatch; got %v", err)
	}
	if len(db.Clips) != 4 {
		t.Fatalf("expected db untouched after rejected joins")
	}
}

func TestDuplicate_AppendsAfterTrackEnd(t *testing.T) {
	db := mkDB(
		mkClip("a::clip::0", "a", "Audio S1", 0, 2, 0, 20),
		mkClip("b::clip::0", "b", "Audio S1", 3, 2, 0, 20),
		mkClip("v::clip::0", "v", "Video 1", 0, 1, 0, 20),
	)
	n, err := Duplicate(db, []string{"b::clip::0", "a::clip::0"}, DefaultDuplicateGapSec)
	if err != nil {
		t.Fatalf("Duplicate: %v", err)
	}
	if n != 2 {
		t.Fatalf("expected 2 copies; got %d", n)
	}
	a1, ok := db.FindClip("a::clip::1")
	if !ok || !near(a1.TimeSec, 5.06) {
		t.Fatalf("expected copy of a at 5.06; got %+v", a1)
	}
	b1, ok := db.FindClip("b::clip::1")
	if !ok || !near(b1.TimeSec, 7.12) {
		t.Fatalf("expected copy of b at 7.12; got %+v", b1)
	}
	if len(db.ClipsOnTrack("Video 1")) != 1 {
		t.Fatalf("expected other tracks untouched")
	}
	assertValid(t, db)
}

func TestMove_ShiftsLinkGroupByDelta(t *testing.T) {
	v := mkClip("v::clip::0", "v", "Video 1", 0, 4, 0, 8)
	a := mkClip("v::clip::1", "v", "Video Audio 1", 0, 4, 0, 8)
	a.LinkGroupID = v.ID
	db := mkDB(v, a)

	res, err := Move(db, v.ID, MoveRequest{TimeSec: 6})
	if err != nil {
		t.Fatalf("Move: %v", err)
	}
	if !near(res.DeltaSec, 6) {
		t.Fatalf("expected delta 6; got %v", res.DeltaSec)
	}
	moved, _ := db.FindClip(a.ID)
	if !near(moved.TimeSec, 6) || moved.Track != "Video Audio 1" {
		t.Fatalf("expected linked audio at 6 on Video Audio 1; got %+v", *moved)
	}
	assertValid(t, db)
}

func TestMove_ReallocatesOnOverlap(t *testing.T) {
	db := mkDB(
		mkClip("x::clip::0", "x", "Audio S1", 0, 4, 0, 4),
		mkClip("y::clip::0", "y", "Audio S1", 10, 4, 0, 4),
	)
	res, err := Move(db, "y::clip::0", MoveRequest{Track: "Audio S1", TimeSec: 2})
	if err != nil {
		t.Fatalf("Move: %v", err)
	}
	if res.Clip.Track != "Audio S2" {
		t.Fatalf("expected reallocation to Audio S2; got %q", res.Clip.Track)
	}

	res, err = Move(db, "y::clip::0", MoveRequest{Track: "Video 1", TimeSec: 20})
	if err != nil {
		t.Fatalf("Move: %v", err)
	}
	if res.Clip.Track != "Audio S1" && res.Clip.Track != "Audio S2" {
		t.Fatalf("expected audio clip to stay in an audio lane; got %q", res.Clip.Track)
	}
	assertValid(t, db)
}

func TestMove_LockedTrackRejects(t *testing.T) {
	db := mkDB(mkClip("x::clip::0", "x", "Audio S1", 0, 4, 0, 4))
	if _, err := SetLock(db, "Audio S1", true); err != nil {
		t.Fatalf("SetLock: %v", err)
	}
	_, err := Move(db, "x::clip::0", MoveRequest{TimeSec: 3})
	if !errors.Is(err, ErrTrackLocked) {
		t.Fatalf("expected ErrTrackLocked; got %v", err)
	}
	if c, _ := db.FindClip("x::clip::0"); c.TimeSec != 0 {
		t.Fatalf("expected clip unchanged")
	}
}

func TestMove_SnapsToZero(t *testing.T) {
	db := mkDB(mkClip("x::clip::0", "x", "Audio S1", 3, 1, 0, 4))
	snap := NewSnapper(100, 0, 0)
	res, err := Move(db, "x::clip::0", MoveRequest{TimeSec: 0.04, Snap: &snap})
	if err != nil {
		t.Fatalf("Move: %v", err)
	}
	if res.Clip.TimeSec != 0 {
		t.Fatalf("expected snap to 0; got %v", res.Clip.TimeSec)
	}
}

func TestSnapper(t *testing.T) {
	db := mkDB(mkClip("x::clip::0", "x", "Audio S1", 0, 5, 0, 5))
	s := NewSnapper(100, 0, 0)

	if got := s.SnapTime(db, "Audio S1", 0.04, nil); got != 0 {
		t.Fatalf("expected zero snap; got %v", got)
	}
	if got := s.SnapTime(db, "Audio S1", 5.05, nil); !near(got, 5) {
		t.Fatalf("expected snap to clip end; got %v", got)
	}
	if got := s.SnapTime(db, "Audio S1", 2.5, nil); got != 2.5 {
		t.Fatalf("expected no snap; got %v", got)
	}
	s.Enabled = false
	if got := s.SnapTime(db, "Audio S1", 0.04, nil); got != 0.04 {
		t.Fatalf("expected disabled snapper to pass through; got %v", got)
	}
}

func TestTrimEdge_ClampsToNeighboursAndSource(t *testing.T) {
	db := mkDB(
		mkClip("a::clip::0", "a", "Audio S1", 2, 4, 1, 20),
		mkClip("b::clip::0", "b", "Audio S1", 7, 2, 0, 2),
	)
	c, err := TrimEdge(db, "a::clip::0", TrimEdgeRequest{Edge: EdgeStart, TimeSec: 0}, DefaultOptions())
	if err != nil {
		t.Fatalf("TrimEdge start: %v", err)
	}
	if !near(c.TimeSec, 1) || !near(c.StartOffsetSec, 0) || !near(c.EndSec(), 6) {
		t.Fatalf("expected start clamped by source offset; got %+v", c)
	}

	c, err = TrimEdge(db, "a::clip::0", TrimEdgeRequest{Edge: EdgeEnd, TimeSec: 12}, DefaultOptions())
	if err != nil {
		t.Fatalf("TrimEdge end: %v", err)
	}
	if !near(c.EndSec(), 7) {
		t.Fatalf("expected end clamped by next clip; got %v", c.EndSec())
	}
	assertValid(t, db)
}

func TestTrimEdge_ExtendDuration(t *testing.T) {
	db := mkDB(mkClip("a::clip::0", "a", "Audio S1", 0, 2, 0, 20))

	c, err := TrimEdge(db, "a::clip::0", TrimEdgeRequest{Edge: EdgeEnd, TimeSec: 5}, DefaultOptions())
	if err != nil {
		t.Fatalf("TrimEdge: %v", err)
	}
	if !near(c.DurationSec, 2) {
		t.Fatalf("expected end held at arrangement length; got %v", c.DurationSec)
	}

	opts := DefaultOptions()
	opts.ExtendDuration = true
	c, err = TrimEdge(db, "a::clip::0", TrimEdgeRequest{Edge: EdgeEnd, TimeSec: 5}, opts)
	if err != nil {
		t.Fatalf("TrimEdge: %v", err)
	}
	if !near(c.DurationSec, 5) {
		t.Fatalf("expected extended duration 5; got %v", c.DurationSec)
	}
}

func TestSetMute_ReportsChange(t *testing.T) {
	db := mkDB(mkClip("a::clip::0", "a", "Audio S1", 0, 2, 0, 20))
	res, err := SetMute(db, "Audio S1", true)
	if err != nil || !res.Changed || !db.IsMuted("Audio S1") {
		t.Fatalf("expected mute applied; res=%+v err=%v", res, err)
	}
	res, err = SetMute(db, "Audio S1", true)
	if err != nil || res.Changed {
		t.Fatalf("expected no change on repeat; res=%+v err=%v", res, err)
	}
	if _, err := SetMute(db, "__drop_top__", true); !errors.Is(err, ErrInvalidEdit) {
		t.Fatalf("expected dropzone rejected; got %v", err)
	}
}

func TestAppend_ImageUsesConfiguredLength(t *testing.T) {
	res := model.Resource{ID: "still", Kind: model.ResourceImage}

	db := store.NewDB("test")
	c, err := Append(db, res, Patch{}, Options{DefaultImageSec: 2.5})
	if err != nil {
		t.Fatalf("Append: %v", err)
	}
	if !near(c.DurationSec, 2.5) || c.AutoDuration {
		t.Fatalf("expected a 2.5s still; got %+v", c)
	}

	// Unset options fall back to the package default.
	c, err = Append(db, res, Patch{}, Options{})
	if err != nil {
		t.Fatalf("Append: %v", err)
	}
	if !near(c.DurationSec, DefaultImageSec) || !near(c.TimeSec, 2.5) {
		t.Fatalf("expected a default-length still after the first; got %+v", c)
	}
	assertValid(t, db)
}
