package store

import (
	"reflect"
	"testing"

	"splice-cli/internal/model"
)

func messyDB() *DB {
	db := NewDB("t")
	db.Clips = []model.Clip{
		{ID: "a::clip::0", ResourceID: "a", Track: "Video 1", TimeSec: 0, DurationSec: 4, SourceDurationSec: 10},
		{ID: "b::clip::0", ResourceID: "b", Track: "Video 1", TimeSec: 2, DurationSec: 3, SourceDurationSec: 10},
		{ID: "c::clip::3", ResourceID: "c", Track: "Video 1", TimeSec: 2, DurationSec: 1, SourceDurationSec: 10},
		{ID: "d::clip::0", ResourceID: "d", Track: "Audio S1", TimeSec: -3, DurationSec: 20, StartOffsetSec: 9.95, SourceDurationSec: 10},
		{ID: "e::clip::0", ResourceID: "e", Track: "Audio S1", TimeSec: 0.05, DurationSec: 0.01, SourceDurationSec: 0},
	}
	return db
}

func TestNormalize_ResolvesOverlapsAndClamps(t *testing.T) {
	db := messyDB()
	if !Normalize(db) {
		t.Fatalf("expected changes")
	}

	for _, c := range db.Clips {
		if !c.Valid() {
			t.Fatalf("invalid clip after normalize: %+v", c)
		}
		if c.LinkGroupID != c.ID {
			t.Fatalf("expected default link group; got %+v", c)
		}
	}
	for _, track := range db.TrackNames() {
		cs := db.ClipsOnTrack(track)
		for i := 1; i < len(cs); i++ {
			if cs[i].TimeSec < cs[i-1].EndSec()-model.Epsilon {
				t.Fatalf("overlap on %s: %+v then %+v", track, cs[i-1], cs[i])
			}
		}
	}

	b, _ := db.FindClip("b::clip::0")
	c, _ := db.FindClip("c::clip::3")
	// b and c both start at 2; b sorts first by id and lands at 4, c follows at 7.
	if b.TimeSec != 4 || c.TimeSec != 7 {
		t.Fatalf("unexpected push-forward: b=%v c=%v", b.TimeSec, c.TimeSec)
	}
	if db.NextSegment["c"] != 4 {
		t.Fatalf("expected segment counter to move past imported id; got %d", db.NextSegment["c"])
	}
}

func TestNormalize_Idempotent(t *testing.T) {
	db := messyDB()
	Normalize(db)
	once := db.Clone()

	if Normalize(db) {
		t.Fatalf("second pass reported changes")
	}
	if !reflect.DeepEqual(once.Clips, db.Clips) {
		t.Fatalf("second pass changed clips:\nonce: %+v\ntwice: %+v", once.Clips, db.Clips)
	}
}
