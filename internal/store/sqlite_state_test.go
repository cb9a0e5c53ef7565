package store

import (
	"context"
	"reflect"
	"testing"

	"splice-cli/internal/model"
)

func TestSQLiteState_SaveLoad_RoundTrip(t *testing.T) {
	ctx := context.Background()
	s := Store{Dir: t.TempDir()}

	db := NewDB("teaser")
	db.Clips = []model.Clip{
		{ID: "v::clip::0", ResourceID: "v", Track: "Video 1", TimeSec: 1, DurationSec: 3, StartOffsetSec: 0.5, SourceDurationSec: 8, LinkGroupID: "v::clip::0"},
		{ID: "v::clip::1", ResourceID: "v", Track: "Video Audio 1", TimeSec: 1, DurationSec: 3, StartOffsetSec: 0.5, SourceDurationSec: 8, LinkGroupID: "v::clip::0"},
	}
	db.NextSegment["v"] = 2
	db.Locks["Video 1"] = true
	db.Locks["Audio S4"] = true // lock on an empty lane persists too
	db.Mutes["Video Audio 1"] = true
	db.Sections = []model.Section{{Name: "intro", StartSec: 0, EndSec: 4}}
	db.View = model.ViewState{PxPerSec: 12, T0Sec: 0.5, ScrollY: 3, RowScale: 1.5}
	db.PlayheadSec = 2.25
	db.SortClips()

	if err := s.Save(ctx, db); err != nil {
		t.Fatalf("save: %v", err)
	}
	got, err := s.Load(ctx, "teaser")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !reflect.DeepEqual(db.Clips, got.Clips) {
		t.Fatalf("clips mismatch:\nwant %+v\ngot  %+v", db.Clips, got.Clips)
	}
	if !reflect.DeepEqual(db.Locks, got.Locks) || !reflect.DeepEqual(db.Mutes, got.Mutes) {
		t.Fatalf("flags mismatch: locks=%v mutes=%v", got.Locks, got.Mutes)
	}
	if got.View != db.View || got.PlayheadSec != 2.25 || len(got.Sections) != 1 {
		t.Fatalf("meta mismatch: %+v", got)
	}
	if got.NextSegment["v"] != 2 {
		t.Fatalf("expected next segment 2; got %d", got.NextSegment["v"])
	}

	scopes, err := s.Scopes(ctx)
	if err != nil || len(scopes) != 1 || scopes[0] != "teaser" {
		t.Fatalf("unexpected scopes %v err=%v", scopes, err)
	}
}

func TestSQLiteState_UnknownScopeLoadsEmpty(t *testing.T) {
	s := Store{Dir: t.TempDir()}
	got, err := s.Load(context.Background(), "nope")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got.Scope != "nope" || len(got.Clips) != 0 || got.View.PxPerSec <= 0 {
		t.Fatalf("unexpected empty scope: %+v", got)
	}
}

func TestSQLiteState_HistoryRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := Store{Dir: t.TempDir()}

	a := NewDB("x")
	a.Clips = []model.Clip{{ID: "r::clip::0", ResourceID: "r", Track: "Audio S1", DurationSec: 1, SourceDurationSec: 2}}
	b := NewDB("x")

	want := HistoryState{Undo: []Snapshot{b.Snapshot(), a.Snapshot()}, Redo: []Snapshot{a.Snapshot()}}
	if err := s.SaveHistory(ctx, "x", want); err != nil {
		t.Fatalf("save history: %v", err)
	}
	got, err := s.LoadHistory(ctx, "x")
	if err != nil {
		t.Fatalf("load history: %v", err)
	}
	if len(got.Undo) != 2 || len(got.Redo) != 1 {
		t.Fatalf("unexpected stacks: undo=%d redo=%d", len(got.Undo), len(got.Redo))
	}
	if got.Undo[1].Signature != a.Snapshot().Signature {
		t.Fatalf("signature mismatch")
	}
}
