package engine

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"splice-cli/internal/history"
	"splice-cli/internal/model"
	"splice-cli/internal/mutate"
	"splice-cli/internal/sched"
	"splice-cli/internal/store"
)

func testResources() model.ResourceMap {
	return model.NewResourceMap(
		model.Resource{ID: "drums", Kind: model.ResourceAudio, DurationSec: 8},
		model.Resource{ID: "clip", Kind: model.ResourceVideo, DurationSec: 6, VideoAudio: model.VideoAudioPresent},
		model.Resource{ID: "melody", Kind: model.ResourceAudio, DurationSec: 4, Notes: []model.NoteEvent{
			{TimeSec: 0.5, DurationSec: 0.5, Pitch: 60},
			{TimeSec: 1.5, DurationSec: 0.5, Pitch: 62},
			{TimeSec: 3, DurationSec: 0.5, Pitch: 64},
		}},
	)
}

func newTestEngine(t *testing.T) (*Engine, *sched.Manual, *store.Store) {
	t.Helper()
	st := &store.Store{Dir: t.TempDir()}
	m := sched.NewManual()
	e := New(DefaultConfig(), Deps{
		Scheduler: m,
		Resources: testResources(),
		Store:     st,
		History:   history.New(0),
	})
	if _, err := e.Open(context.Background(), "main"); err != nil {
		t.Fatalf("Open: %v", err)
	}
	return e, m, st
}

func TestEngine_PersistRoundTripKeepsTracks(t *testing.T) {
	e, m, st := newTestEngine(t)

	for _, id := range []string{"drums", "clip", "melody"} {
		if _, err := e.Append("main", id, mutate.Patch{}); err != nil {
			t.Fatalf("Append %s: %v", id, err)
		}
	}
	if _, err := e.SetMute("main", "Audio S1", true); err != nil {
		t.Fatalf("SetMute: %v", err)
	}
	if m.Pending() != 1 {
		t.Fatalf("expected one debounced persist; got %d", m.Pending())
	}
	m.Flush()

	want := e.Tracks("main")

	other := New(DefaultConfig(), Deps{Resources: testResources(), Store: st})
	if _, err := other.Open(context.Background(), "main"); err != nil {
		t.Fatalf("Open: %v", err)
	}
	got := other.Tracks("main")
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("tracks differ after reload:\n got %+v\nwant %+v", got, want)
	}

	events := 0
	for _, tr := range got {
		events += tr.EventCount
	}
	// drums: 1 clip, clip: video + linked audio, melody: 3 notes.
	if events != 6 {
		t.Fatalf("expected 6 events; got %d", events)
	}
	if !other.History().CanUndo("main") {
		t.Fatalf("expected history to survive reload")
	}
}

func TestEngine_UndoRedoThroughHistory(t *testing.T) {
	e, _, _ := newTestEngine(t)
	r, err := e.Append("main", "drums", mutate.Patch{})
	if err != nil {
		t.Fatalf("Append: %v", err)
	}
	if _, err := e.Split("main", r.Clip.ID, 3); err != nil {
		t.Fatalf("Split: %v", err)
	}
	if n := len(e.DB("main").Clips); n != 2 {
		t.Fatalf("expected 2 clips; got %d", n)
	}
	if !e.Undo("main") {
		t.Fatalf("expected undo")
	}
	if n := len(e.DB("main").Clips); n != 1 {
		t.Fatalf("expected 1 clip after undo; got %d", n)
	}
	if !e.Redo("main") {
		t.Fatalf("expected redo")
	}
	if n := len(e.DB("main").Clips); n != 2 {
		t.Fatalf("expected 2 clips after redo; got %d", n)
	}
}

func TestEngine_RejectedEditIsNoOp(t *testing.T) {
	e, m, _ := newTestEngine(t)
	_, err := e.Append("main", "missing", mutate.Patch{})
	var nf mutate.NotFoundError
	if !errors.As(err, &nf) || nf.Kind != "resource" {
		t.Fatalf("expected resource NotFoundError; got %v", err)
	}
	if e.History().CanUndo("main") || m.Pending() != 0 {
		t.Fatalf("expected rejected edit to leave no history or pending save")
	}
}

func TestEngine_JoinNext(t *testing.T) {
	e, _, _ := newTestEngine(t)
	r, _ := e.Append("main", "drums", mutate.Patch{})
	if _, err := e.Split("main", r.Clip.ID, 4); err != nil {
		t.Fatalf("Split: %v", err)
	}
	if _, err := e.JoinNext("main", r.Clip.ID); err != nil {
		t.Fatalf("JoinNext: %v", err)
	}
	c, ok := e.DB("main").FindClip(r.Clip.ID)
	if !ok || c.DurationSec != 8 {
		t.Fatalf("expected rejoined clip of 8s; got %+v", c)
	}
}

func TestEngine_ReloadPicksUpExternalWrites(t *testing.T) {
	e, m, st := newTestEngine(t)
	if _, err := e.Append("main", "drums", mutate.Patch{}); err != nil {
		t.Fatalf("Append: %v", err)
	}
	if changed, _ := e.Reload(context.Background(), "main"); changed {
		t.Fatalf("reload must not run over unsaved edits")
	}
	m.Flush()
	if e.Dirty("main") {
		t.Fatalf("expected clean scope after flush")
	}
	if changed, err := e.Reload(context.Background(), "main"); err != nil || changed {
		t.Fatalf("reload of own write: changed=%v err=%v", changed, err)
	}

	other := New(DefaultConfig(), Deps{Resources: testResources(), Store: st, Scheduler: sched.NewManual()})
	if _, err := other.Open(context.Background(), "main"); err != nil {
		t.Fatalf("Open: %v", err)
	}
	if _, err := other.Remove("main", "drums::clip::0"); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if err := other.Persist(context.Background(), "main"); err != nil {
		t.Fatalf("Persist: %v", err)
	}

	changed, err := e.Reload(context.Background(), "main")
	if err != nil || !changed {
		t.Fatalf("expected external change; changed=%v err=%v", changed, err)
	}
	if len(e.DB("main").Clips) != 0 {
		t.Fatalf("expected reloaded scope to be empty; got %+v", e.DB("main").Clips)
	}
}

func TestEngine_AppendReadsImageLengthFromConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Edit.DefaultImageSec = 1.5
	e := New(cfg, Deps{Resources: model.NewResourceMap(model.Resource{ID: "logo", Kind: model.ResourceImage})})
	res, err := e.Append("main", "logo", mutate.Patch{})
	if err != nil {
		t.Fatalf("Append: %v", err)
	}
	if res.Clip.DurationSec != 1.5 {
		t.Fatalf("expected 1.5s from config; got %v", res.Clip.DurationSec)
	}
}

func TestEngine_NewScopeStartsAtConfiguredView(t *testing.T) {
	st := &store.Store{Dir: t.TempDir()}
	cfg := DefaultConfig()
	cfg.View.PxPerSec = 25
	e := New(cfg, Deps{Store: st, Resources: testResources()})
	db, err := e.Open(context.Background(), "fresh")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if db.View.PxPerSec != 25 || !db.View.AutoFit {
		t.Fatalf("expected the configured starting view; got %+v", db.View)
	}
	if got := e.DB("other").View.PxPerSec; got != 25 {
		t.Fatalf("expected in-memory scopes to start at 25px/s; got %v", got)
	}
	if err := e.Persist(context.Background(), "fresh"); err != nil {
		t.Fatalf("Persist: %v", err)
	}

	// A saved scope keeps its own view whatever the config says now.
	cfg.View.PxPerSec = 40
	e2 := New(cfg, Deps{Store: st, Resources: testResources()})
	db, err = e2.Open(context.Background(), "fresh")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if db.View.PxPerSec != 25 {
		t.Fatalf("expected the stored view to win; got %+v", db.View)
	}
}
