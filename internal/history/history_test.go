package history

import (
	"testing"

	"splice-cli/internal/model"
	"splice-cli/internal/store"
)

func edit(db *store.DB, i int) {
	db.Clips = append(db.Clips, model.Clip{
		ID:                store.ClipID("r", i),
		ResourceID:        "r",
		Track:             "Audio S1",
		TimeSec:           float64(i),
		DurationSec:       1,
		SourceDurationSec: 1,
	})
	db.SortClips()
}

func TestUndoRedo_RestoresSignatures(t *testing.T) {
	db := store.NewDB("main")
	m := New(0)

	var sigs []string
	sigs = append(sigs, db.Snapshot().Signature)
	const n = 5
	for i := 0; i < n; i++ {
		before := db.Snapshot()
		edit(db, i)
		if !m.Record("main", before, db.Snapshot()) {
			t.Fatalf("expected edit %d recorded", i)
		}
		sigs = append(sigs, db.Snapshot().Signature)
	}

	for i := n - 1; i >= 0; i-- {
		if !m.Undo("main", db) {
			t.Fatalf("expected undo %d", i)
		}
		if got := db.Snapshot().Signature; got != sigs[i] {
			t.Fatalf("undo %d: signature mismatch", i)
		}
	}
	if m.Undo("main", db) {
		t.Fatalf("expected empty undo stack")
	}

	for i := 1; i <= n; i++ {
		if !m.Redo("main", db) {
			t.Fatalf("expected redo %d", i)
		}
		if got := db.Snapshot().Signature; got != sigs[i] {
			t.Fatalf("redo %d: signature mismatch", i)
		}
	}
	if m.CanRedo("main") {
		t.Fatalf("expected empty redo stack")
	}
}

func TestRecord_IgnoresNoOpsAndClearsRedo(t *testing.T) {
	db := store.NewDB("main")
	m := New(0)

	snap := db.Snapshot()
	if m.Record("main", snap, snap) {
		t.Fatalf("expected unchanged edit to be ignored")
	}

	before := db.Snapshot()
	edit(db, 0)
	m.Record("main", before, db.Snapshot())
	m.Undo("main", db)
	if !m.CanRedo("main") {
		t.Fatalf("expected redo available after undo")
	}

	before = db.Snapshot()
	edit(db, 1)
	m.Record("main", before, db.Snapshot())
	if m.CanRedo("main") {
		t.Fatalf("expected redo cleared by a new edit")
	}
}

func TestRecord_TrimsToDepth(t *testing.T) {
	db := store.NewDB("main")
	m := New(3)
	for i := 0; i < 10; i++ {
		before := db.Snapshot()
		edit(db, i)
		m.Record("main", before, db.Snapshot())
	}
	if got := len(m.Export("main").Undo); got != 3 {
		t.Fatalf("expected 3 undo entries; got %d", got)
	}
}

func TestExportImport(t *testing.T) {
	db := store.NewDB("main")
	m := New(0)
	before := db.Snapshot()
	edit(db, 0)
	m.Record("main", before, db.Snapshot())

	other := New(0)
	other.Import("main", m.Export("main"))
	if !other.Undo("main", db) {
		t.Fatalf("expected imported undo to apply")
	}
	if len(db.Clips) != 0 {
		t.Fatalf("expected clips restored to empty; got %d", len(db.Clips))
	}
	if other.Applying() {
		t.Fatalf("expected applying flag cleared")
	}
}
