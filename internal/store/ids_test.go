package store

import (
	"testing"

	"splice-cli/internal/model"
)

func TestClipID_ParseRoundTrip(t *testing.T) {
	id := ClipID("res-a::b", 7)
	res, n, ok := ParseClipID(id)
	if !ok || res != "res-a::b" || n != 7 {
		t.Fatalf("ParseClipID(%q) = %q, %d, %v", id, res, n, ok)
	}
	if _, _, ok := ParseClipID("plain-id"); ok {
		t.Fatalf("expected non-canonical id to be rejected")
	}
}

func TestNextClipID_SkipsTakenIndexes(t *testing.T) {
	db := NewDB("")
	db.Clips = []model.Clip{{ID: ClipID("r", 0), ResourceID: "r", Track: "Audio S1"}}

	if got := db.NextClipID("r"); got != ClipID("r", 1) {
		t.Fatalf("expected r::clip::1; got %q", got)
	}
	if got := db.NextClipID("r"); got != ClipID("r", 2) {
		t.Fatalf("expected r::clip::2; got %q", got)
	}
}
