package resource

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"splice-cli/internal/model"
)

func TestCatalog_PutSaveOpen(t *testing.T) {
	dir := t.TempDir()
	c, err := Open(PathIn(dir))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if len(c.List()) != 0 {
		t.Fatalf("expected empty catalog")
	}
	rs := []model.Resource{
		{ID: "drums", Kind: model.ResourceAudio, Src: "media/drums.wav", DurationSec: 8, Label: "Drum loop",
			Notes: []model.NoteEvent{{TimeSec: 0, DurationSec: 0.1, Pitch: 36, Velocity: 1}}},
		{ID: "intro", Kind: model.ResourceVideo, Src: "media/intro.mp4", DurationSec: 12, VideoAudio: model.VideoAudioPresent},
		{ID: "cover", Kind: model.ResourceImage, Width: 1280, Height: 720},
	}
	for _, r := range rs {
		if err := c.Put(r); err != nil {
			t.Fatalf("Put %s: %v", r.ID, err)
		}
	}
	if err := c.Save(); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, err := Open(PathIn(dir))
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	list := got.List()
	if len(list) != 3 || list[0].ID != "cover" || list[2].ID != "intro" {
		t.Fatalf("unexpected list: %+v", list)
	}
	r, ok := got.FindResource("drums")
	if !ok || len(r.Notes) != 1 || r.Notes[0].Pitch != 36 || r.Label != "Drum loop" {
		t.Fatalf("unexpected drums resource: %+v", r)
	}
	if !got.Remove("cover") || got.Remove("cover") {
		t.Fatalf("unexpected Remove results")
	}
}

func TestValidate(t *testing.T) {
	bad := []model.Resource{
		{Kind: model.ResourceAudio, Src: "a.wav"},
		{ID: "a::b", Kind: model.ResourceAudio, Src: "a.wav"},
		{ID: "a", Kind: "midi", Src: "a.mid"},
		{ID: "a", Kind: model.ResourceAudio},
		{ID: "a", Kind: model.ResourceAudio, Src: "a.wav", DurationSec: -1},
		{ID: "a", Kind: model.ResourceAudio, Src: "a.wav", VideoAudio: model.VideoAudioPresent},
		{ID: "a", Kind: model.ResourceAudio, Src: "a.wav", Notes: []model.NoteEvent{{DurationSec: 0.5, Pitch: 200}}},
		{ID: "a", Kind: model.ResourceAudio, Src: "a.wav", Peaks: []float64{0.5, 1.5}},
	}
	for i, r := range bad {
		if err := Validate(r); err == nil {
			t.Fatalf("case %d: expected validation error for %+v", i, r)
		}
	}
	if err := Validate(model.Resource{ID: "still.png", Kind: model.ResourceImage}); err != nil {
		t.Fatalf("image without src should be valid: %v", err)
	}
}

func TestOpen_RejectsDuplicates(t *testing.T) {
	path := PathIn(t.TempDir())
	data := "resources:\n  - id: a\n    kind: audio\n    src: a.wav\n  - id: a\n    kind: audio\n    src: b.wav\n"
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := Open(path); err == nil || !strings.Contains(err.Error(), "duplicate") {
		t.Fatalf("expected duplicate error; got %v", err)
	}
}

func TestSlugAndKind(t *testing.T) {
	if got := SlugID("/tmp/My Song (final).WAV"); got != "my-song-final" {
		t.Fatalf("SlugID = %q", got)
	}
	if k, ok := KindForPath("clip.MOV"); !ok || k != model.ResourceVideo {
		t.Fatalf("KindForPath = %v %v", k, ok)
	}
	if _, ok := KindForPath("notes.txt"); ok {
		t.Fatalf("expected unknown extension")
	}
}

func TestResolver(t *testing.T) {
	root := t.TempDir()
	if err := os.MkdirAll(filepath.Join(root, "media"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(root, "media", "a.wav"), []byte("RIFF"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	r := NewResolver(root)
	if got := r.Resolve("media/a.wav"); got != filepath.Join(root, "media", "a.wav") {
		t.Fatalf("Resolve relative = %q", got)
	}
	if got := r.Resolve("https://example.com/a.mp3"); got != "https://example.com/a.mp3" {
		t.Fatalf("Resolve url = %q", got)
	}
	if got := r.Resolve("media/missing.wav"); got != "" {
		t.Fatalf("expected missing source to resolve empty; got %q", got)
	}
	if err := os.WriteFile(filepath.Join(root, "media", "missing.wav"), []byte("RIFF"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if got := r.Resolve("media/missing.wav"); got != "" {
		t.Fatalf("expected memoized miss; got %q", got)
	}
	r.Forget()
	if got := r.Resolve("media/missing.wav"); got == "" {
		t.Fatalf("expected hit after Forget")
	}
}
