package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func runCLI(t *testing.T, args []string) (stdout []byte, stderr []byte, err error) {
	t.Helper()

	cmd := NewRootCmd()

	var outBuf bytes.Buffer
	var errBuf bytes.Buffer
	cmd.SetOut(&outBuf)
	cmd.SetErr(&errBuf)
	cmd.SetArgs(args)

	e := cmd.Execute()
	return outBuf.Bytes(), errBuf.Bytes(), e
}

// mustData runs args against dir and returns the "data" payload.
func mustData(t *testing.T, dir string, args ...string) any {
	t.Helper()
	out, errOut, err := runCLI(t, append([]string{"--dir", dir}, args...))
	if err != nil {
		t.Fatalf("%v: %v\nstderr: %s", args, err, string(errOut))
	}
	var env map[string]any
	if err := json.Unmarshal(out, &env); err != nil {
		t.Fatalf("%v: expected JSON output, got %q: %v", args, string(out), err)
	}
	data, ok := env["data"]
	if !ok {
		t.Fatalf("%v: expected data envelope, got %v", args, env)
	}
	return data
}

func asMap(t *testing.T, v any) map[string]any {
	t.Helper()
	m, ok := v.(map[string]any)
	if !ok {
		t.Fatalf("expected object, got %T", v)
	}
	return m
}

func asList(t *testing.T, v any) []any {
	t.Helper()
	l, ok := v.([]any)
	if !ok {
		t.Fatalf("expected list, got %T", v)
	}
	return l
}

// newWorkspace initializes a workspace with one 4s audio resource "drums".
// It returns the .splice dir.
func newWorkspace(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	dir := filepath.Join(root, ".splice")
	mustData(t, dir, "init")

	media := filepath.Join(root, "drums.wav")
	if err := os.WriteFile(media, nil, 0o644); err != nil {
		t.Fatalf("write media: %v", err)
	}
	mustData(t, dir, "resources", "add", media, "--duration", "4")
	return dir
}

func TestInit_CreatesWorkspaceFiles(t *testing.T) {
	t.Parallel()
	dir := filepath.Join(t.TempDir(), ".splice")
	data := asMap(t, mustData(t, dir, "init"))
	if data["createdConfig"] != true || data["createdCatalog"] != true {
		t.Fatalf("expected config and catalog to be created: %v", data)
	}
	for _, name := range []string{"config.yaml", "resources.yaml", "splice.sqlite"} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Fatalf("expected %s: %v", name, err)
		}
	}

	// A second init keeps what is there.
	data = asMap(t, mustData(t, dir, "init"))
	if data["createdConfig"] != false {
		t.Fatalf("expected existing config to be kept: %v", data)
	}
}

func TestResourcesAdd_StoresRelativeSrc(t *testing.T) {
	t.Parallel()
	dir := newWorkspace(t)
	list := asList(t, mustData(t, dir, "resources", "list"))
	if len(list) != 1 {
		t.Fatalf("expected one resource, got %v", list)
	}
	r := asMap(t, list[0])
	if r["id"] != "drums" || r["kind"] != "audio" || r["src"] != "drums.wav" {
		t.Fatalf("unexpected resource %v", r)
	}
	if d, _ := r["durationSec"].(float64); d != 4 {
		t.Fatalf("expected 4s duration, got %v", r["durationSec"])
	}
}

func TestClips_EditsPersistAcrossInvocations(t *testing.T) {
	t.Parallel()
	dir := newWorkspace(t)

	add := asMap(t, mustData(t, dir, "clips", "add", "drums"))
	if add["applied"] != true {
		t.Fatalf("expected add to apply: %v", add)
	}
	clip := asMap(t, add["clip"])
	if clip["id"] != "drums::clip::0" || !strings.HasPrefix(clip["track"].(string), "Audio") {
		t.Fatalf("unexpected clip %v", clip)
	}

	split := asMap(t, mustData(t, dir, "clips", "split", "drums::clip::0", "--at", "2"))
	ids := asList(t, split["ids"])
	if len(ids) != 2 {
		t.Fatalf("expected two halves, got %v", split)
	}
	if n := len(asList(t, mustData(t, dir, "clips", "list"))); n != 2 {
		t.Fatalf("expected 2 clips after split, got %d", n)
	}

	mustData(t, dir, "clips", "join", ids[0].(string), ids[1].(string))
	if n := len(asList(t, mustData(t, dir, "clips", "list"))); n != 1 {
		t.Fatalf("expected 1 clip after join, got %d", n)
	}

	undo := asMap(t, mustData(t, dir, "undo"))
	if c, _ := undo["clips"].(float64); c != 2 {
		t.Fatalf("expected undo to restore the split, got %v", undo)
	}
	redo := asMap(t, mustData(t, dir, "redo"))
	if c, _ := redo["clips"].(float64); c != 1 {
		t.Fatalf("expected redo to join again, got %v", redo)
	}
}

func TestClips_LockedTrackRejectsMove(t *testing.T) {
	t.Parallel()
	dir := newWorkspace(t)
	clip := asMap(t, asMap(t, mustData(t, dir, "clips", "add", "drums"))["clip"])
	track := clip["track"].(string)

	mustData(t, dir, "tracks", "lock", track)
	_, errOut, err := runCLI(t, []string{"--dir", dir, "clips", "move", "drums::clip::0", "--time", "3"})
	if err == nil {
		t.Fatalf("expected move on a locked track to fail")
	}
	if !strings.Contains(string(errOut), "track is locked") {
		t.Fatalf("expected lock error on stderr, got %q", string(errOut))
	}

	mustData(t, dir, "tracks", "lock", track, "--off")
	moved := asMap(t, mustData(t, dir, "clips", "move", "drums::clip::0", "--time", "3"))
	if got := asMap(t, moved["clip"])["timeSec"]; got != 3.0 {
		t.Fatalf("expected clip at 3s, got %v", got)
	}
}

func TestClipsList_TextFormat(t *testing.T) {
	t.Parallel()
	dir := newWorkspace(t)
	mustData(t, dir, "clips", "add", "drums")
	out, _, err := runCLI(t, []string{"--dir", dir, "--format", "text", "clips", "list"})
	if err != nil {
		t.Fatalf("clips list: %v", err)
	}
	if !strings.Contains(string(out), "drums::clip::0") || !strings.Contains(string(out), "RESOURCE") {
		t.Fatalf("expected a clip table, got:\n%s", string(out))
	}
}

func TestTracksList_SkipsDropzones(t *testing.T) {
	t.Parallel()
	dir := newWorkspace(t)
	mustData(t, dir, "clips", "add", "drums")
	tracks := asList(t, mustData(t, dir, "tracks", "list"))
	if len(tracks) != 1 {
		t.Fatalf("expected one track, got %v", tracks)
	}
	if c, _ := asMap(t, tracks[0])["eventCount"].(float64); c != 1 {
		t.Fatalf("expected one event on the track, got %v", tracks[0])
	}
	all := asList(t, mustData(t, dir, "tracks", "list", "--all"))
	if len(all) <= len(tracks) {
		t.Fatalf("expected dropzones with --all, got %v", all)
	}
}

func TestRender_TextGrid(t *testing.T) {
	t.Parallel()
	dir := newWorkspace(t)
	mustData(t, dir, "clips", "add", "drums")
	out, _, err := runCLI(t, []string{"--dir", dir, "--format", "text", "render", "--ascii", "--fit", "--width", "80", "--height", "12"})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	lines := strings.Split(strings.TrimRight(string(out), "\n"), "\n")
	if len(lines) != 12 {
		t.Fatalf("expected 12 rows, got %d:\n%s", len(lines), string(out))
	}
	if !strings.Contains(string(out), "Audio") {
		t.Fatalf("expected the audio track header:\n%s", string(out))
	}
}

func TestScrub_WritesSynthGrain(t *testing.T) {
	t.Parallel()
	dir := newWorkspace(t)
	mustData(t, dir, "clips", "add", "drums")
	wav := filepath.Join(t.TempDir(), "grain.wav")

	data := asMap(t, mustData(t, dir, "scrub", "--synth", "--at", "1", "--out", wav))
	if data["source"] != "synth" || data["clipId"] != "drums::clip::0" {
		t.Fatalf("unexpected scrub result %v", data)
	}
	if f, _ := data["frames"].(float64); f <= 0 {
		t.Fatalf("expected grain frames, got %v", data["frames"])
	}
	b, err := os.ReadFile(wav)
	if err != nil {
		t.Fatalf("read wav: %v", err)
	}
	if len(b) <= 44 || string(b[:4]) != "RIFF" || string(b[8:12]) != "WAVE" {
		t.Fatalf("expected a WAV file, got %d bytes", len(b))
	}
}

func TestUndo_EmptyHistoryFails(t *testing.T) {
	t.Parallel()
	dir := newWorkspace(t)
	_, errOut, err := runCLI(t, []string{"--dir", dir, "undo"})
	if err == nil || !strings.Contains(string(errOut), "nothing to undo") {
		t.Fatalf("expected nothing-to-undo error, got %v %q", err, string(errOut))
	}
}

func TestResourcesRm_Unknown(t *testing.T) {
	t.Parallel()
	dir := newWorkspace(t)
	_, errOut, err := runCLI(t, []string{"--dir", dir, "resources", "rm", "nope"})
	if err == nil || !strings.Contains(string(errOut), "resource not found: nope") {
		t.Fatalf("expected not found, got %v %q", err, string(errOut))
	}
}

func TestDocs_TopicsAndLookup(t *testing.T) {
	t.Parallel()
	topics := asList(t, asMap(t, mustData(t, t.TempDir(), "docs"))["topics"])
	found := false
	for _, v := range topics {
		if v == "keys" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected keys topic, got %v", topics)
	}

	out, _, err := runCLI(t, []string{"docs", "editing", "--raw"})
	if err != nil || !strings.HasPrefix(string(out), "# Editing") {
		t.Fatalf("expected raw markdown, got %v %q", err, string(out))
	}
	if _, _, err := runCLI(t, []string{"docs", "nope"}); err == nil {
		t.Fatalf("expected unknown topic to fail")
	}
}

func TestSrcKey(t *testing.T) {
	root := filepath.FromSlash("/w")
	if got := srcKey(root, filepath.FromSlash("/w/media/a.wav")); got != "media/a.wav" {
		t.Fatalf("got %q", got)
	}
	if got := srcKey(root, filepath.FromSlash("/elsewhere/a.wav")); got != filepath.FromSlash("/elsewhere/a.wav") {
		t.Fatalf("got %q", got)
	}
}

func TestResourcesAdd_CopyIntoMedia(t *testing.T) {
	t.Parallel()
	dir := newWorkspace(t)
	src := filepath.Join(t.TempDir(), "Lead Vox.wav")
	if err := os.WriteFile(src, []byte("pcm"), 0o644); err != nil {
		t.Fatalf("write media: %v", err)
	}
	r := asMap(t, mustData(t, dir, "resources", "add", src, "--duration", "2", "--copy"))
	if r["id"] != "lead-vox" || r["src"] != "media/Lead Vox.wav" {
		t.Fatalf("unexpected resource %v", r)
	}
	if _, err := os.Stat(filepath.Join(filepath.Dir(dir), "media", "Lead Vox.wav")); err != nil {
		t.Fatalf("expected copied media: %v", err)
	}
}
