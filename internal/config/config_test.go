package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := NewDefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	ec := cfg.Engine()
	if ec.Edit.DuplicateGapSec != 0.06 || ec.PersistDelay != 400*time.Millisecond {
		t.Fatalf("unexpected engine config: %+v", ec)
	}
}

func TestLoadFile_MissingUsesDefaults(t *testing.T) {
	cfg, err := LoadFile(filepath.Join(t.TempDir(), FileName))
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if cfg.Editor.HistoryDepth != 120 {
		t.Fatalf("expected default history depth; got %d", cfg.Editor.HistoryDepth)
	}
}

func TestLoadFile_OverridesAndExpandsEnv(t *testing.T) {
	t.Setenv("SPLICE_TEST_FFMPEG", "/opt/ffmpeg/bin/ffmpeg")
	path := filepath.Join(t.TempDir(), FileName)
	data := `
app:
  log_level: debug
editor:
  snap_threshold_px: 4
  extend_duration: true
  default_image_sec: 2
view:
  px_per_sec: 24
audio:
  decoder: ${SPLICE_TEST_FFMPEG}
persist:
  debounce: 1s
`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if cfg.App.LogLevel != slog.LevelDebug {
		t.Fatalf("log level = %v", cfg.App.LogLevel)
	}
	if cfg.Editor.SnapThresholdPx != 4 || !cfg.Editor.ExtendDuration {
		t.Fatalf("editor overrides not applied: %+v", cfg.Editor)
	}
	if cfg.Editor.JoinToleranceSec != 0.08 {
		t.Fatalf("expected untouched field to keep its default; got %v", cfg.Editor.JoinToleranceSec)
	}
	if cfg.Audio.Decoder != "/opt/ffmpeg/bin/ffmpeg" {
		t.Fatalf("env not expanded: %q", cfg.Audio.Decoder)
	}
	if cfg.Persist.Debounce != time.Second {
		t.Fatalf("debounce = %v", cfg.Persist.Debounce)
	}
	ec := cfg.Engine()
	if !ec.Edit.ExtendDuration || ec.Edit.DefaultImageSec != 2 {
		t.Fatalf("expected editor settings mapped onto the engine: %+v", ec.Edit)
	}
	if ec.View.PxPerSec != 24 || ec.View.RowScale != 1 || !ec.View.AutoFit {
		t.Fatalf("expected the configured zoom as the starting view: %+v", ec.View)
	}
}

func TestLoadFile_RejectsInvalid(t *testing.T) {
	cases := map[string]string{
		"grain bounds": "audio:\n  grain_min_ms: 90\n  grain_max_ms: 20\n",
		"zoom bounds":  "view:\n  min_px_per_sec: 50\n  max_px_per_sec: 10\n",
		"row height":   "view:\n  row_height: 99\n",
		"depth":        "editor:\n  history_depth: -1\n",
	}
	for name, data := range cases {
		path := filepath.Join(t.TempDir(), FileName)
		if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
			t.Fatalf("write: %v", err)
		}
		_, err := LoadFile(path)
		if err == nil || !strings.Contains(err.Error(), "validation failed") {
			t.Fatalf("%s: expected validation error; got %v", name, err)
		}
	}
}

func TestSaveThenLoad(t *testing.T) {
	path := PathIn(filepath.Join(t.TempDir(), ".splice"))
	cfg := NewDefaultConfig()
	cfg.View.PxPerSec = 24
	cfg.Audio.Player = []string{"aplay", "-f", "S16_LE"}
	if err := Save(path, cfg); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if got.View.PxPerSec != 24 || len(got.Audio.Player) != 3 || got.Persist.Debounce != cfg.Persist.Debounce {
		t.Fatalf("round trip mismatch: %+v", got)
	}
}
