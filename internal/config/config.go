// Package config loads the workspace configuration file (config.yaml) with
// environment variable expansion and validation.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"gopkg.in/yaml.v3"

	"splice-cli/internal/audio"
	"splice-cli/internal/engine"
	"splice-cli/internal/history"
	"splice-cli/internal/interact"
	"splice-cli/internal/model"
	"splice-cli/internal/mutate"
	"splice-cli/internal/render"
	"splice-cli/internal/store"
)

// FileName is the config file looked up inside the workspace directory.
const FileName = "config.yaml"

// Validator is an interface for configuration validation.
type Validator interface {
	Validate() error
}

// Config represents the editor configuration.
type Config struct {
	App     AppConfig     `yaml:"app"`
	Editor  EditorConfig  `yaml:"editor"`
	View    ViewConfig    `yaml:"view"`
	Audio   AudioConfig   `yaml:"audio"`
	Persist PersistConfig `yaml:"persist"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := c.Editor.Validate(); err != nil {
		return fmt.Errorf("editor: %w", err)
	}
	if err := c.View.Validate(); err != nil {
		return fmt.Errorf("view: %w", err)
	}
	if err := c.Audio.Validate(); err != nil {
		return fmt.Errorf("audio: %w", err)
	}
	if err := c.Persist.Validate(); err != nil {
		return fmt.Errorf("persist: %w", err)
	}
	return nil
}

type AppConfig struct {
	LogLevel slog.Level `yaml:"log_level"`
}

// EditorConfig holds edit and snapping tolerances.
type EditorConfig struct {
	SnapThresholdPx  float64 `yaml:"snap_threshold_px"`
	ZeroSnapSec      float64 `yaml:"zero_snap_sec"`
	DuplicateGapSec  float64 `yaml:"duplicate_gap_sec"`
	JoinToleranceSec float64 `yaml:"join_tolerance_sec"`
	DefaultImageSec  float64 `yaml:"default_image_sec"`
	HistoryDepth     int     `yaml:"history_depth"`
	ExtendDuration   bool    `yaml:"extend_duration"`
	Snap             bool    `yaml:"snap"`
}

func (c *EditorConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.SnapThresholdPx, validation.Min(0.0), validation.Max(100.0)),
		validation.Field(&c.ZeroSnapSec, validation.Min(0.0), validation.Max(1.0)),
		validation.Field(&c.DuplicateGapSec, validation.Min(0.0), validation.Max(10.0)),
		validation.Field(&c.JoinToleranceSec, validation.Min(0.0), validation.Max(1.0)),
		validation.Field(&c.DefaultImageSec, validation.Required, validation.Min(0.1)),
		validation.Field(&c.HistoryDepth, validation.Required, validation.Min(1), validation.Max(10000)),
	)
}

// ViewConfig holds zoom bounds and the row metrics of the timeline.
type ViewConfig struct {
	PxPerSec       float64 `yaml:"px_per_sec"`
	MinPxPerSec    float64 `yaml:"min_px_per_sec"`
	MaxPxPerSec    float64 `yaml:"max_px_per_sec"`
	MinFitFraction float64 `yaml:"min_fit_fraction"`
	RowHeight      int     `yaml:"row_height"`
	Gutter         int     `yaml:"gutter"`
}

func (c *ViewConfig) Validate() error {
	if err := validation.ValidateStruct(c,
		validation.Field(&c.PxPerSec, validation.Required, validation.Min(0.001)),
		validation.Field(&c.MinPxPerSec, validation.Required, validation.Min(0.0001)),
		validation.Field(&c.MaxPxPerSec, validation.Required),
		validation.Field(&c.MinFitFraction, validation.Min(0.0), validation.Max(1.0)),
		validation.Field(&c.RowHeight, validation.Required, validation.Min(1), validation.Max(20)),
		validation.Field(&c.Gutter, validation.Required, validation.Min(4), validation.Max(80)),
	); err != nil {
		return err
	}
	if c.MaxPxPerSec < c.MinPxPerSec {
		return fmt.Errorf("max_px_per_sec %v is below min_px_per_sec %v", c.MaxPxPerSec, c.MinPxPerSec)
	}
	return nil
}

// AudioConfig holds the external decoder/player commands and grain bounds.
type AudioConfig struct {
	Enabled       bool     `yaml:"enabled"`
	Decoder       string   `yaml:"decoder"`
	Player        []string `yaml:"player"`
	GrainMinMs    float64  `yaml:"grain_min_ms"`
	GrainMaxMs    float64  `yaml:"grain_max_ms"`
	MediaRoot     string   `yaml:"media_root"`
	PrewarmLimit  int      `yaml:"prewarm_limit"`
	ScrubFastRate float64  `yaml:"scrub_fast_velocity"`
}

func (c *AudioConfig) Validate() error {
	if err := validation.ValidateStruct(c,
		validation.Field(&c.Decoder, validation.Required),
		validation.Field(&c.GrainMinMs, validation.Required, validation.Min(1.0)),
		validation.Field(&c.GrainMaxMs, validation.Required, validation.Max(1000.0)),
		validation.Field(&c.PrewarmLimit, validation.Min(0), validation.Max(64)),
		validation.Field(&c.ScrubFastRate, validation.Min(0.0)),
	); err != nil {
		return err
	}
	if c.GrainMaxMs < c.GrainMinMs {
		return fmt.Errorf("grain_max_ms %v is below grain_min_ms %v", c.GrainMaxMs, c.GrainMinMs)
	}
	return nil
}

type PersistConfig struct {
	Debounce time.Duration `yaml:"debounce"`
}

func (c *PersistConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Debounce, validation.Min(time.Duration(0)), validation.Max(time.Minute)),
	)
}

// NewDefaultConfig returns a new Config with sensible default values.
func NewDefaultConfig() *Config {
	layout := render.DefaultLayout()
	ic := interact.DefaultConfig()
	gc := audio.DefaultGrainConfig()
	return &Config{
		App: AppConfig{LogLevel: slog.LevelInfo},
		Editor: EditorConfig{
			SnapThresholdPx:  mutate.DefaultSnapThresholdPx,
			ZeroSnapSec:      mutate.DefaultZeroSnapSec,
			DuplicateGapSec:  mutate.DefaultDuplicateGapSec,
			JoinToleranceSec: mutate.DefaultJoinToleranceSec,
			DefaultImageSec:  mutate.DefaultImageSec,
			HistoryDepth:     history.DefaultDepth,
			Snap:             true,
		},
		View: ViewConfig{
			PxPerSec:       8,
			MinPxPerSec:    ic.MinPxPerSec,
			MaxPxPerSec:    ic.MaxPxPerSec,
			MinFitFraction: ic.MinFitFraction,
			RowHeight:      int(layout.RowHeight),
			Gutter:         int(layout.Gutter),
		},
		Audio: AudioConfig{
			Enabled:       true,
			Decoder:       "ffmpeg",
			Player:        append([]string(nil), audio.DefaultPlayerCommand...),
			GrainMinMs:    gc.MinMs,
			GrainMaxMs:    gc.MaxMs,
			PrewarmLimit:  audio.DefaultPrewarmLimit,
			ScrubFastRate: gc.FastVelocity,
		},
		Persist: PersistConfig{Debounce: 400 * time.Millisecond},
	}
}

// Load loads configuration from a YAML file with environment variable
// expansion. Fields missing from the file keep the values already in target.
func Load[T any](filename string, target *T) error {
	data, err := os.ReadFile(filename)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", filename, err)
	}

	expandedData := os.ExpandEnv(string(data))

	if err := yaml.Unmarshal([]byte(expandedData), target); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", filename, err)
	}

	if validator, ok := any(target).(Validator); ok {
		if err := validator.Validate(); err != nil {
			return fmt.Errorf("config validation failed: %w", err)
		}
	}

	return nil
}

// LoadFile reads path over the defaults. A missing file is not an error.
func LoadFile(path string) (*Config, error) {
	cfg := NewDefaultConfig()
	if path == "" {
		return cfg, nil
	}
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	}
	if err := Load(path, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// PathIn returns the config path inside a workspace directory.
func PathIn(dir string) string { return filepath.Join(dir, FileName) }

// Save writes cfg as YAML.
func Save(path string, cfg *Config) error {
	b, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return store.WriteFileAtomic(path, b, 0o644)
}

// Engine maps the editor section onto engine settings.
func (c *Config) Engine() engine.Config {
	ec := engine.DefaultConfig()
	ec.Edit = mutate.Options{
		DuplicateGapSec:  c.Editor.DuplicateGapSec,
		JoinToleranceSec: c.Editor.JoinToleranceSec,
		DefaultImageSec:  c.Editor.DefaultImageSec,
		ExtendDuration:   c.Editor.ExtendDuration,
	}
	ec.SnapThresholdPx = c.Editor.SnapThresholdPx
	ec.ZeroSnapSec = c.Editor.ZeroSnapSec
	ec.PersistDelay = c.Persist.Debounce
	ec.View = model.DefaultViewState()
	ec.View.PxPerSec = c.View.PxPerSec
	return ec
}

// Interact maps zoom bounds and snapping onto the interaction machine.
func (c *Config) Interact() interact.Config {
	ic := interact.DefaultConfig()
	ic.MinPxPerSec = c.View.MinPxPerSec
	ic.MaxPxPerSec = c.View.MaxPxPerSec
	ic.MinFitFraction = c.View.MinFitFraction
	ic.Snap = c.Editor.Snap
	return ic
}

func (c *Config) Layout() render.Layout {
	l := render.DefaultLayout()
	l.RowHeight = float64(c.View.RowHeight)
	l.Gutter = float64(c.View.Gutter)
	return l
}

func (c *Config) Grain() audio.GrainConfig {
	g := audio.DefaultGrainConfig()
	g.MinMs = c.Audio.GrainMinMs
	g.MaxMs = c.Audio.GrainMaxMs
	if c.Audio.ScrubFastRate > 0 {
		g.FastVelocity = c.Audio.ScrubFastRate
	}
	return g
}
