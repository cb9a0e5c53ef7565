package interact

import "splice-cli/internal/model"

type Modifiers struct {
	Shift bool
	Ctrl  bool
	Alt   bool
	Meta  bool
}

type Button int

const (
	ButtonLeft Button = iota
	ButtonMiddle
	ButtonRight
)

// Pointer is a press, motion or release at timeline pixel (X, Y). AtMs is a
// monotonic timestamp used for scrub velocity.
type Pointer struct {
	X, Y   float64
	Button Button
	Mods   Modifiers
	AtMs   float64
}

type Wheel struct {
	X, Y   float64
	DX, DY float64
	Mods   Modifiers
}

// Key carries a key name in bubbletea's String() form ("left", "shift+left",
// "ctrl+z", " ").
type Key struct {
	Key string
	// TextFocus is set while a text input owns the keyboard.
	TextFocus bool
}

// DropResource is what a drag source hands over when a resource is dropped on
// the timeline.
type DropResource struct {
	ResourceID string
	Kind       model.ResourceKind
}

type Mode string

const (
	ModeIdle          Mode = "idle"
	ModeSectionResize Mode = "section-resize"
	ModePan           Mode = "pan"
	ModeScrub         Mode = "scrub"
	ModeDrag          Mode = "drag"
	ModeTrimStart     Mode = "trim-start"
	ModeTrimEnd       Mode = "trim-end"
	ModeMutePaint     Mode = "mute-paint"
	ModeClick         Mode = "click"
)

type EffectKind string

const (
	EffectRedraw         EffectKind = "redraw"
	EffectTogglePlay     EffectKind = "toggle-play"
	EffectPause          EffectKind = "pause"
	EffectSeek           EffectKind = "seek"
	EffectScrub          EffectKind = "scrub"
	EffectStopScrub      EffectKind = "stop-scrub"
	EffectStatus         EffectKind = "status"
	EffectToggleCollapse EffectKind = "toggle-collapse"
	EffectMixChanged     EffectKind = "mix-changed"
)

// Effect is a request for the adapter: repaint, drive the transport or show a
// message.
type Effect struct {
	Kind     EffectKind
	Sec      float64
	Velocity float64
	Stage    model.Stage
	Message  string
	Err      bool
}

func redraw() Effect { return Effect{Kind: EffectRedraw} }

func status(msg string) Effect { return Effect{Kind: EffectStatus, Message: msg} }

func failure(err error) Effect {
	return Effect{Kind: EffectStatus, Message: err.Error(), Err: true}
}
