package render

import "splice-cli/internal/model"

type OpKind string

const (
	OpRect     OpKind = "rect"
	OpLine     OpKind = "line"
	OpText     OpKind = "text"
	OpNote     OpKind = "note"
	OpBar      OpKind = "bar"
	OpTile     OpKind = "tile"
	OpPlayhead OpKind = "playhead"
)

// Role tells the rasterizer which style family an op belongs to.
type Role string

const (
	RoleRuler       Role = "ruler"
	RoleTickMajor   Role = "tick-major"
	RoleTickMinor   Role = "tick-minor"
	RoleTickLabel   Role = "tick-label"
	RoleSection     Role = "section"
	RoleSignal      Role = "signal"
	RoleTrackHeader Role = "track-header"
	RoleTrackRow    Role = "track-row"
	RoleDropzone    Role = "dropzone"
	RoleStageHeader Role = "stage-header"
	RoleGap         Role = "gap"
	RoleClip        Role = "clip"
	RoleClipLabel   Role = "clip-label"
	RoleHandle      Role = "handle"
	RolePlayhead    Role = "playhead"
)

// Op is one drawing instruction in timeline pixel space.
type Op struct {
	Kind OpKind
	Role Role
	X, Y float64
	W, H float64
	Text string
	// Hue in degrees for clip-derived ops.
	Hue float64
	// Level is a 0..1 magnitude for bars and notes.
	Level float64

	ClipID   string
	Track    string
	Muted    bool
	Locked   bool
	Selected bool
	Preview  bool
}

type RegionKind string

const (
	RegionRuler       RegionKind = "ruler"
	RegionSection     RegionKind = "section"
	RegionSectionEdge RegionKind = "section-edge"
	RegionSignal      RegionKind = "signal"
	RegionTrackHeader RegionKind = "track-header"
	RegionTrack       RegionKind = "track"
	RegionDropzone    RegionKind = "dropzone"
	RegionStageHeader RegionKind = "stage-header"
	RegionClip        RegionKind = "clip"
	RegionTrimStart   RegionKind = "trim-start"
	RegionTrimEnd     RegionKind = "trim-end"
)

// Region is an axis-aligned hit area produced alongside the ops.
type Region struct {
	Kind RegionKind
	X, Y float64
	W, H float64

	ClipID  string
	Track   string
	Stage   model.Stage
	Section int
	// Edge is "start" or "end" for section edges.
	Edge string
}

func (r Region) Contains(x, y float64) bool {
	return x >= r.X && x < r.X+r.W && y >= r.Y && y < r.Y+r.H
}

type Frame struct {
	Ops     []Op
	Regions []Region
	// ContentHeight is the unscrolled height of the track area.
	ContentHeight float64
	// TracksTop is where the scrolled track area starts.
	TracksTop float64
	MajorStep float64
	MinorStep float64
}

// HitTest returns the topmost region under (x, y).
func (f Frame) HitTest(x, y float64) (Region, bool) {
	for i := len(f.Regions) - 1; i >= 0; i-- {
		if f.Regions[i].Contains(x, y) {
			return f.Regions[i], true
		}
	}
	return Region{}, false
}

// TrackAt returns the row region (track, dropzone or collapsed stage header)
// spanning y, ignoring clips.
func (f Frame) TrackAt(y float64) (Region, bool) {
	for _, r := range f.Regions {
		switch r.Kind {
		case RegionTrack, RegionDropzone, RegionStageHeader:
			if y >= r.Y && y < r.Y+r.H {
				return r, true
			}
		}
	}
	return Region{}, false
}

func (f Frame) Region(kind RegionKind, clipID string) (Region, bool) {
	for _, r := range f.Regions {
		if r.Kind == kind && r.ClipID == clipID {
			return r, true
		}
	}
	return Region{}, false
}
