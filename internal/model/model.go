package model

import "math"

type ResourceKind string

const (
	ResourceImage ResourceKind = "image"
	ResourceAudio ResourceKind = "audio"
	ResourceVideo ResourceKind = "video"
)

func (k ResourceKind) Valid() bool {
	switch k {
	case ResourceImage, ResourceAudio, ResourceVideo:
		return true
	}
	return false
}

// Video audio presence as reported by the resource supplier.
const (
	VideoAudioUnknown = ""
	VideoAudioPresent = "present"
	VideoAudioAbsent  = "absent"
)

// ImageVirtualDurationSec is the source duration assigned to still images so they
// can be stretched freely on the timeline.
const ImageVirtualDurationSec = 3600.0

type NoteEvent struct {
	TimeSec     float64 `json:"timeSec" yaml:"timeSec"`
	DurationSec float64 `json:"durationSec" yaml:"durationSec"`
	Pitch       int     `json:"pitch" yaml:"pitch"`
	Velocity    float64 `json:"velocity,omitempty" yaml:"velocity,omitempty"`
}

type Resource struct {
	ID          string       `json:"id" yaml:"id"`
	Kind        ResourceKind `json:"kind" yaml:"kind"`
	Src         string       `json:"src" yaml:"src"`
	PreviewSrc  string       `json:"previewSrc,omitempty" yaml:"previewSrc,omitempty"`
	Label       string       `json:"label,omitempty" yaml:"label,omitempty"`
	DurationSec float64      `json:"durationSec,omitempty" yaml:"durationSec,omitempty"`
	Width       int          `json:"width,omitempty" yaml:"width,omitempty"`
	Height      int          `json:"height,omitempty" yaml:"height,omitempty"`
	VideoAudio  string       `json:"videoAudio,omitempty" yaml:"videoAudio,omitempty"`

	// Notes are note-like events carried by generated resources (e.g. a melody stem).
	Notes []NoteEvent `json:"notes,omitempty" yaml:"notes,omitempty"`
	// Peaks is a normalized (0..1) amplitude envelope for the signal preview band.
	Peaks []float64 `json:"peaks,omitempty" yaml:"peaks,omitempty"`
}

// SourceDuration returns the usable source length, substituting the virtual
// duration for images and a minimum clip length for unknown media.
func (r Resource) SourceDuration() float64 {
	if r.Kind == ResourceImage {
		if r.DurationSec > 0 {
			return math.Max(r.DurationSec, ImageVirtualDurationSec)
		}
		return ImageVirtualDurationSec
	}
	if r.DurationSec < MinClipSec {
		return MinClipSec
	}
	return r.DurationSec
}

func (r Resource) HasVideoAudio() bool {
	return r.Kind == ResourceVideo && r.VideoAudio == VideoAudioPresent
}

const (
	// MinClipSec is the shortest legal clip.
	MinClipSec = 0.1
	// Epsilon absorbs float drift in invariant checks.
	Epsilon = 1e-6
)

type Clip struct {
	ID                string  `json:"id"`
	ResourceID        string  `json:"resourceId"`
	Track             string  `json:"track"`
	TimeSec           float64 `json:"timeSec"`
	DurationSec       float64 `json:"durationSec"`
	StartOffsetSec    float64 `json:"startOffsetSec"`
	SourceDurationSec float64 `json:"sourceDurationSec"`
	LinkGroupID       string  `json:"linkGroupId"`
	AutoDuration      bool    `json:"autoDuration,omitempty"`
}

func (c Clip) EndSec() float64 { return c.TimeSec + c.DurationSec }

// Overlaps reports whether c intersects the half-open window [start, end).
func (c Clip) Overlaps(start, end float64) bool {
	return c.TimeSec < end-Epsilon && start < c.EndSec()-Epsilon
}

// Valid reports whether c satisfies the placement invariants.
func (c Clip) Valid() bool {
	if c.ID == "" || c.ResourceID == "" || c.Track == "" {
		return false
	}
	if c.DurationSec < MinClipSec-Epsilon || c.TimeSec < -Epsilon {
		return false
	}
	if c.StartOffsetSec < -Epsilon || c.StartOffsetSec > c.SourceDurationSec-MinClipSec+Epsilon {
		return false
	}
	return c.StartOffsetSec+c.DurationSec <= c.SourceDurationSec+Epsilon
}

// Group returns the link group id, defaulting to the clip id.
func (c Clip) Group() string {
	if c.LinkGroupID == "" {
		return c.ID
	}
	return c.LinkGroupID
}

type TrackKind string

const (
	TrackVideo    TrackKind = "video"
	TrackImage    TrackKind = "image"
	TrackAudio    TrackKind = "audio"
	TrackDropzone TrackKind = "dropzone"
)

type ChannelMode string

const (
	ChannelsNone   ChannelMode = ""
	ChannelsMono   ChannelMode = "mono"
	ChannelsStereo ChannelMode = "stereo"
)

// Stage groups tracks into render bands.
type Stage string

const (
	StageVisual     Stage = "visual"
	StageVideoAudio Stage = "video-audio"
	StageAudio      Stage = "audio"
	StageDrop       Stage = "drop"
)

type Track struct {
	Name       string      `json:"name"`
	Kind       TrackKind   `json:"kind"`
	Channels   ChannelMode `json:"channels,omitempty"`
	Lane       int         `json:"lane"`
	Linked     bool        `json:"linked,omitempty"`
	Stage      Stage       `json:"stage"`
	Locked     bool        `json:"locked"`
	Muted      bool        `json:"muted"`
	EventCount int         `json:"eventCount"`
}

// TrackKindFor maps a resource kind to the kind of lane that may hold it.
func TrackKindFor(k ResourceKind) TrackKind {
	switch k {
	case ResourceVideo:
		return TrackVideo
	case ResourceImage:
		return TrackImage
	case ResourceAudio:
		return TrackAudio
	}
	return ""
}

type Section struct {
	Name     string  `json:"name"`
	StartSec float64 `json:"startSec"`
	EndSec   float64 `json:"endSec"`
}

type ViewState struct {
	PxPerSec float64 `json:"pxPerSec"`
	T0Sec    float64 `json:"t0Sec"`
	ScrollY  float64 `json:"scrollY"`
	AutoFit  bool    `json:"autoFit"`
	RowScale float64 `json:"rowScale"`
}

func DefaultViewState() ViewState {
	return ViewState{PxPerSec: 8, AutoFit: true, RowScale: 1}
}

// ResourceFinder is the read-only view of the resource supplier the core consumes.
type ResourceFinder interface {
	FindResource(id string) (Resource, bool)
}

// ResourceMap is an in-memory ResourceFinder keyed by resource id.
type ResourceMap map[string]Resource

func (m ResourceMap) FindResource(id string) (Resource, bool) {
	r, ok := m[id]
	return r, ok
}

func NewResourceMap(rs ...Resource) ResourceMap {
	m := ResourceMap{}
	for _, r := range rs {
		m[r.ID] = r
	}
	return m
}
