// Package lanes derives the ordered track list from the current placements and
// picks lanes for clips being inserted or moved.
package lanes

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"splice-cli/internal/model"
)

// Sentinel dropzone tracks bounding the rendered list. They never hold clips.
const (
	DropTop    = "__drop_top__"
	DropBottom = "__drop_bottom__"
)

func IsDropzone(name string) bool { return name == DropTop || name == DropBottom }

// Lane is the decoded form of a lane-coded track name.
type Lane struct {
	Kind     model.TrackKind
	Channels model.ChannelMode
	// Linked marks "Video Audio" lanes holding audio derived from video clips.
	Linked bool
	Index  int
}

// Family is the allocation key: two lanes are interchangeable when their
// families match.
type Family struct {
	Kind   model.TrackKind
	Linked bool
}

func (l Lane) Family() Family { return Family{Kind: l.Kind, Linked: l.Linked} }

func (l Lane) Stage() model.Stage {
	switch {
	case l.Kind == model.TrackDropzone:
		return model.StageDrop
	case l.Linked:
		return model.StageVideoAudio
	case l.Kind == model.TrackAudio:
		return model.StageAudio
	}
	return model.StageVisual
}

// Name renders a lane back to its track name.
func Name(l Lane) string {
	idx := l.Index
	if idx < 1 {
		idx = 1
	}
	switch {
	case l.Linked:
		return fmt.Sprintf("Video Audio %d", idx)
	case l.Kind == model.TrackVideo:
		return fmt.Sprintf("Video %d", idx)
	case l.Kind == model.TrackImage:
		return fmt.Sprintf("Image %d", idx)
	case l.Kind == model.TrackAudio && l.Channels == model.ChannelsMono:
		return fmt.Sprintf("Audio M%d", idx)
	case l.Kind == model.TrackAudio:
		return fmt.Sprintf("Audio S%d", idx)
	}
	return ""
}

// ParseName decodes names such as "Video 2", "Image 1", "Audio S1", "Audio M3",
// "Video Audio 1" or "Video Audio M1".
func ParseName(name string) (Lane, bool) {
	name = strings.TrimSpace(name)
	if IsDropzone(name) {
		return Lane{Kind: model.TrackDropzone}, true
	}
	fields := strings.Fields(name)
	switch {
	case len(fields) == 3 && fields[0] == "Video" && fields[1] == "Audio":
		ch, n, ok := channelIndex(fields[2], model.ChannelsStereo)
		if !ok {
			return Lane{}, false
		}
		return Lane{Kind: model.TrackAudio, Channels: ch, Linked: true, Index: n}, true
	case len(fields) == 2 && fields[0] == "Video":
		n, err := strconv.Atoi(fields[1])
		if err != nil || n < 1 {
			return Lane{}, false
		}
		return Lane{Kind: model.TrackVideo, Index: n}, true
	case len(fields) == 2 && fields[0] == "Image":
		n, err := strconv.Atoi(fields[1])
		if err != nil || n < 1 {
			return Lane{}, false
		}
		return Lane{Kind: model.TrackImage, Index: n}, true
	case len(fields) == 2 && fields[0] == "Audio":
		ch, n, ok := channelIndex(fields[1], "")
		if !ok || ch == "" {
			return Lane{}, false
		}
		return Lane{Kind: model.TrackAudio, Channels: ch, Index: n}, true
	}
	return Lane{}, false
}

// channelIndex parses "S2", "M1" or (when def is set) a bare "2".
func channelIndex(s string, def model.ChannelMode) (model.ChannelMode, int, bool) {
	ch := def
	switch {
	case strings.HasPrefix(s, "S"):
		ch, s = model.ChannelsStereo, s[1:]
	case strings.HasPrefix(s, "M"):
		ch, s = model.ChannelsMono, s[1:]
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 {
		return "", 0, false
	}
	return ch, n, true
}

// LaneFor returns the default lane family for a resource kind at index 1.
func LaneFor(kind model.ResourceKind) Lane {
	switch kind {
	case model.ResourceVideo:
		return Lane{Kind: model.TrackVideo, Index: 1}
	case model.ResourceImage:
		return Lane{Kind: model.TrackImage, Index: 1}
	}
	return Lane{Kind: model.TrackAudio, Channels: model.ChannelsStereo, Index: 1}
}

// LinkedAudioLane is the lane family for audio derived from a video clip.
func LinkedAudioLane() Lane {
	return Lane{Kind: model.TrackAudio, Channels: model.ChannelsStereo, Linked: true, Index: 1}
}

// sortLanes orders names by stage, family and index; unparseable names sort
// last by name.
func sortLanes(names []string) {
	rank := func(name string) (int, int, int, string) {
		l, ok := ParseName(name)
		if !ok {
			return 9, 0, 0, name
		}
		stage := map[model.Stage]int{model.StageDrop: 0, model.StageVisual: 1, model.StageVideoAudio: 2, model.StageAudio: 3}[l.Stage()]
		sub := 0
		switch {
		case l.Kind == model.TrackImage:
			sub = 1
		case l.Kind == model.TrackAudio && l.Channels == model.ChannelsMono:
			sub = 1
		}
		return stage, sub, l.Index, name
	}
	sort.SliceStable(names, func(i, j int) bool {
		a1, a2, a3, a4 := rank(names[i])
		b1, b2, b3, b4 := rank(names[j])
		if a1 != b1 {
			return a1 < b1
		}
		if a2 != b2 {
			return a2 < b2
		}
		if a3 != b3 {
			return a3 < b3
		}
		return a4 < b4
	})
}
