// Package render turns the arrangement into a flat list of drawing ops plus
// hit regions. Draw is pure: the same Input always yields the same Frame.
package render

import (
	"hash/fnv"
	"math"

	"splice-cli/internal/model"
)

// Layout holds the fixed metrics of the timeline, in timeline pixels.
type Layout struct {
	Gutter        float64
	RulerHeight   float64
	SectionHeight float64
	SignalHeight  float64
	RowHeight     float64
	DropHeight    float64
	HeaderHeight  float64
	GroupGap      float64
	HandleWidth   float64
	TileWidth     float64
	TickTargetPx  float64
	MaxBars       int
}

// DefaultLayout is sized for a character grid where one pixel is one cell.
func DefaultLayout() Layout {
	return Layout{
		Gutter:        16,
		RulerHeight:   2,
		SectionHeight: 1,
		SignalHeight:  2,
		RowHeight:     2,
		DropHeight:    1,
		HeaderHeight:  1,
		GroupGap:      1,
		HandleWidth:   1,
		TileWidth:     6,
		TickTargetPx:  10,
		MaxBars:       256,
	}
}

type Input struct {
	Width, Height float64
	Layout        Layout
	View          model.ViewState

	Tracks    []model.Track
	Clips     []model.Clip
	Resources model.ResourceFinder
	Sections  []model.Section

	PlayheadSec    float64
	ArrangementSec float64
	// Peaks is the arrangement signal envelope covering PeaksDurationSec.
	Peaks            []float64
	PeaksDurationSec float64

	Selected  string
	Collapsed map[model.Stage]bool
	// Preview replaces clips by id while a drag is in flight.
	Preview map[string]model.Clip
}

// X maps a time to a horizontal pixel.
func (in Input) X(t float64) float64 {
	return in.Layout.Gutter + (t-in.View.T0Sec)*in.View.PxPerSec
}

// TimeAt is the inverse of X.
func (in Input) TimeAt(x float64) float64 {
	if in.View.PxPerSec <= 0 {
		return in.View.T0Sec
	}
	return in.View.T0Sec + (x-in.Layout.Gutter)/in.View.PxPerSec
}

func (in Input) tracksTop() float64 {
	return in.Layout.RulerHeight + in.Layout.SectionHeight + in.Layout.SignalHeight
}

// TrackHue derives a stable hue (0..360) from a track name.
func TrackHue(name string) float64 {
	h := fnv.New32a()
	_, _ = h.Write([]byte(name))
	return float64(h.Sum32() % 360)
}

func Draw(in Input) Frame {
	if in.View.RowScale <= 0 {
		in.View.RowScale = 1
	}
	f := Frame{TracksTop: in.tracksTop()}
	f.MajorStep, f.MinorStep = ChooseTicks(in.View.PxPerSec, in.Layout.TickTargetPx)

	drawRuler(in, &f)
	drawSections(in, &f)
	drawSignal(in, &f)
	drawTracks(in, &f)
	drawPlayhead(in, &f)
	return f
}

func drawRuler(in Input, f *Frame) {
	l := in.Layout
	f.Ops = append(f.Ops, Op{Kind: OpRect, Role: RoleRuler, X: 0, Y: 0, W: in.Width, H: l.RulerHeight})
	f.Regions = append(f.Regions, Region{Kind: RegionRuler, X: l.Gutter, Y: 0, W: math.Max(0, in.Width-l.Gutter), H: l.RulerHeight})

	t0 := in.TimeAt(l.Gutter)
	t1 := in.TimeAt(in.Width)
	if f.MinorStep > 0 {
		for t := math.Ceil(t0/f.MinorStep) * f.MinorStep; t <= t1; t += f.MinorStep {
			if onStep(t, f.MajorStep) {
				continue
			}
			f.Ops = append(f.Ops, Op{Kind: OpLine, Role: RoleTickMinor, X: in.X(t), Y: l.RulerHeight - 1, W: 0, H: 1})
		}
	}
	for t := math.Ceil(t0/f.MajorStep) * f.MajorStep; t <= t1; t += f.MajorStep {
		if t < 0 {
			continue
		}
		x := in.X(t)
		f.Ops = append(f.Ops,
			Op{Kind: OpLine, Role: RoleTickMajor, X: x, Y: 0, W: 0, H: l.RulerHeight},
			Op{Kind: OpText, Role: RoleTickLabel, X: x + 1, Y: 0, Text: FormatTime(t, f.MajorStep)},
		)
	}
}

func onStep(t, step float64) bool {
	r := t / step
	return math.Abs(r-math.Round(r)) < 1e-6
}

func drawSections(in Input, f *Frame) {
	l := in.Layout
	y := l.RulerHeight
	for i, s := range in.Sections {
		x0, x1 := in.X(s.StartSec), in.X(s.EndSec)
		vx0, vx1 := math.Max(x0, l.Gutter), math.Min(x1, in.Width)
		if vx1 <= vx0 {
			continue
		}
		f.Ops = append(f.Ops,
			Op{Kind: OpRect, Role: RoleSection, X: vx0, Y: y, W: vx1 - vx0, H: l.SectionHeight, Hue: TrackHue(s.Name)},
			Op{Kind: OpText, Role: RoleSection, X: vx0 + 1, Y: y, W: vx1 - vx0 - 1, Text: s.Name},
		)
		f.Regions = append(f.Regions, Region{Kind: RegionSection, X: vx0, Y: y, W: vx1 - vx0, H: l.SectionHeight, Section: i})
		hw := l.HandleWidth
		if x0 >= l.Gutter {
			f.Regions = append(f.Regions, Region{Kind: RegionSectionEdge, X: x0, Y: y, W: hw, H: l.SectionHeight, Section: i, Edge: "start"})
		}
		if x1 <= in.Width {
			f.Regions = append(f.Regions, Region{Kind: RegionSectionEdge, X: x1 - hw, Y: y, W: hw, H: l.SectionHeight, Section: i, Edge: "end"})
		}
	}
}

// peakAt samples the signal envelope at t. When the envelope was computed
// over a different duration than the arrangement, it is stretched to fit.
func peakAt(in Input, t float64) (float64, bool) {
	n := len(in.Peaks)
	if n == 0 || t < 0 {
		return 0, false
	}
	span := in.PeaksDurationSec
	if in.ArrangementSec > 0 && (span <= 0 || math.Abs(span-in.ArrangementSec) > model.Epsilon) {
		span = in.ArrangementSec
	}
	if span <= 0 || t >= span {
		return 0, false
	}
	i := int(t / span * float64(n))
	if i >= n {
		i = n - 1
	}
	return clamp01(in.Peaks[i]), true
}

func drawSignal(in Input, f *Frame) {
	l := in.Layout
	if l.SignalHeight <= 0 {
		return
	}
	y := l.RulerHeight + l.SectionHeight
	f.Regions = append(f.Regions, Region{Kind: RegionSignal, X: l.Gutter, Y: y, W: math.Max(0, in.Width-l.Gutter), H: l.SignalHeight})
	for x := l.Gutter; x < in.Width; x++ {
		v, ok := peakAt(in, in.TimeAt(x))
		if !ok {
			continue
		}
		f.Ops = append(f.Ops, Op{Kind: OpBar, Role: RoleSignal, X: x, Y: y, W: 1, H: l.SignalHeight, Level: v})
	}
}

func drawTracks(in Input, f *Frame) {
	l := in.Layout
	top := f.TracksTop
	clipsByTrack := map[string][]model.Clip{}
	for _, c := range in.Clips {
		if p, ok := in.Preview[c.ID]; ok {
			c = p
		}
		clipsByTrack[c.Track] = append(clipsByTrack[c.Track], c)
	}

	y := 0.0
	var prevStage model.Stage
	headerDone := map[model.Stage]bool{}
	for i, tr := range in.Tracks {
		if i > 0 && tr.Stage != prevStage {
			y += l.GroupGap
			f.Ops = append(f.Ops, Op{Kind: OpLine, Role: RoleGap, X: 0, Y: top + y - in.View.ScrollY - l.GroupGap/2, W: in.Width})
		}
		prevStage = tr.Stage

		if in.Collapsed[tr.Stage] && tr.Stage != model.StageDrop {
			if headerDone[tr.Stage] {
				continue
			}
			headerDone[tr.Stage] = true
			ry := top + y - in.View.ScrollY
			f.Ops = append(f.Ops, Op{Kind: OpText, Role: RoleStageHeader, X: 0, Y: ry, W: in.Width, H: l.HeaderHeight, Text: "▸ " + string(tr.Stage)})
			f.Regions = append(f.Regions, Region{Kind: RegionStageHeader, X: 0, Y: ry, W: in.Width, H: l.HeaderHeight, Stage: tr.Stage, Track: tr.Name})
			y += l.HeaderHeight
			continue
		}

		h := l.RowHeight * in.View.RowScale
		if tr.Kind == model.TrackDropzone {
			h = l.DropHeight
		}
		ry := top + y - in.View.ScrollY
		y += h
		if ry+h <= top || ry >= in.Height {
			continue
		}

		if tr.Kind == model.TrackDropzone {
			f.Ops = append(f.Ops, Op{Kind: OpRect, Role: RoleDropzone, X: 0, Y: ry, W: in.Width, H: h, Track: tr.Name})
			f.Regions = append(f.Regions, Region{Kind: RegionDropzone, X: 0, Y: ry, W: in.Width, H: h, Track: tr.Name, Stage: tr.Stage})
			continue
		}

		hue := TrackHue(tr.Name)
		f.Ops = append(f.Ops,
			Op{Kind: OpRect, Role: RoleTrackRow, X: l.Gutter, Y: ry, W: math.Max(0, in.Width-l.Gutter), H: h, Hue: hue, Track: tr.Name, Muted: tr.Muted, Locked: tr.Locked},
			Op{Kind: OpText, Role: RoleTrackHeader, X: 0, Y: ry, W: l.Gutter, H: h, Text: headerText(tr), Hue: hue, Track: tr.Name, Muted: tr.Muted, Locked: tr.Locked},
		)
		f.Regions = append(f.Regions,
			Region{Kind: RegionTrack, X: l.Gutter, Y: ry, W: math.Max(0, in.Width-l.Gutter), H: h, Track: tr.Name, Stage: tr.Stage},
			Region{Kind: RegionTrackHeader, X: 0, Y: ry, W: l.Gutter, H: h, Track: tr.Name, Stage: tr.Stage},
		)
		for _, c := range clipsByTrack[tr.Name] {
			drawClip(in, f, tr, c, ry, h, hue)
		}
	}
	f.ContentHeight = y
}

func headerText(tr model.Track) string {
	flags := ""
	if tr.Muted {
		flags += "M"
	}
	if tr.Locked {
		flags += "L"
	}
	if flags == "" {
		return tr.Name
	}
	return tr.Name + " [" + flags + "]"
}

func drawClip(in Input, f *Frame, tr model.Track, c model.Clip, ry, h, hue float64) {
	l := in.Layout
	x0, x1 := in.X(c.TimeSec), in.X(c.EndSec())
	vx0, vx1 := math.Max(x0, l.Gutter), math.Min(x1, in.Width)
	if vx1 <= vx0 {
		return
	}
	_, preview := in.Preview[c.ID]
	base := Op{ClipID: c.ID, Track: tr.Name, Hue: hue, Muted: tr.Muted, Locked: tr.Locked, Selected: c.ID == in.Selected, Preview: preview}

	rect := base
	rect.Kind, rect.Role, rect.X, rect.Y, rect.W, rect.H = OpRect, RoleClip, vx0, ry, vx1-vx0, h
	f.Ops = append(f.Ops, rect)

	var res model.Resource
	found := false
	if in.Resources != nil {
		res, found = in.Resources.FindResource(c.ResourceID)
	}
	drawInterior(in, f, base, tr.Stage, c, res, found, x0, vx0, vx1, ry, h)

	label := base
	label.Kind, label.Role, label.X, label.Y, label.W = OpText, RoleClipLabel, vx0, ry, vx1-vx0
	label.Text = c.ID
	if found && res.Label != "" {
		label.Text = res.Label
	}
	f.Ops = append(f.Ops, label)

	f.Regions = append(f.Regions, Region{Kind: RegionClip, X: vx0, Y: ry, W: vx1 - vx0, H: h, ClipID: c.ID, Track: tr.Name, Stage: tr.Stage})
	if !found {
		return
	}
	hw := math.Min(l.HandleWidth, (x1-x0)/2)
	if hw <= 0 {
		return
	}
	if x0 >= l.Gutter {
		hs := base
		hs.Kind, hs.Role, hs.X, hs.Y, hs.W, hs.H = OpRect, RoleHandle, x0, ry, hw, h
		f.Ops = append(f.Ops, hs)
		f.Regions = append(f.Regions, Region{Kind: RegionTrimStart, X: x0, Y: ry, W: hw, H: h, ClipID: c.ID, Track: tr.Name, Stage: tr.Stage})
	}
	if x1 <= in.Width {
		he := base
		he.Kind, he.Role, he.X, he.Y, he.W, he.H = OpRect, RoleHandle, x1-hw, ry, hw, h
		f.Ops = append(f.Ops, he)
		f.Regions = append(f.Regions, Region{Kind: RegionTrimEnd, X: x1 - hw, Y: ry, W: hw, H: h, ClipID: c.ID, Track: tr.Name, Stage: tr.Stage})
	}
}

func drawInterior(in Input, f *Frame, base Op, stage model.Stage, c model.Clip, res model.Resource, found bool, x0, vx0, vx1, ry, h float64) {
	if !found {
		return
	}
	switch {
	case len(res.Notes) > 0:
		lo, hi := pitchRange(res.Notes)
		for _, n := range res.Notes {
			if n.TimeSec+n.DurationSec <= c.StartOffsetSec || n.TimeSec >= c.StartOffsetSec+c.DurationSec {
				continue
			}
			t := c.TimeSec + (n.TimeSec - c.StartOffsetSec)
			nx0 := math.Max(in.X(t), vx0)
			nx1 := math.Min(in.X(t+n.DurationSec), vx1)
			if nx1 <= nx0 {
				nx1 = nx0 + 1
			}
			level := 0.5
			if hi > lo {
				level = float64(n.Pitch-lo) / float64(hi-lo)
			}
			op := base
			op.Kind, op.Role, op.X, op.W, op.H, op.Level = OpNote, RoleClip, nx0, nx1-nx0, 1, level
			op.Y = ry + (1-level)*math.Max(0, h-1)
			f.Ops = append(f.Ops, op)
		}
	case res.Kind == model.ResourceAudio || stage == model.StageVideoAudio:
		bars := int(vx1 - vx0)
		if in.Layout.MaxBars > 0 && bars > in.Layout.MaxBars {
			bars = in.Layout.MaxBars
		}
		if bars <= 0 {
			return
		}
		w := (vx1 - vx0) / float64(bars)
		for i := 0; i < bars; i++ {
			x := vx0 + float64(i)*w
			src := c.StartOffsetSec + (x-x0+w/2)/in.View.PxPerSec
			op := base
			op.Kind, op.Role, op.X, op.Y, op.W, op.H = OpBar, RoleClip, x, ry, w, h
			op.Level = bandLevel(res, src)
			f.Ops = append(f.Ops, op)
		}
	case res.Kind == model.ResourceVideo:
		tw := in.Layout.TileWidth
		if tw <= 0 {
			tw = vx1 - vx0
		}
		for x := vx0; x < vx1; x += tw {
			op := base
			op.Kind, op.Role, op.X, op.Y, op.W, op.H = OpTile, RoleClip, x, ry, math.Min(tw, vx1-x), h
			op.Text = res.PreviewSrc
			f.Ops = append(f.Ops, op)
		}
	case res.Kind == model.ResourceImage:
		op := base
		op.Kind, op.Role, op.X, op.Y, op.W, op.H = OpTile, RoleClip, vx0, ry, vx1-vx0, h
		op.Text = res.Src
		op.Level = 1
		f.Ops = append(f.Ops, op)
	}
}

// bandLevel reads the resource envelope at a source time; resources without
// peaks get a flat mid level.
func bandLevel(res model.Resource, srcSec float64) float64 {
	if len(res.Peaks) == 0 || res.SourceDuration() <= 0 {
		return 0.5
	}
	i := int(srcSec / res.SourceDuration() * float64(len(res.Peaks)))
	if i < 0 {
		i = 0
	}
	if i >= len(res.Peaks) {
		i = len(res.Peaks) - 1
	}
	return clamp01(res.Peaks[i])
}

func pitchRange(notes []model.NoteEvent) (int, int) {
	lo, hi := notes[0].Pitch, notes[0].Pitch
	for _, n := range notes[1:] {
		if n.Pitch < lo {
			lo = n.Pitch
		}
		if n.Pitch > hi {
			hi = n.Pitch
		}
	}
	return lo, hi
}

func drawPlayhead(in Input, f *Frame) {
	x := in.X(in.PlayheadSec)
	if x < in.Layout.Gutter || x >= in.Width {
		return
	}
	f.Ops = append(f.Ops, Op{Kind: OpPlayhead, Role: RolePlayhead, X: x, Y: 0, W: 0, H: in.Height})
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}
