package cli

import (
	"fmt"
	"strconv"
	"strings"

	"splice-cli/internal/engine"
	"splice-cli/internal/model"
	"splice-cli/internal/render"
)

// Payloads below marshal as plain JSON and render as tables with --format text.

type clipList []model.Clip

func (l clipList) TableHeaders() []string {
	return []string{"ID", "RESOURCE", "TRACK", "START", "END", "OFFSET", "LINK"}
}

func (l clipList) TableRows() [][]string {
	rows := make([][]string, 0, len(l))
	for _, c := range l {
		link := ""
		if c.LinkGroupID != "" && c.LinkGroupID != c.ID {
			link = c.LinkGroupID
		}
		rows = append(rows, []string{
			c.ID, c.ResourceID, c.Track,
			render.FormatTime(c.TimeSec, 0.01),
			render.FormatTime(c.EndSec(), 0.01),
			secs(c.StartOffsetSec),
			link,
		})
	}
	return rows
}

type trackList []model.Track

func (l trackList) TableHeaders() []string {
	return []string{"TRACK", "KIND", "STAGE", "CLIPS", "MUTED", "LOCKED"}
}

func (l trackList) TableRows() [][]string {
	rows := make([][]string, 0, len(l))
	for _, t := range l {
		rows = append(rows, []string{
			t.Name, string(t.Kind), string(t.Stage),
			strconv.Itoa(t.EventCount), yesNo(t.Muted), yesNo(t.Locked),
		})
	}
	return rows
}

type resourceList []model.Resource

func (l resourceList) TableHeaders() []string {
	return []string{"ID", "KIND", "DURATION", "LABEL", "SRC"}
}

func (l resourceList) TableRows() [][]string {
	rows := make([][]string, 0, len(l))
	for _, r := range l {
		dur := ""
		if r.DurationSec > 0 {
			dur = secs(r.DurationSec)
		}
		rows = append(rows, []string{r.ID, string(r.Kind), dur, r.Label, r.Src})
	}
	return rows
}

// editResult is the outcome of one clip or track edit.
type editResult struct {
	Op      string      `json:"op"`
	Scope   string      `json:"scope"`
	Applied bool        `json:"applied"`
	Clip    *model.Clip `json:"clip,omitempty"`
	IDs     []string    `json:"ids,omitempty"`
	Count   int         `json:"count,omitempty"`
}

func newEditResult(op, scope string, r engine.Result) editResult {
	out := editResult{Op: op, Scope: scope, Applied: r.Applied, Count: r.Count}
	if r.Clip.ID != "" {
		c := r.Clip
		out.Clip = &c
	}
	for _, id := range r.IDs {
		if id != "" {
			out.IDs = append(out.IDs, id)
		}
	}
	return out
}

func (r editResult) Text() string {
	var b strings.Builder
	state := "no change"
	if r.Applied {
		state = "applied"
	}
	fmt.Fprintf(&b, "%s: %s", r.Op, state)
	if r.Clip != nil {
		fmt.Fprintf(&b, "\n%s on %s at %s (%ss)", r.Clip.ID, r.Clip.Track,
			render.FormatTime(r.Clip.TimeSec, 0.01), secs(r.Clip.DurationSec))
	}
	if len(r.IDs) > 0 {
		fmt.Fprintf(&b, "\n%s", strings.Join(r.IDs, " "))
	}
	if r.Count > 0 {
		fmt.Fprintf(&b, "\n%d clip(s)", r.Count)
	}
	return b.String()
}

func secs(v float64) string { return strconv.FormatFloat(v, 'f', 3, 64) }

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return ""
}
