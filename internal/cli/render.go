package cli

import (
	"fmt"
	"math"

	"splice-cli/internal/model"
	"splice-cli/internal/render"
	"splice-cli/internal/store"
	"splice-cli/internal/tui"

	"github.com/spf13/cobra"
)

// frameText is one rasterized frame. With --format text only the grid is
// printed.
type frameText struct {
	Scope    string  `json:"scope"`
	Width    int     `json:"width"`
	Height   int     `json:"height"`
	PxPerSec float64 `json:"pxPerSec"`
	T0Sec    float64 `json:"t0Sec"`
	EndSec   float64 `json:"endSec"`
	Grid     string  `json:"grid"`
}

func (f frameText) Text() string { return f.Grid }

func newRenderCmd(app *App) *cobra.Command {
	var (
		width  int
		height int
		fit    bool
		from   float64
		color  bool
		ascii  bool
	)

	cmd := &cobra.Command{
		Use:   "render",
		Short: "Draw the arrangement as a character grid",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if width < 1 || height < 1 {
				return writeErr(cmd, fmt.Errorf("grid must be at least 1x1; got %dx%d", width, height))
			}
			s, err := openSession(cmd.Context(), app)
			if err != nil {
				return writeErr(cmd, err)
			}
			defer func() { _ = s.close(cmd.Context()) }()

			db := s.db()
			layout := s.cfg.Layout()
			view := db.View
			if view.PxPerSec <= 0 {
				view = model.DefaultViewState()
			}
			if cmd.Flags().Changed("from") {
				view.T0Sec = math.Max(0, from)
			}
			end := db.ArrangementEnd()
			if fit && end > 0 {
				px := (float64(width) - layout.Gutter) / end
				view.PxPerSec = math.Min(math.Max(px, s.cfg.View.MinPxPerSec), s.cfg.View.MaxPxPerSec)
				view.T0Sec = 0
			}

			in := render.Input{
				Width:          float64(width),
				Height:         float64(height),
				Layout:         layout,
				View:           view,
				Tracks:         s.eng.Tracks(app.Scope),
				Clips:          db.Clips,
				Resources:      s.catalog,
				Sections:       db.Sections,
				PlayheadSec:    db.PlayheadSec,
				ArrangementSec: end,
			}
			if st, err := (store.Store{Dir: app.Dir}).LoadUIState(); err == nil && st != nil && st.Scope == app.Scope {
				in.Selected = st.SelectedClipID
				in.Collapsed = map[model.Stage]bool{}
				for stage, v := range st.Collapsed {
					in.Collapsed[model.Stage(stage)] = v
				}
			}

			tui.UseASCII(ascii)
			grid := tui.Rasterize(render.Draw(in), width, height, color)
			return writeOut(cmd, app, map[string]any{"data": frameText{
				Scope:    app.Scope,
				Width:    width,
				Height:   height,
				PxPerSec: view.PxPerSec,
				T0Sec:    view.T0Sec,
				EndSec:   end,
				Grid:     grid,
			}})
		},
	}

	cmd.Flags().IntVar(&width, "width", 120, "Grid width in cells")
	cmd.Flags().IntVar(&height, "height", 24, "Grid height in cells")
	cmd.Flags().BoolVar(&fit, "fit", false, "Zoom so the whole arrangement fits the width")
	cmd.Flags().Float64Var(&from, "from", 0, "Left edge of the view in seconds")
	cmd.Flags().BoolVar(&color, "color", false, "Keep terminal colors in the grid")
	cmd.Flags().BoolVar(&ascii, "ascii", envOr("SPLICE_TUI_GLYPHS", "") == "ascii", "Draw with 7-bit glyphs only")

	return cmd
}
