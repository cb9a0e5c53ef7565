package cli

import (
	"errors"
	"fmt"
	"strings"

	"splice-cli/internal/engine"
	"splice-cli/internal/mutate"

	"github.com/spf13/cobra"
)

func newClipsCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "clips",
		Aliases: []string{"clip"},
		Short:   "Place and edit clips in the current scope",
	}

	cmd.AddCommand(newClipsListCmd(app))
	cmd.AddCommand(newClipsShowCmd(app))
	cmd.AddCommand(newClipsAddCmd(app))
	cmd.AddCommand(newClipsMoveCmd(app))
	cmd.AddCommand(newClipsTrimCmd(app))
	cmd.AddCommand(newClipsSplitCmd(app))
	cmd.AddCommand(newClipsJoinCmd(app))
	cmd.AddCommand(newClipsDupCmd(app))
	cmd.AddCommand(newClipsRmCmd(app))

	return cmd
}

// runEdit opens the workspace, applies one engine edit and prints its result.
// The scope is saved before the command returns.
func runEdit(cmd *cobra.Command, app *App, op string, fn func(s *session) (engine.Result, error)) error {
	s, err := openSession(cmd.Context(), app)
	if err != nil {
		return writeErr(cmd, err)
	}
	res, err := fn(s)
	if cerr := s.close(cmd.Context()); err == nil {
		err = cerr
	}
	if err != nil {
		return writeErr(cmd, fmt.Errorf("%s: %w", op, err))
	}
	return writeOut(cmd, app, map[string]any{"data": newEditResult(op, app.Scope, res)})
}

func newClipsListCmd(app *App) *cobra.Command {
	var track string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List clips ordered by track and time",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(cmd.Context(), app)
			if err != nil {
				return writeErr(cmd, err)
			}
			defer func() { _ = s.close(cmd.Context()) }()

			db := s.db()
			out := clipList{}
			if track != "" {
				out = append(out, db.ClipsOnTrack(track)...)
			} else {
				out = append(out, db.Clips...)
			}
			return writeOut(cmd, app, map[string]any{"data": out})
		},
	}

	cmd.Flags().StringVar(&track, "track", "", "Only list clips on this track")

	return cmd
}

func newClipsShowCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show <clip-id>",
		Short: "Show one clip with its resource and linked partners",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(cmd.Context(), app)
			if err != nil {
				return writeErr(cmd, err)
			}
			defer func() { _ = s.close(cmd.Context()) }()

			db := s.db()
			c, ok := db.FindClip(args[0])
			if !ok {
				return writeErr(cmd, mutate.NotFoundError{Kind: "clip", ID: args[0]})
			}
			linked := clipList{}
			for _, o := range db.LinkGroup(c.Group()) {
				if o.ID != c.ID {
					linked = append(linked, o)
				}
			}
			data := map[string]any{
				"clip":   *c,
				"linked": linked,
				"locked": db.IsLocked(c.Track),
				"muted":  db.IsMuted(c.Track),
			}
			if r, ok := s.catalog.FindResource(c.ResourceID); ok {
				data["resource"] = r
			}
			return writeOut(cmd, app, map[string]any{"data": data})
		},
	}
	return cmd
}

func newClipsAddCmd(app *App) *cobra.Command {
	var (
		id       string
		track    string
		timeSec  float64
		duration float64
		offset   float64
	)

	cmd := &cobra.Command{
		Use:   "add <resource-id>",
		Short: "Place a resource (appends at the end of a matching lane by default)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var p mutate.Patch
			if cmd.Flags().Changed("track") {
				p.Track = &track
			}
			if cmd.Flags().Changed("time") {
				p.TimeSec = &timeSec
			}
			if cmd.Flags().Changed("duration") {
				p.DurationSec = &duration
			}
			if cmd.Flags().Changed("offset") {
				p.StartOffsetSec = &offset
			}
			return runEdit(cmd, app, "add", func(s *session) (engine.Result, error) {
				if _, ok := s.catalog.FindResource(args[0]); !ok {
					return engine.Result{}, mutate.NotFoundError{Kind: "resource", ID: args[0]}
				}
				if id != "" {
					return s.eng.Upsert(app.Scope, args[0], id, p)
				}
				return s.eng.Append(app.Scope, args[0], p)
			})
		},
	}

	cmd.Flags().StringVar(&id, "id", "", "Create or update the clip with this id")
	cmd.Flags().StringVar(&track, "track", "", "Preferred track (falls back to a free lane of the same kind)")
	cmd.Flags().Float64Var(&timeSec, "time", 0, "Start time on the timeline in seconds")
	cmd.Flags().Float64Var(&duration, "duration", 0, "Clip length in seconds")
	cmd.Flags().Float64Var(&offset, "offset", 0, "Start offset into the source in seconds")

	return cmd
}

func newClipsMoveCmd(app *App) *cobra.Command {
	var (
		track   string
		timeSec float64
		snap    bool
	)

	cmd := &cobra.Command{
		Use:   "move <clip-id>",
		Short: "Move a clip (linked partners follow)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEdit(cmd, app, "move", func(s *session) (engine.Result, error) {
				return s.eng.Move(app.Scope, args[0], track, timeSec, snap, 0)
			})
		},
	}

	cmd.Flags().Float64Var(&timeSec, "time", 0, "New start time in seconds")
	cmd.Flags().StringVar(&track, "track", "", "Target track (default: keep)")
	cmd.Flags().BoolVar(&snap, "snap", false, "Snap edges to zero, the playhead and other clips")
	_ = cmd.MarkFlagRequired("time")

	return cmd
}

func newClipsTrimCmd(app *App) *cobra.Command {
	var (
		start float64
		end   float64
		at    float64
		keep  string
		snap  bool
	)

	cmd := &cobra.Command{
		Use:   "trim <clip-id>",
		Short: "Trim one edge (--start/--end) or cut and keep one side (--at --keep)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f := cmd.Flags()
			n := 0
			for _, name := range []string{"start", "end", "at"} {
				if f.Changed(name) {
					n++
				}
			}
			if n != 1 {
				return writeErr(cmd, errors.New("pass exactly one of --start, --end or --at"))
			}
			return runEdit(cmd, app, "trim", func(s *session) (engine.Result, error) {
				switch {
				case f.Changed("start"):
					return s.eng.TrimEdge(app.Scope, args[0], mutate.EdgeStart, start, snap, 0)
				case f.Changed("end"):
					return s.eng.TrimEdge(app.Scope, args[0], mutate.EdgeEnd, end, snap, 0)
				}
				side := mutate.Side(strings.ToLower(keep))
				if side != mutate.KeepLeft && side != mutate.KeepRight {
					return engine.Result{}, fmt.Errorf("%w: --keep must be left or right", mutate.ErrInvalidEdit)
				}
				return s.eng.Trim(app.Scope, args[0], at, side)
			})
		},
	}

	cmd.Flags().Float64Var(&start, "start", 0, "Drag the start edge to this time")
	cmd.Flags().Float64Var(&end, "end", 0, "Drag the end edge to this time")
	cmd.Flags().Float64Var(&at, "at", 0, "Cut at this time and drop one side")
	cmd.Flags().StringVar(&keep, "keep", string(mutate.KeepLeft), "Side kept by --at (left|right)")
	cmd.Flags().BoolVar(&snap, "snap", false, "Snap the dragged edge")

	return cmd
}

func newClipsSplitCmd(app *App) *cobra.Command {
	var at float64

	cmd := &cobra.Command{
		Use:   "split <clip-id>",
		Short: "Cut a clip in two; the right half gets a new id",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEdit(cmd, app, "split", func(s *session) (engine.Result, error) {
				return s.eng.Split(app.Scope, args[0], at)
			})
		},
	}

	cmd.Flags().Float64Var(&at, "at", 0, "Cut time in seconds")
	_ = cmd.MarkFlagRequired("at")

	return cmd
}

func newClipsJoinCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "join <left-id> [right-id]",
		Short: "Merge two contiguous clips of one source (default: the next clip on the track)",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEdit(cmd, app, "join", func(s *session) (engine.Result, error) {
				if len(args) == 1 {
					return s.eng.JoinNext(app.Scope, args[0])
				}
				return s.eng.Join(app.Scope, args[0], args[1])
			})
		},
	}
	return cmd
}

func newClipsDupCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dup <clip-id>...",
		Short: "Duplicate clips after the end of their tracks",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEdit(cmd, app, "dup", func(s *session) (engine.Result, error) {
				return s.eng.Duplicate(app.Scope, args...)
			})
		},
	}
	return cmd
}

func newClipsRmCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "rm <clip-id>...",
		Aliases: []string{"remove"},
		Short:   "Delete clips and their linked partners",
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEdit(cmd, app, "rm", func(s *session) (engine.Result, error) {
				return s.eng.Remove(app.Scope, args...)
			})
		},
	}
	return cmd
}
