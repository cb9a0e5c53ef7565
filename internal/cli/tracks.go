package cli

import (
	"splice-cli/internal/engine"
	"splice-cli/internal/model"

	"github.com/spf13/cobra"
)

func newTracksCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "tracks",
		Aliases: []string{"track"},
		Short:   "Inspect tracks and toggle mute/lock",
	}

	cmd.AddCommand(newTracksListCmd(app))
	cmd.AddCommand(newTrackFlagCmd(app, "mute", "Mute an audio track (--off to unmute)"))
	cmd.AddCommand(newTrackFlagCmd(app, "lock", "Lock a track against edits (--off to unlock)"))

	return cmd
}

func newTracksListCmd(app *App) *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List tracks in display order",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(cmd.Context(), app)
			if err != nil {
				return writeErr(cmd, err)
			}
			defer func() { _ = s.close(cmd.Context()) }()

			out := trackList{}
			for _, t := range s.eng.Tracks(app.Scope) {
				if !all && t.Kind == model.TrackDropzone {
					continue
				}
				out = append(out, t)
			}
			return writeOut(cmd, app, map[string]any{"data": out})
		},
	}

	cmd.Flags().BoolVar(&all, "all", false, "Include the dropzone rows")

	return cmd
}

// newTrackFlagCmd builds the mute and lock commands, which differ only in the
// flag they set.
func newTrackFlagCmd(app *App, op, short string) *cobra.Command {
	var off bool

	cmd := &cobra.Command{
		Use:   op + " <track>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEdit(cmd, app, op, func(s *session) (engine.Result, error) {
				if op == "mute" {
					return s.eng.SetMute(app.Scope, args[0], !off)
				}
				return s.eng.SetLock(app.Scope, args[0], !off)
			})
		},
	}

	cmd.Flags().BoolVar(&off, "off", false, "Clear the flag instead of setting it")

	return cmd
}
