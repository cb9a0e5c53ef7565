package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// noChangeError reports an undo or redo with nothing to walk.
type noChangeError struct {
	op    string
	scope string
}

func (e noChangeError) Error() string {
	return fmt.Sprintf("nothing to %s in scope %s", e.op, e.scope)
}

func newUndoCmd(app *App) *cobra.Command {
	return newHistoryCmd(app, "undo", "Undo the last edit in the scope")
}

func newRedoCmd(app *App) *cobra.Command {
	return newHistoryCmd(app, "redo", "Redo the last undone edit in the scope")
}

func newHistoryCmd(app *App, op, short string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   op,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(cmd.Context(), app)
			if err != nil {
				return writeErr(cmd, err)
			}
			var ok bool
			if op == "undo" {
				ok = s.eng.Undo(app.Scope)
			} else {
				ok = s.eng.Redo(app.Scope)
			}
			h := s.eng.History()
			undo, redo := h.CanUndo(app.Scope), h.CanRedo(app.Scope)
			clips := len(s.db().Clips)
			if err := s.close(cmd.Context()); err != nil {
				return writeErr(cmd, err)
			}
			if !ok {
				return writeErr(cmd, noChangeError{op: op, scope: app.Scope})
			}
			return writeOut(cmd, app, map[string]any{"data": map[string]any{
				"op":      op,
				"scope":   app.Scope,
				"clips":   clips,
				"canUndo": undo,
				"canRedo": redo,
			}})
		},
	}
	return cmd
}

func newNormalizeCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "normalize",
		Short: "Repair the scope: clamp clips into their sources and resolve overlaps",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(cmd.Context(), app)
			if err != nil {
				return writeErr(cmd, err)
			}
			changed := s.eng.Normalize(app.Scope)
			clips := len(s.db().Clips)
			if err := s.close(cmd.Context()); err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{"data": map[string]any{
				"scope":   app.Scope,
				"changed": changed,
				"clips":   clips,
			}})
		},
	}
	return cmd
}
