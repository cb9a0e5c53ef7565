package cli

import (
	"errors"
	"os"
	"path/filepath"

	"splice-cli/internal/config"
	"splice-cli/internal/resource"
	"splice-cli/internal/store"

	"github.com/spf13/cobra"
)

func newInitCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create a .splice workspace in the current directory",
		RunE: func(cmd *cobra.Command, args []string) error {
			// init never walks upward: a nested project gets its own workspace.
			if app.Dir == "" {
				cwd, err := os.Getwd()
				if err != nil {
					return writeErr(cmd, err)
				}
				app.Dir = filepath.Join(cwd, store.DirName)
			}
			if err := resolveDir(app); err != nil {
				return writeErr(cmd, err)
			}
			st := store.Store{Dir: app.Dir}
			if err := st.Ensure(); err != nil {
				return writeErr(cmd, err)
			}

			cfgPath := app.Config
			if cfgPath == "" {
				cfgPath = config.PathIn(app.Dir)
			}
			wroteConfig, err := writeIfMissing(cfgPath, func() error {
				return config.Save(cfgPath, config.NewDefaultConfig())
			})
			if err != nil {
				return writeErr(cmd, err)
			}
			catPath := resource.PathIn(app.Dir)
			wroteCatalog, err := writeIfMissing(catPath, func() error {
				c, err := resource.Open(catPath)
				if err != nil {
					return err
				}
				return c.Save()
			})
			if err != nil {
				return writeErr(cmd, err)
			}

			// Opening the scope creates the SQLite file and schema.
			s, err := openSession(cmd.Context(), app)
			if err != nil {
				return writeErr(cmd, err)
			}
			if err := s.eng.Persist(cmd.Context(), app.Scope); err != nil {
				_ = s.close(cmd.Context())
				return writeErr(cmd, err)
			}
			s.log.Info("workspace initialized", "dir", app.Dir)
			if err := s.close(cmd.Context()); err != nil {
				return writeErr(cmd, err)
			}

			return writeOut(cmd, app, map[string]any{
				"data": map[string]any{
					"dir":            app.Dir,
					"scope":          app.Scope,
					"sqlitePath":     st.SQLitePath(),
					"configPath":     cfgPath,
					"resourcesPath":  catPath,
					"createdConfig":  wroteConfig,
					"createdCatalog": wroteCatalog,
				},
			})
		},
	}
	return cmd
}

// writeIfMissing runs write only when path does not exist yet.
func writeIfMissing(path string, write func() error) (bool, error) {
	if _, err := os.Stat(path); err == nil {
		return false, nil
	} else if !errors.Is(err, os.ErrNotExist) {
		return false, err
	}
	if err := write(); err != nil {
		return false, err
	}
	return true, nil
}
