package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"splice-cli/internal/format"
	"splice-cli/internal/resource"
	"splice-cli/internal/store"
	"splice-cli/internal/tui"

	"github.com/spf13/cobra"
)

type App struct {
	Dir        string
	Scope      string
	Config     string
	PrettyJSON bool
	Format     string
}

func NewRootCmd() *cobra.Command {
	app := &App{}

	cmd := &cobra.Command{
		Use:          "splice",
		Short:        "splice multi-track timeline editor (CLI + TUI)",
		SilenceUsage: true,
		Example: strings.TrimSpace(`
  # Open the editor on the current scope
  splice

  # Register media and place it
  splice resources add media/drums.wav
  splice clips add drums

  # Print the arrangement as text
  splice render --width 120
`),
		RunE: func(cmd *cobra.Command, args []string) error {
			// No subcommand => interactive editor.
			if cmd.HasSubCommands() && len(args) == 0 {
				return runTUI(cmd, app)
			}
			return cmd.Help()
		},
	}

	cmd.PersistentFlags().StringVar(&app.Dir, "dir", envOr("SPLICE_DIR", ""), "Path to the .splice workspace dir (default: discovered from the current directory)")
	cmd.PersistentFlags().StringVar(&app.Scope, "scope", envOr("SPLICE_SCOPE", store.DefaultScope), "Arrangement scope to edit")
	cmd.PersistentFlags().StringVar(&app.Config, "config", envOr("SPLICE_CONFIG", ""), "Config file (default: <dir>/config.yaml)")
	cmd.PersistentFlags().BoolVar(&app.PrettyJSON, "pretty", false, "Pretty-print JSON output")
	cmd.PersistentFlags().StringVar(&app.Format, "format", envOr("SPLICE_FORMAT", "json"), "Output format (json|text)")

	cmd.AddCommand(newInitCmd(app))
	cmd.AddCommand(newDocsCmd(app))
	cmd.AddCommand(newResourcesCmd(app))
	cmd.AddCommand(newClipsCmd(app))
	cmd.AddCommand(newTracksCmd(app))
	cmd.AddCommand(newUndoCmd(app))
	cmd.AddCommand(newRedoCmd(app))
	cmd.AddCommand(newRenderCmd(app))
	cmd.AddCommand(newScrubCmd(app))
	cmd.AddCommand(newNormalizeCmd(app))

	return cmd
}

func runTUI(cmd *cobra.Command, app *App) error {
	if err := resolveDir(app); err != nil {
		return writeErr(cmd, err)
	}
	if err := (store.Store{Dir: app.Dir}).Ensure(); err != nil {
		return writeErr(cmd, err)
	}
	cfg, err := loadConfig(app)
	if err != nil {
		return writeErr(cmd, err)
	}
	cat, err := resource.Open(resource.PathIn(app.Dir))
	if err != nil {
		return writeErr(cmd, err)
	}
	logger, closeLog, err := openLogger(app.Dir, cfg.App.LogLevel)
	if err != nil {
		return writeErr(cmd, err)
	}
	defer closeLog()

	logger.Info("editor start", "dir", app.Dir, "scope", app.Scope)
	err = tui.Run(cmd.Context(), tui.Options{
		Dir:      app.Dir,
		Scope:    app.Scope,
		Config:   cfg,
		Catalog:  cat,
		Resolver: resource.NewResolver(mediaRoot(app.Dir, cfg.Audio.MediaRoot)),
		Logger:   logger,
	})
	if err != nil {
		logger.Error("editor exited", "err", err)
		return fmt.Errorf("editor: %w", err)
	}
	return nil
}

// resolveDir fills app.Dir: --dir wins, then the nearest .splice above the
// working directory, then ./.splice.
func resolveDir(app *App) error {
	if app.Dir != "" {
		abs, err := filepath.Abs(app.Dir)
		if err != nil {
			return err
		}
		app.Dir = abs
		return nil
	}
	d, err := store.DefaultDir()
	if err != nil {
		return err
	}
	app.Dir = d
	return nil
}

// mediaRoot resolves relative resource paths: configured root, else the
// directory holding the workspace.
func mediaRoot(dir, configured string) string {
	if configured == "" {
		return filepath.Dir(dir)
	}
	if filepath.IsAbs(configured) {
		return configured
	}
	return filepath.Join(filepath.Dir(dir), configured)
}

func envOr(k, d string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return d
}

func writeOut(cmd *cobra.Command, app *App, v any) error {
	return format.Write(cmd.OutOrStdout(), v, app.Format, app.PrettyJSON)
}

func writeErr(cmd *cobra.Command, err error) error {
	fmt.Fprintln(cmd.ErrOrStderr(), err.Error())
	return err
}
