package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"splice-cli/internal/audio"
	"splice-cli/internal/model"
	"splice-cli/internal/mutate"
	"splice-cli/internal/resource"
	"splice-cli/internal/store"

	"github.com/spf13/cobra"
)

func newResourcesCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "resources",
		Aliases: []string{"resource", "res"},
		Short:   "Manage the media catalog (resources.yaml)",
	}

	cmd.AddCommand(newResourcesListCmd(app))
	cmd.AddCommand(newResourcesAddCmd(app))
	cmd.AddCommand(newResourcesRmCmd(app))

	return cmd
}

func newResourcesListCmd(app *App) *cobra.Command {
	var kind string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List catalog resources",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(cmd.Context(), app)
			if err != nil {
				return writeErr(cmd, err)
			}
			defer func() { _ = s.close(cmd.Context()) }()

			out := resourceList{}
			for _, r := range s.catalog.List() {
				if kind != "" && string(r.Kind) != kind {
					continue
				}
				out = append(out, r)
			}
			return writeOut(cmd, app, map[string]any{"data": out})
		},
	}

	cmd.Flags().StringVar(&kind, "kind", "", "Only list one kind (image|audio|video)")

	return cmd
}

func newResourcesAddCmd(app *App) *cobra.Command {
	var (
		id         string
		kind       string
		label      string
		duration   float64
		peaks      int
		videoAudio string
		copyMedia  bool
	)

	cmd := &cobra.Command{
		Use:   "add <path>",
		Short: "Add (or replace) a media file in the catalog",
		Long: strings.TrimSpace(`
Adds a media file to the catalog. The kind is inferred from the extension and
the duration is probed with ffprobe unless --duration is given. --peaks N
decodes the file and stores an N-bin signal preview.
`),
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(cmd.Context(), app)
			if err != nil {
				return writeErr(cmd, err)
			}
			defer func() { _ = s.close(cmd.Context()) }()

			abs, err := filepath.Abs(args[0])
			if err != nil {
				return writeErr(cmd, err)
			}
			if st, err := os.Stat(abs); err != nil {
				return writeErr(cmd, err)
			} else if st.IsDir() {
				return writeErr(cmd, fmt.Errorf("%s is a directory", args[0]))
			}

			root := mediaRoot(app.Dir, s.cfg.Audio.MediaRoot)
			if copyMedia {
				dest := filepath.Join(root, "media", filepath.Base(abs))
				if dest != abs {
					if err := store.CopyFile(abs, dest); err != nil {
						return writeErr(cmd, fmt.Errorf("copy media: %w", err))
					}
					abs = dest
				}
			}

			r := model.Resource{
				ID:          strings.TrimSpace(id),
				Kind:        model.ResourceKind(kind),
				Label:       label,
				DurationSec: duration,
				VideoAudio:  videoAudio,
			}
			if r.ID == "" {
				r.ID = resource.SlugID(abs)
			}
			if r.Kind == "" {
				k, ok := resource.KindForPath(abs)
				if !ok {
					return writeErr(cmd, fmt.Errorf("cannot infer kind of %s (pass --kind)", args[0]))
				}
				r.Kind = k
			}
			r.Src = srcKey(root, abs)

			if r.DurationSec <= 0 && r.Kind != model.ResourceImage {
				d, err := resource.ProbeDuration(cmd.Context(), "", abs)
				if err != nil {
					return writeErr(cmd, fmt.Errorf("%w (pass --duration to skip probing)", err))
				}
				r.DurationSec = d
			}
			if peaks > 0 && r.Kind != model.ResourceImage {
				buf, err := audio.DecodeFile(cmd.Context(), s.cfg.Audio.Decoder, abs)
				if err != nil {
					return writeErr(cmd, err)
				}
				r.Peaks = buf.Peaks(peaks)
			}

			if err := s.catalog.Put(r); err != nil {
				return writeErr(cmd, fmt.Errorf("resource %q: %w", r.ID, err))
			}
			if err := s.catalog.Save(); err != nil {
				return writeErr(cmd, err)
			}
			s.log.Info("resource added", "id", r.ID, "kind", r.Kind, "src", r.Src)
			return writeOut(cmd, app, map[string]any{"data": r})
		},
	}

	cmd.Flags().StringVar(&id, "id", "", "Resource id (default: slug of the file name)")
	cmd.Flags().StringVar(&kind, "kind", "", "Resource kind (image|audio|video)")
	cmd.Flags().StringVar(&label, "label", "", "Display label")
	cmd.Flags().Float64Var(&duration, "duration", 0, "Source duration in seconds (skips ffprobe)")
	cmd.Flags().IntVar(&peaks, "peaks", 0, "Decode and store an N-bin signal preview")
	cmd.Flags().StringVar(&videoAudio, "video-audio", "", "Whether a video carries audio (present|absent)")
	cmd.Flags().BoolVar(&copyMedia, "copy", false, "Copy the file into <media root>/media first")

	return cmd
}

func newResourcesRmCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rm <id>",
		Short: "Remove a resource from the catalog (placed clips are kept)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(cmd.Context(), app)
			if err != nil {
				return writeErr(cmd, err)
			}
			defer func() { _ = s.close(cmd.Context()) }()

			if !s.catalog.Remove(args[0]) {
				return writeErr(cmd, mutate.NotFoundError{Kind: "resource", ID: args[0]})
			}
			if err := s.catalog.Save(); err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{"data": map[string]any{"id": args[0], "removed": true}})
		},
	}
	return cmd
}

// srcKey stores paths under the media root relative to it so a workspace can
// move with its media.
func srcKey(root, abs string) string {
	rel, err := filepath.Rel(root, abs)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return abs
	}
	return filepath.ToSlash(rel)
}
