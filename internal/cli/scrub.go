package cli

import (
	"context"
	"fmt"
	"os"

	"splice-cli/internal/audio"
	"splice-cli/internal/resource"

	"github.com/spf13/cobra"
)

type scrubOut struct {
	Scope     string       `json:"scope"`
	AtSec     float64      `json:"atSec"`
	Velocity  float64      `json:"velocity"`
	ClipID    string       `json:"clipId,omitempty"`
	Source    audio.Source `json:"source"`
	OffsetSec float64      `json:"offsetSec"`
	DurMs     float64      `json:"durMs"`
	Rate      float64      `json:"rate"`
	Reverse   bool         `json:"reverse"`
	Frames    int          `json:"frames"`
	Out       string       `json:"out,omitempty"`
}

func (o scrubOut) Text() string {
	if o.ClipID == "" {
		return fmt.Sprintf("no audible clip at %.3fs", o.AtSec)
	}
	s := fmt.Sprintf("%s grain from %s: offset %.3fs, %.1fms at rate %.2f", o.Source, o.ClipID, o.OffsetSec, o.DurMs, o.Rate)
	if o.Reverse {
		s += " (reversed)"
	}
	if o.Out != "" {
		s += "\nwrote " + o.Out
	}
	return s
}

func newScrubCmd(app *App) *cobra.Command {
	var (
		at       float64
		velocity float64
		out      string
		synth    bool
	)

	cmd := &cobra.Command{
		Use:   "scrub",
		Short: "Render the scrub grain heard at a time and velocity",
		Long: `Decodes the audible clip under --at (unless --synth) and renders the grain the
editor would play for a scrub at --velocity timeline seconds per second.
--out writes it as a 48kHz stereo WAV file.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(cmd.Context(), app)
			if err != nil {
				return writeErr(cmd, err)
			}
			defer func() { _ = s.close(cmd.Context()) }()

			decode := audio.FFmpegDecoder(s.cfg.Audio.Decoder)
			if synth {
				decode = noMedia
			}
			cache := audio.NewBufferCache(decode)
			cache.SetLimit(s.cfg.Audio.PrewarmLimit)
			player := audio.NewPlayer(audio.PlayerDeps{
				Cache:    cache,
				Resolver: resource.NewResolver(mediaRoot(app.Dir, s.cfg.Audio.MediaRoot)),
				Sink:     audio.DiscardSink{},
				Grain:    s.cfg.Grain(),
				Logger:   s.log,
			})
			db := s.db()
			player.SetScene(audio.Scene{
				Clips:          db.Clips,
				Tracks:         s.eng.Tracks(app.Scope),
				Resources:      s.catalog,
				ArrangementSec: db.ArrangementEnd(),
			})
			if err := cache.Prewarm(cmd.Context(), player.Pending()); err != nil {
				return writeErr(cmd, err)
			}

			res := player.ScrubAt(at, velocity, 0)
			player.StopScrub()
			g := res.Grain
			o := scrubOut{
				Scope:     app.Scope,
				AtSec:     at,
				Velocity:  velocity,
				ClipID:    res.ClipID,
				Source:    res.Source,
				OffsetSec: g.OffsetSec,
				DurMs:     g.DurMs,
				Rate:      g.Rate,
				Reverse:   g.Reverse,
				Frames:    len(g.Samples) / audio.Channels,
			}

			if out != "" {
				if len(g.Samples) == 0 {
					return writeErr(cmd, fmt.Errorf("no audible clip at %.3fs", at))
				}
				if err := writeWAVFile(out, g.Samples); err != nil {
					return writeErr(cmd, err)
				}
				o.Out = out
			}
			s.log.Debug("scrub rendered", "at", at, "velocity", velocity, "source", res.Source, "clip", res.ClipID)
			return writeOut(cmd, app, map[string]any{"data": o})
		},
	}

	cmd.Flags().Float64Var(&at, "at", 0, "Playhead time in seconds")
	cmd.Flags().Float64Var(&velocity, "velocity", 1, "Scrub velocity in timeline seconds per second (negative plays backwards)")
	cmd.Flags().StringVar(&out, "out", "", "Write the grain to this WAV file")
	cmd.Flags().BoolVar(&synth, "synth", false, "Skip decoding and use the synthesized fallback")
	_ = cmd.MarkFlagRequired("at")

	return cmd
}

func noMedia(_ context.Context, src string) (audio.Buffer, error) {
	return audio.Buffer{}, fmt.Errorf("decoding disabled: %s", src)
}

func writeWAVFile(path string, pcm []int16) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := audio.WriteWAV(f, pcm); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}
