package tui

import (
	"context"
	"log/slog"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"splice-cli/internal/audio"
	"splice-cli/internal/config"
	"splice-cli/internal/engine"
	"splice-cli/internal/history"
	"splice-cli/internal/resource"
	"splice-cli/internal/sched"
	"splice-cli/internal/store"
)

type Options struct {
	Dir      string
	Scope    string
	Config   *config.Config
	Catalog  *resource.Catalog
	Resolver *resource.Resolver
	Logger   *slog.Logger
	// Now is the wall clock; nil means time.Now.
	Now func() time.Time
}

// Run opens the scope and runs the editor until the user quits. Pending saves
// are flushed on the way out.
func Run(ctx context.Context, o Options) error {
	applyColorProfilePreference()
	applyThemePreference()
	applyGlyphPreference()

	if o.Config == nil {
		o.Config = config.NewDefaultConfig()
	}
	if o.Logger == nil {
		o.Logger = slog.New(slog.DiscardHandler)
	}

	// Debounced callbacks must run on the event loop, so timers post them
	// through the program once it exists.
	var prog *tea.Program
	ready := make(chan struct{})
	sch := sched.NewTimerScheduler(func(fn func()) {
		<-ready
		prog.Send(postedMsg{fn: fn})
	})

	deps := engine.Deps{
		Scheduler: sch,
		Store:     &store.Store{Dir: o.Dir},
		History:   history.New(o.Config.Editor.HistoryDepth),
		Logger:    o.Logger,
	}
	if o.Catalog != nil {
		deps.Resources = o.Catalog
	}
	eng := engine.New(o.Config.Engine(), deps)
	if _, err := eng.Open(ctx, o.Scope); err != nil {
		return err
	}

	player, closeAudio := newPlayer(ctx, o)
	defer closeAudio()

	m := newAppModel(o, eng, player)
	prog = tea.NewProgram(m,
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
		tea.WithReportFocus(),
		tea.WithContext(ctx),
	)
	close(ready)

	if w, err := watchWorkspace(o.Dir, prog.Send, o.Logger); err != nil {
		o.Logger.Warn("workspace watch disabled", "dir", o.Dir, "err", err)
	} else {
		defer w.Close()
	}

	final, err := prog.Run()
	sch.Flush()
	if fm, ok := final.(appModel); ok {
		if serr := fm.saveUIState(); serr != nil {
			o.Logger.Warn("save ui state failed", "err", serr)
		}
	}
	if perr := eng.Persist(context.Background(), o.Scope); perr != nil {
		o.Logger.Warn("persist on exit failed", "scope", o.Scope, "err", perr)
	}
	return err
}

// newPlayer wires the decoder, cache and output sink from config. With audio
// disabled the player still runs, writing into a discard sink.
func newPlayer(ctx context.Context, o Options) (*audio.Player, func()) {
	ac := o.Config.Audio
	cache := audio.NewBufferCache(audio.FFmpegDecoder(ac.Decoder))
	cache.SetLimit(ac.PrewarmLimit)

	var sink audio.Sink = audio.DiscardSink{}
	if ac.Enabled && len(ac.Player) > 0 {
		sink = audio.StartExecSink(ctx, ac.Player, o.Logger)
	}
	deps := audio.PlayerDeps{
		Cache:  cache,
		Sink:   sink,
		Grain:  o.Config.Grain(),
		Logger: o.Logger,
	}
	if o.Resolver != nil {
		deps.Resolver = o.Resolver
	}
	return audio.NewPlayer(deps), func() { _ = sink.Close() }
}
