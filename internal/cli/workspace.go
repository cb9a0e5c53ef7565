package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"splice-cli/internal/config"
	"splice-cli/internal/engine"
	"splice-cli/internal/history"
	"splice-cli/internal/resource"
	"splice-cli/internal/sched"
	"splice-cli/internal/store"
)

// LogFileName is the JSON log inside the workspace directory.
const LogFileName = "splice.log"

// session is one command's view of the workspace: config, catalog and an
// engine whose debounced saves run when the command closes it.
type session struct {
	app     *App
	cfg     *config.Config
	catalog *resource.Catalog
	eng     *engine.Engine
	sch     *sched.Manual
	log     *slog.Logger

	closeLog func()
}

func openSession(ctx context.Context, app *App) (*session, error) {
	if err := resolveDir(app); err != nil {
		return nil, err
	}
	st := &store.Store{Dir: app.Dir}
	if err := st.Ensure(); err != nil {
		return nil, err
	}
	cfg, err := loadConfig(app)
	if err != nil {
		return nil, err
	}
	cat, err := resource.Open(resource.PathIn(app.Dir))
	if err != nil {
		return nil, err
	}
	logger, closeLog, err := openLogger(app.Dir, cfg.App.LogLevel)
	if err != nil {
		return nil, err
	}

	sch := sched.NewManual()
	eng := engine.New(cfg.Engine(), engine.Deps{
		History:   history.New(cfg.Editor.HistoryDepth),
		Scheduler: sch,
		Resources: cat,
		Store:     st,
		Logger:    logger,
	})
	if _, err := eng.Open(ctx, app.Scope); err != nil {
		closeLog()
		return nil, err
	}
	return &session{app: app, cfg: cfg, catalog: cat, eng: eng, sch: sch, log: logger, closeLog: closeLog}, nil
}

func (s *session) db() *store.DB { return s.eng.DB(s.app.Scope) }

// close runs the pending debounced saves. A save that failed there is retried
// so the error reaches the caller.
func (s *session) close(ctx context.Context) error {
	defer s.closeLog()
	s.sch.Flush()
	if !s.eng.Dirty(s.app.Scope) {
		return nil
	}
	if err := s.eng.Persist(ctx, s.app.Scope); err != nil {
		return fmt.Errorf("save scope %s: %w", s.app.Scope, err)
	}
	return nil
}

func loadConfig(app *App) (*config.Config, error) {
	path := app.Config
	if path == "" {
		path = config.PathIn(app.Dir)
	}
	return config.LoadFile(path)
}

// openLogger appends JSON records to <dir>/splice.log. The terminal belongs to
// command output and the editor, so nothing is logged to stderr.
func openLogger(dir string, level slog.Level) (*slog.Logger, func(), error) {
	if dir == "" {
		return slog.New(slog.DiscardHandler), func() {}, nil
	}
	f, err := os.OpenFile(filepath.Join(dir, LogFileName), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if errors.Is(err, os.ErrNotExist) {
		return slog.New(slog.DiscardHandler), func() {}, nil
	}
	if err != nil {
		return nil, nil, fmt.Errorf("open log: %w", err)
	}
	logger := slog.New(slog.NewJSONHandler(f, &slog.HandlerOptions{Level: level}))
	return logger, func() { _ = f.Close() }, nil
}
