// Package engine is the single entry point for edits. Every mutating call is
// bracketed by snapshots so history sees it, and schedules a debounced save of
// the touched scope.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sort"
	"time"

	"splice-cli/internal/history"
	"splice-cli/internal/lanes"
	"splice-cli/internal/model"
	"splice-cli/internal/mutate"
	"splice-cli/internal/sched"
	"splice-cli/internal/store"
)

type Config struct {
	Edit            mutate.Options
	SnapThresholdPx float64
	ZeroSnapSec     float64
	PersistDelay    time.Duration
	// View is where a scope that has never been saved starts.
	View model.ViewState
}

func DefaultConfig() Config {
	return Config{
		Edit:            mutate.DefaultOptions(),
		SnapThresholdPx: mutate.DefaultSnapThresholdPx,
		ZeroSnapSec:     mutate.DefaultZeroSnapSec,
		PersistDelay:    400 * time.Millisecond,
		View:            model.DefaultViewState(),
	}
}

type Engine struct {
	cfg       Config
	registry  *store.Registry
	history   *history.Manager
	sched     sched.Scheduler
	resources model.ResourceFinder
	persist   *store.Store
	log       *slog.Logger

	// dirty scopes have edits that are not yet on disk.
	dirty map[string]bool
}

type Deps struct {
	Registry  *store.Registry
	History   *history.Manager
	Scheduler sched.Scheduler
	Resources model.ResourceFinder
	// Store is optional; without it edits stay in memory.
	Store  *store.Store
	Logger *slog.Logger
}

func New(cfg Config, deps Deps) *Engine {
	if deps.Registry == nil {
		deps.Registry = store.NewRegistry()
	}
	if deps.Registry.View.PxPerSec <= 0 {
		deps.Registry.View = cfg.View
	}
	if deps.History == nil {
		deps.History = history.New(history.DefaultDepth)
	}
	if deps.Scheduler == nil {
		deps.Scheduler = sched.NewManual()
	}
	if deps.Resources == nil {
		deps.Resources = model.ResourceMap{}
	}
	if deps.Logger == nil {
		deps.Logger = slog.New(slog.DiscardHandler)
	}
	return &Engine{
		cfg:       cfg,
		registry:  deps.Registry,
		history:   deps.History,
		sched:     deps.Scheduler,
		resources: deps.Resources,
		persist:   deps.Store,
		log:       deps.Logger,
		dirty:     map[string]bool{},
	}
}

// Result describes the outcome of one edit. Applied is false when the edit
// was rejected or changed nothing.
type Result struct {
	Applied bool
	Clip    model.Clip
	// IDs holds op-specific ids (split halves, kept/removed pieces).
	IDs   []string
	Count int
}

// Open loads a scope and its history from the store if it is not yet in the
// registry.
func (e *Engine) Open(ctx context.Context, scope string) (*store.DB, error) {
	if db, ok := e.registry.Lookup(scope); ok {
		return db, nil
	}
	if e.persist == nil {
		return e.registry.Scope(scope), nil
	}
	db, err := e.persist.Load(ctx, scope)
	if err != nil {
		return nil, fmt.Errorf("load scope %s: %w", scope, err)
	}
	hs, err := e.persist.LoadHistory(ctx, db.Scope)
	if err != nil {
		return nil, fmt.Errorf("load history %s: %w", scope, err)
	}
	if e.cfg.View.PxPerSec > 0 {
		known, err := e.persist.Scopes(ctx)
		if err != nil {
			return nil, fmt.Errorf("list scopes: %w", err)
		}
		if !slices.Contains(known, db.Scope) {
			db.View = e.cfg.View
		}
	}
	e.registry.Put(db)
	e.history.Import(db.Scope, hs)
	return db, nil
}

func (e *Engine) DB(scope string) *store.DB { return e.registry.Scope(scope) }

func (e *Engine) Resources() model.ResourceFinder { return e.resources }

func (e *Engine) SetResources(r model.ResourceFinder) {
	if r != nil {
		e.resources = r
	}
}

func (e *Engine) History() *history.Manager { return e.history }

func (e *Engine) Config() Config { return e.cfg }

// Tracks is the ordered track list for scope, dropzones included.
func (e *Engine) Tracks(scope string) []model.Track {
	return lanes.Build(e.DB(scope), e.resources)
}

// apply runs fn against the scope, records history when the placements
// changed and schedules persistence. Rejected edits leave no trace.
func (e *Engine) apply(scope, op string, fn func(db *store.DB) (Result, error)) (Result, error) {
	db := e.DB(scope)
	before := db.Snapshot()
	flags := flagSignature(db)
	res, err := fn(db)
	if err != nil {
		e.log.Debug("edit rejected", "op", op, "scope", db.Scope, "err", err)
		return Result{}, err
	}
	after := db.Snapshot()
	changed := after.Signature != before.Signature
	if changed {
		e.history.Record(db.Scope, before, after)
	}
	if changed || flags != flagSignature(db) {
		res.Applied = true
		e.schedulePersist(db)
	}
	e.log.Debug("edit", "op", op, "scope", db.Scope, "applied", res.Applied)
	return res, nil
}

func (e *Engine) Append(scope, resourceID string, patch mutate.Patch) (Result, error) {
	return e.apply(scope, "append", func(db *store.DB) (Result, error) {
		res, ok := e.resources.FindResource(resourceID)
		if !ok {
			return Result{}, mutate.NotFoundError{Kind: "resource", ID: resourceID}
		}
		c, err := mutate.Append(db, res, patch, e.cfg.Edit)
		return Result{Clip: c}, err
	})
}

func (e *Engine) Upsert(scope, resourceID, clipID string, patch mutate.Patch) (Result, error) {
	return e.apply(scope, "upsert", func(db *store.DB) (Result, error) {
		res, _ := e.resources.FindResource(resourceID)
		c, err := mutate.Upsert(db, res, clipID, patch, e.cfg.Edit)
		return Result{Clip: c}, err
	})
}

func (e *Engine) Remove(scope string, clipIDs ...string) (Result, error) {
	return e.apply(scope, "remove", func(db *store.DB) (Result, error) {
		return Result{Count: mutate.Remove(db, clipIDs)}, nil
	})
}

func (e *Engine) Split(scope, clipID string, cutSec float64) (Result, error) {
	return e.apply(scope, "split", func(db *store.DB) (Result, error) {
		r, err := mutate.Split(db, clipID, cutSec)
		return Result{IDs: []string{r.LeftID, r.RightID}}, err
	})
}

func (e *Engine) Trim(scope, clipID string, cutSec float64, keep mutate.Side) (Result, error) {
	return e.apply(scope, "trim", func(db *store.DB) (Result, error) {
		r, err := mutate.Trim(db, clipID, cutSec, keep)
		return Result{IDs: []string{r.KeepID, r.RemoveID}}, err
	})
}

func (e *Engine) Join(scope, leftID, rightID string) (Result, error) {
	return e.apply(scope, "join", func(db *store.DB) (Result, error) {
		r, err := mutate.Join(db, leftID, rightID, e.cfg.Edit)
		return Result{IDs: []string{r.KeepID, r.RemovedID}}, err
	})
}

// JoinNext joins clipID with the next clip on its track.
func (e *Engine) JoinNext(scope, clipID string) (Result, error) {
	db := e.DB(scope)
	c, ok := db.FindClip(clipID)
	if !ok {
		return Result{}, mutate.NotFoundError{Kind: "clip", ID: clipID}
	}
	for _, o := range db.ClipsOnTrack(c.Track) {
		if o.ID != c.ID && o.TimeSec >= c.EndSec()-model.Epsilon {
			return e.Join(scope, c.ID, o.ID)
		}
	}
	return Result{}, mutate.ErrNotContiguous
}

func (e *Engine) Duplicate(scope string, clipIDs ...string) (Result, error) {
	return e.apply(scope, "duplicate", func(db *store.DB) (Result, error) {
		n, err := mutate.Duplicate(db, clipIDs, e.cfg.Edit.DuplicateGapSec)
		return Result{Count: n}, err
	})
}

// Move relocates a clip. With snap set, edges are pulled onto landmarks at the
// scope's current zoom, with gridStepSec as the active ruler step.
func (e *Engine) Move(scope, clipID, track string, timeSec float64, snap bool, gridStepSec float64) (Result, error) {
	return e.apply(scope, "move", func(db *store.DB) (Result, error) {
		req := mutate.MoveRequest{Track: track, TimeSec: timeSec}
		if snap {
			s := e.Snapper(db, gridStepSec)
			req.Snap = &s
		}
		r, err := mutate.Move(db, clipID, req)
		return Result{Clip: r.Clip, Count: len(r.Moved)}, err
	})
}

func (e *Engine) TrimEdge(scope, clipID string, edge mutate.Edge, timeSec float64, snap bool, gridStepSec float64) (Result, error) {
	return e.apply(scope, "trim-edge", func(db *store.DB) (Result, error) {
		req := mutate.TrimEdgeRequest{Edge: edge, TimeSec: timeSec}
		if snap {
			s := e.Snapper(db, gridStepSec)
			req.Snap = &s
		}
		c, err := mutate.TrimEdge(db, clipID, req, e.cfg.Edit)
		return Result{Clip: c}, err
	})
}

func (e *Engine) SetMute(scope, track string, muted bool) (Result, error) {
	return e.apply(scope, "mute", func(db *store.DB) (Result, error) {
		_, err := mutate.SetMute(db, track, muted)
		return Result{}, err
	})
}

func (e *Engine) SetLock(scope, track string, locked bool) (Result, error) {
	return e.apply(scope, "lock", func(db *store.DB) (Result, error) {
		_, err := mutate.SetLock(db, track, locked)
		return Result{}, err
	})
}

func (e *Engine) Undo(scope string) bool {
	db := e.DB(scope)
	if !e.history.Undo(db.Scope, db) {
		return false
	}
	e.schedulePersist(db)
	return true
}

func (e *Engine) Redo(scope string) bool {
	db := e.DB(scope)
	if !e.history.Redo(db.Scope, db) {
		return false
	}
	e.schedulePersist(db)
	return true
}

// SetView stores the viewport without touching history.
func (e *Engine) SetView(scope string, v model.ViewState) {
	db := e.DB(scope)
	if db.View == v {
		return
	}
	db.View = v
	e.schedulePersist(db)
}

func (e *Engine) SetPlayhead(scope string, sec float64) {
	db := e.DB(scope)
	if sec < 0 {
		sec = 0
	}
	if db.PlayheadSec == sec {
		return
	}
	db.PlayheadSec = sec
	e.schedulePersist(db)
}

// SetSection replaces section i. Sections live outside clip history.
func (e *Engine) SetSection(scope string, i int, sec model.Section) error {
	db := e.DB(scope)
	if i < 0 || i >= len(db.Sections) {
		return mutate.NotFoundError{Kind: "section", ID: fmt.Sprint(i)}
	}
	if sec.StartSec < 0 || sec.EndSec-sec.StartSec < model.MinClipSec-model.Epsilon {
		return fmt.Errorf("%w: section %q is too short", mutate.ErrInvalidEdit, sec.Name)
	}
	if db.Sections[i] == sec {
		return nil
	}
	db.Sections[i] = sec
	e.schedulePersist(db)
	return nil
}

// AddSection appends a named section.
func (e *Engine) AddSection(scope string, sec model.Section) error {
	db := e.DB(scope)
	if sec.StartSec < 0 || sec.EndSec-sec.StartSec < model.MinClipSec-model.Epsilon {
		return fmt.Errorf("%w: section %q is too short", mutate.ErrInvalidEdit, sec.Name)
	}
	db.Sections = append(db.Sections, sec)
	e.schedulePersist(db)
	return nil
}

// Normalize repairs the scope's placements outside of history.
func (e *Engine) Normalize(scope string) bool {
	db := e.DB(scope)
	if !store.Normalize(db) {
		return false
	}
	e.schedulePersist(db)
	return true
}

func (e *Engine) Snapper(db *store.DB, gridStepSec float64) mutate.Snapper {
	s := mutate.NewSnapper(db.View.PxPerSec, db.PlayheadSec, gridStepSec)
	if e.cfg.SnapThresholdPx > 0 {
		s.ThresholdPx = e.cfg.SnapThresholdPx
	}
	if e.cfg.ZeroSnapSec > 0 {
		s.ZeroSnapSec = e.cfg.ZeroSnapSec
	}
	return s
}

func (e *Engine) schedulePersist(db *store.DB) {
	if e.persist == nil {
		return
	}
	scope := db.Scope
	e.dirty[scope] = true
	e.sched.ScheduleOnce("persist:"+scope, e.cfg.PersistDelay, func() {
		if err := e.Persist(context.Background(), scope); err != nil {
			e.log.Warn("persist failed", "scope", scope, "err", err)
		}
	})
}

// Persist writes the scope and its history now.
func (e *Engine) Persist(ctx context.Context, scope string) error {
	if e.persist == nil {
		return nil
	}
	db, ok := e.registry.Lookup(scope)
	if !ok {
		return nil
	}
	if err := e.persist.Save(ctx, db); err != nil {
		return err
	}
	if err := e.persist.SaveHistory(ctx, db.Scope, e.history.Export(db.Scope)); err != nil {
		return err
	}
	delete(e.dirty, db.Scope)
	return nil
}

// Dirty reports whether scope has edits waiting for the debounced save.
func (e *Engine) Dirty(scope string) bool { return e.dirty[scope] }

// Reload replaces scope with what the store holds, for writes made by another
// process. It refuses while local edits are unsaved and reports whether the
// visible state changed.
func (e *Engine) Reload(ctx context.Context, scope string) (bool, error) {
	if e.persist == nil || e.dirty[scope] {
		return false, nil
	}
	db, err := e.persist.Load(ctx, scope)
	if err != nil {
		return false, fmt.Errorf("reload scope %s: %w", scope, err)
	}
	cur := e.DB(scope)
	if store.Signature(db.Clips) == store.Signature(cur.Clips) &&
		flagSignature(db) == flagSignature(cur) &&
		slices.Equal(db.Sections, cur.Sections) {
		return false, nil
	}
	hs, err := e.persist.LoadHistory(ctx, db.Scope)
	if err != nil {
		return false, fmt.Errorf("reload history %s: %w", scope, err)
	}
	// The viewport belongs to this session.
	db.View = cur.View
	e.registry.Put(db)
	e.history.Import(db.Scope, hs)
	return true, nil
}

func flagSignature(db *store.DB) string {
	return fmt.Sprint(sortedKeys(db.Locks), "|", sortedKeys(db.Mutes))
}

func sortedKeys(m map[string]bool) []string {
	out := make([]string, 0, len(m))
	for k, v := range m {
		if v {
			out = append(out, k)
		}
	}
	sort.Strings(out)
	return out
}
