package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"splice-cli/internal/model"

	_ "modernc.org/sqlite"
)

// scopeMeta is the non-clip part of a scope, stored as one JSON blob.
type scopeMeta struct {
	Version     int             `json:"version"`
	NextSegment map[string]int  `json:"nextSegment"`
	Sections    []model.Section `json:"sections,omitempty"`
	View        model.ViewState `json:"view"`
	PlayheadSec float64         `json:"playheadSec"`
}

// HistoryState is the persisted form of a scope's undo/redo stacks (oldest first).
type HistoryState struct {
	Undo []Snapshot `json:"undo"`
	Redo []Snapshot `json:"redo"`
}

func (s Store) openSQLite(ctx context.Context) (*sql.DB, error) {
	if err := s.Ensure(); err != nil {
		return nil, err
	}
	// modernc.org/sqlite driver name is "sqlite".
	db, err := sql.Open("sqlite", s.SQLitePath())
	if err != nil {
		return nil, err
	}
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA busy_timeout=5000;",
	}
	for _, p := range pragmas {
		if _, err := db.ExecContext(ctx, p); err != nil {
			_ = db.Close()
			return nil, err
		}
	}
	if err := migrateSQLiteState(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// Load reads one scope. A scope that was never saved loads as an empty DB.
// The result is always normalized.
func (s Store) Load(ctx context.Context, scope string) (*DB, error) {
	out := NewDB(scope)

	db, err := s.openSQLite(ctx)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	var raw string
	err = db.QueryRowContext(ctx, `SELECT json FROM scopes WHERE id = ?`, out.Scope).Scan(&raw)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return out, nil
	case err != nil:
		return nil, err
	}
	var meta scopeMeta
	if err := json.Unmarshal([]byte(raw), &meta); err != nil {
		return nil, fmt.Errorf("decode scope %s: %w", out.Scope, err)
	}
	if meta.Version > 0 {
		out.Version = meta.Version
	}
	if meta.NextSegment != nil {
		out.NextSegment = meta.NextSegment
	}
	out.Sections = meta.Sections
	if meta.View.PxPerSec > 0 {
		out.View = meta.View
	}
	if out.View.RowScale <= 0 {
		out.View.RowScale = 1
	}
	out.PlayheadSec = meta.PlayheadSec

	clips, err := readJSONRows[model.Clip](ctx, db, `SELECT json FROM clips WHERE scope = ? ORDER BY track, time_sec, id`, out.Scope)
	if err != nil {
		return nil, err
	}
	if clips != nil {
		out.Clips = clips
	}

	rows, err := db.QueryContext(ctx, `SELECT track, locked, muted FROM track_flags WHERE scope = ?`, out.Scope)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var track string
		var locked, muted int
		if err := rows.Scan(&track, &locked, &muted); err != nil {
			return nil, err
		}
		if locked != 0 {
			out.Locks[track] = true
		}
		if muted != 0 {
			out.Mutes[track] = true
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	Normalize(out)
	return out, nil
}

// Save replaces everything stored for st.Scope.
func (s Store) Save(ctx context.Context, st *DB) error {
	if st == nil {
		return errors.New("nil db")
	}
	db, err := s.openSQLite(ctx)
	if err != nil {
		return err
	}
	defer db.Close()

	tx, err := db.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	nowMs := time.Now().UTC().UnixMilli()

	meta, _ := json.Marshal(scopeMeta{
		Version:     st.Version,
		NextSegment: st.NextSegment,
		Sections:    st.Sections,
		View:        st.View,
		PlayheadSec: st.PlayheadSec,
	})
	if _, err := tx.ExecContext(ctx, `INSERT OR REPLACE INTO scopes(id, json, updated_at_unixms) VALUES(?, ?, ?)`, st.Scope, string(meta), nowMs); err != nil {
		return err
	}

	// Replace-all per scope.
	for _, t := range []string{"clips", "track_flags"} {
		if _, err := tx.ExecContext(ctx, `DELETE FROM `+t+` WHERE scope = ?`, st.Scope); err != nil {
			return err
		}
	}
	for _, c := range st.Clips {
		raw, _ := json.Marshal(c)
		if _, err := tx.ExecContext(ctx, `INSERT INTO clips(scope, id, resource_id, track, time_sec, json, updated_at_unixms) VALUES(?, ?, ?, ?, ?, ?, ?)`,
			st.Scope, c.ID, c.ResourceID, c.Track, c.TimeSec, string(raw), nowMs); err != nil {
			return err
		}
	}
	for _, track := range flagTracks(st) {
		if _, err := tx.ExecContext(ctx, `INSERT INTO track_flags(scope, track, locked, muted) VALUES(?, ?, ?, ?)`,
			st.Scope, track, boolToInt(st.Locks[track]), boolToInt(st.Mutes[track])); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// Scopes lists every persisted scope id.
func (s Store) Scopes(ctx context.Context) ([]string, error) {
	db, err := s.openSQLite(ctx)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	rows, err := db.QueryContext(ctx, `SELECT id FROM scopes ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

func (s Store) LoadHistory(ctx context.Context, scope string) (HistoryState, error) {
	db, err := s.openSQLite(ctx)
	if err != nil {
		return HistoryState{}, err
	}
	defer db.Close()

	var out HistoryState
	undo, err := readJSONRows[Snapshot](ctx, db, `SELECT json FROM history WHERE scope = ? AND stack = 'undo' ORDER BY seq`, scope)
	if err != nil {
		return HistoryState{}, err
	}
	redo, err := readJSONRows[Snapshot](ctx, db, `SELECT json FROM history WHERE scope = ? AND stack = 'redo' ORDER BY seq`, scope)
	if err != nil {
		return HistoryState{}, err
	}
	out.Undo = undo
	out.Redo = redo
	return out, nil
}

func (s Store) SaveHistory(ctx context.Context, scope string, h HistoryState) error {
	db, err := s.openSQLite(ctx)
	if err != nil {
		return err
	}
	defer db.Close()

	tx, err := db.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM history WHERE scope = ?`, scope); err != nil {
		return err
	}
	write := func(stack string, xs []Snapshot) error {
		for i, snap := range xs {
			raw, _ := json.Marshal(snap)
			if _, err := tx.ExecContext(ctx, `INSERT INTO history(scope, stack, seq, signature, json) VALUES(?, ?, ?, ?, ?)`,
				scope, stack, i, snap.Signature, string(raw)); err != nil {
				return err
			}
		}
		return nil
	}
	if err := write("undo", h.Undo); err != nil {
		return err
	}
	if err := write("redo", h.Redo); err != nil {
		return err
	}
	return tx.Commit()
}

func migrateSQLiteState(ctx context.Context, db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS scopes (
			id TEXT PRIMARY KEY,
			json TEXT NOT NULL,
			updated_at_unixms INTEGER NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS clips (
			scope TEXT NOT NULL,
			id TEXT NOT NULL,
			resource_id TEXT NOT NULL,
			track TEXT NOT NULL,
			time_sec REAL NOT NULL,
			json TEXT NOT NULL,
			updated_at_unixms INTEGER NOT NULL,
			PRIMARY KEY (scope, id)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_clips_track ON clips(scope, track, time_sec);`,
		`CREATE INDEX IF NOT EXISTS idx_clips_resource ON clips(resource_id);`,
		`CREATE TABLE IF NOT EXISTS track_flags (
			scope TEXT NOT NULL,
			track TEXT NOT NULL,
			locked INTEGER NOT NULL,
			muted INTEGER NOT NULL,
			PRIMARY KEY (scope, track)
		);`,
		`CREATE TABLE IF NOT EXISTS history (
			scope TEXT NOT NULL,
			stack TEXT NOT NULL,
			seq INTEGER NOT NULL,
			signature TEXT NOT NULL,
			json TEXT NOT NULL,
			PRIMARY KEY (scope, stack, seq)
		);`,
	}
	for _, st := range stmts {
		if _, err := db.ExecContext(ctx, st); err != nil {
			return err
		}
	}
	return nil
}

func readJSONRows[T any](ctx context.Context, db *sql.DB, query string, args ...any) ([]T, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []T
	for rows.Next() {
		var js string
		if err := rows.Scan(&js); err != nil {
			return nil, err
		}
		var v T
		if err := json.Unmarshal([]byte(js), &v); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// flagTracks lists tracks with any flag set; lock state survives even when the
// track currently holds no clips.
func flagTracks(st *DB) []string {
	seen := map[string]bool{}
	for k, v := range st.Locks {
		if v && strings.TrimSpace(k) != "" {
			seen[k] = true
		}
	}
	for k, v := range st.Mutes {
		if v && strings.TrimSpace(k) != "" {
			seen[k] = true
		}
	}
	out := make([]string, 0, len(seen))
	for k := range seen {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
