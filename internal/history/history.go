// Package history keeps per-scope undo/redo stacks of placement snapshots.
package history

import (
	"strings"
	"sync"

	"splice-cli/internal/store"
)

const DefaultDepth = 120

type stacks struct {
	undo []store.Snapshot
	redo []store.Snapshot
}

type Manager struct {
	depth int

	mu       sync.Mutex
	scopes   map[string]*stacks
	applying bool
}

func New(depth int) *Manager {
	if depth <= 0 {
		depth = DefaultDepth
	}
	return &Manager{depth: depth, scopes: map[string]*stacks{}}
}

func (m *Manager) scope(id string) *stacks {
	id = strings.TrimSpace(id)
	if id == "" {
		id = store.DefaultScope
	}
	s, ok := m.scopes[id]
	if !ok {
		s = &stacks{}
		m.scopes[id] = s
	}
	return s
}

// Record pushes before onto the undo stack when the edit actually changed the
// placements, and clears redo. Records made while an undo/redo is being
// applied are ignored. It reports whether an entry was pushed.
func (m *Manager) Record(scope string, before, after store.Snapshot) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.applying || before.Signature == after.Signature {
		return false
	}
	s := m.scope(scope)
	if n := len(s.undo); n > 0 && s.undo[n-1].Signature == before.Signature {
		s.redo = nil
		return false
	}
	s.undo = append(s.undo, before)
	if len(s.undo) > m.depth {
		s.undo = append([]store.Snapshot{}, s.undo[len(s.undo)-m.depth:]...)
	}
	s.redo = nil
	return true
}

// Undo restores the most recent snapshot that differs from db's current clips.
func (m *Manager) Undo(scope string, db *store.DB) bool {
	return m.step(scope, db, true)
}

func (m *Manager) Redo(scope string, db *store.DB) bool {
	return m.step(scope, db, false)
}

func (m *Manager) step(scope string, db *store.DB, undo bool) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.applying || db == nil {
		return false
	}
	s := m.scope(scope)
	from, to := &s.undo, &s.redo
	if !undo {
		from, to = &s.redo, &s.undo
	}
	cur := db.Snapshot()
	for len(*from) > 0 {
		n := len(*from)
		snap := (*from)[n-1]
		*from = (*from)[:n-1]
		if snap.Signature == cur.Signature {
			continue
		}
		m.applying = true
		*to = append(*to, cur)
		if len(*to) > m.depth {
			*to = (*to)[len(*to)-m.depth:]
		}
		db.Restore(snap)
		m.applying = false
		return true
	}
	return false
}

func (m *Manager) CanUndo(scope string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.scope(scope).undo) > 0
}

func (m *Manager) CanRedo(scope string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.scope(scope).redo) > 0
}

// Applying reports whether an undo or redo is being restored.
func (m *Manager) Applying() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.applying
}

// Export copies the scope's stacks for persistence.
func (m *Manager) Export(scope string) store.HistoryState {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := m.scope(scope)
	return store.HistoryState{
		Undo: append([]store.Snapshot{}, s.undo...),
		Redo: append([]store.Snapshot{}, s.redo...),
	}
}

// Import replaces the scope's stacks, trimming to depth.
func (m *Manager) Import(scope string, st store.HistoryState) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := m.scope(scope)
	s.undo = tail(st.Undo, m.depth)
	s.redo = tail(st.Redo, m.depth)
}

func (m *Manager) Clear(scope string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.scopes, strings.TrimSpace(scope))
}

func tail(xs []store.Snapshot, n int) []store.Snapshot {
	if len(xs) > n {
		xs = xs[len(xs)-n:]
	}
	return append([]store.Snapshot{}, xs...)
}
