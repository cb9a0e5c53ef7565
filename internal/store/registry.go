package store

import (
	"sort"
	"strings"

	"splice-cli/internal/model"
)

// Registry owns every loaded scope. One instance is created by the application
// root and handed to the components that need it.
type Registry struct {
	scopes map[string]*DB
	// View is the starting view of scopes created here. Zero means
	// model.DefaultViewState.
	View model.ViewState
}

func NewRegistry() *Registry {
	return &Registry{scopes: map[string]*DB{}}
}

// Scope returns the DB for id, creating an empty one on first use.
func (r *Registry) Scope(id string) *DB {
	id = strings.TrimSpace(id)
	if id == "" {
		id = DefaultScope
	}
	if db, ok := r.scopes[id]; ok {
		return db
	}
	db := NewDB(id)
	if r.View.PxPerSec > 0 {
		db.View = r.View
	}
	r.scopes[id] = db
	return db
}

// Lookup returns the DB for id without creating it.
func (r *Registry) Lookup(id string) (*DB, bool) {
	db, ok := r.scopes[strings.TrimSpace(id)]
	return db, ok
}

// Put installs db (typically freshly loaded) under its scope id.
func (r *Registry) Put(db *DB) {
	if db == nil {
		return
	}
	r.scopes[db.Scope] = db
}

func (r *Registry) Scopes() []string {
	out := make([]string, 0, len(r.scopes))
	for id := range r.scopes {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}
