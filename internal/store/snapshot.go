package store

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"sort"

	"splice-cli/internal/model"
)

// Snapshot is an immutable copy of a scope's placement set.
type Snapshot struct {
	Clips       []model.Clip   `json:"clips"`
	NextSegment map[string]int `json:"nextSegment,omitempty"`
	Signature   string         `json:"signature"`
}

// Snapshot captures the current clips. NextSegment travels with the clips so an
// undone split does not hand out a clip id that a later redo still references.
func (db *DB) Snapshot() Snapshot {
	clips := append([]model.Clip{}, db.Clips...)
	return Snapshot{
		Clips:       clips,
		NextSegment: copyIntMap(db.NextSegment),
		Signature:   Signature(clips),
	}
}

// Restore replaces the clip set with the snapshot's.
func (db *DB) Restore(s Snapshot) {
	db.Clips = append([]model.Clip{}, s.Clips...)
	if s.NextSegment != nil {
		// Never roll segment counters backwards; ids stay unique across undo/redo.
		for k, v := range s.NextSegment {
			if v > db.NextSegment[k] {
				db.NextSegment[k] = v
			}
		}
	}
	db.SortClips()
}

// Signature hashes the clip set independent of slice order.
func Signature(clips []model.Clip) string {
	cs := append([]model.Clip{}, clips...)
	sort.Slice(cs, func(i, j int) bool { return cs[i].ID < cs[j].ID })
	b, err := json.Marshal(cs)
	if err != nil {
		return ""
	}
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}
