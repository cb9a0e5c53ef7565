package store

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"splice-cli/internal/model"
)

const (
	// DirName is the workspace directory created by init.
	DirName        = ".splice"
	sqliteFileName = "splice.sqlite"

	// DefaultScope is used when the caller does not name one.
	DefaultScope = "main"
)

// DB is the full editable state of one scope (one arrangement).
//
// Clips are kept sorted by (track, time, id) after every mutation so lookups and
// signatures are deterministic.
type DB struct {
	Version     int             `json:"version"`
	Scope       string          `json:"scope"`
	Clips       []model.Clip    `json:"clips"`
	NextSegment map[string]int  `json:"nextSegment"`
	Locks       map[string]bool `json:"locks,omitempty"`
	Mutes       map[string]bool `json:"mutes,omitempty"`
	Sections    []model.Section `json:"sections,omitempty"`
	View        model.ViewState `json:"view"`
	PlayheadSec float64         `json:"playheadSec"`
}

func NewDB(scope string) *DB {
	scope = strings.TrimSpace(scope)
	if scope == "" {
		scope = DefaultScope
	}
	return &DB{
		Version:     1,
		Scope:       scope,
		Clips:       []model.Clip{},
		NextSegment: map[string]int{},
		Locks:       map[string]bool{},
		Mutes:       map[string]bool{},
		View:        model.DefaultViewState(),
	}
}

type Store struct {
	Dir string
}

func DiscoverDir(start string) (string, bool) {
	dir := start
	for {
		candidate := filepath.Join(dir, DirName)
		if st, err := os.Stat(candidate); err == nil && st.IsDir() {
			return candidate, true
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", false
		}
		dir = parent
	}
}

func DefaultDir() (string, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return "", err
	}
	if found, ok := DiscoverDir(cwd); ok {
		return found, nil
	}
	return filepath.Join(cwd, DirName), nil
}

func (s Store) Ensure() error {
	return os.MkdirAll(s.Dir, 0o755)
}

func (s Store) SQLitePath() string {
	return filepath.Join(s.Dir, sqliteFileName)
}

func (db *DB) FindClip(id string) (*model.Clip, bool) {
	id = strings.TrimSpace(id)
	for i := range db.Clips {
		if db.Clips[i].ID == id {
			return &db.Clips[i], true
		}
	}
	return nil, false
}

// ClipsOnTrack returns copies of the clips on track, ordered by time.
func (db *DB) ClipsOnTrack(track string) []model.Clip {
	var out []model.Clip
	for _, c := range db.Clips {
		if c.Track == track {
			out = append(out, c)
		}
	}
	sortByTime(out)
	return out
}

// LinkGroup returns copies of every clip in the given link group.
func (db *DB) LinkGroup(group string) []model.Clip {
	var out []model.Clip
	for _, c := range db.Clips {
		if c.Group() == group {
			out = append(out, c)
		}
	}
	sortByTime(out)
	return out
}

func (db *DB) TrackNames() []string {
	seen := map[string]bool{}
	var out []string
	for _, c := range db.Clips {
		if !seen[c.Track] {
			seen[c.Track] = true
			out = append(out, c.Track)
		}
	}
	sort.Strings(out)
	return out
}

// ArrangementEnd is the end of the last clip on any track.
func (db *DB) ArrangementEnd() float64 {
	end := 0.0
	for _, c := range db.Clips {
		if e := c.EndSec(); e > end {
			end = e
		}
	}
	return end
}

func (db *DB) IsLocked(track string) bool { return db.Locks[track] }
func (db *DB) IsMuted(track string) bool  { return db.Mutes[track] }

// Clone returns a deep copy.
func (db *DB) Clone() *DB {
	out := *db
	out.Clips = append([]model.Clip{}, db.Clips...)
	out.Sections = append([]model.Section(nil), db.Sections...)
	out.NextSegment = copyIntMap(db.NextSegment)
	out.Locks = copyBoolMap(db.Locks)
	out.Mutes = copyBoolMap(db.Mutes)
	return &out
}

// ReplaceClips swaps in a clip set (e.g. a validated candidate) and re-sorts.
func (db *DB) ReplaceClips(clips []model.Clip) {
	db.Clips = append([]model.Clip{}, clips...)
	db.SortClips()
}

func (db *DB) SortClips() {
	sort.SliceStable(db.Clips, func(i, j int) bool {
		a, b := db.Clips[i], db.Clips[j]
		if a.Track != b.Track {
			return a.Track < b.Track
		}
		if a.TimeSec != b.TimeSec {
			return a.TimeSec < b.TimeSec
		}
		return a.ID < b.ID
	})
}

func sortByTime(cs []model.Clip) {
	sort.SliceStable(cs, func(i, j int) bool {
		if cs[i].TimeSec != cs[j].TimeSec {
			return cs[i].TimeSec < cs[j].TimeSec
		}
		return cs[i].ID < cs[j].ID
	})
}

func copyIntMap(m map[string]int) map[string]int {
	out := make(map[string]int, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func copyBoolMap(m map[string]bool) map[string]bool {
	out := make(map[string]bool, len(m))
	for k, v := range m {
		if v {
			out[k] = true
		}
	}
	return out
}
