package mutate

import (
	"strings"

	"splice-cli/internal/lanes"
	"splice-cli/internal/store"
)

type FlagResult struct {
	Track   string
	Value   bool
	Changed bool
}

// SetMute flips the mute flag on a track. Muted tracks stay editable.
func SetMute(db *store.DB, track string, muted bool) (FlagResult, error) {
	track, err := flagTrack(db, track)
	if err != nil {
		return FlagResult{}, err
	}
	if db.Mutes == nil {
		db.Mutes = map[string]bool{}
	}
	res := FlagResult{Track: track, Value: muted, Changed: db.Mutes[track] != muted}
	if muted {
		db.Mutes[track] = true
	} else {
		delete(db.Mutes, track)
	}
	return res, nil
}

// SetLock flips the lock flag on a track. Locked tracks reject edits.
func SetLock(db *store.DB, track string, locked bool) (FlagResult, error) {
	track, err := flagTrack(db, track)
	if err != nil {
		return FlagResult{}, err
	}
	if db.Locks == nil {
		db.Locks = map[string]bool{}
	}
	res := FlagResult{Track: track, Value: locked, Changed: db.Locks[track] != locked}
	if locked {
		db.Locks[track] = true
	} else {
		delete(db.Locks, track)
	}
	return res, nil
}

func flagTrack(db *store.DB, track string) (string, error) {
	track = strings.TrimSpace(track)
	if db == nil || track == "" {
		return "", invalid("track is required")
	}
	if lanes.IsDropzone(track) {
		return "", invalid("%s is not a content track", track)
	}
	if _, ok := lanes.ParseName(track); !ok && len(db.ClipsOnTrack(track)) == 0 {
		return "", NotFoundError{Kind: "track", ID: track}
	}
	return track, nil
}
