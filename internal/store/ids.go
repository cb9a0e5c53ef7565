package store

import (
	"fmt"
	"strconv"
	"strings"
)

const clipIDSep = "::clip::"

// ClipID builds the canonical id for the n-th placement of a resource.
func ClipID(resourceID string, n int) string {
	return fmt.Sprintf("%s%s%d", resourceID, clipIDSep, n)
}

// ParseClipID splits a canonical clip id. Non-canonical ids (e.g. imported
// from elsewhere) report ok=false.
func ParseClipID(id string) (resourceID string, n int, ok bool) {
	i := strings.LastIndex(id, clipIDSep)
	if i <= 0 {
		return "", 0, false
	}
	n, err := strconv.Atoi(id[i+len(clipIDSep):])
	if err != nil || n < 0 {
		return "", 0, false
	}
	return id[:i], n, true
}

// NextClipID reserves the next segment index for resourceID. Indexes already
// used by clips in the DB are skipped so ids stay unique after imports.
func (db *DB) NextClipID(resourceID string) string {
	if db.NextSegment == nil {
		db.NextSegment = map[string]int{}
	}
	n := db.NextSegment[resourceID]
	for {
		id := ClipID(resourceID, n)
		n++
		if _, taken := db.FindClip(id); !taken {
			db.NextSegment[resourceID] = n
			return id
		}
	}
}
