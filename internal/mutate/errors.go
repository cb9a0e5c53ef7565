package mutate

import (
	"errors"
	"fmt"
)

type NotFoundError struct {
	Kind string
	ID   string
}

func (e NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Kind, e.ID)
}

var (
	ErrInvalidEdit   = errors.New("invalid edit")
	ErrTrackLocked   = errors.New("track is locked")
	ErrKindMismatch  = errors.New("resource kind does not match")
	ErrNotContiguous = errors.New("clips are not contiguous")
)

// LockedError names the locked track an edit touched. It matches ErrTrackLocked
// with errors.Is.
type LockedError struct {
	Track string
}

func (e LockedError) Error() string {
	return fmt.Sprintf("track is locked: %s", e.Track)
}

func (e LockedError) Is(target error) bool { return target == ErrTrackLocked }

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidEdit, fmt.Sprintf(format, args...))
}
