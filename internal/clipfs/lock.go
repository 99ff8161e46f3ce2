package clipfs

import (
	"errors"
	"fmt"

	"github.com/gofrs/flock"
)

// ErrLocked is returned when another clipper process owns the data directory.
var ErrLocked = errors.New("history is owned by a running clipper process")

// Lock is an exclusive, process-wide claim on the data directory.
type Lock struct {
	fl *flock.Flock
}

// Acquire takes the data directory lock without blocking.
func (cfs *ClipFS) Acquire() (*Lock, error) {
	fl := flock.New(cfs.Path(LockFile))
	ok, err := fl.TryLock()
	if err != nil {
		return nil, fmt.Errorf("failed to lock %s: %w", fl.Path(), err)
	}
	if !ok {
		return nil, ErrLocked
	}
	return &Lock{fl: fl}, nil
}

// Release drops the lock. Releasing twice is harmless.
func (l *Lock) Release() error {
	if l == nil || l.fl == nil {
		return nil
	}
	return l.fl.Unlock()
}
