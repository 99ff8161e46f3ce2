// Package store defines clipper's history data model and the persistence
// contract. The live history lives in memstore; dbstore and filestore
// serialize it across restarts.
package store

import (
	"context"
	"errors"
)

var (
	// ErrNotFound is returned when an operation references an id that no
	// longer exists (deleted, evicted, or never ingested).
	ErrNotFound = errors.New("entry not found")

	// ErrCorrupt is returned by a Persister when saved state cannot be
	// decoded. Callers treat it as empty history.
	ErrCorrupt = errors.New("persisted history is corrupt")
)

// Persister serializes the full history across process restarts.
// Entries are exchanged in List order so relative recency survives a
// round trip.
type Persister interface {
	// Load returns the saved entries, or an empty slice when nothing was
	// saved yet. Unreadable state is reported as an error wrapping ErrCorrupt.
	Load(ctx context.Context) ([]Entry, error)

	// Save replaces the saved state with entries.
	Save(ctx context.Context, entries []Entry) error

	// Close releases any resources (DB connections, file handles, etc.).
	Close() error
}
