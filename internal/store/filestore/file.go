// Package filestore persists clipboard history as a single compressed
// snapshot file: a msgpack-encoded record list wrapped in a zstd frame,
// replaced atomically on every save.
package filestore

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"time"

	"github.com/klauspost/compress/zstd"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/yiblet/clipper/internal/clipfs"
	"github.com/yiblet/clipper/internal/logging"
	"github.com/yiblet/clipper/internal/store"
)

// formatVersion is bumped on incompatible record layout changes.
const formatVersion = 1

// snapshot is the on-disk document.
type snapshot struct {
	Version int      `msgpack:"v"`
	SavedAt int64    `msgpack:"saved_at"` // unix nanos
	Entries []record `msgpack:"entries"`
}

// record is one persisted entry, in List order.
type record struct {
	ID         string    `msgpack:"id"`
	Hash       string    `msgpack:"hash"`
	Kind       string    `msgpack:"kind"`
	Payload    []byte    `msgpack:"payload"`
	CreatedAt  time.Time `msgpack:"created_at"`
	LastUsedAt time.Time `msgpack:"last_used_at"`
	Pinned     bool      `msgpack:"pinned"`
	PinnedAt   time.Time `msgpack:"pinned_at"`
	Source     string    `msgpack:"source,omitempty"`
}

// FileStore is a snapshot-file implementation of store.Persister.
type FileStore struct {
	fs     *clipfs.ClipFS
	name   string
	logger *slog.Logger

	enc *zstd.Encoder
	dec *zstd.Decoder
}

var _ store.Persister = (*FileStore)(nil)

// New creates a FileStore writing name inside the data directory.
func New(cfs *clipfs.ClipFS, name string, log *slog.Logger) (*FileStore, error) {
	enc, err := zstd.NewWriter(nil,
		zstd.WithEncoderLevel(zstd.SpeedDefault),
		zstd.WithEncoderConcurrency(1),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create zstd encoder: %w", err)
	}
	dec, err := zstd.NewReader(nil,
		zstd.WithDecoderConcurrency(1),
		zstd.WithDecoderMaxMemory(1<<30),
	)
	if err != nil {
		enc.Close()
		return nil, fmt.Errorf("failed to create zstd decoder: %w", err)
	}

	return &FileStore{
		fs:     cfs,
		name:   name,
		logger: logging.Default(log).With("component", "filestore"),
		enc:    enc,
		dec:    dec,
	}, nil
}

// Path returns the snapshot file path.
func (f *FileStore) Path() string {
	return f.fs.Path(f.name)
}

// Load reads the snapshot. A missing file is an empty history.
func (f *FileStore) Load(ctx context.Context) ([]store.Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	compressed, err := f.fs.ReadFile(f.name)
	if errors.Is(err, fs.ErrNotExist) {
		return []store.Entry{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot: %w", err)
	}
	if len(compressed) == 0 {
		return []store.Entry{}, nil
	}

	raw, err := f.dec.DecodeAll(compressed, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to decompress snapshot: %v", store.ErrCorrupt, err)
	}

	var snap snapshot
	if err := msgpack.Unmarshal(raw, &snap); err != nil {
		return nil, fmt.Errorf("%w: failed to decode snapshot: %v", store.ErrCorrupt, err)
	}
	if snap.Version != formatVersion {
		return nil, fmt.Errorf("%w: unsupported snapshot version %d", store.ErrCorrupt, snap.Version)
	}

	entries := make([]store.Entry, 0, len(snap.Entries))
	for _, r := range snap.Entries {
		kind, err := store.ParseKind(r.Kind)
		if err != nil {
			f.logger.Warn("skipping entry with unknown kind", "id", r.ID, "kind", r.Kind)
			continue
		}
		entries = append(entries, store.Entry{
			ID:         r.ID,
			Hash:       r.Hash,
			Kind:       kind,
			Payload:    r.Payload,
			CreatedAt:  r.CreatedAt,
			LastUsedAt: r.LastUsedAt,
			Pinned:     r.Pinned,
			PinnedAt:   r.PinnedAt,
			Source:     r.Source,
		})
	}
	return entries, nil
}

// Save atomically replaces the snapshot with entries.
func (f *FileStore) Save(ctx context.Context, entries []store.Entry) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	snap := snapshot{
		Version: formatVersion,
		SavedAt: time.Now().UnixNano(),
		Entries: make([]record, len(entries)),
	}
	for i, e := range entries {
		snap.Entries[i] = record{
			ID:         e.ID,
			Hash:       e.Hash,
			Kind:       string(e.Kind),
			Payload:    e.Payload,
			CreatedAt:  e.CreatedAt,
			LastUsedAt: e.LastUsedAt,
			Pinned:     e.Pinned,
			PinnedAt:   e.PinnedAt,
			Source:     e.Source,
		}
	}

	raw, err := msgpack.Marshal(&snap)
	if err != nil {
		return fmt.Errorf("failed to encode snapshot: %w", err)
	}
	compressed := f.enc.EncodeAll(raw, make([]byte, 0, len(raw)/2))

	if err := f.fs.WriteFile(f.name, compressed, 0o600); err != nil {
		return fmt.Errorf("failed to write snapshot: %w", err)
	}

	f.logger.Debug("history saved", "entries", len(entries), "bytes", len(compressed))
	return nil
}

// Close releases the codec resources.
func (f *FileStore) Close() error {
	f.dec.Close()
	return f.enc.Close()
}
