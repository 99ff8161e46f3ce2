// Package memstore holds the live clipboard history.
//
// Store is the single source of truth for the running engine. One RWMutex
// guards the entry maps and the search index together: mutations (Ingest,
// Pin, Unpin, Delete, Select, Restore, Clear) are exclusive, reads (List,
// Search, Get, Snapshot) share the lock and return copies, so a reader never
// sees a partially applied mutation.
//
// Ordering is driven by internal sequence numbers rather than raw timestamps.
// Every timestamp the store writes is clamped to be no earlier than the last
// one it wrote, so sequence order and timestamp order always agree even if
// the wall clock steps backwards.
package memstore

import (
	"bytes"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/yiblet/clipper/internal/search"
	"github.com/yiblet/clipper/internal/store"
)

const (
	// DefaultCapacity is the unpinned history bound used when none is set.
	DefaultCapacity = 50
)

// Options configures a Store.
type Options struct {
	// Capacity bounds the number of unpinned entries. <= 0 uses DefaultCapacity.
	Capacity int

	// PinOrder selects the relative order of pinned entries.
	PinOrder store.PinOrder

	// NewID generates entry ids. Defaults to UUIDv7 strings.
	NewID func() string
}

// Store is an in-memory, capacity-bounded, de-duplicated clipboard history.
type Store struct {
	mu sync.RWMutex

	capacity int
	pinOrder store.PinOrder
	newID    func() string

	entries  map[string]*record
	byKey    map[contentKey]string
	index    *search.Index
	unpinned int

	seq       uint64
	version   uint64
	lastStamp time.Time
}

// record is an entry plus the sequence numbers that order it.
type record struct {
	entry store.Entry

	// birth orders pinned entries under PinOrderCreated.
	birth uint64
	// pinSeq orders pinned entries under PinOrderPinned.
	pinSeq uint64
	// recency orders unpinned entries, most recent highest.
	recency uint64
}

type contentKey struct {
	kind store.Kind
	hash string
}

// New creates an empty Store.
func New(opts Options) *Store {
	if opts.Capacity <= 0 {
		opts.Capacity = DefaultCapacity
	}
	if opts.PinOrder == "" {
		opts.PinOrder = store.PinOrderCreated
	}
	if opts.NewID == nil {
		opts.NewID = func() string { return uuid.Must(uuid.NewV7()).String() }
	}
	return &Store{
		capacity: opts.Capacity,
		pinOrder: opts.PinOrder,
		newID:    opts.NewID,
		entries:  make(map[string]*record),
		byKey:    make(map[contentKey]string),
		index:    search.New(),
	}
}

// Capacity returns the unpinned entry bound.
func (s *Store) Capacity() int {
	return s.capacity
}

// Ingest records a clipboard payload observed at now.
//
// If an entry with the same content address already exists, only its
// LastUsedAt moves and it becomes the most recent unpinned entry; CreatedAt
// is untouched. Otherwise a new entry is inserted and, if the unpinned count
// now exceeds capacity, the least recently used unpinned entries are evicted.
func (s *Store) Ingest(kind store.Kind, payload []byte, source string, now time.Time) (store.IngestResult, error) {
	if !kind.Valid() {
		return store.IngestResult{}, fmt.Errorf("failed to ingest: unsupported kind %q", kind)
	}

	key := contentKey{kind: kind, hash: store.Hash(kind, payload)}

	s.mu.Lock()
	defer s.mu.Unlock()

	if id, ok := s.byKey[key]; ok {
		rec := s.entries[id]
		s.touchLocked(rec, now)
		if rec.entry.Source == "" {
			rec.entry.Source = source
		}
		s.version++
		return store.IngestResult{Entry: rec.entry}, nil
	}

	stamp := s.stampLocked(now)
	rec := &record{
		entry: store.Entry{
			ID:         s.newID(),
			Hash:       key.hash,
			Kind:       kind,
			Payload:    bytes.Clone(payload),
			CreatedAt:  stamp,
			LastUsedAt: stamp,
			Source:     source,
		},
	}
	if rec.entry.Payload == nil {
		rec.entry.Payload = []byte{}
	}
	rec.birth = s.nextSeqLocked()
	rec.recency = s.nextSeqLocked()

	s.insertLocked(rec)
	evicted := s.evictLocked()
	s.version++

	return store.IngestResult{Entry: rec.entry, Created: true, Evicted: evicted}, nil
}

// List returns a snapshot of entries in display order: pinned entries
// first, then unpinned entries by LastUsedAt descending.
func (s *Store) List(opts store.ListOptions) []store.Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()

	recs := make([]*record, 0, len(s.entries))
	for _, rec := range s.entries {
		if opts.Match(&rec.entry) {
			recs = append(recs, rec)
		}
	}
	return s.orderedLocked(recs, opts.Limit)
}

// Search returns text entries whose payload contains term
// case-insensitively, in List order. The empty term returns the full
// filtered list. Image entries never match a non-empty term.
func (s *Store) Search(term string, opts store.ListOptions) []store.Entry {
	if term == "" {
		return s.List(opts)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	hits := s.index.Query(term)
	recs := make([]*record, 0, len(hits))
	for id := range hits {
		rec, ok := s.entries[id]
		if !ok || !opts.Match(&rec.entry) {
			continue
		}
		recs = append(recs, rec)
	}
	return s.orderedLocked(recs, opts.Limit)
}

// Get returns the entry with the given id.
func (s *Store) Get(id string) (store.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.entries[id]
	if !ok {
		return store.Entry{}, fmt.Errorf("%w: %s", store.ErrNotFound, id)
	}
	return rec.entry, nil
}

// Select returns the entry for pasting and marks it as used at now.
func (s *Store) Select(id string, now time.Time) (store.Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.entries[id]
	if !ok {
		return store.Entry{}, fmt.Errorf("%w: %s", store.ErrNotFound, id)
	}
	s.touchLocked(rec, now)
	s.version++
	return rec.entry, nil
}

// Pin exempts an entry from eviction. Pinning a pinned entry is a no-op.
func (s *Store) Pin(id string, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.entries[id]
	if !ok {
		return fmt.Errorf("%w: %s", store.ErrNotFound, id)
	}
	if rec.entry.Pinned {
		return nil
	}
	rec.entry.Pinned = true
	rec.entry.PinnedAt = s.stampLocked(now)
	rec.pinSeq = s.nextSeqLocked()
	s.unpinned--
	s.version++
	return nil
}

// Unpin makes an entry evictable again. Unpinning an unpinned entry is a
// no-op. Nothing is evicted here; the unpinned count may exceed capacity
// until the next insert.
func (s *Store) Unpin(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.entries[id]
	if !ok {
		return fmt.Errorf("%w: %s", store.ErrNotFound, id)
	}
	if !rec.entry.Pinned {
		return nil
	}
	rec.entry.Pinned = false
	rec.entry.PinnedAt = time.Time{}
	rec.pinSeq = 0
	s.unpinned++
	s.version++
	return nil
}

// Delete removes an entry regardless of its pin state.
func (s *Store) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.entries[id]
	if !ok {
		return fmt.Errorf("%w: %s", store.ErrNotFound, id)
	}
	s.removeLocked(rec)
	s.version++
	return nil
}

// Clear removes every entry, or only unpinned ones when keepPinned is set.
// It returns the number of removed entries.
func (s *Store) Clear(keepPinned bool) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for _, rec := range s.entries {
		if keepPinned && rec.entry.Pinned {
			continue
		}
		s.removeLocked(rec)
		removed++
	}
	if removed > 0 {
		s.version++
	}
	return removed
}

// Snapshot returns every entry in List order, for persistence.
func (s *Store) Snapshot() []store.Entry {
	return s.List(store.ListOptions{})
}

// Restore replaces the store contents with entries given in List order, as
// produced by Snapshot. Invalid records (unknown kind) are skipped, hashes
// are recomputed from payloads, duplicate content keeps the first record,
// and capacity is enforced afterwards. It returns the number of entries kept.
func (s *Store) Restore(entries []store.Entry) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries = make(map[string]*record, len(entries))
	s.byKey = make(map[contentKey]string, len(entries))
	s.index.Reset()
	s.unpinned = 0
	s.seq = 0
	s.lastStamp = time.Time{}

	type positioned struct {
		rec *record
		pos int
	}
	kept := make([]positioned, 0, len(entries))
	for i, e := range entries {
		if !e.Kind.Valid() {
			continue
		}
		e.Hash = store.Hash(e.Kind, e.Payload)
		key := contentKey{kind: e.Kind, hash: e.Hash}
		if _, dup := s.byKey[key]; dup {
			continue
		}
		if e.ID == "" {
			e.ID = s.newID()
		}
		if _, dup := s.entries[e.ID]; dup {
			e.ID = s.newID()
		}
		if e.Payload == nil {
			e.Payload = []byte{}
		}
		if !e.Pinned {
			e.PinnedAt = time.Time{}
		}
		rec := &record{entry: e}
		s.insertLocked(rec)
		kept = append(kept, positioned{rec: rec, pos: i})

		for _, ts := range []time.Time{e.CreatedAt, e.LastUsedAt, e.PinnedAt} {
			if ts.After(s.lastStamp) {
				s.lastStamp = ts
			}
		}
	}

	// Rebuild sequences from timestamps, breaking ties by saved position.
	sort.SliceStable(kept, func(i, j int) bool {
		a, b := kept[i], kept[j]
		if !a.rec.entry.CreatedAt.Equal(b.rec.entry.CreatedAt) {
			return a.rec.entry.CreatedAt.Before(b.rec.entry.CreatedAt)
		}
		return a.pos < b.pos
	})
	for _, p := range kept {
		p.rec.birth = s.nextSeqLocked()
	}

	sort.SliceStable(kept, func(i, j int) bool {
		a, b := kept[i], kept[j]
		if !a.rec.entry.PinnedAt.Equal(b.rec.entry.PinnedAt) {
			return a.rec.entry.PinnedAt.Before(b.rec.entry.PinnedAt)
		}
		return a.pos < b.pos
	})
	for _, p := range kept {
		if p.rec.entry.Pinned {
			p.rec.pinSeq = s.nextSeqLocked()
		}
	}

	sort.SliceStable(kept, func(i, j int) bool {
		a, b := kept[i], kept[j]
		if !a.rec.entry.LastUsedAt.Equal(b.rec.entry.LastUsedAt) {
			return a.rec.entry.LastUsedAt.Before(b.rec.entry.LastUsedAt)
		}
		return a.pos > b.pos
	})
	for _, p := range kept {
		p.rec.recency = s.nextSeqLocked()
	}

	s.evictLocked()
	s.version++
	return len(s.entries)
}

// Len returns the total number of entries.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// Counts returns the number of pinned and unpinned entries.
func (s *Store) Counts() (pinned, unpinned int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries) - s.unpinned, s.unpinned
}

// Version returns a counter that increases on every mutation.
func (s *Store) Version() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.version
}

func (s *Store) insertLocked(rec *record) {
	s.entries[rec.entry.ID] = rec
	s.byKey[contentKey{kind: rec.entry.Kind, hash: rec.entry.Hash}] = rec.entry.ID
	if rec.entry.Kind == store.KindText {
		s.index.Add(rec.entry.ID, string(rec.entry.Payload))
	}
	if !rec.entry.Pinned {
		s.unpinned++
	}
}

func (s *Store) removeLocked(rec *record) {
	delete(s.entries, rec.entry.ID)
	delete(s.byKey, contentKey{kind: rec.entry.Kind, hash: rec.entry.Hash})
	s.index.Remove(rec.entry.ID)
	if !rec.entry.Pinned {
		s.unpinned--
	}
}

// evictLocked drops least recently used unpinned entries until the unpinned
// count is within capacity.
func (s *Store) evictLocked() []store.Entry {
	var evicted []store.Entry
	for s.unpinned > s.capacity {
		var victim *record
		for _, rec := range s.entries {
			if rec.entry.Pinned {
				continue
			}
			if victim == nil || rec.recency < victim.recency {
				victim = rec
			}
		}
		if victim == nil {
			break
		}
		s.removeLocked(victim)
		evicted = append(evicted, victim.entry)
	}
	return evicted
}

func (s *Store) touchLocked(rec *record, now time.Time) {
	rec.entry.LastUsedAt = s.stampLocked(now)
	rec.recency = s.nextSeqLocked()
}

// stampLocked clamps now so store timestamps never go backwards.
func (s *Store) stampLocked(now time.Time) time.Time {
	if now.Before(s.lastStamp) {
		now = s.lastStamp
	}
	s.lastStamp = now
	return now
}

func (s *Store) nextSeqLocked() uint64 {
	s.seq++
	return s.seq
}

// orderedLocked sorts recs into display order and copies them out.
func (s *Store) orderedLocked(recs []*record, limit int) []store.Entry {
	sort.Slice(recs, func(i, j int) bool {
		return s.lessLocked(recs[i], recs[j])
	})
	if limit > 0 && len(recs) > limit {
		recs = recs[:limit]
	}
	out := make([]store.Entry, len(recs))
	for i, rec := range recs {
		out[i] = rec.entry
	}
	return out
}

func (s *Store) lessLocked(a, b *record) bool {
	if a.entry.Pinned != b.entry.Pinned {
		return a.entry.Pinned
	}
	if a.entry.Pinned {
		if s.pinOrder == store.PinOrderPinned {
			return a.pinSeq < b.pinSeq
		}
		return a.birth < b.birth
	}
	return a.recency > b.recency
}
