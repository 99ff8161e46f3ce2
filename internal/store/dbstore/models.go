package dbstore

import (
	"time"

	"github.com/yiblet/clipper/internal/store"
)

// ChunkSize defines the size of each payload chunk (32KB)
const ChunkSize = 32 * 1024

// schemaVersion is written to the meta table on open.
const schemaVersion = "1"

// EntryModel represents a history entry in the database.
// Payload bytes are stored separately in chunks, not in this table.
type EntryModel struct {
	ID        string     `gorm:"primaryKey;size:36"`
	Position  int        `gorm:"not null;index"` // Index in List order
	Hash      string     `gorm:"size:64;not null"`
	Kind      string     `gorm:"size:16;not null"`
	Size      int64      `gorm:"not null"`
	FirstSeen time.Time  `gorm:"not null"`
	LastUsed  time.Time  `gorm:"not null"`
	Pinned    bool       `gorm:"not null;default:false"`
	PinnedAt  *time.Time // nil when unpinned
	Source    string     `gorm:"size:255"`
	SavedAt   time.Time  `gorm:"autoCreateTime"` // GORM managed timestamp

	// One-to-many relationship with payload chunks
	Chunks []PayloadChunkModel `gorm:"foreignKey:EntryID;constraint:OnDelete:CASCADE"`
}

// TableName returns the table name for EntryModel
func (EntryModel) TableName() string {
	return "entries"
}

// toEntry converts the GORM model and its reassembled payload to a store.Entry
func (m *EntryModel) toEntry(payload []byte) store.Entry {
	e := store.Entry{
		ID:         m.ID,
		Hash:       m.Hash,
		Kind:       store.Kind(m.Kind),
		Payload:    payload,
		CreatedAt:  m.FirstSeen,
		LastUsedAt: m.LastUsed,
		Pinned:     m.Pinned,
		Source:     m.Source,
	}
	if m.PinnedAt != nil {
		e.PinnedAt = *m.PinnedAt
	}
	return e
}

// newEntryModel converts a store.Entry at the given list position.
func newEntryModel(e store.Entry, position int) *EntryModel {
	m := &EntryModel{
		ID:        e.ID,
		Position:  position,
		Hash:      e.Hash,
		Kind:      string(e.Kind),
		Size:      int64(len(e.Payload)),
		FirstSeen: e.CreatedAt,
		LastUsed:  e.LastUsedAt,
		Pinned:    e.Pinned,
		Source:    e.Source,
	}
	if e.Pinned {
		pinnedAt := e.PinnedAt
		m.PinnedAt = &pinnedAt
	}
	return m
}

// PayloadChunkModel represents a single chunk of entry payload.
// Payloads are split into 32KB chunks so large images stay below SQLite's
// per-row comfort zone.
type PayloadChunkModel struct {
	ID       uint   `gorm:"primaryKey;autoIncrement"`
	EntryID  string `gorm:"size:36;not null;index:idx_entry_seq"` // Foreign key to entries
	Sequence int    `gorm:"not null;index:idx_entry_seq"`         // Chunk order (0, 1, 2, ...)
	Data     []byte `gorm:"type:blob;not null"`                   // Chunk data (max 32KB)
}

// TableName returns the table name for PayloadChunkModel
func (PayloadChunkModel) TableName() string {
	return "payload_chunks"
}

// MetaModel represents a key-value pair describing the database itself
type MetaModel struct {
	Key       string    `gorm:"primaryKey;size:100"`
	Value     string    `gorm:"type:text;not null"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

// TableName returns the table name for MetaModel
func (MetaModel) TableName() string {
	return "meta"
}
