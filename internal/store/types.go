package store

import (
	"fmt"
	"time"
)

// Kind is the payload variant of an entry.
type Kind string

const (
	// KindText is UTF-8 plain text.
	KindText Kind = "text"

	// KindImage is a PNG-encoded image, kept byte-identical to what was read
	// from the clipboard.
	KindImage Kind = "image"
)

// Valid reports whether k is one of the supported payload kinds.
func (k Kind) Valid() bool {
	return k == KindText || k == KindImage
}

// ParseKind converts a persisted kind string back into a Kind.
func ParseKind(s string) (Kind, error) {
	k := Kind(s)
	if !k.Valid() {
		return "", fmt.Errorf("unknown entry kind: %q", s)
	}
	return k, nil
}

// PinOrder selects how pinned entries are ordered relative to each other.
type PinOrder string

const (
	// PinOrderCreated orders pinned entries by CreatedAt, oldest first.
	PinOrderCreated PinOrder = "created"

	// PinOrderPinned orders pinned entries by PinnedAt, oldest pin first.
	PinOrderPinned PinOrder = "pinned"
)

// ParsePinOrder validates a configured pin order.
func ParsePinOrder(s string) (PinOrder, error) {
	switch PinOrder(s) {
	case PinOrderCreated, PinOrderPinned:
		return PinOrder(s), nil
	case "":
		return PinOrderCreated, nil
	default:
		return "", fmt.Errorf("invalid pin order: %q (must be 'created' or 'pinned')", s)
	}
}

// Entry is one retained clipboard payload plus its metadata.
//
// Entries handed out by a store are copies; Payload is shared with the store
// and must be treated as read-only.
type Entry struct {
	// ID is assigned at ingest and stable for the entry's lifetime.
	ID string

	// Hash is the content address of (Kind, Payload). See Hash.
	Hash string

	Kind    Kind
	Payload []byte

	// CreatedAt is the time of first ingestion. Dedup hits never change it.
	CreatedAt time.Time

	// LastUsedAt moves on every dedup hit and every manual paste.
	LastUsedAt time.Time

	// Pinned entries are exempt from capacity eviction.
	Pinned   bool
	PinnedAt time.Time

	// Source is a best-effort label of the originating application, for
	// display only.
	Source string
}

// Size returns the payload size in bytes.
func (e Entry) Size() int {
	return len(e.Payload)
}

// IsText reports whether the entry holds plain text.
func (e Entry) IsText() bool {
	return e.Kind == KindText
}

// Text returns the payload as a string for text entries, or "" for images.
func (e Entry) Text() string {
	if e.Kind != KindText {
		return ""
	}
	return string(e.Payload)
}

// ListOptions filters a List call. The zero value lists everything.
type ListOptions struct {
	// Kind restricts results to one payload kind when non-empty.
	Kind Kind

	// PinnedOnly restricts results to pinned entries.
	PinnedOnly bool

	// Limit caps the number of results. 0 means no limit.
	Limit int
}

// Match reports whether e passes the filter (Limit is not considered).
func (o ListOptions) Match(e *Entry) bool {
	if o.Kind != "" && e.Kind != o.Kind {
		return false
	}
	if o.PinnedOnly && !e.Pinned {
		return false
	}
	return true
}

// IngestResult describes the outcome of a single ingest.
type IngestResult struct {
	// Entry is the stored entry after the ingest (new or dedup-updated).
	Entry Entry

	// Created is false when the payload was already present.
	Created bool

	// Evicted lists entries dropped by capacity enforcement.
	Evicted []Entry
}
