// Package dbstore persists clipboard history in SQLite through gorm.
package dbstore

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/yiblet/clipper/internal/logging"
	"github.com/yiblet/clipper/internal/store"
)

// SQLiteStore is a SQLite-backed implementation of store.Persister
type SQLiteStore struct {
	db     *gorm.DB
	dbPath string
	logger *slog.Logger
}

var _ store.Persister = (*SQLiteStore)(nil)

// NewSQLiteStore opens (or creates) the history database at dbPath and
// migrates its schema. A file that is not a usable database is reported as
// store.ErrCorrupt.
func NewSQLiteStore(dbPath string, log *slog.Logger) (*SQLiteStore, error) {
	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		if info, statErr := os.Stat(dbPath); statErr == nil && info.Size() > 0 {
			return nil, fmt.Errorf("%w: failed to open database: %v", store.ErrCorrupt, err)
		}
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	st := &SQLiteStore{
		db:     db,
		dbPath: dbPath,
		logger: logging.Default(log).With("component", "dbstore"),
	}

	// Enable foreign key constraints in SQLite
	if err := db.Exec("PRAGMA foreign_keys = ON").Error; err != nil {
		st.Close()
		return nil, fmt.Errorf("%w: failed to enable foreign keys: %v", store.ErrCorrupt, err)
	}

	// Run auto-migration for all models
	if err := db.AutoMigrate(&EntryModel{}, &PayloadChunkModel{}, &MetaModel{}); err != nil {
		st.Close()
		return nil, fmt.Errorf("%w: failed to migrate schema: %v", store.ErrCorrupt, err)
	}

	if err := db.Save(&MetaModel{Key: "db_version", Value: schemaVersion}).Error; err != nil {
		st.Close()
		return nil, fmt.Errorf("failed to write schema version: %w", err)
	}

	return st, nil
}

// Path returns the database file path.
func (s *SQLiteStore) Path() string {
	return s.dbPath
}

// Load returns the saved entries in their saved order. Records whose
// payload does not reassemble to the recorded size are skipped.
func (s *SQLiteStore) Load(ctx context.Context) ([]store.Entry, error) {
	db := s.db.WithContext(ctx)

	var models []EntryModel
	if err := db.Order("position ASC").Find(&models).Error; err != nil {
		return nil, fmt.Errorf("%w: failed to list entries: %v", store.ErrCorrupt, err)
	}

	var chunks []PayloadChunkModel
	if err := db.Order("entry_id ASC, sequence ASC").Find(&chunks).Error; err != nil {
		return nil, fmt.Errorf("%w: failed to load payload chunks: %v", store.ErrCorrupt, err)
	}

	payloads := make(map[string]*bytes.Buffer, len(models))
	for _, chunk := range chunks {
		buf, ok := payloads[chunk.EntryID]
		if !ok {
			buf = &bytes.Buffer{}
			payloads[chunk.EntryID] = buf
		}
		buf.Write(chunk.Data)
	}

	entries := make([]store.Entry, 0, len(models))
	for i := range models {
		m := &models[i]
		payload := []byte{}
		if buf, ok := payloads[m.ID]; ok {
			payload = buf.Bytes()
		}
		if int64(len(payload)) != m.Size {
			s.logger.Warn("skipping entry with truncated payload",
				"id", m.ID, "want", m.Size, "got", len(payload))
			continue
		}
		if _, err := store.ParseKind(m.Kind); err != nil {
			s.logger.Warn("skipping entry with unknown kind", "id", m.ID, "kind", m.Kind)
			continue
		}
		entries = append(entries, m.toEntry(payload))
	}

	return entries, nil
}

// Save replaces the saved history with entries in a single transaction.
func (s *SQLiteStore) Save(ctx context.Context, entries []store.Entry) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		global := tx.Session(&gorm.Session{AllowGlobalUpdate: true})
		if err := global.Delete(&PayloadChunkModel{}).Error; err != nil {
			return fmt.Errorf("failed to clear payload chunks: %w", err)
		}
		if err := global.Delete(&EntryModel{}).Error; err != nil {
			return fmt.Errorf("failed to clear entries: %w", err)
		}

		for i, e := range entries {
			if err := tx.Create(newEntryModel(e, i)).Error; err != nil {
				return fmt.Errorf("failed to create entry %s: %w", e.ID, err)
			}
			chunks := splitChunks(e.ID, e.Payload)
			if len(chunks) == 0 {
				continue
			}
			if err := tx.Create(&chunks).Error; err != nil {
				return fmt.Errorf("failed to create chunks for entry %s: %w", e.ID, err)
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to save history: %w", err)
	}

	s.logger.Debug("history saved", "entries", len(entries))
	return nil
}

// Count returns the number of saved entries
func (s *SQLiteStore) Count(ctx context.Context) (int, error) {
	var count int64
	if err := s.db.WithContext(ctx).Model(&EntryModel{}).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count entries: %w", err)
	}
	return int(count), nil
}

// SchemaVersion returns the schema version recorded in the meta table.
func (s *SQLiteStore) SchemaVersion(ctx context.Context) (string, error) {
	var meta MetaModel
	if err := s.db.WithContext(ctx).First(&meta, "key = ?", "db_version").Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", fmt.Errorf("schema version not recorded")
		}
		return "", fmt.Errorf("failed to read schema version: %w", err)
	}
	return meta.Value, nil
}

// Close closes the database connection
func (s *SQLiteStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// splitChunks cuts payload into ChunkSize pieces in sequence order.
func splitChunks(entryID string, payload []byte) []PayloadChunkModel {
	var chunks []PayloadChunkModel
	for seq := 0; len(payload) > 0; seq++ {
		n := min(len(payload), ChunkSize)
		chunks = append(chunks, PayloadChunkModel{
			EntryID:  entryID,
			Sequence: seq,
			Data:     append([]byte(nil), payload[:n]...), // Copy slice
		})
		payload = payload[n:]
	}
	return chunks
}
