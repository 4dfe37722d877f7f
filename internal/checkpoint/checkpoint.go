// Package checkpoint autosaves committed frame records to SQLite so a crashed
// or killed session can be resumed without losing work since the last
// report save.
package checkpoint

import (
	"fmt"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"

	"github.com/ironsheep/tag-tracker/internal/record"
)

// FrameRow is one persisted frame record.
type FrameRow struct {
	SessionKey   string `gorm:"primaryKey;size:1024"`
	FrameIndex   int    `gorm:"primaryKey;autoIncrement:false"`
	HeadKind     int
	HeadX        int
	HeadY        int
	TailKind     int
	TailX        int
	TailY        int
	HeadToCenter *int
}

// TableName overrides gorm's pluralized default.
func (FrameRow) TableName() string { return "frame_records" }

func toRow(key string, index int, r record.FrameRecord) FrameRow {
	return FrameRow{
		SessionKey:   key,
		FrameIndex:   index,
		HeadKind:     int(r.Head.Kind),
		HeadX:        r.Head.X,
		HeadY:        r.Head.Y,
		TailKind:     int(r.Tail.Kind),
		TailX:        r.Tail.X,
		TailY:        r.Tail.Y,
		HeadToCenter: r.HeadToCenter,
	}
}

func (row FrameRow) record() record.FrameRecord {
	return record.FrameRecord{
		Head:         position(row.HeadKind, row.HeadX, row.HeadY),
		Tail:         position(row.TailKind, row.TailX, row.TailY),
		HeadToCenter: row.HeadToCenter,
	}
}

func position(kind, x, y int) record.Position {
	switch record.Kind(kind) {
	case record.KindResolved:
		return record.Resolved(x, y)
	case record.KindDeleted:
		return record.Deleted()
	case record.KindUnresolved:
		return record.Unresolved()
	default:
		return record.Unknown()
	}
}

// Store is a SQLite-backed checkpoint.
type Store struct {
	db *gorm.DB
}

// Open opens or creates the checkpoint database at path and migrates the
// schema. An empty path opens a private in-memory database.
func Open(path string) (*Store, error) {
	dsn := path
	if dsn == "" {
		dsn = "file::memory:"
	}

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		SkipDefaultTransaction: true,
		Logger:                 logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open checkpoint db: %w", err)
	}
	if path == "" {
		// Each connection to :memory: is a separate database.
		sqlDB, err := db.DB()
		if err != nil {
			return nil, fmt.Errorf("failed to access sql interface: %w", err)
		}
		sqlDB.SetMaxOpenConns(1)
	}

	if err := db.Exec("PRAGMA journal_mode = WAL;").Error; err != nil {
		return nil, fmt.Errorf("error setting PRAGMA: %w", err)
	}
	if err := db.AutoMigrate(&FrameRow{}); err != nil {
		return nil, fmt.Errorf("failed to migrate checkpoint schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Upsert stores the record for one frame, replacing any earlier row.
func (s *Store) Upsert(key string, index int, r record.FrameRecord) error {
	row := toRow(key, index, r)
	err := s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "session_key"}, {Name: "frame_index"}},
		UpdateAll: true,
	}).Create(&row).Error
	if err != nil {
		return fmt.Errorf("failed to checkpoint frame %d: %w", index, err)
	}
	return nil
}

// Load returns every checkpointed frame of the session keyed by frame index.
func (s *Store) Load(key string) (map[int]record.FrameRecord, error) {
	var rows []FrameRow
	if err := s.db.Where("session_key = ?", key).Order("frame_index").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to load checkpoint: %w", err)
	}

	out := make(map[int]record.FrameRecord, len(rows))
	for _, row := range rows {
		out[row.FrameIndex] = row.record()
	}
	return out, nil
}

// Purge deletes every row of the session.
func (s *Store) Purge(key string) error {
	if err := s.db.Where("session_key = ?", key).Delete(&FrameRow{}).Error; err != nil {
		return fmt.Errorf("failed to purge checkpoint: %w", err)
	}
	return nil
}

// Count returns the number of rows for the session.
func (s *Store) Count(key string) (int64, error) {
	var n int64
	err := s.db.Model(&FrameRow{}).Where("session_key = ?", key).Count(&n).Error
	return n, err
}

// Close releases the database handle.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return fmt.Errorf("failed to access sql interface: %w", err)
	}
	return sqlDB.Close()
}
