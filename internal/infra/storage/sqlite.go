package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"nft_market/internal/domain"
	"nft_market/internal/event"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Storage is the SQLite event journal
type Storage struct {
	db *gorm.DB
}

// NewStorage opens (or creates) the journal at path. An empty path resolves
// to the per-user data directory.
func NewStorage(path string) (*Storage, error) {
	if path == "" {
		var err error
		path, err = defaultDBPath()
		if err != nil {
			return nil, fmt.Errorf("failed to resolve DB path: %w", err)
		}
	}

	// Ensure directory exists
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create DB directory: %w", err)
	}

	// Connect to SQLite (Pure Go)
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := db.AutoMigrate(&domain.JournalEntry{}); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return &Storage{db: db}, nil
}

// defaultDBPath resolves the database file path based on OS
func defaultDBPath() (string, error) {
	var configDir string
	var err error

	if runtime.GOOS == "windows" {
		configDir = os.Getenv("LOCALAPPDATA")
		if configDir == "" {
			configDir, err = os.UserConfigDir()
		}
	} else {
		configDir, err = os.UserConfigDir()
	}

	if err != nil {
		return "", err
	}

	return filepath.Join(configDir, "NFTMarket", "data", "journal.db"), nil
}

// Close releases the underlying connection.
func (s *Storage) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// ======================================================================================
// Journal Operations
// ======================================================================================

// SaveEvent appends a stamped event. Sequence numbers are unique; writing the
// same seq twice fails.
func (s *Storage) SaveEvent(ctx context.Context, market string, ev event.Event) error {
	if ev.GetSeq() == 0 {
		return errors.New("event has no sequence number")
	}
	payload, err := event.Encode(ev)
	if err != nil {
		return fmt.Errorf("encode event %d: %w", ev.GetSeq(), err)
	}
	badgeID, assetID := ev.Refs()
	entry := domain.JournalEntry{
		Seq:      ev.GetSeq(),
		Market:   market,
		Type:     string(ev.GetType()),
		BadgeID:  badgeID,
		AssetID:  assetID,
		Payload:  string(payload),
		EventTsM: ev.GetTs(),
	}
	return s.db.WithContext(ctx).Create(&entry).Error
}

// Events returns up to limit entries with seq > afterSeq in order.
// limit <= 0 returns everything.
func (s *Storage) Events(ctx context.Context, afterSeq uint64, limit int) ([]domain.JournalEntry, error) {
	var entries []domain.JournalEntry
	q := s.db.WithContext(ctx).Where("seq > ?", afterSeq).Order("seq asc")
	if limit > 0 {
		q = q.Limit(limit)
	}
	err := q.Find(&entries).Error
	return entries, err
}

// EventsForBadge returns the history of one badge in order.
func (s *Storage) EventsForBadge(ctx context.Context, badgeID string) ([]domain.JournalEntry, error) {
	var entries []domain.JournalEntry
	err := s.db.WithContext(ctx).Where("badge_id = ?", badgeID).Order("seq asc").Find(&entries).Error
	return entries, err
}

// EventsForAsset returns the history of one asset in order.
func (s *Storage) EventsForAsset(ctx context.Context, assetID string) ([]domain.JournalEntry, error) {
	var entries []domain.JournalEntry
	err := s.db.WithContext(ctx).Where("asset_id = ?", assetID).Order("seq asc").Find(&entries).Error
	return entries, err
}

// LastSeq returns the highest journaled seq, 0 when empty.
func (s *Storage) LastSeq(ctx context.Context) (uint64, error) {
	var last domain.JournalEntry
	err := s.db.WithContext(ctx).Order("seq desc").Limit(1).Find(&last).Error
	if err != nil {
		return 0, err
	}
	return last.Seq, nil
}
