package badger

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/behat-helpers/internal/interfaces"
	"github.com/timshannon/badgerhold/v4"
)

// CookieStorage implements interfaces.CookieStorage on Badger
type CookieStorage struct {
	db     *BadgerDB
	logger arbor.ILogger
}

// NewCookieStorage creates a new CookieStorage instance
func NewCookieStorage(db *BadgerDB, logger arbor.ILogger) *CookieStorage {
	return &CookieStorage{
		db:     db,
		logger: logger,
	}
}

// snapshotKey namespaces are case-insensitive
func (s *CookieStorage) snapshotKey(namespace string) string {
	return "cookies:" + strings.ToLower(strings.TrimSpace(namespace))
}

func (s *CookieStorage) LoadSnapshot(ctx context.Context, namespace string) (*interfaces.CookieSnapshot, error) {
	var snapshot interfaces.CookieSnapshot
	err := s.db.Store().Get(s.snapshotKey(namespace), &snapshot)
	if errors.Is(err, badgerhold.ErrNotFound) {
		return nil, interfaces.ErrSnapshotNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load cookie snapshot: %w", err)
	}
	return &snapshot, nil
}

func (s *CookieStorage) SaveSnapshot(ctx context.Context, snapshot *interfaces.CookieSnapshot) error {
	if snapshot.UpdatedAt.IsZero() {
		snapshot.UpdatedAt = time.Now()
	}
	if err := s.db.Store().Upsert(s.snapshotKey(snapshot.Namespace), snapshot); err != nil {
		return fmt.Errorf("failed to save cookie snapshot: %w", err)
	}

	s.logger.Debug().
		Str("namespace", snapshot.Namespace).
		Int("cookies", len(snapshot.Cookies)).
		Int("steps", len(snapshot.Steps)).
		Msg("Cookie snapshot saved")
	return nil
}

func (s *CookieStorage) DeleteSnapshot(ctx context.Context, namespace string) error {
	err := s.db.Store().Delete(s.snapshotKey(namespace), &interfaces.CookieSnapshot{})
	if err != nil && !errors.Is(err, badgerhold.ErrNotFound) {
		return fmt.Errorf("failed to delete cookie snapshot: %w", err)
	}
	return nil
}

// Close closes the underlying database
func (s *CookieStorage) Close() error {
	return s.db.Close()
}
