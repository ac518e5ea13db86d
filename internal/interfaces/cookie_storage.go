package interfaces

import (
	"context"
	"errors"
	"time"

	"github.com/ternarybob/behat-helpers/pkg/browser"
)

// ErrSnapshotNotFound is returned when no snapshot exists for a namespace
var ErrSnapshotNotFound = errors.New("cookie snapshot not found")

// CookieSnapshot is the persisted state of the cookie reload cache
type CookieSnapshot struct {
	Namespace string           `json:"namespace"`
	Cookies   []browser.Cookie `json:"cookies"`
	Steps     []string         `json:"steps"` // Keys of the steps already run once
	UpdatedAt time.Time        `json:"updated_at"`
}

// CookieStorage persists cookie snapshots between test processes
type CookieStorage interface {
	// LoadSnapshot returns ErrSnapshotNotFound when nothing was saved for namespace
	LoadSnapshot(ctx context.Context, namespace string) (*CookieSnapshot, error)

	// SaveSnapshot replaces the snapshot of snapshot.Namespace
	SaveSnapshot(ctx context.Context, snapshot *CookieSnapshot) error

	// DeleteSnapshot removes the snapshot; a missing one is not an error
	DeleteSnapshot(ctx context.Context, namespace string) error

	Close() error
}
