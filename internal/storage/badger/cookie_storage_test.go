package badger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/behat-helpers/internal/common"
	"github.com/ternarybob/behat-helpers/internal/interfaces"
	"github.com/ternarybob/behat-helpers/pkg/browser"
)

func TestCookieSnapshotPersistence(t *testing.T) {
	logger := arbor.NewLogger()
	config := &common.CacheConfig{Backend: "badger", Path: t.TempDir()}
	ctx := context.Background()

	db, err := NewBadgerDB(logger, config)
	require.NoError(t, err)
	storage := NewCookieStorage(db, logger)

	_, err = storage.LoadSnapshot(ctx, "admin")
	assert.ErrorIs(t, err, interfaces.ErrSnapshotNotFound)

	snapshot := &interfaces.CookieSnapshot{
		Namespace: "admin",
		Cookies: []browser.Cookie{
			{Name: "PHPSESSID", Value: "abc123", Domain: "localhost", Path: "/", HTTPOnly: true},
		},
		Steps: []string{"iAmLoggedInAs"},
	}
	require.NoError(t, storage.SaveSnapshot(ctx, snapshot))
	require.NoError(t, storage.Close())

	// Reopen: a later test process sees the same snapshot
	db, err = NewBadgerDB(logger, config)
	require.NoError(t, err)
	storage = NewCookieStorage(db, logger)
	defer storage.Close()

	loaded, err := storage.LoadSnapshot(ctx, "ADMIN")
	require.NoError(t, err)
	assert.Equal(t, snapshot.Cookies, loaded.Cookies)
	assert.Equal(t, []string{"iAmLoggedInAs"}, loaded.Steps)
	assert.False(t, loaded.UpdatedAt.IsZero())

	require.NoError(t, storage.DeleteSnapshot(ctx, "admin"))
	require.NoError(t, storage.DeleteSnapshot(ctx, "admin"))

	_, err = storage.LoadSnapshot(ctx, "admin")
	assert.ErrorIs(t, err, interfaces.ErrSnapshotNotFound)
}

func TestNewBadgerDBRequiresPath(t *testing.T) {
	_, err := NewBadgerDB(arbor.NewLogger(), &common.CacheConfig{Backend: "badger"})
	assert.Error(t, err)
}
