package storage

import (
	"fmt"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/behat-helpers/internal/common"
	"github.com/ternarybob/behat-helpers/internal/interfaces"
	"github.com/ternarybob/behat-helpers/internal/storage/badger"
)

// NewCookieStorage returns the persistent cookie storage selected by config.
// The memory backend has nothing to persist and returns nil.
func NewCookieStorage(logger arbor.ILogger, config *common.CacheConfig) (interfaces.CookieStorage, error) {
	switch config.Backend {
	case "", "memory":
		return nil, nil
	case "badger":
		db, err := badger.NewBadgerDB(logger, config)
		if err != nil {
			return nil, err
		}
		logger.Info().Str("path", config.Path).Msg("Persistent cookie cache enabled")
		return badger.NewCookieStorage(db, logger), nil
	default:
		return nil, fmt.Errorf("unsupported cache backend: %s (only 'memory' and 'badger' are supported)", config.Backend)
	}
}
