// Package cookiecache holds the browser cookies and executed step keys shared
// by every scenario of a test run.
package cookiecache

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/behat-helpers/internal/common"
	"github.com/ternarybob/behat-helpers/internal/interfaces"
	"github.com/ternarybob/behat-helpers/pkg/browser"
)

// Cache is safe for concurrent use
type Cache struct {
	mu        sync.Mutex
	cookies   []browser.Cookie
	steps     map[string]bool
	order     []string
	storage   interfaces.CookieStorage
	namespace string
	logger    arbor.ILogger
}

var (
	defaultCache *Cache
	defaultOnce  sync.Once
)

// Default returns the process-wide cache
func Default() *Cache {
	defaultOnce.Do(func() {
		defaultCache = New(common.GetLogger())
	})
	return defaultCache
}

// New creates an empty in-memory cache
func New(logger arbor.ILogger) *Cache {
	return &Cache{
		steps:     make(map[string]bool),
		namespace: "default",
		logger:    logger,
	}
}

// Attach persists the cache into storage under namespace and loads any
// snapshot a previous run left there.
func (c *Cache) Attach(ctx context.Context, storage interfaces.CookieStorage, namespace string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.storage = storage
	if namespace != "" {
		c.namespace = namespace
	}
	if storage == nil {
		return nil
	}

	snapshot, err := storage.LoadSnapshot(ctx, c.namespace)
	if errors.Is(err, interfaces.ErrSnapshotNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	c.cookies = append([]browser.Cookie(nil), snapshot.Cookies...)
	c.steps = make(map[string]bool, len(snapshot.Steps))
	c.order = nil
	for _, key := range snapshot.Steps {
		c.recordLocked(key)
	}

	c.logger.Info().
		Str("namespace", c.namespace).
		Int("cookies", len(c.cookies)).
		Int("steps", len(c.order)).
		Msg("Cookie cache restored")
	return nil
}

// Detach stops persisting and returns the previous storage
func (c *Cache) Detach() interfaces.CookieStorage {
	c.mu.Lock()
	defer c.mu.Unlock()
	storage := c.storage
	c.storage = nil
	return storage
}

// HasCookies reports whether cookies were saved
func (c *Cache) HasCookies() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.cookies) > 0
}

// Cookies returns a copy of the saved cookies
func (c *Cache) Cookies() []browser.Cookie {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]browser.Cookie(nil), c.cookies...)
}

// StoreCookies replaces the saved cookies
func (c *Cache) StoreCookies(ctx context.Context, cookies []browser.Cookie) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cookies = append([]browser.Cookie(nil), cookies...)
	return c.persistLocked(ctx)
}

// HasStep reports whether key already ran
func (c *Cache) HasStep(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.steps[key]
}

// RecordStep marks key as run. It is persisted with the next StoreCookies.
func (c *Cache) RecordStep(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.recordLocked(key)
}

// Steps returns the recorded keys in execution order
func (c *Cache) Steps() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.order...)
}

// Clear forgets cookies and steps, including the persisted snapshot
func (c *Cache) Clear(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.cookies = nil
	c.steps = make(map[string]bool)
	c.order = nil

	if c.storage == nil {
		return nil
	}
	if err := c.storage.DeleteSnapshot(ctx, c.namespace); err != nil {
		return fmt.Errorf("failed to clear cookie cache: %w", err)
	}
	return nil
}

func (c *Cache) recordLocked(key string) {
	if c.steps[key] {
		return
	}
	c.steps[key] = true
	c.order = append(c.order, key)
}

func (c *Cache) persistLocked(ctx context.Context) error {
	if c.storage == nil {
		return nil
	}
	snapshot := &interfaces.CookieSnapshot{
		Namespace: c.namespace,
		Cookies:   append([]browser.Cookie(nil), c.cookies...),
		Steps:     append([]string(nil), c.order...),
		UpdatedAt: time.Now(),
	}
	if err := c.storage.SaveSnapshot(ctx, snapshot); err != nil {
		return fmt.Errorf("failed to persist cookie cache: %w", err)
	}
	return nil
}
