package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/rs/zerolog"

	"github.com/ZanzyTHEbar/leadscout"
)

// SelectionFileCache persists tool selections to a JSON file so short-lived
// CLI runs benefit from earlier selections. Values are typed: only
// leadscout.ToolInvocation can be stored, which keeps the on-disk format
// round-trippable.
type SelectionFileCache struct {
	store    map[string]fileItem
	mutex    sync.RWMutex
	ttl      time.Duration
	filePath string
	logger   zerolog.Logger
}

type fileItem struct {
	Invocation leadscout.ToolInvocation `json:"invocation"`
	Expiration time.Time                `json:"expiration"`
}

// NewSelectionFileCache loads any previous state from filePath; a missing or
// unreadable file starts the cache empty.
func NewSelectionFileCache(defaultTTL time.Duration, filePath string, logger zerolog.Logger) *SelectionFileCache {
	c := &SelectionFileCache{
		store:    make(map[string]fileItem),
		ttl:      defaultTTL,
		filePath: filePath,
		logger:   logger.With().Str("component", "selection_cache").Logger(),
	}
	c.loadFromFile()
	return c
}

func (c *SelectionFileCache) Get(ctx context.Context, key string) (any, error) {
	if err := errbuilder.WrapIfContextDone(ctx, nil); err != nil {
		return nil, err
	}

	c.mutex.RLock()
	defer c.mutex.RUnlock()

	it, found := c.store[key]
	if !found {
		return nil, errbuilder.NotFoundErr(errbuilder.GenericErr("cache item not found", nil))
	}
	if time.Now().After(it.Expiration) {
		return nil, errbuilder.NotFoundErr(errbuilder.GenericErr("cache item expired", nil))
	}
	return it.Invocation, nil
}

func (c *SelectionFileCache) Set(ctx context.Context, key string, value any) error {
	if err := errbuilder.WrapIfContextDone(ctx, nil); err != nil {
		return err
	}
	inv, ok := value.(leadscout.ToolInvocation)
	if !ok {
		return fmt.Errorf("selection cache stores ToolInvocation values, got %T", value)
	}

	c.mutex.Lock()
	c.store[key] = fileItem{Invocation: inv, Expiration: time.Now().Add(c.ttl)}
	c.mutex.Unlock()

	c.saveToFile()
	return nil
}

func (c *SelectionFileCache) loadFromFile() {
	data, err := os.ReadFile(c.filePath)
	if err != nil {
		return
	}
	loaded := make(map[string]fileItem)
	if err := json.Unmarshal(data, &loaded); err != nil {
		c.logger.Warn().Err(err).Str("path", c.filePath).Msg("discarding unreadable selection cache file")
		return
	}
	now := time.Now()
	c.mutex.Lock()
	for key, it := range loaded {
		if now.Before(it.Expiration) {
			c.store[key] = it
		}
	}
	c.mutex.Unlock()
}

func (c *SelectionFileCache) saveToFile() {
	c.mutex.RLock()
	data, err := json.Marshal(c.store)
	c.mutex.RUnlock()
	if err != nil {
		c.logger.Warn().Err(err).Msg("encoding selection cache failed")
		return
	}
	if err := os.WriteFile(c.filePath, data, 0o644); err != nil {
		c.logger.Warn().Err(err).Str("path", c.filePath).Msg("writing selection cache failed")
	}
}
