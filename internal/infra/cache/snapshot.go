// Package cache provides an in-process LRU cache for quick room snapshot
// reads. The repository behind it stays the source of truth.
package cache

import (
	"context"
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/MRamiBalles/ShiftEngine/server/internal/domain/game"
	"github.com/MRamiBalles/ShiftEngine/server/internal/infra/storage"
	"github.com/MRamiBalles/ShiftEngine/server/internal/platform/metrics"
)

// DefaultSize is used when a non-positive size is requested.
const DefaultSize = 256

// SnapshotCache is a write-through cache in front of a RoomRepository.
type SnapshotCache struct {
	repo    storage.RoomRepository
	entries *lru.Cache[string, game.State]
	metrics *metrics.Collector
}

// NewSnapshotCache wraps repo with an LRU of size entries.
func NewSnapshotCache(repo storage.RoomRepository, size int, m *metrics.Collector) (*SnapshotCache, error) {
	if size <= 0 {
		size = DefaultSize
	}
	entries, err := lru.New[string, game.State](size)
	if err != nil {
		return nil, fmt.Errorf("failed to create snapshot cache: %w", err)
	}
	if m == nil {
		m = metrics.New()
	}
	return &SnapshotCache{repo: repo, entries: entries, metrics: m}, nil
}

// Save writes through to the repository and refreshes the entry. A failed
// write evicts the entry so readers never see unsaved state.
func (c *SnapshotCache) Save(ctx context.Context, state game.State) error {
	if err := c.repo.Save(ctx, state); err != nil {
		c.entries.Remove(state.RoomID)
		return err
	}
	c.entries.Add(state.RoomID, state)
	return nil
}

// Load serves from the cache and falls back to the repository.
func (c *SnapshotCache) Load(ctx context.Context, roomID string) (game.State, bool, error) {
	if s, ok := c.entries.Get(roomID); ok {
		c.metrics.RecordCacheLookup(true)
		return s, true, nil
	}
	c.metrics.RecordCacheLookup(false)

	s, ok, err := c.repo.Load(ctx, roomID)
	if err != nil || !ok {
		return s, ok, err
	}
	c.entries.Add(roomID, s)
	return s, true, nil
}

// Delete removes the snapshot from both layers.
func (c *SnapshotCache) Delete(ctx context.Context, roomID string) error {
	c.entries.Remove(roomID)
	return c.repo.Delete(ctx, roomID)
}

// List always reads the repository.
func (c *SnapshotCache) List(ctx context.Context) ([]storage.RoomSummary, error) {
	return c.repo.List(ctx)
}

// Len reports the number of cached rooms.
func (c *SnapshotCache) Len() int {
	return c.entries.Len()
}

// Close closes the repository.
func (c *SnapshotCache) Close() error {
	c.entries.Purge()
	return c.repo.Close()
}

var _ storage.RoomRepository = (*SnapshotCache)(nil)
