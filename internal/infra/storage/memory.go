package storage

import (
	"cmp"
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/MRamiBalles/ShiftEngine/server/internal/domain/game"
)

type memoryEntry struct {
	state     game.State
	updatedAt int64
}

// MemoryRoomRepository keeps snapshots in process memory.
type MemoryRoomRepository struct {
	mu    sync.RWMutex
	rooms map[string]memoryEntry
}

// NewMemoryRoomRepository creates an empty in-memory repository.
func NewMemoryRoomRepository() *MemoryRoomRepository {
	return &MemoryRoomRepository{rooms: make(map[string]memoryEntry)}
}

func (r *MemoryRoomRepository) Save(_ context.Context, state game.State) error {
	if state.RoomID == "" {
		return ErrEmptyRoomID
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rooms[state.RoomID] = memoryEntry{state: state.Clone(), updatedAt: time.Now().UnixMilli()}
	return nil
}

func (r *MemoryRoomRepository) Load(_ context.Context, roomID string) (game.State, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.rooms[roomID]
	if !ok {
		return game.State{}, false, nil
	}
	return e.state.Clone(), true, nil
}

func (r *MemoryRoomRepository) Delete(_ context.Context, roomID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.rooms, roomID)
	return nil
}

func (r *MemoryRoomRepository) List(_ context.Context) ([]RoomSummary, error) {
	r.mu.RLock()
	out := make([]RoomSummary, 0, len(r.rooms))
	for _, e := range r.rooms {
		out = append(out, summarize(e.state, e.updatedAt))
	}
	r.mu.RUnlock()

	slices.SortFunc(out, func(a, b RoomSummary) int {
		if c := cmp.Compare(b.UpdatedAt, a.UpdatedAt); c != 0 {
			return c
		}
		return strings.Compare(a.RoomID, b.RoomID)
	})
	return out, nil
}

func (r *MemoryRoomRepository) Close() error { return nil }
