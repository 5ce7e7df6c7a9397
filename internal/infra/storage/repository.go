// Package storage provides the persistence layer for the game server.
// It keeps the latest snapshot of each room so a restarted server can pick
// games up again; it does not keep game history.
package storage

import (
	"context"
	"errors"

	"github.com/MRamiBalles/ShiftEngine/server/internal/domain/game"
)

// ErrEmptyRoomID is returned when saving a state without a room id.
var ErrEmptyRoomID = errors.New("snapshot has no room id")

// RoomSummary is the indexed metadata of a stored snapshot.
type RoomSummary struct {
	RoomID     string      `json:"room_id"`
	Status     game.Status `json:"status"`
	Players    int         `json:"players"`
	TurnNumber int         `json:"turn_number"`
	UpdatedAt  int64       `json:"updated_at"` // Unix milliseconds
}

// RoomRepository defines the interface for room snapshot persistence.
// The session layer uses this interface; the implementations live here.
type RoomRepository interface {
	// Save upserts the snapshot of state.RoomID.
	Save(ctx context.Context, state game.State) error

	// Load returns the snapshot, with false when none exists.
	Load(ctx context.Context, roomID string) (game.State, bool, error)

	// Delete removes a snapshot. Deleting a missing room is not an error.
	Delete(ctx context.Context, roomID string) error

	// List returns the stored rooms, most recently updated first.
	List(ctx context.Context) ([]RoomSummary, error)

	Close() error
}

func summarize(state game.State, updatedAt int64) RoomSummary {
	return RoomSummary{
		RoomID:     state.RoomID,
		Status:     state.Status,
		Players:    len(state.Players),
		TurnNumber: state.TurnNumber,
		UpdatedAt:  updatedAt,
	}
}
