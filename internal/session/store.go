package session

import (
	"context"

	"github.com/MRamiBalles/ShiftEngine/server/internal/domain/game"
	"github.com/MRamiBalles/ShiftEngine/server/internal/domain/rules"
)

// Store keeps the latest snapshot of each room.
type Store interface {
	Save(ctx context.Context, state game.State) error
	Load(ctx context.Context, roomID string) (game.State, bool, error)
	Delete(ctx context.Context, roomID string) error
}

// RuleSource resolves a rule pack name to its rules.
type RuleSource interface {
	Pack(name string) ([]rules.Rule, bool)
}

type nopStore struct{}

func (nopStore) Save(context.Context, game.State) error { return nil }

func (nopStore) Load(context.Context, string) (game.State, bool, error) {
	return game.State{}, false, nil
}

func (nopStore) Delete(context.Context, string) error { return nil }

type noRules struct{}

func (noRules) Pack(string) ([]rules.Rule, bool) { return nil, false }
