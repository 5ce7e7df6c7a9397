// Package game holds the immutable game-state value the rules engine
// transforms. Every transformation returns a new State; callers must treat
// a State they hold as read-only.
// This package is PURE and must NOT import any infrastructure packages.
package game

import (
	"github.com/MRamiBalles/ShiftEngine/server/internal/domain/board"
	"github.com/MRamiBalles/ShiftEngine/server/internal/domain/player"
	"github.com/MRamiBalles/ShiftEngine/server/internal/domain/rules"
)

// Status is the lifecycle phase of a game.
type Status string

const (
	StatusPlaying  Status = "playing"
	StatusFinished Status = "finished"
)

// State is a snapshot of one game.
type State struct {
	RoomID      string          `json:"room_id"`
	Pack        string          `json:"pack,omitempty"`
	Tiles       []board.Tile    `json:"tiles"`
	Players     []player.Player `json:"players"`
	CurrentTurn string          `json:"current_turn"`
	Status      Status          `json:"status"`
	ActiveRules []rules.Rule    `json:"active_rules"`
	Winner      string          `json:"winner,omitempty"`
	TurnNumber  int             `json:"turn_number"`

	// Skips counts pending skipped turns per player.
	Skips map[string]int `json:"skips,omitempty"`
}

// New builds an empty game on a generated board.
func New(roomID string, length int, active []rules.Rule) State {
	return State{
		RoomID:      roomID,
		Tiles:       board.Generate(length),
		Status:      StatusPlaying,
		ActiveRules: active,
	}
}

// Clone returns a copy whose players and skip counters may be mutated
// without affecting s. Tiles and rules are shared since nothing edits them.
func (s State) Clone() State {
	out := s
	if s.Players != nil {
		out.Players = make([]player.Player, len(s.Players))
		copy(out.Players, s.Players)
	}
	if s.Skips != nil {
		out.Skips = make(map[string]int, len(s.Skips))
		for k, v := range s.Skips {
			out.Skips[k] = v
		}
	}
	return out
}

// BoardLength is the number of tiles.
func (s State) BoardLength() int {
	return len(s.Tiles)
}

// LastIndex is the index of the final tile, or 0 on an empty board.
func (s State) LastIndex() int {
	return max(len(s.Tiles)-1, 0)
}

// ClampPosition bounds p to the board. A board without tiles is unbounded
// above.
func (s State) ClampPosition(p int) int {
	if len(s.Tiles) == 0 {
		return max(p, 0)
	}
	return min(max(p, 0), s.LastIndex())
}

// PlayerIndex returns the slice index of the player, or -1.
func (s State) PlayerIndex(playerID string) int {
	for i, p := range s.Players {
		if p.ID == playerID {
			return i
		}
	}
	return -1
}

// Player looks up a player by id.
func (s State) Player(playerID string) (player.Player, bool) {
	if i := s.PlayerIndex(playerID); i >= 0 {
		return s.Players[i], true
	}
	return player.Player{}, false
}

// PlayerPosition implements rules.Facts.
func (s State) PlayerPosition(playerID string) (int, bool) {
	p, ok := s.Player(playerID)
	return p.Position, ok
}

// PlayerScore implements rules.Facts.
func (s State) PlayerScore(playerID string) (int, bool) {
	p, ok := s.Player(playerID)
	return p.Score, ok
}

var _ rules.Facts = State{}
