package engine

import (
	"github.com/MRamiBalles/ShiftEngine/server/internal/domain/game"
	"github.com/MRamiBalles/ShiftEngine/server/internal/domain/player"
	"github.com/MRamiBalles/ShiftEngine/server/internal/domain/rules"
)

func at(id string, position int) player.Player {
	p := player.New(id, player.ColorFor(0))
	p.Position = position
	return p
}

func newState(length int, active []rules.Rule, players ...player.Player) game.State {
	s := game.New("room-test", length, active)
	s.Status = game.StatusPlaying
	s.Players = players
	if len(players) > 0 {
		s.CurrentTurn = players[0].ID
	}
	return s
}

func move(v float64) rules.Effect {
	return rules.Effect{Type: rules.MoveRelative, Value: rules.Value(v)}
}

func position(t interface{ Fatalf(string, ...any) }, s game.State, id string) int {
	pos, ok := s.PlayerPosition(id)
	if !ok {
		t.Fatalf("player %s missing from state", id)
	}
	return pos
}
