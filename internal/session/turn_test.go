package session

import (
	"testing"

	"github.com/MRamiBalles/ShiftEngine/server/internal/domain/game"
	"github.com/MRamiBalles/ShiftEngine/server/internal/domain/player"
	"github.com/MRamiBalles/ShiftEngine/server/internal/domain/rules"
	"github.com/MRamiBalles/ShiftEngine/server/internal/engine"
)

func threePlayers() game.State {
	s := game.New("r", 20, nil)
	for i, id := range []string{"a", "b", "c"} {
		s.Players = append(s.Players, player.New(id, player.ColorFor(i)))
	}
	s.CurrentTurn = "a"
	return s
}

func TestAdvanceRotation(t *testing.T) {
	tests := []struct {
		name   string
		roller string
		skips  map[string]int
		logs   []engine.RuleLog
		want   string
	}{
		{"next in order", "a", nil, nil, "b"},
		{"wraps around", "c", nil, nil, "a"},
		{"skip passes over", "a", map[string]int{"b": 1}, nil, "c"},
		{"extra turn keeps", "b", nil, []engine.RuleLog{{RuleID: "x", Level: engine.LevelInfo, Action: rules.ExtraTurn}}, "b"},
		{"warned marker ignored", "b", nil, []engine.RuleLog{{RuleID: "x", Level: engine.LevelWarn, Action: rules.ExtraTurn}}, "c"},
		{"non flow action passes", "b", nil, []engine.RuleLog{{RuleID: "x", Level: engine.LevelInfo, Action: rules.ModifyScore}}, "c"},
		{"everyone else skipped", "a", map[string]int{"b": 1, "c": 1}, nil, "a"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := threePlayers()
			s.Skips = tt.skips
			got := Advance(s, tt.roller, tt.logs)
			if got.CurrentTurn != tt.want {
				t.Errorf("Expected %s, got %s", tt.want, got.CurrentTurn)
			}
		})
	}
}

func TestAdvanceConsumesSkip(t *testing.T) {
	s := threePlayers()
	s.Skips = map[string]int{"b": 1}

	got := Advance(s, "a", nil)
	if got.Skips["b"] != 0 {
		t.Errorf("Expected skip consumed, got %d", got.Skips["b"])
	}
	if s.Skips["b"] != 1 {
		t.Errorf("Expected input untouched, got %d", s.Skips["b"])
	}
}

func TestAdvanceRecordsSkipForRoller(t *testing.T) {
	s := threePlayers()
	logs := []engine.RuleLog{{RuleID: "mud", Level: engine.LevelInfo, Action: rules.SkipTurn}}

	got := Advance(s, "a", logs)
	if got.CurrentTurn != "b" || got.Skips["a"] != 1 {
		t.Errorf("Expected b to play and a to owe a skip, got turn=%s skips=%v", got.CurrentTurn, got.Skips)
	}
}

func TestAdvanceDetectsWin(t *testing.T) {
	s := threePlayers()
	s.Players[1].Position = 19

	got := Advance(s, "b", nil)
	if got.Status != game.StatusFinished || got.Winner != "b" || got.CurrentTurn != "b" {
		t.Errorf("Expected b to win, got status=%s winner=%s turn=%s", got.Status, got.Winner, got.CurrentTurn)
	}
}

func TestRandomRollerRange(t *testing.T) {
	r := NewRandomRoller(1, 2)
	seen := make(map[int]bool)
	for range 600 {
		v := r.Roll()
		if !validDice(v) {
			t.Fatalf("roll %d out of range", v)
		}
		seen[v] = true
	}
	if len(seen) != DiceSides {
		t.Errorf("Expected every face to appear, saw %v", seen)
	}

	a, b := NewRandomRoller(7, 7), NewRandomRoller(7, 7)
	for range 20 {
		if a.Roll() != b.Roll() {
			t.Fatal("Expected equal seeds to give equal sequences")
		}
	}
}
