package engine

import (
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/MRamiBalles/ShiftEngine/server/internal/domain/game"
	"github.com/MRamiBalles/ShiftEngine/server/internal/domain/player"
	"github.com/MRamiBalles/ShiftEngine/server/internal/domain/rules"
)

func TestMoveRelativeClamps(t *testing.T) {
	for p := 0; p < 20; p++ {
		for d := -25; d <= 25; d++ {
			s := newState(20, nil, at("p1", p))
			got := position(t, ApplyEffect(s, "p1", move(float64(d))), "p1")
			want := max(0, min(19, p+d))
			if got != want {
				t.Fatalf("MoveRelative from %d by %d: got %d, want %d", p, d, got, want)
			}
		}
	}

	huge := []struct {
		delta float64
		want  int
	}{
		{1e19, 19},
		{math.MaxInt64, 19},
		{9.2e18, 19},
		{-1e19, 0},
		{math.MinInt64, 0},
		{1e300, 19},
	}
	for _, tt := range huge {
		s := newState(20, nil, at("p1", 5))
		if got := position(t, ApplyEffect(s, "p1", move(tt.delta)), "p1"); got != tt.want {
			t.Errorf("MoveRelative from 5 by %g: got %d, want %d", tt.delta, got, tt.want)
		}
	}
}

func TestModifyScoreSaturates(t *testing.T) {
	s := newState(20, nil, at("p1", 0))
	s = ApplyEffect(s, "p1", rules.Effect{Type: rules.ModifyScore, Value: 1e19})
	s = ApplyEffect(s, "p1", rules.Effect{Type: rules.ModifyScore, Value: 1e19})
	if got, _ := s.PlayerScore("p1"); got != math.MaxInt {
		t.Errorf("Expected score to saturate at MaxInt, got %d", got)
	}
}

func TestApplyEffectActions(t *testing.T) {
	tests := []struct {
		name      string
		effect    rules.Effect
		wantPos   int
		wantScore int
	}{
		{"teleport", rules.Effect{Type: rules.Teleport, Value: 12}, 12, 0},
		{"teleport is unchecked", rules.Effect{Type: rules.Teleport, Value: 40}, 40, 0},
		{"move to tile", rules.Effect{Type: rules.MoveToTile, Value: 2}, 2, 0},
		{"score", rules.Effect{Type: rules.ModifyScore, Value: 10}, 5, 10},
		{"stat", rules.Effect{Type: rules.ModifyStat, Value: -3}, 5, -3},
		{"back to start", rules.Effect{Type: rules.BackToStart}, 0, 0},
		{"skip turn marker", rules.Effect{Type: rules.SkipTurn, Value: 1}, 5, 0},
		{"extra turn marker", rules.Effect{Type: rules.ExtraTurn, Value: 1}, 5, 0},
		{"unknown action", rules.Effect{Type: "FLY", Value: 3}, 5, 0},
		{"numeric string", rules.Effect{Type: rules.MoveRelative, Value: rules.ParseValue("3")}, 8, 0},
		{"non numeric string", rules.Effect{Type: rules.MoveRelative, Value: rules.ParseValue("three")}, 5, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newState(20, nil, at("p1", 5))
			got := ApplyEffect(s, "p1", tt.effect)
			p, _ := got.Player("p1")
			if p.Position != tt.wantPos || p.Score != tt.wantScore {
				t.Errorf("Expected position %d score %d, got position %d score %d", tt.wantPos, tt.wantScore, p.Position, p.Score)
			}
		})
	}
}

func TestApplyEffectUnknownPlayer(t *testing.T) {
	s := newState(20, nil, at("p1", 5))
	got := ApplyEffect(s, "ghost", move(3))
	if diff := cmp.Diff(s, got); diff != "" {
		t.Errorf("Expected state unchanged (-want +got):\n%s", diff)
	}
}

func TestApplyEffectLeavesInputUntouched(t *testing.T) {
	s := newState(20, nil, at("p1", 5), at("p2", 7))
	snapshot := s.Clone()

	next := ApplyEffect(s, "p1", move(4))
	next = ApplyEffect(next, "p1", rules.Effect{Type: rules.ModifyScore, Value: 2})

	if diff := cmp.Diff(snapshot, s); diff != "" {
		t.Errorf("Input state was mutated (-want +got):\n%s", diff)
	}
	if got := position(t, next, "p1"); got != 9 {
		t.Errorf("Expected position 9, got %d", got)
	}
	if got := position(t, next, "p2"); got != 7 {
		t.Errorf("Expected bystander to stay at 7, got %d", got)
	}
}

func TestUnsupportedTargetsAreSkipped(t *testing.T) {
	s := newState(20, nil, at("p1", 5), at("p2", 7))
	for _, target := range []rules.Target{rules.TargetAll, rules.TargetOthers} {
		e := move(2)
		e.Target = target
		got := ApplyEffect(s, "p1", e)
		if diff := cmp.Diff(s.Players, got.Players); diff != "" {
			t.Errorf("target %s: expected no mutation (-want +got):\n%s", target, diff)
		}
	}
}

func TestCustomTargetResolver(t *testing.T) {
	everyone := TargetResolverFunc(func(s game.State, actor string, target rules.Target) ([]string, error) {
		if target.Normalize() == rules.TargetSelf {
			return []string{actor}, nil
		}
		var ids []string
		for _, p := range s.Players {
			if target == rules.TargetAll || p.ID != actor {
				ids = append(ids, p.ID)
			}
		}
		return ids, nil
	})
	r := NewResolver(WithTargetResolver(everyone))
	s := newState(20, nil, at("p1", 5), at("p2", 7), at("p3", 1))

	e := move(2)
	e.Target = rules.TargetOthers
	got := r.ApplyEffect(s, "p1", e)

	want := []int{5, 9, 3}
	for i, p := range got.Players {
		if p.Position != want[i] {
			t.Errorf("player %s: expected %d, got %d", p.ID, want[i], p.Position)
		}
	}
}

func TestSwapPositions(t *testing.T) {
	s := newState(20, nil, at("p1", 2), at("p2", 11))
	swap := rules.Effect{Type: rules.SwapPositions}

	if got := ApplyEffect(s, "p1", swap); position(t, got, "p1") != 2 {
		t.Errorf("Expected swap without partner to be a no-op")
	}

	leader := SwapPartnerFunc(func(s game.State, actor string, _ rules.Effect) (string, bool) {
		best := player.Player{Position: -1}
		for _, p := range s.Players {
			if p.ID != actor && p.Position > best.Position {
				best = p
			}
		}
		return best.ID, best.Position >= 0
	})
	got := NewResolver(WithSwapPartner(leader)).ApplyEffect(s, "p1", swap)
	if position(t, got, "p1") != 11 || position(t, got, "p2") != 2 {
		t.Errorf("Expected positions swapped, got %v", got.Players)
	}
}
