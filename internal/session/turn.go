package session

import (
	"github.com/MRamiBalles/ShiftEngine/server/internal/domain/game"
	"github.com/MRamiBalles/ShiftEngine/server/internal/domain/rules"
	"github.com/MRamiBalles/ShiftEngine/server/internal/engine"
)

// Advance settles a resolved roll: it declares the winner or passes the
// turn. An applied EXTRA_TURN keeps the turn with the roller; an applied
// SKIP_TURN makes rotation pass over the roller once.
func Advance(state game.State, rollerID string, logs []engine.RuleLog) game.State {
	out := state.Clone()

	if p, ok := out.Player(rollerID); ok && len(out.Tiles) > 0 && p.Position >= out.LastIndex() {
		out.Status = game.StatusFinished
		out.Winner = rollerID
		out.CurrentTurn = rollerID
		return out
	}

	var skip, extra bool
	for _, l := range logs {
		if !l.Action.FlowControl() || !l.Applied(l.Action) {
			continue
		}
		skip = skip || l.Action == rules.SkipTurn
		extra = extra || l.Action == rules.ExtraTurn
	}
	if skip {
		if out.Skips == nil {
			out.Skips = make(map[string]int)
		}
		out.Skips[rollerID]++
	}
	if extra {
		out.CurrentTurn = rollerID
		return out
	}
	out.CurrentTurn = nextTurn(&out, rollerID)
	return out
}

// nextTurn walks the roster circularly from the player after fromID,
// consuming one pending skip per player passed over. state must be owned by
// the caller.
func nextTurn(state *game.State, fromID string) string {
	n := len(state.Players)
	if n == 0 {
		return ""
	}
	start := state.PlayerIndex(fromID)
	for step := 1; ; step++ {
		cand := state.Players[(start+step+n)%n].ID
		if state.Skips[cand] > 0 {
			state.Skips[cand]--
			if state.Skips[cand] == 0 {
				delete(state.Skips, cand)
			}
			continue
		}
		return cand
	}
}
