package engine

import (
	"errors"
	"fmt"
	"math"

	"github.com/MRamiBalles/ShiftEngine/server/internal/domain/game"
	"github.com/MRamiBalles/ShiftEngine/server/internal/domain/rules"
)

// ApplyEffect applies one effect for playerID with the default policies.
// An unknown player returns state unchanged.
func ApplyEffect(state game.State, playerID string, effect rules.Effect) game.State {
	return defaultResolver.ApplyEffect(state, playerID, effect)
}

// ApplyEffect applies one effect for playerID outside of any chain.
func (r *Resolver) ApplyEffect(state game.State, playerID string, effect rules.Effect) game.State {
	if state.PlayerIndex(playerID) < 0 {
		return state
	}
	sandbox := state.Clone()
	r.applyInPlace(&sandbox, playerID, effect)
	return sandbox
}

// outcome describes one effect application on a sandbox.
type outcome struct {
	message string
	level   Level
	code    string
}

// applyInPlace mutates sandbox, which the caller must exclusively own.
func (r *Resolver) applyInPlace(sandbox *game.State, actorID string, effect rules.Effect) outcome {
	if !effect.Type.Known() {
		return outcome{
			message: fmt.Sprintf("unknown effect %q skipped", effect.Type),
			level:   LevelWarn,
			code:    CodeUnknownEffect,
		}
	}

	targets, err := r.targets.Resolve(*sandbox, actorID, effect.Target)
	if err != nil {
		code := ""
		if errors.Is(err, ErrUnsupportedTarget) {
			code = CodeUnsupportedTarget
		}
		return outcome{message: fmt.Sprintf("%s skipped: %v", effect.Type, err), level: LevelWarn, code: code}
	}

	var out outcome
	for i, id := range targets {
		o := r.applyToPlayer(sandbox, actorID, id, effect)
		if i == 0 {
			out = o
			continue
		}
		out.message += "; " + o.message
		if o.level == LevelWarn {
			out.level, out.code = o.level, o.code
		}
	}
	if len(targets) == 0 {
		out = outcome{message: fmt.Sprintf("%s had no targets", effect.Type), level: LevelInfo}
	}
	return out
}

func (r *Resolver) applyToPlayer(sandbox *game.State, actorID, playerID string, effect rules.Effect) outcome {
	i := sandbox.PlayerIndex(playerID)
	if i < 0 {
		return outcome{message: fmt.Sprintf("player %s not found", playerID), level: LevelWarn, code: CodePlayerNotFound}
	}
	p := &sandbox.Players[i]
	v := effect.Value.Int()

	switch effect.Type {
	case rules.MoveRelative:
		from, raw := p.Position, saturatingAdd(p.Position, v)
		p.Position = sandbox.ClampPosition(raw)
		return info(describeMove(p.ID, fmt.Sprintf("moves %+d", v), from, p.Position, raw))

	case rules.Teleport, rules.MoveToTile:
		from := p.Position
		p.Position = v
		return info(fmt.Sprintf("%s teleported: %d -> %d", p.ID, from, p.Position))

	case rules.ModifyScore, rules.ModifyStat:
		before := p.Score
		p.Score = saturatingAdd(p.Score, v)
		return info(fmt.Sprintf("%s score %+d: %d -> %d", p.ID, v, before, p.Score))

	case rules.BackToStart:
		from := p.Position
		p.Position = 0
		return info(fmt.Sprintf("%s sent back to start: %d -> 0", p.ID, from))

	case rules.SwapPositions:
		return r.swapPositions(sandbox, actorID, i, effect)

	case rules.SkipTurn:
		return info(fmt.Sprintf("%s will skip the next turn", p.ID))

	case rules.ExtraTurn:
		return info(fmt.Sprintf("%s gains an extra turn", p.ID))
	}
	return outcome{message: fmt.Sprintf("unknown effect %q skipped", effect.Type), level: LevelWarn, code: CodeUnknownEffect}
}

func (r *Resolver) swapPositions(sandbox *game.State, actorID string, i int, effect rules.Effect) outcome {
	p := &sandbox.Players[i]
	if r.swap == nil {
		return outcome{message: fmt.Sprintf("%s has no swap partner configured", p.ID), level: LevelWarn, code: CodeNoSwapPartner}
	}
	partnerID, ok := r.swap.Partner(*sandbox, actorID, effect)
	j := sandbox.PlayerIndex(partnerID)
	if !ok || j < 0 || j == i {
		return outcome{message: fmt.Sprintf("%s found nobody to swap with", p.ID), level: LevelWarn, code: CodeNoSwapPartner}
	}
	q := &sandbox.Players[j]
	mine, theirs := p.Position, q.Position
	p.Position, q.Position = theirs, mine
	return info(fmt.Sprintf("%s swapped positions with %s: %d <-> %d", p.ID, q.ID, mine, theirs))
}

func info(msg string) outcome {
	return outcome{message: msg, level: LevelInfo}
}

func describeMove(playerID, verb string, from, to, raw int) string {
	msg := fmt.Sprintf("%s %s: %d -> %d", playerID, verb, from, to)
	if raw != to {
		msg += fmt.Sprintf(" (clamped from %d)", raw)
	}
	return msg
}

func saturatingAdd(a, b int) int {
	switch {
	case b > 0 && a > math.MaxInt-b:
		return math.MaxInt
	case b < 0 && a < math.MinInt-b:
		return math.MinInt
	}
	return a + b
}
