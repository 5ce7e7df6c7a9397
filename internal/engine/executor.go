package engine

import (
	"fmt"

	"github.com/MRamiBalles/ShiftEngine/server/internal/domain/game"
	"github.com/MRamiBalles/ShiftEngine/server/internal/domain/rules"
)

// ExecuteChain applies rules for playerID on a sandbox copy of state.
//
// Rules run in Prioritize order, effects in declared order. When a rule
// moves the player, tile-bound landing rules at the new position are queued
// behind the current work. At most MaxChainIterations rules are applied;
// when the breaker trips a warning is logged and the partial state is
// returned. An unknown player returns state itself with one log entry.
func (r *Resolver) ExecuteChain(state game.State, playerID string, chain []rules.Rule) (game.State, []RuleLog) {
	queue := Prioritize(chain)

	if state.PlayerIndex(playerID) < 0 {
		return state, []RuleLog{playerNotFound(playerID)}
	}
	sandbox := state.Clone()

	var logs []RuleLog
	applied := 0
	for len(queue) > 0 {
		if applied >= r.maxChain {
			logs = append(logs, RuleLog{
				RuleID:  EngineRuleID,
				Message: fmt.Sprintf("rule chain stopped after %d applications, %d pending", applied, len(queue)),
				Level:   LevelWarn,
				Code:    CodeTruncated,
			})
			r.logger.Debugf("chain for %s in room %s truncated at %d", playerID, state.RoomID, applied)
			break
		}

		rule := queue[0]
		queue = queue[1:]

		before, _ := sandbox.PlayerPosition(playerID)
		logs = append(logs, r.applyRule(&sandbox, playerID, rule)...)
		applied++

		after, _ := sandbox.PlayerPosition(playerID)
		if after != before {
			cascade := matchBound(sandbox, rules.OnLand, TriggerContext{PlayerID: playerID, Position: after})
			queue = append(queue, Prioritize(cascade)...)
		}
	}
	return sandbox, logs
}

// ExecuteChain runs a chain with the default policies.
func ExecuteChain(state game.State, playerID string, chain []rules.Rule) (game.State, []RuleLog) {
	return defaultResolver.ExecuteChain(state, playerID, chain)
}

func (r *Resolver) applyRule(sandbox *game.State, playerID string, rule rules.Rule) []RuleLog {
	logs := make([]RuleLog, 0, len(rule.Effects))
	for _, effect := range rule.Effects {
		o := r.applyInPlace(sandbox, playerID, effect)
		logs = append(logs, RuleLog{
			RuleID:  rule.ID,
			Message: rule.Name() + ": " + o.message,
			Level:   o.level,
			Action:  effect.Type,
			Code:    o.code,
		})
	}
	return logs
}
