package engine

import (
	"github.com/MRamiBalles/ShiftEngine/server/internal/domain/game"
	"github.com/MRamiBalles/ShiftEngine/server/internal/domain/rules"
)

// TriggerContext describes the event being matched.
type TriggerContext struct {
	PlayerID string
	Position int
}

// Match returns the active rules listening for trigger at the event.
// For positional triggers a tile-bound rule matches only at its tile.
// The returned order is the storage order and carries no meaning.
func Match(state game.State, trigger rules.TriggerType, ctx TriggerContext) []rules.Rule {
	return match(state, trigger, ctx, false)
}

// matchBound is Match restricted to tile-bound rules. Cascades use it so
// that global rules fire once per phase.
func matchBound(state game.State, trigger rules.TriggerType, ctx TriggerContext) []rules.Rule {
	return match(state, trigger, ctx, true)
}

func match(state game.State, trigger rules.TriggerType, ctx TriggerContext, boundOnly bool) []rules.Rule {
	var matched []rules.Rule
	event := rules.Event{Trigger: trigger, PlayerID: ctx.PlayerID, Position: ctx.Position}

	for _, rule := range state.ActiveRules {
		if rule.Trigger != trigger {
			continue
		}
		if boundOnly && rule.Global() {
			continue
		}
		if trigger.Positional() && !rule.Global() && !rule.BoundTo(ctx.Position) {
			continue
		}
		if !conditionsHold(state, rule, event) {
			continue
		}
		matched = append(matched, rule)
	}
	return matched
}

func conditionsHold(state game.State, rule rules.Rule, event rules.Event) bool {
	for _, c := range rule.Conditions {
		if c != nil && !c.Holds(state, event) {
			return false
		}
	}
	return true
}
