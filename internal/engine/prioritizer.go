package engine

import (
	"cmp"
	"slices"
	"strings"
	"time"

	"github.com/MRamiBalles/ShiftEngine/server/internal/domain/rules"
)

// Effect priorities, lower runs first.
const (
	// PriorityDice is reserved for dice-modifying effects.
	PriorityDice     = 1
	PriorityMove     = 2
	PriorityTeleport = 3
	PriorityStat     = 4
	PriorityDefault  = 5
)

// EffectPriority maps an action to its urgency.
func EffectPriority(action rules.ActionType) int {
	switch action {
	case rules.MoveRelative:
		return PriorityMove
	case rules.Teleport, rules.MoveToTile:
		return PriorityTeleport
	case rules.ModifyScore, rules.ModifyStat:
		return PriorityStat
	default:
		return PriorityDefault
	}
}

// RulePriority is the most urgent priority among the rule's effects.
func RulePriority(rule rules.Rule) int {
	p := PriorityDefault
	for _, e := range rule.Effects {
		p = min(p, EffectPriority(e.Type))
	}
	return p
}

// Prioritize returns rules in execution order. The input is not modified.
//
// Ordering keys: effect priority, explicit rule priority (set first, lower
// first), creation time (set first, earlier first), then id.
func Prioritize(in []rules.Rule) []rules.Rule {
	out := slices.Clone(in)
	slices.SortStableFunc(out, compareRules)
	return out
}

func compareRules(a, b rules.Rule) int {
	if c := cmp.Compare(RulePriority(a), RulePriority(b)); c != 0 {
		return c
	}
	if c := compareOptional(a.Priority, b.Priority); c != 0 {
		return c
	}
	if c := compareCreated(a.CreatedAt, b.CreatedAt); c != 0 {
		return c
	}
	return strings.Compare(a.ID, b.ID)
}

func compareOptional(a, b *int) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return 1
	case b == nil:
		return -1
	}
	return cmp.Compare(*a, *b)
}

func compareCreated(a, b time.Time) int {
	switch {
	case a.IsZero() && b.IsZero():
		return 0
	case a.IsZero():
		return 1
	case b.IsZero():
		return -1
	}
	return a.Compare(b)
}
