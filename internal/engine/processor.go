package engine

import (
	"fmt"

	"github.com/MRamiBalles/ShiftEngine/server/internal/domain/game"
	"github.com/MRamiBalles/ShiftEngine/server/internal/domain/rules"
)

// ResolveDiceRoll runs one turn for playerID: the move-start chain at the
// current tile, the base move by dice, then the landing chain at the new
// tile. Each phase observes the state the previous one produced.
//
// Turn legality and game status are the caller's responsibility.
func (r *Resolver) ResolveDiceRoll(state game.State, playerID string, dice int) (game.State, []RuleLog) {
	p, ok := state.Player(playerID)
	if !ok {
		return state, []RuleLog{playerNotFound(playerID)}
	}

	var logs []RuleLog
	current := state

	// PRE
	if pre := Match(current, rules.OnMoveStart, TriggerContext{PlayerID: playerID, Position: p.Position}); len(pre) > 0 {
		var chainLogs []RuleLog
		current, chainLogs = r.ExecuteChain(current, playerID, pre)
		logs = append(logs, chainLogs...)
	}

	// MOVE
	from, _ := current.PlayerPosition(playerID)
	current = r.ApplyEffect(current, playerID, rules.Effect{Type: rules.MoveRelative, Value: rules.Value(dice)})
	to, _ := current.PlayerPosition(playerID)
	logs = append(logs, RuleLog{
		RuleID:  DiceRuleID,
		Message: describeMove(playerID, fmt.Sprintf("rolled %d", dice), from, to, from+dice),
		Level:   LevelInfo,
		Action:  rules.MoveRelative,
	})

	// LAND
	if land := Match(current, rules.OnLand, TriggerContext{PlayerID: playerID, Position: to}); len(land) > 0 {
		var chainLogs []RuleLog
		current, chainLogs = r.ExecuteChain(current, playerID, land)
		logs = append(logs, chainLogs...)
	}

	r.logger.Debugf("resolved roll %d for %s in room %s with %d log entries", dice, playerID, state.RoomID, len(logs))
	return current, logs
}

// ResolveDiceRoll resolves a roll with the default policies.
func ResolveDiceRoll(state game.State, playerID string, dice int) (game.State, []RuleLog) {
	return defaultResolver.ResolveDiceRoll(state, playerID, dice)
}
