package engine

import (
	"fmt"

	"github.com/MRamiBalles/ShiftEngine/server/internal/domain/rules"
)

// Reserved rule ids for entries not produced by a declared rule.
const (
	DiceRuleID   = "dice"
	EngineRuleID = "engine"
)

// Level is the severity of a RuleLog entry.
type Level string

const (
	LevelInfo Level = "info"
	LevelWarn Level = "warn"
)

// Diagnostic codes carried by engine warnings.
const (
	CodeTruncated         = "chain_truncated"
	CodePlayerNotFound    = "player_not_found"
	CodeUnknownEffect     = "unknown_effect"
	CodeUnsupportedTarget = "unsupported_target"
	CodeNoSwapPartner     = "no_swap_partner"
)

// RuleLog is one line of the audit trail of a resolution.
type RuleLog struct {
	RuleID  string           `json:"rule_id"`
	Message string           `json:"message"`
	Level   Level            `json:"level"`
	Action  rules.ActionType `json:"action,omitempty"`
	Code    string           `json:"code,omitempty"`
}

func (l RuleLog) String() string {
	return fmt.Sprintf("[%s] %s: %s", l.Level, l.RuleID, l.Message)
}

// Applied reports whether the entry records an applied effect of the given
// action type.
func (l RuleLog) Applied(action rules.ActionType) bool {
	return l.Level == LevelInfo && l.Action == action
}

// Truncated reports whether the circuit breaker cut a chain short.
func Truncated(logs []RuleLog) bool {
	for _, l := range logs {
		if l.Code == CodeTruncated {
			return true
		}
	}
	return false
}

func playerNotFound(playerID string) RuleLog {
	return RuleLog{
		RuleID:  EngineRuleID,
		Message: fmt.Sprintf("player %s not found, nothing applied", playerID),
		Level:   LevelWarn,
		Code:    CodePlayerNotFound,
	}
}
