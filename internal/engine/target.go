package engine

import (
	"errors"
	"fmt"

	"github.com/MRamiBalles/ShiftEngine/server/internal/domain/game"
	"github.com/MRamiBalles/ShiftEngine/server/internal/domain/rules"
)

// ErrUnsupportedTarget is returned by a TargetResolver for targets it does
// not implement.
var ErrUnsupportedTarget = errors.New("unsupported effect target")

// TargetResolver expands an effect target into the ids of the players the
// effect is applied to.
type TargetResolver interface {
	Resolve(state game.State, actorID string, target rules.Target) ([]string, error)
}

// TargetResolverFunc adapts a function to TargetResolver.
type TargetResolverFunc func(state game.State, actorID string, target rules.Target) ([]string, error)

// Resolve calls f.
func (f TargetResolverFunc) Resolve(state game.State, actorID string, target rules.Target) ([]string, error) {
	return f(state, actorID, target)
}

// SelfOnly resolves self to the actor. The fan-out order for all and others
// is undecided, so both are rejected.
type SelfOnly struct{}

// Resolve implements TargetResolver.
func (SelfOnly) Resolve(_ game.State, actorID string, target rules.Target) ([]string, error) {
	if target.Normalize() == rules.TargetSelf {
		return []string{actorID}, nil
	}
	return nil, fmt.Errorf("%w %q", ErrUnsupportedTarget, target)
}

// SwapPartner picks the player the actor trades places with.
type SwapPartner interface {
	Partner(state game.State, actorID string, effect rules.Effect) (string, bool)
}

// SwapPartnerFunc adapts a function to SwapPartner.
type SwapPartnerFunc func(state game.State, actorID string, effect rules.Effect) (string, bool)

// Partner calls f.
func (f SwapPartnerFunc) Partner(state game.State, actorID string, effect rules.Effect) (string, bool) {
	return f(state, actorID, effect)
}
