package engine

import (
	"github.com/MRamiBalles/ShiftEngine/server/internal/platform/logger"
)

// DefaultMaxChainIterations caps rule applications per chain.
const DefaultMaxChainIterations = 10

// Resolver runs rule chains and dice rolls. The zero value is not usable;
// build one with NewResolver. A Resolver holds no game state and is safe
// for concurrent use across distinct states.
type Resolver struct {
	maxChain int
	targets  TargetResolver
	swap     SwapPartner
	logger   *logger.Logger
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithMaxChainIterations overrides the circuit breaker. Values below 1 are
// ignored.
func WithMaxChainIterations(n int) Option {
	return func(r *Resolver) {
		if n > 0 {
			r.maxChain = n
		}
	}
}

// WithTargetResolver replaces the SelfOnly target policy.
func WithTargetResolver(t TargetResolver) Option {
	return func(r *Resolver) {
		if t != nil {
			r.targets = t
		}
	}
}

// WithSwapPartner enables SWAP_POSITIONS.
func WithSwapPartner(s SwapPartner) Option {
	return func(r *Resolver) {
		r.swap = s
	}
}

// WithLogger attaches a logger for debug notes about chains.
func WithLogger(l *logger.Logger) Option {
	return func(r *Resolver) {
		if l != nil {
			r.logger = l
		}
	}
}

// NewResolver creates a resolver with the given options applied over the
// defaults.
func NewResolver(opts ...Option) *Resolver {
	r := &Resolver{
		maxChain: DefaultMaxChainIterations,
		targets:  SelfOnly{},
		logger:   logger.Discard(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// MaxChainIterations returns the configured cap.
func (r *Resolver) MaxChainIterations() int {
	return r.maxChain
}

var defaultResolver = NewResolver()
