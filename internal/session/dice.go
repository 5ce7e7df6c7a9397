package session

import (
	"math/rand/v2"
	"sync"
)

// DiceSides is the number of faces of the game die.
const DiceSides = 6

// Roller produces dice values in [1, DiceSides].
type Roller interface {
	Roll() int
}

// RollerFunc adapts a function to Roller.
type RollerFunc func() int

// Roll calls f.
func (f RollerFunc) Roll() int { return f() }

// RandomRoller is a Roller backed by a PCG source.
type RandomRoller struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewRandomRoller seeds a roller. Equal seeds give equal sequences.
func NewRandomRoller(seed1, seed2 uint64) *RandomRoller {
	return &RandomRoller{rng: rand.New(rand.NewPCG(seed1, seed2))}
}

// Roll implements Roller.
func (r *RandomRoller) Roll() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rng.IntN(DiceSides) + 1
}

func validDice(v int) bool {
	return v >= 1 && v <= DiceSides
}
