package syllable

import (
	"errors"
	"math/rand"
	"time"

	"github.com/samber/lo"
)

// Difficulty selects which fragment pools feed the prompt draw.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

// ErrEmptyCandidatePool is returned when the weighted mixture produces no
// candidates (degenerate pool sizes). Selection must fail loudly instead
// of emitting a blank prompt.
var ErrEmptyCandidatePool = errors.New("syllable: empty candidate pool")

// Valid reports whether d is one of the known difficulty tiers.
func (d Difficulty) Valid() bool {
	switch d {
	case DifficultyEasy, DifficultyMedium, DifficultyHard:
		return true
	}
	return false
}

// Pools holds the tiered fragment lists loaded at startup.
type Pools struct {
	Easy   []string `json:"easy"`
	Medium []string `json:"medium"`
	Hard   []string `json:"hard"`
}

// Selector draws prompt fragments from a weighted mixture of the tiered
// pools. Higher difficulties mix in progressively rarer fragments:
//
//	easy   -> the whole easy pool
//	medium -> 70% of easy + 30% of medium
//	hard   -> 60% of easy + 35% of medium + 5% of hard
//
// Sample sizes are floor(len(pool) * ratio); the subsets themselves are
// drawn uniformly without replacement, then one fragment is picked
// uniformly from the combined candidates.
type Selector struct {
	pools Pools
	rng   *rand.Rand
}

func NewSelector(pools Pools) *Selector {
	return NewSelectorWithRand(pools, rand.New(rand.NewSource(time.Now().UnixNano())))
}

func NewSelectorWithRand(pools Pools, rng *rand.Rand) *Selector {
	return &Selector{pools: pools, rng: rng}
}

// Select returns one fragment for the given difficulty, or
// ErrEmptyCandidatePool when the mixture has nothing to draw from.
func (s *Selector) Select(difficulty Difficulty) (string, error) {
	var candidates []string

	switch difficulty {
	case DifficultyMedium:
		candidates = append(candidates, lo.Samples(s.pools.Easy, ratioFloor(s.pools.Easy, 0.7))...)
		candidates = append(candidates, lo.Samples(s.pools.Medium, ratioFloor(s.pools.Medium, 0.3))...)
	case DifficultyHard:
		candidates = append(candidates, lo.Samples(s.pools.Easy, ratioFloor(s.pools.Easy, 0.6))...)
		candidates = append(candidates, lo.Samples(s.pools.Medium, ratioFloor(s.pools.Medium, 0.35))...)
		candidates = append(candidates, lo.Samples(s.pools.Hard, ratioFloor(s.pools.Hard, 0.05))...)
	default:
		// Unknown tiers degrade to easy rather than guessing at a mixture.
		candidates = s.pools.Easy
	}

	if len(candidates) == 0 {
		return "", ErrEmptyCandidatePool
	}
	return candidates[s.rng.Intn(len(candidates))], nil
}

func ratioFloor(pool []string, ratio float64) int {
	return int(float64(len(pool)) * ratio)
}
