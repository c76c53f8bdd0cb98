// Package derange computes complete Secret Santa assignments in one step.
//
// Every strategy returns a derangement of the roster: each participant gives
// to exactly one other participant and receives from exactly one, and nobody
// is paired with themselves.
package derange

import (
	"fmt"

	"github.com/alienxp03/santa/internal/core"
)

// Strategy selects the derangement algorithm.
type Strategy string

const (
	// StrategyReject shuffles and reshuffles until no fixed point remains.
	// The result is uniform over all derangements.
	StrategyReject Strategy = "reject"

	// StrategySwap shuffles once, then swaps each fixed point with its
	// successor and re-scans until the permutation is clean.
	StrategySwap Strategy = "swap"

	// StrategyCycle builds a single gift circle with Sattolo's algorithm.
	StrategyCycle Strategy = "cycle"
)

// maxRejections bounds StrategyReject. The expected number of attempts is
// about e, so hitting this means the RNG is broken; we fall back to a cycle.
const maxRejections = 1000

// ParseStrategy returns the strategy with the given name.
func ParseStrategy(name string) (Strategy, error) {
	switch s := Strategy(name); s {
	case StrategyReject, StrategySwap, StrategyCycle:
		return s, nil
	case "":
		return StrategyReject, nil
	default:
		return "", fmt.Errorf("unknown derangement strategy: %s", name)
	}
}

// Generate assigns every participant in roster a receiver. The result lists
// givers in roster order.
func Generate(roster []core.Participant, rng core.RNG, strategy Strategy) (core.AssignmentSet, error) {
	if err := core.ValidateRoster(roster); err != nil {
		return nil, err
	}
	if len(roster) < 2 {
		return nil, fmt.Errorf("%w: got %d", core.ErrInsufficientParticipants, len(roster))
	}
	if rng == nil {
		rng = core.DefaultRNG()
	}

	var perm []int
	switch strategy {
	case StrategyReject, "":
		perm = rejectionSample(len(roster), rng)
	case StrategySwap:
		perm = shuffleAndSwap(len(roster), rng)
	case StrategyCycle:
		perm = sattolo(len(roster), rng)
	default:
		return nil, fmt.Errorf("unknown derangement strategy: %s", strategy)
	}

	set := make(core.AssignmentSet, len(roster))
	for i, p := range roster {
		set[i] = core.Assignment{Giver: p.Name, Receiver: roster[perm[i]].Name}
	}
	return set, nil
}

func identity(n int) []int {
	perm := make([]int, n)
	for i := range perm {
		perm[i] = i
	}
	return perm
}

// shuffle is an in-place Fisher-Yates shuffle.
func shuffle(perm []int, rng core.RNG) {
	for i := len(perm) - 1; i > 0; i-- {
		j := rng.Intn(i + 1)
		perm[i], perm[j] = perm[j], perm[i]
	}
}

func hasFixedPoint(perm []int) bool {
	for i, v := range perm {
		if i == v {
			return true
		}
	}
	return false
}

func rejectionSample(n int, rng core.RNG) []int {
	perm := identity(n)
	for range maxRejections {
		shuffle(perm, rng)
		if !hasFixedPoint(perm) {
			return perm
		}
	}
	return sattolo(n, rng)
}

// shuffleAndSwap fixes collisions by swapping perm[i] with perm[i+1 mod n].
// After the swap position i holds the successor's old value, which cannot be
// i, and the successor holds i, which cannot be its own index. A swap never
// creates a fixed point, so the re-scan loop ends after at most n passes.
func shuffleAndSwap(n int, rng core.RNG) []int {
	perm := identity(n)
	shuffle(perm, rng)
	for pass := 0; pass < n && hasFixedPoint(perm); pass++ {
		for i := range perm {
			if perm[i] == i {
				j := (i + 1) % n
				perm[i], perm[j] = perm[j], perm[i]
			}
		}
	}
	return perm
}

// sattolo produces a uniformly random cyclic permutation, which has no
// fixed points for n >= 2.
func sattolo(n int, rng core.RNG) []int {
	perm := identity(n)
	for i := n - 1; i > 0; i-- {
		j := rng.Intn(i)
		perm[i], perm[j] = perm[j], perm[i]
	}
	return perm
}
