// ABOUTME: Exercise rotation state for one training block.
// ABOUTME: Exclusion sets reset once a pool can no longer fill a selection.
package planner

import (
	"fmt"
	"hash/fnv"
	"math/rand/v2"

	"github.com/google/uuid"
)

// Rotation tracks which assistance and core exercises have already been
// chosen in the current block. Each main lift has its own exclusion set;
// core work shares one.
type Rotation struct {
	assistance map[int]map[int]bool
	core       map[int]bool
}

// NewRotation creates empty exclusion sets.
func NewRotation() *Rotation {
	return &Rotation{
		assistance: make(map[int]map[int]bool),
		core:       make(map[int]bool),
	}
}

// PickAssistance selects n distinct assistance exercises for a main lift.
// If fewer than n unused candidates remain the exclusion set is cleared
// first, so selection succeeds whenever the pool has at least n members.
func (r *Rotation) PickAssistance(mainLiftID int, pool []int, n int, rng *rand.Rand) []int {
	used, ok := r.assistance[mainLiftID]
	if !ok {
		used = make(map[int]bool)
		r.assistance[mainLiftID] = used
	}
	picked, reset := pick(pool, used, n, rng)
	if reset {
		r.assistance[mainLiftID] = markUsed(make(map[int]bool), picked)
	} else {
		markUsed(used, picked)
	}
	return picked
}

// PickCore selects one core exercise from the shared pool.
func (r *Rotation) PickCore(pool []int, rng *rand.Rand) (int, bool) {
	picked, reset := pick(pool, r.core, 1, rng)
	if len(picked) == 0 {
		return 0, false
	}
	if reset {
		r.core = make(map[int]bool)
	}
	markUsed(r.core, picked)
	return picked[0], true
}

// Excluded returns a copy of the assistance exclusion set for a main lift.
func (r *Rotation) Excluded(mainLiftID int) map[int]bool {
	out := make(map[int]bool, len(r.assistance[mainLiftID]))
	for id := range r.assistance[mainLiftID] {
		out[id] = true
	}
	return out
}

// pick shuffles the unused candidates and takes the first n. The second
// return value reports whether the exclusion set had to be reset.
func pick(pool []int, used map[int]bool, n int, rng *rand.Rand) ([]int, bool) {
	candidates := make([]int, 0, len(pool))
	for _, id := range pool {
		if !used[id] {
			candidates = append(candidates, id)
		}
	}

	reset := false
	if len(candidates) < n {
		reset = true
		candidates = append(candidates[:0], pool...)
	}

	rng.Shuffle(len(candidates), func(i, j int) {
		candidates[i], candidates[j] = candidates[j], candidates[i]
	})

	if n > len(candidates) {
		n = len(candidates)
	}
	return candidates[:n], reset
}

func markUsed(set map[int]bool, ids []int) map[int]bool {
	for _, id := range ids {
		set[id] = true
	}
	return set
}

// seededRand returns a generator keyed by (plan, week, day) so that the same
// plan always yields the same selections.
func seededRand(planID uuid.UUID, week, dow int) *rand.Rand {
	h := fnv.New64a()
	fmt.Fprintf(h, "%s:%d:%d", planID, week, dow)
	seed := h.Sum64()
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}
