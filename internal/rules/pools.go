// ABOUTME: Exercise pools used by the rotation rule.
// ABOUTME: Assistance pools are keyed by main lift; core work shares one pool.
package rules

// Pools holds the candidate exercises the planner rotates through.
type Pools struct {
	Assistance map[int][]int // main lift id -> assistance ids
	Core       []int
}

// AssistanceFor returns the assistance pool for a main lift.
func (p Pools) AssistanceFor(mainLiftID int) []int {
	return p.Assistance[mainLiftID]
}

// DefaultPools returns the catalog pools seeded for the four main lifts.
// A fresh copy is returned so callers may modify it.
func DefaultPools() Pools {
	return Pools{
		Assistance: map[int][]int{
			SquatID:    {981, 977, 46, 984, 986, 987, 988, 989, 909, 910, 901, 265, 371, 632},
			BenchID:    {83, 81, 923, 154, 475, 194, 197, 538, 537, 445, 498, 386},
			DeadliftID: {507, 189, 484, 627, 630, 294, 365, 366, 364, 301, 636, 960, 448},
			OHPID:      {20, 79, 348, 256, 822, 829, 282, 694, 693, 571, 572, 915, 478},
		},
		Core: []int{91, 92, 93, 125, 176, 238, 307, 325, 326},
	}
}
